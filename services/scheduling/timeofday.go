package scheduling

import (
	"fmt"
	"strings"
	"time"
)

// Weekdays in display order. Availability is always stored in this order.
var weekdayOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var dayIndex = func() map[string]int {
	m := make(map[string]int, 14)
	for i, d := range weekdayOrder {
		m[strings.ToLower(d)] = i
		m[strings.ToLower(d[:3])] = i
	}
	return m
}()

// NormalizeDay maps "monday", "MON" or "Monday" to "Monday".
func NormalizeDay(day string) (string, bool) {
	i, ok := dayIndex[strings.ToLower(strings.TrimSpace(day))]
	if !ok {
		return "", false
	}
	return weekdayOrder[i], true
}

// ParseClock parses a 24-hour "HH:MM" value into minutes after midnight.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
		}
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("invalid time %q, out of range", s)
	}
	return h*60 + m, nil
}

// ParseDate parses "YYYY-MM-DD" as midnight in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", date, loc)
}

// At returns the instant of clock time "HH:MM" on the calendar day of date in loc.
func At(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	minutes, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), minutes/60, minutes%60, 0, 0, loc), nil
}
