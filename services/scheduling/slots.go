package scheduling

import (
	"context"
	"sort"
	"time"

	doctorRepo "medislot/database/repository/doctor"
	"medislot/models"
	"medislot/utils"

	"go.uber.org/zap"
)

// SlotsForDay unions the windows declared for day. Each window is one slot keyed by
// its start; when two windows share a start the first declared one wins.
func SlotsForDay(availability []models.DayAvailability, day string) []models.SlotWindow {
	seen := make(map[string]bool)
	slots := []models.SlotWindow{}
	for _, d := range availability {
		if d.Day != day {
			continue
		}
		for _, w := range d.Slots {
			if seen[w.Start] {
				continue
			}
			seen[w.Start] = true
			slots = append(slots, w)
		}
	}
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Start < slots[j].Start })
	return slots
}

// BookedTimes lists the "HH:MM" starts held by occupying appointments on the calendar
// date of day in loc.
func BookedTimes(appointments []models.Appointment, day time.Time, loc *time.Location) []string {
	y, m, d := day.In(loc).Date()
	seen := make(map[string]bool)
	booked := []string{}
	for _, a := range appointments {
		if !a.Status.Occupies() {
			continue
		}
		at := a.AppointmentTime.In(loc)
		ay, am, ad := at.Date()
		if ay != y || am != m || ad != d {
			continue
		}
		clock := at.Format("15:04")
		if !seen[clock] {
			seen[clock] = true
			booked = append(booked, clock)
		}
	}
	sort.Strings(booked)
	return booked
}

// HasSlot reports whether start is one of slots.
func HasSlot(slots []models.SlotWindow, start string) bool {
	for _, s := range slots {
		if s.Start == start {
			return true
		}
	}
	return false
}

// ResolveSlots lists the bookable slots of a calendar date and the ones already taken.
// Booked slots are not removed from Slots.
func (s *DefaultAvailabilityService) ResolveSlots(ctx context.Context, doctorID, date string) (*models.SlotsResponse, error) {
	day, err := ParseDate(date, s.Location)
	if err != nil {
		return nil, utils.NewValidationError("date", "date must be formatted as YYYY-MM-DD")
	}

	// Appointments are never cached, so slot resolution always reads the aggregate.
	doc, err := s.Repo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, doctorRepo.ToAppError(err)
	}

	weekday := day.Weekday().String()
	resp := &models.SlotsResponse{
		Date:   date,
		Day:    weekday,
		Slots:  SlotsForDay(doc.Availability, weekday),
		Booked: BookedTimes(doc.Appointments, day, s.Location),
	}
	s.logger().Debug("Resolved slots",
		zap.String("doctorID", doctorID),
		zap.String("date", date),
		zap.Int("slots", len(resp.Slots)),
		zap.Int("booked", len(resp.Booked)))
	return resp, nil
}
