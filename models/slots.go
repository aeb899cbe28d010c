package models

// SlotWindow is one declared window. Start ("HH:MM") identifies the bookable slot.
type SlotWindow struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

// DayAvailability groups a doctor's recurring windows for one weekday.
type DayAvailability struct {
	Day   string       `bson:"day" json:"day"` // e.g. "Monday"
	Slots []SlotWindow `bson:"slots" json:"slots"`
}

// WeeklyWindow is the flat shape clients submit and delete by.
type WeeklyWindow struct {
	Day   string `json:"day" binding:"required"`
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

// SetAvailabilityRequest is the body for replacing or merging availability.
type SetAvailabilityRequest struct {
	Availability []WeeklyWindow `json:"availability" binding:"required"`
}

// SlotsResponse lists a date's slots and the starts already taken.
// Booked slots stay in Slots so clients can render them disabled.
type SlotsResponse struct {
	Date   string       `json:"date"`
	Day    string       `json:"day"`
	Slots  []SlotWindow `json:"slots"`
	Booked []string     `json:"booked"`
}
