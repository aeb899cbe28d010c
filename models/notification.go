package models

import "time"

// Live event types pushed to connected doctors and patients.
const (
	EventNewAppointment    = "newAppointment"
	EventPaymentReceived   = "paymentReceived"
	EventAppointmentStatus = "appointmentStatus"
)

// Notification is an outbound event addressed to one user account.
type Notification struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	UserID    string         `json:"userId"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"createdAt"`
}
