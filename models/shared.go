package models

import "time"

// ReminderPayload is one reminder email, also used as the queued task body.
type ReminderPayload struct {
	DoctorID        string    `json:"doctorId"`
	AppointmentID   string    `json:"appointmentId"`
	PatientName     string    `json:"patientName"`
	PatientContact  string    `json:"patientContact"`
	DoctorName      string    `json:"doctorName"`
	AppointmentTime time.Time `json:"appointmentTime"`
	LeadHours       int       `json:"leadHours"` // 24 or 1
	Timezone        string    `json:"timezone"`
}
