package models

import "time"

// AppointmentStatus is the doctor-driven lifecycle of an appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "Pending"
	StatusConfirmed AppointmentStatus = "Confirmed"
	StatusCancelled AppointmentStatus = "Cancelled"
	StatusCompleted AppointmentStatus = "Completed"
	StatusRejected  AppointmentStatus = "Rejected"
	StatusNoShow    AppointmentStatus = "No-show"
)

// Occupies reports whether an appointment in this status holds its slot.
func (s AppointmentStatus) Occupies() bool {
	return s != StatusCancelled && s != StatusRejected
}

// PaymentStatus tracks payment independently of AppointmentStatus.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentFailed   PaymentStatus = "Failed"
	PaymentRefunded PaymentStatus = "Refunded"
)

// Appointment is embedded in its Doctor. PatientRef is a lookup reference only.
type Appointment struct {
	ID                      string            `bson:"id" json:"id"`
	PatientRef              string            `bson:"patientRef" json:"patientRef"`
	PatientName             string            `bson:"patientName" json:"patientName"`
	PatientContact          string            `bson:"patientContact" json:"patientContact"`
	AppointmentTime         time.Time         `bson:"appointmentTime" json:"appointmentTime"`
	Reason                  string            `bson:"reason" json:"reason"`
	Status                  AppointmentStatus `bson:"status" json:"status"`
	RejectionReason         string            `bson:"rejectionReason" json:"rejectionReason"`
	Amount                  float64           `bson:"amount" json:"amount"`
	PaymentStatus           PaymentStatus     `bson:"paymentStatus" json:"paymentStatus"`
	PaymentID               string            `bson:"paymentId" json:"paymentId"`
	OrderID                 string            `bson:"orderId" json:"orderId"`
	NotifiedTwentyFourHours bool              `bson:"notifiedTwentyFourHours" json:"notifiedTwentyFourHours"`
	NotifiedOneHour         bool              `bson:"notifiedOneHour" json:"notifiedOneHour"`
	CreatedAt               time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// BookingRequest is the patient's booking payload. Either AppointmentTime or Date
// plus Slot must be given. AppointmentTime without an offset is read in the clinic zone.
type BookingRequest struct {
	PatientName     string `json:"patientName"`
	PatientContact  string `json:"patientContact"`
	AppointmentTime string `json:"appointmentTime"`
	Date            string `json:"date"`
	Slot            string `json:"slot"`
	Reason          string `json:"reason"`
}

// StatusUpdateRequest is the doctor's status transition payload.
// RejectionReason may be omitted or empty.
type StatusUpdateRequest struct {
	Status          AppointmentStatus `json:"status" binding:"required"`
	RejectionReason *string           `json:"rejectionReason"`
}

// PatientAppointmentView is an appointment with the owning doctor's public details.
type PatientAppointmentView struct {
	Appointment
	DoctorID        string `json:"doctorId"`
	DoctorName      string `json:"doctorName"`
	DoctorSpecialty string `json:"doctorSpecialty"`
}

// ReminderMark records which reminder flags to flip for one appointment.
type ReminderMark struct {
	AppointmentID   string
	TwentyFourHours bool
	OneHour         bool
}
