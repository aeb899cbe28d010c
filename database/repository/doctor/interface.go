// File: database/repository/doctor/interface.go
package doctorRepo

import (
	"context"
	"errors"
	"time"

	"medislot/models"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrDuplicateDoctor     = errors.New("a doctor listing already exists for this account")
	// ErrVersionConflict means the aggregate changed since it was read.
	ErrVersionConflict = errors.New("doctor was modified concurrently")
	// ErrSlotTaken means an active appointment already holds that start time.
	ErrSlotTaken = errors.New("an active appointment already exists at this time")
)

// DoctorRepository persists the doctor aggregate. Every write bumps Version.
type DoctorRepository interface {
	Create(ctx context.Context, doc *models.Doctor) error
	GetByID(ctx context.Context, id string) (*models.Doctor, error)
	GetByUserRef(ctx context.Context, userRef string) (*models.Doctor, error)
	GetByAppointmentID(ctx context.Context, appointmentID string) (*models.Doctor, error)
	List(ctx context.Context, filter models.DoctorFilter) ([]models.Doctor, error)
	ListByPatient(ctx context.Context, patientID string) ([]models.Doctor, error)
	// ListWithAppointmentsAfter returns doctors holding at least one appointment after t.
	ListWithAppointmentsAfter(ctx context.Context, t time.Time) ([]models.Doctor, error)

	// ReplaceAvailability overwrites availability if the stored version still matches.
	ReplaceAvailability(ctx context.Context, doctorID string, expectedVersion int, availability []models.DayAvailability) error
	// AppendAppointmentIfFree appends appt unless an occupying appointment exists at the
	// same AppointmentTime. Check and append are a single atomic write.
	AppendAppointmentIfFree(ctx context.Context, doctorID string, appt models.Appointment) error
	// ReplaceAppointment overwrites one appointment if the stored version still matches.
	ReplaceAppointment(ctx context.Context, doctorID string, expectedVersion int, appt models.Appointment) error
	// MarkReminded sets reminder flags to true. Flags are never cleared.
	MarkReminded(ctx context.Context, doctorID string, marks []models.ReminderMark) error
}
