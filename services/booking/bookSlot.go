package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	doctorRepo "medislot/database/repository/doctor"
	"medislot/models"
	"medislot/services/scheduling"
	"medislot/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *DefaultBookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultBookingService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *DefaultBookingService) count(outcome string) {
	if s.Metrics != nil {
		s.Metrics.Bookings.WithLabelValues(outcome).Inc()
	}
}

// Zone-less layouts, as sent by datetime-local inputs, are read in the clinic timezone.
var localTimeLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

func (s *DefaultBookingService) parseAppointmentTime(value string) (time.Time, error) {
	at, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return at, nil
	}
	for _, layout := range localTimeLayouts {
		if local, lerr := time.ParseInLocation(layout, value, s.Location); lerr == nil {
			return local, nil
		}
	}
	return time.Time{}, err
}

// requestedInstant resolves the booking body to a calendar day and a "HH:MM" start in
// the clinic timezone.
func (s *DefaultBookingService) requestedInstant(req models.BookingRequest) (time.Time, string, error) {
	if req.AppointmentTime != "" {
		at, err := s.parseAppointmentTime(req.AppointmentTime)
		if err != nil {
			return time.Time{}, "", utils.NewValidationError("appointmentTime", "appointmentTime must be an ISO-8601 date-time such as 2006-01-02T15:04 or 2006-01-02T15:04:05Z07:00")
		}
		local := at.In(s.Location)
		if local.Second() != 0 || local.Nanosecond() != 0 {
			return time.Time{}, "", utils.NewValidationError("appointmentTime", "appointmentTime must fall on a slot start")
		}
		return local, local.Format("15:04"), nil
	}

	if req.Date == "" || req.Slot == "" {
		return time.Time{}, "", utils.NewValidationError("appointmentTime", "appointmentTime, or date and slot, is required")
	}
	day, err := scheduling.ParseDate(req.Date, s.Location)
	if err != nil {
		return time.Time{}, "", utils.NewValidationError("date", "date must be formatted as YYYY-MM-DD")
	}
	at, err := scheduling.At(day, req.Slot, s.Location)
	if err != nil {
		return time.Time{}, "", utils.NewValidationError("slot", err.Error())
	}
	return at, req.Slot, nil
}

// BookSlot validates the request against the doctor's current availability and
// appends a Pending appointment in one conditional write. A slot that another
// booking took first yields a SlotConflict.
func (s *DefaultBookingService) BookSlot(ctx context.Context, patientID, doctorID string, req models.BookingRequest) (*models.Appointment, error) {
	logger := s.logger().With(zap.String("doctorID", doctorID), zap.String("patientID", patientID))

	req.PatientName = strings.TrimSpace(req.PatientName)
	req.PatientContact = strings.TrimSpace(req.PatientContact)
	if req.PatientName == "" {
		s.count("invalid")
		return nil, utils.NewValidationError("patientName", "patientName is required")
	}
	if req.PatientContact == "" {
		s.count("invalid")
		return nil, utils.NewValidationError("patientContact", "patientContact is required")
	}

	at, slot, err := s.requestedInstant(req)
	if err != nil {
		s.count("invalid")
		return nil, err
	}
	if !at.After(s.now()) {
		s.count("invalid")
		return nil, utils.NewValidationError("appointmentTime", "appointmentTime must be in the future")
	}

	doc, err := s.Repo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, doctorRepo.ToAppError(err)
	}

	if !scheduling.HasSlot(scheduling.SlotsForDay(doc.Availability, at.Weekday().String()), slot) {
		s.count("invalid")
		return nil, utils.NewValidationError("appointmentTime", "the doctor has no slot at "+slot+" on "+at.Weekday().String())
	}

	// Early rejection only; the append below is what actually guards the slot.
	for _, booked := range scheduling.BookedTimes(doc.Appointments, at, s.Location) {
		if booked == slot {
			s.count("conflict")
			logger.Info("Slot already booked", zap.String("slot", slot), zap.Time("at", at))
			return nil, utils.NewSlotConflictError(slot)
		}
	}

	now := s.now()
	appt := models.Appointment{
		ID:              uuid.New().String(),
		PatientRef:      patientID,
		PatientName:     req.PatientName,
		PatientContact:  req.PatientContact,
		AppointmentTime: at.UTC(),
		Reason:          strings.TrimSpace(req.Reason),
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.Repo.AppendAppointmentIfFree(ctx, doctorID, appt); err != nil {
		if errors.Is(err, doctorRepo.ErrSlotTaken) {
			s.count("conflict")
			logger.Info("Slot taken by a concurrent booking", zap.String("slot", slot), zap.Time("at", at))
			return nil, utils.NewSlotConflictError(slot)
		}
		logger.Error("Failed to append appointment", zap.Error(err))
		return nil, doctorRepo.ToAppError(err)
	}

	s.count("booked")
	logger.Info("Appointment booked", zap.String("appointmentID", appt.ID), zap.Time("at", at))

	s.events().Publish(models.Notification{
		Type:   models.EventNewAppointment,
		UserID: doc.UserRef,
		Data: map[string]any{
			"appointmentId":   appt.ID,
			"patientName":     appt.PatientName,
			"appointmentTime": appt.AppointmentTime,
			"message":         appt.PatientName + " requested " + at.Format("Mon 02 Jan 15:04"),
		},
	})
	return &appt, nil
}
