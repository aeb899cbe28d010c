package appointment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	doctorRepo "medislot/database/repository/doctor"
	"medislot/models"
	"medislot/services/notification"
	"medislot/utils"

	"go.uber.org/zap"
)

const maxWriteAttempts = 5

// MutateFunc edits appt in place. doc is the aggregate as read; returning an error
// aborts without writing.
type MutateFunc func(doc *models.Doctor, appt *models.Appointment) error

// AppointmentService drives the appointment lifecycle.
type AppointmentService interface {
	UpdateStatus(ctx context.Context, callerID, appointmentID string, req models.StatusUpdateRequest) (*models.Appointment, error)
	ListForDoctor(ctx context.Context, callerID string) ([]models.Appointment, error)
	ListForPatient(ctx context.Context, patientID string) ([]models.PatientAppointmentView, error)
	Get(ctx context.Context, appointmentID string) (*models.Doctor, *models.Appointment, error)
	Mutate(ctx context.Context, appointmentID string, fn MutateFunc) (*models.Doctor, *models.Appointment, error)
}

type DefaultAppointmentService struct {
	Repo    doctorRepo.DoctorRepository
	Events  notification.Publisher
	Metrics *utils.Metrics
	Logger  *zap.Logger
	Now     func() time.Time
}

func (s *DefaultAppointmentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultAppointmentService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Get returns the owning doctor and a copy of the appointment.
func (s *DefaultAppointmentService) Get(ctx context.Context, appointmentID string) (*models.Doctor, *models.Appointment, error) {
	doc, err := s.Repo.GetByAppointmentID(ctx, appointmentID)
	if err != nil {
		return nil, nil, doctorRepo.ToAppError(err)
	}
	appt := doc.FindAppointment(appointmentID)
	if appt == nil {
		return nil, nil, utils.NewNotFoundError("appointment not found")
	}
	out := *appt
	return doc, &out, nil
}

// Mutate applies fn to a fresh copy of the appointment and writes it back guarded by
// the aggregate version, re-reading and re-applying fn when another writer won.
func (s *DefaultAppointmentService) Mutate(ctx context.Context, appointmentID string, fn MutateFunc) (*models.Doctor, *models.Appointment, error) {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		doc, appt, err := s.Get(ctx, appointmentID)
		if err != nil {
			return nil, nil, err
		}
		if err := fn(doc, appt); err != nil {
			return nil, nil, err
		}

		err = s.Repo.ReplaceAppointment(ctx, doc.ID, doc.Version, *appt)
		if errors.Is(err, doctorRepo.ErrVersionConflict) {
			s.logger().Debug("appointment write raced, retrying",
				zap.String("appointmentID", appointmentID), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, nil, doctorRepo.ToAppError(err)
		}
		return doc, appt, nil
	}
	return nil, nil, fmt.Errorf("appointment %s kept changing after %d attempts", appointmentID, maxWriteAttempts)
}

// UpdateStatus applies a doctor-driven transition. Only the owning doctor may call it.
func (s *DefaultAppointmentService) UpdateStatus(ctx context.Context, callerID, appointmentID string, req models.StatusUpdateRequest) (*models.Appointment, error) {
	doc, appt, err := s.Mutate(ctx, appointmentID, func(doc *models.Doctor, appt *models.Appointment) error {
		if doc.UserRef != callerID {
			return utils.NewForbiddenError("only the doctor can update this appointment")
		}
		return ApplyStatus(appt, req.Status, req.RejectionReason, doc.ConsultationFees, s.now())
	})
	if err != nil {
		return nil, err
	}

	if s.Metrics != nil {
		s.Metrics.Transitions.WithLabelValues(string(appt.Status)).Inc()
	}
	s.logger().Info("Appointment status updated",
		zap.String("doctorID", doc.ID),
		zap.String("appointmentID", appt.ID),
		zap.String("status", string(appt.Status)))

	s.events().Publish(models.Notification{
		Type:   models.EventAppointmentStatus,
		UserID: appt.PatientRef,
		Data: map[string]any{
			"appointmentId":   appt.ID,
			"status":          string(appt.Status),
			"rejectionReason": appt.RejectionReason,
			"amount":          appt.Amount,
			"message":         fmt.Sprintf("Your appointment with %s is now %s", doc.Name, appt.Status),
		},
	})
	return appt, nil
}

// ListForDoctor returns the caller's appointments ordered by time.
func (s *DefaultAppointmentService) ListForDoctor(ctx context.Context, callerID string) ([]models.Appointment, error) {
	doc, err := s.Repo.GetByUserRef(ctx, callerID)
	if err != nil {
		return nil, doctorRepo.ToAppError(err)
	}
	out := append([]models.Appointment{}, doc.Appointments...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].AppointmentTime.Before(out[j].AppointmentTime) })
	return out, nil
}

// ListForPatient returns the patient's appointments across doctors, ordered by time.
func (s *DefaultAppointmentService) ListForPatient(ctx context.Context, patientID string) ([]models.PatientAppointmentView, error) {
	doctors, err := s.Repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	out := []models.PatientAppointmentView{}
	for _, d := range doctors {
		for _, a := range d.Appointments {
			if a.PatientRef != patientID {
				continue
			}
			out = append(out, models.PatientAppointmentView{
				Appointment:     a,
				DoctorID:        d.ID,
				DoctorName:      d.Name,
				DoctorSpecialty: d.Specialty,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AppointmentTime.Before(out[j].AppointmentTime) })
	return out, nil
}

func (s *DefaultAppointmentService) events() notification.Publisher {
	if s.Events == nil {
		return notification.NopPublisher{}
	}
	return s.Events
}
