package booking

import (
	"context"
	"time"

	doctorRepo "medislot/database/repository/doctor"
	"medislot/models"
	"medislot/services/notification"
	"medislot/utils"

	"go.uber.org/zap"
)

// BookingService reserves doctor slots for patients.
type BookingService interface {
	BookSlot(ctx context.Context, patientID, doctorID string, req models.BookingRequest) (*models.Appointment, error)
}

// DefaultBookingService implements BookingService. The conflict check is enforced by
// the repository's conditional append, not by the read that precedes it.
type DefaultBookingService struct {
	Repo     doctorRepo.DoctorRepository
	Events   notification.Publisher
	Metrics  *utils.Metrics
	Location *time.Location
	Logger   *zap.Logger
	Now      func() time.Time
}

func (s *DefaultBookingService) events() notification.Publisher {
	if s.Events == nil {
		return notification.NopPublisher{}
	}
	return s.Events
}
