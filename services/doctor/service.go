package doctor

import (
	"context"
	"strings"
	"time"

	doctorRepo "medislot/database/repository/doctor"
	"medislot/models"
	"medislot/services/scheduling"
	"medislot/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DoctorService manages doctor listings.
type DoctorService interface {
	CreateListing(ctx context.Context, userID string, input models.DoctorListingInput) (*models.Doctor, error)
	GetDoctor(ctx context.Context, id string) (*models.Doctor, error)
	ListDoctors(ctx context.Context, filter models.DoctorFilter) ([]models.Doctor, error)
}

type DefaultDoctorService struct {
	Repo   doctorRepo.DoctorRepository
	Logger *zap.Logger
	Now    func() time.Time
}

func (s *DefaultDoctorService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateListing registers the calling account as a doctor. Each account has at most
// one listing.
func (s *DefaultDoctorService) CreateListing(ctx context.Context, userID string, input models.DoctorListingInput) (*models.Doctor, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Specialty = strings.TrimSpace(input.Specialty)
	if input.Name == "" {
		return nil, utils.NewValidationError("name", "name is required")
	}
	if input.Specialty == "" {
		return nil, utils.NewValidationError("specialty", "specialty is required")
	}
	if input.ConsultationFees < 0 {
		return nil, utils.NewValidationError("consultationFees", "consultationFees cannot be negative")
	}

	now := s.now()
	doc := &models.Doctor{
		ID:               uuid.New().String(),
		UserRef:          userID,
		Name:             input.Name,
		Specialty:        input.Specialty,
		Description:      strings.TrimSpace(input.Description),
		ConsultationFees: input.ConsultationFees,
		Availability:     []models.DayAvailability{},
		Appointments:     []models.Appointment{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return nil, doctorRepo.ToAppError(err)
	}
	if s.Logger != nil {
		s.Logger.Info("Doctor listing created", zap.String("doctorID", doc.ID), zap.String("userID", userID))
	}
	return doc, nil
}

func (s *DefaultDoctorService) GetDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, doctorRepo.ToAppError(err)
	}
	return doc, nil
}

// ListDoctors filters listings by name, specialty, fee ceiling and working day.
func (s *DefaultDoctorService) ListDoctors(ctx context.Context, filter models.DoctorFilter) ([]models.Doctor, error) {
	if filter.MaxFee < 0 {
		return nil, utils.NewValidationError("maxFee", "maxFee cannot be negative")
	}
	if filter.Day != "" {
		day, ok := scheduling.NormalizeDay(filter.Day)
		if !ok {
			return nil, utils.NewValidationError("day", "unknown day "+filter.Day)
		}
		filter.Day = day
	}
	doctors, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if doctors == nil {
		doctors = []models.Doctor{}
	}
	return doctors, nil
}
