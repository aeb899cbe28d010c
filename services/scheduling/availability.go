package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	doctorRepo "medislot/database/repository/doctor"
	"medislot/models"
	"medislot/utils"

	"go.uber.org/zap"
)

// maxWriteAttempts bounds optimistic retries on the doctor aggregate.
const maxWriteAttempts = 5

// AvailabilityService manages a doctor's recurring weekly windows and resolves them
// into slots for concrete dates.
type AvailabilityService interface {
	SetAvailability(ctx context.Context, callerID, doctorID string, windows []models.WeeklyWindow) ([]models.DayAvailability, error)
	MergeAvailability(ctx context.Context, callerID, doctorID string, windows []models.WeeklyWindow) ([]models.DayAvailability, error)
	GetAvailability(ctx context.Context, doctorID string) ([]models.DayAvailability, error)
	DeleteWindow(ctx context.Context, callerID, doctorID string, window models.WeeklyWindow) ([]models.DayAvailability, error)
	ResolveSlots(ctx context.Context, doctorID, date string) (*models.SlotsResponse, error)
}

// DefaultAvailabilityService implements AvailabilityService over the doctor repository.
type DefaultAvailabilityService struct {
	Repo     doctorRepo.DoctorRepository
	Cache    AvailabilityCache
	Location *time.Location
	Logger   *zap.Logger
}

func (s *DefaultAvailabilityService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *DefaultAvailabilityService) cache() AvailabilityCache {
	if s.Cache == nil {
		return NoopCache{}
	}
	return s.Cache
}

// ValidateWindows normalizes day names and checks each window's clock values.
func ValidateWindows(windows []models.WeeklyWindow) ([]models.WeeklyWindow, error) {
	out := make([]models.WeeklyWindow, 0, len(windows))
	for i, w := range windows {
		day, ok := NormalizeDay(w.Day)
		if !ok {
			return nil, utils.NewValidationError(fmt.Sprintf("availability[%d].day", i), fmt.Sprintf("unknown day %q", w.Day))
		}
		start, err := ParseClock(w.Start)
		if err != nil {
			return nil, utils.NewValidationError(fmt.Sprintf("availability[%d].start", i), err.Error())
		}
		end, err := ParseClock(w.End)
		if err != nil {
			return nil, utils.NewValidationError(fmt.Sprintf("availability[%d].end", i), err.Error())
		}
		if start >= end {
			return nil, utils.NewValidationError(fmt.Sprintf("availability[%d].end", i), "end must be after start")
		}
		out = append(out, models.WeeklyWindow{Day: day, Start: w.Start, End: w.End})
	}
	return out, nil
}

// GroupWindows folds flat windows into per-day availability. Days come out Monday
// first and slots sorted by start. A repeated (day, start) keeps the first window.
func GroupWindows(windows []models.WeeklyWindow) []models.DayAvailability {
	byDay := make(map[string][]models.SlotWindow)
	seen := make(map[string]bool)
	for _, w := range windows {
		key := w.Day + "|" + w.Start
		if seen[key] {
			continue
		}
		seen[key] = true
		byDay[w.Day] = append(byDay[w.Day], models.SlotWindow{Start: w.Start, End: w.End})
	}

	out := []models.DayAvailability{}
	for _, day := range weekdayOrder {
		slots, ok := byDay[day]
		if !ok {
			continue
		}
		sort.SliceStable(slots, func(i, j int) bool { return slots[i].Start < slots[j].Start })
		out = append(out, models.DayAvailability{Day: day, Slots: slots})
	}
	return out
}

// FlattenAvailability is the inverse of GroupWindows.
func FlattenAvailability(availability []models.DayAvailability) []models.WeeklyWindow {
	var out []models.WeeklyWindow
	for _, d := range availability {
		for _, w := range d.Slots {
			out = append(out, models.WeeklyWindow{Day: d.Day, Start: w.Start, End: w.End})
		}
	}
	return out
}

// updateAvailability runs a read-modify-write on the doctor's availability, retrying
// when another writer bumped the version in between.
func (s *DefaultAvailabilityService) updateAvailability(
	ctx context.Context,
	callerID, doctorID string,
	build func(current []models.DayAvailability) ([]models.DayAvailability, error),
) ([]models.DayAvailability, error) {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		doc, err := s.Repo.GetByID(ctx, doctorID)
		if err != nil {
			return nil, doctorRepo.ToAppError(err)
		}
		if doc.UserRef != callerID {
			return nil, utils.NewForbiddenError("only the doctor can change this availability")
		}

		next, err := build(doc.Availability)
		if err != nil {
			return nil, err
		}

		err = s.Repo.ReplaceAvailability(ctx, doctorID, doc.Version, next)
		if errors.Is(err, doctorRepo.ErrVersionConflict) {
			s.logger().Debug("availability write raced, retrying", zap.String("doctorID", doctorID), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, doctorRepo.ToAppError(err)
		}

		// Write through at the committed version; drop the entry if that fails.
		if err := s.cache().Set(ctx, doctorID, doc.Version+1, next); err != nil {
			s.cache().Invalidate(ctx, doctorID)
		}
		s.logger().Info("Availability updated", zap.String("doctorID", doctorID), zap.Int("days", len(next)))
		return next, nil
	}
	return nil, fmt.Errorf("availability for doctor %s kept changing after %d attempts", doctorID, maxWriteAttempts)
}

// SetAvailability replaces the doctor's availability with windows.
func (s *DefaultAvailabilityService) SetAvailability(ctx context.Context, callerID, doctorID string, windows []models.WeeklyWindow) ([]models.DayAvailability, error) {
	valid, err := ValidateWindows(windows)
	if err != nil {
		return nil, err
	}
	grouped := GroupWindows(valid)
	return s.updateAvailability(ctx, callerID, doctorID, func([]models.DayAvailability) ([]models.DayAvailability, error) {
		return grouped, nil
	})
}

// MergeAvailability adds windows to the existing set. A submitted window replaces an
// existing one with the same day and start.
func (s *DefaultAvailabilityService) MergeAvailability(ctx context.Context, callerID, doctorID string, windows []models.WeeklyWindow) ([]models.DayAvailability, error) {
	valid, err := ValidateWindows(windows)
	if err != nil {
		return nil, err
	}
	return s.updateAvailability(ctx, callerID, doctorID, func(current []models.DayAvailability) ([]models.DayAvailability, error) {
		return GroupWindows(append(valid, FlattenAvailability(current)...)), nil
	})
}

// DeleteWindow removes exactly one (day, start, end) window. A day left without
// windows is dropped.
func (s *DefaultAvailabilityService) DeleteWindow(ctx context.Context, callerID, doctorID string, window models.WeeklyWindow) ([]models.DayAvailability, error) {
	day, ok := NormalizeDay(window.Day)
	if !ok {
		return nil, utils.NewValidationError("day", fmt.Sprintf("unknown day %q", window.Day))
	}
	return s.updateAvailability(ctx, callerID, doctorID, func(current []models.DayAvailability) ([]models.DayAvailability, error) {
		next, removed := removeWindow(current, day, window.Start, window.End)
		if !removed {
			return nil, utils.NewNotFoundError("availability window not found")
		}
		return next, nil
	})
}

func removeWindow(current []models.DayAvailability, day, start, end string) ([]models.DayAvailability, bool) {
	removed := false
	out := make([]models.DayAvailability, 0, len(current))
	for _, d := range current {
		if d.Day != day || removed {
			out = append(out, d)
			continue
		}
		slots := make([]models.SlotWindow, 0, len(d.Slots))
		for _, w := range d.Slots {
			if !removed && w.Start == start && w.End == end {
				removed = true
				continue
			}
			slots = append(slots, w)
		}
		if len(slots) > 0 {
			out = append(out, models.DayAvailability{Day: d.Day, Slots: slots})
		}
	}
	return out, removed
}

// GetAvailability returns the doctor's weekly windows, served from cache when possible.
func (s *DefaultAvailabilityService) GetAvailability(ctx context.Context, doctorID string) ([]models.DayAvailability, error) {
	if cached, ok := s.cache().Get(ctx, doctorID); ok {
		return cached, nil
	}
	doc, err := s.Repo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, doctorRepo.ToAppError(err)
	}
	availability := doc.Availability
	if availability == nil {
		availability = []models.DayAvailability{}
	}
	_ = s.cache().Set(ctx, doctorID, doc.Version, availability)
	return availability, nil
}
