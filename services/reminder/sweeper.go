package reminder

import (
	"context"
	"strconv"
	"time"

	doctorRepo "medislot/database/repository/doctor"
	"medislot/models"
	"medislot/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Lead times at which a reminder is due.
const (
	DayLead  = 24 * time.Hour
	HourLead = time.Hour
)

// Sender hands one reminder to a delivery transport. A nil error means the transport
// accepted it.
type Sender interface {
	SendReminder(ctx context.Context, p models.ReminderPayload) error
}

// Sweeper finds appointments crossing a reminder threshold and sends each reminder
// once. Each threshold matches while the time to the appointment is within Window/2
// of it, so any sweep interval shorter than Window sees every appointment at least
// once per threshold.
type Sweeper struct {
	Repo         doctorRepo.DoctorRepository
	Sender       Sender
	Location     *time.Location
	Window       time.Duration
	SendTimeout  time.Duration
	SweepTimeout time.Duration
	Concurrency  int
	Metrics      *utils.Metrics
	Logger       *zap.Logger
	Now          func() time.Time
}

// SweepResult summarizes one run.
type SweepResult struct {
	Due            int
	Sent           int
	Failed         int
	DoctorsUpdated int
}

type job struct {
	doctorID string
	payload  models.ReminderPayload
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Sweeper) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// within reports whether diff lies strictly inside (lead - window/2, lead + window/2).
func within(diff, lead, window time.Duration) bool {
	half := window / 2
	return diff > lead-half && diff < lead+half
}

// DueReminders lists the reminders doc owes at now. Cancelled and rejected
// appointments get none.
func DueReminders(doc *models.Doctor, now time.Time, window time.Duration, tz string) []models.ReminderPayload {
	var due []models.ReminderPayload
	for _, a := range doc.Appointments {
		if !a.Status.Occupies() || !a.AppointmentTime.After(now) {
			continue
		}
		diff := a.AppointmentTime.Sub(now)
		payload := models.ReminderPayload{
			DoctorID:        doc.ID,
			AppointmentID:   a.ID,
			PatientName:     a.PatientName,
			PatientContact:  a.PatientContact,
			DoctorName:      doc.Name,
			AppointmentTime: a.AppointmentTime,
			Timezone:        tz,
		}
		if !a.NotifiedTwentyFourHours && within(diff, DayLead, window) {
			payload.LeadHours = 24
			due = append(due, payload)
		}
		if !a.NotifiedOneHour && within(diff, HourLead, window) {
			payload.LeadHours = 1
			due = append(due, payload)
		}
	}
	return due
}

// Sweep runs once. A failed send is logged and leaves its flag unset so the next run
// inside the window tries again; it never stops other sends.
func (s *Sweeper) Sweep(ctx context.Context) SweepResult {
	start := time.Now()
	if s.SweepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.SweepTimeout)
		defer cancel()
	}

	now := s.now().In(s.Location)
	doctors, err := s.Repo.ListWithAppointmentsAfter(ctx, now)
	if err != nil {
		s.logger().Error("reminder sweep could not load appointments", zap.Error(err))
		return SweepResult{}
	}

	var jobs []job
	for i := range doctors {
		for _, p := range DueReminders(&doctors[i], now, s.Window, s.Location.String()) {
			jobs = append(jobs, job{doctorID: doctors[i].ID, payload: p})
		}
	}
	result := SweepResult{Due: len(jobs)}
	if len(jobs) == 0 {
		s.observe(start)
		return result
	}

	acked := make([]bool, len(jobs))
	var g errgroup.Group
	g.SetLimit(max(s.Concurrency, 1))
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			acked[i] = s.send(ctx, j.payload)
			return nil
		})
	}
	_ = g.Wait()

	marks := make(map[string]map[string]*models.ReminderMark)
	for i, j := range jobs {
		if !acked[i] {
			result.Failed++
			continue
		}
		result.Sent++
		byAppt := marks[j.doctorID]
		if byAppt == nil {
			byAppt = make(map[string]*models.ReminderMark)
			marks[j.doctorID] = byAppt
		}
		m := byAppt[j.payload.AppointmentID]
		if m == nil {
			m = &models.ReminderMark{AppointmentID: j.payload.AppointmentID}
			byAppt[j.payload.AppointmentID] = m
		}
		if j.payload.LeadHours == 24 {
			m.TwentyFourHours = true
		} else {
			m.OneHour = true
		}
	}

	// Flags are persisted even if the sweep deadline passed, so acknowledged sends
	// are not repeated.
	persistCtx := context.WithoutCancel(ctx)
	for doctorID, byAppt := range marks {
		list := make([]models.ReminderMark, 0, len(byAppt))
		for _, m := range byAppt {
			list = append(list, *m)
		}
		if err := s.Repo.MarkReminded(persistCtx, doctorID, list); err != nil {
			s.logger().Error("failed to persist reminder flags", zap.String("doctorID", doctorID), zap.Error(err))
			continue
		}
		result.DoctorsUpdated++
	}

	s.observe(start)
	s.logger().Info("Reminder sweep finished",
		zap.Int("due", result.Due),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed))
	return result
}

func (s *Sweeper) send(ctx context.Context, p models.ReminderPayload) bool {
	sendCtx := ctx
	if s.SendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.SendTimeout)
		defer cancel()
	}

	lead := strconv.Itoa(p.LeadHours) + "h"
	if err := s.Sender.SendReminder(sendCtx, p); err != nil {
		s.logger().Warn("reminder delivery failed",
			zap.String("appointmentID", p.AppointmentID),
			zap.String("lead", lead),
			zap.Error(err))
		s.countReminder(lead, "error")
		return false
	}
	s.countReminder(lead, "sent")
	return true
}

func (s *Sweeper) countReminder(lead, outcome string) {
	if s.Metrics != nil {
		s.Metrics.RemindersSent.WithLabelValues(lead, outcome).Inc()
	}
}

func (s *Sweeper) observe(start time.Time) {
	if s.Metrics != nil {
		s.Metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}
}
