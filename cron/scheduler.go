package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medislot/services/reminder"

	"go.uber.org/zap"
)

// SweepRunner is satisfied by *reminder.Sweeper.
type SweepRunner interface {
	Sweep(ctx context.Context) reminder.SweepResult
}

// ReminderScheduler owns the single repeating timer that drives reminder sweeps.
type ReminderScheduler struct {
	runner   SweepRunner
	lease    Lease
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReminderScheduler requires interval < window: a sweep must land inside every
// matching window at least once.
func NewReminderScheduler(runner SweepRunner, lease Lease, interval, window time.Duration, logger *zap.Logger) (*ReminderScheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("reminder interval must be positive, got %s", interval)
	}
	if interval >= window {
		return nil, fmt.Errorf("reminder interval %s must be shorter than the matching window %s", interval, window)
	}
	if lease == nil {
		lease = LocalLease{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderScheduler{runner: runner, lease: lease, interval: interval, logger: logger}, nil
}

// Start runs a sweep every interval until Stop or ctx is done. Calling Start twice
// is a no-op.
func (s *ReminderScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("[ReminderScheduler] started", zap.Duration("interval", s.interval))
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("[ReminderScheduler] stopped")
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

func (s *ReminderScheduler) tick(ctx context.Context) {
	held, err := s.lease.Acquire(ctx, s.interval)
	if err != nil {
		s.logger.Warn("[ReminderScheduler] lease unavailable, skipping run", zap.Error(err))
		return
	}
	if !held {
		s.logger.Debug("[ReminderScheduler] another instance holds the sweep lease")
		return
	}
	s.runner.Sweep(ctx)
}

// Stop cancels the timer and waits for an in-flight sweep to finish.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
