package notification

import (
	"context"
	"sync"
	"time"

	"medislot/models"
	"medislot/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dispatcher fans committed events out to every sink from a single background
// goroutine. When its queue is full new events are dropped and counted.
type Dispatcher struct {
	queue   chan models.Notification
	sinks   []Sink
	timeout time.Duration
	metrics *utils.Metrics
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(size int, timeout time.Duration, metrics *utils.Metrics, logger *zap.Logger, sinks ...Sink) *Dispatcher {
	if size <= 0 {
		size = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		queue:   make(chan models.Notification, size),
		sinks:   sinks,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Start runs the delivery loop until Stop drains the queue.
func (d *Dispatcher) Start() {
	go func() {
		defer close(d.done)
		for n := range d.queue {
			d.deliver(n)
		}
	}()
}

func (d *Dispatcher) Publish(n models.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- n:
	default:
		if d.metrics != nil {
			d.metrics.EventsDropped.Inc()
		}
		d.logger.Warn("event queue full, dropping event", zap.String("type", n.Type), zap.String("userID", n.UserID))
	}
}

func (d *Dispatcher) deliver(n models.Notification) {
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := sink.Deliver(ctx, n)
		cancel()

		outcome := "ok"
		if err != nil {
			outcome = "error"
			d.logger.Warn("event delivery failed",
				zap.String("sink", sink.Name()),
				zap.String("type", n.Type),
				zap.String("userID", n.UserID),
				zap.Error(err))
		}
		if d.metrics != nil {
			d.metrics.EventsDelivered.WithLabelValues(sink.Name(), outcome).Inc()
		}
	}
}

// Stop rejects new events and waits for queued ones to be delivered, or for ctx.
func (d *Dispatcher) Stop(ctx context.Context) {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
	case <-ctx.Done():
		d.logger.Warn("event dispatcher stopped before draining its queue")
	}
}
