package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"medislot/config"
	"medislot/models"
	"medislot/services/reminder"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeReminderSend = "reminder:send"

// NewReminderTask builds the queued form of a reminder. The task id is derived from
// the appointment and lead time so a reminder is enqueued at most once.
func NewReminderTask(p models.ReminderPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.TaskID(ReminderTaskID(p)),
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
		// The reminder is worthless once the appointment has started.
		asynq.Deadline(p.AppointmentTime),
	}
	return asynq.NewTask(TypeReminderSend, b), opts, nil
}

func ReminderTaskID(p models.ReminderPayload) string {
	return "reminder:" + p.AppointmentID + ":" + strconv.Itoa(p.LeadHours) + "h"
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueSender hands reminders to the asynq queue. Acceptance by the queue is the
// delivery acknowledgement the sweeper waits for; the worker retries the SMTP send.
type QueueSender struct {
	client Enqueuer
}

func NewQueueSender(client Enqueuer) *QueueSender {
	return &QueueSender{client: client}
}

func (q *QueueSender) SendReminder(ctx context.Context, p models.ReminderPayload) error {
	task, opts, err := NewReminderTask(p)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task, opts...); err != nil {
		// Already queued by an earlier sweep whose flag write was lost.
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue reminder %s: %w", ReminderTaskID(p), err)
	}
	return nil
}

// QueueRedisOpt points asynq at the configured queue database.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitReminderWorker runs the async worker in background and returns the server so
// the caller can shut it down.
func InitReminderWorker(mailer reminder.Sender, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		QueueRedisOpt(),
		asynq.Config{
			Concurrency: config.AppConfig.ReminderConcurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReminderSend, HandleReminderTask(mailer, logger))

	go func() {
		logger.Info("[ReminderWorker] starting async worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			logger.Error("[ReminderWorker] failed to start worker",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("[ReminderWorker] max retry attempts reached, queued reminders will wait for the next start")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

// HandleReminderTask sends a queued reminder. Malformed payloads are skipped rather
// than retried.
func HandleReminderTask(mailer reminder.Sender, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("[ReminderHandler] invalid payload", zap.Error(err))
			return fmt.Errorf("invalid reminder payload: %v: %w", err, asynq.SkipRetry)
		}

		if err := mailer.SendReminder(ctx, p); err != nil {
			logger.Warn("[ReminderHandler] failed to send reminder",
				zap.String("appointmentID", p.AppointmentID), zap.Int("leadHours", p.LeadHours), zap.Error(err))
			return err
		}
		logger.Info("[ReminderHandler] reminder sent",
			zap.String("appointmentID", p.AppointmentID), zap.Int("leadHours", p.LeadHours))
		return nil
	}
}
