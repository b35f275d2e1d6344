package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"viona/internal/metrics"
	"viona/internal/models"
)

var ErrQueueFull = errors.New("notification queue is full")

// DeadLetterKey is the redis list holding confirmations that exhausted retries.
const DeadLetterKey = "notifications:deadletter"

// ConfirmationSender is satisfied by notification.Notifier.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, booking models.Booking, lang models.Language) error
}

// ConfirmationTask is one pending confirmation email.
type ConfirmationTask struct {
	Booking   models.Booking  `json:"booking"`
	Lang      models.Language `json:"lang"`
	Attempt   int             `json:"attempt"`
	LastError string          `json:"last_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NotificationWorker delivers confirmations off the request path. A booking is
// already persisted when its task is queued, so delivery failures are only
// logged, counted and dead-lettered.
type NotificationWorker struct {
	sender        ConfirmationSender
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan ConfirmationTask
	deadLetterKey string
	logger        *zerolog.Logger

	wg sync.WaitGroup
}

// NewNotificationWorker builds a worker. redisClient is optional and only used
// for the dead-letter list.
func NewNotificationWorker(sender ConfirmationSender, redisClient *redis.Client, retry RetryPolicy, queueSize int, logger *zerolog.Logger) *NotificationWorker {
	if queueSize <= 0 {
		queueSize = 128
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &NotificationWorker{
		sender:        sender,
		redis:         redisClient,
		retryPolicy:   retry.withDefaults(),
		queue:         make(chan ConfirmationTask, queueSize),
		deadLetterKey: DeadLetterKey,
		logger:        logger,
	}
}

// SetDeadLetterKey overrides the redis list name, e.g. to add a key prefix.
func (w *NotificationWorker) SetDeadLetterKey(key string) {
	w.deadLetterKey = key
}

// Enqueue schedules a confirmation without blocking the caller.
func (w *NotificationWorker) Enqueue(_ context.Context, booking models.Booking, lang models.Language) error {
	task := ConfirmationTask{Booking: booking, Lang: lang, CreatedAt: time.Now()}
	select {
	case w.queue <- task:
		return nil
	default:
		metrics.IncNotification("dropped")
		w.logger.Warn().Str("booking_id", booking.ID).Msg("Notification queue full, confirmation dropped")
		return ErrQueueFull
	}
}

// Start launches the main loop; it returns when ctx is done and pending
// retry timers have exited.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("Notification worker started")
	defer w.logger.Info().Msg("Notification worker stopped")

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			return
		case task := <-w.queue:
			w.processTask(ctx, task)
		}
	}
}

func (w *NotificationWorker) processTask(ctx context.Context, task ConfirmationTask) {
	err := w.sender.SendConfirmation(ctx, task.Booking, task.Lang)
	if err == nil {
		return
	}
	w.retryOrFail(ctx, task, err)
}

func (w *NotificationWorker) retryOrFail(ctx context.Context, task ConfirmationTask, cause error) {
	task.Attempt++
	task.LastError = cause.Error()

	if task.Attempt >= w.retryPolicy.MaxRetries {
		metrics.IncNotification("dead_letter")
		w.logger.Error().
			Err(cause).
			Str("booking_id", task.Booking.ID).
			Int("attempts", task.Attempt).
			Msg("Confirmation delivery failed permanently")
		w.pushDeadLetter(ctx, task)
		return
	}

	delay := w.retryPolicy.NextDelay(task.Attempt)
	metrics.IncNotification("retry")
	w.logger.Warn().
		Err(cause).
		Str("booking_id", task.Booking.ID).
		Int("attempt", task.Attempt).
		Dur("retry_in", delay).
		Msg("Confirmation delivery failed, retrying")

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		select {
		case w.queue <- task:
		case <-ctx.Done():
		}
	}()
}

func (w *NotificationWorker) pushDeadLetter(ctx context.Context, task ConfirmationTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Str("booking_id", task.Booking.ID).Msg("Encode dead letter")
		return
	}
	// the worker context may already be cancelled during shutdown
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := w.redis.LPush(pushCtx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Str("booking_id", task.Booking.ID).Msg("Dead letter push failed")
	}
}
