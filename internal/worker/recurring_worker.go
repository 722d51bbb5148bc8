package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/guard"
)

// Processor materializes a single recurring transaction occurrence.
type Processor interface {
	ProcessOne(ctx context.Context, userID, transactionID string, now time.Time) error
}

// RecurringWorker consumes recurring-process work items. Each user gets a
// fixed-window processing budget; deliveries over budget are requeued so
// the broker redelivers them in a later window instead of dropping work.
type RecurringWorker struct {
	processor  Processor
	limiter    *guard.Limiter
	maxRetries int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRecurringWorker(processor Processor, limiter *guard.Limiter, maxRetries int) *RecurringWorker {
	return &RecurringWorker{
		processor:  processor,
		limiter:    limiter,
		maxRetries: maxRetries,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// Handle processes one delivery. A throttled user returns amqp.ErrRequeue so
// the consumer nacks with requeue; processing failures are retried with
// exponential backoff and dropped once retries are exhausted.
func (w *RecurringWorker) Handle(ctx context.Context, msg *amqp.RecurringProcessMessage) error {
	if !w.limiter.Allow(msg.UserID) {
		slog.InfoContext(ctx, "User over processing budget, requeueing",
			"user_id", msg.UserID,
			"transaction_id", msg.TransactionID)
		return fmt.Errorf("user %s throttled: %w", msg.UserID, amqp.ErrRequeue)
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = w.processor.ProcessOne(ctx, msg.UserID, msg.TransactionID, w.now())
		if err == nil {
			return nil
		}
		if attempt >= w.maxRetries {
			break
		}

		backoff := time.Duration(1<<uint(attempt+1)) * time.Second
		slog.WarnContext(ctx, "Processing failed, retrying",
			"transaction_id", msg.TransactionID,
			"user_id", msg.UserID,
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err)
		if sleepErr := w.sleep(ctx, backoff); sleepErr != nil {
			return fmt.Errorf("backoff interrupted: %w", sleepErr)
		}
	}

	slog.ErrorContext(ctx, "Processing failed after retries, dropping message",
		"transaction_id", msg.TransactionID,
		"user_id", msg.UserID,
		"attempts", w.maxRetries+1,
		"error", err)
	return fmt.Errorf("process transaction %s: %w", msg.TransactionID, err)
}

// Run consumes deliveries until the context is cancelled.
func (w *RecurringWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeRecurringProcess(ctx, w.Handle)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
