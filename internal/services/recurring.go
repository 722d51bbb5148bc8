package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// RecurringPublisher enqueues one recurring-transaction work item.
type RecurringPublisher interface {
	PublishRecurringProcess(ctx context.Context, transactionID, userID string) error
}

// RecurringDiscovery finds due recurring templates and fans them out as
// queue work items. It never processes anything itself; the worker does,
// after its own dueness re-check.
type RecurringDiscovery struct {
	storage   *storage.SQLiteRepository
	publisher RecurringPublisher
}

func NewRecurringDiscovery(storage *storage.SQLiteRepository, publisher RecurringPublisher) *RecurringDiscovery {
	return &RecurringDiscovery{storage: storage, publisher: publisher}
}

// Run publishes one work item per due template and returns how many were
// enqueued. A publish failure skips that template; the next discovery run
// picks it up again since its dueness is unchanged.
func (d *RecurringDiscovery) Run(ctx context.Context, now time.Time) (int, error) {
	due, err := d.storage.ListDueRecurring(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list due recurring: %w", err)
	}

	slog.InfoContext(ctx, "Recurring discovery run",
		"due", len(due),
		"processing_date", now.Format(time.DateOnly))

	published := 0
	for _, tx := range due {
		if err := d.publisher.PublishRecurringProcess(ctx, tx.ID, tx.UserID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish recurring work item",
				"transaction_id", tx.ID,
				"user_id", tx.UserID,
				"error", err)
			continue
		}
		published++
	}

	slog.InfoContext(ctx, "Recurring discovery complete",
		"published", published,
		"due", len(due))
	return published, nil
}

// RecurringProcessor materializes one due template per work item.
type RecurringProcessor struct {
	storage *storage.SQLiteRepository
}

func NewRecurringProcessor(storage *storage.SQLiteRepository) *RecurringProcessor {
	return &RecurringProcessor{storage: storage}
}

// ProcessOne re-checks dueness against the current row and materializes the
// occurrence. The re-check makes duplicate work items harmless: a template
// already advanced by an earlier delivery is simply no longer due.
//
// A vanished template is not an error; the user deleted it between discovery
// and processing.
func (p *RecurringProcessor) ProcessOne(ctx context.Context, userID, transactionID string, now time.Time) error {
	template, err := p.storage.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.InfoContext(ctx, "Recurring template gone, dropping work item",
				"transaction_id", transactionID,
				"user_id", userID)
			return nil
		}
		return fmt.Errorf("load template: %w", err)
	}

	if !template.Due(now) {
		slog.InfoContext(ctx, "Recurring template no longer due, skipping",
			"transaction_id", transactionID,
			"user_id", userID)
		return nil
	}

	if err := p.storage.ProcessRecurringTransaction(ctx, template, now); err != nil {
		return fmt.Errorf("process recurring transaction: %w", err)
	}
	return nil
}
