package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

// ListDueRecurring returns every completed recurring template whose next
// occurrence is due at the given instant, across all users. Never-processed
// templates are always due.
func (r *SQLiteRepository) ListDueRecurring(ctx context.Context, now time.Time) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE is_recurring = 1 AND status = 'completed'
		  AND (last_processed IS NULL OR next_recurring_date <= ?)
		ORDER BY date`, now)
}

// ProcessRecurringTransaction materializes one occurrence of a recurring
// template: it inserts the occurrence row, applies its balance delta, and
// advances the template's last_processed and next_recurring_date, all in one
// database transaction.
//
// Callers re-check dueness before invoking this; a template can be picked up
// by overlapping discovery runs and must only be materialized once per
// occurrence.
func (r *SQLiteRepository) ProcessRecurringTransaction(ctx context.Context, template *core.Transaction, now time.Time) error {
	next, err := core.NextDate(now, template.Interval)
	if err != nil {
		return err
	}

	occurrence := &core.Transaction{
		ID:          newID(),
		UserID:      template.UserID,
		AccountID:   template.AccountID,
		Type:        template.Type,
		Amount:      template.Amount,
		Description: template.Description + " (Recurring)",
		Date:        now,
		Category:    template.Category,
		Status:      core.StatusCompleted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertTransaction(ctx, tx, occurrence); err != nil {
			return err
		}
		if err := adjustBalance(ctx, tx, occurrence.AccountID, occurrence.SignedCents()); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE transactions
			SET last_processed = ?, next_recurring_date = ?, updated_at = ?
			WHERE id = ?`,
			now, next, now, template.ID,
		)
		if err != nil {
			return fmt.Errorf("advance recurring template: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.ErrNotFound
		}
		slog.InfoContext(ctx, "Recurring transaction processed",
			"template_id", template.ID,
			"occurrence_id", occurrence.ID,
			"next_recurring_date", next.Format(time.DateOnly))
		return nil
	})
}
