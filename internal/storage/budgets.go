package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// GetBudget returns the user's budget, or core.ErrNotFound when none is set.
func (r *SQLiteRepository) GetBudget(ctx context.Context, userID string) (*core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, amount_cents, last_alert_sent, created_at, updated_at
		FROM budgets WHERE user_id = ?`, userID)
	return scanBudget(row)
}

// UpsertBudget creates or replaces the user's single monthly budget.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, userID string, amount core.Money) (*core.Budget, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, amount_cents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET amount_cents = excluded.amount_cents,
			updated_at = excluded.updated_at`,
		newID(), userID, amount.Cents, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert budget: %w", err)
	}
	return r.GetBudget(ctx, userID)
}

// SetLastAlertSent stamps the debounce timestamp after an alert goes out.
func (r *SQLiteRepository) SetLastAlertSent(ctx context.Context, budgetID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets SET last_alert_sent = ?, updated_at = ? WHERE id = ?`,
		at, at, budgetID)
	if err != nil {
		return fmt.Errorf("set last alert sent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// BudgetCandidate pairs a budget with the owner's default account and email
// for the periodic alert sweep.
type BudgetCandidate struct {
	Budget           core.Budget
	DefaultAccountID string
	AccountName      string
	UserEmail        string
	UserName         string
}

// ListBudgetCandidates returns every budget joined with its owner's default
// account. Users without a default account cannot accrue expenses against a
// budget and are skipped.
func (r *SQLiteRepository) ListBudgetCandidates(ctx context.Context) ([]BudgetCandidate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.user_id, b.amount_cents, b.last_alert_sent, b.created_at, b.updated_at,
		       a.id, a.name, u.email, u.name
		FROM budgets b
		JOIN users u ON u.id = b.user_id
		JOIN accounts a ON a.user_id = b.user_id AND a.is_default = 1`)
	if err != nil {
		return nil, fmt.Errorf("list budget candidates: %w", err)
	}
	defer rows.Close()

	var out []BudgetCandidate
	for rows.Next() {
		var c BudgetCandidate
		var lastAlert sql.NullTime
		err := rows.Scan(&c.Budget.ID, &c.Budget.UserID, &c.Budget.Amount.Cents,
			&lastAlert, &c.Budget.CreatedAt, &c.Budget.UpdatedAt,
			&c.DefaultAccountID, &c.AccountName, &c.UserEmail, &c.UserName)
		if err != nil {
			return nil, fmt.Errorf("scan budget candidate: %w", err)
		}
		if lastAlert.Valid {
			c.Budget.LastAlertSent = lastAlert.Time
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanBudget(row *sql.Row) (*core.Budget, error) {
	var b core.Budget
	var lastAlert sql.NullTime
	err := row.Scan(&b.ID, &b.UserID, &b.Amount.Cents, &lastAlert, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan budget: %w", err)
	}
	if lastAlert.Valid {
		b.LastAlertSent = lastAlert.Time
	}
	return &b, nil
}
