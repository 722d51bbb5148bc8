package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
)

const txColumns = `id, user_id, account_id, type, amount_cents, description, date,
	category, receipt_url, is_recurring, recurring_interval, last_processed,
	next_recurring_date, status, created_at, updated_at`

// CreateTransaction inserts the row and applies the signed balance delta to
// the owning account in one database transaction. Partial application is not
// observable.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	now := time.Now().UTC()
	if t.ID == "" {
		t.ID = newID()
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := accountOwned(ctx, tx, t.UserID, t.AccountID); err != nil {
			return err
		}
		if err := insertTransaction(ctx, tx, t); err != nil {
			return err
		}
		if err := adjustBalance(ctx, tx, t.AccountID, t.SignedCents()); err != nil {
			return err
		}
		slog.InfoContext(ctx, "Transaction created",
			"transaction_id", t.ID,
			"account_id", t.AccountID,
			"type", t.Type,
			"amount_cents", t.Amount.Cents)
		return nil
	})
}

// UpdateTransaction rewrites a transaction and reconciles balances. When the
// account reference is unchanged only the net difference of the signed
// amounts is applied. When it changes, the old account is decremented by the
// old signed amount and the new account incremented by the new signed amount
// as two independent reconciliations, still within one database transaction.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, userID string, t *core.Transaction) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		old, err := getTransactionTx(ctx, tx, userID, t.ID)
		if err != nil {
			return err
		}
		if err := accountOwned(ctx, tx, userID, t.AccountID); err != nil {
			return err
		}

		t.UserID = userID
		t.CreatedAt = old.CreatedAt
		t.UpdatedAt = time.Now().UTC()

		if old.AccountID == t.AccountID {
			delta := t.SignedCents() - old.SignedCents()
			if delta != 0 {
				if err := adjustBalance(ctx, tx, t.AccountID, delta); err != nil {
					return err
				}
			}
		} else {
			if err := adjustBalance(ctx, tx, old.AccountID, -old.SignedCents()); err != nil {
				return err
			}
			if err := adjustBalance(ctx, tx, t.AccountID, t.SignedCents()); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE transactions
			SET account_id = ?, type = ?, amount_cents = ?, description = ?,
			    date = ?, category = ?, receipt_url = ?, is_recurring = ?,
			    recurring_interval = ?, next_recurring_date = ?, status = ?,
			    updated_at = ?
			WHERE id = ? AND user_id = ?`,
			t.AccountID, t.Type, t.Amount.Cents, t.Description,
			t.Date, t.Category, t.ReceiptURL, boolToInt(t.IsRecurring),
			nullString(string(t.Interval)), nullTime(t.NextRecurringDate), t.Status,
			t.UpdatedAt, t.ID, userID,
		)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		return nil
	})
}

// DeleteTransactions removes the caller's transactions with the given ids,
// grouping signed reversals by account and applying one aggregated balance
// update per affected account, all in one database transaction. Returns the
// number of rows deleted.
func (r *SQLiteRepository) DeleteTransactions(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	deleted := 0
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		placeholders := strings.Repeat("?,", len(ids))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]any, 0, len(ids)+1)
		args = append(args, userID)
		for _, id := range ids {
			args = append(args, id)
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT id, account_id, type, amount_cents
			FROM transactions
			WHERE user_id = ? AND id IN (`+placeholders+`)`, args...)
		if err != nil {
			return fmt.Errorf("load transactions for delete: %w", err)
		}

		reversalByAccount := make(map[string]int64)
		var found []string
		for rows.Next() {
			var id, accountID string
			var txType core.TransactionType
			var amountCents int64
			if err := rows.Scan(&id, &accountID, &txType, &amountCents); err != nil {
				rows.Close()
				return fmt.Errorf("scan transaction: %w", err)
			}
			// Reversal of the original signed delta: deleting an expense
			// adds the amount back, deleting an income subtracts it.
			signed := amountCents
			if txType == core.Expense {
				signed = -signed
			}
			reversalByAccount[accountID] -= signed
			found = append(found, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate transactions: %w", err)
		}
		if len(found) == 0 {
			return core.ErrNotFound
		}

		delArgs := make([]any, len(found))
		delPlaceholders := strings.Repeat("?,", len(found))
		delPlaceholders = delPlaceholders[:len(delPlaceholders)-1]
		for i, id := range found {
			delArgs[i] = id
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM transactions WHERE id IN (`+delPlaceholders+`)`, delArgs...)
		if err != nil {
			return fmt.Errorf("delete transactions: %w", err)
		}
		n, _ := res.RowsAffected()
		deleted = int(n)

		for accountID, reversal := range reversalByAccount {
			if err := adjustBalance(ctx, tx, accountID, reversal); err != nil {
				return err
			}
		}
		return nil
	})
	return deleted, err
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+txColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	return scanTransactionRow(row)
}

// ListAccountTransactions returns an account's transactions newest first,
// after an ownership check on the account.
func (r *SQLiteRepository) ListAccountTransactions(ctx context.Context, userID, accountID string) ([]core.Transaction, error) {
	if _, err := r.GetAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}
	return r.queryTransactions(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE account_id = ? ORDER BY date DESC, created_at DESC`, accountID)
}

// ListTransactionsInRange returns a user's transactions with date in the
// half-open interval [start, end).
func (r *SQLiteRepository) ListTransactionsInRange(ctx context.Context, userID string, start, end time.Time) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE user_id = ? AND date >= ? AND date < ?
		ORDER BY date`, userID, start, end)
}

// ListRecentTransactions returns a user's newest transactions across all
// accounts, capped at limit.
func (r *SQLiteRepository) ListRecentTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE user_id = ?
		ORDER BY date DESC, created_at DESC
		LIMIT ?`, userID, limit)
}

// SumAccountExpenses sums expense amounts on one account for [start, end).
func (r *SQLiteRepository) SumAccountExpenses(ctx context.Context, accountID string, start, end time.Time) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		WHERE account_id = ? AND type = 'expense' AND date >= ? AND date < ?`,
		accountID, start, end,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum account expenses: %w", err)
	}
	return total, nil
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t *core.Transaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (`+txColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.AccountID, t.Type, t.Amount.Cents, t.Description,
		t.Date, t.Category, t.ReceiptURL, boolToInt(t.IsRecurring),
		nullString(string(t.Interval)), nullTime(t.LastProcessed),
		nullTime(t.NextRecurringDate), t.Status, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// adjustBalance applies a signed delta to an account balance. Must be called
// inside the same transaction as the row mutation that caused it.
func adjustBalance(ctx context.Context, tx *sql.Tx, accountID string, deltaCents int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance_cents = balance_cents + ?, updated_at = ?
		WHERE id = ?`,
		deltaCents, time.Now().UTC(), accountID,
	)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust balance rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func getTransactionTx(ctx context.Context, tx *sql.Tx, userID, id string) (*core.Transaction, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT `+txColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	return scanTransactionRow(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (*core.Transaction, error) {
	var t core.Transaction
	var isRecurring int
	var interval sql.NullString
	var lastProcessed, nextDate sql.NullTime
	err := s.Scan(&t.ID, &t.UserID, &t.AccountID, &t.Type, &t.Amount.Cents,
		&t.Description, &t.Date, &t.Category, &t.ReceiptURL, &isRecurring,
		&interval, &lastProcessed, &nextDate, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.IsRecurring = isRecurring != 0
	t.Interval = core.RecurringInterval(interval.String)
	if lastProcessed.Valid {
		t.LastProcessed = lastProcessed.Time
	}
	if nextDate.Valid {
		t.NextRecurringDate = nextDate.Time
	}
	return &t, nil
}

func scanTransactionRow(row *sql.Row) (*core.Transaction, error) {
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
