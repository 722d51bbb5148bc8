package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

// CreateAccount inserts an account for the user. The first account a user
// creates is always the default; a later account created with IsDefault set
// demotes the previous default in the same transaction.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, acc *core.Account) error {
	now := time.Now().UTC()
	acc.ID = newID()
	acc.CreatedAt = now
	acc.UpdatedAt = now

	return r.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM accounts WHERE user_id = ?`, acc.UserID,
		).Scan(&count); err != nil {
			return fmt.Errorf("count accounts: %w", err)
		}
		if count == 0 {
			acc.IsDefault = true
		} else if acc.IsDefault {
			if _, err := tx.ExecContext(ctx,
				`UPDATE accounts SET is_default = 0, updated_at = ? WHERE user_id = ?`,
				now, acc.UserID,
			); err != nil {
				return fmt.Errorf("clear default flags: %w", err)
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (id, user_id, name, type, balance_cents, is_default, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			acc.ID, acc.UserID, acc.Name, acc.Type, acc.Balance.Cents,
			boolToInt(acc.IsDefault), acc.CreatedAt, acc.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		return nil
	})
}

// GetAccount fetches an account scoped to its owner. A missing or foreign
// account is reported as core.ErrNotFound.
func (r *SQLiteRepository) GetAccount(ctx context.Context, userID, accountID string) (*core.Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, balance_cents, is_default, created_at, updated_at
		FROM accounts WHERE id = ? AND user_id = ?`, accountID, userID))
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, type, balance_cents, is_default, created_at, updated_at
		FROM accounts WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		var isDefault int
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance.Cents,
			&isDefault, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.IsDefault = isDefault != 0
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// DefaultAccount returns the user's default account, or core.ErrNotFound if
// the user has no accounts.
func (r *SQLiteRepository) DefaultAccount(ctx context.Context, userID string) (*core.Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, balance_cents, is_default, created_at, updated_at
		FROM accounts WHERE user_id = ? AND is_default = 1`, userID))
}

// SetDefaultAccount atomically clears the default flag on all of the user's
// accounts and sets it on exactly one. A concurrent reader never observes
// zero or two defaults.
func (r *SQLiteRepository) SetDefaultAccount(ctx context.Context, userID, accountID string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := accountOwned(ctx, tx, userID, accountID); err != nil {
			return err
		}
		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET is_default = 0, updated_at = ? WHERE user_id = ?`,
			now, userID,
		); err != nil {
			return fmt.Errorf("clear default flags: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET is_default = 1, updated_at = ? WHERE id = ? AND user_id = ?`,
			now, accountID, userID,
		); err != nil {
			return fmt.Errorf("set default flag: %w", err)
		}
		return nil
	})
}

// DeleteAccount removes an account and its transactions. If the deleted
// account was the default and other accounts remain, the oldest remaining
// account is promoted so the one-default invariant holds.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, userID, accountID string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var wasDefault int
		err := tx.QueryRowContext(ctx,
			`SELECT is_default FROM accounts WHERE id = ? AND user_id = ?`,
			accountID, userID,
		).Scan(&wasDefault)
		if err == sql.ErrNoRows {
			return core.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load account: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transactions WHERE account_id = ?`, accountID,
		); err != nil {
			return fmt.Errorf("delete account transactions: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM accounts WHERE id = ?`, accountID,
		); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}

		if wasDefault == 1 {
			if _, err := tx.ExecContext(ctx, `
				UPDATE accounts SET is_default = 1, updated_at = ?
				WHERE id = (SELECT id FROM accounts WHERE user_id = ? ORDER BY created_at LIMIT 1)`,
				time.Now().UTC(), userID,
			); err != nil {
				return fmt.Errorf("promote new default: %w", err)
			}
		}

		slog.InfoContext(ctx, "Account deleted", "account_id", accountID, "user_id", userID)
		return nil
	})
}

func scanAccount(row *sql.Row) (*core.Account, error) {
	var a core.Account
	var isDefault int
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance.Cents,
		&isDefault, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.IsDefault = isDefault != 0
	return &a, nil
}

// accountOwned verifies ownership inside a transaction; foreign accounts
// surface as core.ErrNotFound.
func accountOwned(ctx context.Context, tx *sql.Tx, userID, accountID string) error {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM accounts WHERE id = ? AND user_id = ?`, accountID, userID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check account ownership: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
