// Package storage persists the domain in SQLite. Every balance-affecting
// mutation runs inside a single database transaction: no transaction row is
// ever observable without its paired account balance adjustment.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Ping verifies the database connection, for readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on any error.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

// GetOrCreateUser looks up a user by the external auth subject id and
// creates the row lazily on first sight.
func (r *SQLiteRepository) GetOrCreateUser(ctx context.Context, subject, email, name, imageURL string) (*core.User, error) {
	u, err := r.getUserBySubject(ctx, subject)
	if err == nil {
		return u, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("get user by subject: %w", err)
	}

	now := time.Now().UTC()
	u = &core.User{
		ID:          newID(),
		AuthSubject: subject,
		Email:       email,
		Name:        name,
		ImageURL:    imageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, auth_subject, email, name, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.AuthSubject, u.Email, u.Name, u.ImageURL, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		// A concurrent first request may have created the row already.
		if existing, lookupErr := r.getUserBySubject(ctx, subject); lookupErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User created on first authenticated request",
		"user_id", u.ID, "email", u.Email)
	return u, nil
}

func (r *SQLiteRepository) getUserBySubject(ctx context.Context, subject string) (*core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, auth_subject, email, name, image_url, created_at, updated_at
		FROM users WHERE auth_subject = ?`, subject,
	).Scan(&u.ID, &u.AuthSubject, &u.Email, &u.Name, &u.ImageURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every registered user, for the monthly report run.
func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, auth_subject, email, name, image_url, created_at, updated_at
		FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.AuthSubject, &u.Email, &u.Name, &u.ImageURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
