package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// TransactionService validates and persists transactions. All balance
// reconciliation happens inside the repository; this layer owns validation
// and recurring-date bookkeeping.
type TransactionService struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewTransactionService(storage *storage.SQLiteRepository) *TransactionService {
	return &TransactionService{storage: storage, now: time.Now}
}

// CreateTransactionInput carries the caller-supplied fields for a new
// transaction. AccountID may be empty, in which case the user's default
// account is used.
type CreateTransactionInput struct {
	AccountID   string
	Type        core.TransactionType
	Amount      core.Money
	Description string
	Date        time.Time
	Category    string
	ReceiptURL  string
	IsRecurring bool
	Interval    core.RecurringInterval
}

func (s *TransactionService) CreateTransaction(ctx context.Context, userID string, in CreateTransactionInput) (*core.Transaction, error) {
	accountID := in.AccountID
	if accountID == "" {
		def, err := s.storage.DefaultAccount(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("resolve default account: %w", err)
		}
		accountID = def.ID
	}

	tx := &core.Transaction{
		UserID:      userID,
		AccountID:   accountID,
		Type:        in.Type,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        in.Date,
		Category:    in.Category,
		ReceiptURL:  in.ReceiptURL,
		IsRecurring: in.IsRecurring,
		Interval:    in.Interval,
		Status:      core.StatusCompleted,
	}
	if err := tx.Validate(); err != nil {
		return nil, core.Invalid(err)
	}

	if tx.IsRecurring {
		next, err := core.NextDate(tx.Date, tx.Interval)
		if err != nil {
			return nil, core.Invalid(err)
		}
		tx.NextRecurringDate = next
	}

	if err := s.storage.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return tx, nil
}

// UpdateTransaction replaces a transaction's caller-editable fields and lets
// the repository reconcile the affected account balances.
func (s *TransactionService) UpdateTransaction(ctx context.Context, userID, transactionID string, in CreateTransactionInput) (*core.Transaction, error) {
	existing, err := s.storage.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	accountID := in.AccountID
	if accountID == "" {
		accountID = existing.AccountID
	}

	tx := &core.Transaction{
		ID:            existing.ID,
		UserID:        userID,
		AccountID:     accountID,
		Type:          in.Type,
		Amount:        in.Amount,
		Description:   in.Description,
		Date:          in.Date,
		Category:      in.Category,
		ReceiptURL:    in.ReceiptURL,
		IsRecurring:   in.IsRecurring,
		Interval:      in.Interval,
		LastProcessed: existing.LastProcessed,
		Status:        existing.Status,
	}
	if err := tx.Validate(); err != nil {
		return nil, core.Invalid(err)
	}

	if tx.IsRecurring {
		next, err := core.NextDate(tx.Date, tx.Interval)
		if err != nil {
			return nil, core.Invalid(err)
		}
		tx.NextRecurringDate = next
	}

	if err := s.storage.UpdateTransaction(ctx, userID, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// DeleteTransactions bulk-deletes the caller's transactions and reverses
// their balance effects.
func (s *TransactionService) DeleteTransactions(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, core.Invalid(fmt.Errorf("no transaction ids provided"))
	}
	n, err := s.storage.DeleteTransactions(ctx, userID, ids)
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Transactions deleted", "user_id", userID, "count", n)
	return n, nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, userID, transactionID string) (*core.Transaction, error) {
	return s.storage.GetTransaction(ctx, userID, transactionID)
}

func (s *TransactionService) ListAccountTransactions(ctx context.Context, userID, accountID string) ([]core.Transaction, error) {
	return s.storage.ListAccountTransactions(ctx, userID, accountID)
}
