package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// AccountService owns account lifecycle rules on top of the repository.
type AccountService struct {
	storage *storage.SQLiteRepository
}

func NewAccountService(storage *storage.SQLiteRepository) *AccountService {
	return &AccountService{storage: storage}
}

// CreateAccount validates and creates an account. The first account a user
// creates always becomes the default regardless of the request.
func (s *AccountService) CreateAccount(ctx context.Context, userID string, name string, accountType core.AccountType, initialBalance core.Money, isDefault bool) (*core.Account, error) {
	acc := &core.Account{
		UserID:    userID,
		Name:      name,
		Type:      accountType,
		Balance:   initialBalance,
		IsDefault: isDefault,
	}
	if err := acc.Validate(); err != nil {
		return nil, core.Invalid(err)
	}
	if err := s.storage.CreateAccount(ctx, acc); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return acc, nil
}

func (s *AccountService) GetAccount(ctx context.Context, userID, accountID string) (*core.Account, error) {
	return s.storage.GetAccount(ctx, userID, accountID)
}

func (s *AccountService) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx, userID)
}

func (s *AccountService) SetDefaultAccount(ctx context.Context, userID, accountID string) error {
	return s.storage.SetDefaultAccount(ctx, userID, accountID)
}

func (s *AccountService) DeleteAccount(ctx context.Context, userID, accountID string) error {
	return s.storage.DeleteAccount(ctx, userID, accountID)
}
