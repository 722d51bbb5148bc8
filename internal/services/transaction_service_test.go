package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestCreateTransactionDefaultsToDefaultAccount(t *testing.T) {
	repo := newTestRepo(t)
	user, acc := seedUserWithAccount(t, repo, "sub-1", 100000)
	svc := NewTransactionService(repo)

	tx := mustCreateTransaction(t, svc, user.ID, CreateTransactionInput{
		Type:        core.Expense,
		Amount:      core.Money{Cents: 15000},
		Description: "Groceries",
		Date:        utcDate(2025, time.May, 19),
		Category:    "groceries",
	})
	if tx.AccountID != acc.ID {
		t.Fatalf("account = %s, want default %s", tx.AccountID, acc.ID)
	}

	got, err := repo.GetAccount(context.Background(), user.ID, acc.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got.Balance.Cents != 85000 {
		t.Fatalf("balance = %d, want 85000", got.Balance.Cents)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	repo := newTestRepo(t)
	user, acc := seedUserWithAccount(t, repo, "sub-1", 0)
	svc := NewTransactionService(repo)

	tests := []struct {
		name string
		in   CreateTransactionInput
	}{
		{
			name: "zero amount",
			in: CreateTransactionInput{
				AccountID: acc.ID, Type: core.Expense,
				Description: "x", Date: utcDate(2025, time.May, 19), Category: "food",
			},
		},
		{
			name: "empty description",
			in: CreateTransactionInput{
				AccountID: acc.ID, Type: core.Expense, Amount: core.Money{Cents: 100},
				Date: utcDate(2025, time.May, 19), Category: "food",
			},
		},
		{
			name: "category from the wrong side",
			in: CreateTransactionInput{
				AccountID: acc.ID, Type: core.Expense, Amount: core.Money{Cents: 100},
				Description: "x", Date: utcDate(2025, time.May, 19), Category: "salary",
			},
		},
		{
			name: "recurring without interval",
			in: CreateTransactionInput{
				AccountID: acc.ID, Type: core.Expense, Amount: core.Money{Cents: 100},
				Description: "x", Date: utcDate(2025, time.May, 19), Category: "food",
				IsRecurring: true,
			},
		},
		{
			name: "interval without recurring",
			in: CreateTransactionInput{
				AccountID: acc.ID, Type: core.Expense, Amount: core.Money{Cents: 100},
				Description: "x", Date: utcDate(2025, time.May, 19), Category: "food",
				Interval: core.Monthly,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTransaction(context.Background(), user.ID, tt.in)
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCreateRecurringSetsNextDate(t *testing.T) {
	repo := newTestRepo(t)
	user, acc := seedUserWithAccount(t, repo, "sub-1", 100000)
	svc := NewTransactionService(repo)

	tx := mustCreateTransaction(t, svc, user.ID, CreateTransactionInput{
		AccountID:   acc.ID,
		Type:        core.Expense,
		Amount:      core.Money{Cents: 2500},
		Description: "Netflix",
		Date:        utcDate(2025, time.May, 19),
		Category:    "entertainment",
		IsRecurring: true,
		Interval:    core.Monthly,
	})

	want := utcDate(2025, time.June, 19)
	if !tx.NextRecurringDate.Equal(want) {
		t.Fatalf("next date = %v, want %v", tx.NextRecurringDate, want)
	}
}

func TestUpdateTransactionAcrossAccounts(t *testing.T) {
	repo := newTestRepo(t)
	user, current := seedUserWithAccount(t, repo, "sub-1", 50000)
	savings := &core.Account{UserID: user.ID, Name: "Savings", Type: core.AccountSavings}
	if err := repo.CreateAccount(context.Background(), savings); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	svc := NewTransactionService(repo)

	tx := mustCreateTransaction(t, svc, user.ID, CreateTransactionInput{
		AccountID:   current.ID,
		Type:        core.Expense,
		Amount:      core.Money{Cents: 10000},
		Description: "Rent",
		Date:        utcDate(2025, time.May, 1),
		Category:    "housing",
	})

	_, err := svc.UpdateTransaction(context.Background(), user.ID, tx.ID, CreateTransactionInput{
		AccountID:   savings.ID,
		Type:        core.Expense,
		Amount:      core.Money{Cents: 10000},
		Description: "Rent",
		Date:        utcDate(2025, time.May, 1),
		Category:    "housing",
	})
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}

	a, _ := repo.GetAccount(context.Background(), user.ID, current.ID)
	b, _ := repo.GetAccount(context.Background(), user.ID, savings.ID)
	if a.Balance.Cents != 50000 {
		t.Errorf("old account = %d, want 50000", a.Balance.Cents)
	}
	if b.Balance.Cents != -10000 {
		t.Errorf("new account = %d, want -10000", b.Balance.Cents)
	}
}

func TestUpdateForeignTransactionIsNotFound(t *testing.T) {
	repo := newTestRepo(t)
	owner, acc := seedUserWithAccount(t, repo, "owner", 10000)
	intruder, _ := seedUserWithAccount(t, repo, "intruder", 0)
	svc := NewTransactionService(repo)

	tx := mustCreateTransaction(t, svc, owner.ID, CreateTransactionInput{
		AccountID:   acc.ID,
		Type:        core.Expense,
		Amount:      core.Money{Cents: 500},
		Description: "Coffee",
		Date:        utcDate(2025, time.May, 19),
		Category:    "food",
	})

	_, err := svc.UpdateTransaction(context.Background(), intruder.ID, tx.ID, CreateTransactionInput{
		Type: core.Expense, Amount: core.Money{Cents: 100},
		Description: "x", Date: utcDate(2025, time.May, 19), Category: "food",
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteTransactionsRequiresIDs(t *testing.T) {
	repo := newTestRepo(t)
	user, _ := seedUserWithAccount(t, repo, "sub-1", 0)
	svc := NewTransactionService(repo)

	if _, err := svc.DeleteTransactions(context.Background(), user.ID, nil); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
