package services

import (
	"context"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// BudgetService manages the single monthly budget per user and reports its
// current usage against the default account.
type BudgetService struct {
	storage *storage.SQLiteRepository
}

func NewBudgetService(storage *storage.SQLiteRepository) *BudgetService {
	return &BudgetService{storage: storage}
}

// BudgetUsage pairs a budget with this month's expense total on the user's
// default account.
type BudgetUsage struct {
	Budget      *core.Budget
	SpentCents  int64
	PercentUsed float64
}

func (s *BudgetService) SetBudget(ctx context.Context, userID string, amount core.Money) (*core.Budget, error) {
	if err := amount.Validate(); err != nil {
		return nil, core.Invalid(err)
	}
	return s.storage.UpsertBudget(ctx, userID, amount)
}

// GetUsage returns the budget and its consumption for the given calendar
// month. Spending is summed from the first of the month up to now, so
// expenses dated later in the month do not count yet. For past months the
// whole month counts.
func (s *BudgetService) GetUsage(ctx context.Context, userID string, year int, month time.Month, now time.Time) (*BudgetUsage, error) {
	budget, err := s.storage.GetBudget(ctx, userID)
	if err != nil {
		return nil, err
	}

	def, err := s.storage.DefaultAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	start, end := core.MonthRange(year, month)
	if now.Before(end) {
		end = now
	}
	spent, err := s.storage.SumAccountExpenses(ctx, def.ID, start, end)
	if err != nil {
		return nil, err
	}

	return &BudgetUsage{
		Budget:      budget,
		SpentCents:  spent,
		PercentUsed: core.PercentUsed(spent, budget.Amount.Cents),
	}, nil
}
