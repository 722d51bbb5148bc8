package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const recentTransactionLimit = 10

// Dashboard is the aggregate a user sees first: accounts, recent activity,
// and budget consumption for the current month.
type Dashboard struct {
	Accounts           []core.Account
	RecentTransactions []core.Transaction
	BudgetUsage        *BudgetUsage
}

// DashboardService assembles dashboards and caches them per user. Any
// mutation through the other services must call Invalidate for the user.
type DashboardService struct {
	storage *storage.SQLiteRepository
	budgets *BudgetService
	cache   *cache.LRU[*Dashboard]
}

func NewDashboardService(storage *storage.SQLiteRepository, budgets *BudgetService) *DashboardService {
	return &DashboardService{
		storage: storage,
		budgets: budgets,
		cache:   cache.NewLRU[*Dashboard](256, 30*time.Second),
	}
}

// Get assembles the dashboard with budget usage for the given calendar
// month. Only the current-month view is cached; historical months are
// immutable and cheap enough to read through.
func (s *DashboardService) Get(ctx context.Context, userID string, year int, month time.Month, now time.Time) (*Dashboard, error) {
	current := year == now.Year() && month == now.Month()
	if current {
		if d, ok := s.cache.Get(userID); ok {
			return d, nil
		}
	}

	accounts, err := s.storage.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	recent, err := s.storage.ListRecentTransactions(ctx, userID, recentTransactionLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent transactions: %w", err)
	}

	d := &Dashboard{
		Accounts:           accounts,
		RecentTransactions: recent,
	}

	// No budget or no default account just means an empty usage section.
	usage, err := s.budgets.GetUsage(ctx, userID, year, month, now)
	switch {
	case err == nil:
		d.BudgetUsage = usage
	case errors.Is(err, core.ErrNotFound):
	default:
		return nil, fmt.Errorf("budget usage: %w", err)
	}

	if current {
		s.cache.Set(userID, d)
	}
	return d, nil
}

// Invalidate drops the cached dashboard after a mutation.
func (s *DashboardService) Invalidate(userID string) {
	s.cache.Delete(userID)
}
