package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/mail"
	"fintrack/internal/storage"
)

// BudgetAlertService sweeps all budgets and emails users who crossed the
// alert threshold this month. The per-budget lastAlertSent stamp keeps it to
// at most one email per user per calendar month however often the sweep runs.
type BudgetAlertService struct {
	storage *storage.SQLiteRepository
	mailer  mail.Mailer
}

func NewBudgetAlertService(storage *storage.SQLiteRepository, mailer mail.Mailer) *BudgetAlertService {
	return &BudgetAlertService{storage: storage, mailer: mailer}
}

// Run checks every budget and returns how many alerts went out. Per-user
// failures are logged and skipped so one bad mailbox never starves the rest.
func (s *BudgetAlertService) Run(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.storage.ListBudgetCandidates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list budget candidates: %w", err)
	}

	// Spending counts from the first of the month up to now; expenses dated
	// later in the month do not count yet.
	start, _ := core.MonthRange(now.Year(), now.Month())

	var sent atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, c := range candidates {
		g.Go(func() error {
			spent, err := s.storage.SumAccountExpenses(gctx, c.DefaultAccountID, start, now)
			if err != nil {
				slog.ErrorContext(gctx, "Failed to sum expenses for alert check",
					"budget_id", c.Budget.ID,
					"user_id", c.Budget.UserID,
					"error", err)
				return nil
			}

			if !c.Budget.ShouldAlert(spent, now) {
				return nil
			}

			body, err := mail.RenderBudgetAlert(mail.BudgetAlertData{
				UserName:     c.UserName,
				PercentUsed:  core.PercentUsed(spent, c.Budget.Amount.Cents),
				BudgetAmount: c.Budget.Amount,
				SpentAmount:  core.Money{Cents: spent},
				AccountName:  c.AccountName,
			})
			if err != nil {
				slog.ErrorContext(gctx, "Failed to render budget alert",
					"budget_id", c.Budget.ID,
					"error", err)
				return nil
			}

			if err := s.mailer.Send(gctx, c.UserEmail, "Budget Alert", body); err != nil {
				slog.ErrorContext(gctx, "Failed to send budget alert",
					"budget_id", c.Budget.ID,
					"user_id", c.Budget.UserID,
					"error", err)
				return nil
			}

			// Stamp only after a successful send so a failed send retries
			// on the next sweep.
			if err := s.storage.SetLastAlertSent(gctx, c.Budget.ID, now); err != nil {
				slog.ErrorContext(gctx, "Failed to stamp alert time",
					"budget_id", c.Budget.ID,
					"error", err)
				return nil
			}

			sent.Add(1)
			slog.InfoContext(gctx, "Budget alert sent",
				"budget_id", c.Budget.ID,
				"user_id", c.Budget.UserID,
				"spent_cents", spent,
				"budget_cents", c.Budget.Amount.Cents)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(sent.Load()), err
	}

	slog.InfoContext(ctx, "Budget alert sweep complete",
		"checked", len(candidates),
		"sent", sent.Load())
	return int(sent.Load()), nil
}
