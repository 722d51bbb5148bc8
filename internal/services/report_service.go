package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/ai"
	"fintrack/internal/core"
	"fintrack/internal/mail"
	"fintrack/internal/storage"
)

// InsightGenerator produces three insight strings for a monthly summary.
type InsightGenerator interface {
	GenerateInsights(ctx context.Context, summary core.MonthlySummary) ([]string, error)
}

// MonthlyReportService emails each user a summary of the previous calendar
// month. Insight generation is best effort: when the generator fails the
// report ships with static fallback insights rather than not at all.
type MonthlyReportService struct {
	storage  *storage.SQLiteRepository
	mailer   mail.Mailer
	insights InsightGenerator
}

func NewMonthlyReportService(storage *storage.SQLiteRepository, mailer mail.Mailer, insights InsightGenerator) *MonthlyReportService {
	return &MonthlyReportService{storage: storage, mailer: mailer, insights: insights}
}

// Run sends reports for the month preceding the given instant and returns
// how many went out. Users with no activity that month are skipped.
func (s *MonthlyReportService) Run(ctx context.Context, now time.Time) (int, error) {
	users, err := s.storage.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	// Step back through the first of the month so a run on the 31st cannot
	// normalize into the wrong month.
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	year, month := prev.Year(), prev.Month()
	start, end := core.MonthRange(year, month)

	var sent atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, user := range users {
		g.Go(func() error {
			txs, err := s.storage.ListTransactionsInRange(gctx, user.ID, start, end)
			if err != nil {
				slog.ErrorContext(gctx, "Failed to load transactions for report",
					"user_id", user.ID,
					"error", err)
				return nil
			}
			if len(txs) == 0 {
				return nil
			}

			summary := core.Summarize(year, month, txs)

			insights, err := s.insights.GenerateInsights(gctx, summary)
			if err != nil {
				slog.WarnContext(gctx, "Insight generation failed, using fallback",
					"user_id", user.ID,
					"error", err)
				insights = ai.DefaultInsights()
			}

			byCategory := make(map[string]core.Money, len(summary.ByCategory))
			for name, cents := range summary.ByCategory {
				byCategory[name] = core.Money{Cents: cents}
			}

			body, err := mail.RenderMonthlyReport(mail.MonthlyReportData{
				UserName:   user.Name,
				Month:      month.String(),
				Year:       year,
				Income:     core.Money{Cents: summary.IncomeCents},
				Expenses:   core.Money{Cents: summary.ExpenseCents},
				Net:        core.Money{Cents: summary.NetCents()},
				ByCategory: byCategory,
				Insights:   insights,
			})
			if err != nil {
				slog.ErrorContext(gctx, "Failed to render monthly report",
					"user_id", user.ID,
					"error", err)
				return nil
			}

			subject := fmt.Sprintf("Your %s %d Financial Report", month, year)
			if err := s.mailer.Send(gctx, user.Email, subject, body); err != nil {
				slog.ErrorContext(gctx, "Failed to send monthly report",
					"user_id", user.ID,
					"error", err)
				return nil
			}

			sent.Add(1)
			slog.InfoContext(gctx, "Monthly report sent",
				"user_id", user.ID,
				"year", year,
				"month", int(month),
				"transactions", summary.TransactionCount)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(sent.Load()), err
	}

	slog.InfoContext(ctx, "Monthly report run complete",
		"users", len(users),
		"sent", sent.Load())
	return int(sent.Load()), nil
}
