package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/ai"
	"fintrack/internal/amqp"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/mail"
	"fintrack/internal/scheduler"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.ComponentScheduler, slog.LevelInfo)
	applog.SetDefault(logger)

	logger.Info("Starting fintrack-scheduler")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var mailer mail.Mailer
	if cfg.MailFrom != "" {
		gmail, err := mail.NewGmailSender(ctx, mail.Credentials{
			From:       cfg.MailFrom,
			ClientJSON: cfg.GoogleOAuthClientJSON,
			ClientFile: cfg.GoogleOAuthClientFile,
			TokenJSON:  cfg.GoogleOAuthTokenJSON,
			TokenFile:  cfg.GoogleOAuthTokenFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Gmail sender", "error", err)
			os.Exit(1)
		}
		mailer = gmail
	} else {
		logger.Info("Mail disabled - no MAIL_FROM provided, skipping alert and report jobs")
	}

	discovery := services.NewRecurringDiscovery(repo, amqpClient)

	sched := scheduler.New()
	if err := sched.DailyAt("recurring-discovery", cfg.RecurringScheduleTime, func(ctx context.Context, now time.Time) error {
		n, err := discovery.Run(ctx, now)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "Recurring discovery completed", "published", n)
		return nil
	}); err != nil {
		logger.Error("Failed to schedule recurring discovery", "error", err)
		os.Exit(1)
	}

	if mailer != nil {
		alerts := services.NewBudgetAlertService(repo, mailer)
		reports := services.NewMonthlyReportService(repo, mailer, ai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel))

		if err := sched.Every("budget-alerts", cfg.BudgetCheckInterval, func(ctx context.Context, now time.Time) error {
			n, err := alerts.Run(ctx, now)
			if err != nil {
				return err
			}
			logger.InfoContext(ctx, "Budget alert sweep completed", "alerts_sent", n)
			return nil
		}); err != nil {
			logger.Error("Failed to schedule budget alerts", "error", err)
			os.Exit(1)
		}

		if err := sched.MonthlyAt("monthly-reports", 1, cfg.ReportScheduleTime, func(ctx context.Context, now time.Time) error {
			n, err := reports.Run(ctx, now)
			if err != nil {
				return err
			}
			logger.InfoContext(ctx, "Monthly report run completed", "reports_sent", n)
			return nil
		}); err != nil {
			logger.Error("Failed to schedule monthly reports", "error", err)
			os.Exit(1)
		}
	}

	if err := sched.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("Scheduler failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Scheduler stopped gracefully")
}
