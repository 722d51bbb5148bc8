package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/ai"
	"fintrack/internal/auth"
	"fintrack/internal/config"
	"fintrack/internal/guard"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.ComponentApp, slog.LevelInfo)
	applog.SetDefault(logger)

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

	limiter := guard.NewLimiter(guard.DefaultLimiterConfig())
	requestGuard := guard.New(limiter, guard.NewDetector())

	aiClient := ai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	budgets := services.NewBudgetService(repo)
	svcs := apphttp.Services{
		Accounts:     services.NewAccountService(repo),
		Transactions: services.NewTransactionService(repo),
		Budgets:      budgets,
		Dashboard:    services.NewDashboardService(repo, budgets),
		Receipts:     services.NewReceiptService(aiClient),
	}

	srv := apphttp.NewServer(":"+cfg.Port, repo, auth.NewVerifier(cfg.JWTSecret), requestGuard, svcs,
		logger.WithComponent(applog.ComponentHTTP))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting fintrack API server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
