// Package http exposes the JSON API over the domain services.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/guard"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Services bundles everything the handlers call.
type Services struct {
	Accounts     *services.AccountService
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Dashboard    *services.DashboardService
	Receipts     *services.ReceiptService
}

type Server struct {
	http.Server

	storage  *storage.SQLiteRepository
	services Services
	guard    *guard.Guard
	now      func() time.Time
}

// NewServer wires routes and the middleware chain: access log, guard,
// then bearer auth for everything under /api/.
func NewServer(addr string, repo *storage.SQLiteRepository, verifier *auth.Verifier, g *guard.Guard, svcs Services, logger *applog.Logger) *Server {
	s := &Server{
		storage:  repo,
		services: svcs,
		guard:    g,
		now:      time.Now,
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/accounts", s.handleListAccounts)
	api.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	api.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	api.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)
	api.HandleFunc("POST /api/accounts/{id}/default", s.handleSetDefaultAccount)
	api.HandleFunc("GET /api/accounts/{id}/transactions", s.handleListAccountTransactions)

	api.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	api.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	api.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	api.HandleFunc("POST /api/transactions/delete", s.handleDeleteTransactions)

	api.HandleFunc("GET /api/budget", s.handleGetBudget)
	api.HandleFunc("PUT /api/budget", s.handleSetBudget)

	api.HandleFunc("GET /api/dashboard", s.handleDashboard)
	api.HandleFunc("POST /api/receipts/scan", s.handleScanReceipt)

	authed := verifier.Middleware(func(w http.ResponseWriter, r *http.Request, err error) {
		respondError(w, r, err)
	})(api)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("/api/", authed)

	chain := applog.Middleware(logger)(
		applog.RequestIDMiddleware(requestID)(
			applog.AccessLog(g.ClientIP)(
				withSecurityHeaders(
					s.withGuard(mux)))))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           chain,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
	return s
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// requestID tags each request for log correlation. Incoming X-Request-ID
// from a proxy wins so traces line up across services.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(buf)
}

// withGuard rejects requests the guard denies. A throttled client gets a
// retryable 429; a suspicious one gets a terminal 403.
func (s *Server) withGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := s.guard.Check(r)
		if decision.Allowed {
			next.ServeHTTP(w, r)
			return
		}
		switch decision.Reason {
		case guard.ReasonRateLimited:
			w.Header().Set("Retry-After", "60")
			respondErrorCode(w, http.StatusTooManyRequests, codeRateLimited, "too many requests")
		default:
			respondErrorCode(w, http.StatusForbidden, codeBlocked, "request blocked")
		}
	})
}

// currentUser resolves the verified identity to a stored user, creating it
// on first sight.
func (s *Server) currentUser(r *http.Request) (*core.User, error) {
	id, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		return nil, err
	}
	return s.storage.GetOrCreateUser(r.Context(), id.Subject, id.Email, id.Name, id.ImageURL)
}

// Shutdown stops the HTTP server and the guard's background cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.guard.Stop()
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.storage.Ping(r.Context()); err != nil {
		respondErrorCode(w, http.StatusServiceUnavailable, codeInternal, "storage unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
