package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fintrack/internal/ai"
	"fintrack/internal/auth"
	"fintrack/internal/guard"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

const testSecret = "test-secret"

type fixedScanner struct {
	scan *ai.ReceiptScan
}

func (s *fixedScanner) ScanReceipt(ctx context.Context, image []byte, mimeType string) (*ai.ReceiptScan, error) {
	return s.scan, nil
}

func newTestServer(t *testing.T, limit int) *Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	limiter := guard.NewLimiter(guard.LimiterConfig{Limit: limit, Window: time.Minute})
	t.Cleanup(limiter.Stop)
	g := guard.New(limiter, guard.NewDetector())

	budgets := services.NewBudgetService(repo)
	svcs := Services{
		Accounts:     services.NewAccountService(repo),
		Transactions: services.NewTransactionService(repo),
		Budgets:      budgets,
		Dashboard:    services.NewDashboardService(repo, budgets),
		Receipts: services.NewReceiptService(&fixedScanner{
			scan: &ai.ReceiptScan{Description: "Groceries", Category: "groceries"},
		}),
	}

	return NewServer(":0", repo, auth.NewVerifier(testSecret), g, svcs, applog.New("http", slog.LevelError))
}

func signToken(t *testing.T, subject string) string {
	t.Helper()
	claims := &auth.Claims{
		Email: subject + "@example.com",
		Name:  "Test User",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("User-Agent", "fintrack-test/1.0")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	decodeInto(t, rec, &body)
	return body.Error.Code
}

func createAccount(t *testing.T, s *Server, token string, balanceCents int64) accountJSON {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/accounts", token, map[string]any{
		"name":                "Checking",
		"type":                "current",
		"initialBalanceCents": balanceCents,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: status %d body %s", rec.Code, rec.Body.String())
	}
	var acc accountJSON
	decodeInto(t, rec, &acc)
	return acc
}

func TestRequestsWithoutTokenAreUnauthorized(t *testing.T) {
	s := newTestServer(t, 100)

	rec := doJSON(t, s, http.MethodGet, "/api/accounts", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != codeUnauthorized {
		t.Fatalf("code = %s, want %s", code, codeUnauthorized)
	}
}

func TestHealthEndpointsSkipAuth(t *testing.T) {
	s := newTestServer(t, 100)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestAccountLifecycle(t *testing.T) {
	s := newTestServer(t, 100)
	token := signToken(t, "user-1")

	acc := createAccount(t, s, token, 50000)
	if !acc.IsDefault {
		t.Fatal("first account must become default")
	}
	if acc.Balance != "500.00" {
		t.Fatalf("balance = %s, want 500.00", acc.Balance)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/accounts", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list []accountJSON
	decodeInto(t, rec, &list)
	if len(list) != 1 {
		t.Fatalf("accounts = %d, want 1", len(list))
	}
}

func TestCrossUserAccountIsNotFound(t *testing.T) {
	s := newTestServer(t, 100)
	owner := signToken(t, "owner")
	other := signToken(t, "other")

	acc := createAccount(t, s, owner, 1000)

	rec := doJSON(t, s, http.MethodGet, "/api/accounts/"+acc.ID, other, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if code := errorCode(t, rec); code != codeNotFound {
		t.Fatalf("code = %s, want %s", code, codeNotFound)
	}
}

func TestCreateTransactionAdjustsBalance(t *testing.T) {
	s := newTestServer(t, 100)
	token := signToken(t, "user-1")
	acc := createAccount(t, s, token, 100000)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", token, map[string]any{
		"accountId":   acc.ID,
		"type":        "expense",
		"amountCents": 2500,
		"description": "Lunch",
		"date":        "2025-05-19",
		"category":    "food",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	var tx transactionJSON
	decodeInto(t, rec, &tx)
	if tx.AmountCents != 2500 || tx.Type != "expense" {
		t.Fatalf("transaction = %+v", tx)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/accounts/"+acc.ID, token, nil)
	var after accountJSON
	decodeInto(t, rec, &after)
	if after.BalanceCents != 97500 {
		t.Fatalf("balance = %d, want 97500", after.BalanceCents)
	}
}

func TestInvalidTransactionIsUnprocessable(t *testing.T) {
	s := newTestServer(t, 100)
	token := signToken(t, "user-1")
	createAccount(t, s, token, 100000)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", token, map[string]any{
		"type":        "expense",
		"amountCents": 0,
		"description": "Nothing",
		"date":        "2025-05-19",
		"category":    "food",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if code := errorCode(t, rec); code != codeValidation {
		t.Fatalf("code = %s, want %s", code, codeValidation)
	}
}

func TestDeleteTransactionsReportsCount(t *testing.T) {
	s := newTestServer(t, 100)
	token := signToken(t, "user-1")
	acc := createAccount(t, s, token, 100000)

	var ids []string
	for i := 0; i < 2; i++ {
		rec := doJSON(t, s, http.MethodPost, "/api/transactions", token, map[string]any{
			"accountId":   acc.ID,
			"type":        "expense",
			"amountCents": 1000,
			"description": fmt.Sprintf("Item %d", i),
			"date":        "2025-05-19",
			"category":    "shopping",
		})
		var tx transactionJSON
		decodeInto(t, rec, &tx)
		ids = append(ids, tx.ID)
	}

	rec := doJSON(t, s, http.MethodPost, "/api/transactions/delete", token, map[string]any{"ids": ids})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	var resp deleteTransactionsResponse
	decodeInto(t, rec, &resp)
	if resp.Deleted != 2 {
		t.Fatalf("deleted = %d, want 2", resp.Deleted)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/accounts/"+acc.ID, token, nil)
	var after accountJSON
	decodeInto(t, rec, &after)
	if after.BalanceCents != 100000 {
		t.Fatalf("balance = %d, want reversals back to 100000", after.BalanceCents)
	}
}

func TestBudgetRoundTrip(t *testing.T) {
	s := newTestServer(t, 100)
	s.now = func() time.Time { return time.Date(2025, time.May, 20, 12, 0, 0, 0, time.UTC) }
	token := signToken(t, "user-1")
	acc := createAccount(t, s, token, 100000)

	rec := doJSON(t, s, http.MethodPut, "/api/budget", token, map[string]any{"amountCents": 50000})
	if rec.Code != http.StatusOK {
		t.Fatalf("set budget status = %d body %s", rec.Code, rec.Body.String())
	}

	doJSON(t, s, http.MethodPost, "/api/transactions", token, map[string]any{
		"accountId":   acc.ID,
		"type":        "expense",
		"amountCents": 20000,
		"description": "Rent",
		"date":        "2025-05-02",
		"category":    "housing",
	})

	rec = doJSON(t, s, http.MethodGet, "/api/budget", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get budget status = %d", rec.Code)
	}
	var usage budgetUsageJSON
	decodeInto(t, rec, &usage)
	if usage.SpentCents != 20000 {
		t.Fatalf("spent = %d, want 20000", usage.SpentCents)
	}
	if usage.PercentUsed != 40 {
		t.Fatalf("percent = %v, want 40", usage.PercentUsed)
	}
}

func TestDashboardAggregatesSections(t *testing.T) {
	s := newTestServer(t, 100)
	s.now = func() time.Time { return time.Date(2025, time.May, 20, 12, 0, 0, 0, time.UTC) }
	token := signToken(t, "user-1")
	acc := createAccount(t, s, token, 100000)

	doJSON(t, s, http.MethodPut, "/api/budget", token, map[string]any{"amountCents": 50000})
	doJSON(t, s, http.MethodPost, "/api/transactions", token, map[string]any{
		"accountId":   acc.ID,
		"type":        "income",
		"amountCents": 300000,
		"description": "Salary",
		"date":        "2025-05-01",
		"category":    "salary",
	})

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	var d dashboardJSON
	decodeInto(t, rec, &d)
	if len(d.Accounts) != 1 || len(d.RecentTransactions) != 1 {
		t.Fatalf("dashboard = %+v", d)
	}
	if d.Budget == nil {
		t.Fatal("expected budget section")
	}
}

func TestDashboardMonthQuery(t *testing.T) {
	s := newTestServer(t, 100)
	s.now = func() time.Time { return time.Date(2025, time.June, 5, 12, 0, 0, 0, time.UTC) }
	token := signToken(t, "user-1")
	acc := createAccount(t, s, token, 1000000)

	doJSON(t, s, http.MethodPut, "/api/budget", token, map[string]any{"amountCents": 50000})
	doJSON(t, s, http.MethodPost, "/api/transactions", token, map[string]any{
		"accountId":   acc.ID,
		"type":        "expense",
		"amountCents": 20000,
		"description": "Rent",
		"date":        "2025-05-02",
		"category":    "housing",
	})

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard?year=2025&month=5", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	var d dashboardJSON
	decodeInto(t, rec, &d)
	if d.Budget == nil || d.Budget.SpentCents != 20000 {
		t.Fatalf("May budget = %+v, want spent 20000", d.Budget)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/dashboard?year=2025&month=13", token, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 for month 13", rec.Code)
	}
	if errorCode(t, rec) != codeValidation {
		t.Fatalf("code = %s", errorCode(t, rec))
	}
}

func TestSetDefaultAccountSwitches(t *testing.T) {
	s := newTestServer(t, 100)
	token := signToken(t, "user-1")

	first := createAccount(t, s, token, 10000)
	second := createAccount(t, s, token, 20000)
	if second.IsDefault {
		t.Fatal("second account must not start as default")
	}

	rec := doJSON(t, s, http.MethodPost, "/api/accounts/"+second.ID+"/default", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/api/accounts", token, nil)
	var list []accountJSON
	decodeInto(t, rec, &list)
	for _, acc := range list {
		if acc.ID == second.ID && !acc.IsDefault {
			t.Fatal("second account should be default after switch")
		}
		if acc.ID == first.ID && acc.IsDefault {
			t.Fatal("first account should have lost default")
		}
	}
}

func TestRateLimitedClientGets429(t *testing.T) {
	s := newTestServer(t, 2)
	token := signToken(t, "user-1")

	doJSON(t, s, http.MethodGet, "/api/accounts", token, nil)
	doJSON(t, s, http.MethodGet, "/api/accounts", token, nil)

	rec := doJSON(t, s, http.MethodGet, "/api/accounts", token, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if code := errorCode(t, rec); code != codeRateLimited {
		t.Fatalf("code = %s, want %s", code, codeRateLimited)
	}
}

func TestSuspiciousRequestGets403(t *testing.T) {
	s := newTestServer(t, 100)
	token := signToken(t, "user-1")

	rec := doJSON(t, s, http.MethodGet, "/api/accounts?file=.env", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if code := errorCode(t, rec); code != codeBlocked {
		t.Fatalf("code = %s, want %s", code, codeBlocked)
	}
}
