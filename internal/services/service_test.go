package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUserWithAccount(t *testing.T, repo *storage.SQLiteRepository, subject string, balanceCents int64) (*core.User, *core.Account) {
	t.Helper()
	user, err := repo.GetOrCreateUser(context.Background(), subject, subject+"@example.com", "Test User", "")
	if err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}
	acc := &core.Account{
		UserID:  user.ID,
		Name:    "Main",
		Type:    core.AccountCurrent,
		Balance: core.Money{Cents: balanceCents},
	}
	if err := repo.CreateAccount(context.Background(), acc); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return user, acc
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

// stubMailer records sends and optionally fails them.
type stubMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

func (m *stubMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (m *stubMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// stubPublisher records published work items.
type stubPublisher struct {
	mu        sync.Mutex
	published []string
	fail      error
}

func (p *stubPublisher) PublishRecurringProcess(ctx context.Context, transactionID, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.published = append(p.published, transactionID)
	return nil
}

// stubInsights returns fixed insights or an error.
type stubInsights struct {
	insights []string
	fail     error
}

func (s *stubInsights) GenerateInsights(ctx context.Context, summary core.MonthlySummary) ([]string, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	return s.insights, nil
}

func mustCreateTransaction(t *testing.T, svc *TransactionService, userID string, in CreateTransactionInput) *core.Transaction {
	t.Helper()
	tx, err := svc.CreateTransaction(context.Background(), userID, in)
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	return tx
}

func utcDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
