package core

import (
	"errors"
	"testing"
	"time"
)

func validTransaction() Transaction {
	return Transaction{
		ID:          "tx-1",
		UserID:      "user-1",
		AccountID:   "acc-1",
		Type:        Expense,
		Amount:      Money{Cents: 1500},
		Description: "weekly shop",
		Date:        time.Date(2025, 5, 19, 0, 0, 0, 0, time.UTC),
		Category:    "groceries",
		Status:      StatusCompleted,
	}
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{
			name:   "valid expense",
			mutate: func(tx *Transaction) {},
		},
		{
			name: "valid recurring with interval",
			mutate: func(tx *Transaction) {
				tx.IsRecurring = true
				tx.Interval = Monthly
			},
		},
		{
			name:    "zero amount",
			mutate:  func(tx *Transaction) { tx.Amount = Money{} },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "empty description",
			mutate:  func(tx *Transaction) { tx.Description = "   " },
			wantErr: ErrEmptyDescription,
		},
		{
			name:    "bad type",
			mutate:  func(tx *Transaction) { tx.Type = "transfer" },
			wantErr: ErrInvalidTxType,
		},
		{
			name:    "income category on expense",
			mutate:  func(tx *Transaction) { tx.Category = "salary" },
			wantErr: ErrInvalidCategory,
		},
		{
			name:    "recurring without interval",
			mutate:  func(tx *Transaction) { tx.IsRecurring = true },
			wantErr: ErrIntervalMismatch,
		},
		{
			name:    "interval without recurring flag",
			mutate:  func(tx *Transaction) { tx.Interval = Weekly },
			wantErr: ErrIntervalMismatch,
		},
		{
			name: "recurring with unknown interval",
			mutate: func(tx *Transaction) {
				tx.IsRecurring = true
				tx.Interval = "fortnightly"
			},
			wantErr: ErrUnknownInterval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSignedCents(t *testing.T) {
	exp := Transaction{Type: Expense, Amount: Money{Cents: 15000}}
	if got := exp.SignedCents(); got != -15000 {
		t.Errorf("expense SignedCents() = %d, want -15000", got)
	}
	inc := Transaction{Type: Income, Amount: Money{Cents: 5000}}
	if got := inc.SignedCents(); got != 5000 {
		t.Errorf("income SignedCents() = %d, want 5000", got)
	}
}

func TestAccountValidate(t *testing.T) {
	acc := Account{Name: "Main", Type: AccountCurrent}
	if err := acc.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	acc.Type = "checking"
	if err := acc.Validate(); !errors.Is(err, ErrInvalidAccountType) {
		t.Errorf("Validate() = %v, want ErrInvalidAccountType", err)
	}

	acc = Account{Name: "", Type: AccountSavings}
	if err := acc.Validate(); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Validate() = %v, want ErrEmptyName", err)
	}
}

func TestBudgetShouldAlert(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	budget := func(lastAlert time.Time) Budget {
		return Budget{Amount: Money{Cents: 400000}, LastAlertSent: lastAlert}
	}

	tests := []struct {
		name     string
		budget   Budget
		expenses int64
		want     bool
	}{
		{
			name:     "85 percent used, never alerted - fires",
			budget:   budget(time.Time{}),
			expenses: 340000,
			want:     true,
		},
		{
			name:     "85 percent used, alerted last month - fires",
			budget:   budget(time.Date(2025, 5, 28, 0, 0, 0, 0, time.UTC)),
			expenses: 340000,
			want:     true,
		},
		{
			name:     "85 percent used, already alerted this month - silent",
			budget:   budget(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)),
			expenses: 340000,
			want:     false,
		},
		{
			name:     "79 percent used - silent",
			budget:   budget(time.Time{}),
			expenses: 316000,
			want:     false,
		},
		{
			name:     "exactly 80 percent - fires",
			budget:   budget(time.Time{}),
			expenses: 320000,
			want:     true,
		},
		{
			name:     "over budget - fires",
			budget:   budget(time.Time{}),
			expenses: 450000,
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.budget.ShouldAlert(tt.expenses, now); got != tt.want {
				t.Errorf("ShouldAlert() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPercentUsed(t *testing.T) {
	if got := PercentUsed(340000, 400000); got != 85.0 {
		t.Errorf("PercentUsed() = %v, want 85.0", got)
	}
	if got := PercentUsed(100, 0); got != 0 {
		t.Errorf("PercentUsed() with zero budget = %v, want 0", got)
	}
}
