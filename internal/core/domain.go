package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	AccountCurrent AccountType = "current"
	AccountSavings AccountType = "savings"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

const (
	Daily   RecurringInterval = "daily"
	Weekly  RecurringInterval = "weekly"
	Monthly RecurringInterval = "monthly"
	Yearly  RecurringInterval = "yearly"
)

type (
	AccountType       string
	TransactionType   string
	TransactionStatus string
	RecurringInterval string

	// User is created lazily on the first authenticated request.
	User struct {
		ID          string
		AuthSubject string // subject id issued by the external auth provider
		Email       string
		Name        string
		ImageURL    string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Account struct {
		ID        string
		UserID    string
		Name      string
		Type      AccountType
		Balance   Money
		IsDefault bool
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Transaction amounts are always stored positive; the sign is derived
	// from the type (negative for expense, positive for income).
	Transaction struct {
		ID          string
		UserID      string
		AccountID   string
		Type        TransactionType
		Amount      Money
		Description string
		Date        time.Time
		Category    string
		ReceiptURL  string

		IsRecurring       bool
		Interval          RecurringInterval // set iff IsRecurring
		LastProcessed     time.Time         // zero if never processed
		NextRecurringDate time.Time

		Status    TransactionStatus
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Budget is a monthly spending limit; one per user. LastAlertSent
	// debounces alert emails to once per calendar month.
	Budget struct {
		ID            string
		UserID        string
		Amount        Money
		LastAlertSent time.Time // zero if never sent
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrInvalidTxType      = errors.New("invalid transaction type")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrIntervalMismatch   = errors.New("recurring interval must be set if and only if the transaction is recurring")
)

// BudgetAlertThreshold is the percentage of the monthly budget at which an
// alert email is triggered.
const BudgetAlertThreshold = 80.0

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	switch a.Type {
	case AccountCurrent, AccountSavings:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAccountType, a.Type)
	}
	return nil
}

func (t Transaction) Validate() error {
	switch t.Type {
	case Income, Expense:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTxType, t.Type)
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if !ValidCategory(t.Type, t.Category) {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, t.Category)
	}
	if t.IsRecurring != (t.Interval != "") {
		return ErrIntervalMismatch
	}
	if t.IsRecurring {
		switch t.Interval {
		case Daily, Weekly, Monthly, Yearly:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownInterval, t.Interval)
		}
	}
	return nil
}

// SignedCents returns the amount with the sign applied by type.
func (t Transaction) SignedCents() int64 {
	if t.Type == Expense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}

// Due reports whether a recurring transaction should be processed: it has
// never been processed, or its next scheduled date has arrived or passed.
func (t Transaction) Due(now time.Time) bool {
	if !t.IsRecurring {
		return false
	}
	if t.LastProcessed.IsZero() {
		return true
	}
	return !t.NextRecurringDate.After(now)
}

func (b Budget) Validate() error {
	return b.Amount.Validate()
}

// ShouldAlert reports whether a budget alert is warranted: usage has reached
// the threshold and no alert was sent in the current calendar month. The
// calendar-month comparison guarantees at most one alert per month even when
// the check runs many times or the threshold is re-crossed.
func (b Budget) ShouldAlert(expenseCents int64, now time.Time) bool {
	if b.Amount.Cents <= 0 {
		return false
	}
	if PercentUsed(expenseCents, b.Amount.Cents) < BudgetAlertThreshold {
		return false
	}
	if b.LastAlertSent.IsZero() {
		return true
	}
	return b.LastAlertSent.Year() < now.Year() ||
		(b.LastAlertSent.Year() == now.Year() && b.LastAlertSent.Month() < now.Month())
}

// PercentUsed returns expense as a percentage of the budget amount.
func PercentUsed(expenseCents, budgetCents int64) float64 {
	if budgetCents == 0 {
		return 0
	}
	return float64(expenseCents) / float64(budgetCents) * 100
}
