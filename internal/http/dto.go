package http

import (
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

// Wire representations. Amounts travel as integer cents plus a formatted
// decimal string; dates as YYYY-MM-DD, timestamps as RFC 3339.

type accountJSON struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	BalanceCents int64  `json:"balanceCents"`
	Balance      string `json:"balance"`
	IsDefault    bool   `json:"isDefault"`
	CreatedAt    string `json:"createdAt"`
}

func toAccountJSON(a *core.Account) accountJSON {
	return accountJSON{
		ID:           a.ID,
		Name:         a.Name,
		Type:         string(a.Type),
		BalanceCents: a.Balance.Cents,
		Balance:      a.Balance.String(),
		IsDefault:    a.IsDefault,
		CreatedAt:    a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type transactionJSON struct {
	ID                string `json:"id"`
	AccountID         string `json:"accountId"`
	Type              string `json:"type"`
	AmountCents       int64  `json:"amountCents"`
	Amount            string `json:"amount"`
	Description       string `json:"description"`
	Date              string `json:"date"`
	Category          string `json:"category"`
	ReceiptURL        string `json:"receiptUrl,omitempty"`
	IsRecurring       bool   `json:"isRecurring"`
	Interval          string `json:"interval,omitempty"`
	NextRecurringDate string `json:"nextRecurringDate,omitempty"`
	Status            string `json:"status"`
}

func toTransactionJSON(t *core.Transaction) transactionJSON {
	out := transactionJSON{
		ID:          t.ID,
		AccountID:   t.AccountID,
		Type:        string(t.Type),
		AmountCents: t.Amount.Cents,
		Amount:      t.Amount.String(),
		Description: t.Description,
		Date:        t.Date.Format(time.DateOnly),
		Category:    t.Category,
		ReceiptURL:  t.ReceiptURL,
		IsRecurring: t.IsRecurring,
		Interval:    string(t.Interval),
		Status:      string(t.Status),
	}
	if !t.NextRecurringDate.IsZero() {
		out.NextRecurringDate = t.NextRecurringDate.Format(time.DateOnly)
	}
	return out
}

func toTransactionListJSON(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for i := range txs {
		out = append(out, toTransactionJSON(&txs[i]))
	}
	return out
}

type budgetUsageJSON struct {
	AmountCents   int64   `json:"amountCents"`
	Amount        string  `json:"amount"`
	SpentCents    int64   `json:"spentCents"`
	Spent         string  `json:"spent"`
	PercentUsed   float64 `json:"percentUsed"`
	LastAlertSent string  `json:"lastAlertSent,omitempty"`
}

func toBudgetUsageJSON(u *services.BudgetUsage) budgetUsageJSON {
	out := budgetUsageJSON{
		AmountCents: u.Budget.Amount.Cents,
		Amount:      u.Budget.Amount.String(),
		SpentCents:  u.SpentCents,
		Spent:       core.Money{Cents: u.SpentCents}.String(),
		PercentUsed: u.PercentUsed,
	}
	if !u.Budget.LastAlertSent.IsZero() {
		out.LastAlertSent = u.Budget.LastAlertSent.UTC().Format(time.RFC3339)
	}
	return out
}

type dashboardJSON struct {
	Accounts           []accountJSON     `json:"accounts"`
	RecentTransactions []transactionJSON `json:"recentTransactions"`
	Budget             *budgetUsageJSON  `json:"budget,omitempty"`
}

func toDashboardJSON(d *services.Dashboard) dashboardJSON {
	out := dashboardJSON{
		Accounts:           make([]accountJSON, 0, len(d.Accounts)),
		RecentTransactions: toTransactionListJSON(d.RecentTransactions),
	}
	for i := range d.Accounts {
		out.Accounts = append(out.Accounts, toAccountJSON(&d.Accounts[i]))
	}
	if d.BudgetUsage != nil {
		b := toBudgetUsageJSON(d.BudgetUsage)
		out.Budget = &b
	}
	return out
}

type receiptScanJSON struct {
	AmountCents  int64  `json:"amountCents"`
	Amount       string `json:"amount"`
	Date         string `json:"date"`
	Description  string `json:"description"`
	MerchantName string `json:"merchantName"`
	Category     string `json:"category"`
}
