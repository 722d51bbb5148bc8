// Package mail renders and sends the application's notification emails.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"fintrack/internal/core"
)

// Mailer sends a rendered HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// BudgetAlertData feeds the budget-alert template.
type BudgetAlertData struct {
	UserName     string
	PercentUsed  float64
	BudgetAmount core.Money
	SpentAmount  core.Money
	AccountName  string
}

// MonthlyReportData feeds the monthly-report template.
type MonthlyReportData struct {
	UserName   string
	Month      string
	Year       int
	Income     core.Money
	Expenses   core.Money
	Net        core.Money
	ByCategory map[string]core.Money
	Insights   []string
}

// RenderBudgetAlert renders the budget threshold warning email body.
func RenderBudgetAlert(data BudgetAlertData) (string, error) {
	return render("budget-alert.html", data)
}

// RenderMonthlyReport renders the monthly summary email body.
func RenderMonthlyReport(data MonthlyReportData) (string, error) {
	return render("monthly-report.html", data)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
