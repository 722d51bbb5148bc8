// Package ai wraps the OpenAI API for receipt scanning and spending
// insights. Failures never surface provider error details to callers; they
// map to core.ErrExternalService.
package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"fintrack/internal/core"
)

// ReceiptScan is the structured result of scanning a receipt image.
type ReceiptScan struct {
	Amount       core.Money
	Date         time.Time
	Description  string
	MerchantName string
	Category     string
}

// Client calls the OpenAI chat completions API.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient creates a client for the given API key and model.
func NewClient(apiKey, model string) *Client {
	return &Client{
		api:   openai.NewClient(apiKey),
		model: model,
	}
}

const receiptPromptFormat = `Analyze this receipt image and return only minified JSON in one line. No comments. No markdown.

{
  "amount": "total amount as a decimal string, e.g. 42.50",
  "date": "purchase date as YYYY-MM-DD",
  "description": "brief summary of the purchase",
  "merchantName": "name of the merchant",
  "category": "one of the allowed categories"
}

CRITICAL RULES:
- category MUST be exactly one of: %v. Never invent new categories.
- amount is the receipt total, not a line item.
- If the image is not a receipt, return {"notReceipt": true}.`

// ScanReceipt extracts transaction data from a receipt image. The category
// in the result is always one of core.ExpenseCategories.
func (c *Client) ScanReceipt(ctx context.Context, image []byte, mimeType string) (*ReceiptScan, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: fmt.Sprintf(receiptPromptFormat, core.ExpenseCategories),
					},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
	})
	if err != nil {
		slog.ErrorContext(ctx, "Receipt scan request failed", "error", err)
		return nil, fmt.Errorf("%w: receipt scan", core.ErrExternalService)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: receipt scan returned no choices", core.ErrExternalService)
	}

	scan, err := parseReceiptResponse(resp.Choices[0].Message.Content)
	if err != nil {
		if errors.Is(err, ErrNotReceipt) {
			return nil, err
		}
		slog.ErrorContext(ctx, "Receipt scan response unparseable", "error", err)
		return nil, fmt.Errorf("%w: %v", core.ErrExternalService, err)
	}
	return scan, nil
}

const insightsPromptFormat = `You are a personal finance assistant. Given this monthly summary, return only a minified JSON array of exactly 3 short, actionable insight strings. No comments. No markdown.

Month: %s %d
Total income: %s
Total expenses: %s
Expenses by category: %s`

// GenerateInsights produces three short insight strings for a monthly
// summary. Callers fall back to DefaultInsights when this fails.
func (c *Client) GenerateInsights(ctx context.Context, summary core.MonthlySummary) ([]string, error) {
	var categories strings.Builder
	for name, cents := range summary.ByCategory {
		fmt.Fprintf(&categories, "%s=%s ", name, core.Money{Cents: cents})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(insightsPromptFormat,
					summary.Month, summary.Year,
					core.Money{Cents: summary.IncomeCents},
					core.Money{Cents: summary.ExpenseCents},
					strings.TrimSpace(categories.String())),
			},
		},
	})
	if err != nil {
		slog.ErrorContext(ctx, "Insights request failed", "error", err)
		return nil, fmt.Errorf("%w: insights", core.ErrExternalService)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: insights returned no choices", core.ErrExternalService)
	}

	insights, err := parseInsightsResponse(resp.Choices[0].Message.Content)
	if err != nil {
		slog.ErrorContext(ctx, "Insights response unparseable", "error", err)
		return nil, fmt.Errorf("%w: %v", core.ErrExternalService, err)
	}
	return insights, nil
}

// DefaultInsights is the static fallback used when insight generation fails.
func DefaultInsights() []string {
	return []string{
		"Your highest spending category this month might need attention.",
		"Consider setting up a budget for better financial management.",
		"Track your recurring expenses to identify potential savings.",
	}
}
