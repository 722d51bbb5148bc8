package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
)

// ErrNotReceipt means the model decided the image is not a receipt.
var ErrNotReceipt = errors.New("image is not a receipt")

type receiptPayload struct {
	Amount       string `json:"amount"`
	Date         string `json:"date"`
	Description  string `json:"description"`
	MerchantName string `json:"merchantName"`
	Category     string `json:"category"`
	NotReceipt   bool   `json:"notReceipt"`
}

func parseReceiptResponse(content string) (*ReceiptScan, error) {
	raw := extractJSON(content)

	var payload receiptPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode receipt payload: %w", err)
	}
	if payload.NotReceipt {
		return nil, ErrNotReceipt
	}

	cents, err := core.ParseDecimalToCents(payload.Amount)
	if err != nil {
		return nil, fmt.Errorf("receipt amount %q: %w", payload.Amount, err)
	}

	scan := &ReceiptScan{
		Amount:       core.Money{Cents: cents},
		Description:  strings.TrimSpace(payload.Description),
		MerchantName: strings.TrimSpace(payload.MerchantName),
		Category:     normalizeCategory(payload.Category),
	}

	if payload.Date != "" {
		date, err := time.Parse(time.DateOnly, payload.Date)
		if err != nil {
			return nil, fmt.Errorf("receipt date %q: %w", payload.Date, err)
		}
		scan.Date = date
	}

	return scan, nil
}

// normalizeCategory coerces model output into the enumerated category set,
// falling back to other-expense for anything it invented anyway.
func normalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	for _, c := range core.ExpenseCategories {
		if category == c {
			return c
		}
	}
	return "other-expense"
}

func parseInsightsResponse(content string) ([]string, error) {
	raw := extractJSON(content)

	var insights []string
	if err := json.Unmarshal([]byte(raw), &insights); err != nil {
		return nil, fmt.Errorf("decode insights payload: %w", err)
	}
	if len(insights) != 3 {
		return nil, fmt.Errorf("expected 3 insights, got %d", len(insights))
	}
	for i, s := range insights {
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("insight %d is empty", i)
		}
	}
	return insights, nil
}

// extractJSON strips markdown code fences the model sometimes adds despite
// instructions.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if after, ok := strings.CutPrefix(content, "```json"); ok {
		content = after
	} else if after, ok := strings.CutPrefix(content, "```"); ok {
		content = after
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
