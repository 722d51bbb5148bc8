package ai

import (
	"errors"
	"testing"
	"time"
)

func TestParseReceiptResponse(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		scan, err := parseReceiptResponse(`{"amount":"42.50","date":"2025-05-19","description":"Weekly shop","merchantName":"Esselunga","category":"groceries"}`)
		if err != nil {
			t.Fatalf("parseReceiptResponse: %v", err)
		}
		if scan.Amount.Cents != 4250 {
			t.Errorf("amount = %d, want 4250", scan.Amount.Cents)
		}
		if !scan.Date.Equal(time.Date(2025, 5, 19, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("date = %v", scan.Date)
		}
		if scan.MerchantName != "Esselunga" {
			t.Errorf("merchant = %q", scan.MerchantName)
		}
		if scan.Category != "groceries" {
			t.Errorf("category = %q", scan.Category)
		}
	})

	t.Run("fenced JSON", func(t *testing.T) {
		scan, err := parseReceiptResponse("```json\n{\"amount\":\"10.00\",\"description\":\"Lunch\",\"category\":\"food\"}\n```")
		if err != nil {
			t.Fatalf("parseReceiptResponse: %v", err)
		}
		if scan.Amount.Cents != 1000 || scan.Category != "food" {
			t.Errorf("scan = %+v", scan)
		}
	})

	t.Run("invented category falls back", func(t *testing.T) {
		scan, err := parseReceiptResponse(`{"amount":"5.00","description":"x","category":"snacks-and-stuff"}`)
		if err != nil {
			t.Fatalf("parseReceiptResponse: %v", err)
		}
		if scan.Category != "other-expense" {
			t.Errorf("category = %q, want other-expense", scan.Category)
		}
	})

	t.Run("not a receipt", func(t *testing.T) {
		_, err := parseReceiptResponse(`{"notReceipt":true}`)
		if !errors.Is(err, ErrNotReceipt) {
			t.Fatalf("err = %v, want ErrNotReceipt", err)
		}
	})

	t.Run("bad amount", func(t *testing.T) {
		if _, err := parseReceiptResponse(`{"amount":"lots","category":"food"}`); err == nil {
			t.Fatal("expected error for non-decimal amount")
		}
	})
}

func TestParseInsightsResponse(t *testing.T) {
	t.Run("three insights", func(t *testing.T) {
		insights, err := parseInsightsResponse(`["Spend less on food.","Income covers expenses.","Set a savings goal."]`)
		if err != nil {
			t.Fatalf("parseInsightsResponse: %v", err)
		}
		if len(insights) != 3 {
			t.Fatalf("got %d insights", len(insights))
		}
	})

	t.Run("wrong count", func(t *testing.T) {
		if _, err := parseInsightsResponse(`["only one"]`); err == nil {
			t.Fatal("expected error for wrong count")
		}
	})

	t.Run("empty insight", func(t *testing.T) {
		if _, err := parseInsightsResponse(`["a","","c"]`); err == nil {
			t.Fatal("expected error for empty insight")
		}
	})

	t.Run("not JSON", func(t *testing.T) {
		if _, err := parseInsightsResponse("here are your insights!"); err == nil {
			t.Fatal("expected error for prose response")
		}
	})
}

func TestDefaultInsights(t *testing.T) {
	if len(DefaultInsights()) != 3 {
		t.Fatal("fallback must provide exactly 3 insights")
	}
}
