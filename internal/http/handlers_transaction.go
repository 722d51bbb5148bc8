package http

import (
	"errors"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type transactionRequest struct {
	AccountID   string `json:"accountId,omitempty"`
	Type        string `json:"type"`
	AmountCents int64  `json:"amountCents"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	ReceiptURL  string `json:"receiptUrl,omitempty"`
	IsRecurring bool   `json:"isRecurring,omitempty"`
	Interval    string `json:"interval,omitempty"`
}

func (req transactionRequest) toInput() (services.CreateTransactionInput, error) {
	date, err := time.ParseInLocation(time.DateOnly, req.Date, time.UTC)
	if err != nil {
		return services.CreateTransactionInput{}, core.Invalid(errors.New("date must be YYYY-MM-DD"))
	}
	return services.CreateTransactionInput{
		AccountID:   req.AccountID,
		Type:        core.TransactionType(req.Type),
		Amount:      core.Money{Cents: req.AmountCents},
		Description: req.Description,
		Date:        date,
		Category:    req.Category,
		ReceiptURL:  req.ReceiptURL,
		IsRecurring: req.IsRecurring,
		Interval:    core.RecurringInterval(req.Interval),
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(w, r, err)
		return
	}

	tx, err := s.services.Transactions.CreateTransaction(r.Context(), user.ID, in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.services.Dashboard.Invalidate(user.ID)
	respondJSON(w, http.StatusCreated, toTransactionJSON(tx))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	tx, err := s.services.Transactions.GetTransaction(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionJSON(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(w, r, err)
		return
	}

	tx, err := s.services.Transactions.UpdateTransaction(r.Context(), user.ID, r.PathValue("id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.services.Dashboard.Invalidate(user.ID)
	respondJSON(w, http.StatusOK, toTransactionJSON(tx))
}

type deleteTransactionsRequest struct {
	IDs []string `json:"ids"`
}

type deleteTransactionsResponse struct {
	Deleted int `json:"deleted"`
}

func (s *Server) handleDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req deleteTransactionsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	n, err := s.services.Transactions.DeleteTransactions(r.Context(), user.ID, req.IDs)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.services.Dashboard.Invalidate(user.ID)
	respondJSON(w, http.StatusOK, deleteTransactionsResponse{Deleted: n})
}
