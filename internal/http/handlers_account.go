package http

import (
	"net/http"

	"fintrack/internal/core"
)

type createAccountRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	InitialBalance int64  `json:"initialBalanceCents"`
	IsDefault      bool   `json:"isDefault"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req createAccountRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	account, err := s.services.Accounts.CreateAccount(r.Context(), user.ID,
		req.Name, core.AccountType(req.Type), core.Money{Cents: req.InitialBalance}, req.IsDefault)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.services.Dashboard.Invalidate(user.ID)
	respondJSON(w, http.StatusCreated, toAccountJSON(account))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	accounts, err := s.services.Accounts.ListAccounts(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]accountJSON, 0, len(accounts))
	for i := range accounts {
		out = append(out, toAccountJSON(&accounts[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	account, err := s.services.Accounts.GetAccount(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toAccountJSON(account))
}

func (s *Server) handleSetDefaultAccount(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.services.Accounts.SetDefaultAccount(r.Context(), user.ID, r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	s.services.Dashboard.Invalidate(user.ID)
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.services.Accounts.DeleteAccount(r.Context(), user.ID, r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	s.services.Dashboard.Invalidate(user.ID)
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListAccountTransactions(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	txs, err := s.services.Transactions.ListAccountTransactions(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionListJSON(txs))
}
