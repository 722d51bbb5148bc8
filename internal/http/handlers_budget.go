package http

import (
	"net/http"

	"fintrack/internal/core"
)

type setBudgetRequest struct {
	AmountCents int64 `json:"amountCents"`
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req setBudgetRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	budget, err := s.services.Budgets.SetBudget(r.Context(), user.ID, core.Money{Cents: req.AmountCents})
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.services.Dashboard.Invalidate(user.ID)
	respondJSON(w, http.StatusOK, map[string]any{
		"amountCents": budget.Amount.Cents,
		"amount":      budget.Amount.String(),
	})
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	now := s.now()
	usage, err := s.services.Budgets.GetUsage(r.Context(), user.ID, now.Year(), now.Month(), now)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toBudgetUsageJSON(usage))
}
