package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/core"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	now := s.now()
	year, month, err := dashboardMonth(r, now)
	if err != nil {
		respondError(w, r, err)
		return
	}

	d, err := s.services.Dashboard.Get(r.Context(), user.ID, year, month, now)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toDashboardJSON(d))
}

// dashboardMonth resolves the optional year and month query parameters,
// defaulting to the month containing now.
func dashboardMonth(r *http.Request, now time.Time) (int, time.Month, error) {
	q := r.URL.Query()
	if q.Get("year") == "" && q.Get("month") == "" {
		return now.Year(), now.Month(), nil
	}

	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || year < 1970 {
		return 0, 0, core.Invalid(errors.New("year must be a four-digit year"))
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, core.Invalid(errors.New("month must be between 1 and 12"))
	}
	return year, time.Month(month), nil
}
