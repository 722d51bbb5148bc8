package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
)

// errorBody is the JSON envelope for every non-2xx response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	codeUnauthorized    = "UNAUTHORIZED"
	codeNotFound        = "NOT_FOUND"
	codeValidation      = "VALIDATION_FAILED"
	codeRateLimited     = "RATE_LIMITED"
	codeBlocked         = "BLOCKED"
	codeExternalService = "EXTERNAL_SERVICE_FAILURE"
	codeBadRequest      = "BAD_REQUEST"
	codeInternal        = "INTERNAL"
)

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response body", "error", err)
	}
}

func respondErrorCode(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// respondError maps a service error kind to its HTTP status. Unrecognized
// errors are logged and masked as a generic 500 so internals never leak.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		respondErrorCode(w, http.StatusUnauthorized, codeUnauthorized, "authentication required")
	case errors.Is(err, core.ErrNotFound):
		respondErrorCode(w, http.StatusNotFound, codeNotFound, "resource not found")
	case errors.Is(err, core.ErrValidation):
		respondErrorCode(w, http.StatusUnprocessableEntity, codeValidation, err.Error())
	case errors.Is(err, core.ErrRateLimited):
		w.Header().Set("Retry-After", "60")
		respondErrorCode(w, http.StatusTooManyRequests, codeRateLimited, "too many requests")
	case errors.Is(err, core.ErrExternalService):
		respondErrorCode(w, http.StatusBadGateway, codeExternalService, "upstream service failed")
	default:
		slog.ErrorContext(r.Context(), "Unhandled request error",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		respondErrorCode(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

// decodeBody decodes a JSON request body into dst, limiting the body size
// and rejecting unknown fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return core.Invalid(errors.New("malformed request body"))
	}
	return nil
}
