package core

import (
	"errors"
	"fmt"
)

// Error kinds surfaced at the service boundary. Handlers map these to HTTP
// statuses; everything else is an internal error.
var (
	// ErrUnauthorized: no authenticated identity on the request.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound: entity missing or not owned by the caller. Cross-user
	// access is reported as not found to avoid leaking existence.
	ErrNotFound = errors.New("not found")

	// ErrValidation: schema or invariant violation.
	ErrValidation = errors.New("validation failed")

	// ErrRateLimited: the request guard denied the call.
	ErrRateLimited = errors.New("rate limited")

	// ErrExternalService: the AI or email collaborator failed.
	ErrExternalService = errors.New("external service failure")
)

// Invalid wraps a validation failure so callers can match ErrValidation.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrValidation, err.Error())
}
