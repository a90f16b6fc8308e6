package oracle

import (
	"errors"
	"fmt"
)

var (
	// ErrNoChoices is returned when the service answers without any choice.
	ErrNoChoices = errors.New("oracle returned no choices")
	// ErrMissingModel is returned by New when no model name is configured.
	ErrMissingModel = errors.New("oracle model is required")
)

// StatusError reports a non-2xx answer from the oracle service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("oracle returned status %d: %s", e.Code, e.Body)
}

// Retryable reports whether the call may succeed if repeated later.
func (e *StatusError) Retryable() bool {
	return e.Code == 429 || e.Code >= 500
}
