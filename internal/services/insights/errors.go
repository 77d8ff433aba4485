package insights

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is returned when no provider API key is configured
var ErrMissingCredential = errors.New("provider API key is not configured")

// InsightError is the single error surfaced for a failed fetch. Its message names
// the vertical and the classified cause.
type InsightError struct {
	Vertical string
	Cause    ErrorCause
	Err      error
}

func (e *InsightError) Error() string {
	return fmt.Sprintf("Failed to retrieve insights for %s: %s.", e.Vertical, e.Cause.Message())
}

func (e *InsightError) Unwrap() error {
	return e.Err
}

// CauseOf returns the cause carried by err, or CauseUnknown
func CauseOf(err error) ErrorCause {
	var insightErr *InsightError
	if errors.As(err, &insightErr) {
		return insightErr.Cause
	}
	return CauseUnknown
}
