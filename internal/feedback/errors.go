// Package feedback forwards permit feedback submissions to an issue tracker.
// The handler keeps no state between requests.
package feedback

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError indicates the submission was rejected before reaching the tracker
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// UpstreamError indicates the tracker rejected the issue or could not be reached
type UpstreamError struct {
	Status  int
	Message string
	Cause   error
}

func (e *UpstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("tracker error (%d): %s: %v", e.Status, e.Message, e.Cause)
	}
	return fmt.Sprintf("tracker error (%d): %s", e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var valErr *ValidationError
	var upErr *UpstreamError
	switch {
	case errors.As(err, &valErr):
		return http.StatusBadRequest
	case errors.As(err, &upErr):
		if upErr.Status >= 400 && upErr.Status <= 599 {
			return upErr.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
