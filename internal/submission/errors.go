// Package submission owns the resume submission lifecycle: it builds the request, dispatches
// it to the analysis service and drives the observable SubmissionState.
package submission

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/ats-checker/internal/types"
)

// User-facing messages for failures that carry no structured error from the service.
const (
	GenericFailureMessage = "Failed to analyze resume. Please try again."
	TimeoutMessage        = "The analysis service did not respond in time. Please try again."
)

// ValidationError is a user-correctable rejection; the service is never contacted.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid submission: %s", strings.Join(e.Reasons, "; "))
}

// TransportError covers unreachable hosts and non-2xx replies without a structured error.
type TransportError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("transport error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("transport error: %s", msg)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// CollaboratorError is a non-2xx reply carrying a structured error field.
type CollaboratorError struct {
	StatusCode int
	Message    string
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("analysis service error (HTTP %d): %s", e.StatusCode, e.Message)
}

// MalformedResponseError is a 2xx reply whose body is not structured data.
type MalformedResponseError struct {
	StatusCode int
	Cause      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response (HTTP %d): %v", e.StatusCode, e.Cause)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// TimeoutError is an attempt that outlived the configured timeout.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("analysis request timed out after %s", e.After)
}

// failure maps an attempt error to the Failed state shown to the user.
func failure(err error) types.Failed {
	switch e := err.(type) {
	case *CollaboratorError:
		return types.Failed{Message: e.Message, Kind: types.ErrorKindCollaborator}
	case *TimeoutError:
		return types.Failed{Message: TimeoutMessage, Kind: types.ErrorKindTimeout}
	case *MalformedResponseError:
		return types.Failed{Message: GenericFailureMessage, Kind: types.ErrorKindMalformedResponse}
	default:
		return types.Failed{Message: GenericFailureMessage, Kind: types.ErrorKindTransport}
	}
}
