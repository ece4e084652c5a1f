package types

import (
	"time"

	"github.com/google/uuid"
)

// Status names the variant of a SubmissionState.
type Status string

const (
	// StatusIdle is the initial state; nothing has been submitted yet.
	StatusIdle Status = "idle"
	// StatusInvalid means the last submit was rejected by validation.
	StatusInvalid Status = "invalid"
	// StatusInFlight means exactly one request is awaiting the analysis service.
	StatusInFlight Status = "in_flight"
	// StatusSucceeded holds a normalized result.
	StatusSucceeded Status = "succeeded"
	// StatusFailed holds a user-facing error message.
	StatusFailed Status = "failed"
)

// ErrorKind classifies a failed submission for logs and views.
type ErrorKind string

const (
	ErrorKindTransport         ErrorKind = "transport"
	ErrorKindCollaborator      ErrorKind = "collaborator"
	ErrorKindMalformedResponse ErrorKind = "malformed_response"
	ErrorKindTimeout           ErrorKind = "timeout"
)

// SubmissionState is one of Idle, Invalid, InFlight, Succeeded or Failed.
// The unexported marker keeps the set closed to this package.
type SubmissionState interface {
	Status() Status
	submissionState()
}

// Idle is the state before the first submit.
type Idle struct{}

// Invalid carries the ordered validation reasons of the last submit.
type Invalid struct {
	Reasons []string
}

// InFlight identifies the single outstanding attempt.
type InFlight struct {
	AttemptID uuid.UUID
	StartedAt time.Time
}

// Succeeded carries the normalized analysis.
type Succeeded struct {
	Result AnalysisResult
}

// Failed carries the message shown to the user.
type Failed struct {
	Message string
	Kind    ErrorKind
}

func (Idle) Status() Status      { return StatusIdle }
func (Invalid) Status() Status   { return StatusInvalid }
func (InFlight) Status() Status  { return StatusInFlight }
func (Succeeded) Status() Status { return StatusSucceeded }
func (Failed) Status() Status    { return StatusFailed }

func (Idle) submissionState()      {}
func (Invalid) submissionState()   {}
func (InFlight) submissionState()  {}
func (Succeeded) submissionState() {}
func (Failed) submissionState()    {}

// StateSnapshot is the flattened JSON form of a SubmissionState used by views.
type StateSnapshot struct {
	Status    Status          `json:"status"`
	Reasons   []string        `json:"reasons,omitempty"`
	AttemptID string          `json:"attempt_id,omitempty"`
	Result    *AnalysisResult `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorKind ErrorKind       `json:"error_kind,omitempty"`
}

// Snapshot flattens a state. A nil state reads as Idle.
func Snapshot(s SubmissionState) StateSnapshot {
	switch st := s.(type) {
	case Invalid:
		return StateSnapshot{Status: StatusInvalid, Reasons: st.Reasons}
	case InFlight:
		return StateSnapshot{Status: StatusInFlight, AttemptID: st.AttemptID.String()}
	case Succeeded:
		result := st.Result
		return StateSnapshot{Status: StatusSucceeded, Result: &result}
	case Failed:
		return StateSnapshot{Status: StatusFailed, Error: st.Message, ErrorKind: st.Kind}
	default:
		return StateSnapshot{Status: StatusIdle}
	}
}
