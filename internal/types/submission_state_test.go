//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_Variants(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name  string
		state SubmissionState
		want  StateSnapshot
	}{
		{"nil reads as idle", nil, StateSnapshot{Status: StatusIdle}},
		{"idle", Idle{}, StateSnapshot{Status: StatusIdle}},
		{"invalid", Invalid{Reasons: []string{"missing document"}}, StateSnapshot{Status: StatusInvalid, Reasons: []string{"missing document"}}},
		{"in flight", InFlight{AttemptID: id}, StateSnapshot{Status: StatusInFlight, AttemptID: id.String()}},
		{"failed", Failed{Message: "server busy", Kind: ErrorKindCollaborator}, StateSnapshot{Status: StatusFailed, Error: "server busy", ErrorKind: ErrorKindCollaborator}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Snapshot(tt.state))
		})
	}
}

func TestSnapshot_SucceededJSON(t *testing.T) {
	result := EmptyAnalysisResult()
	result.JobKeywords = []string{"go"}
	result.AnalysisReportMarkdown = "ok"

	data, err := json.Marshal(Snapshot(Succeeded{Result: result}))
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"status":"succeeded"`)
	assert.Contains(t, s, `"job_keywords":["go"]`)
	assert.Contains(t, s, `"resume_keywords":[]`)
	assert.Contains(t, s, `"analysis_report":"ok"`)
	assert.NotContains(t, s, `"error"`)
}

func TestStatus_MatchesVariant(t *testing.T) {
	assert.Equal(t, StatusIdle, Idle{}.Status())
	assert.Equal(t, StatusInvalid, Invalid{}.Status())
	assert.Equal(t, StatusInFlight, InFlight{}.Status())
	assert.Equal(t, StatusSucceeded, Succeeded{}.Status())
	assert.Equal(t, StatusFailed, Failed{}.Status())
}
