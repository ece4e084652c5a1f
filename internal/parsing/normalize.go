// Package parsing decodes analysis service responses and coerces them into AnalysisResult.
package parsing

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/jonathan/ats-checker/internal/types"
)

// Response field names used by the analysis service.
const (
	FieldJobKeywords    = "job_keywords"
	FieldResumeKeywords = "resume_keywords"
	FieldAnalysisReport = "analysis_report"
	FieldRefinedResume  = "refined_resume"
	FieldError          = "error"
)

// DecodeBody parses a response body as JSON. Any JSON value is accepted; only
// syntactically broken or empty bodies fail.
func DecodeBody(body []byte) (any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &ParseError{Message: "empty response body"}
	}

	var raw any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, &ParseError{Message: "response body is not valid JSON", Cause: err}
	}
	return raw, nil
}

// NormalizeAnalysis coerces an arbitrary decoded value into an AnalysisResult.
// It never fails: every field that is missing or of the wrong type takes its empty default.
func NormalizeAnalysis(raw any) types.AnalysisResult {
	result := types.EmptyAnalysisResult()

	obj, ok := raw.(map[string]any)
	if !ok {
		return result
	}

	result.JobKeywords = stringList(obj[FieldJobKeywords])
	result.ResumeKeywords = stringList(obj[FieldResumeKeywords])
	result.AnalysisReportMarkdown = stringField(obj[FieldAnalysisReport])
	result.RefinedResumeMarkdown = stringField(obj[FieldRefinedResume])

	return result
}

// ErrorMessage extracts a non-blank structured "error" string from a decoded body.
func ErrorMessage(raw any) (string, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return "", false
	}
	msg := stringField(obj[FieldError])
	return msg, strings.TrimSpace(msg) != ""
}

// stringList keeps the string elements of a JSON array and skips everything else.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}
