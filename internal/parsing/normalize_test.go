package parsing

import (
	"testing"

	"github.com/jonathan/ats-checker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) any {
	t.Helper()
	raw, err := DecodeBody([]byte(body))
	require.NoError(t, err)
	return raw
}

func TestNormalizeAnalysis_EmptyObject(t *testing.T) {
	got := NormalizeAnalysis(decode(t, `{}`))
	assert.Equal(t, types.AnalysisResult{
		JobKeywords:    []string{},
		ResumeKeywords: []string{},
	}, got)
	assert.NotNil(t, got.JobKeywords)
	assert.NotNil(t, got.ResumeKeywords)
}

func TestNormalizeAnalysis_PartialFields(t *testing.T) {
	got := NormalizeAnalysis(decode(t, `{"job_keywords":["a","b"],"analysis_report":"X"}`))
	assert.Equal(t, []string{"a", "b"}, got.JobKeywords)
	assert.Equal(t, []string{}, got.ResumeKeywords)
	assert.Equal(t, "X", got.AnalysisReportMarkdown)
	assert.Equal(t, "", got.RefinedResumeMarkdown)
}

func TestNormalizeAnalysis_AllFields(t *testing.T) {
	got := NormalizeAnalysis(decode(t, `{
		"job_keywords": ["x"],
		"resume_keywords": ["y"],
		"analysis_report": "ok",
		"refined_resume": "# Jane"
	}`))
	assert.Equal(t, types.AnalysisResult{
		JobKeywords:            []string{"x"},
		ResumeKeywords:         []string{"y"},
		AnalysisReportMarkdown: "ok",
		RefinedResumeMarkdown:  "# Jane",
	}, got)
}

func TestNormalizeAnalysis_WrongTypesDefault(t *testing.T) {
	got := NormalizeAnalysis(decode(t, `{
		"job_keywords": {"jobTitle": "Engineer"},
		"resume_keywords": "go, rust",
		"analysis_report": 42,
		"refined_resume": null
	}`))
	assert.Equal(t, types.EmptyAnalysisResult(), got)
}

func TestNormalizeAnalysis_SkipsNonStringElements(t *testing.T) {
	got := NormalizeAnalysis(decode(t, `{"job_keywords":["go",1,null,{"k":"v"},"sql"]}`))
	assert.Equal(t, []string{"go", "sql"}, got.JobKeywords)
}

func TestNormalizeAnalysis_NonObjectRoots(t *testing.T) {
	for _, body := range []string{`[]`, `"report"`, `3.5`, `true`, `null`} {
		assert.Equal(t, types.EmptyAnalysisResult(), NormalizeAnalysis(decode(t, body)), body)
	}
	assert.Equal(t, types.EmptyAnalysisResult(), NormalizeAnalysis(nil))
}

func TestDecodeBody_Errors(t *testing.T) {
	_, err := DecodeBody([]byte("  "))
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "empty response body")

	_, err = DecodeBody([]byte("<html>502 Bad Gateway</html>"))
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "not valid JSON")
	assert.NotNil(t, parseErr.Unwrap())
}

func TestErrorMessage(t *testing.T) {
	msg, ok := ErrorMessage(decode(t, `{"error":"server busy"}`))
	assert.True(t, ok)
	assert.Equal(t, "server busy", msg)

	for _, body := range []string{`{}`, `{"error":""}`, `{"error":"   "}`, `{"error":500}`, `["error"]`} {
		_, ok := ErrorMessage(decode(t, body))
		assert.False(t, ok, body)
	}
}
