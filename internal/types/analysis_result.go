package types

// AnalysisResult is the fixed-shape match report. Slices are never nil after normalization.
type AnalysisResult struct {
	JobKeywords            []string `json:"job_keywords"`
	ResumeKeywords         []string `json:"resume_keywords"`
	AnalysisReportMarkdown string   `json:"analysis_report"`
	RefinedResumeMarkdown  string   `json:"refined_resume"`
}

// EmptyAnalysisResult returns a result with every field at its empty default.
func EmptyAnalysisResult() AnalysisResult {
	return AnalysisResult{
		JobKeywords:    []string{},
		ResumeKeywords: []string{},
	}
}
