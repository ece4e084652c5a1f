// Package observability renders submission state for the terminal and builds the process logger.
package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/ats-checker/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// innerWidth is the usable text width inside a box
	innerWidth = boxWidth - 4
)

// Printer renders submission states as boxed terminal output.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, innerWidth)))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintState renders any submission state. Idle prints nothing.
func (p *Printer) PrintState(state types.SubmissionState) {
	switch s := state.(type) {
	case types.Invalid:
		p.PrintInvalid(s)
	case types.InFlight:
		p.PrintInFlight()
	case types.Succeeded:
		p.PrintResult(s.Result)
	case types.Failed:
		p.PrintFailure(s)
	}
}

// PrintInFlight shows the loading indicator.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintInFlight() {
	fmt.Fprintln(p.out, "Analyzing...")
}

// PrintInvalid lists why the input was not submitted.
func (p *Printer) PrintInvalid(s types.Invalid) {
	var sb strings.Builder
	for _, reason := range s.Reasons {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", reason))
	}
	p.printBox("CANNOT SUBMIT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFailure shows the user-facing failure message.
func (p *Printer) PrintFailure(s types.Failed) {
	content := wrap(s.Message, innerWidth)
	if s.Kind != "" {
		content += fmt.Sprintf("\n\n(%s)", s.Kind)
	}
	p.printBox("❌ ANALYSIS FAILED", content)
}

// PrintResult renders the keyword lists in boxes, then the report and refined resume verbatim.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintResult(result types.AnalysisResult) {
	matched, missing := compareKeywords(result.JobKeywords, result.ResumeKeywords)

	var summary strings.Builder
	summary.WriteString(fmt.Sprintf("Job keywords:     %d\n", len(result.JobKeywords)))
	summary.WriteString(fmt.Sprintf("Resume keywords:  %d\n", len(result.ResumeKeywords)))
	summary.WriteString(fmt.Sprintf("Matched:          %d", len(matched)))
	if len(result.JobKeywords) > 0 {
		summary.WriteString(fmt.Sprintf(" (%d%%)", len(matched)*100/len(result.JobKeywords)))
	}
	p.printBox("ATS MATCH SUMMARY", summary.String())

	p.printBox("JOB KEYWORDS", keywordList(result.JobKeywords))
	p.printBox("RESUME KEYWORDS", keywordList(result.ResumeKeywords))
	if len(missing) > 0 {
		p.printBox("MISSING FROM RESUME", keywordList(missing))
	}

	if result.AnalysisReportMarkdown != "" {
		fmt.Fprintf(p.out, "\n## Analysis Report\n\n%s\n", strings.TrimSpace(result.AnalysisReportMarkdown))
	}
	if result.RefinedResumeMarkdown != "" {
		fmt.Fprintf(p.out, "\n## Refined Resume\n\n%s\n", strings.TrimSpace(result.RefinedResumeMarkdown))
	}
}

// PrintJSON writes the state snapshot as indented JSON.
func (p *Printer) PrintJSON(state types.SubmissionState) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(types.Snapshot(state))
}

// compareKeywords splits job keywords into those present in the resume and those absent.
// Comparison ignores case and surrounding whitespace.
func compareKeywords(job, resume []string) (matched, missing []string) {
	have := make(map[string]struct{}, len(resume))
	for _, kw := range resume {
		have[strings.ToLower(strings.TrimSpace(kw))] = struct{}{}
	}
	for _, kw := range job {
		if _, ok := have[strings.ToLower(strings.TrimSpace(kw))]; ok {
			matched = append(matched, kw)
		} else {
			missing = append(missing, kw)
		}
	}
	return matched, missing
}

func keywordList(keywords []string) string {
	if len(keywords) == 0 {
		return "(none)"
	}
	return wrap(strings.Join(keywords, ", "), innerWidth)
}

// wrap breaks text on spaces so no line exceeds width runes. Longer words are left for printBox to truncate.
func wrap(text string, width int) string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			switch {
			case line == "":
				line = word
			case utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) <= width:
				line += " " + word
			default:
				lines = append(lines, line)
				line = word
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

func pad(s string) string {
	if n := utf8.RuneCountInString(s); n < innerWidth {
		return s + strings.Repeat(" ", innerWidth-n)
	}
	return s
}
