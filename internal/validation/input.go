// Package validation gates submissions by checking the pending resume and job description.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/ats-checker/internal/types"
)

// Limits mirrored from the analysis service so oversized inputs fail before upload.
const (
	MaxDocumentBytes        = 2 << 20
	MaxJobDescriptionLength = 50000
)

// Reasons reported by Validate.
const (
	ReasonMissingDocument       = "missing document"
	ReasonMissingJobDescription = "missing job description"
	ReasonUnsupportedDocument   = "unsupported document type (use PDF, DOCX, or TXT)"
	ReasonDocumentTooLarge      = "document exceeds the 2 MB limit"
	ReasonJobDescriptionTooLong = "job description is too long"
)

// SupportedExtensions lists the document formats the analysis service can parse.
var SupportedExtensions = []string{".pdf", ".docx", ".txt"}

// Outcome is the result of Validate. An Outcome with no reasons is valid.
type Outcome struct {
	Reasons []string
}

// Valid reports whether no rule was violated.
func (o Outcome) Valid() bool {
	return len(o.Reasons) == 0
}

// Err returns nil for a valid outcome and an *Error listing the reasons otherwise.
func (o Outcome) Err() error {
	if o.Valid() {
		return nil
	}
	return &Error{Message: strings.Join(o.Reasons, "; ")}
}

// Validate checks every rule in order and collects all violations.
func Validate(input types.PendingInput) Outcome {
	var reasons []string

	if input.Document == nil {
		reasons = append(reasons, ReasonMissingDocument)
	}
	if strings.TrimSpace(input.JobDescription) == "" {
		reasons = append(reasons, ReasonMissingJobDescription)
	}

	if doc := input.Document; doc != nil {
		if doc.Name() != "" && !isSupportedExtension(doc.Extension()) {
			reasons = append(reasons, ReasonUnsupportedDocument)
		}
		if doc.Size() > MaxDocumentBytes {
			reasons = append(reasons, ReasonDocumentTooLarge)
		}
	}
	if utf8.RuneCountInString(input.JobDescription) > MaxJobDescriptionLength {
		reasons = append(reasons, ReasonJobDescriptionTooLong)
	}

	return Outcome{Reasons: reasons}
}

func isSupportedExtension(ext string) bool {
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// Error represents a rejected submission.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}
