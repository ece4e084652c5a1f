package submission

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/jonathan/ats-checker/internal/types"
)

// Multipart field names expected by the analysis service.
const (
	FieldResume  = "resume"
	FieldJobText = "jd_text"
)

// defaultFileName is used for documents captured without a name.
const defaultFileName = "resume"

// Request is the payload of one submission attempt.
type Request struct {
	Document           *types.Document
	JobDescriptionText string
}

// Build turns validated input into a Request. The job text is passed through untouched.
// Calling Build with input that failed validation is a programming error.
func Build(input types.PendingInput) *Request {
	if input.Document == nil {
		panic("submission: Build called without a document")
	}
	return &Request{
		Document:           input.Document,
		JobDescriptionText: input.JobDescription,
	}
}

// Multipart encodes the request as multipart/form-data and returns the Content-Type
// header value with the encoded body.
func (r *Request) Multipart() (string, []byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := r.Document.Name()
	if name == "" {
		name = defaultFileName
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		FieldResume, escapeQuotes(name)))
	header.Set("Content-Type", r.Document.ContentType())

	part, err := w.CreatePart(header)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create resume part: %w", err)
	}
	if _, err := io.Copy(part, r.Document.Reader()); err != nil {
		return "", nil, fmt.Errorf("failed to write resume part: %w", err)
	}

	if err := w.WriteField(FieldJobText, r.JobDescriptionText); err != nil {
		return "", nil, fmt.Errorf("failed to write %s field: %w", FieldJobText, err)
	}
	if err := w.Close(); err != nil {
		return "", nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	return w.FormDataContentType(), buf.Bytes(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
