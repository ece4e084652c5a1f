// Package types provides type definitions for the records shared by the ATS checker workflow.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Document is a resume blob captured from the user. It is read-only once constructed.
type Document struct {
	name        string
	contentType string
	data        []byte
}

// NewDocument copies data into a new Document and detects its content type.
func NewDocument(name string, data []byte) *Document {
	buf := make([]byte, len(data))
	copy(buf, data)

	return &Document{
		name:        filepath.Base(strings.TrimSpace(name)),
		contentType: detectContentType(name, buf),
		data:        buf,
	}
}

// Name returns the base file name, or "" when the blob was captured without one.
func (d *Document) Name() string {
	if d.name == "." || d.name == string(filepath.Separator) {
		return ""
	}
	return d.name
}

// Extension returns the lower-cased file extension including the dot.
func (d *Document) Extension() string {
	return strings.ToLower(filepath.Ext(d.Name()))
}

// ContentType returns the detected MIME type.
func (d *Document) ContentType() string {
	return d.contentType
}

// Size returns the blob length in bytes.
func (d *Document) Size() int64 {
	return int64(len(d.data))
}

// Reader returns a fresh reader over the blob.
func (d *Document) Reader() io.Reader {
	return bytes.NewReader(d.data)
}

// extensionTypes covers the formats the analysis service accepts. Detection by content
// alone reports DOCX as a generic zip for some producers, so the extension wins when known.
var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain; charset=utf-8",
}

func detectContentType(name string, data []byte) string {
	if ct, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return mimetype.Detect(data).String()
}

// DocumentInfo is the JSON view of a Document; the blob itself is never serialized.
type DocumentInfo struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// Info returns the serializable description of the document.
func (d *Document) Info() DocumentInfo {
	return DocumentInfo{
		Name:        d.Name(),
		ContentType: d.ContentType(),
		SizeBytes:   d.Size(),
	}
}

// PendingInput holds the two inputs awaiting submission.
type PendingInput struct {
	Document       *Document
	JobDescription string
}

// PendingInputView is the JSON view of PendingInput.
type PendingInputView struct {
	Document       *DocumentInfo `json:"document"`
	JobDescription string        `json:"job_description"`
}

// View returns the serializable snapshot of the input.
func (p PendingInput) View() PendingInputView {
	v := PendingInputView{JobDescription: p.JobDescription}
	if p.Document != nil {
		info := p.Document.Info()
		v.Document = &info
	}
	return v
}
