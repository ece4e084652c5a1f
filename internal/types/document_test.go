//nolint:revive // types is a standard Go package name pattern
package types

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument_CopiesData(t *testing.T) {
	data := []byte("%PDF-1.4 resume")
	doc := NewDocument("resume.pdf", data)

	data[0] = 'X'

	got, err := io.ReadAll(doc.Reader())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 resume", string(got))
	assert.Equal(t, int64(15), doc.Size())
}

func TestNewDocument_ContentTypeFromExtension(t *testing.T) {
	assert.Equal(t, "application/pdf", NewDocument("cv.PDF", []byte("x")).ContentType())
	assert.Equal(t, "text/plain; charset=utf-8", NewDocument("cv.txt", []byte("hello")).ContentType())
	assert.Contains(t, NewDocument("cv.docx", []byte("PK")).ContentType(), "wordprocessingml")
}

func TestNewDocument_ContentTypeSniffed(t *testing.T) {
	doc := NewDocument("", []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n"))
	assert.Equal(t, "application/pdf", doc.ContentType())
	assert.Equal(t, "", doc.Name())
	assert.Equal(t, "", doc.Extension())
}

func TestNewDocument_NameIsBase(t *testing.T) {
	doc := NewDocument("/home/user/Resume.Docx", []byte("PK"))
	assert.Equal(t, "Resume.Docx", doc.Name())
	assert.Equal(t, ".docx", doc.Extension())
}

func TestPendingInput_View(t *testing.T) {
	v := PendingInput{JobDescription: "Go engineer"}.View()
	assert.Nil(t, v.Document)
	assert.Equal(t, "Go engineer", v.JobDescription)

	v = PendingInput{Document: NewDocument("a.txt", []byte("abc"))}.View()
	require.NotNil(t, v.Document)
	assert.Equal(t, "a.txt", v.Document.Name)
	assert.Equal(t, int64(3), v.Document.SizeBytes)
}
