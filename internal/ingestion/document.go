package ingestion

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonathan/ats-checker/internal/types"
	"github.com/jonathan/ats-checker/internal/validation"
)

// readLimit stops reading one byte past the upload limit; validation rejects anything that long.
const readLimit = validation.MaxDocumentBytes + 1

// ObjectSource fetches documents from remote object storage.
type ObjectSource interface {
	Fetch(ctx context.Context, uri string) (*types.Document, error)
}

// LoadDocument reads a resume from a local path, or from objects when ref is an s3:// URI.
// An empty ref returns nil so validation can report the missing document.
func LoadDocument(ctx context.Context, ref string, objects ObjectSource) (*types.Document, error) {
	if ref == "" {
		return nil, nil
	}
	if strings.HasPrefix(ref, s3Scheme) {
		if objects == nil {
			return nil, fmt.Errorf("no object storage configured for %s", ref)
		}
		return objects.Fetch(ctx, ref)
	}

	f, err := os.Open(ref)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, ref)
		}
		return nil, fmt.Errorf("failed to open resume: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, readLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to read resume: %w", err)
	}
	return types.NewDocument(ref, data), nil
}
