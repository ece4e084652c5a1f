package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jonathan/ats-checker/internal/fetch"
)

// JobSource names where the job description comes from. At most one field may be set.
// An empty JobSource yields an empty description, which validation reports as missing.
type JobSource struct {
	Text       string
	File       string
	URL        string
	UseBrowser bool
}

func (s JobSource) count() int {
	n := 0
	for _, v := range []string{s.Text, s.File, s.URL} {
		if v != "" {
			n++
		}
	}
	return n
}

// LoadJobDescription resolves src to cleaned job description text.
// Direct text is passed through untouched so the user gets exactly what they typed.
func LoadJobDescription(ctx context.Context, src JobSource, opts *fetch.Options) (string, error) {
	if src.count() > 1 {
		return "", ErrConflictingJobSources
	}

	switch {
	case src.Text != "":
		return src.Text, nil

	case src.File != "":
		content, err := os.ReadFile(src.File)
		if err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("%w: %s", ErrFileNotFound, src.File)
			}
			return "", fmt.Errorf("failed to read job description: %w", err)
		}
		return CleanText(string(content)), nil

	case src.URL != "":
		text, platform, err := fetch.JobPageText(ctx, src.URL, src.UseBrowser, opts)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		logger := slog.Default()
		if opts != nil && opts.Logger != nil {
			logger = opts.Logger
		}
		logger.Info("ingestion.job_description.fetched",
			"url", src.URL,
			"platform", platform,
			"chars", len(text),
		)
		return CleanText(text), nil
	}

	return "", nil
}
