package ingestion

import "errors"

var (
	// ErrConflictingJobSources is returned when more than one job description source is set.
	ErrConflictingJobSources = errors.New("use only one of --jd, --jd-file or --jd-url")
	// ErrFileNotFound is returned when a local input does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrInvalidS3URI is returned for object references that are not s3://bucket/key.
	ErrInvalidS3URI = errors.New("invalid S3 URI")
	// ErrFetchFailed is returned when a job posting page could not be retrieved.
	ErrFetchFailed = errors.New("job posting fetch failed")
)
