package entities

import "errors"

// Optimizer outcome reasons. None of these escape the compression engine;
// they travel in OptimizerOutcome.Reason and end up in logs.
var (
	ErrDecode          = errors.New("malformed input")
	ErrToolUnavailable = errors.New("rebuild tool not found")
	ErrToolExecution   = errors.New("rebuild tool failed")
	ErrSignedDocument  = errors.New("document is digitally signed")
	ErrBelowThreshold  = errors.New("input below size threshold")
	ErrNoImprovement   = errors.New("optimized output is not smaller")
	ErrLicenseMissing  = errors.New("unipdf license key is not configured")
)

// Domain errors
var (
	ErrUnsupportedFileType   = errors.New("only pdf, jpg and jpeg files are supported")
	ErrEmptyPayload          = errors.New("empty file cannot be uploaded")
	ErrObjectNotFound        = errors.New("object not found")
	ErrBucketNotFound        = errors.New("bucket not found")
	ErrInvalidJPEGQuality    = errors.New("jpeg quality must be between 1 and 100")
	ErrInvalidThreshold      = errors.New("size thresholds must not be negative")
	ErrInvalidStructuralMode = errors.New("structural backend must be pdfcpu or unipdf")
	ErrInvalidStorageBackend = errors.New("storage backend must be minio or memory")
	ErrInvalidBucket         = errors.New("bucket name must not be empty")
	ErrInvalidUploadLimit    = errors.New("max upload size must be positive")
	ErrInvalidWorkers        = errors.New("parallel workers must be positive")
	ErrFileNotFound          = errors.New("file not found")
	ErrNoFilesFound          = errors.New("no supported files found")
	ErrInvalidRequest        = errors.New("invalid request")
)
