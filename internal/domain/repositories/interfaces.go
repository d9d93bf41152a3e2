package repositories

import (
	"context"

	"agreements/internal/domain/entities"
)

// ImageOptimizer re-encodes raster images
type ImageOptimizer interface {
	Optimize(data []byte) entities.OptimizerOutcome
}

// StructuralOptimizer losslessly rewrites a PDF container
type StructuralOptimizer interface {
	Optimize(data []byte) entities.OptimizerOutcome
}

// AggressiveOptimizer rebuilds a PDF through an external tool at a quality preset
type AggressiveOptimizer interface {
	Optimize(ctx context.Context, data []byte, preset entities.Preset) entities.OptimizerOutcome
}

// Classifier decides whether a PDF looks like a scan
type Classifier interface {
	Classify(data []byte) entities.DocumentClassification
}

// ToolLocator finds the executable of the external rebuild tool.
// It returns entities.ErrToolUnavailable when nothing is found.
type ToolLocator interface {
	Locate() (string, error)
}

// CommandRunner runs an external program to completion
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// BlobStorage is an object store addressed by bucket and key
type BlobStorage interface {
	HeadBucket(ctx context.Context, bucket string) error
	CreateBucket(ctx context.Context, bucket string) error
	Put(ctx context.Context, bucket, key string, body []byte, contentType string, metadata map[string]string) error
	Get(ctx context.Context, bucket, key string) (*entities.StoredObject, error)
	List(ctx context.Context, bucket, prefix string) ([]entities.StoredObject, error)
}

// MetadataCodec serializes the agreement metadata record
type MetadataCodec interface {
	Marshal(m entities.AgreementMetadata) ([]byte, error)
	Unmarshal(data []byte) (entities.AgreementMetadata, error)
}

// FileRepository gives batch mode access to the local filesystem
type FileRepository interface {
	FileExists(path string) bool
	IsDirectory(path string) bool
	CreateDirectory(path string) error
	ListSupportedFiles(directory string) ([]string, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
}
