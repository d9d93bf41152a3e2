// Package storage implements repositories.BlobStorage
package storage

import (
	"fmt"

	"agreements/internal/domain/entities"
	"agreements/internal/domain/repositories"
)

// New creates the blob store selected by the configuration
func New(cfg entities.StorageConfig) (repositories.BlobStorage, error) {
	switch cfg.Backend {
	case entities.StorageBackendMinIO:
		return NewMinIOStorage(MinIOOptions{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Region:    cfg.Region,
		})
	case entities.StorageBackendMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("%w: %q", entities.ErrInvalidStorageBackend, cfg.Backend)
	}
}
