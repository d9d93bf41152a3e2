package usecases

import (
	"context"
	"errors"
	"fmt"

	"agreements/internal/domain/entities"
	"agreements/internal/domain/repositories"
)

// DownloadAgreementUseCase reads a stored object back
type DownloadAgreementUseCase struct {
	storage repositories.BlobStorage
	codec   repositories.MetadataCodec
	bucket  string
}

// NewDownloadAgreementUseCase creates the download use case
func NewDownloadAgreementUseCase(storage repositories.BlobStorage, codec repositories.MetadataCodec, bucket string) *DownloadAgreementUseCase {
	return &DownloadAgreementUseCase{storage: storage, codec: codec, bucket: bucket}
}

// Execute returns the object stored under key
func (uc *DownloadAgreementUseCase) Execute(ctx context.Context, key string) (*entities.StoredObject, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", entities.ErrObjectNotFound)
	}

	obj, err := uc.storage.Get(ctx, uc.bucket, key)
	if err != nil {
		if errors.Is(err, entities.ErrBucketNotFound) {
			return nil, fmt.Errorf("%w: %s", entities.ErrObjectNotFound, key)
		}
		return nil, err
	}
	return obj, nil
}

// Metadata decodes the metadata record stored under key
func (uc *DownloadAgreementUseCase) Metadata(ctx context.Context, key string) (entities.AgreementMetadata, error) {
	obj, err := uc.Execute(ctx, key)
	if err != nil {
		return entities.AgreementMetadata{}, err
	}
	return uc.codec.Unmarshal(obj.Body)
}

func isNotFound(err error) bool {
	return errors.Is(err, entities.ErrBucketNotFound) || errors.Is(err, entities.ErrObjectNotFound)
}
