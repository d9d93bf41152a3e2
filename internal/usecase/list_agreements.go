package usecases

import (
	"context"
	"fmt"
	"strings"

	"agreements/internal/domain/entities"
	"agreements/internal/domain/repositories"
)

// ListAgreementsUseCase lists the stored object keys of a user
type ListAgreementsUseCase struct {
	storage repositories.BlobStorage
	bucket  string
}

// NewListAgreementsUseCase creates the list use case
func NewListAgreementsUseCase(storage repositories.BlobStorage, bucket string) *ListAgreementsUseCase {
	return &ListAgreementsUseCase{storage: storage, bucket: bucket}
}

// Execute returns every key under <disk>/<userID>/. A missing bucket means
// nothing was uploaded yet.
func (uc *ListAgreementsUseCase) Execute(ctx context.Context, disk, userID string) ([]string, error) {
	if disk == "" || userID == "" || strings.Contains(userID, "/") {
		return nil, fmt.Errorf("%w: disk and user id are required", entities.ErrInvalidRequest)
	}

	objects, err := uc.storage.List(ctx, uc.bucket, entities.UserPrefix(disk, userID))
	if err != nil {
		if isNotFound(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list agreements: %w", err)
	}

	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		keys = append(keys, obj.Key)
	}
	return keys, nil
}
