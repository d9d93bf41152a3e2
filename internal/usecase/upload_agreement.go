package usecases

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"agreements/internal/domain/entities"
	"agreements/internal/domain/repositories"
)

// Compressor runs the compression engine on one file
type Compressor interface {
	Compress(ctx context.Context, filename string, data []byte) *entities.CompressionResult
}

// UploadRequest is one file submitted for storage
type UploadRequest struct {
	FileName string
	Data     []byte
	// Optional, derived from the file name when empty
	ContentType string
	// Optional, a new UUID when empty
	UserID string
	// Optional, the configured disk when empty
	Disk string
}

// CompressionSummary reports what the engine did with the upload
type CompressionSummary struct {
	Algorithm     entities.Algorithm `json:"algorithm"`
	OriginalSize  uint64             `json:"original_size"`
	OptimizedSize uint64             `json:"optimized_size"`
	SavingRatio   float64            `json:"saving_ratio"`
}

// UploadReceipt tells the client where the upload was stored
type UploadReceipt struct {
	UserID      string             `json:"user_uuid"`
	Timestamp   string             `json:"timestamp"`
	ObjectKey   string             `json:"object_key"`
	MetadataKey string             `json:"metadata_key"`
	Compression CompressionSummary `json:"compression"`
}

// UploadAgreementUseCase compresses an uploaded file and stores it together
// with its metadata record
type UploadAgreementUseCase struct {
	engine  Compressor
	storage repositories.BlobStorage
	codec   repositories.MetadataCodec
	logger  repositories.Logger
	bucket  string
	disk    string

	now   func() time.Time
	newID func() string
}

// NewUploadAgreementUseCase creates the upload use case
func NewUploadAgreementUseCase(
	engine Compressor,
	storage repositories.BlobStorage,
	codec repositories.MetadataCodec,
	logger repositories.Logger,
	bucket, disk string,
) *UploadAgreementUseCase {
	return &UploadAgreementUseCase{
		engine:  engine,
		storage: storage,
		codec:   codec,
		logger:  logger,
		bucket:  bucket,
		disk:    disk,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// Validate rejects files the engine must never see
func (uc *UploadAgreementUseCase) Validate(fileName string, data []byte) error {
	if !entities.IsSupportedFile(fileName) {
		return fmt.Errorf("%w: %q", entities.ErrUnsupportedFileType, fileName)
	}
	if len(data) == 0 {
		return entities.ErrEmptyPayload
	}
	return nil
}

// Execute validates, compresses and stores one upload. Compression problems
// never fail the upload; only validation and storage errors are returned.
func (uc *UploadAgreementUseCase) Execute(ctx context.Context, req UploadRequest) (*UploadReceipt, error) {
	fileName := path.Base(strings.ReplaceAll(req.FileName, "\\", "/"))
	if err := uc.Validate(fileName, req.Data); err != nil {
		return nil, err
	}

	if err := EnsureBucket(ctx, uc.storage, uc.bucket, uc.logger); err != nil {
		return nil, err
	}

	userID := req.UserID
	if userID == "" {
		userID = uc.newID()
	}
	now := uc.now().UTC()
	loc := entities.AgreementLocation{
		Disk:      firstNonEmpty(req.Disk, uc.disk),
		UserID:    userID,
		Timestamp: now.Format(entities.TimestampLayout),
	}
	contentType := firstNonEmpty(req.ContentType, entities.ContentTypeFor(fileName))

	result := uc.engine.Compress(ctx, fileName, req.Data)

	objectKey := loc.FileKey(fileName)
	if err := uc.storage.Put(ctx, uc.bucket, objectKey, result.Payload, contentType, result.StorageMetadata()); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	record, err := uc.codec.Marshal(entities.AgreementMetadata{
		AgreementID: uc.newID(),
		UserID:      loc.UserID,
		Disk:        loc.Disk,
		FileName:    fileName,
		ContentType: contentType,
		FileSize:    int64(result.OptimizedSize),
		CreatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	metadataKey := loc.MetadataKey()
	if err := uc.storage.Put(ctx, uc.bucket, metadataKey, record, entities.ContentTypeOctet, result.RecordMetadata()); err != nil {
		return nil, fmt.Errorf("store metadata: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Success("stored %s (%s, %d -> %d bytes)", objectKey, result.Algorithm, result.OriginalSize, result.OptimizedSize)
	}

	return &UploadReceipt{
		UserID:      loc.UserID,
		Timestamp:   loc.Timestamp,
		ObjectKey:   objectKey,
		MetadataKey: metadataKey,
		Compression: CompressionSummary{
			Algorithm:     result.Algorithm,
			OriginalSize:  result.OriginalSize,
			OptimizedSize: result.OptimizedSize,
			SavingRatio:   result.SavingRatio,
		},
	}, nil
}

// EnsureBucket creates bucket when it does not exist yet
func EnsureBucket(ctx context.Context, storage repositories.BlobStorage, bucket string, logger repositories.Logger) error {
	err := storage.HeadBucket(ctx, bucket)
	if err == nil {
		return nil
	}
	if !errors.Is(err, entities.ErrBucketNotFound) {
		return fmt.Errorf("check bucket: %w", err)
	}

	if err := storage.CreateBucket(ctx, bucket); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	if logger != nil {
		logger.Info("created bucket %s", bucket)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
