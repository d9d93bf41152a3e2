package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"agreements/internal/domain/entities"
)

// MinIOStorage stores objects in any S3-compatible service through minio-go
type MinIOStorage struct {
	client *minio.Client
	region string
}

// MinIOOptions holds the connection settings
type MinIOOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// NewMinIOStorage creates a client. No request is made until the first call.
func NewMinIOStorage(opts MinIOOptions) (*MinIOStorage, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOStorage{client: client, region: opts.Region}, nil
}

// HeadBucket returns entities.ErrBucketNotFound when the bucket does not exist
func (s *MinIOStorage) HeadBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", bucket, err)
	}
	if !exists {
		return entities.ErrBucketNotFound
	}
	return nil
}

// CreateBucket creates the bucket. A bucket that already exists is not an error.
func (s *MinIOStorage) CreateBucket(ctx context.Context, bucket string) error {
	err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region})
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
		return nil
	}
	return fmt.Errorf("create bucket %s: %w", bucket, err)
}

// Put uploads body under key with the given user metadata
func (s *MinIOStorage) Put(ctx context.Context, bucket, key string, body []byte, contentType string, metadata map[string]string) error {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Get downloads an object with its metadata
func (s *MinIOStorage) Get(ctx context.Context, bucket, key string) (*entities.StoredObject, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translate(err, bucket, key)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, s.translate(err, bucket, key)
	}
	body, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.translate(err, bucket, key)
	}

	return &entities.StoredObject{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
		Metadata:     map[string]string(info.UserMetadata),
		Body:         body,
	}, nil
}

// List returns the objects under prefix, without bodies
func (s *MinIOStorage) List(ctx context.Context, bucket, prefix string) ([]entities.StoredObject, error) {
	var objects []entities.StoredObject
	for info := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, s.translate(info.Err, bucket, prefix)
		}
		objects = append(objects, entities.StoredObject{
			Key:          info.Key,
			Size:         info.Size,
			ContentType:  info.ContentType,
			LastModified: info.LastModified,
		})
	}
	return objects, nil
}

func (s *MinIOStorage) translate(err error, bucket, key string) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchBucket":
		return fmt.Errorf("%w: %s", entities.ErrBucketNotFound, bucket)
	case resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s/%s", entities.ErrObjectNotFound, bucket, key)
	}
	return fmt.Errorf("%s/%s: %w", bucket, key, err)
}
