package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"agreements/internal/domain/entities"
)

// MemoryStorage keeps objects in process memory. Used by tests and local runs.
type MemoryStorage struct {
	mu      sync.RWMutex
	buckets map[string]map[string]entities.StoredObject
	now     func() time.Time
}

// NewMemoryStorage creates an empty store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		buckets: make(map[string]map[string]entities.StoredObject),
		now:     time.Now,
	}
}

// HeadBucket returns ErrBucketNotFound when bucket does not exist
func (s *MemoryStorage) HeadBucket(_ context.Context, bucket string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.buckets[bucket]; !ok {
		return entities.ErrBucketNotFound
	}
	return nil
}

// CreateBucket creates bucket, an existing bucket is left as is
func (s *MemoryStorage) CreateBucket(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string]entities.StoredObject)
	}
	return nil
}

// Put stores a copy of body and metadata under key
func (s *MemoryStorage) Put(ctx context.Context, bucket, key string, body []byte, contentType string, metadata map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	objects, ok := s.buckets[bucket]
	if !ok {
		return fmt.Errorf("%w: %s", entities.ErrBucketNotFound, bucket)
	}

	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	objects[key] = entities.StoredObject{
		Key:          key,
		Size:         int64(len(body)),
		ContentType:  contentType,
		LastModified: s.now().UTC(),
		Metadata:     meta,
		Body:         append([]byte(nil), body...),
	}
	return nil
}

// Get returns a copy of the object stored under key
func (s *MemoryStorage) Get(_ context.Context, bucket, key string) (*entities.StoredObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, ok := s.buckets[bucket]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrBucketNotFound, bucket)
	}
	obj, ok := objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", entities.ErrObjectNotFound, bucket, key)
	}
	obj.Body = append([]byte(nil), obj.Body...)
	return &obj, nil
}

// List returns the objects whose key starts with prefix, sorted by key and
// without bodies
func (s *MemoryStorage) List(_ context.Context, bucket, prefix string) ([]entities.StoredObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, ok := s.buckets[bucket]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrBucketNotFound, bucket)
	}

	var listed []entities.StoredObject
	for key, obj := range objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		obj.Body = nil
		listed = append(listed, obj)
	}
	sort.Slice(listed, func(i, j int) bool { return listed[i].Key < listed[j].Key })
	return listed, nil
}
