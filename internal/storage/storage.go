package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jobtracker/apiserver/config"
)

// ObjectStorage defines the object operations resumes need.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// ObjectURL is the backend's own address for key.
	ObjectURL(key string) string
	Bucket() string
}

// Storage wraps a backend and decides the public URL of stored objects.
type Storage struct {
	backend       ObjectStorage
	publicBaseURL string
}

// NewStorage wraps backend. A non-empty publicBaseURL (a CDN or proxy)
// replaces the backend address in URL.
func NewStorage(backend ObjectStorage, publicBaseURL string) *Storage {
	return &Storage{
		backend:       backend,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// NewBackend builds the backend named by cfg.StorageBackend. It returns
// nil with no error when storage is disabled.
func NewBackend(ctx context.Context, cfg config.Config) (ObjectStorage, error) {
	switch cfg.StorageBackend {
	case "", "none":
		return nil, nil
	case "minio":
		return NewMinioClient(cfg.Minio)
	case "gcs":
		return NewGCSClient(ctx, cfg.GCS)
	case "s3":
		return NewS3Client(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return s.backend.Put(ctx, key, r, size, contentType)
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// URL returns the address clients use to fetch key.
func (s *Storage) URL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return s.backend.ObjectURL(key)
}

// KeyFromURL reverses URL for objects this storage produced. ok is false
// for foreign URLs, which are never deleted.
func (s *Storage) KeyFromURL(url string) (key string, ok bool) {
	prefix := s.URL("")
	if url == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key = strings.TrimPrefix(url, prefix)
	return key, key != ""
}

func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}
