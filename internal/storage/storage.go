// Package storage holds uploaded listing images in an object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"foodshare/internal/config"
)

// ErrObjectNotFound is returned by Get when no object has the key.
var ErrObjectNotFound = errors.New("object not found")

// Object is an opened stored object. Callers close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// ObjectStore stores blobs by key.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// New builds the object store selected by OBJECT_STORE.
func New(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	switch cfg.ObjectStore {
	case "", "memory":
		return NewMemoryStore(), nil
	case "minio":
		store, err := NewMinioStore(MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure bucket %s: %w", cfg.MinioBucket, err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported OBJECT_STORE %q", cfg.ObjectStore)
	}
}
