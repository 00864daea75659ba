// Package storage adapts object-storage backends to the small put/list/
// delete/sign surface the gateway needs. The S3 driver speaks to AWS S3 or
// any S3-compatible service through minio-go; the GCS driver uses the
// Google Cloud Storage client.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/abduss/filegate/internal/config"
)

// ErrCredentialsMissing signals that the backend has no credentials to sign
// or authorize requests with.
var ErrCredentialsMissing = errors.New("storage credentials not configured")

// ObjectInfo describes one object in the bucket.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Store is the surface every driver implements.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	List(ctx context.Context, limit int) ([]ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	SignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Ping(ctx context.Context) error
	Close() error
}

// BackendError wraps a failed backend call. Its message is the backend's own
// message so callers can surface it unchanged.
type BackendError struct {
	Op  string
	Key string
	Err error
}

func (e *BackendError) Error() string {
	return e.Err.Error()
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func backendErr(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Op: op, Key: key, Err: err}
}

// Open constructs the driver selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverS3:
		client, err := NewS3Client(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.EnsureBucket {
			if err := EnsureBucket(ctx, client, cfg.Bucket, cfg.Region); err != nil {
				return nil, err
			}
		}
		return NewS3Store(client, cfg.Bucket, hasStaticCredentials(cfg)), nil
	case config.DriverGCS:
		return NewGCSStore(ctx, cfg.Bucket, cfg.CredentialsFile)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Driver)
	}
}
