package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/abduss/filegate/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultObjectStoreTimeout = 5 * time.Second

// S3Store implements Store on top of a minio-go client.
type S3Store struct {
	client   *minio.Client
	bucket   string
	hasCreds bool
}

var _ Store = (*S3Store)(nil)

// NewS3Client builds an S3-compatible client from the storage configuration.
// The endpoint may be a bare host[:port] or a URL whose scheme picks TLS.
func NewS3Client(cfg config.StorageConfig) (*minio.Client, error) {
	endpoint, secure, err := parseEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	return client, nil
}

// NewS3Store wraps client for the given bucket. When hasCreds is false every
// call fails with ErrCredentialsMissing instead of reaching the network.
func NewS3Store(client *minio.Client, bucket string, hasCreds bool) *S3Store {
	return &S3Store{client: client, bucket: bucket, hasCreds: hasCreds}
}

// EnsureBucket ensures the target bucket exists, creating it if necessary.
func EnsureBucket(ctx context.Context, client *minio.Client, bucket, region string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultObjectStoreTimeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}

	if exists {
		return nil
	}

	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %q: %w", bucket, err)
	}

	return nil
}

func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if !s.hasCreds {
		return ErrCredentialsMissing
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return backendErr("put", key, err)
}

// List returns at most limit objects from a single listing pass. The listing
// is recursive so keys containing '/' come back as objects, not prefixes.
func (s *S3Store) List(ctx context.Context, limit int) ([]ObjectInfo, error) {
	if !s.hasCreds {
		return nil, ErrCredentialsMissing
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := make([]ObjectInfo, 0)
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true, MaxKeys: limit}) {
		if obj.Err != nil {
			return nil, backendErr("list", "", obj.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ContentType:  obj.ContentType,
		})
		if limit > 0 && len(objects) >= limit {
			break
		}
	}
	return objects, nil
}

// Delete removes key. S3 reports success for keys that do not exist.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if !s.hasCreds {
		return ErrCredentialsMissing
	}
	return backendErr("delete", key, s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}))
}

func (s *S3Store) SignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if !s.hasCreds {
		return "", ErrCredentialsMissing
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", backendErr("sign", key, err)
	}
	return u.String(), nil
}

func (s *S3Store) Ping(ctx context.Context) error {
	if !s.hasCreds {
		return ErrCredentialsMissing
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return backendErr("ping", "", err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}

func (s *S3Store) Close() error {
	return nil
}

func hasStaticCredentials(cfg config.StorageConfig) bool {
	return cfg.AccessKeyID != "" && cfg.SecretAccessKey != ""
}

func parseEndpoint(raw string, useSSL bool) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("s3 endpoint is empty")
	}
	if !strings.Contains(raw, "://") {
		return strings.TrimRight(raw, "/"), useSSL, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("parse s3 endpoint: %w", err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("s3 endpoint %q has no host", raw)
	}
	return u.Host, u.Scheme == "https", nil
}
