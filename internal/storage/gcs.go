package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSStore implements Store on a Google Cloud Storage bucket.
type GCSStore struct {
	client *gcs.Client
	bucket string

	// Signing identity; when empty the client derives it from its credentials.
	googleAccessID string
	signBytes      func([]byte) ([]byte, error)
}

var _ Store = (*GCSStore)(nil)

// NewGCSStore creates a GCS client for bucket. With an empty credentialsFile
// the client falls back to Application Default Credentials.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string, opts ...option.ClientOption) (*GCSStore, error) {
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return backendErr("put", key, err)
	}
	return backendErr("put", key, w.Close())
}

// List returns at most limit objects.
func (s *GCSStore) List(ctx context.Context, limit int) ([]ObjectInfo, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, nil)

	objects := make([]ObjectInfo, 0)
	for limit <= 0 || len(objects) < limit {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, backendErr("list", "", err)
		}
		objects = append(objects, ObjectInfo{
			Key:          attrs.Name,
			Size:         attrs.Size,
			LastModified: attrs.Updated,
			ContentType:  attrs.ContentType,
		})
	}
	return objects, nil
}

// Delete removes key; a missing object counts as deleted to match S3.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := ignoreNotExist(s.client.Bucket(s.bucket).Object(key).Delete(ctx))
	return backendErr("delete", key, err)
}

func (s *GCSStore) SignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	signed, err := s.client.Bucket(s.bucket).SignedURL(key, &gcs.SignedURLOptions{
		GoogleAccessID: s.googleAccessID,
		SignBytes:      s.signBytes,
		Method:         http.MethodGet,
		Expires:        time.Now().Add(ttl),
		Scheme:         gcs.SigningSchemeV4,
	})
	if err != nil {
		return "", backendErr("sign", key, err)
	}
	return signed, nil
}

func (s *GCSStore) Ping(ctx context.Context) error {
	_, err := s.client.Bucket(s.bucket).Attrs(ctx)
	return backendErr("ping", "", err)
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func ignoreNotExist(err error) error {
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}
