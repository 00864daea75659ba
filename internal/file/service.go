package file

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/abduss/filegate/internal/logger"
	"github.com/abduss/filegate/internal/metrics"
	"github.com/abduss/filegate/internal/storage"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

const (
	// LinkTTL is the validity of every signed download link.
	LinkTTL = time.Hour
	// ListLimit caps a listing at one backend page.
	ListLimit = 1000

	defaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	defaultContentType = "application/octet-stream"
)

type objectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	List(ctx context.Context, limit int) ([]storage.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	SignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Service passes upload, list and delete requests through to object storage.
type Service struct {
	store       objectStore
	log         *zap.Logger
	now         func() time.Time
	maxFileSize int64
}

// NewService constructs a file service. A non-positive maxFileSize selects
// the 100MB default.
func NewService(store objectStore, log *zap.Logger, maxFileSize int64) *Service {
	if maxFileSize <= 0 {
		maxFileSize = defaultMaxFileSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:       store,
		log:         log,
		now:         time.Now,
		maxFileSize: maxFileSize,
	}
}

// Upload validates the file, stores it under a timestamped key and returns a
// signed link. If signing fails the stored object is left in place.
func (s *Service) Upload(ctx context.Context, fileHeader *multipart.FileHeader) (UploadResult, error) {
	if fileHeader == nil {
		return UploadResult{}, ErrMissingFile
	}
	if fileHeader.Filename == "" {
		return UploadResult{}, ErrEmptyFilename
	}
	if !AllowedExtension(fileHeader.Filename) {
		return UploadResult{}, ErrExtensionNotAllowed
	}
	if fileHeader.Size > s.maxFileSize {
		return UploadResult{}, ErrFileTooLarge
	}

	file, err := fileHeader.Open()
	if err != nil {
		return UploadResult{}, fmt.Errorf("open upload file: %w", err)
	}
	defer file.Close()

	contentType, err := detectContentType(fileHeader, file)
	if err != nil {
		return UploadResult{}, err
	}
	key := StorageKey(fileHeader.Filename, s.now())
	log := s.requestLog(ctx)

	err = s.store.Put(ctx, key, file, fileHeader.Size, contentType)
	metrics.ObserveStorage("put", err)
	if err != nil {
		log.Error("store object", zap.String("key", key), zap.Error(err))
		return UploadResult{}, fmt.Errorf("store object: %w", err)
	}

	link, err := s.store.SignGetURL(ctx, key, LinkTTL)
	metrics.ObserveStorage("sign", err)
	if err != nil {
		log.Warn("object stored without download link", zap.String("key", key), zap.Error(err))
		return UploadResult{}, fmt.Errorf("sign object %s: %w", key, err)
	}

	log.Info("object uploaded",
		zap.String("key", key),
		zap.Int64("size", fileHeader.Size),
		zap.String("content_type", contentType),
	)

	return UploadResult{
		Key:         key,
		Size:        fileHeader.Size,
		ContentType: contentType,
		DownloadURL: link,
	}, nil
}

// List returns the first page of objects, each with a fresh signed link.
// An empty bucket yields an empty, non-nil slice.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	log := s.requestLog(ctx)
	objects, err := s.store.List(ctx, ListLimit)
	metrics.ObserveStorage("list", err)
	if err != nil {
		log.Error("list objects", zap.Error(err))
		return nil, fmt.Errorf("list objects: %w", err)
	}

	entries := make([]Entry, 0, len(objects))
	for _, obj := range objects {
		link, err := s.store.SignGetURL(ctx, obj.Key, LinkTTL)
		metrics.ObserveStorage("sign", err)
		if err != nil {
			log.Error("sign object", zap.String("key", obj.Key), zap.Error(err))
			return nil, fmt.Errorf("sign object %s: %w", obj.Key, err)
		}
		entries = append(entries, Entry{
			Filename:     obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified.UTC().Format(time.RFC3339),
			DownloadURL:  link,
		})
	}
	return entries, nil
}

// Delete removes the object stored under key. The key is used verbatim and
// deleting a missing key succeeds.
func (s *Service) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	log := s.requestLog(ctx)
	err := s.store.Delete(ctx, key)
	metrics.ObserveStorage("delete", err)
	if err != nil {
		log.Error("delete object", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("remove object: %w", err)
	}

	log.Info("object deleted", zap.String("key", key))
	return nil
}

// requestLog tags the service logger with the request's correlation ID.
func (s *Service) requestLog(ctx context.Context) *zap.Logger {
	if id := logger.CorrelationID(ctx); id != "" {
		return s.log.With(zap.String("correlation_id", id))
	}
	return s.log
}

// detectContentType prefers the declared part type and sniffs the payload
// when the client sent none or the generic octet-stream.
func detectContentType(fileHeader *multipart.FileHeader, file multipart.File) (string, error) {
	declared := strings.TrimSpace(fileHeader.Header.Get("Content-Type"))
	if declared != "" && declared != defaultContentType {
		return declared, nil
	}

	mtype, err := mimetype.DetectReader(file)
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("rewind upload file: %w", seekErr)
	}
	if err != nil {
		return defaultContentType, nil
	}
	return mtype.String(), nil
}
