// Package storage keeps uploaded document bytes outside the database.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"scholarhub/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

var (
	ErrObjectNotFound = errors.New("stored object not found")
	ErrUploadFailed   = errors.New("failed to upload file")
	ErrDeleteFailed   = errors.New("failed to delete file")
)

// FileMeta describes an object about to be stored.
type FileMeta struct {
	Name        string
	Size        int64
	ContentType string
	Folder      string
}

// Store saves, opens and removes stored files. The path returned by Save
// is opaque and is what Open and Delete expect.
type Store interface {
	Save(ctx context.Context, r io.Reader, meta FileMeta) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
	Health(ctx context.Context) error
}

// New builds the store selected by cfg.Provider.
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Provider {
	case "cloudinary":
		return NewCloudinaryStore(cfg, logger)
	case "minio":
		return NewMinioStore(ctx, cfg, logger)
	case "memory":
		logger.Warn("Using in-memory document storage; files are lost on restart")
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
}

// objectKey builds a collision-free key under folder that keeps the
// original extension.
func objectKey(folder, name string) string {
	ext := strings.ToLower(path.Ext(name))
	return path.Join(folder, time.Now().UTC().Format("2006/01"), uuid.Must(uuid.NewV4()).String()+ext)
}

// retry runs op with exponential backoff, giving up after maxRetries
// retries or once ctx is done.
func retry(ctx context.Context, op func() error, maxRetries int, timeout time.Duration, logger *zap.Logger, name string) error {
	b := backoff.NewExponentialBackOff()
	if timeout > 0 {
		b.MaxElapsedTime = timeout / 2
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return backoff.RetryNotify(
		op,
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx),
		func(err error, d time.Duration) {
			logger.Warn("Storage attempt failed",
				zap.String("object", name),
				zap.Error(err),
				zap.Duration("backoff", d))
		},
	)
}
