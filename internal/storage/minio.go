package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"scholarhub/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioStore keeps files in one S3-compatible bucket. Paths are object keys.
type MinioStore struct {
	client     *minio.Client
	bucket     string
	timeout    time.Duration
	maxRetries int
	logger     *zap.Logger
}

// NewMinioStore connects to the bucket, creating it when missing.
func NewMinioStore(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	s := &MinioStore{
		client:     client,
		bucket:     cfg.MinioBucket,
		timeout:    cfg.UploadTimeout,
		maxRetries: cfg.MaxUploadRetries,
		logger:     logger,
	}
	if s.timeout <= 0 {
		s.timeout = 60 * time.Second
	}

	exists, err := client.BucketExists(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
		logger.Info("Created storage bucket", zap.String("bucket", s.bucket))
	}
	return s, nil
}

// Save puts the object under a fresh key.
func (s *MinioStore) Save(ctx context.Context, r io.Reader, meta FileMeta) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	key := objectKey(meta.Folder, meta.Name)
	opts := minio.PutObjectOptions{
		ContentType:  meta.ContentType,
		UserMetadata: map[string]string{"original-name": meta.Name},
	}

	op := func() error {
		_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts)
		return err
	}
	if err := retry(ctx, op, s.maxRetries, s.timeout, s.logger, meta.Name); err != nil {
		s.logger.Error("All upload attempts failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	s.logger.Info("File uploaded", zap.String("key", key), zap.Int("size", len(data)))
	return key, nil
}

// Open streams the object.
func (s *MinioStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	return obj, nil
}

// Delete removes the object.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

// Health checks that the bucket is reachable.
func (s *MinioStore) Health(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("minio unreachable: %w", err)
	}
	if !ok {
		return fmt.Errorf("bucket %s missing", s.bucket)
	}
	return nil
}
