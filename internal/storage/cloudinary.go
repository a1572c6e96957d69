package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"scholarhub/internal/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// CloudinaryStore keeps files on Cloudinary. Paths are the secure
// delivery URLs returned by the upload API.
type CloudinaryStore struct {
	client     *cloudinary.Cloudinary
	folder     string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewCloudinaryStore creates a Cloudinary-backed store.
func NewCloudinaryStore(cfg *config.StorageConfig, logger *zap.Logger) (*CloudinaryStore, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials are missing")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	timeout := cfg.UploadTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	logger.Info("Cloudinary storage initialized", zap.String("folder", cfg.CloudinaryUploadFolder))
	return &CloudinaryStore{
		client:     cld,
		folder:     cfg.CloudinaryUploadFolder,
		timeout:    timeout,
		maxRetries: cfg.MaxUploadRetries,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

func ptrBool(b bool) *bool {
	return &b
}

// Save uploads the file with retries.
func (c *CloudinaryStore) Save(ctx context.Context, r io.Reader, meta FileMeta) (string, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// Retries need to re-read the body.
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	folder := c.folder
	if meta.Folder != "" {
		folder = path.Join(folder, meta.Folder)
	}
	params := uploader.UploadParams{
		Folder:         folder,
		UseFilename:    ptrBool(true),
		UniqueFilename: ptrBool(true),
		ResourceType:   "auto",
	}

	var result *uploader.UploadResult
	op := func() error {
		var opErr error
		result, opErr = c.client.Upload.Upload(ctx, bytes.NewReader(data), params)
		if opErr == nil && result != nil && result.Error.Message != "" {
			opErr = fmt.Errorf("cloudinary: %s", result.Error.Message)
		}
		return opErr
	}
	if err := retry(ctx, op, c.maxRetries, c.timeout, c.logger, meta.Name); err != nil {
		c.logger.Error("All upload attempts failed", zap.String("filename", meta.Name), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	c.logger.Info("File uploaded",
		zap.String("filename", meta.Name),
		zap.Int64("size", meta.Size),
		zap.String("public_id", result.PublicID),
		zap.Duration("duration", time.Since(start)))
	return result.SecureURL, nil
}

// Open downloads the file from its delivery URL.
func (c *CloudinaryStore) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid stored path: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrObjectNotFound
	case resp.StatusCode >= 300:
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// Delete destroys the asset behind the delivery URL.
func (c *CloudinaryStore) Delete(ctx context.Context, p string) error {
	publicID, resourceType := PublicIDFromURL(p)
	if publicID == "" {
		return fmt.Errorf("%w: cannot derive public id from %q", ErrDeleteFailed, p)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.client.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		c.logger.Error("Failed to delete file", zap.String("public_id", publicID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	if res != nil && res.Result == "not found" {
		return ErrObjectNotFound
	}
	c.logger.Info("File deleted", zap.String("public_id", publicID))
	return nil
}

// Health reports whether credentials are configured. Cloudinary offers
// no cheap unauthenticated ping.
func (c *CloudinaryStore) Health(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("cloudinary client not initialized")
	}
	return nil
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// PublicIDFromURL extracts the public id and resource type from a
// Cloudinary delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v1712/docs/cv.pdf.
// Raw assets keep their extension in the public id.
func PublicIDFromURL(u string) (publicID, resourceType string) {
	i := strings.Index(u, "/upload/")
	if i < 0 {
		return "", ""
	}
	head := strings.Split(strings.TrimSuffix(u[:i], "/"), "/")
	resourceType = head[len(head)-1]

	parts := strings.Split(u[i+len("/upload/"):], "/")
	if len(parts) > 0 && versionSegment.MatchString(parts[0]) {
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return "", ""
	}
	publicID = strings.Join(parts, "/")
	if resourceType != "raw" {
		publicID = strings.TrimSuffix(publicID, path.Ext(publicID))
	}
	return publicID, resourceType
}
