package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GO_ENV", "test")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/scholarhub?sslmode=disable")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("STORAGE_PROVIDER", "minio")
	t.Setenv("MINIO_ACCESS_KEY", "minio")
	t.Setenv("MINIO_SECRET_KEY", "minio123")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "./migrations", cfg.Database.MigrationsPath)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "postgres", cfg.Sequence.Backend)
	assert.Equal(t, "memory", cfg.Cache.Provider)
	assert.Equal(t, int64(10*1024*1024), cfg.Uploads.MaxFileSize)
	assert.Contains(t, cfg.Uploads.AllowedExtensions, ".pdf")
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SEQUENCE_BACKEND", "redis")
	t.Setenv("UPLOAD_ALLOWED_EXTENSIONS", ".pdf, .png")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Cache.Provider)
	assert.Equal(t, "redis", cfg.Sequence.Backend)
	assert.Equal(t, []string{".pdf", ".png"}, cfg.Uploads.AllowedExtensions)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
}

func TestLoad_ValidationFailures(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("DATABASE_URL", "")
		_, err := Load()
		assert.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("short jwt secret", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("JWT_SECRET", "short")
		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("redis sequence without redis cache", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("SEQUENCE_BACKEND", "redis")
		t.Setenv("CACHE_PROVIDER", "memory")
		_, err := Load()
		assert.ErrorContains(t, err, "SEQUENCE_BACKEND")
	})

	t.Run("unknown storage", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("STORAGE_PROVIDER", "ftp")
		_, err := Load()
		assert.ErrorContains(t, err, "STORAGE_PROVIDER")
	})
}
