// Package appinfo describes the running binary and builds its logger.
package appinfo

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"scholarhub/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Set with -ldflags "-X scholarhub/internal/utils/appinfo.version=1.2.3".
var (
	version = ""
	commit  = ""
)

// Version returns the application version. Order: ldflags, APP_VERSION,
// module build info, then "dev".
func Version() string {
	if version != "" {
		return version
	}
	if v := os.Getenv("APP_VERSION"); v != "" {
		return v
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// Commit returns the VCS revision the binary was built from, if known.
func Commit() string {
	if commit != "" {
		return commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				if len(s.Value) > 12 {
					return s.Value[:12]
				}
				return s.Value
			}
		}
	}
	return ""
}

// NewLogger builds the process logger from the logging configuration.
// Production defaults to JSON, everything else to the console encoder.
func NewLogger(cfg config.LoggingConfig, environment string) (*zap.Logger, error) {
	var zc zap.Config
	if environment == "production" || environment == "staging" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	switch cfg.Format {
	case "json":
		zc.Encoding = "json"
		zc.EncoderConfig = zap.NewProductionEncoderConfig()
	case "console":
		zc.Encoding = "console"
	}
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger.With(zap.String("version", Version())), nil
}
