// Package logging builds the zap loggers shared by the store, the blob layer
// and the command line.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger at level ("debug", "info", "warn", "error"; anything
// else is info). Format "console" selects the human readable development
// encoder; any other value produces JSON on stdout. A non-empty service is
// attached to every entry as service_name alongside the host name.
func New(level, format, service string) (*zap.Logger, error) {
	lvl := ParseLevel(level)

	var cfg zap.Config
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return withIdentity(logger, service), nil
}

// ParseLevel maps a level name onto a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func withIdentity(logger *zap.Logger, service string) *zap.Logger {
	if service != "" {
		logger = logger.With(zap.String("service_name", service))
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		logger = logger.With(zap.String("hostname", host))
	}
	return logger
}
