// Package utils provides logging setup shared by the specialist-aid commands.
package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a zap logger writing to stderr. When debug is true, uses development
// config (human-readable, debug level); otherwise uses production config (JSON, info
// level). Note text is never logged; callers log counts and identifiers only.
func NewLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// NewLoggerAt is NewLogger with an explicit minimum level, e.g. "warn" for commands whose
// output is machine-read.
func NewLoggerAt(debug bool, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger, err := NewLogger(debug)
	if err != nil {
		return nil, err
	}
	return logger.WithOptions(zap.IncreaseLevel(lvl)), nil
}
