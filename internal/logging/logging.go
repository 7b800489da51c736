// Package logging builds the shared zap.Logger used across every stage.
// Loggers are constructed explicitly and passed down — nothing here is
// global state.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the root logger.
type Options struct {
	Level    string // debug, info, warn, error
	JSON     bool
	Filename string // if empty, logs to stderr
}

// New builds a *zap.Logger from Options. On a bad level string it falls
// back to info rather than erroring, since a bad log-level flag
// shouldn't stop a migration run from starting.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		_ = level.Set(opts.Level)
	}

	cfg := zap.NewProductionConfig()
	if !opts.JSON {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if opts.Filename != "" {
		cfg.OutputPaths = []string{opts.Filename}
		cfg.ErrorOutputPaths = []string{opts.Filename}
	}

	return cfg.Build()
}

// ForRun returns a child logger tagged with the run id, the convention
// every stage uses to correlate log lines with on-disk artifacts.
func ForRun(base *zap.Logger, runID string) *zap.Logger {
	return base.With(zap.String("run_id", runID))
}
