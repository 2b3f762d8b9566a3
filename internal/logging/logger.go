// Package logging provides zap logger helpers.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the process-wide logger. It defaults to a no-op logger so that
// library code can log before InitLogger runs (or under tests).
var L = zap.NewNop()

// New builds a zap.Logger. Development mode logs a colored console format,
// production logs JSON with stack traces on errors. Both emit the timestamp
// under the "ts" key so downstream tooling parses either format the same way.
func New(development bool) (*zap.Logger, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.DisableStacktrace = false
	}
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// InitLogger replaces the package logger. Called once from main.
func InitLogger(development bool) {
	logger, err := New(development)
	if err != nil {
		logger = zap.NewNop()
	}
	L = logger
}
