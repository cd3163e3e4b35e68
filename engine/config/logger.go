package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig configures the root zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error
	Development bool   `yaml:"development"` // console encoder with stack traces on warn
}

func parseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return l, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}

// NewLogger builds the root logger. Development mode uses zap's console encoder,
// production mode its JSON encoder; both honour the configured level.
//
// Reference: https://pkg.go.dev/go.uber.org/zap#Config
//
// Parameters:
//   - c: the log settings
//
// Returns:
//   - *zap.Logger: the configured logger
//   - error: error if the level is unknown or the logger cannot be built
func NewLogger(c LogConfig) (*zap.Logger, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
