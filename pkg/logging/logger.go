package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger construction.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // "json" or "console"
}

// New builds a zap logger from cfg.
// Console format uses zap's development encoder, json uses the production one.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var logConfig zap.Config
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "console":
		logConfig = zap.NewDevelopmentConfig()
	case "json":
		logConfig = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q (must be json or console)", cfg.Format)
	}
	logConfig.Level = zap.NewAtomicLevelAt(level)

	return logConfig.Build()
}
