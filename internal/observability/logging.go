// Package observability builds the arena server's loggers. Every entry
// carries the service and arena names so several arenas can share one
// log sink, and turn-by-turn battle logs are never sampled away.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/arena/internal/config"
)

// Service is the value of the "service" field on every arena log entry.
const Service = "arenaserver"

// NewLogger creates the root logger for the arena named arenaName.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig, arenaName string) (*zap.Logger, error) {
	zapCfg, err := buildConfig(cfg, arenaName)
	if err != nil {
		return nil, err
	}
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building %s logger: %w", arenaName, err)
	}
	return logger, nil
}

func buildConfig(cfg config.LoggingConfig, arenaName string) (zap.Config, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return zap.Config{}, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}
	if arenaName == "" {
		return zap.Config{}, fmt.Errorf("arena name must not be empty")
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return zap.Config{}, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	// A fight emits a burst of identical "turn resolved" messages.
	zapCfg.Sampling = nil
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.InitialFields = map[string]interface{}{
		"service": Service,
		"arena":   arenaName,
	}
	return zapCfg, nil
}

// Component returns a child logger named for one arena subsystem.
func Component(logger *zap.Logger, component string) *zap.Logger {
	return logger.Named(component)
}
