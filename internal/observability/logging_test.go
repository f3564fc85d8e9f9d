package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/arena/internal/config"
)

func TestNewLogger_JSON(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json"}, "main")
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNewLogger_Console(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{Level: "debug", Format: "console"}, "main")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNewLogger_Rejects(t *testing.T) {
	cases := map[string]struct {
		cfg   config.LoggingConfig
		arena string
	}{
		"level":  {config.LoggingConfig{Level: "trace", Format: "json"}, "main"},
		"format": {config.LoggingConfig{Level: "info", Format: "xml"}, "main"},
		"arena":  {config.LoggingConfig{Level: "info", Format: "json"}, ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewLogger(tc.cfg, tc.arena)
			assert.Error(t, err)
		})
	}
}

func TestNewLogger_AllLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := NewLogger(config.LoggingConfig{Level: level, Format: "json"}, "main")
		require.NoError(t, err, "level %q should be valid", level)
		assert.NotNil(t, logger)
	}
}

func TestBuildConfig_TagsArenaAndKeepsEveryTurn(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		zapCfg, err := buildConfig(config.LoggingConfig{Level: "info", Format: format}, "side-arena")
		require.NoError(t, err)
		assert.Nil(t, zapCfg.Sampling, format)
		assert.Equal(t, map[string]interface{}{"service": Service, "arena": "side-arena"}, zapCfg.InitialFields, format)
	}
}

func TestComponent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	root := zap.New(core).With(zap.String("arena", "main"))
	Component(root, "engine").Info("phase changed")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "engine", entries[0].LoggerName)
	assert.Equal(t, "main", entries[0].ContextMap()["arena"])
}
