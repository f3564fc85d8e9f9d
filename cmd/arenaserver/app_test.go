package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Server.Mode = "test"
	cfg.Server.ShutdownTimeout = time.Second
	cfg.HTTP.Host, cfg.HTTP.Port = "127.0.0.1", 0
	cfg.GRPC.Host, cfg.GRPC.Port = "127.0.0.1", 0
	cfg.Roster.Source = "static"
	cfg.Arena.Seed = 7
	cfg.Commentary.PersonasFile = "../../content/personas.yaml"
	cfg.Commentary.ScriptsDir = "../../content/scripts"
	return cfg
}

func TestInitializeAppRunsAndStops(t *testing.T) {
	cfg := testConfig(t)
	app, cleanup, err := initializeApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer cleanup()
	require.NotNil(t, app.commentator)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Lifecycle().Run(ctx) }()

	require.Eventually(t, func() bool {
		s := app.engine.Snapshot()
		return s.Phase == arena.PhaseBetting && s.RosterReady
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestInitializeAppWithoutCommentary(t *testing.T) {
	cfg := testConfig(t)
	cfg.Commentary.Enabled = false
	app, cleanup, err := initializeApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer cleanup()
	assert.Nil(t, app.commentator)
}

func TestInitializeAppBadPersonas(t *testing.T) {
	cfg := testConfig(t)
	cfg.Commentary.PersonasFile = "does-not-exist.yaml"
	_, _, err := initializeApp(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestEngineConfigMapsArenaSection(t *testing.T) {
	cfg := testConfig(t)
	ec := engineConfig(cfg)
	assert.Equal(t, cfg.Arena.BettingWindow, ec.BettingWindow)
	assert.Equal(t, 0.1, ec.Rules.CritChance)
	assert.Equal(t, 0.3, ec.Rules.LowHealthFraction)
	assert.NoError(t, ec.Validate())
}

func TestOriginList(t *testing.T) {
	assert.Equal(t, []string{"*"}, originList("*"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, originList(" https://a.example, https://b.example "))
	assert.Empty(t, originList(""))
}
