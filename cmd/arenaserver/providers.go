package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/commentary"
	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/frontend/web"
	"github.com/cory-johannsen/arena/internal/frontend/ws"
	"github.com/cory-johannsen/arena/internal/game/clock"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/roster"
	"github.com/cory-johannsen/arena/internal/gameserver"
	"github.com/cory-johannsen/arena/internal/observability"
	"github.com/cory-johannsen/arena/internal/scripting"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
)

// Store is the cycle history backend and its health check.
type Store struct {
	History    arena.History
	Settlement arena.Settlement
	Health     web.HealthCheck
}

func provideClock() clock.Clock { return clock.Real() }

func provideSource(cfg config.Config) dice.Source {
	if cfg.Arena.Seed != 0 {
		return dice.NewSeededSource(cfg.Arena.Seed)
	}
	return dice.NewCryptoSource()
}

func provideRoller(src dice.Source, logger *zap.Logger) *dice.Roller {
	return dice.NewLoggedRoller(src, logger.Named("dice"))
}

func provideRoster(cfg config.Config, src dice.Source, logger *zap.Logger) roster.Provider {
	if cfg.Roster.Source == "static" {
		return roster.DefaultStatic()
	}
	return roster.NewPokeAPI(roster.PokeAPIConfig{
		BaseURL:        cfg.Roster.BaseURL,
		MaxSpeciesID:   cfg.Roster.MaxSpeciesID,
		MaxMoves:       cfg.Roster.MaxMoves,
		RequestTimeout: cfg.Roster.RequestTimeout,
	}, nil, src, logger.Named("roster"))
}

func provideStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Store, func(), error) {
	if !cfg.Database.Enabled {
		mem := arena.NewMemoryHistory(cfg.Arena.HistorySize)
		logger.Info("cycle history kept in memory", zap.Int("capacity", cfg.Arena.HistorySize))
		return &Store{History: mem, Settlement: mem}, func() {}, nil
	}
	pool, err := postgres.NewPool(ctx, cfg.Database, logger.Named("postgres"))
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	repo := postgres.NewCycleRepository(pool.DB())
	return &Store{History: repo, Settlement: repo, Health: pool.Ping}, pool.Close, nil
}

func provideBroadcaster() *arena.Broadcaster { return arena.NewBroadcaster() }

func engineConfig(cfg config.Config) arena.Config {
	a := cfg.Arena
	return arena.Config{
		Name:              a.Name,
		BettingWindow:     a.BettingWindow,
		CountdownTick:     a.CountdownTick,
		CombatTick:        a.CombatTick,
		PresentationDelay: a.PresentationDelay,
		RosterRetry:       a.RosterRetry,
		FetchTimeout:      a.FetchTimeout,
		HPScale:           a.HPScale,
		RosterSize:        a.RosterSize,
		Rules: combat.Rules{
			CritChance:        a.CritChance,
			LowHealthFraction: a.LowHealthFraction,
		},
	}
}

func provideEngine(cfg config.Config, provider roster.Provider, roller *dice.Roller, clk clock.Clock, b *arena.Broadcaster, store *Store, logger *zap.Logger) (*arena.Engine, error) {
	settlement := arena.MultiSettlement{arena.LogSettlement{Logger: logger.Named("settlement")}, store.Settlement}
	return arena.NewEngine(engineConfig(cfg), provider, roller, clk, b, settlement,
		observability.Component(logger, "engine"))
}

func provideHub(cfg config.Config, engine *arena.Engine, logger *zap.Logger) *ws.Hub {
	wsCfg := ws.DefaultConfig()
	wsCfg.AllowedOrigins = originList(cfg.HTTP.AllowedOrigin)
	hub := ws.NewHub(wsCfg, logger.Named("ws"))
	hub.Greeting = func() []ws.Envelope {
		return []ws.Envelope{{Type: "snapshot", Data: engine.Snapshot()}}
	}
	return hub
}

// provideCommentator returns nil when commentary is disabled.
func provideCommentator(cfg config.Config, roller *dice.Roller, clk clock.Clock, hub *ws.Hub, logger *zap.Logger) (*commentary.Commentator, func(), error) {
	cc := cfg.Commentary
	if !cc.Enabled {
		return nil, func() {}, nil
	}
	cast, err := commentary.LoadCast(cc.PersonasFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading personas: %w", err)
	}

	var opts []commentary.Option
	cleanup := func() {}
	if cc.ScriptsDir != "" {
		mgr := scripting.NewManager(roller, logger.Named("lua"))
		mgr.Announce = func(_ string, line string) {
			hub.PublishChat(commentary.Message{Arena: cfg.Arena.Name, Persona: "ARENA", Text: line, At: time.Now()})
		}
		if err := mgr.LoadGlobal(cc.ScriptsDir, cc.ScriptLimit); err != nil {
			return nil, nil, fmt.Errorf("loading commentary scripts: %w", err)
		}
		opts = append(opts, commentary.WithScripts(mgr))
		cleanup = mgr.Close
	}
	if cc.VoiceEnabled() {
		opts = append(opts, commentary.WithVoice(commentary.NewAnthropicVoice(cc.AnthropicModel, option.WithAPIKey(cc.AnthropicAPIKey))))
		logger.Info("commentary voice enabled", zap.String("model", cc.AnthropicModel))
	}

	ccfg := commentary.DefaultConfig(cfg.Arena.Name)
	ccfg.IdleInterval = cc.IdleInterval
	c, err := commentary.New(ccfg, cast, roller, clk, hub, observability.Component(logger, "commentary"), opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return c, cleanup, nil
}

func provideRouter(cfg config.Config, engine *arena.Engine, store *Store, hub *ws.Hub, commentator *commentary.Commentator, logger *zap.Logger) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	deps := web.Deps{
		Arena:   engine,
		History: store.History,
		Stream:  hub,
		Health:  store.Health,
	}
	if commentator != nil {
		deps.Chat = commentator
	}
	return web.NewRouter(deps, cfg.HTTP.AllowedOrigin, logger.Named("http"))
}

func provideGRPCServer(engine *arena.Engine, b *arena.Broadcaster, logger *zap.Logger) *grpc.Server {
	srv := grpc.NewServer()
	gameserver.RegisterArenaService(srv, gameserver.NewArenaServer(engine, b, logger.Named("grpc")))
	return srv
}

func provideHTTPServer(cfg config.Config, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func originList(origin string) []string {
	var out []string
	for _, o := range strings.Split(origin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
