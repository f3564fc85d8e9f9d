// Package main runs the battle arena server: the cycle engine with its HTTP,
// websocket and gRPC surfaces and the persona commentary.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file; empty = defaults and environment only")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before configuration")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("no env file loaded from %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, cfg.Arena.Name)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	app, cleanup, err := initializeApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("assembling arena server", zap.Error(err))
	}
	defer cleanup()

	logger.Info("arena server ready",
		zap.String("arena", cfg.Arena.Name),
		zap.String("http_addr", cfg.HTTP.Addr()),
		zap.String("grpc_addr", cfg.GRPC.Addr()),
		zap.String("roster", cfg.Roster.Source),
		zap.Bool("database", cfg.Database.Enabled),
		zap.Bool("commentary", cfg.Commentary.Enabled),
		zap.Duration("startup", time.Since(start)),
	)

	if err := app.Lifecycle().Run(ctx); err != nil {
		logger.Error("arena server exited", zap.Error(err))
		cleanup()
		logger.Sync()
		log.Fatalf("arena server: %v", err)
	}
}
