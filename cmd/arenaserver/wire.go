//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/config"
)

func initializeApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, func(), error) {
	wire.Build(
		provideClock,
		provideSource,
		provideRoller,
		provideRoster,
		provideStore,
		provideBroadcaster,
		provideEngine,
		provideHub,
		provideCommentator,
		provideRouter,
		provideGRPCServer,
		provideHTTPServer,
		newApp,
	)
	return nil, nil, nil
}
