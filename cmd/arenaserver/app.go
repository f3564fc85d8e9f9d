package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/commentary"
	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/frontend/ws"
	"github.com/cory-johannsen/arena/internal/server"
)

// pumpBuffer is the subscription buffer of the websocket and commentary pumps.
const pumpBuffer = 1024

// App is the assembled arena server.
type App struct {
	cfg         config.Config
	logger      *zap.Logger
	engine      *arena.Engine
	events      *arena.Broadcaster
	hub         *ws.Hub
	commentator *commentary.Commentator
	httpServer  *http.Server
	grpcServer  *grpc.Server
}

func newApp(
	cfg config.Config,
	logger *zap.Logger,
	engine *arena.Engine,
	events *arena.Broadcaster,
	hub *ws.Hub,
	commentator *commentary.Commentator,
	httpServer *http.Server,
	grpcServer *grpc.Server,
) *App {
	return &App{
		cfg:         cfg,
		logger:      logger,
		engine:      engine,
		events:      events,
		hub:         hub,
		commentator: commentator,
		httpServer:  httpServer,
		grpcServer:  grpcServer,
	}
}

// Lifecycle registers every service. Subscriptions are taken before any
// service starts so the first cycle reaches every subscriber.
func (a *App) Lifecycle() *server.Lifecycle {
	lc := server.NewLifecycle(a.logger)

	hubEvents, cancelHub := a.events.Subscribe(pumpBuffer)
	lc.Add("websocket", server.Background(
		func() {
			go func() {
				for e := range hubEvents {
					a.hub.Publish(e)
				}
			}()
		},
		func() {
			cancelHub()
			a.hub.Close()
		},
	))

	if a.commentator != nil {
		chatEvents, cancelChat := a.events.Subscribe(pumpBuffer)
		ctx, stop := context.WithCancel(context.Background())
		done := make(chan struct{})
		lc.Add("commentary", server.Background(
			func() {
				go func() {
					defer close(done)
					a.commentator.Run(ctx, chatEvents)
				}()
			},
			func() {
				stop()
				cancelChat()
				<-done
			},
		))
	}

	lc.Add("engine", server.Background(a.engine.Start, a.engine.Stop))

	lc.Add("grpc", &server.FuncService{
		StartFn: func() error {
			lis, err := net.Listen("tcp", a.cfg.GRPC.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", a.cfg.GRPC.Addr(), err)
			}
			return a.grpcServer.Serve(lis)
		},
		StopFn: a.grpcServer.GracefulStop,
	})

	lc.Add("http", &server.FuncService{
		StartFn: func() error {
			if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving http on %s: %w", a.cfg.HTTP.Addr(), err)
			}
			return nil
		},
		StopFn: func() {
			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := a.httpServer.Shutdown(ctx); err != nil {
				a.logger.Warn("http shutdown", zap.Error(err))
			}
		},
	})
	return lc
}
