// Package gameserver exposes the arena over gRPC as arena.v1.Arena.
package gameserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/game/betting"
	"github.com/cory-johannsen/arena/internal/game/combat"
)

// watchBuffer is the per-stream event buffer.
const watchBuffer = 128

// Arena is the engine surface the service needs.
type Arena interface {
	Snapshot() arena.Snapshot
	PlaceBet(team combat.Side, amount float64, token string) (betting.Bet, error)
}

// Events provides subscriptions to the engine's event stream.
type Events interface {
	Subscribe(buffer int) (<-chan arena.Event, func())
}

// ArenaServer implements ArenaService on top of an engine.
type ArenaServer struct {
	arena  Arena
	events Events
	logger *zap.Logger
}

// NewArenaServer creates an ArenaServer.
//
// Precondition: all arguments must be non-nil.
func NewArenaServer(a Arena, events Events, logger *zap.Logger) *ArenaServer {
	return &ArenaServer{arena: a, events: events, logger: logger}
}

// PlaceBet expects {"team": "A"|"B", "amount": number, "token": string}.
func (s *ArenaServer) PlaceBet(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	team := combat.Side(strings.ToUpper(strings.TrimSpace(fields["team"].GetStringValue())))
	amount := fields["amount"].GetNumberValue()
	token := fields["token"].GetStringValue()

	bet, err := s.arena.PlaceBet(team, amount, token)
	if err != nil {
		return nil, betError(err)
	}
	return toStruct(bet)
}

// Snapshot returns the live cycle state.
func (s *ArenaServer) Snapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(s.arena.Snapshot())
}

// Watch streams engine events until the client goes away.
func (s *ArenaServer) Watch(_ *emptypb.Empty, stream EventStream) error {
	events, cancel := s.events.Subscribe(watchBuffer)
	defer cancel()
	ctx := stream.Context()
	s.logger.Debug("watch started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return status.Error(codes.Unavailable, "event stream closed")
			}
			msg, err := toStruct(e)
			if err != nil {
				s.logger.Error("encoding event", zap.String("type", string(e.Kind)), zap.Error(err))
				continue
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

func betError(err error) error {
	switch {
	case errors.Is(err, betting.ErrBettingClosed):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, betting.ErrInvalidAmount), errors.Is(err, betting.ErrInvalidTeam):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// toStruct converts any JSON-encodable value into a protobuf Struct.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encoding: %v", err))
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encoding: %v", err))
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encoding: %v", err))
	}
	return s, nil
}
