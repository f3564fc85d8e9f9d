package arena

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/betting"
	"github.com/cory-johannsen/arena/internal/game/combat"
)

// Resolution is the settled result of one cycle.
type Resolution struct {
	CycleID   uuid.UUID       `json:"cycle_id"`
	Arena     string          `json:"arena"`
	Number    int             `json:"number"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   time.Time       `json:"ended_at"`
	LeaderA   string          `json:"leader_a"`
	LeaderB   string          `json:"leader_b"`
	Winner    combat.Side     `json:"winner"`
	Turns     int             `json:"turns"`
	Outcome   betting.Outcome `json:"outcome"`
}

// Settlement consumes the classified outcome of each cycle. Token transfer
// is the implementation's concern; the engine only classifies.
type Settlement interface {
	Settle(ctx context.Context, r Resolution) error
}

// SettlementFunc adapts a function to Settlement.
type SettlementFunc func(ctx context.Context, r Resolution) error

// Settle calls f(ctx, r).
func (f SettlementFunc) Settle(ctx context.Context, r Resolution) error { return f(ctx, r) }

// LogSettlement records every resolution to a logger and nothing else.
type LogSettlement struct {
	Logger *zap.Logger
}

// Settle logs r at info level.
func (s LogSettlement) Settle(_ context.Context, r Resolution) error {
	s.Logger.Info("cycle settled",
		zap.String("cycle_id", r.CycleID.String()),
		zap.String("winner", string(r.Winner)),
		zap.Int("turns", r.Turns),
		zap.Int("winning_bets", len(r.Outcome.Winners)),
		zap.Int("losing_bets", len(r.Outcome.Losers)),
		zap.Float64("pool_total", r.Outcome.Total()),
	)
	return nil
}

// MultiSettlement runs each settlement in order and returns the first error.
type MultiSettlement []Settlement

// Settle settles r with every member, stopping at the first failure.
func (m MultiSettlement) Settle(ctx context.Context, r Resolution) error {
	for _, s := range m {
		if err := s.Settle(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
