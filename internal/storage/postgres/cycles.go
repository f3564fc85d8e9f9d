package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/game/betting"
	"github.com/cory-johannsen/arena/internal/game/combat"
)

// ErrCycleNotFound is returned when a cycle lookup yields no results.
var ErrCycleNotFound = arena.ErrCycleNotFound

// CycleRepository records settled cycles and their bets. It is both the
// engine's Settlement and the HTTP API's History.
type CycleRepository struct {
	db *pgxpool.Pool
}

// NewCycleRepository creates a CycleRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCycleRepository(db *pgxpool.Pool) *CycleRepository {
	return &CycleRepository{db: db}
}

// Settle stores the resolution and every classified bet in one transaction.
// Settling the same cycle twice is a no-op.
//
// Postcondition: either the cycle and all its bets are stored, or nothing is.
func (r *CycleRepository) Settle(ctx context.Context, res arena.Resolution) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO cycles (id, arena, number, started_at, ended_at, leader_a, leader_b, winner, turns, pool_a, pool_b)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 ON CONFLICT (id) DO NOTHING`,
			res.CycleID, res.Arena, res.Number, res.StartedAt, res.EndedAt,
			res.LeaderA, res.LeaderB, string(res.Winner), res.Turns,
			res.Outcome.PoolA, res.Outcome.PoolB,
		)
		if err != nil {
			return fmt.Errorf("inserting cycle: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		queue := func(b betting.Bet, won bool) {
			batch.Queue(
				`INSERT INTO cycle_bets (id, cycle_id, team, amount, token, placed_at, won)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				b.ID, res.CycleID, string(b.Team), b.Amount, b.Token, b.PlacedAt, won,
			)
		}
		for _, b := range res.Outcome.Winners {
			queue(b, true)
		}
		for _, b := range res.Outcome.Losers {
			queue(b, false)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting bets: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("settling cycle %s: %w", res.CycleID, err)
	}
	return nil
}

const cycleColumns = `id::text, arena, number, started_at, ended_at, leader_a, leader_b, winner, turns, pool_a, pool_b`

// Recent returns up to limit settled cycles, most recently ended first.
//
// Precondition: limit > 0.
func (r *CycleRepository) Recent(ctx context.Context, limit int) ([]arena.Resolution, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+cycleColumns+` FROM cycles ORDER BY ended_at DESC, number DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying cycles: %w", err)
	}
	defer rows.Close()

	var out []arena.Resolution
	index := map[string]int{}
	for rows.Next() {
		res, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		index[res.CycleID.String()] = len(out)
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cycles: %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(out))
	for _, res := range out {
		ids = append(ids, res.CycleID)
	}
	err = r.loadBets(ctx, `WHERE cycle_id = ANY($1)`, ids, func(cycleID string, b betting.Bet, won bool) {
		i, ok := index[cycleID]
		if !ok {
			return
		}
		addBet(&out[i].Outcome, b, won)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one settled cycle with its bets.
//
// Postcondition: Returns the Resolution or ErrCycleNotFound.
func (r *CycleRepository) Get(ctx context.Context, id uuid.UUID) (arena.Resolution, error) {
	row := r.db.QueryRow(ctx, `SELECT `+cycleColumns+` FROM cycles WHERE id = $1`, id)
	res, err := scanCycle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return arena.Resolution{}, ErrCycleNotFound
		}
		return arena.Resolution{}, err
	}
	err = r.loadBets(ctx, `WHERE cycle_id = $1`, id, func(_ string, b betting.Bet, won bool) {
		addBet(&res.Outcome, b, won)
	})
	if err != nil {
		return arena.Resolution{}, err
	}
	return res, nil
}

func (r *CycleRepository) loadBets(ctx context.Context, where string, arg any, fn func(cycleID string, b betting.Bet, won bool)) error {
	rows, err := r.db.Query(ctx,
		`SELECT id::text, cycle_id::text, team, amount, token, placed_at, won
		 FROM cycle_bets `+where+` ORDER BY placed_at, id`,
		arg,
	)
	if err != nil {
		return fmt.Errorf("querying bets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, cycleID, team string
			b                 betting.Bet
			won               bool
		)
		if err := rows.Scan(&id, &cycleID, &team, &b.Amount, &b.Token, &b.PlacedAt, &won); err != nil {
			return fmt.Errorf("scanning bet: %w", err)
		}
		if b.ID, err = uuid.Parse(id); err != nil {
			return fmt.Errorf("parsing bet id: %w", err)
		}
		b.Team = combat.Side(team)
		fn(cycleID, b, won)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating bets: %w", err)
	}
	return nil
}

func scanCycle(row pgx.Row) (arena.Resolution, error) {
	var (
		res       arena.Resolution
		id        string
		winner    string
		startedAt time.Time
		endedAt   time.Time
	)
	err := row.Scan(&id, &res.Arena, &res.Number, &startedAt, &endedAt,
		&res.LeaderA, &res.LeaderB, &winner, &res.Turns,
		&res.Outcome.PoolA, &res.Outcome.PoolB)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return res, err
		}
		return res, fmt.Errorf("scanning cycle: %w", err)
	}
	if res.CycleID, err = uuid.Parse(id); err != nil {
		return res, fmt.Errorf("parsing cycle id: %w", err)
	}
	res.StartedAt = startedAt.UTC()
	res.EndedAt = endedAt.UTC()
	res.Winner = combat.Side(winner)
	res.Outcome.Winner = res.Winner
	return res, nil
}

func addBet(o *betting.Outcome, b betting.Bet, won bool) {
	b.PlacedAt = b.PlacedAt.UTC()
	if won {
		o.Winners = append(o.Winners, b)
	} else {
		o.Losers = append(o.Losers, b)
	}
}

var (
	_ arena.Settlement = (*CycleRepository)(nil)
	_ arena.History    = (*CycleRepository)(nil)
)
