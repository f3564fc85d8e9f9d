// Package betting holds the per-cycle wager ledger.
package betting

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/arena/internal/game/combat"
)

var (
	// ErrBettingClosed is returned when a bet arrives outside the betting window.
	ErrBettingClosed = errors.New("betting closed")
	// ErrInvalidAmount is returned for a non-positive or non-finite amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidTeam is returned when the team is neither A nor B.
	ErrInvalidTeam = errors.New("invalid team")
)

// Bet is one accepted wager. Bets are immutable once recorded.
type Bet struct {
	ID       uuid.UUID   `json:"id"`
	Team     combat.Side `json:"team"`
	Amount   float64     `json:"amount"`
	Token    string      `json:"token"`
	PlacedAt time.Time   `json:"placed_at"`
}

// Outcome partitions the cycle's bets by the winning team.
type Outcome struct {
	Winner  combat.Side `json:"winner"`
	Winners []Bet       `json:"winners"`
	Losers  []Bet       `json:"losers"`
	PoolA   float64     `json:"pool_a"`
	PoolB   float64     `json:"pool_b"`
}

// Total returns the combined pool of the outcome.
func (o Outcome) Total() float64 { return o.PoolA + o.PoolB }

// Ledger records the bets of a single cycle.
//
// Invariant: Pool(A) + Pool(B) == TotalPool() == sum of accepted amounts.
type Ledger struct {
	mu    sync.Mutex
	open  bool
	bets  []Bet
	pools map[combat.Side]float64
	now   func() time.Time
}

// NewLedger returns an empty, closed ledger. now stamps accepted bets; nil uses time.Now.
func NewLedger(now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{pools: map[combat.Side]float64{}, now: now}
}

// Open starts accepting bets.
func (l *Ledger) Open() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.open = true
}

// Close stops accepting bets.
func (l *Ledger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.open = false
}

// IsOpen reports whether bets are currently accepted.
func (l *Ledger) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open
}

// Reset clears every bet and pool. The open flag is left untouched.
//
// Postcondition: TotalPool() == 0 and Bets() is empty.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bets = nil
	l.pools = map[combat.Side]float64{}
}

// Place validates and records a bet.
//
// Precondition: the ledger must be open; team must be A or B; amount must be finite and > 0.
// Postcondition: on success Pool(team) grows by amount; on error nothing changes.
func (l *Ledger) Place(team combat.Side, amount float64, token string) (Bet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.open {
		return Bet{}, ErrBettingClosed
	}
	if team != combat.SideA && team != combat.SideB {
		return Bet{}, ErrInvalidTeam
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return Bet{}, ErrInvalidAmount
	}
	b := Bet{
		ID:       uuid.New(),
		Team:     team,
		Amount:   amount,
		Token:    token,
		PlacedAt: l.now(),
	}
	l.bets = append(l.bets, b)
	l.pools[team] += amount
	return b, nil
}

// Pool returns the amount wagered on team.
func (l *Ledger) Pool(team combat.Side) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pools[team]
}

// TotalPool returns the sum of both pools.
func (l *Ledger) TotalPool() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pools[combat.SideA] + l.pools[combat.SideB]
}

// Bets returns a copy of the accepted bets in placement order.
func (l *Ledger) Bets() []Bet {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Bet, len(l.bets))
	copy(out, l.bets)
	return out
}

// Classify splits the bets into those backing winner and the rest.
// Payout amounts are not computed here.
func (l *Ledger) Classify(winner combat.Side) Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	o := Outcome{
		Winner: winner,
		PoolA:  l.pools[combat.SideA],
		PoolB:  l.pools[combat.SideB],
	}
	for _, b := range l.bets {
		if b.Team == winner {
			o.Winners = append(o.Winners, b)
		} else {
			o.Losers = append(o.Losers, b)
		}
	}
	return o
}
