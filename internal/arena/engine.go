// Package arena runs the battle cycle: roster, betting window, combat and
// resolution, repeated forever.
package arena

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/betting"
	"github.com/cory-johannsen/arena/internal/game/clock"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/roster"
)

// Phase is the lifecycle state of the live cycle.
type Phase string

const (
	PhaseWaiting  Phase = "WAITING"
	PhaseBetting  Phase = "BETTING"
	PhaseBattling Phase = "BATTLING"
	PhaseEnded    Phase = "ENDED"
)

// settleTimeout bounds one Settlement call.
const settleTimeout = 30 * time.Second

// Config holds the engine's timings and rules.
type Config struct {
	// Name identifies the arena in events and logs.
	Name string
	// BettingWindow is the countdown length; it is counted down in CountdownTick steps.
	BettingWindow     time.Duration
	CountdownTick     time.Duration
	CombatTick        time.Duration
	PresentationDelay time.Duration
	RosterRetry       time.Duration
	// FetchTimeout bounds one roster fetch attempt.
	FetchTimeout time.Duration
	HPScale      int
	// RosterSize is the number of combatants fetched per cycle, split evenly between the teams.
	RosterSize int
	Rules      combat.Rules
}

// DefaultConfig returns the standard arena timings: a 120s window, 1s
// countdown, 2.5s combat ticks, a 10s presentation delay and 2s roster retry.
func DefaultConfig() Config {
	return Config{
		Name:              "main",
		BettingWindow:     120 * time.Second,
		CountdownTick:     time.Second,
		CombatTick:        2500 * time.Millisecond,
		PresentationDelay: 10 * time.Second,
		RosterRetry:       2 * time.Second,
		FetchTimeout:      15 * time.Second,
		HPScale:           3,
		RosterSize:        4,
		Rules:             combat.DefaultRules(),
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.CountdownTick <= 0 {
		errs = append(errs, errors.New("countdown tick must be > 0"))
	} else if c.BettingWindow < c.CountdownTick {
		errs = append(errs, errors.New("betting window must be at least one countdown tick"))
	}
	if c.CombatTick <= 0 {
		errs = append(errs, errors.New("combat tick must be > 0"))
	}
	if c.PresentationDelay < 0 {
		errs = append(errs, errors.New("presentation delay must be >= 0"))
	}
	if c.RosterRetry <= 0 {
		errs = append(errs, errors.New("roster retry must be > 0"))
	}
	if c.HPScale < 1 {
		errs = append(errs, errors.New("hp scale must be >= 1"))
	}
	if c.RosterSize < 2 || c.RosterSize%2 != 0 {
		errs = append(errs, fmt.Errorf("roster size must be a positive even number, got %d", c.RosterSize))
	}
	if c.Rules.CritChance < 0 || c.Rules.CritChance > 1 {
		errs = append(errs, errors.New("crit chance must be in [0, 1]"))
	}
	return errors.Join(errs...)
}

// Cycle is one roster → betting → combat → resolution pass.
type Cycle struct {
	ID        uuid.UUID
	Number    int
	StartedAt time.Time
	TeamA     *combat.Team
	TeamB     *combat.Team
}

// Engine is the owned state machine for one arena.
//
// All mutations happen under mu; timer callbacks, roster completions and
// bets are therefore applied one at a time.
type Engine struct {
	cfg        Config
	reset      int
	provider   roster.Provider
	roller     combat.Roller
	clock      clock.Clock
	sink       Sink
	settlement Settlement
	logger     *zap.Logger

	mu              sync.Mutex
	running         bool
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	phase           Phase
	countdown       int
	cycles          int
	cycle           *Cycle
	ledger          *betting.Ledger
	fight           *combat.Fight
	countdownTicker *clock.Ticker
	countdownGen    uint64
	combatTicker    *clock.Ticker
	pending         clock.Timer
}

// NewEngine builds an idle engine in phase WAITING.
//
// Precondition: every dependency must be non-nil; cfg must validate.
// Postcondition: Returns a stopped engine, or the validation error.
func NewEngine(cfg Config, provider roster.Provider, roller combat.Roller, clk clock.Clock, sink Sink, settlement Settlement, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("arena config: %w", err)
	}
	if provider == nil || roller == nil || clk == nil || sink == nil || settlement == nil || logger == nil {
		return nil, errors.New("arena: all dependencies are required")
	}
	e := &Engine{
		cfg:        cfg,
		reset:      int(cfg.BettingWindow / cfg.CountdownTick),
		provider:   provider,
		roller:     roller,
		clock:      clk,
		sink:       sink,
		settlement: settlement,
		logger:     logger.With(zap.String("arena", cfg.Name)),
		phase:      PhaseWaiting,
		ledger:     betting.NewLedger(clk.Now),
	}
	e.countdown = e.reset
	return e, nil
}

// Name returns the arena name.
func (e *Engine) Name() string { return e.cfg.Name }

// Start opens the first cycle and starts the countdown.
//
// Postcondition: phase is BETTING; calling Start on a running engine is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.logger.Info("arena started",
		zap.Duration("betting_window", e.cfg.BettingWindow),
		zap.Duration("combat_tick", e.cfg.CombatTick),
	)
	e.beginCycleLocked()
}

// Stop halts every timer, cancels in-flight roster fetches and waits for
// pending settlements.
//
// Postcondition: no callback mutates the engine after Stop returns.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	if e.countdownTicker != nil {
		e.countdownTicker.Stop()
	}
	if e.combatTicker != nil {
		e.combatTicker.Stop()
	}
	if e.pending != nil {
		e.pending.Stop()
	}
	e.cancel()
	e.mu.Unlock()
	e.wg.Wait()
	e.logger.Info("arena stopped")
}

// PlaceBet records a wager on team while the cycle is BETTING.
//
// Postcondition: on success a log line, bet_placed and pool_changed are
// emitted; on error (ErrBettingClosed, ErrInvalidTeam, ErrInvalidAmount)
// nothing changes.
func (e *Engine) PlaceBet(team combat.Side, amount float64, token string) (betting.Bet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	bet, err := e.ledger.Place(team, amount, token)
	if err != nil {
		e.logger.Debug("bet rejected",
			zap.String("team", string(team)),
			zap.Float64("amount", amount),
			zap.Error(err),
		)
		return betting.Bet{}, err
	}
	e.logger.Info("bet accepted",
		zap.String("bet_id", bet.ID.String()),
		zap.String("team", string(bet.Team)),
		zap.Float64("amount", bet.Amount),
		zap.String("token", bet.Token),
	)
	e.emitLineLocked(fmt.Sprintf("New Bet: %s %s on Team %s", strconv.FormatFloat(amount, 'f', -1, 64), token, team), nil)
	ev := e.eventLocked(EventBetPlaced)
	ev.Team = bet.Team
	ev.Bet = &bet
	e.sink.Publish(ev)
	e.emitPoolsLocked()
	return bet, nil
}

func (e *Engine) beginCycleLocked() {
	e.cycles++
	e.cycle = &Cycle{ID: uuid.New(), Number: e.cycles, StartedAt: e.clock.Now()}
	e.fight = nil
	e.armCountdownLocked()
	e.ledger.Reset()
	e.ledger.Open()
	e.setPhaseLocked(PhaseBetting)
	e.emitPoolsLocked()
	e.emitLineLocked("New Battle Cycle Started! Place your bets!", nil)
	e.fetchLocked(e.cycle.ID)
}

// armCountdownLocked restarts the countdown at the full window on a fresh
// ticker so every cycle gets exactly reset ticks of betting.
func (e *Engine) armCountdownLocked() {
	if e.countdownTicker != nil {
		e.countdownTicker.Stop()
	}
	e.countdownGen++
	gen := e.countdownGen
	e.countdown = e.reset
	e.countdownTicker = clock.Every(e.clock, e.cfg.CountdownTick, func() { e.onCountdown(gen) })
}

func (e *Engine) fetchLocked(id uuid.UUID) {
	ctx := e.ctx
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fctx := ctx
		if e.cfg.FetchTimeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(ctx, e.cfg.FetchTimeout)
			defer cancel()
		}
		blocks, err := e.provider.Fetch(fctx, e.cfg.RosterSize)
		e.onRoster(id, blocks, err)
	}()
}

func (e *Engine) onRoster(id uuid.UUID, blocks []roster.StatBlock, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || e.cycle == nil || e.cycle.ID != id || e.cycle.TeamA != nil {
		return
	}
	if err == nil && len(blocks) < e.cfg.RosterSize {
		err = fmt.Errorf("%w: got %d of %d combatants", roster.ErrUnavailable, len(blocks), e.cfg.RosterSize)
	}
	var a, b *combat.Team
	if err == nil {
		a, b, err = e.buildTeams(blocks)
	}
	if err != nil {
		e.pending = e.clock.AfterFunc(e.cfg.RosterRetry, func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if e.running && e.cycle != nil && e.cycle.ID == id && e.cycle.TeamA == nil {
				e.fetchLocked(id)
			}
		})
		e.emitLineLocked("Failed to load roster. Retrying...", nil)
		e.logger.Warn("roster fetch failed",
			zap.String("cycle_id", id.String()),
			zap.Duration("retry_in", e.cfg.RosterRetry),
			zap.Error(err),
		)
		return
	}

	e.cycle.TeamA, e.cycle.TeamB = a, b
	e.emitUnitsLocked(a)
	e.emitUnitsLocked(b)
	e.emitLineLocked(fmt.Sprintf("MATCHUP: %s vs %s", a.Leader().Name, b.Leader().Name), nil)
	e.logger.Info("roster ready",
		zap.String("cycle_id", id.String()),
		zap.String("leader_a", a.Leader().Name),
		zap.String("leader_b", b.Leader().Name),
	)
}

func (e *Engine) buildTeams(blocks []roster.StatBlock) (*combat.Team, *combat.Team, error) {
	half := e.cfg.RosterSize / 2
	members := make([]*combat.Combatant, 0, e.cfg.RosterSize)
	for _, blk := range blocks[:e.cfg.RosterSize] {
		members = append(members, combat.FromStatBlock(blk, e.cfg.HPScale))
	}
	a, err := combat.NewTeam(combat.SideA, members[:half])
	if err != nil {
		return nil, nil, err
	}
	b, err := combat.NewTeam(combat.SideB, members[half:])
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func (e *Engine) onCountdown(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || gen != e.countdownGen {
		return
	}
	e.countdown--
	if e.countdown < 0 {
		e.countdown = e.reset
		e.logger.Debug("countdown resynced", zap.Int("countdown", e.countdown))
		e.sink.Publish(e.eventLocked(EventTimerTick))
		return
	}
	e.sink.Publish(e.eventLocked(EventTimerTick))
	if e.phase != PhaseBetting || e.countdown > 0 {
		return
	}
	if e.cycle.TeamA == nil {
		e.logger.Warn("betting window elapsed without a roster; holding",
			zap.String("cycle_id", e.cycle.ID.String()))
		return
	}
	e.startBattleLocked()
}

func (e *Engine) startBattleLocked() {
	e.ledger.Close()
	a, b := e.cycle.TeamA.Leader(), e.cycle.TeamB.Leader()
	e.fight = combat.NewFight(a, b, e.cfg.Rules)
	e.setPhaseLocked(PhaseBattling)
	e.emitLineLocked("BETTING CLOSED - BATTLE COMMENCING", nil)
	e.emitLineLocked(fmt.Sprintf("%s (HP: %d) vs %s (HP: %d)", a.Name, a.HP, b.Name, b.HP), nil)
	e.combatTicker = clock.Every(e.clock, e.cfg.CombatTick, e.onCombatTick)
}

func (e *Engine) onCombatTick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || e.phase != PhaseBattling || e.fight == nil {
		return
	}
	res := e.fight.Step(e.roller)
	if res.Finished {
		e.endBattleLocked(res.Winner, res.Turn)
		return
	}
	var last combat.Event
	for i := range res.Events {
		action := res.Events[i]
		e.emitLineLocked(action.Narrative, &action)
		last = action
	}
	if len(res.Events) == 0 {
		return
	}
	target := e.fight.A
	if last.TargetSide == combat.SideB {
		target = e.fight.B
	}
	hp := e.eventLocked(EventHPChanged)
	hp.Team = last.TargetSide
	hp.HP = target.HP
	hp.MaxHP = target.MaxHP
	hp.Band = target.HPBand()
	e.sink.Publish(hp)

	fx := e.eventLocked(EventAttackEffect)
	fx.Team = last.TargetSide
	fx.Critical = last.Critical
	e.sink.Publish(fx)
}

func (e *Engine) endBattleLocked(winner combat.Side, turns int) {
	if e.combatTicker != nil {
		e.combatTicker.Stop()
		e.combatTicker = nil
	}
	outcome := e.ledger.Classify(winner)
	e.setPhaseLocked(PhaseEnded)
	e.emitLineLocked(fmt.Sprintf("TEAM %s VICTORIOUS!", winner), nil)

	ended := e.eventLocked(EventCycleEnded)
	ended.Winner = winner
	ended.Turns = turns
	ended.Outcome = &outcome
	e.sink.Publish(ended)

	res := Resolution{
		CycleID:   e.cycle.ID,
		Arena:     e.cfg.Name,
		Number:    e.cycle.Number,
		StartedAt: e.cycle.StartedAt,
		EndedAt:   e.clock.Now(),
		LeaderA:   e.cycle.TeamA.Leader().Name,
		LeaderB:   e.cycle.TeamB.Leader().Name,
		Winner:    winner,
		Turns:     turns,
		Outcome:   outcome,
	}
	e.logger.Info("cycle ended",
		zap.String("cycle_id", res.CycleID.String()),
		zap.String("winner", string(winner)),
		zap.Int("turns", turns),
	)
	ctx := e.ctx
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
		defer cancel()
		if err := e.settlement.Settle(sctx, res); err != nil {
			e.logger.Error("settlement failed", zap.String("cycle_id", res.CycleID.String()), zap.Error(err))
		}
	}()

	id := e.cycle.ID
	e.pending = e.clock.AfterFunc(e.cfg.PresentationDelay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.running || e.cycle.ID != id || e.phase != PhaseEnded {
			return
		}
		e.beginCycleLocked()
	})
}

func (e *Engine) setPhaseLocked(p Phase) {
	from := e.phase
	e.phase = p
	e.logger.Info("phase changed",
		zap.String("from", string(from)),
		zap.String("to", string(p)),
		zap.String("cycle_id", e.cycle.ID.String()),
	)
	e.sink.Publish(e.eventLocked(EventPhaseChanged))
}

func (e *Engine) eventLocked(kind EventKind) Event {
	ev := Event{
		Kind:      kind,
		Arena:     e.cfg.Name,
		At:        e.clock.Now(),
		Phase:     e.phase,
		Countdown: e.countdown,
	}
	if e.cycle != nil {
		ev.CycleID = e.cycle.ID
	}
	return ev
}

func (e *Engine) emitLineLocked(line string, action *combat.Event) {
	ev := e.eventLocked(EventLogLine)
	ev.Line = line
	ev.Action = action
	e.sink.Publish(ev)
}

func (e *Engine) emitPoolsLocked() {
	ev := e.eventLocked(EventPoolChanged)
	ev.Pools = &Pools{
		A:     e.ledger.Pool(combat.SideA),
		B:     e.ledger.Pool(combat.SideB),
		Total: e.ledger.TotalPool(),
	}
	e.sink.Publish(ev)
}

func (e *Engine) emitUnitsLocked(t *combat.Team) {
	ev := e.eventLocked(EventUnitsRendered)
	ev.Team = t.Side
	ev.Units = copyMembers(t.Members)
	e.sink.Publish(ev)
}

func copyMembers(in []*combat.Combatant) []combat.Combatant {
	out := make([]combat.Combatant, len(in))
	for i, c := range in {
		out[i] = *c
	}
	return out
}
