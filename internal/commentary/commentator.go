package commentary

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/game/clock"
	"github.com/cory-johannsen/arena/internal/game/combat"
)

// historySize is the number of chat messages retained for late joiners.
const historySize = 50

// Message is one chat line from a persona.
type Message struct {
	Arena   string    `json:"arena"`
	Persona string    `json:"persona"`
	Avatar  string    `json:"avatar"`
	Color   string    `json:"color"`
	Trigger Trigger   `json:"trigger"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// Publisher receives chat messages.
type Publisher interface {
	PublishChat(Message)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Message)

// PublishChat calls f(m).
func (f PublisherFunc) PublishChat(m Message) { f(m) }

// Scripts can override a persona's reaction. *scripting.Manager satisfies it.
type Scripts interface {
	React(scope, persona, trigger string, fields map[string]string) (string, bool)
}

// Roller is the randomness the commentator needs.
type Roller interface {
	Pick(n int) int
	Chance(p float64) bool
}

// Config tunes the commentator.
type Config struct {
	Arena string
	// IdleInterval is how often idle chatter is considered.
	IdleInterval time.Duration
	// BettingIdleChance and BattlingIdleChance are the idle probabilities per interval.
	BettingIdleChance  float64
	BattlingIdleChance float64
	// WinReactions is the number of staggered win messages; WinStagger separates them.
	WinReactions int
	WinStagger   time.Duration
	// VoiceTimeout bounds one Voice call.
	VoiceTimeout time.Duration
}

// DefaultConfig returns idle chatter every 3s (50% while betting, 30% while
// battling) and three win reactions one second apart.
func DefaultConfig(arenaName string) Config {
	return Config{
		Arena:              arenaName,
		IdleInterval:       3 * time.Second,
		BettingIdleChance:  0.5,
		BattlingIdleChance: 0.3,
		WinReactions:       3,
		WinStagger:         time.Second,
		VoiceTimeout:       5 * time.Second,
	}
}

// Option configures optional Commentator collaborators.
type Option func(*Commentator)

// WithScripts lets Lua scripts override reactions.
func WithScripts(s Scripts) Option { return func(c *Commentator) { c.scripts = s } }

// WithVoice rewrites every line through v.
func WithVoice(v Voice) Option { return func(c *Commentator) { c.voice = v } }

// Commentator maps engine events to persona chat.
type Commentator struct {
	cfg     Config
	cast    *Cast
	roller  Roller
	clock   clock.Clock
	out     Publisher
	scripts Scripts
	voice   Voice
	logger  *zap.Logger

	mu      sync.Mutex
	phase   arena.Phase
	cycle   string
	leaders map[combat.Side]string
	history []Message
	timers  map[uint64]clock.Timer
	nextID  uint64
	wg      sync.WaitGroup
}

// New creates a Commentator.
//
// Precondition: cast must validate; roller, clk, out and logger must be non-nil.
func New(cfg Config, cast *Cast, roller Roller, clk clock.Clock, out Publisher, logger *zap.Logger, opts ...Option) (*Commentator, error) {
	if cast == nil {
		return nil, errors.New("commentary: cast is required")
	}
	if err := cast.Validate(); err != nil {
		return nil, err
	}
	if cfg.IdleInterval <= 0 {
		return nil, errors.New("commentary: idle interval must be > 0")
	}
	c := &Commentator{
		cfg:     cfg,
		cast:    cast,
		roller:  roller,
		clock:   clk,
		out:     out,
		logger:  logger.With(zap.String("arena", cfg.Arena)),
		phase:   arena.PhaseWaiting,
		leaders: make(map[combat.Side]string),
		timers:  make(map[uint64]clock.Timer),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Run consumes events until ctx is cancelled or events is closed, and
// considers idle chatter every IdleInterval meanwhile.
func (c *Commentator) Run(ctx context.Context, events <-chan arena.Event) {
	idle := clock.Every(c.clock, c.cfg.IdleInterval, c.Idle)
	defer func() {
		idle.Stop()
		c.mu.Lock()
		for _, t := range c.timers {
			t.Stop()
		}
		c.timers = make(map[uint64]clock.Timer)
		c.mu.Unlock()
		c.wg.Wait()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			c.Handle(e)
		}
	}
}

// Idle posts idle chatter with the phase's probability.
func (c *Commentator) Idle() {
	c.mu.Lock()
	phase := c.phase
	c.mu.Unlock()
	switch phase {
	case arena.PhaseBetting:
		if c.roller.Chance(c.cfg.BettingIdleChance) {
			c.trigger(TriggerIdle, c.baseFields())
		}
	case arena.PhaseBattling:
		if c.roller.Chance(c.cfg.BattlingIdleChance) {
			c.trigger(TriggerIdle, c.baseFields())
		}
	}
}

// Handle reacts to one engine event.
func (c *Commentator) Handle(e arena.Event) {
	switch e.Kind {
	case arena.EventPhaseChanged:
		c.mu.Lock()
		c.phase = e.Phase
		if id := e.CycleID.String(); id != c.cycle {
			c.cycle = id
			c.leaders = make(map[combat.Side]string)
		}
		c.mu.Unlock()

	case arena.EventUnitsRendered:
		if len(e.Units) == 0 {
			return
		}
		c.mu.Lock()
		c.leaders[e.Team] = e.Units[0].Name
		ready := c.leaders[combat.SideA] != "" && c.leaders[combat.SideB] != ""
		c.mu.Unlock()
		if ready && e.Team == combat.SideB {
			fields := c.baseFields()
			c.trigger(TriggerMatchup, fields)
			c.trigger(TriggerIdle, fields)
		}

	case arena.EventBetPlaced:
		if e.Bet == nil {
			return
		}
		fields := c.baseFields()
		fields["team"] = string(e.Bet.Team)
		fields["amount"] = strconv.FormatFloat(e.Bet.Amount, 'f', -1, 64)
		fields["token"] = e.Bet.Token
		c.trigger(TriggerBetPlaced, fields)

	case arena.EventLogLine:
		if e.Action != nil {
			c.handleAction(*e.Action)
		}

	case arena.EventCycleEnded:
		fields := c.baseFields()
		fields["team"] = string(e.Winner)
		fields["winner"] = c.leader(e.Winner)
		c.trigger(TriggerWin, fields)
		c.mu.Lock()
		for i := 1; i < c.cfg.WinReactions; i++ {
			c.scheduleLocked(time.Duration(i)*c.cfg.WinStagger, func() { c.trigger(TriggerWin, fields) })
		}
		c.mu.Unlock()
	}
}

// scheduleLocked runs fn after d; the timer forgets itself once fired.
func (c *Commentator) scheduleLocked(d time.Duration, fn func()) {
	c.nextID++
	id := c.nextID
	c.timers[id] = c.clock.AfterFunc(d, func() {
		c.mu.Lock()
		_, live := c.timers[id]
		delete(c.timers, id)
		c.mu.Unlock()
		if live {
			fn()
		}
	})
}

// Pending returns the number of delayed reactions not yet posted.
func (c *Commentator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *Commentator) handleAction(a combat.Event) {
	fields := c.baseFields()
	fields["attacker"] = a.Actor
	fields["defender"] = a.Target
	fields["move"] = a.Move
	switch a.Kind {
	case combat.EventDamage:
		fields["damage"] = strconv.Itoa(a.Damage)
		if a.Critical {
			c.trigger(TriggerCritHit, fields)
		}
		if a.Multiplier > 1 {
			c.trigger(TriggerSuperEffective, fields)
		}
		if a.Move != "" {
			c.trigger(TriggerMoveUsed, fields)
		}
	case combat.EventLowHealth:
		c.trigger(TriggerLowHP, fields)
	}
}

func (c *Commentator) leader(s combat.Side) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.leaders[s]
}

func (c *Commentator) baseFields() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]string{
		"arena": c.cfg.Arena,
		"teamA": c.leaders[combat.SideA],
		"teamB": c.leaders[combat.SideB],
	}
}

// trigger picks a random persona and publishes its reaction, if any.
func (c *Commentator) trigger(t Trigger, fields map[string]string) {
	p := c.cast.Personas[c.roller.Pick(len(c.cast.Personas))]
	line, ok := c.line(p, t, fields)
	if !ok {
		return
	}
	if c.voice == nil {
		c.publish(p, t, line)
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.VoiceTimeout)
		defer cancel()
		out, err := c.voice.Rephrase(ctx, p, t, line)
		if err != nil {
			c.logger.Warn("voice failed; using scripted line", zap.String("persona", p.Name), zap.Error(err))
			out = line
		}
		c.publish(p, t, out)
	}()
}

func (c *Commentator) line(p Persona, t Trigger, fields map[string]string) (string, bool) {
	if c.scripts != nil {
		if s, ok := c.scripts.React(c.cfg.Arena, p.Name, string(t), fields); ok {
			return s, true
		}
	}
	lines := p.Reactions[t]
	if len(lines) == 0 {
		return "", false
	}
	return Render(lines[c.roller.Pick(len(lines))], fields), true
}

func (c *Commentator) publish(p Persona, t Trigger, text string) {
	m := Message{
		Arena:   c.cfg.Arena,
		Persona: p.Name,
		Avatar:  p.Avatar,
		Color:   p.Color,
		Trigger: t,
		Text:    text,
		At:      c.clock.Now(),
	}
	c.mu.Lock()
	c.history = append(c.history, m)
	if len(c.history) > historySize {
		c.history = c.history[len(c.history)-historySize:]
	}
	c.mu.Unlock()
	c.logger.Debug("chat", zap.String("persona", p.Name), zap.String("trigger", string(t)))
	c.out.PublishChat(m)
}

// History returns up to the last 50 messages, oldest first.
func (c *Commentator) History() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.history))
	copy(out, c.history)
	return out
}
