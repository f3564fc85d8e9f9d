package arena

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/arena/internal/game/betting"
	"github.com/cory-johannsen/arena/internal/game/combat"
)

// EventKind tags an engine event for presentation.
type EventKind string

const (
	EventPhaseChanged  EventKind = "phase_changed"
	EventTimerTick     EventKind = "timer_tick"
	EventUnitsRendered EventKind = "units_rendered"
	EventLogLine       EventKind = "log_line"
	EventHPChanged     EventKind = "hp_changed"
	EventAttackEffect  EventKind = "attack_effect"
	EventCycleEnded    EventKind = "cycle_ended"
	EventBetPlaced     EventKind = "bet_placed"
	EventPoolChanged   EventKind = "pool_changed"
)

// Pools is the wager total per team.
type Pools struct {
	A     float64 `json:"a"`
	B     float64 `json:"b"`
	Total float64 `json:"total"`
}

// Event is one item of the ordered presentation stream. Only the fields
// relevant to Kind are populated.
type Event struct {
	Kind      EventKind   `json:"type"`
	Arena     string      `json:"arena"`
	CycleID   uuid.UUID   `json:"cycle_id"`
	At        time.Time   `json:"at"`
	Phase     Phase       `json:"phase"`
	Countdown int         `json:"countdown"`
	Team      combat.Side `json:"team,omitempty"`
	// Units holds copies of a team's members, leader first.
	Units []combat.Combatant `json:"units,omitempty"`
	Line  string             `json:"line,omitempty"`
	// Action is set on log lines produced by the combat resolver.
	Action   *combat.Event    `json:"action,omitempty"`
	HP       int              `json:"hp,omitempty"`
	MaxHP    int              `json:"max_hp,omitempty"`
	Band     string           `json:"band,omitempty"`
	Critical bool             `json:"critical,omitempty"`
	Winner   combat.Side      `json:"winner,omitempty"`
	Turns    int              `json:"turns,omitempty"`
	Outcome  *betting.Outcome `json:"outcome,omitempty"`
	Bet      *betting.Bet     `json:"bet,omitempty"`
	Pools    *Pools           `json:"pools,omitempty"`
}

// Sink receives engine events in emission order.
//
// Publish is called while the engine holds its lock, so implementations
// MUST NOT block and MUST NOT call back into the engine.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Publish calls f(e).
func (f SinkFunc) Publish(e Event) { f(e) }

// Broadcaster fans events out to any number of channel subscribers.
// A subscriber whose buffer is full misses the event rather than blocking
// the engine.
type Broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

// NewBroadcaster returns a Broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber with the given channel buffer.
//
// Precondition: buffer >= 0.
// Postcondition: cancel removes the subscription and closes the channel; it is idempotent.
func (b *Broadcaster) Subscribe(buffer int) (events <-chan Event, cancel func()) {
	ch := make(chan Event, buffer)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers e to every subscriber without blocking.
func (b *Broadcaster) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
