package combat

import (
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/typechart"
)

// Roller is the subset of dice.Roller used by the resolver.
// Using a local interface avoids a circular import.
type Roller interface {
	Pick(n int) int
	Chance(p float64) bool
}

// EventKind identifies one step of an attack's presentation.
type EventKind string

const (
	EventAttack           EventKind = "attack"
	EventCritical         EventKind = "critical"
	EventSuperEffective   EventKind = "super_effective"
	EventNotVeryEffective EventKind = "not_very_effective"
	EventDamage           EventKind = "damage"
	EventLowHealth        EventKind = "low_health"
)

// Event records one observable step of a turn.
type Event struct {
	Kind       EventKind `json:"kind"`
	Turn       int       `json:"turn"`
	Side       Side      `json:"side"`
	Actor      string    `json:"actor"`
	TargetSide Side      `json:"target_side"`
	Target     string    `json:"target"`
	Move       string    `json:"move,omitempty"`
	Damage     int       `json:"damage,omitempty"`
	HP         int       `json:"hp"`
	MaxHP      int       `json:"max_hp"`
	Multiplier float64   `json:"multiplier"`
	Critical   bool      `json:"critical,omitempty"`
	Narrative  string    `json:"narrative"`
}

// Rules holds the tunable probabilities of the resolver.
type Rules struct {
	// CritChance is the probability in [0, 1] that an attack is critical.
	CritChance float64
	// LowHealthFraction is the exclusive upper bound of the low-health warning band.
	LowHealthFraction float64
}

// DefaultRules returns a 10% critical chance and a 30% low-health band.
func DefaultRules() Rules {
	return Rules{CritChance: 0.1, LowHealthFraction: 0.3}
}

// Fight drives one battle between the two team leaders.
type Fight struct {
	A *Combatant
	B *Combatant
	// Turn is the number of attacks resolved so far.
	Turn int
	// Over is true once a terminal state has been reported.
	Over bool
	// Winner is set when Over is true.
	Winner Side
	rules  Rules
}

// NewFight starts a fight between a and b.
//
// Precondition: a and b must be non-nil.
func NewFight(a, b *Combatant, rules Rules) *Fight {
	return &Fight{A: a, B: b, rules: rules}
}

// Result is the outcome of one Step.
type Result struct {
	// Finished is true when this step reported the terminal state instead of attacking.
	Finished bool
	Winner   Side
	Turn     int
	Events   []Event
}

// ActingSide returns the side that attacks on turn. The strictly faster
// leader acts on odd turns and the other on even turns; on a speed tie, A
// takes the odd turns.
func (f *Fight) ActingSide(turn int) Side {
	fast, slow := SideA, SideB
	if f.B.Speed > f.A.Speed {
		fast, slow = SideB, SideA
	}
	if turn%2 == 1 {
		return fast
	}
	return slow
}

func (f *Fight) leader(s Side) *Combatant {
	if s == SideA {
		return f.A
	}
	return f.B
}

// Step resolves one tick. When either leader is already down it reports the
// survivor and attacks nothing, so a killing blow is always shown one tick
// before the winner is declared.
//
// Precondition: r must be non-nil.
// Postcondition: both leaders satisfy the hp invariant; once Finished is
// returned every later Step returns the same Winner.
func (f *Fight) Step(r Roller) Result {
	if f.Over {
		return Result{Finished: true, Winner: f.Winner, Turn: f.Turn}
	}
	if !f.A.Alive || !f.B.Alive {
		f.Over = true
		f.Winner = SideB
		if f.A.Alive {
			f.Winner = SideA
		}
		return Result{Finished: true, Winner: f.Winner, Turn: f.Turn}
	}

	f.Turn++
	side := f.ActingSide(f.Turn)
	attacker := f.leader(side)
	defender := f.leader(side.Opponent())

	move := DefaultMove
	if len(attacker.Moves) > 0 {
		move = attacker.Moves[r.Pick(len(attacker.Moves))]
	}
	crit := r.Chance(f.rules.CritChance)
	mult := typechart.Multiplier(attacker.Types, defender.Types)
	dmg := Damage(attacker.Attack, defender.Defense, mult, crit)
	defender.ApplyDamage(dmg)

	base := Event{
		Turn:       f.Turn,
		Side:       side,
		Actor:      attacker.Name,
		TargetSide: side.Opponent(),
		Target:     defender.Name,
		Move:       move.Name,
		HP:         defender.HP,
		MaxHP:      defender.MaxHP,
		Multiplier: mult,
		Critical:   crit,
	}
	with := func(kind EventKind, narrative string) Event {
		e := base
		e.Kind = kind
		e.Narrative = narrative
		return e
	}

	events := []Event{with(EventAttack, fmt.Sprintf("%s used %s!", attacker.Name, move.Name))}
	if crit {
		events = append(events, with(EventCritical, "CRITICAL HIT!"))
	}
	switch typechart.Classify(mult) {
	case typechart.SuperEffective:
		events = append(events, with(EventSuperEffective, "Super effective!"))
	case typechart.NotVeryEffective:
		events = append(events, with(EventNotVeryEffective, "Not very effective..."))
	}
	hit := with(EventDamage, fmt.Sprintf("%s took %d damage! (HP: %d/%d)", defender.Name, dmg, defender.HP, defender.MaxHP))
	hit.Damage = dmg
	events = append(events, hit)
	if frac := defender.HPFraction(); frac > 0 && frac < f.rules.LowHealthFraction {
		events = append(events, with(EventLowHealth, fmt.Sprintf("%s is hanging on by a thread!", defender.Name)))
	}

	return Result{Turn: f.Turn, Events: events}
}
