// Package combat implements the leader-vs-leader battle resolver for the arena.
package combat

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/arena/internal/game/roster"
	"github.com/cory-johannsen/arena/internal/game/typechart"
)

// Side labels one of the two teams in a cycle.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// ParseSide returns the Side for label, case-insensitively.
//
// Postcondition: Returns (SideA|SideB, true), or ("", false) for any other label.
func ParseSide(label string) (Side, bool) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case string(SideA):
		return SideA, true
	case string(SideB):
		return SideB, true
	default:
		return "", false
	}
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// DefaultMove is used when a combatant has no moves available.
var DefaultMove = Move{Name: "TACKLE"}

// Move is a display name plus opaque metadata.
type Move struct {
	Name string `json:"name"`
	Ref  string `json:"ref,omitempty"`
}

// Combatant is one creature taking part in a cycle.
//
// Invariant: 0 <= HP <= MaxHP; Alive == (HP > 0).
type Combatant struct {
	Name    string           `json:"name"`
	Sprite  string           `json:"sprite"`
	Types   []typechart.Type `json:"types"`
	Attack  int              `json:"attack"`
	Defense int              `json:"defense"`
	Speed   int              `json:"speed"`
	HP      int              `json:"hp"`
	MaxHP   int              `json:"max_hp"`
	Alive   bool             `json:"alive"`
	Moves   []Move           `json:"moves"`
}

// FromStatBlock builds a fresh Combatant from provider output. Hit points are
// the raw hp stat multiplied by hpScale; all other stats pass through.
//
// Precondition: hpScale >= 1.
// Postcondition: HP == MaxHP; Alive == (HP > 0); at most two types are kept.
func FromStatBlock(b roster.StatBlock, hpScale int) *Combatant {
	hp := b.HP * hpScale
	if hp < 0 {
		hp = 0
	}
	c := &Combatant{
		Name:    b.Name,
		Sprite:  b.Sprite,
		Attack:  b.Attack,
		Defense: b.Defense,
		Speed:   b.Speed,
		HP:      hp,
		MaxHP:   hp,
		Alive:   hp > 0,
	}
	for i, t := range b.Types {
		if i == 2 {
			break
		}
		c.Types = append(c.Types, typechart.Parse(t))
	}
	for _, m := range b.Moves {
		if m.Name == "" {
			continue
		}
		c.Moves = append(c.Moves, Move{Name: m.Name, Ref: m.URL})
	}
	return c
}

// ApplyDamage reduces HP by amount, flooring at zero, and updates Alive.
//
// Precondition: amount >= 0.
// Postcondition: 0 <= HP <= MaxHP; Alive == (HP > 0).
func (c *Combatant) ApplyDamage(amount int) {
	if amount < 0 {
		amount = 0
	}
	c.HP -= amount
	if c.HP < 0 {
		c.HP = 0
	}
	if c.HP > c.MaxHP {
		c.HP = c.MaxHP
	}
	c.Alive = c.HP > 0
}

// HPFraction returns HP/MaxHP, or 0 when MaxHP is zero.
func (c *Combatant) HPFraction() float64 {
	if c.MaxHP <= 0 {
		return 0
	}
	return float64(c.HP) / float64(c.MaxHP)
}

// HPBand buckets the health fraction for display: "low" below 30%, "mid"
// below 60%, otherwise "high".
func (c *Combatant) HPBand() string {
	f := c.HPFraction()
	switch {
	case f < 0.3:
		return "low"
	case f < 0.6:
		return "mid"
	default:
		return "high"
	}
}

// Team is the ordered roster for one side. Only the leader fights; bench
// members are reserved for future multi-member rules.
//
// Invariant: membership is fixed for the cycle once rostered.
type Team struct {
	Side    Side         `json:"side"`
	Members []*Combatant `json:"members"`
}

// NewTeam creates a Team for side with the given members.
//
// Precondition: len(members) >= 1.
func NewTeam(side Side, members []*Combatant) (*Team, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("team %s has no members", side)
	}
	return &Team{Side: side, Members: members}, nil
}

// Leader returns the combat-participating member.
func (t *Team) Leader() *Combatant { return t.Members[0] }

// Bench returns the non-fighting members.
func (t *Team) Bench() []*Combatant { return t.Members[1:] }
