package arena

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/arena/internal/game/combat"
)

// TeamView is a read-only copy of one team.
type TeamView struct {
	Side   combat.Side        `json:"side"`
	Leader combat.Combatant   `json:"leader"`
	Bench  []combat.Combatant `json:"bench"`
}

// Snapshot is a point-in-time copy of the live cycle.
type Snapshot struct {
	Arena       string    `json:"arena"`
	CycleID     uuid.UUID `json:"cycle_id"`
	Number      int       `json:"number"`
	Phase       Phase     `json:"phase"`
	Countdown   int       `json:"countdown"`
	Turn        int       `json:"turn"`
	RosterReady bool      `json:"roster_ready"`
	TeamA       *TeamView `json:"team_a,omitempty"`
	TeamB       *TeamView `json:"team_b,omitempty"`
	Pools       Pools     `json:"pools"`
	Bets        int       `json:"bets"`
}

// Snapshot returns a copy of the engine state that is safe to retain.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{
		Arena:     e.cfg.Name,
		Phase:     e.phase,
		Countdown: e.countdown,
		Pools: Pools{
			A:     e.ledger.Pool(combat.SideA),
			B:     e.ledger.Pool(combat.SideB),
			Total: e.ledger.TotalPool(),
		},
		Bets: len(e.ledger.Bets()),
	}
	if e.fight != nil {
		s.Turn = e.fight.Turn
	}
	if e.cycle == nil {
		return s
	}
	s.CycleID = e.cycle.ID
	s.Number = e.cycle.Number
	if e.cycle.TeamA != nil {
		s.RosterReady = true
		s.TeamA = viewOf(e.cycle.TeamA)
		s.TeamB = viewOf(e.cycle.TeamB)
	}
	return s
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

func viewOf(t *combat.Team) *TeamView {
	return &TeamView{
		Side:   t.Side,
		Leader: *t.Leader(),
		Bench:  copyMembers(t.Bench()),
	}
}
