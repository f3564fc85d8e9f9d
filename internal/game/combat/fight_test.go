package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/typechart"
)

// scriptedRoller returns fixed picks and crit outcomes.
type scriptedRoller struct {
	picks []int
	crits []bool
	pi    int
	ci    int
}

func (s *scriptedRoller) Pick(n int) int {
	if len(s.picks) == 0 {
		return 0
	}
	v := s.picks[s.pi%len(s.picks)] % n
	s.pi++
	return v
}

func (s *scriptedRoller) Chance(p float64) bool {
	if len(s.crits) == 0 {
		return false
	}
	v := s.crits[s.ci%len(s.crits)]
	s.ci++
	return v
}

func mon(name string, t typechart.Type, hp, atk, def, spd int) *combat.Combatant {
	return &combat.Combatant{
		Name: name, Types: []typechart.Type{t},
		Attack: atk, Defense: def, Speed: spd,
		HP: hp, MaxHP: hp, Alive: true,
		Moves: []combat.Move{{Name: name + " MOVE 1"}, {Name: name + " MOVE 2"}},
	}
}

func kinds(events []combat.Event) []combat.EventKind {
	out := make([]combat.EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func TestActingSide_FasterActsOnOddTurns(t *testing.T) {
	f := combat.NewFight(mon("A", typechart.Normal, 10, 1, 1, 50), mon("B", typechart.Normal, 10, 1, 1, 100), combat.DefaultRules())
	assert.Equal(t, combat.SideB, f.ActingSide(1))
	assert.Equal(t, combat.SideA, f.ActingSide(2))
	assert.Equal(t, combat.SideB, f.ActingSide(3))
}

func TestActingSide_TieUsesParity(t *testing.T) {
	f := combat.NewFight(mon("A", typechart.Normal, 10, 1, 1, 70), mon("B", typechart.Normal, 10, 1, 1, 70), combat.DefaultRules())
	assert.Equal(t, combat.SideA, f.ActingSide(1))
	assert.Equal(t, combat.SideB, f.ActingSide(2))
}

func TestStep_EventOrder_CritSuperEffectiveLowHealth(t *testing.T) {
	a := mon("BLASTOISE", typechart.Water, 300, 50, 25, 100)
	b := mon("CHARMANDER", typechart.Fire, 200, 50, 25, 50)
	f := combat.NewFight(a, b, combat.DefaultRules())

	res := f.Step(&scriptedRoller{picks: []int{1}, crits: []bool{true}})
	require.False(t, res.Finished)
	assert.Equal(t, 1, res.Turn)
	assert.Equal(t, []combat.EventKind{
		combat.EventAttack, combat.EventCritical, combat.EventSuperEffective,
		combat.EventDamage, combat.EventLowHealth,
	}, kinds(res.Events))

	// floor(50/25*20*2)+5 = 85, doubled = 170
	dmg := res.Events[3]
	assert.Equal(t, 170, dmg.Damage)
	assert.Equal(t, 30, dmg.HP)
	assert.Equal(t, 200, dmg.MaxHP)
	assert.Equal(t, "BLASTOISE MOVE 2", res.Events[0].Move)
	assert.Equal(t, "BLASTOISE used BLASTOISE MOVE 2!", res.Events[0].Narrative)
	assert.Equal(t, combat.SideA, res.Events[0].Side)
	assert.Equal(t, combat.SideB, res.Events[0].TargetSide)
}

func TestStep_NotVeryEffective(t *testing.T) {
	a := mon("CHARMANDER", typechart.Fire, 300, 50, 25, 100)
	b := mon("SQUIRTLE", typechart.Water, 300, 50, 25, 50)
	f := combat.NewFight(a, b, combat.DefaultRules())

	res := f.Step(&scriptedRoller{})
	assert.Equal(t, []combat.EventKind{combat.EventAttack, combat.EventNotVeryEffective, combat.EventDamage}, kinds(res.Events))
	assert.Equal(t, 0.5, res.Events[2].Multiplier)
	assert.Equal(t, 25, res.Events[2].Damage)
}

func TestStep_NeutralHasNoEffectivenessEvent(t *testing.T) {
	f := combat.NewFight(mon("A", typechart.Normal, 300, 50, 25, 100), mon("B", typechart.Normal, 300, 50, 25, 50), combat.DefaultRules())
	res := f.Step(&scriptedRoller{})
	assert.Equal(t, []combat.EventKind{combat.EventAttack, combat.EventDamage}, kinds(res.Events))
	assert.Equal(t, 45, res.Events[1].Damage)
}

func TestStep_DefaultMoveWhenNoneAvailable(t *testing.T) {
	a := mon("A", typechart.Normal, 300, 50, 25, 100)
	a.Moves = nil
	f := combat.NewFight(a, mon("B", typechart.Normal, 300, 50, 25, 50), combat.DefaultRules())
	res := f.Step(&scriptedRoller{})
	assert.Equal(t, "TACKLE", res.Events[0].Move)
}

func TestStep_WinnerDeclaredOnNextTick(t *testing.T) {
	a := mon("A", typechart.Normal, 300, 50, 25, 100)
	b := mon("B", typechart.Normal, 40, 50, 25, 50)
	f := combat.NewFight(a, b, combat.DefaultRules())
	roller := &scriptedRoller{}

	res := f.Step(roller)
	require.False(t, res.Finished, "the killing blow is shown first")
	assert.False(t, b.Alive)
	assert.Equal(t, 0, b.HP)
	assert.Equal(t, combat.EventDamage, res.Events[len(res.Events)-1].Kind, "no low-health event at 0 hp")

	res = f.Step(roller)
	assert.True(t, res.Finished)
	assert.Equal(t, combat.SideA, res.Winner)
	assert.Empty(t, res.Events)
	assert.True(t, f.Over)

	again := f.Step(roller)
	assert.True(t, again.Finished)
	assert.Equal(t, combat.SideA, again.Winner)
	assert.Equal(t, 1, f.Turn, "no attacks after the terminal state")
}

func TestStep_ZeroDefenseDoesNotPanic(t *testing.T) {
	b := mon("B", typechart.Normal, 3000, 50, 0, 50)
	f := combat.NewFight(mon("A", typechart.Normal, 300, 50, 25, 100), b, combat.DefaultRules())
	res := f.Step(&scriptedRoller{})
	assert.Equal(t, 1005, res.Events[1].Damage)
}

// TestPropertyFight_HPInvariantAndSingleSurvivor runs whole fights with random
// stats and verifies the hp invariant after every step and exactly one survivor.
func TestPropertyFight_HPInvariantAndSingleSurvivor(t *testing.T) {
	allTypes := append(typechart.Types(), typechart.Normal)
	rapid.Check(t, func(rt *rapid.T) {
		gen := func(label string) *combat.Combatant {
			hp := rapid.IntRange(1, 255).Draw(rt, label+"_hp") * 3
			return &combat.Combatant{
				Name:    label,
				Types:   []typechart.Type{rapid.SampledFrom(allTypes).Draw(rt, label+"_type")},
				Attack:  rapid.IntRange(0, 200).Draw(rt, label+"_atk"),
				Defense: rapid.IntRange(-5, 250).Draw(rt, label+"_def"),
				Speed:   rapid.IntRange(1, 200).Draw(rt, label+"_spd"),
				HP:      hp, MaxHP: hp, Alive: true,
				Moves: []combat.Move{{Name: "X"}},
			}
		}
		a, b := gen("A"), gen("B")
		f := combat.NewFight(a, b, combat.DefaultRules())
		roller := &scriptedRoller{
			picks: []int{rapid.IntRange(0, 10).Draw(rt, "pick")},
			crits: rapid.SliceOfN(rapid.Bool(), 1, 8).Draw(rt, "crits"),
		}

		var res combat.Result
		for steps := 0; steps < 10_000; steps++ {
			res = f.Step(roller)
			for _, c := range []*combat.Combatant{a, b} {
				if c.HP < 0 || c.HP > c.MaxHP {
					rt.Fatalf("%s hp %d out of [0, %d]", c.Name, c.HP, c.MaxHP)
				}
				if c.Alive != (c.HP > 0) {
					rt.Fatalf("%s alive=%v with hp=%d", c.Name, c.Alive, c.HP)
				}
			}
			if res.Finished {
				break
			}
		}
		if !res.Finished {
			rt.Fatalf("fight did not terminate")
		}
		if a.Alive == b.Alive {
			rt.Fatalf("expected exactly one survivor, got A=%v B=%v", a.Alive, b.Alive)
		}
		loser := a
		if res.Winner == combat.SideA {
			loser = b
		}
		if loser.HP != 0 {
			rt.Fatalf("loser hp = %d, want 0", loser.HP)
		}
	})
}
