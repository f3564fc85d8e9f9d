package typechart_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/typechart"
)

func TestMultiplier_WaterVsFire(t *testing.T) {
	m := typechart.Multiplier([]typechart.Type{typechart.Water}, []typechart.Type{typechart.Fire})
	assert.Equal(t, 2.0, m)
	assert.Equal(t, typechart.SuperEffective, typechart.Classify(m))
}

func TestMultiplier_FireVsWater(t *testing.T) {
	m := typechart.Multiplier([]typechart.Type{typechart.Fire}, []typechart.Type{typechart.Water})
	assert.Equal(t, 0.5, m)
	assert.Equal(t, typechart.NotVeryEffective, typechart.Classify(m))
}

func TestMultiplier_DualWeaknessCompounds(t *testing.T) {
	m := typechart.Multiplier(
		[]typechart.Type{typechart.Ice},
		[]typechart.Type{typechart.Dragon, typechart.Flying},
	)
	assert.Equal(t, 4.0, m)
}

func TestMultiplier_DualResistanceCompounds(t *testing.T) {
	m := typechart.Multiplier(
		[]typechart.Type{typechart.Fire},
		[]typechart.Type{typechart.Water, typechart.Rock},
	)
	assert.Equal(t, 0.25, m)
}

func TestMultiplier_Immunity(t *testing.T) {
	m := typechart.Multiplier([]typechart.Type{typechart.Electric}, []typechart.Type{typechart.Ground, typechart.Water})
	assert.Equal(t, 0.0, m)
	assert.Equal(t, typechart.NotVeryEffective, typechart.Classify(m))
}

func TestMultiplier_AbsentPairIsNeutral(t *testing.T) {
	assert.Equal(t, 1.0, typechart.Multiplier([]typechart.Type{typechart.Normal}, []typechart.Type{typechart.Ghost}))
	assert.Equal(t, 1.0, typechart.Multiplier([]typechart.Type{"shadow"}, []typechart.Type{typechart.Fire}))
	assert.Equal(t, 1.0, typechart.Multiplier(nil, []typechart.Type{typechart.Fire}))
}

func TestMultiplier_OrderMatters(t *testing.T) {
	a := []typechart.Type{typechart.Ghost}
	d := []typechart.Type{typechart.Normal}
	assert.Equal(t, 0.0, typechart.Multiplier(a, d))
	assert.Equal(t, 1.0, typechart.Multiplier(d, a))
}

func TestMultiplier_DualAttackerCanExceedFour(t *testing.T) {
	m := typechart.Multiplier(
		[]typechart.Type{typechart.Ice, typechart.Rock},
		[]typechart.Type{typechart.Flying, typechart.Dragon},
	)
	assert.Equal(t, 8.0, m)
}

func TestParse_Normalises(t *testing.T) {
	assert.Equal(t, typechart.Fire, typechart.Parse("  FIRE "))
}

func TestEffect_String(t *testing.T) {
	assert.Equal(t, "super effective", typechart.SuperEffective.String())
	assert.Equal(t, "not very effective", typechart.NotVeryEffective.String())
	assert.Equal(t, "neutral", typechart.Neutral.String())
}

func drawTypes(rt *rapid.T, label string, all []typechart.Type) []typechart.Type {
	return rapid.SliceOfNDistinct(rapid.SampledFrom(all), 1, 2, func(t typechart.Type) typechart.Type { return t }).Draw(rt, label)
}

// TestPropertyMultiplier_InDocumentedSet verifies a single attacking type
// against a single or dual defender always yields one of {0, 0.25, 0.5, 1, 2, 4}.
func TestPropertyMultiplier_InDocumentedSet(t *testing.T) {
	valid := map[float64]bool{0: true, 0.25: true, 0.5: true, 1: true, 2: true, 4: true}
	all := append(typechart.Types(), typechart.Normal)
	rapid.Check(t, func(rt *rapid.T) {
		atk := []typechart.Type{rapid.SampledFrom(all).Draw(rt, "attacker")}
		def := drawTypes(rt, "defender", all)
		m := typechart.Multiplier(atk, def)
		if !valid[m] {
			rt.Fatalf("Multiplier(%v, %v) = %v not in documented set", atk, def, m)
		}
	})
}
