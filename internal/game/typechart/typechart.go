// Package typechart holds the static elemental effectiveness table used by
// the combat resolver.
package typechart

import "strings"

// Type is an elemental type label such as "fire" or "water".
type Type string

// Elemental types known to the chart.
const (
	Normal   Type = "normal"
	Fire     Type = "fire"
	Water    Type = "water"
	Grass    Type = "grass"
	Electric Type = "electric"
	Ice      Type = "ice"
	Fighting Type = "fighting"
	Poison   Type = "poison"
	Ground   Type = "ground"
	Flying   Type = "flying"
	Psychic  Type = "psychic"
	Bug      Type = "bug"
	Rock     Type = "rock"
	Ghost    Type = "ghost"
	Dragon   Type = "dragon"
	Dark     Type = "dark"
	Steel    Type = "steel"
	Fairy    Type = "fairy"
)

// Chart entries. An absent pair means no special interaction.
const (
	immune   = 0
	resisted = 0.5
	weak     = 2
)

// chart maps attacker type -> defender type -> factor.
// Invariant: every factor is one of immune, resisted, weak.
var chart = map[Type]map[Type]float64{
	Fire:     {Grass: weak, Ice: weak, Bug: weak, Steel: weak, Water: resisted, Fire: resisted, Rock: resisted, Dragon: resisted},
	Water:    {Fire: weak, Ground: weak, Rock: weak, Grass: resisted, Water: resisted, Dragon: resisted},
	Grass:    {Water: weak, Ground: weak, Rock: weak, Fire: resisted, Grass: resisted, Poison: resisted, Flying: resisted, Bug: resisted, Dragon: resisted, Steel: resisted},
	Electric: {Water: weak, Flying: weak, Grass: resisted, Electric: resisted, Dragon: resisted, Ground: immune},
	Ice:      {Grass: weak, Ground: weak, Flying: weak, Dragon: weak, Fire: resisted, Water: resisted, Ice: resisted, Steel: resisted},
	Fighting: {Normal: weak, Ice: weak, Rock: weak, Dark: weak, Steel: weak, Poison: resisted, Flying: resisted, Psychic: resisted, Bug: resisted, Fairy: resisted, Ghost: immune},
	Poison:   {Grass: weak, Fairy: weak, Poison: resisted, Ground: resisted, Rock: resisted, Ghost: resisted, Steel: immune},
	Ground:   {Fire: weak, Electric: weak, Poison: weak, Rock: weak, Steel: weak, Grass: resisted, Bug: resisted, Flying: immune},
	Flying:   {Grass: weak, Fighting: weak, Bug: weak, Electric: resisted, Rock: resisted, Steel: resisted},
	Psychic:  {Fighting: weak, Poison: weak, Psychic: resisted, Steel: resisted, Dark: immune},
	Bug:      {Grass: weak, Psychic: weak, Dark: weak, Fire: resisted, Fighting: resisted, Poison: resisted, Flying: resisted, Ghost: resisted, Steel: resisted, Fairy: resisted},
	Rock:     {Fire: weak, Ice: weak, Flying: weak, Bug: weak, Fighting: resisted, Ground: resisted, Steel: resisted},
	Ghost:    {Psychic: weak, Ghost: weak, Dark: resisted, Normal: immune},
	Dragon:   {Dragon: weak, Steel: resisted, Fairy: immune},
	Dark:     {Psychic: weak, Ghost: weak, Fighting: resisted, Dark: resisted, Fairy: resisted},
	Steel:    {Ice: weak, Rock: weak, Fairy: weak, Fire: resisted, Water: resisted, Electric: resisted, Steel: resisted},
	Fairy:    {Fighting: weak, Dragon: weak, Dark: weak, Fire: resisted, Poison: resisted, Steel: resisted},
}

// Parse normalises a provider type label into a Type.
func Parse(label string) Type {
	return Type(strings.ToLower(strings.TrimSpace(label)))
}

// Factor returns the chart entry for a single attacker/defender pair, and
// whether the pair is present in the chart.
func Factor(attacker, defender Type) (float64, bool) {
	row, ok := chart[attacker]
	if !ok {
		return 1, false
	}
	f, ok := row[defender]
	if !ok {
		return 1, false
	}
	return f, true
}

// Multiplier returns the product of chart entries over every
// (attacker type, defender type) pair. Unknown pairs contribute 1.
//
// Postcondition: for one attacking type against at most two defending types
// the result is one of {0, 0.25, 0.5, 1, 2, 4}. Dual attackers may compound further.
func Multiplier(attacker, defender []Type) float64 {
	m := 1.0
	for _, a := range attacker {
		for _, d := range defender {
			if f, ok := Factor(a, d); ok {
				m *= f
			}
		}
	}
	return m
}

// Effect classifies a multiplier for presentation.
type Effect int

const (
	Neutral Effect = iota
	SuperEffective
	NotVeryEffective
)

// Classify maps a multiplier to its presentation class. Immunity (0) is
// reported as NotVeryEffective.
func Classify(multiplier float64) Effect {
	switch {
	case multiplier > 1:
		return SuperEffective
	case multiplier < 1:
		return NotVeryEffective
	default:
		return Neutral
	}
}

// String returns a human-readable effect label.
func (e Effect) String() string {
	switch e {
	case SuperEffective:
		return "super effective"
	case NotVeryEffective:
		return "not very effective"
	default:
		return "neutral"
	}
}

// Types returns every type that has a row in the chart.
func Types() []Type {
	out := make([]Type, 0, len(chart))
	for t := range chart {
		out = append(out, t)
	}
	return out
}
