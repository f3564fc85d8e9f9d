package combat

import "math"

const (
	damageScale = 20
	damageFloor = 5
)

// Damage computes the hit for one attack:
// floor(attack/defense × 20 × multiplier) + 5, doubled on a critical.
// A defense <= 0 is treated as 1 and a negative attack as 0, so the result
// is always at least the +5 floor.
//
// Postcondition: Returns >= 5 (>= 10 when critical).
func Damage(attack, defense int, multiplier float64, critical bool) int {
	if defense <= 0 {
		defense = 1
	}
	if attack < 0 {
		attack = 0
	}
	if multiplier < 0 {
		multiplier = 0
	}
	dmg := int(math.Floor(float64(attack)/float64(defense)*damageScale*multiplier)) + damageFloor
	if critical {
		dmg *= 2
	}
	return dmg
}
