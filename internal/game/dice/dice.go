// Package dice provides the randomness abstraction used by the battle engine
// for roster selection, move choice, and critical-hit rolls.
package dice

// Source is the randomness provider for all rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
