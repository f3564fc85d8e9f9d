// Package roster supplies randomized combatant stat blocks to the battle engine.
package roster

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the provider cannot produce a full roster.
var ErrUnavailable = errors.New("roster provider unavailable")

// MoveRef names a move a combatant can use. URL is opaque metadata.
type MoveRef struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// StatBlock is the raw stat block for one combatant as reported by a provider.
type StatBlock struct {
	Name    string    `json:"name"`
	Sprite  string    `json:"sprite"`
	HP      int       `json:"hp"`
	Attack  int       `json:"attack"`
	Defense int       `json:"defense"`
	Speed   int       `json:"speed"`
	Types   []string  `json:"types"`
	Moves   []MoveRef `json:"moves"`
}

// Provider returns n independent random stat blocks.
//
// Postcondition: on success exactly n blocks are returned; on failure the
// error wraps ErrUnavailable or a transport error and no blocks are returned.
type Provider interface {
	Fetch(ctx context.Context, n int) ([]StatBlock, error)
}

// ProviderFunc adapts a function into a Provider.
type ProviderFunc func(ctx context.Context, n int) ([]StatBlock, error)

// Fetch calls f.
func (f ProviderFunc) Fetch(ctx context.Context, n int) ([]StatBlock, error) { return f(ctx, n) }

// Static is an offline Provider that cycles through a fixed pool of blocks.
type Static struct {
	Blocks []StatBlock
}

// Fetch returns the first n blocks of the pool, wrapping around as needed.
func (s *Static) Fetch(ctx context.Context, n int) ([]StatBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.Blocks) == 0 {
		return nil, fmt.Errorf("%w: static pool is empty", ErrUnavailable)
	}
	out := make([]StatBlock, n)
	for i := range out {
		out[i] = s.Blocks[i%len(s.Blocks)]
	}
	return out, nil
}

// DefaultStatic returns a small built-in pool used when the server runs offline.
func DefaultStatic() *Static {
	return &Static{Blocks: []StatBlock{
		{Name: "SQUIRTLE", HP: 44, Attack: 48, Defense: 65, Speed: 43, Types: []string{"water"},
			Moves: []MoveRef{{Name: "WATER GUN"}, {Name: "TACKLE"}, {Name: "BITE"}}},
		{Name: "CHARMANDER", HP: 39, Attack: 52, Defense: 43, Speed: 65, Types: []string{"fire"},
			Moves: []MoveRef{{Name: "EMBER"}, {Name: "SCRATCH"}, {Name: "FLAMETHROWER"}}},
		{Name: "BULBASAUR", HP: 45, Attack: 49, Defense: 49, Speed: 45, Types: []string{"grass", "poison"},
			Moves: []MoveRef{{Name: "VINE WHIP"}, {Name: "TACKLE"}, {Name: "RAZOR LEAF"}}},
		{Name: "PIKACHU", HP: 35, Attack: 55, Defense: 40, Speed: 90, Types: []string{"electric"},
			Moves: []MoveRef{{Name: "THUNDER SHOCK"}, {Name: "QUICK ATTACK"}, {Name: "THUNDERBOLT"}}},
	}}
}
