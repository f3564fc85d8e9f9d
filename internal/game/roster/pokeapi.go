package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

// pokemonResponse is the subset of the /pokemon/{id} payload the arena reads.
type pokemonResponse struct {
	Name    string `json:"name"`
	Sprites struct {
		FrontDefault *string `json:"front_default"`
		Other        map[string]struct {
			FrontDefault *string `json:"front_default"`
		} `json:"other"`
	} `json:"sprites"`
	Stats []struct {
		BaseStat int `json:"base_stat"`
		Stat     struct {
			Name string `json:"name"`
		} `json:"stat"`
	} `json:"stats"`
	Types []struct {
		Slot int `json:"slot"`
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
	Moves []struct {
		Move struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"move"`
	} `json:"moves"`
}

// PokeAPIConfig configures a PokeAPI client.
type PokeAPIConfig struct {
	BaseURL        string
	MaxSpeciesID   int
	MaxMoves       int
	RequestTimeout time.Duration
}

// PokeAPI fetches random creatures from a PokeAPI-compatible endpoint.
type PokeAPI struct {
	cfg    PokeAPIConfig
	client *http.Client
	src    dice.Source
	logger *zap.Logger
}

// NewPokeAPI creates a PokeAPI provider.
//
// Precondition: cfg.BaseURL non-empty; cfg.MaxSpeciesID >= 1; src and logger non-nil.
func NewPokeAPI(cfg PokeAPIConfig, client *http.Client, src dice.Source, logger *zap.Logger) *PokeAPI {
	if client == nil {
		client = &http.Client{Timeout: cfg.RequestTimeout}
	}
	if cfg.MaxMoves <= 0 {
		cfg.MaxMoves = 8
	}
	return &PokeAPI{cfg: cfg, client: client, src: src, logger: logger}
}

// Fetch retrieves n random creatures concurrently. Any single failure fails
// the whole roster.
func (p *PokeAPI) Fetch(ctx context.Context, n int) ([]StatBlock, error) {
	out := make([]StatBlock, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		id := p.src.Intn(p.cfg.MaxSpeciesID) + 1
		g.Go(func() error {
			b, err := p.fetchOne(gctx, id)
			if err != nil {
				return err
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *PokeAPI) fetchOne(ctx context.Context, id int) (StatBlock, error) {
	url := fmt.Sprintf("%s/pokemon/%d", strings.TrimRight(p.cfg.BaseURL, "/"), id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return StatBlock{}, fmt.Errorf("building request for %d: %w", id, err)
	}
	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return StatBlock{}, fmt.Errorf("fetching creature %d: %w", id, err)
	}
	defer resp.Body.Close()
	p.logger.Debug("roster fetch",
		zap.Int("id", id),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return StatBlock{}, fmt.Errorf("%w: creature %d returned status %d", ErrUnavailable, id, resp.StatusCode)
	}

	var body pokemonResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return StatBlock{}, fmt.Errorf("decoding creature %d: %w", id, err)
	}
	return p.toStatBlock(body)
}

// statIndex is the fallback positional layout of the stats array.
var statIndex = map[string]int{"hp": 0, "attack": 1, "defense": 2, "speed": 5}

func (p *PokeAPI) toStatBlock(r pokemonResponse) (StatBlock, error) {
	if r.Name == "" {
		return StatBlock{}, fmt.Errorf("%w: creature has no name", ErrUnavailable)
	}
	stats := make(map[string]int, len(r.Stats))
	for _, s := range r.Stats {
		stats[s.Stat.Name] = s.BaseStat
	}
	stat := func(name string) int {
		if v, ok := stats[name]; ok {
			return v
		}
		if i := statIndex[name]; i < len(r.Stats) {
			return r.Stats[i].BaseStat
		}
		return 0
	}

	b := StatBlock{
		Name:    strings.ToUpper(r.Name),
		Sprite:  spriteFor(r),
		HP:      stat("hp"),
		Attack:  stat("attack"),
		Defense: stat("defense"),
		Speed:   stat("speed"),
	}
	for _, t := range r.Types {
		b.Types = append(b.Types, t.Type.Name)
	}
	for i, m := range r.Moves {
		if i >= p.cfg.MaxMoves {
			break
		}
		b.Moves = append(b.Moves, MoveRef{
			Name: strings.ToUpper(strings.ReplaceAll(m.Move.Name, "-", " ")),
			URL:  m.Move.URL,
		})
	}
	return b, nil
}

func spriteFor(r pokemonResponse) string {
	if r.Sprites.FrontDefault != nil && *r.Sprites.FrontDefault != "" {
		return *r.Sprites.FrontDefault
	}
	if art, ok := r.Sprites.Other["official-artwork"]; ok && art.FrontDefault != nil {
		return *art.FrontDefault
	}
	return ""
}
