// Package commentary turns arena events into persona chat messages. It is a
// downstream subscriber of the engine and never influences combat.
package commentary

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Trigger names a moment personas can react to.
type Trigger string

const (
	TriggerMatchup        Trigger = "matchup"
	TriggerIdle           Trigger = "idle"
	TriggerBetPlaced      Trigger = "bet_placed"
	TriggerMoveUsed       Trigger = "move_used"
	TriggerCritHit        Trigger = "crit_hit"
	TriggerSuperEffective Trigger = "super_effective"
	TriggerLowHP          Trigger = "low_hp"
	TriggerWin            Trigger = "win"
)

// Persona is one chat character and its reaction lines. Lines may contain
// {key} placeholders filled from the trigger's fields.
type Persona struct {
	Name      string               `yaml:"name"`
	Avatar    string               `yaml:"avatar"`
	Color     string               `yaml:"color"`
	Style     string               `yaml:"style"`
	Reactions map[Trigger][]string `yaml:"reactions"`
}

// Cast is the set of personas loaded from a YAML file.
type Cast struct {
	Personas []Persona `yaml:"personas"`
}

// LoadCast reads and validates a cast file.
//
// Precondition: path names a readable YAML file.
// Postcondition: Returns a cast with at least one persona, or an error.
func LoadCast(path string) (*Cast, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cast %q: %w", path, err)
	}
	c, err := ParseCast(data)
	if err != nil {
		return nil, fmt.Errorf("cast %q: %w", path, err)
	}
	return c, nil
}

// ParseCast decodes and validates cast YAML.
func ParseCast(data []byte) (*Cast, error) {
	var c Cast
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing cast: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports every persona without a name and an empty cast.
func (c *Cast) Validate() error {
	if len(c.Personas) == 0 {
		return errors.New("cast has no personas")
	}
	var errs []error
	seen := make(map[string]bool, len(c.Personas))
	for i, p := range c.Personas {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("persona %d: name must not be empty", i))
			continue
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Errorf("persona %q: duplicate name", p.Name))
		}
		seen[p.Name] = true
	}
	return errors.Join(errs...)
}

var placeholder = regexp.MustCompile(`\{([a-zA-Z_]+)\}`)

// Render substitutes {key} placeholders with fields[key]. Unknown keys are
// left as written.
func Render(template string, fields map[string]string) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		if v, ok := fields[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}
