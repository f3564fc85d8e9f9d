// Package config provides Viper-based configuration loading for the arena server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds top-level server settings.
type ServerConfig struct {
	// Mode is "release", "debug" or "test"; it selects the HTTP router mode.
	Mode string `mapstructure:"mode"`
	// ShutdownTimeout bounds graceful HTTP and gRPC shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Enabled selects Postgres-backed cycle history; when false history is kept in memory.
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// HTTPConfig holds the REST and websocket listener settings.
type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// AllowedOrigin is the CORS and websocket origin; "*" allows any.
	AllowedOrigin string `mapstructure:"allowed_origin"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// GRPCConfig holds the arena gRPC listener settings.
type GRPCConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the "host:port" gRPC address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (g GRPCConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ArenaConfig holds the battle cycle timings and combat rules.
type ArenaConfig struct {
	Name              string        `mapstructure:"name"`
	BettingWindow     time.Duration `mapstructure:"betting_window"`
	CountdownTick     time.Duration `mapstructure:"countdown_tick"`
	CombatTick        time.Duration `mapstructure:"combat_tick"`
	PresentationDelay time.Duration `mapstructure:"presentation_delay"`
	RosterRetry       time.Duration `mapstructure:"roster_retry"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	HPScale           int           `mapstructure:"hp_scale"`
	RosterSize        int           `mapstructure:"roster_size"`
	CritChance        float64       `mapstructure:"crit_chance"`
	LowHealthFraction float64       `mapstructure:"low_health_fraction"`
	// Seed makes combat reproducible when non-zero; zero uses crypto/rand.
	Seed uint64 `mapstructure:"seed"`
	// HistorySize caps the in-memory history used when the database is disabled.
	HistorySize int `mapstructure:"history_size"`
}

// RosterConfig holds the creature source settings.
type RosterConfig struct {
	// Source is "pokeapi" or "static".
	Source         string        `mapstructure:"source"`
	BaseURL        string        `mapstructure:"base_url"`
	MaxSpeciesID   int           `mapstructure:"max_species_id"`
	MaxMoves       int           `mapstructure:"max_moves"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// CommentaryConfig holds the persona chat settings.
type CommentaryConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	PersonasFile string        `mapstructure:"personas_file"`
	ScriptsDir   string        `mapstructure:"scripts_dir"`
	ScriptLimit  int           `mapstructure:"script_limit"`
	IdleInterval time.Duration `mapstructure:"idle_interval"`
	// AnthropicModel and AnthropicAPIKey enable the generated voice when both are set.
	AnthropicModel  string `mapstructure:"anthropic_model"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
}

// VoiceEnabled reports whether the generated commentary voice is configured.
func (c CommentaryConfig) VoiceEnabled() bool {
	return c.AnthropicModel != "" && c.AnthropicAPIKey != ""
}

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	GRPC       GRPCConfig       `mapstructure:"grpc"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Arena      ArenaConfig      `mapstructure:"arena"`
	Roster     RosterConfig     `mapstructure:"roster"`
	Commentary CommentaryConfig `mapstructure:"commentary"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateServer(c.Server),
		validatePort("http.port", c.HTTP.Port),
		validateGRPC(c.GRPC),
		validateLogging(c.Logging),
		validateDatabase(c.Database),
		validateArena(c.Arena),
		validateRoster(c.Roster),
		validateCommentary(c.Commentary),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joinErrs(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validatePort(key string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be 1-65535, got %d", key, port)
	}
	return nil
}

func validateServer(s ServerConfig) error {
	validModes := map[string]bool{"release": true, "debug": true, "test": true}
	if !validModes[s.Mode] {
		return fmt.Errorf("server.mode must be one of [release, debug, test], got %q", s.Mode)
	}
	if s.ShutdownTimeout < 0 {
		return errors.New("server.shutdown_timeout must not be negative")
	}
	return nil
}

func validateGRPC(g GRPCConfig) error {
	var errs []string
	if g.Host == "" {
		errs = append(errs, "grpc.host must not be empty")
	}
	if err := validatePort("grpc.port", g.Port); err != nil {
		errs = append(errs, err.Error())
	}
	return joinErrs(errs)
}

func validateDatabase(d DatabaseConfig) error {
	if !d.Enabled {
		return nil
	}
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if err := validatePort("database.port", d.Port); err != nil {
		errs = append(errs, err.Error())
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	return joinErrs(errs)
}

func validateArena(a ArenaConfig) error {
	var errs []string
	if a.Name == "" {
		errs = append(errs, "arena.name must not be empty")
	}
	if a.CountdownTick <= 0 {
		errs = append(errs, "arena.countdown_tick must be > 0")
	} else if a.BettingWindow < a.CountdownTick {
		errs = append(errs, "arena.betting_window must be at least one countdown_tick")
	}
	if a.CombatTick <= 0 {
		errs = append(errs, "arena.combat_tick must be > 0")
	}
	if a.PresentationDelay < 0 {
		errs = append(errs, "arena.presentation_delay must not be negative")
	}
	if a.RosterRetry <= 0 {
		errs = append(errs, "arena.roster_retry must be > 0")
	}
	if a.HPScale < 1 {
		errs = append(errs, fmt.Sprintf("arena.hp_scale must be >= 1, got %d", a.HPScale))
	}
	if a.RosterSize < 2 || a.RosterSize%2 != 0 {
		errs = append(errs, fmt.Sprintf("arena.roster_size must be a positive even number, got %d", a.RosterSize))
	}
	if a.CritChance < 0 || a.CritChance > 1 {
		errs = append(errs, fmt.Sprintf("arena.crit_chance must be in [0, 1], got %g", a.CritChance))
	}
	if a.LowHealthFraction < 0 || a.LowHealthFraction > 1 {
		errs = append(errs, fmt.Sprintf("arena.low_health_fraction must be in [0, 1], got %g", a.LowHealthFraction))
	}
	if a.HistorySize < 1 {
		errs = append(errs, fmt.Sprintf("arena.history_size must be >= 1, got %d", a.HistorySize))
	}
	return joinErrs(errs)
}

func validateRoster(r RosterConfig) error {
	var errs []string
	switch r.Source {
	case "static":
	case "pokeapi":
		if r.BaseURL == "" {
			errs = append(errs, "roster.base_url must not be empty")
		}
		if r.MaxSpeciesID < 1 {
			errs = append(errs, fmt.Sprintf("roster.max_species_id must be >= 1, got %d", r.MaxSpeciesID))
		}
		if r.MaxMoves < 1 {
			errs = append(errs, fmt.Sprintf("roster.max_moves must be >= 1, got %d", r.MaxMoves))
		}
		if r.RequestTimeout <= 0 {
			errs = append(errs, "roster.request_timeout must be > 0")
		}
	default:
		errs = append(errs, fmt.Sprintf("roster.source must be one of [pokeapi, static], got %q", r.Source))
	}
	return joinErrs(errs)
}

func validateCommentary(c CommentaryConfig) error {
	if !c.Enabled {
		return nil
	}
	var errs []string
	if c.PersonasFile == "" {
		errs = append(errs, "commentary.personas_file must not be empty")
	}
	if c.IdleInterval <= 0 {
		errs = append(errs, "commentary.idle_interval must be > 0")
	}
	if c.ScriptLimit < 0 {
		errs = append(errs, "commentary.script_limit must not be negative")
	}
	return joinErrs(errs)
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// NewViper returns a Viper instance with ARENA_ environment overrides and defaults applied.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.allowed_origin", "*")

	v.SetDefault("grpc.host", "127.0.0.1")
	v.SetDefault("grpc.port", 50051)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "arena")
	v.SetDefault("database.password", "arena")
	v.SetDefault("database.name", "arena")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("arena.name", "main")
	v.SetDefault("arena.betting_window", "120s")
	v.SetDefault("arena.countdown_tick", "1s")
	v.SetDefault("arena.combat_tick", "2500ms")
	v.SetDefault("arena.presentation_delay", "10s")
	v.SetDefault("arena.roster_retry", "2s")
	v.SetDefault("arena.fetch_timeout", "15s")
	v.SetDefault("arena.hp_scale", 3)
	v.SetDefault("arena.roster_size", 4)
	v.SetDefault("arena.crit_chance", 0.1)
	v.SetDefault("arena.low_health_fraction", 0.3)
	v.SetDefault("arena.seed", 0)
	v.SetDefault("arena.history_size", 100)

	v.SetDefault("roster.source", "pokeapi")
	v.SetDefault("roster.base_url", "https://pokeapi.co/api/v2")
	v.SetDefault("roster.max_species_id", 151)
	v.SetDefault("roster.max_moves", 4)
	v.SetDefault("roster.request_timeout", "10s")

	v.SetDefault("commentary.enabled", true)
	v.SetDefault("commentary.personas_file", "content/personas.yaml")
	v.SetDefault("commentary.scripts_dir", "content/scripts")
	v.SetDefault("commentary.script_limit", 100000)
	v.SetDefault("commentary.idle_interval", "3s")
	v.SetDefault("commentary.anthropic_model", "")
	v.SetDefault("commentary.anthropic_api_key", "")
}
