// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New returns a Config populated with defaults.
//   - Load layers a YAML file and KICKOFF_ environment variables on top.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxRosterSize rejects rosters larger than this after normalization.
	MaxRosterSize int `koanf:"max_roster_size"`

	// MaxSearchStates caps the exact search table. Rosters whose scores
	// spread too widely for it are rejected.
	MaxSearchStates int `koanf:"max_search_states"`

	// DefaultTeamAName and DefaultTeamBName label sides when a request
	// does not name them.
	DefaultTeamAName string `koanf:"default_team_a_name"`
	DefaultTeamBName string `koanf:"default_team_b_name"`

	// PreferRandomTies randomizes among equally optimal partitions.
	PreferRandomTies bool `koanf:"prefer_random_ties"`

	// StoreBackend selects the match store: memory or redis.
	StoreBackend string `koanf:"store_backend"`

	// RedisURL is parsed with redis.ParseURL when StoreBackend is redis.
	RedisURL string `koanf:"redis_url"`

	// RedisKeyPrefix namespaces match keys.
	RedisKeyPrefix string `koanf:"redis_key_prefix"`

	// MatchTTLHours expires stored matches; zero keeps them forever.
	MatchTTLHours int `koanf:"match_ttl_hours"`

	// NotifyQueueSize bounds the in-memory notification queue.
	NotifyQueueSize int `koanf:"notify_queue_size"`

	// NotifyWorkerCount sets the number of delivery workers.
	NotifyWorkerCount int `koanf:"notify_worker_count"`

	// DedupeSize bounds the delivered-notification cache.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		MaxRosterSize:     64,
		MaxSearchStates:   2_000_000,
		DefaultTeamAName:  "Team A",
		DefaultTeamBName:  "Team B",
		PreferRandomTies:  true,
		StoreBackend:      StoreMemory,
		RedisURL:          "redis://localhost:6379/0",
		RedisKeyPrefix:    "kickoff:",
		MatchTTLHours:     72,
		NotifyQueueSize:   10_000,
		NotifyWorkerCount: runtime.NumCPU() * 2,
		DedupeSize:        100_000,
	}
}

// MatchTTL returns the match expiry as a duration.
func (c *Config) MatchTTL() time.Duration {
	return time.Duration(c.MatchTTLHours) * time.Hour
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.MaxRosterSize < 2 {
		return fmt.Errorf("%w: max_roster_size must be at least 2, got %d", ErrInvalidConfig, c.MaxRosterSize)
	}
	if c.MaxSearchStates <= 0 {
		return fmt.Errorf("%w: max_search_states must be positive, got %d", ErrInvalidConfig, c.MaxSearchStates)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	switch c.StoreBackend {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: redis_url is required for the redis store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	}
	if c.MatchTTLHours < 0 {
		return fmt.Errorf("%w: match_ttl_hours must not be negative", ErrInvalidConfig)
	}
	if c.NotifyQueueSize <= 0 {
		return fmt.Errorf("%w: notify_queue_size must be positive", ErrInvalidConfig)
	}
	if c.NotifyWorkerCount <= 0 {
		return fmt.Errorf("%w: notify_worker_count must be positive", ErrInvalidConfig)
	}
	return nil
}
