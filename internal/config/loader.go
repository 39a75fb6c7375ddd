package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if KPISYNC_CONFIG is set
//  3. env (prefix KPISYNC_)
func Load() (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("KPISYNC_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: KPISYNC_ADDR, KPISYNC_TURSO_URL, ...
	// Map env keys like KPISYNC_TURSO_URL -> turso_url (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("KPISYNC_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "kpisync_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.SyncBatchSize < 1 {
		return fmt.Errorf("%w: sync_batch_size must be positive", ErrInvalidConfig)
	}
	if c.SyncIntervalSeconds < 1 {
		return fmt.Errorf("%w: sync_interval_seconds must be positive", ErrInvalidConfig)
	}
	if c.SyncDays < 1 {
		return fmt.Errorf("%w: sync_days must be positive", ErrInvalidConfig)
	}
	if c.StateDB == "" {
		return fmt.Errorf("%w: state_db must not be empty", ErrInvalidConfig)
	}
	return nil
}
