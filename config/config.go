// Package config loads graphplan settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":3000"`
	DatabaseURL string `env:"DATABASE_URL"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`

	// Undo stack retention per workspace
	HistoryCapacity int `env:"HISTORY_CAPACITY" envDefault:"100"`

	Layout LayoutConfig
}

// LayoutConfig tunes the position resolver.
type LayoutConfig struct {
	NodeSpacing float64 `env:"NODE_SPACING" envDefault:"50"`
	GridSpacing float64 `env:"GRID_SPACING" envDefault:"250"`
	Seed        uint64  `env:"LAYOUT_SEED" envDefault:"0"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot work with.
func (c *Config) Validate() error {
	if c.HistoryCapacity <= 0 {
		return fmt.Errorf("config: HISTORY_CAPACITY must be positive, got %d", c.HistoryCapacity)
	}
	if c.Layout.NodeSpacing < 0 || c.Layout.GridSpacing < 0 {
		return fmt.Errorf("config: spacing must not be negative")
	}
	return nil
}
