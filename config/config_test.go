package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 100, cfg.HistoryCapacity)
	assert.Equal(t, 50.0, cfg.Layout.NodeSpacing)
	assert.Equal(t, 250.0, cfg.Layout.GridSpacing)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":8080")
	t.Setenv("HISTORY_CAPACITY", "5")
	t.Setenv("GRID_SPACING", "300")
	t.Setenv("LAYOUT_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 5, cfg.HistoryCapacity)
	assert.Equal(t, 300.0, cfg.Layout.GridSpacing)
	assert.Equal(t, uint64(42), cfg.Layout.Seed)
}

func TestLoad_RejectsBadCapacity(t *testing.T) {
	t.Setenv("HISTORY_CAPACITY", "0")

	_, err := Load()
	assert.Error(t, err)
}
