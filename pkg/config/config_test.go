package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abid8042/chessnetviz/pkg/errors"
	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/layout"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg")
	assert.Equal(t, "/tmp/test-xdg/chessnetviz", Dir())
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "err = %v", err)
}

func TestLoadTOML(t *testing.T) {
	path := write(t, "config.toml", `
[viewport]
width = 1600

[layout]
default = "spiral"

[layout.params.spiral]
coils = 5

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "2h"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1600.0, cfg.Viewport.Width)
	assert.Equal(t, Default().Viewport.Height, cfg.Viewport.Height, "absent key keeps default")
	assert.Equal(t, "spiral", cfg.Layout.Default)
	assert.Equal(t, 5.0, cfg.Layout.Params.Spiral.Coils)
	assert.Equal(t, layout.DefaultSpiral.MaxRadiusMargin, cfg.Layout.Params.Spiral.MaxRadiusMargin)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, 2*time.Hour, cfg.Cache.TTL)
}

func TestLoadYAML(t *testing.T) {
	path := write(t, "config.yaml", `
style:
  coloring: in_degree_centrality
  palette: viridis
sort:
  key: out_degree_centrality
  order: desc
simulation:
  max_ticks: 250
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "in_degree_centrality", cfg.Style.Coloring)
	assert.Equal(t, "viridis", cfg.Style.Palette)
	assert.Equal(t, graph.SortConfig{Key: "out_degree_centrality", Order: graph.SortDesc}, cfg.Sort)
	assert.Equal(t, 250, cfg.Simulation.MaxTicks)
}

func TestLoadEmptyYAML(t *testing.T) {
	cfg, err := Load(write(t, "config.yml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"bad toml", "c.toml", "[viewport\nwidth = 1"},
		{"unknown toml key", "c.toml", "[viewport]\ndepth = 3"},
		{"unknown yaml key", "c.yaml", "viewport:\n  depth: 3"},
		{"zero width", "c.toml", "[viewport]\nwidth = 0"},
		{"bad layout", "c.toml", "[layout]\ndefault = \"grid\""},
		{"param out of range", "c.toml", "[layout.params.radial]\nradial_strength = 7"},
		{"bad palette", "c.yaml", "style:\n  palette: rainbow"},
		{"bad coloring", "c.yaml", "style:\n  coloring: rainbow"},
		{"bad sort key", "c.yaml", "sort:\n  key: elo"},
		{"redis without addr", "c.toml", "[cache]\nbackend = \"redis\""},
		{"bad missing policy", "c.toml", "[filters]\nmissing = \"sometimes\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTripYAML(t *testing.T) {
	cfg := Default()
	cfg.Layout.Default = "radial"
	cfg.Layout.Params.Radial.RadialStrength = 0.5
	cfg.Cache.TTL = 90 * time.Minute

	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	require.NoError(t, Save(cfg, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestSaveTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, Save(Default(), path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[layout.params.force_directed]")
}

func TestPipelineOptions(t *testing.T) {
	cfg := Default()
	cfg.Layout.Default = "spiral"
	cfg.Layout.Params.Spiral.Coils = 7

	opts := cfg.PipelineOptions()
	assert.Equal(t, "spiral", opts.Layout)
	assert.Equal(t, 7.0, opts.Params["coils"])
	assert.Equal(t, "id:asc", opts.Sort)

	require.NoError(t, opts.ValidateAndSetDefaults())
	assert.Equal(t, 7.0, opts.LayoutParams().Spiral.Coils)
}
