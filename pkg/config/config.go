// Package config loads chessnetviz settings from TOML or YAML files.
//
// The default file is $XDG_CONFIG_HOME/chessnetviz/config.toml (or
// config.yaml / config.yml next to it). Keys missing from the file keep
// their defaults; command-line flags override whatever the file sets.
//
//	[viewport]
//	width = 1600
//	height = 900
//
//	[layout]
//	default = "radial"
//
//	[layout.params.spiral]
//	coils = 5
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/abid8042/chessnetviz/pkg/dataset"
	"github.com/abid8042/chessnetviz/pkg/errors"
	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/layout"
	"github.com/abid8042/chessnetviz/pkg/pipeline"
	"github.com/abid8042/chessnetviz/pkg/scene"
)

// Config holds every configurable setting.
type Config struct {
	Viewport   ViewportConfig   `json:"viewport" toml:"viewport" yaml:"viewport"`
	Layout     LayoutConfig     `json:"layout" toml:"layout" yaml:"layout"`
	Style      StyleConfig      `json:"style" toml:"style" yaml:"style"`
	Sort       graph.SortConfig `json:"sort" toml:"sort" yaml:"sort"`
	Filters    FiltersConfig    `json:"filters" toml:"filters" yaml:"filters"`
	Simulation SimulationConfig `json:"simulation" toml:"simulation" yaml:"simulation"`
	Cache      CacheConfig      `json:"cache" toml:"cache" yaml:"cache"`
	Server     ServerConfig     `json:"server" toml:"server" yaml:"server"`
}

// ViewportConfig is the render area in pixels.
type ViewportConfig struct {
	Width  float64 `json:"width" toml:"width" yaml:"width" validate:"gt=0"`
	Height float64 `json:"height" toml:"height" yaml:"height" validate:"gt=0"`
}

// LayoutConfig selects the default layout and its parameters.
type LayoutConfig struct {
	Default string        `json:"default" toml:"default" yaml:"default" validate:"oneof=force-directed radial spiral"`
	Params  layout.Params `json:"params" toml:"params" yaml:"params"`
}

// StyleConfig selects node coloring.
type StyleConfig struct {
	Coloring string `json:"coloring" toml:"coloring" yaml:"coloring"`
	Palette  string `json:"palette" toml:"palette" yaml:"palette" validate:"oneof=viridis magma plasma cividis cool blues"`
}

// FiltersConfig holds filter defaults.
type FiltersConfig struct {
	// Missing is the missing-metric policy: "exclude-when-narrowed" or "include".
	Missing string `json:"missing" toml:"missing" yaml:"missing" validate:"oneof=exclude-when-narrowed exclude include"`
}

// SimulationConfig bounds headless simulation runs.
type SimulationConfig struct {
	MaxTicks int   `json:"max_ticks" toml:"max_ticks" yaml:"max_ticks" validate:"gte=1"`
	Seed     int64 `json:"seed" toml:"seed" yaml:"seed"`
}

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend       string        `json:"backend" toml:"backend" yaml:"backend" validate:"oneof=file redis none"`
	Dir           string        `json:"dir" toml:"dir" yaml:"dir"`
	RedisAddr     string        `json:"redis_addr" toml:"redis_addr" yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string        `json:"redis_password" toml:"redis_password" yaml:"redis_password"`
	RedisDB       int           `json:"redis_db" toml:"redis_db" yaml:"redis_db" validate:"gte=0"`
	Prefix        string        `json:"prefix" toml:"prefix" yaml:"prefix"`
	TTL           time.Duration `json:"ttl" toml:"ttl" yaml:"ttl" validate:"gte=0"`
}

// ServerConfig configures `chessnetviz serve`.
type ServerConfig struct {
	Addr           string `json:"addr" toml:"addr" yaml:"addr" validate:"required"`
	DataDir        string `json:"data_dir" toml:"data_dir" yaml:"data_dir"`
	Watch          bool   `json:"watch" toml:"watch" yaml:"watch"`
	MaxUploadBytes int64  `json:"max_upload_bytes" toml:"max_upload_bytes" yaml:"max_upload_bytes" validate:"gt=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Viewport: ViewportConfig{Width: pipeline.DefaultWidth, Height: pipeline.DefaultHeight},
		Layout: LayoutConfig{
			Default: string(pipeline.DefaultLayout),
			Params:  layout.DefaultParams(),
		},
		Style: StyleConfig{
			Coloring: scene.DefaultColoring.ID(),
			Palette:  string(scene.DefaultPalette),
		},
		Sort:       graph.DefaultSort,
		Filters:    FiltersConfig{Missing: dataset.ExcludeWhenNarrowed.String()},
		Simulation: SimulationConfig{MaxTicks: pipeline.DefaultMaxTicks, Seed: pipeline.DefaultSeed},
		Cache:      CacheConfig{Backend: CacheFile, Prefix: "chessnetviz:", TTL: 7 * 24 * time.Hour},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			MaxUploadBytes: 32 << 20,
		},
	}
}

// Dir returns the chessnetviz config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "chessnetviz")
}

// DefaultPath returns the first existing config file in Dir, preferring
// TOML, or the TOML path when none exists.
func DefaultPath() string {
	dir := Dir()
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(dir, "config.toml")
}

// Load reads the config at path, or DefaultPath when path is empty. A
// missing default file yields the defaults; a missing explicit file is an
// error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if err := Decode(data, formatOf(path), cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Format is a config file syntax.
type Format string

// Config file formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatTOML
}

// Decode parses data in format f over cfg, keeping values for absent keys.
func Decode(data []byte, f Format, cfg *Config) error {
	if f == FormatYAML {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return err
		}
		return nil
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "unknown config key %q", undecoded[0].String())
	}
	return nil
}

// Validate checks tag constraints, layout parameter ranges, the coloring
// and the sort key.
func (c *Config) Validate() error {
	if err := errors.ValidateStruct(errors.ErrCodeInvalidInput, c); err != nil {
		return err
	}
	if err := c.Layout.Params.Validate(); err != nil {
		return err
	}
	if _, err := scene.ParseColoring(c.Style.Coloring); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "style.coloring")
	}
	if _, err := graph.ParseSort(c.Sort.Key + ":" + string(c.Sort.Order)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "sort")
	}
	return nil
}

// Save writes cfg to path in the format its extension names.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if formatOf(path) == FormatYAML {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	} else if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// LayoutParams returns the configured parameters of layout t.
func (c *Config) LayoutParams(t graph.LayoutType) map[string]float64 {
	return c.Layout.Params.Values(t)
}

// PipelineOptions returns pipeline options seeded from the config. The
// layout's full parameter record is passed as overrides so a run reproduces
// the configured values exactly.
func (c *Config) PipelineOptions() pipeline.Options {
	t := graph.LayoutType(c.Layout.Default)
	return pipeline.Options{
		Scope:    string(pipeline.DefaultScope),
		Layout:   c.Layout.Default,
		Params:   c.LayoutParams(t),
		Width:    c.Viewport.Width,
		Height:   c.Viewport.Height,
		MaxTicks: c.Simulation.MaxTicks,
		Seed:     c.Simulation.Seed,
		Sort:     c.Sort.Key + ":" + string(c.Sort.Order),
		Filters:  pipeline.FilterSpec{Missing: c.Filters.Missing},
		Coloring: c.Style.Coloring,
		Palette:  c.Style.Palette,
	}
}
