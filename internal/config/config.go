// Package config loads and saves nodegraph settings as TOML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds nodegraph configuration.
type Config struct {
	Editor EditorConfig `toml:"editor"`
	Server ServerConfig `toml:"server"`
	Render RenderConfig `toml:"render"`
	Log    LogConfig    `toml:"log"`
}

// EditorConfig controls the terminal editor.
type EditorConfig struct {
	CellWidth  float64 `toml:"cell_width"`  // world units per terminal column
	CellHeight float64 `toml:"cell_height"` // world units per terminal row
	Seed       bool    `toml:"seed"`        // start with the three demo nodes
}

// ServerConfig controls the websocket server.
type ServerConfig struct {
	Addr     string   `toml:"addr"`
	Origin   string   `toml:"origin"`   // allowed websocket origin; empty allows any
	Commands []string `toml:"commands"` // host commands clients may invoke
	Timeout  string   `toml:"timeout"`  // per-invocation limit, e.g. "10s"
}

// RenderConfig controls SVG/PNG export.
type RenderConfig struct {
	Format      string `toml:"format"` // "svg" or "png"
	Width       int    `toml:"width"`
	Height      int    `toml:"height"`
	FontSize    int    `toml:"font_size"`
	Supersample int    `toml:"supersample"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
	File  string `toml:"file"`  // empty means stderr for the CLI and discard for the editor
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Editor: EditorConfig{CellWidth: 10, CellHeight: 20, Seed: true},
		Server: ServerConfig{Addr: "127.0.0.1:8080", Timeout: "10s"},
		Render: RenderConfig{Format: "svg", Width: 1024, Height: 640, FontSize: 14, Supersample: 4},
		Log:    LogConfig{Level: "info"},
	}
}

// Dir returns the nodegraph config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "nodegraph")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config at path over the defaults. A missing file yields
// the defaults; an empty path means Path().
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Render.Format = strings.ToLower(cfg.Render.Format)
	return cfg, nil
}

// Save writes cfg to path, creating parent directories. An empty path
// means Path().
func Save(path string, cfg *Config) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// Supersample bounds accepted by Validate.
const (
	MinSupersample = 1
	MaxSupersample = 8
)

// Validate checks values that cannot be defaulted silently.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Render.Format) {
	case "svg", "png":
	default:
		return fmt.Errorf("render.format %q: want svg or png", c.Render.Format)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render size %dx%d must be positive", c.Render.Width, c.Render.Height)
	}
	if c.Render.Supersample < MinSupersample || c.Render.Supersample > MaxSupersample {
		return fmt.Errorf("render.supersample %d: want %d to %d", c.Render.Supersample, MinSupersample, MaxSupersample)
	}
	if c.Editor.CellWidth <= 0 || c.Editor.CellHeight <= 0 {
		return fmt.Errorf("editor cell size must be positive")
	}
	if _, err := c.Server.InvokeTimeout(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// InvokeTimeout parses Timeout. Empty means no limit.
func (s ServerConfig) InvokeTimeout() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, fmt.Errorf("server.timeout %q: %w", s.Timeout, err)
	}
	return d, nil
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", s, err)
	}
	return l, nil
}
