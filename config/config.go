// Package config holds the emulator settings. Values start from Default and
// may be overridden by a TOML or YAML file and then by command line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chip8emu/chip8"
	"chip8emu/clock"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	BackendFyne = "fyne"
	BackendSDL  = "sdl"
	BackendTerm = "term"
)

var ErrInvalid = errors.New("invalid configuration")

// Duration decodes strings such as "1ms" from configuration files.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

type Audio struct {
	Enabled bool     `toml:"enabled" yaml:"enabled"`
	Tone    float64  `toml:"tone" yaml:"tone"`
	Length  Duration `toml:"length" yaml:"length"`
	// Sample replaces the tone with a .wav or .mp3 file.
	Sample string `toml:"sample" yaml:"sample"`
}

type Config struct {
	Backend    string   `toml:"backend" yaml:"backend"`
	Cycle      Duration `toml:"cycle" yaml:"cycle"`
	Scale      int      `toml:"scale" yaml:"scale"`
	Keys       Keymap   `toml:"keys" yaml:"keys"`
	WaitAnyKey bool     `toml:"wait_any_key" yaml:"wait_any_key"`
	StackDepth int      `toml:"stack_depth" yaml:"stack_depth"`
	Foreground string   `toml:"foreground" yaml:"foreground"`
	Background string   `toml:"background" yaml:"background"`
	LogLevel   string   `toml:"log_level" yaml:"log_level"`
	Audio      Audio    `toml:"audio" yaml:"audio"`
}

func Default() Config {
	return Config{
		Backend:    BackendFyne,
		Cycle:      Duration(clock.DefaultInterval),
		Scale:      10,
		Keys:       DefaultKeymap(),
		StackDepth: chip8.DefaultStackDepth,
		Foreground: "#FFFFFF",
		Background: "#000000",
		LogLevel:   "info",
		Audio: Audio{
			Enabled: true,
			Tone:    440,
			Length:  Duration(150 * time.Millisecond),
		},
	}
}

// Load reads path over the defaults. The decoder is picked by extension.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("%s: %w: unknown key %q", path, ErrInvalid, undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("%s: %w: unsupported file type", path, ErrInvalid)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendFyne, BackendSDL, BackendTerm:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalid, c.Backend)
	}
	if c.Cycle <= 0 {
		return fmt.Errorf("%w: cycle must be positive", ErrInvalid)
	}
	if c.Scale < 1 || c.Scale > 100 {
		return fmt.Errorf("%w: scale %d out of range 1-100", ErrInvalid, c.Scale)
	}
	if c.StackDepth < 1 || c.StackDepth > 256 {
		return fmt.Errorf("%w: stack depth %d out of range 1-256", ErrInvalid, c.StackDepth)
	}
	if err := c.Keys.Validate(); err != nil {
		return err
	}
	if _, err := parseColor(c.Foreground); err != nil {
		return err
	}
	if _, err := parseColor(c.Background); err != nil {
		return err
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: log level: %v", ErrInvalid, err)
	}
	if c.Audio.Tone <= 0 {
		return fmt.Errorf("%w: audio tone must be positive", ErrInvalid)
	}
	if c.Audio.Length <= 0 {
		return fmt.Errorf("%w: audio length must be positive", ErrInvalid)
	}
	return nil
}

func (c Config) Interval() time.Duration {
	return time.Duration(c.Cycle)
}

// WindowSize is the surface size in physical pixels.
func (c Config) WindowSize() (int, int) {
	return chip8.Width * c.Scale, chip8.Height * c.Scale
}

func (c Config) Level() slog.Level {
	var lvl slog.Level
	_ = lvl.UnmarshalText([]byte(c.LogLevel))
	return lvl
}

func (c Config) ForegroundColor() color.Color {
	clr, _ := parseColor(c.Foreground)
	return clr
}

func (c Config) BackgroundColor() color.Color {
	clr, _ := parseColor(c.Background)
	return clr
}

// parseColor accepts #RRGGBB.
func parseColor(s string) (color.NRGBA, error) {
	var r, g, b uint8
	if len(s) != 7 || s[0] != '#' {
		return color.NRGBA{}, fmt.Errorf("%w: color %q is not #RRGGBB", ErrInvalid, s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: color %q: %v", ErrInvalid, s, err)
	}
	return color.NRGBA{R: r, G: g, B: b, A: 0xFF}, nil
}
