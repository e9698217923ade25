package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chip8emu/chip8"
	"chip8emu/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingROM(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 1, run(nil, &stderr))
	assert.Contains(t, stderr.String(), "usage: chip8emu")
}

func TestHelp(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"-h"}, &stderr))
	assert.Contains(t, stderr.String(), "-wait-any-key")
}

func TestUnreadableROM(t *testing.T) {
	var stderr bytes.Buffer
	code := run([]string{filepath.Join(t.TempDir(), "missing.ch8")}, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "cannot read program")
}

func TestFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chip8.toml")
	require.NoError(t, os.WriteFile(path, []byte("backend = \"sdl\"\nscale = 4\ncycle = \"3ms\"\n"), 0o644))

	opts, err := parseArgs([]string{"-config", path, "-scale", "2", "-mute", "-debug", "game.ch8"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "game.ch8", opts.rom)

	cfg, err := opts.config()
	require.NoError(t, err)

	assert.Equal(t, config.BackendSDL, cfg.Backend)
	assert.Equal(t, 2, cfg.Scale)
	assert.Equal(t, 3*time.Millisecond, cfg.Interval())
	assert.False(t, cfg.Audio.Enabled)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestKeysFlag(t *testing.T) {
	opts, err := parseArgs([]string{"-keys", "cosmac", "game.ch8"}, &bytes.Buffer{})
	require.NoError(t, err)

	cfg, err := opts.config()
	require.NoError(t, err)
	assert.Equal(t, config.CosmacKeymap(), cfg.Keys)

	opts.keys = "dvorak"
	_, err = opts.config()
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestStoppedCleanly(t *testing.T) {
	assert.True(t, stoppedCleanly(nil))
	assert.True(t, stoppedCleanly(fmt.Errorf("loop: %w", context.Canceled)))
	assert.False(t, stoppedCleanly(chip8.ErrStackUnderflow))
}

func TestBadFlagValue(t *testing.T) {
	opts, err := parseArgs([]string{"-backend", "vga", "game.ch8"}, &bytes.Buffer{})
	require.NoError(t, err)

	_, err = opts.config()
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestDumpState(t *testing.T) {
	cpu, err := chip8.New(chip8.DefaultConfig())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "state.dot")
	require.NoError(t, dumpState(path, cpu))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "digraph")
}
