/*
 * Copyright 2026 Joshua Jones <joshua.jones.software@gmail.com>
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      www.apache.org
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"chip8emu"
	"chip8emu/chip8"
	"chip8emu/clock"
	"chip8emu/config"
	"chip8emu/render"
	"chip8emu/render/fyneui"
	"chip8emu/render/sdlui"
	"chip8emu/render/termui"
	"chip8emu/sound"
)

// SDL and fyne must run on the main OS thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 1
	}

	cfg, err := opts.config()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	rom, err := os.ReadFile(opts.rom)
	if err != nil {
		logger.Error("cannot read program", "err", err)
		return 1
	}

	if opts.statsview != "" {
		launchStatsview(opts.statsview, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := &machine{
		cfg:    cfg,
		rom:    rom,
		title:  "CHIP-8 - " + filepath.Base(opts.rom),
		logger: logger,
	}
	err = m.start(ctx)
	if stoppedCleanly(err) && opts.memviz != "" {
		err = dumpState(opts.memviz, m.cpu)
	}
	if !stoppedCleanly(err) {
		logger.Error("emulator failed", "err", err)
		return 1
	}
	return 0
}

// stoppedCleanly reports whether the emulator ended by request: the
// surface was closed or the process was interrupted.
func stoppedCleanly(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

type machine struct {
	cfg    config.Config
	rom    []byte
	title  string
	logger *slog.Logger
	cpu    *chip8.Processor
}

// start opens the configured surface and runs the program on it until the
// surface is closed.
func (m *machine) start(ctx context.Context) error {
	width, height := m.cfg.WindowSize()

	switch m.cfg.Backend {
	case config.BackendFyne:
		s, err := fyneui.New(m.title, width, height, m.cfg.Keys)
		if err != nil {
			return err
		}
		return s.Run(func() error {
			return m.run(ctx, s, s)
		})

	case config.BackendSDL:
		s, err := sdlui.New(m.title, width, height, m.cfg.Keys)
		if err != nil {
			return err
		}
		defer s.Close()
		return m.run(ctx, s, s)

	case config.BackendTerm:
		s, err := termui.New(m.cfg.Keys)
		if err != nil {
			return err
		}
		err = m.run(ctx, s, s)
		return errors.Join(err, s.Close())
	}

	return fmt.Errorf("%w: backend %q", config.ErrInvalid, m.cfg.Backend)
}

func (m *machine) run(ctx context.Context, surface render.Surface, keys chip8.Keypad) error {
	cpu, err := chip8.New(chip8.Config{
		Font:       chip8.DefaultFont(),
		FontBase:   chip8.FontStartAddress,
		StackDepth: m.cfg.StackDepth,
		Keypad:     keys,
		Logger:     m.logger,
		WaitAnyKey: m.cfg.WaitAnyKey,
	})
	if err != nil {
		return err
	}
	if err := cpu.Load(m.rom); err != nil {
		return err
	}
	m.cpu = cpu

	alerter, closeAlerter := m.alerter()
	defer closeAlerter()

	e := chip8emu.New(cpu, clock.NewRegulator(m.cfg.Interval()), surface,
		chip8emu.WithPalette(render.Palette{
			Background: m.cfg.BackgroundColor(),
			Foreground: m.cfg.ForegroundColor(),
		}),
		chip8emu.WithAlerter(alerter),
		chip8emu.WithLogger(m.logger),
	)
	return e.Run(ctx)
}

// alerter opens the audio device. The terminal bell is used when audio
// cannot be played.
func (m *machine) alerter() (chip8emu.Alerter, func()) {
	audio := m.cfg.Audio
	if !audio.Enabled {
		return chip8emu.Silent, func() {}
	}

	bell := chip8emu.NewBell(os.Stdout)

	clip, err := m.clip()
	if err != nil {
		m.logger.Warn("using terminal bell for alerts", "err", err)
		return bell, func() {}
	}

	beep, err := chip8emu.OpenBeep(clip, m.logger)
	if err != nil {
		m.logger.Warn("using terminal bell for alerts", "err", err)
		return bell, func() {}
	}
	return beep, func() {
		if err := beep.Close(); err != nil {
			m.logger.Warn("audio shutdown", "err", err)
		}
	}
}

func (m *machine) clip() (sound.Sample, error) {
	audio := m.cfg.Audio
	if audio.Sample == "" {
		return chip8emu.NewTone(audio.Tone, time.Duration(audio.Length))
	}
	return sound.LoadClip(audio.Sample, time.Duration(audio.Length))
}
