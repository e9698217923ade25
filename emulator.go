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

package chip8emu

import (
	"context"
	"log/slog"
	"time"

	"chip8emu/byteconv"
	"chip8emu/chip8"
	"chip8emu/render"
)

// Gate paces the loop. Tick reports whether a machine cycle may run now;
// Remaining is how long until it will.
type Gate interface {
	Tick() bool
	Remaining() time.Duration
}

type Emulator struct {
	cpu     *chip8.Processor
	gate    Gate
	surface render.Surface
	palette render.Palette
	alerter Alerter
	logger  *slog.Logger
	sleep   func(time.Duration)
}

type Option func(*Emulator)

func WithPalette(p render.Palette) Option {
	return func(e *Emulator) { e.palette = p }
}

func WithAlerter(a Alerter) Option {
	return func(e *Emulator) { e.alerter = a }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Emulator) { e.logger = l }
}

func New(cpu *chip8.Processor, gate Gate, surface render.Surface, opts ...Option) *Emulator {
	e := &Emulator{
		cpu:     cpu,
		gate:    gate,
		surface: surface,
		palette: render.DefaultPalette,
		alerter: Silent,
		logger:  slog.New(slog.DiscardHandler),
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run drives the processor until the surface asks to stop, ctx is done or
// the processor faults. Each iteration polls the surface, then, if the
// gate allows it, runs one cycle and forwards its side effects.
//
// The processor is terminated when Run returns.
func (e *Emulator) Run(ctx context.Context) error {
	defer e.stop()

	for {
		if !e.surface.Poll() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if !e.gate.Tick() {
			e.sleep(e.gate.Remaining())
			continue
		}

		info, err := e.cpu.Cycle()
		if err != nil {
			return err
		}

		if info&chip8.Redraw != 0 {
			render.Flush(e.surface, e.cpu.Pixels(), e.palette)
		}
		if info&chip8.Alert != 0 {
			e.alerter.Alert()
		}
	}
}

func (e *Emulator) stop() {
	e.cpu.Terminate()
	e.logger.Info("emulator stopped",
		"pc", byteconv.Addr(e.cpu.ProgramCounter()),
		"unknown_opcodes", e.cpu.UnknownOpcodes())
}
