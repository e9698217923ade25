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

// Package fyneui presents the display in a fyne window.
package fyneui

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"sync/atomic"

	"chip8emu/chip8"
	"chip8emu/config"
	"chip8emu/render"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"golang.org/x/sync/errgroup"
)

var errNoDesktop = errors.New("fyne surface needs a desktop canvas")

type Surface struct {
	app    fyne.App
	window fyne.Window
	raster *canvas.Raster

	// back is painted by the emulator loop, front is read by the fyne
	// render thread.
	back  *image.RGBA
	mu    sync.Mutex
	front *image.RGBA

	keymap config.Keymap
	keys   chip8.KeyState
	closed atomic.Bool
}

var (
	_ render.Surface = (*Surface)(nil)
	_ chip8.Keypad   = (*Surface)(nil)
)

func New(title string, width, height int, keymap config.Keymap) (*Surface, error) {
	s := &Surface{
		app:    app.New(),
		back:   image.NewRGBA(image.Rect(0, 0, width, height)),
		front:  image.NewRGBA(image.Rect(0, 0, width, height)),
		keymap: keymap,
	}
	s.window = s.app.NewWindow(title)

	canv, ok := s.window.Canvas().(desktop.Canvas) // Extension that exposes OnKeyUp event
	if !ok {
		return nil, errNoDesktop
	}
	canv.SetOnKeyDown(s.onKeyDown)
	canv.SetOnKeyUp(s.onKeyUp)

	s.raster = canvas.NewRaster(s.frame)
	s.raster.ScaleMode = canvas.ImageScalePixels // Maintains "pixelated" retro look
	s.raster.SetMinSize(fyne.NewSize(float32(width), float32(height)))

	s.window.SetContent(s.raster)
	s.window.Resize(fyne.NewSize(float32(width), float32(height)))
	s.window.SetFixedSize(true)
	s.window.SetOnClosed(func() {
		s.closed.Store(true)
	})

	return s, nil
}

func (s *Surface) onKeyDown(k *fyne.KeyEvent) {
	if key, ok := s.keymap.Lookup(string(k.Name)); ok {
		s.keys.Set(key, true)
	}
}

func (s *Surface) onKeyUp(k *fyne.KeyEvent) {
	if k.Name == fyne.KeyEscape {
		s.window.Close()
		return
	}
	if key, ok := s.keymap.Lookup(string(k.Name)); ok {
		s.keys.Set(key, false)
	}
}

func (s *Surface) frame(_, _ int) image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()

	img := image.NewRGBA(s.front.Rect)
	copy(img.Pix, s.front.Pix)
	return img
}

func (s *Surface) IsPressed(key uint8) bool {
	return s.keys.IsPressed(key)
}

func (s *Surface) LogicalWidth() int {
	return s.back.Rect.Dx()
}

func (s *Surface) LogicalHeight() int {
	return s.back.Rect.Dy()
}

func (s *Surface) Clear(c color.Color) {
	draw.Draw(s.back, s.back.Rect, image.NewUniform(c), image.Point{}, draw.Src)
}

func (s *Surface) DrawFilledRects(rects []render.Rect, c color.Color) {
	src := image.NewUniform(c)
	for _, r := range rects {
		draw.Draw(s.back, image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H), src, image.Point{}, draw.Src)
	}
}

func (s *Surface) Present() {
	s.mu.Lock()
	copy(s.front.Pix, s.back.Pix)
	s.mu.Unlock()

	fyne.Do(s.raster.Refresh)
}

func (s *Surface) Poll() bool {
	return !s.closed.Load()
}

// Run shows the window and runs loop on another goroutine. Fyne owns the
// calling goroutine until the window is closed or loop returns.
func (s *Surface) Run(loop func() error) error {
	var g errgroup.Group

	g.Go(func() error {
		defer fyne.Do(s.app.Quit)
		return loop()
	})

	s.window.ShowAndRun()
	s.closed.Store(true)
	s.keys.Release()

	return g.Wait()
}
