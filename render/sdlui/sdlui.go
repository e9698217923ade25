// Package sdlui presents the display in an SDL2 window.
package sdlui

import (
	"fmt"
	"image/color"

	"chip8emu/chip8"
	"chip8emu/config"
	"chip8emu/render"

	"github.com/veandco/go-sdl2/sdl"
)

type Surface struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	width    int
	height   int

	scancodes [chip8.KeyCount]sdl.Scancode
	quit      bool
	rects     []sdl.Rect
}

var (
	_ render.Surface = (*Surface)(nil)
	_ chip8.Keypad   = (*Surface)(nil)
)

// New opens the window. SDL must be driven from the thread that created it:
// call New and run the emulator loop on the main goroutine, locked to the
// main OS thread with runtime.LockOSThread in an init function.
func New(title string, width, height int, keymap config.Keymap) (*Surface, error) {
	s := &Surface{
		width:  width,
		height: height,
	}
	for i, name := range keymap {
		sc := sdl.GetScancodeFromName(name)
		if sc == sdl.SCANCODE_UNKNOWN {
			return nil, fmt.Errorf("%w: sdl has no scancode for key %q", config.ErrInvalid, name)
		}
		s.scancodes[i] = sc
	}

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("failed to initialize SDL2: %w", err)
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(width), int32(height), sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	s.renderer = renderer

	return s, nil
}

// Close cleans up the resources.
func (s *Surface) Close() {
	if s.renderer != nil {
		_ = s.renderer.Destroy()
		s.renderer = nil
	}
	if s.window != nil {
		_ = s.window.Destroy()
		s.window = nil
	}
	sdl.Quit()
}

func (s *Surface) LogicalWidth() int  { return s.width }
func (s *Surface) LogicalHeight() int { return s.height }

func (s *Surface) setColor(c color.Color) {
	r, g, b, a := c.RGBA()
	_ = s.renderer.SetDrawColor(uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8))
}

func (s *Surface) Clear(c color.Color) {
	s.setColor(c)
	_ = s.renderer.Clear()
}

func (s *Surface) DrawFilledRects(rects []render.Rect, c color.Color) {
	if len(rects) == 0 {
		return
	}
	s.rects = s.rects[:0]
	for _, r := range rects {
		s.rects = append(s.rects, sdl.Rect{X: int32(r.X), Y: int32(r.Y), W: int32(r.W), H: int32(r.H)})
	}
	s.setColor(c)
	_ = s.renderer.FillRects(s.rects)
}

func (s *Surface) Present() {
	s.renderer.Present()
}

// Poll drains pending window events.
func (s *Surface) Poll() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch ev := event.(type) {
		case *sdl.QuitEvent:
			s.quit = true
		case *sdl.KeyboardEvent:
			if ev.Type == sdl.KEYDOWN && ev.Keysym.Scancode == sdl.SCANCODE_ESCAPE {
				s.quit = true
			}
		}
	}
	return !s.quit
}

func (s *Surface) IsPressed(key uint8) bool {
	state := sdl.GetKeyboardState()
	return state[s.scancodes[key&0x0F]] != 0
}
