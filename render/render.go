// Package render connects the display buffer to a presentation surface.
// The processor only reports which pixels are set; scaling them to the
// physical size of a surface happens here.
package render

import (
	"image/color"

	"chip8emu/chip8"
)

// Rect is a filled rectangle in surface coordinates.
type Rect struct {
	X, Y, W, H int
}

// Surface is a window or terminal the display is presented on.
type Surface interface {
	LogicalWidth() int
	LogicalHeight() int
	Clear(c color.Color)
	DrawFilledRects(rects []Rect, c color.Color)
	Present()
	// Poll handles pending events without blocking and reports whether
	// the emulator should keep running.
	Poll() bool
}

// Palette is the pair of colors used for unset and set pixels.
type Palette struct {
	Background color.Color
	Foreground color.Color
}

var DefaultPalette = Palette{
	Background: color.Black,
	Foreground: color.White,
}

// Scale returns the size of one display pixel on a surface of the given
// size. Each axis is at least one unit.
func Scale(width, height int) (int, int) {
	return max(width/chip8.Width, 1), max(height/chip8.Height, 1)
}

// Rects converts set pixels into one rectangle each.
func Rects(pixels []chip8.Point, width, height int) []Rect {
	sx, sy := Scale(width, height)

	rects := make([]Rect, 0, len(pixels))
	for _, p := range pixels {
		rects = append(rects, Rect{
			X: p.Col * sx,
			Y: p.Row * sy,
			W: sx,
			H: sy,
		})
	}
	return rects
}

// Flush repaints the surface from the set pixels.
func Flush(s Surface, pixels []chip8.Point, pal Palette) {
	rects := Rects(pixels, s.LogicalWidth(), s.LogicalHeight())

	s.Clear(pal.Background)
	s.DrawFilledRects(rects, pal.Foreground)
	s.Present()
}
