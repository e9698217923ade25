package chip8

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClearScreen(t *testing.T) {
	p := newTestProcessor(t, 0x00, 0xE0)
	for i := range p.display {
		p.display[i] = byte(i % 2)
	}

	info := step(t, p, 1)

	assert.Equal(t, Info(0), info)
	assert.Equal(t, make([]byte, Area), p.Display())
	assert.Empty(t, p.Pixels())
}

func TestDrawTwiceRestoresDisplay(t *testing.T) {
	// LD I, 300; LD V0, 0A; LD V1, 03; DRW V0, V1, 1; DRW V0, V1, 1
	p := newTestProcessor(t, 0xA3, 0x00, 0x60, 0x0A, 0x61, 0x03, 0xD0, 0x11, 0xD0, 0x11)
	p.Write(0x300, []byte{0xFF})
	p.display[0] = 1
	before := append([]byte(nil), p.Display()...)

	step(t, p, 3)
	info := step(t, p, 1)
	assert.Equal(t, Redraw, info)
	assert.Equal(t, byte(0), p.v[CarryFlag])
	for col := 10; col < 18; col++ {
		assert.True(t, p.Pixel(3, col))
	}

	info = step(t, p, 1)
	assert.Equal(t, Redraw, info)
	assert.Equal(t, byte(1), p.v[CarryFlag])
	assert.Equal(t, before, p.Display())
}

func TestDrawCollisionOnPartialOverlap(t *testing.T) {
	p := newTestProcessor(t)
	p.Write(0x300, []byte{0x80, 0x01})
	p.i = 0x300

	p.DrawSprite(0, 0, 1)
	assert.Equal(t, byte(0), p.v[CarryFlag])

	p.i = 0x301
	p.DrawSprite(0, 0, 1)
	assert.Equal(t, byte(0), p.v[CarryFlag], "disjoint bits must not collide")
	assert.True(t, p.Pixel(0, 0))
	assert.True(t, p.Pixel(0, 7))
}

func TestDrawClipsAtEdges(t *testing.T) {
	p := newTestProcessor(t)
	p.Write(0x300, []byte{0xFF, 0xFF, 0xFF, 0xFF})
	p.i = 0x300

	p.DrawSprite(60, 30, 4)

	assert.Equal(t, []Point{
		{30, 60}, {30, 61}, {30, 62}, {30, 63},
		{31, 60}, {31, 61}, {31, 62}, {31, 63},
	}, p.Pixels())

	// nothing wrapped to the opposite edges
	assert.False(t, p.Pixel(0, 0))
	assert.False(t, p.Pixel(30, 0))
	assert.False(t, p.Pixel(0, 60))
}

func TestDrawStartWrapsCoordinates(t *testing.T) {
	p := newTestProcessor(t)
	p.Write(0x300, []byte{0x80})
	p.i = 0x300

	p.DrawSprite(64+5, 32+2, 1)

	assert.Equal(t, []Point{{Row: 2, Col: 5}}, p.Pixels())
}

func TestDrawResetsCollisionFlag(t *testing.T) {
	p := newTestProcessor(t)
	p.v[CarryFlag] = 1
	p.i = 0x300

	p.DrawSprite(0, 0, 0)

	assert.Equal(t, byte(0), p.v[CarryFlag])
}

func TestScenarioSetAddClear(t *testing.T) {
	p := newTestProcessor(t, 0x60, 0x05, 0x70, 0x03, 0x00, 0x00)
	for i := range p.display {
		p.display[i] = 1
	}

	_, err := p.Cycle()
	require.NoError(t, err)
	assert.Equal(t, byte(5), p.Register(0))

	_, err = p.Cycle()
	require.NoError(t, err)
	assert.Equal(t, byte(8), p.Register(0))

	_, err = p.Cycle()
	require.NoError(t, err)
	assert.Equal(t, make([]byte, Area), p.Display())
	assert.Equal(t, uint16(0x206), p.ProgramCounter())
}

func TestScenarioDrawGlyphZero(t *testing.T) {
	p := newTestProcessor(t, 0xA0, 0x50, 0xF0, 0x29, 0xD0, 0x05)
	p.i = 0x123

	var info Info
	for range 3 {
		var err error
		info, err = p.Cycle()
		require.NoError(t, err)
	}

	assert.Equal(t, Redraw, info)
	assert.Equal(t, uint16(0x050), p.Index())
	assert.Equal(t, byte(0), p.v[CarryFlag])

	glyph := []byte{0xF0, 0x90, 0x90, 0x90, 0xF0}
	for row := range Height {
		for col := range Width {
			want := false
			if row < len(glyph) && col < 8 {
				want = glyph[row]&(0x80>>col) != 0
			}
			assert.Equal(t, want, p.Pixel(row, col), "pixel %d,%d", row, col)
		}
	}
}
