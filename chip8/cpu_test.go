package chip8

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeys map[uint8]bool

func (k fakeKeys) IsPressed(key uint8) bool { return k[key] }

func newTestProcessor(t *testing.T, program ...byte) *Processor {
	t.Helper()
	p, err := New(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, p.Load(program))
	return p
}

func step(t *testing.T, p *Processor, n int) Info {
	t.Helper()
	var info Info
	for range n {
		var err error
		info, err = p.Step()
		require.NoError(t, err)
	}
	return info
}

func TestNewWritesFont(t *testing.T) {
	p := newTestProcessor(t)

	font := make([]byte, len(fontSet))
	p.Read(FontStartAddress, font)
	assert.Equal(t, fontSet[:], font)
	assert.Equal(t, uint16(ProgramStartAddress), p.ProgramCounter())
	assert.Equal(t, Running, p.State())
	assert.Equal(t, 0, p.StackDepth())
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FontBase = 0xFF0
	_, err := New(cfg)
	assert.ErrorIs(t, err, errFontDoesNotFit)

	cfg = DefaultConfig()
	cfg.StackDepth = 0
	_, err = New(cfg)
	assert.ErrorIs(t, err, errInvalidStackSize)
}

func TestCustomFont(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FontBase = 0x000
	cfg.Font = make([]byte, 16*GlyphHeight)
	cfg.Font[5*GlyphHeight] = 0xAA

	p, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, p.Load([]byte{0x60, 0x05, 0xF0, 0x29}))
	step(t, p, 2)

	assert.Equal(t, uint16(5*GlyphHeight), p.Index())
	assert.Equal(t, byte(0xAA), p.load(p.Index()))
}

func TestLoad(t *testing.T) {
	p := newTestProcessor(t)

	require.NoError(t, p.Load(make([]byte, MaxProgramSize)))

	err := p.Load(make([]byte, MaxProgramSize+1))
	assert.ErrorIs(t, err, ErrProgramTooLarge)
}

func TestReset(t *testing.T) {
	p := newTestProcessor(t, 0x60, 0x05, 0x22, 0x00)
	step(t, p, 2)
	p.Reset()

	assert.Equal(t, byte(0), p.Register(0))
	assert.Equal(t, 0, p.StackDepth())
	assert.Equal(t, uint16(ProgramStartAddress), p.ProgramCounter())
	assert.Equal(t, Opcode(0), p.OpcodeAt(ProgramStartAddress))
	assert.Equal(t, fontSet[0], p.load(FontStartAddress))
}

func TestCycleDecrementsDelay(t *testing.T) {
	// LD V0, 03; LD DT, V0; JP 204
	p := newTestProcessor(t, 0x60, 0x03, 0xF0, 0x15, 0x12, 0x04)

	_, err := p.Cycle()
	require.NoError(t, err)
	_, err = p.Cycle()
	require.NoError(t, err)
	assert.Equal(t, uint8(3), p.Delay())

	for _, want := range []uint8{2, 1, 0, 0} {
		_, err = p.Cycle()
		require.NoError(t, err)
		assert.Equal(t, want, p.Delay())
	}
}

func TestCycleReadsDelayAfterDecrement(t *testing.T) {
	// LD V0, 02; LD DT, V0; LD V1, DT
	p := newTestProcessor(t, 0x60, 0x02, 0xF0, 0x15, 0xF1, 0x07)
	for range 3 {
		_, err := p.Cycle()
		require.NoError(t, err)
	}
	assert.Equal(t, byte(1), p.Register(1))
}

func TestStackFaults(t *testing.T) {
	t.Run("underflow", func(t *testing.T) {
		p := newTestProcessor(t, 0x00, 0xEE)
		_, err := p.Step()
		assert.ErrorIs(t, err, ErrStackUnderflow)
		assert.Equal(t, Terminated, p.State())

		_, err = p.Step()
		assert.ErrorIs(t, err, ErrTerminated)
	})

	t.Run("overflow", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.StackDepth = 4
		p, err := New(cfg)
		require.NoError(t, err)
		// CALL 200 recurses forever
		require.NoError(t, p.Load([]byte{0x22, 0x00}))

		for range 4 {
			_, err = p.Step()
			require.NoError(t, err)
		}
		assert.Equal(t, 4, p.StackDepth())

		_, err = p.Step()
		assert.ErrorIs(t, err, ErrStackOverflow)
		assert.Equal(t, Terminated, p.State())
	})
}

func TestTerminate(t *testing.T) {
	p := newTestProcessor(t, 0x60, 0x01)
	p.Terminate()

	_, err := p.Cycle()
	assert.ErrorIs(t, err, ErrTerminated)
	assert.Equal(t, byte(0), p.Register(0))
}

func TestSnapshot(t *testing.T) {
	p := newTestProcessor(t, 0x6A, 0x07, 0x22, 0x06, 0x00, 0x00, 0x12, 0x06)
	step(t, p, 2)

	s := p.Snapshot()
	assert.Equal(t, uint16(0x206), s.PC)
	assert.Equal(t, byte(7), s.V[0xA])
	assert.Equal(t, []uint16{0x204}, s.Stack)
	assert.Equal(t, "running", s.State)
	assert.Equal(t, "JP 206", s.Opcode)

	s.Stack[0] = 0
	assert.Equal(t, []uint16{0x204}, p.Snapshot().Stack)
}

func TestUnknownOpcodeIsSkipped(t *testing.T) {
	programs := [][]byte{
		{0x01, 0x23},
		{0x81, 0x28},
		{0xE1, 0x00},
		{0xF1, 0xFF},
	}

	for _, program := range programs {
		p := newTestProcessor(t, program...)
		p.v[1] = 0x42
		before := p.v

		info := step(t, p, 1)

		assert.Equal(t, Info(0), info)
		assert.Equal(t, before, p.v)
		assert.Equal(t, uint16(ProgramStartAddress+2), p.ProgramCounter())
		assert.Equal(t, 1, p.UnknownOpcodes())
		assert.Equal(t, Running, p.State())
	}
}

func TestMemoryWrapsAt4K(t *testing.T) {
	// LD I, FFF; LD V0, 07; LD V1, 09; LD [I], V1
	p := newTestProcessor(t, 0xAF, 0xFF, 0x60, 0x07, 0x61, 0x09, 0xF1, 0x55)
	step(t, p, 4)

	assert.Equal(t, byte(0x07), p.memory[0xFFF])
	assert.Equal(t, byte(0x09), p.memory[0x000])
}

func TestWriteAndRead(t *testing.T) {
	p := newTestProcessor(t)

	assert.Equal(t, 2, p.Write(0xFFE, []byte{1, 2, 3}))
	assert.Equal(t, 0, p.Write(MemorySize, []byte{1}))

	buf := make([]byte, 4)
	assert.Equal(t, 2, p.Read(0xFFE, buf))
	assert.Equal(t, []byte{1, 2, 0, 0}, buf)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "awaiting key", AwaitingKey.String())
	assert.Equal(t, "terminated", Terminated.String())
}
