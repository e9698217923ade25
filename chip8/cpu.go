package chip8

import (
	"chip8emu/byteconv"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
)

const (
	MemorySize          = 4096
	AddressMask         = 0xFFF
	RegisterCount       = 16
	KeyCount            = 16
	FontStartAddress    = 0x50
	GlyphHeight         = 5
	ProgramStartAddress = 0x200
	MaxProgramSize      = MemorySize - ProgramStartAddress
	CarryFlag           = 0xF
	DefaultStackDepth   = 16

	Width  int = 64
	Height int = 32
	Area   int = Width * Height
)

// Info reports the side effects of a single step.
type Info uint8

const (
	Redraw Info = 1 << iota
	Alert
	Waiting
)

// State is the execution state of the engine.
type State uint8

const (
	Running State = iota
	AwaitingKey
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case AwaitingKey:
		return "awaiting key"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

var (
	ErrStackOverflow    = errors.New("call stack overflow")
	ErrStackUnderflow   = errors.New("return with empty call stack")
	ErrProgramTooLarge  = errors.New("program does not fit in memory")
	ErrUnknownOpcode    = errors.New("unknown opcode")
	ErrTerminated       = errors.New("processor terminated")
	errFontDoesNotFit   = errors.New("font does not fit in memory")
	errInvalidStackSize = errors.New("stack depth must be positive")
)

// Keypad reports whether a logical key (0x0-0xF) is held.
type Keypad interface {
	IsPressed(key uint8) bool
}

type noKeys struct{}

func (noKeys) IsPressed(uint8) bool { return false }

// Config is the immutable machine configuration handed to New.
type Config struct {
	// Font is copied to FontBase on reset. Glyphs are GlyphHeight bytes each.
	Font     []byte
	FontBase uint16

	StackDepth int
	Keypad     Keypad

	// Rand supplies the bytes used by CXNN.
	Rand func() byte

	Logger *slog.Logger

	// WaitAnyKey makes FX0A resume on any held key and store its value.
	// Otherwise only logical key 0 is watched and VX is set to 0.
	WaitAnyKey bool
}

// DefaultConfig returns the base machine: built-in font at 0x050, a 16
// entry stack and no keys held.
func DefaultConfig() Config {
	return Config{
		Font:       DefaultFont(),
		FontBase:   FontStartAddress,
		StackDepth: DefaultStackDepth,
	}
}

type Processor struct {
	memory  [MemorySize]byte
	v       [RegisterCount]byte
	display [Area]byte
	stack   []uint16
	pc      uint16
	i       uint16
	delay   uint8
	state   State
	waitReg uint8
	unknown int

	font       []byte
	fontBase   uint16
	keypad     Keypad
	rand       func() byte
	log        *slog.Logger
	waitAnyKey bool
}

func New(cfg Config) (*Processor, error) {
	if cfg.Font == nil {
		cfg.Font = DefaultFont()
	}
	if int(cfg.FontBase)+len(cfg.Font) > MemorySize {
		return nil, errFontDoesNotFit
	}
	if cfg.StackDepth <= 0 {
		return nil, errInvalidStackSize
	}

	p := &Processor{
		stack:      make([]uint16, 0, cfg.StackDepth),
		font:       append([]byte(nil), cfg.Font...),
		fontBase:   cfg.FontBase,
		keypad:     cfg.Keypad,
		rand:       cfg.Rand,
		log:        cfg.Logger,
		waitAnyKey: cfg.WaitAnyKey,
	}
	if p.keypad == nil {
		p.keypad = noKeys{}
	}
	if p.rand == nil {
		p.rand = func() byte { return byte(rand.Uint32N(256)) }
	}
	if p.log == nil {
		p.log = slog.New(slog.DiscardHandler)
	}

	p.Reset()
	return p, nil
}

// Reset returns the machine to its power-on state. The font is rewritten
// and any loaded program is lost.
func (p *Processor) Reset() {
	clear(p.memory[:])
	clear(p.v[:])
	clear(p.display[:])

	p.stack = p.stack[:0]
	p.pc = ProgramStartAddress
	p.i = 0
	p.delay = 0
	p.state = Running
	p.waitReg = 0
	p.unknown = 0

	p.Write(p.fontBase, p.font)
}

// Write copies data into memory at loc, stopping at the end of memory. It
// returns the number of bytes written.
func (p *Processor) Write(loc uint16, data []byte) int {
	if int(loc) >= MemorySize {
		return 0
	}
	return copy(p.memory[loc:], data)
}

// Read fills data from memory at loc and returns the number of bytes read.
func (p *Processor) Read(loc uint16, data []byte) int {
	if int(loc) >= MemorySize {
		return 0
	}
	return copy(data, p.memory[loc:])
}

// Load copies a program image to ProgramStartAddress.
func (p *Processor) Load(b []byte) error {
	if len(b) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrProgramTooLarge, len(b), MaxProgramSize)
	}
	p.Write(ProgramStartAddress, b)
	p.log.Info("program loaded",
		"at", byteconv.Addr(ProgramStartAddress),
		"bytes", len(b))
	return nil
}

// Memory addressing through I or PC wraps at 4 KiB.
func (p *Processor) load(addr uint16) byte {
	return p.memory[addr&AddressMask]
}

func (p *Processor) store(addr uint16, b byte) {
	p.memory[addr&AddressMask] = b
}

func (p *Processor) OpcodeAt(addr uint16) Opcode {
	// opcode is a 16bit value, comprised of two contiguous 8bit values
	// in memory, high-order byte first
	high := uint16(p.load(addr))
	low := uint16(p.load(addr + 1))
	return Opcode((high << 8) | low)
}

func (p *Processor) ProgramCounter() uint16 { return p.pc }
func (p *Processor) Index() uint16          { return p.i }
func (p *Processor) Delay() uint8           { return p.delay }
func (p *Processor) StackDepth() int        { return len(p.stack) }
func (p *Processor) State() State           { return p.state }

// UnknownOpcodes counts the undecodable instructions skipped since reset.
func (p *Processor) UnknownOpcodes() int { return p.unknown }

func (p *Processor) Register(x uint8) byte {
	return p.v[x&0xF]
}

// Snapshot is a copy of the machine registers.
type Snapshot struct {
	PC      uint16
	I       uint16
	Delay   uint8
	State   string
	V       [RegisterCount]byte
	Stack   []uint16
	Unknown int
	Opcode  string
}

func (p *Processor) Snapshot() Snapshot {
	return Snapshot{
		PC:      p.pc,
		I:       p.i,
		Delay:   p.delay,
		State:   p.state.String(),
		V:       p.v,
		Stack:   append([]uint16(nil), p.stack...),
		Unknown: p.unknown,
		Opcode:  p.OpcodeAt(p.pc).String(),
	}
}

// Terminate stops the processor. Further steps return ErrTerminated.
func (p *Processor) Terminate() {
	p.state = Terminated
}

// Cycle runs one gated machine cycle: the delay timer is decremented if
// positive, then one instruction is executed.
func (p *Processor) Cycle() (Info, error) {
	if p.state == Terminated {
		return 0, ErrTerminated
	}
	if p.delay > 0 {
		p.delay--
	}
	return p.Step()
}

// Step executes the instruction at the program counter. While awaiting a
// key no instruction is fetched; the step only checks for the key.
//
// Faults (stack overflow or underflow) terminate the processor. Unknown
// opcodes are logged and skipped.
func (p *Processor) Step() (Info, error) {
	switch p.state {
	case Terminated:
		return 0, ErrTerminated
	case AwaitingKey:
		return p.resumeWait(), nil
	}

	addr := p.pc
	op := p.OpcodeAt(addr)
	p.pc += 2

	if p.log.Enabled(context.Background(), slog.LevelDebug) {
		p.log.Debug("exec",
			"pc", byteconv.Addr(addr),
			"op", byteconv.Word(uint16(op), 4),
			"asm", op.String())
	}

	var info Info
	err := p.execute(op, &info)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownOpcode):
		p.unknown++
		p.log.Warn("unknown opcode",
			"pc", byteconv.Addr(addr),
			"op", byteconv.Word(uint16(op), 4))
	default:
		p.state = Terminated
		return info, fmt.Errorf("%s at %s: %w", op, byteconv.Addr(addr), err)
	}
	return info, nil
}

func (p *Processor) heldKey() (uint8, bool) {
	if !p.waitAnyKey {
		return 0, p.keypad.IsPressed(0)
	}
	for key := range uint8(KeyCount) {
		if p.keypad.IsPressed(key) {
			return key, true
		}
	}
	return 0, false
}

func (p *Processor) resumeWait() Info {
	key, ok := p.heldKey()
	if !ok {
		return Waiting
	}
	p.v[p.waitReg] = key
	p.state = Running
	return 0
}

func (p *Processor) push(addr uint16) error {
	if len(p.stack) == cap(p.stack) {
		return ErrStackOverflow
	}
	p.stack = append(p.stack, addr)
	return nil
}

func (p *Processor) pop() (uint16, error) {
	if len(p.stack) == 0 {
		return 0, ErrStackUnderflow
	}
	addr := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	return addr, nil
}
