// Package termui presents the display in a text terminal. Output goes
// through goterm; keys are read from the tty in raw mode.
//
// Terminals report key presses but not releases, so a key counts as held
// for a short time after its last press. Auto-repeat keeps it held.
package termui

import (
	"errors"
	"image/color"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"chip8emu/chip8"
	"chip8emu/config"
	"chip8emu/render"

	tm "github.com/buger/goterm"
	"github.com/pkg/term"
	"golang.org/x/sys/unix"
)

const (
	holdTime    = 150 * time.Millisecond
	readTimeout = 50 * time.Millisecond

	keyCtrlC  = 0x03
	keyEscape = 0x1b

	fullBlock = '█'
)

// Size used when the output is not a terminal.
const (
	fallbackWidth  = 2 * chip8.Width
	fallbackHeight = chip8.Height
)

type Surface struct {
	tty    *term.Term
	keymap config.Keymap
	grid   *grid

	held   [chip8.KeyCount]atomic.Int64
	closed atomic.Bool
	done   chan struct{}
	wg     sync.WaitGroup
	now    func() time.Time
}

var (
	_ render.Surface = (*Surface)(nil)
	_ chip8.Keypad   = (*Surface)(nil)
)

// New puts the controlling terminal into raw mode. Close restores it.
func New(keymap config.Keymap) (*Surface, error) {
	tty, err := term.Open("/dev/tty", term.RawMode)
	if err != nil {
		return nil, err
	}
	if err := tty.SetReadTimeout(readTimeout); err != nil {
		_ = tty.Restore()
		_ = tty.Close()
		return nil, err
	}

	width, height := geometry(os.Stdout)
	s := &Surface{
		tty:    tty,
		keymap: keymap,
		grid:   newGrid(width, height),
		done:   make(chan struct{}),
		now:    time.Now,
	}

	tm.Clear()

	s.wg.Add(1)
	go s.readKeys()

	return s, nil
}

// geometry returns the size of the output terminal in character cells,
// leaving the last row free so the cursor does not scroll the screen.
func geometry(f *os.File) (int, int) {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 || ws.Row < 2 {
		return fallbackWidth, fallbackHeight
	}
	return int(ws.Col), int(ws.Row) - 1
}

func (s *Surface) readKeys() {
	defer s.wg.Done()

	buf := make([]byte, 16)
	for {
		select {
		case <-s.done:
			return
		default:
		}

		// a read timeout is reported as io.EOF
		n, err := s.tty.Read(buf)
		s.handleInput(buf[:n])
		if err != nil && !errors.Is(err, io.EOF) {
			return
		}
	}
}

func (s *Surface) handleInput(b []byte) {
	for _, c := range b {
		switch c {
		case keyCtrlC, keyEscape:
			s.closed.Store(true)
			continue
		}
		if key, ok := s.keymap.Lookup(string(rune(c))); ok {
			s.held[key].Store(s.now().Add(holdTime).UnixNano())
		}
	}
}

func (s *Surface) IsPressed(key uint8) bool {
	return s.now().UnixNano() < s.held[key&0x0F].Load()
}

func (s *Surface) LogicalWidth() int  { return s.grid.width }
func (s *Surface) LogicalHeight() int { return s.grid.height }

// Clear blanks the grid. Terminal cells are drawn without color.
func (s *Surface) Clear(color.Color) {
	s.grid.clear()
}

func (s *Surface) DrawFilledRects(rects []render.Rect, _ color.Color) {
	for _, r := range rects {
		s.grid.fill(r)
	}
}

func (s *Surface) Present() {
	tm.MoveCursor(1, 1)
	tm.Print(s.grid.String())
	tm.Flush()
}

func (s *Surface) Poll() bool {
	return !s.closed.Load()
}

// Close stops the key reader and restores the terminal.
func (s *Surface) Close() error {
	close(s.done)
	s.wg.Wait()

	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()

	return errors.Join(s.tty.Restore(), s.tty.Close())
}

type grid struct {
	width, height int
	cells         []rune
}

func newGrid(width, height int) *grid {
	g := &grid{
		width:  width,
		height: height,
		cells:  make([]rune, width*height),
	}
	g.clear()
	return g
}

func (g *grid) clear() {
	for i := range g.cells {
		g.cells[i] = ' '
	}
}

func (g *grid) fill(r render.Rect) {
	for y := max(r.Y, 0); y < min(r.Y+r.H, g.height); y++ {
		for x := max(r.X, 0); x < min(r.X+r.W, g.width); x++ {
			g.cells[y*g.width+x] = fullBlock
		}
	}
}

// String renders the grid as lines joined with CRLF, since raw mode
// disables newline translation.
func (g *grid) String() string {
	var sb strings.Builder
	for y := range g.height {
		if y > 0 {
			sb.WriteString("\r\n")
		}
		sb.WriteString(string(g.cells[y*g.width : (y+1)*g.width]))
	}
	return sb.String()
}
