package terminal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xyproto/vt"
	"golang.org/x/term"

	"github.com/antibyte/petbasic/pkg/logger"
	"github.com/antibyte/petbasic/pkg/petbasic"
	"github.com/antibyte/petbasic/pkg/petscii"
)

const rawFrame = 30 * time.Millisecond

// Raw shows the screen grid full screen on the alternate terminal screen and
// reads single keys from the TTY. Typed lines are edited on the grid itself.
type Raw struct {
	*petbasic.Screen

	tty    *vt.TTY
	canvas *vt.Canvas
	mu     sync.Mutex // canvas
	dirty  atomic.Bool
	cursor [2]int

	keys    chan byte
	done    chan struct{}
	wg      sync.WaitGroup
	timeout time.Duration

	// OnBreak is called for ^C and ESC (RUN/STOP).
	OnBreak func()
}

// NewRaw switches the terminal to raw mode. The grid is shrunk to the
// terminal size when the terminal is smaller.
func NewRaw(rows, cols int) (*Raw, error) {
	rows, cols = ScreenSize(rows, cols)
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		rows, cols = min(rows, h), min(cols, w)
	}
	tty, err := vt.NewTTY()
	if err != nil {
		return nil, fmt.Errorf("raw mode: %w", err)
	}
	vt.Init()
	r := &Raw{
		Screen:  petbasic.NewScreen(rows, cols),
		tty:     tty,
		canvas:  vt.NewCanvas(),
		keys:    make(chan byte, 64),
		done:    make(chan struct{}),
		timeout: keyTimeout(),
	}
	r.canvas.HideCursor()
	tty.SetTimeout(keyTimeout())
	r.Screen.SetObserver(r)
	r.repaint()

	r.wg.Add(2)
	go r.readKeys()
	go r.drawLoop()
	logger.Info(logger.AreaTerminal, "raw display %dx%d", cols, rows)
	return r, nil
}

// Close stops the key reader and restores the terminal.
func (r *Raw) Close() error {
	close(r.done)
	r.wg.Wait()
	r.tty.Close()
	vt.Close()
	fmt.Print(vt.Stop())
	fmt.Println()
	return nil
}

func (r *Raw) readKeys() {
	defer r.wg.Done()
	pending := ""
	for {
		select {
		case <-r.done:
			return
		default:
		}
		raw := r.tty.CustomString()
		var keys []byte
		switch {
		case raw != "":
			keys, pending = splitKeys(pending + raw)
		case pending != "":
			// ESC without the rest of a sequence is RUN/STOP
			keys, pending = []byte{keyStop}, ""
		default:
			continue
		}
		for _, k := range keys {
			if k == keyStop && r.OnBreak != nil {
				r.OnBreak()
			}
			select {
			case r.keys <- k:
			default:
				logger.Debug(logger.AreaTerminal, "key buffer full, dropped %d", k)
			}
		}
	}
}

func (r *Raw) drawLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(rawFrame)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			if r.dirty.Swap(false) {
				r.mu.Lock()
				r.canvas.Draw()
				r.mu.Unlock()
			}
		}
	}
}

func cellColors(c petscii.DrawChar, cursor bool) (vt.AttributeColor, vt.AttributeColor) {
	if c.Reverse != cursor {
		return vt.Black, vt.LightGreen.Background()
	}
	return vt.LightGreen, vt.DefaultBackground
}

func (r *Raw) paint(row, col int, c petscii.DrawChar) {
	fg, bg := cellColors(c, r.cursor == [2]int{row, col})
	r.canvas.WriteRune(uint(col), uint(row), fg, bg, c.Rune)
	r.dirty.Store(true)
}

func (r *Raw) repaint() {
	cells := r.Screen.Cells()
	r.mu.Lock()
	defer r.mu.Unlock()
	for row, line := range cells {
		for col, c := range line {
			r.paint(row, col, c)
		}
	}
}

// CellChanged implements petbasic.ScreenObserver.
func (r *Raw) CellChanged(row, col int, c petscii.DrawChar) {
	r.mu.Lock()
	r.paint(row, col, c)
	r.mu.Unlock()
}

func (r *Raw) Scrolled() { r.repaint() }
func (r *Raw) Cleared()  { r.repaint() }

func (r *Raw) CursorMoved(row, col int) {
	r.mu.Lock()
	old := r.cursor
	r.cursor = [2]int{row, col}
	r.mu.Unlock()
	prev := r.Screen.GetChar(old[0], old[1])
	cur := r.Screen.GetChar(row, col)
	r.mu.Lock()
	r.paint(old[0], old[1], prev)
	r.paint(row, col, cur)
	r.mu.Unlock()
}

// EchoesInput reports that typed lines already stand on the grid.
func (r *Raw) EchoesInput() bool { return true }

// ReadChar waits up to the key timeout for one key.
func (r *Raw) ReadChar() (byte, bool) {
	select {
	case k := <-r.keys:
		if k == keyStop {
			return 0, false
		}
		return k, true
	case <-time.After(r.timeout):
		return 0, false
	case <-r.done:
		return 0, false
	}
}

// ReadLine edits a line on the grid starting at the cursor. RETURN moves to
// the next row and returns the typed text; RUN/STOP ends the input.
func (r *Raw) ReadLine(prompt string) (string, error) {
	var typed []byte
	startRow, startCol := r.Screen.Cursor()
	cols := r.Screen.NumCols()
	for {
		var k byte
		select {
		case k = <-r.keys:
		case <-r.done:
			return "", io.EOF
		}
		switch k {
		case keyStop:
			return "", io.EOF
		case keyReturn:
			r.newline()
			return petscii.ToUnicode(string(typed)), nil
		case keyDelete:
			if len(typed) == 0 {
				continue
			}
			typed = typed[:len(typed)-1]
			row, col := r.Screen.Cursor()
			if col > 0 {
				col--
			} else if row > startRow {
				row, col = row-1, cols-1
			}
			r.Screen.SetChar(row, col, petscii.Blank)
			r.Screen.MoveCursor(row, col)
		default:
			code, ok := petscii.ScreenCode(k)
			if !ok {
				continue
			}
			row, col := r.Screen.Cursor()
			if (row-startRow)*cols+col-startCol >= 80 {
				continue
			}
			typed = append(typed, k)
			r.Screen.SetChar(row, col, petscii.PetToDraw(code))
			if col+1 < cols {
				r.Screen.MoveCursor(row, col+1)
			} else {
				r.newline()
			}
		}
	}
}

func (r *Raw) newline() {
	row, _ := r.Screen.Cursor()
	if row+1 >= r.Screen.NumRows() {
		r.Screen.ScrollUp()
		r.Screen.MoveCursor(row, 0)
		return
	}
	r.Screen.MoveCursor(row+1, 0)
}

var (
	_ petbasic.Display        = (*Raw)(nil)
	_ petbasic.ScreenObserver = (*Raw)(nil)
	_ petbasic.LocalEcho      = (*Raw)(nil)
)
