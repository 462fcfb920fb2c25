package petbasic

import (
	"github.com/antibyte/petbasic/pkg/petscii"
)

// Display is the character screen and keyboard the interpreter runs against.
type Display interface {
	NumRows() int
	NumCols() int
	MoveCursor(row, col int)
	Cursor() (row, col int)
	GetChar(row, col int) petscii.DrawChar
	SetChar(row, col int, c petscii.DrawChar)
	// ReadLine blocks until a line of input is entered. io.EOF means no
	// more input will come.
	ReadLine(prompt string) (string, error)
	// ReadChar returns the next key as a PETSCII byte, or false when no key
	// arrived within the display's polling timeout.
	ReadChar() (byte, bool)
	ScrollUp()
	Clear()
	Home()
	// EnterLine returns the text of the cursor row as typed input.
	EnterLine() string
	Delay(ms int)
}

// LocalEcho is implemented by displays that draw typed input themselves, so
// INPUT does not repeat the line on the screen.
type LocalEcho interface {
	EchoesInput() bool
}

// ScreenObserver is told about every change to a Screen. Terminal front ends
// use it to mirror the grid.
type ScreenObserver interface {
	CellChanged(row, col int, c petscii.DrawChar)
	Scrolled()
	Cleared()
	CursorMoved(row, col int)
}

// screenWriter prints PETSCII strings onto a Display, interpreting the
// cursor control codes.
type screenWriter struct {
	d       Display
	reverse bool
}

func (w *screenWriter) newline() {
	row, _ := w.d.Cursor()
	row++
	if row >= w.d.NumRows() {
		w.d.ScrollUp()
		row = w.d.NumRows() - 1
	}
	w.d.MoveCursor(row, 0)
	w.reverse = false
}

func (w *screenWriter) put(code petscii.PetChar) {
	row, col := w.d.Cursor()
	if w.reverse {
		code |= 0x80
	}
	w.d.SetChar(row, col, petscii.PetToDraw(code))
	col++
	if col >= w.d.NumCols() {
		row++
		col = 0
		if row >= w.d.NumRows() {
			w.d.ScrollUp()
			row = w.d.NumRows() - 1
		}
	}
	w.d.MoveCursor(row, col)
}

func (w *screenWriter) write(s string) {
	for i := 0; i < len(s); i++ {
		w.writeByte(s[i])
	}
}

func (w *screenWriter) writeByte(b byte) {
	row, col := w.d.Cursor()
	rows, cols := w.d.NumRows(), w.d.NumCols()
	switch b {
	case 13:
		w.newline()
	case 147:
		w.d.Clear()
		w.d.Home()
	case 19:
		w.d.Home()
	case 18:
		w.reverse = true
	case 146:
		w.reverse = false
	case 17:
		if row+1 >= rows {
			w.d.ScrollUp()
		} else {
			row++
		}
		w.d.MoveCursor(row, col)
	case 145:
		if row > 0 {
			w.d.MoveCursor(row-1, col)
		}
	case 29:
		if col+1 < cols {
			w.d.MoveCursor(row, col+1)
		} else if row+1 < rows {
			w.d.MoveCursor(row+1, 0)
		}
	case 157:
		if col > 0 {
			w.d.MoveCursor(row, col-1)
		} else if row > 0 {
			w.d.MoveCursor(row-1, cols-1)
		}
	case 20:
		if col > 0 {
			for c := col; c < cols; c++ {
				w.d.SetChar(row, c-1, w.d.GetChar(row, c))
			}
			w.d.SetChar(row, cols-1, petscii.Blank)
			w.d.MoveCursor(row, col-1)
		}
	default:
		if code, ok := petscii.ScreenCode(b); ok {
			w.put(code)
		}
	}
}
