package petbasic

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/antibyte/petbasic/pkg/petscii"
)

// Screen is an in-memory character grid. Input comes from queued lines and
// keys, which makes it the display for tests and the base of the terminal
// front ends. All methods are safe for concurrent use.
type Screen struct {
	mu       sync.Mutex
	rows     int
	cols     int
	cells    [][]petscii.DrawChar
	row, col int
	observer ScreenObserver

	lines chan string
	keys  chan byte
	// KeyTimeout is how long ReadChar waits for a key.
	KeyTimeout time.Duration
	// Sleep implements Delay. Nil sleeps for real.
	Sleep func(time.Duration)
}

// NewScreen returns a blank screen of the given size.
func NewScreen(rows, cols int) *Screen {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}
	s := &Screen{
		rows:  rows,
		cols:  cols,
		lines: make(chan string, 256),
		keys:  make(chan byte, 256),
	}
	s.cells = make([][]petscii.DrawChar, rows)
	for r := range s.cells {
		s.cells[r] = blankRow(cols)
	}
	return s
}

func blankRow(cols int) []petscii.DrawChar {
	row := make([]petscii.DrawChar, cols)
	for c := range row {
		row[c] = petscii.Blank
	}
	return row
}

// SetObserver registers the single observer of grid changes.
func (s *Screen) SetObserver(o ScreenObserver) {
	s.mu.Lock()
	s.observer = o
	s.mu.Unlock()
}

func (s *Screen) NumRows() int { return s.rows }
func (s *Screen) NumCols() int { return s.cols }

func (s *Screen) clamp(row, col int) (int, int) {
	row = min(max(row, 0), s.rows-1)
	col = min(max(col, 0), s.cols-1)
	return row, col
}

func (s *Screen) MoveCursor(row, col int) {
	s.mu.Lock()
	s.row, s.col = s.clamp(row, col)
	o, r, c := s.observer, s.row, s.col
	s.mu.Unlock()
	if o != nil {
		o.CursorMoved(r, c)
	}
}

func (s *Screen) Cursor() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.row, s.col
}

func (s *Screen) GetChar(row, col int) petscii.DrawChar {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return petscii.Blank
	}
	return s.cells[row][col]
}

func (s *Screen) SetChar(row, col int, c petscii.DrawChar) {
	s.mu.Lock()
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		s.mu.Unlock()
		return
	}
	s.cells[row][col] = c
	o := s.observer
	s.mu.Unlock()
	if o != nil {
		o.CellChanged(row, col, c)
	}
}

func (s *Screen) ScrollUp() {
	s.mu.Lock()
	copy(s.cells, s.cells[1:])
	s.cells[s.rows-1] = blankRow(s.cols)
	o := s.observer
	s.mu.Unlock()
	if o != nil {
		o.Scrolled()
	}
}

func (s *Screen) Clear() {
	s.mu.Lock()
	for r := range s.cells {
		s.cells[r] = blankRow(s.cols)
	}
	o := s.observer
	s.mu.Unlock()
	if o != nil {
		o.Cleared()
	}
}

func (s *Screen) Home() { s.MoveCursor(0, 0) }

// EnterLine returns the cursor row as text with trailing blanks removed.
func (s *Screen) EnterLine() string {
	row, _ := s.Cursor()
	return strings.TrimRight(s.Row(row), " ")
}

// Row returns one row as Unicode text. Reverse video is not shown.
func (s *Screen) Row(row int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row < 0 || row >= s.rows {
		return ""
	}
	var sb strings.Builder
	for _, c := range s.cells[row] {
		sb.WriteRune(c.Rune)
	}
	return sb.String()
}

// Text returns all rows with trailing blanks removed, joined by newlines.
// Trailing empty rows are dropped.
func (s *Screen) Text() string {
	rows := make([]string, s.rows)
	for r := range rows {
		rows[r] = strings.TrimRight(s.Row(r), " ")
	}
	return strings.TrimRight(strings.Join(rows, "\n"), "\n")
}

// Cells returns a copy of the grid.
func (s *Screen) Cells() [][]petscii.DrawChar {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]petscii.DrawChar, s.rows)
	for r := range s.cells {
		out[r] = append([]petscii.DrawChar(nil), s.cells[r]...)
	}
	return out
}

// FeedLine queues a line for ReadLine.
func (s *Screen) FeedLine(line string) { s.lines <- line }

// FeedKeys queues keys for ReadChar. Text is converted to PETSCII.
func (s *Screen) FeedKeys(text string) {
	for i := 0; i < len(text); i++ {
		s.keys <- text[i]
	}
}

// CloseInput makes ReadLine report io.EOF once the queued lines are used up.
func (s *Screen) CloseInput() { close(s.lines) }

// ReadLine returns the next queued line. Without queued input it returns
// io.EOF instead of blocking.
func (s *Screen) ReadLine(prompt string) (string, error) {
	select {
	case line, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	default:
		return "", io.EOF
	}
}

// ReadChar returns the next queued key, waiting up to KeyTimeout.
func (s *Screen) ReadChar() (byte, bool) {
	if s.KeyTimeout <= 0 {
		select {
		case k := <-s.keys:
			return petscii.FromRune(rune(k)), true
		default:
			return 0, false
		}
	}
	select {
	case k := <-s.keys:
		return petscii.FromRune(rune(k)), true
	case <-time.After(s.KeyTimeout):
		return 0, false
	}
}

// Delay waits ms milliseconds.
func (s *Screen) Delay(ms int) {
	d := time.Duration(ms) * time.Millisecond
	if s.Sleep != nil {
		s.Sleep(d)
		return
	}
	time.Sleep(d)
}

var _ Display = (*Screen)(nil)
