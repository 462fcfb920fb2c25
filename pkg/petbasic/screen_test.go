package petbasic

import (
	"strings"
	"testing"

	"github.com/antibyte/petbasic/pkg/petscii"
)

func trimmedRows(s *Screen) []string {
	rows := make([]string, s.NumRows())
	for r := range rows {
		rows[r] = strings.TrimRight(s.Row(r), " ")
	}
	return rows
}

func TestScreenWriterWrapAndScroll(t *testing.T) {
	s := NewScreen(3, 5)
	w := &screenWriter{d: s}
	w.write("HELLO WORLD")
	if got := trimmedRows(s); got[0] != "HELLO" || got[1] != " WORL" || got[2] != "D" {
		t.Fatalf("rows %q", got)
	}
	if r, c := s.Cursor(); r != 2 || c != 1 {
		t.Errorf("cursor %d,%d", r, c)
	}
	w.write("\r")
	if got := trimmedRows(s); got[0] != " WORL" || got[1] != "D" || got[2] != "" {
		t.Errorf("after scroll %q", got)
	}
	if r, c := s.Cursor(); r != 2 || c != 0 {
		t.Errorf("cursor %d,%d", r, c)
	}
}

func TestScreenWriterControlCodes(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		row0   string
		row1   string
		cursor [2]int
	}{
		{"clear", "AB\r\x93C", "C", "", [2]int{0, 1}},
		{"home", "AB\r\x13C", "CB", "", [2]int{0, 1}},
		{"left", "AB\x9dC", "AC", "", [2]int{0, 2}},
		{"right", "A\x1dB", "A B", "", [2]int{0, 3}},
		{"down", "A\x11B", "A", " B", [2]int{1, 2}},
		{"up", "\rA\x91B", " B", "A", [2]int{0, 2}},
		{"delete", "ABC\x14", "AB", "", [2]int{0, 2}},
		{"delete at start", "\x14A", "A", "", [2]int{0, 1}},
		{"left wraps", "\rA\x9d\x9dB", "    B", "A", [2]int{1, 0}},
		{"unprintable skipped", "A\x01\x05B", "AB", "", [2]int{0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScreen(4, 5)
			w := &screenWriter{d: s}
			w.write(tt.text)
			rows := trimmedRows(s)
			if rows[0] != tt.row0 || rows[1] != tt.row1 {
				t.Errorf("rows %q, want %q %q", rows[:2], tt.row0, tt.row1)
			}
			if r, c := s.Cursor(); r != tt.cursor[0] || c != tt.cursor[1] {
				t.Errorf("cursor %d,%d, want %v", r, c, tt.cursor)
			}
		})
	}
}

func TestScreenWriterReverse(t *testing.T) {
	s := NewScreen(3, 10)
	w := &screenWriter{d: s}
	w.write("\x12A\x92B\x12C\rD")
	want := []bool{true, false, true}
	for col, rev := range want {
		if c := s.GetChar(0, col); c.Reverse != rev {
			t.Errorf("cell %d reverse=%v", col, c.Reverse)
		}
	}
	if s.GetChar(1, 0).Reverse {
		t.Error("reverse survived the newline")
	}
}

func TestScreenCursorDownScrolls(t *testing.T) {
	s := NewScreen(2, 4)
	w := &screenWriter{d: s}
	w.write("A\r\x11")
	if got := trimmedRows(s); got[0] != "" {
		t.Errorf("rows %q", got)
	}
}

type recorder struct {
	cells, scrolls, clears, moves int
}

func (r *recorder) CellChanged(int, int, petscii.DrawChar) { r.cells++ }
func (r *recorder) Scrolled()                               { r.scrolls++ }
func (r *recorder) Cleared()                                { r.clears++ }
func (r *recorder) CursorMoved(int, int)                    { r.moves++ }

func TestScreenObserver(t *testing.T) {
	s := NewScreen(2, 3)
	rec := &recorder{}
	s.SetObserver(rec)
	w := &screenWriter{d: s}
	w.write("AB\r\r\x93")
	if rec.cells != 2 || rec.scrolls != 1 || rec.clears != 1 || rec.moves == 0 {
		t.Errorf("observer saw %+v", *rec)
	}
}

func TestScreenInputQueues(t *testing.T) {
	s := NewScreen(0, 0)
	if s.NumRows() != DefaultRows || s.NumCols() != DefaultCols {
		t.Errorf("default size %dx%d", s.NumRows(), s.NumCols())
	}
	if _, err := s.ReadLine(""); err == nil {
		t.Error("ReadLine on empty queue returned a line")
	}
	s.FeedLine("RUN")
	if line, err := s.ReadLine(""); err != nil || line != "RUN" {
		t.Errorf("ReadLine = %q, %v", line, err)
	}
	s.FeedKeys("a")
	if k, ok := s.ReadChar(); !ok || k != 'A' {
		t.Errorf("ReadChar = %d, %v", k, ok)
	}
	if _, ok := s.ReadChar(); ok {
		t.Error("ReadChar on empty queue returned a key")
	}
}

func TestMemoryScreenWindow(t *testing.T) {
	s := NewScreen(2, 4)
	m := NewMemory(s, DefaultScreenBase)
	m.Poke(DefaultScreenBase+5, 2)
	if c := s.GetChar(1, 1); c.Rune != 'B' {
		t.Errorf("poked cell = %q", c.Rune)
	}
	if v := m.Peek(DefaultScreenBase + 5); v != 2 {
		t.Errorf("Peek = %d", v)
	}
	if v := m.Peek(DefaultScreenBase); v != 32 {
		t.Errorf("blank cell peeks as %d", v)
	}
	m.Poke(DefaultScreenBase+1, 0x81)
	if c := s.GetChar(0, 1); c.Rune != 'A' || !c.Reverse {
		t.Errorf("reverse cell = %+v", c)
	}

	outside := DefaultScreenBase + 8
	m.Poke(outside, 9)
	if v := m.Peek(outside); v != 9 {
		t.Errorf("Peek outside window = %d", v)
	}
	m.Clear()
	if v := m.Peek(outside); v != 0 {
		t.Errorf("Peek after Clear = %d", v)
	}
}
