package petscii

import (
	"errors"
	"testing"
)

func TestRoundTripAllCodes(t *testing.T) {
	for i := 0; i < 256; i++ {
		c := PetChar(i)
		d := PetToDraw(c)
		if got := DrawToPet(d); got != c {
			t.Errorf("DrawToPet(PetToDraw(%d)) = %d (rune %q)", c, got, d.Rune)
		}
	}
}

func TestGraphicSetDistinct(t *testing.T) {
	seen := make(map[rune]int)
	for i, r := range graphicSet {
		if prev, ok := seen[r]; ok {
			t.Errorf("graphic %d duplicates %d (%q)", i+64, prev+64, r)
		}
		seen[r] = i
		if r < 128 {
			t.Errorf("graphic %d maps to ASCII %q", i+64, r)
		}
	}
}

func TestReverseIndependentOfBase(t *testing.T) {
	for i := 0; i < 128; i++ {
		c := PetChar(i)
		rev, err := c.Reverse()
		if err != nil {
			t.Fatalf("Reverse(%d): %v", c, err)
		}
		if !rev.IsReverse() {
			t.Errorf("%d not reversed", rev)
		}
		if PetToDraw(rev).Rune != PetToDraw(c).Rune {
			t.Errorf("reverse changed glyph of %d", c)
		}
		back, err := rev.Unreverse()
		if err != nil || back != c {
			t.Errorf("Unreverse(%d) = %d, %v", rev, back, err)
		}
	}

	if _, err := PetChar(200).Reverse(); !errors.Is(err, ErrAlreadyReversed) {
		t.Errorf("Reverse(200) err = %v", err)
	}
	if _, err := PetChar(5).Unreverse(); !errors.Is(err, ErrNotReversed) {
		t.Errorf("Unreverse(5) err = %v", err)
	}
}

func TestCodecTables(t *testing.T) {
	tests := []struct {
		code PetChar
		want rune
	}{
		{0, '@'},
		{1, 'A'},
		{26, 'Z'},
		{32, ' '},
		{48, '0'},
		{57, '9'},
		{63, '?'},
		{65, '♠'},
		{94, 'π'},
		{127, '▚'},
	}
	for _, tt := range tests {
		if got := PetToDraw(tt.code).Rune; got != tt.want {
			t.Errorf("PetToDraw(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestLossyCollapses(t *testing.T) {
	tests := []struct {
		in   rune
		want PetChar
	}{
		{'a', 1},
		{'z', 26},
		{'`', 0},
		{'{', 27},
		{'}', 29},
		{'~', 30},
		{'|', 66},
		{'€', 32},
		{'日', 32},
	}
	for _, tt := range tests {
		if got := DrawToPet(DrawChar{Rune: tt.in}); got != tt.want {
			t.Errorf("DrawToPet(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := DrawToPet(DrawChar{Rune: 'a', Reverse: true}); got != 129 {
		t.Errorf("reverse lower case a = %d, want 129", got)
	}
}

func TestScreenCode(t *testing.T) {
	tests := []struct {
		in   byte
		want PetChar
		ok   bool
	}{
		{13, 0, false},
		{147, 0, false},
		{32, 32, true},
		{'0', 48, true},
		{'@', 0, true},
		{'A', 1, true},
		{'Z', 26, true},
		{96, 64, true},
		{160, 96, true},
		{193, 65, true},
		{255, 94, true},
	}
	for _, tt := range tests {
		got, ok := ScreenCode(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ScreenCode(%d) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}

	for i := 0; i < 128; i++ {
		b := FromScreenCode(PetChar(i))
		if back, ok := ScreenCode(b); !ok || back != PetChar(i) {
			t.Errorf("ScreenCode(FromScreenCode(%d)) = %d, %v", i, back, ok)
		}
	}
}

func TestUnicodeConversion(t *testing.T) {
	if got := FromUnicode("Hello, world!"); got != "HELLO, WORLD!" {
		t.Errorf("FromUnicode = %q", got)
	}
	if got := ToUnicode("HI\r\x93THERE"); got != "HI\nTHERE" {
		t.Errorf("ToUnicode = %q", got)
	}
	if got := FromRune('♠'); got != 192+1 {
		t.Errorf("FromRune(spade) = %d", got)
	}
	if got := ToUnicode(string([]byte{FromRune('♥')})); got != "♥" {
		t.Errorf("heart round trip = %q", got)
	}
}
