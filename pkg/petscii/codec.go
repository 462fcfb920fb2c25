// Package petscii translates between the PET's 8-bit character codes and the
// runes used to draw a screen cell.
//
// Two code spaces are involved. String bytes (what CHR$ and ASC see) are PETSCII
// proper: 65 is "A", 147 clears the screen. Screen memory holds screen codes,
// where 1 is "A" and bit 7 selects reverse video. PetChar is a screen code.
package petscii

import (
	"errors"
	"fmt"
)

// PetChar is a screen code as stored in screen memory.
type PetChar byte

// DrawChar is the display side of a screen cell.
type DrawChar struct {
	Rune    rune
	Reverse bool
}

// Blank is an empty cell.
var Blank = DrawChar{Rune: ' '}

const reverseBit = 0x80

var (
	ErrAlreadyReversed = errors.New("character already reversed")
	ErrNotReversed     = errors.New("character not reversed")
)

// Reverse returns the reverse-video form of c.
func (c PetChar) Reverse() (PetChar, error) {
	if c >= reverseBit {
		return c, fmt.Errorf("reverse %d: %w", c, ErrAlreadyReversed)
	}
	return c + reverseBit, nil
}

// Unreverse returns the normal-video form of c.
func (c PetChar) Unreverse() (PetChar, error) {
	if c < reverseBit {
		return c, fmt.Errorf("unreverse %d: %w", c, ErrNotReversed)
	}
	return c - reverseBit, nil
}

// IsReverse reports whether the reverse-video bit is set.
func (c PetChar) IsReverse() bool {
	return c&reverseBit != 0
}

// punctuation covers screen codes 0 and 27-31. 32-63 are identical to ASCII.
var punctuation = map[PetChar]rune{
	0:  '@',
	27: '[',
	28: '\\',
	29: ']',
	30: '^',
	31: '_',
}

// graphicSet holds the glyphs for screen codes 64-127.
var graphicSet = [64]rune{
	'─', '♠', '│', '━', '═', '┄', '┅', '┆', // 64
	'┇', '╮', '╰', '╯', '┗', '╲', '╱', '┏', // 72
	'┓', '●', '┈', '♥', '┉', '╭', '╳', '○', // 80
	'♣', '┊', '♦', '┼', '░', '┃', 'π', '◥', // 88
	'\u00a0', '▌', '▄', '▔', '▁', '▏', '▒', '▕', // 96
	'▓', '◤', '▐', '├', '▗', '└', '┐', '▂', // 104
	'┌', '┴', '┬', '┤', '▎', '▍', '▉', '▀', // 112
	'▅', '▃', '▟', '▖', '▝', '┘', '▘', '▚', // 120
}

var (
	petToRune [128]rune
	runeToPet map[rune]PetChar
)

// Runes without a screen code of their own. Each collapses onto the nearest
// code; drawing that code yields a different rune.
var lossy = map[rune]PetChar{
	'`': 0,
	'{': 27,
	'}': 29,
	'~': 30,
	'|': 66,
}

func init() {
	runeToPet = make(map[rune]PetChar, 128+26+len(lossy))
	for code := PetChar(0); code < reverseBit; code++ {
		var r rune
		switch {
		case code >= 1 && code <= 26:
			r = 'A' + rune(code-1)
		case code >= 32 && code <= 63:
			r = rune(code)
		case code >= 64:
			r = graphicSet[code-64]
		default:
			r = punctuation[code]
		}
		petToRune[code] = r
		runeToPet[r] = code
	}
	for r := 'a'; r <= 'z'; r++ {
		runeToPet[r] = PetChar(r-'a') + 1
	}
	for r, code := range lossy {
		runeToPet[r] = code
	}
}

// PetToDraw maps a screen code to its glyph.
func PetToDraw(c PetChar) DrawChar {
	return DrawChar{Rune: petToRune[c&^reverseBit], Reverse: c.IsReverse()}
}

// DrawToPet maps a glyph back to its screen code. Lower case letters and a few
// ASCII symbols collapse onto the nearest code; anything else becomes a space.
func DrawToPet(d DrawChar) PetChar {
	code, ok := runeToPet[d.Rune]
	if !ok {
		code = 32
	}
	if d.Reverse {
		code |= reverseBit
	}
	return code
}

// ScreenCode converts a PETSCII string byte to the screen code that displays it.
// Control codes (0-31, 128-159) have no screen code.
func ScreenCode(b byte) (PetChar, bool) {
	switch {
	case b < 32, b >= 128 && b < 160:
		return 0, false
	case b < 64:
		return PetChar(b), true
	case b < 96:
		return PetChar(b - 64), true
	case b < 128:
		return PetChar(b - 32), true
	case b < 192:
		return PetChar(b - 64), true
	case b == 255:
		return 94, true
	default:
		return PetChar(b - 128), true
	}
}

// FromScreenCode is the inverse of ScreenCode for the canonical byte of each
// screen code. The reverse bit is ignored.
func FromScreenCode(c PetChar) byte {
	c &^= reverseBit
	switch {
	case c < 32:
		return byte(c) + 64
	case c < 64:
		return byte(c)
	case c < 96:
		return byte(c) + 128
	default:
		return byte(c) + 64
	}
}

// FromRune converts a typed or source-text rune to a PETSCII string byte.
// Letters of either case become the unshifted letters.
func FromRune(r rune) byte {
	switch {
	case r == '\n' || r == '\r':
		return 13
	case r == '\b' || r == 127:
		return 20
	case r >= 'a' && r <= 'z':
		return byte(r - 'a' + 'A')
	case r >= 32 && r < 96:
		return byte(r)
	}
	return FromScreenCode(DrawToPet(DrawChar{Rune: r}))
}

// Printable returns the glyph a PETSCII string byte prints as, or false for
// control codes.
func Printable(b byte) (rune, bool) {
	code, ok := ScreenCode(b)
	if !ok {
		return 0, false
	}
	return petToRune[code], true
}

// ToUnicode renders a PETSCII string for a plain text terminal. Carriage
// returns become newlines, other control codes are dropped.
func ToUnicode(s string) string {
	out := make([]rune, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == 13 {
			out = append(out, '\n')
			continue
		}
		if r, ok := Printable(s[i]); ok {
			out = append(out, r)
		}
	}
	return string(out)
}

// FromUnicode is the inverse of ToUnicode for text typed on a keyboard.
func FromUnicode(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		out = append(out, FromRune(r))
	}
	return string(out)
}
