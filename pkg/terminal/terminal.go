// Package terminal holds the displays the interpreter runs against outside of
// tests: a line console, a full screen raw mode and a websocket mirror of the
// screen grid.
package terminal

import (
	"strings"
	"time"

	"github.com/antibyte/petbasic/pkg/configuration"
	"github.com/antibyte/petbasic/pkg/petbasic"
	"github.com/antibyte/petbasic/pkg/petscii"
)

// PETSCII codes of the editing keys
const (
	keyStop   byte = 3
	keyReturn byte = 13
	keyDown   byte = 17
	keyHome   byte = 19
	keyDelete byte = 20
	keyRight  byte = 29
	keyUp     byte = 145
	keyLeft   byte = 157
)

// ScreenSize liest die Bildschirmgröße aus der [Screen] Sektion. Werte <= 0
// aus den Flags überschreiben die Konfiguration nicht.
func ScreenSize(rows, cols int) (int, int) {
	if rows <= 0 {
		rows = configuration.GetInt("Screen", "rows", petbasic.DefaultRows)
	}
	if cols <= 0 {
		cols = configuration.GetInt("Screen", "cols", petbasic.DefaultCols)
	}
	return rows, cols
}

func keyTimeout() time.Duration {
	return configuration.GetDuration("Terminal", "raw_key_timeout", 20*time.Millisecond)
}

// keyToPETSCII konvertiert Browser-Tastennamen in PETSCII-Codes
func keyToPETSCII(key string) (byte, bool) {
	switch key {
	case "Escape":
		return keyStop, true
	case "ArrowUp":
		return keyUp, true
	case "ArrowDown":
		return keyDown, true
	case "ArrowRight":
		return keyRight, true
	case "ArrowLeft":
		return keyLeft, true
	case "Backspace", "Delete":
		return keyDelete, true
	case "Enter":
		return keyReturn, true
	case "Home":
		return keyHome, true
	case "Space":
		return ' ', true
	}
	// normale Zeichen direkt
	if r := []rune(key); len(r) == 1 {
		return petscii.FromRune(r[0]), true
	}
	return 0, false
}

// ansiKeys are the escape sequences a VT terminal sends for the editing keys.
var ansiKeys = map[string]byte{
	"\x1b[A":  keyUp,
	"\x1b[B":  keyDown,
	"\x1b[C":  keyRight,
	"\x1b[D":  keyLeft,
	"\x1b[H":  keyHome,
	"\x1b[1~": keyHome,
	"\x1b[3~": keyDelete,
}

// splitKeys decodes bytes read from a TTY into PETSCII keys. An escape
// sequence cut off at the end is returned as rest for the next read.
func splitKeys(raw string) (keys []byte, rest string) {
	for len(raw) > 0 {
		if raw[0] == 0x1b {
			matched, partial := false, false
			for seq, k := range ansiKeys {
				if strings.HasPrefix(raw, seq) {
					keys = append(keys, k)
					raw = raw[len(seq):]
					matched = true
					break
				}
				if strings.HasPrefix(seq, raw) {
					partial = true
				}
			}
			if matched {
				continue
			}
			if partial {
				return keys, raw
			}
			// ESC alone is RUN/STOP
			keys = append(keys, keyStop)
			raw = raw[1:]
			continue
		}
		switch c := raw[0]; c {
		case 3:
			keys = append(keys, keyStop)
		case '\r', '\n':
			keys = append(keys, keyReturn)
		case 8, 127:
			keys = append(keys, keyDelete)
		default:
			if c >= 32 && c < 127 {
				keys = append(keys, petscii.FromRune(rune(c)))
			}
		}
		raw = raw[1:]
	}
	return keys, ""
}
