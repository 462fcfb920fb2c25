package terminal

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/antibyte/petbasic/pkg/petbasic"
)

func TestSplitKeys(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		keys []byte
		rest string
	}{
		{"letters", "ab1", []byte{'A', 'B', '1'}, ""},
		{"return", "x\r\n", []byte{'X', keyReturn, keyReturn}, ""},
		{"delete", "\x7f\b", []byte{keyDelete, keyDelete}, ""},
		{"ctrl-c", "\x03", []byte{keyStop}, ""},
		{"arrows", "\x1b[A\x1b[B\x1b[C\x1b[D", []byte{keyUp, keyDown, keyRight, keyLeft}, ""},
		{"home", "\x1b[H\x1b[1~", []byte{keyHome, keyHome}, ""},
		{"partial", "a\x1b[", []byte{'A'}, "\x1b["},
		{"lone escape", "\x1bq", []byte{keyStop, 'Q'}, ""},
		{"other controls", "\x01\x02", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, rest := splitKeys(tt.raw)
			if !bytes.Equal(keys, tt.keys) || rest != tt.rest {
				t.Errorf("splitKeys(%q) = %v, %q; want %v, %q", tt.raw, keys, rest, tt.keys, tt.rest)
			}
		})
	}
}

func TestSplitKeysResumesSequence(t *testing.T) {
	keys, rest := splitKeys("\x1b")
	if len(keys) != 0 || rest != "\x1b" {
		t.Fatalf("got %v, %q", keys, rest)
	}
	keys, rest = splitKeys(rest + "[D")
	if !bytes.Equal(keys, []byte{keyLeft}) || rest != "" {
		t.Errorf("got %v, %q", keys, rest)
	}
}

func TestKeyToPETSCII(t *testing.T) {
	tests := []struct {
		key  string
		want byte
		ok   bool
	}{
		{"Escape", keyStop, true},
		{"Enter", keyReturn, true},
		{"Backspace", keyDelete, true},
		{"ArrowUp", keyUp, true},
		{"Home", keyHome, true},
		{"Space", ' ', true},
		{"a", 'A', true},
		{"7", '7', true},
		{"Shift", 0, false},
		{"F1", 0, false},
	}
	for _, tt := range tests {
		got, ok := keyToPETSCII(tt.key)
		if got != tt.want || ok != tt.ok {
			t.Errorf("keyToPETSCII(%q) = %d, %v; want %d, %v", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestScreenSizeFlagsWin(t *testing.T) {
	if r, c := ScreenSize(10, 22); r != 10 || c != 22 {
		t.Errorf("ScreenSize(10, 22) = %d, %d", r, c)
	}
	if r, c := ScreenSize(0, 0); r != petbasic.DefaultRows || c != petbasic.DefaultCols {
		t.Errorf("ScreenSize(0, 0) = %d, %d", r, c)
	}
}

var ansi = regexp.MustCompile("\x1b\\[[0-9;]*[A-Za-z]")

func TestHighlightMatchesListing(t *testing.T) {
	p := petbasic.NewProgram()
	src := "10 PRINT \"HELLO\";A$:GOTO 10\n" +
		"20 IF X>=1.5 THEN PRINT LEFT$(A$,2)\n" +
		"30 DATA 1,FOO,\"BAR\"\n" +
		"40 REM THE END\n"
	if _, err := p.Load(strings.NewReader(src)); err != nil {
		t.Fatal(err)
	}
	var plain, colored bytes.Buffer
	if err := p.List(&plain, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := Highlight(&colored, p); err != nil {
		t.Fatal(err)
	}
	if got := ansi.ReplaceAllString(colored.String(), ""); got != plain.String() {
		t.Errorf("highlighted listing without colors:\n%s\nwant:\n%s", got, plain.String())
	}
}
