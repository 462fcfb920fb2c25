package petscii

import (
	"errors"
	"strings"
	"testing"
)

func TestEscapeNames(t *testing.T) {
	tests := []struct {
		name string
		want []byte
	}{
		{"HOM", []byte{19}},
		{"cls", []byte{147}},
		{"REV", []byte{18}},
		{"OFF", []byte{146}},
		{"CU", []byte{145}},
		{"CD", []byte{17}},
		{"CL", []byte{157}},
		{"CR", []byte{29}},
		{"^SPC", []byte{160}},
		{"DQT", []byte{34}},
		{"BSH", []byte{92}},
		{"DEL", []byte{126}},
		{"^A", []byte{193}},
		{"^a", []byte{193}},
		{"3 CD", []byte{17, 17, 17}},
		{"255 CD", []byte(strings.Repeat("\x11", 255))},
		{"147", []byte{147}},
	}
	for _, tt := range tests {
		got, err := Escape(tt.name)
		if err != nil {
			t.Errorf("Escape(%q): %v", tt.name, err)
			continue
		}
		if string(got) != string(tt.want) {
			t.Errorf("Escape(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestEscapeUnknown(t *testing.T) {
	for _, name := range []string{"FOO", "0 CD", "X CD", "256", "^π", "256 CD", "4611686018427387904 CD", "99999999999999999999 CD"} {
		_, err := Escape(name)
		var escErr *EscapeError
		if !errors.As(err, &escErr) {
			t.Errorf("Escape(%q) err = %v, want EscapeError", name, err)
		}
	}
}

func TestDecodeEscapes(t *testing.T) {
	got, errs := DecodeEscapes("{CLS}HELLO{2 CR}!")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if want := "\x93HELLO\x1d\x1d!"; got != want {
		t.Errorf("DecodeEscapes = %q, want %q", got, want)
	}

	got, errs = DecodeEscapes("A{BOGUS}B")
	if got != "A{BOGUS}B" || len(errs) != 1 {
		t.Errorf("unknown escape: got %q, errs %v", got, errs)
	}

	got, errs = DecodeEscapes("A}B{C")
	if got != "A}B{C" || len(errs) != 2 {
		t.Errorf("unbalanced: got %q, errs %v", got, errs)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	inputs := []string{
		"PLAIN TEXT 123",
		"\x93\x13START",
		"\x11\x11\x11DOWN",
		"QUOTE\"BACK\\SLASH",
		string([]byte{193, 194, 160, 255, 13}),
	}
	for _, in := range inputs {
		encoded := EncodeEscapes(in)
		decoded, errs := DecodeEscapes(encoded)
		if len(errs) != 0 {
			t.Errorf("DecodeEscapes(%q): %v", encoded, errs)
		}
		if decoded != in {
			t.Errorf("round trip %q -> %q -> %q", in, encoded, decoded)
		}
	}
	if got := EncodeEscapes("\x11\x11\x11"); got != "{3 CD}" {
		t.Errorf("EncodeEscapes run = %q", got)
	}
}

func TestDecodeEscapesHugeRepeat(t *testing.T) {
	text := "{4611686018427387904 CD}"
	got, errs := DecodeEscapes(text)
	if got != text || len(errs) != 1 {
		t.Errorf("DecodeEscapes(%q) = %q, errs %v", text, got, errs)
	}
}

func TestEncodeEscapesSplitsLongRuns(t *testing.T) {
	s := strings.Repeat("\x11", 300)
	enc := EncodeEscapes(s)
	if want := "{255 CD}{45 CD}"; enc != want {
		t.Errorf("EncodeEscapes = %q, want %q", enc, want)
	}
	dec, errs := DecodeEscapes(enc)
	if len(errs) != 0 || dec != s {
		t.Errorf("round trip lost %d bytes, errs %v", len(s)-len(dec), errs)
	}
}
