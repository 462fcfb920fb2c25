package petbasic

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

type prgLineBytes struct {
	num  int
	body []byte
}

// prgImage lays out lines the way the ROM stores them at $0401.
func prgImage(lines ...prgLineBytes) []byte {
	addr := 0x0401
	out := []byte{byte(addr), byte(addr >> 8)}
	for _, l := range lines {
		addr += 4 + len(l.body) + 1
		out = append(out, byte(addr), byte(addr>>8), byte(l.num), byte(l.num>>8))
		out = append(out, l.body...)
		out = append(out, 0)
	}
	return append(out, 0, 0)
}

func TestDecodePRG(t *testing.T) {
	img := prgImage(
		prgLineBytes{10, []byte("\x99 \"HI\":\x89 10")},
		prgLineBytes{20, []byte("\x8b A\xb11 \xa7 10")},
		prgLineBytes{30, []byte("\x99\"\x93AB\"")},
		prgLineBytes{300, []byte("\x8f IT'S \x80")},
	)
	text, err := DecodePRG(bytes.NewReader(img))
	if err != nil {
		t.Fatal(err)
	}
	want := "10 PRINT \"HI\":GOTO 10\n" +
		"20 IF A>1 THEN 10\n" +
		"30 PRINT \"{CLS}AB\"\n" +
		"300 REM IT'S END\n"
	if text != want {
		t.Errorf("DecodePRG =\n%s\nwant\n%s", text, want)
	}
}

func TestDecodePRGTruncated(t *testing.T) {
	img := prgImage(prgLineBytes{10, []byte("\x99 1")})
	for _, n := range []int{1, 3, 5, len(img) - 3} {
		if _, err := DecodePRG(bytes.NewReader(img[:n])); err == nil {
			t.Errorf("image cut at %d decoded", n)
		}
	}
}

func TestLoadFilePRG(t *testing.T) {
	img := prgImage(
		prgLineBytes{10, []byte("\x81 I\xb21 \xa4 3:\x99 I;:\x82")},
	)
	path := filepath.Join(t.TempDir(), "LOOP.PRG")
	if err := os.WriteFile(path, img, 0o644); err != nil {
		t.Fatal(err)
	}
	h := newHarness(t, "")
	if _, err := h.in.LoadFile(path); err != nil {
		t.Fatal(err)
	}
	if err := h.run(t); err != nil {
		t.Fatal(err)
	}
	if got := h.out.String(); got != " 1  2  3 " {
		t.Errorf("output %q", got)
	}
}
