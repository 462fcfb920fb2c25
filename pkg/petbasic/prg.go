package petbasic

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/antibyte/petbasic/pkg/petscii"
)

// PRG layout: a load address, then linked lines of
// [next address][line number][token bytes...][0], ended by a zero link.
// Words are little endian.

// maxPRGLines guards against link chains that never end.
const maxPRGLines = 1 << 16

// prgSpelling returns the listing text of a token byte.
func prgSpelling(b byte) (string, bool) {
	k := Keyword(int(b) - prgTokenBase)
	if k < KwEND || k > KwDIRECTORY {
		return "", false
	}
	switch k {
	case KwTAB, KwSPC:
		return k.String() + "(", true
	}
	return k.String(), true
}

type prgReader struct {
	buf *bufio.Reader
	pos int
}

func (r *prgReader) word() (int, error) {
	var w [2]byte
	if _, err := io.ReadFull(r.buf, w[:]); err != nil {
		return 0, err
	}
	r.pos += 2
	return int(w[1])<<8 | int(w[0]), nil
}

func (r *prgReader) fail(msg string, err error) error {
	return fmt.Errorf("prg offset %d: %s: %w", r.pos, msg, err)
}

// DecodePRG reads a tokenized program image and returns it as program text,
// one numbered line per text line. Control codes inside strings are written
// as {NAME} escapes.
func DecodePRG(r io.Reader) (string, error) {
	rd := &prgReader{buf: bufio.NewReader(r)}
	if _, err := rd.word(); err != nil {
		return "", rd.fail("reading load address", err)
	}
	var out strings.Builder
	for n := 0; n < maxPRGLines; n++ {
		next, err := rd.word()
		if err != nil {
			return "", rd.fail("reading link", err)
		}
		if next == 0 {
			return out.String(), nil
		}
		num, err := rd.word()
		if err != nil {
			return "", rd.fail("reading line number", err)
		}
		body, err := rd.buf.ReadBytes(0)
		rd.pos += len(body)
		if err != nil {
			return "", rd.fail("reading line body", err)
		}
		fmt.Fprintf(&out, "%d %s\n", num, prgLine(body[:len(body)-1]))
	}
	return "", fmt.Errorf("prg: more than %d lines", maxPRGLines)
}

// prgLine expands the tokens of one line body.
func prgLine(body []byte) string {
	var words []string
	var cur strings.Builder
	push := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(body); i++ {
		b := body[i]
		if b == '"' {
			end := i + 1
			for end < len(body) && body[end] != '"' {
				end++
			}
			cur.WriteString(`"` + petscii.EncodeEscapes(string(body[i+1:end])))
			if end < len(body) {
				cur.WriteByte('"')
			}
			i = end
			continue
		}
		if s, ok := prgSpelling(b); ok {
			push()
			words = append(words, s)
			continue
		}
		if b == ':' {
			push()
			words = append(words, ":")
			continue
		}
		if b < 128 {
			cur.WriteByte(b)
		} else {
			cur.WriteString(petscii.ToUnicode(string([]byte{b})))
		}
	}
	push()
	return joinWords(words)
}

func isWordByte(c byte) bool { return c == '"' || isLetter(c) || isDigit(c) }

// joinWords puts a blank between two words only where both sides are
// letters, digits or quotes.
func joinWords(words []string) string {
	var sb strings.Builder
	for i, w := range words {
		if i > 0 && w != "" {
			prev := words[i-1]
			if prev != "" && isWordByte(prev[len(prev)-1]) && isWordByte(w[0]) {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(w)
	}
	return sb.String()
}
