package petscii

import (
	"fmt"
	"strconv"
	"strings"
)

// EscapeError reports an embedded {NAME} that could not be decoded. The text is
// kept verbatim in the decoded string.
type EscapeError struct {
	Name string
}

func (e *EscapeError) Error() string {
	return fmt.Sprintf("unknown escape {%s}", e.Name)
}

// MaxEscapeRepeat is the largest repeat count accepted in "{N NAME}".
const MaxEscapeRepeat = 255

var escapeCodes = map[string]byte{
	"HOM":  19,
	"CLS":  147,
	"REV":  18,
	"OFF":  146,
	"CU":   145,
	"CD":   17,
	"CL":   157,
	"CR":   29,
	"^SPC": 160,
	"DQT":  34,
	"BSH":  92,
	"DEL":  126,
}

var escapeNames = func() map[byte]string {
	names := make(map[byte]string, len(escapeCodes))
	for name, code := range escapeCodes {
		names[code] = name
	}
	return names
}()

// Escape decodes the text between braces: a name, an optional decimal repeat
// count followed by a space ("3 CD"), a shifted character ("^A") or a decimal
// byte value ("147").
func Escape(name string) ([]byte, error) {
	count := 1
	body := strings.ToUpper(strings.TrimSpace(name))
	if prefix, rest, ok := strings.Cut(body, " "); ok {
		n, err := strconv.Atoi(prefix)
		if err != nil || n < 1 || n > MaxEscapeRepeat {
			return nil, &EscapeError{Name: name}
		}
		count = n
		body = strings.TrimSpace(rest)
	}

	code, ok := escapeCodes[body]
	if !ok {
		code, ok = decodeShiftedOrNumeric(body)
	}
	if !ok {
		return nil, &EscapeError{Name: name}
	}
	return []byte(strings.Repeat(string([]byte{code}), count)), nil
}

func decodeShiftedOrNumeric(body string) (byte, bool) {
	if len(body) == 2 && body[0] == '^' {
		base := FromRune(rune(body[1]))
		if base >= 128 {
			return 0, false
		}
		return base + 128, true
	}
	n, err := strconv.Atoi(body)
	if err != nil || n < 0 || n > 255 {
		return 0, false
	}
	return byte(n), true
}

// DecodeEscapes expands every {...} sequence in text. Unknown escapes stay in
// the result as written and are reported; so are unbalanced braces.
func DecodeEscapes(text string) (string, []error) {
	var (
		out  strings.Builder
		errs []error
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '{':
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				errs = append(errs, fmt.Errorf("unterminated escape at %d", i))
				out.WriteString(text[i:])
				return out.String(), errs
			}
			name := text[i+1 : i+1+end]
			decoded, err := Escape(name)
			if err != nil {
				errs = append(errs, err)
				out.WriteString(text[i : i+2+end])
			} else {
				out.Write(decoded)
			}
			i += end + 1
		case '}':
			errs = append(errs, fmt.Errorf("unbalanced } at %d", i))
			out.WriteByte(c)
		default:
			out.WriteByte(c)
		}
	}
	return out.String(), errs
}

// EncodeEscapes is the inverse of DecodeEscapes for PETSCII strings: bytes that
// would not survive as plain source text are written as {NAME} escapes, runs of
// the same escape as a repeat count of at most MaxEscapeRepeat.
func EncodeEscapes(s string) string {
	var out strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if plainSourceByte(c) {
			out.WriteByte(c)
			i++
			continue
		}
		run := 1
		for i+run < len(s) && s[i+run] == c && run < MaxEscapeRepeat {
			run++
		}
		name := escapeName(c)
		if run > 1 {
			fmt.Fprintf(&out, "{%d %s}", run, name)
		} else {
			fmt.Fprintf(&out, "{%s}", name)
		}
		i += run
	}
	return out.String()
}

// plainSourceByte reports whether c can appear literally inside a quoted string.
func plainSourceByte(c byte) bool {
	switch c {
	case '"', '\\', '{', '}':
		return false
	}
	return c >= 32 && c < 96
}

func escapeName(c byte) string {
	if name, ok := escapeNames[c]; ok {
		return name
	}
	if c >= 193 && c <= 218 {
		return "^" + string(rune(c-128))
	}
	return strconv.Itoa(int(c))
}
