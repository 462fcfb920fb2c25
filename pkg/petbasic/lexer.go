package petbasic

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/antibyte/petbasic/pkg/petscii"
)

// LoadWarning is a problem found while loading program text. Loading always
// continues.
type LoadWarning struct {
	Line int // line number, 0 for immediate text
	Msg  string
}

func (w LoadWarning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Msg)
	}
	return w.Msg
}

// MaxLineNumber is the largest line number a program may use.
const MaxLineNumber = 63999

// SplitLineNumber separates a leading line number from the rest of the text.
func SplitLineNumber(text string) (num int, rest string, ok bool) {
	s := strings.TrimLeft(text, " \t")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, text, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, text, false
	}
	return n, s[end:], true
}

type lexer struct {
	src       string
	pos       int
	tokens    []Token
	warnings  []LoadWarning
	stmtStart bool
}

// Tokenize converts one line of source text, without its line number, into
// tokens. Problems are reported as warnings and never stop the scan.
func Tokenize(text string) ([]Token, []LoadWarning) {
	lx := &lexer{src: text, stmtStart: true}
	lx.run()
	return lx.tokens, lx.warnings
}

func (lx *lexer) warnf(format string, args ...interface{}) {
	lx.warnings = append(lx.warnings, LoadWarning{Msg: fmt.Sprintf(format, args...)})
}

func (lx *lexer) emit(t Token) {
	lx.tokens = append(lx.tokens, t)
	lx.stmtStart = t.IsSeparator(':')
}

func (lx *lexer) prevEndsOperand() bool {
	return len(lx.tokens) > 0 && lx.tokens[len(lx.tokens)-1].endsOperand()
}

func (lx *lexer) run() {
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == ' ' || c == '\t':
			lx.pos++
		case c == ':' || c == ',' || c == ';' || c == '(' || c == ')':
			lx.emit(separatorToken(c))
			lx.pos++
		case c == '#':
			lx.emit(operatorToken(OpHash))
			lx.pos++
		case c == '?':
			lx.emit(keywordToken(KwPRINT))
			lx.pos++
		case lx.startsNumber():
			lx.number()
		case c == '"':
			lx.pos++
			s, escaped := lx.stringBody()
			lx.emit(stringToken(s, escaped))
		case isLetter(c):
			lx.word()
		case c == '<' || c == '>' || c == '=':
			lx.relational()
		case strings.IndexByte("+-*/^", c) >= 0:
			lx.emit(operatorToken(map[byte]Operator{'+': OpPlus, '-': OpMinus, '*': OpMul, '/': OpDiv, '^': OpPow}[c]))
			lx.pos++
		default:
			r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
			lx.warnf("unhandled character %q skipped", r)
			lx.pos += size
		}
	}
}

func (lx *lexer) peekAt(off int) byte {
	if lx.pos+off < len(lx.src) {
		return lx.src[lx.pos+off]
	}
	return 0
}

// startsNumber: a digit, or '.' or a unary '-' directly followed by a digit.
func (lx *lexer) startsNumber() bool {
	c := lx.peekAt(0)
	switch {
	case isDigit(c):
		return true
	case c == '.':
		return isDigit(lx.peekAt(1))
	case c == '-':
		if lx.prevEndsOperand() {
			return false
		}
		return isDigit(lx.peekAt(1)) || (lx.peekAt(1) == '.' && isDigit(lx.peekAt(2)))
	}
	return false
}

func (lx *lexer) number() {
	start := lx.pos
	if lx.src[lx.pos] == '-' {
		lx.pos++
	}
	for isDigit(lx.peekAt(0)) {
		lx.pos++
	}
	if lx.peekAt(0) == '.' {
		lx.pos++
		for isDigit(lx.peekAt(0)) {
			lx.pos++
		}
	}
	if e := lx.peekAt(0); e == 'E' || e == 'e' {
		off := 1
		if s := lx.peekAt(1); s == '+' || s == '-' {
			off = 2
		}
		if isDigit(lx.peekAt(off)) {
			lx.pos += off
			for isDigit(lx.peekAt(0)) {
				lx.pos++
			}
		}
	}
	tok := numberToken(strings.ToUpper(lx.src[start:lx.pos]))
	if tok.BadNumber {
		lx.warnf("malformed number %s", tok.Text)
	}
	lx.emit(tok)
}

// stringBody scans up to and including the closing quote. A missing closing
// quote ends the string at the end of the line.
func (lx *lexer) stringBody() (string, bool) {
	var sb strings.Builder
	escaped := false
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch c {
		case '"':
			lx.pos++
			return sb.String(), escaped
		case '\\':
			lx.pos++
			if lx.pos < len(lx.src) {
				r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
				if r < utf8.RuneSelf {
					sb.WriteByte(byte(r))
				} else {
					sb.WriteByte(petscii.FromRune(r))
				}
				lx.pos += size
			}
		case '{':
			end := strings.IndexAny(lx.src[lx.pos+1:], "}\"")
			if end < 0 || lx.src[lx.pos+1+end] != '}' {
				lx.warnf("unbalanced { in string")
				sb.WriteByte(c)
				lx.pos++
				continue
			}
			name := lx.src[lx.pos+1 : lx.pos+1+end]
			if code, err := petscii.Escape(name); err != nil {
				lx.warnf("%v", err)
				sb.WriteString(lx.src[lx.pos : lx.pos+2+end])
			} else {
				sb.Write(code)
				escaped = true
			}
			lx.pos += end + 2
		case '}':
			lx.warnf("unbalanced } in string")
			sb.WriteByte(c)
			lx.pos++
		default:
			r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
			sb.WriteByte(petscii.FromRune(r))
			lx.pos += size
		}
	}
	lx.warnf("missing closing quote")
	return sb.String(), escaped
}

// relational scans a comparison operator. The spellings =<, => and >< are
// accepted as well.
func (lx *lexer) relational() {
	c, n := lx.src[lx.pos], lx.peekAt(1)
	switch {
	case (c == '<' && n == '=') || (c == '=' && n == '<'):
		lx.emit(operatorToken(OpLessEqual))
		lx.pos += 2
	case (c == '<' && n == '>') || (c == '>' && n == '<'):
		lx.emit(operatorToken(OpNotEqual))
		lx.pos += 2
	case (c == '>' && n == '=') || (c == '=' && n == '>'):
		lx.emit(operatorToken(OpGreaterEqual))
		lx.pos += 2
	case c == '<':
		lx.emit(operatorToken(OpLess))
		lx.pos++
	case c == '>':
		lx.emit(operatorToken(OpGreater))
		lx.pos++
	default:
		lx.emit(operatorToken(OpEqual))
		lx.pos++
	}
}

// word scans a keyword, a word operator or a variable name.
func (lx *lexer) word() {
	rest := lx.src[lx.pos:]
	for _, w := range []struct {
		text string
		op   Operator
	}{{"AND", OpAnd}, {"OR", OpOr}, {"NOT", OpNot}} {
		if len(rest) >= len(w.text) && strings.EqualFold(rest[:len(w.text)], w.text) &&
			(len(rest) == len(w.text) || !isNameChar(rest[len(w.text)])) {
			lx.emit(operatorToken(w.op))
			lx.pos += len(w.text)
			return
		}
	}

	if kw, n, ok := matchKeyword(rest); ok {
		atStart := lx.stmtStart
		lx.emit(keywordToken(kw))
		lx.pos += n
		switch {
		case kw == KwREM:
			lx.tokens[len(lx.tokens)-1].Str = lx.src[lx.pos:]
			lx.pos = len(lx.src)
		case kw == KwDATA && atStart:
			lx.data()
		}
		return
	}

	start := lx.pos
	for lx.pos < len(lx.src) && isNameChar(lx.src[lx.pos]) {
		lx.pos++
	}
	if c := lx.peekAt(0); c == '$' || c == '%' {
		lx.pos++
	}
	lx.emit(variableToken(strings.ToUpper(lx.src[start:lx.pos])))
}

// data consumes the rest of the statement as a DATA list.
func (lx *lexer) data() {
	start := lx.pos
	quoted := false
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if c == '"' {
			quoted = !quoted
		} else if c == ':' && !quoted {
			break
		}
		lx.pos++
	}
	raw := lx.src[start:lx.pos]
	lx.emit(Token{Kind: KindTokenList, Text: raw, Str: raw, Sub: lx.dataItems(raw)})
}

func (lx *lexer) dataItems(raw string) []Token {
	var items []Token
	for _, field := range splitData(raw) {
		item := strings.TrimSpace(field)
		switch {
		case strings.HasPrefix(item, "\""):
			sub := &lexer{src: item, pos: 1}
			s, escaped := sub.stringBody()
			lx.warnings = append(lx.warnings, sub.warnings...)
			items = append(items, stringToken(s, escaped))
		case looksNumeric(item):
			items = append(items, numberToken(strings.ToUpper(item)))
		default:
			items = append(items, stringToken(petscii.FromUnicode(item), false))
		}
	}
	return items
}

// splitData splits a DATA payload on commas outside quotes.
func splitData(raw string) []string {
	var fields []string
	quoted := false
	start := 0
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				fields = append(fields, raw[start:i])
				start = i + 1
			}
		}
	}
	return append(fields, raw[start:])
}

func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil && !strings.ContainsAny(s, "xXpP_iInN")
}

func isDigit(c byte) bool    { return c >= '0' && c <= '9' }
func isLetter(c byte) bool   { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }
func isNameChar(c byte) bool { return isLetter(c) || isDigit(c) || c == '_' }
