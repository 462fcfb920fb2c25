package expression

import (
	"strconv"
	"strings"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokNumber
	tokString
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	typ  tokenType
	text string
	val  Value
	pos  int
}

// lex splits expression text into tokens. Identifiers are upper-cased; the
// word operators AND, OR and NOT come out as tokOp.
func lex(text string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case isDigit(c) || (c == '.' && i+1 < len(text) && isDigit(text[i+1])):
			start := i
			for i < len(text) && (isDigit(text[i]) || text[i] == '.') {
				i++
			}
			if i < len(text) && (text[i] == 'e' || text[i] == 'E') {
				j := i + 1
				if j < len(text) && (text[j] == '+' || text[j] == '-') {
					j++
				}
				if j < len(text) && isDigit(text[j]) {
					for j < len(text) && isDigit(text[j]) {
						j++
					}
					i = j
				}
			}
			lit := text[start:i]
			v, err := parseLiteral(lit)
			if err != nil {
				return nil, &SyntaxError{Text: text, Pos: start, Msg: "bad number " + lit}
			}
			tokens = append(tokens, token{typ: tokNumber, text: lit, val: v, pos: start})
		case c == '"':
			start := i
			var sb strings.Builder
			i++
			closed := false
			for i < len(text) {
				ch := text[i]
				if ch == '\\' && i+1 < len(text) {
					sb.WriteByte(text[i+1])
					i += 2
					continue
				}
				if ch == '"' {
					closed = true
					i++
					break
				}
				sb.WriteByte(ch)
				i++
			}
			if !closed {
				return nil, &SyntaxError{Text: text, Pos: start, Msg: "unterminated string"}
			}
			tokens = append(tokens, token{typ: tokString, text: text[start:i], val: NewString(sb.String()), pos: start})
		case isLetter(c):
			start := i
			for i < len(text) && (isLetter(text[i]) || isDigit(text[i]) || text[i] == '_') {
				i++
			}
			if i < len(text) && (text[i] == '$' || text[i] == '%') {
				i++
			}
			word := strings.ToUpper(text[start:i])
			typ := tokIdent
			if word == "AND" || word == "OR" || word == "NOT" {
				typ = tokOp
			}
			tokens = append(tokens, token{typ: typ, text: word, pos: start})
		case c == '(':
			tokens = append(tokens, token{typ: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{typ: tokRParen, text: ")", pos: i})
			i++
		case c == ',':
			tokens = append(tokens, token{typ: tokComma, text: ",", pos: i})
			i++
		case c == '<' || c == '>' || c == '=':
			op, n := relationalOp(text[i:])
			tokens = append(tokens, token{typ: tokOp, text: op, pos: i})
			i += n
		case strings.IndexByte("+-*/^", c) >= 0:
			tokens = append(tokens, token{typ: tokOp, text: string(c), pos: i})
			i++
		default:
			return nil, &SyntaxError{Text: text, Pos: i, Msg: "unexpected character " + strconv.QuoteRune(rune(c))}
		}
	}
	tokens = append(tokens, token{typ: tokEOF, pos: len(text)})
	return tokens, nil
}

// relationalOp reads a comparison at the start of s and returns its canonical
// spelling and length. =<, => and >< are the same as <=, >= and <>.
func relationalOp(s string) (string, int) {
	if len(s) > 1 {
		switch s[:2] {
		case "<=", "=<":
			return "<=", 2
		case ">=", "=>":
			return ">=", 2
		case "<>", "><":
			return "<>", 2
		}
	}
	return s[:1], 1
}

func parseLiteral(lit string) (Value, error) {
	if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return NewInteger(i), nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Value{}, err
	}
	return NewNumber(f), nil
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }
