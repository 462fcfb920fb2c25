package petbasic

import (
	"fmt"
	"io"
	"strings"

	"github.com/antibyte/petbasic/pkg/petscii"
)

// ListString renders tokens back to source text. Tokenizing the result gives
// the same tokens again.
func ListString(tokens []Token) string {
	var sb strings.Builder
	ListFunc(tokens, func(_ Token, src string, space bool) {
		if space {
			sb.WriteByte(' ')
		}
		sb.WriteString(src)
	})
	return sb.String()
}

// ListFunc calls fn with each token and its source spelling. space is set
// where LIST puts a blank before the token.
func ListFunc(tokens []Token, fn func(t Token, src string, space bool)) {
	for i, t := range tokens {
		fn(t, TokenSource(t), i > 0 && needsSpace(tokens[i-1], t))
	}
}

// TokenSource is the source spelling of a single token.
func TokenSource(t Token) string {
	switch t.Kind {
	case KindString:
		return `"` + petscii.EncodeEscapes(t.Str) + `"`
	case KindKeyword:
		if t.Keyword == KwREM {
			return t.Text + t.Str
		}
		return t.Text
	case KindTokenList:
		return t.Str
	case KindExpression:
		return ListString(t.Sub)
	}
	return t.Text
}

func wordy(s string, first bool) bool {
	if s == "" {
		return false
	}
	c := s[len(s)-1]
	if first {
		c = s[0]
	}
	return isNameChar(c) || c == '"' || c == '$' || c == '%' || c == '.'
}

// needsSpace keeps adjacent words apart and puts a blank after statement
// keywords, the way programs are usually typed.
func needsSpace(l, r Token) bool {
	if r.Kind == KindTokenList {
		return false
	}
	if wordy(TokenSource(l), false) && wordy(TokenSource(r), true) {
		return true
	}
	if l.Kind == KindKeyword && !l.Keyword.IsFunction() && l.Keyword != KwFN && r.Kind != KindSeparator {
		return true
	}
	if r.Kind == KindKeyword && !r.Keyword.IsFunction() && r.Keyword != KwFN {
		return l.Kind != KindSeparator || l.Text == ")"
	}
	return false
}

// String renders the line the way LIST shows it.
func (l *Line) String() string {
	if l.Number == 0 {
		return ListString(l.Tokens)
	}
	return fmt.Sprintf("%d %s", l.Number, ListString(l.Tokens))
}

// List writes the lines numbered from..to (inclusive, to <= 0 means to the end)
// to w, one per line.
func (p *Program) List(w io.Writer, from, to int) error {
	var err error
	p.Range(from, to, func(l *Line) bool {
		_, err = fmt.Fprintln(w, l.String())
		return err == nil
	})
	return err
}
