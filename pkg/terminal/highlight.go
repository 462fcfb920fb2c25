package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/xyproto/vt"

	"github.com/antibyte/petbasic/pkg/petbasic"
)

// Farben für die Syntaxhervorhebung
var (
	colorLineNumber = vt.LightYellow
	colorKeyword    = vt.LightBlue
	colorFunction   = vt.LightCyan
	colorString     = vt.LightGreen
	colorNumber     = vt.LightMagenta
	colorVariable   = vt.White
	colorRemark     = vt.DarkGray
	colorData       = vt.Yellow
	colorPunct      = vt.LightGray
)

func tokenColor(t petbasic.Token) vt.AttributeColor {
	switch t.Kind {
	case petbasic.KindKeyword:
		switch {
		case t.Keyword == petbasic.KwREM:
			return colorRemark
		case t.Keyword.IsFunction():
			return colorFunction
		}
		return colorKeyword
	case petbasic.KindString:
		return colorString
	case petbasic.KindNumber:
		return colorNumber
	case petbasic.KindVariable:
		return colorVariable
	case petbasic.KindTokenList:
		return colorData
	}
	return colorPunct
}

// HighlightLine renders one program line with ANSI colors.
func HighlightLine(l *petbasic.Line) string {
	var sb strings.Builder
	sb.WriteString(colorLineNumber.Get(fmt.Sprint(l.Number)))
	sb.WriteByte(' ')
	petbasic.ListFunc(l.Tokens, func(t petbasic.Token, src string, space bool) {
		if space {
			sb.WriteByte(' ')
		}
		sb.WriteString(tokenColor(t).Get(src))
	})
	return sb.String()
}

// Highlight writes the program listing with ANSI colors.
func Highlight(w io.Writer, p *petbasic.Program) error {
	for _, l := range p.Lines() {
		if _, err := fmt.Fprintln(w, HighlightLine(l)); err != nil {
			return err
		}
	}
	return nil
}
