package petbasic

import (
	"github.com/antibyte/petbasic/pkg/petscii"
)

// LIST [from][-[to]]

type listClause struct {
	from, to int
}

func (cp *compiler) list(tokens []Token) (clause, error) {
	c := &listClause{}
	num := func(t Token) (int, bool) {
		if t.Kind != KindNumber || t.IsReal {
			return 0, false
		}
		return int(t.Int), true
	}
	bad := compileError(CodeExpectedLine)
	switch len(tokens) {
	case 0:
	case 1:
		// "LIST -20" scans as the number -20
		n, ok := num(tokens[0])
		switch {
		case !ok:
			return nil, bad
		case n < 0:
			c.to = -n
		default:
			c.from, c.to = n, n
		}
	case 2:
		n, ok := num(tokens[0])
		if !ok || n < 0 || !tokens[1].IsOperator(OpMinus) {
			return nil, bad
		}
		c.from = n
	case 3:
		from, ok1 := num(tokens[0])
		to, ok2 := num(tokens[2])
		if !ok1 || !ok2 || from < 0 || to < 0 || !tokens[1].IsOperator(OpMinus) {
			return nil, bad
		}
		c.from, c.to = from, to
	default:
		return nil, bad
	}
	return c, nil
}

func (c *listClause) exec(in *Interpreter) error {
	if c.to > 0 && c.to < c.from {
		return nil
	}
	in.program.Range(c.from, c.to, func(l *Line) bool {
		in.print(petscii.FromUnicode(l.String()) + "\r")
		return !in.stopped.Load()
	})
	return nil
}

// NEW

type newClause struct{}

func (newClause) exec(in *Interpreter) error {
	in.program.Clear()
	in.programEdited()
	in.jump(endPos, false)
	return nil
}

// REM

type remClause struct{}

func (remClause) exec(*Interpreter) error { return nil }

// device and disk statements

type unsupportedClause struct {
	kw   Keyword
	hash bool // GET#
}

func (c unsupportedClause) exec(*Interpreter) error {
	if c.hash {
		return unsupportedError(c.kw).WithCommand(c.kw.String()+"#").WithInfo("%s# NOT SUPPORTED", c.kw)
	}
	return unsupportedError(c.kw)
}
