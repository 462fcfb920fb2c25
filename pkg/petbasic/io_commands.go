package petbasic

import (
	"errors"
	"io"
	"strings"

	"github.com/antibyte/petbasic/pkg/expression"
	"github.com/antibyte/petbasic/pkg/logger"
	"github.com/antibyte/petbasic/pkg/petscii"
)

// PRINT [item {, | ;} ...]

type printItem struct {
	value *exprUnit // nil for an empty item
	sep   byte      // ',' ';' or 0 after the last item
}

type printClause struct {
	items []printItem
}

func (cp *compiler) print(tokens []Token) (clause, error) {
	c := &printClause{}
	var cur []Token
	flush := func(sep byte) error {
		item := printItem{sep: sep}
		if len(cur) > 0 {
			u, err := cp.unit(cur)
			if err != nil {
				return err
			}
			item.value = u
		}
		c.items = append(c.items, item)
		cur = nil
		return nil
	}
	depth := 0
	for _, t := range tokens {
		if depth == 0 {
			if t.IsSeparator(',') || t.IsSeparator(';') {
				if err := flush(t.Text[0]); err != nil {
					return nil, err
				}
				continue
			}
			// PRINT "A"B$"C" prints its operands back to back
			if len(cur) > 0 && implicitSplit(cur[len(cur)-1], t) {
				if err := flush(';'); err != nil {
					return nil, err
				}
			}
		}
		switch {
		case t.IsSeparator('('):
			depth++
		case t.IsSeparator(')'):
			depth--
		}
		cur = append(cur, t)
	}
	if depth != 0 {
		return nil, compileError(CodeMissingParen)
	}
	if len(cur) > 0 {
		if err := flush(0); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func implicitSplit(prev, t Token) bool {
	if !prev.endsOperand() || !t.startsOperand() {
		return false
	}
	if t.IsSeparator('(') {
		// a subscript or a parenthesised operand after a string
		return prev.Kind == KindString || prev.Kind == KindNumber
	}
	return true
}

func (c *printClause) exec(in *Interpreter) error {
	for _, item := range c.items {
		if item.value != nil {
			v, err := item.value.eval(in)
			if err != nil {
				return err
			}
			in.print(printText(v))
		}
		if item.sep == ',' {
			_, col := in.display.Cursor()
			in.print(strings.Repeat(" ", printZone-col%printZone))
		}
	}
	if len(c.items) == 0 || c.items[len(c.items)-1].sep == 0 {
		in.print("\r")
	}
	return nil
}

// printText formats a value the way PRINT shows it: numbers get a sign
// column and a trailing blank.
func printText(v expression.Value) string {
	if v.IsString() {
		return v.Str()
	}
	s := expression.FormatNumber(v)
	if !strings.HasPrefix(s, "-") {
		s = " " + s
	}
	return s + " "
}

// INPUT ["prompt";] target[, target...]

type inputClause struct {
	prompt  string
	targets []*lvalue
}

func (cp *compiler) input(tokens []Token) (clause, error) {
	c := &inputClause{}
	if len(tokens) > 0 && tokens[0].IsOperator(OpHash) {
		return unsupportedClause{kw: KwINPUTH}, nil
	}
	if len(tokens) >= 2 && tokens[0].Kind == KindString && tokens[1].IsSeparator(';') {
		c.prompt = tokens[0].Str
		tokens = tokens[2:]
	}
	targets, err := cp.lvalueList(tokens)
	if err != nil {
		return nil, err
	}
	c.targets = targets
	return c, nil
}

func (c *inputClause) exec(in *Interpreter) error {
	for {
		fields, err := c.collect(in)
		if err != nil {
			return err
		}
		values, ok := c.convert(fields)
		if !ok {
			in.print("?REDO FROM START\r")
			continue
		}
		if len(fields) > len(c.targets) {
			in.print("?EXTRA IGNORED\r")
		}
		for i, t := range c.targets {
			if err := t.assign(in, values[i], false); err != nil {
				return err
			}
		}
		return nil
	}
}

// collect reads lines until there is a field for every target.
func (c *inputClause) collect(in *Interpreter) ([]string, error) {
	var fields []string
	prompt := c.prompt + "? "
	for len(fields) < len(c.targets) {
		in.echo(prompt)
		line, err := in.display.ReadLine(petscii.ToUnicode(prompt))
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Debug(logger.AreaEngine, "INPUT: end of input")
				return nil, ErrBreak
			}
			return nil, runtimeError(CodeInput).WithInfo("%v", err)
		}
		text := petscii.FromUnicode(line)
		if !in.echoesInput() {
			in.echo(text + "\r")
		}
		for _, f := range splitData(text) {
			f = strings.TrimSpace(f)
			if len(f) >= 2 && f[0] == '"' && f[len(f)-1] == '"' {
				f = f[1 : len(f)-1]
			}
			fields = append(fields, f)
		}
		prompt = "?? "
	}
	return fields, nil
}

func (c *inputClause) convert(fields []string) ([]expression.Value, bool) {
	values := make([]expression.Value, len(c.targets))
	for i, t := range c.targets {
		if t.isString() {
			values[i] = expression.NewString(fields[i])
			continue
		}
		v, ok := expression.ParseNumber(fields[i])
		if !ok {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// GET target[, target...]

type getClause struct {
	targets []*lvalue
}

func (cp *compiler) get(tokens []Token) (clause, error) {
	if len(tokens) > 0 && tokens[0].IsOperator(OpHash) {
		return unsupportedClause{kw: KwGET, hash: true}, nil
	}
	targets, err := cp.lvalueList(tokens)
	if err != nil {
		return nil, err
	}
	return &getClause{targets: targets}, nil
}

func (c *getClause) exec(in *Interpreter) error {
	for _, t := range c.targets {
		b, ok := in.display.ReadChar()
		var v expression.Value
		switch {
		case t.isString() && ok:
			v = expression.NewString(string([]byte{b}))
		case t.isString():
			v = expression.NewString("")
		case ok && b >= '0' && b <= '9':
			v = expression.NewInteger(int64(b - '0'))
		default:
			v = expression.NewInteger(0)
		}
		if err := t.assign(in, v, false); err != nil {
			return err
		}
	}
	return nil
}

// DELAY ms

type delayClause struct {
	ms *exprUnit
}

func (cp *compiler) delay(tokens []Token) (clause, error) {
	ms, err := cp.unit(tokens)
	if err != nil {
		return nil, err
	}
	return &delayClause{ms: ms}, nil
}

func (c *delayClause) exec(in *Interpreter) error {
	ms, err := c.ms.evalInt(in, 0, 1<<31-1)
	if err != nil {
		return err
	}
	in.display.Delay(ms)
	return nil
}
