package petbasic

import (
	"github.com/antibyte/petbasic/pkg/expression"
	"github.com/antibyte/petbasic/pkg/logger"
)

func numberValue(f float64) expression.Value { return expression.NewNumber(f) }

// [LET] target = expr

type letClause struct {
	target *lvalue
	value  *exprUnit
}

func (cp *compiler) let(tokens []Token) (clause, error) {
	lv, n, err := cp.lvalue(tokens)
	if err != nil {
		return nil, err
	}
	if n >= len(tokens) || !tokens[n].IsOperator(OpEqual) {
		return nil, compileError(CodeExpectedEquals).WithCommand("LET")
	}
	value, err := cp.unit(tokens[n+1:])
	if err != nil {
		return nil, err
	}
	return &letClause{target: lv, value: value}, nil
}

func (c *letClause) exec(in *Interpreter) error {
	v, err := c.value.eval(in)
	if err != nil {
		return err
	}
	return c.target.assign(in, v, true)
}

// DIM name(size[, size...])[, ...]

type dimItem struct {
	name  string
	sizes []*exprUnit
}

type dimClause struct {
	items []dimItem
}

func (cp *compiler) dim(tokens []Token) (clause, error) {
	c := &dimClause{}
	for _, part := range splitTop(tokens, ',') {
		lv, n, err := cp.lvalue(part)
		if err != nil {
			return nil, err
		}
		if n != len(part) || len(lv.indices) == 0 {
			return nil, compileError(CodeSyntax).WithInfo("%s", ListString(part))
		}
		c.items = append(c.items, dimItem{name: lv.name, sizes: lv.indices})
	}
	return c, nil
}

func (c *dimClause) exec(in *Interpreter) error {
	for _, item := range c.items {
		sizes := make([]int, len(item.sizes))
		for i, u := range item.sizes {
			f, err := u.evalNumber(in)
			if err != nil {
				return err
			}
			sizes[i] = int(f)
		}
		if err := in.vars.Dim(item.name, sizes); err != nil {
			return err
		}
	}
	return nil
}

// READ target[, target...]

type readClause struct {
	targets []*lvalue
}

func (cp *compiler) read(tokens []Token) (clause, error) {
	targets, err := cp.lvalueList(tokens)
	if err != nil {
		return nil, err
	}
	return &readClause{targets: targets}, nil
}

func (c *readClause) exec(in *Interpreter) error {
	for _, t := range c.targets {
		v, err := in.data.Next()
		if err != nil {
			return err
		}
		if err := t.assign(in, v, false); err != nil {
			return err
		}
	}
	return nil
}

// DATA is collected when the program is indexed.
type dataClause struct{}

func (dataClause) exec(*Interpreter) error { return nil }

// RESTORE

type restoreClause struct{}

func (restoreClause) exec(in *Interpreter) error {
	in.data.Restore()
	return nil
}

// DEF FN name(params) = expr

type defClause struct {
	name   string
	params []string
	body   []Token
}

func (cp *compiler) def(tokens []Token) (clause, error) {
	if len(tokens) < 2 || !tokens[0].IsKeyword(KwFN) || tokens[1].Kind != KindVariable {
		return nil, compileError(CodeBadDef)
	}
	c := &defClause{name: tokens[1].Text}
	if IsStringName(c.name) {
		return nil, compileError(CodeTypeMismatch).WithInfo("FN%s", c.name)
	}
	if len(tokens) < 3 || !tokens[2].IsSeparator('(') {
		return nil, compileError(CodeBadDef).WithInfo("FN%s", c.name)
	}
	end := matchParen(tokens, 2)
	if end < 0 {
		return nil, compileError(CodeMissingParen)
	}
	if end > 3 {
		for _, part := range splitTop(tokens[3:end], ',') {
			if len(part) != 1 || part[0].Kind != KindVariable {
				return nil, compileError(CodeBadDef).WithInfo("FN%s", c.name)
			}
			if IsStringName(part[0].Text) {
				return nil, compileError(CodeTypeMismatch).WithInfo("%s", part[0].Text)
			}
			c.params = append(c.params, part[0].Text)
		}
	}
	if end+1 >= len(tokens) || !tokens[end+1].IsOperator(OpEqual) {
		return nil, compileError(CodeExpectedEquals)
	}
	c.body = tokens[end+2:]
	if len(c.body) == 0 {
		return nil, compileError(CodeBadDef).WithInfo("FN%s", c.name)
	}
	return c, nil
}

func (c *defClause) exec(in *Interpreter) error {
	if cur, ok := in.fns[c.name]; ok && cur.src == c {
		return nil
	}
	in.fns[c.name] = &fnDef{params: c.params, body: c.body, src: c}
	in.fnGen++
	logger.Debug(logger.AreaEngine, "DEF FN%s(%d params)", c.name, len(c.params))
	return nil
}

// CLR

type clrClause struct{}

func (clrClause) exec(in *Interpreter) error {
	in.clearRuntime()
	return nil
}

// POKE address, value

type pokeClause struct {
	addr, value *exprUnit
}

func (cp *compiler) poke(tokens []Token) (clause, error) {
	parts := splitTop(tokens, ',')
	if len(parts) != 2 {
		return nil, compileError(CodeSyntax)
	}
	addr, err := cp.unit(parts[0])
	if err != nil {
		return nil, err
	}
	value, err := cp.unit(parts[1])
	if err != nil {
		return nil, err
	}
	return &pokeClause{addr: addr, value: value}, nil
}

func (c *pokeClause) exec(in *Interpreter) error {
	addr, err := c.addr.evalInt(in, 0, 65535)
	if err != nil {
		return err
	}
	v, err := c.value.evalInt(in, 0, 255)
	if err != nil {
		return err
	}
	in.memory.Poke(addr, byte(v))
	return nil
}
