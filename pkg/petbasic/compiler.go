package petbasic

import (
	"errors"
	"strconv"
	"strings"

	"github.com/antibyte/petbasic/pkg/expression"
)

// clause is a compiled statement.
type clause interface {
	exec(in *Interpreter) error
}

// compiler turns the tokens of one statement into a clause.
type compiler struct {
	in     *Interpreter
	pos    position
	usesFn bool
}

// statement dispatches on the leading token.
func (cp *compiler) statement(tokens []Token) (clause, error) {
	c, err := cp.dispatch(tokens)
	if err != nil {
		var be *BASICError
		if errors.As(err, &be) && be.Command == "" && tokens[0].Kind == KindKeyword {
			be.Command = tokens[0].Keyword.String()
		}
		return nil, err
	}
	return c, nil
}

func (cp *compiler) dispatch(tokens []Token) (clause, error) {
	if len(tokens) == 0 {
		return remClause{}, nil
	}
	t, args := tokens[0], tokens[1:]
	if t.Kind == KindVariable {
		return cp.let(tokens)
	}
	if t.Kind != KindKeyword {
		return nil, compileError(CodeSyntax).WithInfo("%s", t.Text)
	}
	if unsupported[t.Keyword] {
		return unsupportedClause{kw: t.Keyword}, nil
	}
	switch t.Keyword {
	case KwLET:
		return cp.let(args)
	case KwPRINT:
		return cp.print(args)
	case KwIF:
		return cp.ifThen(args)
	case KwFOR:
		return cp.forLoop(args)
	case KwNEXT:
		return cp.next(args)
	case KwGOTO:
		return cp.jumpTo(args, false)
	case KwGO:
		if len(args) == 0 || !args[0].IsKeyword(KwTO) {
			return nil, compileError(CodeSyntax).WithInfo("GO without TO")
		}
		return cp.jumpTo(args[1:], false)
	case KwGOSUB:
		return cp.jumpTo(args, true)
	case KwRETURN:
		if len(args) > 0 {
			return nil, compileError(CodeSyntax)
		}
		return returnClause{}, nil
	case KwON:
		return cp.on(args)
	case KwDIM:
		return cp.dim(args)
	case KwREAD:
		return cp.read(args)
	case KwDATA:
		return dataClause{}, nil
	case KwRESTORE:
		return restoreClause{}, nil
	case KwDEF:
		return cp.def(args)
	case KwPOKE:
		return cp.poke(args)
	case KwINPUT:
		return cp.input(args)
	case KwGET:
		return cp.get(args)
	case KwEND:
		return endClause{}, nil
	case KwSTOP:
		return endClause{stop: true}, nil
	case KwCONT:
		return contClause{}, nil
	case KwCLR:
		return clrClause{}, nil
	case KwNEW:
		return newClause{}, nil
	case KwRUN:
		return cp.run(args)
	case KwLIST:
		return cp.list(args)
	case KwREM:
		return remClause{}, nil
	case KwDELAY:
		return cp.delay(args)
	}
	return nil, compileError(CodeSyntax).WithInfo("%s", t.Keyword)
}

// exprUnit is a compiled expression. Bare literals and variables are handled
// directly; everything else goes through the expression engine.
type exprUnit struct {
	lit  expression.Value
	name string
	expr *expression.Expr
}

func (u *exprUnit) eval(in *Interpreter) (expression.Value, error) {
	switch {
	case u.expr != nil:
		return in.engine.Eval(u.expr)
	case u.name != "":
		return in.readVar(u.name), nil
	}
	return u.lit, nil
}

// evalNumber evaluates a unit that must be numeric.
func (u *exprUnit) evalNumber(in *Interpreter) (float64, error) {
	v, err := u.eval(in)
	if err != nil {
		return 0, err
	}
	if v.IsString() {
		return 0, runtimeError(CodeTypeMismatch)
	}
	return v.Float(), nil
}

// evalInt evaluates a numeric unit and checks lo <= value <= hi.
func (u *exprUnit) evalInt(in *Interpreter, lo, hi int) (int, error) {
	f, err := u.evalNumber(in)
	if err != nil {
		return 0, err
	}
	if f < float64(lo) || f >= float64(hi)+1 {
		return 0, runtimeError(CodeIllegalQuantity)
	}
	return int(f), nil
}

func (cp *compiler) unit(tokens []Token) (*exprUnit, error) {
	if len(tokens) == 0 {
		return nil, compileError(CodeSyntax).WithInfo("expression expected")
	}
	if len(tokens) == 1 {
		switch t := tokens[0]; t.Kind {
		case KindNumber, KindString:
			return &exprUnit{lit: literalValue(t)}, nil
		case KindVariable:
			return &exprUnit{name: t.Text}, nil
		}
	}
	expanded, err := cp.expandFn(tokens, 0)
	if err != nil {
		return nil, err
	}
	text, err := exprText(expanded)
	if err != nil {
		return nil, err
	}
	x, err := cp.in.engine.Compile(text)
	if err != nil {
		be := classify(err)
		be.Category = ErrCategoryCompile
		return nil, be
	}
	return &exprUnit{expr: x}, nil
}

// fnDef is a function defined by DEF FN.
type fnDef struct {
	params []string
	body   []Token
	src    *defClause
}

// expandFn replaces every FN call by its body with the arguments substituted
// for the parameters.
func (cp *compiler) expandFn(tokens []Token, depth int) ([]Token, error) {
	var out []Token
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if !t.IsKeyword(KwFN) {
			out = append(out, t)
			continue
		}
		cp.usesFn = true
		if depth >= maxFnNesting {
			return nil, compileError(CodeBadDef).WithInfo("FN nested too deeply")
		}
		if i+2 >= len(tokens) || tokens[i+1].Kind != KindVariable || !tokens[i+2].IsSeparator('(') {
			return nil, compileError(CodeSyntax).WithInfo("FN")
		}
		name := tokens[i+1].Text
		def, ok := cp.in.fns[name]
		if !ok {
			return nil, compileError(CodeUndefFunction).WithInfo("FN%s", name)
		}
		end := matchParen(tokens, i+2)
		if end < 0 {
			return nil, compileError(CodeMissingParen)
		}
		args := splitTop(tokens[i+3:end], ',')
		if len(args) != len(def.params) {
			return nil, compileError(CodeArgumentCount).WithInfo("FN%s", name)
		}
		for k := range args {
			var err error
			if args[k], err = cp.expandFn(args[k], depth); err != nil {
				return nil, err
			}
		}
		var body []Token
		for _, bt := range def.body {
			if bt.Kind == KindVariable {
				if k := indexOf(def.params, bt.Text); k >= 0 {
					body = append(body, separatorToken('('))
					body = append(body, args[k]...)
					body = append(body, separatorToken(')'))
					continue
				}
			}
			body = append(body, bt)
		}
		body, err := cp.expandFn(body, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, separatorToken('('))
		out = append(out, body...)
		out = append(out, separatorToken(')'))
		i = end
	}
	return out, nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// matchParen returns the index of the ')' closing the '(' at open, or -1.
func matchParen(tokens []Token, open int) int {
	depth := 0
	for i := open; i < len(tokens); i++ {
		switch {
		case tokens[i].IsSeparator('('):
			depth++
		case tokens[i].IsSeparator(')'):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTop splits tokens on the separator sep outside parentheses.
func splitTop(tokens []Token, sep byte) [][]Token {
	var parts [][]Token
	depth, start := 0, 0
	for i, t := range tokens {
		switch {
		case t.IsSeparator('('):
			depth++
		case t.IsSeparator(')'):
			depth--
		case depth == 0 && t.IsSeparator(sep):
			parts = append(parts, tokens[start:i])
			start = i + 1
		}
	}
	return append(parts, tokens[start:])
}

// findTop returns the index of the first keyword k outside parentheses.
func findTop(tokens []Token, k Keyword) int {
	depth := 0
	for i, t := range tokens {
		switch {
		case t.IsSeparator('('):
			depth++
		case t.IsSeparator(')'):
			depth--
		case depth == 0 && t.IsKeyword(k):
			return i
		}
	}
	return -1
}

// exprText serializes tokens for the expression engine.
func exprText(tokens []Token) (string, error) {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		switch t.Kind {
		case KindNumber:
			switch {
			case t.BadNumber:
				parts = append(parts, "0")
			case t.IsReal:
				parts = append(parts, strconv.FormatFloat(t.Real, 'g', -1, 64))
			default:
				parts = append(parts, strconv.FormatInt(t.Int, 10))
			}
		case KindString:
			parts = append(parts, quoteString(t.Str))
		case KindVariable:
			parts = append(parts, t.Text)
		case KindOperator:
			if t.Op == OpHash {
				return "", compileError(CodeSyntax).WithInfo("#")
			}
			parts = append(parts, t.Text)
		case KindSeparator:
			if t.Text != "(" && t.Text != ")" && t.Text != "," {
				return "", compileError(CodeSyntax).WithInfo("%s", t.Text)
			}
			parts = append(parts, t.Text)
		case KindKeyword:
			if !t.Keyword.IsFunction() {
				return "", compileError(CodeSyntax).WithInfo("%s", t.Text)
			}
			parts = append(parts, t.Text)
		default:
			return "", compileError(CodeSyntax)
		}
	}
	return strings.Join(parts, " "), nil
}

var stringQuoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quoteString(s string) string { return `"` + stringQuoter.Replace(s) + `"` }

// lvalue is an assignment target: a scalar or an array element.
type lvalue struct {
	name    string
	indices []*exprUnit
}

// lvalue parses a target at the start of tokens and returns the number of
// tokens it used.
func (cp *compiler) lvalue(tokens []Token) (*lvalue, int, error) {
	if len(tokens) == 0 || tokens[0].Kind != KindVariable {
		return nil, 0, compileError(CodeExpectedVariable)
	}
	lv := &lvalue{name: tokens[0].Text}
	if len(tokens) < 2 || !tokens[1].IsSeparator('(') {
		return lv, 1, nil
	}
	end := matchParen(tokens, 1)
	if end < 0 {
		return nil, 0, compileError(CodeMissingParen)
	}
	for _, part := range splitTop(tokens[2:end], ',') {
		u, err := cp.unit(part)
		if err != nil {
			return nil, 0, err
		}
		lv.indices = append(lv.indices, u)
	}
	return lv, end + 1, nil
}

// lvalueList parses comma separated targets.
func (cp *compiler) lvalueList(tokens []Token) ([]*lvalue, error) {
	var list []*lvalue
	for _, part := range splitTop(tokens, ',') {
		lv, n, err := cp.lvalue(part)
		if err != nil {
			return nil, err
		}
		if n != len(part) {
			return nil, compileError(CodeSyntax).WithInfo("%s", ListString(part[n:]))
		}
		list = append(list, lv)
	}
	return list, nil
}

func (lv *lvalue) isString() bool { return IsStringName(lv.name) }

// assign stores v. strict applies the LET type rule; otherwise numeric text
// is converted.
func (lv *lvalue) assign(in *Interpreter, v expression.Value, strict bool) error {
	if strict {
		if err := checkType(lv.name, v); err != nil {
			return err
		}
	}
	if len(lv.indices) == 0 {
		if _, set, ok := in.engine.Variable(lv.name); ok {
			if set != nil {
				set(v)
			}
			return nil
		}
		return in.vars.Set(lv.name, v)
	}
	idx, err := in.indices(lv.indices)
	if err != nil {
		return err
	}
	return in.vars.SetIndexed(lv.name, idx, v)
}

func (in *Interpreter) indices(units []*exprUnit) ([]int, error) {
	idx := make([]int, len(units))
	for i, u := range units {
		f, err := u.evalNumber(in)
		if err != nil {
			return nil, err
		}
		idx[i] = int(f)
	}
	return idx, nil
}

// lineTarget reads a single line number token.
func lineTarget(tokens []Token) (int, error) {
	if len(tokens) != 1 || tokens[0].Kind != KindNumber || tokens[0].IsReal || tokens[0].Int < 0 {
		return 0, compileError(CodeExpectedLine)
	}
	return int(tokens[0].Int), nil
}
