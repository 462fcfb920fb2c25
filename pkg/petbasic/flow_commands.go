package petbasic

import (
	"math"

	"github.com/antibyte/petbasic/pkg/logger"
)

// maxStmt positions past the last statement of any line.
const maxStmt = math.MaxInt32

// GOTO, GOSUB

type jumpClause struct {
	target int
	gosub  bool
}

func (cp *compiler) jumpTo(tokens []Token, gosub bool) (clause, error) {
	target, err := lineTarget(tokens)
	if err != nil {
		return nil, err
	}
	return &jumpClause{target: target, gosub: gosub}, nil
}

func (c *jumpClause) exec(in *Interpreter) error {
	if c.gosub {
		return in.gosubLine(c.target)
	}
	return in.gotoLine(c.target)
}

// RETURN

type returnClause struct{}

func (returnClause) exec(in *Interpreter) error {
	n := len(in.calls)
	if n == 0 {
		return runtimeError(CodeReturnWithoutSub)
	}
	ret := in.calls[n-1]
	in.calls = in.calls[:n-1]
	// loops opened inside the subroutine end with it
	keep := len(in.fors)
	for keep > 0 && in.fors[keep-1].depth > len(in.calls) {
		keep--
	}
	in.fors = in.fors[:keep]
	in.jump(ret, true)
	return nil
}

// ON expr GOTO/GOSUB

type onClause struct {
	index   *exprUnit
	targets []int
	gosub   bool
}

func (cp *compiler) on(tokens []Token) (clause, error) {
	k, gosub := findTop(tokens, KwGOTO), false
	skip := 1
	if k < 0 {
		k, gosub = findTop(tokens, KwGOSUB), true
	}
	if k < 0 {
		if k = findTop(tokens, KwGO); k >= 0 && k+1 < len(tokens) && tokens[k+1].IsKeyword(KwTO) {
			gosub, skip = false, 2
		} else {
			return nil, compileError(CodeSyntax).WithInfo("GOTO or GOSUB expected")
		}
	}
	index, err := cp.unit(tokens[:k])
	if err != nil {
		return nil, err
	}
	c := &onClause{index: index, gosub: gosub}
	for _, part := range splitTop(tokens[k+skip:], ',') {
		target, err := lineTarget(part)
		if err != nil {
			return nil, err
		}
		c.targets = append(c.targets, target)
	}
	return c, nil
}

func (c *onClause) exec(in *Interpreter) error {
	f, err := c.index.evalNumber(in)
	if err != nil {
		return err
	}
	i := int(math.Floor(f))
	if i < 1 || i > len(c.targets) {
		return runtimeError(CodeOnRange).WithInfo("%d", i)
	}
	if c.gosub {
		return in.gosubLine(c.targets[i-1])
	}
	return in.gotoLine(c.targets[i-1])
}

// IF cond THEN line | statement, IF cond GOTO line

type ifClause struct {
	cond   *exprUnit
	target int
	then   clause
}

func (cp *compiler) ifThen(tokens []Token) (clause, error) {
	k := findTop(tokens, KwTHEN)
	isGoto := false
	if k < 0 {
		if k = findTop(tokens, KwGOTO); k < 0 {
			return nil, compileError(CodeSyntax).WithInfo("THEN expected")
		}
		isGoto = true
	}
	cond, err := cp.unit(tokens[:k])
	if err != nil {
		return nil, err
	}
	c := &ifClause{cond: cond}
	rest := tokens[k+1:]
	switch {
	case isGoto:
		if c.target, err = lineTarget(rest); err != nil {
			return nil, err
		}
	case len(rest) == 1 && rest[0].Kind == KindNumber:
		if c.target, err = lineTarget(rest); err != nil {
			return nil, err
		}
	case len(rest) > 0:
		if c.then, err = cp.dispatch(rest); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *ifClause) exec(in *Interpreter) error {
	v, err := c.cond.eval(in)
	if err != nil {
		return err
	}
	if !v.Truthy() {
		in.jump(position{in.pc.line, maxStmt}, false)
		return nil
	}
	if c.target > 0 {
		return in.gotoLine(c.target)
	}
	if c.then != nil {
		return c.then.exec(in)
	}
	return nil
}

// FOR var = from TO to [STEP step]

type forClause struct {
	name           string
	from, to, step *exprUnit
	next           position
	nextVar        int
}

func (cp *compiler) forLoop(tokens []Token) (clause, error) {
	if len(tokens) < 2 || tokens[0].Kind != KindVariable {
		return nil, compileError(CodeExpectedVariable)
	}
	name := tokens[0].Text
	if IsStringName(name) {
		return nil, compileError(CodeTypeMismatch).WithInfo("%s", name)
	}
	if !tokens[1].IsOperator(OpEqual) {
		return nil, compileError(CodeExpectedEquals)
	}
	rest := tokens[2:]
	k := findTop(rest, KwTO)
	if k < 0 {
		return nil, compileError(CodeExpectedTo)
	}
	c := &forClause{name: name}
	var err error
	if c.from, err = cp.unit(rest[:k]); err != nil {
		return nil, err
	}
	limit := rest[k+1:]
	if s := findTop(limit, KwSTEP); s >= 0 {
		if c.step, err = cp.unit(limit[s+1:]); err != nil {
			return nil, err
		}
		limit = limit[:s]
	}
	if c.to, err = cp.unit(limit); err != nil {
		return nil, err
	}
	next, vi, ok := cp.in.program.findNext(cp.in.immediate, cp.pos)
	if !ok {
		return nil, compileError(CodeForWithoutNext).WithInfo("%s", name)
	}
	c.next, c.nextVar = next, vi
	return c, nil
}

func (c *forClause) exec(in *Interpreter) error {
	from, err := c.from.evalNumber(in)
	if err != nil {
		return err
	}
	to, err := c.to.evalNumber(in)
	if err != nil {
		return err
	}
	step := 1.0
	if c.step != nil {
		if step, err = c.step.evalNumber(in); err != nil {
			return err
		}
	}
	if in.opts.IntegerForStep {
		step = math.Trunc(step)
		if step == 0 {
			return runtimeError(CodeIllegalQuantity).WithInfo("STEP 0")
		}
	}

	depth := len(in.calls)
	for i := len(in.fors) - 1; i >= 0; i-- {
		if in.fors[i].depth == depth && in.fors[i].name == c.name {
			in.fors = in.fors[:i]
			break
		}
	}
	if len(in.fors) >= in.opts.MaxForDepth {
		return runtimeError(CodeForDepth)
	}
	if err := in.vars.Set(c.name, numberValue(from)); err != nil {
		return err
	}

	if (step >= 0 && from > to) || (step < 0 && from < to) {
		logger.Debug(logger.AreaEngine, "FOR %s skips its body", c.name)
		if c.nextVar >= 0 && c.nextVar < in.lastNextVar(c.next) {
			in.nextSkip = c.nextVar + 1
			in.jump(c.next, false)
			return nil
		}
		in.jump(position{c.next.line, c.next.stmt + 1}, false)
		return nil
	}
	in.fors = append(in.fors, forFrame{
		name:  c.name,
		to:    to,
		step:  step,
		start: in.pc,
		next:  c.next,
		depth: depth,
	})
	return nil
}

// lastNextVar returns the index of the last variable named by the NEXT at p.
func (in *Interpreter) lastNextVar(p position) int {
	l := in.lineAt(p.line)
	if l == nil || p.stmt >= len(l.Statements) {
		return 0
	}
	n := -1
	for _, t := range l.Statements[p.stmt].Tokens[1:] {
		if t.Kind == KindVariable {
			n++
		}
	}
	return n
}

// NEXT [var[, var...]]

type nextClause struct {
	names []string
}

func (cp *compiler) next(tokens []Token) (clause, error) {
	c := &nextClause{}
	if len(tokens) == 0 {
		return c, nil
	}
	for _, part := range splitTop(tokens, ',') {
		if len(part) != 1 || part[0].Kind != KindVariable {
			return nil, compileError(CodeExpectedVariable)
		}
		c.names = append(c.names, part[0].Text)
	}
	return c, nil
}

func (c *nextClause) exec(in *Interpreter) error {
	skip := in.nextSkip
	in.nextSkip = 0
	if len(c.names) == 0 {
		i, ok := in.bareNextFrame()
		if !ok {
			return runtimeError(CodeNextWithoutFor)
		}
		_, err := in.iterate(i)
		return err
	}
	for k := skip; k < len(c.names); k++ {
		i, ok := in.namedFrame(c.names[k])
		if !ok {
			return runtimeError(CodeNextWithoutFor).WithInfo("%s", c.names[k])
		}
		again, err := in.iterate(i)
		if err != nil || again {
			return err
		}
	}
	return nil
}

// bareNextFrame picks the loop a NEXT without variables closes.
func (in *Interpreter) bareNextFrame() (int, bool) {
	depth := len(in.calls)
	top := -1
	for i := len(in.fors) - 1; i >= 0; i-- {
		f := in.fors[i]
		if f.depth != depth {
			continue
		}
		if f.next == in.pc {
			in.fors = in.fors[:i+1]
			return i, true
		}
		if top < 0 {
			top = i
		}
	}
	if top < 0 {
		return 0, false
	}
	in.fors = in.fors[:top+1]
	return top, true
}

// namedFrame finds the innermost loop over name; loops inside it end.
func (in *Interpreter) namedFrame(name string) (int, bool) {
	depth := len(in.calls)
	for i := len(in.fors) - 1; i >= 0; i-- {
		if in.fors[i].depth == depth && in.fors[i].name == name {
			in.fors = in.fors[:i+1]
			return i, true
		}
	}
	return 0, false
}

// iterate steps the loop at frame i. It reports whether the loop continues,
// in which case control is back after the FOR. A step the loop variable
// cannot hold is an error and leaves the frame in place.
func (in *Interpreter) iterate(i int) (bool, error) {
	f := in.fors[i]
	v := in.vars.Get(f.name).Float() + f.step
	if err := in.vars.Set(f.name, numberValue(v)); err != nil {
		return false, err
	}
	v = in.vars.Get(f.name).Float()
	if (f.step >= 0 && v <= f.to) || (f.step < 0 && v >= f.to) {
		in.jump(position{f.start.line, f.start.stmt + 1}, false)
		return true, nil
	}
	in.fors = in.fors[:i]
	return false, nil
}

// END, STOP

type endClause struct {
	stop bool
}

func (c endClause) exec(in *Interpreter) error {
	in.jump(position{in.pc.line, in.pc.stmt + 1}, false)
	if c.stop {
		return ErrStopped
	}
	return errEnd
}

// CONT

type contClause struct{}

func (contClause) exec(in *Interpreter) error {
	if in.pc.line >= 0 {
		return runtimeError(CodeIllegalDirect).WithInfo("CONT in program")
	}
	if !in.canCont {
		return runtimeError(CodeCantContinue)
	}
	in.jump(in.contPC, false)
	return nil
}

// RUN [line]

type runClause struct {
	target int
}

func (cp *compiler) run(tokens []Token) (clause, error) {
	c := &runClause{}
	if len(tokens) > 0 {
		var err error
		if c.target, err = lineTarget(tokens); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *runClause) exec(in *Interpreter) error {
	start := position{0, 0}
	if c.target > 0 {
		idx, err := in.lineIndex(c.target)
		if err != nil {
			return err
		}
		start = position{idx, 0}
	}
	in.reset()
	in.started = true
	in.jump(start, false)
	return nil
}
