package expression

import (
	"fmt"
	"math"
	"strings"
)

// ArgKind constrains one function argument.
type ArgKind int

const (
	AnyArg ArgKind = iota
	NumberArg
	StringArg
)

// FuncSpec describes a function's arguments. The last Optional arguments may
// be omitted.
type FuncSpec struct {
	Args     []ArgKind
	Optional int
}

// Func implements a registered function. Arguments are already type checked.
type Func func(args []Value) (Value, error)

type function struct {
	spec FuncSpec
	impl Func
}

func (f *function) checkArity(name string, n int) error {
	most := len(f.spec.Args)
	least := most - f.spec.Optional
	if n < least || n > most {
		return fmt.Errorf("%s: %w (got %d)", name, ErrArgumentCount, n)
	}
	return nil
}

type pseudoVariable struct {
	get func() Value
	set func(Value)
}

// VariableResolver returns the value of an ordinary variable.
type VariableResolver func(name string) (Value, error)

// SubscriptResolver returns an array element.
type SubscriptResolver func(name string, indices []int) (Value, error)

// Engine holds the function library and the lookup callbacks expressions are
// evaluated against. It is not safe for concurrent use.
type Engine struct {
	functions map[string]*function
	variables map[string]*pseudoVariable
	resolve   VariableResolver
	subscript SubscriptResolver
	onError   func(error)
}

// New creates an engine with no functions registered.
func New() *Engine {
	return &Engine{
		functions: make(map[string]*function),
		variables: make(map[string]*pseudoVariable),
	}
}

// RegisterFunction adds or replaces a function. Names are case-insensitive.
func (e *Engine) RegisterFunction(name string, spec FuncSpec, impl Func) {
	e.functions[strings.ToUpper(name)] = &function{spec: spec, impl: impl}
}

// RegisterVariable adds a variable backed by callbacks. A nil setter makes the
// variable read-only; assignments to it are ignored.
func (e *Engine) RegisterVariable(name string, get func() Value, set func(Value)) {
	e.variables[strings.ToUpper(name)] = &pseudoVariable{get: get, set: set}
}

// IsFunction reports whether name is a registered function.
func (e *Engine) IsFunction(name string) bool {
	_, ok := e.functions[strings.ToUpper(name)]
	return ok
}

// Variable returns the getter and setter of a registered variable.
func (e *Engine) Variable(name string) (get func() Value, set func(Value), ok bool) {
	pv, ok := e.variables[strings.ToUpper(name)]
	if !ok {
		return nil, nil, false
	}
	return pv.get, pv.set, true
}

// SetVariableResolver installs the lookup for ordinary variables.
func (e *Engine) SetVariableResolver(r VariableResolver) { e.resolve = r }

// SetSubscriptResolver installs the lookup for array elements.
func (e *Engine) SetSubscriptResolver(r SubscriptResolver) { e.subscript = r }

// SetErrorHandler installs a callback that sees every evaluation error before
// it is returned.
func (e *Engine) SetErrorHandler(h func(error)) { e.onError = h }

// CreateValue converts a Go value to a Value. Unsupported types panic.
func CreateValue(v interface{}) Value {
	switch x := v.(type) {
	case Value:
		return x
	case int:
		return NewInteger(int64(x))
	case int64:
		return NewInteger(x)
	case float64:
		return NewReal(x)
	case string:
		return NewString(x)
	case bool:
		return NewBool(x)
	}
	panic(fmt.Sprintf("expression: cannot create value from %T", v))
}

// Expr is a compiled expression.
type Expr struct {
	text string
	root node
}

// Text returns the source the expression was compiled from.
func (x *Expr) Text() string { return x.text }

// Compile parses text against the functions registered so far.
func (e *Engine) Compile(text string) (*Expr, error) {
	tokens, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{eng: e, text: text, tokens: tokens}
	root, err := p.parse()
	if err != nil {
		return nil, err
	}
	return &Expr{text: text, root: root}, nil
}

// Eval evaluates a compiled expression.
func (e *Engine) Eval(x *Expr) (Value, error) {
	v, err := x.root.eval(e)
	if err != nil && e.onError != nil {
		e.onError(err)
	}
	return v, err
}

// Evaluate compiles and evaluates text in one step.
func (e *Engine) Evaluate(text string) (Value, error) {
	x, err := e.Compile(text)
	if err != nil {
		if e.onError != nil {
			e.onError(err)
		}
		return Value{}, err
	}
	return e.Eval(x)
}

type node interface {
	eval(e *Engine) (Value, error)
}

type literalNode struct{ val Value }

func (n *literalNode) eval(*Engine) (Value, error) { return n.val, nil }

type variableNode struct{ name string }

func (n *variableNode) eval(e *Engine) (Value, error) {
	if e.resolve == nil {
		return Value{}, fmt.Errorf("variable %s: %w", n.name, ErrUnresolved)
	}
	return e.resolve(n.name)
}

type pseudoNode struct {
	name string
	v    *pseudoVariable
}

func (n *pseudoNode) eval(*Engine) (Value, error) { return n.v.get(), nil }

type indexNode struct {
	name    string
	indices []node
}

func (n *indexNode) eval(e *Engine) (Value, error) {
	if e.subscript == nil {
		return Value{}, fmt.Errorf("array %s: %w", n.name, ErrUnresolved)
	}
	indices := make([]int, len(n.indices))
	for i, in := range n.indices {
		v, err := in.eval(e)
		if err != nil {
			return Value{}, err
		}
		if v.IsString() {
			return Value{}, fmt.Errorf("subscript of %s: %w", n.name, ErrTypeMismatch)
		}
		indices[i] = int(v.Int())
	}
	return e.subscript(n.name, indices)
}

type callNode struct {
	name string
	fn   *function
	args []node
}

func (n *callNode) eval(e *Engine) (Value, error) {
	args := make([]Value, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(e)
		if err != nil {
			return Value{}, err
		}
		switch n.fn.spec.Args[i] {
		case NumberArg:
			if v.IsString() {
				return Value{}, fmt.Errorf("%s argument %d: %w", n.name, i+1, ErrTypeMismatch)
			}
		case StringArg:
			if !v.IsString() {
				return Value{}, fmt.Errorf("%s argument %d: %w", n.name, i+1, ErrTypeMismatch)
			}
		}
		args[i] = v
	}
	return n.fn.impl(args)
}

type unaryNode struct {
	op      string
	operand node
}

func (n *unaryNode) eval(e *Engine) (Value, error) {
	v, err := n.operand.eval(e)
	if err != nil {
		return Value{}, err
	}
	if v.IsString() {
		return Value{}, fmt.Errorf("%s on string: %w", n.op, ErrTypeMismatch)
	}
	if n.op == "NOT" {
		i, err := logicalOperand(v)
		if err != nil {
			return Value{}, err
		}
		return NewInteger(^i), nil
	}
	if v.Kind() == Integer {
		return NewInteger(-v.Int()), nil
	}
	return NewReal(-v.Float()), nil
}

type binaryNode struct {
	op          string
	left, right node
}

func (n *binaryNode) eval(e *Engine) (Value, error) {
	l, err := n.left.eval(e)
	if err != nil {
		return Value{}, err
	}
	r, err := n.right.eval(e)
	if err != nil {
		return Value{}, err
	}

	switch n.op {
	case "=", "<>", "<", ">", "<=", ">=":
		return compare(n.op, l, r)
	}

	if l.IsString() || r.IsString() {
		if n.op == "+" && l.IsString() && r.IsString() {
			return NewString(l.s + r.s), nil
		}
		return Value{}, fmt.Errorf("%s: %w", n.op, ErrTypeMismatch)
	}

	switch n.op {
	case "AND", "OR":
		a, err := logicalOperand(l)
		if err != nil {
			return Value{}, err
		}
		b, err := logicalOperand(r)
		if err != nil {
			return Value{}, err
		}
		if n.op == "AND" {
			return NewInteger(a & b), nil
		}
		return NewInteger(a | b), nil
	case "+", "-", "*":
		if l.Kind() == Integer && r.Kind() == Integer && smallInt(l.i) && smallInt(r.i) {
			switch n.op {
			case "+":
				return NewInteger(l.i + r.i), nil
			case "-":
				return NewInteger(l.i - r.i), nil
			default:
				return NewInteger(l.i * r.i), nil
			}
		}
		a, b := l.Float(), r.Float()
		switch n.op {
		case "+":
			return realResult(a + b)
		case "-":
			return realResult(a - b)
		default:
			return realResult(a * b)
		}
	case "/":
		if r.Float() == 0 {
			return Value{}, ErrDivisionByZero
		}
		if l.Kind() == Integer && r.Kind() == Integer && l.i%r.i == 0 {
			return NewInteger(l.i / r.i), nil
		}
		return realResult(l.Float() / r.Float())
	case "^":
		if l.Float() == 0 && r.Float() < 0 {
			return Value{}, ErrDivisionByZero
		}
		if l.Float() < 0 && r.Float() != math.Trunc(r.Float()) {
			return Value{}, fmt.Errorf("fractional power of negative number: %w", ErrIllegalQuantity)
		}
		return realResult(math.Pow(l.Float(), r.Float()))
	}
	return Value{}, fmt.Errorf("operator %s: %w", n.op, ErrSyntax)
}

const smallIntLimit = 1 << 31

func smallInt(i int64) bool { return i > -smallIntLimit && i < smallIntLimit }

func realResult(f float64) (Value, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Value{}, ErrOverflow
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return NewInteger(int64(f)), nil
	}
	return NewReal(f), nil
}

// logicalOperand converts v to the 16-bit signed range AND, OR and NOT work on.
func logicalOperand(v Value) (int64, error) {
	f := v.Float()
	if f < -32768 || f > 32767 {
		return 0, fmt.Errorf("logical operand %s: %w", FormatNumber(v), ErrIllegalQuantity)
	}
	return int64(math.Floor(f)), nil
}

func compare(op string, l, r Value) (Value, error) {
	var c int
	switch {
	case l.IsString() && r.IsString():
		c = strings.Compare(l.s, r.s)
	case l.IsNumeric() && r.IsNumeric():
		a, b := l.Float(), r.Float()
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	default:
		return Value{}, fmt.Errorf("%s: %w", op, ErrTypeMismatch)
	}
	switch op {
	case "=":
		return NewBool(c == 0), nil
	case "<>":
		return NewBool(c != 0), nil
	case "<":
		return NewBool(c < 0), nil
	case ">":
		return NewBool(c > 0), nil
	case "<=":
		return NewBool(c <= 0), nil
	default:
		return NewBool(c >= 0), nil
	}
}
