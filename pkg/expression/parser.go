package expression

import "fmt"

// parser is a recursive-descent parser over the token slice. Precedence, lowest
// first: OR, AND, NOT, relational, additive, multiplicative, unary minus, power.
type parser struct {
	eng    *Engine
	text   string
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.typ != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(ops ...string) bool {
	t := p.peek()
	if t.typ != tokOp {
		return false
	}
	for _, op := range ops {
		if t.text == op {
			return true
		}
	}
	return false
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Text: p.text, Pos: p.peek().pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parse() (node, error) {
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().typ != tokEOF {
		return nil, p.errorf("unexpected %q", p.peek().text)
	}
	return n, nil
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isOp("OR") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: "OR", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isOp("AND") {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: "AND", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (node, error) {
	if p.isOp("NOT") {
		p.next()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: "NOT", operand: operand}, nil
	}
	return p.parseRelational()
}

func (p *parser) parseRelational() (node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.isOp("=", "<>", "<", ">", "<=", ">=") {
		op := p.next().text
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAdditive() (node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isOp("+", "-") {
		op := p.next().text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*", "/") {
		op := p.next().text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.isOp("-", "+") {
		op := p.next().text
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op == "+" {
			return operand, nil
		}
		return &unaryNode{op: "-", operand: operand}, nil
	}
	return p.parsePower()
}

// parsePower is left-associative: 2^3^2 is (2^3)^2.
func (p *parser) parsePower() (node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.isOp("^") {
		p.next()
		var right node
		if p.isOp("-", "+") {
			right, err = p.parseUnary()
		} else {
			right, err = p.parsePrimary()
		}
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: "^", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parsePrimary() (node, error) {
	t := p.peek()
	switch t.typ {
	case tokNumber, tokString:
		p.next()
		return &literalNode{val: t.val}, nil
	case tokLParen:
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().typ != tokRParen {
			return nil, p.errorf("missing )")
		}
		p.next()
		return inner, nil
	case tokIdent:
		p.next()
		return p.parseIdent(t)
	case tokEOF:
		return nil, p.errorf("unexpected end of expression")
	}
	return nil, p.errorf("unexpected %q", t.text)
}

func (p *parser) parseIdent(t token) (node, error) {
	name := t.text
	if p.peek().typ == tokLParen {
		p.next()
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		if fn, ok := p.eng.functions[name]; ok {
			if err := fn.checkArity(name, len(args)); err != nil {
				return nil, err
			}
			return &callNode{name: name, fn: fn, args: args}, nil
		}
		return &indexNode{name: name, indices: args}, nil
	}
	if fn, ok := p.eng.functions[name]; ok {
		// Functions without arguments may be written bare.
		if err := fn.checkArity(name, 0); err != nil {
			return nil, err
		}
		return &callNode{name: name, fn: fn}, nil
	}
	if pv, ok := p.eng.variables[name]; ok {
		return &pseudoNode{name: name, v: pv}, nil
	}
	return &variableNode{name: name}, nil
}

func (p *parser) parseArgs() ([]node, error) {
	var args []node
	if p.peek().typ == tokRParen {
		p.next()
		return args, nil
	}
	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		switch p.peek().typ {
		case tokComma:
			p.next()
		case tokRParen:
			p.next()
			return args, nil
		default:
			return nil, p.errorf("expected , or )")
		}
	}
}
