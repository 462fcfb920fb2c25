package expression

import (
	"errors"
	"fmt"
)

// Evaluation and compile errors. Returned errors wrap one of these, so callers
// classify with errors.Is.
var (
	ErrSyntax          = errors.New("syntax error")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrDivisionByZero  = errors.New("division by zero")
	ErrIllegalQuantity = errors.New("illegal quantity")
	ErrOverflow        = errors.New("overflow")
	ErrArgumentCount   = errors.New("wrong number of arguments")
	ErrUnsupported     = errors.New("unsupported function")
	ErrUnresolved      = errors.New("no resolver")
)

// SyntaxError locates a compile failure in the expression text.
type SyntaxError struct {
	Text string
	Pos  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at %d in %q", e.Msg, e.Pos, e.Text)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }
