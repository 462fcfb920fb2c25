package petbasic

import (
	"errors"
	"fmt"

	"github.com/antibyte/petbasic/pkg/expression"
)

// Sentinels returned by Run, Continue and RunLine when execution halts
// without an error.
var (
	ErrStopped = errors.New("stopped") // STOP statement
	ErrBreak   = errors.New("break")   // Stop() or context cancellation
)

// Fehlerkategorien
const (
	// ErrCategoryCompile marks malformed statements. They surface when the
	// statement is first executed.
	ErrCategoryCompile = "COMPILE ERROR"
	// ErrCategoryRuntime marks errors raised while a statement executes.
	ErrCategoryRuntime = "RUNTIME ERROR"
	// ErrCategoryUnsupported marks device and disk statements.
	ErrCategoryUnsupported = "UNSUPPORTED"
)

// Fehlercodes
const (
	CodeSyntax            = "SYNTAX_ERROR"
	CodeExpectedTo        = "EXPECTED_TO"
	CodeExpectedEquals    = "EXPECTED_EQUALS"
	CodeExpectedVariable  = "EXPECTED_VARIABLE"
	CodeExpectedLine      = "EXPECTED_LINE_NUMBER"
	CodeMissingParen      = "MISSING_PARENTHESIS"
	CodeForWithoutNext    = "FOR_WITHOUT_NEXT"
	CodeBadDef            = "INVALID_DEF"
	CodeUndefFunction     = "UNDEFD_FUNCTION"
	CodeNextWithoutFor    = "NEXT_WITHOUT_FOR"
	CodeReturnWithoutSub  = "RETURN_WITHOUT_GOSUB"
	CodeOutOfData         = "OUT_OF_DATA"
	CodeBadSubscript      = "BAD_SUBSCRIPT"
	CodeUndefStatement    = "UNDEFD_STATEMENT"
	CodeTypeMismatch      = "TYPE_MISMATCH"
	CodeIllegalQuantity   = "ILLEGAL_QUANTITY"
	CodeDivisionByZero    = "DIVISION_BY_ZERO"
	CodeOverflow          = "OVERFLOW"
	CodeArgumentCount     = "ARGUMENT_COUNT"
	CodeCantContinue      = "CANT_CONTINUE"
	CodeGosubDepth        = "GOSUB_DEPTH"
	CodeForDepth          = "FOR_DEPTH"
	CodeOutOfMemory       = "OUT_OF_MEMORY"
	CodeOnRange           = "ON_INDEX_OUT_OF_RANGE"
	CodeIllegalDirect     = "ILLEGAL_DIRECT"
	CodeInput             = "INPUT_FAILED"
	CodeCommandFailed     = "COMMAND_FAILED"
	CodeUnknownExpression = "INVALID_EXPRESSION"
)

// FriendlyErrorTexts map error codes to the message shown to the user.
var FriendlyErrorTexts = map[string]map[string]string{
	ErrCategoryCompile: {
		CodeSyntax:           "SYNTAX ERROR",
		CodeExpectedTo:       "TO EXPECTED IN FOR",
		CodeExpectedEquals:   "= EXPECTED",
		CodeExpectedVariable: "VARIABLE EXPECTED",
		CodeExpectedLine:     "LINE NUMBER EXPECTED",
		CodeMissingParen:     "MISSING CLOSING PARENTHESIS",
		CodeForWithoutNext:   "FOR WITHOUT NEXT",
		CodeBadDef:           "BAD DEF FN",
		CodeUndefFunction:    "UNDEF'D FUNCTION",
		CodeTypeMismatch:     "TYPE MISMATCH",
		CodeArgumentCount:    "WRONG NUMBER OF ARGUMENTS",
	},
	ErrCategoryRuntime: {
		CodeNextWithoutFor:    "NEXT WITHOUT FOR",
		CodeReturnWithoutSub:  "RETURN WITHOUT GOSUB",
		CodeOutOfData:         "OUT OF DATA",
		CodeBadSubscript:      "BAD SUBSCRIPT",
		CodeUndefStatement:    "UNDEF'D STATEMENT",
		CodeTypeMismatch:      "TYPE MISMATCH",
		CodeIllegalQuantity:   "ILLEGAL QUANTITY",
		CodeDivisionByZero:    "DIVISION BY ZERO",
		CodeOverflow:          "OVERFLOW",
		CodeArgumentCount:     "WRONG NUMBER OF ARGUMENTS",
		CodeCantContinue:      "CAN'T CONTINUE",
		CodeGosubDepth:        "OUT OF MEMORY (GOSUB NESTING)",
		CodeForDepth:          "OUT OF MEMORY (FOR NESTING)",
		CodeOutOfMemory:       "OUT OF MEMORY",
		CodeOnRange:           "ON INDEX OUT OF RANGE",
		CodeIllegalDirect:     "ILLEGAL DIRECT",
		CodeInput:             "INPUT FAILED",
		CodeSyntax:            "SYNTAX ERROR",
		CodeUnknownExpression: "EXPRESSION CANNOT BE EVALUATED",
	},
	ErrCategoryUnsupported: {
		CodeCommandFailed: "COMMAND FAILED",
	},
}

// GetFriendlyErrorText returns the text for a code, or the code itself.
func GetFriendlyErrorText(category, code string) string {
	if texts, ok := FriendlyErrorTexts[category]; ok {
		if text, ok := texts[code]; ok {
			return text
		}
	}
	return code
}

// BASICError is a structured interpreter error.
type BASICError struct {
	Category   string
	Detail     string // error code, see FriendlyErrorTexts
	Command    string // statement keyword, if known
	Info       string // extra context, e.g. the name that was not found
	LineNumber int    // 0 in direct mode
	DirectMode bool
	Err        error // underlying cause
}

func (be *BASICError) Error() string {
	msg := be.Category
	if be.LineNumber > 0 && !be.DirectMode {
		msg += fmt.Sprintf(" IN LINE %d", be.LineNumber)
	}
	msg += ": " + GetFriendlyErrorText(be.Category, be.Detail)
	if be.Info != "" {
		msg += " (" + be.Info + ")"
	}
	return msg
}

func (be *BASICError) Unwrap() error { return be.Err }

// NewBASICError creates an error without position. The engine fills in the
// line when the error leaves a statement.
func NewBASICError(category, code string) *BASICError {
	return &BASICError{Category: category, Detail: code}
}

// WithCommand records the statement keyword.
func (be *BASICError) WithCommand(cmd string) *BASICError {
	be.Command = cmd
	return be
}

// WithInfo adds context to the message.
func (be *BASICError) WithInfo(format string, args ...interface{}) *BASICError {
	be.Info = fmt.Sprintf(format, args...)
	return be
}

func compileError(code string) *BASICError { return NewBASICError(ErrCategoryCompile, code) }
func runtimeError(code string) *BASICError { return NewBASICError(ErrCategoryRuntime, code) }

func unsupportedError(k Keyword) *BASICError {
	return NewBASICError(ErrCategoryUnsupported, CodeCommandFailed).WithCommand(k.String()).WithInfo("%s NOT SUPPORTED", k)
}

// IndexError reports an array access outside the declared bounds or with the
// wrong number of subscripts.
type IndexError struct {
	Name    string
	Indices []int
	Dims    []int // declared extents (size+1 per dimension)
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("bad subscript %s%v, dimensions %v", e.Name, e.Indices, e.Dims)
}

// classify turns any error from a statement into a BASICError.
func classify(err error) *BASICError {
	var be *BASICError
	if errors.As(err, &be) {
		return be
	}
	var ie *IndexError
	if errors.As(err, &ie) {
		return &BASICError{Category: ErrCategoryRuntime, Detail: CodeBadSubscript, Info: ie.Name, Err: err}
	}
	code := CodeUnknownExpression
	category := ErrCategoryRuntime
	switch {
	case errors.Is(err, expression.ErrTypeMismatch):
		code = CodeTypeMismatch
	case errors.Is(err, expression.ErrDivisionByZero):
		code = CodeDivisionByZero
	case errors.Is(err, expression.ErrIllegalQuantity):
		code = CodeIllegalQuantity
	case errors.Is(err, expression.ErrOverflow):
		code = CodeOverflow
	case errors.Is(err, expression.ErrArgumentCount):
		code = CodeArgumentCount
	case errors.Is(err, expression.ErrSyntax):
		code = CodeSyntax
	case errors.Is(err, expression.ErrUnsupported):
		category, code = ErrCategoryUnsupported, CodeCommandFailed
	}
	return &BASICError{Category: category, Detail: code, Err: err}
}
