package petbasic

import (
	"fmt"
	"strconv"
)

// TokenKind tags the payload a Token carries.
type TokenKind int

const (
	KindKeyword TokenKind = iota
	KindVariable
	KindOperator
	KindSeparator
	KindString
	KindNumber
	KindExpression
	KindTokenList
)

var kindNames = []string{"keyword", "variable", "operator", "separator", "string", "number", "expression", "list"}

func (k TokenKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return strconv.Itoa(int(k))
}

// Operator identifies an operator token.
type Operator int

const (
	OpNone Operator = iota
	OpPlus
	OpMinus
	OpMul
	OpDiv
	OpPow
	OpEqual
	OpLess
	OpGreater
	OpLessEqual
	OpGreaterEqual
	OpNotEqual
	OpAnd
	OpOr
	OpNot
	OpHash
)

var operatorText = map[Operator]string{
	OpPlus: "+", OpMinus: "-", OpMul: "*", OpDiv: "/", OpPow: "^",
	OpEqual: "=", OpLess: "<", OpGreater: ">", OpLessEqual: "<=",
	OpGreaterEqual: ">=", OpNotEqual: "<>", OpAnd: "AND", OpOr: "OR",
	OpNot: "NOT", OpHash: "#",
}

func (o Operator) String() string { return operatorText[o] }

// Token is one lexical unit of a program line. Tokens are never modified
// after they are produced.
type Token struct {
	Kind    TokenKind
	Text    string   // canonical spelling; for strings the decoded PETSCII bytes
	Keyword Keyword  // KindKeyword
	Op      Operator // KindOperator
	// KindNumber
	Int       int64
	Real      float64
	IsReal    bool
	BadNumber bool
	// KindString, and the verbatim payload of REM and DATA
	Str     string
	Escaped bool
	// KindExpression, KindTokenList
	Sub []Token
}

func keywordToken(k Keyword) Token { return Token{Kind: KindKeyword, Text: k.String(), Keyword: k} }

func operatorToken(op Operator) Token {
	return Token{Kind: KindOperator, Text: op.String(), Op: op}
}

func separatorToken(c byte) Token { return Token{Kind: KindSeparator, Text: string(c)} }

func variableToken(name string) Token { return Token{Kind: KindVariable, Text: name} }

func stringToken(s string, escaped bool) Token {
	return Token{Kind: KindString, Text: s, Str: s, Escaped: escaped}
}

// numberToken parses a numeric literal. Text that does not parse yields 0 with
// BadNumber set.
func numberToken(lit string) Token {
	t := Token{Kind: KindNumber, Text: lit}
	if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
		t.Int, t.Real = i, float64(i)
		return t
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		t.BadNumber = true
		return t
	}
	t.Real = f
	if f >= -(1<<62) && f <= 1<<62 {
		t.Int = int64(f)
	}
	t.IsReal = float64(t.Int) != f
	return t
}

// IsSeparator reports whether t is the separator c.
func (t Token) IsSeparator(c byte) bool {
	return t.Kind == KindSeparator && t.Text == string(c)
}

// IsKeyword reports whether t is the keyword k.
func (t Token) IsKeyword(k Keyword) bool {
	return t.Kind == KindKeyword && t.Keyword == k
}

// IsOperator reports whether t is the operator op.
func (t Token) IsOperator(op Operator) bool {
	return t.Kind == KindOperator && t.Op == op
}

// endsOperand reports whether t can be the last token of an operand.
func (t Token) endsOperand() bool {
	switch t.Kind {
	case KindNumber, KindString, KindVariable:
		return true
	case KindSeparator:
		return t.Text == ")"
	}
	return false
}

// startsOperand reports whether t can be the first token of an operand.
func (t Token) startsOperand() bool {
	switch t.Kind {
	case KindNumber, KindString, KindVariable:
		return true
	case KindSeparator:
		return t.Text == "("
	case KindKeyword:
		return t.Keyword.IsFunction() || t.Keyword == KwFN
	}
	return false
}

func (t Token) String() string {
	switch t.Kind {
	case KindString:
		return strconv.Quote(t.Str)
	case KindExpression, KindTokenList:
		return fmt.Sprintf("%s%v", t.Kind, t.Sub)
	}
	return t.Text
}
