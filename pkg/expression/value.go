// Package expression evaluates BASIC expressions given as text.
//
// Callers register functions and read-only variables on an Engine and supply
// resolvers for ordinary variables and array elements. Text is compiled once
// into an Expr and evaluated as often as needed.
package expression

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the type of a Value.
type Kind int

const (
	Integer Kind = iota
	Real
	String
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Real:
		return "real"
	default:
		return "string"
	}
}

// Value is an immutable BASIC value.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// NewInteger creates an integer value.
func NewInteger(i int64) Value { return Value{kind: Integer, i: i} }

// NewReal creates a real value.
func NewReal(f float64) Value { return Value{kind: Real, f: f} }

// NewString creates a string value.
func NewString(s string) Value { return Value{kind: String, s: s} }

// NewBool returns the BASIC truth values -1 and 0.
func NewBool(b bool) Value {
	if b {
		return NewInteger(-1)
	}
	return NewInteger(0)
}

// NewNumber returns an Integer when f is integral and fits, a Real otherwise.
func NewNumber(f float64) Value {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return NewInteger(int64(f))
	}
	return NewReal(f)
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsString() bool { return v.kind == String }
func (v Value) IsNumeric() bool { return v.kind != String }
func (v Value) Str() string { return v.s }
func (v Value) Equal(o Value) bool { return v == o }

// Float returns the numeric value as float64. Strings yield 0.
func (v Value) Float() float64 {
	if v.kind == Integer {
		return float64(v.i)
	}
	return v.f
}

// Int returns the numeric value truncated toward zero. Strings yield 0.
func (v Value) Int() int64 {
	if v.kind == Integer {
		return v.i
	}
	return int64(v.f)
}

// Truthy reports whether v counts as true in a condition.
func (v Value) Truthy() bool {
	switch v.kind {
	case Integer:
		return v.i != 0
	case Real:
		return v.f != 0
	default:
		return v.s != ""
	}
}

// String formats v for diagnostics. Numbers use FormatNumber, strings are quoted.
func (v Value) String() string {
	if v.kind == String {
		return strconv.Quote(v.s)
	}
	return FormatNumber(v)
}

// FormatNumber formats a numeric value the way PRINT shows it, without the
// sign column: up to nine significant digits, no leading zero before the
// decimal point, exponent form outside 0.01 <= |x| < 1e9.
func FormatNumber(v Value) string {
	if v.kind == Integer && v.i > -1e9 && v.i < 1e9 {
		return strconv.FormatInt(v.i, 10)
	}
	f := v.Float()
	abs := math.Abs(f)
	if f == math.Trunc(f) && abs < 1e9 {
		return strconv.FormatInt(int64(f), 10)
	}
	if abs >= 1e9 || abs < 0.01 {
		s := strconv.FormatFloat(f, 'E', 8, 64)
		mant, exp, _ := strings.Cut(s, "E")
		if strings.Contains(mant, ".") {
			mant = strings.TrimRight(strings.TrimRight(mant, "0"), ".")
		}
		return stripLeadingZero(mant) + "E" + exp
	}
	return stripLeadingZero(strconv.FormatFloat(f, 'G', 9, 64))
}

func stripLeadingZero(s string) string {
	if strings.HasPrefix(s, "0.") {
		return s[1:]
	}
	if strings.HasPrefix(s, "-0.") {
		return "-" + s[2:]
	}
	return s
}

// ParseNumber parses numeric text as typed into INPUT or found in DATA.
// Leading and trailing blanks are ignored; an empty string is 0.
func ParseNumber(s string) (Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NewInteger(0), true
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NewInteger(i), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return Value{}, false
	}
	return NewNumber(f), true
}
