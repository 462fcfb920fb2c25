package petbasic

import (
	"testing"

	"github.com/antibyte/petbasic/pkg/expression"
)

func TestStringFunctions(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{`LEFT$("HELLO",2)`, "HE\n"},
		{`LEFT$("HI",9)`, "HI\n"},
		{`RIGHT$("HELLO",3)`, "LLO\n"},
		{`MID$("HELLO",2,3)`, "ELL\n"},
		{`MID$("HELLO",4)`, "LO\n"},
		{`MID$("HELLO",9)`, "\n"},
		{`LEN("ABC");LEN("")`, " 3  0 \n"},
		{`ASC("A");CHR$(66)`, " 65 B\n"},
		{`STR$(5);"/";STR$(-2.5)`, " 5/-2.5\n"},
		{`VAL("12AB")+1`, " 13 \n"},
		{`VAL("X")`, " 0 \n"},
		{`VAL(" -1.5E2")`, "-150 \n"},
		{`VAL("3E")`, " 3 \n"},
		{`"A";SPC(3);"B"`, "A   B\n"},
		{`"AB";TAB(5);"X"`, "AB   X\n"},
		{`"ABCDEF";TAB(2);"X"`, "ABCDEFX\n"},
		{`"ABC";POS(0)`, "ABC 3 \n"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			h := newHarness(t, "10 PRINT "+tt.expr)
			if err := h.run(t); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got := h.out.String(); got != tt.want {
				t.Errorf("output %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMathFunctions(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{`INT(-2.5);INT(2.7)`, "-3  2 \n"},
		{`ABS(-3);SGN(-2);SGN(0);SGN(.1)`, " 3 -1  0  1 \n"},
		{`SQR(16)`, " 4 \n"},
		{`EXP(0);LOG(1)`, " 1  0 \n"},
		{`SIN(0);COS(0);ATN(0);TAN(0)`, " 0  1  0  0 \n"},
		{`INT(LOG(100)/LOG(10)+.5)`, " 2 \n"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			h := newHarness(t, "10 PRINT "+tt.expr)
			if err := h.run(t); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got := h.out.String(); got != tt.want {
				t.Errorf("output %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFunctionErrors(t *testing.T) {
	tests := []struct {
		expr     string
		category string
		code     string
	}{
		{`ASC("")`, ErrCategoryRuntime, CodeIllegalQuantity},
		{`CHR$(256)`, ErrCategoryRuntime, CodeIllegalQuantity},
		{`MID$("A",0)`, ErrCategoryRuntime, CodeIllegalQuantity},
		{`LEFT$("A",-1)`, ErrCategoryRuntime, CodeIllegalQuantity},
		{`LOG(0)`, ErrCategoryRuntime, CodeIllegalQuantity},
		{`PEEK(70000)`, ErrCategoryRuntime, CodeIllegalQuantity},
		{`EXP(1000)`, ErrCategoryRuntime, CodeOverflow},
		{`LEFT$(1,1)`, ErrCategoryRuntime, CodeTypeMismatch},
		{`CHR$("A")`, ErrCategoryRuntime, CodeTypeMismatch},
		{`USR(0)`, ErrCategoryUnsupported, CodeCommandFailed},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			h := newHarness(t, "10 PRINT "+tt.expr)
			err := h.run(t)
			if err == nil {
				t.Fatal("Run succeeded")
			}
			be := basicError(t, err)
			if be.Category != tt.category || be.Detail != tt.code {
				t.Errorf("error %s/%s (%v), want %s/%s", be.Category, be.Detail, err, tt.category, tt.code)
			}
		})
	}
}

func TestRNDRange(t *testing.T) {
	h := newHarness(t, "10 FOR I=1 TO 200:X=RND(1)\n20 IF X<0 OR X>=1 THEN PRINT X\n30 NEXT")
	if err := h.run(t); err != nil {
		t.Fatal(err)
	}
	if got := h.out.String(); got != "" {
		t.Errorf("RND out of range: %q", got)
	}
}

func TestNumericPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"42", 42},
		{"  7X", 7},
		{"-.5", -0.5},
		{"+3", 3},
		{".", 0},
		{"1E3Z", 1000},
		{"2E+", 2},
	}
	for _, tt := range tests {
		if got := numericPrefix(tt.in); got.Float() != tt.want {
			t.Errorf("numericPrefix(%q) = %v, want %v", tt.in, got.Float(), tt.want)
		}
	}
}

func TestByteRange(t *testing.T) {
	if n, err := byteRange("X", expression.NewReal(255.9), 255); err != nil || n != 255 {
		t.Errorf("byteRange(255.9) = %d, %v", n, err)
	}
	if _, err := byteRange("X", expression.NewInteger(256), 255); err == nil {
		t.Error("256 accepted")
	}
	if _, err := byteRange("X", expression.NewReal(-0.5), 255); err == nil {
		t.Error("-0.5 accepted")
	}
}
