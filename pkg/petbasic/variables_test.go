package petbasic

import (
	"errors"
	"testing"

	"github.com/antibyte/petbasic/pkg/expression"
)

func errorCode(err error) string {
	var be *BASICError
	if errors.As(err, &be) {
		return be.Detail
	}
	var ie *IndexError
	if errors.As(err, &ie) {
		return CodeBadSubscript
	}
	return ""
}

func TestVariablesScalars(t *testing.T) {
	v := NewVariables()
	if got := v.Get("A"); got.IsString() || got.Int() != 0 {
		t.Errorf("unset A = %v", got)
	}
	if got := v.Get("A$"); !got.IsString() || got.Str() != "" {
		t.Errorf("unset A$ = %v", got)
	}

	tests := []struct {
		name string
		val  expression.Value
		want string
		code string
	}{
		{"A", expression.NewReal(2.5), "2.5", ""},
		{"B%", expression.NewReal(-3.7), "-3", ""},
		{"C%", expression.NewInteger(32768), "", CodeIllegalQuantity},
		{"D", expression.NewString("12"), "12", ""},
		{"E", expression.NewString("X"), "", CodeTypeMismatch},
		{"F$", expression.NewInteger(7), "7", ""},
	}
	for _, tt := range tests {
		err := v.Set(tt.name, tt.val)
		if code := errorCode(err); code != tt.code {
			t.Errorf("Set(%s) error %v, want %q", tt.name, err, tt.code)
			continue
		}
		if err != nil {
			continue
		}
		got := v.Get(tt.name)
		s := got.Str()
		if !got.IsString() {
			s = expression.FormatNumber(got)
		}
		if s != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, s, tt.want)
		}
	}

	v.Set("x", expression.NewInteger(4))
	if v.Get("X").Int() != 4 {
		t.Error("names are not case-folded")
	}
	v.Clear()
	if len(v.Names()) != 0 {
		t.Errorf("Clear left %v", v.Names())
	}
}

func TestCheckType(t *testing.T) {
	if err := checkType("A$", expression.NewInteger(1)); errorCode(err) != CodeTypeMismatch {
		t.Errorf("number into A$: %v", err)
	}
	if err := checkType("A", expression.NewString("1")); errorCode(err) != CodeTypeMismatch {
		t.Errorf("string into A: %v", err)
	}
	if err := checkType("A%", expression.NewReal(1.5)); err != nil {
		t.Errorf("real into A%%: %v", err)
	}
}

func TestVariablesArrays(t *testing.T) {
	v := NewVariables()
	if err := v.SetIndexed("A", []int{10}, expression.NewInteger(1)); err != nil {
		t.Errorf("implicit A(10): %v", err)
	}
	if err := v.SetIndexed("A", []int{11}, expression.NewInteger(1)); errorCode(err) != CodeBadSubscript {
		t.Errorf("implicit A(11): %v", err)
	}
	if _, err := v.GetIndexed("A", []int{1, 1}); errorCode(err) != CodeBadSubscript {
		t.Errorf("A(1,1): %v", err)
	}
	if v.Get("A").Int() != 0 {
		t.Error("scalar A shares storage with array A")
	}

	if err := v.Dim("M$", []int{2, 3}); err != nil {
		t.Fatal(err)
	}
	a, _ := v.Array("M$")
	if d := a.Dims(); len(d) != 2 || d[0] != 3 || d[1] != 4 {
		t.Errorf("dims %v", d)
	}
	v.SetIndexed("M$", []int{2, 3}, expression.NewString("Z"))
	if got, _ := v.GetIndexed("m$", []int{2, 3}); got.Str() != "Z" {
		t.Errorf("M$(2,3) = %v", got)
	}
	if got, _ := v.GetIndexed("M$", []int{0, 0}); !got.IsString() {
		t.Errorf("string array element zero value %v", got)
	}

	// DIM again starts over
	v.Dim("M$", []int{2, 3})
	if got, _ := v.GetIndexed("M$", []int{2, 3}); got.Str() != "" {
		t.Errorf("re-DIM kept %v", got)
	}
	if err := v.Dim("N", []int{-1}); errorCode(err) != CodeIllegalQuantity {
		t.Errorf("DIM N(-1): %v", err)
	}
	if err := v.SetIndexed("I%", []int{0}, expression.NewString("Q")); errorCode(err) != CodeTypeMismatch {
		t.Errorf("I%%(0)=\"Q\": %v", err)
	}
}

func TestDataCursor(t *testing.T) {
	var d DataCursor
	d.Reset([]expression.Value{expression.NewInteger(1), expression.NewString("A")})
	if v, err := d.Next(); err != nil || v.Int() != 1 {
		t.Errorf("first = %v, %v", v, err)
	}
	if v, err := d.Next(); err != nil || v.Str() != "A" {
		t.Errorf("second = %v, %v", v, err)
	}
	if _, err := d.Next(); errorCode(err) != CodeOutOfData {
		t.Errorf("third: %v", err)
	}
	d.Restore()
	if d.Pos() != 0 || d.Len() != 2 {
		t.Errorf("after Restore pos %d len %d", d.Pos(), d.Len())
	}
}

func TestVariablesDimLimits(t *testing.T) {
	tests := []struct {
		name  string
		sizes []int
		code  string
	}{
		{"A", []int{10}, ""},
		{"B", []int{99, 99}, ""},
		{"C", []int{-1}, CodeIllegalQuantity},
		{"D", []int{32768}, CodeIllegalQuantity},
		{"E", []int{32767, 32767, 32767}, CodeOutOfMemory},
		{"F", []int{32767, 32767, 32767, 32767, 32767}, CodeOutOfMemory},
		{"G", []int{1024, 1023}, CodeOutOfMemory},
	}
	v := NewVariables()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Dim(tt.name, tt.sizes)
			if code := errorCode(err); code != tt.code {
				t.Fatalf("Dim(%s, %v) = %v, want %q", tt.name, tt.sizes, err, tt.code)
			}
			if err != nil {
				if _, ok := v.Array(tt.name); ok {
					t.Error("array declared after failed DIM")
				}
			}
		})
	}
}

func TestVariablesImplicitArrayTooLarge(t *testing.T) {
	v := NewVariables()
	idx := []int{1, 2, 3, 4, 5, 6, 7}
	if err := v.SetIndexed("A", idx, expression.NewInteger(7)); errorCode(err) != CodeOutOfMemory {
		t.Errorf("SetIndexed with %d implicit dimensions: %v", len(idx), err)
	}
	if _, err := v.GetIndexed("A", idx); errorCode(err) != CodeOutOfMemory {
		t.Errorf("GetIndexed with %d implicit dimensions: %v", len(idx), err)
	}
	if err := v.SetIndexed("B", []int{1, 2, 3}, expression.NewInteger(7)); err != nil {
		t.Errorf("three implicit dimensions: %v", err)
	}
}
