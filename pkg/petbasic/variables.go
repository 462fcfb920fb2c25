package petbasic

import (
	"math"
	"sort"
	"strings"

	"github.com/antibyte/petbasic/pkg/expression"
)

// IsStringName reports whether a variable name holds strings.
func IsStringName(name string) bool { return strings.HasSuffix(name, "$") }

// IsIntegerName reports whether a variable name holds 16-bit integers.
func IsIntegerName(name string) bool { return strings.HasSuffix(name, "%") }

// zeroValue is the value a variable has before it is assigned.
func zeroValue(name string) expression.Value {
	if IsStringName(name) {
		return expression.NewString("")
	}
	return expression.NewInteger(0)
}

// coerce converts v to the type the name requires. Numeric text is accepted
// for numeric variables; numbers stored in string variables are formatted.
func coerce(name string, v expression.Value) (expression.Value, error) {
	if IsStringName(name) {
		if v.IsString() {
			return v, nil
		}
		return expression.NewString(expression.FormatNumber(v)), nil
	}
	if v.IsString() {
		n, ok := expression.ParseNumber(v.Str())
		if !ok {
			return expression.Value{}, runtimeError(CodeTypeMismatch).WithInfo("%s", name)
		}
		v = n
	}
	if IsIntegerName(name) {
		f := math.Trunc(v.Float())
		if f < -32768 || f > 32767 {
			return expression.Value{}, runtimeError(CodeIllegalQuantity).WithInfo("%s", name)
		}
		return expression.NewInteger(int64(f)), nil
	}
	return v, nil
}

// checkType is the strict assignment rule of LET: strings only into string
// variables, numbers only into numeric ones.
func checkType(name string, v expression.Value) error {
	if IsStringName(name) != v.IsString() {
		return runtimeError(CodeTypeMismatch).WithInfo("%s", name)
	}
	return nil
}

// Array is an N-dimensional array. Each declared size N is stored as N+1 so
// indices run from 0 to N inclusive.
type Array struct {
	dims []int
	data []expression.Value
}

// maxArrayElements caps the element count of a single array.
const maxArrayElements = 1 << 20

// arraySize returns the element count for dims, or false if it exceeds
// maxArrayElements.
func arraySize(dims []int) (int, bool) {
	size := 1
	for _, d := range dims {
		if d <= 0 {
			return 0, d == 0
		}
		if size > maxArrayElements/d {
			return 0, false
		}
		size *= d
	}
	return size, true
}

func newArray(name string, dims []int) *Array {
	size, _ := arraySize(dims)
	a := &Array{dims: dims, data: make([]expression.Value, size)}
	zero := zeroValue(name)
	for i := range a.data {
		a.data[i] = zero
	}
	return a
}

// Dims returns the extents (declared size + 1).
func (a *Array) Dims() []int { return a.dims }

func (a *Array) offset(name string, indices []int) (int, error) {
	if len(indices) != len(a.dims) {
		return 0, &IndexError{Name: name, Indices: indices, Dims: a.dims}
	}
	off := 0
	for i, idx := range indices {
		if idx < 0 || idx >= a.dims[i] {
			return 0, &IndexError{Name: name, Indices: indices, Dims: a.dims}
		}
		off = off*a.dims[i] + idx
	}
	if off >= len(a.data) {
		return 0, &IndexError{Name: name, Indices: indices, Dims: a.dims}
	}
	return off, nil
}

// Variables stores scalars and arrays. Names are case-folded; scalars and
// arrays of the same name are distinct.
type Variables struct {
	scalars map[string]expression.Value
	arrays  map[string]*Array
}

// NewVariables returns an empty store.
func NewVariables() *Variables {
	return &Variables{
		scalars: make(map[string]expression.Value),
		arrays:  make(map[string]*Array),
	}
}

// Clear removes all variables and arrays.
func (v *Variables) Clear() {
	v.scalars = make(map[string]expression.Value)
	v.arrays = make(map[string]*Array)
}

// Get returns a scalar, creating it with its zero value on first use.
func (v *Variables) Get(name string) expression.Value {
	name = strings.ToUpper(name)
	val, ok := v.scalars[name]
	if !ok {
		val = zeroValue(name)
		v.scalars[name] = val
	}
	return val
}

// Set assigns a scalar after coercing val to the variable's type.
func (v *Variables) Set(name string, val expression.Value) error {
	name = strings.ToUpper(name)
	c, err := coerce(name, val)
	if err != nil {
		return err
	}
	v.scalars[name] = c
	return nil
}

// Names returns the scalar names in sorted order.
func (v *Variables) Names() []string {
	names := make([]string, 0, len(v.scalars))
	for n := range v.scalars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dim declares (or re-declares, dropping the old contents) an array with the
// given maximum indices.
func (v *Variables) Dim(name string, sizes []int) error {
	name = strings.ToUpper(name)
	dims := make([]int, len(sizes))
	for i, s := range sizes {
		if s < 0 || s > 32767 {
			return runtimeError(CodeIllegalQuantity).WithInfo("DIM %s", name)
		}
		dims[i] = s + 1
	}
	if _, ok := arraySize(dims); !ok {
		return runtimeError(CodeOutOfMemory).WithInfo("DIM %s", name)
	}
	v.arrays[name] = newArray(name, dims)
	return nil
}

// Array returns a declared array.
func (v *Variables) Array(name string) (*Array, bool) {
	a, ok := v.arrays[strings.ToUpper(name)]
	return a, ok
}

func (v *Variables) array(name string, n int) (*Array, error) {
	a, ok := v.arrays[name]
	if !ok {
		dims := make([]int, n)
		for i := range dims {
			dims[i] = implicitExtent
		}
		if _, ok := arraySize(dims); !ok {
			return nil, runtimeError(CodeOutOfMemory).WithInfo("%s", name)
		}
		a = newArray(name, dims)
		v.arrays[name] = a
	}
	return a, nil
}

// GetIndexed reads an array element, declaring the array with the implicit
// extent on first use.
func (v *Variables) GetIndexed(name string, indices []int) (expression.Value, error) {
	name = strings.ToUpper(name)
	a, err := v.array(name, len(indices))
	if err != nil {
		return expression.Value{}, err
	}
	off, err := a.offset(name, indices)
	if err != nil {
		return expression.Value{}, err
	}
	return a.data[off], nil
}

// SetIndexed assigns an array element with the same coercion as Set.
func (v *Variables) SetIndexed(name string, indices []int, val expression.Value) error {
	name = strings.ToUpper(name)
	a, err := v.array(name, len(indices))
	if err != nil {
		return err
	}
	off, err := a.offset(name, indices)
	if err != nil {
		return err
	}
	c, err := coerce(name, val)
	if err != nil {
		return err
	}
	a.data[off] = c
	return nil
}

// DataCursor walks the DATA values of a program.
type DataCursor struct {
	values []expression.Value
	pos    int
}

// Reset replaces the values and rewinds.
func (d *DataCursor) Reset(values []expression.Value) {
	d.values, d.pos = values, 0
}

// Next returns the next value or an OUT OF DATA error.
func (d *DataCursor) Next() (expression.Value, error) {
	if d.pos >= len(d.values) {
		return expression.Value{}, runtimeError(CodeOutOfData)
	}
	v := d.values[d.pos]
	d.pos++
	return v, nil
}

// Restore rewinds to the first value.
func (d *DataCursor) Restore() { d.pos = 0 }

// Len returns the number of values.
func (d *DataCursor) Len() int { return len(d.values) }

// Pos returns the index of the next value.
func (d *DataCursor) Pos() int { return d.pos }
