package petbasic

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/antibyte/petbasic/pkg/expression"
	"github.com/antibyte/petbasic/pkg/logger"
)

var (
	num1    = expression.FuncSpec{Args: []expression.ArgKind{expression.NumberArg}}
	str1    = expression.FuncSpec{Args: []expression.ArgKind{expression.StringArg}}
	strNum  = expression.FuncSpec{Args: []expression.ArgKind{expression.StringArg, expression.NumberArg}}
	any1    = expression.FuncSpec{Args: []expression.ArgKind{expression.AnyArg}}
	midSpec = expression.FuncSpec{
		Args:     []expression.ArgKind{expression.StringArg, expression.NumberArg, expression.NumberArg},
		Optional: 1,
	}
	rndSpec = expression.FuncSpec{Args: []expression.ArgKind{expression.NumberArg}, Optional: 1}
)

// newEngine builds the expression engine with the intrinsic functions and
// the pseudo-variables, bound to this interpreter's state.
func (in *Interpreter) newEngine() *expression.Engine {
	e := expression.New()
	e.SetVariableResolver(func(name string) (expression.Value, error) {
		return in.vars.Get(name), nil
	})
	e.SetSubscriptResolver(in.vars.GetIndexed)
	e.SetErrorHandler(func(err error) {
		logger.Debug(logger.AreaEngine, "expression: %v", err)
	})

	math1 := func(name string, f func(float64) (float64, error)) {
		e.RegisterFunction(name, num1, func(args []expression.Value) (expression.Value, error) {
			r, err := f(args[0].Float())
			if err != nil {
				return expression.Value{}, fmt.Errorf("%s: %w", name, err)
			}
			if math.IsInf(r, 0) || math.IsNaN(r) {
				return expression.Value{}, fmt.Errorf("%s: %w", name, expression.ErrOverflow)
			}
			return expression.NewNumber(r), nil
		})
	}
	plain := func(f func(float64) float64) func(float64) (float64, error) {
		return func(x float64) (float64, error) { return f(x), nil }
	}
	math1("ABS", plain(math.Abs))
	math1("ATN", plain(math.Atan))
	math1("COS", plain(math.Cos))
	math1("EXP", plain(math.Exp))
	math1("INT", plain(math.Floor))
	math1("SIN", plain(math.Sin))
	math1("TAN", plain(math.Tan))
	math1("SGN", plain(func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		}
		return 0
	}))
	math1("LOG", func(x float64) (float64, error) {
		if x <= 0 {
			return 0, expression.ErrIllegalQuantity
		}
		return math.Log(x), nil
	})
	math1("SQR", func(x float64) (float64, error) {
		if x < 0 {
			return 0, expression.ErrIllegalQuantity
		}
		return math.Sqrt(x), nil
	})

	e.RegisterFunction("RND", rndSpec, func([]expression.Value) (expression.Value, error) {
		return expression.NewReal(in.rng.Float64()), nil
	})
	e.RegisterFunction("PEEK", num1, func(args []expression.Value) (expression.Value, error) {
		addr, err := byteRange("PEEK", args[0], 65535)
		if err != nil {
			return expression.Value{}, err
		}
		return expression.NewInteger(int64(in.memory.Peek(addr))), nil
	})
	e.RegisterFunction("POS", any1, func([]expression.Value) (expression.Value, error) {
		_, col := in.display.Cursor()
		return expression.NewInteger(int64(col)), nil
	})
	e.RegisterFunction("FRE", any1, unsupportedFunc("FRE"))
	e.RegisterFunction("USR", any1, unsupportedFunc("USR"))

	e.RegisterFunction("ASC", str1, func(args []expression.Value) (expression.Value, error) {
		s := args[0].Str()
		if s == "" {
			return expression.Value{}, fmt.Errorf("ASC of empty string: %w", expression.ErrIllegalQuantity)
		}
		return expression.NewInteger(int64(s[0])), nil
	})
	e.RegisterFunction("CHR$", num1, func(args []expression.Value) (expression.Value, error) {
		n, err := byteRange("CHR$", args[0], 255)
		if err != nil {
			return expression.Value{}, err
		}
		return expression.NewString(string([]byte{byte(n)})), nil
	})
	e.RegisterFunction("LEN", str1, func(args []expression.Value) (expression.Value, error) {
		return expression.NewInteger(int64(len(args[0].Str()))), nil
	})
	e.RegisterFunction("LEFT$", strNum, func(args []expression.Value) (expression.Value, error) {
		n, err := byteRange("LEFT$", args[1], 255)
		if err != nil {
			return expression.Value{}, err
		}
		s := args[0].Str()
		return expression.NewString(s[:min(n, len(s))]), nil
	})
	e.RegisterFunction("RIGHT$", strNum, func(args []expression.Value) (expression.Value, error) {
		n, err := byteRange("RIGHT$", args[1], 255)
		if err != nil {
			return expression.Value{}, err
		}
		s := args[0].Str()
		return expression.NewString(s[len(s)-min(n, len(s)):]), nil
	})
	e.RegisterFunction("MID$", midSpec, func(args []expression.Value) (expression.Value, error) {
		start, err := byteRange("MID$", args[1], 255)
		if err != nil {
			return expression.Value{}, err
		}
		if start < 1 {
			return expression.Value{}, fmt.Errorf("MID$ start 0: %w", expression.ErrIllegalQuantity)
		}
		s := args[0].Str()
		n := len(s)
		if len(args) == 3 {
			if n, err = byteRange("MID$", args[2], 255); err != nil {
				return expression.Value{}, err
			}
		}
		if start > len(s) {
			return expression.NewString(""), nil
		}
		end := min(start-1+n, len(s))
		return expression.NewString(s[start-1 : end]), nil
	})
	e.RegisterFunction("STR$", num1, func(args []expression.Value) (expression.Value, error) {
		return expression.NewString(strings.TrimSuffix(printText(args[0]), " ")), nil
	})
	e.RegisterFunction("VAL", str1, func(args []expression.Value) (expression.Value, error) {
		return numericPrefix(args[0].Str()), nil
	})
	e.RegisterFunction("SPC", num1, func(args []expression.Value) (expression.Value, error) {
		n, err := byteRange("SPC", args[0], 255)
		if err != nil {
			return expression.Value{}, err
		}
		return expression.NewString(strings.Repeat(" ", n)), nil
	})
	e.RegisterFunction("TAB", num1, func(args []expression.Value) (expression.Value, error) {
		n, err := byteRange("TAB", args[0], 255)
		if err != nil {
			return expression.Value{}, err
		}
		_, col := in.display.Cursor()
		return expression.NewString(strings.Repeat(" ", max(n-col, 0))), nil
	})

	// TI zählt Jiffies (1/60 s) seit dem Start
	jiffies := func() int64 { return int64(time.Since(in.clock).Seconds() * 60) }
	e.RegisterVariable("TI", func() expression.Value {
		return expression.NewInteger(jiffies())
	}, nil)
	e.RegisterVariable("TI$", func() expression.Value {
		secs := jiffies() / 60
		return expression.NewString(fmt.Sprintf("%02d%02d%02d", secs/3600%24, secs/60%60, secs%60))
	}, nil)
	zero := func() expression.Value { return expression.NewInteger(0) }
	e.RegisterVariable("ST", zero, nil)
	e.RegisterVariable("STATUS", zero, nil)
	e.RegisterVariable("DS", zero, nil)
	e.RegisterVariable("DS$", func() expression.Value {
		return expression.NewString("00, OK,00,00")
	}, nil)
	return e
}

// readVar reads a scalar, pseudo-variables included.
func (in *Interpreter) readVar(name string) expression.Value {
	if get, _, ok := in.engine.Variable(name); ok {
		return get()
	}
	return in.vars.Get(name)
}

func unsupportedFunc(name string) expression.Func {
	return func([]expression.Value) (expression.Value, error) {
		return expression.Value{}, fmt.Errorf("%s: %w", name, expression.ErrUnsupported)
	}
}

// byteRange truncates v and checks 0 <= v <= hi.
func byteRange(name string, v expression.Value, hi int) (int, error) {
	f := v.Float()
	if f < 0 || f >= float64(hi)+1 {
		return 0, fmt.Errorf("%s(%s): %w", name, expression.FormatNumber(v), expression.ErrIllegalQuantity)
	}
	return int(f), nil
}

// numericPrefix is VAL: the longest leading number in s, 0 if there is none.
func numericPrefix(s string) expression.Value {
	s = strings.TrimLeft(s, " ")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return expression.NewInteger(0)
	}
	if i < len(s) && (s[i] == 'E' || s[i] == 'e') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	v, ok := expression.ParseNumber(s[:i])
	if !ok {
		return expression.NewInteger(0)
	}
	return v
}
