package petbasic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goforj/godump"

	"github.com/antibyte/petbasic/pkg/configuration"
	"github.com/antibyte/petbasic/pkg/expression"
	"github.com/antibyte/petbasic/pkg/logger"
	"github.com/antibyte/petbasic/pkg/petscii"
)

// errEnd halts execution without an error (END).
var errEnd = errors.New("end")

// position addresses a statement: the line's index in program order (-1 for
// the immediate line) and the statement within the line.
type position struct {
	line int
	stmt int
}

var endPos = position{line: -2}

// before reports whether p comes before q in execution order.
func (p position) before(q position) bool {
	if p.line != q.line {
		return p.line < q.line
	}
	return p.stmt < q.stmt
}

// forFrame is an active FOR loop.
type forFrame struct {
	name     string
	to, step float64
	start    position // the FOR statement
	next     position // the NEXT that closes it
	depth    int      // GOSUB depth the loop was opened at
}

// Options configures an Interpreter.
type Options struct {
	ScreenBase     int
	MaxGosubDepth  int
	MaxForDepth    int
	IntegerForStep bool      // truncate FOR steps to integers
	TraceDump      bool      // dump compiled clauses to stdout
	Transcript     io.Writer // receives printed text as Unicode
	Trace          io.Writer // receives each executed line
}

// OptionsFromConfig reads the [Screen] and [Interpreter] sections.
func OptionsFromConfig() Options {
	return Options{
		ScreenBase:     configuration.GetInt("Screen", "screen_base", DefaultScreenBase),
		MaxGosubDepth:  configuration.GetInt("Interpreter", "max_gosub_depth", MaxGosubDepth),
		MaxForDepth:    configuration.GetInt("Interpreter", "max_for_depth", MaxForDepth),
		IntegerForStep: configuration.GetBool("Interpreter", "integer_for_step", false),
		TraceDump:      configuration.GetBool("Interpreter", "trace_dump", false),
	}
}

// Interpreter executes a Program against a Display. It is driven from one
// goroutine; only Stop may be called from another.
type Interpreter struct {
	program   *Program
	immediate *Line
	vars      *Variables
	data      DataCursor
	fns       map[string]*fnDef
	fnGen     int
	engine    *expression.Engine
	display   Display
	out       *screenWriter
	memory    *Memory
	opts      Options
	rng       *rand.Rand
	clock     time.Time

	pc        position
	jumped    bool
	nextSkip  int
	stopped   atomic.Bool
	breakLine int
	fors      []forFrame
	calls     []position

	started  bool
	canCont  bool
	contPC   position
	haltLine int
	errMsg   string
	errLine  int
}

// New creates an interpreter with an empty program.
func New(d Display, opts Options) *Interpreter {
	if opts.ScreenBase == 0 {
		opts.ScreenBase = DefaultScreenBase
	}
	if opts.MaxGosubDepth <= 0 {
		opts.MaxGosubDepth = MaxGosubDepth
	}
	if opts.MaxForDepth <= 0 {
		opts.MaxForDepth = MaxForDepth
	}
	seed := uint64(time.Now().UnixNano())
	in := &Interpreter{
		program: NewProgram(),
		vars:    NewVariables(),
		fns:     make(map[string]*fnDef),
		display: d,
		out:     &screenWriter{d: d},
		memory:  NewMemory(d, opts.ScreenBase),
		opts:    opts,
		rng:     rand.New(rand.NewPCG(seed, seed>>1|1)),
		clock:   time.Now(),
		pc:      endPos,
	}
	in.engine = in.newEngine()
	return in
}

// Program returns the program being edited and run.
func (in *Interpreter) Program() *Program { return in.program }

// Variables returns the variable store.
func (in *Interpreter) Variables() *Variables { return in.vars }

// Memory returns the address space of PEEK and POKE.
func (in *Interpreter) Memory() *Memory { return in.memory }

// Display returns the display the interpreter prints to.
func (in *Interpreter) Display() Display { return in.display }

// Load adds program text to the program.
func (in *Interpreter) Load(r io.Reader) ([]LoadWarning, error) {
	defer in.programEdited()
	return in.program.Load(r)
}

// LoadFile adds a program file (text or .prg) to the program.
func (in *Interpreter) LoadFile(path string) ([]LoadWarning, error) {
	defer in.programEdited()
	return in.program.LoadFile(path)
}

// Stop asks the running program to halt at the next statement boundary.
// It is safe to call from any goroutine.
func (in *Interpreter) Stop() { in.stopped.Store(true) }

// ErrorMessage returns the message of the last error, or "".
func (in *Interpreter) ErrorMessage() string { return in.errMsg }

// ErrorLine returns the line number of the last error, 0 in direct mode.
func (in *Interpreter) ErrorLine() int { return in.errLine }

// HaltLine returns the line number where execution last stopped.
func (in *Interpreter) HaltLine() int { return in.haltLine }

// Run clears all variables and runs the program from its first line.
func (in *Interpreter) Run(ctx context.Context) error {
	in.reset()
	in.pc = position{0, 0}
	in.started = true
	return in.execute(ctx, 0)
}

// Step executes a single statement, starting a new run first if no run is in
// progress.
func (in *Interpreter) Step() error {
	if !in.started {
		in.reset()
		in.pc = position{0, 0}
		in.started = true
	} else if in.canCont {
		in.pc = in.contPC
	}
	in.pc = in.normalize(in.pc)
	if in.pc == endPos {
		in.started = false
		return nil
	}
	in.errMsg, in.errLine = "", 0
	if err := in.stepOnce(); err != nil {
		return in.halt(err)
	}
	in.park()
	return nil
}

// Continue resumes after STOP, END, an error or a break.
func (in *Interpreter) Continue(ctx context.Context) error {
	return in.ContinueTo(ctx, 0)
}

// ContinueTo resumes and runs until the first statement of line is reached.
// A line of 0 runs to the end.
func (in *Interpreter) ContinueTo(ctx context.Context, line int) error {
	if !in.canCont {
		return in.halt(runtimeError(CodeCantContinue))
	}
	in.pc = in.contPC
	return in.execute(ctx, line)
}

// RunLine handles one line typed at the prompt. A line starting with a number
// edits the program, anything else executes immediately.
func (in *Interpreter) RunLine(ctx context.Context, text string) error {
	if num, rest, ok := SplitLineNumber(text); ok {
		if num < 1 || num > MaxLineNumber {
			return in.halt(compileError(CodeExpectedLine).WithInfo("%d", num))
		}
		if strings.TrimSpace(rest) == "" {
			in.program.Delete(num)
		} else {
			line, warnings := NewLine(num, rest)
			for _, w := range warnings {
				logger.Warn(logger.AreaTokenizer, "%s", w)
			}
			in.program.Add(line)
		}
		in.programEdited()
		return nil
	}
	line, warnings := NewLine(0, text)
	for _, w := range warnings {
		logger.Warn(logger.AreaTokenizer, "%s", w)
	}
	in.immediate = line
	in.pc = position{-1, 0}
	return in.execute(ctx, 0)
}

// programEdited drops everything that refers to line positions.
func (in *Interpreter) programEdited() {
	in.clearRuntime()
	in.canCont = false
	in.started = false
}

// clearRuntime is CLR: variables, functions, loops, calls and the DATA
// cursor.
func (in *Interpreter) clearRuntime() {
	in.vars.Clear()
	in.fns = make(map[string]*fnDef)
	in.fnGen++
	in.fors = nil
	in.calls = nil
	in.nextSkip = 0
	in.data.Reset(in.program.Data())
}

func (in *Interpreter) reset() {
	in.clearRuntime()
	in.errMsg, in.errLine = "", 0
	in.canCont = false
	in.stopped.Store(false)
}

func (in *Interpreter) lineAt(idx int) *Line {
	if idx == -1 {
		return in.immediate
	}
	lines := in.program.Lines()
	if idx >= 0 && idx < len(lines) {
		return lines[idx]
	}
	return nil
}

// lineNumber returns the number of the line at pc, 0 for the immediate line.
func (in *Interpreter) lineNumber(p position) int {
	if l := in.lineAt(p.line); l != nil {
		return l.Number
	}
	return 0
}

// normalize moves p past the end of finished lines. The immediate line does
// not continue into the program.
func (in *Interpreter) normalize(p position) position {
	for {
		l := in.lineAt(p.line)
		if l == nil || p.line < -1 {
			return endPos
		}
		if p.stmt < len(l.Statements) {
			return p
		}
		if p.line == -1 {
			return endPos
		}
		p = position{p.line + 1, 0}
	}
}

func (in *Interpreter) execute(ctx context.Context, breakLine int) error {
	in.stopped.Store(false)
	in.errMsg, in.errLine = "", 0
	in.breakLine = breakLine
	first := true
	last := in.pc
	for {
		in.pc = in.normalize(in.pc)
		if in.pc == endPos {
			// a finished direct line keeps a halted program resumable
			if last.line >= 0 {
				in.canCont = false
				in.started = false
			}
			return nil
		}
		if ctx.Err() != nil || in.stopped.Load() {
			in.park()
			logger.Info(logger.AreaEngine, "break in line %d", in.haltLine)
			return ErrBreak
		}
		if !first && in.breakLine > 0 && in.pc.line >= 0 && in.pc.stmt == 0 && in.lineNumber(in.pc) == in.breakLine {
			in.park()
			return nil
		}
		first = false
		last = in.pc
		if err := in.stepOnce(); err != nil {
			return in.halt(err)
		}
	}
}

// park records the current position as the place CONT resumes from.
func (in *Interpreter) park() {
	in.haltLine = in.lineNumber(in.pc)
	if in.pc.line >= 0 {
		in.contPC = in.pc
		in.canCont = true
	}
}

func (in *Interpreter) stepOnce() error {
	cur := in.pc
	line := in.lineAt(cur.line)
	st := line.Statements[cur.stmt]
	if in.opts.Trace != nil && cur.stmt == 0 {
		fmt.Fprintln(in.opts.Trace, line.String())
	}
	c, err := in.compiled(st, cur)
	if err != nil {
		return err
	}
	in.jumped = false
	if err := c.exec(in); err != nil {
		return err
	}
	if !in.jumped {
		in.pc = position{cur.line, cur.stmt + 1}
	}
	return nil
}

// halt ends an execute call. END and STOP park after the statement, errors
// park at it.
func (in *Interpreter) halt(err error) error {
	switch {
	case errors.Is(err, errEnd):
		in.park()
		return nil
	case errors.Is(err, ErrStopped):
		in.park()
		return ErrStopped
	case errors.Is(err, ErrBreak):
		in.park()
		return ErrBreak
	}
	be := classify(err)
	in.haltLine = in.lineNumber(in.pc)
	be.DirectMode = in.pc.line < 0
	if !be.DirectMode && be.LineNumber == 0 {
		be.LineNumber = in.haltLine
	}
	if in.pc.line >= 0 {
		in.contPC = in.pc
		in.canCont = true
	}
	in.errMsg, in.errLine = be.Error(), be.LineNumber
	logger.Debug(logger.AreaEngine, "%s", in.errMsg)
	return be
}

// compiled returns the statement's clause, compiling it on first use or when
// the program or a function it uses has changed since.
func (in *Interpreter) compiled(st *Statement, pos position) (clause, error) {
	if st.done && st.gen == in.program.gen && (!st.usesFn || st.fnGen == in.fnGen) {
		return st.compiled, st.compileErr
	}
	cp := &compiler{in: in, pos: pos}
	c, err := cp.statement(st.Tokens)
	st.compiled, st.compileErr, st.done = c, err, true
	st.gen, st.usesFn, st.fnGen = in.program.gen, cp.usesFn, in.fnGen
	if err != nil {
		logger.Debug(logger.AreaCompiler, "line %d: %v", in.lineNumber(pos), err)
	} else if in.opts.TraceDump {
		godump.Dump(c)
	}
	return c, err
}

// jump moves the program counter. Jumps that leave a loop's range end that
// loop and every loop opened inside it.
func (in *Interpreter) jump(dest position, invalidate bool) {
	if invalidate {
		depth := len(in.calls)
		for i, f := range in.fors {
			if f.depth != depth {
				continue
			}
			if dest.before(f.start) || f.next.before(dest) {
				in.fors = in.fors[:i]
				break
			}
		}
	}
	in.pc = dest
	in.jumped = true
}

// lineIndex resolves a line number used as a jump target.
func (in *Interpreter) lineIndex(num int) (int, error) {
	idx, ok := in.program.IndexOf(num)
	if !ok {
		return 0, runtimeError(CodeUndefStatement).WithInfo("%d", num)
	}
	return idx, nil
}

func (in *Interpreter) gotoLine(num int) error {
	idx, err := in.lineIndex(num)
	if err != nil {
		return err
	}
	in.jump(position{idx, 0}, true)
	return nil
}

func (in *Interpreter) gosubLine(num int) error {
	idx, err := in.lineIndex(num)
	if err != nil {
		return err
	}
	if len(in.calls) >= in.opts.MaxGosubDepth {
		return runtimeError(CodeGosubDepth)
	}
	in.calls = append(in.calls, position{in.pc.line, in.pc.stmt + 1})
	in.jump(position{idx, 0}, true)
	return nil
}

// print writes a PETSCII string to the screen and the transcript.
func (in *Interpreter) print(s string) {
	in.out.write(s)
	if in.opts.Transcript != nil {
		io.WriteString(in.opts.Transcript, petscii.ToUnicode(s))
	}
}

// echo writes to the screen only.
func (in *Interpreter) echo(s string) { in.out.write(s) }

// Print writes Unicode text the way PRINT does, to the screen and the
// transcript. A newline moves to the next screen row.
func (in *Interpreter) Print(text string) { in.print(petscii.FromUnicode(text)) }

// Echo shows a typed line on the screen, unless the display has drawn it
// already.
func (in *Interpreter) Echo(line string) {
	if !in.echoesInput() {
		in.echo(petscii.FromUnicode(line) + "\r")
	}
}

func (in *Interpreter) echoesInput() bool {
	le, ok := in.display.(LocalEcho)
	return ok && le.EchoesInput()
}
