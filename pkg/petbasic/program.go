package petbasic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/btree"

	"github.com/antibyte/petbasic/pkg/expression"
	"github.com/antibyte/petbasic/pkg/logger"
)

// Statement is the token run between two top-level colons, plus its compiled
// clause once it has executed.
type Statement struct {
	Tokens []Token

	compiled   clause
	compileErr error
	done       bool
	gen        int  // program generation the clause was compiled for
	usesFn     bool // compiled with FN substitutions of generation fnGen
	fnGen      int
}

// nextScan records a NEXT statement and the variables it names.
type nextScan struct {
	stmt int
	vars []string
}

// Line is one numbered program line, or the immediate line (Number 0).
type Line struct {
	Number     int
	Text       string
	Tokens     []Token
	Statements []*Statement

	fors  []int // statements starting with FOR
	nexts []nextScan
}

// NewLine tokenizes text into a line numbered num.
func NewLine(num int, text string) (*Line, []LoadWarning) {
	tokens, warnings := Tokenize(text)
	for i := range warnings {
		warnings[i].Line = num
	}
	l := &Line{Number: num, Text: text, Tokens: tokens}
	l.split()
	return l, warnings
}

// split divides the tokens on top-level colons and records FOR and NEXT
// positions.
func (l *Line) split() {
	start := 0
	for i := 0; i <= len(l.Tokens); i++ {
		if i < len(l.Tokens) && !l.Tokens[i].IsSeparator(':') {
			continue
		}
		if i > start {
			l.addStatement(l.Tokens[start:i])
		}
		start = i + 1
	}
}

func (l *Line) addStatement(tokens []Token) {
	idx := len(l.Statements)
	l.Statements = append(l.Statements, &Statement{Tokens: tokens})
	switch {
	case tokens[0].IsKeyword(KwFOR):
		l.fors = append(l.fors, idx)
	case tokens[0].IsKeyword(KwNEXT):
		scan := nextScan{stmt: idx}
		for _, t := range tokens[1:] {
			if t.Kind == KindVariable {
				scan.vars = append(scan.vars, t.Text)
			}
		}
		l.nexts = append(l.nexts, scan)
	}
}

func lineLess(a, b *Line) bool { return a.Number < b.Number }

// Program holds the numbered lines ordered by number. The index slice gives
// each line its position in program order.
type Program struct {
	tree  *btree.BTreeG[*Line]
	index []*Line
	data  []expression.Value
	dirty bool
	gen   int // bumped on every edit
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{tree: btree.NewG(8, lineLess), dirty: true}
}

// Len returns the number of lines.
func (p *Program) Len() int { return p.tree.Len() }

// Add inserts or replaces a line. A replaced line drops its compiled
// statements with it.
func (p *Program) Add(l *Line) (replaced bool) {
	_, replaced = p.tree.ReplaceOrInsert(l)
	p.edited()
	return replaced
}

// Delete removes line num.
func (p *Program) Delete(num int) bool {
	_, ok := p.tree.Delete(&Line{Number: num})
	if ok {
		p.edited()
	}
	return ok
}

// Clear removes every line.
func (p *Program) Clear() {
	p.tree.Clear(false)
	p.edited()
}

func (p *Program) edited() {
	p.dirty = true
	p.gen++
}

// Get returns line num.
func (p *Program) Get(num int) (*Line, bool) {
	return p.tree.Get(&Line{Number: num})
}

func (p *Program) rebuild() {
	if !p.dirty {
		return
	}
	p.index = make([]*Line, 0, p.tree.Len())
	p.data = nil
	p.tree.Ascend(func(l *Line) bool {
		p.index = append(p.index, l)
		for _, st := range l.Statements {
			if st.Tokens[0].IsKeyword(KwDATA) && len(st.Tokens) > 1 && st.Tokens[1].Kind == KindTokenList {
				for _, item := range st.Tokens[1].Sub {
					p.data = append(p.data, literalValue(item))
				}
			}
		}
		return true
	})
	p.dirty = false
}

// Lines returns the lines in program order.
func (p *Program) Lines() []*Line {
	p.rebuild()
	return p.index
}

// IndexOf returns the program-order position of line num.
func (p *Program) IndexOf(num int) (int, bool) {
	lines := p.Lines()
	lo, hi := 0, len(lines)
	for lo < hi {
		mid := (lo + hi) / 2
		if lines[mid].Number < num {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(lines) && lines[lo].Number == num {
		return lo, true
	}
	return 0, false
}

// Data returns the DATA values of the whole program in source order.
func (p *Program) Data() []expression.Value {
	p.rebuild()
	return p.data
}

// Range calls fn for the lines numbered from..to; to <= 0 means no upper limit.
func (p *Program) Range(from, to int, fn func(*Line) bool) {
	p.tree.AscendGreaterOrEqual(&Line{Number: from}, func(l *Line) bool {
		if to > 0 && l.Number > to {
			return false
		}
		return fn(l)
	})
}

// Load reads program text, one numbered line per text line. Lines without a
// number, duplicates and lines out of order are reported as warnings.
func (p *Program) Load(r io.Reader) ([]LoadWarning, error) {
	var warnings []LoadWarning
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	prev, row := 0, 0
	for sc.Scan() {
		row++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		num, rest, ok := SplitLineNumber(text)
		if !ok || num < 1 || num > MaxLineNumber {
			warnings = append(warnings, LoadWarning{Msg: fmt.Sprintf("text line %d has no valid line number, skipped", row)})
			continue
		}
		if num <= prev {
			warnings = append(warnings, LoadWarning{Line: num, Msg: fmt.Sprintf("line number out of sequence after %d", prev)})
		}
		prev = num
		line, lw := NewLine(num, rest)
		warnings = append(warnings, lw...)
		if p.Add(line) {
			warnings = append(warnings, LoadWarning{Line: num, Msg: "duplicate line number, previous line replaced"})
		}
	}
	for _, w := range warnings {
		logger.Warn(logger.AreaTokenizer, "%s", w)
	}
	return warnings, sc.Err()
}

// LoadFile loads a program from a text file, or from a tokenized image when
// the name ends in .prg.
func (p *Program) LoadFile(path string) ([]LoadWarning, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".prg") {
		text, err := DecodePRG(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return p.Load(strings.NewReader(text))
	}
	return p.Load(f)
}

// findNext locates the NEXT that closes the FOR at pos by scanning the
// recorded FOR and NEXT positions in program order. It returns the NEXT
// statement and the position of the FOR's variable in that NEXT's list, or
// -1 for a NEXT without variables.
func (p *Program) findNext(immediate *Line, pos position) (position, int, bool) {
	depth := 0
	check := func(l *Line, lineIdx, after int) (position, int, bool) {
		fi, ni := 0, 0
		for fi < len(l.fors) || ni < len(l.nexts) {
			takeFor := ni >= len(l.nexts) || (fi < len(l.fors) && l.fors[fi] < l.nexts[ni].stmt)
			if takeFor {
				if l.fors[fi] > after {
					depth++
				}
				fi++
				continue
			}
			scan := l.nexts[ni]
			ni++
			if scan.stmt <= after {
				continue
			}
			if len(scan.vars) == 0 {
				if depth == 0 {
					return position{lineIdx, scan.stmt}, -1, true
				}
				depth--
				continue
			}
			for vi := range scan.vars {
				if depth == 0 {
					return position{lineIdx, scan.stmt}, vi, true
				}
				depth--
			}
		}
		return position{}, 0, false
	}

	if pos.line < 0 {
		return check(immediate, -1, pos.stmt)
	}
	lines := p.Lines()
	for li := pos.line; li < len(lines); li++ {
		after := -1
		if li == pos.line {
			after = pos.stmt
		}
		if np, vi, ok := check(lines[li], li, after); ok {
			return np, vi, true
		}
	}
	return position{}, 0, false
}

// literalValue converts a Number or String token to its value.
func literalValue(t Token) expression.Value {
	if t.Kind == KindString {
		return expression.NewString(t.Str)
	}
	if t.IsReal {
		return expression.NewReal(t.Real)
	}
	return expression.NewInteger(t.Int)
}
