package petbasic

import (
	"strings"
	"testing"
)

func loadProgram(t *testing.T, text string) *Program {
	t.Helper()
	p := NewProgram()
	if _, err := p.Load(strings.NewReader(text)); err != nil {
		t.Fatal(err)
	}
	return p
}

func lineNumbers(p *Program) []int {
	var nums []int
	for _, l := range p.Lines() {
		nums = append(nums, l.Number)
	}
	return nums
}

func TestProgramLoadWarnings(t *testing.T) {
	p := NewProgram()
	warnings, err := p.Load(strings.NewReader("10 A=1\n5 B=2\nX=3\n\n10 C=3\n70000 D=4\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 4 {
		t.Errorf("warnings %v", warnings)
	}
	if got := lineNumbers(p); len(got) != 2 || got[0] != 5 || got[1] != 10 {
		t.Errorf("lines %v", got)
	}
	l, _ := p.Get(10)
	if l.Tokens[0].Text != "C" {
		t.Errorf("line 10 = %v, want the later definition", l.Tokens)
	}
}

func TestProgramEdit(t *testing.T) {
	p := loadProgram(t, "10 PRINT 1\n20 PRINT 2\n30 PRINT 3")
	gen := p.gen
	line, _ := NewLine(15, "PRINT 15")
	if p.Add(line) {
		t.Error("new line reported as replaced")
	}
	if !p.Delete(20) || p.Delete(20) {
		t.Error("Delete(20) twice")
	}
	if p.gen == gen {
		t.Error("edits did not bump the generation")
	}
	if got := lineNumbers(p); len(got) != 3 || got[1] != 15 || got[2] != 30 {
		t.Errorf("lines %v", got)
	}
	if i, ok := p.IndexOf(30); !ok || i != 2 {
		t.Errorf("IndexOf(30) = %d, %v", i, ok)
	}
	if _, ok := p.IndexOf(20); ok {
		t.Error("IndexOf found a deleted line")
	}
	p.Clear()
	if p.Len() != 0 || len(p.Lines()) != 0 {
		t.Error("Clear left lines")
	}
}

func TestProgramRange(t *testing.T) {
	p := loadProgram(t, "10 A\n20 B\n30 C\n40 D")
	tests := []struct {
		from, to int
		want     string
	}{
		{0, 0, "10 20 30 40"},
		{20, 30, "20 30"},
		{25, 0, "30 40"},
		{0, 15, "10"},
		{50, 0, ""},
	}
	for _, tt := range tests {
		var got []string
		p.Range(tt.from, tt.to, func(l *Line) bool {
			got = append(got, strings.Fields(l.String())[0])
			return true
		})
		if s := strings.Join(got, " "); s != tt.want {
			t.Errorf("Range(%d,%d) = %q, want %q", tt.from, tt.to, s, tt.want)
		}
	}
}

func TestProgramData(t *testing.T) {
	p := loadProgram(t, "10 DATA 1,2\n20 PRINT:DATA \"X\"\n30 REM DATA 9")
	data := p.Data()
	if len(data) != 3 {
		t.Fatalf("data %v", data)
	}
	if data[2].Str() != "X" || data[1].Int() != 2 {
		t.Errorf("data %v", data)
	}
	line, _ := NewLine(40, "DATA 4")
	p.Add(line)
	if n := len(p.Data()); n != 4 {
		t.Errorf("after edit %d values", n)
	}
}

func TestLineStatements(t *testing.T) {
	l, _ := NewLine(10, `PRINT "A:B":A=1::FOR I=1 TO 2:NEXT I`)
	if n := len(l.Statements); n != 4 {
		t.Fatalf("%d statements", n)
	}
	if len(l.fors) != 1 || l.fors[0] != 2 {
		t.Errorf("fors %v", l.fors)
	}
	if len(l.nexts) != 1 || l.nexts[0].stmt != 3 || l.nexts[0].vars[0] != "I" {
		t.Errorf("nexts %v", l.nexts)
	}
}

func TestFindNext(t *testing.T) {
	tests := []struct {
		name    string
		program string
		from    position
		want    position
		varIdx  int
		found   bool
	}{
		{"across lines", "10 FOR I=1 TO 2:FOR J=1 TO 2\n20 NEXT J\n30 NEXT I", position{0, 0}, position{2, 0}, 0, true},
		{"inner", "10 FOR I=1 TO 2:FOR J=1 TO 2\n20 NEXT J\n30 NEXT I", position{0, 1}, position{1, 0}, 0, true},
		{"shared next", "10 FOR I=1 TO 2:FOR J=1 TO 2:NEXT J,I", position{0, 0}, position{0, 2}, 1, true},
		{"bare next", "10 FOR I=1 TO 2\n20 PRINT\n30 NEXT", position{0, 0}, position{2, 0}, -1, true},
		{"missing", "10 FOR I=1 TO 2\n20 PRINT", position{0, 0}, position{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := loadProgram(t, tt.program)
			got, vi, ok := p.findNext(nil, tt.from)
			if ok != tt.found {
				t.Fatalf("found = %v", ok)
			}
			if ok && (got != tt.want || vi != tt.varIdx) {
				t.Errorf("findNext = %v var %d, want %v var %d", got, vi, tt.want, tt.varIdx)
			}
		})
	}
}

func TestFindNextImmediate(t *testing.T) {
	p := NewProgram()
	l, _ := NewLine(0, "FOR I=1 TO 3:PRINT I:NEXT")
	got, vi, ok := p.findNext(l, position{-1, 0})
	if !ok || got != (position{-1, 2}) || vi != -1 {
		t.Errorf("findNext = %v %d %v", got, vi, ok)
	}
}
