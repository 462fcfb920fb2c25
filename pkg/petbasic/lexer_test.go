package petbasic

import (
	"strings"
	"testing"
)

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeKinds(t *testing.T) {
	tests := []struct {
		src  string
		want []TokenKind
	}{
		{"A=1", []TokenKind{KindVariable, KindOperator, KindNumber}},
		{"PRINT A$;B", []TokenKind{KindKeyword, KindVariable, KindSeparator, KindVariable}},
		{"?\"HI\"", []TokenKind{KindKeyword, KindString}},
		{"A-1", []TokenKind{KindVariable, KindOperator, KindNumber}},
		{"A=-1", []TokenKind{KindVariable, KindOperator, KindNumber}},
		{"IF A<>B THEN 10", []TokenKind{KindKeyword, KindVariable, KindOperator, KindVariable, KindKeyword, KindNumber}},
		{"X=A AND NOT B", []TokenKind{KindVariable, KindOperator, KindVariable, KindOperator, KindOperator, KindVariable}},
		{"GET#1,A$", []TokenKind{KindKeyword, KindOperator, KindNumber, KindSeparator, KindVariable}},
		{"A(1,2)=3", []TokenKind{KindVariable, KindSeparator, KindNumber, KindSeparator, KindNumber, KindSeparator, KindOperator, KindNumber}},
		{"DATA 1,2", []TokenKind{KindKeyword, KindTokenList}},
		{"REM A:B", []TokenKind{KindKeyword}},
		{"A:B", []TokenKind{KindVariable, KindSeparator, KindVariable}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, _ := Tokenize(tt.src)
			gk := kinds(got)
			if len(gk) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %v", tt.src, got)
			}
			for i := range gk {
				if gk[i] != tt.want[i] {
					t.Errorf("token %d: kind %v, want %v (%v)", i, gk[i], tt.want[i], got)
				}
			}
		})
	}
}

func TestTokenizeKeywords(t *testing.T) {
	tokens, _ := Tokenize("for i=1to 9 step 2:next i")
	want := []Keyword{KwFOR, KwTO, KwSTEP, KwNEXT}
	var got []Keyword
	for _, tok := range tokens {
		if tok.Kind == KindKeyword {
			got = append(got, tok.Keyword)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("keywords %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keyword %d = %v, want %v", i, got[i], want[i])
		}
	}
	if tokens[1].Text != "I" {
		t.Errorf("variable name %q, want folded to I", tokens[1].Text)
	}

	// INPUT# wins over INPUT, GOTO over GO
	for src, k := range map[string]Keyword{"INPUT#1": KwINPUTH, "GOTO 10": KwGOTO, "GO TO 10": KwGO, "LEFT$(A$,1)": KwLEFT} {
		tokens, _ := Tokenize(src)
		if !tokens[0].IsKeyword(k) {
			t.Errorf("%q starts with %v, want %v", src, tokens[0], k)
		}
	}
}

func TestTokenizeRelationalSpellings(t *testing.T) {
	tests := []struct {
		src  string
		want Operator
	}{
		{"A<=B", OpLessEqual},
		{"A=<B", OpLessEqual},
		{"A>=B", OpGreaterEqual},
		{"A=>B", OpGreaterEqual},
		{"A<>B", OpNotEqual},
		{"A><B", OpNotEqual},
		{"A=B", OpEqual},
	}
	for _, tt := range tests {
		tokens, _ := Tokenize(tt.src)
		if len(tokens) != 3 || !tokens[1].IsOperator(tt.want) {
			t.Errorf("Tokenize(%q) = %v, want operator %v", tt.src, tokens, tt.want)
		}
	}
}

func TestTokenizeNumbers(t *testing.T) {
	tests := []struct {
		src    string
		isReal bool
		i      int64
		f      float64
	}{
		{"10", false, 10, 10},
		{"-7", false, -7, -7},
		{".5", true, 0, 0.5},
		{"1.0", false, 1, 1},
		{"2.25", true, 2, 2.25},
		{"1E3", false, 1000, 1000},
		{"1.5E-2", true, 0, 0.015},
	}
	for _, tt := range tests {
		tokens, warnings := Tokenize(tt.src)
		if len(tokens) != 1 || tokens[0].Kind != KindNumber || len(warnings) > 0 {
			t.Errorf("Tokenize(%q) = %v, %v", tt.src, tokens, warnings)
			continue
		}
		n := tokens[0]
		if n.IsReal != tt.isReal || n.Int != tt.i || n.Real != tt.f {
			t.Errorf("%q: IsReal=%v Int=%d Real=%v", tt.src, n.IsReal, n.Int, n.Real)
		}
	}
}

func TestTokenizeStrings(t *testing.T) {
	tests := []struct {
		src      string
		want     string
		escaped  bool
		warnings int
	}{
		{`"hello"`, "HELLO", false, 0},
		{`"{CLS}A"`, "\x93A", true, 0},
		{`"{3 CD}"`, "\x11\x11\x11", true, 0},
		{`"A\"B"`, `A"B`, false, 0},
		{`"{FOO}"`, "{FOO}", false, 1},
		{`"{4611686018427387904 CD}"`, "{4611686018427387904 CD}", false, 1},
		{`"OPEN`, "OPEN", false, 1},
	}
	for _, tt := range tests {
		tokens, warnings := Tokenize(tt.src)
		if len(tokens) != 1 {
			t.Errorf("Tokenize(%s) = %v", tt.src, tokens)
			continue
		}
		if tokens[0].Str != tt.want || tokens[0].Escaped != tt.escaped {
			t.Errorf("Tokenize(%s) = %q escaped=%v, want %q escaped=%v", tt.src, tokens[0].Str, tokens[0].Escaped, tt.want, tt.escaped)
		}
		if len(warnings) != tt.warnings {
			t.Errorf("Tokenize(%s) warnings = %v", tt.src, warnings)
		}
	}
}

func TestTokenizeRemAndData(t *testing.T) {
	tokens, _ := Tokenize("REM GOTO 10:PRINT")
	if len(tokens) != 1 || tokens[0].Str != " GOTO 10:PRINT" {
		t.Errorf("REM tokens = %v", tokens)
	}

	tokens, _ = Tokenize(`DATA 1, "A,B" ,X Y,-2.5:PRINT`)
	if len(tokens) != 4 {
		t.Fatalf("DATA tokens = %v", tokens)
	}
	items := tokens[1].Sub
	if len(items) != 4 {
		t.Fatalf("DATA items = %v", items)
	}
	if items[0].Kind != KindNumber || items[0].Int != 1 {
		t.Errorf("item 0 = %v", items[0])
	}
	if items[1].Kind != KindString || items[1].Str != "A,B" {
		t.Errorf("item 1 = %v", items[1])
	}
	if items[2].Kind != KindString || items[2].Str != "X Y" {
		t.Errorf("item 2 = %v", items[2])
	}
	if items[3].Kind != KindNumber || items[3].Real != -2.5 {
		t.Errorf("item 3 = %v", items[3])
	}
	if !tokens[3].IsKeyword(KwPRINT) {
		t.Errorf("statement after DATA = %v", tokens[3])
	}
}

func TestTokenizeSkipsUnknownCharacters(t *testing.T) {
	tokens, warnings := Tokenize("A=1 @ 2")
	if len(warnings) != 1 {
		t.Errorf("warnings = %v", warnings)
	}
	if len(tokens) != 4 {
		t.Errorf("tokens = %v", tokens)
	}
}

func sameTokens(a, b []Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.Kind != y.Kind || x.Text != y.Text || x.Keyword != y.Keyword || x.Op != y.Op ||
			x.Int != y.Int || x.Real != y.Real || x.IsReal != y.IsReal || x.Str != y.Str {
			return false
		}
		if !sameTokens(x.Sub, y.Sub) {
			return false
		}
	}
	return true
}

func TestListStringRoundTrip(t *testing.T) {
	lines := []string{
		`PRINT "HELLO";A$,B:GOTO 10`,
		`FOR I=1 TO 10 STEP -2:NEXT I`,
		`IF A<=-1 AND B<>2 THEN PRINT "{CLS}{3 CD}X"`,
		`A(I,J)=A(I-1,J)*2^-1`,
		`DEF FNA(X)=X*X+.5`,
		`ON X GOSUB 100,200,300`,
		`DATA 1,"TWO",THREE:READ A`,
		`REM   spaces   kept`,
		`X=LEFT$(A$,2)+MID$(B$,3,1)+CHR$(65)`,
		`POKE 32768,PEEK(32768)OR 128`,
		`A=NOT B:C=A OR B`,
		`PRINT TAB(5)"X"SPC(2)"Y"`,
		`INPUT "NAME";N$`,
		`X=1E10:Y=1.5E-3`,
		`GO TO 20`,
	}
	for _, src := range lines {
		first, _ := Tokenize(src)
		listed := ListString(first)
		second, _ := Tokenize(listed)
		if !sameTokens(first, second) {
			t.Errorf("round trip of %q via %q:\n%v\n%v", src, listed, first, second)
		}
	}
}

func TestListStringSpacing(t *testing.T) {
	tests := map[string]string{
		"print a":            "PRINT A",
		"fori=1to10":         "FOR I=1 TO 10",
		`if a then print"x"`: `IF A THEN PRINT "X"`,
		"goto100":            "GOTO 100",
		"x=len(a$)":          "X=LEN(A$)",
	}
	for src, want := range tests {
		tokens, _ := Tokenize(src)
		if got := ListString(tokens); got != want {
			t.Errorf("ListString(%q) = %q, want %q", src, got, want)
		}
	}
}

func TestSplitLineNumber(t *testing.T) {
	num, rest, ok := SplitLineNumber("  120 PRINT")
	if !ok || num != 120 || strings.TrimSpace(rest) != "PRINT" {
		t.Errorf("SplitLineNumber = %d %q %v", num, rest, ok)
	}
	if _, _, ok := SplitLineNumber("PRINT 1"); ok {
		t.Error("text without number accepted")
	}
}
