// Package petbasic implements a PET style line-numbered BASIC interpreter.
//
// Program text is tokenized per line when it is loaded. Each statement is
// compiled the first time it executes and the compiled clause is kept on the
// statement until the line is replaced.
package petbasic

import "strings"

// Defaults used when the configuration has no value.
const (
	DefaultRows       = 25
	DefaultCols       = 40
	DefaultScreenBase = 0x8000
	// MaxGosubDepth limits nested GOSUB calls.
	MaxGosubDepth = 256
	// MaxForDepth limits nested FOR loops.
	MaxForDepth = 256
	// implicitExtent is the size of an array dimension used without DIM (0..10).
	implicitExtent = 11
	// printZone is the column width a comma in PRINT tabs to.
	printZone = 10
	// maxFnNesting stops runaway FN substitution (a function calling itself).
	maxFnNesting = 16
)

// Keyword identifies a BASIC keyword. The first block follows the order of the
// PET token table, so a keyword's value plus 128 is its token byte.
type Keyword int

const (
	KwEND Keyword = iota
	KwFOR
	KwNEXT
	KwDATA
	KwINPUTH // INPUT#
	KwINPUT
	KwDIM
	KwREAD
	KwLET
	KwGOTO
	KwRUN
	KwIF
	KwRESTORE
	KwGOSUB
	KwRETURN
	KwREM
	KwSTOP
	KwON
	KwWAIT
	KwLOAD
	KwSAVE
	KwVERIFY
	KwDEF
	KwPOKE
	KwPRINTH // PRINT#
	KwPRINT
	KwCONT
	KwLIST
	KwCLR
	KwCMD
	KwSYS
	KwOPEN
	KwCLOSE
	KwGET
	KwNEW
	KwTAB
	KwTO
	KwFN
	KwSPC
	KwTHEN
	KwNOT
	KwSTEP
	KwPlus
	KwMinus
	KwMul
	KwDiv
	KwPow
	KwAND
	KwOR
	KwGreater
	KwEqual
	KwLess
	KwSGN
	KwINT
	KwABS
	KwUSR
	KwFRE
	KwPOS
	KwSQR
	KwRND
	KwLOG
	KwEXP
	KwCOS
	KwSIN
	KwTAN
	KwATN
	KwPEEK
	KwLEN
	KwSTR
	KwVAL
	KwASC
	KwCHR
	KwLEFT
	KwRIGHT
	KwMID
	KwGO
	// BASIC 4 disk commands
	KwCONCAT
	KwDOPEN
	KwDCLOSE
	KwRECORD
	KwHEADER
	KwCOLLECT
	KwBACKUP
	KwCOPY
	KwAPPEND
	KwDSAVE
	KwDLOAD
	KwCATALOG
	KwRENAME
	KwSCRATCH
	KwDIRECTORY
	KwDELAY
	numKeywords
)

// prgTokenBase is the token byte of KwEND in a tokenized program image.
const prgTokenBase = 128

var keywordNames = [numKeywords]string{
	"END", "FOR", "NEXT", "DATA", "INPUT#", "INPUT", "DIM", "READ", "LET",
	"GOTO", "RUN", "IF", "RESTORE", "GOSUB", "RETURN", "REM", "STOP", "ON",
	"WAIT", "LOAD", "SAVE", "VERIFY", "DEF", "POKE", "PRINT#", "PRINT", "CONT",
	"LIST", "CLR", "CMD", "SYS", "OPEN", "CLOSE", "GET", "NEW", "TAB", "TO",
	"FN", "SPC", "THEN", "NOT", "STEP", "+", "-", "*", "/", "^", "AND", "OR",
	">", "=", "<", "SGN", "INT", "ABS", "USR", "FRE", "POS", "SQR", "RND",
	"LOG", "EXP", "COS", "SIN", "TAN", "ATN", "PEEK", "LEN", "STR$", "VAL",
	"ASC", "CHR$", "LEFT$", "RIGHT$", "MID$", "GO",
	"CONCAT", "DOPEN", "DCLOSE", "RECORD", "HEADER", "COLLECT", "BACKUP",
	"COPY", "APPEND", "DSAVE", "DLOAD", "CATALOG", "RENAME", "SCRATCH",
	"DIRECTORY", "DELAY",
}

func (k Keyword) String() string {
	if k >= 0 && k < numKeywords {
		return keywordNames[k]
	}
	return "?"
}

// IsFunction reports whether k names an intrinsic function.
func (k Keyword) IsFunction() bool {
	return k == KwTAB || k == KwSPC || (k >= KwSGN && k <= KwMID)
}

// isOperatorEntry marks the token table slots that are scanned as operators.
func (k Keyword) isOperatorEntry() bool {
	return k == KwNOT || (k >= KwPlus && k <= KwLess)
}

// unsupported lists statements that would touch devices or disks.
var unsupported = map[Keyword]bool{
	KwWAIT: true, KwLOAD: true, KwSAVE: true, KwVERIFY: true, KwCMD: true,
	KwSYS: true, KwOPEN: true, KwCLOSE: true, KwPRINTH: true, KwINPUTH: true,
	KwCONCAT: true, KwDOPEN: true, KwDCLOSE: true, KwRECORD: true,
	KwHEADER: true, KwCOLLECT: true, KwBACKUP: true, KwCOPY: true,
	KwAPPEND: true, KwDSAVE: true, KwDLOAD: true, KwCATALOG: true,
	KwRENAME: true, KwSCRATCH: true, KwDIRECTORY: true,
}

// matchKeyword returns the longest keyword spelled at the start of text.
// Operator entries are never matched here.
func matchKeyword(text string) (Keyword, int, bool) {
	best, bestLen := Keyword(-1), 0
	upper := strings.ToUpper(text)
	for k := Keyword(0); k < numKeywords; k++ {
		if k.isOperatorEntry() {
			continue
		}
		name := keywordNames[k]
		if len(name) > bestLen && strings.HasPrefix(upper, name) {
			best, bestLen = k, len(name)
		}
	}
	return best, bestLen, bestLen > 0
}
