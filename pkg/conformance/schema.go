// Package conformance runs suites of BASIC programs described in YAML files
// against the interpreter and compares what they print, the screen they leave
// behind and the errors they stop with.
package conformance

// TestSuite is one YAML file.
type TestSuite struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Rows and Cols size the screen, 0 means the default 25x40.
	Rows int `yaml:"rows,omitempty"`
	Cols int `yaml:"cols,omitempty"`
	// Setup is program text loaded before every test of the suite.
	Setup string     `yaml:"setup,omitempty"`
	Tests []TestCase `yaml:"tests"`
}

// TestCase is a single program run.
type TestCase struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Skip        interface{} `yaml:"skip,omitempty"` // bool or string
	Program     string      `yaml:"program,omitempty"`
	// Direct lines are typed at the prompt after loading. Without any the
	// program is RUN.
	Direct []string `yaml:"direct,omitempty"`
	// Input answers INPUT, line by line. Keys are queued for GET.
	Input          []string    `yaml:"input,omitempty"`
	Keys           string      `yaml:"keys,omitempty"`
	IntegerForStep bool        `yaml:"integer_for_step,omitempty"`
	Expect         Expectation `yaml:"expect"`
}

// Expectation lists what must hold after the last direct line. Empty fields
// are not checked, except Error: a run expected to succeed must not end
// with an error.
type Expectation struct {
	Output    *string           `yaml:"output,omitempty"`   // exact transcript
	Contains  []string          `yaml:"contains,omitempty"` // transcript substrings
	Match     string            `yaml:"match,omitempty"`    // regex on the transcript
	Screen    *string           `yaml:"screen,omitempty"`   // screen text, trailing blanks removed
	Error     string            `yaml:"error,omitempty"`    // error code, STOPPED or BREAK
	Line      int               `yaml:"line,omitempty"`     // line of the error
	Warnings  *int              `yaml:"warnings,omitempty"` // load warnings
	Variables map[string]string `yaml:"variables,omitempty"`
}

// IsSkipped reports whether the test is switched off and why.
func (tc *TestCase) IsSkipped() (bool, string) {
	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
	case string:
		return true, v
	}
	return false, ""
}
