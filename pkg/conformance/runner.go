package conformance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/antibyte/petbasic/pkg/expression"
	"github.com/antibyte/petbasic/pkg/logger"
	"github.com/antibyte/petbasic/pkg/petbasic"
)

// DefaultTimeout bounds a single test. A program still running then ends
// with BREAK.
const DefaultTimeout = 5 * time.Second

// TestResult is the outcome of one test.
type TestResult struct {
	Test       LoadedTest
	Passed     bool
	Skipped    bool
	SkipReason string
	Output     string
	Error      error
}

// Runner executes conformance tests, each on a fresh interpreter and screen.
type Runner struct {
	Timeout time.Duration
}

// NewRunner creates a runner with the default timeout.
func NewRunner() *Runner {
	return &Runner{Timeout: DefaultTimeout}
}

// errorCode names how a direct line ended: "" for success, STOPPED, BREAK or
// the error code of a BASICError.
func errorCode(err error) string {
	var be *petbasic.BASICError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, petbasic.ErrStopped):
		return "STOPPED"
	case errors.Is(err, petbasic.ErrBreak):
		return "BREAK"
	case errors.As(err, &be):
		return be.Detail
	}
	return err.Error()
}

// Run executes a single test.
func (r *Runner) Run(test LoadedTest) TestResult {
	if skipped, reason := test.Test.IsSkipped(); skipped {
		return TestResult{Test: test, Skipped: true, SkipReason: reason}
	}
	tc := test.Test

	screen := petbasic.NewScreen(test.Suite.Rows, test.Suite.Cols)
	screen.Sleep = func(time.Duration) {}
	screen.KeyTimeout = time.Millisecond
	for _, line := range tc.Input {
		screen.FeedLine(line)
	}
	if tc.Keys != "" {
		screen.FeedKeys(tc.Keys)
	}
	var out bytes.Buffer
	in := petbasic.New(screen, petbasic.Options{
		Transcript:     &out,
		IntegerForStep: tc.IntegerForStep,
	})

	src := test.Suite.Setup
	if src != "" && !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	warnings, err := in.Load(strings.NewReader(src + tc.Program))
	if err != nil {
		return TestResult{Test: test, Error: fmt.Errorf("load: %w", err)}
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	direct := tc.Direct
	if len(direct) == 0 {
		direct = []string{"RUN"}
	}
	var last error
	for _, line := range direct {
		last = in.RunLine(ctx, line)
		if last != nil {
			logger.Debug(logger.AreaConformance, "%s/%s: %q: %v", test.File, tc.Name, line, last)
		}
	}

	res := TestResult{Test: test, Output: out.String()}
	res.Error = r.check(tc.Expect, in, screen, res.Output, len(warnings), last)
	res.Passed = res.Error == nil
	return res
}

func (r *Runner) check(expect Expectation, in *petbasic.Interpreter, screen *petbasic.Screen, output string, warnings int, runErr error) error {
	if got := errorCode(runErr); got != expect.Error {
		if expect.Error == "" {
			return fmt.Errorf("unexpected error: %v", runErr)
		}
		return fmt.Errorf("expected error %s, got %q (%v)", expect.Error, got, runErr)
	}
	if expect.Line != 0 && in.ErrorLine() != expect.Line {
		return fmt.Errorf("expected error in line %d, got line %d", expect.Line, in.ErrorLine())
	}
	if expect.Output != nil && output != *expect.Output {
		return fmt.Errorf("output %q, want %q", output, *expect.Output)
	}
	for _, s := range expect.Contains {
		if !strings.Contains(output, s) {
			return fmt.Errorf("output %q does not contain %q", output, s)
		}
	}
	if expect.Match != "" {
		re, err := regexp.Compile(expect.Match)
		if err != nil {
			return fmt.Errorf("bad match pattern: %w", err)
		}
		if !re.MatchString(output) {
			return fmt.Errorf("output %q does not match %s", output, expect.Match)
		}
	}
	if expect.Screen != nil {
		want := strings.TrimRight(*expect.Screen, "\n")
		if got := screen.Text(); got != want {
			return fmt.Errorf("screen:\n%s\nwant:\n%s", got, want)
		}
	}
	if expect.Warnings != nil && warnings != *expect.Warnings {
		return fmt.Errorf("%d load warnings, want %d", warnings, *expect.Warnings)
	}
	for name, want := range expect.Variables {
		if got := formatValue(in.Variables().Get(name)); got != want {
			return fmt.Errorf("variable %s = %q, want %q", name, got, want)
		}
	}
	return nil
}

func formatValue(v expression.Value) string {
	if v.IsString() {
		return v.Str()
	}
	return expression.FormatNumber(v)
}

// RunAll executes all loaded tests.
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, len(tests))
	for i, test := range tests {
		results[i] = r.Run(test)
		if !results[i].Passed && !results[i].Skipped {
			logger.Warn(logger.AreaConformance, "%s/%s: %v", test.File, test.Test.Name, results[i].Error)
		}
	}
	return results
}

// SummaryStats counts results.
type SummaryStats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats generates statistics from test results.
func ComputeStats(results []TestResult) SummaryStats {
	stats := SummaryStats{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Skipped:
			stats.Skipped++
		case r.Passed:
			stats.Passed++
		default:
			stats.Failed++
		}
	}
	return stats
}

// FormatStats returns a human-readable summary.
func FormatStats(stats SummaryStats) string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped (%d total)",
		stats.Passed, stats.Failed, stats.Skipped, stats.Total)
}
