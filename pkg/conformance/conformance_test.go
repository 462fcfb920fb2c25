package conformance

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConformance(t *testing.T) {
	tests, err := LoadDir(DefaultDir)
	if err != nil {
		t.Fatalf("Failed to load tests: %v", err)
	}
	if len(tests) == 0 {
		t.Fatal("No tests loaded")
	}

	runner := &Runner{Timeout: 500 * time.Millisecond}
	results := runner.RunAll(tests)

	fileGroups := make(map[string][]TestResult)
	for _, result := range results {
		fileGroups[result.Test.File] = append(fileGroups[result.Test.File], result)
	}
	for file, fileResults := range fileGroups {
		t.Run(file, func(t *testing.T) {
			for _, result := range fileResults {
				t.Run(result.Test.Test.Name, func(t *testing.T) {
					switch {
					case result.Skipped:
						t.Skipf("Skipped: %s", result.SkipReason)
					case !result.Passed:
						t.Errorf("%v\noutput: %q", result.Error, result.Output)
					}
				})
			}
		})
	}
	t.Logf("%s", FormatStats(ComputeStats(results)))
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	suite := "name: bad\ntests:\n  - name: typo\n    program: \"10 END\"\n    expect:\n      outptu: \"\"\n"
	if err := os.WriteFile(path, []byte(suite), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("misspelled expectation accepted")
	}
	if _, err := LoadDir(dir); err == nil {
		t.Error("LoadDir ignored a broken suite")
	}
}

func TestRunnerReportsMismatch(t *testing.T) {
	want := "NOT THIS\n"
	test := LoadedTest{
		File:  "inline",
		Suite: &TestSuite{Name: "inline"},
		Test: TestCase{
			Name:    "mismatch",
			Program: "10 PRINT \"HELLO\"\n",
			Expect:  Expectation{Output: &want},
		},
	}
	res := NewRunner().Run(test)
	if res.Passed || res.Error == nil {
		t.Fatalf("mismatch passed: %+v", res)
	}
	if res.Output != "HELLO\n" {
		t.Errorf("output %q", res.Output)
	}

	test.Test.Expect = Expectation{}
	test.Test.Program = "10 A=1/0\n"
	if res := NewRunner().Run(test); res.Passed {
		t.Error("unexpected error not reported")
	}

	test.Test.Skip = "not yet"
	if res := NewRunner().Run(test); !res.Skipped || res.SkipReason != "not yet" {
		t.Errorf("skip ignored: %+v", res)
	}
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats([]TestResult{{Passed: true}, {Skipped: true}, {}, {Passed: true}})
	if stats != (SummaryStats{Total: 4, Passed: 2, Failed: 1, Skipped: 1}) {
		t.Errorf("stats %+v", stats)
	}
	if got := FormatStats(stats); got != "2 passed, 1 failed, 1 skipped (4 total)" {
		t.Errorf("FormatStats = %q", got)
	}
}
