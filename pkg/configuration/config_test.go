package configuration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseINI(t *testing.T) {
	input := `
; comment
# also a comment
[Screen]
rows = 30
cols=80

[Interpreter]
get_timeout = 10ms
orphan line without equals
`
	settings := make(map[string]map[string]string)
	if err := parseINI(strings.NewReader(input), settings); err != nil {
		t.Fatalf("parseINI: %v", err)
	}
	if got := settings["Screen"]["rows"]; got != "30" {
		t.Errorf("rows = %q, want 30", got)
	}
	if got := settings["Screen"]["cols"]; got != "80" {
		t.Errorf("cols = %q, want 80", got)
	}
	if got := settings["Interpreter"]["get_timeout"]; got != "10ms" {
		t.Errorf("get_timeout = %q, want 10ms", got)
	}
	if len(settings["Interpreter"]) != 1 {
		t.Errorf("unexpected keys in Interpreter: %v", settings["Interpreter"])
	}
}

func TestLocalPathFor(t *testing.T) {
	tests := map[string]string{
		"petbasic.cfg":         "petbasic.local.cfg",
		"/etc/pet/basic.cfg":   "/etc/pet/basic.local.cfg",
		"settings":             "settings.local",
		"dir.with.dots/x.conf": "dir.with.dots/x.local.conf",
	}
	for in, want := range tests {
		if got := localPathFor(in); got != want {
			t.Errorf("localPathFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInitializeCreatesDefaultsAndMergesLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "petbasic.cfg")
	local := filepath.Join(dir, "petbasic.local.cfg")
	if err := os.WriteFile(local, []byte("[Screen]\ncols = 80\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	if got := GetInt("Screen", "rows", 0); got != 25 {
		t.Errorf("rows = %d, want 25", got)
	}
	if got := GetInt("Screen", "cols", 0); got != 80 {
		t.Errorf("cols = %d, want local override 80", got)
	}
	if got := GetDuration("Interpreter", "get_timeout", time.Second); got != 50*time.Millisecond {
		t.Errorf("get_timeout = %v", got)
	}
	if got := GetBool("Interpreter", "integer_for_step", true); got {
		t.Errorf("integer_for_step should default to false")
	}
	if got := GetString("Missing", "key", "fallback"); got != "fallback" {
		t.Errorf("GetString fallback = %q", got)
	}

	SetString("Screen", "rows", "12")
	if got := GetInt("Screen", "rows", 0); got != 12 {
		t.Errorf("rows after SetString = %d", got)
	}
	if got := GetSection("Screen"); got["rows"] != "12" || got["cols"] != "80" {
		t.Errorf("GetSection = %v", got)
	}
}
