package history

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/scriptdeck/scriptdeck/internal/runner"
)

func TestWriteLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	exit := 0
	entries := []Entry{
		{Timestamp: 100, Script: "a.sh", Args: []string{"--x", "1"}, Success: true, ExitCode: &exit, Stdout: "ok\n"},
		{Timestamp: 300, Script: "b.py", Args: nil, Success: false, Error: "launch failed"},
		{Timestamp: 200, Script: "c.ps1", Args: []string{}, Success: true, ExitCode: &exit},
	}
	for _, e := range entries {
		if _, err := Write(dir, e); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(loaded))
	}
	// Descending by timestamp.
	if loaded[0].Timestamp != 300 || loaded[1].Timestamp != 200 || loaded[2].Timestamp != 100 {
		t.Errorf("order = %d, %d, %d", loaded[0].Timestamp, loaded[1].Timestamp, loaded[2].Timestamp)
	}
	if loaded[2].Script != "a.sh" || !reflect.DeepEqual(loaded[2].Args, []string{"--x", "1"}) {
		t.Errorf("entry mismatch: %+v", loaded[2])
	}
	if loaded[0].Error != "launch failed" || loaded[0].ExitCode != nil {
		t.Errorf("failure entry mismatch: %+v", loaded[0])
	}
}

func TestLoadSkipsCorruptRecords(t *testing.T) {
	dir := t.TempDir()
	if _, err := Write(dir, Entry{Timestamp: 1, Script: "a.sh", Success: true}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "9-9-bad.json"), []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "not-a-record.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Errorf("expected 1 entry, got %d", len(loaded))
	}
}

func TestLoadMissingDir(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("entries = %+v", loaded)
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := map[int64]string{
		0:             "1970-01-01 00:00",
		86400000:      "1970-01-02 00:00",
		1709164800000: "2024-02-29 00:00", // leap day
		1709251199000: "2024-02-29 23:59",
		1709251200000: "2024-03-01 00:00",
		-5:            "1970-01-01 00:00", // negative clamps to epoch
	}
	for ms, want := range cases {
		if got := FormatTimestamp(ms); got != want {
			t.Errorf("FormatTimestamp(%d) = %q, want %q", ms, got, want)
		}
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"tools/Clean-Up.sh": "tools_clean_up_sh",
		"///":               "run",
		"":                  "run",
		"simple":            "simple",
		"a  b":              "a_b",
	}
	for input, want := range cases {
		if got := slug(input); got != want {
			t.Errorf("slug(%q) = %q, want %q", input, got, want)
		}
	}

	long := strings.Repeat("x", 100)
	if got := slug(long); len(got) != 64 {
		t.Errorf("long slug length = %d", len(got))
	}
}

func TestFileNameShape(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, Entry{Timestamp: 42, Script: "tools/έψιλον deploy.sh", Success: true})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "42-") || !strings.HasSuffix(name, "-tools_deploy_sh.json") {
		t.Errorf("file name = %q", name)
	}
}

func TestNewSuccessRelativizesScript(t *testing.T) {
	root := t.TempDir()
	script := filepath.Join(root, "tools", "x.sh")
	out := &runner.Output{Stdout: "hi", ExitCode: 0, Success: true}
	entry := NewSuccess(root, script, []string{"--a", "b"}, out)
	if entry.Script != filepath.Join("tools", "x.sh") {
		t.Errorf("Script = %q", entry.Script)
	}
	if entry.ExitCode == nil || *entry.ExitCode != 0 || !entry.Success {
		t.Errorf("entry = %+v", entry)
	}
}

func TestFormatOutput(t *testing.T) {
	e := &Entry{Stdout: "out\n", Stderr: "err\n"}
	got := FormatOutput(e)
	if got != "STDOUT:\nout\n\nSTDERR:\nerr" {
		t.Errorf("FormatOutput = %q", got)
	}

	e = &Entry{Error: "  boom  "}
	if got := FormatOutput(e); got != "boom" {
		t.Errorf("FormatOutput error case = %q", got)
	}

	e = &Entry{}
	if got := FormatOutput(e); got != "" {
		t.Errorf("FormatOutput empty = %q", got)
	}
}
