package schema

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const bashScript = `#!/usr/bin/env bash
# schema:begin
# {
#   "Name": "cleanup",
#   "Description": "Remove stale artifacts",
#   "Tags": ["maintenance", "disk"],
#   "Fields": [
#     {"Name": "Target", "Type": "string", "Order": 1, "Required": true},
#     {"Name": "Force", "Type": "bool", "Order": 2}
#   ]
# }
# schema:end
echo hello
`

const slashScript = `// schema:begin
// {
//   "Name": "cleanup",
//   "Description": "Remove stale artifacts",
//   "Tags": ["maintenance", "disk"],
//   "Fields": [
//     {"Name": "Target", "Type": "string", "Order": 1, "Required": true},
//     {"Name": "Force", "Type": "bool", "Order": 2}
//   ]
// }
// schema:end
`

func TestExtractAndParseRoundTrip(t *testing.T) {
	for name, contents := range map[string]string{"hash": bashScript, "slash": slashScript} {
		t.Run(name, func(t *testing.T) {
			s, err := Resolve(contents)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if s.Name != "cleanup" {
				t.Errorf("Name = %q", s.Name)
			}
			if s.Description != "Remove stale artifacts" {
				t.Errorf("Description = %q", s.Description)
			}
			if !reflect.DeepEqual(s.Tags, []string{"maintenance", "disk"}) {
				t.Errorf("Tags = %v", s.Tags)
			}
			if len(s.Fields) != 2 {
				t.Fatalf("expected 2 fields, got %d", len(s.Fields))
			}
			if s.Fields[0].Name != "Target" || !s.Fields[0].Required {
				t.Errorf("first field = %+v", s.Fields[0])
			}
		})
	}
}

func TestExtractBlockMissing(t *testing.T) {
	_, err := ExtractBlock("#!/bin/bash\necho no schema here\n", CommentPrefixes)
	if !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("expected ErrBlockNotFound, got %v", err)
	}
}

func TestExtractBlockEmpty(t *testing.T) {
	_, err := ExtractBlock("# schema:begin\n# schema:end\n", CommentPrefixes)
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("expected empty-block error, got %v", err)
	}
}

func TestExtractBlockNonCommentLine(t *testing.T) {
	contents := "# schema:begin\n# {\nnot a comment\n# }\n# schema:end\n"
	_, err := ExtractBlock(contents, CommentPrefixes)
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected error naming line 3, got %v", err)
	}
}

func TestExtractBlockUnclosed(t *testing.T) {
	_, err := ExtractBlock("# schema:begin\n# {\"Name\": \"x\"}\n", CommentPrefixes)
	if err == nil || !strings.Contains(err.Error(), "never closed") {
		t.Errorf("expected unclosed error, got %v", err)
	}
}

func TestParseToleratesSurroundingText(t *testing.T) {
	text := "WARNING: something\n{\"Name\": \"deploy\", \"Fields\": []}\ntrailing noise"
	s, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.Name != "deploy" {
		t.Errorf("Name = %q", s.Name)
	}
}

func TestParseNoObject(t *testing.T) {
	if _, err := Parse("no json at all"); err == nil {
		t.Error("expected error")
	}
	if _, err := Parse("{ broken json"); err == nil {
		t.Error("expected error for broken json")
	}
}

func TestSortFields(t *testing.T) {
	s := &Schema{Fields: []Field{
		{Name: "b", Order: 2},
		{Name: "c", Order: 3},
		{Name: "a", Order: 1},
	}}
	s.SortFields()
	if s.Fields[0].Name != "a" || s.Fields[1].Name != "b" || s.Fields[2].Name != "c" {
		t.Errorf("unexpected field order: %+v", s.Fields)
	}
}

func TestNormalizeInputRequired(t *testing.T) {
	f := &Field{Name: "Target", Type: "string", Required: true}
	_, _, err := NormalizeInput(f, "")
	if err == nil || err.Error() != "Value required" {
		t.Errorf("expected Value required, got %v", err)
	}

	def := "default-target"
	f.Default = &def
	value, omit, err := NormalizeInput(f, "")
	if err != nil || omit {
		t.Fatalf("unexpected result: %v %v", omit, err)
	}
	if value != "default-target" {
		t.Errorf("value = %q", value)
	}
}

func TestNormalizeInputOptionalEmpty(t *testing.T) {
	f := &Field{Name: "Force", Type: "bool"}
	_, omit, err := NormalizeInput(f, "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !omit {
		t.Error("expected omit for empty optional input")
	}
}

func TestNormalizeInputChoices(t *testing.T) {
	f := &Field{Name: "Region", Type: "string", Choices: []string{"east", "west"}}
	value, _, err := NormalizeInput(f, "east")
	if err != nil || value != "east" {
		t.Errorf("got %q, %v", value, err)
	}
	_, _, err = NormalizeInput(f, "north")
	if err == nil || !strings.Contains(err.Error(), "east, west") {
		t.Errorf("expected allowed-values error, got %v", err)
	}
}

func TestNormalizeInputNumber(t *testing.T) {
	f := &Field{Name: "Count", Type: "number"}
	if value, _, err := NormalizeInput(f, "3.5"); err != nil || value != "3.5" {
		t.Errorf("got %q, %v", value, err)
	}
	if _, _, err := NormalizeInput(f, "three"); err == nil {
		t.Error("expected number error")
	}
}

func TestNormalizeInputBool(t *testing.T) {
	f := &Field{Name: "Force", Type: "bool"}
	cases := map[string]string{
		"yes": "true", "Y": "true", "1": "true", "TRUE": "true", "t": "true",
		"no": "false", "N": "false", "0": "false", "False": "false", "f": "false",
	}
	for input, want := range cases {
		value, _, err := NormalizeInput(f, input)
		if err != nil {
			t.Errorf("NormalizeInput(%q) error: %v", input, err)
			continue
		}
		if value != want {
			t.Errorf("NormalizeInput(%q) = %q, want %q", input, value, want)
		}
	}
	if _, _, err := NormalizeInput(f, "maybe"); err == nil {
		t.Error("expected bool error")
	}
}

func TestNormalizeInputUnknownKindPassesThrough(t *testing.T) {
	f := &Field{Name: "Blob", Type: "wobble"}
	value, _, err := NormalizeInput(f, "  raw value  ")
	if err != nil || value != "raw value" {
		t.Errorf("got %q, %v", value, err)
	}
}

func TestBuildArgsScenario(t *testing.T) {
	fields := []Field{{Name: "force", Type: "bool", Order: 1}}

	args, _, err := BuildArgs(fields, []string{"yes"})
	if err != nil {
		t.Fatalf("BuildArgs failed: %v", err)
	}
	if !reflect.DeepEqual(args, []string{"--force", "true"}) {
		t.Errorf("args = %v", args)
	}

	args, _, err = BuildArgs(fields, []string{""})
	if err != nil {
		t.Fatalf("BuildArgs failed: %v", err)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}
}

func TestBuildArgsOrderAndCustomArg(t *testing.T) {
	fields := []Field{
		{Name: "First", Type: "string", Order: 1},
		{Name: "Second", Type: "string", Order: 2, Arg: "-s"},
	}
	args, _, err := BuildArgs(fields, []string{"one", "two"})
	if err != nil {
		t.Fatalf("BuildArgs failed: %v", err)
	}
	want := []string{"--first", "one", "-s", "two"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestBuildArgsStopsAtFirstFailure(t *testing.T) {
	fields := []Field{
		{Name: "a", Type: "string", Order: 1},
		{Name: "b", Type: "number", Order: 2},
		{Name: "c", Type: "string", Order: 3, Required: true},
	}
	_, badField, err := BuildArgs(fields, []string{"ok", "not-a-number", ""})
	if err == nil {
		t.Fatal("expected error")
	}
	if badField != 1 {
		t.Errorf("badField = %d, want 1", badField)
	}
}
