package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("echo hi\n"), 0755); err != nil {
		t.Fatal(err)
	}
}

func TestListOrderingAndFiltering(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "zeta.sh"))
	writeFile(t, filepath.Join(root, "Alpha.py"))
	writeFile(t, filepath.Join(root, "notes.txt"))
	if err := os.MkdirAll(filepath.Join(root, "beta"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "Tools"), 0755); err != nil {
		t.Fatal(err)
	}

	entries, err := List(root)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	var got []string
	for _, e := range entries {
		got = append(got, filepath.Base(e.Path))
	}
	want := []string{"beta", "Tools", "Alpha.py", "zeta.sh"}
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entries[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if entries[0].Kind != Directory || entries[2].Kind != Script {
		t.Error("kinds not ordered directories-first")
	}
}

func TestListSkipsBookkeepingDirs(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{".git", ".history", "kept"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := List(root)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || filepath.Base(entries[0].Path) != "kept" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestListSkipsDeckEnvs(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".deck", "envs"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, ".deck", "pack"), 0755); err != nil {
		t.Fatal(err)
	}
	// An envs dir elsewhere is an ordinary folder.
	if err := os.MkdirAll(filepath.Join(root, "envs"), 0755); err != nil {
		t.Fatal(err)
	}

	entries, err := List(filepath.Join(root, ".deck"))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || filepath.Base(entries[0].Path) != "pack" {
		t.Errorf(".deck entries = %+v", entries)
	}

	entries, err = List(root)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	foundEnvs := false
	for _, e := range entries {
		if filepath.Base(e.Path) == "envs" {
			foundEnvs = true
		}
	}
	if !foundEnvs {
		t.Error("top-level envs dir should not be skipped")
	}
}

func TestListMissingDir(t *testing.T) {
	entries, err := List(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestListScriptsRecursive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "top.sh"))
	writeFile(t, filepath.Join(root, "tools", "deep", "nested.py"))
	writeFile(t, filepath.Join(root, ".git", "hidden.sh"))
	writeFile(t, filepath.Join(root, ".history", "old.sh"))
	writeFile(t, filepath.Join(root, ".deck", "envs", "prod.sh"))
	writeFile(t, filepath.Join(root, ".deck", "pack", "tool.ps1"))
	writeFile(t, filepath.Join(root, "tools", "README.md"))

	scripts, err := ListScriptsRecursive(root)
	if err != nil {
		t.Fatalf("ListScriptsRecursive failed: %v", err)
	}
	if len(scripts) != 3 {
		t.Fatalf("expected 3 scripts, got %d: %v", len(scripts), scripts)
	}
	for _, s := range scripts {
		switch filepath.Base(s) {
		case "top.sh", "nested.py", "tool.ps1":
		default:
			t.Errorf("unexpected script %s", s)
		}
	}
}
