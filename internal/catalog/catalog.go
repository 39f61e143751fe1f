// Package catalog lists the runnable scripts and folders under a
// workspace root.
package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/scriptdeck/scriptdeck/internal/runner"
)

// Kind distinguishes directories from runnable scripts.
type Kind int

const (
	Directory Kind = iota
	Script
)

// Entry is one row of a directory listing.
type Entry struct {
	Path string
	Kind Kind
}

// List returns the entries of a single directory, directories first,
// then case-insensitive by name. A missing directory yields an empty
// result rather than an error.
func List(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Entry
	for _, de := range dirEntries {
		path := filepath.Join(dir, de.Name())
		if de.IsDir() {
			if skipDir(path) {
				continue
			}
			out = append(out, Entry{Path: path, Kind: Directory})
			continue
		}
		if _, ok := runner.KindFor(path); ok {
			out = append(out, Entry{Path: path, Kind: Script})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind == Directory
		}
		return entryName(out[i].Path) < entryName(out[j].Path)
	})
	return out, nil
}

// ListScriptsRecursive walks the tree depth-first from root and
// returns every runnable script, applying the same skip rules.
func ListScriptsRecursive(root string) ([]string, error) {
	var scripts []string
	if err := collect(root, &scripts); err != nil {
		return nil, err
	}
	return scripts, nil
}

func collect(dir string, scripts *[]string) error {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, de := range dirEntries {
		path := filepath.Join(dir, de.Name())
		if de.IsDir() {
			if skipDir(path) {
				continue
			}
			if err := collect(path, scripts); err != nil {
				return err
			}
			continue
		}
		if _, ok := runner.KindFor(path); ok {
			*scripts = append(*scripts, path)
		}
	}
	return nil
}

// skipDir hides version-control and bookkeeping folders, plus the
// envs folder nested directly under a .deck pack directory.
func skipDir(path string) bool {
	name := filepath.Base(path)
	switch name {
	case ".git", ".history":
		return true
	case "envs":
		return filepath.Base(filepath.Dir(path)) == ".deck"
	}
	return false
}

func entryName(path string) string {
	return strings.ToLower(filepath.Base(path))
}
