// Package workspace resolves and maintains the on-disk layout of a
// scriptdeck workspace: the script tree itself plus the bookkeeping
// directories nested inside it.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	deckDirName    = ".deck"
	historyDirName = ".history"
	envsDirName    = "envs"
	configFileName = "deck.yaml"
	searchDBName   = "search-index.sqlite"
)

// Config is the workspace-level configuration stored in deck.yaml.
type Config struct {
	Version int `yaml:"version"`
}

// Workspace holds the resolved paths of one script workspace.
type Workspace struct {
	root string
}

// New creates a Workspace rooted at the given directory.
func New(root string) *Workspace {
	return &Workspace{root: root}
}

// Resolve picks the workspace root: an explicit flag value wins, then
// the SCRIPTDECK_DIR environment variable, then the current directory.
func Resolve(flagValue string) (*Workspace, error) {
	if flagValue != "" {
		return New(flagValue), nil
	}
	if dir := os.Getenv("SCRIPTDECK_DIR"); dir != "" {
		return New(dir), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	return New(cwd), nil
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// DeckDir returns the directory holding installed script packs.
func (w *Workspace) DeckDir() string {
	return filepath.Join(w.root, deckDirName)
}

// HistoryDir returns the directory holding run records.
func (w *Workspace) HistoryDir() string {
	return filepath.Join(w.root, historyDirName)
}

// EnvsDir returns the directory holding environment files.
func (w *Workspace) EnvsDir() string {
	return filepath.Join(w.DeckDir(), envsDirName)
}

// SearchDBPath returns the path of the search index database.
func (w *Workspace) SearchDBPath() string {
	return filepath.Join(w.HistoryDir(), searchDBName)
}

// ConfigPath returns the path of the workspace config file.
func (w *Workspace) ConfigPath() string {
	return filepath.Join(w.root, configFileName)
}

// EnsureLayout creates the bookkeeping directories and a default
// config file if they do not exist yet.
func (w *Workspace) EnsureLayout() error {
	for _, dir := range []string{w.root, w.DeckDir(), w.HistoryDir(), w.EnvsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create workspace dir %s: %w", dir, err)
		}
	}
	if _, err := os.Stat(w.ConfigPath()); os.IsNotExist(err) {
		data, err := yaml.Marshal(Config{Version: 1})
		if err != nil {
			return fmt.Errorf("encode default config: %w", err)
		}
		if err := os.WriteFile(w.ConfigPath(), data, 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// LoadConfig reads deck.yaml. A missing file yields the defaults.
func (w *Workspace) LoadConfig() (Config, error) {
	cfg := Config{Version: 1}
	data, err := os.ReadFile(w.ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read workspace config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse workspace config: %w", err)
	}
	return cfg, nil
}

// Rel renders a path relative to the workspace root for display.
// Paths outside the root are returned unchanged.
func (w *Workspace) Rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || len(rel) >= 2 && rel[:2] == ".." {
		return path
	}
	return rel
}
