// Package envs manages the environment files supplying form default
// values, including the pointer file naming the active one.
package envs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const activeFileName = "active"

// maskedValue replaces sensitive values in previews.
const maskedValue = "***"

var sensitiveTokens = []string{"password", "secret", "token", "key", "api", "private", "cred"}

// Config is the loaded environment state: which file is active and
// the default values it supplies, keyed by lowercased name.
type Config struct {
	EnvsDir  string
	Active   string
	Defaults map[string]string
}

// Pair is one preview line with its original key casing preserved.
type Pair struct {
	Key   string
	Value string
}

// Load resolves the active pointer and parses the active file. No
// pointer file means no active environment, which is not an error.
func Load(envsDir string) (*Config, error) {
	active, err := loadActiveName(envsDir)
	if err != nil {
		return nil, err
	}

	defaults := map[string]string{}
	if active != "" {
		path := filepath.Join(envsDir, active)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return nil, fmt.Errorf("active environment not found: %s", path)
		}
		defaults, err = loadDefaults(path)
		if err != nil {
			return nil, err
		}
	}

	return &Config{EnvsDir: envsDir, Active: active, Defaults: defaults}, nil
}

// List returns the environment file names sorted by name, excluding
// the active pointer. A missing directory yields an empty list.
func List(envsDir string) ([]string, error) {
	entries, err := os.ReadDir(envsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read environments dir %s: %w", envsDir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == activeFileName {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// SetActive writes the pointer file naming the selected environment.
// An empty name deactivates by removing the pointer.
func SetActive(envsDir, name string) error {
	if err := os.MkdirAll(envsDir, 0755); err != nil {
		return fmt.Errorf("create environments dir %s: %w", envsDir, err)
	}
	activePath := filepath.Join(envsDir, activeFileName)

	if name == "" {
		if err := os.Remove(activePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("clear active environment: %w", err)
		}
		return nil
	}

	candidate := filepath.Join(envsDir, name)
	info, err := os.Stat(candidate)
	if err != nil || info.IsDir() {
		return fmt.Errorf("environment file not found: %s", candidate)
	}
	if err := os.WriteFile(activePath, []byte(name+"\n"), 0644); err != nil {
		return fmt.Errorf("write active environment: %w", err)
	}
	return nil
}

// Preview parses an environment file preserving key casing, masking
// values whose key looks sensitive.
func Preview(path string) ([]Pair, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read environment file %s: %w", path, err)
	}

	var pairs []Pair
	for _, line := range strings.Split(string(contents), "\n") {
		key, value, ok := parseLine(line)
		if !ok {
			continue
		}
		if value != "" && isSensitiveKey(key) {
			value = maskedValue
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}
	return pairs, nil
}

func loadActiveName(envsDir string) (string, error) {
	activePath := filepath.Join(envsDir, activeFileName)
	contents, err := os.ReadFile(activePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read active environment: %w", err)
	}
	for _, line := range strings.Split(string(contents), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
			continue
		}
		return trimmed, nil
	}
	return "", nil
}

func loadDefaults(path string) (map[string]string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read environment file %s: %w", path, err)
	}

	defaults := make(map[string]string)
	for _, line := range strings.Split(string(contents), "\n") {
		key, value, ok := parseLine(line)
		if !ok || value == "" {
			continue
		}
		defaults[strings.ToLower(key)] = value
	}
	return defaults, nil
}

// parseLine handles KEY=VALUE with optional leading "export ", full
// line #/; comments, and single or double quoted values.
func parseLine(line string) (key, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
		return "", "", false
	}
	if rest, found := strings.CutPrefix(trimmed, "export "); found {
		trimmed = strings.TrimSpace(rest)
	}

	key, raw, found := strings.Cut(trimmed, "=")
	if !found {
		key = trimmed
		raw = ""
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(stripQuotes(strings.TrimSpace(raw))), true
}

func stripQuotes(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, token := range sensitiveTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
