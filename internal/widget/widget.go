// Package widget loads the optional per-directory status panel from a
// declarative status.yaml descriptor.
package widget

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const descriptorName = "status.yaml"

// Data is the rendered content of one status panel.
type Data struct {
	Title string   `yaml:"title"`
	Lines []string `yaml:"lines"`
}

// Load reads dir's status descriptor. A directory without one has no
// panel: (nil, nil).
func Load(dir string) (*Data, error) {
	path := filepath.Join(dir, descriptorName)
	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var d Data
	if err := yaml.Unmarshal(contents, &d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if d.Title == "" {
		return nil, fmt.Errorf("%s: missing title", path)
	}
	return &d, nil
}
