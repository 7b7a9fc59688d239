// Package catalog loads the reward task catalog from YAML.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mindmate/companion-api/internal/core/domain"
)

//go:embed tasks.yaml
var defaultTasks []byte

type file struct {
	Tasks []domain.Task `yaml:"tasks"`
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) (*domain.TaskRegistry, error) {
	data := defaultTasks
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read task catalog: %w", err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document. Unknown fields are rejected.
func Parse(data []byte) (*domain.TaskRegistry, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse task catalog: %w", err)
	}
	if len(f.Tasks) == 0 {
		return nil, fmt.Errorf("parse task catalog: no tasks")
	}
	return domain.NewTaskRegistry(f.Tasks)
}
