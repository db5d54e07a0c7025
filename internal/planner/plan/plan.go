// Package plan reads and writes plan documents as yaml files.
package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rsned/factorio-planner-server/pkg/planner"
)

// LoadFile reads a plan document from a yaml file.
func LoadFile(path string) (*planner.PlanDoc, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}
	doc := &planner.PlanDoc{}
	if err := yaml.Unmarshal(f, doc); err != nil {
		return nil, fmt.Errorf("parsing plan file %s: %w", path, err)
	}
	return doc, nil
}

// SaveFile writes a plan document to a yaml file.
func SaveFile(path string, doc *planner.PlanDoc) error {
	payload, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("writing plan file: %w", err)
	}
	return nil
}
