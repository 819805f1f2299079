package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mcrossley/labcrew/pkg/models"
)

// Definition is a custom pipeline loaded from a YAML file. It replaces the
// built-in roster and task graph for a run.
type Definition struct {
	Agents []models.AgentSpec `yaml:"agents"`
	Tasks  []models.TaskSpec  `yaml:"tasks"`
}

// Load reads and validates a pipeline definition from a YAML file. Graph
// level problems (cycles, unknown dependencies) are left to plan
// construction; Load checks only what can be seen per entry.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline file: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse pipeline file %s: %w", path, err)
	}

	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline file %s: %w", path, err)
	}
	return &def, nil
}

// Validate checks the definition's agents and task bindings.
func (d *Definition) Validate() error {
	if len(d.Agents) == 0 {
		return fmt.Errorf("no agents defined")
	}
	if len(d.Tasks) == 0 {
		return fmt.Errorf("no tasks defined")
	}

	agents := make(map[string]bool, len(d.Agents))
	for _, a := range d.Agents {
		if err := a.Validate(); err != nil {
			return err
		}
		if agents[a.ID] {
			return fmt.Errorf("duplicate agent %s", a.ID)
		}
		agents[a.ID] = true
	}

	seen := make(map[string]bool, len(d.Tasks))
	for _, t := range d.Tasks {
		if t.ID == "" {
			return fmt.Errorf("task with empty ID")
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate task %s", t.ID)
		}
		seen[t.ID] = true
		if t.AgentID == "" {
			return fmt.Errorf("task %s has no agent", t.ID)
		}
		if !agents[t.AgentID] {
			return fmt.Errorf("task %s references unknown agent %s", t.ID, t.AgentID)
		}
	}
	return nil
}
