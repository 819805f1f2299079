// Package tool defines schema-validated callable capabilities that agents
// may invoke: document reading, web search, nutrition lookup, and exercise
// lookup. Tools are registered once at configuration time and shared
// read-only across concurrent runs; a tool invocation's side effects are
// confined to its own return value.
package tool

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mcrossley/labcrew/pkg/models"
)

// Field declares one input parameter of a tool.
type Field struct {
	// Name is the parameter name.
	Name string
	// Type is the expected type: string, number or bool.
	Type string
	// Description tells the agent what the parameter means.
	Description string
	// Required marks the parameter as mandatory.
	Required bool
}

// RunFunc executes a tool with already-validated inputs.
type RunFunc func(ctx context.Context, inputs map[string]interface{}) (string, error)

// Spec is a named, schema-validated capability.
type Spec struct {
	// Name is unique within a registry.
	Name string
	// Description tells the agent when to use the tool.
	Description string
	// Inputs declares the tool's parameters.
	Inputs []Field
	// Run performs the invocation. Inputs have been validated against the
	// declared schema before Run is called.
	Run RunFunc
}

// Invoke validates inputs against the declared schema and then runs the
// tool. Validation failures surface as a validation_error before any
// external call is attempted.
func (s *Spec) Invoke(ctx context.Context, inputs map[string]interface{}) (string, error) {
	if err := s.ValidateInputs(inputs); err != nil {
		return "", err
	}
	return s.Run(ctx, inputs)
}

// ValidateInputs checks the inputs against the declared fields and reports
// every missing or mistyped field in a single error.
func (s *Spec) ValidateInputs(inputs map[string]interface{}) error {
	var problems []string
	for _, f := range s.Inputs {
		val, ok := inputs[f.Name]
		if !ok || val == nil {
			if f.Required {
				problems = append(problems, "missing required field "+f.Name)
			}
			continue
		}
		if !inputTypeMatches(val, f.Type) {
			problems = append(problems, fmt.Sprintf("field %s must be of type %s", f.Name, f.Type))
		}
	}
	if len(problems) > 0 {
		return models.NewTaskError(models.ErrKindValidation,
			"invalid inputs for tool %s: %s", s.Name, strings.Join(problems, "; "))
	}
	return nil
}

func inputTypeMatches(val interface{}, typ string) bool {
	switch typ {
	case "string":
		_, ok := val.(string)
		return ok
	case "number":
		switch val.(type) {
		case float64, int, int64:
			return true
		}
		return false
	case "bool":
		_, ok := val.(bool)
		return ok
	default:
		return true
	}
}

// Registry holds the process-wide tool set. Names are unique; registration
// happens at configuration time and the registry is read-only afterwards.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]*Spec
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]*Spec)}
}

// Register adds a tool to the registry. Duplicate names are rejected.
func (r *Registry) Register(spec *Spec) error {
	if spec == nil || spec.Name == "" {
		return fmt.Errorf("tool spec must have a name")
	}
	if spec.Run == nil {
		return fmt.Errorf("tool %s has no run function", spec.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.specs[spec.Name]; exists {
		return fmt.Errorf("tool %s already registered", spec.Name)
	}
	r.specs[spec.Name] = spec
	r.order = append(r.order, spec.Name)
	return nil
}

// Get returns the tool with the given name, or nil if absent.
func (r *Registry) Get(name string) *Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.specs[name]
}

// Subset resolves a list of tool names into specs. Unknown names are an
// error so misconfigured agents fail at configuration time, not call time.
func (r *Registry) Subset(names []string) ([]*Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]*Spec, 0, len(names))
	for _, name := range names {
		spec, ok := r.specs[name]
		if !ok {
			return nil, fmt.Errorf("unknown tool %s", name)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
