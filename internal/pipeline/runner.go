package pipeline

import (
	"context"
	"fmt"

	"github.com/mcrossley/labcrew/internal/llm"
	"github.com/mcrossley/labcrew/internal/orchestrator"
	"github.com/mcrossley/labcrew/internal/tool"
	"github.com/mcrossley/labcrew/pkg/models"
)

// Runner binds an orchestrator to a fixed agent roster and resolves run
// modes to task graphs.
type Runner struct {
	orc   *orchestrator.Orchestrator
	tasks func(Mode) []models.TaskSpec
}

// NewRunner builds an orchestrator over the given reasoning capability and
// tool registry and registers the built-in agent roster.
func NewRunner(completer llm.Completer, registry *tool.Registry, opts ...orchestrator.Option) (*Runner, error) {
	orc := orchestrator.New(completer, registry, opts...)
	for _, spec := range Agents() {
		if err := orc.RegisterAgent(spec); err != nil {
			return nil, fmt.Errorf("register built-in agent: %w", err)
		}
	}
	return &Runner{orc: orc, tasks: Tasks}, nil
}

// NewRunnerFromDefinition builds a runner from a custom pipeline definition.
// Every run executes the definition's full task list regardless of mode.
func NewRunnerFromDefinition(completer llm.Completer, registry *tool.Registry, def *Definition, opts ...orchestrator.Option) (*Runner, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	orc := orchestrator.New(completer, registry, opts...)
	for _, spec := range def.Agents {
		if err := orc.RegisterAgent(spec); err != nil {
			return nil, fmt.Errorf("register agent: %w", err)
		}
	}
	tasks := def.Tasks
	return &Runner{
		orc:   orc,
		tasks: func(Mode) []models.TaskSpec { return tasks },
	}, nil
}

// Run executes the task graph for a mode against a document and query.
func (r *Runner) Run(ctx context.Context, mode Mode, documentRef, query string) (*models.RunReport, error) {
	if query == "" {
		query = DefaultQuery(mode)
	}
	return r.orc.Execute(ctx, documentRef, query, r.tasks(mode))
}
