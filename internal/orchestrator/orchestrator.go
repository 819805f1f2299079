// Package orchestrator builds a task execution plan from the dependency
// graph, runs each task through its bound agent, and assembles the ordered
// result list. Per-task failure is data in the result list; only graph-level
// problems abort a run before anything executes.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mcrossley/labcrew/internal/agent"
	"github.com/mcrossley/labcrew/internal/graph"
	"github.com/mcrossley/labcrew/internal/llm"
	"github.com/mcrossley/labcrew/internal/tool"
	"github.com/mcrossley/labcrew/pkg/models"
)

// Orchestrator owns the configured agents and tool registry and executes
// task graphs against them. It is safe for concurrent use; each Execute
// call gets its own RunContext and dependency graph.
type Orchestrator struct {
	completer   llm.Completer
	registry    *tool.Registry
	maxParallel int

	mu      sync.RWMutex
	runners map[string]*agent.Runner
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxParallel bounds how many independent tasks run concurrently.
func WithMaxParallel(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxParallel = n
		}
	}
}

// New creates an Orchestrator backed by the given reasoning capability and
// tool registry.
func New(completer llm.Completer, registry *tool.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		completer:   completer,
		registry:    registry,
		maxParallel: 4,
		runners:     make(map[string]*agent.Runner),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RegisterAgent validates an agent spec, resolves its declared tool subset
// against the registry, and builds its runner. Misconfigured agents fail
// here, at configuration time.
func (o *Orchestrator) RegisterAgent(spec models.AgentSpec) error {
	tools, err := o.registry.Subset(spec.Tools)
	if err != nil {
		return fmt.Errorf("agent %s: %w", spec.ID, err)
	}

	runner, err := agent.NewRunner(spec, o.completer, tools)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.runners[spec.ID]; exists {
		return fmt.Errorf("agent %s already registered", spec.ID)
	}
	o.runners[spec.ID] = runner
	o.rewireDelegatesLocked()
	return nil
}

// rewireDelegatesLocked refreshes every runner's delegate so each agent can
// hand work to any other registered agent. Called after each registration so
// coworker lists stay current. Caller must hold o.mu.
func (o *Orchestrator) rewireDelegatesLocked() {
	ids := make([]string, 0, len(o.runners))
	for id := range o.runners {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for id, runner := range o.runners {
		coworkers := make([]string, 0, len(ids)-1)
		for _, other := range ids {
			if other != id {
				coworkers = append(coworkers, other)
			}
		}
		runner.SetDelegate(o.delegateFor(id), coworkers...)
	}
}

// delegateFor builds the delegation callback for one agent. The delegated
// run executes with the coworker's own tool set and iteration limits.
func (o *Orchestrator) delegateFor(selfID string) agent.DelegateFunc {
	return func(ctx context.Context, coworker, prompt string) (string, error) {
		if coworker == selfID {
			return "", fmt.Errorf("agent %s cannot delegate to itself", selfID)
		}
		target := o.runner(coworker)
		if target == nil {
			return "", fmt.Errorf("unknown coworker %q", coworker)
		}
		res, err := target.Run(ctx, prompt, nil)
		if err != nil {
			return "", err
		}
		return res.Output, nil
	}
}

// Agents returns the IDs of the registered agents.
func (o *Orchestrator) Agents() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	ids := make([]string, 0, len(o.runners))
	for id := range o.runners {
		ids = append(ids, id)
	}
	return ids
}

// runner returns the runner for an agent ID.
func (o *Orchestrator) runner(agentID string) *agent.Runner {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.runners[agentID]
}

// Execute runs a task graph against the registered agents. The plan is
// validated before anything executes: a cycle fails the whole run with
// cyclic_dependency and no agent is invoked. Task failures never abort the
// run; they are returned as failed results and propagate to dependents as
// upstream_failure.
func (o *Orchestrator) Execute(ctx context.Context, documentRef, query string, tasks []models.TaskSpec) (*models.RunReport, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no tasks to execute")
	}

	// Every task must bind to a registered agent before anything runs.
	for _, t := range tasks {
		if t.AgentID != "" && o.runner(t.AgentID) == nil {
			return nil, fmt.Errorf("task %s references unknown agent %s", t.ID, t.AgentID)
		}
	}

	g := graph.New()
	if err := g.Build(tasks); err != nil {
		if errors.Is(err, graph.ErrCycleDetected) {
			return nil, models.NewTaskError(models.ErrKindCycle, "task graph has a circular dependency")
		}
		return nil, err
	}

	plan, err := g.TopologicalSort()
	if err != nil {
		return nil, models.NewTaskError(models.ErrKindCycle, "task graph has a circular dependency")
	}

	runID := uuid.NewString()
	rc := NewRunContext(documentRef, query)
	log.Printf("[orchestrator] run %s: %d tasks, plan %v", runID, len(plan), plan)

	for !g.Done() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run %s cancelled: %w", runID, err)
		}

		ready := g.Ready()
		if len(ready) == 0 {
			// Cannot happen for a valid DAG; guard against livelock anyway.
			return nil, fmt.Errorf("run %s stalled with unfinished tasks", runID)
		}

		var runnable []string
		for _, id := range ready {
			spec := g.Task(id)
			if depID := rc.FailedDependency(spec); depID != "" {
				res := models.TaskResult{
					TaskID: id,
					Status: models.TaskStatusFailed,
					Err: models.NewTaskError(models.ErrKindUpstream,
						"dependency %s failed, task not executed", depID),
				}
				rc.Record(res)
				g.MarkTerminal(id, false)
				log.Printf("[orchestrator] run %s: task %s skipped (upstream %s failed)", runID, id, depID)
				continue
			}
			runnable = append(runnable, id)
		}

		if len(runnable) == 0 {
			continue
		}

		eg := &errgroup.Group{}
		eg.SetLimit(o.maxParallel)
		for _, id := range runnable {
			spec := g.Task(id)
			eg.Go(func() error {
				res := o.runTask(ctx, rc, spec)
				rc.Record(res)
				g.MarkTerminal(spec.ID, res.Status == models.TaskStatusSucceeded)
				return nil
			})
		}
		// Workers never return errors; failure is data in the results.
		_ = eg.Wait()
	}

	results := make([]models.TaskResult, 0, len(plan))
	for _, id := range plan {
		if res, ok := rc.Result(id); ok {
			results = append(results, res)
		}
	}

	report := &models.RunReport{
		RunID:       runID,
		Query:       query,
		DocumentRef: documentRef,
		Results:     results,
		Overall:     models.OverallStatus(results),
		Analysis:    assemble(results),
	}
	log.Printf("[orchestrator] run %s finished: %s", runID, report.Overall)
	return report, nil
}

// runTask executes one task through its agent and validates the output
// against the task's contract.
func (o *Orchestrator) runTask(ctx context.Context, rc *RunContext, spec *models.TaskSpec) models.TaskResult {
	runner := o.runner(spec.AgentID)
	prompt := rc.Prompt(spec)

	out, err := runner.Run(ctx, prompt, spec.Tools)
	res := models.TaskResult{TaskID: spec.ID}
	if out != nil {
		res.Iterations = out.Iterations
		res.ToolCalls = out.ToolCalls
	}

	if err != nil {
		res.Status = models.TaskStatusFailed
		res.Err = models.AsTaskError(err)
		return res
	}

	if verr := spec.ExpectedOutput.Validate(out.Output); verr != nil {
		res.Status = models.TaskStatusFailed
		res.Err = verr
		return res
	}

	res.Status = models.TaskStatusSucceeded
	res.Output = out.Output
	return res
}

// assemble concatenates successful outputs in execution order into the
// reported analysis.
func assemble(results []models.TaskResult) string {
	var sb strings.Builder
	for _, res := range results {
		if res.Status != models.TaskStatusSucceeded {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("## ")
		sb.WriteString(res.TaskID)
		sb.WriteString("\n\n")
		sb.WriteString(strings.TrimSpace(res.Output))
	}
	return sb.String()
}
