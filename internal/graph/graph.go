// Package graph provides the acyclic dependency graph that orders task
// execution within a run.
package graph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mcrossley/labcrew/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found in the task graph.
var ErrCycleDetected = errors.New("circular dependency detected")

// DependencyGraph is a directed acyclic graph over task specs. Tasks are
// nodes and edges point at the tasks they depend on. One graph belongs to
// one run; it is not shared across runs.
type DependencyGraph struct {
	mu sync.RWMutex
	// nodes maps task ID to its spec.
	nodes map[string]*models.TaskSpec
	// order preserves insertion order so traversals are deterministic.
	order []string
	// edges maps task ID to the IDs it depends on.
	edges map[string][]string
	// terminal tracks tasks that have reached a terminal result.
	terminal map[string]bool
	// succeeded tracks the subset of terminal tasks that succeeded.
	succeeded map[string]bool
}

// New creates an empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes:     make(map[string]*models.TaskSpec),
		edges:     make(map[string][]string),
		terminal:  make(map[string]bool),
		succeeded: make(map[string]bool),
	}
}

// Build constructs the graph from a slice of task specs. It fails on
// duplicate task IDs, tasks without a bound agent, dependencies on unknown
// tasks, and cycles. Cycle detection runs before any task executes.
func (g *DependencyGraph) Build(tasks []models.TaskSpec) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range tasks {
		task := &tasks[i]
		if task.ID == "" {
			return fmt.Errorf("task at index %d has no id", i)
		}
		if _, dup := g.nodes[task.ID]; dup {
			return fmt.Errorf("duplicate task id %s", task.ID)
		}
		if task.AgentID == "" {
			return fmt.Errorf("task %s is not bound to an agent", task.ID)
		}
		g.nodes[task.ID] = task
		g.order = append(g.order, task.ID)
		g.edges[task.ID] = nil
	}

	for _, id := range g.order {
		for _, depID := range g.nodes[id].DependsOn {
			if _, exists := g.nodes[depID]; !exists {
				return fmt.Errorf("task %s depends on unknown task %s", id, depID)
			}
			g.edges[id] = append(g.edges[id], depID)
		}
	}

	if g.hasCycleLocked() {
		return ErrCycleDetected
	}
	return nil
}

// HasCycle returns true if the graph contains a circular dependency.
func (g *DependencyGraph) HasCycle() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hasCycleLocked()
}

// hasCycleLocked detects cycles with a depth-first search using coloring.
// Caller must hold the lock.
func (g *DependencyGraph) hasCycleLocked() bool {
	// 0 = unvisited, 1 = in progress, 2 = done.
	colors := make(map[string]int, len(g.nodes))

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = 1
		for _, depID := range g.edges[id] {
			switch colors[depID] {
			case 1:
				return true
			case 0:
				if visit(depID) {
					return true
				}
			}
		}
		colors[id] = 2
		return false
	}

	for _, id := range g.order {
		if colors[id] == 0 && visit(id) {
			return true
		}
	}
	return false
}

// TopologicalSort returns task IDs with every dependency before its
// dependents. The order is deterministic for a given input order.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.hasCycleLocked() {
		return nil, ErrCycleDetected
	}

	visited := make(map[string]bool, len(g.nodes))
	result := make([]string, 0, len(g.nodes))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, depID := range g.edges[id] {
			visit(depID)
		}
		result = append(result, id)
	}

	for _, id := range g.order {
		visit(id)
	}
	return result, nil
}

// Ready returns the IDs of tasks whose dependencies all have a terminal
// result and which are not themselves terminal. Tasks with a failed
// dependency are included; the caller decides whether to run them or mark
// them as upstream failures.
func (g *DependencyGraph) Ready() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ready []string
	for _, id := range g.order {
		if g.terminal[id] {
			continue
		}
		blocked := false
		for _, depID := range g.edges[id] {
			if !g.terminal[depID] {
				blocked = true
				break
			}
		}
		if !blocked {
			ready = append(ready, id)
		}
	}
	return ready
}

// MarkTerminal records that a task reached a terminal result.
func (g *DependencyGraph) MarkTerminal(taskID string, succeeded bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.terminal[taskID] = true
	if succeeded {
		g.succeeded[taskID] = true
	}
}

// Succeeded returns true if the task reached a successful terminal result.
func (g *DependencyGraph) Succeeded(taskID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.succeeded[taskID]
}

// Task returns the spec for an ID, or nil if not present.
func (g *DependencyGraph) Task(taskID string) *models.TaskSpec {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[taskID]
}

// Size returns the number of tasks in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Dependencies returns the IDs the given task depends on.
func (g *DependencyGraph) Dependencies(taskID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges[taskID]
}

// Dependents returns the IDs of tasks that depend on the given task.
func (g *DependencyGraph) Dependents(taskID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var dependents []string
	for _, id := range g.order {
		for _, depID := range g.edges[id] {
			if depID == taskID {
				dependents = append(dependents, id)
				break
			}
		}
	}
	return dependents
}

// Done returns true once every task has a terminal result.
func (g *DependencyGraph) Done() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.terminal) == len(g.nodes)
}
