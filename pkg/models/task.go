// Package models defines the shared data model for labcrew: agent and task
// specifications, task results, output contracts, and the error taxonomy.
// Everything here is constructed at configuration time and treated as
// read-only while a run is in flight.
package models

// TaskStatus represents the current state of a task within a run.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning indicates the task is executing.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusSucceeded indicates the task finished and its output
	// validated against its contract.
	TaskStatusSucceeded TaskStatus = "succeeded"
	// TaskStatusFailed indicates the task finished with an error.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusSucceeded, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is a final state.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusSucceeded || s == TaskStatusFailed
}

// TaskSpec describes a unit of work bound to exactly one agent.
type TaskSpec struct {
	// ID is the unique identifier for this task within a graph.
	ID string `json:"id" yaml:"id"`
	// Description is the prompt template for the task. The placeholders
	// {query} and {document_reference} are substituted from the run inputs
	// before execution.
	Description string `json:"description" yaml:"description"`
	// ExpectedOutput is the contract the agent's answer must satisfy.
	ExpectedOutput OutputSchema `json:"expected_output" yaml:"expected_output"`
	// AgentID names the agent that executes this task.
	AgentID string `json:"agent_id" yaml:"agent"`
	// DependsOn lists task IDs whose outputs are injected into this task's
	// context, in declaration order. All must succeed before this task runs.
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	// Tools optionally restricts the task to a subset of its agent's tools.
	// Empty means the agent's full tool set is available.
	Tools []string `json:"tools,omitempty" yaml:"tools,omitempty"`
}

// TaskResult records the terminal outcome of a single task.
// Results are immutable once created and owned by the run that produced them.
type TaskResult struct {
	// TaskID is the ID of the task this result belongs to.
	TaskID string `json:"task_id"`
	// Status is succeeded or failed.
	Status TaskStatus `json:"status"`
	// Output is the validated agent output. Empty when the task failed,
	// except for fail-soft partial answers recorded alongside an error.
	Output string `json:"output,omitempty"`
	// Err describes the failure when Status is failed.
	Err *TaskError `json:"error,omitempty"`
	// Iterations is the number of reasoning rounds the agent used.
	Iterations int `json:"iterations"`
	// ToolCalls is the number of tool invocations the agent made.
	ToolCalls int `json:"tool_calls"`
}

// RunStatus summarizes a whole orchestrated run.
type RunStatus string

const (
	// RunStatusSucceeded indicates every task succeeded.
	RunStatusSucceeded RunStatus = "succeeded"
	// RunStatusPartial indicates some tasks succeeded and some failed.
	RunStatusPartial RunStatus = "partial"
	// RunStatusFailed indicates no task succeeded.
	RunStatusFailed RunStatus = "failed"
)

// RunReport is the assembled outcome of one orchestrated run: every task's
// result in execution order plus the concatenated analysis text.
type RunReport struct {
	// RunID identifies the run.
	RunID string `json:"run_id"`
	// Query is the caller's natural-language query.
	Query string `json:"query"`
	// DocumentRef is the document reference the run analyzed.
	DocumentRef string `json:"document_reference"`
	// Results holds every task's result in execution order.
	Results []TaskResult `json:"results"`
	// Overall is the run-level status derived from the results.
	Overall RunStatus `json:"overall_status"`
	// Analysis is the successful task outputs concatenated in execution order.
	Analysis string `json:"analysis"`
}

// OverallStatus derives the run-level status from a result list.
func OverallStatus(results []TaskResult) RunStatus {
	succeeded := 0
	for _, r := range results {
		if r.Status == TaskStatusSucceeded {
			succeeded++
		}
	}
	switch {
	case len(results) == 0 || succeeded == 0:
		return RunStatusFailed
	case succeeded == len(results):
		return RunStatusSucceeded
	default:
		return RunStatusPartial
	}
}
