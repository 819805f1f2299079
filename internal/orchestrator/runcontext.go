package orchestrator

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mcrossley/labcrew/pkg/models"
)

// RunContext holds the mutable state of one orchestrated run: the caller's
// inputs and the results recorded so far. A RunContext belongs to exactly
// one Execute invocation and is never shared across concurrent runs.
type RunContext struct {
	// DocumentRef is the document the run analyzes.
	DocumentRef string
	// Query is the caller's natural-language query.
	Query string

	mu      sync.RWMutex
	results map[string]models.TaskResult
}

// NewRunContext creates the per-run state for one Execute invocation.
func NewRunContext(documentRef, query string) *RunContext {
	return &RunContext{
		DocumentRef: documentRef,
		Query:       query,
		results:     make(map[string]models.TaskResult),
	}
}

// Record stores a task's terminal result. Results are write-once; a second
// record for the same task is ignored.
func (rc *RunContext) Record(res models.TaskResult) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if _, exists := rc.results[res.TaskID]; exists {
		return
	}
	rc.results[res.TaskID] = res
}

// Result returns the recorded result for a task, if any.
func (rc *RunContext) Result(taskID string) (models.TaskResult, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	res, ok := rc.results[taskID]
	return res, ok
}

// FailedDependency returns the first dependency of the task that has a
// failed result, or "" when all recorded dependencies succeeded.
func (rc *RunContext) FailedDependency(spec *models.TaskSpec) string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	for _, depID := range spec.DependsOn {
		if res, ok := rc.results[depID]; ok && res.Status == models.TaskStatusFailed {
			return depID
		}
	}
	return ""
}

// Prompt resolves a task's effective prompt: the description template with
// {query} and {document_reference} substituted, the expected-output
// contract, and the outputs of every dependency appended as prior findings
// in declaration order.
func (rc *RunContext) Prompt(spec *models.TaskSpec) string {
	desc := strings.ReplaceAll(spec.Description, "{query}", rc.Query)
	desc = strings.ReplaceAll(desc, "{document_reference}", rc.DocumentRef)

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(desc))

	if out := spec.ExpectedOutput.Description; out != "" {
		sb.WriteString("\n\nExpected output:\n")
		sb.WriteString(strings.TrimSpace(out))
	}
	if spec.ExpectedOutput.Kind == models.SchemaJSON {
		sb.WriteString("\n\nRespond with a single JSON object containing the fields:")
		for _, f := range spec.ExpectedOutput.Fields {
			sb.WriteString(fmt.Sprintf("\n- %s (%s)", f.Name, f.Type))
			if f.Required {
				sb.WriteString(" [required]")
			}
		}
	}

	rc.mu.RLock()
	defer rc.mu.RUnlock()
	for _, depID := range spec.DependsOn {
		res, ok := rc.results[depID]
		if !ok || res.Status != models.TaskStatusSucceeded {
			continue
		}
		sb.WriteString("\n\n--- Prior findings from ")
		sb.WriteString(depID)
		sb.WriteString(" ---\n")
		sb.WriteString(strings.TrimSpace(res.Output))
	}
	return sb.String()
}
