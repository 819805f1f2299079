package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mcrossley/labcrew/internal/llm"
	"github.com/mcrossley/labcrew/internal/tool"
	"github.com/mcrossley/labcrew/pkg/models"
)

// DelegateToolName is the reserved tool name through which an agent hands
// work to another agent. It is only offered when the agent is authorized.
const DelegateToolName = "delegate_work"

// DelegateFunc hands a sub-prompt to the named coworker agent and returns
// that agent's answer.
type DelegateFunc func(ctx context.Context, coworker, prompt string) (string, error)

// Runner executes one agent's reasoning loop. A Runner is built per agent
// spec at configuration time and is safe for concurrent use: per-run state
// lives on the stack, only the rate limiter is shared.
type Runner struct {
	spec      models.AgentSpec
	complete  llm.Completer
	tools     []*tool.Spec
	limiter   *MinuteLimiter
	delegate  DelegateFunc
	coworkers []string
}

// RunResult is the outcome of one reasoning loop.
type RunResult struct {
	// Output is the agent's final (or best partial) answer.
	Output string
	// Iterations is the number of reasoning rounds used.
	Iterations int
	// ToolCalls is the number of tool invocations made.
	ToolCalls int
	// Truncated is true when the iteration bound forced termination and
	// Output is the best available partial answer.
	Truncated bool
}

// NewRunner builds a runner for the given agent spec. The tool subset must
// already be resolved from the registry; this is where capability-subset
// validation happens, at configuration time rather than call time.
func NewRunner(spec models.AgentSpec, completer llm.Completer, tools []*tool.Spec) (*Runner, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if completer == nil {
		return nil, fmt.Errorf("agent %s: nil completer", spec.ID)
	}
	for _, ts := range tools {
		if !spec.HasTool(ts.Name) {
			return nil, fmt.Errorf("agent %s: tool %s not in declared capability set", spec.ID, ts.Name)
		}
	}
	return &Runner{
		spec:     spec,
		complete: completer,
		tools:    tools,
		limiter:  NewMinuteLimiter(spec.MaxCallsPerMinute),
	}, nil
}

// SetDelegate installs the delegation capability and the coworker IDs that
// can receive delegated work. The AllowDelegation flag is still checked
// before any delegation attempt.
func (r *Runner) SetDelegate(fn DelegateFunc, coworkers ...string) {
	r.delegate = fn
	r.coworkers = coworkers
}

// Spec returns the agent spec this runner executes.
func (r *Runner) Spec() models.AgentSpec {
	return r.spec
}

// systemPrompt renders the agent's fixed persona context.
func (r *Runner) systemPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s.\n\nYour goal: %s\n", r.spec.Role, r.spec.Goal)
	if r.spec.Backstory != "" {
		fmt.Fprintf(&sb, "\n%s\n", strings.TrimSpace(r.spec.Backstory))
	}
	sb.WriteString("\nGround every statement in tool output or the provided context. " +
		"If the available data cannot support an answer, say so explicitly and report an insufficient-data outcome instead of inventing values.")
	return sb.String()
}

// toolDefs renders the agent's tool subset for the reasoning capability,
// restricted to names in allowed when allowed is non-empty.
func (r *Runner) toolDefs(allowed []string) []llm.ToolDef {
	permit := func(name string) bool {
		if len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == name {
				return true
			}
		}
		return false
	}

	var defs []llm.ToolDef
	for _, ts := range r.tools {
		if !permit(ts.Name) {
			continue
		}
		def := llm.ToolDef{Name: ts.Name, Description: ts.Description}
		for _, f := range ts.Inputs {
			def.Fields = append(def.Fields, llm.ToolField{
				Name:        f.Name,
				Type:        f.Type,
				Description: f.Description,
				Required:    f.Required,
			})
		}
		defs = append(defs, def)
	}

	if r.spec.AllowDelegation && r.delegate != nil {
		desc := "Hands a sub-question to a colleague agent and returns their answer."
		if len(r.coworkers) > 0 {
			desc += " Available coworkers: " + strings.Join(r.coworkers, ", ") + "."
		}
		defs = append(defs, llm.ToolDef{
			Name:        DelegateToolName,
			Description: desc,
			Fields: []llm.ToolField{
				{Name: "coworker", Type: "string", Description: "ID of the colleague agent to ask", Required: true},
				{Name: "prompt", Type: "string", Description: "The sub-question to delegate", Required: true},
			},
		})
	}
	return defs
}

// Run drives the reasoning loop: call the capability, execute requested
// tools, feed results back, repeat up to MaxIterations. Exceeding the bound
// terminates fail-soft with the best partial answer rather than looping.
// Reasoning calls are throttled by the agent's per-minute limiter.
func (r *Runner) Run(ctx context.Context, prompt string, allowedTools []string) (*RunResult, error) {
	result := &RunResult{}
	defs := r.toolDefs(allowedTools)
	system := r.systemPrompt()

	messages := []llm.Message{{Role: llm.RoleUser, Text: prompt}}
	var lastText string

	for result.Iterations < r.spec.MaxIterations {
		result.Iterations++

		if err := r.limiter.Wait(ctx); err != nil {
			return result, err
		}

		resp, err := r.complete.Complete(ctx, llm.Request{
			System:   system,
			Messages: messages,
			Tools:    defs,
		})
		if err != nil {
			return result, fmt.Errorf("agent %s: %w", r.spec.ID, err)
		}

		if strings.TrimSpace(resp.Text) != "" {
			lastText = resp.Text
		}

		if resp.Done || len(resp.ToolCalls) == 0 {
			result.Output = resp.Text
			return result, nil
		}

		outcomes := make([]llm.ToolOutcome, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			result.ToolCalls++
			outcome, fatal := r.execToolCall(ctx, call)
			if fatal != nil {
				log.Printf("[agent.%s] tool %s failed terminally: %v", r.spec.ID, call.Name, fatal)
				return result, fmt.Errorf("agent %s: %w", r.spec.ID, fatal)
			}
			outcomes = append(outcomes, outcome)
		}

		messages = append(messages,
			llm.Message{Role: llm.RoleAssistant, Text: resp.Text, ToolCalls: resp.ToolCalls},
			llm.Message{Role: llm.RoleUser, ToolOutcomes: outcomes},
		)
	}

	log.Printf("[agent.%s] iteration bound (%d) reached, returning partial answer", r.spec.ID, r.spec.MaxIterations)
	result.Output = lastText
	result.Truncated = true
	return result, nil
}

// execToolCall resolves and invokes one requested tool. Correctable
// failures (bad inputs, unknown tool, transient upstream trouble) come back
// as error outcomes the model can react to; terminal failures come back as
// the second return value and end the task.
func (r *Runner) execToolCall(ctx context.Context, call llm.ToolCall) (llm.ToolOutcome, error) {
	if call.Name == DelegateToolName {
		return r.execDelegation(ctx, call), nil
	}

	var spec *tool.Spec
	for _, ts := range r.tools {
		if ts.Name == call.Name {
			spec = ts
			break
		}
	}
	if spec == nil {
		return llm.ToolOutcome{
			ID:      call.ID,
			Content: fmt.Sprintf("tool %s is not available to this agent", call.Name),
			IsError: true,
		}, nil
	}

	out, err := spec.Invoke(ctx, call.Inputs)
	if err != nil {
		if terminalToolError(err) {
			return llm.ToolOutcome{}, err
		}
		return llm.ToolOutcome{ID: call.ID, Content: err.Error(), IsError: true}, nil
	}
	return llm.ToolOutcome{ID: call.ID, Content: out}, nil
}

// terminalToolError reports whether a tool failure cannot be corrected by
// further reasoning. A missing or unreadable document stays missing no
// matter what the model tries next; letting it answer anyway would produce
// ungrounded findings for every dependent task.
func terminalToolError(err error) bool {
	var te *models.TaskError
	if !errors.As(err, &te) {
		return false
	}
	switch te.Kind {
	case models.ErrKindNotFound, models.ErrKindFormat, models.ErrKindIO:
		return true
	}
	return false
}

// execDelegation enforces the delegation authorization flag before any
// delegation happens.
func (r *Runner) execDelegation(ctx context.Context, call llm.ToolCall) llm.ToolOutcome {
	if !r.spec.AllowDelegation {
		return llm.ToolOutcome{
			ID:      call.ID,
			Content: fmt.Sprintf("agent %s is not authorized to delegate", r.spec.ID),
			IsError: true,
		}
	}
	if r.delegate == nil {
		return llm.ToolOutcome{ID: call.ID, Content: "no delegation capability configured", IsError: true}
	}

	coworker, _ := call.Inputs["coworker"].(string)
	prompt, _ := call.Inputs["prompt"].(string)
	answer, err := r.delegate(ctx, coworker, prompt)
	if err != nil {
		return llm.ToolOutcome{ID: call.ID, Content: err.Error(), IsError: true}
	}
	return llm.ToolOutcome{ID: call.ID, Content: answer}
}
