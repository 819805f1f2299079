// Package llm wraps the underlying reasoning capability. Agents depend on
// the Completer interface only; the Anthropic client is one implementation
// and tests substitute deterministic stubs.
package llm

import "context"

// Message roles exchanged with the reasoning capability.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ToolDef describes a tool made available to the model for one request.
type ToolDef struct {
	// Name is the tool's registry name.
	Name string
	// Description tells the model when to use the tool.
	Description string
	// Fields declares the tool's input parameters.
	Fields []ToolField
}

// ToolField is a single input parameter of a ToolDef.
type ToolField struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// ToolCall is the model asking for a tool invocation.
type ToolCall struct {
	// ID correlates the call with its result in the next message.
	ID string
	// Name is the requested tool.
	Name string
	// Inputs are the decoded call arguments.
	Inputs map[string]interface{}
}

// ToolOutcome carries a tool invocation's result back to the model.
type ToolOutcome struct {
	// ID matches the originating ToolCall.
	ID string
	// Content is the tool output, or the error detail when IsError is set.
	Content string
	// IsError marks a failed invocation.
	IsError bool
}

// Message is one turn of the conversation.
type Message struct {
	// Role is user or assistant.
	Role string
	// Text is the prose content of the turn.
	Text string
	// ToolCalls holds tool requests on assistant turns.
	ToolCalls []ToolCall
	// ToolOutcomes holds tool results on user turns.
	ToolOutcomes []ToolOutcome
}

// Request is one call to the reasoning capability.
type Request struct {
	// System is the system prompt.
	System string
	// Messages is the conversation so far.
	Messages []Message
	// Tools is the tool set offered for this call.
	Tools []ToolDef
	// MaxTokens caps the response length. Zero uses the client default.
	MaxTokens int
}

// Response is the model's reply.
type Response struct {
	// Text is the prose portion of the reply.
	Text string
	// ToolCalls is non-empty when the model wants tools invoked before it
	// can finish.
	ToolCalls []ToolCall
	// Done is true when the model ended its turn without requesting tools.
	Done bool
	// TokensIn and TokensOut record usage for this call.
	TokensIn  int64
	TokensOut int64
}

// Completer is the opaque reasoning capability: given a prompt and an
// optional tool set, it returns text or tool requests, or fails.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
