package models

import "fmt"

// AgentSpec describes a bounded reasoning unit: its identity, the fixed
// context it reasons from, the tools it may invoke, and its resource limits.
// Specs are built once at configuration time and shared read-only across
// concurrent runs.
type AgentSpec struct {
	// ID is the unique identifier for this agent.
	ID string `json:"id" yaml:"id"`
	// Role is the short professional identity the agent assumes.
	Role string `json:"role" yaml:"role"`
	// Goal is what the agent is trying to accomplish.
	Goal string `json:"goal" yaml:"goal"`
	// Backstory is the fixed persona context prepended to every prompt.
	Backstory string `json:"backstory" yaml:"backstory"`
	// Tools lists the names of tools this agent is allowed to invoke.
	Tools []string `json:"tools,omitempty" yaml:"tools,omitempty"`
	// MaxIterations bounds the agent's reasoning rounds per task.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
	// MaxCallsPerMinute bounds the agent's reasoning-capability call rate.
	MaxCallsPerMinute int `json:"max_calls_per_minute" yaml:"max_calls_per_minute"`
	// AllowDelegation authorizes the agent to hand work to another agent.
	AllowDelegation bool `json:"allow_delegation" yaml:"allow_delegation"`
}

// Validate checks the spec's structural invariants.
func (a *AgentSpec) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("agent: missing id")
	}
	if a.Role == "" {
		return fmt.Errorf("agent %s: missing role", a.ID)
	}
	if a.MaxIterations < 1 {
		return fmt.Errorf("agent %s: max_iterations must be >= 1, got %d", a.ID, a.MaxIterations)
	}
	if a.MaxCallsPerMinute < 1 {
		return fmt.Errorf("agent %s: max_calls_per_minute must be >= 1, got %d", a.ID, a.MaxCallsPerMinute)
	}
	return nil
}

// HasTool returns true if the agent is allowed to invoke the named tool.
func (a *AgentSpec) HasTool(name string) bool {
	for _, t := range a.Tools {
		if t == name {
			return true
		}
	}
	return false
}
