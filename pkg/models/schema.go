package models

import (
	"encoding/json"
	"strings"
)

// SchemaKind selects how an agent's output is validated.
type SchemaKind string

const (
	// SchemaText expects free-form prose of at least MinLength characters.
	SchemaText SchemaKind = "text"
	// SchemaJSON expects a JSON object containing every required field.
	SchemaJSON SchemaKind = "json"
)

// SchemaField declares one required or optional field of a JSON output.
type SchemaField struct {
	// Name is the JSON key.
	Name string `json:"name" yaml:"name"`
	// Type is the expected JSON type: string, number, bool, array or object.
	Type string `json:"type" yaml:"type"`
	// Required marks the field as mandatory.
	Required bool `json:"required" yaml:"required"`
}

// OutputSchema is the contract an agent's answer must satisfy before the
// task is allowed to succeed. A mismatch becomes a schema_violation rather
// than a silently accepted malformed result.
type OutputSchema struct {
	// Kind is text or json.
	Kind SchemaKind `json:"kind" yaml:"kind"`
	// Description tells the agent what shape of answer is expected. It is
	// appended to the task prompt, not used for validation.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Fields declares the JSON fields when Kind is json.
	Fields []SchemaField `json:"fields,omitempty" yaml:"fields,omitempty"`
	// MinLength is the minimum trimmed length when Kind is text.
	// Zero means any non-empty output is accepted.
	MinLength int `json:"min_length,omitempty" yaml:"min_length,omitempty"`
}

// Validate checks output against the schema. It returns a *TaskError of kind
// schema_violation describing every problem found, or nil when the output
// conforms.
func (s *OutputSchema) Validate(output string) *TaskError {
	switch s.Kind {
	case SchemaJSON:
		return s.validateJSON(output)
	default:
		return s.validateText(output)
	}
}

func (s *OutputSchema) validateText(output string) *TaskError {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return NewTaskError(ErrKindSchema, "expected non-empty text output")
	}
	if s.MinLength > 0 && len(trimmed) < s.MinLength {
		return NewTaskError(ErrKindSchema, "text output too short: %d chars, need %d", len(trimmed), s.MinLength)
	}
	return nil
}

func (s *OutputSchema) validateJSON(output string) *TaskError {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &obj); err != nil {
		return NewTaskError(ErrKindSchema, "output is not a JSON object: %v", err)
	}

	var problems []string
	for _, f := range s.Fields {
		val, ok := obj[f.Name]
		if !ok {
			if f.Required {
				problems = append(problems, "missing field "+f.Name)
			}
			continue
		}
		if f.Type != "" && !jsonTypeMatches(val, f.Type) {
			problems = append(problems, "field "+f.Name+" is not of type "+f.Type)
		}
	}
	if len(problems) > 0 {
		return NewTaskError(ErrKindSchema, "output violates contract: %s", strings.Join(problems, "; "))
	}
	return nil
}

// jsonTypeMatches reports whether a decoded JSON value has the declared type.
func jsonTypeMatches(val interface{}, typ string) bool {
	switch typ {
	case "string":
		_, ok := val.(string)
		return ok
	case "number":
		_, ok := val.(float64)
		return ok
	case "bool":
		_, ok := val.(bool)
		return ok
	case "array":
		_, ok := val.([]interface{})
		return ok
	case "object":
		_, ok := val.(map[string]interface{})
		return ok
	default:
		return true
	}
}
