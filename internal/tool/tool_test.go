package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mcrossley/labcrew/pkg/models"
)

func echoSpec(name string) *Spec {
	return &Spec{
		Name:        name,
		Description: "echoes its input",
		Inputs: []Field{
			{Name: "text", Type: "string", Required: true},
			{Name: "loud", Type: "bool"},
		},
		Run: func(ctx context.Context, inputs map[string]interface{}) (string, error) {
			text, _ := inputs["text"].(string)
			if loud, _ := inputs["loud"].(bool); loud {
				return strings.ToUpper(text), nil
			}
			return text, nil
		},
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoSpec("echo")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if r.Get("echo") == nil {
		t.Error("expected to find registered tool")
	}
	if r.Get("missing") != nil {
		t.Error("expected nil for unknown tool")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoSpec("echo")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(echoSpec("echo")); err == nil {
		t.Error("expected error registering duplicate name")
	}
}

func TestRegistryRejectsInvalidSpecs(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&Spec{Name: ""}); err == nil {
		t.Error("expected error for unnamed tool")
	}
	if err := r.Register(&Spec{Name: "norun"}); err == nil {
		t.Error("expected error for tool without run function")
	}
}

func TestRegistrySubset(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoSpec("echo")); err != nil {
		t.Fatal(err)
	}

	specs, err := r.Subset([]string{"echo"})
	if err != nil {
		t.Fatalf("Subset failed: %v", err)
	}
	if len(specs) != 1 || specs[0].Name != "echo" {
		t.Errorf("unexpected subset: %v", specs)
	}

	if _, err := r.Subset([]string{"echo", "missing"}); err == nil {
		t.Error("expected error for unknown tool in subset")
	}
}

func TestInvokeValidatesBeforeRunning(t *testing.T) {
	ran := false
	spec := &Spec{
		Name:   "probe",
		Inputs: []Field{{Name: "text", Type: "string", Required: true}},
		Run: func(ctx context.Context, inputs map[string]interface{}) (string, error) {
			ran = true
			return "", nil
		},
	}

	_, err := spec.Invoke(context.Background(), map[string]interface{}{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if ran {
		t.Error("run function must not execute on invalid inputs")
	}

	var te *models.TaskError
	if !errors.As(err, &te) || te.Kind != models.ErrKindValidation {
		t.Errorf("expected validation_error, got %v", err)
	}
}

func TestValidateInputsReportsAllProblems(t *testing.T) {
	spec := &Spec{
		Name: "multi",
		Inputs: []Field{
			{Name: "a", Type: "string", Required: true},
			{Name: "b", Type: "number", Required: true},
		},
		Run: func(ctx context.Context, inputs map[string]interface{}) (string, error) { return "", nil },
	}

	err := spec.ValidateInputs(map[string]interface{}{"b": "not a number"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "missing required field a") {
		t.Errorf("expected missing-field detail, got %q", msg)
	}
	if !strings.Contains(msg, "field b must be of type number") {
		t.Errorf("expected mistyped-field detail, got %q", msg)
	}
}

func TestInvokeRunsWithValidInputs(t *testing.T) {
	spec := echoSpec("echo")
	out, err := spec.Invoke(context.Background(), map[string]interface{}{"text": "hi", "loud": true})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if out != "HI" {
		t.Errorf("expected HI, got %q", out)
	}
}
