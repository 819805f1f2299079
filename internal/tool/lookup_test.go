package tool

import (
	"context"
	"strings"
	"testing"
)

func invokeText(t *testing.T, spec *Spec, text string) string {
	t.Helper()
	out, err := spec.Invoke(context.Background(), map[string]interface{}{"blood_text": text})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	return out
}

func TestNutritionAnalysisLowHemoglobin(t *testing.T) {
	out := invokeText(t, NewNutritionAnalysis(), "Hemoglobin: 11.2 g/dL")
	if !strings.Contains(out, "below the normal range") {
		t.Errorf("expected low-hemoglobin advice, got %q", out)
	}
	if !strings.Contains(out, "iron") {
		t.Errorf("expected iron-rich food suggestion, got %q", out)
	}
}

func TestNutritionAnalysisHighCholesterol(t *testing.T) {
	out := invokeText(t, NewNutritionAnalysis(), "Cholesterol 240 mg/dL")
	if !strings.Contains(out, "above the normal range") {
		t.Errorf("expected high-cholesterol advice, got %q", out)
	}
}

func TestNutritionAnalysisNormalValues(t *testing.T) {
	out := invokeText(t, NewNutritionAnalysis(), "Hemoglobin 14.5\nCholesterol 180")
	if !strings.Contains(out, "within the normal range") {
		t.Errorf("expected in-range message, got %q", out)
	}
}

func TestNutritionAnalysisNoMarkers(t *testing.T) {
	out := invokeText(t, NewNutritionAnalysis(), "This is a shopping list.")
	if !strings.Contains(out, "No recognizable markers") {
		t.Errorf("expected no-markers message, got %q", out)
	}
}

func TestExercisePlanningHighCholesterol(t *testing.T) {
	out := invokeText(t, NewExercisePlanning(), "Cholesterol: 230")
	if !strings.Contains(out, "moderate cardio") {
		t.Errorf("expected cardio recommendation, got %q", out)
	}
}

func TestExercisePlanningLowHemoglobin(t *testing.T) {
	out := invokeText(t, NewExercisePlanning(), "Hemoglobin: 12.0")
	if !strings.Contains(out, "light-intensity") {
		t.Errorf("expected light-intensity recommendation, got %q", out)
	}
}

func TestExercisePlanningDefault(t *testing.T) {
	out := invokeText(t, NewExercisePlanning(), "Hemoglobin 15.0, Cholesterol 150")
	if !strings.Contains(out, "No specific exercise adjustments") {
		t.Errorf("expected default plan, got %q", out)
	}
}

func TestMarkerValue(t *testing.T) {
	tests := []struct {
		text   string
		marker string
		want   float64
		found  bool
	}{
		{"Hemoglobin: 13.5 g/dL", "Hemoglobin", 13.5, true},
		{"hemoglobin 9", "Hemoglobin", 9, true},
		{"HEMOGLOBIN\t14.2", "Hemoglobin", 14.2, true},
		{"no markers here", "Hemoglobin", 0, false},
	}

	for _, tt := range tests {
		got, found := markerValue(tt.text, tt.marker)
		if found != tt.found || got != tt.want {
			t.Errorf("markerValue(%q) = %v,%v want %v,%v", tt.text, got, found, tt.want, tt.found)
		}
	}
}
