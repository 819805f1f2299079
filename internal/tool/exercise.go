package tool

import (
	"context"
	"strings"
)

// ExerciseName is the registry name of the exercise planning tool.
const ExerciseName = "exercise_planning"

// NewExercisePlanning builds the tool that derives an exercise plan from
// blood report text.
func NewExercisePlanning() *Spec {
	return &Spec{
		Name:        ExerciseName,
		Description: "Generates an exercise plan keyed off cardiovascular and metabolic markers in a blood report.",
		Inputs: []Field{
			{Name: "blood_text", Type: "string", Description: "Extracted text of the blood report", Required: true},
		},
		Run: func(ctx context.Context, inputs map[string]interface{}) (string, error) {
			text, _ := inputs["blood_text"].(string)
			return exercisePlan(text), nil
		},
	}
}

func exercisePlan(text string) string {
	var plan []string

	if val, ok := markerValue(text, "Cholesterol"); ok && val > referenceRanges["Cholesterol"].high {
		plan = append(plan, "High cholesterol detected: incorporate 30 minutes of moderate cardio (e.g. brisk walking) 5 days/week.")
	}
	if val, ok := markerValue(text, "Hemoglobin"); ok && val < referenceRanges["Hemoglobin"].low {
		plan = append(plan, "Low hemoglobin detected: start with light-intensity sessions like yoga or pilates 3 days/week, increasing intensity gradually.")
	}

	if len(plan) == 0 {
		plan = append(plan, "No specific exercise adjustments needed based on the provided metrics. Continue a balanced mix of cardio and strength training.")
	}
	return strings.Join(plan, "\n\n")
}
