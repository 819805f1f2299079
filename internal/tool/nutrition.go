package tool

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NutritionName is the registry name of the nutrition analysis tool.
const NutritionName = "nutrition_analysis"

// markerRange is a biomarker's normal reference interval.
type markerRange struct {
	low  float64
	high float64
	unit string
}

// referenceRanges holds the biomarkers the lookup tools understand.
var referenceRanges = map[string]markerRange{
	"Hemoglobin":  {low: 13.5, high: 17.5, unit: "g/dL"},
	"Cholesterol": {low: 125, high: 200, unit: "mg/dL"},
}

// markerValue extracts a biomarker reading like "Hemoglobin: 13.5" from
// report text. Returns false when the marker is not mentioned.
func markerValue(text, marker string) (float64, bool) {
	pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(marker) + `[:\s]*([\d.]+)`)
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	val, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

// NewNutritionAnalysis builds the tool that turns extracted blood report
// text into dietary advice keyed off the reference ranges.
func NewNutritionAnalysis() *Spec {
	return &Spec{
		Name:        NutritionName,
		Description: "Analyzes blood test metrics against reference ranges and suggests dietary adjustments.",
		Inputs: []Field{
			{Name: "blood_text", Type: "string", Description: "Extracted text of the blood report", Required: true},
		},
		Run: func(ctx context.Context, inputs map[string]interface{}) (string, error) {
			text, _ := inputs["blood_text"].(string)
			return nutritionAdvice(text), nil
		},
	}
}

func nutritionAdvice(text string) string {
	var lines []string
	for _, marker := range []string{"Hemoglobin", "Cholesterol"} {
		rng := referenceRanges[marker]
		val, ok := markerValue(text, marker)
		if !ok {
			continue
		}
		switch {
		case val < rng.low:
			lines = append(lines, fmt.Sprintf(
				"%s (%.1f %s) is below the normal range (%.1f-%.1f). Consider foods rich in iron and B12 such as lean red meat, spinach, and fortified cereals.",
				marker, val, rng.unit, rng.low, rng.high))
		case val > rng.high:
			lines = append(lines, fmt.Sprintf(
				"%s (%.1f %s) is above the normal range (%.1f-%.1f). Limit saturated fats and processed foods; favor fiber-rich fruits, vegetables, and whole grains.",
				marker, val, rng.unit, rng.low, rng.high))
		default:
			lines = append(lines, fmt.Sprintf("%s (%.1f %s) is within the normal range.", marker, val, rng.unit))
		}
	}
	if len(lines) == 0 {
		return "No recognizable markers found for nutrition analysis."
	}
	return strings.Join(lines, "\n\n")
}
