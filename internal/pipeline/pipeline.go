// Package pipeline holds the built-in blood report analysis pipelines: the
// agent roster, the task definitions, and the named modes that select which
// slice of the graph a run executes.
package pipeline

import (
	"fmt"

	"github.com/mcrossley/labcrew/internal/tool"
	"github.com/mcrossley/labcrew/pkg/models"
)

// Mode selects which built-in pipeline a run executes.
type Mode string

const (
	// ModeFull runs verification, medical interpretation, nutrition, and
	// exercise planning.
	ModeFull Mode = "full"
	// ModeVerify runs document verification only.
	ModeVerify Mode = "verify"
	// ModeMedical runs verification followed by medical interpretation.
	ModeMedical Mode = "medical"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFull, ModeVerify, ModeMedical:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown pipeline mode %q", s)
}

// DefaultQuery returns the query used when the caller supplies none.
func DefaultQuery(mode Mode) string {
	switch mode {
	case ModeVerify:
		return "Verify if this document is a valid blood test report and extract key biomarkers."
	case ModeMedical:
		return "Provide medical interpretation of my blood test results."
	default:
		return "Provide a comprehensive analysis of my blood test report including medical interpretation, nutritional recommendations, and exercise planning."
	}
}

// Agents returns the full agent roster. Every mode draws from the same
// roster; unused agents are simply never scheduled.
func Agents() []models.AgentSpec {
	return []models.AgentSpec{
		{
			ID:   "verifier",
			Role: "Report Verifier specialized in validating document accuracy",
			Goal: "Verify that the extracted blood report text is complete, correctly parsed, and free of errors.",
			Backstory: "You are a meticulous and detail-oriented specialist with extensive experience " +
				"in medical documentation. You carefully verify each document's authenticity, extract " +
				"key biomarkers, and check for discrepancies. You prioritize precision over speed.",
			Tools:             []string{tool.DocumentReaderName, tool.WebSearchName},
			MaxIterations:     2,
			MaxCallsPerMinute: 30,
		},
		{
			ID:   "doctor",
			Role: "Senior Medical Doctor with broad clinical experience",
			Goal: "Provide accurate medical interpretation of blood test reports and answer patient queries.",
			Backstory: "You are a senior medical doctor with over 20 years of clinical experience " +
				"across multiple specialties. You interpret blood panels methodically, ground every " +
				"finding in evidence-based medicine, and prioritize patient safety with clear, " +
				"actionable insights.",
			Tools:             []string{tool.DocumentReaderName, tool.WebSearchName},
			MaxIterations:     3,
			MaxCallsPerMinute: 30,
		},
		{
			ID:   "nutritionist",
			Role: "Certified Nutrition Specialist",
			Goal: "Generate personalized nutrition advice based on blood test metrics.",
			Backstory: "You are a certified clinical nutritionist with over 15 years of experience " +
				"translating blood test results into dietary recommendations. You rely on " +
				"peer-reviewed research, avoid unproven trends, and emphasize balanced, sustainable " +
				"diets patients can actually follow.",
			Tools:             []string{tool.DocumentReaderName, tool.NutritionName, tool.WebSearchName},
			MaxIterations:     3,
			MaxCallsPerMinute: 30,
		},
		{
			ID:   "exercise",
			Role: "Licensed Exercise Physiologist",
			Goal: "Create exercise regimens tailored to the patient's blood metrics and health status.",
			Backstory: "You are a licensed exercise physiologist with a decade of experience designing " +
				"safe programs for diverse health profiles. You read cardiovascular and metabolic " +
				"markers before prescribing intensity, and favor gradual progression over aggressive " +
				"plans.",
			Tools:             []string{tool.DocumentReaderName, tool.ExerciseName, tool.WebSearchName},
			MaxIterations:     3,
			MaxCallsPerMinute: 30,
		},
	}
}

// Tasks returns the task graph for a mode. Task order is the declaration
// order used for plan construction.
func Tasks(mode Mode) []models.TaskSpec {
	verification := models.TaskSpec{
		ID:      "verification",
		AgentID: "verifier",
		Description: "Carefully analyze the uploaded document at {document_reference} using the " +
			"read_document tool to verify it is a valid blood test report. Confirm the document is " +
			"a blood test report, extract key biomarkers with their values, and flag any values " +
			"outside normal reference ranges. Only analyze actual blood test data; never fabricate " +
			"information.\n\nUser query: {query}",
		Tools: []string{tool.DocumentReaderName},
		ExpectedOutput: models.OutputSchema{
			Kind: models.SchemaText,
			Description: "A structured verification summary: whether the document is a confirmed " +
				"blood report, the detected biomarkers with values and reference ranges, any " +
				"abnormal values, and a disclaimer about consulting healthcare professionals.",
			MinLength: 40,
		},
	}

	interpretation := models.TaskSpec{
		ID:        "interpretation",
		AgentID:   "doctor",
		DependsOn: []string{"verification"},
		Description: "Based on the verified blood report data from {document_reference}, provide a " +
			"comprehensive medical analysis. Interpret the clinical significance of abnormal " +
			"values, look for patterns that might suggest specific conditions, and research " +
			"current medical literature for context. Clearly distinguish between levels of " +
			"concern.\n\nUser query: {query}",
		Tools: []string{tool.DocumentReaderName, tool.WebSearchName},
		ExpectedOutput: models.OutputSchema{
			Kind: models.SchemaText,
			Description: "A medical interpretation covering each abnormal biomarker, potential " +
				"associated conditions, risk stratification, recommended follow-up, and a strong " +
				"emphasis on professional medical consultation.",
			MinLength: 40,
		},
	}

	nutrition := models.TaskSpec{
		ID:        "nutrition",
		AgentID:   "nutritionist",
		DependsOn: []string{"interpretation"},
		Description: "Based on the blood test results from {document_reference}, provide " +
			"evidence-based nutritional recommendations. Use the nutrition_analysis tool to " +
			"screen the report's markers, identify deficiencies or excesses, and suggest " +
			"practical dietary changes. Recommend supplements only when clinically " +
			"indicated.\n\nUser query: {query}",
		Tools: []string{tool.DocumentReaderName, tool.NutritionName, tool.WebSearchName},
		ExpectedOutput: models.OutputSchema{
			Kind: models.SchemaText,
			Description: "Evidence-based nutritional guidance: identified nutrient issues, dietary " +
				"recommendations with rationale, food sources, and a timeline for re-testing.",
			MinLength: 40,
		},
	}

	exercise := models.TaskSpec{
		ID:        "exercise",
		AgentID:   "exercise",
		DependsOn: []string{"interpretation"},
		Description: "Create safe, personalized exercise recommendations based on the blood test " +
			"findings from {document_reference}. Use the exercise_planning tool to screen the " +
			"report's markers, assess cardiovascular risk, and provide graduated recommendations " +
			"with any contraindications.\n\nUser query: {query}",
		Tools: []string{tool.DocumentReaderName, tool.ExerciseName, tool.WebSearchName},
		ExpectedOutput: models.OutputSchema{
			Kind: models.SchemaText,
			Description: "A personalized exercise plan: readiness assessment, cardiovascular and " +
				"strength recommendations with intensity guidance, monitoring parameters, and " +
				"when to seek medical clearance.",
			MinLength: 40,
		},
	}

	switch mode {
	case ModeVerify:
		return []models.TaskSpec{verification}
	case ModeMedical:
		return []models.TaskSpec{verification, interpretation}
	default:
		return []models.TaskSpec{verification, interpretation, nutrition, exercise}
	}
}
