// Package health provides the value objects and the keyword classifier
// used to turn unstructured community health reports into structured
// analyses that the insight agents can act on.
package health

// Category is a high-level problem category for an identified issue.
type Category string

const (
	CategoryHealthcareAccess     Category = "HEALTHCARE_ACCESS"
	CategoryEnvironmentalRisk    Category = "ENVIRONMENTAL_RISK"
	CategoryDiseaseOutbreak      Category = "DISEASE_OUTBREAK"
	CategoryEmergingCrisis       Category = "EMERGING_CRISIS"
	CategoryGeneralHealthConcern Category = "GENERAL_HEALTH_CONCERN"
)

// HealthEvent links a single identified issue to the locations it affects.
// Locations can be zip codes, neighborhoods, or general areas.
type HealthEvent struct {
	Issue     string   `json:"issue" jsonschema_description:"A single, specific health issue identified from the text, e.g. 'flu outbreak' or 'lack of clinics'."`
	Category  Category `json:"category" jsonschema_description:"The high-level category for this issue."`
	Locations []string `json:"locations" jsonschema_description:"Locations where the issue is occurring: zip codes, neighborhoods, or general areas."`
}

// HealthAnalysis is the collection of health events found in a report.
type HealthAnalysis struct {
	HealthEvents []HealthEvent `json:"health_events" jsonschema_description:"Health events, each linking a specific issue to its affected locations."`
}

// IsEmpty reports whether the analysis found nothing.
func (a HealthAnalysis) IsEmpty() bool {
	return len(a.HealthEvents) == 0
}

// ActionableInsight is the terminal, machine-readable output of the
// insights pipeline.
type ActionableInsight struct {
	Summary           string   `json:"summary" jsonschema_description:"A concise, human-readable summary of the key insights."`
	ProblemType       Category `json:"problem_type" jsonschema_description:"A category for the issue, e.g. 'HEALTHCARE_ACCESS', 'ENVIRONMENTAL_RISK', 'DISEASE_OUTBREAK'."`
	RecommendedAction string   `json:"recommended_action" jsonschema_description:"A concrete next step, e.g. 'Recommend mobile health unit deployment to zip code 90210'."`
}
