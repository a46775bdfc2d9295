// internal/stages/validate-explanations/models.go
package validateexplanations

import "advisory-engine/internal/models"

type Input struct {
	Ranked         []models.ScoredProgram `json:"ranked"`
	ProfileSummary string                 `json:"profile_summary"`
	// FieldName selects the by-field explanation prompt when set; when
	// empty the cross-field review prompt is used instead.
	FieldName string `json:"field_name,omitempty"`
	// FieldNames resolves each program's field ID for reason generation.
	FieldNames      map[int64]string `json:"field_names,omitempty"`
	StudyLevel      string           `json:"study_level"`
	Budget          *float64         `json:"budget,omitempty"`
	PreferredStates []string         `json:"preferred_states,omitempty"`
}

type Output struct {
	Recommendations []models.RankedRecommendation `json:"recommendations"`
	// Validated reports whether the explanations came from the language
	// model or the deterministic fallback.
	Validated bool `json:"validated"`
}

// explanationEntry is one element of the language model's JSON array.
type explanationEntry struct {
	ProgramID int64  `json:"program_id"`
	Reason    string `json:"reason"`
}
