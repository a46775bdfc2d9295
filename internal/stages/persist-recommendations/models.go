// internal/stages/persist-recommendations/models.go
package persistrecommendations

import "advisory-engine/internal/models"

type Input struct {
	UserID string `json:"user_id"`
	// Fields are persisted as field-type rows. MLProbabilities and
	// MLFieldRanks hold the raw model output keyed by field name, captured
	// before validation reordered anything.
	Fields          []models.FieldPrediction `json:"fields,omitempty"`
	MLProbabilities map[string]float64       `json:"ml_probabilities,omitempty"`
	MLFieldRanks    map[string]int           `json:"ml_field_ranks,omitempty"`
	// Recommendations are persisted as program-type rows.
	Recommendations []models.RankedRecommendation `json:"recommendations,omitempty"`
	MLScores        map[int64]float64             `json:"ml_scores,omitempty"`
	MLRanks         map[int64]int                 `json:"ml_ranks,omitempty"`
	LLMValidated    bool                          `json:"llm_validated"`
	PoweredBy       []string                      `json:"powered_by"`
}

type Output struct {
	SessionID string `json:"session_id"`
	Saved     int    `json:"saved"`
}
