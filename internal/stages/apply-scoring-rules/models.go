// internal/stages/apply-scoring-rules/models.go
package applyscoringrules

import "advisory-engine/internal/models"

type Input struct {
	Ranked          []models.ScoredProgram `json:"ranked"`
	Budget          *float64               `json:"budget,omitempty"`
	PreferredStates []string               `json:"preferred_states,omitempty"`
}

type Output struct {
	// Ranked holds the rule-adjusted programs re-sorted by score, highest
	// first. Scores stay within [0, 1].
	Ranked []models.ScoredProgram `json:"ranked"`
}
