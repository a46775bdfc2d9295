// internal/stages/rank-programs/models.go
package rankprograms

import "advisory-engine/internal/models"

type Input struct {
	Candidates      []models.ProgramCandidate `json:"candidates"`
	StudyLevel      string                    `json:"study_level"`
	FieldIDs        []int64                   `json:"field_ids"`
	CGPA            *float64                  `json:"cgpa,omitempty"`
	Budget          *float64                  `json:"budget,omitempty"`
	PreferredStates []string                  `json:"preferred_states,omitempty"`
}

type Output struct {
	// Ranked holds candidates in model score order, highest first.
	Ranked []models.ScoredProgram `json:"ranked"`
}
