// internal/stages/filter-candidates/models.go
package filtercandidates

import "advisory-engine/internal/models"

type Input struct {
	Candidates []models.ProgramCandidate `json:"candidates"`
	StudyLevel string                    `json:"study_level"`
	// Budget is the parsed upper bound in MYR, nil when the student gave none.
	Budget          *float64 `json:"budget,omitempty"`
	PreferredStates []string `json:"preferred_states,omitempty"`
}

type Output struct {
	Candidates []models.ProgramCandidate `json:"candidates"`
	// Relaxed reports that filtering emptied the set and the pre-filter
	// candidates were restored.
	Relaxed bool `json:"relaxed"`
}
