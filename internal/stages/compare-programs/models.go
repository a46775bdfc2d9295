// internal/stages/compare-programs/models.go
package compareprograms

import "advisory-engine/internal/models"

type Input struct {
	ProgramA *models.ProgramCandidate `json:"program_a"`
	ProgramB *models.ProgramCandidate `json:"program_b"`
}

type Output struct {
	Comparison string `json:"comparison"`
	// Cached reports that the text was served from the cache, skipping the
	// language model entirely.
	Cached bool `json:"cached"`
}
