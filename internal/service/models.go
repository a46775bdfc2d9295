// internal/service/models.go
package service

import "advisory-engine/internal/models"

// FieldRecommendationsResult is the field-flow response payload. PoweredBy
// names the engines that contributed, empty when there is nothing to show.
type FieldRecommendationsResult struct {
	Fields    []models.FieldPrediction `json:"fields"`
	PoweredBy []string                 `json:"powered_by"`
}

// ProgramRecommendationsResult is the program-flow response payload.
type ProgramRecommendationsResult struct {
	FieldName string                        `json:"field_name,omitempty"`
	Programs  []models.RankedRecommendation `json:"programs"`
	PoweredBy []string                      `json:"powered_by"`
}

// CombinedRecommendationsResult is the deprecated all-in-one payload.
type CombinedRecommendationsResult struct {
	Fields    []models.FieldPrediction      `json:"fields"`
	Programs  []models.RankedRecommendation `json:"programs"`
	PoweredBy []string                      `json:"powered_by"`
}

// ComparisonResult is the compare-flow response payload.
type ComparisonResult struct {
	ProgramAID int64  `json:"program_a_id"`
	ProgramBID int64  `json:"program_b_id"`
	Comparison string `json:"comparison"`
	Cached     bool   `json:"cached"`
}

func emptyFieldResult() *FieldRecommendationsResult {
	return &FieldRecommendationsResult{
		Fields:    []models.FieldPrediction{},
		PoweredBy: []string{},
	}
}

func emptyProgramResult(fieldName string) *ProgramRecommendationsResult {
	return &ProgramRecommendationsResult{
		FieldName: fieldName,
		Programs:  []models.RankedRecommendation{},
		PoweredBy: []string{},
	}
}
