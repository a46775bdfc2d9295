// internal/stages/normalize-probabilities/models.go
package normalizeprobabilities

import "advisory-engine/internal/models"

type Input struct {
	Fields []models.FieldPrediction `json:"fields"`
}

type Output struct {
	Fields []models.FieldPrediction `json:"fields"`
}
