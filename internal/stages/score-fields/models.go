// internal/stages/score-fields/models.go
package scorefields

import "advisory-engine/internal/models"

type Input struct {
	Profile *models.StudentProfile `json:"profile"`
}

type Output struct {
	Fields []models.FieldPrediction `json:"fields"`
}
