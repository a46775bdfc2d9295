// internal/stages/validate-fields/models.go
package validatefields

import "advisory-engine/internal/models"

type Input struct {
	Fields         []models.FieldPrediction `json:"fields"`
	ProfileSummary string                   `json:"profile_summary"`
}

type Output struct {
	Fields []models.FieldPrediction `json:"fields"`
	// Validated reports whether the adjusted probabilities came from the
	// language model or the input passed through unchanged.
	Validated bool `json:"validated"`
}

// validatedField is one entry of the language model's JSON response. The
// probability is a pointer so an omitted value stays distinguishable from 0.
type validatedField struct {
	FieldName           string   `json:"field_name"`
	AdjustedProbability *float64 `json:"adjusted_probability,omitempty"`
	Reason              string   `json:"reason"`
}

type validationResponse struct {
	ValidatedFields []validatedField `json:"validated_fields"`
	ConfidenceNote  string           `json:"confidence_note"`
}
