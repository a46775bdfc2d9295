package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Schemas for the semi-structured payloads coming back from the ML and LLM
// services. Upstream output is never trusted shape-wise; every parse goes
// through one of these before the pipeline consumes it.

const FieldPredictionResponseSchema = `{
	"type": "object",
	"required": ["fields"],
	"properties": {
		"fields": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["field_name", "probability"],
				"properties": {
					"field_name": {"type": "string", "minLength": 1},
					"probability": {"type": "number", "minimum": 0, "maximum": 1}
				}
			}
		}
	}
}`

const ProgramRecommendationResponseSchema = `{
	"type": "object",
	"required": ["recommendations"],
	"properties": {
		"recommendations": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["program_id", "score"],
				"properties": {
					"program_id": {"type": "integer"},
					"score": {"type": "number", "minimum": 0, "maximum": 1}
				}
			}
		}
	}
}`

const ValidatedFieldsSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["field_name"],
		"properties": {
			"field_name": {"type": "string", "minLength": 1},
			"adjusted_probability": {"type": "number", "minimum": 0, "maximum": 1},
			"reason": {"type": "string"}
		}
	}
}`

const ValidatedExplanationsSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["reason"],
		"properties": {
			"program_id": {"type": "integer"},
			"reason": {"type": "string", "minLength": 1}
		}
	}
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateJSON checks a raw JSON document against a schema definition.
func ValidateJSON(document []byte, schema string) (*ValidationResult, error) {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	docLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}

	vr := &ValidationResult{Valid: result.Valid()}
	for _, resultErr := range result.Errors() {
		vr.Errors = append(vr.Errors, ValidationError{
			Field:   resultErr.Field(),
			Message: resultErr.Description(),
		})
	}
	return vr, nil
}

// FirstError renders the first validation failure for log output.
func (r *ValidationResult) FirstError() string {
	if r.Valid || len(r.Errors) == 0 {
		return ""
	}
	return fmt.Sprintf("%s: %s", r.Errors[0].Field, r.Errors[0].Message)
}
