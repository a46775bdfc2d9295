// internal/stages/validate-fields/handler_test.go
package validatefields

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advisory-engine/internal/clients/llm"
	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/models"
	"advisory-engine/pkg/prompts"
)

// ==========================
// Test Helper Functions
// ==========================

type stubCompleter struct {
	enabled    bool
	completion string
	err        error
	calls      int
}

func (s *stubCompleter) Enabled() bool { return s.enabled }

func (s *stubCompleter) Complete(_ context.Context, _, _ string, _ *llm.Options) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.completion, nil
}

func topFiveFields() []models.FieldPrediction {
	return []models.FieldPrediction{
		{FieldName: "Computer Science & IT", Probability: 0.45},
		{FieldName: "Engineering", Probability: 0.25},
		{FieldName: "Accounting & Business", Probability: 0.15},
		{FieldName: "Psychology", Probability: 0.10},
		{FieldName: "Law", Probability: 0.05},
	}
}

func newHandler(c *stubCompleter, t *testing.T) *Handler {
	return NewHandler(LoadConfig(), c, prompts.Defaults(), logger.NewTestLogger(t))
}

func fieldNames(fields []models.FieldPrediction) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.FieldName)
	}
	return names
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_AdjustsProbabilities(t *testing.T) {
	completer := &stubCompleter{
		enabled: true,
		completion: "```json\n" +
			`{"validated_fields": [
				{"field_name": "engineering", "adjusted_probability": 0.5, "reason": "strong physics"},
				{"field_name": "Computer Science & IT", "adjusted_probability": 0.3, "reason": "ok"},
				{"field_name": "Accounting & Business", "adjusted_probability": 0.1, "reason": "weak"},
				{"field_name": "Psychology", "adjusted_probability": 0.06, "reason": "weak"},
				{"field_name": "Law", "adjusted_probability": 0.04, "reason": "weak"}
			], "confidence_note": "reordered"}` + "\n```",
	}
	handler := newHandler(completer, t)

	output, err := handler.Execute(context.Background(), &Input{
		Fields:         topFiveFields(),
		ProfileSummary: "Study level: SPM",
	})
	require.NoError(t, err)
	assert.True(t, output.Validated)

	require.Len(t, output.Fields, 5)
	// Case-insensitive match resolved back to the catalog spelling.
	assert.Equal(t, "Engineering", output.Fields[0].FieldName)
	assert.Equal(t, 0.5, output.Fields[0].Probability)
}

func TestHandler_Execute_SizeInvariant(t *testing.T) {
	tests := []struct {
		name       string
		completion string
	}{
		{
			name: "model omits two fields",
			completion: `{"validated_fields": [
				{"field_name": "Engineering", "adjusted_probability": 0.6},
				{"field_name": "Law", "adjusted_probability": 0.2},
				{"field_name": "Psychology", "adjusted_probability": 0.1}
			]}`,
		},
		{
			name: "model invents a field",
			completion: `{"validated_fields": [
				{"field_name": "Astrology", "adjusted_probability": 0.9},
				{"field_name": "Engineering", "adjusted_probability": 0.4}
			]}`,
		},
		{
			name: "model duplicates a field",
			completion: `{"validated_fields": [
				{"field_name": "Engineering", "adjusted_probability": 0.6},
				{"field_name": "engineering", "adjusted_probability": 0.3}
			]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &stubCompleter{enabled: true, completion: tt.completion}
			handler := newHandler(completer, t)

			input := topFiveFields()
			output, err := handler.Execute(context.Background(), &Input{Fields: input})
			require.NoError(t, err)

			// Always exactly 5, every name drawn from the input set.
			require.Len(t, output.Fields, 5)
			assert.ElementsMatch(t, fieldNames(input), fieldNames(output.Fields))
		})
	}
}

func TestHandler_Execute_OmittedFieldKeepsOriginalProbability(t *testing.T) {
	completer := &stubCompleter{
		enabled: true,
		completion: `{"validated_fields": [
			{"field_name": "Law", "adjusted_probability": 0.9}
		]}`,
	}
	handler := newHandler(completer, t)

	output, err := handler.Execute(context.Background(), &Input{Fields: topFiveFields()})
	require.NoError(t, err)

	byName := make(map[string]float64)
	for _, f := range output.Fields {
		byName[f.FieldName] = f.Probability
	}
	assert.Equal(t, 0.9, byName["Law"])
	assert.Equal(t, 0.45, byName["Computer Science & IT"])
	assert.Equal(t, 0.25, byName["Engineering"])
}

func TestHandler_Execute_MissingProbabilityKeepsOriginal(t *testing.T) {
	completer := &stubCompleter{
		enabled: true,
		completion: `{"validated_fields": [
			{"field_name": "Engineering", "reason": "fits the grade profile"}
		]}`,
	}
	handler := newHandler(completer, t)

	output, err := handler.Execute(context.Background(), &Input{Fields: topFiveFields()})
	require.NoError(t, err)
	assert.True(t, output.Validated)

	byName := make(map[string]float64)
	for _, f := range output.Fields {
		byName[f.FieldName] = f.Probability
	}
	// An entry without an adjusted probability must not zero the field.
	assert.Equal(t, 0.25, byName["Engineering"])
}

func TestHandler_Execute_SortedDescending(t *testing.T) {
	completer := &stubCompleter{
		enabled: true,
		completion: `{"validated_fields": [
			{"field_name": "Law", "adjusted_probability": 0.8},
			{"field_name": "Psychology", "adjusted_probability": 0.7}
		]}`,
	}
	handler := newHandler(completer, t)

	output, err := handler.Execute(context.Background(), &Input{Fields: topFiveFields()})
	require.NoError(t, err)

	for i := 1; i < len(output.Fields); i++ {
		assert.GreaterOrEqual(t, output.Fields[i-1].Probability, output.Fields[i].Probability)
	}
	assert.Equal(t, "Law", output.Fields[0].FieldName)
}

// ==========================
// Failure Policy Tests
// ==========================

func TestHandler_Execute_FailuresPassInputThrough(t *testing.T) {
	tests := []struct {
		name      string
		completer *stubCompleter
	}{
		{
			name:      "llm disabled",
			completer: &stubCompleter{enabled: false},
		},
		{
			name:      "llm transport error",
			completer: &stubCompleter{enabled: true, err: assert.AnError},
		},
		{
			name:      "unparsable response",
			completer: &stubCompleter{enabled: true, completion: "I think these fields look great!"},
		},
		{
			name:      "empty json object",
			completer: &stubCompleter{enabled: true, completion: "{}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newHandler(tt.completer, t)
			input := topFiveFields()

			output, err := handler.Execute(context.Background(), &Input{Fields: input})
			require.NoError(t, err)
			assert.False(t, output.Validated)
			assert.Equal(t, input, output.Fields)
		})
	}
}

func TestHandler_Execute_EmptyInputSkipsModel(t *testing.T) {
	completer := &stubCompleter{enabled: true, completion: "[]"}
	handler := newHandler(completer, t)

	output, err := handler.Execute(context.Background(), &Input{Fields: nil})
	require.NoError(t, err)
	assert.Empty(t, output.Fields)
	assert.Zero(t, completer.calls)
}
