// internal/stages/normalize-probabilities/handler_test.go
package normalizeprobabilities

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/models"
)

func newHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(), logger.NewTestLogger(t))
}

func sumOf(fields []models.FieldPrediction) float64 {
	total := 0.0
	for _, f := range fields {
		total += f.Probability
	}
	return total
}

func TestHandler_Execute_NormalizationInvariant(t *testing.T) {
	tests := []struct {
		name   string
		fields []models.FieldPrediction
	}{
		{
			name: "typical raw probabilities",
			fields: []models.FieldPrediction{
				{FieldName: "A", Probability: 0.45},
				{FieldName: "B", Probability: 0.25},
				{FieldName: "C", Probability: 0.15},
				{FieldName: "D", Probability: 0.10},
				{FieldName: "E", Probability: 0.05},
			},
		},
		{
			name: "raw total far above one",
			fields: []models.FieldPrediction{
				{FieldName: "A", Probability: 0.9},
				{FieldName: "B", Probability: 0.9},
				{FieldName: "C", Probability: 0.9},
				{FieldName: "D", Probability: 0.9},
				{FieldName: "E", Probability: 0.9},
			},
		},
		{
			name: "one dominant field",
			fields: []models.FieldPrediction{
				{FieldName: "A", Probability: 0.99},
				{FieldName: "B", Probability: 0.0},
				{FieldName: "C", Probability: 0.0},
				{FieldName: "D", Probability: 0.0},
				{FieldName: "E", Probability: 0.0},
			},
		},
		{
			name: "all zero distributes equally",
			fields: []models.FieldPrediction{
				{FieldName: "A", Probability: 0},
				{FieldName: "B", Probability: 0},
				{FieldName: "C", Probability: 0},
				{FieldName: "D", Probability: 0},
				{FieldName: "E", Probability: 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newHandler(t)
			output, err := handler.Execute(context.Background(), &Input{Fields: tt.fields})
			require.NoError(t, err)
			require.Len(t, output.Fields, len(tt.fields))

			for _, f := range output.Fields {
				assert.GreaterOrEqual(t, f.Probability, 0.01, "floor violated for %s", f.FieldName)
			}
			assert.InDelta(t, 1.0, sumOf(output.Fields), 0.01)
		})
	}
}

func TestHandler_Execute_ProportionalShares(t *testing.T) {
	handler := newHandler(t)

	output, err := handler.Execute(context.Background(), &Input{Fields: []models.FieldPrediction{
		{FieldName: "A", Probability: 0.6},
		{FieldName: "B", Probability: 0.3},
	}})
	require.NoError(t, err)

	// Two fields: 2% floor total, 98% split 2:1.
	assert.InDelta(t, 0.01+0.98*(0.6/0.9), output.Fields[0].Probability, 1e-9)
	assert.InDelta(t, 0.01+0.98*(0.3/0.9), output.Fields[1].Probability, 1e-9)
}

func TestHandler_Execute_ZeroTotalSplitsEqually(t *testing.T) {
	handler := newHandler(t)

	output, err := handler.Execute(context.Background(), &Input{Fields: []models.FieldPrediction{
		{FieldName: "A", Probability: 0},
		{FieldName: "B", Probability: 0},
		{FieldName: "C", Probability: 0},
		{FieldName: "D", Probability: 0},
	}})
	require.NoError(t, err)

	for _, f := range output.Fields {
		assert.InDelta(t, 0.25, f.Probability, 1e-9)
	}
}

func TestHandler_Execute_EmptyInput(t *testing.T) {
	handler := newHandler(t)

	output, err := handler.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Empty(t, output.Fields)
}

func TestHandler_Execute_OrderPreserved(t *testing.T) {
	handler := newHandler(t)

	fields := []models.FieldPrediction{
		{FieldName: "First", Probability: 0.5},
		{FieldName: "Second", Probability: 0.3},
		{FieldName: "Third", Probability: 0.2},
	}
	output, err := handler.Execute(context.Background(), &Input{Fields: fields})
	require.NoError(t, err)

	assert.Equal(t, "First", output.Fields[0].FieldName)
	assert.Equal(t, "Second", output.Fields[1].FieldName)
	assert.Equal(t, "Third", output.Fields[2].FieldName)
	assert.False(t, math.IsNaN(sumOf(output.Fields)))
}
