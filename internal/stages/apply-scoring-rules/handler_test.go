// internal/stages/apply-scoring-rules/handler_test.go
package applyscoringrules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func scored(id int64, score float64, mutate func(*models.ProgramCandidate)) models.ScoredProgram {
	p := models.ProgramCandidate{ID: id, Name: "Program"}
	if mutate != nil {
		mutate(&p)
	}
	return models.ScoredProgram{Program: p, Score: score}
}

func newHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(), logger.NewTestLogger(t))
}

func execute(t *testing.T, input *Input) *Output {
	output, err := newHandler(t).Execute(context.Background(), input)
	require.NoError(t, err)
	return output
}

// ==========================
// Budget Penalty Tests
// ==========================

func TestHandler_Execute_BudgetPenalty(t *testing.T) {
	tests := []struct {
		name      string
		tuition   float64
		budget    float64
		baseScore float64
		wantScore float64
	}{
		{
			name:    "within grace band untouched",
			tuition: 10500, budget: 10000, baseScore: 0.8, wantScore: 0.8,
		},
		{
			name:    "twenty percent over",
			tuition: 12000, budget: 10000, baseScore: 0.8,
			wantScore: 0.8 * (1 - 0.2*0.3),
		},
		{
			name:    "penalty capped at thirty percent",
			tuition: 50000, budget: 10000, baseScore: 0.8,
			wantScore: 0.8 * 0.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := &Input{
				Ranked: []models.ScoredProgram{
					scored(1, tt.baseScore, func(p *models.ProgramCandidate) {
						p.TuitionFee = floatPtr(tt.tuition)
					}),
				},
				Budget: floatPtr(tt.budget),
			}
			output := execute(t, input)
			assert.InDelta(t, tt.wantScore, output.Ranked[0].Score, 1e-9)
		})
	}
}

func TestHandler_Execute_PenaltyFactorBounded(t *testing.T) {
	// For any over-budget program the multiplier stays within [0.7, 1.0].
	budgets := []float64{1000, 5000, 20000, 100000}
	tuitions := []float64{1001, 6000, 50000, 10000000}

	handler := newHandler(t)
	for _, budget := range budgets {
		for _, tuition := range tuitions {
			if tuition <= budget {
				continue
			}
			factor := handler.budgetFactor(floatPtr(tuition), floatPtr(budget))
			assert.GreaterOrEqual(t, factor, 0.7)
			assert.LessOrEqual(t, factor, 1.0)
		}
	}
}

// ==========================
// Bonus Tests
// ==========================

func TestHandler_Execute_Bonuses(t *testing.T) {
	tests := []struct {
		name           string
		input          *Input
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name: "high employment rate",
			input: &Input{Ranked: []models.ScoredProgram{
				scored(1, 0.5, func(p *models.ProgramCandidate) { p.EmploymentRate = floatPtr(92) }),
			}},
			validateOutput: func(t *testing.T, output *Output) {
				assert.InDelta(t, 0.55, output.Ranked[0].Score, 1e-9)
			},
		},
		{
			name: "good employment rate",
			input: &Input{Ranked: []models.ScoredProgram{
				scored(1, 0.5, func(p *models.ProgramCandidate) { p.EmploymentRate = floatPtr(85) }),
			}},
			validateOutput: func(t *testing.T, output *Output) {
				assert.InDelta(t, 0.525, output.Ranked[0].Score, 1e-9)
			},
		},
		{
			name: "state match is case-insensitive",
			input: &Input{
				Ranked: []models.ScoredProgram{
					scored(1, 0.5, func(p *models.ProgramCandidate) {
						p.University.State = strPtr("Selangor")
					}),
				},
				PreferredStates: []string{"selangor"},
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.InDelta(t, 0.54, output.Ranked[0].Score, 1e-9)
			},
		},
		{
			name: "high rating",
			input: &Input{Ranked: []models.ScoredProgram{
				scored(1, 0.5, func(p *models.ProgramCandidate) { p.Rating = floatPtr(4.6) }),
			}},
			validateOutput: func(t *testing.T, output *Output) {
				assert.InDelta(t, 0.525, output.Ranked[0].Score, 1e-9)
			},
		},
		{
			name: "good rating",
			input: &Input{Ranked: []models.ScoredProgram{
				scored(1, 0.5, func(p *models.ProgramCandidate) { p.Rating = floatPtr(4.2) }),
			}},
			validateOutput: func(t *testing.T, output *Output) {
				assert.InDelta(t, 0.51, output.Ranked[0].Score, 1e-9)
			},
		},
		{
			name: "missing attributes leave score untouched",
			input: &Input{Ranked: []models.ScoredProgram{
				scored(1, 0.5, nil),
			}},
			validateOutput: func(t *testing.T, output *Output) {
				assert.InDelta(t, 0.5, output.Ranked[0].Score, 1e-9)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validateOutput(t, execute(t, tt.input))
		})
	}
}

func TestHandler_Execute_ClampAndResort(t *testing.T) {
	input := &Input{
		Ranked: []models.ScoredProgram{
			// Leads on raw score but takes the full budget penalty.
			scored(1, 0.95, func(p *models.ProgramCandidate) {
				p.TuitionFee = floatPtr(100000)
			}),
			// Recovers past the first program through stacked bonuses.
			scored(2, 0.90, func(p *models.ProgramCandidate) {
				p.EmploymentRate = floatPtr(95)
				p.Rating = floatPtr(4.8)
				p.University.State = strPtr("Penang")
			}),
		},
		Budget:          floatPtr(10000),
		PreferredStates: []string{"Penang"},
	}

	output := execute(t, input)
	require.Len(t, output.Ranked, 2)

	// Program 2: 0.90 * 1.10 * 1.08 * 1.05 > 1 clamps to 1.0 and wins.
	assert.Equal(t, int64(2), output.Ranked[0].Program.ID)
	assert.Equal(t, 1.0, output.Ranked[0].Score)
	assert.Equal(t, int64(1), output.Ranked[1].Program.ID)
	assert.InDelta(t, 0.95*0.7, output.Ranked[1].Score, 1e-9)

	for _, entry := range output.Ranked {
		assert.GreaterOrEqual(t, entry.Score, 0.0)
		assert.LessOrEqual(t, entry.Score, 1.0)
	}
}

func TestHandler_Execute_BudgetPenaltyAppliedBeforeBonuses(t *testing.T) {
	// Order is observable through the clamp: penalty-then-bonus keeps the
	// result under what bonus-then-clamp-then-penalty would give.
	input := &Input{
		Ranked: []models.ScoredProgram{
			scored(1, 1.0, func(p *models.ProgramCandidate) {
				p.TuitionFee = floatPtr(100000)
				p.EmploymentRate = floatPtr(95)
			}),
		},
		Budget: floatPtr(10000),
	}
	output := execute(t, input)
	assert.InDelta(t, 1.0*0.7*1.10, output.Ranked[0].Score, 1e-9)
}
