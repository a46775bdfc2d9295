// internal/stages/apply-scoring-rules/handler.go
package applyscoringrules

import (
	"context"
	"sort"
	"strings"

	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/models"
)

const StageName = "apply-scoring-rules"

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// Execute re-scores the model output with deterministic rules, in fixed
// order per program: budget penalty first, then employment, state and
// rating bonuses, then clamp to [0, 1]. The order matters: an over-budget
// program can recover through the bonuses but never past 1.0. Pure.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	adjusted := make([]models.ScoredProgram, len(input.Ranked))
	for i, entry := range input.Ranked {
		score := entry.Score

		score *= h.budgetFactor(entry.Program.TuitionFee, input.Budget)
		score *= h.employmentFactor(entry.Program.EmploymentRate)
		score *= h.stateFactor(entry.Program.University.State, input.PreferredStates)
		score *= h.ratingFactor(entry.Program.Rating)

		if score > 1.0 {
			score = 1.0
		}
		if score < 0 {
			score = 0
		}

		adjusted[i] = models.ScoredProgram{Program: entry.Program, Score: score}
	}

	sort.SliceStable(adjusted, func(i, j int) bool {
		return adjusted[i].Score > adjusted[j].Score
	})

	return &Output{Ranked: adjusted}, nil
}

// budgetFactor penalizes tuition more than 10% over budget, capped at a
// 30% cut, so the factor stays within [0.7, 1.0].
func (h *Handler) budgetFactor(tuition, budget *float64) float64 {
	if tuition == nil || budget == nil || *budget <= 0 {
		return 1.0
	}
	excess := (*tuition - *budget) / *budget
	if excess <= h.config.BudgetGraceFraction {
		return 1.0
	}
	penalty := excess * h.config.PenaltyPerExcessUnit
	if penalty > h.config.MaxBudgetPenalty {
		penalty = h.config.MaxBudgetPenalty
	}
	return 1.0 - penalty
}

func (h *Handler) employmentFactor(rate *float64) float64 {
	if rate == nil {
		return 1.0
	}
	switch {
	case *rate >= h.config.HighEmploymentRate:
		return h.config.HighEmploymentBonus
	case *rate >= h.config.GoodEmploymentRate:
		return h.config.GoodEmploymentBonus
	default:
		return 1.0
	}
}

func (h *Handler) stateFactor(state *string, preferred []string) float64 {
	if state == nil || len(preferred) == 0 {
		return 1.0
	}
	for _, p := range preferred {
		if strings.EqualFold(strings.TrimSpace(p), strings.TrimSpace(*state)) {
			return h.config.StateMatchBonus
		}
	}
	return 1.0
}

func (h *Handler) ratingFactor(rating *float64) float64 {
	if rating == nil {
		return 1.0
	}
	switch {
	case *rating >= h.config.HighRating:
		return h.config.HighRatingBonus
	case *rating >= h.config.GoodRating:
		return h.config.GoodRatingBonus
	default:
		return 1.0
	}
}
