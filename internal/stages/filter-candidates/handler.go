// internal/stages/filter-candidates/handler.go
package filtercandidates

import (
	"context"
	"strings"

	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/common/metrics"
	"advisory-engine/internal/models"
)

const StageName = "filter-candidates"

// levelGroups are loose textual equivalence classes for study levels.
// A program whose level matches none of the keywords in the student's
// group is excluded; a program with no recorded level always passes.
var levelGroups = [][]string{
	{"bachelor", "degree", "undergraduate"},
	{"master", "graduate"},
	{"phd", "doctorate", "doctoral"},
}

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

// Execute narrows candidates by study level and budget. The filters are
// advisory: if they would eliminate every candidate, the pre-filter set is
// restored. Location preference is logged but never excludes.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	if len(input.PreferredStates) > 0 {
		h.logger.Debug("location preference noted, not used to exclude", map[string]interface{}{
			"preferredStates": input.PreferredStates,
		})
	}

	filtered := make([]models.ProgramCandidate, 0, len(input.Candidates))
	for _, candidate := range input.Candidates {
		if !h.levelMatches(candidate.Level, input.StudyLevel) {
			continue
		}
		if !h.withinBudget(candidate.TuitionFee, input.Budget) {
			continue
		}
		filtered = append(filtered, candidate)
	}

	if len(filtered) == 0 && len(input.Candidates) > 0 {
		h.logger.Info("filters eliminated every candidate, relaxing", map[string]interface{}{
			"candidates": len(input.Candidates),
		})
		metrics.StageFallbacks.WithLabelValues(StageName, "auto_relax").Inc()
		return &Output{Candidates: input.Candidates, Relaxed: true}, nil
	}

	return &Output{Candidates: filtered}, nil
}

func (h *Handler) levelMatches(programLevel *string, studyLevel string) bool {
	if programLevel == nil || strings.TrimSpace(*programLevel) == "" {
		return true
	}
	studentGroup := levelGroup(studyLevel)
	if studentGroup < 0 {
		return true
	}
	programGroup := levelGroup(*programLevel)
	if programGroup < 0 {
		return true
	}
	return programGroup == studentGroup
}

// levelGroup returns the index of the equivalence class a level string
// falls into, or -1 when it matches no known keyword.
func levelGroup(level string) int {
	lowered := strings.ToLower(level)
	for i, keywords := range levelGroups {
		for _, keyword := range keywords {
			if strings.Contains(lowered, keyword) {
				return i
			}
		}
	}
	return -1
}

func (h *Handler) withinBudget(tuition, budget *float64) bool {
	if tuition == nil || budget == nil {
		return true
	}
	return *tuition <= *budget*h.config.BudgetTolerance
}
