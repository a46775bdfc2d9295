// internal/stages/validate-explanations/handler.go
package validateexplanations

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"advisory-engine/internal/clients/llm"
	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/common/metrics"
	"advisory-engine/internal/common/validation"
	"advisory-engine/internal/models"
	"advisory-engine/pkg/prompts"
)

const StageName = "validate-explanations"

type completer interface {
	Enabled() bool
	Complete(ctx context.Context, system, user string, opts *llm.Options) (string, error)
}

type Handler struct {
	config    *Config
	completer completer
	registry  *prompts.Registry
	logger    logger.Logger
}

func NewHandler(config *Config, c completer, registry *prompts.Registry, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		completer: c,
		registry:  registry,
		logger:    log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// Execute attaches explanations to the rule-adjusted recommendations. The
// language model's entries are matched to programs by POSITION in the sent
// order; its returned program IDs are checked only to warn on disagreement.
// On any failure the output is synthesized from the scores alone, one entry
// per input, so this stage never returns an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ranked := input.Ranked
	if len(ranked) > h.config.MaxExplanations {
		ranked = ranked[:h.config.MaxExplanations]
	}
	if len(ranked) == 0 {
		return &Output{Recommendations: []models.RankedRecommendation{}}, nil
	}
	if !h.completer.Enabled() {
		return h.fallback(ranked, input), nil
	}

	system, user, opts, err := h.buildPrompt(ranked, input)
	if err != nil {
		h.logger.Error("explanation template missing", map[string]interface{}{"error": err.Error()})
		return h.fallback(ranked, input), nil
	}

	completion, err := h.completer.Complete(ctx, system, user, opts)
	if err != nil {
		h.logger.Warn("explanation call failed, synthesizing explanations", map[string]interface{}{
			"error": err.Error(),
		})
		metrics.StageFallbacks.WithLabelValues(StageName, "llm_error").Inc()
		return h.fallback(ranked, input), nil
	}

	payload := []byte(llm.ExtractJSON(completion))
	if result, err := validation.ValidateJSON(payload, validation.ValidatedExplanationsSchema); err != nil || !result.Valid {
		h.logger.Warn("explanation response failed schema check, synthesizing explanations", map[string]interface{}{
			"detail": schemaDetail(result),
		})
		metrics.StageFallbacks.WithLabelValues(StageName, "parse_error").Inc()
		return h.fallback(ranked, input), nil
	}

	var entries []explanationEntry
	if err := json.Unmarshal(payload, &entries); err != nil || len(entries) == 0 {
		h.logger.Warn("unparsable explanation response, synthesizing explanations", nil)
		metrics.StageFallbacks.WithLabelValues(StageName, "parse_error").Inc()
		return h.fallback(ranked, input), nil
	}

	if len(entries) > len(ranked) {
		h.logger.Error("model returned more explanations than programs sent, dropping excess", map[string]interface{}{
			"sent":     len(ranked),
			"returned": len(entries),
		})
		entries = entries[:len(ranked)]
	}

	recommendations := make([]models.RankedRecommendation, 0, len(ranked))
	for i, entry := range ranked {
		score := entry.Score
		rec := models.RankedRecommendation{
			ProgramID:  entry.Program.ID,
			Program:    entry.Program,
			Rank:       i + 1,
			MatchScore: &score,
		}

		if i < len(entries) {
			returned := entries[i]
			if returned.ProgramID != 0 && returned.ProgramID != entry.Program.ID {
				h.logger.Warn("explanation id disagrees with position, trusting position", map[string]interface{}{
					"position":   i,
					"sentId":     entry.Program.ID,
					"returnedId": returned.ProgramID,
				})
			}
			rec.Explanation = strings.TrimSpace(returned.Reason)
		}
		if rec.Explanation == "" {
			rec.Explanation = h.confidenceExplanation(entry.Score)
		}
		rec.Reasons = h.generateReasons(entry, input)

		recommendations = append(recommendations, rec)
	}

	return &Output{Recommendations: recommendations, Validated: true}, nil
}

func (h *Handler) buildPrompt(ranked []models.ScoredProgram, input *Input) (string, string, *llm.Options, error) {
	templateID := prompts.TemplateRecommendationReview
	if input.FieldName != "" {
		templateID = prompts.TemplateProgramExplanation
	}
	template, err := h.registry.Get(templateID)
	if err != nil {
		return "", "", nil, err
	}

	vars := map[string]string{
		"student_summary":   input.ProfileSummary,
		"program_summaries": h.summarizePrograms(ranked, input.Budget),
	}
	if input.FieldName != "" {
		vars["field_name"] = input.FieldName
	} else {
		vars["field_context"] = ""
	}

	system, user := template.Render(vars)
	return system, user, &llm.Options{
		Temperature: &template.Temperature,
		MaxTokens:   template.MaxTokens,
	}, nil
}

func (h *Handler) summarizePrograms(ranked []models.ScoredProgram, budget *float64) string {
	lines := make([]string, 0, len(ranked))
	for i, entry := range ranked {
		p := entry.Program
		parts := []string{
			fmt.Sprintf("%d. [ID %d] %s at %s", i+1, p.ID, p.Name, p.University.Name),
			fmt.Sprintf("score: %.2f", entry.Score),
		}
		if p.TuitionFee != nil {
			parts = append(parts, fmt.Sprintf("tuition: RM%.0f", *p.TuitionFee))
		}
		if p.University.State != nil {
			parts = append(parts, "state: "+*p.University.State)
		}
		if p.EmploymentRate != nil {
			parts = append(parts, fmt.Sprintf("employment rate: %.0f%%", *p.EmploymentRate))
		}
		if p.Rating != nil {
			parts = append(parts, fmt.Sprintf("rating: %.1f", *p.Rating))
		}
		lines = append(lines, strings.Join(parts, ", "))
	}
	if budget != nil {
		lines = append(lines, fmt.Sprintf("Student budget: up to RM%.0f per year", *budget))
	}
	return strings.Join(lines, "\n")
}

// fallback synthesizes one recommendation per input in score order, each
// with a confidence-based explanation and generated reasons.
func (h *Handler) fallback(ranked []models.ScoredProgram, input *Input) *Output {
	recommendations := make([]models.RankedRecommendation, 0, len(ranked))
	for i, entry := range ranked {
		score := entry.Score
		recommendations = append(recommendations, models.RankedRecommendation{
			ProgramID:   entry.Program.ID,
			Program:     entry.Program,
			Rank:        i + 1,
			MatchScore:  &score,
			Explanation: h.confidenceExplanation(entry.Score),
			Reasons:     h.generateReasons(entry, input),
		})
	}
	return &Output{Recommendations: recommendations, Validated: false}
}

func (h *Handler) confidenceExplanation(score float64) string {
	return fmt.Sprintf("Recommended with %.0f%% confidence based on your academic profile and preferences.", score*100)
}

// generateReasons derives explainability reasons from the program data
// alone. Never returns an empty list.
func (h *Handler) generateReasons(entry models.ScoredProgram, input *Input) []string {
	p := entry.Program
	var reasons []string

	if fieldName, ok := input.FieldNames[p.FieldID]; ok && fieldName != "" {
		reasons = append(reasons, "Field match: "+fieldName)
	} else if input.FieldName != "" {
		reasons = append(reasons, "Field match: "+input.FieldName)
	}

	if p.Level != nil && levelsAlign(*p.Level, input.StudyLevel) {
		reasons = append(reasons, "Suitable level: "+*p.Level)
	}

	if p.TuitionFee != nil && input.Budget != nil && *p.TuitionFee <= *input.Budget {
		reasons = append(reasons, fmt.Sprintf("Within your budget: RM%.0f", *p.TuitionFee))
	}

	if p.University.State != nil {
		for _, preferred := range input.PreferredStates {
			if strings.EqualFold(strings.TrimSpace(preferred), strings.TrimSpace(*p.University.State)) {
				reasons = append(reasons, "Located in your preferred state: "+*p.University.State)
				break
			}
		}
	}

	if p.EmploymentRate != nil && *p.EmploymentRate >= 80 {
		reasons = append(reasons, fmt.Sprintf("Strong graduate employment rate: %.0f%%", *p.EmploymentRate))
	}
	if p.Rating != nil && *p.Rating >= 4.0 {
		reasons = append(reasons, fmt.Sprintf("Highly rated program: %.1f/5", *p.Rating))
	}
	if p.AverageSalary != nil && *p.AverageSalary >= 3500 {
		reasons = append(reasons, fmt.Sprintf("Good starting salary prospects: RM%.0f", *p.AverageSalary))
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Overall profile match")
	}
	reasons = append(reasons, fmt.Sprintf("ML model confidence: %.0f%%", entry.Score*100))
	return reasons
}

func schemaDetail(result *validation.ValidationResult) string {
	if result == nil {
		return "schema validation unavailable"
	}
	return result.FirstError()
}

// levelsAlign is a loose textual check mirroring the candidate filter.
func levelsAlign(programLevel, studyLevel string) bool {
	if strings.TrimSpace(studyLevel) == "" {
		return false
	}
	return strings.Contains(strings.ToLower(programLevel), strings.ToLower(strings.TrimSpace(studyLevel)))
}
