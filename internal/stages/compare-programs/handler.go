// internal/stages/compare-programs/handler.go
package compareprograms

import (
	"context"
	"fmt"
	"strings"

	"advisory-engine/internal/cache"
	"advisory-engine/internal/clients/llm"
	"advisory-engine/internal/common/errors"
	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/models"
	"advisory-engine/pkg/prompts"
)

const StageName = "compare-programs"

type completer interface {
	Enabled() bool
	Complete(ctx context.Context, system, user string, opts *llm.Options) (string, error)
}

type Handler struct {
	config    *Config
	completer completer
	store     cache.Store
	registry  *prompts.Registry
	logger    logger.Logger
}

func NewHandler(config *Config, c completer, store cache.Store, registry *prompts.Registry, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		completer: c,
		store:     store,
		registry:  registry,
		logger:    log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// Execute produces a plain-text comparison of two programs, cached for an
// hour per program pair. Unlike the pipeline stages there is no fallback
// text here: without a working language model the feature is unavailable.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ProgramA == nil || input.ProgramB == nil {
		return nil, errors.NewInvalidInputError("two programs are required for a comparison")
	}

	key := fmt.Sprintf("compare:%d-%d", input.ProgramA.ID, input.ProgramB.ID)
	if cached, err := h.store.Get(ctx, key); err == nil {
		h.logger.Debug("comparison served from cache", map[string]interface{}{"key": key})
		return &Output{Comparison: cached, Cached: true}, nil
	} else if err != cache.ErrMiss {
		h.logger.Warn("comparison cache read failed", map[string]interface{}{"error": err.Error()})
	}

	if !h.completer.Enabled() {
		return nil, errors.NewComparisonGenerationFailedError(fmt.Errorf("llm client not configured"))
	}

	template, err := h.registry.Get(prompts.TemplateProgramComparison)
	if err != nil {
		return nil, errors.NewComparisonGenerationFailedError(err)
	}

	system, user := template.Render(map[string]string{
		"program_a": summarizeProgram(input.ProgramA),
		"program_b": summarizeProgram(input.ProgramB),
	})

	comparison, err := h.completer.Complete(ctx, system, user, &llm.Options{
		Temperature: &template.Temperature,
		MaxTokens:   template.MaxTokens,
	})
	if err != nil {
		return nil, errors.NewComparisonGenerationFailedError(err)
	}
	comparison = strings.TrimSpace(comparison)
	if comparison == "" {
		return nil, errors.NewComparisonGenerationFailedError(fmt.Errorf("empty completion"))
	}

	if err := h.store.Set(ctx, key, comparison, h.config.CacheTTL); err != nil {
		h.logger.Warn("comparison cache write failed", map[string]interface{}{"error": err.Error()})
	}

	return &Output{Comparison: comparison}, nil
}

func summarizeProgram(p *models.ProgramCandidate) string {
	lines := []string{
		"Name: " + p.Name,
		"University: " + p.University.Name,
	}
	if p.University.State != nil {
		lines = append(lines, "State: "+*p.University.State)
	}
	if p.Level != nil {
		lines = append(lines, "Level: "+*p.Level)
	}
	if p.TuitionFee != nil {
		lines = append(lines, fmt.Sprintf("Tuition: RM%.0f", *p.TuitionFee))
	}
	if p.Duration != nil {
		lines = append(lines, "Duration: "+*p.Duration)
	}
	if p.EmploymentRate != nil {
		lines = append(lines, fmt.Sprintf("Graduate employment rate: %.0f%%", *p.EmploymentRate))
	}
	if p.Rating != nil {
		lines = append(lines, fmt.Sprintf("Rating: %.1f/5", *p.Rating))
	}
	if p.AverageSalary != nil {
		lines = append(lines, fmt.Sprintf("Average starting salary: RM%.0f", *p.AverageSalary))
	}
	return strings.Join(lines, "\n")
}
