// internal/stages/validate-fields/handler.go
package validatefields

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"advisory-engine/internal/clients/llm"
	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/common/metrics"
	"advisory-engine/internal/common/validation"
	"advisory-engine/internal/models"
	"advisory-engine/pkg/prompts"
)

const StageName = "validate-fields"

// completer is the slice of the LLM client this stage needs.
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

// Execute asks the language model to sanity-check the predicted fields
// against the student's qualitative profile. Every failure mode passes the
// input through unchanged; this stage never returns an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	passthrough := &Output{Fields: input.Fields, Validated: false}
	if len(input.Fields) == 0 || !h.completer.Enabled() {
		return passthrough, nil
	}

	template, err := h.registry.Get(prompts.TemplateFieldValidation)
	if err != nil {
		h.logger.Error("field validation template missing", map[string]interface{}{"error": err.Error()})
		return passthrough, nil
	}

	system, user := template.Render(map[string]string{
		"student_summary": input.ProfileSummary,
		"fields_summary":  summarizeFields(input.Fields),
	})

	completion, err := h.completer.Complete(ctx, system, user, &llm.Options{
		Temperature: &template.Temperature,
		MaxTokens:   template.MaxTokens,
	})
	if err != nil {
		h.logger.Warn("field validation call failed, keeping model probabilities", map[string]interface{}{
			"error": err.Error(),
		})
		metrics.StageFallbacks.WithLabelValues(StageName, "llm_error").Inc()
		return passthrough, nil
	}

	validated, ok := h.parseResponse(completion)
	if !ok {
		metrics.StageFallbacks.WithLabelValues(StageName, "parse_error").Inc()
		return passthrough, nil
	}

	fields := h.reconcile(input.Fields, validated)
	return &Output{Fields: fields, Validated: true}, nil
}

func summarizeFields(fields []models.FieldPrediction) string {
	lines := make([]string, 0, len(fields))
	for i, f := range fields {
		lines = append(lines, fmt.Sprintf("%d. %s (confidence: %.1f%%)", i+1, f.FieldName, f.Probability*100))
	}
	return strings.Join(lines, "\n")
}

func (h *Handler) parseResponse(completion string) ([]validatedField, bool) {
	raw := llm.ExtractJSON(completion)

	var resp validationResponse
	if err := json.Unmarshal([]byte(raw), &resp); err == nil && len(resp.ValidatedFields) > 0 {
		return h.checkShape(resp.ValidatedFields)
	}

	// Some models return the bare array without the wrapper object.
	var bare []validatedField
	if err := json.Unmarshal([]byte(raw), &bare); err == nil && len(bare) > 0 {
		return h.checkShape(bare)
	}

	h.logger.Warn("unparsable field validation response, keeping model probabilities", nil)
	return nil, false
}

func (h *Handler) checkShape(fields []validatedField) ([]validatedField, bool) {
	doc, err := json.Marshal(fields)
	if err != nil {
		return nil, false
	}
	result, err := validation.ValidateJSON(doc, validation.ValidatedFieldsSchema)
	if err != nil {
		return nil, false
	}
	if !result.Valid {
		h.logger.Warn("field validation response failed shape check", map[string]interface{}{
			"detail": result.FirstError(),
		})
		return nil, false
	}
	return fields, true
}

// reconcile maps validated entries back onto the original predictions by
// case-insensitive name. Unknown names are dropped, and any original field
// the model omitted is re-appended with its untouched probability, so the
// output never has fewer fields than the input.
func (h *Handler) reconcile(original []models.FieldPrediction, validated []validatedField) []models.FieldPrediction {
	byName := make(map[string]models.FieldPrediction, len(original))
	for _, f := range original {
		byName[strings.ToLower(f.FieldName)] = f
	}

	adjusted := make([]models.FieldPrediction, 0, len(original))
	seen := make(map[string]bool, len(original))
	for _, v := range validated {
		key := strings.ToLower(strings.TrimSpace(v.FieldName))
		match, known := byName[key]
		if !known {
			h.logger.Warn("validator returned unknown field, dropped", map[string]interface{}{
				"fieldName": v.FieldName,
			})
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		probability := match.Probability
		if v.AdjustedProbability != nil && *v.AdjustedProbability >= 0 && *v.AdjustedProbability <= 1 {
			probability = *v.AdjustedProbability
		}
		adjusted = append(adjusted, models.FieldPrediction{
			FieldName:   match.FieldName,
			Probability: probability,
		})
	}

	for _, f := range original {
		if !seen[strings.ToLower(f.FieldName)] {
			adjusted = append(adjusted, f)
		}
	}

	sort.SliceStable(adjusted, func(i, j int) bool {
		return adjusted[i].Probability > adjusted[j].Probability
	})
	if len(adjusted) > h.config.FieldCount {
		adjusted = adjusted[:h.config.FieldCount]
	}
	return adjusted
}
