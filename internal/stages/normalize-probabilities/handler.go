// internal/stages/normalize-probabilities/handler.go
package normalizeprobabilities

import (
	"context"
	"math"

	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/models"
)

const StageName = "normalize-probabilities"

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

// Execute rescales probabilities so every field keeps at least the floor
// and the whole set sums to 1.0. Each field gets the floor plus a share of
// the remainder proportional to its raw probability; a zero raw total
// splits the remainder equally. Pure, never fails.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	if len(input.Fields) == 0 {
		return &Output{Fields: []models.FieldPrediction{}}, nil
	}

	rawTotal := 0.0
	for _, f := range input.Fields {
		rawTotal += f.Probability
	}

	count := float64(len(input.Fields))
	remainder := 1.0 - h.config.Floor*count

	normalized := make([]models.FieldPrediction, len(input.Fields))
	for i, f := range input.Fields {
		share := remainder / count
		if rawTotal > 0 {
			share = remainder * (f.Probability / rawTotal)
		}
		normalized[i] = models.FieldPrediction{
			FieldName:   f.FieldName,
			Probability: h.config.Floor + share,
		}
	}

	sum := 0.0
	for _, f := range normalized {
		sum += f.Probability
	}
	if deviation := math.Abs(sum - 1.0); deviation > h.config.Tolerance {
		h.logger.Warn("normalized probabilities deviate from 1.0", map[string]interface{}{
			"sum":       sum,
			"deviation": deviation,
		})
	}

	return &Output{Fields: normalized}, nil
}
