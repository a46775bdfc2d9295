// internal/stages/rank-programs/handler.go
package rankprograms

import (
	"context"

	"advisory-engine/internal/clients/mlservice"
	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/models"
)

const StageName = "rank-programs"

// programRanker is the slice of the ML client this stage needs.
type programRanker interface {
	RecommendPrograms(ctx context.Context, req *mlservice.RecommendationRequest) (*mlservice.RecommendationResponse, error)
}

type Handler struct {
	config *Config
	ranker programRanker
	logger logger.Logger
}

func NewHandler(config *Config, ranker programRanker, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		ranker: ranker,
		logger: log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// Execute sends the candidates to the ranking model and returns them in
// score order. Returned program IDs not present in the request are dropped.
// Transport failures propagate; the caller decides whether to degrade via
// FallbackRanking or fail the request.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if len(input.Candidates) == 0 {
		return &Output{Ranked: []models.ScoredProgram{}}, nil
	}

	req := h.buildRequest(input)
	resp, err := h.ranker.RecommendPrograms(ctx, req)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]models.ProgramCandidate, len(input.Candidates))
	for _, candidate := range input.Candidates {
		byID[candidate.ID] = candidate
	}

	ranked := make([]models.ScoredProgram, 0, len(resp.Recommendations))
	for _, rec := range resp.Recommendations {
		candidate, sent := byID[rec.ProgramID]
		if !sent {
			h.logger.Warn("ranker returned unknown program id, dropped", map[string]interface{}{
				"programId": rec.ProgramID,
			})
			continue
		}
		ranked = append(ranked, models.ScoredProgram{
			Program: candidate,
			Score:   rec.Score,
		})
	}

	h.logger.Info("programs ranked", map[string]interface{}{
		"sent":   len(input.Candidates),
		"ranked": len(ranked),
	})

	return &Output{Ranked: ranked}, nil
}

// FallbackRanking keeps the first few candidates in catalog order with a
// neutral score. Used by the by-field flow when the ranking model is down.
func (h *Handler) FallbackRanking(input *Input) *Output {
	limit := h.config.FallbackCandidates
	if limit <= 0 || limit > len(input.Candidates) {
		limit = len(input.Candidates)
	}
	ranked := make([]models.ScoredProgram, 0, limit)
	for _, candidate := range input.Candidates[:limit] {
		ranked = append(ranked, models.ScoredProgram{Program: candidate, Score: 0.5})
	}
	return &Output{Ranked: ranked}
}

func (h *Handler) buildRequest(input *Input) *mlservice.RecommendationRequest {
	programs := make([]mlservice.ProgramInput, 0, len(input.Candidates))
	for _, candidate := range input.Candidates {
		level := ""
		if candidate.Level != nil {
			level = *candidate.Level
		}
		programs = append(programs, mlservice.ProgramInput{
			ProgramID:      candidate.ID,
			UniversityID:   candidate.University.ID,
			FieldID:        candidate.FieldID,
			TuitionFee:     candidate.TuitionFee,
			DurationMonths: candidate.DurationMonths(),
			Level:          level,
		})
	}

	return &mlservice.RecommendationRequest{
		StudentProfile: mlservice.StudentProfile{
			StudyLevel:      input.StudyLevel,
			FieldIDs:        input.FieldIDs,
			CGPA:            input.CGPA,
			Budget:          input.Budget,
			PreferredStates: input.PreferredStates,
		},
		Programs: programs,
	}
}
