// internal/stages/persist-recommendations/handler.go
package persistrecommendations

import (
	"context"

	"github.com/google/uuid"

	"advisory-engine/internal/common/errors"
	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/models"
)

const StageName = "persist-recommendations"

// historyWriter is the slice of the history store this stage needs.
type historyWriter interface {
	SaveRecords(ctx context.Context, records []models.RecommendationRecord) error
}

// fieldResolver maps field names back to catalog IDs for the saved rows.
type fieldResolver interface {
	GetFieldByName(ctx context.Context, name string) (*models.Field, error)
}

type Handler struct {
	config  *Config
	history historyWriter
	catalog fieldResolver
	logger  logger.Logger
}

func NewHandler(config *Config, history historyWriter, catalog fieldResolver, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		history: history,
		catalog: catalog,
		logger:  log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// Execute writes one session's rows to the history table. Errors are
// returned so the caller can log them, but callers never let a failed save
// block the response; persistence is best-effort by contract.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	sessionID := uuid.New().String()

	fieldRecords, err := h.fieldRecords(ctx, sessionID, input)
	if err != nil {
		return nil, err
	}
	records := append(fieldRecords, h.programRecords(sessionID, input)...)

	if len(records) == 0 {
		return &Output{SessionID: sessionID}, nil
	}

	if err := h.history.SaveRecords(ctx, records); err != nil {
		return nil, err
	}

	h.logger.Info("recommendations persisted", map[string]interface{}{
		"userId":    input.UserID,
		"sessionId": sessionID,
		"rows":      len(records),
	})
	return &Output{SessionID: sessionID, Saved: len(records)}, nil
}

// fieldRecords builds the field rows. A failed field-ID lookup fails the
// whole save; the caller treats that like any other persistence failure.
func (h *Handler) fieldRecords(ctx context.Context, sessionID string, input *Input) ([]models.RecommendationRecord, error) {
	records := make([]models.RecommendationRecord, 0, len(input.Fields))
	for i, f := range input.Fields {
		fieldName := f.FieldName
		rank := i + 1
		finalScore := f.Probability

		record := models.RecommendationRecord{
			UserID:                  input.UserID,
			RecommendationType:      models.RecommendationTypeField,
			FieldName:               &fieldName,
			FinalRank:               &rank,
			FinalScore:              &finalScore,
			LLMValidated:            input.LLMValidated,
			PoweredBy:               input.PoweredBy,
			RecommendationSessionID: sessionID,
		}
		if raw, ok := input.MLProbabilities[f.FieldName]; ok {
			mlScore := raw
			record.MLConfidenceScore = &mlScore
		}
		if mlRank, ok := input.MLFieldRanks[f.FieldName]; ok {
			rankCopy := mlRank
			record.MLRank = &rankCopy
		}
		field, err := h.catalog.GetFieldByName(ctx, f.FieldName)
		if err != nil {
			return nil, errors.NewPersistenceFailedError(err)
		}
		record.FieldOfInterestID = &field.ID
		records = append(records, record)
	}
	return records, nil
}

func (h *Handler) programRecords(sessionID string, input *Input) []models.RecommendationRecord {
	records := make([]models.RecommendationRecord, 0, len(input.Recommendations))
	for _, rec := range input.Recommendations {
		programID := rec.ProgramID
		programName := rec.Program.Name
		fieldID := rec.Program.FieldID
		rank := rec.Rank
		explanation := rec.Explanation

		record := models.RecommendationRecord{
			UserID:                  input.UserID,
			RecommendationType:      models.RecommendationTypeProgram,
			ProgramID:               &programID,
			ProgramName:             &programName,
			FieldOfInterestID:       &fieldID,
			FinalRank:               &rank,
			FinalScore:              rec.MatchScore,
			LLMValidated:            input.LLMValidated,
			LLMExplanation:          &explanation,
			PoweredBy:               input.PoweredBy,
			RecommendationSessionID: sessionID,
		}
		if input.LLMValidated {
			record.LLMAdjustedScore = rec.MatchScore
		}
		if score, ok := input.MLScores[rec.ProgramID]; ok {
			mlScore := score
			record.MLConfidenceScore = &mlScore
		}
		if mlRank, ok := input.MLRanks[rec.ProgramID]; ok {
			rankCopy := mlRank
			record.MLRank = &rankCopy
		}
		records = append(records, record)
	}
	return records
}
