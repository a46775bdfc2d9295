// internal/store/history.go
package store

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"advisory-engine/internal/common/errors"
	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/models"
)

// HistoryStore appends to and reads the ai_recommendations audit table.
// The table is append-only: rows are never updated or deleted here.
type HistoryStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewHistoryStore(db *sql.DB, log logger.Logger) *HistoryStore {
	return &HistoryStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"store": "history"}),
	}
}

// SaveRecords inserts one pipeline run's rows. Partial failure aborts the
// batch with ErrCodePersistenceFailed; the caller logs and swallows it.
func (s *HistoryStore) SaveRecords(ctx context.Context, records []models.RecommendationRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO ai_recommendations (
			user_id, recommendation_type, field_of_interest_id, field_name,
			program_id, program_name, ml_confidence_score, ml_rank,
			llm_validated, llm_adjusted_score, llm_explanation,
			final_rank, final_score, powered_by, recommendation_session_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	for _, record := range records {
		_, err := s.db.ExecContext(ctx, query,
			record.UserID,
			record.RecommendationType,
			record.FieldOfInterestID,
			record.FieldName,
			record.ProgramID,
			record.ProgramName,
			record.MLConfidenceScore,
			record.MLRank,
			record.LLMValidated,
			record.LLMAdjustedScore,
			record.LLMExplanation,
			record.FinalRank,
			record.FinalScore,
			pq.Array(record.PoweredBy),
			record.RecommendationSessionID,
		)
		if err != nil {
			return errors.NewPersistenceFailedError(err)
		}
	}
	return nil
}

// GetHistory reads past recommendations newest-first. Pass an empty
// recommendationType to read both kinds.
func (s *HistoryStore) GetHistory(ctx context.Context, userID, recommendationType string, limit int) ([]models.RecommendationRecord, error) {
	query := `
		SELECT id, user_id, recommendation_type, field_of_interest_id, field_name,
		       program_id, program_name, ml_confidence_score, ml_rank,
		       llm_validated, llm_adjusted_score, llm_explanation,
		       final_rank, final_score, powered_by, recommendation_session_id, created_at
		FROM ai_recommendations
		WHERE user_id = $1 AND ($2 = '' OR recommendation_type = $2)
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, userID, recommendationType, limit)
	if err != nil {
		return nil, queryError("get_recommendation_history", err)
	}
	defer rows.Close()

	var records []models.RecommendationRecord
	for rows.Next() {
		var (
			record     models.RecommendationRecord
			fieldID    sql.NullInt64
			fieldName  sql.NullString
			programID  sql.NullInt64
			progName   sql.NullString
			mlScore    sql.NullFloat64
			mlRank     sql.NullInt64
			llmScore   sql.NullFloat64
			llmText    sql.NullString
			finalRank  sql.NullInt64
			finalScore sql.NullFloat64
		)

		err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.RecommendationType,
			&fieldID,
			&fieldName,
			&programID,
			&progName,
			&mlScore,
			&mlRank,
			&record.LLMValidated,
			&llmScore,
			&llmText,
			&finalRank,
			&finalScore,
			pq.Array(&record.PoweredBy),
			&record.RecommendationSessionID,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, queryError("get_recommendation_history", err)
		}

		if fieldID.Valid {
			record.FieldOfInterestID = &fieldID.Int64
		}
		if fieldName.Valid {
			record.FieldName = &fieldName.String
		}
		if programID.Valid {
			record.ProgramID = &programID.Int64
		}
		if progName.Valid {
			record.ProgramName = &progName.String
		}
		if mlScore.Valid {
			record.MLConfidenceScore = &mlScore.Float64
		}
		if mlRank.Valid {
			rank := int(mlRank.Int64)
			record.MLRank = &rank
		}
		if llmScore.Valid {
			record.LLMAdjustedScore = &llmScore.Float64
		}
		if llmText.Valid {
			record.LLMExplanation = &llmText.String
		}
		if finalRank.Valid {
			rank := int(finalRank.Int64)
			record.FinalRank = &rank
		}
		if finalScore.Valid {
			record.FinalScore = &finalScore.Float64
		}

		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("get_recommendation_history", err)
	}
	return records, nil
}
