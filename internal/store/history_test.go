// internal/store/history_test.go
package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advisory-engine/internal/common/errors"
	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func newHistoryStore(t *testing.T) (*HistoryStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewHistoryStore(db, logger.NewTestLogger(t)), mock
}

func int64Ptr(v int64) *int64       { return &v }
func intPtr(v int) *int             { return &v }
func float64Ptr(v float64) *float64 { return &v }
func stringPtr(v string) *string    { return &v }

var historyColumns = []string{
	"id", "user_id", "recommendation_type", "field_of_interest_id", "field_name",
	"program_id", "program_name", "ml_confidence_score", "ml_rank",
	"llm_validated", "llm_adjusted_score", "llm_explanation",
	"final_rank", "final_score", "powered_by", "recommendation_session_id", "created_at",
}

// ==========================
// SaveRecords Tests
// ==========================

func TestHistoryStore_SaveRecords_InsertArguments(t *testing.T) {
	store, mock := newHistoryStore(t)

	record := models.RecommendationRecord{
		UserID:                  "user-1",
		RecommendationType:      models.RecommendationTypeProgram,
		ProgramID:               int64Ptr(11),
		ProgramName:             stringPtr("Mechanical Engineering"),
		MLConfidenceScore:       float64Ptr(0.82),
		MLRank:                  intPtr(1),
		LLMValidated:            true,
		LLMAdjustedScore:        float64Ptr(0.85),
		LLMExplanation:          stringPtr("Strong match"),
		FinalRank:               intPtr(1),
		FinalScore:              float64Ptr(0.85),
		PoweredBy:               []string{"ml-service", "llm-validation"},
		RecommendationSessionID: "session-1",
	}

	mock.ExpectExec(`INSERT INTO ai_recommendations`).
		WithArgs(
			"user-1", models.RecommendationTypeProgram, nil, nil,
			int64Ptr(11), stringPtr("Mechanical Engineering"), float64Ptr(0.82), intPtr(1),
			true, float64Ptr(0.85), stringPtr("Strong match"),
			intPtr(1), float64Ptr(0.85),
			pq.Array([]string{"ml-service", "llm-validation"}), "session-1",
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.SaveRecords(context.Background(), []models.RecommendationRecord{record})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryStore_SaveRecords_EmptyBatchIsNoop(t *testing.T) {
	store, mock := newHistoryStore(t)

	err := store.SaveRecords(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryStore_SaveRecords_FailureAbortsBatch(t *testing.T) {
	store, mock := newHistoryStore(t)

	mock.ExpectExec(`INSERT INTO ai_recommendations`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO ai_recommendations`).WillReturnError(assert.AnError)

	records := []models.RecommendationRecord{
		{UserID: "user-1", RecommendationType: models.RecommendationTypeField, RecommendationSessionID: "s"},
		{UserID: "user-1", RecommendationType: models.RecommendationTypeField, RecommendationSessionID: "s"},
		{UserID: "user-1", RecommendationType: models.RecommendationTypeField, RecommendationSessionID: "s"},
	}
	err := store.SaveRecords(context.Background(), records)
	require.Error(t, err)
	assertErrorCode(t, err, errors.ErrCodePersistenceFailed)
	// The third row was never attempted.
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// GetHistory Tests
// ==========================

func TestHistoryStore_GetHistory_RowMapping(t *testing.T) {
	store, mock := newHistoryStore(t)

	createdAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(historyColumns).
		AddRow(
			int64(2), "user-1", models.RecommendationTypeProgram, nil, nil,
			int64(11), "Mechanical Engineering", 0.82, int64(1),
			true, 0.85, "Strong match",
			int64(1), 0.85, pq.Array([]string{"ml-service", "llm-validation"}), "session-1", createdAt,
		).
		AddRow(
			int64(1), "user-1", models.RecommendationTypeField, int64(3), "Engineering",
			nil, nil, 0.6, nil,
			false, nil, nil,
			nil, nil, pq.Array([]string{"ml-service", "fallback"}), "session-1", createdAt.Add(-time.Hour),
		)
	mock.ExpectQuery(`FROM ai_recommendations`).
		WithArgs("user-1", "", 50).
		WillReturnRows(rows)

	records, err := store.GetHistory(context.Background(), "user-1", "", 50)
	require.NoError(t, err)
	require.Len(t, records, 2)

	program := records[0]
	assert.Equal(t, models.RecommendationTypeProgram, program.RecommendationType)
	require.NotNil(t, program.ProgramID)
	assert.Equal(t, int64(11), *program.ProgramID)
	require.NotNil(t, program.MLRank)
	assert.Equal(t, 1, *program.MLRank)
	assert.True(t, program.LLMValidated)
	require.NotNil(t, program.LLMExplanation)
	assert.Equal(t, []string{"ml-service", "llm-validation"}, program.PoweredBy)
	assert.Nil(t, program.FieldOfInterestID)

	field := records[1]
	assert.Equal(t, models.RecommendationTypeField, field.RecommendationType)
	require.NotNil(t, field.FieldOfInterestID)
	assert.Equal(t, int64(3), *field.FieldOfInterestID)
	assert.Nil(t, field.ProgramID)
	assert.Nil(t, field.MLRank)
	assert.Equal(t, []string{"ml-service", "fallback"}, field.PoweredBy)
}

func TestHistoryStore_GetHistory_TypeFilterAndLimitArePassedThrough(t *testing.T) {
	store, mock := newHistoryStore(t)

	mock.ExpectQuery(`FROM ai_recommendations`).
		WithArgs("user-1", models.RecommendationTypeField, 10).
		WillReturnRows(sqlmock.NewRows(historyColumns))

	records, err := store.GetHistory(context.Background(), "user-1", models.RecommendationTypeField, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryStore_GetHistory_QueryFailure(t *testing.T) {
	store, mock := newHistoryStore(t)

	mock.ExpectQuery(`FROM ai_recommendations`).WillReturnError(assert.AnError)

	_, err := store.GetHistory(context.Background(), "user-1", "", 50)
	require.Error(t, err)
	assertErrorCode(t, err, errors.ErrCodeQueryExecutionFailed)
}
