// internal/models/recommendation.go
package models

import "time"

// FieldPrediction is one field-of-study probability from the scoring step.
type FieldPrediction struct {
	FieldName   string  `json:"field_name"`
	Probability float64 `json:"probability"`
}

// ScoredProgram pairs a candidate with its ML relevance score.
type ScoredProgram struct {
	Program ProgramCandidate `json:"program"`
	Score   float64          `json:"score"`
}

// RankedRecommendation is the final per-program result handed to the API.
// Rank values are 1-based and contiguous; MatchScore is non-increasing in
// rank order wherever it is defined.
type RankedRecommendation struct {
	ProgramID   int64            `json:"program_id"`
	Program     ProgramCandidate `json:"program"`
	Rank        int              `json:"rank"`
	MatchScore  *float64         `json:"match_score,omitempty"`
	Explanation string           `json:"explanation"`
	Reasons     []string         `json:"reasons"`
}

// Recommendation engines that can contribute to a response.
const (
	EngineML       = "ml-service"
	EngineLLM      = "llm-validation"
	EngineRules    = "rules-engine"
	EngineFallback = "fallback"
)

// Recommendation types persisted to history.
const (
	RecommendationTypeField   = "field"
	RecommendationTypeProgram = "program"
)

// RecommendationRecord is one append-only history row. A session groups
// every row written by a single pipeline run.
type RecommendationRecord struct {
	ID                      int64     `json:"id,omitempty"`
	UserID                  string    `json:"user_id"`
	RecommendationType      string    `json:"recommendation_type"`
	FieldOfInterestID       *int64    `json:"field_of_interest_id,omitempty"`
	FieldName               *string   `json:"field_name,omitempty"`
	ProgramID               *int64    `json:"program_id,omitempty"`
	ProgramName             *string   `json:"program_name,omitempty"`
	MLConfidenceScore       *float64  `json:"ml_confidence_score,omitempty"`
	MLRank                  *int      `json:"ml_rank,omitempty"`
	LLMValidated            bool      `json:"llm_validated"`
	LLMAdjustedScore        *float64  `json:"llm_adjusted_score,omitempty"`
	LLMExplanation          *string   `json:"llm_explanation,omitempty"`
	FinalRank               *int      `json:"final_rank,omitempty"`
	FinalScore              *float64  `json:"final_score,omitempty"`
	PoweredBy               []string  `json:"powered_by"`
	RecommendationSessionID string    `json:"recommendation_session_id"`
	CreatedAt               time.Time `json:"created_at,omitempty"`
}
