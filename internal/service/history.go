// internal/service/history.go
package service

import (
	"context"

	"advisory-engine/internal/common/errors"
	"advisory-engine/internal/models"
)

// History reads past recommendations for a user, newest first. An empty
// recommendationType returns both kinds; limit 0 takes the default.
func (s *Service) History(ctx context.Context, userID, recommendationType string, limit int) ([]models.RecommendationRecord, error) {
	if recommendationType != "" &&
		recommendationType != models.RecommendationTypeField &&
		recommendationType != models.RecommendationTypeProgram {
		return nil, errors.NewInvalidInputError("type must be field or program")
	}

	if limit <= 0 {
		limit = s.config.HistoryLimit
	}
	if limit > s.config.HistoryMaxLimit {
		limit = s.config.HistoryMaxLimit
	}

	records, err := s.history.GetHistory(ctx, userID, recommendationType, limit)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.RecommendationRecord{}
	}
	return records, nil
}
