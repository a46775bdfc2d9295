// internal/store/profiles.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"advisory-engine/internal/cache"
	"advisory-engine/internal/common/errors"
	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/models"
)

// ProfileStore reads student profiles and preferences. Profiles get a
// Redis read-through cache; preferences are cheap enough to read directly.
type ProfileStore struct {
	db     *sql.DB
	cache  cache.Store
	ttl    time.Duration
	logger logger.Logger
}

func NewProfileStore(db *sql.DB, cacheStore cache.Store, ttl time.Duration, log logger.Logger) *ProfileStore {
	return &ProfileStore{
		db:     db,
		cache:  cacheStore,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"store": "profiles"}),
	}
}

func profileCacheKey(userID string) string {
	return "student:profile:" + userID
}

// GetProfile loads a student's profile. Returns ErrCodeProfileNotFound when
// no row exists; the caller short-circuits to an empty result, not an error.
func (s *ProfileStore) GetProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, profileCacheKey(userID)); err == nil {
			var profile models.StudentProfile
			if err := json.Unmarshal([]byte(cached), &profile); err == nil {
				return &profile, nil
			}
			// Corrupt entry: fall through to the database read.
			_ = s.cache.Delete(ctx, profileCacheKey(userID))
		}
	}

	query := `
		SELECT user_id, study_level, extracurricular,
		       COALESCE(grades, '{}'), COALESCE(interests, '{}'), COALESCE(skills, '{}')
		FROM student_profile
		WHERE user_id = $1`

	var (
		profile       models.StudentProfile
		gradesJSON    []byte
		interestsJSON []byte
		skillsJSON    []byte
	)

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.StudyLevel,
		&profile.Extracurricular,
		&gradesJSON,
		&interestsJSON,
		&skillsJSON,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewProfileNotFoundError(userID)
	}
	if err != nil {
		return nil, queryError("get_student_profile", err)
	}

	if err := json.Unmarshal(gradesJSON, &profile.Grades); err != nil {
		return nil, queryError("get_student_profile", err)
	}
	if err := json.Unmarshal(interestsJSON, &profile.Interests); err != nil {
		return nil, queryError("get_student_profile", err)
	}
	if err := json.Unmarshal(skillsJSON, &profile.Skills); err != nil {
		return nil, queryError("get_student_profile", err)
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(&profile); err == nil {
			if err := s.cache.Set(ctx, profileCacheKey(userID), string(encoded), s.ttl); err != nil {
				s.logger.Warn("profile cache write failed", map[string]interface{}{
					"user_id": userID,
					"error":   err.Error(),
				})
			}
		}
	}

	return &profile, nil
}

// GetPreferences loads stated preferences. A missing row returns nil with
// no error; preferences are optional everywhere they are read.
func (s *ProfileStore) GetPreferences(ctx context.Context, userID string) (*models.Preferences, error) {
	query := `
		SELECT user_id, COALESCE(budget_range, ''), COALESCE(preferred_locations, ''),
		       COALESCE(preferred_country, ''), COALESCE(study_mode, '')
		FROM user_preferences
		WHERE user_id = $1`

	var prefs models.Preferences
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&prefs.UserID,
		&prefs.BudgetRange,
		&prefs.PreferredLocations,
		&prefs.PreferredCountry,
		&prefs.StudyMode,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("get_user_preferences", err)
	}
	return &prefs, nil
}
