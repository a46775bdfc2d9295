// internal/service/profile_context.go
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"advisory-engine/internal/common/errors"
	"advisory-engine/internal/models"
)

// profileContext bundles the per-request profile reads with the derived
// values every stage keeps asking for.
type profileContext struct {
	profile *models.StudentProfile
	prefs   *models.Preferences
	// studyLevel is the target program level derived from the stored
	// qualification, not the raw SPM/STPM value.
	studyLevel string
	budget     *float64
	states     []string
	summary    string
}

func (s *Service) loadProfile(ctx context.Context, userID string) (*profileContext, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	prefs, err := s.profiles.GetPreferences(ctx, userID)
	if err != nil {
		s.logger.Warn("preferences read failed, continuing without", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		prefs = nil
	}

	pc := &profileContext{profile: profile, prefs: prefs, studyLevel: profile.TargetLevel()}
	if prefs != nil {
		pc.budget = models.ParseBudgetUpperBound(prefs.BudgetRange)
		pc.states = prefs.PreferredStates()
	}
	pc.summary = summarizeProfile(profile, prefs)
	return pc, nil
}

// hasCode reports whether err is a StandardError carrying the given code.
func hasCode(err error, code errors.ErrorCode) bool {
	stdErr, ok := err.(*errors.StandardError)
	return ok && stdErr.Code == code
}

// summarizeProfile renders the profile as prompt-friendly plain text.
func summarizeProfile(profile *models.StudentProfile, prefs *models.Preferences) string {
	var lines []string

	lines = append(lines, "Study level: "+profile.StudyLevel)
	if cgpa := profile.CGPA(); cgpa != nil {
		lines = append(lines, fmt.Sprintf("Derived CGPA: %.2f", *cgpa))
	}
	if grades := takenGrades(profile.Grades); grades != "" {
		lines = append(lines, "Grades: "+grades)
	}
	if ratings := renderRatings(profile.Interests); ratings != "" {
		lines = append(lines, "Interests (1-5): "+ratings)
	}
	if ratings := renderRatings(profile.Skills); ratings != "" {
		lines = append(lines, "Skills (1-5): "+ratings)
	}
	if profile.Extracurricular {
		lines = append(lines, "Active in extracurricular activities")
	}

	if prefs != nil {
		if strings.TrimSpace(prefs.BudgetRange) != "" {
			lines = append(lines, "Budget range: RM"+prefs.BudgetRange)
		}
		if strings.TrimSpace(prefs.PreferredLocations) != "" {
			lines = append(lines, "Preferred locations: "+prefs.PreferredLocations)
		}
		if strings.TrimSpace(prefs.StudyMode) != "" {
			lines = append(lines, "Study mode: "+prefs.StudyMode)
		}
	}

	return strings.Join(lines, "\n")
}

func takenGrades(grades map[string]string) string {
	keys := make([]string, 0, len(grades))
	for subject, grade := range grades {
		if grade != "" && grade != "0" {
			keys = append(keys, subject)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, subject := range keys {
		parts = append(parts, subject+"="+grades[subject])
	}
	return strings.Join(parts, ", ")
}

func renderRatings(ratings map[string]int) string {
	keys := make([]string, 0, len(ratings))
	for key := range ratings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", key, ratings[key]))
	}
	return strings.Join(parts, ", ")
}
