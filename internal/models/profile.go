// internal/models/profile.go
package models

import (
	"strconv"
	"strings"
)

// StudentProfile holds a student's academic record and self-assessment.
// Grades are letter grades A/B/C/D/E/G, with "0" meaning the subject was
// not taken. Interests and skills are self-rated 1-5.
type StudentProfile struct {
	UserID          string            `json:"user_id"`
	StudyLevel      string            `json:"study_level"` // SPM or STPM
	Extracurricular bool              `json:"extracurricular"`
	Grades          map[string]string `json:"grades"`
	Interests       map[string]int    `json:"interests"`
	Skills          map[string]int    `json:"skills"`
}

// Preferences holds a student's stated study preferences. Budget is free
// text and only parsed to an upper bound when needed.
type Preferences struct {
	UserID             string `json:"user_id"`
	BudgetRange        string `json:"budget_range"`
	PreferredLocations string `json:"preferred_locations"`
	PreferredCountry   string `json:"preferred_country"`
	StudyMode          string `json:"study_mode"`
}

// gradePoints maps letter grades to CGPA points.
var gradePoints = map[string]float64{
	"A": 4.0,
	"B": 3.0,
	"C": 2.0,
	"D": 1.0,
	"E": 0.5,
	"G": 0.0,
	"0": 0.0, // not taken
}

// cgpaSubjects are the core subjects that count toward the derived CGPA.
var cgpaSubjects = []string{
	"bm",
	"english",
	"mathematics",
	"physics",
	"chemistry",
	"biology",
	"additional_mathematics",
	"accounting",
	"economics",
}

// CGPA derives a grade-point average over the core subjects actually taken.
// Returns nil when none were taken.
func (p *StudentProfile) CGPA() *float64 {
	if p == nil {
		return nil
	}

	totalPoints := 0.0
	count := 0
	for _, subject := range cgpaSubjects {
		grade, ok := p.Grades[subject]
		if !ok || grade == "" || grade == "0" {
			continue
		}
		points, known := gradePoints[grade]
		if !known {
			continue
		}
		totalPoints += points
		count++
	}

	if count == 0 {
		return nil
	}
	cgpa := totalPoints / float64(count)
	return &cgpa
}

// targetLevels maps a Malaysian school qualification to the program level
// its holder applies for next.
var targetLevels = map[string]string{
	"SPM":  "Foundation",
	"STPM": "Bachelor",
}

// TargetLevel translates the stored qualification into the program level
// used for candidate filtering and ranking. An SPM leaver enters Foundation,
// an STPM leaver enters Bachelor; anything else defaults to Bachelor.
func (p *StudentProfile) TargetLevel() string {
	if p == nil {
		return "Bachelor"
	}
	if level, ok := targetLevels[strings.ToUpper(strings.TrimSpace(p.StudyLevel))]; ok {
		return level
	}
	return "Bachelor"
}

// SubjectTaken reports whether a subject has a recorded grade.
func (p *StudentProfile) SubjectTaken(subject string) bool {
	grade, ok := p.Grades[subject]
	if !ok {
		return false
	}
	grade = strings.TrimSpace(grade)
	return grade != "" && grade != "0"
}

// ParseBudgetUpperBound extracts the upper bound in MYR out of a free-text
// budget range. Supported shapes: "30000-50000" (upper bound), "50000+"
// (the number itself), and a plain number. Returns nil for anything else.
func ParseBudgetUpperBound(budgetRange string) *float64 {
	s := strings.TrimSpace(budgetRange)
	if s == "" {
		return nil
	}

	if idx := strings.Index(s, "-"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(s, "+")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value <= 0 {
		return nil
	}
	return &value
}

// PreferredStates splits the comma-separated preferred locations.
func (p *Preferences) PreferredStates() []string {
	if p == nil || strings.TrimSpace(p.PreferredLocations) == "" {
		return nil
	}
	parts := strings.Split(p.PreferredLocations, ",")
	states := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			states = append(states, trimmed)
		}
	}
	return states
}
