// internal/models/catalog.go
package models

import (
	"strconv"
	"strings"
)

// Field is a catalog field of interest.
type Field struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// University is the subset of university attributes the pipeline reads.
type University struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	City  *string `json:"city,omitempty"`
	State *string `json:"state,omitempty"`
}

// ProgramCandidate is a catalog program joined with its university.
// Optional columns are pointers; the store validates shape on read and the
// pipeline never mutates a candidate after the fetch.
type ProgramCandidate struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	FieldID        int64      `json:"field_id"`
	Level          *string    `json:"level,omitempty"`
	TuitionFee     *float64   `json:"tuition_fee,omitempty"`
	Duration       *string    `json:"duration,omitempty"`
	EmploymentRate *float64   `json:"employment_rate,omitempty"`
	Rating         *float64   `json:"rating,omitempty"`
	AverageSalary  *float64   `json:"average_salary,omitempty"`
	University     University `json:"university"`
}

// DurationMonths parses the free-text duration into months: the numeric
// prefix times 12 when the unit mentions years, the numeric prefix as-is
// when it mentions months. Returns nil when no numeric prefix exists.
func (p *ProgramCandidate) DurationMonths() *int {
	if p == nil || p.Duration == nil {
		return nil
	}

	text := strings.ToLower(strings.TrimSpace(*p.Duration))
	if text == "" {
		return nil
	}

	end := 0
	for end < len(text) && (text[end] >= '0' && text[end] <= '9' || text[end] == '.') {
		end++
	}
	if end == 0 {
		return nil
	}

	value, err := strconv.ParseFloat(text[:end], 64)
	if err != nil {
		return nil
	}

	var months int
	switch {
	case strings.Contains(text, "year"):
		months = int(value*12 + 0.5)
	case strings.Contains(text, "month"):
		months = int(value + 0.5)
	default:
		return nil
	}
	if months <= 0 {
		return nil
	}
	return &months
}
