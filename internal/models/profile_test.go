// internal/models/profile_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStudentProfile_TargetLevel(t *testing.T) {
	tests := []struct {
		name       string
		studyLevel string
		want       string
	}{
		{name: "spm maps to foundation", studyLevel: "SPM", want: "Foundation"},
		{name: "stpm maps to bachelor", studyLevel: "STPM", want: "Bachelor"},
		{name: "lowercase spm", studyLevel: "spm", want: "Foundation"},
		{name: "empty defaults to bachelor", studyLevel: "", want: "Bachelor"},
		{name: "unknown defaults to bachelor", studyLevel: "Matrikulasi", want: "Bachelor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &StudentProfile{StudyLevel: tt.studyLevel}
			assert.Equal(t, tt.want, profile.TargetLevel())
		})
	}

	t.Run("nil profile defaults to bachelor", func(t *testing.T) {
		var profile *StudentProfile
		assert.Equal(t, "Bachelor", profile.TargetLevel())
	})
}
