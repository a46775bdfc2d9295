// pkg/prompts/registry.go
package prompts

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Template IDs used by the pipeline.
const (
	TemplateFieldValidation      = "field-validation"
	TemplateProgramExplanation   = "program-explanation"
	TemplateRecommendationReview = "recommendation-review"
	TemplateProgramComparison    = "program-comparison"
)

// LoadRegistry reads a prompt registry from a JSON file and validates it
// against RegistrySchema. An empty path returns the built-in defaults.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	if err := Validate(&reg); err != nil {
		return nil, fmt.Errorf("prompt registry %s: %w", path, err)
	}
	return &reg, nil
}

// Get returns the template with the given ID.
func (r *Registry) Get(id string) (*Template, error) {
	for i := range r.Templates {
		if r.Templates[i].ID == id {
			return &r.Templates[i], nil
		}
	}
	return nil, fmt.Errorf("prompt template %q not found in registry", id)
}

// Render substitutes {{placeholder}} markers in the system and user parts.
// Unknown markers are left in place so a half-filled template is visible in
// logs instead of silently truncated.
func (t *Template) Render(vars map[string]string) (system, user string) {
	system = t.System
	user = t.User
	for name, value := range vars {
		marker := "{{" + name + "}}"
		system = strings.ReplaceAll(system, marker, value)
		user = strings.ReplaceAll(user, marker, value)
	}
	return system, user
}
