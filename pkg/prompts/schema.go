// pkg/prompts/schema.go
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type Registry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Templates   []Template `json:"templates"`
}

type Template struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"displayName"`
	Description  string   `json:"description"`
	System       string   `json:"system"`
	User         string   `json:"user"`
	Placeholders []string `json:"placeholders"`
	Temperature  float64  `json:"temperature"`
	MaxTokens    int      `json:"maxTokens"`
}

// RegistrySchema is the JSON Schema a prompt registry file must satisfy.
const RegistrySchema = `{
	"type": "object",
	"required": ["version", "templates"],
	"properties": {
		"version": {"type": "string"},
		"lastUpdated": {"type": "string"},
		"templates": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["id", "system", "user"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"displayName": {"type": "string"},
					"description": {"type": "string"},
					"system": {"type": "string", "minLength": 1},
					"user": {"type": "string", "minLength": 1},
					"placeholders": {"type": "array", "items": {"type": "string"}},
					"temperature": {"type": "number", "minimum": 0, "maximum": 2},
					"maxTokens": {"type": "integer", "minimum": 1}
				}
			}
		}
	}
}`

// Validate checks a registry against RegistrySchema and verifies that every
// declared placeholder appears in the template body.
func Validate(reg *Registry) error {
	doc, err := json.Marshal(reg)
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(RegistrySchema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("registry schema validation error: %w", err)
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return fmt.Errorf("registry invalid: %s: %s", first.Field(), first.Description())
	}

	for _, tpl := range reg.Templates {
		for _, placeholder := range tpl.Placeholders {
			marker := "{{" + placeholder + "}}"
			if !strings.Contains(tpl.System, marker) && !strings.Contains(tpl.User, marker) {
				return fmt.Errorf("template %q declares placeholder %q but never uses it", tpl.ID, placeholder)
			}
		}
	}
	return nil
}
