// internal/stages/score-fields/config.go
package scorefields

// Config controls how many fields survive post-processing.
type Config struct {
	TopFields int
}

func LoadConfig() *Config {
	return &Config{
		TopFields: 5,
	}
}
