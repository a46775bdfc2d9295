// internal/stages/validate-explanations/config.go
package validateexplanations

// Config caps how many recommendations are sent to the language model.
type Config struct {
	MaxExplanations int
}

func LoadConfig() *Config {
	return &Config{
		MaxExplanations: 10,
	}
}
