// internal/stages/normalize-probabilities/config.go
package normalizeprobabilities

// Config carries the floor reserved per field and the tolerated deviation
// of the normalized sum from 1.0 before a warning is logged.
type Config struct {
	Floor     float64
	Tolerance float64
}

func LoadConfig() *Config {
	return &Config{
		Floor:     0.01,
		Tolerance: 0.01,
	}
}
