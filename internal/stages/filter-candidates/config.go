// internal/stages/filter-candidates/config.go
package filtercandidates

// Config carries the tuition headroom multiplier applied over the stated
// budget before a program is considered out of reach.
type Config struct {
	BudgetTolerance float64
}

func LoadConfig() *Config {
	return &Config{
		BudgetTolerance: 1.5,
	}
}
