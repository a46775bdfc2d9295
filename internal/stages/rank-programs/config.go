// internal/stages/rank-programs/config.go
package rankprograms

// Config carries the number of catalog-order candidates kept when the
// ranking service is unavailable and the caller asked for a fallback.
type Config struct {
	FallbackCandidates int
}

func LoadConfig() *Config {
	return &Config{
		FallbackCandidates: 5,
	}
}
