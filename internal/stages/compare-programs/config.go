// internal/stages/compare-programs/config.go
package compareprograms

import "time"

// Config carries the comparison cache lifetime.
type Config struct {
	CacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		CacheTTL: time.Hour,
	}
}
