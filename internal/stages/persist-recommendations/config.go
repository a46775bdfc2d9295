// internal/stages/persist-recommendations/config.go
package persistrecommendations

import "time"

// Config bounds how long a best-effort save may run.
type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
