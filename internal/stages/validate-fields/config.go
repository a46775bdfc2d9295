// internal/stages/validate-fields/config.go
package validatefields

// Config pins the validated set size.
type Config struct {
	FieldCount int
}

func LoadConfig() *Config {
	return &Config{
		FieldCount: 5,
	}
}
