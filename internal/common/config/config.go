// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	APIs     APIsConfig     `mapstructure:"apis"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Prompts  PromptsConfig  `mapstructure:"prompts"`
	Logging  LoggingConfig  `mapstructure:"logging"`

	Observability ObservabilityConfig `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	MetricsPort     int    `mapstructure:"metrics_port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Specific Configuration Sections ---

// AuthConfig holds settings for bearer credential verification. Tokens are
// issued by the external auth provider; this service only verifies them.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	ML struct {
		BaseURL    string `mapstructure:"base_url"`
		Timeout    int    `mapstructure:"timeout"` // milliseconds
		MaxRetries int    `mapstructure:"max_retries"`
	} `mapstructure:"ml"`

	LLM struct {
		BaseURL     string  `mapstructure:"base_url"`
		APIKey      string  `mapstructure:"api_key"`
		Model       string  `mapstructure:"model"`
		Timeout     int     `mapstructure:"timeout"` // milliseconds
		MaxRetries  int     `mapstructure:"max_retries"`
		MaxTokens   int     `mapstructure:"max_tokens"`
		Temperature float64 `mapstructure:"temperature"`
	} `mapstructure:"llm"`
}

// PipelineConfig holds per-stage tuning for the recommendation pipeline.
type PipelineConfig struct {
	TopFields          int     `mapstructure:"top_fields"`          // fields kept for validation/normalization
	MaxExplanations    int     `mapstructure:"max_explanations"`    // programs sent to the explanation step
	FallbackCandidates int     `mapstructure:"fallback_candidates"` // candidates kept when ranking degrades
	BudgetTolerance    float64 `mapstructure:"budget_tolerance"`    // tuition cutoff as a multiple of budget
	ProbabilityFloor   float64 `mapstructure:"probability_floor"`   // minimum share per normalized field
	HistoryLimit       int     `mapstructure:"history_limit"`       // default history page size
	HistoryMaxLimit    int     `mapstructure:"history_max_limit"`   // hard cap on requested history size
}

// CacheConfig holds TTLs for the Redis-backed caches.
type CacheConfig struct {
	ProfileTTL    int `mapstructure:"profile_ttl"`    // milliseconds
	ComparisonTTL int `mapstructure:"comparison_ttl"` // milliseconds
}

// PromptsConfig points at the externalized prompt template registry.
type PromptsConfig struct {
	RegistryPath string `mapstructure:"registry_path"`
}

// ObservabilityConfig holds tracing settings. An empty Jaeger endpoint
// disables trace export; metrics are always on.
type ObservabilityConfig struct {
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
