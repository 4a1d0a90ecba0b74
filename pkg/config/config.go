package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DevelopmentSecret signs session tokens when JWT_SECRET is unset.
// Tokens signed with it are forgeable by anyone who has read this file.
const DevelopmentSecret = "change-me-in-production"

// Config holds the application configuration
type Config struct {
	Environment        string   `mapstructure:"environment"`
	ServerPort         int      `mapstructure:"server_port"`
	LogLevel           string   `mapstructure:"log_level"`
	PublicBaseURL      string   `mapstructure:"public_base_url"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`

	JWTSecret      string `mapstructure:"jwt_secret"`
	InsecureSecret bool   `mapstructure:"-"`

	DatabaseURL string `mapstructure:"database_url"`
	RedisURL    string `mapstructure:"redis_url"`

	AnthropicAPIKey    string        `mapstructure:"anthropic_api_key"`
	AnthropicBaseURL   string        `mapstructure:"anthropic_base_url"`
	AnthropicModel     string        `mapstructure:"anthropic_model"`
	AnthropicMaxTokens int           `mapstructure:"anthropic_max_tokens"`
	CompletionTimeout  time.Duration `mapstructure:"completion_timeout"`

	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`

	AuthRateLimit      int           `mapstructure:"auth_rate_limit"`
	AuthRateWindow     time.Duration `mapstructure:"auth_rate_window"`
	FeedbackRateLimit  int           `mapstructure:"feedback_rate_limit"`
	FeedbackRateWindow time.Duration `mapstructure:"feedback_rate_window"`
	FoundationCacheTTL time.Duration `mapstructure:"foundation_cache_ttl"`
	BreakerFailures    int           `mapstructure:"breaker_failures"`
	BreakerCooldown    time.Duration `mapstructure:"breaker_cooldown"`

	OTelEndpoint     string  `mapstructure:"otel_exporter_otlp_endpoint"`
	TraceSampleRatio float64 `mapstructure:"trace_sample_ratio"`
}

// Load reads configuration from defaults, an optional YAML file and the environment.
// Environment variables win over the file; the file wins over defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("environment", "development")
	v.SetDefault("server_port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("public_base_url", "")
	v.SetDefault("cors_allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	v.SetDefault("jwt_secret", "")
	v.SetDefault("database_url", "")
	v.SetDefault("redis_url", "")

	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("anthropic_base_url", "https://api.anthropic.com")
	v.SetDefault("anthropic_model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic_max_tokens", 4096)
	v.SetDefault("completion_timeout", "60s")

	v.SetDefault("admin_email", "")
	v.SetDefault("admin_password", "")

	v.SetDefault("auth_rate_limit", 10)
	v.SetDefault("auth_rate_window", "1m")
	v.SetDefault("feedback_rate_limit", 30)
	v.SetDefault("feedback_rate_window", "1m")
	v.SetDefault("foundation_cache_ttl", "10m")
	v.SetDefault("breaker_failures", 5)
	v.SetDefault("breaker_cooldown", "30s")

	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("trace_sample_ratio", 1.0)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = DevelopmentSecret
		cfg.InsecureSecret = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later at runtime
func (c *Config) Validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %d", c.ServerPort)
	}
	if c.AnthropicMaxTokens <= 0 {
		return fmt.Errorf("invalid ANTHROPIC_MAX_TOKENS: %d", c.AnthropicMaxTokens)
	}
	if c.CompletionTimeout <= 0 {
		return fmt.Errorf("invalid COMPLETION_TIMEOUT: %s", c.CompletionTimeout)
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		return fmt.Errorf("invalid TRACE_SAMPLE_RATIO: %v", c.TraceSampleRatio)
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// IsProduction reports whether the process runs in the production environment
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
