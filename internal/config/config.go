package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Redis
	RedisURL string `env:"REDIS_URL,required"`

	// JWT Configuration
	JWTHS256Secret      string `env:"JWT_HS256_SECRET,required"` // Base64-encoded HMAC secret
	JWTIssuer           string `env:"JWT_ISSUER" envDefault:"prospect-web"`
	JWTAudience         string `env:"JWT_AUDIENCE,required"` // Expected JWT audience
	JWTClockSkewSeconds int    `env:"JWT_CLOCK_SKEW_SECONDS" envDefault:"60"`

	// OpenTelemetry
	OTELEnabled          bool    `env:"OTEL_ENABLED" envDefault:"true"`
	OTELExporterEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTELServiceName      string  `env:"OTEL_SERVICE_NAME" envDefault:"prospect-api"`
	OTELSamplingRatio    float64 `env:"OTEL_SAMPLING_RATIO" envDefault:"0.1"`

	// Server
	Port   string `env:"PORT" envDefault:"3002"`
	AppEnv string `env:"APP_ENV" envDefault:"production"`

	// Rate Limiting
	RateLimitPerUserPerMin int `env:"RATE_LIMIT_PER_USER_PER_MIN" envDefault:"100"`

	// Prometheus scrape protection. Empty means /metrics is open.
	MetricsToken string `env:"METRICS_TOKEN"`

	// Quotation defaults
	DefaultCurrency string `env:"DEFAULT_CURRENCY" envDefault:"USD"`

	// Items measured in these UOMs only accept whole-number quantities.
	IntegerUOMs string `env:"INTEGER_UOMS" envDefault:"Unit,Nos,Box,Pair,Set"`

	// Fiscal year boundary checking on opportunity dates.
	FiscalYearValidation bool `env:"FISCAL_YEAR_VALIDATION" envDefault:"true"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWTHS256Secret == "" {
		return fmt.Errorf("JWT_HS256_SECRET is required")
	}

	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWTAudience == "" {
		return fmt.Errorf("JWT_AUDIENCE is required")
	}

	if strings.TrimSpace(c.JWTIssuer) == "" {
		return fmt.Errorf("JWT_ISSUER must not be blank")
	}

	if c.OTELSamplingRatio < 0 || c.OTELSamplingRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLING_RATIO must be between 0 and 1")
	}

	if c.JWTClockSkewSeconds < 0 {
		return fmt.Errorf("JWT_CLOCK_SKEW_SECONDS must be non-negative")
	}

	if c.RateLimitPerUserPerMin <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_USER_PER_MIN must be positive")
	}

	if c.DefaultCurrency == "" {
		return fmt.Errorf("DEFAULT_CURRENCY is required")
	}

	return nil
}

// TelemetryEnabled reports whether OTLP exporters should be started
func (c *Config) TelemetryEnabled() bool {
	return c.OTELEnabled && c.OTELExporterEndpoint != ""
}

// GetIntegerUOMs returns the list of whole-number-only units of measure
func (c *Config) GetIntegerUOMs() []string {
	uoms := strings.Split(c.IntegerUOMs, ",")
	result := make([]string, 0, len(uoms))
	for _, uom := range uoms {
		trimmed := strings.TrimSpace(uom)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
