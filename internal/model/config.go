package model

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the complete runtime configuration.
// Fields carry mapstructure tags for viper and yaml tags for `config init`.
type Config struct {
	Catalog      CatalogConfig      `mapstructure:"catalog" yaml:"catalog"`
	LLM          LLMConfig          `mapstructure:"llm" yaml:"llm"`
	Oracle       OracleConfig       `mapstructure:"oracle" yaml:"oracle"`
	Concurrency  ConcurrencyConfig  `mapstructure:"concurrency" yaml:"concurrency"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting" yaml:"rate_limiting"`
	Cache        CacheConfig        `mapstructure:"cache" yaml:"cache"`
	Output       OutputConfig       `mapstructure:"output" yaml:"output"`
	Logging      LoggingConfig      `mapstructure:"logging" yaml:"logging"`
	Metrics      MetricsConfig      `mapstructure:"metrics" yaml:"metrics"`
}

// CatalogConfig points at the factor catalog document.
type CatalogConfig struct {
	Path string `mapstructure:"path" yaml:"path" validate:"required"`
}

// LLMConfig selects the oracle back end.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider" yaml:"provider" validate:"omitempty,oneof=openai anthropic claude gemini google ollama"`
	Model       string  `mapstructure:"model" yaml:"model"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Timeout     int     `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"` // seconds
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens" validate:"gte=0"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
}

// OracleConfig bounds retries around a single oracle call.
type OracleConfig struct {
	MaxRetries    int           `mapstructure:"max_retries" yaml:"max_retries" validate:"gte=0,lte=10"`
	BaseDelay     time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
	MaxDelay      time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
	JitterPercent float64       `mapstructure:"jitter_percent" yaml:"jitter_percent" validate:"gte=0,lte=1"`
	CallTimeout   time.Duration `mapstructure:"call_timeout" yaml:"call_timeout"`
}

// ConcurrencyConfig sizes the worker pools.
type ConcurrencyConfig struct {
	Workers         int `mapstructure:"workers" yaml:"workers" validate:"gte=1"`                   // Ideas in flight
	CategoryWorkers int `mapstructure:"category_workers" yaml:"category_workers" validate:"gte=1"` // Oracle calls per idea
}

// RateLimitingConfig limits calls per oracle.
type RateLimitingConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"gte=0"`
	BurstSize         int     `mapstructure:"burst_size" yaml:"burst_size" validate:"gte=0"`
}

// CacheConfig controls the oracle response cache.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	Dir       string        `mapstructure:"dir" yaml:"dir"`
	MemoryTTL time.Duration `mapstructure:"memory_ttl" yaml:"memory_ttl"`
	DiskTTL   time.Duration `mapstructure:"disk_ttl" yaml:"disk_ttl"`
}

// OutputConfig controls result rendering.
type OutputConfig struct {
	Verbose   bool `mapstructure:"verbose" yaml:"verbose"`
	Color     bool `mapstructure:"color" yaml:"color"`
	Precision int  `mapstructure:"precision" yaml:"precision" validate:"gte=0,lte=6"`
	Top       int  `mapstructure:"top" yaml:"top" validate:"gte=0"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json text"`
}

// MetricsConfig exposes Prometheus metrics while a run is active.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr,omitempty"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{Path: "configs/scoring_factors.yaml"},
		LLM: LLMConfig{
			Provider:    "ollama",
			Model:       "llama3.1:8b",
			Timeout:     120,
			MaxTokens:   1000,
			Temperature: 0.3,
		},
		Oracle: OracleConfig{
			MaxRetries:    2,
			BaseDelay:     time.Second,
			MaxDelay:      10 * time.Second,
			JitterPercent: 0.1,
			CallTimeout:   2 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			Workers:         runtime.NumCPU(),
			CategoryWorkers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".ideascore-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		Output: OutputConfig{
			Color:     true,
			Precision: 2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

var configValidator = validator.New()

// Validate checks field constraints after flags, env and file have been merged.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
