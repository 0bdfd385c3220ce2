// Package llm adapts chat-completion back ends into a scoring oracle.
// Each provider only knows how to complete a prompt; LLMOracle owns the
// scoring prompt and the parsing of the model's JSON answer.
package llm

import (
	"context"
	"time"

	"github.com/ppiankov/ideascore/internal/model"
)

// Provider is a text-completion back end.
type Provider interface {
	// Name returns the provider name, e.g. "openai".
	Name() string

	// Model returns the model requests are sent to.
	Model() string

	// Complete sends one prompt and returns the model's text.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is a single-turn prompt.
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
	JSON        bool // Ask the back end for a JSON-only answer when it supports it
}

// CompletionResponse is the model's answer.
type CompletionResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "gemini", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers; falls back to the provider's env variable
	APIKey string

	// BaseURL for custom endpoints (e.g., a remote Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.3
	defaultTimeout     = 60 * time.Second
)

// DefaultConfig returns the local Ollama configuration.
func DefaultConfig() Config {
	return Config{
		Provider:    "ollama",
		Model:       OllamaDefaultModel,
		Timeout:     120 * time.Second,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config.
func ConfigFromModel(c model.LLMConfig) Config {
	return Config{
		Provider:    c.Provider,
		Model:       c.Model,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Timeout:     time.Duration(c.Timeout) * time.Second,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}
	return c.Timeout
}

func (c Config) maxTokens(override int) int {
	if override > 0 {
		return override
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return defaultMaxTokens
}
