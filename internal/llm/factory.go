package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// NewProvider creates a provider based on configuration.
// Missing API keys and the Ollama URL fall back to the environment.
func NewProvider(ctx context.Context, config Config) (Provider, error) {
	config = withEnvDefaults(config)

	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "gemini", "google":
		return NewGeminiProvider(ctx, config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, fmt.Errorf("no LLM provider configured (supported: openai, anthropic, gemini, ollama)")

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, gemini, ollama)", config.Provider)
	}
}

var apiKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"claude":    "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
	"google":    "GEMINI_API_KEY",
}

func withEnvDefaults(config Config) Config {
	provider := strings.ToLower(config.Provider)

	if config.APIKey == "" {
		if name, ok := apiKeyEnv[provider]; ok {
			config.APIKey = os.Getenv(name)
		}
	}
	if provider == "ollama" && config.BaseURL == "" {
		config.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	return config
}
