package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/ideascore/internal/evaluate"
)

// Oracle scores factors by prompting a Provider.
type Oracle struct {
	provider    Provider
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// NewOracle wraps a provider as an evaluate.Oracle.
func NewOracle(provider Provider, config Config, logger *slog.Logger) *Oracle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Oracle{
		provider:    provider,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      logger.With("component", "llm", "provider", provider.Name()),
	}
}

// Name is "provider/model", which also keys rate limits and cache entries.
func (o *Oracle) Name() string {
	return fmt.Sprintf("%s/%s", o.provider.Name(), o.provider.Model())
}

// Score implements evaluate.Oracle.
func (o *Oracle) Score(ctx context.Context, req evaluate.Request) (*evaluate.Response, error) {
	completion, err := o.provider.Complete(ctx, CompletionRequest{
		System:      SystemPrompt,
		Prompt:      BuildScoringPrompt(req),
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	o.logger.Debug("completion received",
		"idea", req.IdeaID,
		"model", completion.Model,
		"tokens", completion.TokensUsed,
	)

	resp, err := ParseScores(completion.Text, req.FactorKeys())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", o.Name(), err)
	}
	return resp, nil
}

var _ evaluate.Oracle = (*Oracle)(nil)
