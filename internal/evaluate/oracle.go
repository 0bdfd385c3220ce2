// Package evaluate obtains factor scores for one idea from an external scoring
// oracle and turns whatever comes back into validated FactorScores. Oracle
// failures degrade to unscored factors; they never abort the caller.
package evaluate

import (
	"context"
)

// Oracle is the external scoring capability, typically an LLM.
// Implementations must be safe for concurrent use.
type Oracle interface {
	// Name identifies the oracle in logs, metrics and rate-limit keys.
	Name() string
	// Score returns raw scores for the requested factors.
	// The response may omit factors or contain unknown keys.
	Score(ctx context.Context, req Request) (*Response, error)
}

// OracleScore is one raw, unvalidated score returned by an oracle.
type OracleScore struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale,omitempty"`
}

// Response maps factor keys to raw scores.
type Response struct {
	Scores    map[string]OracleScore `json:"scores"`
	Reasoning string                 `json:"reasoning,omitempty"` // Oracle's overall explanation
}

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(ctx context.Context, req Request) (*Response, error)

// Name implements Oracle.
func (f OracleFunc) Name() string { return "func" }

// Score implements Oracle.
func (f OracleFunc) Score(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
