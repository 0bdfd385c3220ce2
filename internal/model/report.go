package model

import "time"

// NormalizationCaveat must accompany any display of a normalized score.
const NormalizationCaveat = "normalized score is relative to the batch it was computed in and is not comparable across runs"

// IdeaScoreResult is the full scoring outcome for one idea.
// It is never mutated after a scoring run; re-scoring produces a new value.
type IdeaScoreResult struct {
	IdeaID     string          `json:"idea_id"`
	Title      string          `json:"title,omitempty"`
	Categories []CategoryScore `json:"categories"`
	Overall    NullScore       `json:"overall_score"`
	Normalized NullScore       `json:"normalized_score"`
	Confidence float64         `json:"confidence_score"` // Factor coverage, 0-100
	ScoredAt   time.Time       `json:"scored_at"`

	Factors      []FactorScore `json:"factors,omitempty"`       // Every factor score that was accepted
	Unscored     []string      `json:"unscored,omitempty"`      // Factor keys the oracle never answered
	OracleErrors []string      `json:"oracle_errors,omitempty"` // Calls that degraded to unscored
}

// Rankable reports whether the idea has a defined overall score.
func (r IdeaScoreResult) Rankable() bool {
	return r.Overall.Valid
}

// RankedIdea wraps a result with its position in one comparison set.
type RankedIdea struct {
	Result     IdeaScoreResult `json:"result"`
	Rank       int             `json:"rank"`       // 1 = best, competition ranking
	Percentile float64         `json:"percentile"` // 100 for rank 1
}

// Ranking is the output of ranking one comparison set.
type Ranking struct {
	Ranked     []RankedIdea      `json:"ranked"`
	Unrankable []IdeaScoreResult `json:"unrankable"`
}

// BatchReport is the document written by a batch scoring run.
type BatchReport struct {
	GeneratedAt         time.Time `json:"generated_at"`
	CatalogFactors      int       `json:"catalog_factors"`
	Oracle              string    `json:"oracle"`
	NormalizationCaveat string    `json:"normalization_caveat"`
	Ranking             Ranking   `json:"ranking"`
}
