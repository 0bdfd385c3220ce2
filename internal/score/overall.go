package score

import (
	"github.com/ppiankov/ideascore/internal/catalog"
	"github.com/ppiankov/ideascore/internal/model"
)

// Overall is an idea's combined score and its factor coverage.
type Overall struct {
	Score         model.NullScore
	Confidence    float64 // 100 * scored factors / catalog factors
	ScoredFactors int
}

// AggregateOverall combines category scores using the catalog's category weights.
// Undefined categories are skipped; if all are undefined, so is the result.
// Confidence counts scored factors against the whole catalog, so an idea
// missing entire categories is penalized even when its overall looks high.
func AggregateOverall(c *catalog.Catalog, categoryScores []model.CategoryScore) Overall {
	var out Overall
	var weighted, totalWeight float64

	seen := make(map[string]bool, len(categoryScores))
	for _, cs := range categoryScores {
		if seen[cs.CategoryKey] {
			continue
		}
		seen[cs.CategoryKey] = true

		def, ok := c.Category(cs.CategoryKey)
		if !ok {
			continue
		}
		out.ScoredFactors += cs.CountScored

		v, defined := cs.Score.Float()
		if !defined {
			continue
		}
		weighted += def.Weight * v
		totalWeight += def.Weight
	}

	if totalWeight > 0 {
		out.Score = model.Defined(weighted / totalWeight)
	}
	if total := c.TotalFactors(); total > 0 {
		out.Confidence = 100 * float64(out.ScoredFactors) / float64(total)
	}
	return out
}

// Scorer turns one idea's accepted factor scores into a full result.
type Scorer struct {
	catalog *catalog.Catalog
}

// NewScorer creates a scorer bound to one catalog.
func NewScorer(c *catalog.Catalog) *Scorer {
	return &Scorer{catalog: c}
}

// Calculate aggregates every category and the overall score.
// Normalized stays undefined until the batch is known; see NormalizeBatch.
func (s *Scorer) Calculate(ideaID string, factorScores []model.FactorScore) model.IdeaScoreResult {
	cats := s.catalog.Categories()

	result := model.IdeaScoreResult{
		IdeaID:     ideaID,
		Categories: make([]model.CategoryScore, 0, len(cats)),
	}

	scored := make(map[string]bool, len(factorScores))
	for _, fs := range factorScores {
		if _, ok := s.catalog.Factor(fs.FactorKey); ok && !scored[fs.FactorKey] {
			scored[fs.FactorKey] = true
			result.Factors = append(result.Factors, fs)
		}
	}

	for _, cat := range cats {
		result.Categories = append(result.Categories, AggregateCategory(cat, factorScores))
		for _, f := range cat.Factors {
			if !scored[f.Key] {
				result.Unscored = append(result.Unscored, f.Key)
			}
		}
	}

	overall := AggregateOverall(s.catalog, result.Categories)
	result.Overall = overall.Score
	result.Confidence = overall.Confidence
	return result
}

// ConfidenceLevel buckets a coverage percentage for display.
func ConfidenceLevel(confidence float64) string {
	switch {
	case confidence >= 90:
		return "high"
	case confidence >= 60:
		return "medium"
	default:
		return "low"
	}
}
