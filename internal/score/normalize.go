package score

import (
	"math"

	"github.com/ppiankov/ideascore/internal/model"
)

// Normalize rescales overall against population with min-max to [0,100].
// Populations with fewer than two members, or no spread, leave the score as is.
func Normalize(overall model.NullScore, population []float64) model.NullScore {
	v, ok := overall.Float()
	if !ok {
		return model.Undefined()
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	n := 0
	for _, p := range population {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			continue
		}
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
		n++
	}

	if n < 2 || hi-lo == 0 {
		return model.Defined(v)
	}

	scaled := 100 * (v - lo) / (hi - lo)
	return model.Defined(math.Max(0, math.Min(100, scaled)))
}

// NormalizeBatch sets Normalized on a copy of every result, using the batch's
// defined overall scores as the population. The input slice is not modified.
func NormalizeBatch(results []model.IdeaScoreResult) []model.IdeaScoreResult {
	population := make([]float64, 0, len(results))
	for _, r := range results {
		if v, ok := r.Overall.Float(); ok {
			population = append(population, v)
		}
	}

	out := make([]model.IdeaScoreResult, len(results))
	for i, r := range results {
		r.Normalized = Normalize(r.Overall, population)
		out[i] = r
	}
	return out
}
