// Package score aggregates factor scores into category and overall scores.
// Every function here is pure: the same inputs always produce the same output.
package score

import (
	"math"

	"github.com/ppiankov/ideascore/internal/catalog"
	"github.com/ppiankov/ideascore/internal/model"
)

// AggregateCategory computes sum(w*s)/sum(w) over the scored factors of cat.
// Scores for factors outside the category are ignored, as are repeats of a
// key already seen. With nothing scored the result is undefined, never 0.
func AggregateCategory(cat catalog.CategoryDefinition, scores []model.FactorScore) model.CategoryScore {
	byKey := make(map[string]float64, len(scores))
	for _, fs := range scores {
		if _, seen := byKey[fs.FactorKey]; seen || math.IsNaN(fs.Score) {
			continue
		}
		byKey[fs.FactorKey] = fs.Score
	}

	result := model.CategoryScore{
		CategoryKey:  cat.Key,
		CountDefined: len(cat.Factors),
	}

	var weighted, totalWeight float64
	for _, f := range cat.Factors {
		s, ok := byKey[f.Key]
		if !ok {
			continue
		}
		weighted += f.Weight * s
		totalWeight += f.Weight
		result.CountScored++
	}

	if result.CountScored == 0 || totalWeight <= 0 {
		result.Score = model.Undefined()
		return result
	}
	result.Score = model.Defined(weighted / totalWeight)
	return result
}
