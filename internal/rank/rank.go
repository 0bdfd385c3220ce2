// Package rank orders one comparison set of scored ideas.
package rank

import (
	"sort"

	"github.com/ppiankov/ideascore/internal/model"
)

// Rank assigns standard competition ranks (1, 1, 3) by descending overall score.
// Ties keep a stable order by idea ID. Ideas with an undefined overall score
// are returned in Unrankable, also ordered by ID. Percentile is
// 100 * (1 - (rank-1)/N) where N is the number of ranked ideas.
func Rank(results []model.IdeaScoreResult) model.Ranking {
	ranking := model.Ranking{
		Ranked:     []model.RankedIdea{},
		Unrankable: []model.IdeaScoreResult{},
	}

	rankable := make([]model.IdeaScoreResult, 0, len(results))
	for _, r := range results {
		if r.Rankable() {
			rankable = append(rankable, r)
		} else {
			ranking.Unrankable = append(ranking.Unrankable, r)
		}
	}

	sort.SliceStable(rankable, func(i, j int) bool {
		a, b := rankable[i].Overall.Value, rankable[j].Overall.Value
		if a != b {
			return a > b
		}
		return rankable[i].IdeaID < rankable[j].IdeaID
	})
	sort.SliceStable(ranking.Unrankable, func(i, j int) bool {
		return ranking.Unrankable[i].IdeaID < ranking.Unrankable[j].IdeaID
	})

	n := float64(len(rankable))
	rank := 0
	for i, r := range rankable {
		if i == 0 || r.Overall.Value != rankable[i-1].Overall.Value {
			rank = i + 1
		}
		ranking.Ranked = append(ranking.Ranked, model.RankedIdea{
			Result:     r,
			Rank:       rank,
			Percentile: 100 * (1 - float64(rank-1)/n),
		})
	}
	return ranking
}

// Top returns up to n of the best ranked ideas. n <= 0 returns all of them.
// Ties at the cut-off are not extended; the ID order decides.
func Top(ranking model.Ranking, n int) []model.RankedIdea {
	if n <= 0 || n >= len(ranking.Ranked) {
		return append([]model.RankedIdea(nil), ranking.Ranked...)
	}
	return append([]model.RankedIdea(nil), ranking.Ranked[:n]...)
}
