package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/ideascore/internal/catalog"
	"github.com/ppiankov/ideascore/internal/model"
)

func ptr(v float64) *float64 { return &v }

// Market (w=2): A, B. Tech (w=1): C. All factor weights 1.
func marketTech(t *testing.T, scale float64) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load(catalog.RawCatalog{Categories: []catalog.RawCategory{
		{Key: "market", Name: "Market", Weight: ptr(2 * scale), Factors: []catalog.RawFactor{
			{Key: "A", Name: "A", Weight: ptr(scale)},
			{Key: "B", Name: "B", Weight: ptr(scale)},
		}},
		{Key: "tech", Name: "Tech", Weight: ptr(scale), Factors: []catalog.RawFactor{
			{Key: "C", Name: "C", Weight: ptr(scale)},
		}},
	}})
	require.NoError(t, err)
	return c
}

func fs(pairs ...any) []model.FactorScore {
	var out []model.FactorScore
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, model.FactorScore{FactorKey: pairs[i].(string), Score: pairs[i+1].(float64)})
	}
	return out
}

func categoryValue(t *testing.T, r model.IdeaScoreResult, key string) model.NullScore {
	t.Helper()
	for _, c := range r.Categories {
		if c.CategoryKey == key {
			return c.Score
		}
	}
	t.Fatalf("category %s not in result", key)
	return model.NullScore{}
}

func TestCalculate_FullCoverage(t *testing.T) {
	c := marketTech(t, 1)
	r := NewScorer(c).Calculate("x", fs("A", 80.0, "B", 60.0, "C", 90.0))

	assert.InDelta(t, 70, categoryValue(t, r, "market").Value, 1e-9)
	assert.InDelta(t, 90, categoryValue(t, r, "tech").Value, 1e-9)
	require.True(t, r.Overall.Valid)
	assert.InDelta(t, 76.6667, r.Overall.Value, 1e-3)
	assert.InDelta(t, 100, r.Confidence, 1e-9)
	assert.Empty(t, r.Unscored)
	assert.Len(t, r.Factors, 3)
}

func TestCalculate_PartialCoverage(t *testing.T) {
	c := marketTech(t, 1)
	r := NewScorer(c).Calculate("x", fs("A", 80.0, "C", 90.0))

	market := categoryValue(t, r, "market")
	assert.InDelta(t, 80, market.Value, 1e-9)
	assert.Equal(t, 1, r.Categories[0].CountScored)
	assert.Equal(t, 2, r.Categories[0].CountDefined)

	assert.InDelta(t, 83.3333, r.Overall.Value, 1e-3)
	assert.InDelta(t, 66.6667, r.Confidence, 1e-3)
	assert.Equal(t, []string{"B"}, r.Unscored)
}

func TestAggregateCategory_NothingScoredIsUndefined(t *testing.T) {
	c := marketTech(t, 1)
	tech, _ := c.Category("tech")

	cs := AggregateCategory(tech, fs("A", 100.0))
	assert.False(t, cs.Score.Valid)
	assert.Equal(t, 0, cs.CountScored)
	assert.Equal(t, 1, cs.CountDefined)

	// Zero is a real score, not "missing".
	cs = AggregateCategory(tech, fs("C", 0.0))
	assert.True(t, cs.Score.Valid)
	assert.Equal(t, 0.0, cs.Score.Value)
}

func TestAggregateCategory_FirstDuplicateWins(t *testing.T) {
	c := marketTech(t, 1)
	market, _ := c.Category("market")

	cs := AggregateCategory(market, fs("A", 10.0, "A", 90.0, "B", 30.0))
	assert.InDelta(t, 20, cs.Score.Value, 1e-9)
	assert.Equal(t, 2, cs.CountScored)
}

func TestAggregateCategory_UnequalWeights(t *testing.T) {
	cat := catalog.CategoryDefinition{Key: "k", Factors: []catalog.FactorDefinition{
		{Key: "x", Weight: 3},
		{Key: "y", Weight: 1},
	}}
	cs := AggregateCategory(cat, fs("x", 100.0, "y", 0.0))
	assert.InDelta(t, 75, cs.Score.Value, 1e-9)
}

func TestAggregateOverall_AllUndefined(t *testing.T) {
	c := marketTech(t, 1)
	r := NewScorer(c).Calculate("x", nil)

	assert.False(t, r.Overall.Valid)
	assert.Equal(t, 0.0, r.Confidence)
	assert.Equal(t, []string{"A", "B", "C"}, r.Unscored)
	for _, cs := range r.Categories {
		assert.False(t, cs.Score.Valid)
	}
}

func TestAggregateOverall_UndefinedCategoryDoesNotCountAsZero(t *testing.T) {
	c := marketTech(t, 1)
	r := NewScorer(c).Calculate("x", fs("C", 40.0))

	assert.InDelta(t, 40, r.Overall.Value, 1e-9)
	assert.InDelta(t, 33.3333, r.Confidence, 1e-3)
}

func TestAggregateOverall_IgnoresUnknownCategories(t *testing.T) {
	c := marketTech(t, 1)
	o := AggregateOverall(c, []model.CategoryScore{
		{CategoryKey: "tech", Score: model.Defined(50), CountScored: 1, CountDefined: 1},
		{CategoryKey: "nope", Score: model.Defined(100), CountScored: 5, CountDefined: 5},
	})
	assert.InDelta(t, 50, o.Score.Value, 1e-9)
	assert.Equal(t, 1, o.ScoredFactors)
}

func TestCalculate_WeightScaleInvariance(t *testing.T) {
	scores := fs("A", 73.0, "B", 12.5, "C", 88.0)

	base := NewScorer(marketTech(t, 1)).Calculate("x", scores)
	for _, k := range []float64{0.1, 3, 1000} {
		scaled := NewScorer(marketTech(t, k)).Calculate("x", scores)
		assert.InDelta(t, base.Overall.Value, scaled.Overall.Value, 1e-9, "scale %v", k)
		for i := range base.Categories {
			assert.InDelta(t, base.Categories[i].Score.Value, scaled.Categories[i].Score.Value, 1e-9)
		}
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	s := NewScorer(marketTech(t, 1))
	scores := fs("A", 55.0, "C", 21.0)
	assert.Equal(t, s.Calculate("x", scores), s.Calculate("x", scores))
}

func TestCalculate_Monotonic(t *testing.T) {
	s := NewScorer(marketTech(t, 1))
	prevCat, prevOverall := -1.0, -1.0
	for _, v := range []float64{0, 10, 45.5, 80, 100} {
		r := s.Calculate("x", fs("A", v, "B", 50.0, "C", 50.0))
		cat := categoryValue(t, r, "market").Value
		assert.GreaterOrEqual(t, cat, prevCat)
		assert.GreaterOrEqual(t, r.Overall.Value, prevOverall)
		prevCat, prevOverall = cat, r.Overall.Value
	}
}

func TestCalculate_IgnoresForeignFactors(t *testing.T) {
	r := NewScorer(marketTech(t, 1)).Calculate("x", fs("A", 50.0, "ZZ", 100.0))
	assert.Len(t, r.Factors, 1)
	assert.InDelta(t, 50, r.Overall.Value, 1e-9)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		overall    model.NullScore
		population []float64
		want       model.NullScore
	}{
		{"undefined stays undefined", model.Undefined(), []float64{1, 2}, model.Undefined()},
		{"single member passes through", model.Defined(42), []float64{42}, model.Defined(42)},
		{"empty population passes through", model.Defined(42), nil, model.Defined(42)},
		{"zero spread passes through", model.Defined(60), []float64{60, 60, 60}, model.Defined(60)},
		{"min maps to 0", model.Defined(40), []float64{40, 60, 80}, model.Defined(0)},
		{"max maps to 100", model.Defined(80), []float64{40, 60, 80}, model.Defined(100)},
		{"midpoint", model.Defined(60), []float64{40, 60, 80}, model.Defined(50)},
		{"outside population is clamped", model.Defined(90), []float64{40, 80}, model.Defined(100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.overall, tt.population)
			assert.Equal(t, tt.want.Valid, got.Valid)
			assert.InDelta(t, tt.want.Value, got.Value, 1e-9)
		})
	}
}

func TestNormalizeBatch(t *testing.T) {
	in := []model.IdeaScoreResult{
		{IdeaID: "a", Overall: model.Defined(76.67)},
		{IdeaID: "b", Overall: model.Defined(50)},
		{IdeaID: "c", Overall: model.Undefined()},
	}
	out := NormalizeBatch(in)

	require.Len(t, out, 3)
	assert.InDelta(t, 100, out[0].Normalized.Value, 1e-9)
	assert.InDelta(t, 0, out[1].Normalized.Value, 1e-9)
	assert.False(t, out[2].Normalized.Valid)
	assert.False(t, in[0].Normalized.Valid, "input must not be modified")
}

func TestConfidenceLevel(t *testing.T) {
	assert.Equal(t, "high", ConfidenceLevel(100))
	assert.Equal(t, "medium", ConfidenceLevel(66.67))
	assert.Equal(t, "low", ConfidenceLevel(10))
}
