package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/ideascore/internal/catalog"
	"github.com/ppiankov/ideascore/internal/evaluate"
	"github.com/ppiankov/ideascore/internal/model"
	"github.com/ppiankov/ideascore/internal/testutils"
	"github.com/ppiankov/ideascore/internal/worker"
)

func ptr(v float64) *float64 { return &v }

func marketTech(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load(catalog.RawCatalog{Categories: []catalog.RawCategory{
		{Key: "market", Name: "Market", Weight: ptr(2), Factors: []catalog.RawFactor{
			{Key: "A", Name: "Demand"},
			{Key: "B", Name: "Growth"},
		}},
		{Key: "tech", Name: "Tech", Weight: ptr(1), Factors: []catalog.RawFactor{
			{Key: "C", Name: "Feasibility"},
		}},
	}})
	require.NoError(t, err)
	return c
}

var fixed = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newPipeline(t *testing.T, oracle evaluate.Oracle) *Pipeline {
	t.Helper()
	ev := evaluate.NewEvaluator(oracle, evaluate.WithRetry(evaluate.RetryConfig{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
	}))
	return NewPipeline(marketTech(t), ev, WithClock(func() time.Time { return fixed }))
}

func idea(id string) model.IdeaInput {
	return model.IdeaInput{ID: id, Idea: model.IdeaContext{Title: "Idea " + id, Description: "d"}}
}

func TestScoreIdea_FullCoverage(t *testing.T) {
	oracle := testutils.NewScriptedOracle(map[string]float64{"A": 80, "B": 60, "C": 90})
	p := newPipeline(t, oracle)

	r, err := p.ScoreIdea(context.Background(), idea("x"))
	require.NoError(t, err)

	assert.Equal(t, 2, oracle.Calls(), "one oracle call per category")
	require.Len(t, r.Categories, 2)
	assert.InDelta(t, 70, r.Categories[0].Score.Value, 1e-9)
	assert.InDelta(t, 90, r.Categories[1].Score.Value, 1e-9)
	assert.InDelta(t, 76.6667, r.Overall.Value, 1e-3)
	assert.InDelta(t, 100, r.Confidence, 1e-9)
	assert.Equal(t, "Idea x", r.Title)
	assert.Equal(t, fixed, r.ScoredAt)
	assert.Empty(t, r.OracleErrors)
}

func TestScoreIdea_PartialCoverage(t *testing.T) {
	oracle := testutils.NewScriptedOracle(map[string]float64{"A": 80, "C": 90})
	r, err := newPipeline(t, oracle).ScoreIdea(context.Background(), idea("x"))
	require.NoError(t, err)

	assert.InDelta(t, 80, r.Categories[0].Score.Value, 1e-9)
	assert.InDelta(t, 83.3333, r.Overall.Value, 1e-3)
	assert.InDelta(t, 66.6667, r.Confidence, 1e-3)
	assert.Equal(t, []string{"B"}, r.Unscored)
}

func TestScoreIdea_OracleFailureDegradesToUnscored(t *testing.T) {
	// Tech always fails; market answers.
	var calls atomic.Int32
	oracle := evaluate.OracleFunc(func(ctx context.Context, req evaluate.Request) (*evaluate.Response, error) {
		calls.Add(1)
		if req.Category.Key == "tech" {
			return nil, errors.New("service unavailable")
		}
		return &evaluate.Response{Scores: map[string]evaluate.OracleScore{
			"A": {Score: 50}, "B": {Score: 70},
		}}, nil
	})

	r, err := newPipeline(t, oracle).ScoreIdea(context.Background(), idea("x"))
	require.NoError(t, err)

	assert.Equal(t, int32(4), calls.Load(), "market once, tech three times")
	assert.InDelta(t, 60, r.Overall.Value, 1e-9)
	assert.False(t, r.Categories[1].Score.Valid)
	assert.Equal(t, []string{"C"}, r.Unscored)
	require.Len(t, r.OracleErrors, 1)
	assert.Contains(t, r.OracleErrors[0], "category tech")
}

func TestScoreIdea_AllFailedIsUndefined(t *testing.T) {
	oracle := testutils.NewScriptedOracle(nil)
	oracle.FailAlways = true

	r, err := newPipeline(t, oracle).ScoreIdea(context.Background(), idea("x"))
	require.NoError(t, err)
	assert.False(t, r.Overall.Valid)
	assert.Equal(t, 0.0, r.Confidence)
	assert.Len(t, r.OracleErrors, 2)
}

func TestScoreIdea_WaitsForEveryCategory(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	oracle := evaluate.OracleFunc(func(ctx context.Context, req evaluate.Request) (*evaluate.Response, error) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		scores := map[string]evaluate.OracleScore{}
		for _, f := range req.Factors {
			scores[f.Key] = evaluate.OracleScore{Score: 50}
		}
		return &evaluate.Response{Scores: scores}, nil
	})

	r, err := newPipeline(t, oracle).ScoreIdea(context.Background(), idea("x"))
	require.NoError(t, err)

	assert.Equal(t, int32(0), inFlight.Load())
	assert.Equal(t, int32(2), maxInFlight.Load(), "categories should be evaluated concurrently")
	assert.InDelta(t, 100, r.Confidence, 1e-9)
}

func TestScoreIdea_Cancelled(t *testing.T) {
	oracle := testutils.NewScriptedOracle(map[string]float64{"A": 1, "B": 1, "C": 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := newPipeline(t, oracle).ScoreIdea(ctx, idea("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, r.Overall.Valid)
}

func TestScoreBatch_RanksAndNormalizes(t *testing.T) {
	oracle := testutils.NewScriptedOracle(nil)
	oracle.ByIdea = map[string]map[string]float64{
		"hi":   {"A": 80, "B": 60, "C": 90},
		"lo":   {"A": 40, "B": 40, "C": 40},
		"tie":  {"A": 40, "B": 40, "C": 40},
		"none": {},
	}

	var seen atomic.Int32
	out := newPipeline(t, oracle).ScoreBatch(context.Background(),
		[]model.IdeaInput{idea("lo"), idea("none"), idea("hi"), idea("tie")}, 2,
		func(*worker.ScoreResult) { seen.Add(1) })

	assert.Equal(t, int32(4), seen.Load())
	assert.Empty(t, out.Failed)

	ranking := out.Report.Ranking
	require.Len(t, ranking.Ranked, 3)
	assert.Equal(t, "hi", ranking.Ranked[0].Result.IdeaID)
	assert.Equal(t, 1, ranking.Ranked[0].Rank)
	assert.InDelta(t, 100, ranking.Ranked[0].Result.Normalized.Value, 1e-9)

	assert.Equal(t, "lo", ranking.Ranked[1].Result.IdeaID)
	assert.Equal(t, 2, ranking.Ranked[1].Rank)
	assert.Equal(t, 2, ranking.Ranked[2].Rank)
	assert.InDelta(t, 0, ranking.Ranked[2].Result.Normalized.Value, 1e-9)
	assert.InDelta(t, 66.6667, ranking.Ranked[2].Percentile, 1e-3)

	require.Len(t, ranking.Unrankable, 1)
	assert.Equal(t, "none", ranking.Unrankable[0].IdeaID)

	assert.Equal(t, 3, out.Report.CatalogFactors)
	assert.Equal(t, "scripted", out.Report.Oracle)
	assert.Equal(t, model.NormalizationCaveat, out.Report.NormalizationCaveat)
}

func TestRenderer_Summary(t *testing.T) {
	oracle := testutils.NewScriptedOracle(nil)
	oracle.ByIdea = map[string]map[string]float64{
		"a": {"A": 80, "B": 60, "C": 90},
		"b": {},
	}
	out := newPipeline(t, oracle).ScoreBatch(context.Background(), []model.IdeaInput{idea("a"), idea("b")}, 1, nil)

	r := &Renderer{Precision: 2, Verbose: true}
	var buf bytes.Buffer
	require.NoError(t, r.RenderSummary(&buf, out.Report))

	text := buf.String()
	assert.Contains(t, text, "76.67")
	assert.Contains(t, text, "100% high")
	assert.Contains(t, text, "unscored")
	assert.Contains(t, text, model.NormalizationCaveat)
	assert.Contains(t, text, "Unscored factors: A, B, C")
}

func TestRenderer_JSON(t *testing.T) {
	oracle := testutils.NewScriptedOracle(map[string]float64{"C": 50})
	out := newPipeline(t, oracle).ScoreBatch(context.Background(), []model.IdeaInput{idea("a")}, 1, nil)

	path := filepath.Join(t.TempDir(), "report.json")
	r := &Renderer{Precision: 2}
	require.NoError(t, r.WriteJSON(out.Report, path))

	var buf bytes.Buffer
	require.NoError(t, r.RenderJSON(&buf, out.Report))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	ranked := decoded["ranking"].(map[string]any)["ranked"].([]any)
	require.Len(t, ranked, 1)
	categories := ranked[0].(map[string]any)["result"].(map[string]any)["categories"].([]any)
	assert.Nil(t, categories[0].(map[string]any)["score"], "unscored category must encode as null")
}

func TestRenderer_Catalog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Renderer{}).RenderCatalog(&buf, marketTech(t)))
	assert.Contains(t, buf.String(), "Feasibility")
	assert.Contains(t, buf.String(), "2 categories, 3 factors")
}
