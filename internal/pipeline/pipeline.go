// Package pipeline scores ideas end to end: one oracle call per category,
// aggregation once every call has settled, then batch normalization and ranking.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/ideascore/internal/catalog"
	"github.com/ppiankov/ideascore/internal/evaluate"
	"github.com/ppiankov/ideascore/internal/logging"
	"github.com/ppiankov/ideascore/internal/model"
	"github.com/ppiankov/ideascore/internal/rank"
	"github.com/ppiankov/ideascore/internal/score"
	"github.com/ppiankov/ideascore/internal/worker"
)

// Pipeline orchestrates scoring for one catalog and one oracle.
// It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	catalog         *catalog.Catalog
	evaluator       *evaluate.Evaluator
	scorer          *score.Scorer
	categoryWorkers int
	logger          *slog.Logger
	now             func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCategoryWorkers bounds concurrent oracle calls per idea.
func WithCategoryWorkers(n int) Option {
	return func(p *Pipeline) { p.categoryWorkers = n }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a pipeline.
func NewPipeline(cat *catalog.Catalog, evaluator *evaluate.Evaluator, opts ...Option) *Pipeline {
	p := &Pipeline{
		catalog:         cat,
		evaluator:       evaluator,
		scorer:          score.NewScorer(cat),
		categoryWorkers: 4,
		logger:          logging.Discard(),
		now:             func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Catalog returns the catalog the pipeline scores against.
func (p *Pipeline) Catalog() *catalog.Catalog {
	return p.catalog
}

// ScoreIdea evaluates every category concurrently and aggregates once all
// calls have finished. Oracle failures become unscored factors and are
// listed in OracleErrors. The only error returned is ctx's, in which case
// the partial result is still returned.
func (p *Pipeline) ScoreIdea(ctx context.Context, input model.IdeaInput) (model.IdeaScoreResult, error) {
	cats := p.catalog.Categories()
	evaluations := make([]evaluate.Evaluation, len(cats))

	var g errgroup.Group
	if p.categoryWorkers > 0 {
		g.SetLimit(p.categoryWorkers)
	}
	for i, cat := range cats {
		g.Go(func() error {
			evaluations[i] = p.evaluator.EvaluateCategory(ctx, input, cat)
			return nil
		})
	}
	_ = g.Wait()

	var factorScores []model.FactorScore
	var oracleErrors []string
	for i, ev := range evaluations {
		factorScores = append(factorScores, ev.Scores...)
		if ev.Err != nil {
			oracleErrors = append(oracleErrors, fmt.Sprintf("category %s: %v", cats[i].Key, ev.Err))
		}
	}

	result := p.scorer.Calculate(input.ID, factorScores)
	result.Title = input.Idea.Title
	result.ScoredAt = p.now()
	result.OracleErrors = oracleErrors

	p.logger.Info("idea scored",
		"idea", input.ID,
		"overall", result.Overall.String(),
		"confidence", result.Confidence,
		"unscored", len(result.Unscored),
		"oracle_errors", len(oracleErrors))

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("scoring %s interrupted: %w", input.ID, err)
	}
	return result, nil
}

// Finalize normalizes a settled batch and ranks it.
func (p *Pipeline) Finalize(results []model.IdeaScoreResult) model.Ranking {
	return rank.Rank(score.NormalizeBatch(results))
}

// BatchOutcome is the result of ScoreBatch.
type BatchOutcome struct {
	Report model.BatchReport
	Failed []*worker.ScoreResult // Ideas that did not finish scoring
}

// ScoreBatch scores inputs with up to workers ideas in flight, then finalizes.
// Ideas interrupted by cancellation are left out of the ranking and reported in Failed.
func (p *Pipeline) ScoreBatch(ctx context.Context, inputs []model.IdeaInput, workers int, onResult func(*worker.ScoreResult)) BatchOutcome {
	processor := worker.NewBatchProcessor(p, workers)
	if onResult != nil {
		processor.OnResult(onResult)
	}

	var outcome BatchOutcome
	results := make([]model.IdeaScoreResult, 0, len(inputs))
	for _, r := range processor.ProcessIdeas(ctx, inputs) {
		if r.Error != nil {
			outcome.Failed = append(outcome.Failed, r)
			continue
		}
		results = append(results, r.Result)
	}

	outcome.Report = model.BatchReport{
		GeneratedAt:         p.now(),
		CatalogFactors:      p.catalog.TotalFactors(),
		Oracle:              p.evaluator.OracleName(),
		NormalizationCaveat: model.NormalizationCaveat,
		Ranking:             p.Finalize(results),
	}
	return outcome
}
