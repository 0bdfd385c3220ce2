package evaluate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppiankov/ideascore/internal/catalog"
	"github.com/ppiankov/ideascore/internal/logging"
	"github.com/ppiankov/ideascore/internal/model"
)

const (
	minScore = 0.0
	maxScore = 100.0
)

// Evaluation is the validated outcome of one request.
type Evaluation struct {
	Scores    []model.FactorScore // Accepted scores, in request order
	Unscored  []string            // Requested keys with no usable score
	Reasoning string
	Attempts  int
	Err       error // *OracleUnavailableError when every factor was lost to failures
}

// Evaluator validates oracle output and applies bounded retry.
// It is safe for concurrent use.
type Evaluator struct {
	oracle      Oracle
	retry       RetryConfig
	callTimeout time.Duration
	logger      *slog.Logger
	tracer      trace.Tracer
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRetry overrides the retry policy. Negative retry counts mean no retries.
func WithRetry(cfg RetryConfig) Option {
	return func(e *Evaluator) {
		cfg.MaxRetries = max(cfg.MaxRetries, 0)
		e.retry = cfg
	}
}

// WithCallTimeout bounds each individual oracle attempt.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Evaluator) { e.callTimeout = d }
}

// WithLogger sets the logger; the default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTracer replaces the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(e *Evaluator) { e.tracer = t }
}

// NewEvaluator wraps an oracle.
func NewEvaluator(oracle Oracle, opts ...Option) *Evaluator {
	e := &Evaluator{
		oracle: oracle,
		retry:  DefaultRetryConfig(),
		logger: logging.Discard(),
		tracer: otel.Tracer("github.com/ppiankov/ideascore/internal/evaluate"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OracleName returns the wrapped oracle's name.
func (e *Evaluator) OracleName() string {
	return e.oracle.Name()
}

// Evaluate scores an arbitrary set of factors for one idea.
func (e *Evaluator) Evaluate(ctx context.Context, input model.IdeaInput, factors []catalog.FactorDefinition) Evaluation {
	return e.Run(ctx, BuildRequest(input, factors))
}

// EvaluateCategory scores every factor of one category in a single oracle call.
func (e *Evaluator) EvaluateCategory(ctx context.Context, input model.IdeaInput, cat catalog.CategoryDefinition) Evaluation {
	return e.Run(ctx, BuildCategoryRequest(input, cat))
}

// Run sends req to the oracle and validates the response.
// It never returns an error directly; failures end up in Evaluation.Err.
func (e *Evaluator) Run(ctx context.Context, req Request) Evaluation {
	attrs := []attribute.KeyValue{
		attribute.String("idea.id", req.IdeaID),
		attribute.String("oracle.name", e.oracle.Name()),
		attribute.Int("factors.requested", len(req.Factors)),
	}
	if req.Category != nil {
		attrs = append(attrs, attribute.String("category.key", req.Category.Key))
	}
	ctx, span := e.tracer.Start(ctx, "evaluate.Run", trace.WithAttributes(attrs...))
	defer span.End()

	if len(req.Factors) == 0 {
		return Evaluation{}
	}

	resp, attempts, err := e.call(ctx, req)
	if err == nil && resp == nil {
		err = ErrEmptyResponse
	}
	if err != nil {
		span.RecordError(err)
		e.logger.Warn("oracle call failed, factors left unscored",
			"idea", req.IdeaID,
			"oracle", e.oracle.Name(),
			"attempts", attempts,
			"factors", len(req.Factors),
			"error", err)
		return Evaluation{
			Unscored: req.FactorKeys(),
			Attempts: attempts,
			Err: &OracleUnavailableError{
				Oracle:   e.oracle.Name(),
				Attempts: attempts,
				Err:      err,
			},
		}
	}

	ev := e.validate(req, resp)
	ev.Attempts = attempts
	span.SetAttributes(
		attribute.Int("factors.scored", len(ev.Scores)),
		attribute.Int("factors.unscored", len(ev.Unscored)),
		attribute.Int("oracle.attempts", attempts),
	)
	return ev
}

// call performs the first attempt plus up to MaxRetries retries.
func (e *Evaluator) call(ctx context.Context, req Request) (*Response, int, error) {
	var lastErr error
	attempts := 0
	maxRetries := max(e.retry.MaxRetries, 0)
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return nil, attempts, fmt.Errorf("cancelled: %w", lastErr)
		}

		attempts++
		resp, err := e.attempt(ctx, req, attempt)
		if err == nil {
			return resp, attempts, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, attempts, fmt.Errorf("cancelled: %w", err)
		}
		if attempt == maxRetries || !shouldRetry(err) {
			break
		}

		delay := e.retry.delay(attempt)
		e.logger.Debug("retrying oracle call",
			"idea", req.IdeaID,
			"oracle", e.oracle.Name(),
			"attempt", attempts,
			"delay", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, attempts, fmt.Errorf("cancelled during retry: %w", lastErr)
		case <-timer.C:
		}
	}
	return nil, attempts, lastErr
}

func (e *Evaluator) attempt(ctx context.Context, req Request, n int) (resp *Response, err error) {
	ctx, span := e.tracer.Start(ctx, "evaluate.oracle_attempt",
		trace.WithAttributes(attribute.Int("attempt", n+1)))
	defer span.End()

	if e.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.callTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("oracle panicked: %v", r)
		}
		if err != nil {
			span.RecordError(err)
		}
	}()

	resp, err = e.oracle.Score(ctx, req)
	if err == nil && resp == nil {
		err = ErrEmptyResponse
	}
	return resp, err
}

// validate applies clamping, drops unknown keys and records missing ones.
func (e *Evaluator) validate(req Request, resp *Response) Evaluation {
	ev := Evaluation{Reasoning: resp.Reasoning}

	requested := make(map[string]struct{}, len(req.Factors))
	for _, f := range req.Factors {
		requested[f.Key] = struct{}{}

		raw, ok := resp.Scores[f.Key]
		if !ok || math.IsNaN(raw.Score) {
			ev.Unscored = append(ev.Unscored, f.Key)
			continue
		}

		fs := model.FactorScore{
			FactorKey: f.Key,
			Score:     raw.Score,
			Rationale: raw.Rationale,
		}
		if raw.Score < minScore || raw.Score > maxScore {
			fs.Clamped = true
			fs.RawScore = raw.Score
			fs.Score = math.Max(minScore, math.Min(maxScore, raw.Score))
			e.logger.Debug("clamped out-of-range score",
				"idea", req.IdeaID, "factor", f.Key, "raw", raw.Score, "clamped", fs.Score)
		}
		ev.Scores = append(ev.Scores, fs)
	}

	var unknown []string
	for key := range resp.Scores {
		if _, ok := requested[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		e.logger.Debug("dropped unknown factor keys", "idea", req.IdeaID, "keys", unknown)
	}
	return ev
}

// IsUnavailable reports whether ev lost its factors to oracle failure.
func (ev Evaluation) IsUnavailable() bool {
	return errors.Is(ev.Err, ErrOracleUnavailable)
}
