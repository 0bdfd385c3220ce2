// Package metrics exposes Prometheus instrumentation for oracle calls and
// scoring runs.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ppiankov/ideascore/internal/evaluate"
	"github.com/ppiankov/ideascore/internal/model"
)

// OracleMetrics holds the collectors for one registry.
type OracleMetrics struct {
	calls      *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	ideas      *prometheus.CounterVec
	unscored   prometheus.Counter
	confidence prometheus.Histogram
	reg        prometheus.Registerer
}

// NewOracleMetrics registers every collector with reg.
// A nil reg uses the default Prometheus registry.
func NewOracleMetrics(reg prometheus.Registerer) *OracleMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &OracleMetrics{
		calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ideascore_oracle_calls_total",
				Help: "Oracle calls by outcome.",
			},
			[]string{"oracle", "status"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ideascore_oracle_call_duration_seconds",
				Help:    "Latency of individual oracle calls.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"oracle"},
		),
		ideas: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ideascore_ideas_scored_total",
				Help: "Ideas scored, split by whether an overall score was defined.",
			},
			[]string{"rankable"},
		),
		unscored: factory.NewCounter(prometheus.CounterOpts{
			Name: "ideascore_unscored_factors_total",
			Help: "Factors left without a score across all ideas.",
		}),
		confidence: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ideascore_confidence_score",
			Help:    "Distribution of per-idea coverage confidence.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		reg: reg,
	}
}

// ObserveResult records one finished idea.
func (m *OracleMetrics) ObserveResult(r model.IdeaScoreResult) {
	rankable := "false"
	if r.Rankable() {
		rankable = "true"
	}
	m.ideas.WithLabelValues(rankable).Inc()
	m.unscored.Add(float64(len(r.Unscored)))
	m.confidence.Observe(r.Confidence)
}

// RegisterCacheStats exports cumulative cache hits and misses read from stats.
func (m *OracleMetrics) RegisterCacheStats(stats func() (hits, misses int64)) error {
	hits := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "ideascore_cache_hits_total",
		Help: "Oracle response cache hits.",
	}, func() float64 {
		h, _ := stats()
		return float64(h)
	})
	misses := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "ideascore_cache_misses_total",
		Help: "Oracle response cache misses.",
	}, func() float64 {
		_, mi := stats()
		return float64(mi)
	})
	return errors.Join(m.reg.Register(hits), m.reg.Register(misses))
}

// InstrumentOracle counts and times every call to next.
func (m *OracleMetrics) InstrumentOracle(next evaluate.Oracle) evaluate.Oracle {
	return &instrumentedOracle{next: next, metrics: m}
}

type instrumentedOracle struct {
	next    evaluate.Oracle
	metrics *OracleMetrics
}

func (o *instrumentedOracle) Name() string {
	return o.next.Name()
}

func (o *instrumentedOracle) Score(ctx context.Context, req evaluate.Request) (*evaluate.Response, error) {
	name := o.next.Name()
	start := time.Now()

	resp, err := o.next.Score(ctx, req)

	o.metrics.latency.WithLabelValues(name).Observe(time.Since(start).Seconds())
	o.metrics.calls.WithLabelValues(name, callStatus(err)).Inc()
	return resp, err
}

func callStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
