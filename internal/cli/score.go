package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/ideascore/internal/cache"
	"github.com/ppiankov/ideascore/internal/catalog"
	"github.com/ppiankov/ideascore/internal/evaluate"
	"github.com/ppiankov/ideascore/internal/llm"
	"github.com/ppiankov/ideascore/internal/logging"
	"github.com/ppiankov/ideascore/internal/metrics"
	"github.com/ppiankov/ideascore/internal/model"
	"github.com/ppiankov/ideascore/internal/pipeline"
	"github.com/ppiankov/ideascore/internal/worker"
)

var (
	outputPath string
	jsonOutput bool
	noCache    bool
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score <ideas-file>",
	Short: "Score and rank a batch of ideas",
	Long: `Score every idea in a JSON or YAML file against the factor catalog,
then normalize and rank the batch.

The ideas file is either a list of ideas or an object with an "ideas" list:

  ideas:
    - id: kitchen-share
      idea:
        title: Shared kitchen booking
        description: Rent idle restaurant kitchens by the hour
      research:
        notes:
          - type: competitor
            summary: Two regional players, no national brand

Example:
  ideascore score ideas.yaml
  ideascore score ideas.yaml --provider openai --model gpt-4o-mini --output report.json
  ideascore score ideas.json --workers 8 --top 10 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	flags := scoreCmd.Flags()
	flags.StringVarP(&outputPath, "output", "o", "", "write the JSON report to this file")
	flags.BoolVar(&jsonOutput, "json", false, "print the JSON report to stdout instead of the table")
	flags.BoolVar(&noCache, "no-cache", false, "disable the oracle response cache")

	flags.String("catalog", "", "catalog file (default: configs/scoring_factors.yaml)")
	flags.String("provider", "", "LLM provider (openai, anthropic, gemini, ollama)")
	flags.String("model", "", "LLM model name")
	flags.String("base-url", "", "LLM API base URL")
	flags.Int("workers", 0, "ideas scored concurrently")
	flags.Int("category-workers", 0, "oracle calls in flight per idea")
	flags.Float64("rps", 0, "oracle requests per second (0 = unlimited)")
	flags.Int("top", 0, "only show the top N ideas (0 = all)")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address during the run")

	bind := map[string]string{
		"catalog.path":                      "catalog",
		"llm.provider":                      "provider",
		"llm.model":                         "model",
		"llm.base_url":                      "base-url",
		"concurrency.workers":               "workers",
		"concurrency.category_workers":      "category-workers",
		"rate_limiting.requests_per_second": "rps",
		"output.top":                        "top",
		"metrics.addr":                      "metrics-addr",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		cfg.Output.Color = false
	}

	logger, err := logging.New(os.Stderr, cfg.Logging)
	if err != nil {
		return err
	}

	// Catalog problems are fatal before any oracle call is made
	cat, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", cfg.Catalog.Path, err)
	}

	inputs, err := worker.ReadIdeasFromFile(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	om := metrics.NewOracleMetrics(reg)

	evaluator, err := buildEvaluator(ctx, cfg, om, logger)
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		if _, err := metrics.Serve(ctx, cfg.Metrics.Addr, reg, logger); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
	}

	p := pipeline.NewPipeline(cat, evaluator,
		pipeline.WithCategoryWorkers(cfg.Concurrency.CategoryWorkers),
		pipeline.WithLogger(logger),
	)

	progress := cmd.ErrOrStderr()
	fmt.Fprintf(progress, "⚙️  Scoring %d ideas against %d factors with %s (%d workers)\n",
		len(inputs), cat.TotalFactors(), evaluator.OracleName(), cfg.Concurrency.Workers)

	outcome := p.ScoreBatch(ctx, inputs, cfg.Concurrency.Workers, func(r *worker.ScoreResult) {
		if r.Error != nil {
			fmt.Fprintf(progress, "✗ %s: %v\n", r.IdeaID, r.Error)
			return
		}
		om.ObserveResult(r.Result)
		fmt.Fprintf(progress, "✓ %s (overall: %s, confidence: %.0f%%)\n",
			r.IdeaID, r.Result.Overall, r.Result.Confidence)
	})

	if err := writeReport(cmd.OutOrStdout(), cfg.Output, outcome.Report); err != nil {
		return err
	}

	if len(outcome.Failed) > 0 {
		fmt.Fprintf(progress, "\n%d of %d ideas did not finish scoring\n", len(outcome.Failed), len(inputs))
		if len(outcome.Failed) == len(inputs) {
			return fmt.Errorf("no idea finished scoring: %w", outcome.Failed[0].Error)
		}
	}
	return ctx.Err()
}

// buildEvaluator wires provider, instrumentation, rate limiting and caching
// around the evaluator. Cache hits skip both the limiter and the metrics.
func buildEvaluator(ctx context.Context, cfg *model.Config, om *metrics.OracleMetrics, logger *slog.Logger) (*evaluate.Evaluator, error) {
	llmConfig := llm.ConfigFromModel(cfg.LLM)
	provider, err := llm.NewProvider(ctx, llmConfig)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}

	var oracle evaluate.Oracle = llm.NewOracle(provider, llmConfig, logger)
	oracle = om.InstrumentOracle(oracle)

	oracle = evaluate.NewRateLimitedOracle(oracle, newOracleLimiter(cfg, oracle.Name()))

	if cfg.Cache.Enabled {
		layered := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		if err := om.RegisterCacheStats(layered.Stats); err != nil {
			return nil, fmt.Errorf("register cache metrics: %w", err)
		}
		oracle = evaluate.NewCachedOracle(oracle, layered, cfg.Cache.DiskTTL, logger)
	}

	return evaluate.NewEvaluator(oracle,
		evaluate.WithRetry(evaluate.RetryConfig{
			MaxRetries:    cfg.Oracle.MaxRetries,
			BaseDelay:     cfg.Oracle.BaseDelay,
			MaxDelay:      cfg.Oracle.MaxDelay,
			JitterPercent: cfg.Oracle.JitterPercent,
		}),
		evaluate.WithCallTimeout(cfg.Oracle.CallTimeout),
		evaluate.WithLogger(logger),
	), nil
}

// newOracleLimiter throttles hosted providers. A local Ollama runs unthrottled.
func newOracleLimiter(cfg *model.Config, oracleName string) *worker.Limiter {
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	if strings.EqualFold(cfg.LLM.Provider, "ollama") {
		limiter.SetRate(oracleName, 0, 0)
	}
	return limiter
}

func writeReport(stdout io.Writer, out model.OutputConfig, report model.BatchReport) error {
	renderer := pipeline.NewRenderer(out)

	if outputPath != "" {
		if err := renderer.WriteJSON(report, outputPath); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if jsonOutput {
		return renderer.RenderJSON(stdout, report)
	}
	return renderer.RenderSummary(stdout, report)
}
