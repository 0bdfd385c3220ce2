package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/ppiankov/ideascore/internal/catalog"
	"github.com/ppiankov/ideascore/internal/model"
	"github.com/ppiankov/ideascore/internal/rank"
	"github.com/ppiankov/ideascore/internal/score"
)

const maxTitleWidth = 40

// Renderer writes batch reports as JSON and terminal tables.
type Renderer struct {
	Precision int
	Top       int  // Rows shown in the summary; 0 shows all
	Color     bool // ANSI colors in tables
	Verbose   bool // Per-category breakdown
}

// NewRenderer creates a renderer from output configuration.
func NewRenderer(cfg model.OutputConfig) *Renderer {
	return &Renderer{
		Precision: cfg.Precision,
		Top:       cfg.Top,
		Color:     cfg.Color,
		Verbose:   cfg.Verbose,
	}
}

// RenderJSON writes the report as indented JSON.
func (r *Renderer) RenderJSON(w io.Writer, report model.BatchReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteJSON writes the report to path.
func (r *Renderer) WriteJSON(report model.BatchReport, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := r.RenderJSON(f, report); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (r *Renderer) num(s model.NullScore) string {
	v, ok := s.Float()
	if !ok {
		return "unscored"
	}
	return strconv.FormatFloat(v, 'f', r.Precision, 64)
}

func (r *Renderer) colorize(c *color.Color) func(a ...interface{}) string {
	if !r.Color {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return c.SprintFunc()
}

// RenderSummary prints the ranking table. Confidence is always shown next to
// the overall score, and normalized scores carry the batch caveat.
func (r *Renderer) RenderSummary(w io.Writer, report model.BatchReport) error {
	green := r.colorize(color.New(color.FgGreen))
	yellow := r.colorize(color.New(color.FgYellow))
	red := r.colorize(color.New(color.FgRed))
	grey := r.colorize(color.New(color.FgHiBlack))

	confidence := func(c float64) string {
		s := fmt.Sprintf("%.0f%% %s", c, score.ConfidenceLevel(c))
		switch score.ConfidenceLevel(c) {
		case "high":
			return green(s)
		case "medium":
			return yellow(s)
		default:
			return red(s)
		}
	}

	table := tablewriter.NewWriter(w)
	headers := []string{"Rank", "Idea", "Overall", "Confidence", "Normalized*", "Percentile"}
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, ri := range rank.Top(report.Ranking, r.Top) {
		data = append(data, []string{
			strconv.Itoa(ri.Rank),
			truncate(label(ri.Result), maxTitleWidth),
			r.num(ri.Result.Overall),
			confidence(ri.Result.Confidence),
			r.num(ri.Result.Normalized),
			strconv.FormatFloat(ri.Percentile, 'f', 1, 64),
		})
	}
	for _, u := range report.Ranking.Unrankable {
		data = append(data, []string{
			"-",
			truncate(label(u), maxTitleWidth),
			grey("unscored"),
			confidence(u.Confidence),
			grey("unscored"),
			"-",
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "* %s\n", report.NormalizationCaveat)
	fmt.Fprintf(w, "Ranked %d idea(s), %d unrankable, %d catalog factors, oracle %s\n",
		len(report.Ranking.Ranked), len(report.Ranking.Unrankable), report.CatalogFactors, report.Oracle)

	if r.Verbose {
		for _, ri := range rank.Top(report.Ranking, r.Top) {
			if err := r.renderCategories(w, ri.Result); err != nil {
				return err
			}
		}
		for _, u := range report.Ranking.Unrankable {
			if err := r.renderCategories(w, u); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) renderCategories(w io.Writer, result model.IdeaScoreResult) error {
	fmt.Fprintf(w, "\n%s\n", label(result))

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Category", "Score", "Scored", "Defined"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, c := range result.Categories {
		data = append(data, []string{
			c.CategoryKey,
			r.num(c.Score),
			strconv.Itoa(c.CountScored),
			strconv.Itoa(c.CountDefined),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(result.Unscored) > 0 {
		fmt.Fprintf(w, "Unscored factors: %s\n", strings.Join(result.Unscored, ", "))
	}
	for _, e := range result.OracleErrors {
		fmt.Fprintf(w, "Oracle error: %s\n", e)
	}
	return nil
}

// RenderCatalog prints every category and factor with its weight.
func (r *Renderer) RenderCatalog(w io.Writer, c *catalog.Catalog) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Category", "Weight", "Factor", "Name", "Factor Weight"})

	var data [][]string
	for _, cat := range c.Categories() {
		for i, f := range cat.Factors {
			catCol, weightCol := "", ""
			if i == 0 {
				catCol = cat.Name
				weightCol = strconv.FormatFloat(cat.Weight, 'g', -1, 64)
			}
			data = append(data, []string{
				catCol,
				weightCol,
				f.Key,
				f.Name,
				strconv.FormatFloat(f.Weight, 'g', -1, 64),
			})
		}
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d categories, %d factors\n", c.Len(), c.TotalFactors())
	return nil
}

func label(r model.IdeaScoreResult) string {
	if r.Title == "" {
		return r.IdeaID
	}
	return r.Title + " (" + r.IdeaID + ")"
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
