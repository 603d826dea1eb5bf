package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"tickflow/internal/observability"
	"tickflow/internal/pipeline"
)

// Generator produces report artifacts from pipeline results.
type Generator struct {
	outputDir string
	now       func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator writing into outputDir.
func NewGenerator(outputDir string) *Generator {
	return &Generator{
		outputDir: outputDir,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report from one pipeline result.
func (g *Generator) Generate(result *pipeline.Result) *Report {
	return &Report{
		GeneratedAt:   g.now(),
		Symbol:        result.Symbol,
		Day:           result.Date,
		Summary:       result.Summary,
		Flags:         result.Flags,
		InferredRatio: result.InferredRatio,
		Outcome:       result.Outcome,
		AuctionTrades: len(result.Auction),
		LargeOrders:   len(result.LargeOrders),
		Bars:          result.Bars,
		Anomalies:     result.Anomalies,
	}
}

// Write renders the report to disk: one Markdown summary plus one CSV per
// bar width. Returns the paths written.
func (g *Generator) Write(report *Report) ([]string, error) {
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	prefix := fmt.Sprintf("%s_%s", report.Symbol, report.Day.Format("2006-01-02"))

	var written []string

	mdPath := filepath.Join(g.outputDir, prefix+"_summary.md")
	if err := os.WriteFile(mdPath, []byte(RenderMarkdown(report)), 0o644); err != nil {
		return nil, fmt.Errorf("write markdown report: %w", err)
	}
	written = append(written, mdPath)

	widths := make([]int, 0, len(report.Bars))
	for w := range report.Bars {
		widths = append(widths, w)
	}
	sort.Ints(widths)

	for _, w := range widths {
		csvPath := filepath.Join(g.outputDir, fmt.Sprintf("%s_bars_%dm.csv", prefix, w))
		if err := os.WriteFile(csvPath, []byte(RenderBarsCSV(report.Bars[w])), 0o644); err != nil {
			return nil, fmt.Errorf("write bars csv: %w", err)
		}
		written = append(written, csvPath)
	}

	observability.DefaultMetrics.ReportsGenerated.Inc()
	return written, nil
}
