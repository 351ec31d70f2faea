package pipeline

import (
	"context"
	"fmt"
	"log"

	"filmlens/internal/anomaly"
	"filmlens/internal/archive"
	"filmlens/internal/commentary"
	"filmlens/internal/config"
	"filmlens/internal/merge"
	"filmlens/internal/report"
	"filmlens/internal/stats"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds everything produced by one analysis run. It is built
// fresh per archive and never mutated afterwards.
type Result struct {
	Label          string
	Steps          []StepResult
	Tables         *archive.TableSet
	Films          []*merge.Film
	Anomaly        anomaly.Summary
	Debug          anomaly.Debug
	Stats          *stats.StatPack
	ReportMarkdown string
	Commentary     string
}

// Pipeline runs the read -> merge -> summarize -> stats -> report
// sequence over one uploaded archive. Reading is the only step that can
// fail; everything after it is total over well-formed tables.
type Pipeline struct {
	cfg        *config.Config
	summarizer *anomaly.Summarizer
	generator  *commentary.Generator
}

// New creates a pipeline from configuration, including the optional
// commentary provider.
func New(cfg *config.Config) *Pipeline {
	provider := commentary.CreateProvider(cfg.Commentary)
	return NewWithProvider(cfg, provider)
}

// NewWithProvider creates a pipeline with an explicit commentary
// provider (nil disables commentary). Tests inject mocks here.
func NewWithProvider(cfg *config.Config, provider commentary.Provider) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		summarizer: anomaly.New(cfg.Analysis, nil),
		generator:  commentary.NewGenerator(provider, cfg.Commentary),
	}
}

// Run executes the full pipeline over raw archive bytes.
func (p *Pipeline) Run(ctx context.Context, data []byte, label string) *Result {
	r := &Result{Label: label}

	log.Println("Step 1/5: Reading archive...")
	ts, err := archive.Read(data)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Read", Err: err})
		return r
	}
	r.Tables = ts
	r.Steps = append(r.Steps, StepResult{
		Name:    "Read",
		Summary: fmt.Sprintf("Parsed %d table(s), %d row(s)", len(ts.Tables), totalRows(ts)),
	})

	log.Println("Step 2/5: Merging records...")
	r.Films = merge.Merge(ts)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Merge",
		Summary: fmt.Sprintf("Merged into %d film record(s)", len(r.Films)),
	})

	log.Println("Step 3/5: Summarizing anomalies...")
	r.Anomaly, r.Debug = p.summarizer.Summarize(ts, r.Films)
	spike := "no import spike"
	if r.Anomaly.ImportSpikeDetected {
		spike = fmt.Sprintf("import spike on %s", r.Anomaly.BusiestImportDay)
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Summarize",
		Summary: fmt.Sprintf("%s; ratings hit rate %.0f%%", spike, r.Debug.RatingsHitRate*100),
	})

	log.Println("Step 4/5: Computing statistics...")
	r.Stats = stats.Compute(r.Films, label, p.cfg.Analysis)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Stats",
		Summary: fmt.Sprintf("%d watched, %d rated, longest streak %d", r.Stats.Totals.Watched, r.Stats.Totals.Rated, r.Stats.Timeline.LongestStreak),
	})

	log.Println("Step 5/5: Composing report...")
	r.ReportMarkdown = report.Compose(r.Stats, r.Anomaly, r.Debug)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Report",
		Summary: fmt.Sprintf("Report composed (%d characters)", len(r.ReportMarkdown)),
	})

	if p.generator.Enabled() {
		log.Println("Generating commentary...")
		text, err := p.generator.Generate(ctx, r.Films, r.Stats, r.Anomaly)
		if err != nil {
			r.Steps = append(r.Steps, StepResult{Name: "Commentary", Err: err})
		} else {
			r.Commentary = text
			r.Steps = append(r.Steps, StepResult{
				Name:    "Commentary",
				Summary: fmt.Sprintf("Commentary generated (%d characters)", len(text)),
			})
		}
	} else {
		r.Steps = append(r.Steps, StepResult{Name: "Commentary", Summary: "Skipped (no provider configured)"})
	}

	return r
}

// Failed reports whether any step errored.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

func totalRows(ts *archive.TableSet) int {
	n := 0
	for _, t := range ts.Tables {
		n += len(t.Rows)
	}
	return n
}
