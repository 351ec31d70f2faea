package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"filmlens/internal/archive"
	"filmlens/internal/commentary"
	"filmlens/internal/config"
)

func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type stubProvider struct {
	response string
	err      error
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return s.response, s.err
}

func (s *stubProvider) IsConfigured() bool { return true }

func sampleArchive(t *testing.T) []byte {
	return buildArchive(t, map[string]string{
		"watched.csv": "Date,Name,Year\n2024-03-02,Heat,1995\n2024-03-02,Alien,1979\n",
		"ratings.csv": "Name,Year,Rating\nHeat,1995,4.5\n",
		"diary.csv":   "Name,Year,Watched Date\nHeat,1995,2024-03-01\n",
		"reviews.csv": "Name,Year,Review\nHeat,1995,Pacino and De Niro finally share a scene.\n",
	})
}

func TestRunFullPipeline(t *testing.T) {
	cfg := config.Default()
	p := NewWithProvider(cfg, nil)

	r := p.Run(context.Background(), sampleArchive(t), "export")
	if r.Failed() {
		t.Fatalf("pipeline failed: %+v", r.Steps)
	}

	wantSteps := []string{"Read", "Merge", "Summarize", "Stats", "Report", "Commentary"}
	if len(r.Steps) != len(wantSteps) {
		t.Fatalf("expected %d steps, got %d", len(wantSteps), len(r.Steps))
	}
	for i, name := range wantSteps {
		if r.Steps[i].Name != name {
			t.Errorf("step %d: expected %s, got %s", i, name, r.Steps[i].Name)
		}
	}

	if len(r.Films) != 2 {
		t.Errorf("expected 2 films, got %d", len(r.Films))
	}
	if r.Stats == nil || r.Stats.Totals.Watched != 2 || r.Stats.Totals.Rated != 1 {
		t.Errorf("unexpected totals %+v", r.Stats.Totals)
	}
	if !strings.Contains(r.ReportMarkdown, "# Film diary report: export") {
		t.Error("expected labeled report markdown")
	}
	if r.Commentary != "" {
		t.Error("expected no commentary without a provider")
	}
	if !strings.Contains(r.Steps[5].Summary, "Skipped") {
		t.Errorf("expected skipped commentary step, got %q", r.Steps[5].Summary)
	}
}

func TestRunMalformedArchiveAborts(t *testing.T) {
	p := NewWithProvider(config.Default(), nil)

	r := p.Run(context.Background(), []byte("not a zip"), "broken")
	if !r.Failed() {
		t.Fatal("expected failure on malformed archive")
	}
	if len(r.Steps) != 1 || r.Steps[0].Name != "Read" {
		t.Fatalf("expected the run to stop at Read, got %+v", r.Steps)
	}
	if !errors.Is(r.Steps[0].Err, archive.ErrMalformedArchive) {
		t.Errorf("expected ErrMalformedArchive, got %v", r.Steps[0].Err)
	}
	if r.Films != nil || r.Stats != nil {
		t.Error("no downstream results expected after a failed read")
	}
}

func TestRunWithCommentaryProvider(t *testing.T) {
	provider := &stubProvider{response: `{"commentary": "A tidy little diary."}`}
	p := NewWithProvider(config.Default(), provider)

	r := p.Run(context.Background(), sampleArchive(t), "export")
	if r.Failed() {
		t.Fatalf("pipeline failed: %+v", r.Steps)
	}
	if r.Commentary != "A tidy little diary." {
		t.Errorf("unexpected commentary %q", r.Commentary)
	}
}

func TestRunCommentaryErrorDoesNotFailAnalysis(t *testing.T) {
	provider := &stubProvider{err: errors.New("model unavailable")}
	p := NewWithProvider(config.Default(), provider)

	r := p.Run(context.Background(), sampleArchive(t), "export")
	if r.ReportMarkdown == "" {
		t.Fatal("expected report despite commentary failure")
	}
	last := r.Steps[len(r.Steps)-1]
	if last.Name != "Commentary" || last.Err == nil {
		t.Errorf("expected errored commentary step, got %+v", last)
	}
}

var _ commentary.Provider = (*stubProvider)(nil)
