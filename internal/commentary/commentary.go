// Package commentary generates an optional LLM-written blurb about a
// finished analysis. It only ever sees a bounded serialized summary,
// never raw rows, and it is explicitly told when day-level activity is
// an import artifact.
package commentary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"filmlens/internal/anomaly"
	"filmlens/internal/config"
	"filmlens/internal/merge"
	"filmlens/internal/stats"
)

const commentaryPrompt = `You are writing a short, friendly commentary on a person's film-watching statistics.

Here is the statistics summary as JSON:

%s
%s
Write 2-3 paragraphs: what stands out, what their taste looks like, one playful observation. No lists, no headings, no marketing tone.

Respond with ONLY this JSON:
{
    "commentary": "Your 2-3 paragraph commentary here."
}`

const importSpikeCaveat = `
IMPORTANT: importSpikeDetected is true. The rows clustered on the busiest
import day are a bulk import of old viewing history, not a real one-day
binge. Never describe that day as a binge or as real viewing behavior.
`

// Payload is the bounded summary serialized into the prompt.
type Payload struct {
	Label               string            `json:"label"`
	Totals              stats.Totals      `json:"totals"`
	MeanRating          *float64          `json:"meanRating,omitempty"`
	RatingStdDev        *float64          `json:"ratingStdDev,omitempty"`
	LongestStreak       int               `json:"longestStreak"`
	Badge               string            `json:"badge"`
	TopWords            []stats.WordCount `json:"topWords,omitempty"`
	ImportSpikeDetected bool              `json:"importSpikeDetected"`
	BusiestImportDay    string            `json:"busiestImportDay,omitempty"`
	Films               []string          `json:"films,omitempty"`
}

// Generator produces the commentary text.
type Generator struct {
	provider  Provider
	maxTokens int
	maxFilms  int
}

// NewGenerator creates a commentary generator. A nil provider disables it.
func NewGenerator(provider Provider, cfg config.Commentary) *Generator {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}
	maxFilms := cfg.MaxFilms
	if maxFilms <= 0 {
		maxFilms = 40
	}
	return &Generator{provider: provider, maxTokens: maxTokens, maxFilms: maxFilms}
}

// Enabled reports whether a provider is available.
func (g *Generator) Enabled() bool {
	return g.provider != nil && g.provider.IsConfigured()
}

// Generate builds the payload and asks the provider for commentary.
func (g *Generator) Generate(ctx context.Context, films []*merge.Film, pack *stats.StatPack, sum anomaly.Summary) (string, error) {
	if g.provider == nil {
		return "", fmt.Errorf("no commentary provider configured")
	}

	prompt, err := g.BuildPrompt(films, pack, sum)
	if err != nil {
		return "", err
	}

	responseText, err := g.provider.Generate(ctx, prompt, g.maxTokens)
	if err != nil {
		return "", fmt.Errorf("generating commentary: %w", err)
	}

	if parsed := ParseJSONResponse(responseText); parsed != nil {
		if text, ok := parsed["commentary"].(string); ok && text != "" {
			return strings.TrimSpace(text), nil
		}
	}
	return strings.TrimSpace(responseText), nil
}

// BuildPrompt serializes the bounded summary into the prompt text.
func (g *Generator) BuildPrompt(films []*merge.Film, pack *stats.StatPack, sum anomaly.Summary) (string, error) {
	payload := Payload{
		Label:               pack.Label,
		Totals:              pack.Totals,
		MeanRating:          pack.Ratings.Mean,
		RatingStdDev:        pack.Ratings.StdDev,
		LongestStreak:       pack.Timeline.LongestStreak,
		Badge:               pack.Indices.Badge,
		TopWords:            pack.Text.TopWords,
		ImportSpikeDetected: sum.ImportSpikeDetected,
		BusiestImportDay:    sum.BusiestImportDay,
	}
	for _, f := range films {
		if !f.Watched || f.Name == "" {
			continue
		}
		payload.Films = append(payload.Films, f.Name)
		if len(payload.Films) >= g.maxFilms {
			break
		}
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}

	caveat := ""
	if sum.ImportSpikeDetected {
		caveat = importSpikeCaveat
	}
	return fmt.Sprintf(commentaryPrompt, string(data), caveat), nil
}
