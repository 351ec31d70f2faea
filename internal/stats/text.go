package stats

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"filmlens/internal/config"
	"filmlens/internal/merge"
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

// stopWords are excluded from the top-word list. Kept small and fixed;
// this is frequency counting, not sentiment analysis.
var stopWords = map[string]bool{
	"the": true, "and": true, "but": true, "for": true, "not": true,
	"with": true, "this": true, "that": true, "was": true, "are": true,
	"have": true, "has": true, "had": true, "its": true, "it's": true,
	"you": true, "your": true, "they": true, "them": true, "their": true,
	"from": true, "into": true, "out": true, "about": true, "just": true,
	"like": true, "really": true, "very": true, "much": true, "more": true,
	"most": true, "some": true, "all": true, "one": true, "two": true,
	"what": true, "when": true, "how": true, "which": true, "who": true,
	"there": true, "here": true, "than": true, "then": true, "also": true,
	"his": true, "her": true, "him": true, "she": true, "were": true,
	"been": true, "being": true, "can": true, "could": true, "would": true,
	"should": true, "will": true, "don't": true, "doesn't": true,
	"movie": true, "film": true, "watch": true, "watched": true,
}

func computeText(films []*merge.Film, cfg config.Text) TextStats {
	ts := TextStats{}

	var texts []string
	for _, f := range films {
		texts = append(texts, f.ReviewTexts...)
	}
	ts.ReviewCount = len(texts)
	if len(texts) == 0 {
		return ts
	}

	totalLen := 0
	counts := make(map[string]int)
	firstSeen := make(map[string]int)

	for _, text := range texts {
		totalLen += len([]rune(text))
		for _, token := range tokenize(text, cfg.MinTokenLength) {
			if stopWords[token] {
				continue
			}
			if _, seen := counts[token]; !seen {
				firstSeen[token] = len(firstSeen)
			}
			counts[token]++
		}
	}
	ts.AverageLength = float64(totalLen) / float64(len(texts))

	words := make([]WordCount, 0, len(counts))
	for w, n := range counts {
		words = append(words, WordCount{Word: w, Count: n})
	}
	// Descending count, ties broken by first-encountered order.
	sort.Slice(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return firstSeen[words[i].Word] < firstSeen[words[j].Word]
	})

	topN := cfg.TopWords
	if topN <= 0 {
		topN = 20
	}
	if len(words) > topN {
		words = words[:topN]
	}
	ts.TopWords = words
	return ts
}

// tokenize lower-cases review text, discards URLs, splits on
// whitespace, strips everything but letters and digits (any script),
// and drops tokens shorter than minLen runes.
func tokenize(text string, minLen int) []string {
	text = urlPattern.ReplaceAllString(text, " ")
	text = strings.ToLower(text)

	var tokens []string
	for _, field := range strings.Fields(text) {
		token := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '\'' {
				return r
			}
			return -1
		}, field)
		token = strings.Trim(token, "'")
		if len([]rune(token)) < minLen {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}
