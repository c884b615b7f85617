// Package summarizer condenses free text into its most representative sentences.
package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"resumerag/internal/domain"
	"resumerag/internal/embedding"
)

var sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// FrequencySummarizer ranks sentences by the normalized frequency of their
// non-stopword tokens and keeps the best ones in original order.
type FrequencySummarizer struct{}

var _ domain.Summarizer = FrequencySummarizer{}

// NewFrequencySummarizer creates a frequency-based sentence ranker.
func NewFrequencySummarizer() FrequencySummarizer { return FrequencySummarizer{} }

// Summarize returns at most maxSentences sentences of text (5 when maxSentences <= 0).
func (FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	sentences := Sentences(text)
	if len(sentences) <= maxSentences {
		return strings.Join(sentences, " "), nil
	}

	tokens := make([][]string, len(sentences))
	freq := map[string]float64{}
	maxF := 0.0
	for i, sent := range sentences {
		tokens[i] = embedding.Tokenize(sent)
		for _, tok := range tokens[i] {
			freq[tok]++
			if freq[tok] > maxF {
				maxF = freq[tok]
			}
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i := range sentences {
		s := 0.0
		for _, tok := range tokens[i] {
			s += freq[tok] / maxF
		}
		// Normalize by sentence length to avoid bias
		if l := float64(len(tokens[i])); l > 0 {
			s /= math.Sqrt(l)
		}
		scores[i] = scored{i, s}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, len(selected))
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " "), nil
}

// Sentences splits text into trimmed sentences. Text without terminal
// punctuation is returned as a single sentence.
func Sentences(text string) []string {
	raw := sentenceRe.FindAllString(text, -1)
	rest := text
	if len(raw) > 0 {
		last := raw[len(raw)-1]
		rest = text[strings.LastIndex(text, last)+len(last):]
	}
	out := make([]string, 0, len(raw)+1)
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if rest = strings.TrimSpace(rest); rest != "" {
		out = append(out, rest)
	}
	return out
}
