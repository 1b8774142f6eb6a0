// Package summarizer condenses retrieved passages into short source excerpts
// shown under an answer.
package summarizer

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
)

// Reference is a cited passage: its chapter.verse label and an excerpt.
type Reference struct {
	Label   string
	Excerpt string
}

// FrequencySummarizer ranks sentences by word frequency (stopwords filtered).
type FrequencySummarizer struct {
	tokenPattern    *regexp.Regexp
	sentencePattern *regexp.Regexp
	stopwords       map[string]struct{}
}

func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{
		tokenPattern:    regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		sentencePattern: regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
		stopwords:       defaultStopwords(),
	}
}

// References returns one excerpt of at most maxSentences sentences per
// passage, in retrieval order. Duplicate chapter.verse labels are kept; the
// index may hold several windows of the same verse.
func (s *FrequencySummarizer) References(passages []domain.Passage, maxSentences int) []Reference {
	refs := make([]Reference, 0, len(passages))
	for _, p := range passages {
		refs = append(refs, Reference{
			Label:   Label(p),
			Excerpt: s.Summarize(p.Text, maxSentences),
		})
	}
	return refs
}

// Label formats a passage position as chapter.verse, or "?" when the index
// carries no position.
func Label(p domain.Passage) string {
	if p.Chapter == 0 && p.Verse == 0 {
		return "?"
	}
	return fmt.Sprintf("%d.%d", p.Chapter, p.Verse)
}

// Summarize keeps the maxSentences highest scoring sentences of text in
// their original order.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = 1
	}
	sentences := s.sentencePattern.FindAllString(text, -1)
	if len(sentences) <= maxSentences {
		return strings.Join(strings.Fields(text), " ")
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range s.tokens(sent) {
			if _, ok := s.stopwords[tok]; ok {
				continue
			}
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, sent := range sentences {
		toks := s.tokens(sent)
		total := 0.0
		for _, tok := range toks {
			total += freq[tok]
		}
		if len(toks) > 0 && maxF > 0 {
			// long sentences would otherwise always win
			total = total / maxF / math.Sqrt(float64(len(toks)))
		}
		scores[i] = scored{i, total}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, len(selected))
	for i, idx := range selected {
		out[i] = strings.TrimSpace(sentences[idx])
	}
	return strings.Join(out, " ")
}

func (s *FrequencySummarizer) tokens(text string) []string {
	return s.tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"thou", "thee", "thy", "thine", "o", "he", "his", "him", "who", "one", "all", "not", "me", "my", "i",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
