package chunker

import (
	"regexp"
	"strings"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
)

// SentenceChunker splits long commentary into sentence windows with overlap.
// Every window keeps the chapter and verse of the passage it came from.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Chunk returns the windows of p. A passage with at most sentencesPerChunk
// sentences comes back as a single passage with its text trimmed.
func (c *SentenceChunker) Chunk(p domain.Passage) []domain.Passage {
	trimmed := strings.TrimSpace(p.Text)
	if trimmed == "" {
		return nil
	}
	var sentences []string
	last := 0
	for _, loc := range c.splitter.FindAllStringIndex(trimmed, -1) {
		sentences = append(sentences, trimmed[loc[0]:loc[1]])
		last = loc[1]
	}
	// trailing text without terminal punctuation
	if rest := strings.TrimSpace(trimmed[last:]); rest != "" {
		sentences = append(sentences, rest)
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}

	var chunks []domain.Passage
	i := 0
	for i < len(sentences) {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, domain.Passage{
			Chapter: p.Chapter,
			Verse:   p.Verse,
			Text:    strings.Join(sentences[i:end], " "),
		})
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
	}
	return chunks
}
