// Package indexer builds a vector index from a JSONL verse corpus.
package indexer

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/chunker"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/vectorstore"
)

// DefaultBatchSize is the number of passages written per Upsert.
const DefaultBatchSize = 64

// Record is one corpus line.
type Record struct {
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
	Text    string `json:"text"`
}

// Stats summarizes a finished run.
type Stats struct {
	Records   int
	Passages  int
	Dimension int
}

// Indexer embeds passages and writes them to a vectorstore.Writer.
type Indexer struct {
	embedder  domain.Embedder
	chunker   *chunker.SentenceChunker
	writer    vectorstore.Writer
	batchSize int
	logger    *zap.Logger
}

func New(embedder domain.Embedder, ch *chunker.SentenceChunker, writer vectorstore.Writer, batchSize int, logger *zap.Logger) *Indexer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Indexer{embedder: embedder, chunker: ch, writer: writer, batchSize: batchSize, logger: logger}
}

// ReadCorpus parses JSONL records. Blank lines are skipped.
func ReadCorpus(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var out []Record
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return out, nil
}

// Run chunks, embeds and writes every record, then commits the writer.
// The writer is initialized with the dimension of the first embedding.
func (ix *Indexer) Run(ctx context.Context, records []Record) (Stats, error) {
	stats := Stats{Records: len(records)}
	var passages []domain.Passage
	for _, rec := range records {
		passages = append(passages, ix.chunker.Chunk(domain.Passage{Chapter: rec.Chapter, Verse: rec.Verse, Text: rec.Text})...)
	}
	if len(passages) == 0 {
		return stats, errors.New("corpus has no text")
	}

	for start := 0; start < len(passages); start += ix.batchSize {
		end := min(start+ix.batchSize, len(passages))
		batch := passages[start:end]
		vectors := make([][]float32, len(batch))
		for i, p := range batch {
			vec, err := ix.embedder.Embed(ctx, p.Text)
			if err != nil {
				return stats, fmt.Errorf("embed %d.%d: %w", p.Chapter, p.Verse, err)
			}
			if stats.Dimension == 0 {
				stats.Dimension = len(vec)
				if err := ix.writer.Init(ctx, stats.Dimension); err != nil {
					return stats, fmt.Errorf("init index: %w", err)
				}
			}
			if len(vec) != stats.Dimension {
				return stats, fmt.Errorf("embed %d.%d: got %d, want %d: %w", p.Chapter, p.Verse, len(vec), stats.Dimension, domain.ErrDimensionMismatch)
			}
			vectors[i] = vec
		}
		if err := ix.writer.Upsert(ctx, batch, vectors); err != nil {
			return stats, fmt.Errorf("write batch: %w", err)
		}
		stats.Passages += len(batch)
		ix.logger.Info("batch indexed", zap.Int("done", stats.Passages), zap.Int("total", len(passages)))
	}
	if err := ix.writer.Commit(); err != nil {
		return stats, fmt.Errorf("commit index: %w", err)
	}
	return stats, nil
}
