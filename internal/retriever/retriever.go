package retriever

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/logger"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/metrics"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/vectorstore"
)

// Retriever embeds the question and delegates similarity search to the store.
type Retriever struct {
	embedder domain.Embedder
	store    vectorstore.Storage
	topK     int
}

// New constructs a Retriever. topK <= 0 falls back to 4.
func New(embedder domain.Embedder, store vectorstore.Storage, topK int) *Retriever {
	if topK <= 0 {
		topK = 4
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Retrieve returns up to topK passages, most similar first.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]domain.Passage, error) {
	start := time.Now()
	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	results, err := r.store.Search(ctx, vec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	metrics.RetrievalDuration.Observe(time.Since(start).Seconds())

	passages := make([]domain.Passage, len(results))
	refs := make([]string, len(results))
	for i, res := range results {
		passages[i] = res.Passage
		refs[i] = fmt.Sprintf("%d.%d@%.3f", res.Passage.Chapter, res.Passage.Verse, res.Score)
	}
	logger.FromContext(ctx).Debug("retrieved passages", zap.Strings("refs", refs))
	return passages, nil
}
