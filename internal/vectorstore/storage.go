package vectorstore

import (
	"context"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
)

// Storage answers similarity searches over a prebuilt passage index.
type Storage interface {
	Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error)
	Close() error
}

// Writer persists passages with their embeddings. Only the offline indexer
// writes; the chat application opens indexes read-only. Nothing written
// is guaranteed visible to readers before Commit returns.
type Writer interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, passages []domain.Passage, vectors [][]float32) error
	Commit() error
	Close() error
}
