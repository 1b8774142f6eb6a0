package domain

import "context"

// Role tags who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged message in a conversation transcript.
type Turn struct {
	Role Role
	Text string
}

// Passage is a piece of scripture text stored in the vector index.
type Passage struct {
	Text    string
	Chapter int
	Verse   int
}

// SearchResult represents a matching passage with a relevance score.
type SearchResult struct {
	Passage Passage
	Score   float64
}

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever returns the passages most similar to a question, best first.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]Passage, error)
}

// Completer sends a filled prompt to a hosted language model and returns
// the full completion text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
