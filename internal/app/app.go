// Package app wires the answering pipeline behind the startup credential gate.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/config"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/prompt"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/retriever"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/service"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/session"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/vectorstore"
)

// ErrMissingCredential is returned when the completion API key is not set.
var ErrMissingCredential = errors.New("missing credential")

// LookupFunc reads one environment value; os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Providers construct the external collaborators. Each is called at most
// once per App, and never before the credential gate has passed.
type Providers struct {
	Embedder  func(ctx context.Context) (domain.Embedder, error)
	Storage   func(ctx context.Context) (vectorstore.Storage, error)
	Completer func(ctx context.Context) (domain.Completer, error)
}

// App owns the shared, read-only provider handles of the process.
type App struct {
	cfg       *config.AppConfig
	logger    *zap.Logger
	providers Providers
	storage   vectorstore.Storage
	embedder  domain.Embedder
	svc       *Lazy[*service.RAGService]
}

// CheckCredential is the startup gate.
func CheckCredential(lookup LookupFunc, name string) error {
	if v, ok := lookup(name); !ok || v == "" {
		return fmt.Errorf("%s missing in .env: %w", name, ErrMissingCredential)
	}
	return nil
}

// New passes the credential gate and prepares lazy construction of the
// pipeline. Nothing external is built until Load or the first Ask.
func New(cfg *config.AppConfig, lookup LookupFunc, providers Providers, logger *zap.Logger) (*App, error) {
	if err := CheckCredential(lookup, cfg.Completion.APIKeyEnv); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, logger: logger, providers: providers}
	a.svc = NewLazy(a.build)
	return a, nil
}

func (a *App) build(ctx context.Context) (*service.RAGService, error) {
	emb, err := a.providers.Embedder(ctx)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	st, err := a.providers.Storage(ctx)
	if err != nil {
		closeEmbedder(emb)
		return nil, fmt.Errorf("vector index: %w", err)
	}
	comp, err := a.providers.Completer(ctx)
	if err != nil {
		closeEmbedder(emb)
		_ = st.Close()
		return nil, fmt.Errorf("completer: %w", err)
	}
	a.storage = st
	a.embedder = emb
	a.logger.Info("pipeline ready",
		zap.String("vector_store", a.cfg.VectorStore.Type),
		zap.String("embedding_model", a.cfg.Embedder.Model),
		zap.String("completion_model", a.cfg.Completion.Model),
		zap.Int("top_k", a.cfg.Retrieval.TopK),
	)
	return service.NewRAGService(retriever.New(emb, st, a.cfg.Retrieval.TopK), prompt.Default(), comp), nil
}

// Load builds the pipeline now instead of on the first question.
func (a *App) Load(ctx context.Context) error {
	_, err := a.svc.Get(ctx)
	return err
}

// Ask answers a question with the shared pipeline.
func (a *App) Ask(ctx context.Context, question string) (service.Answer, error) {
	svc, err := a.svc.Get(ctx)
	if err != nil {
		return service.Answer{}, err
	}
	return svc.Ask(ctx, question)
}

// NewSession starts a conversation backed by this App.
func (a *App) NewSession(id string) *session.Session {
	return session.New(id, a)
}

// Close releases the vector index and the embedding cache connection.
func (a *App) Close() error {
	closeEmbedder(a.embedder)
	if a.storage != nil {
		return a.storage.Close()
	}
	return nil
}

// closeEmbedder releases the cache connection of a cached embedder.
func closeEmbedder(emb domain.Embedder) {
	if c, ok := emb.(interface{ Close() }); ok {
		c.Close()
	}
}
