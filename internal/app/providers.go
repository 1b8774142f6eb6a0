package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/completion/openai"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/config"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/embedding/cache"
	embopenai "github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/embedding/openai"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/metrics"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/vectorstore"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/vectorstore/local"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/vectorstore/qdrant"
)

// DefaultProviders builds the production collaborators from configuration.
func DefaultProviders(cfg *config.AppConfig, lookup LookupFunc, logger *zap.Logger) Providers {
	return Providers{
		Embedder: func(_ context.Context) (domain.Embedder, error) {
			return NewEmbedder(cfg, lookup, logger)
		},
		Storage: func(ctx context.Context) (vectorstore.Storage, error) {
			return OpenStorage(ctx, cfg, logger)
		},
		Completer: func(_ context.Context) (domain.Completer, error) {
			key, _ := lookup(cfg.Completion.APIKeyEnv)
			return openai.NewCompleter(openai.Config{
				BaseURL:   cfg.Completion.BaseURL,
				APIKey:    key,
				Model:     cfg.Completion.Model,
				MaxTokens: cfg.Completion.MaxTokens,
				Timeout:   time.Duration(cfg.Completion.TimeoutSecs) * time.Second,
			}), nil
		},
	}
}

// NewEmbedder assembles the query embedder: OpenAI-compatible client,
// wrapped in the Redis cache when cache.addrs is configured.
func NewEmbedder(cfg *config.AppConfig, lookup LookupFunc, logger *zap.Logger) (domain.Embedder, error) {
	key, _ := lookup(cfg.Embedder.APIKeyEnv)
	base := embopenai.NewClient(embopenai.Config{
		BaseURL:    cfg.Embedder.BaseURL,
		APIKey:     key,
		Model:      cfg.Embedder.Model,
		Dimensions: cfg.Embedder.Dimensions,
		Timeout:    time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
		Logger:     logger,
	})
	if len(cfg.Cache.Addrs) == 0 {
		return base, nil
	}
	store, err := cache.NewRedisStore(cache.RedisConfig{
		Addrs:    cfg.Cache.Addrs,
		Password: cfg.Cache.Password,
		TTL:      time.Duration(cfg.Cache.TTLSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("query embedding cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	return cache.New(base, store, cfg.Embedder.Model, metrics.EmbeddingCacheTotal, logger), nil
}

// OpenStorage opens the configured vector index for searching.
func OpenStorage(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (vectorstore.Storage, error) {
	switch cfg.VectorStore.Type {
	case "qdrant":
		q := cfg.VectorStore.Qdrant
		return qdrant.NewStorage(qdrant.Config{
			URL:        q.URL,
			APIKey:     q.APIKey,
			Collection: q.Collection,
			Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
		}), nil
	default:
		path := cfg.VectorStore.Local.Path
		if cfg.VectorStore.Local.Watch {
			w, err := local.OpenWatched(ctx, path, logger)
			if err != nil {
				return nil, err
			}
			return w, nil
		}
		s, err := local.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		logger.Info("vector index loaded", zap.String("path", path), zap.Int("passages", s.Len()), zap.Int("dimension", s.Dimension()))
		return s, nil
	}
}
