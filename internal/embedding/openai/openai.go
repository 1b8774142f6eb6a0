package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/metrics"
)

// Client is an OpenAI-compatible embeddings client implementing domain.Embedder.
// It works against OpenAI itself and against local servers exposing the same
// /embeddings route (HF text-embeddings-inference, Ollama, vLLM).
type Client struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	logger     *zap.Logger
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	Timeout    time.Duration
	Logger     *zap.Logger
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: t}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		logger:     logger,
	}
}

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          c.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if c.dimensions > 0 {
		req.Dimensions = c.dimensions
	}

	start := time.Now()
	resp, err := c.client.CreateEmbeddings(ctx, req)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(string(c.model), "error").Inc()
		return nil, parseAPIError("embedding", err)
	}
	metrics.EmbeddingRequestDuration.WithLabelValues(string(c.model)).Observe(time.Since(start).Seconds())

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(string(c.model), "error").Inc()
		return nil, fmt.Errorf("no embedding returned: %w", domain.ErrEmptyResponse)
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(string(c.model), "success").Inc()

	c.logger.Debug("embedded text",
		zap.String("model", string(c.model)),
		zap.Int("dimensions", len(resp.Data[0].Embedding)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
	)
	return resp.Data[0].Embedding, nil
}

// parseAPIError extracts a human-readable error from the API response and
// wraps it with domain.ErrProvider.
func parseAPIError(kind string, err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("%s API error %d: %s: %w", kind, reqErr.HTTPStatusCode, detail, domain.ErrProvider)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w", kind, apiErr.HTTPStatusCode, apiErr.Message, domain.ErrProvider)
	}

	return fmt.Errorf("%s request failed: %v: %w", kind, err, domain.ErrProvider)
}

// extractDetail reads the "detail" field some embedding servers return
// instead of an OpenAI error object.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
