package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/logger"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/metrics"
)

// Config configures the chat-completion client. Groq, OpenAI and any other
// OpenAI-compatible endpoint work.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	// Timeout of 0 leaves the call unbounded.
	Timeout time.Duration
}

// Completer sends a single-message chat completion and returns the reply text.
type Completer struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewCompleter creates a chat-completion client.
func NewCompleter(cfg Config) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Completer{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Complete blocks until the full completion is returned.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", wrapAPIError(err)
	}
	metrics.CompletionRequestDuration.WithLabelValues(c.model).Observe(time.Since(start).Seconds())

	if len(resp.Choices) == 0 {
		metrics.CompletionRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", fmt.Errorf("no completion choices returned: %w", domain.ErrEmptyResponse)
	}
	metrics.CompletionRequestsTotal.WithLabelValues(c.model, "success").Inc()
	metrics.CompletionTokensTotal.WithLabelValues(c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.CompletionTokensTotal.WithLabelValues(c.model, "completion").Add(float64(resp.Usage.CompletionTokens))

	choice := resp.Choices[0]
	logger.FromContext(ctx).Debug("completion received",
		zap.String("model", c.model),
		zap.String("finish_reason", string(choice.FinishReason)),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("latency", time.Since(start)),
	)
	return choice.Message.Content, nil
}

func wrapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, domain.ErrProvider)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("completion API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), domain.ErrProvider)
	}
	return fmt.Errorf("completion request failed: %v: %w", err, domain.ErrProvider)
}
