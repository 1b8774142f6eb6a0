package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
)

// pointNamespace seeds deterministic point ids so re-indexing overwrites points.
var pointNamespace = uuid.MustParse("6f2c8a3e-4b1d-5e7f-9a0b-1c2d3e4f5a6b")

// Storage is a minimal REST client to Qdrant.
// It assumes cosine distance and creates the collection if missing.
type Storage struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
	seq        int
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Init drops any previous collection and creates it with the given vector
// size, so rebuilding an index never mixes old and new points.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	collURL := fmt.Sprintf("%s/collections/%s", s.url, s.collection)
	if err := s.do(ctx, http.MethodDelete, collURL, nil, nil); err != nil {
		return err
	}
	s.seq = 0
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, collURL, body, nil)
}

func (s *Storage) Upsert(ctx context.Context, passages []domain.Passage, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return errors.New("passages and vectors length mismatch")
	}
	points := make([]map[string]any, len(passages))
	for i, p := range passages {
		name := fmt.Sprintf("%d.%d#%d", p.Chapter, p.Verse, s.seq)
		s.seq++
		points[i] = map[string]any{
			"id":     uuid.NewSHA1(pointNamespace, []byte(name)).String(),
			"vector": vectors[i],
			"payload": map[string]any{
				"chapter": p.Chapter,
				"verse":   p.Verse,
				"text":    p.Text,
			},
		}
	}
	body := map[string]any{"points": points}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body, nil)
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 4
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				Chapter int    `json:"chapter"`
				Verse   int    `json:"verse"`
				Text    string `json:"text"`
			} `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, domain.SearchResult{
			Passage: domain.Passage{Text: r.Payload.Text, Chapter: r.Payload.Chapter, Verse: r.Payload.Verse},
			Score:   r.Score,
		})
	}
	return results, nil
}

// Commit is a no-op; upserts wait for Qdrant to apply them.
func (s *Storage) Commit() error { return nil }

func (s *Storage) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Storage) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
