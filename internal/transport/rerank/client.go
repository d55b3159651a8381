// Package rerank talks to a cross-encoder served behind a
// Text-Embeddings-Inference compatible /rerank endpoint.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/tenantrag/internal/domain"
	"github.com/kailas-cloud/tenantrag/internal/metrics"
)

const (
	providerName   = "tei"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

// Config holds the rerank endpoint settings.
type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RawScores bool
	// RPS caps outgoing requests per second. Zero disables the cap.
	RPS    float64
	Logger *zap.Logger
}

// Client scores (query, passage) pairs with a remote cross-encoder.
type Client struct {
	http      *http.Client
	endpoint  string
	apiKey    string
	rawScores bool
	limiter   *rate.Limiter
	logger    *zap.Logger
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
}

type rerankScore struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewClient creates a rerank client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		http:      &http.Client{Timeout: timeout},
		endpoint:  strings.TrimRight(cfg.BaseURL, "/") + "/rerank",
		apiKey:    cfg.APIKey,
		rawScores: cfg.RawScores,
		logger:    cfg.Logger,
	}
	if cfg.RPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}
	return c
}

// Rerank returns one score per passage, in passage order.
func (c *Client) Rerank(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return []float64{}, nil
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rerank throttle: %w", err)
		}
	}

	scores, err := c.do(ctx, query, passages)
	if err != nil {
		metrics.RerankRequestsTotal.WithLabelValues(providerName, "error").Inc()
		return nil, err
	}
	metrics.RerankRequestsTotal.WithLabelValues(providerName, "success").Inc()
	return scores, nil
}

func (c *Client) do(ctx context.Context, query string, passages []string) ([]float64, error) {
	body, err := json.Marshal(rerankRequest{Query: query, Texts: passages, RawScores: c.rawScores})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %v: %w", err, domain.ErrRerankProvider)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("rerank API error %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(snippet)), domain.ErrRerankProvider)
	}

	var ranked []rerankScore
	if err := json.NewDecoder(resp.Body).Decode(&ranked); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", domain.ErrRerankProvider)
	}

	scores := make([]float64, len(passages))
	seen := make([]bool, len(passages))
	for _, r := range ranked {
		if r.Index < 0 || r.Index >= len(passages) || seen[r.Index] {
			return nil, fmt.Errorf("rerank index %d out of range: %w", r.Index, domain.ErrRerankProvider)
		}
		scores[r.Index] = r.Score
		seen[r.Index] = true
	}
	if len(ranked) != len(passages) {
		return nil, fmt.Errorf("got %d scores for %d passages: %w",
			len(ranked), len(passages), domain.ErrRerankProvider)
	}

	c.logger.Debug("Rerank completed",
		zap.Int("passages", len(passages)),
		zap.Duration("duration", time.Since(start)),
	)
	return scores, nil
}

// HealthCheck probes the endpoint with a one-passage request.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.do(ctx, "ping", []string{"pong"}); err != nil {
		return fmt.Errorf("rerank health: %w", err)
	}
	return nil
}
