// Package embedding provides an OpenAI-compatible embeddings client.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ecoboleta/backend/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Config holds embedding client configuration
type Config struct {
	APIKey            string
	BaseURL           string // Default: https://api.openai.com/v1
	Model             string // Default: text-embedding-3-small
	Dimension         int    // Default: 1536
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxAttempts       int // transport-level attempts, 1 disables retries
}

// Client generates embeddings through the /embeddings endpoint
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	dimension   int
	maxAttempts int
	rateLimiter *rate.Limiter
	log         zerolog.Logger
}

// NewClient creates a new embedding client
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = 1536
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1)
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		dimension:   cfg.Dimension,
		maxAttempts: cfg.MaxAttempts,
		rateLimiter: limiter,
		log:         logger.With().Str("component", "embedding").Logger(),
	}, nil
}

// Dimension returns the configured vector dimensionality
func (c *Client) Dimension() int {
	return c.dimension
}

// EmbeddingRequest represents a request to generate embeddings
type EmbeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// EmbeddingResponse represents the API response
type EmbeddingResponse struct {
	Data  []EmbeddingData `json:"data"`
	Model string          `json:"model"`
	Error *EmbeddingError `json:"error,omitempty"`
}

// EmbeddingData contains one embedding vector
type EmbeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// EmbeddingError represents an API error
type EmbeddingError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// errPermanent marks failures that another attempt cannot fix
var errPermanent = errors.New("permanent")

// Embed generates embeddings for the given texts, in input order
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(EmbeddingRequest{Input: texts, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", domain.ErrEmbeddingFailure, err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrEmbeddingFailure, err)
		}

		embeddings, err := c.do(ctx, body, len(texts))
		if err == nil {
			return embeddings, nil
		}
		lastErr = err

		if errors.Is(err, errPermanent) || attempt == c.maxAttempts {
			break
		}

		c.log.Warn().Err(err).Int("attempt", attempt).Msg("embedding request failed, retrying")
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailure, ctx.Err())
		case <-time.After(exponentialBackoff(attempt)):
		}
	}

	return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailure, lastErr)
}

func (c *Client) do(ctx context.Context, body []byte, count int) ([][]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %v: %w", err, errPermanent)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := fmt.Errorf("status %d, body: %s", resp.StatusCode, string(raw))
		var errResp EmbeddingResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != nil {
			apiErr = fmt.Errorf("status %d: %s (type: %s)", resp.StatusCode, errResp.Error.Message, errResp.Error.Type)
		}
		// 4xx other than 429 will not succeed on retry
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, fmt.Errorf("%v: %w", apiErr, errPermanent)
		}
		return nil, apiErr
	}

	var embResp EmbeddingResponse
	if err := json.Unmarshal(raw, &embResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %v: %w", err, errPermanent)
	}

	embeddings := make([][]float32, count)
	for _, data := range embResp.Data {
		if data.Index >= 0 && data.Index < count {
			embeddings[data.Index] = data.Embedding
		}
	}
	for i, e := range embeddings {
		if len(e) == 0 {
			return nil, fmt.Errorf("missing embedding for input %d: %w", i, errPermanent)
		}
	}

	return embeddings, nil
}

// exponentialBackoff returns the wait before the next attempt: 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}
