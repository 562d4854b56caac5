package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ecoboleta/backend/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Config holds the vector store connection settings
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client handles communication with a Qdrant-compatible REST API.
// One Client is shared by every request; it holds no per-call state.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	rateLimiter *rate.Limiter
	log         zerolog.Logger
}

// NewClient creates a new vector store client
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:6333"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1)
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		rateLimiter: limiter,
		log:         logger.With().Str("component", "qdrant").Logger(),
	}
}

type matchValue struct {
	Value string `json:"value"`
}

type fieldCondition struct {
	Key   string     `json:"key"`
	Match matchValue `json:"match"`
}

type filter struct {
	Must []fieldCondition `json:"must"`
}

type searchRequest struct {
	Vector         []float32 `json:"vector"`
	Limit          int       `json:"limit"`
	ScoreThreshold *float64  `json:"score_threshold,omitempty"`
	WithPayload    bool      `json:"with_payload"`
	Filter         *filter   `json:"filter,omitempty"`
}

type searchHit struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

type searchResponse struct {
	Result []searchHit `json:"result"`
}

type existsResponse struct {
	Result struct {
		Exists bool `json:"exists"`
	} `json:"result"`
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type createCollectionRequest struct {
	Vectors vectorParams `json:"vectors"`
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type upsertRequest struct {
	Points []point `json:"points"`
}

// CollectionExists reports whether the collection is present in the store
func (c *Client) CollectionExists(ctx context.Context, collection string) (bool, error) {
	var resp existsResponse
	status, err := c.do(ctx, http.MethodGet, c.collectionPath(collection)+"/exists", nil, &resp)
	if err != nil {
		if status == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return resp.Result.Exists, nil
}

// Search returns the nearest points of a collection, best first
func (c *Client) Search(ctx context.Context, collection string, vector []float32, opts domain.SearchOptions) ([]domain.ScoredPoint, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 1
	}

	body := searchRequest{
		Vector:      vector,
		Limit:       limit,
		WithPayload: true,
	}
	if opts.ScoreThreshold > 0 {
		threshold := opts.ScoreThreshold
		body.ScoreThreshold = &threshold
	}
	if opts.Filter != nil {
		body.Filter = &filter{Must: []fieldCondition{{
			Key:   opts.Filter.Key,
			Match: matchValue{Value: opts.Filter.Value},
		}}}
	}

	var resp searchResponse
	status, err := c.do(ctx, http.MethodPost, c.collectionPath(collection)+"/points/search", body, &resp)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, collection)
		}
		return nil, err
	}

	points := make([]domain.ScoredPoint, 0, len(resp.Result))
	for _, hit := range resp.Result {
		points = append(points, domain.ScoredPoint{
			ID:      pointID(hit.ID),
			Score:   hit.Score,
			Payload: MapPayload(hit.Payload),
		})
	}

	c.log.Debug().
		Str("collection", collection).
		Int("limit", limit).
		Int("hits", len(points)).
		Msg("vector search done")

	return points, nil
}

// EnsureCollection creates a cosine collection of the given dimension when it is missing
func (c *Client) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	exists, err := c.CollectionExists(ctx, collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	body := createCollectionRequest{Vectors: vectorParams{Size: dimension, Distance: "Cosine"}}
	if _, err := c.do(ctx, http.MethodPut, c.collectionPath(collection), body, nil); err != nil {
		return err
	}

	c.log.Info().Str("collection", collection).Int("dimension", dimension).Msg("created vector collection")
	return nil
}

// Upsert writes points into a collection and waits for them to be indexed
func (c *Client) Upsert(ctx context.Context, collection string, points []domain.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}

	body := upsertRequest{Points: make([]point, 0, len(points))}
	for _, p := range points {
		body.Points = append(body.Points, point{
			ID:      p.ID,
			Vector:  p.Vector,
			Payload: PayloadToMap(p.Payload),
		})
	}

	_, err := c.do(ctx, http.MethodPut, c.collectionPath(collection)+"/points?wait=true", body, nil)
	return err
}

func (c *Client) collectionPath(collection string) string {
	return "/collections/" + url.PathEscape(collection)
}

// do executes a request and decodes the JSON response into out when non-nil.
// The status code is returned alongside errors so callers can special-case 404.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("%w: rate limiter: %v", domain.ErrVectorSearchFailure, err)
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("%w: marshal request: %v", domain.ErrVectorSearchFailure, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("%w: create request: %v", domain.ErrVectorSearchFailure, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrVectorSearchFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: read response: %v", domain.ErrVectorSearchFailure, err)
	}

	if resp.StatusCode/100 != 2 {
		return resp.StatusCode, fmt.Errorf("%w: %s %s: status %d, body: %s",
			domain.ErrVectorSearchFailure, method, path, resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: decode response: %v", domain.ErrVectorSearchFailure, err)
		}
	}
	return resp.StatusCode, nil
}

// pointID renders numeric and UUID point ids as plain strings
func pointID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
