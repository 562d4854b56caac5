package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ecoboleta/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 30 * time.Second
)

// Config holds the chat completion client settings
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	SystemPrompt      string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client talks to an OpenAI-compatible /chat/completions endpoint
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
	Messages       []chatMessage     `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient creates a chat completion client.
// RequestsPerSecond <= 0 disables client-side throttling.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = "Eres un asistente experto en productos de supermercado y huella de carbono. Responde solo con JSON."
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		log:        logger.With().Str("component", "llm").Logger(),
	}
}

// Complete sends a single-turn prompt and returns the assistant message content
func (c *Client) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", domain.ErrLLMFailure, err)
	}

	body := chatRequest{
		Model:          c.cfg.Model,
		Temperature:    temperature,
		ResponseFormat: map[string]string{"type": "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: c.cfg.SystemPrompt},
			{Role: "user", Content: prompt},
		},
	}

	c.log.Debug().
		Str("req_id", rid).
		Str("model", c.cfg.Model).
		Float64("temperature", temperature).
		Int("prompt_len", len(prompt)).
		Msg("llm.complete.start")

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, rid, endpoint, body)
	if err != nil {
		c.log.Error().Err(err).
			Str("req_id", rid).
			Int64("elapsed_ms", time.Since(start).Milliseconds()).
			Msg("llm.complete.http_error")
		return "", err
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrLLMFailure, err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", domain.ErrLLMFailure)
	}

	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	c.log.Debug().
		Str("req_id", rid).
		Int("content_len", len(content)).
		Int64("elapsed_ms", time.Since(start).Milliseconds()).
		Msg("llm.complete.ok")

	return content, nil
}

func (c *Client) post(ctx context.Context, rid, url string, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", domain.ErrLLMFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrLLMFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", rid)
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLLMFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrLLMFailure, err)
	}

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrLLMFailure, resp.StatusCode, string(raw))
	}
	return raw, nil
}
