package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ecoboleta/backend/internal/domain"
	"github.com/rs/zerolog"
)

const defaultEmbeddingTTL = 24 * time.Hour

// TextEmbedder produces one normalized vector per product name
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingGateway wraps the embedding provider with name normalization,
// unit-length vectors and an optional cache
type EmbeddingGateway struct {
	embedder domain.Embedder
	cache    domain.CacheRepository
	ttl      time.Duration
	log      zerolog.Logger
}

// NewEmbeddingGateway creates a gateway. cache may be nil.
func NewEmbeddingGateway(embedder domain.Embedder, cache domain.CacheRepository, ttl time.Duration, logger zerolog.Logger) *EmbeddingGateway {
	if ttl <= 0 {
		ttl = defaultEmbeddingTTL
	}
	return &EmbeddingGateway{
		embedder: embedder,
		cache:    cache,
		ttl:      ttl,
		log:      logger.With().Str("component", "embedding_gateway").Logger(),
	}
}

// Embed returns the unit-length embedding of the normalized product name
func (g *EmbeddingGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	normalized := NormalizeForEmbedding(text)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty product name", domain.ErrEmbeddingFailure)
	}

	key := "embedding:" + normalized
	if vector, ok := g.fromCache(ctx, key); ok {
		return vector, nil
	}

	vectors, err := g.embedder.Embed(ctx, []string{normalized})
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailure, err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: provider returned no vector", domain.ErrEmbeddingFailure)
	}

	vector := l2Normalize(vectors[0])
	g.toCache(ctx, key, vector)

	return vector, nil
}

func (g *EmbeddingGateway) fromCache(ctx context.Context, key string) ([]float32, bool) {
	if g.cache == nil {
		return nil, false
	}

	raw, err := g.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			g.log.Warn().Err(err).Str("key", key).Msg("embedding cache read failed")
		}
		return nil, false
	}

	var vector []float32
	if err := json.Unmarshal(raw, &vector); err != nil || len(vector) == 0 {
		g.log.Warn().Str("key", key).Msg("discarding corrupt cached embedding")
		return nil, false
	}
	return vector, true
}

func (g *EmbeddingGateway) toCache(ctx context.Context, key string, vector []float32) {
	if g.cache == nil {
		return
	}

	raw, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, key, raw, g.ttl); err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("embedding cache write failed")
	}
}

// l2Normalize returns a unit-length copy of v. A zero vector is returned unchanged.
func l2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}

	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
