package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Embedder defines the interface for the embedding provider
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatCompleter defines the interface for the LLM provider.
// The returned string is expected to hold a JSON document.
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

// PayloadFilter restricts a vector search to points whose payload key equals Value
type PayloadFilter struct {
	Key   string
	Value string
}

// SearchOptions controls a nearest-neighbor search
type SearchOptions struct {
	Limit          int
	ScoreThreshold float64
	Filter         *PayloadFilter
}

// ScoredPoint is one vector search hit
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload CatalogPayload
}

// VectorPoint is a vector with its payload, ready to be indexed
type VectorPoint struct {
	ID      string
	Vector  []float32
	Payload CatalogPayload
}

// VectorSearcher defines read access to the per-retailer vector collections
type VectorSearcher interface {
	CollectionExists(ctx context.Context, collection string) (bool, error)
	Search(ctx context.Context, collection string, vector []float32, opts SearchOptions) ([]ScoredPoint, error)
}

// VectorIndexer defines write access to the per-retailer vector collections
type VectorIndexer interface {
	EnsureCollection(ctx context.Context, collection string, dimension int) error
	Upsert(ctx context.Context, collection string, points []VectorPoint) error
}

// ReceiptRepository defines persistence of analyzed receipts
type ReceiptRepository interface {
	SaveReceipt(ctx context.Context, boleta *AnalyzedBoleta) error
	GetReceipt(ctx context.Context, id uuid.UUID) (*AnalyzedBoleta, error)
}
