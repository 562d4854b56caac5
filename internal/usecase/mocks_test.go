package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/ecoboleta/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string][]byte
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// MockEmbedder is a mock implementation of domain.Embedder
type MockEmbedder struct {
	mu      sync.Mutex
	vector  []float32
	err     error
	calls   int
	lastIn  []string
	perText map[string][]float32
}

func NewMockEmbedder(vector []float32) *MockEmbedder {
	return &MockEmbedder{vector: vector}
}

func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastIn = texts
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := m.perText[text]; ok {
			out[i] = v
			continue
		}
		out[i] = m.vector
	}
	return out, nil
}

// MockTextEmbedder is a mock implementation of TextEmbedder
type MockTextEmbedder struct {
	mu     sync.Mutex
	vector []float32
	err    error
	calls  int
	failOn map[string]bool
}

func (m *MockTextEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.failOn[text] {
		return nil, domain.ErrEmbeddingFailure
	}
	return m.vector, nil
}

// searchCall records one Search invocation
type searchCall struct {
	collection string
	opts       domain.SearchOptions
}

// MockVectorSearcher is a mock implementation of domain.VectorSearcher
type MockVectorSearcher struct {
	mu          sync.Mutex
	collections map[string]bool
	results     map[string][]domain.ScoredPoint
	existsError error
	searchError map[string]error
	calls       []searchCall
}

func NewMockVectorSearcher(collections ...string) *MockVectorSearcher {
	m := &MockVectorSearcher{
		collections: make(map[string]bool),
		results:     make(map[string][]domain.ScoredPoint),
		searchError: make(map[string]error),
	}
	for _, c := range collections {
		m.collections[c] = true
	}
	return m
}

func (m *MockVectorSearcher) CollectionExists(ctx context.Context, collection string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsError != nil {
		return false, m.existsError
	}
	return m.collections[collection], nil
}

func (m *MockVectorSearcher) Search(ctx context.Context, collection string, vector []float32, opts domain.SearchOptions) ([]domain.ScoredPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, searchCall{collection: collection, opts: opts})
	if err := m.searchError[collection]; err != nil {
		return nil, err
	}
	hits := m.results[collection]
	if opts.Limit > 0 && len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}
	return hits, nil
}

func (m *MockVectorSearcher) searchedCollections() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.calls))
	for _, c := range m.calls {
		out = append(out, c.collection)
	}
	return out
}

// MockVectorIndexer is a mock implementation of domain.VectorIndexer
type MockVectorIndexer struct {
	ensured     map[string]int
	upserted    map[string][]domain.VectorPoint
	ensureError error
	upsertError error
}

func NewMockVectorIndexer() *MockVectorIndexer {
	return &MockVectorIndexer{
		ensured:  make(map[string]int),
		upserted: make(map[string][]domain.VectorPoint),
	}
}

func (m *MockVectorIndexer) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	if m.ensureError != nil {
		return m.ensureError
	}
	m.ensured[collection] = dimension
	return nil
}

func (m *MockVectorIndexer) Upsert(ctx context.Context, collection string, points []domain.VectorPoint) error {
	if m.upsertError != nil {
		return m.upsertError
	}
	m.upserted[collection] = append(m.upserted[collection], points...)
	return nil
}

// MockChatCompleter is a mock implementation of domain.ChatCompleter
type MockChatCompleter struct {
	mu         sync.Mutex
	response   string
	err        error
	calls      int
	lastPrompt string
}

func (m *MockChatCompleter) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// testTaxonomy builds a small taxonomy shared by the usecase tests
func testTaxonomy() *domain.MasterTaxonomy {
	taxonomy, err := domain.NewMasterTaxonomy(map[string]domain.TaxonomyEntry{
		"Carne de res":      {MeanFootprintPerKg: 60, RangeMin: 30, RangeMax: 100, GreenUpperBound: 20, YellowUpperBound: 40, RedLowerBound: 40},
		"Pollo":             {MeanFootprintPerKg: 6.9, RangeMin: 4, RangeMax: 10, GreenUpperBound: 4, YellowUpperBound: 8, RedLowerBound: 8},
		"Lácteos":           {MeanFootprintPerKg: 3.2, RangeMin: 1, RangeMax: 6, GreenUpperBound: 2, YellowUpperBound: 4, RedLowerBound: 4},
		"Quesos":            {MeanFootprintPerKg: 21, RangeMin: 9, RangeMax: 30, GreenUpperBound: 10, YellowUpperBound: 20, RedLowerBound: 20},
		"Frutas y Verduras": {MeanFootprintPerKg: 0.7, RangeMin: 0.1, RangeMax: 2, GreenUpperBound: 1, YellowUpperBound: 2, RedLowerBound: 2},
		"Cereales y granos": {MeanFootprintPerKg: 2.7, RangeMin: 0.5, RangeMax: 4.5, GreenUpperBound: 1.5, YellowUpperBound: 3, RedLowerBound: 3},
		"Bebidas":           {MeanFootprintPerKg: 0.9, RangeMin: 0.2, RangeMax: 3, GreenUpperBound: 1, YellowUpperBound: 2, RedLowerBound: 2},
		"Panadería":         {MeanFootprintPerKg: 1.6, RangeMin: 0.8, RangeMax: 3, GreenUpperBound: 1.5, YellowUpperBound: 2.5, RedLowerBound: 2.5},
	})
	if err != nil {
		panic(err)
	}
	return taxonomy
}
