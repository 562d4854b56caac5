package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ecoboleta/backend/internal/domain"
	"github.com/rs/zerolog"
)

// categoryFilterKey is the payload field holding the canonical category of a catalog product
const categoryFilterKey = "normalized_category"

// RecommendationConfig holds the search parameters for alternatives
type RecommendationConfig struct {
	SameRetailerThreshold  float64
	SameRetailerLimit      int
	CrossRetailerThreshold float64
	CrossRetailerLimit     int
	MaxAlternatives        int
	Retailers              []string // cross-retailer search order
}

// DefaultRecommendationConfig returns the standard recommendation parameters
func DefaultRecommendationConfig() RecommendationConfig {
	return RecommendationConfig{
		SameRetailerThreshold:  0.70,
		SameRetailerLimit:      10,
		CrossRetailerThreshold: 0.75,
		CrossRetailerLimit:     5,
		MaxAlternatives:        3,
		Retailers:              KnownRetailers(),
	}
}

// RecommendationEngine suggests lower-footprint products from the same category
type RecommendationEngine struct {
	embedder TextEmbedder
	searcher domain.VectorSearcher
	config   RecommendationConfig
	log      zerolog.Logger
}

// NewRecommendationEngine creates an engine. Zero config fields take their defaults.
func NewRecommendationEngine(embedder TextEmbedder, searcher domain.VectorSearcher, config RecommendationConfig, logger zerolog.Logger) *RecommendationEngine {
	defaults := DefaultRecommendationConfig()
	if config.SameRetailerThreshold <= 0 {
		config.SameRetailerThreshold = defaults.SameRetailerThreshold
	}
	if config.SameRetailerLimit <= 0 {
		config.SameRetailerLimit = defaults.SameRetailerLimit
	}
	if config.CrossRetailerThreshold <= 0 {
		config.CrossRetailerThreshold = defaults.CrossRetailerThreshold
	}
	if config.CrossRetailerLimit <= 0 {
		config.CrossRetailerLimit = defaults.CrossRetailerLimit
	}
	if config.MaxAlternatives <= 0 {
		config.MaxAlternatives = defaults.MaxAlternatives
	}
	if len(config.Retailers) == 0 {
		config.Retailers = defaults.Retailers
	}

	return &RecommendationEngine{
		embedder: embedder,
		searcher: searcher,
		config:   config,
		log:      logger.With().Str("component", "recommendation_engine").Logger(),
	}
}

// FindAlternatives returns at most MaxAlternatives products of the same category with a
// strictly lower, non-zero CO2e, sorted ascending. Any failure yields an empty list.
func (e *RecommendationEngine) FindAlternatives(ctx context.Context, product domain.ClassifiedLineItem, originRetailer string, searchOtherRetailers bool) []domain.RecommendedAlternative {
	none := []domain.RecommendedAlternative{}

	category := product.CanonicalCategory
	if category == "" || category == domain.Uncategorized || product.CO2FactorPerUnit <= 0 {
		return none
	}

	logger := e.log.With().Str("product", product.Name).Str("retailer", originRetailer).Logger()

	name := product.Name
	if product.MatchedName != "" {
		name = product.MatchedName
	}
	vector, err := e.embedder.Embed(ctx, name)
	if err != nil {
		logger.Warn().Err(err).Msg("alternatives skipped, embedding failed")
		return none
	}

	filter := &domain.PayloadFilter{Key: categoryFilterKey, Value: category}

	candidates, err := e.searchRetailer(ctx, originRetailer, vector, domain.SearchOptions{
		Limit:          e.config.SameRetailerLimit,
		ScoreThreshold: e.config.SameRetailerThreshold,
		Filter:         filter,
	}, product.CO2FactorPerUnit)
	if err != nil {
		logger.Warn().Err(err).Msg("alternatives skipped, search failed")
		return none
	}
	candidates = dedupeAlternatives(candidates)

	if len(candidates) < e.config.MaxAlternatives && searchOtherRetailers {
		others, err := e.searchOthers(ctx, originRetailer, vector, filter, product.CO2FactorPerUnit)
		if err != nil {
			logger.Warn().Err(err).Msg("alternatives skipped, cross-retailer search failed")
			return none
		}
		candidates = dedupeAlternatives(append(candidates, others...))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CO2PerKg < candidates[j].CO2PerKg
	})
	if len(candidates) > e.config.MaxAlternatives {
		candidates = candidates[:e.config.MaxAlternatives]
	}

	logger.Debug().Int("alternatives", len(candidates)).Msg("alternatives found")
	return candidates
}

// searchOthers queries every other retailer concurrently. Results are merged in the
// configured retailer order so the final ranking does not depend on timing.
func (e *RecommendationEngine) searchOthers(ctx context.Context, origin string, vector []float32, filter *domain.PayloadFilter, maxCO2 float64) ([]domain.RecommendedAlternative, error) {
	retailers := make([]string, 0, len(e.config.Retailers))
	for _, r := range e.config.Retailers {
		if r != origin {
			retailers = append(retailers, r)
		}
	}

	results := make([][]domain.RecommendedAlternative, len(retailers))
	errs := make([]error, len(retailers))
	opts := domain.SearchOptions{
		Limit:          e.config.CrossRetailerLimit,
		ScoreThreshold: e.config.CrossRetailerThreshold,
		Filter:         filter,
	}

	var wg sync.WaitGroup
	for i, retailer := range retailers {
		wg.Add(1)
		go func(i int, retailer string) {
			defer wg.Done()
			results[i], errs[i] = e.searchRetailer(ctx, retailer, vector, opts, maxCO2)
		}(i, retailer)
	}
	wg.Wait()

	merged := make([]domain.RecommendedAlternative, 0)
	for i := range retailers {
		if errs[i] != nil {
			return nil, errs[i]
		}
		merged = append(merged, results[i]...)
	}
	return merged, nil
}

// searchRetailer returns the qualifying candidates of one collection.
// An absent collection is not an error and yields no candidates.
func (e *RecommendationEngine) searchRetailer(ctx context.Context, retailer string, vector []float32, opts domain.SearchOptions, maxCO2 float64) ([]domain.RecommendedAlternative, error) {
	exists, err := e.searcher.CollectionExists(ctx, retailer)
	if err != nil {
		return nil, err
	}
	if !exists {
		e.log.Debug().Str("collection", retailer).Msg("collection absent, skipping")
		return nil, nil
	}

	hits, err := e.searcher.Search(ctx, retailer, vector, opts)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RecommendedAlternative, 0, len(hits))
	for _, hit := range hits {
		co2 := hit.Payload.CO2Estimate
		if co2 <= 0 || co2 >= maxCO2 {
			continue
		}
		out = append(out, domain.RecommendedAlternative{
			Name:            hit.Payload.Name,
			CO2PerKg:        co2,
			Brand:           hit.Payload.Brand,
			Category:        opts.Filter.Value,
			SourceRetailer:  retailer,
			SimilarityScore: hit.Score,
		})
	}
	return out, nil
}

// dedupeAlternatives keeps one candidate per (name, retailer), the one with the lowest CO2e.
// Names are compared case-insensitively; first-seen order is kept.
func dedupeAlternatives(candidates []domain.RecommendedAlternative) []domain.RecommendedAlternative {
	index := make(map[string]int, len(candidates))
	out := make([]domain.RecommendedAlternative, 0, len(candidates))
	for _, alt := range candidates {
		key := strings.ToLower(strings.TrimSpace(alt.Name)) + "|" + alt.SourceRetailer
		if i, ok := index[key]; ok {
			if alt.CO2PerKg < out[i].CO2PerKg {
				out[i] = alt
			}
			continue
		}
		index[key] = len(out)
		out = append(out, alt)
	}
	return out
}
