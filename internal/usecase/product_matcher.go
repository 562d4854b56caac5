package usecase

import (
	"context"

	"github.com/ecoboleta/backend/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultSimilarityThreshold is the minimum cosine score for a catalog match
const DefaultSimilarityThreshold = 0.75

// CO2Checker judges the plausibility of a catalog CO2e figure
type CO2Checker interface {
	Validate(ctx context.Context, productName string, co2PerKg float64, category string) (CO2Validation, error)
}

// ProductMatcherConfig holds the matching parameters
type ProductMatcherConfig struct {
	SimilarityThreshold float64
}

// ProductMatcher finds the closest known product in a retailer collection
type ProductMatcher struct {
	embedder   TextEmbedder
	searcher   domain.VectorSearcher
	normalizer *CategoryNormalizer
	validator  CO2Checker
	threshold  float64
	log        zerolog.Logger
}

// NewProductMatcher creates a matcher. validator may be nil, which disables CO2 validation.
func NewProductMatcher(
	embedder TextEmbedder,
	searcher domain.VectorSearcher,
	normalizer *CategoryNormalizer,
	validator CO2Checker,
	config ProductMatcherConfig,
	logger zerolog.Logger,
) *ProductMatcher {
	threshold := config.SimilarityThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}

	return &ProductMatcher{
		embedder:   embedder,
		searcher:   searcher,
		normalizer: normalizer,
		validator:  validator,
		threshold:  threshold,
		log:        logger.With().Str("component", "product_matcher").Logger(),
	}
}

// Threshold returns the similarity floor in use
func (m *ProductMatcher) Threshold() float64 {
	return m.threshold
}

// FindSimilarProduct returns the best catalog match scoring at least the threshold, or nil.
// Price and quantity are left zero; the caller merges them from the receipt line.
func (m *ProductMatcher) FindSimilarProduct(ctx context.Context, productName, collection string, validateCO2 bool) *domain.ClassifiedLineItem {
	logger := m.log.With().Str("product", productName).Str("collection", collection).Logger()

	vector, err := m.embedder.Embed(ctx, productName)
	if err != nil {
		logger.Error().Err(err).Msg("embedding failed, no match")
		return nil
	}

	exists, err := m.searcher.CollectionExists(ctx, collection)
	if err != nil {
		logger.Error().Err(err).Msg("collection lookup failed, no match")
		return nil
	}
	if !exists {
		logger.Warn().Msg("collection does not exist")
		return nil
	}

	hits, err := m.searcher.Search(ctx, collection, vector, domain.SearchOptions{
		Limit:          1,
		ScoreThreshold: m.threshold,
	})
	if err != nil {
		logger.Error().Err(err).Msg("vector search failed, no match")
		return nil
	}
	if len(hits) == 0 || hits[0].Score < m.threshold {
		logger.Debug().Msg("no match above threshold")
		return nil
	}

	hit := hits[0]
	category := m.normalizer.Normalize(hit.Payload.Category, collection)

	co2 := hit.Payload.CO2Estimate
	source := domain.CO2SourceCatalog
	if validateCO2 && m.validator != nil && co2 > 0 {
		co2, source = m.checkCO2(ctx, logger, productName, co2, category.Normalized)
	}

	item := &domain.ClassifiedLineItem{
		RawExtractedLineItem: domain.RawExtractedLineItem{Name: productName},
		MatchedName:          hit.Payload.Name,
		CanonicalCategory:    category.Normalized,
		CategoryConfidence:   category.Confidence,
		BrandID:              hit.Payload.Brand,
		CO2FactorPerUnit:     co2,
		CO2Source:            source,
		IsLocal:              hit.Payload.IsLocal,
		HasEcoPackaging:      hit.Payload.EcoPackaging,
		Confidence:           hit.Score,
	}
	if category.Method != domain.CategoryMethodDefault {
		item.CanonicalSubcategory = category.Normalized
	}

	logger.Debug().
		Str("matched", item.MatchedName).
		Float64("score", hit.Score).
		Str("category", item.CanonicalCategory).
		Msg("product matched")

	return item
}

// checkCO2 applies the LLM verdict. Any failure keeps the catalog value.
func (m *ProductMatcher) checkCO2(ctx context.Context, logger zerolog.Logger, productName string, co2 float64, category string) (float64, domain.CO2Source) {
	verdict, err := m.validator.Validate(ctx, productName, co2, category)
	if err != nil {
		logger.Warn().Err(err).Msg("co2 validation failed, keeping catalog value")
		return co2, domain.CO2SourceCatalog
	}
	if !verdict.Override() {
		return co2, domain.CO2SourceCatalog
	}

	logger.Info().
		Float64("catalog_co2", co2).
		Float64("corrected_co2", verdict.SuggestedCO2).
		Str("reason", verdict.Reason).
		Msg("co2 corrected")
	return verdict.SuggestedCO2, domain.CO2SourceLLMCorrected
}
