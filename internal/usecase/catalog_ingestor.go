package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ecoboleta/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultUpsertBatchSize = 64

// CatalogIngestor embeds retailer products and indexes them into the retailer's collection
type CatalogIngestor struct {
	embedder   TextEmbedder
	indexer    domain.VectorIndexer
	normalizer *CategoryNormalizer
	dimension  int
	batchSize  int
	log        zerolog.Logger
}

// NewCatalogIngestor creates an ingestor for vectors of the given dimension
func NewCatalogIngestor(embedder TextEmbedder, indexer domain.VectorIndexer, normalizer *CategoryNormalizer, dimension int, logger zerolog.Logger) *CatalogIngestor {
	return &CatalogIngestor{
		embedder:   embedder,
		indexer:    indexer,
		normalizer: normalizer,
		dimension:  dimension,
		batchSize:  defaultUpsertBatchSize,
		log:        logger.With().Str("component", "catalog_ingestor").Logger(),
	}
}

// Ingest indexes products into the retailer collection, creating it when missing.
// Unnamed products are skipped; products whose embedding fails are reported in Failed.
func (i *CatalogIngestor) Ingest(ctx context.Context, retailer string, products []domain.CatalogProduct) (domain.IngestReport, error) {
	report := domain.IngestReport{Collection: retailer}

	if strings.TrimSpace(retailer) == "" {
		return report, fmt.Errorf("%w: retailer is required", domain.ErrInvalidRequest)
	}
	if err := i.indexer.EnsureCollection(ctx, retailer, i.dimension); err != nil {
		return report, fmt.Errorf("ensure collection %s: %w", retailer, err)
	}

	batch := make([]domain.VectorPoint, 0, i.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := i.indexer.Upsert(ctx, retailer, batch); err != nil {
			return fmt.Errorf("upsert into %s: %w", retailer, err)
		}
		report.Indexed += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, product := range products {
		name := strings.TrimSpace(product.Name)
		if name == "" {
			report.Skipped++
			continue
		}

		vector, err := i.embedder.Embed(ctx, name)
		if err != nil {
			i.log.Warn().Err(err).Str("product", name).Msg("embedding failed, product not indexed")
			report.Failed = append(report.Failed, name)
			continue
		}

		category := i.normalizer.Normalize(product.Category, retailer)
		payload := domain.CatalogPayload{
			Name:         name,
			Brand:        product.Brand,
			Category:     product.Category,
			Subcategory:  product.Subcategory,
			CO2Estimate:  product.CO2Estimate,
			IsLocal:      product.IsLocal,
			EcoPackaging: product.EcoPackaging,
		}
		if category.Method != domain.CategoryMethodDefault {
			payload.NormalizedCategory = category.Normalized
		}

		batch = append(batch, domain.VectorPoint{
			ID:      uuid.NewString(),
			Vector:  vector,
			Payload: payload,
		})
		if len(batch) >= i.batchSize {
			if err := flush(); err != nil {
				return report, err
			}
		}
	}

	if err := flush(); err != nil {
		return report, err
	}

	i.log.Info().
		Str("collection", retailer).
		Int("indexed", report.Indexed).
		Int("skipped", report.Skipped).
		Int("failed", len(report.Failed)).
		Msg("catalog ingested")

	return report, nil
}
