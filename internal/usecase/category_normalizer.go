package usecase

import (
	"strings"

	"github.com/ecoboleta/backend/internal/domain"
)

// Confidence scores assigned by each step of the normalization cascade
const (
	confidenceExact   = 1.0
	confidenceSynonym = 0.85
	confidenceDefault = 0.3
)

// CategoryNormalizer maps raw retailer category labels onto the master taxonomy
type CategoryNormalizer struct {
	taxonomy *domain.MasterTaxonomy
	synonyms SynonymTables
}

// NewCategoryNormalizer creates a normalizer over the taxonomy and synonym tables.
// Entries pointing at subcategories missing from the taxonomy are dropped and synonyms
// are lowercased and folded so matching is accent-insensitive.
func NewCategoryNormalizer(taxonomy *domain.MasterTaxonomy, synonyms SynonymTables) *CategoryNormalizer {
	cleaned := make(SynonymTables, len(synonyms))

	for retailer, table := range synonyms {
		kept := make(SynonymTable, 0, len(table))
		for _, entry := range table {
			if !taxonomy.Has(entry.Canonical) {
				continue
			}
			folded := make([]string, 0, len(entry.Synonyms))
			for _, synonym := range entry.Synonyms {
				s := foldDiacritics(strings.ToLower(strings.TrimSpace(synonym)))
				if s != "" {
					folded = append(folded, s)
				}
			}
			kept = append(kept, SynonymEntry{Canonical: entry.Canonical, Synonyms: folded})
		}
		cleaned[retailer] = kept
	}

	return &CategoryNormalizer{taxonomy: taxonomy, synonyms: cleaned}
}

// Normalize resolves a raw category for a retailer.
// Order: verbatim taxonomy key (1.0), retailer synonym substring (0.85), Uncategorized (0.3).
func (n *CategoryNormalizer) Normalize(raw, retailer string) domain.NormalizedCategory {
	result := domain.NormalizedCategory{
		Original: raw,
		Retailer: retailer,
	}

	if n.taxonomy.Has(raw) {
		result.Normalized = raw
		result.Confidence = confidenceExact
		result.Method = domain.CategoryMethodExact
		return result
	}

	lowered := foldDiacritics(strings.ToLower(strings.TrimSpace(raw)))
	if lowered != "" {
		for _, entry := range n.synonyms[retailer] {
			for _, synonym := range entry.Synonyms {
				if strings.Contains(lowered, synonym) {
					result.Normalized = entry.Canonical
					result.Confidence = confidenceSynonym
					result.Method = domain.CategoryMethodSynonym
					return result
				}
			}
		}
	}

	result.Normalized = domain.Uncategorized
	result.Confidence = confidenceDefault
	result.Method = domain.CategoryMethodDefault
	return result
}

// Categories returns the canonical categories the retailer's table can produce
func (n *CategoryNormalizer) Categories(retailer string) []string {
	return n.synonyms.Categories(retailer)
}
