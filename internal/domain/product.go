package domain

// RawExtractedLineItem represents one line read off a receipt by the OCR stage
type RawExtractedLineItem struct {
	Name          string  `json:"name" binding:"required"`
	UnitPrice     float64 `json:"unitPrice"`
	Quantity      float64 `json:"quantity"`
	OCRConfidence float64 `json:"ocrConfidence"`
}

// CO2Source tells where the CO2 factor of a classified item came from
type CO2Source string

const (
	CO2SourceCatalog      CO2Source = "catalog"
	CO2SourceLLMCorrected CO2Source = "llm_corrected"
	CO2SourceTaxonomy     CO2Source = "taxonomy"
	CO2SourceUnclassified CO2Source = "unclassified"
)

// ClassifiedLineItem is a line item enriched by the matching/classification stage.
// CanonicalCategory is always a taxonomy subcategory or Uncategorized.
type ClassifiedLineItem struct {
	RawExtractedLineItem

	MatchedName          string    `json:"matchedName,omitempty"`
	CanonicalCategory    string    `json:"canonicalCategory"`
	CanonicalSubcategory string    `json:"canonicalSubcategory,omitempty"`
	CategoryConfidence   float64   `json:"categoryConfidence"`
	BrandID              string    `json:"brandId,omitempty"`
	CO2FactorPerUnit     float64   `json:"co2FactorPerUnit"` // kg CO2e per kg
	CO2Source            CO2Source `json:"co2Source"`
	IsLocal              bool      `json:"isLocal"`
	HasEcoPackaging      bool      `json:"hasEcoPackaging"`
	Confidence           float64   `json:"confidence"` // similarity score of the catalog match
}

// RecommendedAlternative is a lower-footprint product suggested in place of a purchased one
type RecommendedAlternative struct {
	Name            string  `json:"name"`
	CO2PerKg        float64 `json:"co2PerKg"`
	Brand           string  `json:"brand,omitempty"`
	Category        string  `json:"category"`
	SourceRetailer  string  `json:"sourceRetailer"`
	SimilarityScore float64 `json:"similarityScore"`
}

// CategoryMethod tags which step of the normalization cascade produced a category
type CategoryMethod string

const (
	CategoryMethodExact   CategoryMethod = "exact"
	CategoryMethodSynonym CategoryMethod = "synonym"
	CategoryMethodDefault CategoryMethod = "default"
)

// NormalizedCategory is the result of mapping a raw retailer label onto the taxonomy
type NormalizedCategory struct {
	Original   string         `json:"original"`
	Normalized string         `json:"normalized"`
	Retailer   string         `json:"retailer"`
	Confidence float64        `json:"confidence"`
	Method     CategoryMethod `json:"method"`
}

// CategoryInference is the outcome of the LLM category fallback
type CategoryInference struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// CatalogPayload is the product record stored alongside each vector in a retailer collection
type CatalogPayload struct {
	Name               string  `json:"name"`
	Brand              string  `json:"brand,omitempty"`
	Category           string  `json:"category"`
	Subcategory        string  `json:"subcategory,omitempty"`
	NormalizedCategory string  `json:"normalizedCategory,omitempty"`
	CO2Estimate        float64 `json:"co2Estimate"`
	IsLocal            bool    `json:"isLocal"`
	EcoPackaging       bool    `json:"ecoPackaging"`
}

// CatalogProduct is a product submitted for indexing into a retailer collection
type CatalogProduct struct {
	Name         string  `json:"name" binding:"required"`
	Brand        string  `json:"brand,omitempty"`
	Category     string  `json:"category"`
	Subcategory  string  `json:"subcategory,omitempty"`
	CO2Estimate  float64 `json:"co2Estimate"`
	IsLocal      bool    `json:"isLocal"`
	EcoPackaging bool    `json:"ecoPackaging"`
}

// IngestReport summarizes a catalog ingestion run
type IngestReport struct {
	Collection string   `json:"collection"`
	Indexed    int      `json:"indexed"`
	Skipped    int      `json:"skipped"`
	Failed     []string `json:"failed,omitempty"`
}
