package http

import "github.com/ecoboleta/backend/internal/domain"

// MatchRequest is the body of POST /products/match. ValidateCO2 defaults to true.
type MatchRequest struct {
	Name        string `json:"name" binding:"required"`
	Retailer    string `json:"retailer"`
	ValidateCO2 *bool  `json:"validateCo2"`
}

// MatchResponse carries the catalog match, if any
type MatchResponse struct {
	Retailer string                     `json:"retailer"`
	Matched  bool                       `json:"matched"`
	Match    *domain.ClassifiedLineItem `json:"match"`
}

// AlternativesRequest is the body of POST /products/alternatives.
// SearchOtherRetailers defaults to true.
type AlternativesRequest struct {
	Product              domain.ClassifiedLineItem `json:"product"`
	Retailer             string                    `json:"retailer"`
	SearchOtherRetailers *bool                     `json:"searchOtherRetailers"`
}

// NormalizeCategoryRequest is the body of POST /categories/normalize
type NormalizeCategoryRequest struct {
	Category string `json:"category"`
	Retailer string `json:"retailer"`
}

// InferCategoryRequest is the body of POST /categories/infer
type InferCategoryRequest struct {
	Name     string `json:"name" binding:"required"`
	Retailer string `json:"retailer"`
}

// ClassifyImpactRequest is the body of POST /impact/classify
type ClassifyImpactRequest struct {
	Retailer string   `json:"retailer"`
	Category string   `json:"category"`
	CO2PerKg *float64 `json:"co2PerKg" binding:"required,gte=0"`
}

// DetectRequest is the body of POST /supermarkets/detect
type DetectRequest struct {
	OCRText string `json:"ocrText" binding:"required"`
}

// IngestCatalogRequest is the body of POST /catalog/:retailer/products
type IngestCatalogRequest struct {
	Products []domain.CatalogProduct `json:"products" binding:"required,min=1,dive"`
}

// boolOrDefault returns *b, or def when the field was omitted
func boolOrDefault(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
