package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnalyzedItem is one receipt line after classification, weighting and impact scoring
type AnalyzedItem struct {
	ClassifiedLineItem

	Matched      bool                     `json:"matched"`
	Unit         string                   `json:"unit"`
	WeightKg     float64                  `json:"weightKg"`
	TotalCO2     float64                  `json:"totalCo2"` // kg CO2e for the purchased amount
	Verdict      ImpactVerdict            `json:"verdict"`
	GreenPoints  int                      `json:"greenPoints"`
	Alternatives []RecommendedAlternative `json:"alternatives,omitempty"`
}

// BoletaSummary aggregates the footprint of a whole receipt
type BoletaSummary struct {
	TotalWeightKg  float64    `json:"totalWeightKg"`
	TotalCO2       float64    `json:"totalCo2"`
	CO2PerKg       float64    `json:"co2PerKg"`
	Tier           ImpactTier `json:"tier"`
	LowCount       int        `json:"lowCount"`
	MediumCount    int        `json:"mediumCount"`
	HighCount      int        `json:"highCount"`
	MatchedCount   int        `json:"matchedCount"`
	UnmatchedCount int        `json:"unmatchedCount"`
	GreenPoints    int        `json:"greenPoints"`
}

// AnalyzedBoleta is the finished, classified receipt
type AnalyzedBoleta struct {
	ID         uuid.UUID      `json:"id"`
	Retailer   string         `json:"retailer"`
	Items      []AnalyzedItem `json:"items"`
	Summary    BoletaSummary  `json:"summary"`
	AnalyzedAt time.Time      `json:"analyzedAt"`
}
