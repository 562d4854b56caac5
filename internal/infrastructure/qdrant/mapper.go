package qdrant

import (
	"strconv"
	"strings"

	"github.com/ecoboleta/backend/internal/domain"
)

// Payload keys written by the catalog ingestion. Older catalogs use the alternates.
const (
	KeyName               = "name"
	KeyBrand              = "brand"
	KeyCategory           = "category"
	KeySubcategory        = "subcategory"
	KeyNormalizedCategory = "normalized_category"
	KeyCO2Estimate        = "co2_estimate"
	KeyIsLocal            = "is_local"
	KeyEcoPackaging       = "eco_packaging"
)

var (
	nameKeys = []string{KeyName, "product_name"}
	co2Keys  = []string{KeyCO2Estimate, "co2e_per_kg"}
)

// MapPayload converts a raw point payload into the domain catalog record.
// Missing or mistyped fields map to zero values.
func MapPayload(payload map[string]any) domain.CatalogPayload {
	return domain.CatalogPayload{
		Name:               firstString(payload, nameKeys...),
		Brand:              firstString(payload, KeyBrand),
		Category:           firstString(payload, KeyCategory),
		Subcategory:        firstString(payload, KeySubcategory),
		NormalizedCategory: firstString(payload, KeyNormalizedCategory),
		CO2Estimate:        firstNumber(payload, co2Keys...),
		IsLocal:            boolValue(payload[KeyIsLocal]),
		EcoPackaging:       boolValue(payload[KeyEcoPackaging]),
	}
}

// PayloadToMap converts a catalog record into the payload stored with its vector
func PayloadToMap(p domain.CatalogPayload) map[string]any {
	m := map[string]any{
		KeyName:         p.Name,
		KeyCategory:     p.Category,
		KeyCO2Estimate:  p.CO2Estimate,
		KeyIsLocal:      p.IsLocal,
		KeyEcoPackaging: p.EcoPackaging,
	}
	if p.Brand != "" {
		m[KeyBrand] = p.Brand
	}
	if p.Subcategory != "" {
		m[KeySubcategory] = p.Subcategory
	}
	if p.NormalizedCategory != "" {
		m[KeyNormalizedCategory] = p.NormalizedCategory
	}
	return m
}

func firstString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// firstNumber accepts JSON numbers and numeric strings such as "2,5"
func firstNumber(payload map[string]any, keys ...string) float64 {
	for _, key := range keys {
		switch v := payload[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case string:
			f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", "."), 64)
			if err == nil {
				return f
			}
		}
	}
	return 0.0
}

func boolValue(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	}
	return false
}
