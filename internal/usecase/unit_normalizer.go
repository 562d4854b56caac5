package usecase

import (
	"math"
	"strings"
)

// defaultUnitWeightKg is used for unit-counted goods whose category has no average weight
const defaultUnitWeightKg = 0.5

// unitKind is the physical dimension of a declared purchase unit
type unitKind int

const (
	unitCount unitKind = iota
	unitKilogram
	unitGram
	unitMilliliter
	unitLiter
)

// unitAliases maps lowercase unit spellings to their kind. Anything missing is a count.
var unitAliases = map[string]unitKind{
	"kg": unitKilogram, "kgs": unitKilogram, "kilo": unitKilogram, "kilos": unitKilogram,
	"g": unitGram, "gr": unitGram, "grs": unitGram, "gramos": unitGram,
	"ml": unitMilliliter,
	"l": unitLiter, "lt": unitLiter, "lts": unitLiter, "litro": unitLiter, "litros": unitLiter,
	"unit": unitCount, "units": unitCount, "un": unitCount, "und": unitCount,
	"unidad": unitCount, "unidades": unitCount,
}

// defaultUnitWeights holds the average weight in kg of one unit of packaged goods per category
var defaultUnitWeights = map[string]float64{
	"Carne de res":        0.5,
	"Carne de cerdo":      0.5,
	"Pollo":               1.2,
	"Pescados y mariscos": 0.4,
	"Lácteos":             1.0,
	"Quesos":              0.25,
	"Huevos":              0.06,
	"Frutas y Verduras":   0.2,
	"Legumbres":           0.5,
	"Cereales y granos":   1.0,
	"Panadería":           0.05,
	"Bebidas":             1.0,
	"Snacks y dulces":     0.1,
	"Aceites y grasas":    0.9,
	"Congelados":          0.5,
	"Café y té":           0.25,
	"Limpieza y hogar":    0.75,
}

// UnitWeightTable maps a canonical category to the average weight of one unit in kilograms
type UnitWeightTable struct {
	weights  map[string]float64
	fallback float64
}

// NewUnitWeightTable copies the weights into a read-only table.
// A non-positive fallback is replaced with the generic default weight.
func NewUnitWeightTable(weights map[string]float64, fallback float64) UnitWeightTable {
	if fallback <= 0 {
		fallback = defaultUnitWeightKg
	}

	copied := make(map[string]float64, len(weights))
	for category, weight := range weights {
		if weight > 0 {
			copied[category] = weight
		}
	}

	return UnitWeightTable{weights: copied, fallback: fallback}
}

// DefaultUnitWeightTable returns the compiled-in unit weight table
func DefaultUnitWeightTable() UnitWeightTable {
	return NewUnitWeightTable(defaultUnitWeights, defaultUnitWeightKg)
}

// WeightFor returns the average unit weight of a category, or the fallback weight
func (t UnitWeightTable) WeightFor(category string) float64 {
	if weight, ok := t.weights[category]; ok {
		return weight
	}
	if t.fallback <= 0 {
		return defaultUnitWeightKg
	}
	return t.fallback
}

// Fallback returns the generic weight used for categories missing from the table
func (t UnitWeightTable) Fallback() float64 {
	return t.fallback
}

// UnitNormalizer converts declared purchase units to kilograms
type UnitNormalizer struct {
	weights UnitWeightTable
}

// NewUnitNormalizer creates a new unit normalizer backed by the given weight table
func NewUnitNormalizer(weights UnitWeightTable) *UnitNormalizer {
	return &UnitNormalizer{weights: weights}
}

// NormalizeToKg converts quantity expressed in unit to kilograms.
// Liters are treated as kilograms (density 1.0). Counts and unknown units are
// estimated with the category's average unit weight. Never returns a negative value.
func (n *UnitNormalizer) NormalizeToKg(quantity float64, unit, category string) float64 {
	var kg float64

	switch parseUnit(unit) {
	case unitKilogram, unitLiter:
		kg = quantity
	case unitGram, unitMilliliter:
		kg = quantity / 1000
	default:
		kg = quantity * n.weights.WeightFor(category)
	}

	if kg < 0 || math.IsNaN(kg) {
		return 0
	}
	return kg
}

// parseUnit resolves a unit string to its kind; unknown strings are counts
func parseUnit(unit string) unitKind {
	if kind, ok := unitAliases[strings.ToLower(strings.TrimSpace(unit))]; ok {
		return kind
	}
	return unitCount
}
