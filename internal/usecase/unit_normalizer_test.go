package usecase

import (
	"testing"
)

func TestUnitNormalizer_NormalizeToKg(t *testing.T) {
	n := NewUnitNormalizer(DefaultUnitWeightTable())

	testCases := []struct {
		name     string
		quantity float64
		unit     string
		category string
		want     float64
	}{
		{"kilograms pass through", 2, "kg", "", 2},
		{"kilo alias", 1.5, "Kilos", "", 1.5},
		{"grams", 500, "g", "", 0.5},
		{"liters at density one", 1, "L", "Bebidas", 1},
		{"milliliters", 900, "ml", "Lácteos", 0.9},
		{"units use category weight", 3, "unit", "Pollo", 3.6},
		{"spanish unit alias", 12, "unidades", "Huevos", 0.72},
		{"unknown category uses fallback", 2, "unidad", "Juguetes", 1.0},
		{"unknown unit is a count", 1, "caja", "Quesos", 0.25},
		{"negative quantity clamps to zero", -1, "kg", "", 0},
		{"zero quantity", 0, "unit", "Pollo", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := n.NormalizeToKg(tc.quantity, tc.unit, tc.category)
			if !approx(got, tc.want) {
				t.Errorf("NormalizeToKg(%v, %q, %q) = %v, want %v", tc.quantity, tc.unit, tc.category, got, tc.want)
			}
		})
	}
}

func TestNewUnitWeightTable(t *testing.T) {
	t.Run("drops non-positive weights", func(t *testing.T) {
		table := NewUnitWeightTable(map[string]float64{"Pollo": 1.1, "Quesos": 0, "Pan": -2}, 0.4)

		if got := table.WeightFor("Pollo"); got != 1.1 {
			t.Errorf("WeightFor(Pollo) = %v, want 1.1", got)
		}
		if got := table.WeightFor("Quesos"); got != 0.4 {
			t.Errorf("WeightFor(Quesos) = %v, want fallback 0.4", got)
		}
		if got := table.WeightFor("Pan"); got != 0.4 {
			t.Errorf("WeightFor(Pan) = %v, want fallback 0.4", got)
		}
	})

	t.Run("non-positive fallback uses default", func(t *testing.T) {
		table := NewUnitWeightTable(nil, 0)
		if table.Fallback() != defaultUnitWeightKg {
			t.Errorf("Fallback() = %v, want %v", table.Fallback(), defaultUnitWeightKg)
		}
	})

	t.Run("copies the input map", func(t *testing.T) {
		weights := map[string]float64{"Pollo": 1.2}
		table := NewUnitWeightTable(weights, 0.5)
		weights["Pollo"] = 9

		if got := table.WeightFor("Pollo"); got != 1.2 {
			t.Errorf("WeightFor(Pollo) = %v after caller mutation, want 1.2", got)
		}
	})

	t.Run("zero value table", func(t *testing.T) {
		var table UnitWeightTable
		if got := table.WeightFor("Pollo"); got != defaultUnitWeightKg {
			t.Errorf("WeightFor on zero table = %v, want %v", got, defaultUnitWeightKg)
		}
	})
}
