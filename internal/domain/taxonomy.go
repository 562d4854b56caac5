package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Uncategorized is the canonical value for products that could not be placed in the taxonomy
const Uncategorized = "Sin categoría"

// TaxonomyEntry holds the reference footprint figures for one canonical subcategory.
// All figures are kg CO2e per kg of product.
type TaxonomyEntry struct {
	MeanFootprintPerKg float64  `json:"meanFootprintPerKg"`
	RangeMin           float64  `json:"rangeMin"`
	RangeMax           float64  `json:"rangeMax"`
	GreenUpperBound    float64  `json:"greenUpperBound"`
	YellowUpperBound   float64  `json:"yellowUpperBound"`
	RedLowerBound      float64  `json:"redLowerBound"`
	Sources            []string `json:"sources,omitempty"`
	Notes              string   `json:"notes,omitempty"`
}

// MasterTaxonomy is the read-only reference table keyed by canonical subcategory name.
// It is built once at startup and never mutated afterwards.
type MasterTaxonomy struct {
	entries map[string]TaxonomyEntry
	names   []string
}

// NewMasterTaxonomy validates the entries and builds an immutable taxonomy.
// Bounds must satisfy green <= yellow <= red and rangeMin <= rangeMax.
func NewMasterTaxonomy(entries map[string]TaxonomyEntry) (*MasterTaxonomy, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no subcategories defined", ErrInvalidTaxonomy)
	}

	copied := make(map[string]TaxonomyEntry, len(entries))
	names := make([]string, 0, len(entries))

	for name, entry := range entries {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: empty subcategory name", ErrInvalidTaxonomy)
		}
		if err := validateEntry(name, entry); err != nil {
			return nil, err
		}
		entry.Sources = append([]string(nil), entry.Sources...)
		copied[name] = entry
		names = append(names, name)
	}
	sort.Strings(names)

	return &MasterTaxonomy{entries: copied, names: names}, nil
}

func validateEntry(name string, e TaxonomyEntry) error {
	if e.MeanFootprintPerKg < 0 || e.RangeMin < 0 || e.GreenUpperBound < 0 {
		return fmt.Errorf("%w: %q has negative footprint values", ErrInvalidTaxonomy, name)
	}
	if e.RangeMin > e.RangeMax {
		return fmt.Errorf("%w: %q rangeMin %.2f > rangeMax %.2f", ErrInvalidTaxonomy, name, e.RangeMin, e.RangeMax)
	}
	if e.GreenUpperBound > e.YellowUpperBound || e.YellowUpperBound > e.RedLowerBound {
		return fmt.Errorf("%w: %q bounds must satisfy green <= yellow <= red (got %.2f, %.2f, %.2f)",
			ErrInvalidTaxonomy, name, e.GreenUpperBound, e.YellowUpperBound, e.RedLowerBound)
	}
	return nil
}

// Lookup returns the entry for a canonical subcategory
func (t *MasterTaxonomy) Lookup(name string) (TaxonomyEntry, bool) {
	if t == nil {
		return TaxonomyEntry{}, false
	}
	e, ok := t.entries[name]
	if ok {
		e.Sources = append([]string(nil), e.Sources...)
	}
	return e, ok
}

// Has reports whether name is a canonical subcategory (verbatim match)
func (t *MasterTaxonomy) Has(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.entries[name]
	return ok
}

// Subcategories returns the sorted canonical subcategory names
func (t *MasterTaxonomy) Subcategories() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.names...)
}

// Len returns the number of subcategories
func (t *MasterTaxonomy) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}
