// Package taxonomy loads the master footprint taxonomy document.
package taxonomy

import (
	"fmt"
	"math"
	"os"

	"github.com/ecoboleta/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

type entryDoc struct {
	MeanFootprintPerKg float64  `yaml:"mean_footprint_per_kg"`
	RangeMin           float64  `yaml:"range_min"`
	RangeMax           float64  `yaml:"range_max"`
	GreenUpperBound    float64  `yaml:"green_upper_bound"`
	YellowUpperBound   float64  `yaml:"yellow_upper_bound"`
	RedLowerBound      float64  `yaml:"red_lower_bound"`
	Sources            []string `yaml:"sources"`
	Notes              string   `yaml:"notes"`
}

type ruleDoc struct {
	Low    float64  `yaml:"low"`
	Medium float64  `yaml:"medium"`
	High   *float64 `yaml:"high"`
}

type document struct {
	Version       string                        `yaml:"version"`
	Subcategories map[string]entryDoc           `yaml:"subcategories"`
	Overrides     map[string]map[string]ruleDoc `yaml:"overrides"`
}

// Document is a parsed taxonomy file
type Document struct {
	Version   string
	Taxonomy  *domain.MasterTaxonomy
	Overrides map[string]map[string]domain.ThresholdRule
}

// Load reads and validates the taxonomy file at path.
// JSON documents are accepted too since they are valid YAML.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrInvalidTaxonomy, path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a taxonomy document
func Parse(data []byte) (*Document, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrInvalidTaxonomy, err)
	}

	entries := make(map[string]domain.TaxonomyEntry, len(doc.Subcategories))
	for name, e := range doc.Subcategories {
		entries[name] = domain.TaxonomyEntry{
			MeanFootprintPerKg: e.MeanFootprintPerKg,
			RangeMin:           e.RangeMin,
			RangeMax:           e.RangeMax,
			GreenUpperBound:    e.GreenUpperBound,
			YellowUpperBound:   e.YellowUpperBound,
			RedLowerBound:      e.RedLowerBound,
			Sources:            e.Sources,
			Notes:              e.Notes,
		}
	}

	taxonomy, err := domain.NewMasterTaxonomy(entries)
	if err != nil {
		return nil, err
	}

	overrides, err := parseOverrides(doc.Overrides, taxonomy)
	if err != nil {
		return nil, err
	}

	return &Document{Version: doc.Version, Taxonomy: taxonomy, Overrides: overrides}, nil
}

func parseOverrides(in map[string]map[string]ruleDoc, taxonomy *domain.MasterTaxonomy) (map[string]map[string]domain.ThresholdRule, error) {
	out := make(map[string]map[string]domain.ThresholdRule, len(in))

	for retailer, rules := range in {
		parsed := make(map[string]domain.ThresholdRule, len(rules))
		for category, r := range rules {
			if !taxonomy.Has(category) {
				return nil, fmt.Errorf("%w: override %s/%q names an unknown subcategory", domain.ErrInvalidTaxonomy, retailer, category)
			}
			rule := domain.ThresholdRule{Low: r.Low, Medium: r.Medium, High: math.Inf(1)}
			if r.High != nil {
				rule.High = *r.High
			}
			if rule.Low < 0 || rule.Low > rule.Medium || rule.Medium > rule.High {
				return nil, fmt.Errorf("%w: override %s/%q must satisfy 0 <= low <= medium <= high", domain.ErrInvalidTaxonomy, retailer, category)
			}
			parsed[category] = rule
		}
		out[retailer] = parsed
	}

	return out, nil
}
