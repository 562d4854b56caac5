package usecase

import (
	"math"

	"github.com/ecoboleta/backend/internal/domain"
)

// DefaultThresholdRule applies when neither an override nor the taxonomy knows the category
var DefaultThresholdRule = domain.ThresholdRule{Low: 3.0, Medium: 7.0, High: math.Inf(1)}

// ThresholdOverrides holds per-retailer, per-category rules that take precedence over the taxonomy
type ThresholdOverrides map[string]map[string]domain.ThresholdRule

// ImpactClassifier assigns low/medium/high impact tiers from CO2e per kg
type ImpactClassifier struct {
	taxonomy  *domain.MasterTaxonomy
	overrides ThresholdOverrides
}

// NewImpactClassifier creates a classifier. Both arguments may be nil.
func NewImpactClassifier(taxonomy *domain.MasterTaxonomy, overrides ThresholdOverrides) *ImpactClassifier {
	copied := make(ThresholdOverrides, len(overrides))
	for retailer, rules := range overrides {
		inner := make(map[string]domain.ThresholdRule, len(rules))
		for category, rule := range rules {
			inner[category] = rule
		}
		copied[retailer] = inner
	}
	return &ImpactClassifier{taxonomy: taxonomy, overrides: copied}
}

// Rule returns the threshold rule for (retailer, category).
// Lookup order: retailer override, taxonomy bounds, DefaultThresholdRule.
func (c *ImpactClassifier) Rule(retailer, category string) domain.ThresholdRule {
	if rule, ok := c.overrides[retailer][category]; ok {
		return rule
	}
	if entry, ok := c.taxonomy.Lookup(category); ok {
		return domain.ThresholdRule{
			Low:    entry.GreenUpperBound,
			Medium: entry.YellowUpperBound,
			High:   math.Inf(1),
		}
	}
	return DefaultThresholdRule
}

// Classify returns the impact verdict for a CO2e-per-kg figure
func (c *ImpactClassifier) Classify(retailer, category string, co2PerKg float64) domain.ImpactVerdict {
	return ClassifyWithRule(c.Rule(retailer, category), co2PerKg)
}

// ClassifyWithRule partitions [0, +Inf) with bounds inclusive on the lower tier
func ClassifyWithRule(rule domain.ThresholdRule, co2PerKg float64) domain.ImpactVerdict {
	verdict := domain.ImpactVerdict{
		ThresholdsUsed: rule,
		CO2PerKg:       co2PerKg,
	}

	switch {
	case co2PerKg <= rule.Low:
		verdict.Tier = domain.TierLow
		verdict.IsEco = true
	case co2PerKg <= rule.Medium:
		verdict.Tier = domain.TierMedium
	default:
		verdict.Tier = domain.TierHigh
	}

	return verdict
}
