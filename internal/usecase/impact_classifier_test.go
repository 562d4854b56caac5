package usecase

import (
	"math"
	"testing"

	"github.com/ecoboleta/backend/internal/domain"
)

func TestClassifyWithRule(t *testing.T) {
	rule := domain.ThresholdRule{Low: 2, Medium: 5, High: math.Inf(1)}

	testCases := []struct {
		name  string
		co2   float64
		tier  domain.ImpactTier
		isEco bool
	}{
		{"zero", 0, domain.TierLow, true},
		{"below low", 1.2, domain.TierLow, true},
		{"low bound is inclusive", 2, domain.TierLow, true},
		{"just above low", 2.0001, domain.TierMedium, false},
		{"medium bound is inclusive", 5, domain.TierMedium, false},
		{"above medium", 5.1, domain.TierHigh, false},
		{"very high", 99, domain.TierHigh, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyWithRule(rule, tc.co2)
			if got.Tier != tc.tier || got.IsEco != tc.isEco {
				t.Errorf("ClassifyWithRule(%v) = %s/%v, want %s/%v", tc.co2, got.Tier, got.IsEco, tc.tier, tc.isEco)
			}
			if got.CO2PerKg != tc.co2 || got.ThresholdsUsed != rule {
				t.Errorf("verdict did not echo inputs: %+v", got)
			}
		})
	}
}

func TestImpactClassifier_Rule(t *testing.T) {
	override := domain.ThresholdRule{Low: 30, Medium: 50, High: math.Inf(1)}
	overrides := ThresholdOverrides{"wong": {"Carne de res": override}}
	c := NewImpactClassifier(testTaxonomy(), overrides)

	t.Run("override wins", func(t *testing.T) {
		if got := c.Rule("wong", "Carne de res"); got != override {
			t.Errorf("Rule = %+v, want override", got)
		}
	})

	t.Run("taxonomy bounds", func(t *testing.T) {
		got := c.Rule("tottus", "Carne de res")
		if got.Low != 20 || got.Medium != 40 || !math.IsInf(got.High, 1) {
			t.Errorf("Rule = %+v, want taxonomy bounds 20/40", got)
		}
	})

	t.Run("default for unknown category", func(t *testing.T) {
		if got := c.Rule("tottus", domain.Uncategorized); got != DefaultThresholdRule {
			t.Errorf("Rule = %+v, want default", got)
		}
	})

	t.Run("overrides are copied", func(t *testing.T) {
		overrides["wong"]["Carne de res"] = domain.ThresholdRule{Low: 1, Medium: 2}
		if got := c.Rule("wong", "Carne de res"); got != override {
			t.Errorf("caller mutation leaked into classifier: %+v", got)
		}
	})
}

func TestImpactClassifier_Classify(t *testing.T) {
	c := NewImpactClassifier(testTaxonomy(), nil)

	testCases := []struct {
		name     string
		category string
		co2      float64
		want     domain.ImpactTier
	}{
		{"beef is high in its own scale", "Carne de res", 60, domain.TierHigh},
		{"lean beef is low in its own scale", "Carne de res", 18, domain.TierLow},
		{"same figure is high for dairy", "Lácteos", 18, domain.TierHigh},
		{"fruit", "Frutas y Verduras", 0.7, domain.TierLow},
		{"default rule medium", "Desconocido", 5, domain.TierMedium},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify("tottus", tc.category, tc.co2)
			if got.Tier != tc.want {
				t.Errorf("Classify(%q, %v) = %s, want %s", tc.category, tc.co2, got.Tier, tc.want)
			}
		})
	}
}

func TestImpactClassifier_NilTaxonomy(t *testing.T) {
	c := NewImpactClassifier(nil, nil)

	if got := c.Classify("tottus", "Pollo", 2.5); got.Tier != domain.TierLow {
		t.Errorf("Classify with nil taxonomy = %s, want low under default rule", got.Tier)
	}
}
