package domain

import (
	"encoding/json"
	"math"
)

// ImpactTier is the three-level verdict derived from CO2e per kg
type ImpactTier string

const (
	TierLow    ImpactTier = "low"
	TierMedium ImpactTier = "medium"
	TierHigh   ImpactTier = "high"
)

// ThresholdRule holds the inclusive upper bounds of the low and medium tiers.
// High is normally +Inf.
type ThresholdRule struct {
	Low    float64
	Medium float64
	High   float64
}

type thresholdRuleJSON struct {
	Low    float64  `json:"low"`
	Medium float64  `json:"medium"`
	High   *float64 `json:"high"`
}

// MarshalJSON encodes an infinite High bound as null since JSON has no infinity
func (r ThresholdRule) MarshalJSON() ([]byte, error) {
	out := thresholdRuleJSON{Low: r.Low, Medium: r.Medium}
	if !math.IsInf(r.High, 0) && !math.IsNaN(r.High) {
		high := r.High
		out.High = &high
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a null or missing High bound as +Inf
func (r *ThresholdRule) UnmarshalJSON(data []byte) error {
	var in thresholdRuleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.Low = in.Low
	r.Medium = in.Medium
	r.High = math.Inf(1)
	if in.High != nil {
		r.High = *in.High
	}
	return nil
}

// ImpactVerdict is the classification of one CO2e-per-kg figure
type ImpactVerdict struct {
	Tier           ImpactTier    `json:"tier"`
	IsEco          bool          `json:"isEco"`
	ThresholdsUsed ThresholdRule `json:"thresholdsUsed"`
	CO2PerKg       float64       `json:"co2PerKg"`
}
