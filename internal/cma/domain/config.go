package domain

import (
	"github.com/openhaus/atrium/internal/adjustment"
)

// Rate keys accepted in an AdjustmentConfig rates map. They mirror the JSON
// tags on adjustment.Rates.
const (
	RateSquareFeet = "sqft"
	RateBedroom    = "bedroom"
	RateBathroom   = "bathroom"
	RatePool       = "pool"
	RateGarage     = "garage"
	RateYearBuilt  = "year_built"
	RateLotSize    = "lot_size"
)

// AdjustmentConfig is the per-report adjustment state. Rates holds partial
// overrides; keys not present fall back to the broker defaults. Comp
// adjustments are keyed by comparable listing ID.
type AdjustmentConfig struct {
	Enabled         bool                            `json:"enabled"`
	Rates           map[string]float64              `json:"rates,omitempty"`
	CompAdjustments map[string]adjustment.Overrides `json:"comp_adjustments,omitempty"`
}

// EffectiveRates layers the config's partial rate overrides on top of base.
func (c AdjustmentConfig) EffectiveRates(base adjustment.Rates) adjustment.Rates {
	rates := base
	for key, value := range c.Rates {
		switch key {
		case RateSquareFeet:
			rates.SquareFeet = value
		case RateBedroom:
			rates.Bedroom = value
		case RateBathroom:
			rates.Bathroom = value
		case RatePool:
			rates.Pool = value
		case RateGarage:
			rates.Garage = value
		case RateYearBuilt:
			rates.YearBuilt = value
		case RateLotSize:
			rates.LotSize = value
		}
	}
	return rates
}

// OverridesFor returns the per-comp overrides, or nil when none are stored.
func (c AdjustmentConfig) OverridesFor(compID string) *adjustment.Overrides {
	if c.CompAdjustments == nil {
		return nil
	}
	ov, ok := c.CompAdjustments[compID]
	if !ok {
		return nil
	}
	return &ov
}
