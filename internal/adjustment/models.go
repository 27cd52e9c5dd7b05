// Package adjustment prices the feature differences between a subject
// property and its comparables. It is pure: no I/O, no state, safe for
// concurrent use.
package adjustment

// Feature names, in the order adjustments are evaluated and rendered.
const (
	FeatureSquareFeet = "Square Feet"
	FeatureBedrooms   = "Bedrooms"
	FeatureBathrooms  = "Bathrooms"
	FeaturePool       = "Pool"
	FeatureGarage     = "Garage Spaces"
	FeatureYearBuilt  = "Year Built"
	FeatureLotSize    = "Lot Size"
)

var canonicalFeatures = []string{
	FeatureSquareFeet,
	FeatureBedrooms,
	FeatureBathrooms,
	FeaturePool,
	FeatureGarage,
	FeatureYearBuilt,
	FeatureLotSize,
}

// Lot differences at or below this many square feet are not material
// enough to price.
const lotSizeNoiseFloor = 500

// Rates is the per-unit dollar rate table. All seven rates must be set by
// the caller; partial user configuration is merged with DefaultRates before
// calling Calculate.
type Rates struct {
	SquareFeet float64 `json:"sqft"`
	Bedroom    float64 `json:"bedroom"`
	Bathroom   float64 `json:"bathroom"`
	Pool       float64 `json:"pool"`
	Garage     float64 `json:"garage"`
	YearBuilt  float64 `json:"year_built"`
	LotSize    float64 `json:"lot_size"`
}

// DefaultRates returns the stock rate table applied to new reports.
func DefaultRates() Rates {
	return Rates{
		SquareFeet: 50,
		Bedroom:    10000,
		Bathroom:   7500,
		Pool:       25000,
		Garage:     5000,
		YearBuilt:  1000,
		LotSize:    2,
	}
}

// CustomAdjustment is a user-named dollar adjustment with no computed
// counterpart.
type CustomAdjustment struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Overrides replaces computed adjustment values for a single comparable.
// A set pointer fully replaces the computed value for that feature, so an
// explicit 0 suppresses the line. Custom entries are appended verbatim
// whenever their value is non-zero.
type Overrides struct {
	SquareFeet *float64 `json:"sqft,omitempty"`
	Bedrooms   *float64 `json:"bedrooms,omitempty"`
	Bathrooms  *float64 `json:"bathrooms,omitempty"`
	Pool       *float64 `json:"pool,omitempty"`
	Garage     *float64 `json:"garage,omitempty"`
	YearBuilt  *float64 `json:"year_built,omitempty"`
	LotSize    *float64 `json:"lot_size,omitempty"`

	Custom []CustomAdjustment `json:"custom,omitempty"`
}

// Line is one priced feature difference. SubjectValue and CompValue are
// display strings; a raw value of 0 renders as "Unknown".
type Line struct {
	Feature      string  `json:"feature"`
	SubjectValue string  `json:"subject_value"`
	CompValue    string  `json:"comp_value"`
	Amount       float64 `json:"amount"`
}

// Result is the priced breakdown for one comparable. A positive total pushes
// the comparable's price up toward the subject; the adjusted price is never
// clamped.
type Result struct {
	CompID          string  `json:"comp_id"`
	CompAddress     string  `json:"comp_address"`
	SalePrice       float64 `json:"sale_price"`
	Lines           []Line  `json:"lines"`
	TotalAdjustment float64 `json:"total_adjustment"`
	AdjustedPrice   float64 `json:"adjusted_price"`
}
