package adjustment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subjectFixture() Snapshot {
	return Snapshot{
		ID:         "SUBJ-1",
		Address:    "12 Oak Ln, Fort Value",
		SquareFeet: 2000,
		Bedrooms:   3,
		Bathrooms:  2,
		HasPool:    false,
		Garage:     2,
		YearBuilt:  2010,
		LotSize:    8000,
	}
}

func compFixture() Snapshot {
	return Snapshot{
		ID:         "COMP-1",
		Address:    "14 Oak Ln, Fort Value",
		SquareFeet: 1800,
		Bedrooms:   3,
		Bathrooms:  2,
		HasPool:    true,
		Garage:     2,
		YearBuilt:  2010,
		LotSize:    8000,
		Price:      450000,
	}
}

func lineFor(t *testing.T, res Result, feature string) Line {
	t.Helper()
	for _, line := range res.Lines {
		if line.Feature == feature {
			return line
		}
	}
	t.Fatalf("no %s line in %+v", feature, res.Lines)
	return Line{}
}

func hasLine(res Result, feature string) bool {
	for _, line := range res.Lines {
		if line.Feature == feature {
			return true
		}
	}
	return false
}

func TestCalculateWorkedExample(t *testing.T) {
	res := Calculate(subjectFixture(), compFixture(), DefaultRates(), nil)

	require.Len(t, res.Lines, 2)

	sqft := lineFor(t, res, FeatureSquareFeet)
	assert.Equal(t, float64(10000), sqft.Amount)
	assert.Equal(t, "2,000", sqft.SubjectValue)
	assert.Equal(t, "1,800", sqft.CompValue)

	pool := lineFor(t, res, FeaturePool)
	assert.Equal(t, float64(-25000), pool.Amount)
	assert.Equal(t, "No", pool.SubjectValue)
	assert.Equal(t, "Yes", pool.CompValue)

	assert.Equal(t, float64(-15000), res.TotalAdjustment)
	assert.Equal(t, float64(435000), res.AdjustedPrice)
	assert.Equal(t, "COMP-1", res.CompID)
}

func TestCalculateIdempotent(t *testing.T) {
	ov := &Overrides{
		Bedrooms: ptr(2500.0),
		Custom:   []CustomAdjustment{{Name: "View", Value: 1200}},
	}
	first := Calculate(subjectFixture(), compFixture(), DefaultRates(), ov)
	second := Calculate(subjectFixture(), compFixture(), DefaultRates(), ov)
	assert.Equal(t, first, second)
}

func TestCalculateSignSymmetry(t *testing.T) {
	a := subjectFixture()
	b := compFixture()
	b.HasPool = false // pool handled separately

	forward := Calculate(a, b, DefaultRates(), nil)
	backward := Calculate(b, a, DefaultRates(), nil)

	for _, feature := range []string{FeatureSquareFeet, FeatureBedrooms, FeatureBathrooms, FeatureGarage, FeatureYearBuilt} {
		if !hasLine(forward, feature) {
			assert.False(t, hasLine(backward, feature), feature)
			continue
		}
		assert.Equal(t, -lineFor(t, forward, feature).Amount, lineFor(t, backward, feature).Amount, feature)
	}
}

func TestOverrideReplacesComputedValue(t *testing.T) {
	res := Calculate(subjectFixture(), compFixture(), DefaultRates(), &Overrides{
		SquareFeet: ptr(1234.0),
	})
	assert.Equal(t, float64(1234), lineFor(t, res, FeatureSquareFeet).Amount)
}

func TestOverrideZeroSuppressesLine(t *testing.T) {
	// Computed square-footage adjustment would be +10,000.
	res := Calculate(subjectFixture(), compFixture(), DefaultRates(), &Overrides{
		SquareFeet: ptr(0.0),
	})
	assert.False(t, hasLine(res, FeatureSquareFeet))

	pool := lineFor(t, res, FeaturePool)
	assert.Equal(t, float64(-25000), res.TotalAdjustment)
	assert.Equal(t, pool.Amount, res.TotalAdjustment)
}

func TestPoolLineRequiresDifferingPresence(t *testing.T) {
	subject := subjectFixture()
	comp := compFixture()

	subject.HasPool, comp.HasPool = true, false
	res := Calculate(subject, comp, DefaultRates(), nil)
	assert.Equal(t, float64(25000), lineFor(t, res, FeaturePool).Amount)

	subject.HasPool, comp.HasPool = false, true
	res = Calculate(subject, comp, DefaultRates(), nil)
	assert.Equal(t, float64(-25000), lineFor(t, res, FeaturePool).Amount)

	for _, both := range []bool{true, false} {
		subject.HasPool, comp.HasPool = both, both
		res = Calculate(subject, comp, DefaultRates(), &Overrides{Pool: ptr(9999.0)})
		assert.False(t, hasLine(res, FeaturePool), "presence equal, override must not force a line")
	}
}

func TestYearBuiltGuardsUnknownYears(t *testing.T) {
	subject := subjectFixture()
	comp := compFixture()
	comp.YearBuilt = 0

	res := Calculate(subject, comp, DefaultRates(), nil)
	assert.False(t, hasLine(res, FeatureYearBuilt))

	subject.YearBuilt = 0
	comp.YearBuilt = 2005
	res = Calculate(subject, comp, DefaultRates(), nil)
	assert.False(t, hasLine(res, FeatureYearBuilt))

	subject.YearBuilt = 2010
	res = Calculate(subject, comp, DefaultRates(), nil)
	assert.Equal(t, float64(5000), lineFor(t, res, FeatureYearBuilt).Amount)
}

func TestLotSizeNoiseFloor(t *testing.T) {
	subject := subjectFixture()
	comp := compFixture()
	comp.HasPool = false

	comp.LotSize = subject.LotSize - 500
	res := Calculate(subject, comp, DefaultRates(), nil)
	assert.False(t, hasLine(res, FeatureLotSize), "500 sqft is at the floor, not above it")

	comp.LotSize = subject.LotSize - 501
	res = Calculate(subject, comp, DefaultRates(), nil)
	assert.Equal(t, float64(1002), lineFor(t, res, FeatureLotSize).Amount)

	comp.LotSize = subject.LotSize + 501
	res = Calculate(subject, comp, DefaultRates(), nil)
	assert.Equal(t, float64(-1002), lineFor(t, res, FeatureLotSize).Amount)
}

func TestLotSizeRoundsToNearestDollar(t *testing.T) {
	subject := subjectFixture()
	comp := compFixture()
	comp.HasPool = false
	comp.LotSize = subject.LotSize - 701

	rates := DefaultRates()
	rates.LotSize = 2.25 // 701 * 2.25 = 1577.25

	res := Calculate(subject, comp, rates, nil)
	assert.Equal(t, float64(1577), lineFor(t, res, FeatureLotSize).Amount)
}

func TestFractionalRatesKeepPrecision(t *testing.T) {
	subject := subjectFixture()
	comp := compFixture()
	comp.HasPool = false
	comp.Bathrooms = 1.5

	rates := DefaultRates()
	rates.Bathroom = 7501.5 // 0.5 * 7501.5 = 3750.75, not rounded

	res := Calculate(subject, comp, rates, nil)
	assert.Equal(t, 3750.75, lineFor(t, res, FeatureBathrooms).Amount)
	assert.Equal(t, "1.5", lineFor(t, res, FeatureBathrooms).CompValue)
}

func TestCustomAdjustmentsAppendVerbatim(t *testing.T) {
	res := Calculate(subjectFixture(), compFixture(), DefaultRates(), &Overrides{
		Custom: []CustomAdjustment{
			{Name: "Golf Course View", Value: 15000},
			{Name: "Deferred Maintenance", Value: 0},
			{Name: "Solar", Value: -3000},
		},
	})

	assert.True(t, hasLine(res, "Golf Course View"))
	assert.True(t, hasLine(res, "Solar"))
	assert.False(t, hasLine(res, "Deferred Maintenance"), "zero-valued custom entries are dropped")
	assert.Equal(t, res.Lines[len(res.Lines)-1].Feature, "Solar", "customs follow built-in features")
}

func TestTotalMatchesSumAndAdjustedPrice(t *testing.T) {
	res := Calculate(subjectFixture(), compFixture(), DefaultRates(), &Overrides{
		Bathrooms: ptr(-1800.0),
		Custom:    []CustomAdjustment{{Name: "View", Value: 400}},
	})

	var sum float64
	for _, line := range res.Lines {
		sum += line.Amount
	}
	assert.Equal(t, sum, res.TotalAdjustment)
	assert.Equal(t, res.SalePrice+res.TotalAdjustment, res.AdjustedPrice)
}

func TestAdjustedPriceMayGoNegative(t *testing.T) {
	comp := compFixture()
	comp.Price = 10000

	res := Calculate(subjectFixture(), comp, DefaultRates(), &Overrides{
		SquareFeet: ptr(-50000.0),
	})
	assert.Less(t, res.AdjustedPrice, float64(0))
}

func TestIdenticalPropertiesProduceNoLines(t *testing.T) {
	subject := subjectFixture()
	res := Calculate(subject, subject, DefaultRates(), nil)
	assert.Empty(t, res.Lines)
	assert.Equal(t, float64(0), res.TotalAdjustment)
	assert.Equal(t, subject.Price, res.AdjustedPrice)
}

func TestMissingIdentityFallsBackToPlaceholders(t *testing.T) {
	res := Calculate(subjectFixture(), Snapshot{Price: 100000}, DefaultRates(), nil)
	assert.Equal(t, "unknown", res.CompID)
	assert.Equal(t, "Unknown Address", res.CompAddress)
}

func TestUnknownValuesDisplayAsPlaceholder(t *testing.T) {
	comp := compFixture()
	comp.SquareFeet = 0

	res := Calculate(subjectFixture(), comp, DefaultRates(), nil)
	line := lineFor(t, res, FeatureSquareFeet)
	assert.Equal(t, "Unknown", line.CompValue)
	assert.Equal(t, float64(100000), line.Amount)
}

func ptr(v float64) *float64 { return &v }
