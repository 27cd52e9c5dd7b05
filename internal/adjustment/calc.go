package adjustment

import "math"

// Calculate prices the feature differences between the subject and one
// comparable. Overrides may be nil. The result is deterministic for
// identical inputs and never signals an error: degraded inputs fall back to
// 0 or placeholder display values.
func Calculate(subject, comp Snapshot, rates Rates, ov *Overrides) Result {
	res := Result{
		CompID:      orDefault(comp.ID, unknownID),
		CompAddress: orDefault(comp.Address, unknownAddress),
		SalePrice:   comp.Price,
	}

	emit := func(feature, subjectValue, compValue string, amount float64) {
		res.Lines = append(res.Lines, Line{
			Feature:      feature,
			SubjectValue: subjectValue,
			CompValue:    compValue,
			Amount:       amount,
		})
		res.TotalAdjustment += amount
	}

	if amount := resolve(ovField(ov, func(o *Overrides) *float64 { return o.SquareFeet }),
		(subject.SquareFeet-comp.SquareFeet)*rates.SquareFeet); amount != 0 {
		emit(FeatureSquareFeet, displayNumber(subject.SquareFeet), displayNumber(comp.SquareFeet), amount)
	}

	if amount := resolve(ovField(ov, func(o *Overrides) *float64 { return o.Bedrooms }),
		(subject.Bedrooms-comp.Bedrooms)*rates.Bedroom); amount != 0 {
		emit(FeatureBedrooms, displayNumber(subject.Bedrooms), displayNumber(comp.Bedrooms), amount)
	}

	if amount := resolve(ovField(ov, func(o *Overrides) *float64 { return o.Bathrooms }),
		(subject.Bathrooms-comp.Bathrooms)*rates.Bathroom); amount != 0 {
		emit(FeatureBathrooms, displayNumber(subject.Bathrooms), displayNumber(comp.Bathrooms), amount)
	}

	// Pool only prices when presence differs; equal presence emits nothing
	// regardless of override.
	if subject.HasPool != comp.HasPool {
		computed := rates.Pool
		if comp.HasPool {
			computed = -rates.Pool
		}
		if amount := resolve(ovField(ov, func(o *Overrides) *float64 { return o.Pool }), computed); amount != 0 {
			emit(FeaturePool, yesNo(subject.HasPool), yesNo(comp.HasPool), amount)
		}
	}

	if amount := resolve(ovField(ov, func(o *Overrides) *float64 { return o.Garage }),
		(subject.Garage-comp.Garage)*rates.Garage); amount != 0 {
		emit(FeatureGarage, displayNumber(subject.Garage), displayNumber(comp.Garage), amount)
	}

	// An unknown year coerces to 0 and would otherwise price a two-thousand
	// year difference, so both years must be known.
	if subject.YearBuilt > 0 && comp.YearBuilt > 0 {
		if amount := resolve(ovField(ov, func(o *Overrides) *float64 { return o.YearBuilt }),
			(subject.YearBuilt-comp.YearBuilt)*rates.YearBuilt); amount != 0 {
			emit(FeatureYearBuilt, displayNumber(subject.YearBuilt), displayNumber(comp.YearBuilt), amount)
		}
	}

	// Lot size is the only rounded adjustment.
	if diff := subject.LotSize - comp.LotSize; math.Abs(diff) > lotSizeNoiseFloor {
		if amount := resolve(ovField(ov, func(o *Overrides) *float64 { return o.LotSize }),
			math.Round(diff*rates.LotSize)); amount != 0 {
			emit(FeatureLotSize, displayNumber(subject.LotSize), displayNumber(comp.LotSize), amount)
		}
	}

	if ov != nil {
		for _, custom := range ov.Custom {
			if custom.Value != 0 {
				emit(custom.Name, "-", "-", custom.Value)
			}
		}
	}

	res.AdjustedPrice = res.SalePrice + res.TotalAdjustment
	return res
}

// resolve applies the override-wins rule: a set override replaces the
// computed value before the non-zero inclusion test.
func resolve(override *float64, computed float64) float64 {
	if override != nil {
		return *override
	}
	return computed
}

func ovField(ov *Overrides, pick func(*Overrides) *float64) *float64 {
	if ov == nil {
		return nil
	}
	return pick(ov)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
