package mathx

import "github.com/shopspring/decimal"

// Round rounds v to the given number of decimal places, half away from zero,
// on the shortest decimal form of v. Values written as ...5 round up even when
// their binary value sits just below the half (2.675 gives 2.68, 0.25 gives 0.3),
// which is not what banker's or binary-exact rounding produces.
func Round(v float64, places int32) float64 {
	if places < 0 {
		places = 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// ClampMin returns v, or floor when v is below it.
func ClampMin(v, floor float64) float64 {
	if v < floor {
		return floor
	}
	return v
}
