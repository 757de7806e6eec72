package forecast

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/mathx"
)

const (
	numFeatures = 5

	popularCarbonThreshold = 15.0
	popularBaseRate        = 5.0
	slowBaseRate           = 2.0
	weekendBoost           = 1.5
	seasonalAmplitude      = 2.0
	daysPerYear            = 365.0
)

// featureVector is [productID, price, categoryCode, dayOfYear, isWeekend].
type featureVector [numFeatures]float64

// sample is one synthesized day of sales for one product.
type sample struct {
	features featureVector
	sales    float64
}

func newFeatureVector(p domain.Product, day time.Time) featureVector {
	weekend := 0.0
	if isWeekend(day) {
		weekend = 1
	}
	return featureVector{
		float64(p.ID),
		p.Price,
		float64(CategoryCode(p.Category)),
		float64(day.YearDay()),
		weekend,
	}
}

func isWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// baseDailyRate is a coarse popularity proxy: lighter-footprint products sell faster.
func baseDailyRate(p domain.Product) float64 {
	if p.CarbonFootprintWeight < popularCarbonThreshold {
		return popularBaseRate
	}
	return slowBaseRate
}

// synthesizeCorpus simulates one sales sample per product per day over the
// lookback window ending at now. There is no real sales history to learn from.
func synthesizeCorpus(products []domain.Product, now time.Time, days int, rng *rand.Rand) []sample {
	start := now.AddDate(0, 0, -days)
	corpus := make([]sample, 0, len(products)*days)

	for _, p := range products {
		base := baseDailyRate(p)
		for i := 0; i < days; i++ {
			day := start.AddDate(0, 0, i)

			rate := base
			if isWeekend(day) {
				rate *= weekendBoost
			}
			rate += math.Sin(float64(day.YearDay())/daysPerYear*2*math.Pi) * seasonalAmplitude
			rate += rng.NormFloat64()

			corpus = append(corpus, sample{
				features: newFeatureVector(p, day),
				sales:    math.RoundToEven(mathx.ClampMin(rate, 0)),
			})
		}
	}

	return corpus
}
