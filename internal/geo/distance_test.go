package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm_SamePoint(t *testing.T) {
	assert.Equal(t, 0.0, DistanceKm(40.7128, -74.0060, 40.7128, -74.0060))
}

func TestDistanceKm_KnownPairs(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Point
		wantKm    float64
		tolerance float64
	}{
		{"manhattan to brooklyn", Point{40.7128, -74.0060}, Point{40.6782, -73.9442}, 6.4, 0.3},
		{"manhattan to miami", Point{40.7128, -74.0060}, Point{25.7617, -80.1918}, 1757, 10},
		{"manhattan to san francisco", Point{40.7128, -74.0060}, Point{37.7749, -122.4194}, 4130, 15},
		{"one degree of latitude", Point{0, 0}, Point{1, 0}, 111.195, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.DistanceTo(tt.b)
			assert.InDelta(t, tt.wantKm, got, tt.tolerance)
		})
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := Point{25.7617, -80.1918}
	b := Point{37.7749, -122.4194}
	assert.InDelta(t, a.DistanceTo(b), b.DistanceTo(a), 1e-9)
}

func TestDistanceKm_Antipodal(t *testing.T) {
	got := DistanceKm(0, 0, 0, 180)
	assert.InDelta(t, math.Pi*EarthRadiusKm, got, 1e-6)
}
