package mathx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name   string
		in     float64
		places int32
		want   float64
	}{
		{"two places", 12.3456, 2, 12.35},
		{"binary edge", 1.005, 2, 1.01},
		{"binary value below half", 2.675, 2, 2.68},
		{"half rounds away from even", 0.25, 1, 0.3},
		{"one place", 41.25, 1, 41.3},
		{"negative places clamp", 2.6, -1, 3},
		{"negative value", -1.555, 2, -1.56},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Round(tt.in, tt.places))
		})
	}
}

func TestClampMin(t *testing.T) {
	assert.Equal(t, 0.0, ClampMin(-0.3, 0))
	assert.Equal(t, 1.5, ClampMin(1.5, 0))
}
