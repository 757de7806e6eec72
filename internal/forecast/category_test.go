package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryCode_Pinned(t *testing.T) {
	// codes are part of fnv1a32-mod100/v1 and must not change under that version
	tests := map[string]int{
		"Outerwear": 39,
		"Tops":      77,
		"Bottoms":   3,
		"Footwear":  22,
		"":          61,
	}

	for category, want := range tests {
		assert.Equal(t, want, CategoryCode(category), category)
	}
}

func TestCategoryCode_Range(t *testing.T) {
	for _, c := range []string{"Dresses", "Accessories", "a", "long category label with spaces"} {
		code := CategoryCode(c)
		assert.GreaterOrEqual(t, code, 0)
		assert.Less(t, code, 100)
		assert.Equal(t, code, CategoryCode(c))
	}
}
