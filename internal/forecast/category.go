package forecast

import "hash/fnv"

// CategoryCodecVersion identifies the category-to-code mapping baked into a
// trained model. Changing the mapping requires a new version string.
const CategoryCodecVersion = "fnv1a32-mod100/v1"

const categoryBuckets = 100

// CategoryCode maps a category label to a stable code in [0, 100).
func CategoryCode(category string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(category))
	return int(h.Sum32() % categoryBuckets)
}
