package forecast

import (
	"math"
	"sort"
)

const leafNode = -1

type treeNode struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
}

// regressionTree is a CART tree split on squared-error reduction.
type regressionTree struct {
	nodes []treeNode
}

type treeParams struct {
	maxDepth       int // 0 means unlimited
	minSamplesLeaf int
}

type treeBuilder struct {
	corpus []sample
	params treeParams
	nodes  []treeNode
}

func fitTree(corpus []sample, idx []int, params treeParams) *regressionTree {
	if params.minSamplesLeaf < 1 {
		params.minSamplesLeaf = 1
	}
	b := &treeBuilder{corpus: corpus, params: params}
	b.build(idx, 0)
	return &regressionTree{nodes: b.nodes}
}

func (t *regressionTree) predict(x featureVector) float64 {
	if len(t.nodes) == 0 {
		return 0
	}
	n := t.nodes[0]
	for n.left != leafNode {
		if x[n.feature] <= n.threshold {
			n = t.nodes[n.left]
		} else {
			n = t.nodes[n.right]
		}
	}
	return n.value
}

func (b *treeBuilder) build(idx []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{left: leafNode, right: leafNode, value: b.mean(idx)})

	if b.params.maxDepth > 0 && depth >= b.params.maxDepth {
		return id
	}
	if len(idx) < 2*b.params.minSamplesLeaf {
		return id
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.corpus[i].features[feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	if len(left) == 0 || len(right) == 0 {
		return id
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)

	b.nodes[id].feature = feature
	b.nodes[id].threshold = threshold
	b.nodes[id].left = l
	b.nodes[id].right = r
	return id
}

func (b *treeBuilder) mean(idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += b.corpus[i].sales
	}
	return sum / float64(len(idx))
}

// bestSplit scans every feature for the threshold maximizing
// sumL²/nL + sumR²/nR, which is equivalent to minimizing the children's SSE.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	minLeaf := b.params.minSamplesLeaf

	var total float64
	for _, i := range idx {
		total += b.corpus[i].sales
	}
	parentScore := total * total / float64(n)

	bestFeature := -1
	bestThreshold := 0.0
	bestScore := parentScore

	sorted := make([]int, n)
	for f := 0; f < numFeatures; f++ {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool {
			return b.corpus[sorted[a]].features[f] < b.corpus[sorted[c]].features[f]
		})

		var leftSum float64
		for k := 1; k < n; k++ {
			leftSum += b.corpus[sorted[k-1]].sales
			if k < minLeaf || n-k < minLeaf {
				continue
			}
			lo := b.corpus[sorted[k-1]].features[f]
			hi := b.corpus[sorted[k]].features[f]
			if lo == hi {
				continue
			}

			rightSum := total - leftSum
			score := leftSum*leftSum/float64(k) + rightSum*rightSum/float64(n-k)
			if score > bestScore+1e-9 {
				bestScore = score
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
			}
		}
	}

	if bestFeature < 0 || math.IsNaN(bestThreshold) {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}
