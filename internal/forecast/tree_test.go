package forecast

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepCorpus() []sample {
	var corpus []sample
	for x := 0; x < 10; x++ {
		y := 1.0
		if x >= 5 {
			y = 10
		}
		corpus = append(corpus, sample{features: featureVector{0, 0, 0, float64(x), 0}, sales: y})
	}
	return corpus
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func TestFitTree_LearnsStep(t *testing.T) {
	corpus := stepCorpus()
	tree := fitTree(corpus, allIndices(len(corpus)), treeParams{minSamplesLeaf: 1})

	assert.Equal(t, 1.0, tree.predict(featureVector{0, 0, 0, 2, 0}))
	assert.Equal(t, 10.0, tree.predict(featureVector{0, 0, 0, 7, 0}))
	assert.Equal(t, 3, len(tree.nodes))
	assert.Equal(t, 4.5, tree.nodes[0].threshold)
}

func TestFitTree_MaxDepthZeroLeaf(t *testing.T) {
	corpus := stepCorpus()
	tree := fitTree(corpus, allIndices(len(corpus)), treeParams{maxDepth: 0, minSamplesLeaf: 6})

	// no split can leave six samples on both sides of ten
	require.Len(t, tree.nodes, 1)
	assert.Equal(t, 5.5, tree.predict(featureVector{}))
}

func TestFitTree_ConstantTargetIsLeaf(t *testing.T) {
	corpus := []sample{
		{features: featureVector{1}, sales: 3},
		{features: featureVector{2}, sales: 3},
		{features: featureVector{3}, sales: 3},
	}
	tree := fitTree(corpus, allIndices(3), treeParams{})
	assert.Len(t, tree.nodes, 1)
	assert.Equal(t, 3.0, tree.predict(featureVector{9}))
}

func TestFitForest_AveragesTrees(t *testing.T) {
	corpus := stepCorpus()
	model, err := fitForest(context.Background(), corpus, forestParams{trees: 8, workers: 2}, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	require.Len(t, model.trees, 8)

	low := model.predict(featureVector{0, 0, 0, 0, 0})
	high := model.predict(featureVector{0, 0, 0, 9, 0})
	assert.Less(t, low, high)
	assert.GreaterOrEqual(t, low, 1.0)
	assert.LessOrEqual(t, high, 10.0)
}

func TestForest_NilPredictsZero(t *testing.T) {
	var f *forest
	assert.Equal(t, 0.0, f.predict(featureVector{}))
}
