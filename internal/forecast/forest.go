package forecast

import (
	"context"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"
)

// forest is a bagged ensemble of regression trees: every tree is fit on a
// bootstrap resample of the corpus and predictions are averaged.
type forest struct {
	trees []*regressionTree
}

type forestParams struct {
	trees   int
	workers int
	tree    treeParams
}

// fitForest draws one seed per tree from rng before fanning out, so the
// ensemble is identical regardless of worker scheduling.
func fitForest(ctx context.Context, corpus []sample, params forestParams, rng *rand.Rand) (*forest, error) {
	if params.trees < 1 {
		params.trees = 1
	}
	if params.workers < 1 {
		params.workers = 1
	}

	seeds := make([]uint64, params.trees)
	for i := range seeds {
		seeds[i] = rng.Uint64()
	}

	trees := make([]*regressionTree, params.trees)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(params.workers)

	for i := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			treeRng := rand.New(rand.NewPCG(seeds[i], uint64(i)))
			trees[i] = fitTree(corpus, bootstrap(len(corpus), treeRng), params.tree)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &forest{trees: trees}, nil
}

func bootstrap(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.IntN(n)
	}
	return idx
}

func (f *forest) predict(x featureVector) float64 {
	if f == nil || len(f.trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees))
}
