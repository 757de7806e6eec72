package forecast

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/mathx"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const forecastHorizonDays = 7

// Options configures training of a Forecaster
type Options struct {
	Seed           int64
	LookbackDays   int
	Trees          int
	MaxDepth       int
	MinSamplesLeaf int
	Workers        int
	Now            func() time.Time
}

// DefaultOptions returns the production training setup: 90 days of history,
// 100 fully grown trees.
func DefaultOptions() Options {
	return Options{
		Seed:           42,
		LookbackDays:   90,
		Trees:          100,
		MinSamplesLeaf: 1,
		Workers:        runtime.NumCPU(),
		Now:            time.Now,
	}
}

// State is the lifecycle of the model held by a Forecaster.
type State string

const (
	StateUntrained State = "untrained"
	StateTrained   State = "trained"
	StateFailed    State = "failed"
)

// Status is a snapshot of the model lifecycle.
type Status struct {
	State        State     `json:"state"`
	ModelID      string    `json:"model_id,omitempty"`
	CodecVersion string    `json:"codec_version"`
	TrainedAt    time.Time `json:"trained_at,omitempty"`
	Samples      int       `json:"samples"`
	Products     int       `json:"products"`
	Error        string    `json:"error,omitempty"`
}

// CatalogFunc reads the current product catalog.
type CatalogFunc func(ctx context.Context) ([]domain.Product, error)

// Forecaster owns a demand model trained on synthesized sales history.
//
// The model is trained once and never refreshed on its own; a catalog change
// after training leaves it stale until Train is called again.
type Forecaster struct {
	opts Options

	trainMu sync.Mutex

	mu     sync.RWMutex
	model  *forest
	status Status
}

// New creates an untrained Forecaster.
func New(opts Options) *Forecaster {
	def := DefaultOptions()
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = def.LookbackDays
	}
	if opts.Trees <= 0 {
		opts.Trees = def.Trees
	}
	if opts.MinSamplesLeaf <= 0 {
		opts.MinSamplesLeaf = def.MinSamplesLeaf
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}

	return &Forecaster{
		opts: opts,
		status: Status{
			State:        StateUntrained,
			CodecVersion: CategoryCodecVersion,
		},
	}
}

// Train synthesizes a corpus for products and fits a fresh model, replacing
// any previous one. Training with the same seed, catalog and clock is reproducible.
func (f *Forecaster) Train(ctx context.Context, products []domain.Product) error {
	f.trainMu.Lock()
	defer f.trainMu.Unlock()

	return f.train(ctx, products)
}

// EnsureTrained trains on the catalog unless a model is already in place.
func (f *Forecaster) EnsureTrained(ctx context.Context, catalog CatalogFunc) error {
	if f.IsTrained() {
		return nil
	}

	f.trainMu.Lock()
	defer f.trainMu.Unlock()

	// another caller may have finished training while we waited
	if f.IsTrained() {
		return nil
	}

	products, err := catalog(ctx)
	if err != nil {
		return fmt.Errorf("load product catalog: %w", err)
	}

	return f.train(ctx, products)
}

func (f *Forecaster) train(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return f.fail(fmt.Errorf("%w: empty product catalog", domain.ErrTrainingFailed))
	}

	start := time.Now()
	now := f.opts.Now()
	rng := rand.New(rand.NewPCG(uint64(f.opts.Seed), uint64(f.opts.Seed)^0x9e3779b97f4a7c15))

	log.Info().Int("products", len(products)).Int("days", f.opts.LookbackDays).Msg("forecast: generating synthetic training data")
	corpus := synthesizeCorpus(products, now, f.opts.LookbackDays, rng)

	log.Info().Int("samples", len(corpus)).Int("trees", f.opts.Trees).Msg("forecast: training bagged tree ensemble")
	model, err := fitForest(ctx, corpus, forestParams{
		trees:   f.opts.Trees,
		workers: f.opts.Workers,
		tree: treeParams{
			maxDepth:       f.opts.MaxDepth,
			minSamplesLeaf: f.opts.MinSamplesLeaf,
		},
	}, rng)
	if err != nil {
		return f.fail(fmt.Errorf("%w: %v", domain.ErrTrainingFailed, err))
	}

	f.mu.Lock()
	f.model = model
	f.status = Status{
		State:        StateTrained,
		ModelID:      uuid.NewString(),
		CodecVersion: CategoryCodecVersion,
		TrainedAt:    now,
		Samples:      len(corpus),
		Products:     len(products),
	}
	f.mu.Unlock()

	log.Info().Dur("elapsed", time.Since(start)).Str("model_id", f.status.ModelID).Msg("forecast: training complete")
	return nil
}

// fail records a training failure. A previously trained model stays in service.
func (f *Forecaster) fail(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.model == nil {
		f.status.State = StateFailed
	}
	f.status.Error = err.Error()

	log.Error().Err(err).Msg("forecast: training failed")
	return err
}

// IsTrained reports whether a model is available for predictions.
func (f *Forecaster) IsTrained() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.model != nil
}

// Status returns the current lifecycle snapshot.
func (f *Forecaster) Status() Status {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.status
}

// PredictNextWeek returns the predicted total demand over the next seven days,
// rounded to one decimal. An untrained forecaster predicts 0.
func (f *Forecaster) PredictNextWeek(p domain.Product) float64 {
	f.mu.RLock()
	model := f.model
	f.mu.RUnlock()

	if model == nil {
		return 0
	}

	now := f.opts.Now()
	var total float64
	for i := 0; i < forecastHorizonDays; i++ {
		day := now.AddDate(0, 0, i)
		total += mathx.ClampMin(model.predict(newFeatureVector(p, day)), 0)
	}

	return mathx.Round(total, 1)
}
