package augment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"trackaug/internal/logger"
	"trackaug/tensor"
)

// Runner applies a Chain to every image of a batch concurrently.
//
// Each image gets its own random source, seeded from the parent source in
// image order before any work starts, so a run is reproducible regardless
// of how the goroutines are scheduled.
type Runner struct {
	chain   *Chain
	workers int
	log     logger.Logger
}

// NewRunner uses GOMAXPROCS workers when workers <= 0.
func NewRunner(chain *Chain, workers int) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{chain: chain, workers: workers, log: logger.Nop()}
}

func (r *Runner) WithLogger(log logger.Logger) *Runner {
	r.log = log
	return r
}

func (r *Runner) Workers() int {
	return r.workers
}

// childSources derives one PCG source per image from rng.
func childSources(rng *rand.Rand, n int) []*rand.Rand {
	out := make([]*rand.Rand, n)
	for i := range out {
		out[i] = rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64()))
	}
	return out
}

// Run returns a new batch, in input order. The first failing image cancels
// the rest.
func (r *Runner) Run(ctx context.Context, rng *rand.Rand, batch tensor.Batch) (tensor.Batch, error) {
	sources := childSources(rng, len(batch))
	out := make(tensor.Batch, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, img := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.chain.Execute(gctx, sources[i], img)
			if err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.log.Error("runner", err, map[string]interface{}{"batch": len(batch)})
		return nil, err
	}

	r.log.Debug("runner", "batch augmented", map[string]interface{}{
		"batch":   len(batch),
		"workers": r.workers,
	})
	return out, nil
}
