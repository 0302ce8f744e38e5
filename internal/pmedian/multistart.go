package pmedian

import (
	"context"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"
)

// MultiStartOptions configures MultiStart.
type MultiStartOptions struct {
	// Restarts is the number of independent solves. Values below 1 mean 1.
	Restarts int
	// Seed seeds restart k with Seed+k.
	Seed int64
	// Parallelism caps the number of concurrent solves. Values below 1 run
	// the restarts one after another.
	Parallelism int
	// Solver runs each restart. A default solver is used when nil.
	Solver *Solver
}

// MultiResult collects the runs of a MultiStart call.
type MultiResult struct {
	Best        Result
	BestRestart int
	Seed        int64
	Runs        []Result
}

// NewRand returns the generator MultiStart uses for the given seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))
}

// MultiStart runs several local searches from independently seeded random
// starts and keeps the cheapest. Equal costs keep the lowest restart index, so
// the outcome does not depend on scheduling.
func MultiStart(ctx context.Context, dist Matrix, p int, opts MultiStartOptions) (MultiResult, error) {
	if err := dist.Validate(); err != nil {
		return MultiResult{}, err
	}
	if err := validateFacilityCount(dist.Size(), p); err != nil {
		return MultiResult{}, err
	}

	restarts := max(opts.Restarts, 1)
	solver := opts.Solver
	if solver == nil {
		solver = NewSolver()
	}

	runs := make([]Result, restarts)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Parallelism, 1))
	for k := 0; k < restarts; k++ {
		g.Go(func() error {
			res, err := solver.Solve(gctx, dist, p, NewRand(opts.Seed+int64(k)))
			if err != nil {
				return err
			}
			runs[k] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MultiResult{}, err
	}

	best := 0
	for k := 1; k < restarts; k++ {
		if runs[k].Cost < runs[best].Cost {
			best = k
		}
	}
	return MultiResult{
		Best:        runs[best],
		BestRestart: best,
		Seed:        opts.Seed,
		Runs:        runs,
	}, nil
}
