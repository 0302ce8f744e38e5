package pmedian

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Result is the outcome of a single local search.
type Result struct {
	// Facilities holds the selected point indices. Order reflects the initial
	// set with swapped-in points taking the position of the removed ones.
	Facilities []int
	Cost       float64
	// Swaps is the number of accepted swaps, Passes the number of full
	// evaluation passes (the last pass of a converged run finds no swap).
	Swaps  int
	Passes int
	// Converged is false when the search stopped early because the context
	// was done or the pass limit was reached.
	Converged bool
}

// Step describes one accepted swap.
type Step struct {
	Pass int
	Swap Swap
	// Cost is the total cost after the swap was applied.
	Cost float64
}

// Option configures a Solver.
type Option func(*Solver)

// WithWorkers evaluates the candidates of each pass on n goroutines. Values
// below 2 keep the pass sequential. Results are identical either way.
func WithWorkers(n int) Option {
	return func(s *Solver) {
		s.workers = n
	}
}

// WithLogger sets the logger used for per-pass debug output.
func WithLogger(l *log.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver registers fn to be called after every accepted swap.
func WithObserver(fn func(Step)) Option {
	return func(s *Solver) {
		s.observer = fn
	}
}

// WithMaxPasses stops the search after n evaluation passes. Zero means no
// limit.
func WithMaxPasses(n int) Option {
	return func(s *Solver) {
		s.maxPasses = n
	}
}

// Solver runs the Teitz-Bart local search. A Solver holds no per-solve state
// and may be shared by concurrent solves.
type Solver struct {
	workers   int
	maxPasses int
	logger    *log.Logger
	observer  func(Step)
}

// NewSolver creates a solver with the given options.
func NewSolver(opts ...Option) *Solver {
	s := &Solver{
		workers: 1,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve samples p distinct facilities uniformly from [0, N) using rng and
// improves them until no single swap lowers the total cost.
func (s *Solver) Solve(ctx context.Context, dist Matrix, p int, rng *rand.Rand) (Result, error) {
	if err := dist.Validate(); err != nil {
		return Result{}, err
	}
	if err := validateFacilityCount(dist.Size(), p); err != nil {
		return Result{}, err
	}
	if rng == nil {
		return Result{}, invalidInput("nil random source")
	}
	return s.run(ctx, dist, sample(rng, dist.Size(), p)), nil
}

// SolveFrom runs the local search from the given facility set. initial is
// copied and left untouched.
func (s *Solver) SolveFrom(ctx context.Context, dist Matrix, initial []int) (Result, error) {
	if err := dist.Validate(); err != nil {
		return Result{}, err
	}
	if err := validateFacilities(dist.Size(), initial); err != nil {
		return Result{}, err
	}
	facilities := make([]int, len(initial))
	copy(facilities, initial)
	return s.run(ctx, dist, facilities), nil
}

// sample draws p distinct indices from [0, n) with a partial Fisher-Yates
// shuffle.
func sample(rng *rand.Rand, n, p int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < p; i++ {
		j := i + rng.IntN(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	facilities := make([]int, p)
	copy(facilities, perm[:p])
	return facilities
}

func (s *Solver) run(ctx context.Context, dist Matrix, facilities []int) Result {
	start := time.Now()
	n := dist.Size()

	isFacility := make([]bool, n)
	for _, f := range facilities {
		isFacility[f] = true
	}

	a := Assign(dist, facilities)
	res := Result{Facilities: facilities, Cost: a.Cost}
	s.logger.Debug("initial assignment", "points", n, "facilities", len(facilities), "cost", a.Cost)

	evals := make([]*evaluator, s.chunks(n))
	for i := range evals {
		evals[i] = newEvaluator(n)
	}

	for {
		best, found := s.bestSwap(dist, facilities, isFacility, a, evals)
		res.Passes++

		if !found || best.Gain <= 0 {
			res.Converged = true
			break
		}
		if err := ctx.Err(); err != nil {
			s.logger.Warn("search interrupted", "passes", res.Passes, "cost", res.Cost, "err", err)
			break
		}

		pos := slices.Index(facilities, best.Remove)
		facilities[pos] = best.Insert
		next := Assign(dist, facilities)
		// A gain that is positive only through rounding must not be taken,
		// or the search can swap back and forth forever.
		if next.Cost >= res.Cost {
			facilities[pos] = best.Remove
			s.logger.Debug("swap rejected, cost did not drop", "pass", res.Passes, "gain", best.Gain,
				"cost", res.Cost, "next", next.Cost)
			res.Converged = true
			break
		}
		isFacility[best.Remove] = false
		isFacility[best.Insert] = true

		a = next
		res.Cost = a.Cost
		res.Swaps++
		s.logger.Debug("swap applied", "pass", res.Passes, "insert", best.Insert, "remove", best.Remove,
			"gain", best.Gain, "cost", a.Cost)
		if s.observer != nil {
			s.observer(Step{Pass: res.Passes, Swap: best, Cost: a.Cost})
		}

		if s.maxPasses > 0 && res.Passes >= s.maxPasses {
			s.logger.Debug("pass limit reached", "passes", res.Passes)
			break
		}
	}

	s.logger.Debug("search finished", "cost", res.Cost, "swaps", res.Swaps, "passes", res.Passes,
		"converged", res.Converged, "elapsed", time.Since(start))
	return res
}

func (s *Solver) chunks(n int) int {
	if s.workers < 2 {
		return 1
	}
	return min(s.workers, n)
}

// bestSwap evaluates every non-facility candidate and returns the one with
// the greatest gain, lowest index first on ties.
func (s *Solver) bestSwap(dist Matrix, facilities []int, isFacility []bool, a Assignment, evals []*evaluator) (Swap, bool) {
	n := dist.Size()
	if len(evals) == 1 {
		return scanRange(dist, facilities, isFacility, a, evals[0], 0, n)
	}

	type chunkBest struct {
		swap  Swap
		found bool
	}
	results := make([]chunkBest, len(evals))
	size := (n + len(evals) - 1) / len(evals)

	var wg sync.WaitGroup
	for c := range evals {
		lo, hi := c*size, min((c+1)*size, n)
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			sw, ok := scanRange(dist, facilities, isFacility, a, evals[c], lo, hi)
			results[c] = chunkBest{swap: sw, found: ok}
		}()
	}
	wg.Wait()

	// Chunks cover ascending index ranges, so a strict comparison in chunk
	// order keeps the lowest candidate index among equal gains.
	best := Swap{Gain: math.Inf(-1)}
	found := false
	for _, r := range results {
		if r.found && r.swap.Gain > best.Gain {
			best = r.swap
			found = true
		}
	}
	return best, found
}

func scanRange(dist Matrix, facilities []int, isFacility []bool, a Assignment, e *evaluator, lo, hi int) (Swap, bool) {
	best := Swap{Gain: math.Inf(-1)}
	found := false
	for c := lo; c < hi; c++ {
		if isFacility[c] {
			continue
		}
		sw := e.evaluate(dist, facilities, a, c)
		if sw.Gain > best.Gain {
			best = sw
			found = true
		}
	}
	return best, found
}

// IsLocalOptimum reports whether no single swap strictly lowers the cost of
// the given facility set.
func IsLocalOptimum(dist Matrix, facilities []int) bool {
	a := Assign(dist, facilities)
	isFacility := make([]bool, dist.Size())
	for _, f := range facilities {
		isFacility[f] = true
	}
	best, found := scanRange(dist, facilities, isFacility, a, newEvaluator(dist.Size()), 0, dist.Size())
	return !found || best.Gain <= 0
}
