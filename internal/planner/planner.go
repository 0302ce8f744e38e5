package planner

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"facility-planner/internal/distance"
	"facility-planner/internal/models"
	"facility-planner/internal/pmedian"
)

const DefaultRestarts = 8

// Option configures the planner
type Option func(*medianPlanner)

// WithRestarts sets the number of random starts used when a request does not specify one
func WithRestarts(n int) Option {
	return func(p *medianPlanner) {
		if n > 0 {
			p.restarts = n
		}
	}
}

// WithParallelism sets how many restarts run concurrently
func WithParallelism(n int) Option {
	return func(p *medianPlanner) {
		p.parallelism = n
	}
}

// WithWorkers sets the number of goroutines evaluating candidates within a solve
func WithWorkers(n int) Option {
	return func(p *medianPlanner) {
		p.workers = n
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(p *medianPlanner) {
		if l != nil {
			p.logger = l
		}
	}
}

// medianPlanner solves the p-median problem over road or great-circle costs
type medianPlanner struct {
	distanceCalc distance.DistanceCalculator
	restarts     int
	parallelism  int
	workers      int
	logger       *log.Logger
}

// NewPlanner creates a planner that places facilities to minimise the total
// cost from every site to its nearest facility
func NewPlanner(distanceCalc distance.DistanceCalculator, opts ...Option) Planner {
	p := &medianPlanner{
		distanceCalc: distanceCalc,
		restarts:     DefaultRestarts,
		parallelism:  1,
		workers:      1,
		logger:       log.Default().WithPrefix("planner"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *medianPlanner) Plan(ctx context.Context, req *PlanRequest) (*models.Solution, error) {
	totalStart := time.Now()
	n := len(req.Sites)

	if n == 0 {
		return nil, &ErrPlanningFailed{Reason: "scenario has no sites", Facilities: req.Facilities}
	}
	if req.Facilities <= 0 || req.Facilities > n {
		return nil, &ErrPlanningFailed{
			Reason:     "facility count must be between 1 and the number of sites",
			Sites:      n,
			Facilities: req.Facilities,
		}
	}
	metric := req.Metric
	if metric == "" {
		metric = models.MetricDistance
	}
	if !metric.Valid() {
		return nil, &ErrPlanningFailed{Reason: "unknown cost metric " + string(metric), Sites: n, Facilities: req.Facilities}
	}
	restarts := req.Restarts
	if restarts <= 0 {
		restarts = p.restarts
	}

	p.logger.Info("starting plan", "sites", n, "facilities", req.Facilities, "metric", metric,
		"restarts", restarts, "seed", req.Seed)

	points := make([]models.Coordinates, n)
	for i := range req.Sites {
		points[i] = req.Sites[i].GetCoords()
	}

	matrixStart := time.Now()
	results, err := p.distanceCalc.GetDistanceMatrix(ctx, points)
	if err != nil {
		return nil, err
	}
	dist, err := distance.ToMatrix(results, metric)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("distance matrix ready", "elapsed", time.Since(matrixStart))

	solveStart := time.Now()
	multi, err := pmedian.MultiStart(ctx, dist, req.Facilities, pmedian.MultiStartOptions{
		Restarts:    restarts,
		Seed:        req.Seed,
		Parallelism: p.parallelism,
		Solver: pmedian.NewSolver(
			pmedian.WithWorkers(p.workers),
			pmedian.WithLogger(p.logger.WithPrefix("planner/solve")),
		),
	})
	if err != nil {
		if errors.Is(err, pmedian.ErrInvalidInput) {
			return nil, &ErrPlanningFailed{Reason: "invalid distance matrix", Sites: n, Facilities: req.Facilities, Err: err}
		}
		return nil, err
	}
	p.logger.Debug("multi-start finished", "best_restart", multi.BestRestart, "elapsed", time.Since(solveStart))

	solution := buildSolution(req, metric, dist, multi)
	p.logger.Info("plan complete", "cost", solution.TotalCost, "converged", solution.Converged,
		"elapsed", time.Since(totalStart))
	return solution, nil
}

func buildSolution(req *PlanRequest, metric models.CostMetric, dist pmedian.Matrix, multi pmedian.MultiResult) *models.Solution {
	best := multi.Best
	facilityIDs := make([]int64, len(best.Facilities))
	for i, f := range best.Facilities {
		facilityIDs[i] = req.Sites[f].ID
	}

	a := pmedian.Assign(dist, best.Facilities)
	assignments := make([]models.SiteAssignment, len(req.Sites))
	for i, f := range a.Nearest {
		assignments[i] = models.SiteAssignment{
			SiteID:         req.Sites[i].ID,
			FacilitySiteID: req.Sites[f].ID,
			Cost:           dist[i][f],
		}
	}

	return &models.Solution{
		RunID:           uuid.NewString(),
		ScenarioID:      req.ScenarioID,
		FacilitySiteIDs: facilityIDs,
		TotalCost:       best.Cost,
		Metric:          metric,
		Swaps:           best.Swaps,
		Passes:          best.Passes,
		Restarts:        len(multi.Runs),
		Seed:            multi.Seed,
		Converged:       best.Converged,
		Assignments:     assignments,
	}
}
