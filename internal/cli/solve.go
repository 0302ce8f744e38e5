package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"facility-planner/internal/config"
	"facility-planner/internal/database"
	"facility-planner/internal/distance"
	"facility-planner/internal/models"
	"facility-planner/internal/orlib"
	"facility-planner/internal/pmedian"
	"facility-planner/internal/server"
)

type solveOptions struct {
	matrixPath  string
	orlibPath   string
	sitesPath   string
	metric      string
	cacheFile   string
	p           int
	restarts    int
	seed        int64
	workers     int
	parallelism int
	maxPasses   int
	timeout     time.Duration
	jsonOutput  bool
}

// solveOutput is the --json result
type solveOutput struct {
	Facilities  []int   `json:"facilities"`
	Cost        float64 `json:"cost"`
	Swaps       int     `json:"swaps"`
	Passes      int     `json:"passes"`
	Converged   bool    `json:"converged"`
	Restarts    int     `json:"restarts"`
	BestRestart int     `json:"best_restart"`
	Seed        int64   `json:"seed"`
	Points      int     `json:"points"`
	// Sites names the opened facilities for --sites input
	Sites []string `json:"sites,omitempty"`
}

// instance is a loaded problem; names is set only for --sites input
type instance struct {
	dist  pmedian.Matrix
	p     int
	names []string
}

func (c *CLI) solveCommand() *cobra.Command {
	var opts solveOptions

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a p-median instance",
		Long: `Solve a p-median instance given as a JSON distance matrix ([[0,1],[1,0]]), an
OR-Library pmed file, or a JSON list of sites ([{"name","lat","lng"}]) measured
with the configured distance provider. Facility indices in the output are 0-based.`,
		Example: `  planner solve --matrix dist.json -p 3 --restarts 20 --seed 7
  planner solve --orlib pmed1.txt --json
  planner solve --sites depots.json -p 2 --metric duration`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("restarts") {
				opts.restarts = c.Config.Solver.Restarts
			}
			if !cmd.Flags().Changed("workers") {
				opts.workers = c.Config.Solver.Workers
			}
			if !cmd.Flags().Changed("parallelism") {
				opts.parallelism = c.Config.Solver.Parallelism
			}
			return c.runSolve(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.matrixPath, "matrix", "", "JSON file holding an N x N distance matrix")
	cmd.Flags().StringVar(&opts.orlibPath, "orlib", "", "OR-Library pmed instance file")
	cmd.Flags().StringVar(&opts.sitesPath, "sites", "", "JSON file holding candidate sites with coordinates")
	cmd.Flags().StringVar(&opts.metric, "metric", string(models.MetricDistance), "cost metric for --sites: distance or duration")
	cmd.Flags().StringVar(&opts.cacheFile, "cache-file", "", "distance cache for --sites (default ~/.facility-planner/distance_cache.json)")
	cmd.Flags().IntVarP(&opts.p, "facilities", "p", 0, "number of facilities (defaults to the instance's p for --orlib)")
	cmd.Flags().IntVar(&opts.restarts, "restarts", 8, "number of random starts")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "seed of the first random start")
	cmd.Flags().IntVar(&opts.workers, "workers", 1, "goroutines evaluating candidates within a search")
	cmd.Flags().IntVar(&opts.parallelism, "parallelism", 1, "random starts run concurrently")
	cmd.Flags().IntVar(&opts.maxPasses, "max-passes", 0, "stop each search after this many passes (0 = no limit)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "stop searching after this long and report the best so far")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print the result as JSON")

	cmd.MarkFlagsMutuallyExclusive("matrix", "orlib", "sites")
	cmd.MarkFlagsOneRequired("matrix", "orlib", "sites")
	return cmd
}

func (c *CLI) runSolve(ctx context.Context, out io.Writer, opts solveOptions) error {
	inst, err := c.loadInstance(ctx, opts)
	if err != nil {
		return err
	}
	dist, p := inst.dist, inst.p
	c.Logger.Debug("instance loaded", "points", dist.Size(), "facilities", p)

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	prog := newProgress(c.Logger)
	multi, err := pmedian.MultiStart(ctx, dist, p, pmedian.MultiStartOptions{
		Restarts:    opts.restarts,
		Seed:        opts.seed,
		Parallelism: opts.parallelism,
		Solver: pmedian.NewSolver(
			pmedian.WithWorkers(opts.workers),
			pmedian.WithMaxPasses(opts.maxPasses),
			pmedian.WithLogger(c.Logger.WithPrefix("solve")),
		),
	})
	if err != nil {
		return err
	}
	prog.done("solved", "cost", multi.Best.Cost, "restarts", len(multi.Runs))
	if !multi.Best.Converged {
		c.Logger.Warn("search stopped before reaching a local optimum")
	}

	result := solveOutput{
		Facilities:  multi.Best.Facilities,
		Cost:        multi.Best.Cost,
		Swaps:       multi.Best.Swaps,
		Passes:      multi.Best.Passes,
		Converged:   multi.Best.Converged,
		Restarts:    len(multi.Runs),
		BestRestart: multi.BestRestart,
		Seed:        multi.Seed,
		Points:      dist.Size(),
	}
	if inst.names != nil {
		for _, f := range result.Facilities {
			result.Sites = append(result.Sites, inst.names[f])
		}
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "facilities: %v\n", result.Facilities)
	if len(result.Sites) > 0 {
		fmt.Fprintf(out, "sites:      %s\n", strings.Join(result.Sites, ", "))
	}
	fmt.Fprintf(out, "cost:       %g\n", result.Cost)
	fmt.Fprintf(out, "swaps:      %d (passes %d, converged %t)\n", result.Swaps, result.Passes, result.Converged)
	fmt.Fprintf(out, "restarts:   %d (best %d, seed %d)\n", result.Restarts, result.BestRestart, result.Seed)
	return nil
}

func (c *CLI) loadInstance(ctx context.Context, opts solveOptions) (*instance, error) {
	switch {
	case opts.orlibPath != "":
		return loadORLib(opts)
	case opts.sitesPath != "":
		return c.loadSites(ctx, opts)
	}

	data, err := os.ReadFile(opts.matrixPath)
	if err != nil {
		return nil, err
	}
	var dist pmedian.Matrix
	if err := json.Unmarshal(data, &dist); err != nil {
		return nil, fmt.Errorf("%s: invalid matrix: %w", opts.matrixPath, err)
	}
	if opts.p <= 0 {
		return nil, fmt.Errorf("--facilities (-p) is required with --matrix")
	}
	return &instance{dist: dist, p: opts.p}, nil
}

func loadORLib(opts solveOptions) (*instance, error) {
	f, err := os.Open(opts.orlibPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	inst, err := orlib.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.orlibPath, err)
	}
	dist, err := inst.Matrix()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.orlibPath, err)
	}
	p := inst.P
	if opts.p > 0 {
		p = opts.p
	}
	return &instance{dist: dist, p: p}, nil
}

// loadSites measures a site list with the configured distance provider.
// Provider results go through a file cache since no database is open.
func (c *CLI) loadSites(ctx context.Context, opts solveOptions) (*instance, error) {
	if opts.p <= 0 {
		return nil, fmt.Errorf("--facilities (-p) is required with --sites")
	}
	metric := models.CostMetric(opts.metric)
	if !metric.Valid() {
		return nil, fmt.Errorf("unknown metric %q (want distance or duration)", opts.metric)
	}

	data, err := os.ReadFile(opts.sitesPath)
	if err != nil {
		return nil, err
	}
	var sites []models.Site
	if err := json.Unmarshal(data, &sites); err != nil {
		return nil, fmt.Errorf("%s: invalid sites: %w", opts.sitesPath, err)
	}
	if len(sites) == 0 {
		return nil, fmt.Errorf("%s: no sites", opts.sitesPath)
	}

	cachePath := opts.cacheFile
	if cachePath == "" {
		if cachePath, err = config.GetDistanceCachePath(); err != nil {
			return nil, err
		}
	}
	cache, err := database.NewFileDistanceCache(cachePath)
	if err != nil {
		return nil, err
	}

	points := make([]models.Coordinates, len(sites))
	names := make([]string, len(sites))
	for i := range sites {
		points[i] = sites[i].GetCoords()
		names[i] = sites[i].Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("#%d", i)
		}
	}

	prog := newProgress(c.Logger)
	calc := server.NewDistanceCalculator(c.Config, cache, c.Logger)
	results, err := calc.GetDistanceMatrix(ctx, points)
	if err != nil {
		return nil, err
	}
	prog.done("distances measured", "provider", c.Config.Distance.Provider, "sites", len(sites), "cached", cache.Len())

	dist, err := distance.ToMatrix(results, metric)
	if err != nil {
		return nil, err
	}
	return &instance{dist: dist, p: opts.p, names: names}, nil
}
