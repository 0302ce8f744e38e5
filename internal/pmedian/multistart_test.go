package pmedian

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiStart_KeepsCheapestRun(t *testing.T) {
	dist := planarMatrix(70, 31)

	res, err := MultiStart(context.Background(), dist, 6, MultiStartOptions{
		Restarts:    8,
		Seed:        100,
		Parallelism: 4,
	})
	require.NoError(t, err)
	require.Len(t, res.Runs, 8)

	for k, run := range res.Runs {
		assert.True(t, run.Converged, "restart %d", k)
		assert.GreaterOrEqual(t, run.Cost, res.Best.Cost, "restart %d", k)
		if k < res.BestRestart {
			assert.Greater(t, run.Cost, res.Best.Cost, "restart %d", k)
		}
	}
	assert.Equal(t, res.Runs[res.BestRestart], res.Best)
	assert.Equal(t, int64(100), res.Seed)
}

func TestMultiStart_Reproducible(t *testing.T) {
	dist := planarMatrix(50, 9)
	opts := MultiStartOptions{Restarts: 5, Seed: 7}

	sequential, err := MultiStart(context.Background(), dist, 4, opts)
	require.NoError(t, err)

	opts.Parallelism = 5
	opts.Solver = NewSolver(WithWorkers(3))
	parallel, err := MultiStart(context.Background(), dist, 4, opts)
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}

func TestMultiStart_RestartMatchesSingleSolve(t *testing.T) {
	dist := planarMatrix(40, 12)

	multi, err := MultiStart(context.Background(), dist, 3, MultiStartOptions{Restarts: 3, Seed: 40})
	require.NoError(t, err)

	single, err := NewSolver().Solve(context.Background(), dist, 3, NewRand(42))
	require.NoError(t, err)
	assert.Equal(t, single, multi.Runs[2])
}

func TestMultiStart_InvalidInput(t *testing.T) {
	_, err := MultiStart(context.Background(), lineMatrix(0, 1), 3, MultiStartOptions{Restarts: 2})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMultiStart_DefaultsToSingleRestart(t *testing.T) {
	res, err := MultiStart(context.Background(), lineMatrix(0, 5, 10), 1, MultiStartOptions{})
	require.NoError(t, err)

	assert.Len(t, res.Runs, 1)
	assert.Equal(t, []int{1}, res.Best.Facilities)
	assert.Equal(t, 10.0, res.Best.Cost)
}
