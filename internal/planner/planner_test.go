package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facility-planner/internal/distance"
	"facility-planner/internal/models"
	"facility-planner/internal/testutil"
)

// lineSites places sites along the equator so that mock distances are
// proportional to 0, 1, 2 and 10
func lineSites() []models.Site {
	offsets := []float64{0, 0.01, 0.02, 0.10}
	sites := make([]models.Site, len(offsets))
	for i, lng := range offsets {
		sites[i] = models.Site{ID: int64(100 + i), ScenarioID: 1, Name: "site", Lat: 0, Lng: lng}
	}
	return sites
}

func TestPlan_LineScenario(t *testing.T) {
	calc := testutil.NewMockDistanceCalculator()
	p := NewPlanner(calc, WithParallelism(2))

	sol, err := p.Plan(context.Background(), &PlanRequest{
		ScenarioID: 1,
		Sites:      lineSites(),
		Facilities: 2,
		Restarts:   4,
		Seed:       7,
	})
	require.NoError(t, err)

	assert.Contains(t, sol.FacilitySiteIDs, int64(103))
	assert.Contains(t, sol.FacilitySiteIDs, int64(101))
	assert.InDelta(t, 2220, sol.TotalCost, 1e-6)
	assert.Equal(t, models.MetricDistance, sol.Metric)
	assert.Equal(t, int64(1), sol.ScenarioID)
	assert.Equal(t, 4, sol.Restarts)
	assert.Equal(t, int64(7), sol.Seed)
	assert.True(t, sol.Converged)
	assert.Equal(t, 1, calc.MatrixCalls)

	_, err = uuid.Parse(sol.RunID)
	assert.NoError(t, err)

	require.Len(t, sol.Assignments, 4)
	sum := 0.0
	for i, a := range sol.Assignments {
		assert.Equal(t, int64(100+i), a.SiteID)
		assert.Contains(t, sol.FacilitySiteIDs, a.FacilitySiteID)
		sum += a.Cost
	}
	assert.InDelta(t, sol.TotalCost, sum, 1e-6)
}

func TestPlan_DurationMetric(t *testing.T) {
	p := NewPlanner(testutil.NewMockDistanceCalculator())

	sol, err := p.Plan(context.Background(), &PlanRequest{
		Sites:      lineSites(),
		Facilities: 2,
		Metric:     models.MetricDuration,
		Seed:       1,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MetricDuration, sol.Metric)
	assert.InDelta(t, 2220.0/50000*3600, sol.TotalCost, 1e-6)
	assert.Equal(t, DefaultRestarts, sol.Restarts)
}

func TestPlan_Deterministic(t *testing.T) {
	req := &PlanRequest{Sites: lineSites(), Facilities: 2, Restarts: 3, Seed: 99}

	first, err := NewPlanner(testutil.NewMockDistanceCalculator()).Plan(context.Background(), req)
	require.NoError(t, err)
	second, err := NewPlanner(testutil.NewMockDistanceCalculator(), WithParallelism(3), WithWorkers(2)).
		Plan(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.FacilitySiteIDs, second.FacilitySiteIDs)
	assert.Equal(t, first.TotalCost, second.TotalCost)
	assert.Equal(t, first.Assignments, second.Assignments)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestPlan_AllSitesOpen(t *testing.T) {
	sol, err := NewPlanner(testutil.NewMockDistanceCalculator(), WithRestarts(2)).
		Plan(context.Background(), &PlanRequest{Sites: lineSites(), Facilities: 4})
	require.NoError(t, err)
	assert.Zero(t, sol.TotalCost)
	assert.Zero(t, sol.Swaps)
	assert.Equal(t, 2, sol.Restarts)
	assert.ElementsMatch(t, []int64{100, 101, 102, 103}, sol.FacilitySiteIDs)
}

func TestPlan_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		req  *PlanRequest
	}{
		{"no sites", &PlanRequest{Facilities: 1}},
		{"zero facilities", &PlanRequest{Sites: lineSites(), Facilities: 0}},
		{"too many facilities", &PlanRequest{Sites: lineSites(), Facilities: 5}},
		{"unknown metric", &PlanRequest{Sites: lineSites(), Facilities: 1, Metric: "fuel"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := testutil.NewMockDistanceCalculator()
			_, err := NewPlanner(calc).Plan(context.Background(), tt.req)

			var planErr *ErrPlanningFailed
			require.True(t, errors.As(err, &planErr))
			assert.NotEmpty(t, planErr.Reason)
			assert.Zero(t, calc.MatrixCalls)
		})
	}
}

func TestPlan_DistanceFailure(t *testing.T) {
	calc := testutil.NewMockDistanceCalculator()
	calc.Err = &distance.ErrDistanceCalculationFailed{Reason: "HTTP 503"}

	_, err := NewPlanner(calc).Plan(context.Background(), &PlanRequest{Sites: lineSites(), Facilities: 2})

	var calcErr *distance.ErrDistanceCalculationFailed
	assert.True(t, errors.As(err, &calcErr))
}

func TestPlan_InvalidCosts(t *testing.T) {
	calc := testutil.NewMockDistanceCalculator()
	sites := lineSites()
	calc.SetDistance(sites[0].GetCoords(), sites[1].GetCoords(), -5, -1)

	_, err := NewPlanner(calc).Plan(context.Background(), &PlanRequest{Sites: sites, Facilities: 2})

	var planErr *ErrPlanningFailed
	require.True(t, errors.As(err, &planErr))
	assert.Equal(t, "invalid distance matrix", planErr.Reason)
}
