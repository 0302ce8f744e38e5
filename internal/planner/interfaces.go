package planner

import (
	"context"
	"fmt"

	"facility-planner/internal/models"
)

// PlanRequest contains the input for a facility placement
type PlanRequest struct {
	ScenarioID int64
	Sites      []models.Site
	Facilities int
	Metric     models.CostMetric
	// Restarts is the number of random starts; zero uses the planner default
	Restarts int
	Seed     int64
}

// Planner chooses facility sites among a scenario's candidate sites
type Planner interface {
	Plan(ctx context.Context, req *PlanRequest) (*models.Solution, error)
}

// ErrPlanningFailed is returned when a request cannot be planned
type ErrPlanningFailed struct {
	Reason     string
	Sites      int
	Facilities int
	Err        error
}

func (e *ErrPlanningFailed) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("planning failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("planning failed: %s", e.Reason)
}

func (e *ErrPlanningFailed) Unwrap() error {
	return e.Err
}
