package handlers

import (
	"io"
	"net/http"
	"time"

	"facility-planner/internal/models"
	"facility-planner/internal/planner"
)

// SolutionListResponse represents the list response
type SolutionListResponse struct {
	Solutions []models.Solution `json:"solutions"`
	Total     int               `json:"total"`
}

// HandleSolveScenario handles POST /api/v1/scenarios/{id}/solve. The optional
// body {"restarts", "seed"} controls the multi-start search; a missing seed is
// drawn from the clock and recorded on the solution.
func (h *Handler) HandleSolveScenario(w http.ResponseWriter, r *http.Request) {
	scenario := h.loadScenario(w, r)
	if scenario == nil {
		return
	}

	var req struct {
		Restarts int    `json:"restarts"`
		Seed     *int64 `json:"seed"`
	}
	if err := h.decodeJSON(w, r, &req); err != nil && err != io.EOF {
		h.handleValidationError(w, "Invalid request body")
		return
	}
	if req.Restarts < 0 || req.Restarts > maxRestarts {
		h.handleValidationError(w, "Restarts must be between 0 and 1000")
		return
	}
	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	sites, err := h.DB.Sites().ListByScenario(r.Context(), scenario.ID)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	h.logger().Info("solving scenario", "id", scenario.ID, "sites", len(sites),
		"facilities", scenario.Facilities, "restarts", req.Restarts, "seed", seed)

	solution, err := h.Planner.Plan(r.Context(), &planner.PlanRequest{
		ScenarioID: scenario.ID,
		Sites:      sites,
		Facilities: scenario.Facilities,
		Metric:     scenario.Metric,
		Restarts:   req.Restarts,
		Seed:       seed,
	})
	if err != nil {
		h.logger().Warn("planning failed", "id", scenario.ID, "err", err)
		h.handlePlanningError(w, err)
		return
	}

	saved, err := h.DB.Solutions().Create(r.Context(), solution)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, saved)
}

// HandleListSolutions handles GET /api/v1/scenarios/{id}/solutions
func (h *Handler) HandleListSolutions(w http.ResponseWriter, r *http.Request) {
	scenario := h.loadScenario(w, r)
	if scenario == nil {
		return
	}

	solutions, err := h.DB.Solutions().ListByScenario(r.Context(), scenario.ID)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, SolutionListResponse{Solutions: solutions, Total: len(solutions)})
}

// HandleGetSolution handles GET /api/v1/solutions/{id}
func (h *Handler) HandleGetSolution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleValidationError(w, "Invalid solution ID")
		return
	}

	solution, err := h.DB.Solutions().GetByID(r.Context(), id)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}
	if solution == nil {
		h.handleNotFound(w, "Solution not found")
		return
	}

	h.writeJSON(w, http.StatusOK, solution)
}
