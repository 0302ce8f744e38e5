package handlers

import (
	"errors"
	"net/http"

	"facility-planner/internal/pmedian"
)

// SolveRequest is the body of a stateless solve
type SolveRequest struct {
	Matrix   [][]float64 `json:"matrix"`
	P        int         `json:"p"`
	Restarts int         `json:"restarts"`
	Seed     int64       `json:"seed"`
	// Initial, when set, runs a single deterministic search from this facility set
	Initial []int `json:"initial,omitempty"`
}

// SolveResponse is the result of a stateless solve
type SolveResponse struct {
	Facilities  []int   `json:"facilities"`
	Cost        float64 `json:"cost"`
	Swaps       int     `json:"swaps"`
	Passes      int     `json:"passes"`
	Converged   bool    `json:"converged"`
	Restarts    int     `json:"restarts"`
	BestRestart int     `json:"best_restart"`
	Seed        int64   `json:"seed"`
	// Nearest maps every point to the index of its facility
	Nearest []int `json:"nearest"`
}

// HandleSolve handles POST /api/v1/solve
func (h *Handler) HandleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.handleValidationError(w, "Invalid request body")
		return
	}
	if req.Restarts < 0 || req.Restarts > maxRestarts {
		h.handleValidationError(w, "Restarts must be between 0 and 1000")
		return
	}

	dist := pmedian.Matrix(req.Matrix)
	resp := SolveResponse{Seed: req.Seed}
	var res pmedian.Result
	var err error

	if req.Initial != nil {
		res, err = pmedian.NewSolver().SolveFrom(r.Context(), dist, req.Initial)
		resp.Restarts = 1
	} else {
		var multi pmedian.MultiResult
		multi, err = pmedian.MultiStart(r.Context(), dist, req.P, pmedian.MultiStartOptions{
			Restarts:    req.Restarts,
			Seed:        req.Seed,
			Parallelism: h.Parallelism,
		})
		res = multi.Best
		resp.Restarts = len(multi.Runs)
		resp.BestRestart = multi.BestRestart
	}
	if err != nil {
		if errors.Is(err, pmedian.ErrInvalidInput) {
			h.handleValidationError(w, err.Error())
			return
		}
		h.handleInternalError(w, err)
		return
	}

	resp.Facilities = res.Facilities
	resp.Cost = res.Cost
	resp.Swaps = res.Swaps
	resp.Passes = res.Passes
	resp.Converged = res.Converged
	resp.Nearest = pmedian.Assign(dist, res.Facilities).Nearest

	h.logger().Debug("stateless solve", "points", dist.Size(), "facilities", len(res.Facilities), "cost", res.Cost)
	h.writeJSON(w, http.StatusOK, resp)
}
