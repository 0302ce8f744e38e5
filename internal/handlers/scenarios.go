package handlers

import (
	"net/http"
	"strings"

	"facility-planner/internal/models"
)

// ScenarioListResponse represents the list response
type ScenarioListResponse struct {
	Scenarios []models.Scenario `json:"scenarios"`
	Total     int               `json:"total"`
}

type scenarioRequest struct {
	Name       string            `json:"name"`
	Facilities int               `json:"facilities"`
	Metric     models.CostMetric `json:"metric"`
	Notes      string            `json:"notes"`
}

func (req *scenarioRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "Name is required"
	}
	if req.Facilities < 1 {
		return "Facilities must be at least 1"
	}
	if req.Metric != "" && !req.Metric.Valid() {
		return "Metric must be \"distance\" or \"duration\""
	}
	return ""
}

// HandleListScenarios handles GET /api/v1/scenarios
func (h *Handler) HandleListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := h.DB.Scenarios().List(r.Context())
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, ScenarioListResponse{
		Scenarios: scenarios,
		Total:     len(scenarios),
	})
}

// HandleGetScenario handles GET /api/v1/scenarios/{id}
func (h *Handler) HandleGetScenario(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleValidationError(w, "Invalid scenario ID")
		return
	}

	scenario, err := h.DB.Scenarios().GetByID(r.Context(), id)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}
	if scenario == nil {
		h.handleNotFound(w, "Scenario not found")
		return
	}

	h.writeJSON(w, http.StatusOK, scenario)
}

// HandleCreateScenario handles POST /api/v1/scenarios
func (h *Handler) HandleCreateScenario(w http.ResponseWriter, r *http.Request) {
	var req scenarioRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.handleValidationError(w, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		h.handleValidationError(w, msg)
		return
	}

	scenario, err := h.DB.Scenarios().Create(r.Context(), &models.Scenario{
		Name:       req.Name,
		Facilities: req.Facilities,
		Metric:     req.Metric,
		Notes:      req.Notes,
	})
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	h.logger().Info("created scenario", "id", scenario.ID, "name", scenario.Name)
	h.writeJSON(w, http.StatusCreated, scenario)
}

// HandleUpdateScenario handles PUT /api/v1/scenarios/{id}
func (h *Handler) HandleUpdateScenario(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleValidationError(w, "Invalid scenario ID")
		return
	}

	var req scenarioRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.handleValidationError(w, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		h.handleValidationError(w, msg)
		return
	}

	existing, err := h.DB.Scenarios().GetByID(r.Context(), id)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}
	if existing == nil {
		h.handleNotFound(w, "Scenario not found")
		return
	}

	existing.Name = req.Name
	existing.Facilities = req.Facilities
	existing.Metric = req.Metric
	existing.Notes = req.Notes

	scenario, err := h.DB.Scenarios().Update(r.Context(), existing)
	if err != nil {
		if h.checkNotFound(err) {
			h.handleNotFound(w, "Scenario not found")
			return
		}
		h.handleInternalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, scenario)
}

// HandleDeleteScenario handles DELETE /api/v1/scenarios/{id}
func (h *Handler) HandleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleValidationError(w, "Invalid scenario ID")
		return
	}

	if err := h.DB.Scenarios().Delete(r.Context(), id); err != nil {
		if h.checkNotFound(err) {
			h.handleNotFound(w, "Scenario not found")
			return
		}
		h.handleInternalError(w, err)
		return
	}

	h.logger().Info("deleted scenario", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
