package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"facility-planner/internal/database"
	"facility-planner/internal/distance"
	"facility-planner/internal/geocoding"
	"facility-planner/internal/planner"
)

const (
	// maxRestarts bounds the random starts a single request may ask for
	maxRestarts = 1000

	// maxBodyBytes bounds request bodies; stateless solves carry a full matrix
	maxBodyBytes = 32 << 20

	geocodeRetries = 3
)

// Handler provides common handler utilities and dependencies
type Handler struct {
	DB       database.DataStore
	Planner  planner.Planner
	Geocoder geocoding.Geocoder // nil disables address lookup
	Logger   *log.Logger

	// Parallelism caps concurrent restarts for stateless solves
	Parallelism int
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (h *Handler) logger() *log.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return log.Default()
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger().Error("failed to encode response", "err", err)
	}
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details any) {
	h.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// decodeJSON reads a JSON request body into v
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// pathID parses a numeric chi URL parameter
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// handleNotFound handles 404 errors
func (h *Handler) handleNotFound(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusNotFound, "NOT_FOUND", message, nil)
}

// handleValidationError handles 400 errors
func (h *Handler) handleValidationError(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", message, nil)
}

// handlePlanningError handles 422 errors for planning failures
func (h *Handler) handlePlanningError(w http.ResponseWriter, err error) {
	var perr *planner.ErrPlanningFailed
	if errors.As(err, &perr) {
		h.writeError(w, http.StatusUnprocessableEntity, "PLANNING_FAILED", perr.Reason, map[string]any{
			"sites":      perr.Sites,
			"facilities": perr.Facilities,
		})
		return
	}
	var derr *distance.ErrDistanceCalculationFailed
	if errors.As(err, &derr) {
		h.writeError(w, http.StatusUnprocessableEntity, "PLANNING_FAILED", derr.Error(), nil)
		return
	}
	h.handleInternalError(w, err)
}

// handleGeocodingError handles 422 errors for addresses that could not be resolved
func (h *Handler) handleGeocodingError(w http.ResponseWriter, index int, address string, err error) {
	var gerr *geocoding.ErrGeocodingFailed
	if !errors.As(err, &gerr) {
		h.handleInternalError(w, err)
		return
	}
	h.logger().Warn("geocoding failed", "address", address, "reason", gerr.Reason)
	h.writeError(w, http.StatusUnprocessableEntity, "GEOCODING_FAILED", gerr.Error(), map[string]any{
		"site":    index,
		"address": address,
	})
}

// handleInternalError handles 500 errors
func (h *Handler) handleInternalError(w http.ResponseWriter, err error) {
	h.logger().Error("internal error", "err", err)
	h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An error occurred. Please try again.", nil)
}

// checkNotFound checks if an error is a not found error
func (h *Handler) checkNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}

// HandleHealthCheck handles GET /api/v1/health
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "connected"

	if err := h.DB.HealthCheck(r.Context()); err != nil {
		h.logger().Warn("health check failed", "err", err)
		status = "degraded"
		dbStatus = "error"
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":   status,
		"database": dbStatus,
	})
}
