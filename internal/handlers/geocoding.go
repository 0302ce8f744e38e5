package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"facility-planner/internal/geocoding"
)

const (
	minAddressQuery    = 4
	defaultSearchLimit = 5
	maxSearchLimit     = 20
)

// HandleAddressSearch handles GET /api/v1/address-search?q=...&limit=...
func (h *Handler) HandleAddressSearch(w http.ResponseWriter, r *http.Request) {
	if h.Geocoder == nil {
		h.writeError(w, http.StatusNotImplemented, "NOT_CONFIGURED", "Address lookup is not configured", nil)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < minAddressQuery {
		h.writeJSON(w, http.StatusOK, []geocoding.GeocodingResult{})
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSearchLimit {
			h.handleValidationError(w, "limit must be between 1 and 20")
			return
		}
		limit = n
	}

	results, err := h.Geocoder.Search(r.Context(), query, limit)
	if err != nil {
		h.logger().Warn("address search failed", "query", query, "err", err)
		h.writeJSON(w, http.StatusOK, []geocoding.GeocodingResult{})
		return
	}

	h.logger().Debug("address search", "query", query, "results", len(results))
	h.writeJSON(w, http.StatusOK, results)
}
