package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strings"

	"facility-planner/internal/models"
)

// SiteListResponse represents the list response
type SiteListResponse struct {
	Sites []models.Site `json:"sites"`
	Total int           `json:"total"`
}

// siteInput carries either coordinates or an address to geocode
type siteInput struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

func validCoords(lat, lng float64) bool {
	return !math.IsNaN(lat) && lat >= -90 && lat <= 90 && !math.IsNaN(lng) && lng >= -180 && lng <= 180
}

// loadScenario writes a 404 or 500 and returns nil when the scenario cannot be used
func (h *Handler) loadScenario(w http.ResponseWriter, r *http.Request) *models.Scenario {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleValidationError(w, "Invalid scenario ID")
		return nil
	}
	scenario, err := h.DB.Scenarios().GetByID(r.Context(), id)
	if err != nil {
		h.handleInternalError(w, err)
		return nil
	}
	if scenario == nil {
		h.handleNotFound(w, "Scenario not found")
		return nil
	}
	return scenario
}

// HandleListSites handles GET /api/v1/scenarios/{id}/sites
func (h *Handler) HandleListSites(w http.ResponseWriter, r *http.Request) {
	scenario := h.loadScenario(w, r)
	if scenario == nil {
		return
	}

	sites, err := h.DB.Sites().ListByScenario(r.Context(), scenario.ID)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, SiteListResponse{Sites: sites, Total: len(sites)})
}

// HandleCreateSites handles POST /api/v1/scenarios/{id}/sites. The body is
// {"sites": [{"name", "address", "lat", "lng"}, ...]}; a site without
// coordinates is geocoded from its address.
func (h *Handler) HandleCreateSites(w http.ResponseWriter, r *http.Request) {
	scenario := h.loadScenario(w, r)
	if scenario == nil {
		return
	}

	var req struct {
		Sites []siteInput `json:"sites"`
	}
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.handleValidationError(w, "Invalid request body")
		return
	}
	if len(req.Sites) == 0 {
		h.handleValidationError(w, "At least one site is required")
		return
	}

	sites := make([]models.Site, len(req.Sites))
	for i, in := range req.Sites {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			h.handleValidationError(w, fmt.Sprintf("Site %d: name is required", i))
			return
		}
		site := models.Site{Name: name, Address: strings.TrimSpace(in.Address)}

		switch {
		case in.Lat != nil && in.Lng != nil:
			if !validCoords(*in.Lat, *in.Lng) {
				h.handleValidationError(w, fmt.Sprintf("Site %d: coordinates out of range", i))
				return
			}
			site.Lat, site.Lng = *in.Lat, *in.Lng
		case in.Lat != nil || in.Lng != nil:
			h.handleValidationError(w, fmt.Sprintf("Site %d: both lat and lng are required", i))
			return
		case site.Address == "":
			h.handleValidationError(w, fmt.Sprintf("Site %d: coordinates or address required", i))
			return
		case h.Geocoder == nil:
			h.handleValidationError(w, fmt.Sprintf("Site %d: address lookup is not configured", i))
			return
		default:
			result, err := h.Geocoder.GeocodeWithRetry(r.Context(), site.Address, geocodeRetries)
			if err != nil {
				h.handleGeocodingError(w, i, site.Address, err)
				return
			}
			site.Lat, site.Lng = result.Coords.Lat, result.Coords.Lng
		}
		sites[i] = site
	}

	created, err := h.DB.Sites().CreateBatch(r.Context(), scenario.ID, sites)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	h.logger().Info("created sites", "scenario", scenario.ID, "count", len(created))
	h.writeJSON(w, http.StatusCreated, SiteListResponse{Sites: created, Total: len(created)})
}

// HandleDeleteSite handles DELETE /api/v1/scenarios/{id}/sites/{siteID}
func (h *Handler) HandleDeleteSite(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := pathID(r, "id")
	if err != nil {
		h.handleValidationError(w, "Invalid scenario ID")
		return
	}
	siteID, err := pathID(r, "siteID")
	if err != nil {
		h.handleValidationError(w, "Invalid site ID")
		return
	}

	if err := h.DB.Sites().Delete(r.Context(), scenarioID, siteID); err != nil {
		if h.checkNotFound(err) {
			h.handleNotFound(w, "Site not found")
			return
		}
		h.handleInternalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
