package models

import (
	"math"
	"time"
)

// Coordinates represents a geographic point
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RoundCoordinate rounds a coordinate to 5 decimal places (~1m), the precision
// used for distance cache keys
func RoundCoordinate(v float64) float64 {
	return math.Round(v*100000) / 100000
}

// CostMetric selects which distance annotation feeds the solver
type CostMetric string

const (
	MetricDistance CostMetric = "distance" // meters
	MetricDuration CostMetric = "duration" // seconds
)

// Valid reports whether m is a known metric
func (m CostMetric) Valid() bool {
	return m == MetricDistance || m == MetricDuration
}

// Scenario is a named set of candidate sites and the number of facilities to open among them
type Scenario struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Facilities int        `json:"facilities"`
	Metric     CostMetric `json:"metric"`
	Notes      string     `json:"notes"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Site is a candidate point of a scenario. Every site is both a demand point
// and a potential facility.
type Site struct {
	ID         int64     `json:"id"`
	ScenarioID int64     `json:"scenario_id"`
	Name       string    `json:"name"`
	Address    string    `json:"address,omitempty"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	CreatedAt  time.Time `json:"created_at"`
}

// GetCoords returns the coordinates of the site
func (s *Site) GetCoords() Coordinates {
	return Coordinates{Lat: s.Lat, Lng: s.Lng}
}

// SiteAssignment links a site to the facility serving it
type SiteAssignment struct {
	SiteID         int64   `json:"site_id"`
	FacilitySiteID int64   `json:"facility_site_id"`
	Cost           float64 `json:"cost"`
}

// Solution is the stored outcome of solving a scenario
type Solution struct {
	ID              int64            `json:"id"`
	RunID           string           `json:"run_id"`
	ScenarioID      int64            `json:"scenario_id"`
	FacilitySiteIDs []int64          `json:"facility_site_ids"`
	TotalCost       float64          `json:"total_cost"`
	Metric          CostMetric       `json:"metric"`
	Swaps           int              `json:"swaps"`
	Passes          int              `json:"passes"`
	Restarts        int              `json:"restarts"`
	Seed            int64            `json:"seed"`
	Converged       bool             `json:"converged"`
	Assignments     []SiteAssignment `json:"assignments"`
	CreatedAt       time.Time        `json:"created_at"`
}

// DistanceCacheEntry represents a cached distance lookup
type DistanceCacheEntry struct {
	Origin         Coordinates `json:"origin"`
	Destination    Coordinates `json:"destination"`
	DistanceMeters float64     `json:"distance_meters"`
	DurationSecs   float64     `json:"duration_secs"`
}
