package testutil

import (
	"context"
	"fmt"
	"math"
	"sync"

	"facility-planner/internal/distance"
	"facility-planner/internal/models"
)

// DistanceCall tracks a call to the distance calculator
type DistanceCall struct {
	Origin models.Coordinates
	Dest   models.Coordinates
}

// MockDistanceCalculator is a mock implementation for testing.
// It calculates Euclidean distance (scaled) between coordinates for deterministic tests.
type MockDistanceCalculator struct {
	ScaleFactor float64
	Overrides   map[string]*distance.DistanceResult
	// Err, when set, is returned by every matrix call
	Err error

	mu          sync.Mutex
	Calls       []DistanceCall
	MatrixCalls int
}

var _ distance.DistanceCalculator = (*MockDistanceCalculator)(nil)

func NewMockDistanceCalculator() *MockDistanceCalculator {
	return &MockDistanceCalculator{
		ScaleFactor: 111000, // 1 degree ≈ 111km in meters
		Overrides:   make(map[string]*distance.DistanceResult),
	}
}

func (m *MockDistanceCalculator) makeKey(origin, dest models.Coordinates) string {
	return fmt.Sprintf("%.5f,%.5f->%.5f,%.5f", origin.Lat, origin.Lng, dest.Lat, dest.Lng)
}

// SetDistance sets a custom distance for a specific origin-destination pair
func (m *MockDistanceCalculator) SetDistance(origin, dest models.Coordinates, distMeters, durSecs float64) {
	m.Overrides[m.makeKey(origin, dest)] = &distance.DistanceResult{
		DistanceMeters: distMeters,
		DurationSecs:   durSecs,
	}
}

func (m *MockDistanceCalculator) lookup(origin, dest models.Coordinates) distance.DistanceResult {
	m.mu.Lock()
	m.Calls = append(m.Calls, DistanceCall{Origin: origin, Dest: dest})
	m.mu.Unlock()

	if override, ok := m.Overrides[m.makeKey(origin, dest)]; ok {
		return *override
	}
	if models.RoundCoordinate(origin.Lat) == models.RoundCoordinate(dest.Lat) &&
		models.RoundCoordinate(origin.Lng) == models.RoundCoordinate(dest.Lng) {
		return distance.DistanceResult{}
	}

	dLat := dest.Lat - origin.Lat
	dLng := dest.Lng - origin.Lng
	dist := math.Sqrt(dLat*dLat+dLng*dLng) * m.ScaleFactor
	// Assume average speed of 50 km/h for duration
	return distance.DistanceResult{DistanceMeters: dist, DurationSecs: dist / 50000 * 3600}
}

// GetDistance returns the distance between two points
func (m *MockDistanceCalculator) GetDistance(ctx context.Context, origin, dest models.Coordinates) (*distance.DistanceResult, error) {
	r := m.lookup(origin, dest)
	return &r, nil
}

// GetDistanceMatrix returns a matrix of distances between all pairs of points
func (m *MockDistanceCalculator) GetDistanceMatrix(ctx context.Context, points []models.Coordinates) ([][]distance.DistanceResult, error) {
	m.mu.Lock()
	m.MatrixCalls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	matrix := make([][]distance.DistanceResult, len(points))
	for i := range matrix {
		matrix[i] = make([]distance.DistanceResult, len(points))
		for j := range matrix[i] {
			if i != j {
				matrix[i][j] = m.lookup(points[i], points[j])
			}
		}
	}
	return matrix, nil
}

// GetDistancesFromPoint returns distances from a single origin to multiple destinations
func (m *MockDistanceCalculator) GetDistancesFromPoint(ctx context.Context, origin models.Coordinates, destinations []models.Coordinates) ([]distance.DistanceResult, error) {
	results := make([]distance.DistanceResult, len(destinations))
	for i, dest := range destinations {
		results[i] = m.lookup(origin, dest)
	}
	return results, nil
}

// PrewarmCache is a no-op for the mock
func (m *MockDistanceCalculator) PrewarmCache(ctx context.Context, points []models.Coordinates) error {
	return nil
}

// ResetCalls clears the recorded calls
func (m *MockDistanceCalculator) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.MatrixCalls = 0
}
