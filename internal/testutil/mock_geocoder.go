package testutil

import (
	"context"
	"strings"
	"sync"

	"facility-planner/internal/geocoding"
	"facility-planner/internal/models"
)

// MockGeocoder resolves addresses from a fixed table
type MockGeocoder struct {
	mu        sync.Mutex
	Addresses map[string]models.Coordinates
	Calls     []string
}

// NewMockGeocoder creates a geocoder that knows the given addresses
func NewMockGeocoder(addresses map[string]models.Coordinates) *MockGeocoder {
	if addresses == nil {
		addresses = make(map[string]models.Coordinates)
	}
	return &MockGeocoder{Addresses: addresses}
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (*geocoding.GeocodingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, address)

	coords, ok := m.Addresses[address]
	if !ok {
		return nil, &geocoding.ErrGeocodingFailed{Address: address, Reason: "no results found"}
	}
	return &geocoding.GeocodingResult{Coords: coords, DisplayName: address}, nil
}

func (m *MockGeocoder) GeocodeWithRetry(ctx context.Context, address string, maxRetries int) (*geocoding.GeocodingResult, error) {
	return m.Geocode(ctx, address)
}

func (m *MockGeocoder) Search(ctx context.Context, query string, limit int) ([]geocoding.GeocodingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, query)

	results := []geocoding.GeocodingResult{}
	for addr, coords := range m.Addresses {
		if len(results) == limit {
			break
		}
		if strings.Contains(strings.ToLower(addr), strings.ToLower(query)) {
			results = append(results, geocoding.GeocodingResult{Coords: coords, DisplayName: addr})
		}
	}
	return results, nil
}
