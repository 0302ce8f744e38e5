package distance

import (
	"context"
	"math"

	"facility-planner/internal/models"
)

const (
	earthRadiusMeters = 6371008.8

	// DefaultSpeedMPS is used to derive durations when no speed is given (50 km/h)
	DefaultSpeedMPS = 50000.0 / 3600.0
)

type haversineCalculator struct {
	speedMPS float64
}

// NewHaversineCalculator returns a calculator using great-circle distances.
// Durations assume a constant speed in meters per second.
func NewHaversineCalculator(speedMPS float64) DistanceCalculator {
	if speedMPS <= 0 {
		speedMPS = DefaultSpeedMPS
	}
	return &haversineCalculator{speedMPS: speedMPS}
}

// Haversine returns the great-circle distance between a and b in meters
func Haversine(a, b models.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

func (c *haversineCalculator) result(origin, dest models.Coordinates) DistanceResult {
	if samePoint(origin, dest) {
		return DistanceResult{}
	}
	d := Haversine(origin, dest)
	return DistanceResult{DistanceMeters: d, DurationSecs: d / c.speedMPS}
}

func (c *haversineCalculator) GetDistance(ctx context.Context, origin, dest models.Coordinates) (*DistanceResult, error) {
	r := c.result(origin, dest)
	return &r, nil
}

func (c *haversineCalculator) GetDistanceMatrix(ctx context.Context, points []models.Coordinates) ([][]DistanceResult, error) {
	matrix := make([][]DistanceResult, len(points))
	for i := range points {
		matrix[i] = make([]DistanceResult, len(points))
		for j := range points {
			if i != j {
				matrix[i][j] = c.result(points[i], points[j])
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return matrix, nil
}

func (c *haversineCalculator) GetDistancesFromPoint(ctx context.Context, origin models.Coordinates, destinations []models.Coordinates) ([]DistanceResult, error) {
	results := make([]DistanceResult, len(destinations))
	for i, dest := range destinations {
		results[i] = c.result(origin, dest)
	}
	return results, nil
}

// PrewarmCache is a no-op; nothing is cached
func (c *haversineCalculator) PrewarmCache(ctx context.Context, points []models.Coordinates) error {
	return nil
}
