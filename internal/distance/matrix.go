package distance

import (
	"fmt"

	"facility-planner/internal/models"
	"facility-planner/internal/pmedian"
)

// ToMatrix converts calculator results into a solver cost matrix using the
// distance (meters) or duration (seconds) annotation
func ToMatrix(results [][]DistanceResult, metric models.CostMetric) (pmedian.Matrix, error) {
	if metric == "" {
		metric = models.MetricDistance
	}
	if !metric.Valid() {
		return nil, fmt.Errorf("unknown cost metric %q", metric)
	}

	m := make(pmedian.Matrix, len(results))
	for i, row := range results {
		m[i] = make([]float64, len(row))
		for j, r := range row {
			if metric == models.MetricDuration {
				m[i][j] = r.DurationSecs
			} else {
				m[i][j] = r.DistanceMeters
			}
		}
	}
	return m, nil
}
