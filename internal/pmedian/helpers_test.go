package pmedian

import "math"

// lineMatrix builds absolute-difference distances between points on a line.
func lineMatrix(xs ...float64) Matrix {
	m := make(Matrix, len(xs))
	for i := range xs {
		m[i] = make([]float64, len(xs))
		for j := range xs {
			m[i][j] = math.Abs(xs[i] - xs[j])
		}
	}
	return m
}

// planarMatrix builds Euclidean distances between n seeded random points in
// the unit square.
func planarMatrix(n int, seed int64) Matrix {
	rng := NewRand(seed)
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = rng.Float64() * 100
		ys[i] = rng.Float64() * 100
	}
	m := make(Matrix, n)
	for i := 0; i < n; i++ {
		m[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			m[i][j] = math.Hypot(xs[i]-xs[j], ys[i]-ys[j])
		}
	}
	return m
}

// costOf is the brute-force total cost of a facility set.
func costOf(dist Matrix, facilities []int) float64 {
	var total float64
	for i := range dist {
		best := math.Inf(1)
		for _, f := range facilities {
			best = math.Min(best, dist[i][f])
		}
		total += best
	}
	return total
}
