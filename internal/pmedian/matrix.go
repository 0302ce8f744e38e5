package pmedian

import "math"

// Matrix is a row-major distance table; Matrix[i][j] is the distance from
// point i to point j. The solver only reads it.
type Matrix [][]float64

// Size returns the number of points.
func (m Matrix) Size() int {
	return len(m)
}

// Validate checks that m is square with finite, non-negative entries.
func (m Matrix) Validate() error {
	n := len(m)
	if n == 0 {
		return invalidInput("empty distance matrix")
	}
	for i, row := range m {
		if len(row) != n {
			return invalidInput("distance matrix is not square: row %d has %d columns, want %d", i, len(row), n)
		}
		for j, d := range row {
			if math.IsNaN(d) || math.IsInf(d, 0) {
				return invalidInput("distance [%d][%d] is not finite", i, j)
			}
			if d < 0 {
				return invalidInput("distance [%d][%d] is negative (%g)", i, j, d)
			}
		}
	}
	return nil
}

func validateFacilityCount(n, p int) error {
	if p <= 0 || p > n {
		return invalidInput("facility count p=%d out of range [1, %d]", p, n)
	}
	return nil
}

func validateFacilities(n int, facilities []int) error {
	if err := validateFacilityCount(n, len(facilities)); err != nil {
		return err
	}
	seen := make(map[int]bool, len(facilities))
	for _, f := range facilities {
		if f < 0 || f >= n {
			return invalidInput("facility index %d out of range [0, %d)", f, n)
		}
		if seen[f] {
			return invalidInput("facility index %d appears more than once", f)
		}
		seen[f] = true
	}
	return nil
}
