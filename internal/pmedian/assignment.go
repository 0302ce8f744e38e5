package pmedian

import "math"

const noFacility = -1

// Assignment records, for every point, its nearest and second-nearest
// facility under one facility set, plus the total cost of serving every point
// from its nearest facility.
type Assignment struct {
	// Nearest[i] is the facility closest to point i.
	Nearest []int
	// Cost is the sum over all points of the distance to Nearest[i].
	Cost float64

	second []int
}

// SecondNearest returns the second-closest facility to point i. The boolean is
// false when the facility set has a single member.
func (a Assignment) SecondNearest(i int) (int, bool) {
	f := a.second[i]
	return f, f != noFacility
}

// Assign computes the nearest and second-nearest facility of every point.
//
// Facilities are scanned in slice order with strict comparisons, so a facility
// at the same distance as one already recorded never displaces it. Assign does
// not validate its inputs and does not modify them.
func Assign(dist Matrix, facilities []int) Assignment {
	n := len(dist)
	a := Assignment{
		Nearest: make([]int, n),
		second:  make([]int, n),
	}

	for i := 0; i < n; i++ {
		row := dist[i]
		dist1, dist2 := math.Inf(1), math.Inf(1)
		node1, node2 := noFacility, noFacility
		for _, f := range facilities {
			d := row[f]
			if d < dist1 {
				dist2, node2 = dist1, node1
				dist1, node1 = d, f
			} else if d < dist2 {
				dist2, node2 = d, f
			}
		}
		a.Nearest[i] = node1
		a.second[i] = node2
	}

	for i := 0; i < n; i++ {
		a.Cost += dist[i][a.Nearest[i]]
	}
	return a
}
