package distance

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"facility-planner/internal/pmedian"
)

// ErrDisconnected is returned when some pair of vertices has no connecting path
var ErrDisconnected = errors.New("graph is disconnected")

// Edge is an undirected weighted edge between 0-based vertices U and V
type Edge struct {
	U, V   int
	Weight float64
}

// ShortestPathMatrix returns the all-pairs shortest path costs of the
// undirected graph on n vertices. Repeated edges overwrite earlier ones and
// self loops are ignored.
func ShortestPathMatrix(n int, edges []Edge) (pmedian.Matrix, error) {
	if n <= 0 {
		return nil, fmt.Errorf("graph must have at least one vertex, got %d", n)
	}

	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for _, e := range edges {
		if e.U < 0 || e.U >= n || e.V < 0 || e.V >= n {
			return nil, fmt.Errorf("edge (%d,%d) out of range for %d vertices", e.U, e.V, n)
		}
		if e.Weight < 0 || math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
			return nil, fmt.Errorf("edge (%d,%d) has invalid weight %v", e.U, e.V, e.Weight)
		}
		if e.U == e.V {
			continue
		}
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(e.U), simple.Node(e.V), e.Weight))
	}

	paths, ok := path.FloydWarshall(g)
	if !ok {
		return nil, fmt.Errorf("graph contains a negative cycle")
	}

	m := make(pmedian.Matrix, n)
	for i := 0; i < n; i++ {
		m[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			w := paths.Weight(int64(i), int64(j))
			if math.IsInf(w, 1) {
				return nil, fmt.Errorf("%w: no path from %d to %d", ErrDisconnected, i, j)
			}
			m[i][j] = w
		}
	}
	return m, nil
}
