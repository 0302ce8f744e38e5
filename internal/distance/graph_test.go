package distance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facility-planner/internal/distance"
)

func TestShortestPathMatrix(t *testing.T) {
	// 0 -1- 1 -1- 2, plus a long direct edge 0-2 that the path through 1 beats
	edges := []distance.Edge{
		{U: 0, V: 1, Weight: 1},
		{U: 1, V: 2, Weight: 1},
		{U: 0, V: 2, Weight: 5},
		{U: 2, V: 3, Weight: 4},
	}

	m, err := distance.ShortestPathMatrix(4, edges)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{
		{0, 1, 2, 6},
		{1, 0, 1, 5},
		{2, 1, 0, 4},
		{6, 5, 4, 0},
	}, [][]float64(m))
	require.NoError(t, m.Validate())
}

func TestShortestPathMatrix_LastEdgeWins(t *testing.T) {
	m, err := distance.ShortestPathMatrix(2, []distance.Edge{
		{U: 0, V: 1, Weight: 7},
		{U: 1, V: 0, Weight: 3},
		{U: 1, V: 1, Weight: 9},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 3}, {3, 0}}, [][]float64(m))
}

func TestShortestPathMatrix_Disconnected(t *testing.T) {
	_, err := distance.ShortestPathMatrix(3, []distance.Edge{{U: 0, V: 1, Weight: 1}})
	assert.ErrorIs(t, err, distance.ErrDisconnected)
}

func TestShortestPathMatrix_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		edges []distance.Edge
	}{
		{"no vertices", 0, nil},
		{"vertex out of range", 2, []distance.Edge{{U: 0, V: 2, Weight: 1}}},
		{"negative weight", 2, []distance.Edge{{U: 0, V: 1, Weight: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := distance.ShortestPathMatrix(tt.n, tt.edges)
			assert.Error(t, err)
			assert.NotErrorIs(t, err, distance.ErrDisconnected)
		})
	}
}

func TestShortestPathMatrix_SingleVertex(t *testing.T) {
	m, err := distance.ShortestPathMatrix(1, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0}}, [][]float64(m))
}
