package pmedian

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateInsertion_LineScenario(t *testing.T) {
	dist := lineMatrix(0, 1, 2, 10)
	facilities := []int{0, 3}
	a := Assign(dist, facilities)

	sw := EvaluateInsertion(dist, facilities, a, 1)
	assert.Equal(t, Swap{Insert: 1, Remove: 0, Gain: 1}, sw)

	sw = EvaluateInsertion(dist, facilities, a, 2)
	assert.Equal(t, 0, sw.Remove)
	assert.Equal(t, 0.0, sw.Gain)
}

func TestEvaluateInsertion_SingleFacilityFallsBackToCandidate(t *testing.T) {
	dist := lineMatrix(0, 5, 10)
	facilities := []int{0}
	a := Assign(dist, facilities)

	sw := EvaluateInsertion(dist, facilities, a, 1)
	assert.Equal(t, 0, sw.Remove)
	assert.Equal(t, 5.0, sw.Gain)

	sw = EvaluateInsertion(dist, facilities, a, 2)
	assert.Equal(t, 0.0, sw.Gain)
}

func TestEvaluateInsertion_MatchesBruteForce(t *testing.T) {
	dist := planarMatrix(30, 11)
	facilities := []int{1, 7, 12, 20}
	a := Assign(dist, facilities)
	isFacility := map[int]bool{}
	for _, f := range facilities {
		isFacility[f] = true
	}

	for c := range dist {
		if isFacility[c] {
			continue
		}
		bestGain := math.Inf(-1)
		for pos := range facilities {
			swapped := append([]int(nil), facilities...)
			swapped[pos] = c
			bestGain = math.Max(bestGain, a.Cost-costOf(dist, swapped))
		}

		sw := EvaluateInsertion(dist, facilities, a, c)
		assert.InDelta(t, bestGain, sw.Gain, 1e-9, "candidate %d", c)

		swapped := append([]int(nil), facilities...)
		for pos, f := range swapped {
			if f == sw.Remove {
				swapped[pos] = c
			}
		}
		assert.InDelta(t, a.Cost-sw.Gain, costOf(dist, swapped), 1e-9, "candidate %d", c)
	}
}

func TestEvaluateInsertion_RemovalTieKeepsFirstFacility(t *testing.T) {
	// Facilities 0 and 2 are symmetric around candidate 1, so both removals
	// lose the same amount.
	dist := lineMatrix(0, 5, 10)
	facilities := []int{2, 0}
	a := Assign(dist, facilities)

	sw := EvaluateInsertion(dist, facilities, a, 1)
	assert.Equal(t, 2, sw.Remove)

	facilities = []int{0, 2}
	a = Assign(dist, facilities)
	sw = EvaluateInsertion(dist, facilities, a, 1)
	assert.Equal(t, 0, sw.Remove)
}

func TestEvaluateInsertion_DoesNotMutate(t *testing.T) {
	dist := planarMatrix(15, 5)
	facilities := []int{2, 9}
	a := Assign(dist, facilities)
	nearest := append([]int(nil), a.Nearest...)

	EvaluateInsertion(dist, facilities, a, 4)

	assert.Equal(t, []int{2, 9}, facilities)
	assert.Equal(t, nearest, a.Nearest)
}
