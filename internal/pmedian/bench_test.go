package pmedian

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkSolveFrom(b *testing.B) {
	for _, n := range []int{100, 400} {
		dist := planarMatrix(n, 1)
		initial := sample(NewRand(2), n, n/20)
		for _, workers := range []int{1, 4} {
			b.Run(fmt.Sprintf("n=%d/workers=%d", n, workers), func(b *testing.B) {
				solver := NewSolver(WithWorkers(workers))
				for i := 0; i < b.N; i++ {
					if _, err := solver.SolveFrom(context.Background(), dist, initial); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkEvaluateInsertion(b *testing.B) {
	dist := planarMatrix(500, 3)
	facilities := sample(NewRand(4), 500, 25)
	a := Assign(dist, facilities)
	e := newEvaluator(len(dist))
	isFacility := make([]bool, len(dist))
	for _, f := range facilities {
		isFacility[f] = true
	}
	candidate := 0
	for isFacility[candidate] {
		candidate++
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.evaluate(dist, facilities, a, candidate)
	}
}
