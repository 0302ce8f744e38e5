package pmedian

import "math"

// Swap is a candidate exchange: Insert joins the facility set and Remove
// leaves it. Gain is the resulting reduction in total cost; a swap is only
// worth applying when Gain > 0.
type Swap struct {
	Insert int
	Remove int
	Gain   float64
}

// EvaluateInsertion prices inserting candidate into the facility set and
// picks the facility whose removal pairs best with it.
//
// Points that strictly prefer candidate over their nearest facility save the
// difference no matter what is removed. Every other point only loses something
// if its own nearest facility is the one removed, in which case it falls back
// to the better of candidate and its second-nearest facility. Those losses are
// accumulated per facility and the facility with the smallest loss is removed.
//
// The result is undefined when candidate is already a facility.
func EvaluateInsertion(dist Matrix, facilities []int, a Assignment, candidate int) Swap {
	return newEvaluator(len(dist)).evaluate(dist, facilities, a, candidate)
}

// evaluator holds the per-facility loss buffer so a pass over all candidates
// does not allocate per candidate. It is not safe for concurrent use.
type evaluator struct {
	loss []float64
}

func newEvaluator(n int) *evaluator {
	return &evaluator{loss: make([]float64, n)}
}

func (e *evaluator) evaluate(dist Matrix, facilities []int, a Assignment, candidate int) Swap {
	// Losses are only ever accumulated at facility indices.
	for _, f := range facilities {
		e.loss[f] = 0
	}

	var saving float64
	for i, row := range dist {
		nearest := row[a.Nearest[i]]
		toCandidate := row[candidate]
		if toCandidate < nearest {
			saving += nearest - toCandidate
			continue
		}
		fallback := toCandidate
		if s, ok := a.SecondNearest(i); ok && row[s] < fallback {
			fallback = row[s]
		}
		e.loss[a.Nearest[i]] += fallback - nearest
	}

	minLoss := math.Inf(1)
	remove := facilities[0]
	for _, f := range facilities {
		if e.loss[f] < minLoss {
			minLoss = e.loss[f]
			remove = f
		}
	}

	return Swap{
		Insert: candidate,
		Remove: remove,
		Gain:   saving - minLoss,
	}
}
