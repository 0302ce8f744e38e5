// Package pmedian solves the p-median facility-location problem with the
// Teitz-Bart vertex-substitution heuristic.
//
// Given an N×N distance matrix and a facility count p, the solver picks p
// points as facilities so that the sum over all points of the distance to the
// nearest facility is as small as a single-swap local search can make it.
//
// The work is split in three layers:
//
//   - Assign computes, for a facility set, every point's nearest and
//     second-nearest facility and the resulting total cost.
//   - EvaluateInsertion prices inserting one non-facility point, returning the
//     facility whose removal pairs best with it and the resulting gain.
//   - Solver drives the search: it evaluates every candidate in a pass, applies
//     the single best strictly improving swap, and stops at a local optimum.
//
// Results depend on the initial facility set. Solve samples it from the
// supplied *rand.Rand, SolveFrom takes it explicitly, and MultiStart runs
// several seeded solves in parallel and keeps the cheapest.
//
// Ties are resolved by scan order: the removal candidate is the first facility
// (in facility-slice order) with the minimal loss, and the winning swap of a
// pass is the lowest candidate index with the maximal gain.
package pmedian
