// Package orlib reads uncapacitated p-median instances in the OR-Library
// pmed format.
//
// A file starts with a header line "N E p" (vertices, edges, medians)
// followed by E lines "u v cost" with 1-based vertex numbers. Edges are
// undirected; when an edge appears more than once the last occurrence is
// used.
package orlib

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"facility-planner/internal/distance"
	"facility-planner/internal/pmedian"
)

// ErrMalformed is returned for input that does not follow the pmed format
var ErrMalformed = errors.New("malformed instance")

// Instance is a parsed p-median problem
type Instance struct {
	Vertices int
	P        int
	// Edges uses 0-based vertex indices, in file order
	Edges []distance.Edge
}

// Parse reads an instance from r
func Parse(r io.Reader) (*Instance, error) {
	sc := bufio.NewScanner(r)
	line := 0
	next := func() ([]string, bool) {
		for sc.Scan() {
			line++
			if fields := strings.Fields(sc.Text()); len(fields) > 0 {
				return fields, true
			}
		}
		return nil, false
	}

	header, ok := next()
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	nums, err := parseInts(header, 3, line)
	if err != nil {
		return nil, err
	}
	inst := &Instance{Vertices: nums[0], P: nums[2]}
	edges := nums[1]
	if inst.Vertices <= 0 || edges < 0 || inst.P <= 0 || inst.P > inst.Vertices {
		return nil, fmt.Errorf("%w: line %d: invalid header %v", ErrMalformed, line, header)
	}

	inst.Edges = make([]distance.Edge, 0, edges)
	for len(inst.Edges) < edges {
		fields, ok := next()
		if !ok {
			if err := sc.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: expected %d edges, found %d", ErrMalformed, edges, len(inst.Edges))
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: line %d: expected \"u v cost\"", ErrMalformed, line)
		}
		uv, err := parseInts(fields[:2], 2, line)
		if err != nil {
			return nil, err
		}
		cost, err := strconv.ParseFloat(fields[2], 64)
		if err != nil || cost < 0 {
			return nil, fmt.Errorf("%w: line %d: invalid cost %q", ErrMalformed, line, fields[2])
		}
		u, v := uv[0], uv[1]
		if u < 1 || u > inst.Vertices || v < 1 || v > inst.Vertices {
			return nil, fmt.Errorf("%w: line %d: vertex out of range 1..%d", ErrMalformed, line, inst.Vertices)
		}
		inst.Edges = append(inst.Edges, distance.Edge{U: u - 1, V: v - 1, Weight: cost})
	}
	return inst, sc.Err()
}

func parseInts(fields []string, want, line int) ([]int, error) {
	if len(fields) != want {
		return nil, fmt.Errorf("%w: line %d: expected %d integers, got %d fields", ErrMalformed, line, want, len(fields))
	}
	out := make([]int, want)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %q is not an integer", ErrMalformed, line, f)
		}
		out[i] = n
	}
	return out, nil
}

// Matrix returns the all-pairs shortest path distance matrix of the instance
func (inst *Instance) Matrix() (pmedian.Matrix, error) {
	return distance.ShortestPathMatrix(inst.Vertices, inst.Edges)
}
