package services

import (
	"context"
	"errors"
	"fmt"

	"exerciselinks/domain/core/valueobjects"
)

// ErrTraversalLimit is returned when the reachability walk visits more nodes than allowed
var ErrTraversalLimit = errors.New("cycle detection traversal limit exceeded")

// AdjacencyFunc returns the targets of every active outgoing link of an exercise,
// regardless of link type.
type AdjacencyFunc func(ctx context.Context, exerciseID valueobjects.ExerciseID) ([]valueobjects.ExerciseID, error)

// CycleDetector answers whether adding an edge would close a cycle in the link graph
type CycleDetector struct {
	adjacent AdjacencyFunc
	maxNodes int
}

// NewCycleDetector creates a detector over the given adjacency function.
// maxNodes bounds the number of exercises visited; zero disables the bound.
func NewCycleDetector(adjacent AdjacencyFunc, maxNodes int) *CycleDetector {
	return &CycleDetector{
		adjacent: adjacent,
		maxNodes: maxNodes,
	}
}

// WouldCreateCycle reports whether adding source -> target makes target reach source.
// The existing graph is assumed acyclic, but the walk terminates on cyclic data too.
func (d *CycleDetector) WouldCreateCycle(ctx context.Context, source, target valueobjects.ExerciseID) (bool, error) {
	if source.Equals(target) {
		return true, nil
	}

	// Direct back edge closes a 2-cycle without walking further
	children, err := d.adjacent(ctx, target)
	if err != nil {
		return false, fmt.Errorf("failed to load links of %s: %w", target, err)
	}
	for _, child := range children {
		if child.Equals(source) {
			return true, nil
		}
	}

	visited := map[valueobjects.ExerciseID]struct{}{target: {}}
	stack := make([]valueobjects.ExerciseID, 0, len(children))
	for _, child := range children {
		if _, seen := visited[child]; !seen {
			visited[child] = struct{}{}
			stack = append(stack, child)
		}
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if d.maxNodes > 0 && len(visited) > d.maxNodes {
			return false, ErrTraversalLimit
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		next, err := d.adjacent(ctx, current)
		if err != nil {
			return false, fmt.Errorf("failed to load links of %s: %w", current, err)
		}
		for _, child := range next {
			if child.Equals(source) {
				return true, nil
			}
			if _, seen := visited[child]; seen {
				continue
			}
			visited[child] = struct{}{}
			stack = append(stack, child)
		}
	}

	return false, nil
}
