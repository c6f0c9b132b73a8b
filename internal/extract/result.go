// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"sort"

	"github.com/pdiddy/egraph-extract/internal/egraph"
	"github.com/pdiddy/egraph-extract/pkg/types"
)

// Result maps each resolved class to its chosen node. A class missing from
// the result has no acyclic, fully resolvable extraction.
type Result struct {
	choices map[types.ClassID]types.NodeID
	totals  map[types.ClassID]float64

	// Rounds is the number of fixpoint rounds run, the last one without
	// improvement included.
	Rounds int

	// Improvements counts best cost set replacements across all rounds.
	Improvements int
}

// NewResult returns an empty result.
func NewResult() *Result {
	return &Result{
		choices: make(map[types.ClassID]types.NodeID),
		totals:  make(map[types.ClassID]float64),
	}
}

// Choose records n as the choice for class c. A later call for the same
// class overwrites the earlier one.
func (r *Result) Choose(c types.ClassID, n types.NodeID) {
	r.choices[c] = n
}

// Choice returns the node chosen for class c.
func (r *Result) Choice(c types.ClassID) (types.NodeID, bool) {
	n, ok := r.choices[c]
	return n, ok
}

// Total returns the cost-set total recorded for class c by the engine.
func (r *Result) Total(c types.ClassID) (float64, bool) {
	t, ok := r.totals[c]
	return t, ok
}

// Len returns the number of resolved classes.
func (r *Result) Len() int { return len(r.choices) }

// Classes returns the resolved classes in ascending order.
func (r *Result) Classes() []types.ClassID {
	out := make([]types.ClassID, 0, len(r.choices))
	for c := range r.choices {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Choices returns the selection as records ordered by class, with op
// names taken from g.
func (r *Result) Choices(g *egraph.Graph) []types.Choice {
	out := make([]types.Choice, 0, len(r.choices))
	for _, c := range r.Classes() {
		id := r.choices[c]
		n, _ := g.Node(id)
		out = append(out, types.Choice{Class: c, Node: id, Op: n.Op, Total: r.totals[c]})
	}
	return out
}

// Verify checks the selection against g: every chosen node belongs to its
// class, every child class of a chosen node is resolved, and no walk
// through chosen children revisits a class already on the walk.
func (r *Result) Verify(g *egraph.Graph) error {
	for _, c := range r.Classes() {
		id := r.choices[c]
		if owner := g.ClassOf(id); owner != c {
			return fmt.Errorf("%w: class %q chose node %q owned by %q", egraph.ErrMalformedGraph, c, id, owner)
		}
	}

	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[types.ClassID]int, len(r.choices))

	for _, start := range r.Classes() {
		if state[start] != unvisited {
			continue
		}
		stack := []walkFrame{r.frameFor(g, start)}
		state[start] = onPath

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next == len(top.children) {
				state[top.class] = done
				stack = stack[:len(stack)-1]
				continue
			}
			child := g.ClassOf(top.children[top.next])
			top.next++

			if _, ok := r.choices[child]; !ok {
				return fmt.Errorf("%w: %q (required by %q)", ErrUnresolved, child, top.class)
			}
			switch state[child] {
			case onPath:
				return fmt.Errorf("%w: class %q reaches itself", ErrCycle, child)
			case unvisited:
				state[child] = onPath
				stack = append(stack, r.frameFor(g, child))
			}
		}
	}
	return nil
}

// walkFrame is one class on the Verify walk and the index of its next
// child to visit.
type walkFrame struct {
	class    types.ClassID
	children []types.NodeID
	next     int
}

func (r *Result) frameFor(g *egraph.Graph, c types.ClassID) walkFrame {
	n, _ := g.Node(r.choices[c])
	return walkFrame{class: c, children: n.Children}
}

// DagCost returns the cost of the selection reachable from roots under
// cost, counting each distinct class once. It fails with ErrUnresolved if
// a reachable class has no choice.
func (r *Result) DagCost(g *egraph.Graph, cost CostFunc, roots ...types.ClassID) (float64, error) {
	sub, err := r.Reachable(g, roots...)
	if err != nil {
		return 0, err
	}
	costs := make(map[types.ClassID]float64, sub.Len())
	for c, id := range sub.choices {
		n, _ := g.Node(id)
		costs[c] = cost(id, n)
	}
	return sumCosts(costs), nil
}

// Reachable returns the part of the selection reachable from roots: the
// shared DAG a downstream consumer needs to rebuild the chosen term. It
// fails with ErrUnresolved if a root or any reachable class has no choice.
func (r *Result) Reachable(g *egraph.Graph, roots ...types.ClassID) (*Result, error) {
	sub := NewResult()
	sub.Rounds, sub.Improvements = r.Rounds, r.Improvements

	queue := append([]types.ClassID(nil), roots...)
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if _, seen := sub.choices[c]; seen {
			continue
		}
		id, ok := r.choices[c]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnresolved, c)
		}
		sub.Choose(c, id)
		if t, ok := r.totals[c]; ok {
			sub.totals[c] = t
		}
		n, _ := g.Node(id)
		for _, child := range n.Children {
			queue = append(queue, g.ClassOf(child))
		}
	}
	return sub, nil
}
