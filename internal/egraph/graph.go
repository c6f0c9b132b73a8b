// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package egraph holds the read-only equivalence graph consumed by the
// extractor, and loaders for its serialized forms.
//
// A Graph is built once (AddNode, AddRoot, Mark*) and then only read.
// Unextractable classes, unextractable ops and subsumed nodes are recorded
// on the graph; Extractable reports the resulting resolution rule.
package egraph

import (
	"fmt"
	"math"
	"sort"

	"github.com/pdiddy/egraph-extract/pkg/types"
)

// Graph is an e-graph: nodes partitioned into equivalence classes.
type Graph struct {
	nodes   map[types.NodeID]types.Node
	order   []types.NodeID
	classes map[types.ClassID][]types.NodeID
	roots   []types.ClassID

	unextractable    map[types.ClassID]bool
	unextractableOps map[string]bool
	subsumed         map[types.NodeID]bool
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:            make(map[types.NodeID]types.Node),
		classes:          make(map[types.ClassID][]types.NodeID),
		unextractable:    make(map[types.ClassID]bool),
		unextractableOps: make(map[string]bool),
		subsumed:         make(map[types.NodeID]bool),
	}
}

// AddNode adds a node to its class. The children slice is copied.
func (g *Graph) AddNode(id types.NodeID, n types.Node) error {
	if id == "" {
		return fmt.Errorf("%w: empty node id", ErrMalformedGraph)
	}
	if n.Class == "" {
		return fmt.Errorf("%w: node %q has no class", ErrMalformedGraph, id)
	}
	if _, ok := g.nodes[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, id)
	}
	n.Children = append([]types.NodeID(nil), n.Children...)
	g.nodes[id] = n
	g.order = append(g.order, id)
	g.classes[n.Class] = append(g.classes[n.Class], id)
	return nil
}

// AddRoot records a root class. Duplicates are ignored.
func (g *Graph) AddRoot(c types.ClassID) {
	for _, r := range g.roots {
		if r == c {
			return
		}
	}
	g.roots = append(g.roots, c)
}

// MarkUnextractable forbids every node of class c from being chosen.
func (g *Graph) MarkUnextractable(c types.ClassID) {
	g.unextractable[c] = true
}

// MarkUnextractableOp forbids every node whose op is op from being chosen.
func (g *Graph) MarkUnextractableOp(op string) {
	g.unextractableOps[op] = true
}

// MarkSubsumed forbids a single node from being chosen.
func (g *Graph) MarkSubsumed(id types.NodeID) {
	g.subsumed[id] = true
}

// Validate checks the input contract: every child names an existing node,
// every cost is finite and non-negative, and every root names a class.
// Problems are reported in ascending node id order.
func (g *Graph) Validate() error {
	for _, id := range g.NodeIDs(types.OrderSorted) {
		n := g.nodes[id]
		if math.IsNaN(n.Cost) || math.IsInf(n.Cost, 0) || n.Cost < 0 {
			return fmt.Errorf("%w: node %q has invalid cost %v", ErrMalformedGraph, id, n.Cost)
		}
		for _, child := range n.Children {
			if _, ok := g.nodes[child]; !ok {
				return fmt.Errorf("%w: node %q references missing child %q", ErrMalformedGraph, id, child)
			}
		}
	}
	for _, r := range g.roots {
		if _, ok := g.classes[r]; !ok {
			return fmt.Errorf("%w: root class %q has no nodes", ErrMalformedGraph, r)
		}
	}
	return nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id types.NodeID) (types.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// ClassOf returns the class owning node id, or "" for an unknown node.
func (g *Graph) ClassOf(id types.NodeID) types.ClassID {
	return g.nodes[id].Class
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// ClassCount returns the number of classes.
func (g *Graph) ClassCount() int { return len(g.classes) }

// Classes returns all class ids in ascending order.
func (g *Graph) Classes() []types.ClassID {
	out := make([]types.ClassID, 0, len(g.classes))
	for c := range g.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ClassNodes returns the nodes of class c in input order.
func (g *Graph) ClassNodes(c types.ClassID) []types.NodeID {
	return append([]types.NodeID(nil), g.classes[c]...)
}

// NodeIDs returns every node id in the requested order. Unknown orders
// fall back to sorted.
func (g *Graph) NodeIDs(order types.VisitOrder) []types.NodeID {
	out := append([]types.NodeID(nil), g.order...)
	if order != types.OrderInput {
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	}
	return out
}

// Roots returns the root classes in the order they were added.
func (g *Graph) Roots() []types.ClassID {
	return append([]types.ClassID(nil), g.roots...)
}

// Unextractable reports whether class c is marked unextractable.
func (g *Graph) Unextractable(c types.ClassID) bool {
	return g.unextractable[c]
}

// Extractable reports whether node id may be chosen: it exists, is not
// subsumed, and neither its class nor its op is marked unextractable.
// Nodes depending on an unextractable class are extractable themselves
// but can never resolve, since that class never gains a cost.
func (g *Graph) Extractable(id types.NodeID) bool {
	n, ok := g.nodes[id]
	if !ok || g.subsumed[id] {
		return false
	}
	return !g.unextractable[n.Class] && !g.unextractableOps[n.Op]
}
