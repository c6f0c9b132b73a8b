// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/egraph-extract/internal/egraph"
	"github.com/pdiddy/egraph-extract/pkg/types"
)

// --- test helpers ---

type nodeSpec struct {
	id, class, op string
	cost          float64
	children      []string
}

func node(id, class string, cost float64, children ...string) nodeSpec {
	return nodeSpec{id: id, class: class, op: "op-" + class, cost: cost, children: children}
}

func buildGraph(t *testing.T, nodes ...nodeSpec) *egraph.Graph {
	t.Helper()
	g := egraph.New()
	for _, n := range nodes {
		kids := make([]types.NodeID, len(n.children))
		for i, c := range n.children {
			kids[i] = types.NodeID(c)
		}
		require.NoError(t, g.AddNode(types.NodeID(n.id), types.Node{
			Op:       n.op,
			Children: kids,
			Class:    types.ClassID(n.class),
			Cost:     n.cost,
		}))
	}
	return g
}

func quietOptions() Options {
	return Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func run(t *testing.T, g *egraph.Graph, opts Options) *Result {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quietOptions().Logger
	}
	res, err := New(opts).Extract(g)
	require.NoError(t, err)
	require.NoError(t, res.Verify(g))
	return res
}

func selection(r *Result) map[types.ClassID]types.NodeID {
	out := make(map[types.ClassID]types.NodeID)
	for _, c := range r.Classes() {
		out[c], _ = r.Choice(c)
	}
	return out
}

func assertTotal(t *testing.T, r *Result, c types.ClassID, want float64) {
	t.Helper()
	got, ok := r.Total(c)
	require.True(t, ok, "class %s unresolved", c)
	assert.Equal(t, want, got, "total for %s", c)
}

// --- scenarios ---

func TestCycleThroughAlternativeResolves(t *testing.T) {
	// X = {n1 (leaf, 1), n2 (5, child in Y)}, Y = {n3 (1, child in X)}.
	g := buildGraph(t,
		node("n1", "X", 1),
		node("n2", "X", 5, "n3"),
		node("n3", "Y", 1, "n1"),
	)

	for _, order := range []types.VisitOrder{types.OrderSorted, types.OrderInput} {
		t.Run(string(order), func(t *testing.T) {
			res := run(t, g, Options{Order: order})

			want := map[types.ClassID]types.NodeID{"X": "n1", "Y": "n3"}
			if diff := cmp.Diff(want, selection(res)); diff != "" {
				t.Errorf("selection mismatch (-want +got):\n%s", diff)
			}
			assertTotal(t, res, "X", 1)
			assertTotal(t, res, "Y", 2)
		})
	}
}

func TestSharedClassCountedOnce(t *testing.T) {
	// p1 has two children that both belong to class S.
	g := buildGraph(t,
		node("p1", "P", 1, "s1", "s2"),
		node("s1", "S", 2),
		node("s2", "S", 3),
	)

	res := run(t, g, Options{})
	assertTotal(t, res, "P", 3)
	assertTotal(t, res, "S", 2)

	cost, err := res.DagCost(g, NodeCost, "P")
	require.NoError(t, err)
	assert.Equal(t, 3.0, cost)
}

func TestSharedClassCountedOnceTransitively(t *testing.T) {
	// Diamond: top -> {l, r} -> s.
	g := buildGraph(t,
		node("l", "L", 1, "s"),
		node("r", "R", 1, "s"),
		node("s", "S", 10),
		node("top", "T", 1, "l", "r"),
	)

	res := run(t, g, Options{})
	assertTotal(t, res, "T", 13)
	assertTotal(t, res, "L", 11)
}

func TestClassWithoutAcyclicPathIsAbsent(t *testing.T) {
	g := buildGraph(t,
		node("a1", "A", 1, "b1"),
		node("b1", "B", 1, "a1"),
		node("self", "C", 1, "self"),
		node("leaf", "D", 1),
	)

	res := run(t, g, Options{})
	assert.Equal(t, []types.ClassID{"D"}, res.Classes())
	for _, c := range []types.ClassID{"A", "B", "C"} {
		_, ok := res.Choice(c)
		assert.False(t, ok, "class %s should be unresolved", c)
	}
}

func TestUnextractableClassExcluded(t *testing.T) {
	// V depends only on U; W can avoid V through w2.
	g := buildGraph(t,
		node("u", "U", 1),
		node("v", "V", 1, "u"),
		node("w1", "W", 1, "v"),
		node("w2", "W", 5),
	)

	all := run(t, g, Options{})
	assert.Equal(t, []types.ClassID{"U", "V", "W"}, all.Classes())
	choice, _ := all.Choice("W")
	assert.Equal(t, types.NodeID("w1"), choice)

	g.MarkUnextractable("U")
	res := run(t, g, Options{})
	assert.Equal(t, []types.ClassID{"W"}, res.Classes())
	choice, _ = res.Choice("W")
	assert.Equal(t, types.NodeID("w2"), choice)
}

func TestUnextractableOpExcluded(t *testing.T) {
	g := egraph.New()
	require.NoError(t, g.AddNode("hidden", types.Node{Op: "Internal", Class: "H"}))
	require.NoError(t, g.AddNode("uses", types.Node{Op: "Not", Class: "N", Children: []types.NodeID{"hidden"}}))
	require.NoError(t, g.AddNode("free", types.Node{Op: "Gate", Class: "G"}))
	g.MarkUnextractableOp("Internal")

	res := run(t, g, Options{})
	assert.Equal(t, []types.ClassID{"G"}, res.Classes())
}

func TestUnextractableNeverInCostSet(t *testing.T) {
	g := buildGraph(t,
		node("u", "U", 1),
		node("x1", "X", 1, "u"),
		node("x2", "X", 3),
		node("y", "Y", 1, "x2"),
	)
	g.MarkUnextractable("U")

	var seen []types.ClassID
	opts := Options{OnImprove: func(imp Improvement) { seen = append(seen, imp.Class) }}
	res := run(t, g, opts)

	assert.NotContains(t, seen, types.ClassID("U"))
	_, ok := res.Choice("U")
	assert.False(t, ok)
}

// --- properties ---

func TestLaterCheaperAlternativeReplacesBest(t *testing.T) {
	// Sorted order visits x1 and x2 before y1, so X first resolves to the
	// expensive leaf and improves in round 2.
	g := buildGraph(t,
		node("x1", "X", 10),
		node("x2", "X", 1, "y1"),
		node("y1", "Y", 1),
	)

	var improvements []Improvement
	res := run(t, g, Options{OnImprove: func(imp Improvement) {
		improvements = append(improvements, imp)
	}})

	choice, _ := res.Choice("X")
	assert.Equal(t, types.NodeID("x2"), choice)
	assertTotal(t, res, "X", 2)

	want := []Improvement{
		{Round: 1, Class: "X", Node: "x1", Previous: math.Inf(1), Total: 10},
		{Round: 1, Class: "Y", Node: "y1", Previous: math.Inf(1), Total: 1},
		{Round: 2, Class: "X", Node: "x2", Previous: 10, Total: 2},
	}
	if diff := cmp.Diff(want, improvements); diff != "" {
		t.Errorf("improvements mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, res.Improvements)
	assert.Equal(t, 3, res.Rounds)
}

func TestTotalsAreMonotonic(t *testing.T) {
	g := netGraph(t)

	last := make(map[types.ClassID]float64)
	res := run(t, g, Options{Order: types.OrderInput, OnImprove: func(imp Improvement) {
		prev, seen := last[imp.Class]
		if seen {
			assert.Equal(t, prev, imp.Previous, "previous total for %s", imp.Class)
			assert.Less(t, imp.Total, prev, "total for %s must strictly decrease", imp.Class)
		} else {
			assert.True(t, math.IsInf(imp.Previous, 1))
		}
		last[imp.Class] = imp.Total
	}})

	for c, total := range last {
		got, ok := res.Total(c)
		require.True(t, ok)
		assert.Equal(t, total, got)
	}
}

func TestInPlaceUpdatesVisibleWithinRound(t *testing.T) {
	// Children sort before parents, so the whole chain resolves in round 1.
	g := buildGraph(t,
		node("a", "A", 1),
		node("b", "B", 1, "a"),
		node("c", "C", 1, "b"),
	)
	res := run(t, g, Options{})
	assert.Equal(t, 2, res.Rounds)
	assertTotal(t, res, "C", 3)

	// Reversed input order needs one round per level.
	rev := buildGraph(t,
		node("c", "C", 1, "b"),
		node("b", "B", 1, "a"),
		node("a", "A", 1),
	)
	res = run(t, rev, Options{Order: types.OrderInput})
	assert.Equal(t, 4, res.Rounds)
	assertTotal(t, res, "C", 3)
}

func TestDeterministicUnderFixedOrder(t *testing.T) {
	for _, order := range []types.VisitOrder{types.OrderSorted, types.OrderInput} {
		t.Run(string(order), func(t *testing.T) {
			first := run(t, netGraph(t), Options{Order: order})
			for i := 0; i < 5; i++ {
				g := netGraph(t)
				again := run(t, g, Options{Order: order})
				if diff := cmp.Diff(first.Choices(g), again.Choices(g)); diff != "" {
					t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
				}
			}
		})
	}
}

func TestTieBreakFollowsVisitOrder(t *testing.T) {
	g := buildGraph(t,
		node("t2", "T", 1),
		node("t1", "T", 1),
	)

	sorted := run(t, g, Options{Order: types.OrderSorted})
	choice, _ := sorted.Choice("T")
	assert.Equal(t, types.NodeID("t1"), choice)

	input := run(t, g, Options{Order: types.OrderInput})
	choice, _ = input.Choice("T")
	assert.Equal(t, types.NodeID("t2"), choice)
}

func TestTerminatesWithinBound(t *testing.T) {
	g := netGraph(t)
	res := run(t, g, Options{})
	assert.LessOrEqual(t, res.Rounds, g.ClassCount()*g.NodeCount()+1)
}

// --- errors ---

func TestRoundLimit(t *testing.T) {
	// Parent sorts before child: round 1 resolves b, round 2 resolves a,
	// round 3 confirms the fixpoint.
	g := buildGraph(t,
		node("a", "A", 1, "b"),
		node("b", "B", 1),
	)

	opts := quietOptions()
	opts.MaxRounds = 2
	_, err := New(opts).Extract(g)
	assert.ErrorIs(t, err, ErrRoundLimit)

	opts.MaxRounds = 3
	res, err := New(opts).Extract(g)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rounds)
}

func TestMalformedGraphFailsFast(t *testing.T) {
	g := buildGraph(t, node("a", "A", 1, "ghost"))
	_, err := New(quietOptions()).Extract(g)
	assert.ErrorIs(t, err, egraph.ErrMalformedGraph)
}

func TestInvalidCostFromCostFunc(t *testing.T) {
	g := buildGraph(t, node("a", "A", 1))
	opts := quietOptions()
	opts.Cost = func(types.NodeID, types.Node) float64 { return -1 }

	_, err := New(opts).Extract(g)
	assert.ErrorIs(t, err, ErrInvalidCost)
}

func TestEmptyGraph(t *testing.T) {
	res := run(t, egraph.New(), Options{})
	assert.Equal(t, 0, res.Len())
	assert.Equal(t, 1, res.Rounds)
}
