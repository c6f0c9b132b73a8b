// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract chooses one node per e-graph class so that the total DAG
// cost of the selection is small and no chosen node reaches its own class
// again through its children.
//
// The engine is a greedy bottom-up fixpoint over cost sets. Each class
// keeps the best cost set found so far; every round visits all extractable
// nodes in a fixed order and offers each one as a candidate for its class.
// A node is skipped while any child class is unresolved, and whenever a
// child's cost set already requires the node's own class (choosing it
// would close a cycle). Rounds repeat until none improves a class.
//
// The result is order sensitive and is not guaranteed to be globally
// minimal.
package extract

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/pdiddy/egraph-extract/internal/egraph"
	"github.com/pdiddy/egraph-extract/internal/logging"
	"github.com/pdiddy/egraph-extract/pkg/types"
)

// Options configures an Extractor. The zero value uses intrinsic node
// costs, ascending node id order and no round cap.
type Options struct {
	// Cost computes node costs. Nil means NodeCost.
	Cost CostFunc

	// Order is the node visitation order within a round.
	Order types.VisitOrder

	// MaxRounds caps the number of rounds. Zero disables the cap.
	MaxRounds int

	// Logger receives per-round debug logs. Nil uses a component logger.
	Logger *slog.Logger

	// OnImprove, if set, is called after every class improvement.
	OnImprove func(Improvement)
}

// Improvement describes one replacement of a class's best cost set.
type Improvement struct {
	Round int
	Class types.ClassID
	Node  types.NodeID

	// Previous is the replaced total, or +Inf when the class was unresolved.
	Previous float64
	Total    float64
}

// Extractor runs cost-set extraction. It holds no state between calls and
// may be reused.
type Extractor struct {
	opts Options
}

// New returns an Extractor configured by opts.
func New(opts Options) *Extractor {
	if opts.Cost == nil {
		opts.Cost = NodeCost
	}
	if opts.Order == "" {
		opts.Order = types.OrderSorted
	}
	if opts.Logger == nil {
		opts.Logger = logging.New("extract")
	}
	return &Extractor{opts: opts}
}

// candidate is an extractable node with its precomputed cost.
type candidate struct {
	id   types.NodeID
	node types.Node
	cost float64
}

// Extract computes a selection for every class that has a finite acyclic
// aggregate. Classes without one are absent from the result; that is not
// an error. The graph is validated first and is never modified.
func (e *Extractor) Extract(g *egraph.Graph) (*Result, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	candidates, err := e.candidates(g)
	if err != nil {
		return nil, err
	}

	best := newBestStore(g.ClassCount())
	result := NewResult()

	for round := 1; ; round++ {
		if e.opts.MaxRounds > 0 && round > e.opts.MaxRounds {
			return nil, fmt.Errorf("%w: %d rounds", ErrRoundLimit, e.opts.MaxRounds)
		}

		improved := e.round(round, g, candidates, best)
		result.Improvements += improved
		e.opts.Logger.Debug("round complete", "round", round, "improvements", improved)

		if improved == 0 {
			result.Rounds = round
			break
		}
	}

	for c, cs := range best.sets {
		result.Choose(c, cs.Choice)
		result.totals[c] = cs.Total
	}

	e.opts.Logger.Info("extraction converged",
		"rounds", result.Rounds,
		"improvements", result.Improvements,
		"classes", g.ClassCount(),
		"resolved", result.Len())
	return result, nil
}

// candidates lists the extractable nodes in visitation order and evaluates
// the cost function once per node.
func (e *Extractor) candidates(g *egraph.Graph) ([]candidate, error) {
	ids := g.NodeIDs(e.opts.Order)
	out := make([]candidate, 0, len(ids))
	for _, id := range ids {
		if !g.Extractable(id) {
			continue
		}
		n, _ := g.Node(id)
		cost := e.opts.Cost(id, n)
		if math.IsNaN(cost) || math.IsInf(cost, 0) || cost < 0 {
			return nil, fmt.Errorf("%w: node %q costs %v", ErrInvalidCost, id, cost)
		}
		out = append(out, candidate{id: id, node: n, cost: cost})
	}
	return out, nil
}

// round offers every candidate to its class once and returns the number
// of classes improved. Replacements are written to best immediately.
func (e *Extractor) round(round int, g *egraph.Graph, candidates []candidate, best *bestStore) int {
	improved := 0
	for _, cand := range candidates {
		cs := costSetFor(g, cand, best)
		if cs == nil {
			continue
		}

		class := cand.node.Class
		previous := math.Inf(1)
		if old := best.get(class); old != nil {
			if cs.Total >= old.Total {
				continue
			}
			previous = old.Total
		}

		best.replace(class, cs)
		improved++
		if e.opts.OnImprove != nil {
			e.opts.OnImprove(Improvement{
				Round:    round,
				Class:    class,
				Node:     cand.id,
				Previous: previous,
				Total:    cs.Total,
			})
		}
	}
	return improved
}

// costSetFor builds the cost set of choosing cand, or returns nil when a
// child class is unresolved or already requires cand's class.
func costSetFor(g *egraph.Graph, cand candidate, best *bestStore) *CostSet {
	class := cand.node.Class
	costs := make(map[types.ClassID]float64)

	for _, child := range cand.node.Children {
		childSet := best.get(g.ClassOf(child))
		if childSet == nil {
			return nil
		}
		if childSet.Contains(class) {
			return nil
		}
		for c, v := range childSet.Costs {
			if _, ok := costs[c]; !ok {
				costs[c] = v
			}
		}
	}
	costs[class] = cand.cost

	return &CostSet{
		Costs:  costs,
		Total:  sumCosts(costs),
		Choice: cand.id,
	}
}

// sumCosts adds values in ascending class order so totals are reproducible
// bit for bit.
func sumCosts(costs map[types.ClassID]float64) float64 {
	keys := make([]types.ClassID, 0, len(costs))
	for c := range costs {
		keys = append(keys, c)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	total := 0.0
	for _, c := range keys {
		total += costs[c]
	}
	return total
}
