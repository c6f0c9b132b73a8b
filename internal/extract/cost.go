// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"

	"github.com/pdiddy/egraph-extract/pkg/types"
)

// CostFunc computes the cost of a node. It must return a finite,
// non-negative value for every extractable node.
type CostFunc func(id types.NodeID, n types.Node) float64

// NodeCost uses the node's intrinsic cost.
func NodeCost(_ types.NodeID, n types.Node) float64 { return n.Cost }

// UnitCost charges 1 per node, so totals count distinct classes.
func UnitCost(types.NodeID, types.Node) float64 { return 1 }

// OpCost charges by operator, falling back to fallback for ops missing
// from table.
func OpCost(table map[string]float64, fallback float64) CostFunc {
	return func(_ types.NodeID, n types.Node) float64 {
		if c, ok := table[n.Op]; ok {
			return c
		}
		return fallback
	}
}

// CostFuncFor returns the cost function configured by cfg.
func CostFuncFor(cfg types.ExtractConfig) (CostFunc, error) {
	switch cfg.CostModel {
	case "", types.CostIntrinsic:
		return NodeCost, nil
	case types.CostUnit:
		return UnitCost, nil
	case types.CostOp:
		fallback := cfg.DefaultOpCost
		if fallback == 0 {
			fallback = 1
		}
		return OpCost(cfg.OpCosts, fallback), nil
	default:
		return nil, fmt.Errorf("unknown cost model %q (want intrinsic, unit, or op)", cfg.CostModel)
	}
}
