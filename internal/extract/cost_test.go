// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/egraph-extract/pkg/types"
)

func TestCostFuncFor(t *testing.T) {
	n := types.Node{Op: "Gate", Cost: 4}

	tests := []struct {
		name string
		cfg  types.ExtractConfig
		want float64
	}{
		{"default is intrinsic", types.ExtractConfig{}, 4},
		{"intrinsic", types.ExtractConfig{CostModel: types.CostIntrinsic}, 4},
		{"unit", types.ExtractConfig{CostModel: types.CostUnit}, 1},
		{"op table", types.ExtractConfig{CostModel: types.CostOp, OpCosts: map[string]float64{"Gate": 9}}, 9},
		{"op fallback default", types.ExtractConfig{CostModel: types.CostOp}, 1},
		{"op fallback configured", types.ExtractConfig{CostModel: types.CostOp, DefaultOpCost: 3}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := CostFuncFor(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fn("n", n))
		})
	}

	_, err := CostFuncFor(types.ExtractConfig{CostModel: "latency"})
	assert.Error(t, err)
}

func TestCostModelChangesSelection(t *testing.T) {
	// Intrinsic costs favour the deep alternative; op costs make Reg
	// expensive and flip the choice to the flat one.
	g := buildGraph(t,
		nodeSpec{id: "flat", class: "T", op: "Wire", cost: 5},
		nodeSpec{id: "deep", class: "T", op: "Connect", cost: 1, children: []string{"reg"}},
		nodeSpec{id: "reg", class: "R", op: "Reg", cost: 1},
	)

	intrinsic := run(t, g, Options{})
	choice, _ := intrinsic.Choice("T")
	assert.Equal(t, types.NodeID("deep"), choice)

	byOp := run(t, g, Options{Cost: OpCost(map[string]float64{"Reg": 10, "Wire": 2}, 1)})
	choice, _ = byOp.Choice("T")
	assert.Equal(t, types.NodeID("flat"), choice)
	assertTotal(t, byOp, "T", 2)
}
