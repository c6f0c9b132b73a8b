// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package egraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/egraph-extract/pkg/types"
)

const sampleHCL = `
roots = ["top"]

class "gate" {
  node "g0" {
    op   = "Gate"
    cost = cost.Gate
  }
}

class "top" {
  node "t0" {
    op       = "Not"
    children = ["g0"]
  }
}

class "hidden" {
  unextractable = true

  node "h0" {
    op   = "Wire"
    cost = 0
  }
}
`

func TestDecodeHCL(t *testing.T) {
	g, err := DecodeHCL([]byte(sampleHCL), "graph.hcl", LoadOptions{
		CostVars: map[string]float64{"Gate": 7},
	})
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	gate, ok := g.Node("g0")
	require.True(t, ok)
	assert.Equal(t, 7.0, gate.Cost, "cost variable resolved")
	assert.Equal(t, types.ClassID("gate"), gate.Class)

	top, _ := g.Node("t0")
	assert.Equal(t, 1.0, top.Cost, "missing cost defaults to 1")
	assert.Equal(t, []types.NodeID{"g0"}, top.Children)

	h0, _ := g.Node("h0")
	assert.Equal(t, 0.0, h0.Cost)
	assert.True(t, g.Unextractable("hidden"))
	assert.Equal(t, []types.ClassID{"top"}, g.Roots())
	assert.Equal(t, []types.NodeID{"g0", "t0", "h0"}, g.NodeIDs(types.OrderInput))
}

func TestDecodeHCLUnknownCostVariable(t *testing.T) {
	_, err := DecodeHCL([]byte(sampleHCL), "graph.hcl", LoadOptions{})
	assert.ErrorIs(t, err, ErrMalformedGraph)
}

func TestDecodeHCLSyntaxError(t *testing.T) {
	_, err := DecodeHCL([]byte(`class "x" {`), "bad.hcl", LoadOptions{})
	assert.ErrorIs(t, err, ErrMalformedGraph)
}

func TestLoadFileHCL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.hcl")
	require.NoError(t, os.WriteFile(path, []byte(sampleHCL), 0o644))

	g, err := LoadFile(path, LoadOptions{CostVars: map[string]float64{"Gate": 2}})
	require.NoError(t, err)
	gate, _ := g.Node("g0")
	assert.Equal(t, 2.0, gate.Cost)
}
