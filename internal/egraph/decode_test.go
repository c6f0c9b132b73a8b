// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package egraph

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/egraph-extract/pkg/types"
)

const sampleJSON = `{
  "nodes": {
    "Var-0": {"op": "Var", "children": [], "eclass": "c-var", "cost": 1.0},
    "Gate-0": {"op": "Gate", "children": [], "eclass": "c-gate", "cost": 2.5},
    "Connect-0": {"op": "Connect", "children": ["Var-0", "Gate-0"], "eclass": "c-conn"},
    "Connect-1": {"op": "Connect", "children": ["Gate-0", "Var-0"], "eclass": "c-conn", "cost": 3, "subsumed": true}
  },
  "root_eclasses": ["c-conn"],
  "class_data": {"c-conn": {"type": "Net"}}
}`

func TestDecodeJSON(t *testing.T) {
	g, err := Decode(strings.NewReader(sampleJSON))
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	assert.Equal(t, 4, g.NodeCount())
	assert.Equal(t, 3, g.ClassCount())
	assert.Equal(t, []types.ClassID{"c-conn"}, g.Roots())
	assert.Equal(t,
		[]types.NodeID{"Var-0", "Gate-0", "Connect-0", "Connect-1"},
		g.NodeIDs(types.OrderInput), "document order is preserved")

	conn, ok := g.Node("Connect-0")
	require.True(t, ok)
	assert.Equal(t, 1.0, conn.Cost, "missing cost defaults to 1")
	assert.Equal(t, []types.NodeID{"Var-0", "Gate-0"}, conn.Children)

	gate, _ := g.Node("Gate-0")
	assert.Equal(t, 2.5, gate.Cost)

	assert.False(t, g.Extractable("Connect-1"), "subsumed node is not extractable")
	assert.True(t, g.Extractable("Connect-0"))
}

func TestDecodeYAML(t *testing.T) {
	src := `
nodes:
  leaf:
    op: Gate
    eclass: A
    cost: 4
  top:
    op: Not
    eclass: B
    children: [leaf]
root_eclasses: [B]
`
	g, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	assert.Equal(t, types.ClassID("A"), g.ClassOf("leaf"))
	top, _ := g.Node("top")
	assert.Equal(t, []types.NodeID{"leaf"}, top.Children)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"not a mapping", "[1, 2]"},
		{"nodes not a mapping", `{"nodes": [1]}`},
		{"node without class", `{"nodes": {"a": {"op": "Var"}}}`},
		{"bad children", `{"nodes": {"a": {"op": "Var", "eclass": "A", "children": {"x": 1}}}}`},
		{"syntax error", `{"nodes": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src))
			assert.ErrorIs(t, err, ErrMalformedGraph)
		})
	}
}

func TestDecodeDuplicateNode(t *testing.T) {
	src := "nodes:\n  a: {op: V, eclass: A}\n  a: {op: W, eclass: A}\n"
	_, err := Decode(strings.NewReader(src))
	assert.Error(t, err)
}

func TestEncodeDecode(t *testing.T) {
	g, err := Decode(strings.NewReader(sampleJSON))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g))

	back, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, g.NodeIDs(types.OrderInput), back.NodeIDs(types.OrderInput))
	assert.Equal(t, g.Roots(), back.Roots())
	assert.False(t, back.Extractable("Connect-1"))
	for _, id := range g.NodeIDs(types.OrderInput) {
		want, _ := g.Node(id)
		got, _ := back.Node(id)
		assert.Equal(t, want, got, "node %s", id)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "graph.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(sampleJSON), 0o644))

	g, err := LoadFile(jsonPath, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, g.NodeCount())

	_, err = LoadFile(filepath.Join(dir, "missing.json"), LoadOptions{})
	assert.Error(t, err)
}

func TestFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/graph.json":
			w.Write([]byte(sampleJSON))
		case "/graph.hcl":
			w.Write([]byte(sampleHCL))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	g, err := Fetch(context.Background(), ts.Client(), ts.URL+"/graph.json", types.HTTPConfig{}, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, g.NodeCount())

	g, err = Fetch(context.Background(), ts.Client(), ts.URL+"/graph.hcl", types.HTTPConfig{}, LoadOptions{CostVars: map[string]float64{"Gate": 7}})
	require.NoError(t, err)
	assert.Equal(t, 3, g.NodeCount())

	_, err = Fetch(context.Background(), ts.Client(), ts.URL+"/missing.json", types.HTTPConfig{}, LoadOptions{})
	assert.Error(t, err)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/g.json"))
	assert.True(t, IsURL("http://example.com/g.json"))
	assert.False(t, IsURL("graphs/g.json"))
}
