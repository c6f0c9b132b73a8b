// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package egraph

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/egraph-extract/pkg/types"
)

// defaultNodeCost is the cost of a serialized node without a cost field.
const defaultNodeCost = 1.0

// LoadOptions configures graph loading.
type LoadOptions struct {
	// CostVars are exposed to HCL graph files as the "cost" object,
	// so a node may say `cost = cost.Gate`.
	CostVars map[string]float64
}

// LoadFile reads a graph from path. Files ending in .hcl use the HCL
// layout; everything else is decoded as egraph-serialize JSON or YAML.
func LoadFile(path string, opts LoadOptions) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading graph %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		return DecodeHCL(data, path, opts)
	}
	return Decode(bytes.NewReader(data))
}

// Decode reads an egraph-serialize document. JSON and YAML are both
// accepted since YAML is a superset of JSON. The nodes mapping is walked
// in document order so that the graph records input order.
func Decode(r io.Reader) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading graph document: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGraph, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedGraph)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: document is not a mapping", ErrMalformedGraph)
	}

	g := New()
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		switch key {
		case "nodes":
			if err := decodeNodes(g, val); err != nil {
				return nil, err
			}
		case "root_eclasses":
			var roots []types.ClassID
			if err := val.Decode(&roots); err != nil {
				return nil, fmt.Errorf("%w: root_eclasses: %v", ErrMalformedGraph, err)
			}
			for _, c := range roots {
				g.AddRoot(c)
			}
		}
	}
	return g, nil
}

func decodeNodes(g *Graph, m *yaml.Node) error {
	if m.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: nodes is not a mapping", ErrMalformedGraph)
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		id := types.NodeID(m.Content[i].Value)

		var sn types.SerializedNode
		if err := m.Content[i+1].Decode(&sn); err != nil {
			return fmt.Errorf("%w: node %q: %v", ErrMalformedGraph, id, err)
		}

		cost := defaultNodeCost
		if sn.Cost != nil {
			cost = *sn.Cost
		}
		if err := g.AddNode(id, types.Node{
			Op:       sn.Op,
			Children: sn.Children,
			Class:    sn.EClass,
			Cost:     cost,
		}); err != nil {
			return err
		}
		if sn.Subsumed {
			g.MarkSubsumed(id)
		}
	}
	return nil
}

// Encode writes g in the egraph-serialize layout as YAML, nodes in input
// order.
func Encode(w io.Writer, g *Graph) error {
	nodes := &yaml.Node{Kind: yaml.MappingNode}
	for _, id := range g.NodeIDs(types.OrderInput) {
		n := g.nodes[id]
		cost := n.Cost
		sn := types.SerializedNode{
			Op:       n.Op,
			Children: n.Children,
			EClass:   n.Class,
			Cost:     &cost,
			Subsumed: g.subsumed[id],
		}
		var val yaml.Node
		if err := val.Encode(sn); err != nil {
			return fmt.Errorf("encoding node %q: %w", id, err)
		}
		nodes.Content = append(nodes.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: string(id)}, &val)
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "nodes"}, nodes)
	if len(g.roots) > 0 {
		var roots yaml.Node
		if err := roots.Encode(g.roots); err != nil {
			return fmt.Errorf("encoding roots: %w", err)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "root_eclasses"}, &roots)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return err
	}
	return enc.Close()
}
