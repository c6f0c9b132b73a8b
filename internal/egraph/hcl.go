// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package egraph

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/pdiddy/egraph-extract/pkg/types"
)

// hclFile is the top-level HCL graph layout:
//
//	roots = ["c0"]
//
//	class "c0" {
//	  node "n0" {
//	    op       = "Connect"
//	    cost     = cost.Connect
//	    children = ["n1", "n2"]
//	  }
//	}
type hclFile struct {
	Roots   []string   `hcl:"roots,optional"`
	Classes []hclClass `hcl:"class,block"`
}

type hclClass struct {
	ID            string    `hcl:"id,label"`
	Unextractable bool      `hcl:"unextractable,optional"`
	Nodes         []hclNode `hcl:"node,block"`
}

type hclNode struct {
	ID       string   `hcl:"id,label"`
	Op       string   `hcl:"op,optional"`
	Cost     *float64 `hcl:"cost,optional"`
	Children []string `hcl:"children,optional"`
}

// DecodeHCL parses an HCL graph. Nodes are added in block order.
func DecodeHCL(src []byte, filename string, opts LoadOptions) (*Graph, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: parsing %s: %s", ErrMalformedGraph, filename, diags.Error())
	}

	var root hclFile
	if diags := gohcl.DecodeBody(file.Body, costEvalContext(opts.CostVars), &root); diags.HasErrors() {
		return nil, fmt.Errorf("%w: decoding %s: %s", ErrMalformedGraph, filename, diags.Error())
	}

	g := New()
	for _, c := range root.Classes {
		class := types.ClassID(c.ID)
		for _, n := range c.Nodes {
			cost := defaultNodeCost
			if n.Cost != nil {
				cost = *n.Cost
			}
			children := make([]types.NodeID, len(n.Children))
			for i, ch := range n.Children {
				children[i] = types.NodeID(ch)
			}
			if err := g.AddNode(types.NodeID(n.ID), types.Node{
				Op:       n.Op,
				Children: children,
				Class:    class,
				Cost:     cost,
			}); err != nil {
				return nil, err
			}
		}
		if c.Unextractable {
			g.MarkUnextractable(class)
		}
	}
	for _, r := range root.Roots {
		g.AddRoot(types.ClassID(r))
	}
	return g, nil
}

// costEvalContext exposes op costs as the "cost" object variable.
func costEvalContext(vars map[string]float64) *hcl.EvalContext {
	costs := cty.EmptyObjectVal
	if len(vars) > 0 {
		attrs := make(map[string]cty.Value, len(vars))
		for name, v := range vars {
			attrs[name] = cty.NumberFloatVal(v)
		}
		costs = cty.ObjectVal(attrs)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"cost": costs},
	}
}
