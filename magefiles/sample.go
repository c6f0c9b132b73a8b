//go:build mage

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdiddy/egraph-extract/pkg/types"
)

const sampleDir = "samples"

// sampleSizes are the ladder lengths written by Sample.
var sampleSizes = []int{10, 100, 1000}

// Sample writes ladder graphs to samples/. Rung i has a cheap node that
// uses rung i-1 twice and an expensive leaf, so tree cost grows
// exponentially with the ladder while DAG cost grows linearly.
func Sample() error {
	if err := os.MkdirAll(sampleDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", sampleDir, err)
	}
	for _, n := range sampleSizes {
		path := filepath.Join(sampleDir, fmt.Sprintf("ladder-%d.json", n))
		data, err := json.MarshalIndent(ladder(n), "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Println("  ", path)
	}
	return nil
}

func ladder(n int) types.SerializedGraph {
	g := types.SerializedGraph{Nodes: map[types.NodeID]types.SerializedNode{
		"leaf": {Op: "Var", Children: []types.NodeID{}, EClass: "r0"},
	}}
	prev := types.NodeID("leaf")
	for i := 1; i <= n; i++ {
		class := types.ClassID("r" + strconv.Itoa(i))
		shared := types.NodeID("Add-" + strconv.Itoa(i))
		one, big := 1.0, float64(i)+1
		g.Nodes[shared] = types.SerializedNode{Op: "Add", Children: []types.NodeID{prev, prev}, EClass: class, Cost: &one}
		g.Nodes[types.NodeID("Const-"+strconv.Itoa(i))] = types.SerializedNode{Op: "Const", Children: []types.NodeID{}, EClass: class, Cost: &big}
		prev = shared
	}
	g.RootEClasses = []types.ClassID{types.ClassID("r" + strconv.Itoa(n))}
	g.ClassData = map[types.ClassID]types.ClassData{"r0": {Type: "Int"}}
	return g
}
