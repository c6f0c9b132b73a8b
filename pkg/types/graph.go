// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ClassID identifies an equivalence class: a set of interchangeable nodes.
type ClassID string

// NodeID identifies a single candidate operation in an e-graph.
type NodeID string

// Node is one candidate operation in an e-graph. Nodes are immutable once
// added to a graph.
type Node struct {
	// Op is the operator name (e.g. "Connect", "Reg"). Used for per-op cost
	// tables and unextractable marking.
	Op string `json:"op" yaml:"op"`

	// Children are the ordered child node references. Each child resolves
	// to its owning class through the graph.
	Children []NodeID `json:"children" yaml:"children"`

	// Class is the equivalence class that owns this node.
	Class ClassID `json:"eclass" yaml:"eclass"`

	// Cost is the intrinsic, non-negative cost of the node.
	Cost float64 `json:"cost" yaml:"cost"`
}

// SerializedNode is a node record in the egraph-serialize interchange layout.
type SerializedNode struct {
	Op       string   `json:"op" yaml:"op"`
	Children []NodeID `json:"children" yaml:"children"`
	EClass   ClassID  `json:"eclass" yaml:"eclass"`

	// Cost defaults to 1 when omitted, matching egraph-serialize.
	Cost *float64 `json:"cost,omitempty" yaml:"cost,omitempty"`

	// Subsumed nodes are kept in the document but never extracted.
	Subsumed bool `json:"subsumed,omitempty" yaml:"subsumed,omitempty"`
}

// ClassData carries per-class annotations from the interchange layout.
type ClassData struct {
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// SerializedGraph is the egraph-serialize document layout:
//
//	{"nodes": {"<id>": {"op": ..., "children": [...], "eclass": ..., "cost": ...}},
//	 "root_eclasses": [...], "class_data": {"<class>": {"type": ...}}}
//
// Node order is significant for input-order extraction, so decoders walk
// the nodes mapping in document order instead of unmarshaling it into a map.
type SerializedGraph struct {
	Nodes        map[NodeID]SerializedNode `json:"nodes" yaml:"nodes"`
	RootEClasses []ClassID                 `json:"root_eclasses,omitempty" yaml:"root_eclasses,omitempty"`
	ClassData    map[ClassID]ClassData     `json:"class_data,omitempty" yaml:"class_data,omitempty"`
}
