// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Choice is one resolved class in an extraction run.
type Choice struct {
	// Class is the resolved equivalence class.
	Class ClassID `json:"class" yaml:"class"`

	// Node is the node chosen to represent the class.
	Node NodeID `json:"node" yaml:"node"`

	// Op is the chosen node's operator.
	Op string `json:"op" yaml:"op"`

	// Total is the DAG cost of the class: the sum of the costs of every
	// distinct class the chosen node transitively requires, itself included.
	Total float64 `json:"total" yaml:"total"`
}

// RunRecord is a persisted extraction run.
type RunRecord struct {
	// ID is assigned by the run store.
	ID string `json:"id" yaml:"id"`

	// Source is the graph file path or URL.
	Source string `json:"source" yaml:"source"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// CostModel and Order record the engine settings used.
	CostModel CostModel  `json:"cost_model" yaml:"cost_model"`
	Order     VisitOrder `json:"order" yaml:"order"`

	// Rounds is the number of fixpoint rounds, including the final
	// round without improvement.
	Rounds       int `json:"rounds" yaml:"rounds"`
	Improvements int `json:"improvements" yaml:"improvements"`

	// Nodes and Classes describe the input graph; Resolved counts the
	// classes present in the result.
	Nodes    int `json:"nodes" yaml:"nodes"`
	Classes  int `json:"classes" yaml:"classes"`
	Resolved int `json:"resolved" yaml:"resolved"`

	// RootCost is the DAG cost over the graph's root classes, or -1 when
	// the graph has no roots or a root is unresolved.
	RootCost float64 `json:"root_cost" yaml:"root_cost"`

	Choices []Choice `json:"choices,omitempty" yaml:"choices,omitempty"`
}
