// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package egraph

import "errors"

var (
	// ErrMalformedGraph is returned when a graph or graph document violates
	// the input contract: a child naming a missing node, a node without a
	// class, an invalid cost, or an unparseable document.
	ErrMalformedGraph = errors.New("malformed graph")

	// ErrDuplicateNode is returned when a node id is added twice.
	ErrDuplicateNode = errors.New("duplicate node id")
)
