// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import "errors"

var (
	// ErrInvalidCost is returned when a cost function yields a negative,
	// NaN or infinite cost for an extractable node.
	ErrInvalidCost = errors.New("invalid node cost")

	// ErrRoundLimit is returned when the fixpoint has not converged within
	// Options.MaxRounds.
	ErrRoundLimit = errors.New("extraction did not converge within round limit")

	// ErrCycle is returned by Verify when a selection revisits a class.
	ErrCycle = errors.New("selection contains a cycle")

	// ErrUnresolved is returned when a class required by a query has no
	// chosen node.
	ErrUnresolved = errors.New("class has no extraction")
)
