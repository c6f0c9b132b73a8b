// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import "github.com/pdiddy/egraph-extract/pkg/types"

// CostSet is the best known way to realize a class: the cost contributed
// by every class the chosen node transitively requires, the class itself
// included, counted once each.
type CostSet struct {
	Costs  map[types.ClassID]float64
	Total  float64
	Choice types.NodeID
}

// Contains reports whether class c is required by this cost set.
func (cs *CostSet) Contains(c types.ClassID) bool {
	_, ok := cs.Costs[c]
	return ok
}

// bestStore holds the current best cost set per class. It is owned by a
// single Extract call and passed to each round by reference. A replace is
// visible to every later get, including later nodes of the same round, so
// the fixpoint is Gauss-Seidel style: results depend on visitation order.
type bestStore struct {
	sets map[types.ClassID]*CostSet
}

func newBestStore(classes int) *bestStore {
	return &bestStore{sets: make(map[types.ClassID]*CostSet, classes)}
}

// get returns the current best for c, or nil while c is unresolved.
func (s *bestStore) get(c types.ClassID) *CostSet {
	return s.sets[c]
}

// replace installs cs as the best for c.
func (s *bestStore) replace(c types.ClassID, cs *CostSet) {
	s.sets[c] = cs
}
