// Package narrowphase implements the §6 narrow-phase generator surface: a
// dispatcher that picks one of two contact generators for a shape pair by
// the shapes' capabilities, each generator running GJK (and EPA on
// intersection) to recover a separating axis or penetration, then handing
// off to the manifold package for feature extraction and clipping.
//
// Grounded on the teacher's old collision.go NarrowPhase step (which ran
// EPA directly against a hardcoded actor pair) and on original_source's
// support_map_support_map_manifold_generator.rs / convex_polyhedron_convex_
// polyhedron_manifold_generator.rs, collapsed into two generators since the
// manifold package already generalises feature extraction across shape
// kinds: one for pairs that both expose the full polyhedral capability
// (clipped, multi-point manifolds) and one single-point fallback for pairs
// where at least one side is support-only (e.g. shape.Sphere).
package narrowphase

import (
	"github.com/dimforge/ncollide-go/manifold"
	"github.com/dimforge/ncollide-go/shape"
)

// Generator is the §6 narrow-phase generator contract. Update runs the
// generator against one shape pair, returning false if this generator does
// not handle shapes of these kinds. The Dispatcher chooses the generator
// before any Update runs, and nothing tries another generator when Update
// returns false. id1/id2 are the broad-phase handles of the two objects, threaded
// through only so callers can correlate a manifold back to its owning pair
// — the generator itself does not interpret them.
type Generator interface {
	Update(
		id1 uint64, m1 shape.Isometry, s1 shape.Support,
		id2 uint64, m2 shape.Isometry, s2 shape.Support,
		pred manifold.Prediction, ids *manifold.IdAllocator,
	) bool
	NumContacts() int
	Manifold() *manifold.ContactManifold
}

// factory builds a fresh generator for a newly discovered pair. The
// dispatcher does not try to share one generator's simplex/manifold state
// across unrelated pairs — each pair gets a single generator instance
// across its lifetime so GJK warm-starting and the manifold's id cache stay
// coherent (§9 "Warm-starting").
type factory func() Generator

// Dispatcher selects a Generator for a shape pair and keeps one instance
// alive per pair for the pair's lifetime, matching the broad phase's
// started/ended pair lifecycle (C8): the pipeline package creates a
// dispatcher-selected generator on "started" and drops it on "ended".
type Dispatcher struct {
	factories []factory
}

// NewDispatcher returns a dispatcher trying the polyhedron generator before
// the single-point fallback, so pairs where both shapes expose the full
// ConvexPolyhedron capability get multi-point manifolds.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		factories: []factory{
			func() Generator { return NewPolyhedronGenerator() },
			func() Generator { return NewSupportGenerator() },
		},
	}
}

// Select returns a fresh generator for the pair (s1, s2): the polyhedron
// generator when both shapes implement shape.ConvexPolyhedron, otherwise
// the support-only fallback. It never returns nil.
func (d *Dispatcher) Select(s1, s2 shape.Support) Generator {
	if _, ok1 := s1.(shape.ConvexPolyhedron); ok1 {
		if _, ok2 := s2.(shape.ConvexPolyhedron); ok2 {
			return d.factories[0]()
		}
	}
	return d.factories[1]()
}
