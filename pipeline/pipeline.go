// Package pipeline ties the broad phase (C8) to the narrow phase (C6, via
// the narrowphase dispatcher) the way §2's data-flow paragraph describes:
// the broad phase's started/ended pair events drive generator lifetime,
// and every surviving pair is re-run through its generator once per frame
// to keep its contact manifold current.
//
// Grounded on the teacher's collision.go BroadPhase/NarrowPhase pair and
// pipeline.go's per-frame orchestration, generalised from a single
// brute-force pass over *actor.RigidBody into the incremental two-tree
// broad phase plus persistent per-pair generators the specification
// requires.
package pipeline

import (
	"github.com/dimforge/ncollide-go/broadphase"
	"github.com/dimforge/ncollide-go/geom"
	"github.com/dimforge/ncollide-go/manifold"
	"github.com/dimforge/ncollide-go/narrowphase"
	"github.com/dimforge/ncollide-go/shape"
	"github.com/go-gl/mathgl/mgl64"
)

// Object is one collidable registered with a Pipeline: a shape, its
// current world-space placement, and the broad-phase handle the pipeline
// assigned it. Handle is set once, immediately after the underlying
// CreateProxy call returns, and is thereafter read-only from the caller's
// perspective — the pipeline package is the only writer.
type Object struct {
	Handle broadphase.ProxyHandle
	Shape  shape.Support
	Iso    shape.Isometry
}

// ActiveContact is one currently-tracked pair with a non-empty manifold,
// returned by Step.
type ActiveContact struct {
	A, B     *Object
	Manifold *manifold.ContactManifold
}

type pairKey struct{ a, b broadphase.ProxyHandle }

func sortedPair(a, b broadphase.ProxyHandle) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

type pairState struct {
	a, b *Object
	gen  narrowphase.Generator
}

// Pipeline is the top-level per-frame orchestration: a broad phase keyed
// on *Object, a narrow-phase dispatcher, and one live generator per pair
// the broad phase currently reports as overlapping.
type Pipeline struct {
	bp         *broadphase.BroadPhase[*Object]
	dispatcher *narrowphase.Dispatcher
	prediction manifold.Prediction
	ids        manifold.IdAllocator
	active     map[pairKey]*pairState
}

// New returns a pipeline whose broad phase uses the given temporal-
// coherence margin and whose narrow-phase generators use the given
// contact prediction tolerances (§4.6).
func New(margin float64, prediction manifold.Prediction) *Pipeline {
	return &Pipeline{
		bp:         broadphase.New[*Object](margin),
		dispatcher: narrowphase.NewDispatcher(),
		prediction: prediction,
		active:     make(map[pairKey]*pairState),
	}
}

// CreateBody registers a new collidable with initial bounding volume bv,
// observable by the broad phase after the next Step.
func (p *Pipeline) CreateBody(bv geom.AABB, s shape.Support, iso shape.Isometry) *Object {
	obj := &Object{Shape: s, Iso: iso}
	h := p.bp.CreateProxy(bv, obj)
	obj.Handle = h
	return obj
}

// Remove schedules each object for removal; pair-end events and generator
// teardown happen inside the next Step.
func (p *Pipeline) Remove(objs ...*Object) error {
	handles := make([]broadphase.ProxyHandle, len(objs))
	for i, o := range objs {
		handles[i] = o.Handle
	}
	return p.bp.Remove(handles)
}

// SetBoundingVolume queues obj's updated world-space bounding volume,
// subject to the broad phase's temporal-coherence optimisation (§4.8).
func (p *Pipeline) SetBoundingVolume(obj *Object, bv geom.AABB) error {
	return p.bp.DeferredSetBoundingVolume(obj.Handle, bv)
}

// Step runs one full frame: broad-phase update (which may start or end
// pairs, allocating or tearing down their generators), then re-evaluates
// every pair still active, returning every pair whose manifold currently
// holds at least one contact.
func (p *Pipeline) Step(allow func(a, b *Object) bool) []ActiveContact {
	p.bp.Update(allow, p.handlePairEvent)

	var out []ActiveContact
	for _, st := range p.active {
		st.gen.Update(
			uint64(st.a.Handle), st.a.Iso, st.a.Shape,
			uint64(st.b.Handle), st.b.Iso, st.b.Shape,
			p.prediction, &p.ids,
		)
		if st.gen.NumContacts() > 0 {
			out = append(out, ActiveContact{A: st.a, B: st.b, Manifold: st.gen.Manifold()})
		}
	}
	return out
}

func (p *Pipeline) handlePairEvent(a, b *Object, started bool) {
	key := sortedPair(a.Handle, b.Handle)
	if started {
		p.active[key] = &pairState{a: a, b: b, gen: p.dispatcher.Select(a.Shape, b.Shape)}
		return
	}
	delete(p.active, key)
}

// NumActivePairs reports how many pairs the broad phase currently tracks,
// regardless of whether their generator has produced a contact yet.
func (p *Pipeline) NumActivePairs() int { return len(p.active) }

// InterferencesWithRay reports every object whose bounding volume the ray
// may intersect within [0, maxToi], delegating to the broad phase (§6).
func (p *Pipeline) InterferencesWithRay(ray geom.Ray, maxToi float64, out *[]*Object) {
	p.bp.InterferencesWithRay(ray, maxToi, out)
}

// InterferencesWithPoint reports every object whose bounding volume
// contains point, delegating to the broad phase (§6).
func (p *Pipeline) InterferencesWithPoint(point mgl64.Vec3, out *[]*Object) {
	p.bp.InterferencesWithPoint(point, out)
}
