// Package manifold implements the C6 contact manifold generator: support-
// feature extraction, polygon clipping, kinematic tracking across frames,
// and a bounded, stably-identified manifold of contacts.
//
// Grounded on the teacher's epa/manifold.go Sutherland-Hodgman clipping
// pipeline, generalised from *actor.RigidBody pairs to the
// shape.ConvexPolyhedron interface, and supplemented with the
// ContactKinematic persistence layer the teacher never had (grounded on
// original_source's contact_kinematic.rs).
package manifold

import "github.com/go-gl/mathgl/mgl64"

// Contact is a single contact point: World1/World2 are the witness points
// on shape 1 and shape 2 respectively, Normal is a unit vector pointing
// from shape 1 toward shape 2 in the separating sense, and Depth is the
// signed penetration — positive means the shapes overlap by Depth.
type Contact struct {
	World1 mgl64.Vec3
	World2 mgl64.Vec3
	Normal mgl64.Vec3
	Depth  float64
}

// Entry is one record of a ContactManifold: a contact, the kinematic that
// can re-evaluate it next frame, and the stable id that lets a physics
// solver carry warm-started impulses across frames.
type Entry struct {
	Contact   Contact
	Kinematic ContactKinematic
	Id        uint64
}

// capacity bounds a manifold to 4 points, matching the teacher's
// maxContactPoints (Erin Catto, GDC 2007: 4 points suffice for stable 3D
// contact resolution).
const capacity = 4

// ContactManifold is an ordered, bounded set of contacts between the same
// pair of shapes, plus a save/clear cache that lets stable ids persist
// across frames for contacts that reappear in roughly the same place.
type ContactManifold struct {
	entries   [capacity]Entry
	count     int
	cached    [capacity]Entry
	cachedLen int
}

// Len reports how many contacts the manifold currently holds.
func (m *ContactManifold) Len() int { return m.count }

// Entries returns the manifold's current entries. The returned slice
// aliases internal storage and must not be retained past the next mutating
// call.
func (m *ContactManifold) Entries() []Entry { return m.entries[:m.count] }

// SaveCacheAndClear snapshots the current entries (so their stable ids can
// be matched against next frame's regenerated contacts) and empties the
// manifold, per §4.6 step 7.
func (m *ContactManifold) SaveCacheAndClear() {
	copy(m.cached[:], m.entries[:m.count])
	m.cachedLen = m.count
	m.count = 0
}

// MatchCachedId returns the stable id of a cached entry whose contact
// points (within tol) match c, reusing it instead of minting a fresh one;
// it returns (0, false) if nothing in the cache matches.
func (m *ContactManifold) MatchCachedId(c Contact, tol float64) (uint64, bool) {
	tolSq := tol * tol
	for i := 0; i < m.cachedLen; i++ {
		cached := m.cached[i].Contact
		if cached.World1.Sub(c.World1).LenSqr() < tolSq && cached.World2.Sub(c.World2).LenSqr() < tolSq {
			return m.cached[i].Id, true
		}
	}
	return 0, false
}

// Push appends an entry, dropping the least useful existing contact (by
// Depth, keeping the deepest) if the manifold is already at capacity.
func (m *ContactManifold) Push(e Entry) {
	if m.count < capacity {
		m.entries[m.count] = e
		m.count++
		return
	}
	shallowest := 0
	for i := 1; i < m.count; i++ {
		if m.entries[i].Contact.Depth < m.entries[shallowest].Contact.Depth {
			shallowest = i
		}
	}
	if e.Contact.Depth > m.entries[shallowest].Contact.Depth {
		m.entries[shallowest] = e
	}
}
