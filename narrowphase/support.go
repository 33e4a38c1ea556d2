package narrowphase

import (
	"github.com/dimforge/ncollide-go/cso"
	"github.com/dimforge/ncollide-go/epa"
	"github.com/dimforge/ncollide-go/gjk"
	"github.com/dimforge/ncollide-go/internal/logging"
	"github.com/dimforge/ncollide-go/manifold"
	"github.com/dimforge/ncollide-go/shape"
	"github.com/dimforge/ncollide-go/simplex"
	"github.com/go-gl/mathgl/mgl64"
)

// SupportGenerator is the fallback narrow-phase generator for any pair
// where at least one shape exposes only shape.Support (e.g. shape.Sphere):
// with no polyhedral feature to extract, the pair always collapses to the
// single-vertex-vs-single-vertex case of the teacher's support-map
// generator (original_source's quasi_conformal_contact_area, len==1/len==1
// branch) — the GJK/EPA witness points themselves are the one contact.
//
// It still claims every shape.Support pair, including two
// ConvexPolyhedron-capable shapes, so the dispatcher always has a
// generator to fall back to; Dispatcher.Select only picks it when at least
// one of the two shapes is not a shape.ConvexPolyhedron.
type SupportGenerator struct {
	simplex simplex.VoronoiSimplex
	man     manifold.ContactManifold
	lastDir mgl64.Vec3
	hasLast bool
}

// NewSupportGenerator returns a generator with no warm-start history.
func NewSupportGenerator() *SupportGenerator {
	return &SupportGenerator{}
}

func (g *SupportGenerator) Update(
	id1 uint64, m1 shape.Isometry, s1 shape.Support,
	id2 uint64, m2 shape.Isometry, s2 shape.Support,
	pred manifold.Prediction, ids *manifold.IdAllocator,
) bool {
	c := cso.Minkowski{M1: m1, A: s1, M2: m2, B: s2}
	dir := g.lastDir
	if !g.hasLast || dir.LenSqr() < 1e-16 {
		dir = mgl64.Vec3{1, 0, 0}
	}

	res := gjk.Proximity(c, &g.simplex, dir, pred.Linear)
	g.man.SaveCacheAndClear()

	switch res.Outcome {
	case gjk.NoIntersection:
		g.lastDir = res.Point.Point.Mul(-1)
		g.hasLast = true
		return true

	case gjk.Intersection:
		epaRes, err := epa.Penetration(c, &g.simplex)
		if err != nil {
			logging.Logger().Debug().Err(err).Msg("narrowphase: EPA did not converge for support-only pair, dropping manifold this frame")
			return true
		}
		g.push(m1, m2, epaRes.Witness.P1, epaRes.Witness.P2, epaRes.Normal, epaRes.Depth, ids)
		g.lastDir = epaRes.Normal
		g.hasLast = true
		return true

	default: // gjk.Projection
		w1, w2 := gjk.ClosestPoints(res)
		sep := w2.Sub(w1)
		dist := sep.Len()
		if dist > pred.Linear {
			// Outside the envelope; keep the axis for next frame's warm start.
			g.lastDir = safeNormalize(sep, g.lastDir)
			g.hasLast = true
			return true
		}
		normal := safeNormalize(sep, g.lastDir)
		g.push(m1, m2, w1, w2, normal, -dist, ids)
		g.lastDir = normal
		g.hasLast = true
		return true
	}
}

func (g *SupportGenerator) push(m1, m2 shape.Isometry, w1, w2, normal mgl64.Vec3, depth float64, ids *manifold.IdAllocator) {
	c := manifold.Contact{World1: w1, World2: w2, Normal: normal, Depth: depth}
	kin := manifold.ContactKinematic{
		Feature1: manifold.LocalFeature{Kind: manifold.PrimPoint, Point: m1.InverseTransformPoint(w1), Id: shape.Unknown},
		Feature2: manifold.LocalFeature{Kind: manifold.PrimPoint, Point: m2.InverseTransformPoint(w2), Id: shape.Unknown},
	}
	id, ok := g.man.MatchCachedId(c, 1e-4)
	if !ok {
		id = ids.Allocate()
	}
	g.man.Push(manifold.Entry{Contact: c, Kinematic: kin, Id: id})
}

func (g *SupportGenerator) NumContacts() int                    { return g.man.Len() }
func (g *SupportGenerator) Manifold() *manifold.ContactManifold { return &g.man }
