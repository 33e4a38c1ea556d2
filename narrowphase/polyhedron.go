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

// PolyhedronGenerator implements §4.6 end to end for a pair of
// shape.ConvexPolyhedron: GJK (with the max-distance bound of
// prediction.Linear) classifies the pair as separated-beyond-prediction,
// separated-within-prediction, or intersecting; EPA resolves the
// penetration normal/depth on intersection; manifold.Generate then performs
// feature extraction and clipping (§4.6 steps 4-7). The GJK search
// direction is warm-started from the previous frame's outcome, as §9 notes
// real collision detectors do to make the common "nothing changed" frame
// cheap.
type PolyhedronGenerator struct {
	simplex simplex.VoronoiSimplex
	man     manifold.ContactManifold
	lastDir mgl64.Vec3
	hasLast bool
}

// NewPolyhedronGenerator returns a generator with no warm-start history.
func NewPolyhedronGenerator() *PolyhedronGenerator {
	return &PolyhedronGenerator{}
}

func (g *PolyhedronGenerator) Update(
	id1 uint64, m1 shape.Isometry, s1 shape.Support,
	id2 uint64, m2 shape.Isometry, s2 shape.Support,
	pred manifold.Prediction, ids *manifold.IdAllocator,
) bool {
	p1, ok1 := s1.(shape.ConvexPolyhedron)
	p2, ok2 := s2.(shape.ConvexPolyhedron)
	if !ok1 || !ok2 {
		return false
	}

	c := cso.Minkowski{M1: m1, A: p1, M2: m2, B: p2}
	dir := g.lastDir
	if !g.hasLast || dir.LenSqr() < 1e-16 {
		dir = mgl64.Vec3{1, 0, 0}
	}

	res := gjk.Proximity(c, &g.simplex, dir, pred.Linear)

	switch res.Outcome {
	case gjk.NoIntersection:
		// Beyond the prediction envelope: no contact, but remember the
		// separating axis so the next frame's GJK starts close to the
		// answer instead of from scratch.
		g.man.SaveCacheAndClear()
		g.lastDir = res.Point.Point.Mul(-1)
		g.hasLast = true
		return true

	case gjk.Intersection:
		epaRes, err := epa.Penetration(c, &g.simplex)
		if err != nil {
			logging.Logger().Debug().Err(err).Msg("narrowphase: EPA did not converge, dropping manifold this frame")
			g.man.SaveCacheAndClear()
			return true
		}
		manifold.Generate(m1, p1, m2, p2, epaRes.Normal, epaRes.Depth, pred, &g.man, ids)
		g.lastDir = epaRes.Normal
		g.hasLast = true
		return true

	default: // gjk.Projection: separated, but within the prediction envelope.
		w1, w2 := gjk.ClosestPoints(res)
		sep := w2.Sub(w1)
		dist := sep.Len()
		normal := safeNormalize(sep, g.lastDir)
		manifold.Generate(m1, p1, m2, p2, normal, -dist, pred, &g.man, ids)
		g.lastDir = normal
		g.hasLast = true
		return true
	}
}

func (g *PolyhedronGenerator) NumContacts() int                    { return g.man.Len() }
func (g *PolyhedronGenerator) Manifold() *manifold.ContactManifold { return &g.man }

func safeNormalize(v, fallback mgl64.Vec3) mgl64.Vec3 {
	if l := v.Len(); l > 1e-12 {
		return v.Mul(1.0 / l)
	}
	if fallback.LenSqr() > 1e-12 {
		return fallback.Normalize()
	}
	return mgl64.Vec3{1, 0, 0}
}
