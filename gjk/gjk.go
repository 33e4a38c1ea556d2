// Package gjk implements the C4 GJK core: three entry points (Distance,
// Proximity, Intersect) sharing one loop over a Voronoi simplex (C3) and a
// CSO support map (C2), plus a ray-cast variant against a single convex
// support map. Grounded on the teacher's gjk/gjk.go GJK function,
// generalised from a boolean intersection test tied to *actor.RigidBody
// into the full distance/proximity/ray-cast family the specification
// requires, operating on the shape.Support/ConvexPolyhedron interfaces.
package gjk

import (
	"github.com/dimforge/ncollide-go/cso"
	"github.com/dimforge/ncollide-go/geom"
	"github.com/dimforge/ncollide-go/internal/logging"
	"github.com/dimforge/ncollide-go/simplex"
	"github.com/go-gl/mathgl/mgl64"
)

// Outcome classifies how a GJK run terminated.
type Outcome int

const (
	// Intersection means the simplex's dimension reached DIM or the
	// projected distance fell within geom.EpsTol of zero: the CSO
	// contains (or touches) the origin.
	Intersection Outcome = iota
	// Projection means the loop converged to a separating closest point
	// without reaching the max-distance bound.
	Projection
	// NoIntersection means step 5's max-distance early exit fired: the
	// shapes are farther apart than the caller's bound.
	NoIntersection
)

// Result is the outcome of a Distance/Proximity/Intersect run.
type Result struct {
	Outcome Outcome
	// Point is the annotated closest point of the CSO to the origin
	// (valid for Intersection/Projection); for NoIntersection it is the
	// separating-axis witness (the last projection before the bound
	// fired).
	Point cso.CSOPoint
}

// maxIterations bounds the common loop; the specification does not fix
// this value for GJK itself (only EPA's cap is named), so we keep the
// teacher's existing bound.
const maxIterations = 32

// Distance runs GJK to convergence with no maximum-distance bound: either
// Intersection or Projection. initDir seeds the first support query; the
// caller typically passes the vector between the two shapes' centres.
func Distance(c cso.Minkowski, s *simplex.VoronoiSimplex, initDir mgl64.Vec3) Result {
	return run(c, s, initDir, -1)
}

// Proximity runs GJK with the max-distance early exit of §4.4 step 5: if
// the separating-axis lower bound exceeds maxDist, it returns
// NoIntersection immediately without finishing the projection.
func Proximity(c cso.Minkowski, s *simplex.VoronoiSimplex, initDir mgl64.Vec3, maxDist float64) Result {
	return run(c, s, initDir, maxDist)
}

// Intersect is a convenience wrapper reporting only whether the two shapes
// overlap.
func Intersect(c cso.Minkowski, s *simplex.VoronoiSimplex, initDir mgl64.Vec3) bool {
	return Distance(c, s, initDir).Outcome == Intersection
}

func run(c cso.Minkowski, s *simplex.VoronoiSimplex, initDir mgl64.Vec3, maxDist float64) Result {
	dir := initDir
	if dir.LenSqr() < 1e-16 {
		dir = mgl64.Vec3{1, 0, 0}
	}

	first := c.SupportCSOPoint(dir)
	s.Reset(first)

	proj := first
	dsq := proj.Point.LenSqr()

	for iter := 0; iter < maxIterations; iter++ {
		proj = s.ProjectOriginAndReduce()
		dsq = proj.Point.LenSqr()

		if s.Dimension() == 3 || dsq <= geom.EpsTol {
			return Result{Outcome: Intersection, Point: proj}
		}

		searchDir := proj.Point.Mul(-1)
		v := c.SupportCSOPoint(searchDir)
		mu := proj.Point.Dot(v.Point)

		// The bound is checked before convergence so that a pair farther
		// apart than maxDist reports NoIntersection even when the
		// projection has already converged.
		if maxDist >= 0 {
			projLen := dsq // |proj|^2, compared below against (maxDist*|proj|)^2 for sign-safety
			if mu > 0 && mu*mu > maxDist*maxDist*projLen {
				return Result{Outcome: NoIntersection, Point: proj}
			}
		}

		f := dsq - mu
		if f <= geom.EpsRel*dsq {
			return Result{Outcome: Projection, Point: proj}
		}

		if !s.AddPoint(v) {
			return Result{Outcome: Projection, Point: proj}
		}

		newProj := s.ProjectOriginAndReduce()
		if newProj.Point.LenSqr() >= dsq {
			logging.Logger().Debug().Msg("gjk: numerical regression, returning previous projection")
			return Result{Outcome: Projection, Point: proj}
		}
	}

	logging.Logger().Debug().Msg("gjk: iteration cap reached")
	return Result{Outcome: Projection, Point: proj}
}

// ClosestPoints converts an annotated Projection/Intersection result back
// to the two original-shape points, undoing the CSO's reflection of B.
func ClosestPoints(r Result) (p1, p2 mgl64.Vec3) {
	return r.Point.P1, r.Point.P2
}
