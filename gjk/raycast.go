package gjk

import (
	"math"

	"github.com/dimforge/ncollide-go/cso"
	"github.com/dimforge/ncollide-go/geom"
	"github.com/dimforge/ncollide-go/internal/logging"
	"github.com/dimforge/ncollide-go/shape"
	"github.com/dimforge/ncollide-go/simplex"
	"github.com/go-gl/mathgl/mgl64"
)

// rayMaxIterations bounds the ray-cast loop; the specification calls this
// advisory and notes the source observes that more than 100 iterations
// indicates pathology, so we use that figure directly.
const rayMaxIterations = 100

// RayCastResult is the outcome of a RayCast call.
type RayCastResult struct {
	Hit    bool
	Toi    float64
	Normal mgl64.Vec3
}

// RayCast walks the conservative-advancement variant of the common GJK
// loop against a single convex support map: the distance subproblem is
// point-vs-shape (the advancing ray point against the target), and each
// iteration probes the support plane along the current candidate
// separating direction. When that plane separates the ray point from the
// shape and faces against the ray direction, the ray's parametric t is
// advanced to the plane intersection and the simplex restarts from the
// translated origin; a separating plane facing along the ray direction is
// a miss. The branch taken:
//
//	sign(dir.ray.dir) < 0, plane-t > 0  -> advance (new lower bound, translate origin, reset simplex)
//	sign(dir.ray.dir) > 0, plane-t < 0  -> miss
//	any other combination               -> add the support point to the simplex and continue
//
// No upper bound on t is kept: the sign(dir.ray.dir) > 0, plane-t > 0 case
// only grows the simplex.
func RayCast(s shape.Support, m shape.Isometry, ray geom.Ray, maxToi float64) RayCastResult {
	ltoi := 0.0
	curr := ray.Origin

	// Candidate separating direction, pointing from the shape toward the
	// ray point. Starting against the ray direction makes the first plane
	// probe the near side of the shape.
	dir := ray.Dir.Mul(-1)
	if dir.LenSqr() < geom.EpsTol {
		dir = mgl64.Vec3{-1, 0, 0}
	}
	ldir := dir

	var simp simplex.VoronoiSimplex
	support := s.SupportPoint(m, dir)
	simp.Reset(cso.CSOPoint{Point: support.Sub(curr), P1: support, P2: curr})

	oldMaxBound := math.Inf(1)

	for iter := 0; iter < rayMaxIterations; iter++ {
		l := dir.Len()
		if l < geom.EpsTol {
			// Degenerate search direction: the current ray point is on the
			// shape's surface.
			return RayCastResult{Hit: true, Toi: ltoi, Normal: hitNormal(ldir, ray.Dir)}
		}
		dir = dir.Mul(1.0 / l)

		support = s.SupportPoint(m, dir)
		dirDotRay := dir.Dot(ray.Dir)
		num := dir.Dot(support.Sub(curr))

		// Intersect the support plane {y : dir.(y - support) = 0} with the
		// ray from the current origin; planeT < 0 (or a parallel plane)
		// means the plane is behind the advancing point.
		planeAhead := false
		planeT := 0.0
		if math.Abs(dirDotRay) > 1e-12 {
			planeT = num / dirDotRay
			planeAhead = planeT >= 0
		}

		switch {
		case planeAhead && dirDotRay < 0 && planeT > geom.EpsTol:
			// Advance: the plane separates the ray point from the shape and
			// faces against the ray, so nothing before planeT can be hit.
			ldir = dir
			ltoi += planeT
			if ltoi > maxToi {
				return RayCastResult{Hit: false}
			}
			curr = ray.PointAt(ltoi)
			simp.Reset(cso.CSOPoint{Point: support.Sub(curr), P1: support, P2: curr})
			oldMaxBound = math.Inf(1)
			dir = curr.Sub(support)
			continue

		case !planeAhead && dirDotRay > 0:
			// The separating plane faces along the ray and is behind the
			// advancing point: the shape can never be reached.
			return RayCastResult{Hit: false}
		}

		simp.AddPoint(cso.CSOPoint{Point: support.Sub(curr), P1: support, P2: curr})
		proj := simp.ProjectOriginAndReduce()
		maxBound := proj.Point.LenSqr()

		if simp.Dimension() == 3 || maxBound <= geom.EpsTol*math.Max(simp.MaxSqLen(), 1.0) {
			return RayCastResult{Hit: true, Toi: ltoi, Normal: hitNormal(ldir, ray.Dir)}
		}
		if maxBound >= oldMaxBound {
			// Numerical regression: return the last stable estimate.
			return RayCastResult{Hit: true, Toi: ltoi, Normal: hitNormal(dir, ray.Dir)}
		}
		oldMaxBound = maxBound
		dir = proj.Point.Mul(-1)
	}

	logging.Logger().Debug().Msg("gjk: ray-cast iteration cap reached")
	return RayCastResult{Hit: false}
}

func hitNormal(n, rayDir mgl64.Vec3) mgl64.Vec3 {
	if n.LenSqr() < geom.EpsTol {
		n = rayDir.Mul(-1)
	}
	return n.Normalize()
}
