// Package epa implements the C5 Expanding Polytope Algorithm: given a
// simplex from a GJK run that terminated with Intersection, it expands a
// polytope in CSO space toward the origin to recover penetration depth,
// contact normal and a witness point on each shape — the Minimum
// Translation Vector the narrow phase turns into a contact.
//
// Grounded on the teacher's epa/epa.go, epa/polytope.go, epa/face.go,
// generalised from *actor.RigidBody-specific support queries to the
// cso.Minkowski/shape.Support interfaces so it can run against any pair of
// shapes, and returning a cso.CSOPoint witness instead of reaching into a
// rigid body's contact-constraint type.
package epa

import (
	"errors"
	"fmt"
	"math"

	"github.com/dimforge/ncollide-go/cso"
	"github.com/dimforge/ncollide-go/internal/logging"
	"github.com/dimforge/ncollide-go/simplex"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// EPAMaxIterations limits polytope expansion to prevent infinite loops.
	EPAMaxIterations = 32

	// EPAConvergenceTolerance defines when EPA has converged: once a new
	// support point's distance improves the closest face's distance by
	// less than this, that face is the answer.
	EPAConvergenceTolerance = 0.001

	// EPAMinFaceDistance is the minimum face distance before a face is
	// treated as degenerate and skipped.
	EPAMinFaceDistance = 0.0001

	// NormalSnapThreshold clamps nearly-zero normal components to exactly
	// zero for axis-aligned stability.
	NormalSnapThreshold = 1e-8

	// DegeneratePenetrationEstimate is the fallback penetration depth used
	// when the input simplex is too small to build a polytope.
	DegeneratePenetrationEstimate = 0.01
)

// ErrNoConvergence is returned when the polytope is left with no face to
// report. When EPAMaxIterations runs out while faces remain, Penetration
// returns the closest face instead of this error.
var ErrNoConvergence = errors.New("epa: failed to converge")

// Result is a penetration (MTV) result: Normal points from shape A toward
// shape B (the separation direction), Depth is the penetration depth
// (always non-negative), and Witness interpolates the closest face's CSO
// points to recover a representative point on each shape.
type Result struct {
	Normal  mgl64.Vec3
	Depth   float64
	Witness cso.CSOPoint
}

// Penetration runs EPA against the CSO support map c, seeded by a simplex
// that a prior gjk.Distance/Intersect run left enclosing the origin
// (s.Dimension() == 3 in the common case; smaller simplices are handled as
// the degenerate case below, exactly as the teacher's handleDegenerateSimplex
// did for an incomplete GJK result).
func Penetration(c cso.Minkowski, s *simplex.VoronoiSimplex) (Result, error) {
	pts := s.Points()
	if len(pts) < 4 {
		return degenerateResult(c, pts), nil
	}

	builder := polytopeBuilderPool.Get().(*PolytopeBuilder)
	builder.Reset()
	defer polytopeBuilderPool.Put(builder)

	if err := builder.BuildInitialFaces(pts); err != nil {
		return Result{}, err
	}

	for i := 0; i < EPAMaxIterations; i++ {
		if len(builder.faces) == 0 {
			break
		}

		closestIndex := builder.FindClosestFaceIndex()
		closestFace := builder.faces[closestIndex]

		if closestFace.Distance < EPAMinFaceDistance {
			builder.faces = append(builder.faces[:closestIndex], builder.faces[closestIndex+1:]...)
			continue
		}

		support := c.SupportCSOPoint(closestFace.Normal)
		distance := support.Point.Dot(closestFace.Normal)

		if distance-closestFace.Distance < EPAConvergenceTolerance {
			return faceResult(closestFace), nil
		}

		builder.AddPointAndRebuildFaces(support, closestIndex)
	}

	// §4.5/§9: the iteration cap is advisory and non-convergence is
	// recovered locally, not surfaced as a caller-visible failure — "on
	// cap, return the current best face" (§4.5), matching §7's "recovered
	// by returning the last stable estimate" for non-convergence. See
	// DESIGN.md for the EPAMaxIterations tuning rationale.
	logging.Logger().Debug().Msg("epa: iteration cap reached, returning current best face")
	if len(builder.faces) > 0 {
		return faceResult(builder.faces[builder.FindClosestFaceIndex()]), nil
	}

	return Result{}, fmt.Errorf("%w after %d iterations", ErrNoConvergence, EPAMaxIterations)
}

// faceResult converts a polytope face into the Result the caller sees:
// Depth/Normal come straight from the face, and Witness is the CSO
// interpolation of the face's three points at the origin's projection onto
// it (barycentric coordinates of Normal*Distance, the closest point of the
// face to the origin).
func faceResult(f Face) Result {
	u, v, w := barycentric(f.Normal.Mul(f.Distance), f.Points[0].Point, f.Points[1].Point, f.Points[2].Point)
	return Result{
		Normal:  f.Normal,
		Depth:   f.Distance,
		Witness: f.witness(u, v, w),
	}
}

// degenerateResult estimates a penetration result when GJK's terminal
// simplex has fewer than 4 points, mirroring the teacher's
// handleDegenerateSimplex fallback chain (closest-of-two, then
// support-direction probe).
func degenerateResult(c cso.Minkowski, pts []cso.CSOPoint) Result {
	if len(pts) >= 2 {
		a, b := pts[0], pts[1]
		distA := a.Point.Len()
		distB := b.Point.Len()
		if distA < distB {
			return Result{Normal: safeNormalize(a.Point), Depth: distA, Witness: a}
		}
		return Result{Normal: safeNormalize(b.Point), Depth: distB, Witness: b}
	}

	if len(pts) == 1 {
		probe := c.SupportCSOPoint(pts[0].Point.Mul(-1))
		return Result{
			Normal:  safeNormalize(pts[0].Point),
			Depth:   DegeneratePenetrationEstimate,
			Witness: probe,
		}
	}

	probe := c.SupportCSOPoint(mgl64.Vec3{0, 1, 0})
	return Result{Normal: mgl64.Vec3{0, 1, 0}, Depth: DegeneratePenetrationEstimate, Witness: probe}
}

func safeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < NormalSnapThreshold {
		return mgl64.Vec3{0, 1, 0}
	}
	return v.Mul(1.0 / l)
}

// snapNormalToAxis clamps nearly-zero components of a normal to exactly
// zero, then renormalizes, improving numerical stability for axis-aligned
// collisions (box resting on a plane).
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	const threshold = NormalSnapThreshold

	x, y, z := normal[0], normal[1], normal[2]
	if math.Abs(x) < threshold {
		x = 0
	}
	if math.Abs(y) < threshold {
		y = 0
	}
	if math.Abs(z) < threshold {
		z = 0
	}

	clamped := mgl64.Vec3{x, y, z}
	length := clamped.Len()
	if length > 1e-8 {
		return clamped.Mul(1.0 / length)
	}
	return mgl64.Vec3{0, 1, 0}
}
