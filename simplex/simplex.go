// Package simplex implements the C3 Voronoi-simplex subalgorithm: a
// 0-to-DIM+1-point simplex of CSO points that GJK repeatedly grows and
// reduces to the lowest-dimensional feature closest to the origin. The
// branch structure follows the standard Christer Ericson / Johnson
// formulation named by the specification (Ericson, "Real-Time Collision
// Detection", §5.1.5 and §5.1.6), generalised from the teacher's
// hardcoded line/triangle/tetrahedron direction-update functions into a
// standalone reduce-and-report contract.
//
// Everything below operates on fixed-size [4]-element scratch shared with
// the simplex's own storage layout: GJK calls ProjectOriginAndReduce twice
// per iteration, so the reduction path must not touch the heap.
package simplex

import (
	"github.com/dimforge/ncollide-go/cso"
	"github.com/dimforge/ncollide-go/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// VoronoiSimplex holds 0..4 CSO points (3D instantiation, DIM=3) and the
// state of the previous reduction for tangent/ordering recovery.
type VoronoiSimplex struct {
	points [4]cso.CSOPoint
	count  int

	prevPoints [4]cso.CSOPoint
	prevCount  int
}

// Reset makes the simplex become {p}.
func (s *VoronoiSimplex) Reset(p cso.CSOPoint) {
	s.points[0] = p
	s.count = 1
	s.prevCount = 0
}

// Dimension returns the simplex's current dimension, 0..DIM, or -1 when
// the simplex is empty.
func (s *VoronoiSimplex) Dimension() int {
	if s.count == 0 {
		return -1
	}
	return s.count - 1
}

// Points returns the simplex's current points, in insertion order. The
// returned slice aliases internal storage and must not be retained past
// the next mutating call.
func (s *VoronoiSimplex) Points() []cso.CSOPoint {
	return s.points[:s.count]
}

// MaxSqLen returns the largest squared norm among the stored CSO points,
// used by callers to bound numerical tolerances relative to the query's
// scale.
func (s *VoronoiSimplex) MaxSqLen() float64 {
	best := 0.0
	for i := 0; i < s.count; i++ {
		if l := s.points[i].Point.LenSqr(); l > best {
			best = l
		}
	}
	return best
}

// PrevPoints returns the simplex's points as they stood before the last
// ProjectOriginAndReduce call.
func (s *VoronoiSimplex) PrevPoints() []cso.CSOPoint {
	return s.prevPoints[:s.prevCount]
}

// PrevDimension mirrors Dimension for the pre-reduction state.
func (s *VoronoiSimplex) PrevDimension() int {
	if s.prevCount == 0 {
		return -1
	}
	return s.prevCount - 1
}

// AddPoint appends p to the simplex. It fails (returns false, simplex
// unchanged) if p is affinely dependent with the existing vertices within
// geom.EpsTol, or if the simplex is already full (4 points in 3D): within
// geom.EpsTol of an existing vertex, colinear with a 2-simplex, or
// coplanar with a 3-simplex.
func (s *VoronoiSimplex) AddPoint(p cso.CSOPoint) bool {
	if s.count >= 4 {
		return false
	}
	for i := 0; i < s.count; i++ {
		if p.Point.Sub(s.points[i].Point).LenSqr() < geom.EpsTol*geom.EpsTol {
			return false
		}
	}
	switch s.count {
	case 2:
		ab := s.points[1].Point.Sub(s.points[0].Point)
		ap := p.Point.Sub(s.points[0].Point)
		if ab.Cross(ap).LenSqr() < geom.EpsTol {
			return false
		}
	case 3:
		ab := s.points[1].Point.Sub(s.points[0].Point)
		ac := s.points[2].Point.Sub(s.points[0].Point)
		ap := p.Point.Sub(s.points[0].Point)
		vol := ab.Cross(ac).Dot(ap)
		if vol*vol < geom.EpsTol {
			return false
		}
	}
	s.points[s.count] = p
	s.count++
	return true
}

// interpKept interpolates the kept sub-simplex (indices kept[:n] into pts,
// weights w[:n]) into a single annotated point.
func interpKept(pts *[4]cso.CSOPoint, kept *[4]int, w *[4]float64, n int) cso.CSOPoint {
	var out cso.CSOPoint
	for i := 0; i < n; i++ {
		p := &pts[kept[i]]
		wi := w[i]
		out.Point = out.Point.Add(p.Point.Mul(wi))
		out.P1 = out.P1.Add(p.P1.Mul(wi))
		out.P2 = out.P2.Add(p.P2.Mul(wi))
	}
	return out
}

// ProjectOriginAndReduce returns the closest point of the simplex to the
// origin and reduces the simplex to the lowest-dimensional face containing
// that closest point.
func (s *VoronoiSimplex) ProjectOriginAndReduce() cso.CSOPoint {
	copy(s.prevPoints[:], s.points[:s.count])
	s.prevCount = s.count

	if s.count == 1 {
		return s.points[0]
	}

	var kept [4]int
	var w [4]float64
	var n int

	switch s.count {
	case 2:
		n = closestPtPointSegment(s.points[0].Point, s.points[1].Point, &kept, &w)
	case 3:
		n = reduceTriangle(&s.points, &kept, &w)
	case 4:
		n = reduceTetrahedron(&s.points, &kept, &w)
	default:
		return cso.CSOPoint{}
	}

	proj := interpKept(&s.points, &kept, &w, n)
	s.applyReduction(&kept, n)
	return proj
}

// applyReduction rewrites s.points to the kept subset and updates count.
func (s *VoronoiSimplex) applyReduction(kept *[4]int, n int) {
	var np [4]cso.CSOPoint
	for i := 0; i < n; i++ {
		np[i] = s.points[kept[i]]
	}
	s.points = np
	s.count = n
}

// --- Ericson-style geometric primitives, operating on the origin ---
//
// Each writes the kept local vertex indices and barycentric weights into
// the caller's fixed scratch and returns how many were kept.

func closestPtPointSegment(a, b mgl64.Vec3, kept *[4]int, w *[4]float64) int {
	ab := b.Sub(a)
	denom := ab.LenSqr()
	if denom < geom.EpsTol {
		kept[0], w[0] = 0, 1
		return 1
	}
	t := -a.Dot(ab) / denom
	if t <= 0 {
		kept[0], w[0] = 0, 1
		return 1
	}
	if t >= 1 {
		kept[0], w[0] = 1, 1
		return 1
	}
	kept[0], kept[1] = 0, 1
	w[0], w[1] = 1-t, t
	return 2
}

// closestPtPointTriangle is Ericson's textbook algorithm (RTCD §5.1.5),
// specialised to p = origin. It reports which of {a,b,c} (by local index
// 0,1,2) remain in the minimal feature, their barycentric weights, and the
// closest point itself.
func closestPtPointTriangle(a, b, c mgl64.Vec3, kept *[4]int, w *[4]float64) (int, mgl64.Vec3) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := a.Mul(-1) // p - a, p = origin

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		kept[0], w[0] = 0, 1
		return 1, a
	}

	bp := b.Mul(-1)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		kept[0], w[0] = 1, 1
		return 1, b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		kept[0], kept[1] = 0, 1
		w[0], w[1] = 1-v, v
		return 2, a.Add(ab.Mul(v))
	}

	cp := c.Mul(-1)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		kept[0], w[0] = 2, 1
		return 1, c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w2 := d2 / (d2 - d6)
		kept[0], kept[1] = 0, 2
		w[0], w[1] = 1-w2, w2
		return 2, a.Add(ac.Mul(w2))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w2 := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		kept[0], kept[1] = 1, 2
		w[0], w[1] = 1-w2, w2
		return 2, b.Add(c.Sub(b).Mul(w2))
	}

	denom := 1.0 / (va + vb + vc)
	v := vb * denom
	wc := vc * denom
	kept[0], kept[1], kept[2] = 0, 1, 2
	w[0], w[1], w[2] = 1-v-wc, v, wc
	return 3, a.Add(ab.Mul(v)).Add(ac.Mul(wc))
}

func reduceTriangle(pts *[4]cso.CSOPoint, kept *[4]int, w *[4]float64) int {
	a, b, c := pts[0].Point, pts[1].Point, pts[2].Point

	// Degenerate (near-collinear) triangle: fall back to the longer edge.
	ab := b.Sub(a)
	ac := c.Sub(a)
	if ab.Cross(ac).LenSqr() < geom.EpsTol {
		if ab.LenSqr() >= ac.LenSqr() {
			return closestPtPointSegment(a, b, kept, w)
		}
		n := closestPtPointSegment(a, c, kept, w)
		for i := 0; i < n; i++ {
			if kept[i] == 1 {
				kept[i] = 2
			}
		}
		return n
	}

	n, _ := closestPtPointTriangle(a, b, c, kept, w)
	return n
}

func pointOutsideOfPlane(a, b, c, d mgl64.Vec3) bool {
	normal := b.Sub(a).Cross(c.Sub(a))
	signP := a.Mul(-1).Dot(normal) // (origin - a) . normal
	signD := d.Sub(a).Dot(normal)
	return signP*signD < 0
}

// reduceTetrahedron implements Ericson's ClosestPtPointTetrahedron
// (RTCD §5.1.6): test the origin against the 4 outward faces; if it is
// inside all of them the origin is enclosed (GJK intersection outcome,
// simplex stays a full tetrahedron); otherwise recurse into the nearest
// violated face's triangle routine and translate its local feature back
// into the tetrahedron's original point indices.
func reduceTetrahedron(pts *[4]cso.CSOPoint, kept *[4]int, w *[4]float64) int {
	a, b, c, d := pts[0].Point, pts[1].Point, pts[2].Point, pts[3].Point

	faceIdx := [4][3]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 1}, {1, 3, 2}}
	faceVerts := [4][3]mgl64.Vec3{{a, b, c}, {a, c, d}, {a, d, b}, {b, d, c}}
	opposite := [4]mgl64.Vec3{d, b, c, a}

	bestSq := -1.0
	var bestKept [4]int
	var bestW [4]float64
	bestN := 0
	bestFace := 0
	anyOutside := false

	var k [4]int
	var wt [4]float64
	for fi := 0; fi < 4; fi++ {
		v := faceVerts[fi]
		if !pointOutsideOfPlane(v[0], v[1], v[2], opposite[fi]) {
			continue
		}
		anyOutside = true
		n, q := closestPtPointTriangle(v[0], v[1], v[2], &k, &wt)
		sq := q.LenSqr()
		if bestSq < 0 || sq < bestSq {
			bestSq = sq
			bestKept, bestW, bestN = k, wt, n
			bestFace = fi
		}
	}

	if !anyOutside {
		// Barycentric weights of the origin (Cramer's rule), so interpKept
		// returns the origin itself. AddPoint keeps the volume non-zero.
		ab, ac, ad, ao := b.Sub(a), c.Sub(a), d.Sub(a), a.Mul(-1)
		vol := ab.Cross(ac).Dot(ad)
		wb := ao.Cross(ac).Dot(ad) / vol
		wc := ab.Cross(ao).Dot(ad) / vol
		wd := ab.Cross(ac).Dot(ao) / vol
		kept[0], kept[1], kept[2], kept[3] = 0, 1, 2, 3
		w[0], w[1], w[2], w[3] = 1-wb-wc-wd, wb, wc, wd
		return 4
	}

	orig := faceIdx[bestFace]
	for i := 0; i < bestN; i++ {
		kept[i] = orig[bestKept[i]]
		w[i] = bestW[i]
	}
	return bestN
}
