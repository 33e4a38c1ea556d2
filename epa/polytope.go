package epa

import (
	"fmt"
	"math"
	"sync"

	"github.com/dimforge/ncollide-go/cso"
	"github.com/go-gl/mathgl/mgl64"
)

// polytopeInitialCapacity sizes the builder's scratch slices so the common
// case (a handful of expansion iterations) needs no further growth.
const polytopeInitialCapacity = 32

// PolytopeBuilder manages polytope expansion with dynamic buffers, reused
// across EPA calls via polytopeBuilderPool to keep the hot path allocation
// free.
type PolytopeBuilder struct {
	faces []Face

	uniquePoints []mgl64.Vec3

	edges []EdgeEntry

	visibleIndices []int
}

// EdgeEntry represents an edge with occurrence counting for boundary
// detection. An edge is a boundary edge if it appears exactly once
// (count == 1). Edges are normalized so A < B lexicographically.
type EdgeEntry struct {
	A, B  mgl64.Vec3
	Count int
}

var polytopeBuilderPool = sync.Pool{
	New: func() interface{} {
		return &PolytopeBuilder{
			faces:          make([]Face, 0, polytopeInitialCapacity),
			uniquePoints:   make([]mgl64.Vec3, 0, polytopeInitialCapacity),
			edges:          make([]EdgeEntry, 0, polytopeInitialCapacity),
			visibleIndices: make([]int, 0, polytopeInitialCapacity),
		}
	},
}

// Reset prepares the builder for reuse by clearing all slices.
func (b *PolytopeBuilder) Reset() {
	b.faces = b.faces[:0]
	b.uniquePoints = b.uniquePoints[:0]
	b.edges = b.edges[:0]
	b.visibleIndices = b.visibleIndices[:0]
}

// BuildInitialFaces creates the initial polytope from a GJK tetrahedron
// simplex (4 CSO points enclosing the origin). It creates 4 triangular
// faces, filtering degenerate ones.
func (b *PolytopeBuilder) BuildInitialFaces(pts []cso.CSOPoint) error {
	if len(pts) != 4 {
		return fmt.Errorf("epa: invalid simplex count: %d (expected 4)", len(pts))
	}

	p0, p1, p2, p3 := pts[0], pts[1], pts[2], pts[3]

	candidateFaces := [4]Face{
		b.createFaceOutward(p0, p1, p2, p3),
		b.createFaceOutward(p0, p2, p3, p1),
		b.createFaceOutward(p0, p3, p1, p2),
		b.createFaceOutward(p1, p3, p2, p0),
	}

	for i := 0; i < 4; i++ {
		if candidateFaces[i].Distance >= EPAMinFaceDistance {
			b.faces = append(b.faces, candidateFaces[i])
		}
	}

	if len(b.faces) < 3 {
		b.faces = b.faces[:0]
		for i := 0; i < 4; i++ {
			b.faces = append(b.faces, candidateFaces[i])
		}
	}

	return nil
}

// createFaceOutward builds a Face from three CSO points with the normal
// oriented away from oppositePoint, matching the teacher's
// createFaceOutward orientation test and minimum-distance clamp.
func (b *PolytopeBuilder) createFaceOutward(p0, p1, p2, opposite cso.CSOPoint) Face {
	var face Face
	face.Points = [3]cso.CSOPoint{p0, p1, p2}

	edge1 := p1.Point.Sub(p0.Point)
	edge2 := p2.Point.Sub(p0.Point)
	normal := edge1.Cross(edge2)

	normalLength := math.Sqrt(normal.Dot(normal))
	if normalLength < 1e-8 {
		face.Normal = mgl64.Vec3{0, 1, 0}
		face.Distance = EPAMinFaceDistance
		return face
	}
	normal = normal.Mul(1.0 / normalLength)

	toOpposite := opposite.Point.Sub(p0.Point)
	if normal.Dot(toOpposite) > 0 {
		normal = normal.Mul(-1)
	}

	distance := p0.Point.Dot(normal)
	if distance < 0 {
		normal = normal.Mul(-1)
		distance = -distance
	}
	if distance < EPAMinFaceDistance {
		distance = EPAMinFaceDistance
	}

	face.Normal = snapNormalToAxis(normal)
	face.Distance = distance
	return face
}

// FindClosestFaceIndex returns the index of the face closest to the
// origin, or -1 if no faces exist.
func (b *PolytopeBuilder) FindClosestFaceIndex() int {
	if len(b.faces) == 0 {
		return -1
	}
	closestIndex := 0
	minDistance := b.faces[0].Distance
	for i := 1; i < len(b.faces); i++ {
		if b.faces[i].Distance < minDistance {
			closestIndex = i
			minDistance = b.faces[i].Distance
		}
	}
	return closestIndex
}

func (b *PolytopeBuilder) calculateCentroid() mgl64.Vec3 {
	b.uniquePoints = b.uniquePoints[:0]

	for i := 0; i < len(b.faces); i++ {
		face := &b.faces[i]
		for j := 0; j < 3; j++ {
			point := face.Points[j].Point
			insertIdx := b.findPointInsertionIndex(point)
			if insertIdx < len(b.uniquePoints) && vec3Equal(b.uniquePoints[insertIdx], point) {
				continue
			}
			b.uniquePoints = append(b.uniquePoints, mgl64.Vec3{})
			copy(b.uniquePoints[insertIdx+1:], b.uniquePoints[insertIdx:])
			b.uniquePoints[insertIdx] = point
		}
	}

	if len(b.uniquePoints) == 0 {
		return mgl64.Vec3{0, 0, 0}
	}
	sum := mgl64.Vec3{0, 0, 0}
	for i := 0; i < len(b.uniquePoints); i++ {
		sum = sum.Add(b.uniquePoints[i])
	}
	return sum.Mul(1.0 / float64(len(b.uniquePoints)))
}

func (b *PolytopeBuilder) findPointInsertionIndex(point mgl64.Vec3) int {
	left, right := 0, len(b.uniquePoints)
	for left < right {
		mid := (left + right) / 2
		if compareVec3(b.uniquePoints[mid], point) < 0 {
			left = mid + 1
		} else {
			right = mid
		}
	}
	return left
}

// findBoundaryEdges identifies boundary edges (count == 1) among the
// visible faces' edges.
func (b *PolytopeBuilder) findBoundaryEdges() {
	b.edges = b.edges[:0]

	for i := 0; i < len(b.visibleIndices); i++ {
		face := &b.faces[b.visibleIndices[i]]
		edges := [3][2]cso.CSOPoint{
			{face.Points[0], face.Points[1]},
			{face.Points[1], face.Points[2]},
			{face.Points[2], face.Points[0]},
		}

		for _, edge := range edges {
			edgeA, edgeB := edge[0].Point, edge[1].Point
			a, bPt := edge[0], edge[1]
			if compareVec3(edgeA, edgeB) > 0 {
				a, bPt = bPt, a
			}

			edgeIdx := b.findEdgeIndex(a.Point, bPt.Point)
			if edgeIdx >= 0 {
				b.edges[edgeIdx].Count++
			} else {
				b.edges = append(b.edges, EdgeEntry{A: a.Point, B: bPt.Point, Count: 1})
			}
		}
	}
}

func (b *PolytopeBuilder) findEdgeIndex(a, bb mgl64.Vec3) int {
	for i := 0; i < len(b.edges); i++ {
		e := &b.edges[i]
		if vec3Equal(e.A, a) && vec3Equal(e.B, bb) {
			return i
		}
	}
	return -1
}

// findVisibleFaces populates visibleIndices with faces visible from the
// support point.
func (b *PolytopeBuilder) findVisibleFaces(support cso.CSOPoint) {
	b.visibleIndices = b.visibleIndices[:0]
	for i := 0; i < len(b.faces); i++ {
		face := &b.faces[i]
		toSupport := support.Point.Sub(face.Points[0].Point)
		if toSupport.Dot(face.Normal) > 0 {
			b.visibleIndices = append(b.visibleIndices, i)
		}
	}
}

// removeVisibleFaces removes the faces marked in visibleIndices with a
// swap-with-last pattern, descending index order to avoid invalidation.
func (b *PolytopeBuilder) removeVisibleFaces() {
	for i := 0; i < len(b.visibleIndices)-1; i++ {
		for j := i + 1; j < len(b.visibleIndices); j++ {
			if b.visibleIndices[i] < b.visibleIndices[j] {
				b.visibleIndices[i], b.visibleIndices[j] = b.visibleIndices[j], b.visibleIndices[i]
			}
		}
	}
	for i := 0; i < len(b.visibleIndices); i++ {
		idx := b.visibleIndices[i]
		if idx < len(b.faces) {
			b.faces[idx] = b.faces[len(b.faces)-1]
			b.faces = b.faces[:len(b.faces)-1]
		}
	}
}

// addBoundaryFaces connects each boundary edge to the new support point,
// re-triangulating the silhouette of the removed visible region.
func (b *PolytopeBuilder) addBoundaryFaces(support cso.CSOPoint, centroid mgl64.Vec3) {
	centroidPoint := cso.CSOPoint{Point: centroid}
	for i := 0; i < len(b.edges); i++ {
		edge := &b.edges[i]
		if edge.Count != 1 {
			continue
		}
		a := edgeAsCSOPoint(b, edge.A)
		e := edgeAsCSOPoint(b, edge.B)
		newFace := b.createFaceOutward(a, e, support, centroidPoint)
		b.faces = append(b.faces, newFace)
	}
}

// edgeAsCSOPoint recovers the fully-annotated CSOPoint (with P1/P2) whose
// Point field matches v, by scanning the faces still in the polytope (the
// visible faces have already been removed). A boundary edge's vertices are
// normally shared with a remaining face, so the first match carries the
// annotation; when no remaining face holds v, v is returned with P1/P2
// left zero. Point equality alone is used here since it is exact (copied,
// not recomputed).
func edgeAsCSOPoint(b *PolytopeBuilder, v mgl64.Vec3) cso.CSOPoint {
	for i := range b.faces {
		for j := 0; j < 3; j++ {
			if vec3Equal(b.faces[i].Points[j].Point, v) {
				return b.faces[i].Points[j]
			}
		}
	}
	return cso.CSOPoint{Point: v}
}

// AddPointAndRebuildFaces expands the polytope by adding a support point:
// it removes every face visible from the point, re-triangulates the
// silhouette with new faces through the point, and falls back to a single
// face covering the closest index if every face would otherwise be
// removed.
func (b *PolytopeBuilder) AddPointAndRebuildFaces(support cso.CSOPoint, closestIndex int) {
	centroid := b.calculateCentroid()

	b.findVisibleFaces(support)

	if len(b.visibleIndices) >= len(b.faces) {
		b.visibleIndices = b.visibleIndices[:0]
		b.visibleIndices = append(b.visibleIndices, closestIndex)
	}

	b.findBoundaryEdges()
	b.removeVisibleFaces()
	b.addBoundaryFaces(support, centroid)

	if len(b.faces) == 0 {
		b.faces = append(b.faces, Face{
			Points:   [3]cso.CSOPoint{support, support, support},
			Normal:   mgl64.Vec3{0, 1, 0},
			Distance: EPAMinFaceDistance,
		})
	}
}

// GetClosestFace returns a pointer to the closest face, or nil if no faces
// exist.
func (b *PolytopeBuilder) GetClosestFace() *Face {
	if len(b.faces) == 0 {
		return nil
	}
	return &b.faces[b.FindClosestFaceIndex()]
}
