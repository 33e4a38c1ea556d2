package shape

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Box is an axis-aligned-in-local-space oriented box: the reference
// ConvexPolyhedron implementation exercising every C1 capability the
// manifold generator needs.
type Box struct {
	HalfExtents mgl64.Vec3
}

var (
	boxFaceNormals = [6]mgl64.Vec3{
		{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1},
	}
	// boxVertexSign[v] gives the +/-1 sign pattern of vertex v's local
	// coordinates relative to HalfExtents.
	boxVertexSign = [8]mgl64.Vec3{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	}
	boxFaceVerts = [6][4]uint32{
		{1, 2, 6, 5}, // +X
		{0, 4, 7, 3}, // -X
		{3, 7, 6, 2}, // +Y
		{0, 1, 5, 4}, // -Y
		{4, 5, 6, 7}, // +Z
		{0, 3, 2, 1}, // -Z
	}
	boxEdgeVerts = [12][2]uint32{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	boxEdgeFaces = [12][2]uint32{
		{3, 5}, {0, 5}, {2, 5}, {1, 5},
		{3, 4}, {0, 4}, {2, 4}, {1, 4},
		{1, 3}, {0, 3}, {0, 2}, {1, 2},
	}
	boxVertexFaces = [8][3]uint32{
		{1, 3, 5}, {0, 3, 5}, {0, 2, 5}, {1, 2, 5},
		{1, 3, 4}, {0, 3, 4}, {0, 2, 4}, {1, 2, 4},
	}

	boxEdgeOfFaces   map[[2]uint32]uint32
	boxVertexOfFaces map[[3]uint32]uint32
	boxTablesOnce    sync.Once
)

func boxBuildTables() {
	boxEdgeOfFaces = make(map[[2]uint32]uint32, 12)
	for e, fs := range boxEdgeFaces {
		a, b := fs[0], fs[1]
		if a > b {
			a, b = b, a
		}
		boxEdgeOfFaces[[2]uint32{a, b}] = uint32(e)
	}
	boxVertexOfFaces = make(map[[3]uint32]uint32, 8)
	for v, fs := range boxVertexFaces {
		key := fs
		// insertion sort, 3 elements
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		if key[1] > key[2] {
			key[1], key[2] = key[2], key[1]
		}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		boxVertexOfFaces[key] = uint32(v)
	}
}

func (b *Box) localVertex(i uint32) mgl64.Vec3 {
	s := boxVertexSign[i]
	return mgl64.Vec3{s.X() * b.HalfExtents.X(), s.Y() * b.HalfExtents.Y(), s.Z() * b.HalfExtents.Z()}
}

// SupportPoint returns the box corner farthest along dir.
func (b *Box) SupportPoint(m Isometry, dir mgl64.Vec3) mgl64.Vec3 {
	local := m.InverseTransformVector(dir)
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()
	if local.X() < 0 {
		hx = -hx
	}
	if local.Y() < 0 {
		hy = -hy
	}
	if local.Z() < 0 {
		hz = -hz
	}
	return m.TransformPoint(mgl64.Vec3{hx, hy, hz})
}

func (b *Box) NVertices() int { return 8 }
func (b *Box) NEdges() int    { return 12 }
func (b *Box) NFaces() int    { return 6 }

func (b *Box) Vertex(id FeatureId) mgl64.Vec3 {
	return b.localVertex(id.Idx)
}

func (b *Box) Edge(id FeatureId) (a, bb mgl64.Vec3) {
	ev := boxEdgeVerts[id.Idx]
	return b.localVertex(ev[0]), b.localVertex(ev[1])
}

func (b *Box) Face(id FeatureId, feature *ConvexPolygonalFeature) {
	feature.Clear()
	fv := boxFaceVerts[id.Idx]
	normal := boxFaceNormals[id.Idx]
	feature.Normal = normal
	feature.FeatureId = id
	for i := 0; i < 4; i++ {
		feature.Push(b.localVertex(fv[i]), Vertex(fv[i]))
	}
	for i := 0; i < 4; i++ {
		a := fv[i]
		bIdx := fv[(i+1)%4]
		eid := boxEdgeIdFor(a, bIdx)
		edge := b.localVertex(bIdx).Sub(b.localVertex(a))
		outward := edge.Cross(normal).Normalize()
		feature.PushEdgeNormal(outward, Edge(eid))
	}
}

func boxEdgeIdFor(a, bIdx uint32) uint32 {
	for e, ev := range boxEdgeVerts {
		if (ev[0] == a && ev[1] == bIdx) || (ev[0] == bIdx && ev[1] == a) {
			return uint32(e)
		}
	}
	return 0
}

func (b *Box) NormalCone(id FeatureId) PolyhedralCone {
	boxTablesOnce.Do(boxBuildTables)
	switch id.Kind {
	case FeatureFace:
		return PolyhedralCone{Generators: []mgl64.Vec3{boxFaceNormals[id.Idx]}}
	case FeatureEdge:
		fs := boxEdgeFaces[id.Idx]
		return PolyhedralCone{Generators: []mgl64.Vec3{boxFaceNormals[fs[0]], boxFaceNormals[fs[1]]}}
	case FeatureVertex:
		fs := boxVertexFaces[id.Idx]
		return PolyhedralCone{Generators: []mgl64.Vec3{boxFaceNormals[fs[0]], boxFaceNormals[fs[1]], boxFaceNormals[fs[2]]}}
	default:
		return PolyhedralCone{}
	}
}

func (b *Box) IsDirectionInNormalCone(m Isometry, id FeatureId, dir mgl64.Vec3) bool {
	local := m.InverseTransformVector(dir).Normalize()
	return b.NormalCone(id).Contains(local, 1e-6)
}

// SupportFaceToward populates feature with the box's face whose normal
// best aligns with dir (world space).
func (b *Box) SupportFaceToward(m Isometry, dir mgl64.Vec3, feature *ConvexPolygonalFeature) {
	local := m.InverseTransformVector(dir)
	best, bestDot := 0, math.Inf(-1)
	for i, n := range boxFaceNormals {
		d := n.Dot(local)
		if d > bestDot {
			bestDot, best = d, i
		}
	}
	b.Face(Face(uint32(best)), feature)
	b.toWorld(m, feature)
}

// SupportFeatureToward classifies dir against the box's face normal cones
// within the given angular tolerance (radians), returning a face, edge, or
// vertex feature depending on how many axes are comparably dominant.
func (b *Box) SupportFeatureToward(m Isometry, dir mgl64.Vec3, angle float64, feature *ConvexPolygonalFeature) {
	local := m.InverseTransformVector(dir).Normalize()
	absd := mgl64.Vec3{math.Abs(local.X()), math.Abs(local.Y()), math.Abs(local.Z())}
	maxComp := math.Max(absd.X(), math.Max(absd.Y(), absd.Z()))
	sinAngle := math.Sin(angle)

	var faces []uint32
	for axis := 0; axis < 3; axis++ {
		if maxComp-absd[axis] <= sinAngle*maxComp+1e-12 {
			sign := uint32(0)
			if local[axis] < 0 {
				sign = 1
			}
			faces = append(faces, boxAxisFace(axis, sign))
		}
	}

	switch len(faces) {
	case 1:
		b.Face(Face(faces[0]), feature)
		b.toWorld(m, feature)
	case 2:
		boxTablesOnce.Do(boxBuildTables)
		a, bF := faces[0], faces[1]
		if a > bF {
			a, bF = bF, a
		}
		eid, ok := boxEdgeOfFaces[[2]uint32{a, bF}]
		if !ok {
			b.Face(Face(faces[0]), feature)
			b.toWorld(m, feature)
			return
		}
		feature.Clear()
		feature.FeatureId = Edge(eid)
		p0, p1 := b.Edge(Edge(eid))
		feature.Push(p0, boxEdgeVertexId(eid, 0))
		feature.Push(p1, boxEdgeVertexId(eid, 1))
		feature.Normal = local
		b.toWorld(m, feature)
	default:
		boxTablesOnce.Do(boxBuildTables)
		key := [3]uint32{}
		copy(key[:], faces[:3])
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		if key[1] > key[2] {
			key[1], key[2] = key[2], key[1]
		}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		vid, ok := boxVertexOfFaces[key]
		if !ok {
			b.Face(Face(faces[0]), feature)
			b.toWorld(m, feature)
			return
		}
		feature.Clear()
		feature.FeatureId = Vertex(vid)
		feature.Push(b.localVertex(vid), Vertex(vid))
		feature.Normal = local
		b.toWorld(m, feature)
	}
}

func boxAxisFace(axis int, negSign uint32) uint32 {
	// face order: 0:+X 1:-X 2:+Y 3:-Y 4:+Z 5:-Z
	base := uint32(axis * 2)
	return base + negSign
}

func boxEdgeVertexId(eid uint32, which int) FeatureId {
	return Vertex(boxEdgeVerts[eid][which])
}

func (b *Box) toWorld(m Isometry, feature *ConvexPolygonalFeature) {
	for i := range feature.Vertices {
		feature.Vertices[i] = m.TransformPoint(feature.Vertices[i])
	}
	for i := range feature.EdgeNormals {
		feature.EdgeNormals[i] = m.TransformVector(feature.EdgeNormals[i])
	}
	feature.Normal = m.TransformVector(feature.Normal).Normalize()
}

// ComputeAABB returns the world-space AABB of the box under m.
func (b *Box) ComputeAABB(m Isometry) (min, max mgl64.Vec3) {
	first := m.TransformPoint(b.localVertex(0))
	min, max = first, first
	for i := uint32(1); i < 8; i++ {
		p := m.TransformPoint(b.localVertex(i))
		for axis := 0; axis < 3; axis++ {
			if p[axis] < min[axis] {
				min[axis] = p[axis]
			}
			if p[axis] > max[axis] {
				max[axis] = p[axis]
			}
		}
	}
	return min, max
}

// ComputeMass returns mass = density * volume.
func (b *Box) ComputeMass(density float64) float64 {
	return density * 8.0 * b.HalfExtents.X() * b.HalfExtents.Y() * b.HalfExtents.Z()
}

// ComputeInertia returns the box's local inertia tensor for the given mass.
func (b *Box) ComputeInertia(mass float64) mgl64.Mat3 {
	x := b.HalfExtents.X() * 2
	y := b.HalfExtents.Y() * 2
	z := b.HalfExtents.Z() * 2
	factor := mass / 12.0
	return mgl64.Mat3{
		factor * (y*y + z*z), 0, 0,
		0, factor * (x*x + z*z), 0,
		0, 0, factor * (x*x + y*y),
	}
}
