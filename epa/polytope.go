package epa

import (
	"sync"

	"github.com/akmonengine/brushwork/gjk"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Face is a triangle of the expanding polytope.
type Face struct {
	Points [3]mgl64.Vec3
	// Normal points away from the polytope.
	Normal mgl64.Vec3
	// Distance from the origin to the plane of the face.
	Distance float64
}

// Edge is a polytope edge, normalized so that A < B lexicographically.
type Edge struct {
	A, B mgl64.Vec3
}

// EdgeEntry counts the visible faces sharing an edge. An edge seen once borders the
// visible region.
type EdgeEntry struct {
	Edge
	Count int
}

// PolytopeBuilder holds the faces of the expanding polytope and the scratch buffers of
// an expansion step.
type PolytopeBuilder struct {
	faces          []Face
	edges          []EdgeEntry
	visibleIndices []int
}

var polytopeBuilderPool = sync.Pool{
	New: func() interface{} {
		return &PolytopeBuilder{
			faces:          make([]Face, 0, polytopeInitialCapacity),
			edges:          make([]EdgeEntry, 0, polytopeInitialCapacity),
			visibleIndices: make([]int, 0, polytopeInitialCapacity),
		}
	},
}

// Reset empties the builder, keeping its buffers.
func (b *PolytopeBuilder) Reset() {
	b.faces = b.faces[:0]
	b.edges = b.edges[:0]
	b.visibleIndices = b.visibleIndices[:0]
}

// Faces returns the current faces.
func (b *PolytopeBuilder) Faces() []Face {
	return b.faces
}

// BuildInitialFaces creates the four faces of the GJK tetrahedron. Faces too close to the
// origin are dropped unless fewer than three would remain.
func (b *PolytopeBuilder) BuildInitialFaces(simplex *gjk.Simplex) error {
	if simplex.Count != 4 {
		return errors.Errorf("invalid simplex count: %d (expected 4)", simplex.Count)
	}

	p0, p1, p2, p3 := simplex.Points[0], simplex.Points[1], simplex.Points[2], simplex.Points[3]
	candidates := [4]Face{
		createFaceOutward(p0, p1, p2, p3),
		createFaceOutward(p0, p2, p3, p1),
		createFaceOutward(p0, p3, p1, p2),
		createFaceOutward(p1, p3, p2, p0),
	}

	for _, face := range candidates {
		if face.Distance >= MinFaceDistance {
			b.faces = append(b.faces, face)
		}
	}
	if len(b.faces) < 3 {
		b.faces = append(b.faces[:0], candidates[:]...)
	}
	return nil
}

// createFaceOutward builds the triangle p0 p1 p2 with its normal pointing away from
// oppositePoint and from the origin.
func createFaceOutward(p0, p1, p2, oppositePoint mgl64.Vec3) Face {
	face := Face{Points: [3]mgl64.Vec3{p0, p1, p2}}

	normal := p1.Sub(p0).Cross(p2.Sub(p0))
	length := normal.Len()
	if length < 1e-8 {
		face.Normal = mgl64.Vec3{0, 0, 1}
		face.Distance = MinFaceDistance
		return face
	}
	normal = normal.Mul(1 / length)

	if normal.Dot(oppositePoint.Sub(p0)) > 0 {
		normal = normal.Mul(-1)
	}

	// the origin may lie on the face, leaving a distance slightly below zero
	distance := p0.Dot(normal)
	if distance < -MinFaceDistance {
		normal = normal.Mul(-1)
		distance = -distance
	}

	face.Normal = snapNormalToAxis(normal)
	face.Distance = max(distance, MinFaceDistance)
	return face
}

// FindClosestFaceIndex returns the index of the face closest to the origin, -1 if there
// is none.
func (b *PolytopeBuilder) FindClosestFaceIndex() int {
	if len(b.faces) == 0 {
		return -1
	}

	closestIndex := 0
	for i := 1; i < len(b.faces); i++ {
		if b.faces[i].Distance < b.faces[closestIndex].Distance {
			closestIndex = i
		}
	}
	return closestIndex
}

func (b *PolytopeBuilder) centroid() mgl64.Vec3 {
	points := lo.Uniq(lo.FlatMap(b.faces, func(f Face, _ int) []mgl64.Vec3 { return f.Points[:] }))

	var sum mgl64.Vec3
	for _, p := range points {
		sum = sum.Add(p)
	}
	if len(points) == 0 {
		return sum
	}
	return sum.Mul(1 / float64(len(points)))
}

// findVisibleFaces collects the faces whose front side sees support.
func (b *PolytopeBuilder) findVisibleFaces(support mgl64.Vec3) {
	b.visibleIndices = b.visibleIndices[:0]
	for i := range b.faces {
		if support.Sub(b.faces[i].Points[0]).Dot(b.faces[i].Normal) > 0 {
			b.visibleIndices = append(b.visibleIndices, i)
		}
	}
}

// findBoundaryEdges counts the edges of the visible faces.
func (b *PolytopeBuilder) findBoundaryEdges() {
	b.edges = b.edges[:0]
	for _, faceIdx := range b.visibleIndices {
		face := &b.faces[faceIdx]
		for i := range 3 {
			edge := normalizeEdge(Edge{face.Points[i], face.Points[(i+1)%3]})
			if k := b.findEdgeIndex(edge); k >= 0 {
				b.edges[k].Count++
			} else {
				b.edges = append(b.edges, EdgeEntry{Edge: edge, Count: 1})
			}
		}
	}
}

func (b *PolytopeBuilder) findEdgeIndex(edge Edge) int {
	for i := range b.edges {
		if b.edges[i].Edge == edge {
			return i
		}
	}
	return -1
}

// removeVisibleFaces removes the visible faces, swapping each with the last face.
// visibleIndices is increasing, so walking it backwards never moves a face still to remove.
func (b *PolytopeBuilder) removeVisibleFaces() {
	for i := len(b.visibleIndices) - 1; i >= 0; i-- {
		idx := b.visibleIndices[i]
		last := len(b.faces) - 1
		b.faces[idx] = b.faces[last]
		b.faces = b.faces[:last]
	}
}

// AddPointAndRebuildFaces expands the polytope to support: the faces support sees are
// replaced by a fan joining their boundary to it.
func (b *PolytopeBuilder) AddPointAndRebuildFaces(support mgl64.Vec3, closestIndex int) {
	centroid := b.centroid()

	b.findVisibleFaces(support)
	if len(b.visibleIndices) == 0 || len(b.visibleIndices) >= len(b.faces) {
		b.visibleIndices = append(b.visibleIndices[:0], closestIndex)
	}

	b.findBoundaryEdges()
	b.removeVisibleFaces()

	for _, edge := range b.edges {
		if edge.Count == 1 {
			b.faces = append(b.faces, createFaceOutward(edge.A, edge.B, support, centroid))
		}
	}

	if len(b.faces) == 0 {
		b.faces = append(b.faces, Face{
			Points:   [3]mgl64.Vec3{support, support, support},
			Normal:   mgl64.Vec3{0, 0, 1},
			Distance: MinFaceDistance,
		})
	}
}

func normalizeEdge(edge Edge) Edge {
	if compareVec3(edge.A, edge.B) > 0 {
		return Edge{edge.B, edge.A}
	}
	return edge
}

// compareVec3 orders vectors lexicographically.
func compareVec3(a, b mgl64.Vec3) int {
	for i := range 3 {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}
