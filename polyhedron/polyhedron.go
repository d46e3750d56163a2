// Package polyhedron implements a convex half-edge boundary representation.
//
// A Polyhedron is built from a point cloud (its convex hull) or from a sequence of
// half-spaces, and every edit rebuilds it from positions: vertex, edge and face moves,
// boundary moves, clipping and subtraction all go through the hull builder, which merges
// near-identical vertices, drops vertices in the middle of an edge and merges coplanar
// faces. Vertices, half-edges and faces live in arenas and are addressed by
// generation-checked ids; resolving an id on a polyhedron it does not belong to panics.
//
// Polyhedra are values: edits return a new polyhedron and leave the receiver untouched,
// except Clip which replaces the receiver's content on success.
package polyhedron

import (
	"math"

	"github.com/akmonengine/brushwork/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// Tunables. They are read on every call; change them before any concurrent use.
var (
	// MergeEpsilon is the distance under which two input points are merged into one vertex.
	MergeEpsilon = geom.PointStatusEpsilon

	// PlaneEpsilon is the plane thickness used by the hull builder, clipping and the move
	// checks.
	PlaneEpsilon = geom.PointStatusEpsilon

	// CloseVertexEpsilon is the search radius used to relate vertices before and after a
	// vertex move.
	CloseVertexEpsilon = 0.01
)

// NoPayload marks a face that carries no payload.
const NoPayload = -1

// Dimension is the degree of a polyhedron.
type Dimension int

const (
	DimensionEmpty Dimension = iota
	DimensionPoint
	DimensionEdge
	DimensionPolygon
	DimensionPolyhedron
)

func (d Dimension) String() string {
	switch d {
	case DimensionEmpty:
		return "empty"
	case DimensionPoint:
		return "point"
	case DimensionEdge:
		return "edge"
	case DimensionPolygon:
		return "polygon"
	case DimensionPolyhedron:
		return "polyhedron"
	}
	return "unknown"
}

type vertex struct {
	position mgl64.Vec3
	leaving  HalfEdgeID
}

type halfEdge struct {
	origin VertexID
	twin   HalfEdgeID
	next   HalfEdgeID
	prev   HalfEdgeID
	face   FaceID
}

type face struct {
	boundary HalfEdgeID
	count    int
	plane    geom.Plane
	payload  int
}

// Polyhedron is a convex solid, polygon, segment, point or nothing.
type Polyhedron struct {
	dimension Dimension
	vertices  arena[vertex]
	halfEdges arena[halfEdge]
	faces     arena[face]
	bounds    geom.BBox
}

// New returns the convex hull of points.
func New(points ...mgl64.Vec3) *Polyhedron {
	h := convexHull(points, MergeEpsilon, PlaneEpsilon)
	return build(h.positions, h.loops, h.dimension)
}

// NewCuboid returns the polyhedron of a box.
func NewCuboid(bounds geom.BBox) *Polyhedron {
	corners := bounds.Vertices()
	return New(corners[:]...)
}

// build assembles the half-edge graph from positions and face loops given as position
// indices. Loops wind counterclockwise about the outward normal; for a solid every
// directed edge must have its reverse in another loop.
func build(positions []mgl64.Vec3, loops [][]int, dimension Dimension) *Polyhedron {
	generation := nextGeneration()
	edgeCount := 0
	for _, loop := range loops {
		edgeCount += len(loop)
	}

	p := &Polyhedron{
		dimension: dimension,
		vertices:  newArena[vertex](generation, len(positions)),
		halfEdges: newArena[halfEdge](generation, edgeCount+2),
		faces:     newArena[face](generation, len(loops)),
		bounds:    geom.BBoxFromPoints(positions),
	}

	vertexIDs := make([]VertexID, len(positions))
	for i, position := range positions {
		vertexIDs[i] = VertexID{p.vertices.add(vertex{position: position})}
	}

	if dimension == DimensionEdge && len(positions) == 2 {
		first := HalfEdgeID{p.halfEdges.add(halfEdge{origin: vertexIDs[0]})}
		second := HalfEdgeID{p.halfEdges.add(halfEdge{origin: vertexIDs[1]})}
		p.halfEdge(first).twin, p.halfEdge(second).twin = second, first
		p.halfEdge(first).next, p.halfEdge(first).prev = second, second
		p.halfEdge(second).next, p.halfEdge(second).prev = first, first
		p.vertex(vertexIDs[0]).leaving = first
		p.vertex(vertexIDs[1]).leaving = second
		return p
	}

	directed := make(map[[2]int]HalfEdgeID, edgeCount)
	for _, loop := range loops {
		faceID := FaceID{p.faces.add(face{count: len(loop), payload: NoPayload})}
		ids := make([]HalfEdgeID, len(loop))
		for i, index := range loop {
			ids[i] = HalfEdgeID{p.halfEdges.add(halfEdge{origin: vertexIDs[index], face: faceID})}
			directed[[2]int{index, loop[(i+1)%len(loop)]}] = ids[i]
			if !p.vertex(vertexIDs[index]).leaving.Valid() {
				p.vertex(vertexIDs[index]).leaving = ids[i]
			}
		}
		for i, id := range ids {
			he := p.halfEdge(id)
			he.next = ids[(i+1)%len(ids)]
			he.prev = ids[(i+len(ids)-1)%len(ids)]
		}

		f := p.face(faceID)
		f.boundary = ids[0]
		polygon := make([]mgl64.Vec3, len(loop))
		for i, index := range loop {
			polygon[i] = positions[index]
		}
		f.plane = loopPlane(polygon)
	}

	for key, id := range directed {
		if twin, ok := directed[[2]int{key[1], key[0]}]; ok {
			p.halfEdge(id).twin = twin
		}
	}

	return p
}

func loopPlane(loop []mgl64.Vec3) geom.Plane {
	polygon := geom.Polygon{Vertices: loop}
	return geom.NewPlane(polygon.Normal(), polygon.Center())
}

func (p *Polyhedron) vertex(id VertexID) *vertex {
	return p.vertices.at(id.handle)
}

func (p *Polyhedron) halfEdge(id HalfEdgeID) *halfEdge {
	return p.halfEdges.at(id.handle)
}

func (p *Polyhedron) face(id FaceID) *face {
	return p.faces.at(id.handle)
}

// Clone returns a deep copy. Ids of p remain valid on the copy.
func (p *Polyhedron) Clone() *Polyhedron {
	return &Polyhedron{
		dimension: p.dimension,
		vertices:  p.vertices.clone(),
		halfEdges: p.halfEdges.clone(),
		faces:     p.faces.clone(),
		bounds:    p.bounds,
	}
}

func (p *Polyhedron) Dimension() Dimension { return p.dimension }
func (p *Polyhedron) Empty() bool          { return p.dimension == DimensionEmpty }
func (p *Polyhedron) Point() bool          { return p.dimension == DimensionPoint }
func (p *Polyhedron) Edge() bool           { return p.dimension == DimensionEdge }
func (p *Polyhedron) Polygon() bool        { return p.dimension == DimensionPolygon }
func (p *Polyhedron) Polyhedron() bool     { return p.dimension == DimensionPolyhedron }

// Closed reports whether every half-edge has a twin. Only solids are closed.
func (p *Polyhedron) Closed() bool {
	if p.dimension != DimensionPolyhedron {
		return false
	}
	for i := 0; i < p.halfEdges.len(); i++ {
		if !p.halfEdges.items[i].twin.Valid() {
			return false
		}
	}
	return true
}

// Bounds returns the bounding box of the vertices.
func (p *Polyhedron) Bounds() geom.BBox {
	return p.bounds
}

func (p *Polyhedron) VertexCount() int {
	return p.vertices.len()
}

// EdgeCount returns the number of full edges. A polygon's boundary counts once.
func (p *Polyhedron) EdgeCount() int {
	switch p.dimension {
	case DimensionEdge:
		return 1
	case DimensionPolygon:
		return p.halfEdges.len()
	case DimensionPolyhedron:
		return p.halfEdges.len() / 2
	}
	return 0
}

func (p *Polyhedron) FaceCount() int {
	return p.faces.len()
}

// Vertices returns the ids of all vertices.
func (p *Polyhedron) Vertices() []VertexID {
	ids := make([]VertexID, p.vertices.len())
	for i := range ids {
		ids[i] = VertexID{p.vertices.handleAt(i)}
	}
	return ids
}

// VertexPositions returns the positions of all vertices in vertex order.
func (p *Polyhedron) VertexPositions() []mgl64.Vec3 {
	positions := make([]mgl64.Vec3, p.vertices.len())
	for i := range positions {
		positions[i] = p.vertices.items[i].position
	}
	return positions
}

// Position returns the position of a vertex.
func (p *Polyhedron) Position(v VertexID) mgl64.Vec3 {
	return p.vertex(v).position
}

// Edges returns one half-edge per full edge.
func (p *Polyhedron) Edges() []HalfEdgeID {
	ids := make([]HalfEdgeID, 0, p.EdgeCount())
	for i := 0; i < p.halfEdges.len(); i++ {
		twin := p.halfEdges.items[i].twin
		if !twin.Valid() || int(twin.index) > i {
			ids = append(ids, HalfEdgeID{p.halfEdges.handleAt(i)})
		}
	}
	return ids
}

// Origin returns the vertex a half-edge leaves.
func (p *Polyhedron) Origin(h HalfEdgeID) VertexID {
	return p.halfEdge(h).origin
}

// Destination returns the vertex a half-edge arrives at.
func (p *Polyhedron) Destination(h HalfEdgeID) VertexID {
	return p.halfEdge(p.halfEdge(h).next).origin
}

// Twin returns the opposite half-edge. It is invalid on a polygon's boundary.
func (p *Polyhedron) Twin(h HalfEdgeID) HalfEdgeID {
	return p.halfEdge(h).twin
}

// Next returns the following half-edge around the face.
func (p *Polyhedron) Next(h HalfEdgeID) HalfEdgeID {
	return p.halfEdge(h).next
}

// Previous returns the preceding half-edge around the face.
func (p *Polyhedron) Previous(h HalfEdgeID) HalfEdgeID {
	return p.halfEdge(h).prev
}

// HalfEdgeFace returns the face a half-edge bounds.
func (p *Polyhedron) HalfEdgeFace(h HalfEdgeID) FaceID {
	return p.halfEdge(h).face
}

// EdgeSegment returns the segment of an edge with ordered endpoints.
func (p *Polyhedron) EdgeSegment(h HalfEdgeID) geom.Segment {
	return geom.NewSegment(p.Position(p.Origin(h)), p.Position(p.Destination(h)))
}

// EdgeSegments returns the segments of all edges.
func (p *Polyhedron) EdgeSegments() []geom.Segment {
	edges := p.Edges()
	segments := make([]geom.Segment, len(edges))
	for i, h := range edges {
		segments[i] = p.EdgeSegment(h)
	}
	return segments
}

// Faces returns the ids of all faces.
func (p *Polyhedron) Faces() []FaceID {
	ids := make([]FaceID, p.faces.len())
	for i := range ids {
		ids[i] = FaceID{p.faces.handleAt(i)}
	}
	return ids
}

// Boundary returns the first half-edge of a face loop.
func (p *Polyhedron) Boundary(f FaceID) HalfEdgeID {
	return p.face(f).boundary
}

// FaceHalfEdges returns the half-edges of a face in winding order.
func (p *Polyhedron) FaceHalfEdges(f FaceID) []HalfEdgeID {
	fc := p.face(f)
	ids := make([]HalfEdgeID, 0, fc.count)
	h := fc.boundary
	for i := 0; i < fc.count; i++ {
		ids = append(ids, h)
		h = p.halfEdge(h).next
	}
	return ids
}

// FaceVertices returns the vertices of a face in winding order.
func (p *Polyhedron) FaceVertices(f FaceID) []VertexID {
	edges := p.FaceHalfEdges(f)
	ids := make([]VertexID, len(edges))
	for i, h := range edges {
		ids[i] = p.halfEdge(h).origin
	}
	return ids
}

// FacePositions returns the vertex positions of a face in winding order.
func (p *Polyhedron) FacePositions(f FaceID) []mgl64.Vec3 {
	edges := p.FaceHalfEdges(f)
	positions := make([]mgl64.Vec3, len(edges))
	for i, h := range edges {
		positions[i] = p.vertex(p.halfEdge(h).origin).position
	}
	return positions
}

// FacePolygon returns the loop of a face as a polygon.
func (p *Polyhedron) FacePolygon(f FaceID) geom.Polygon {
	return geom.Polygon{Vertices: p.FacePositions(f)}
}

// FacePlane returns the outward plane of a face.
func (p *Polyhedron) FacePlane(f FaceID) geom.Plane {
	return p.face(f).plane
}

// FaceNormal returns the outward normal of a face.
func (p *Polyhedron) FaceNormal(f FaceID) mgl64.Vec3 {
	return p.face(f).plane.Normal
}

// FaceCenter returns the average of the face's vertices.
func (p *Polyhedron) FaceCenter(f FaceID) mgl64.Vec3 {
	return p.FacePolygon(f).Center()
}

// FaceArea returns the area of a face.
func (p *Polyhedron) FaceArea(f FaceID) float64 {
	return p.FacePolygon(f).Area()
}

// FaceVertexCount returns the length of a face loop.
func (p *Polyhedron) FaceVertexCount(f FaceID) int {
	return p.face(f).count
}

// Payload returns the payload of a face, or NoPayload.
func (p *Polyhedron) Payload(f FaceID) int {
	return p.face(f).payload
}

// SetPayload attaches a payload to a face.
func (p *Polyhedron) SetPayload(f FaceID, payload int) {
	p.face(f).payload = payload
}

// IncidentFaces returns the faces around a vertex in order. On a polygon this is its
// only face.
func (p *Polyhedron) IncidentFaces(v VertexID) []FaceID {
	first := p.vertex(v).leaving
	if !first.Valid() || p.dimension < DimensionPolygon {
		return nil
	}
	if p.dimension == DimensionPolygon {
		return []FaceID{p.halfEdge(first).face}
	}

	var faces []FaceID
	h := first
	for {
		faces = append(faces, p.halfEdge(h).face)
		h = p.halfEdge(p.halfEdge(h).prev).twin
		if !h.Valid() || h == first || len(faces) > p.faces.len() {
			break
		}
	}
	return faces
}

// Volume returns the enclosed volume of a solid, zero otherwise.
func (p *Polyhedron) Volume() float64 {
	if p.dimension != DimensionPolyhedron {
		return 0
	}
	volume := 0.0
	for _, f := range p.Faces() {
		positions := p.FacePositions(f)
		for i := 1; i+1 < len(positions); i++ {
			volume += positions[0].Dot(positions[i].Cross(positions[i+1]))
		}
	}
	return volume / 6
}

// Center returns the average of the vertices.
func (p *Polyhedron) Center() mgl64.Vec3 {
	var sum mgl64.Vec3
	for i := range p.vertices.items {
		sum = sum.Add(p.vertices.items[i].position)
	}
	if p.vertices.len() == 0 {
		return sum
	}
	return sum.Mul(1 / float64(p.vertices.len()))
}

// Support returns the vertex furthest along direction.
func (p *Polyhedron) Support(direction mgl64.Vec3) mgl64.Vec3 {
	var best mgl64.Vec3
	bestDot := 0.0
	for i := range p.vertices.items {
		position := p.vertices.items[i].position
		if d := position.Dot(direction); i == 0 || d > bestDot {
			best, bestDot = position, d
		}
	}
	return best
}

// Heal rebuilds the polyhedron from its vertex positions, merging what the hull builder
// merges. Face payloads survive on faces whose plane is unchanged. Healing a healed
// polyhedron yields the same vertices, edges and faces.
func (p *Polyhedron) Heal() *Polyhedron {
	healed := New(p.VertexPositions()...)
	healed.copyPayloadsFrom(p)
	return healed
}

// copyPayloadsFrom gives each face of p the payload of the first face of other on the
// same plane, if any.
func (p *Polyhedron) copyPayloadsFrom(other *Polyhedron) {
	index := newPlaneIndex(geom.AlmostZero)
	for i, g := range other.Faces() {
		if other.Payload(g) != NoPayload {
			index.insert(other.FacePlane(g), i, other.Payload(g))
		}
	}
	for _, f := range p.Faces() {
		if payload, ok := index.find(p.FacePlane(f)); ok {
			p.SetPayload(f, payload)
		}
	}
}

type planeKey [4]int

type indexedPlane struct {
	plane   geom.Plane
	order   int
	payload int
}

// planeIndex buckets planes by their normal and distance so that the planes within
// epsilon of a query are found in the neighbouring buckets.
type planeIndex struct {
	epsilon float64
	buckets map[planeKey][]indexedPlane
}

func newPlaneIndex(epsilon float64) planeIndex {
	return planeIndex{epsilon: epsilon, buckets: make(map[planeKey][]indexedPlane)}
}

func (x planeIndex) key(plane geom.Plane) planeKey {
	return planeKey{
		int(math.Floor(plane.Normal[0] / x.epsilon)),
		int(math.Floor(plane.Normal[1] / x.epsilon)),
		int(math.Floor(plane.Normal[2] / x.epsilon)),
		int(math.Floor(plane.Distance / x.epsilon)),
	}
}

func (x planeIndex) insert(plane geom.Plane, order, payload int) {
	k := x.key(plane)
	x.buckets[k] = append(x.buckets[k], indexedPlane{plane: plane, order: order, payload: payload})
}

// find returns the payload of the earliest inserted plane approximately equal to plane.
func (x planeIndex) find(plane geom.Plane) (int, bool) {
	center := x.key(plane)
	best := indexedPlane{order: -1}
	var k planeKey
	for k[0] = center[0] - 1; k[0] <= center[0]+1; k[0]++ {
		for k[1] = center[1] - 1; k[1] <= center[1]+1; k[1]++ {
			for k[2] = center[2] - 1; k[2] <= center[2]+1; k[2]++ {
				for k[3] = center[3] - 1; k[3] <= center[3]+1; k[3]++ {
					for _, candidate := range x.buckets[k] {
						if (best.order < 0 || candidate.order < best.order) && candidate.plane.ApproxEqual(plane, x.epsilon) {
							best = candidate
						}
					}
				}
			}
		}
	}
	return best.payload, best.order >= 0
}
