package polyhedron

import (
	"math"

	"github.com/akmonengine/brushwork/geom"
	"github.com/akmonengine/brushwork/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

var _ gjk.Shape = (*Polyhedron)(nil)

// HasVertex reports whether a vertex lies within epsilon of position.
func (p *Polyhedron) HasVertex(position mgl64.Vec3, epsilon float64) bool {
	_, ok := p.FindVertexByPosition(position, epsilon)
	return ok
}

// HasVertices reports whether every position is a vertex.
func (p *Polyhedron) HasVertices(positions []mgl64.Vec3, epsilon float64) bool {
	for _, position := range positions {
		if !p.HasVertex(position, epsilon) {
			return false
		}
	}
	return true
}

// FindVertexByPosition returns the first vertex within epsilon of position.
func (p *Polyhedron) FindVertexByPosition(position mgl64.Vec3, epsilon float64) (VertexID, bool) {
	for i := range p.vertices.items {
		if geom.VecEqual(p.vertices.items[i].position, position, epsilon) {
			return VertexID{p.vertices.handleAt(i)}, true
		}
	}
	return VertexID{}, false
}

// FindClosestVertex returns the vertex nearest to position, if it is at most
// maxDistance away.
func (p *Polyhedron) FindClosestVertex(position mgl64.Vec3, maxDistance float64) (VertexID, bool) {
	best, bestDistance := -1, maxDistance*maxDistance
	for i := range p.vertices.items {
		if d := geom.SquaredDistance(p.vertices.items[i].position, position); d <= bestDistance {
			best, bestDistance = i, d
		}
	}
	if best < 0 {
		return VertexID{}, false
	}
	return VertexID{p.vertices.handleAt(best)}, true
}

// HasEdge reports whether an edge joins two vertices at the given positions, in either
// direction.
func (p *Polyhedron) HasEdge(start, end mgl64.Vec3, epsilon float64) bool {
	_, ok := p.FindEdgeByPositions(start, end, epsilon)
	return ok
}

// FindEdgeByPositions returns the half-edge from start to end, or its twin if only the
// reverse exists.
func (p *Polyhedron) FindEdgeByPositions(start, end mgl64.Vec3, epsilon float64) (HalfEdgeID, bool) {
	var reverse HalfEdgeID
	for i := 0; i < p.halfEdges.len(); i++ {
		id := HalfEdgeID{p.halfEdges.handleAt(i)}
		origin := p.Position(p.Origin(id))
		destination := p.Position(p.Destination(id))
		if geom.VecEqual(origin, start, epsilon) && geom.VecEqual(destination, end, epsilon) {
			return id, true
		}
		if !reverse.Valid() && geom.VecEqual(origin, end, epsilon) && geom.VecEqual(destination, start, epsilon) {
			reverse = id
		}
	}
	return reverse, reverse.Valid()
}

// FindClosestEdge returns the edge whose endpoints are nearest to start and end, if
// both are at most maxDistance away.
func (p *Polyhedron) FindClosestEdge(start, end mgl64.Vec3, maxDistance float64) (HalfEdgeID, bool) {
	var best HalfEdgeID
	bestDistance := maxDistance
	for _, id := range p.Edges() {
		origin := p.Position(p.Origin(id))
		destination := p.Position(p.Destination(id))
		forward := math.Max(origin.Sub(start).Len(), destination.Sub(end).Len())
		backward := math.Max(origin.Sub(end).Len(), destination.Sub(start).Len())
		if d := math.Min(forward, backward); d <= bestDistance {
			best, bestDistance = id, d
		}
	}
	return best, best.Valid()
}

// HasFace reports whether a face has the given loop, up to a cyclic shift. The winding
// must match.
func (p *Polyhedron) HasFace(positions []mgl64.Vec3, epsilon float64) bool {
	_, ok := p.FindFace(positions, epsilon)
	return ok
}

// FindFace returns the face with the given loop, up to a cyclic shift.
func (p *Polyhedron) FindFace(positions []mgl64.Vec3, epsilon float64) (FaceID, bool) {
	want := geom.Polygon{Vertices: positions}
	for _, f := range p.Faces() {
		if p.FacePolygon(f).ApproxEqual(want, epsilon) {
			return f, true
		}
	}
	return FaceID{}, false
}

// FindClosestFace returns the face whose loop is nearest to positions, measured as the
// largest vertex distance over the best cyclic alignment, if it is at most maxDistance.
func (p *Polyhedron) FindClosestFace(positions []mgl64.Vec3, maxDistance float64) (FaceID, bool) {
	var best FaceID
	bestDistance := maxDistance
	for _, f := range p.Faces() {
		loop := p.FacePositions(f)
		if len(loop) != len(positions) {
			continue
		}
		for shift := range loop {
			d := 0.0
			for i := range positions {
				d = math.Max(d, loop[(i+shift)%len(loop)].Sub(positions[i]).Len())
			}
			if d <= bestDistance {
				best, bestDistance = f, d
			}
		}
	}
	return best, best.Valid()
}

// ContainsPoint reports whether point is inside or on the boundary of a solid.
func (p *Polyhedron) ContainsPoint(point mgl64.Vec3) bool {
	if p.dimension != DimensionPolyhedron || !p.bounds.Expand(PlaneEpsilon).ContainsPoint(point) {
		return false
	}
	for i := range p.faces.items {
		if p.faces.items[i].plane.PointStatus(point, PlaneEpsilon) == geom.Above {
			return false
		}
	}
	return true
}

// Contains reports whether every vertex of other lies inside p.
func (p *Polyhedron) Contains(other *Polyhedron) bool {
	if !p.bounds.Expand(PlaneEpsilon).Contains(other.bounds) {
		return false
	}
	for _, position := range other.VertexPositions() {
		if !p.ContainsPoint(position) {
			return false
		}
	}
	return true
}

// Intersects reports whether the interiors of two solids overlap.
func (p *Polyhedron) Intersects(other *Polyhedron) bool {
	if p.dimension != DimensionPolyhedron || other.dimension != DimensionPolyhedron {
		return false
	}
	if !p.bounds.Overlaps(other.bounds) {
		return false
	}
	return gjk.Intersects(p, other)
}

// FaceIntersectWithRay returns the distance along ray at which it hits face f from the
// given side, if it does.
func (p *Polyhedron) FaceIntersectWithRay(f FaceID, ray geom.Ray, side geom.Side) (float64, bool) {
	plane := p.FacePlane(f)
	cos := ray.Direction.Dot(plane.Normal)
	switch side {
	case geom.Front:
		if cos >= 0 {
			return 0, false
		}
	case geom.Back:
		if cos <= 0 {
			return 0, false
		}
	}

	distance, ok := plane.IntersectRay(ray)
	if !ok {
		return 0, false
	}
	if !p.FacePolygon(f).ContainsPoint(ray.PointAt(distance), plane.Normal, geom.AlmostZero) {
		return 0, false
	}
	return distance, true
}

// FacePointStatus classifies point against the plane of face f.
func (p *Polyhedron) FacePointStatus(f FaceID, point mgl64.Vec3, epsilon float64) geom.PlaneStatus {
	return p.FacePlane(f).PointStatus(point, epsilon)
}
