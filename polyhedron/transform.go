package polyhedron

import (
	"github.com/akmonengine/brushwork/geom"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Move is the outcome of a vertex edit.
type Move struct {
	// Result is the rebuilt polyhedron.
	Result *Polyhedron
	// VertexMapping maps every old vertex position that survived the edit to its new
	// position.
	VertexMapping map[mgl64.Vec3]mgl64.Vec3
}

// MoveBoundary translates the plane of face f by the projection of delta onto its normal
// and rebuilds the solid from all face planes. Payloads follow their faces. With
// lockVertices every vertex not on f must survive.
func (p *Polyhedron) MoveBoundary(worldBounds geom.BBox, f FaceID, delta mgl64.Vec3, lockVertices bool) (*Polyhedron, error) {
	if !p.Polyhedron() {
		return nil, errors.Wrapf(ErrInvalid, "cannot move a face of a %s", p.dimension)
	}

	faces := p.Faces()
	planes := make([]geom.Plane, len(faces))
	for i, g := range faces {
		planes[i] = p.FacePlane(g)
		if g == f {
			planes[i] = planes[i].Translate(delta)
		}
	}

	// Build in a larger box so that leaving the world bounds is told apart from an
	// unbounded result.
	scratch := worldBounds.Expand(worldBounds.Size().Len())
	moved, err := NewFromPlanes(scratch, planes)
	if err != nil {
		return nil, err
	}
	if !worldBounds.Contains(moved.Bounds()) {
		return nil, errors.Wrapf(ErrOutOfBounds, "moved face reaches %v", moved.Bounds())
	}

	for _, g := range moved.Faces() {
		moved.SetPayload(g, p.Payload(faces[moved.Payload(g)]))
	}

	if lockVertices {
		onFace := make(map[VertexID]bool)
		for _, v := range p.FaceVertices(f) {
			onFace[v] = true
		}
		for _, v := range p.Vertices() {
			if !onFace[v] && !moved.HasVertex(p.Position(v), geom.AlmostZero) {
				return nil, errors.Wrapf(ErrInvalid, "vertex %v would be removed", p.Position(v))
			}
		}
	}
	return moved, nil
}

// Intersect returns the intersection of two solids. It is empty if they do not overlap.
func (p *Polyhedron) Intersect(other *Polyhedron) *Polyhedron {
	result := p.Clone()
	for _, f := range other.Faces() {
		if result.Clip(other.FacePlane(f)) == ClipEmpty {
			return build(nil, nil, DimensionEmpty)
		}
	}
	return result
}

// CanTransformVertices reports whether the vertices at positions may be moved by
// transform. Moved vertices may disappear into the remaining solid.
func (p *Polyhedron) CanTransformVertices(worldBounds geom.BBox, positions []mgl64.Vec3, transform mgl64.Mat4) bool {
	_, ok := p.canTransformVertices(worldBounds, positions, transform, true)
	return ok
}

// TransformVertices moves the vertices at positions by transform and rebuilds the
// solid.
func (p *Polyhedron) TransformVertices(worldBounds geom.BBox, positions []mgl64.Vec3, transform mgl64.Mat4) (Move, error) {
	if !p.CanTransformVertices(worldBounds, positions, transform) {
		return Move{}, errors.Wrap(ErrInvalid, "illegal vertex move")
	}
	return p.transformVertices(positions, transform), nil
}

// CanTransformEdges reports whether the given edges may be moved by transform. Every
// moved edge must survive.
func (p *Polyhedron) CanTransformEdges(worldBounds geom.BBox, edges []geom.Segment, transform mgl64.Mat4) bool {
	result, ok := p.canTransformVertices(worldBounds, segmentVertices(edges), transform, false)
	if !ok {
		return false
	}
	for _, edge := range edges {
		moved := edge.Transform(transform)
		if !result.HasEdge(moved.Start, moved.End, geom.AlmostZero) {
			return false
		}
	}
	return true
}

// TransformEdges moves the given edges by transform and rebuilds the solid.
func (p *Polyhedron) TransformEdges(worldBounds geom.BBox, edges []geom.Segment, transform mgl64.Mat4) (Move, error) {
	if !p.CanTransformEdges(worldBounds, edges, transform) {
		return Move{}, errors.Wrap(ErrInvalid, "illegal edge move")
	}
	return p.transformVertices(segmentVertices(edges), transform), nil
}

// CanTransformFaces reports whether the given faces may be moved by transform. Every
// moved face must survive with the same loop.
func (p *Polyhedron) CanTransformFaces(worldBounds geom.BBox, faces []geom.Polygon, transform mgl64.Mat4) bool {
	result, ok := p.canTransformVertices(worldBounds, polygonVertices(faces), transform, false)
	if !ok {
		return false
	}
	for _, f := range faces {
		if !result.HasFace(f.Transform(transform).Vertices, geom.AlmostZero) {
			return false
		}
	}
	return true
}

// TransformFaces moves the given faces by transform and rebuilds the solid.
func (p *Polyhedron) TransformFaces(worldBounds geom.BBox, faces []geom.Polygon, transform mgl64.Mat4) (Move, error) {
	if !p.CanTransformFaces(worldBounds, faces, transform) {
		return Move{}, errors.Wrap(ErrInvalid, "illegal face move")
	}
	return p.transformVertices(polygonVertices(faces), transform), nil
}

func segmentVertices(edges []geom.Segment) []mgl64.Vec3 {
	positions := make([]mgl64.Vec3, 0, 2*len(edges))
	for _, edge := range edges {
		positions = append(positions, edge.Start, edge.End)
	}
	return positions
}

func polygonVertices(faces []geom.Polygon) []mgl64.Vec3 {
	var positions []mgl64.Vec3
	for _, f := range faces {
		positions = append(positions, f.Vertices...)
	}
	return positions
}

// canTransformVertices decides whether a move is legal by looking at the moving and the
// remaining vertices as polyhedra of their own:
//
//	remaining:  empty   point   edge    polygon  solid
//	moving
//	point       -       -       -       ok       check
//	edge        -       -       ok      check    check
//	polygon     -       invert  invert  check    check
//	solid       ok      invert  invert  invert   check
//
// "invert" swaps both sets and inverts the transform, "check" rejects a move that sends
// a vertex from below a remaining face through it. The result must be a solid in every
// case. With allowVertexRemoval moved vertices may end up inside the remaining solid.
func (p *Polyhedron) canTransformVertices(worldBounds geom.BBox, positions []mgl64.Vec3, transform mgl64.Mat4, allowVertexRemoval bool) (*Polyhedron, bool) {
	if len(positions) == 0 || geom.IsIdentity(transform, geom.AlmostZero) {
		return nil, false
	}

	moving := make(map[mgl64.Vec3]bool, len(positions))
	for _, position := range positions {
		moving[position] = true
	}

	var remainingPoints, transformedPoints, resultPoints []mgl64.Vec3
	for _, position := range p.VertexPositions() {
		if moving[position] {
			transformedPoints = append(transformedPoints, position)
			resultPoints = append(resultPoints, geom.MulPoint(transform, position))
		} else {
			remainingPoints = append(remainingPoints, position)
			resultPoints = append(resultPoints, position)
		}
	}

	remaining := New(remainingPoints...)
	transformed := New(transformedPoints...)
	result := New(resultPoints...)

	if !worldBounds.Contains(result.Bounds()) {
		return nil, false
	}

	if len(transformedPoints) == p.VertexCount() {
		return result, result.Polyhedron()
	}

	if !allowVertexRemoval {
		for _, position := range transformed.VertexPositions() {
			if !result.HasVertex(geom.MulPoint(transform, position), geom.AlmostZero) {
				return nil, false
			}
		}
	}

	if !result.Polyhedron() {
		return nil, false
	}

	if (transformed.Point() && remaining.Polygon()) || (transformed.Edge() && remaining.Edge()) {
		return result, true
	}

	if remaining.Point() || remaining.Edge() || (remaining.Polygon() && transformed.Polyhedron()) {
		inverted, ok := geom.Invert(transform)
		if !ok {
			return nil, false
		}
		remaining, transformed = transformed, remaining
		transform = inverted
	}

	for _, oldPosition := range transformed.VertexPositions() {
		newPosition := geom.MulPoint(transform, oldPosition)
		direction := newPosition.Sub(oldPosition)
		if direction.Len() == 0 {
			continue
		}
		ray := geom.Ray{Origin: oldPosition, Direction: direction.Normalize()}

		for _, f := range remaining.Faces() {
			if remaining.FacePointStatus(f, oldPosition, PlaneEpsilon) == geom.Below &&
				remaining.FacePointStatus(f, newPosition, PlaneEpsilon) == geom.Above {
				if _, hit := remaining.FaceIntersectWithRay(f, ray, geom.Back); hit {
					return nil, false
				}
			}
		}
	}

	return result, true
}

// transformVertices rebuilds the solid with the vertices at positions moved and relates
// old vertices to new ones within CloseVertexEpsilon.
func (p *Polyhedron) transformVertices(positions []mgl64.Vec3, transform mgl64.Mat4) Move {
	moving := make(map[mgl64.Vec3]bool, len(positions))
	for _, position := range positions {
		moving[position] = true
	}

	target := func(position mgl64.Vec3) mgl64.Vec3 {
		if moving[position] {
			return geom.MulPoint(transform, position)
		}
		return position
	}

	old := p.VertexPositions()
	points := make([]mgl64.Vec3, len(old))
	for i, position := range old {
		points[i] = target(position)
	}
	result := New(points...)

	return Move{Result: result, VertexMapping: relateVertices(p, result, target)}
}

// relateVertices maps each vertex position of left to the vertex of right closest to its
// expected position, if there is one within CloseVertexEpsilon.
func relateVertices(left, right *Polyhedron, target func(mgl64.Vec3) mgl64.Vec3) map[mgl64.Vec3]mgl64.Vec3 {
	mapping := make(map[mgl64.Vec3]mgl64.Vec3, left.VertexCount())
	for _, position := range left.VertexPositions() {
		if v, ok := right.FindClosestVertex(target(position), CloseVertexEpsilon); ok {
			mapping[position] = right.Position(v)
		}
	}
	return mapping
}

// AddVertex returns the hull of p and position. The second result is false if position
// does not become a vertex, because it lies inside p.
func (p *Polyhedron) AddVertex(position mgl64.Vec3) (Move, bool) {
	result := New(append(p.VertexPositions(), position)...)
	move := Move{Result: result, VertexMapping: relateVertices(p, result, identity)}
	return move, result.HasVertex(position, 0)
}

// RemoveVertices returns the hull of the vertices not in positions.
func (p *Polyhedron) RemoveVertices(positions []mgl64.Vec3) Move {
	removed := make(map[mgl64.Vec3]bool, len(positions))
	for _, position := range positions {
		removed[position] = true
	}
	var points []mgl64.Vec3
	for _, position := range p.VertexPositions() {
		if !removed[position] {
			points = append(points, position)
		}
	}
	result := New(points...)
	return Move{Result: result, VertexMapping: relateVertices(p, result, identity)}
}

// SnapVertices returns the hull of the vertices rounded to the nearest multiple of grid.
func (p *Polyhedron) SnapVertices(grid float64) Move {
	snap := func(position mgl64.Vec3) mgl64.Vec3 { return geom.Snap(position, grid) }
	old := p.VertexPositions()
	points := make([]mgl64.Vec3, len(old))
	for i, position := range old {
		points[i] = snap(position)
	}
	result := New(points...)

	mapping := make(map[mgl64.Vec3]mgl64.Vec3, len(old))
	for _, position := range old {
		if destination := snap(position); result.HasVertex(destination, 0) {
			mapping[position] = destination
		}
	}
	return Move{Result: result, VertexMapping: mapping}
}

func identity(position mgl64.Vec3) mgl64.Vec3 {
	return position
}
