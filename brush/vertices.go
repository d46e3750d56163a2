package brush

import (
	"github.com/akmonengine/brushwork/geom"
	"github.com/akmonengine/brushwork/polyhedron"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

func (b *Brush) CanTransformVertices(worldBounds geom.BBox, positions []mgl64.Vec3, m mgl64.Mat4) bool {
	return b.geometry.CanTransformVertices(worldBounds, positions, m)
}

// TransformVertices moves the vertices at positions by m. Vertices that end up inside
// the solid or on an edge are removed; use FindClosestVertexPositions to find where the
// moved vertices went.
func (b *Brush) TransformVertices(worldBounds geom.BBox, positions []mgl64.Vec3, m mgl64.Mat4, lockTextures bool) error {
	move, err := b.geometry.TransformVertices(worldBounds, positions, m)
	if err != nil {
		return errors.Wrapf(ErrIllegalMove, "transforming %d vertices: %v", len(positions), err)
	}
	return b.applyMove(worldBounds, move, lockTextures)
}

func (b *Brush) CanTransformEdges(worldBounds geom.BBox, edges []geom.Segment, m mgl64.Mat4) bool {
	return b.geometry.CanTransformEdges(worldBounds, edges, m)
}

func (b *Brush) TransformEdges(worldBounds geom.BBox, edges []geom.Segment, m mgl64.Mat4, lockTextures bool) error {
	move, err := b.geometry.TransformEdges(worldBounds, edges, m)
	if err != nil {
		return errors.Wrapf(ErrIllegalMove, "transforming %d edges: %v", len(edges), err)
	}
	return b.applyMove(worldBounds, move, lockTextures)
}

func (b *Brush) CanTransformFaces(worldBounds geom.BBox, faces []geom.Polygon, m mgl64.Mat4) bool {
	return b.geometry.CanTransformFaces(worldBounds, faces, m)
}

func (b *Brush) TransformFaces(worldBounds geom.BBox, faces []geom.Polygon, m mgl64.Mat4, lockTextures bool) error {
	move, err := b.geometry.TransformFaces(worldBounds, faces, m)
	if err != nil {
		return errors.Wrapf(ErrIllegalMove, "transforming %d faces: %v", len(faces), err)
	}
	return b.applyMove(worldBounds, move, lockTextures)
}

// FindClosestVertexPosition returns the vertex within polyhedron.CloseVertexEpsilon of
// position.
func (b *Brush) FindClosestVertexPosition(position mgl64.Vec3) (mgl64.Vec3, bool) {
	v, ok := b.geometry.FindClosestVertex(position, polyhedron.CloseVertexEpsilon)
	if !ok {
		return mgl64.Vec3{}, false
	}
	return b.geometry.Position(v), true
}

// FindClosestVertexPositions maps each position to the closest vertex, in input order.
// Positions without a vertex nearby are skipped, and a vertex is returned only once.
func (b *Brush) FindClosestVertexPositions(positions []mgl64.Vec3) []mgl64.Vec3 {
	found := make(map[mgl64.Vec3]bool)
	var result []mgl64.Vec3
	for _, position := range positions {
		if closest, ok := b.FindClosestVertexPosition(position); ok && !found[closest] {
			found[closest] = true
			result = append(result, closest)
		}
	}
	return result
}

// FindClosestEdgePositions is FindClosestVertexPositions for edges.
func (b *Brush) FindClosestEdgePositions(edges []geom.Segment) []geom.Segment {
	found := make(map[geom.Segment]bool)
	var result []geom.Segment
	for _, edge := range edges {
		h, ok := b.geometry.FindClosestEdge(edge.Start, edge.End, polyhedron.CloseVertexEpsilon)
		if !ok {
			continue
		}
		if closest := b.geometry.EdgeSegment(h); !found[closest] {
			found[closest] = true
			result = append(result, closest)
		}
	}
	return result
}

// FindClosestFacePositions is FindClosestVertexPositions for faces.
func (b *Brush) FindClosestFacePositions(faces []geom.Polygon) []geom.Polygon {
	found := make(map[polyhedron.FaceID]bool)
	var result []geom.Polygon
	for _, face := range faces {
		f, ok := b.geometry.FindClosestFace(face.Vertices, polyhedron.CloseVertexEpsilon)
		if ok && !found[f] {
			found[f] = true
			result = append(result, b.geometry.FacePolygon(f))
		}
	}
	return result
}

// CanAddVertex reports whether position lies in the world and outside the brush, so
// adding it extends the hull.
func (b *Brush) CanAddVertex(worldBounds geom.BBox, position mgl64.Vec3) bool {
	if !worldBounds.ContainsPoint(position) {
		return false
	}
	_, added := b.geometry.AddVertex(position)
	return added
}

// AddVertex extends the brush to the hull of its vertices and position. A position
// inside the brush leaves it unchanged.
func (b *Brush) AddVertex(worldBounds geom.BBox, position mgl64.Vec3) error {
	if !worldBounds.ContainsPoint(position) {
		return errors.Wrapf(ErrOutOfBounds, "vertex %v", position)
	}
	move, added := b.geometry.AddVertex(position)
	if !added {
		return nil
	}
	return b.applyMove(worldBounds, move, false)
}

func (b *Brush) CanRemoveVertices(worldBounds geom.BBox, positions []mgl64.Vec3) bool {
	if !b.geometry.HasVertices(positions, 0) {
		return false
	}
	return b.geometry.RemoveVertices(positions).Result.Polyhedron()
}

// RemoveVertices shrinks the brush to the hull of its other vertices.
func (b *Brush) RemoveVertices(worldBounds geom.BBox, positions []mgl64.Vec3) error {
	if !b.geometry.HasVertices(positions, 0) {
		return errors.Wrap(ErrIllegalMove, "removing vertices the brush does not have")
	}
	move := b.geometry.RemoveVertices(positions)
	if !move.Result.Polyhedron() {
		return errors.Wrapf(ErrDegenerate, "removing %d vertices leaves a %s", len(positions), move.Result.Dimension())
	}
	return b.applyMove(worldBounds, move, false)
}

func (b *Brush) CanSnapVertices(worldBounds geom.BBox, grid float64) bool {
	result := b.geometry.SnapVertices(grid).Result
	return result.Polyhedron() && worldBounds.Contains(result.Bounds())
}

// SnapVertices rounds every vertex to a multiple of grid.
func (b *Brush) SnapVertices(worldBounds geom.BBox, grid float64, lockTextures bool) error {
	move := b.geometry.SnapVertices(grid)
	if !move.Result.Polyhedron() {
		return errors.Wrapf(ErrDegenerate, "snapping to %v leaves a %s", grid, move.Result.Dimension())
	}
	if !worldBounds.Contains(move.Result.Bounds()) {
		return errors.Wrapf(ErrOutOfBounds, "snapped brush reaches %v", move.Result.Bounds())
	}
	return b.applyMove(worldBounds, move, lockTextures)
}

// applyMove carries the faces over to the geometry a vertex edit produced: every new face
// takes the attributes of the old face it matches best, then the brush is rebuilt from
// the face planes.
func (b *Brush) applyMove(worldBounds geom.BBox, move polyhedron.Move, lockTextures bool) error {
	geometry := move.Result
	matcher := polyhedron.NewMatcher(b.geometry, geometry, move.VertexMapping)

	var faces []BrushFace
	var err error
	matcher.MatchFaces(func(left, right polyhedron.FaceID) {
		if err != nil {
			return
		}
		payload := b.geometry.Payload(left)
		if payload == polyhedron.NoPayload {
			err = errors.Wrap(ErrIncompleteBrush, "geometry face without brush face")
			return
		}
		leftFace := &b.faces[payload]
		rightFace := leftFace.Clone()
		rightFace.setGeometry(geometry, right)
		if err = rightFace.UpdatePointsFromVertices(); err != nil {
			return
		}
		if lockTextures {
			applyUVLock(matcher, leftFace, &rightFace)
		}
		geometry.SetPayload(right, len(faces))
		faces = append(faces, rightFace)
	})
	if err != nil {
		return err
	}
	return b.rebuild(worldBounds, faces)
}

// findTransformForUVLock fits the affine map taking the old face onto the new one from
// three matched vertex pairs, preferring vertices that did not move. A face with three
// or more unmoved vertices did not change and needs no map.
func findTransformForUVLock(matcher *polyhedron.Matcher, left, right *BrushFace) (mgl64.Mat4, bool) {
	type pair struct{ from, to mgl64.Vec3 }
	var unmoved, moved []pair
	matcher.VisitMatchingVertexPairs(left.face, right.face, func(l, r polyhedron.VertexID) {
		p := pair{left.geometry.Position(l), right.geometry.Position(r)}
		if geom.VecEqual(p.from, p.to, geom.AlmostZero) {
			unmoved = append(unmoved, p)
		} else {
			moved = append(moved, p)
		}
	})

	if len(unmoved) >= 3 {
		return mgl64.Mat4{}, false
	}
	references := append(unmoved, moved...)
	if len(references) < 3 {
		return mgl64.Mat4{}, false
	}
	m, ok := geom.PointsTransformationMatrix(
		references[0].from, references[1].from, references[2].from,
		references[0].to, references[1].to, references[2].to,
	)
	if !ok || geom.HasNaN(m) {
		return mgl64.Mat4{}, false
	}
	return m, true
}

// applyUVLock re-textures right as left would be textured after being transformed with
// texture lock, without touching the plane of right.
func applyUVLock(matcher *polyhedron.Matcher, left, right *BrushFace) {
	m, ok := findTransformForUVLock(matcher, left, right)
	if !ok {
		return
	}
	transformed := left.Clone()
	if err := transformed.Transform(m, true); err != nil {
		return
	}
	right.SetAttributes(transformed.attributes)
	if snapshot, ok := transformed.uv.Snapshot(); ok {
		right.copyUVCoordSystemFrom(snapshot, transformed.attributes, transformed.boundary, WrapRotation)
	}
}
