// Package brush implements brushes: convex solids bounded by textured planes, as found in
// Quake family map files.
//
// A Brush owns a polyhedron built from the planes of its faces and keeps every face
// linked to the geometry face lying on its plane. All editing operations are atomic: on
// error the brush is left as it was. Operations that move vertices can keep textures
// attached to the faces ("texture lock").
package brush

import (
	"math"
	"sort"

	"github.com/akmonengine/brushwork/geom"
	"github.com/akmonengine/brushwork/polyhedron"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Brush is a convex solid bounded by faces.
type Brush struct {
	geometry *polyhedron.Polyhedron
	faces    []BrushFace
}

// New builds a brush from its faces. Faces whose plane does not touch the solid are
// dropped.
func New(worldBounds geom.BBox, faces []BrushFace) (*Brush, error) {
	b := &Brush{faces: lo.Map(faces, func(f BrushFace, _ int) BrushFace { return f.Clone() })}
	if err := b.updateGeometryFromFaces(worldBounds); err != nil {
		return nil, err
	}
	return b, nil
}

// sortFaces orders faces by how axis aligned their normals are, most aligned first, as
// the compilers do. Building from planes in this order keeps rounding errors on the
// axial faces low.
func sortFaces(faces []BrushFace) {
	sort.SliceStable(faces, func(i, j int) bool {
		return axiality(faces[i].boundary.Normal) > axiality(faces[j].boundary.Normal)
	})
}

func axiality(normal mgl64.Vec3) float64 {
	return math.Abs(normal[geom.AbsMaxComponent(normal)])
}

func (b *Brush) updateGeometryFromFaces(worldBounds geom.BBox) error {
	faces := append([]BrushFace(nil), b.faces...)
	sortFaces(faces)

	planes := lo.Map(faces, func(f BrushFace, _ int) geom.Plane { return f.boundary })
	geometry, err := polyhedron.NewFromPlanes(worldBounds, planes)
	switch {
	case errors.Is(err, polyhedron.ErrEmpty):
		return errors.Wrap(ErrEmptyBrush, "building brush geometry")
	case err != nil:
		return errors.Wrap(ErrIncompleteBrush, "building brush geometry")
	}

	// keep only the faces the geometry references, in sorted order
	used := make([]bool, len(faces))
	for _, g := range geometry.Faces() {
		used[geometry.Payload(g)] = true
	}
	index := make([]int, len(faces))
	kept := make([]BrushFace, 0, len(faces))
	for i, f := range faces {
		if used[i] {
			index[i] = len(kept)
			kept = append(kept, f)
		}
	}
	for _, g := range geometry.Faces() {
		i := index[geometry.Payload(g)]
		geometry.SetPayload(g, i)
		kept[i].setGeometry(geometry, g)
	}

	b.geometry = geometry
	b.faces = kept
	return nil
}

// Clone returns a deep copy.
func (b *Brush) Clone() *Brush {
	geometry := b.geometry.Clone()
	faces := make([]BrushFace, len(b.faces))
	for i := range b.faces {
		faces[i] = b.faces[i].Clone()
		faces[i].setGeometry(geometry, b.faces[i].face)
	}
	return &Brush{geometry: geometry, faces: faces}
}

// Geometry returns the brush polyhedron. It must not be modified.
func (b *Brush) Geometry() *polyhedron.Polyhedron { return b.geometry }

func (b *Brush) Bounds() geom.BBox { return b.geometry.Bounds() }

// Faces returns the faces of the brush. Use Face to modify one.
func (b *Brush) Faces() []BrushFace { return b.faces }

// Face returns the face at index i for reading or changing its attributes.
func (b *Brush) Face(i int) *BrushFace { return &b.faces[i] }

func (b *Brush) FaceCount() int { return len(b.faces) }

func (b *Brush) VertexCount() int { return b.geometry.VertexCount() }

func (b *Brush) EdgeCount() int { return b.geometry.EdgeCount() }

func (b *Brush) VertexPositions() []mgl64.Vec3 { return b.geometry.VertexPositions() }

func (b *Brush) EdgeSegments() []geom.Segment { return b.geometry.EdgeSegments() }

func (b *Brush) Closed() bool { return b.geometry.Closed() }

// FullySpecified reports whether every geometry face is linked to a brush face.
func (b *Brush) FullySpecified() bool {
	if b.geometry.FaceCount() != len(b.faces) {
		return false
	}
	return lo.EveryBy(b.geometry.Faces(), func(f polyhedron.FaceID) bool {
		return b.geometry.Payload(f) != polyhedron.NoPayload
	})
}

func (b *Brush) HasVertex(position mgl64.Vec3, epsilon float64) bool {
	return b.geometry.HasVertex(position, epsilon)
}

func (b *Brush) HasEdge(edge geom.Segment, epsilon float64) bool {
	return b.geometry.HasEdge(edge.Start, edge.End, epsilon)
}

func (b *Brush) HasFace(polygon geom.Polygon, epsilon float64) bool {
	return b.geometry.HasFace(polygon.Vertices, epsilon)
}

// FindFace returns the index of the first face with the given material.
func (b *Brush) FindFace(materialName string) (int, bool) {
	return b.findFace(func(f *BrushFace) bool { return f.attributes.MaterialName == materialName })
}

func (b *Brush) FindFaceByNormal(normal mgl64.Vec3, epsilon float64) (int, bool) {
	return b.findFace(func(f *BrushFace) bool { return geom.VecEqual(f.boundary.Normal, normal, epsilon) })
}

func (b *Brush) FindFaceByPlane(plane geom.Plane, epsilon float64) (int, bool) {
	return b.findFace(func(f *BrushFace) bool { return f.boundary.ApproxEqual(plane, epsilon) })
}

func (b *Brush) FindFaceByPolygon(polygon geom.Polygon, epsilon float64) (int, bool) {
	return b.findFace(func(f *BrushFace) bool { return f.HasVertices(polygon.Vertices, epsilon) })
}

func (b *Brush) findFace(match func(*BrushFace) bool) (int, bool) {
	for i := range b.faces {
		if match(&b.faces[i]) {
			return i, true
		}
	}
	return -1, false
}

// IncidentFaces returns the indices of the faces around the vertex at position.
func (b *Brush) IncidentFaces(position mgl64.Vec3) []int {
	v, ok := b.geometry.FindVertexByPosition(position, 0)
	if !ok {
		return nil
	}
	return lo.Map(b.geometry.IncidentFaces(v), func(f polyhedron.FaceID, _ int) int {
		return b.geometry.Payload(f)
	})
}

func (b *Brush) ContainsPoint(point mgl64.Vec3) bool {
	return b.Bounds().ContainsPoint(point) && b.geometry.ContainsPoint(point)
}

func (b *Brush) ContainsBounds(bounds geom.BBox) bool {
	if !b.Bounds().Contains(bounds) {
		return false
	}
	corners := bounds.Vertices()
	return lo.EveryBy(corners[:], b.geometry.ContainsPoint)
}

func (b *Brush) Contains(other *Brush) bool {
	return b.Bounds().Contains(other.Bounds()) && b.geometry.Contains(other.geometry)
}

func (b *Brush) IntersectsBounds(bounds geom.BBox) bool {
	return b.Bounds().Overlaps(bounds) && b.geometry.Intersects(polyhedron.NewCuboid(bounds))
}

func (b *Brush) Intersects(other *Brush) bool {
	return b.Bounds().Overlaps(other.Bounds()) && b.geometry.Intersects(other.geometry)
}

// rebuild replaces the faces and rebuilds the geometry from them, leaving b unchanged
// on error. The geometry is built in a box larger than the world so that a brush pushed
// out of the world is told apart from one whose faces do not close.
func (b *Brush) rebuild(worldBounds geom.BBox, faces []BrushFace) error {
	updated := &Brush{faces: faces}
	scratch := worldBounds.Expand(worldBounds.Size().Len())
	if err := updated.updateGeometryFromFaces(scratch); err != nil {
		return err
	}
	if !worldBounds.Contains(updated.Bounds()) {
		return errors.Wrapf(ErrOutOfBounds, "brush reaches %v", updated.Bounds())
	}
	*b = *updated
	return nil
}

func (b *Brush) cloneFaces() []BrushFace {
	return lo.Map(b.faces, func(f BrushFace, _ int) BrushFace { return f.Clone() })
}

// Transform applies m to every face.
func (b *Brush) Transform(worldBounds geom.BBox, m mgl64.Mat4, lockTextures bool) error {
	faces := b.cloneFaces()
	for i := range faces {
		if err := faces[i].Transform(m, lockTextures); err != nil {
			return errors.Wrapf(err, "transforming face %d", i)
		}
	}
	return b.rebuild(worldBounds, faces)
}

// CanMoveBoundary reports whether MoveBoundary would succeed without dropping faces.
func (b *Brush) CanMoveBoundary(worldBounds geom.BBox, faceIndex int, delta mgl64.Vec3) bool {
	moved := b.Clone()
	if err := moved.MoveBoundary(worldBounds, faceIndex, delta, false); err != nil {
		return false
	}
	return moved.FaceCount() == b.FaceCount()
}

// MoveBoundary translates the face at faceIndex by delta. Only the component of delta
// along the face normal moves the plane.
func (b *Brush) MoveBoundary(worldBounds geom.BBox, faceIndex int, delta mgl64.Vec3, lockTextures bool) error {
	if faceIndex < 0 || faceIndex >= len(b.faces) {
		return errors.Errorf("face index %d out of range", faceIndex)
	}
	faces := b.cloneFaces()
	if err := faces[faceIndex].Transform(mgl64.Translate3D(delta[0], delta[1], delta[2]), lockTextures); err != nil {
		return err
	}
	return b.rebuild(worldBounds, faces)
}

// Expand moves every face along its normal by delta; a negative delta shrinks the brush.
func (b *Brush) Expand(worldBounds geom.BBox, delta float64, lockTextures bool) error {
	faces := b.cloneFaces()
	for i := range faces {
		offset := faces[i].boundary.Normal.Mul(delta)
		if err := faces[i].Transform(mgl64.Translate3D(offset[0], offset[1], offset[2]), lockTextures); err != nil {
			return err
		}
	}
	return b.rebuild(worldBounds, faces)
}

// Clip adds face to the brush, cutting away everything above its plane.
func (b *Brush) Clip(worldBounds geom.BBox, face BrushFace) error {
	return b.rebuild(worldBounds, append(b.cloneFaces(), face.Clone()))
}

// Intersect adds the faces of other, leaving the common part of both brushes.
func (b *Brush) Intersect(worldBounds geom.BBox, other *Brush) error {
	return b.rebuild(worldBounds, append(b.cloneFaces(), other.cloneFaces()...))
}

// ConvertToParaxial converts every face to a paraxial texture coordinate system.
func (b *Brush) ConvertToParaxial() {
	for i := range b.faces {
		b.faces[i].ConvertToParaxial()
	}
}

// ConvertToParallel converts every face to explicit texture axes.
func (b *Brush) ConvertToParallel() {
	for i := range b.faces {
		b.faces[i].ConvertToParallel()
	}
}
