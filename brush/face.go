package brush

import (
	"math"

	"github.com/akmonengine/brushwork/geom"
	"github.com/akmonengine/brushwork/polyhedron"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// BrushFace is one bounding plane of a brush together with its texturing. The plane is
// given by three points; seen from outside the brush they run clockwise.
//
// A face is a value, but it owns its texture coordinate system: copy it with Clone. Once
// added to a brush, a face is linked to one face of the brush geometry.
type BrushFace struct {
	points      [3]mgl64.Vec3
	boundary    geom.Plane
	attributes  Attributes
	uv          UVCoordSystem
	textureSize mgl64.Vec2

	geometry *polyhedron.Polyhedron
	face     polyhedron.FaceID
}

// NewBrushFace creates a face with the texture coordinate system of the map format:
// explicit axes for Valve style formats, paraxial projection otherwise.
func NewBrushFace(p0, p1, p2 mgl64.Vec3, attributes Attributes, format MapFormat) (BrushFace, error) {
	f := BrushFace{attributes: attributes, textureSize: mgl64.Vec2{1, 1}}
	if err := f.setPoints(p0, p1, p2); err != nil {
		return BrushFace{}, err
	}
	if format.IsParallel() {
		f.uv = NewParallelUVCoordSystem(f.boundary.Normal, attributes)
	} else {
		f.uv = NewParaxialUVCoordSystem(f.boundary.Normal, attributes)
	}
	return f, nil
}

// NewBrushFaceWithAxes creates a face with explicit texture axes.
func NewBrushFaceWithAxes(p0, p1, p2 mgl64.Vec3, attributes Attributes, uAxis, vAxis mgl64.Vec3) (BrushFace, error) {
	f := BrushFace{attributes: attributes, textureSize: mgl64.Vec2{1, 1}}
	if err := f.setPoints(p0, p1, p2); err != nil {
		return BrushFace{}, err
	}
	f.uv = NewParallelUVCoordSystemWithAxes(uAxis, vAxis)
	return f, nil
}

// setPoints rounds the points to integers unless that would tilt the plane away from
// the given points.
func (f *BrushFace) setPoints(p0, p1, p2 mgl64.Vec3) error {
	points := [3]mgl64.Vec3{p0, p1, p2}
	f.points = [3]mgl64.Vec3{
		geom.Correct(p0, 0, geom.CorrectEpsilon),
		geom.Correct(p1, 0, geom.CorrectEpsilon),
		geom.Correct(p2, 0, geom.CorrectEpsilon),
	}
	plane, ok := geom.PlaneFromPoints(f.points[0], f.points[1], f.points[2])
	if ok && f.points != points && lo.SomeBy(points[:], func(p mgl64.Vec3) bool {
		return math.Abs(plane.PointDistance(p)) > geom.CorrectEpsilon/8
	}) {
		f.points = points
		plane, ok = geom.PlaneFromPoints(p0, p1, p2)
	}
	if !ok {
		return errors.Wrapf(ErrInvalidFace, "colinear face points %v %v %v", f.points[0], f.points[1], f.points[2])
	}
	f.boundary = plane
	return nil
}

// Clone returns an independent copy, still linked to the same geometry face.
func (f *BrushFace) Clone() BrushFace {
	clone := *f
	clone.uv = f.uv.Clone()
	return clone
}

func (f *BrushFace) Points() [3]mgl64.Vec3 { return f.points }

func (f *BrushFace) Boundary() geom.Plane { return f.boundary }

func (f *BrushFace) Normal() mgl64.Vec3 { return f.boundary.Normal }

func (f *BrushFace) Attributes() Attributes { return f.attributes }

func (f *BrushFace) MaterialName() string { return f.attributes.MaterialName }

// SetAttributes replaces the attributes. A change of rotation turns the texture axes.
func (f *BrushFace) SetAttributes(attributes Attributes) {
	f.uv.SetRotation(f.boundary.Normal, f.attributes.Rotation, attributes.Rotation)
	f.attributes = attributes
}

// SetRotation changes only the rotation attribute.
func (f *BrushFace) SetRotation(degrees float64) {
	attributes := f.attributes
	attributes.Rotation = degrees
	f.SetAttributes(attributes)
}

func (f *BrushFace) UVCoordSystem() UVCoordSystem { return f.uv }

func (f *BrushFace) UAxis() mgl64.Vec3 { return f.uv.UAxis() }

func (f *BrushFace) VAxis() mgl64.Vec3 { return f.uv.VAxis() }

func (f *BrushFace) TextureSize() mgl64.Vec2 { return f.textureSize }

// SetTextureSize sets the size in texels of the face's material. Zero components count
// as one.
func (f *BrushFace) SetTextureSize(size mgl64.Vec2) {
	f.textureSize = mgl64.Vec2{safeScale(size[0]), safeScale(size[1])}
}

func (f *BrushFace) setGeometry(geometry *polyhedron.Polyhedron, face polyhedron.FaceID) {
	f.geometry = geometry
	f.face = face
}

// HasGeometry reports whether the face is linked to a face of its brush's geometry.
func (f *BrushFace) HasGeometry() bool {
	return f.geometry != nil && f.face.Valid()
}

// Vertices returns the vertex positions of the linked geometry face in winding order.
func (f *BrushFace) Vertices() []mgl64.Vec3 {
	if !f.HasGeometry() {
		return nil
	}
	return f.geometry.FacePositions(f.face)
}

// Polygon returns the vertex loop of the linked geometry face.
func (f *BrushFace) Polygon() geom.Polygon {
	return geom.Polygon{Vertices: f.Vertices()}
}

// Center returns the average of the face vertices.
func (f *BrushFace) Center() mgl64.Vec3 {
	if !f.HasGeometry() {
		return f.boundary.Anchor()
	}
	return f.geometry.FaceCenter(f.face)
}

func (f *BrushFace) Area() float64 {
	if !f.HasGeometry() {
		return 0
	}
	return f.geometry.FaceArea(f.face)
}

// HasVertices reports whether the face loop equals positions up to a cyclic shift.
func (f *BrushFace) HasVertices(positions []mgl64.Vec3, epsilon float64) bool {
	return f.Polygon().ApproxEqual(geom.Polygon{Vertices: positions}, epsilon)
}

// CoplanarWith reports whether the face center lies on plane and both normals agree.
func (f *BrushFace) CoplanarWith(plane geom.Plane) bool {
	if plane.PointStatus(f.Center(), geom.PointStatusEpsilon) != geom.Inside {
		return false
	}
	return 1-f.boundary.Normal.Dot(plane.Normal) < geom.ColinearEpsilon
}

// Invert flips the face to the opposite orientation.
func (f *BrushFace) Invert() {
	f.boundary = f.boundary.Flip()
	f.points[1], f.points[2] = f.points[2], f.points[1]
}

// Transform applies m to the plane. With lock the texture stays attached to the face.
func (f *BrushFace) Transform(m mgl64.Mat4, lock bool) error {
	invariant := f.Center()
	oldBoundary := f.boundary

	newBoundary, ok := oldBoundary.Transform(m)
	if !ok {
		return errors.Wrap(ErrInvalidFace, "singular face transform")
	}
	p0 := geom.MulPoint(m, f.points[0])
	p1 := geom.MulPoint(m, f.points[1])
	p2 := geom.MulPoint(m, f.points[2])
	if p2.Sub(p0).Cross(p1.Sub(p0)).Dot(newBoundary.Normal) < 0 {
		p1, p2 = p2, p1
	}

	transformed := *f
	if err := transformed.setPoints(p0, p1, p2); err != nil {
		return err
	}
	f.points, f.boundary = transformed.points, transformed.boundary
	f.uv.Transform(oldBoundary, f.boundary, m, &f.attributes, f.textureSize, lock, invariant)
	return nil
}

// UpdatePointsFromVertices re-derives the plane points from the linked geometry face,
// picking the triple of consecutive vertices closest to a right angle. The texture is
// kept in place along the line the old and the new plane share.
func (f *BrushFace) UpdatePointsFromVertices() error {
	vertices := f.Vertices()
	count := len(vertices)
	if count < 3 {
		return errors.Wrapf(ErrDegenerate, "face has %d vertices", count)
	}

	best, bestDot := 0, 1.0
	for i := 0; i < count && bestDot > 0; i++ {
		current := vertices[i]
		previous := vertices[(i+count-1)%count].Sub(current).Normalize()
		next := vertices[(i+1)%count].Sub(current).Normalize()
		if d := math.Abs(previous.Dot(next)); d < bestDot {
			best, bestDot = i, d
		}
	}

	oldBoundary := f.boundary
	updated := *f
	err := updated.setPoints(vertices[(best+1)%count], vertices[best], vertices[(best+count-1)%count])
	if err != nil {
		return err
	}
	f.points, f.boundary = updated.points, updated.boundary

	seam, ok := oldBoundary.IntersectPlane(f.boundary)
	if !ok {
		return nil
	}
	reference := seam.ProjectPoint(f.Center())
	desired := f.TexCoords(reference)
	f.uv.UpdateNormal(oldBoundary.Normal, f.boundary.Normal, f.attributes, WrapRotation)
	f.keepTexCoords(reference, desired)
	return nil
}

// keepTexCoords shifts the offset so that point maps to desired texture coordinates.
func (f *BrushFace) keepTexCoords(point mgl64.Vec3, desired mgl64.Vec2) {
	current := f.TexCoords(point)
	change := desired.Sub(current)
	change = mgl64.Vec2{change[0] * f.textureSize[0], change[1] * f.textureSize[1]}
	f.attributes.Offset = geom.Correct2(ModOffset(f.attributes.Offset.Add(change), f.textureSize), 4, geom.CorrectEpsilon)
}

// copyUVCoordSystemFrom restores explicit axes taken from a source face and adapts them
// to this face's plane, keeping the texture continuous across the line both planes
// share. Paraxial faces have no axes to restore.
func (f *BrushFace) copyUVCoordSystemFrom(snapshot UVSnapshot, attributes Attributes, sourcePlane geom.Plane, style WrapStyle) {
	if _, ok := f.uv.Snapshot(); !ok {
		return
	}
	f.uv.Restore(snapshot)
	seam, ok := sourcePlane.IntersectPlane(f.boundary)
	if !ok {
		return
	}
	reference := seam.ProjectPoint(f.Center())
	desired := f.uv.UVCoords(reference, attributes, f.textureSize)
	f.uv.UpdateNormal(sourcePlane.Normal, f.boundary.Normal, f.attributes, style)
	f.keepTexCoords(reference, desired)
}

// TexCoords returns the texture coordinates of a world position, in units of the texture
// size.
func (f *BrushFace) TexCoords(point mgl64.Vec3) mgl64.Vec2 {
	return f.uv.UVCoords(point, f.attributes, f.textureSize)
}

// ToTexCoordSystemMatrix maps world space into the face's texture space for the given
// offset and scale. With project the Z coordinate is dropped.
func (f *BrushFace) ToTexCoordSystemMatrix(offset, scale mgl64.Vec2, project bool) mgl64.Mat4 {
	m := toMatrix(f.uv, offset, scale)
	if project {
		return geom.ZerZ.Mul4(m)
	}
	return m
}

// FromTexCoordSystemMatrix maps texture space back to world space. With project the
// result lies on the face plane.
func (f *BrushFace) FromTexCoordSystemMatrix(offset, scale mgl64.Vec2, project bool) mgl64.Mat4 {
	m := fromMatrix(f.uv, offset, scale)
	if project {
		return f.ProjectToBoundaryMatrix().Mul4(m)
	}
	return m
}

// ProjectToBoundaryMatrix projects world positions onto the face plane along the texture
// Z axis.
func (f *BrushFace) ProjectToBoundaryMatrix() mgl64.Mat4 {
	texZ := geom.MulDirection(fromMatrix(f.uv, mgl64.Vec2{}, mgl64.Vec2{1, 1}), mgl64.Vec3{0, 0, 1})
	worldToPlane, ok := geom.PlaneProjectionMatrix(f.boundary, texZ)
	if !ok {
		return mgl64.Ident4()
	}
	planeToWorld, _ := geom.Invert(worldToPlane)
	return planeToWorld.Mul4(geom.ZerZ).Mul4(worldToPlane)
}

// MeasureUVAngle returns the rotation at which the texture X axis points from center to
// point in texture space.
func (f *BrushFace) MeasureUVAngle(center, point mgl64.Vec2) float64 {
	return f.uv.MeasureAngle(f.attributes.Rotation, center, point)
}

// ConvertToParaxial replaces explicit axes by the paraxial attributes closest to them.
func (f *BrushFace) ConvertToParaxial() {
	if _, ok := f.uv.(*ParaxialUVCoordSystem); ok {
		return
	}
	f.uv, f.attributes = paraxialFromParallel(f.points, f.boundary, f.attributes, f.uv.UAxis(), f.uv.VAxis())
}

// ConvertToParallel replaces the paraxial projection by the explicit axes it uses.
func (f *BrushFace) ConvertToParallel() {
	if _, ok := f.uv.(*ParallelUVCoordSystem); ok {
		return
	}
	f.uv = parallelFromParaxial(f.uv)
}

// IntersectWithRay returns the distance at which ray hits the front of the face.
func (f *BrushFace) IntersectWithRay(ray geom.Ray) (float64, bool) {
	if !f.HasGeometry() || ray.Direction.Dot(f.boundary.Normal) >= 0 {
		return 0, false
	}
	return f.geometry.FaceIntersectWithRay(f.face, ray, geom.Front)
}
