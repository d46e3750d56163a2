package brush

import (
	"github.com/akmonengine/brushwork/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// WrapStyle selects how texture axes follow a face whose normal changes.
type WrapStyle int

const (
	// WrapProjection recomputes the axes for the new normal as a fresh face would get them.
	WrapProjection WrapStyle = iota
	// WrapRotation rotates the axes by the rotation taking the old normal onto the new one.
	WrapRotation
)

// UVCoordSystem maps world positions on a face to texture coordinates. Its state is the
// pair of texture axes; the face attributes supply offset, scale and rotation.
type UVCoordSystem interface {
	Clone() UVCoordSystem

	UAxis() mgl64.Vec3
	VAxis() mgl64.Vec3
	// Normal is the normal of the plane the texture is projected from.
	Normal() mgl64.Vec3

	// Snapshot captures state that the attributes alone cannot restore. Systems that are
	// fully described by their attributes return false.
	Snapshot() (UVSnapshot, bool)
	Restore(snapshot UVSnapshot)

	UVCoords(point mgl64.Vec3, attributes Attributes, textureSize mgl64.Vec2) mgl64.Vec2

	// SetRotation applies a change of the rotation attribute from oldAngle to newAngle.
	SetRotation(normal mgl64.Vec3, oldAngle, newAngle float64)

	// UpdateNormal adapts the axes to a face whose normal moved from oldNormal to newNormal.
	UpdateNormal(oldNormal, newNormal mgl64.Vec3, attributes Attributes, style WrapStyle)

	// Transform adapts the axes and, with lock, the attributes to a face transformed by m.
	// oldInvariant is a point on the old face whose texture coordinates lock keeps.
	Transform(oldBoundary, newBoundary geom.Plane, m mgl64.Mat4, attributes *Attributes, textureSize mgl64.Vec2, lock bool, oldInvariant mgl64.Vec3)

	// MeasureAngle returns the rotation attribute at which the texture X axis would point
	// from center to point, both in texture space.
	MeasureAngle(currentAngle float64, center, point mgl64.Vec2) float64

	// IsRotationInverted reports whether increasing the rotation turns the texture
	// clockwise when looking at a face with the given normal.
	IsRotationInverted(normal mgl64.Vec3) bool
}

// UVSnapshot holds explicit texture axes.
type UVSnapshot struct {
	UAxis mgl64.Vec3
	VAxis mgl64.Vec3
}

func computeUVCoords(system UVCoordSystem, point mgl64.Vec3, scale mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{
		point.Dot(system.UAxis().Mul(1 / safeScale(scale[0]))),
		point.Dot(system.VAxis().Mul(1 / safeScale(scale[1]))),
	}
}

func uvCoords(system UVCoordSystem, point mgl64.Vec3, attributes Attributes, textureSize mgl64.Vec2) mgl64.Vec2 {
	uv := computeUVCoords(system, point, attributes.Scale).Add(attributes.Offset)
	return mgl64.Vec2{uv[0] / safeScale(textureSize[0]), uv[1] / safeScale(textureSize[1])}
}

// toMatrix maps world space to texture space: X and Y are the texture coordinates before
// division by the texture size, Z is the distance along the system normal.
func toMatrix(system UVCoordSystem, offset, scale mgl64.Vec2) mgl64.Mat4 {
	u := system.UAxis().Mul(1 / safeScale(scale[0]))
	v := system.VAxis().Mul(1 / safeScale(scale[1]))
	n := system.Normal()
	return mgl64.Mat4FromRows(
		mgl64.Vec4{u[0], u[1], u[2], offset[0]},
		mgl64.Vec4{v[0], v[1], v[2], offset[1]},
		mgl64.Vec4{n[0], n[1], n[2], 0},
		mgl64.Vec4{0, 0, 0, 1},
	)
}

func fromMatrix(system UVCoordSystem, offset, scale mgl64.Vec2) mgl64.Mat4 {
	m, ok := geom.Invert(toMatrix(system, offset, scale))
	if !ok {
		panic("brush: texture axes are degenerate")
	}
	return m
}
