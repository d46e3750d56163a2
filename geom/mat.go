package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ZerZ is the identity with a zero in place of the Z scale. Multiplying by it flattens
// points onto the Z = 0 plane.
var ZerZ = mgl64.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0, 0,
	0, 0, 0, 1,
}

// MulPoint transforms a position (w = 1) and applies the perspective divide.
func MulPoint(m mgl64.Mat4, point mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformCoordinate(point, m)
}

// MulPoints transforms every position.
func MulPoints(m mgl64.Mat4, points []mgl64.Vec3) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(points))
	for i, p := range points {
		out[i] = MulPoint(m, p)
	}
	return out
}

// MulDirection transforms a direction (w = 0).
func MulDirection(m mgl64.Mat4, direction mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(direction.Vec4(0)).Vec3()
}

// Invert returns the inverse of m. Returns false if m is singular.
func Invert(m mgl64.Mat4) (mgl64.Mat4, bool) {
	det := m.Det()
	if math.Abs(det) < 1e-12 || math.IsNaN(det) {
		return mgl64.Mat4{}, false
	}
	return m.Inv(), true
}

// IsIdentity reports whether m equals the identity within epsilon.
func IsIdentity(m mgl64.Mat4, epsilon float64) bool {
	return m.ApproxEqualThreshold(mgl64.Ident4(), epsilon)
}

// HasNaN reports whether any element of m is NaN.
func HasNaN(m mgl64.Mat4) bool {
	for _, f := range m {
		if math.IsNaN(f) {
			return true
		}
	}
	return false
}

// StripTranslation clears the translation column of m.
func StripTranslation(m mgl64.Mat4) mgl64.Mat4 {
	m[12], m[13], m[14] = 0, 0, 0
	return m
}

// RotationBetween returns the rotation that takes the unit vector from onto the unit
// vector to.
func RotationBetween(from, to mgl64.Vec3) mgl64.Mat4 {
	return mgl64.QuatBetweenVectors(from, to).Mat4()
}

// AxisRotation returns the matrix rotating the given axis index onto +Z, and its inverse.
// Rotating Z onto itself is the identity.
func AxisRotation(axis int) (toXY, fromXY mgl64.Mat4) {
	if axis == 2 {
		return mgl64.Ident4(), mgl64.Ident4()
	}
	toXY = RotationBetween(Axis(axis), mgl64.Vec3{0, 0, 1})
	fromXY = RotationBetween(mgl64.Vec3{0, 0, 1}, Axis(axis))
	return toXY, fromXY
}

// PointsTransformationMatrix computes the affine transformation mapping the triangle
// (in0, in1, in2) onto (out0, out1, out2). The normal direction of the input triangle is
// mapped onto the unit normal of the output triangle. Returns false if either triangle is
// degenerate.
func PointsTransformationMatrix(in0, in1, in2, out0, out1, out2 mgl64.Vec3) (mgl64.Mat4, bool) {
	inNormal := in1.Sub(in0).Cross(in2.Sub(in0))
	outNormal := out1.Sub(out0).Cross(out2.Sub(out0))
	if inNormal.Len() < ColinearEpsilon || outNormal.Len() < ColinearEpsilon {
		return mgl64.Mat4{}, false
	}

	in := mgl64.Mat3FromCols(in1.Sub(in0), in2.Sub(in0), inNormal.Normalize())
	out := mgl64.Mat3FromCols(out1.Sub(out0), out2.Sub(out0), outNormal.Normalize())
	if math.Abs(in.Det()) < 1e-12 {
		return mgl64.Mat4{}, false
	}

	linear := out.Mul3(in.Inv()).Mat4()
	m := mgl64.Translate3D(out0.X(), out0.Y(), out0.Z()).
		Mul4(linear).
		Mul4(mgl64.Translate3D(-in0.X(), -in0.Y(), -in0.Z()))
	if HasNaN(m) {
		return mgl64.Mat4{}, false
	}
	return m, true
}

// PlaneProjectionMatrix returns the matrix taking world space into a coordinate system in
// which plane is Z = 0 and direction is the Z axis. Following it with ZerZ and the inverse
// projects points onto the plane along direction.
func PlaneProjectionMatrix(plane Plane, direction mgl64.Vec3) (mgl64.Mat4, bool) {
	var xAxis mgl64.Vec3
	switch AbsMaxComponent(plane.Normal) {
	case 0:
		xAxis = plane.Normal.Cross(mgl64.Vec3{0, 0, 1}).Normalize()
	case 1:
		xAxis = plane.Normal.Cross(mgl64.Vec3{1, 0, 0}).Normalize()
	default:
		xAxis = plane.Normal.Cross(mgl64.Vec3{0, 1, 0}).Normalize()
	}
	yAxis := plane.Normal.Cross(xAxis).Normalize()

	system := mgl64.Mat4FromCols(
		xAxis.Vec4(0),
		yAxis.Vec4(0),
		direction.Vec4(0),
		plane.Anchor().Vec4(1),
	)
	return Invert(system)
}
