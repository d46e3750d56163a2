// Package geom holds the small amount of linear algebra the brush engine needs on top of
// mgl64: planes, boxes, rays, segments, polygons and a few matrix helpers.
//
// All positions are double precision mgl64 vectors. Comparisons take an explicit epsilon;
// the constants below are the defaults used by the rest of the module.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// AlmostZero is the default tolerance for comparing vectors, planes and matrices.
	AlmostZero = 0.001

	// PointStatusEpsilon is the default thickness of a plane when classifying points.
	PointStatusEpsilon = 0.0001

	// ColinearEpsilon is the tolerance below which a cross product is considered null.
	ColinearEpsilon = 0.00001
)

// CorrectEpsilon is the distance under which a coordinate is snapped to its rounded value.
// It must not exceed PointStatusEpsilon. It is a tunable; change it before any concurrent
// use.
var CorrectEpsilon = PointStatusEpsilon

// Axis returns the unit vector of the given axis index (0 = X, 1 = Y, 2 = Z).
func Axis(axis int) mgl64.Vec3 {
	var v mgl64.Vec3
	v[axis] = 1
	return v
}

// IsZero reports whether every component of v is within epsilon of zero.
func IsZero(v mgl64.Vec3, epsilon float64) bool {
	return math.Abs(v[0]) <= epsilon && math.Abs(v[1]) <= epsilon && math.Abs(v[2]) <= epsilon
}

// VecEqual compares two vectors component-wise.
func VecEqual(a, b mgl64.Vec3, epsilon float64) bool {
	return IsZero(a.Sub(b), epsilon)
}

// IsNaN reports whether any component of v is NaN.
func IsNaN(v mgl64.Vec3) bool {
	return math.IsNaN(v[0]) || math.IsNaN(v[1]) || math.IsNaN(v[2])
}

// CompareVec3 orders vectors lexicographically, returning -1, 0 or 1.
func CompareVec3(a, b mgl64.Vec3) int {
	for i := 0; i < 3; i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

// CorrectFloat rounds f to the given number of decimals if it is within epsilon of the
// rounded value, otherwise returns f unchanged.
func CorrectFloat(f float64, decimals int, epsilon float64) float64 {
	m := math.Pow(10, float64(decimals))
	r := math.Round(f*m) / m
	if math.Abs(r-f) < epsilon {
		return r
	}
	return f
}

// Correct applies CorrectFloat to every component.
func Correct(v mgl64.Vec3, decimals int, epsilon float64) mgl64.Vec3 {
	return mgl64.Vec3{
		CorrectFloat(v[0], decimals, epsilon),
		CorrectFloat(v[1], decimals, epsilon),
		CorrectFloat(v[2], decimals, epsilon),
	}
}

// Correct2 applies CorrectFloat to both components of a 2D vector.
func Correct2(v mgl64.Vec2, decimals int, epsilon float64) mgl64.Vec2 {
	return mgl64.Vec2{
		CorrectFloat(v[0], decimals, epsilon),
		CorrectFloat(v[1], decimals, epsilon),
	}
}

// Snap rounds every component to the nearest multiple of grid.
func Snap(v mgl64.Vec3, grid float64) mgl64.Vec3 {
	return mgl64.Vec3{
		grid * math.Round(v[0]/grid),
		grid * math.Round(v[1]/grid),
		grid * math.Round(v[2]/grid),
	}
}

// AbsMaxComponent returns the index of the component with the largest magnitude.
// Ties go to the lower index.
func AbsMaxComponent(v mgl64.Vec3) int {
	best := 0
	for i := 1; i < 3; i++ {
		if math.Abs(v[i]) > math.Abs(v[best]) {
			best = i
		}
	}
	return best
}

// NormalizeDegrees maps an angle in degrees to [0, 360).
func NormalizeDegrees(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	if angle >= 360 {
		angle -= 360
	}
	return angle
}

// MeasureAngle returns the counterclockwise angle in radians, in [0, 2π), by which axis
// must be rotated about up to reach v. Both v and axis must be unit vectors.
func MeasureAngle(v, axis, up mgl64.Vec3) float64 {
	cos := v.Dot(axis)
	if mgl64.FloatEqualThreshold(cos, 1, AlmostZero*AlmostZero) {
		return 0
	}
	if mgl64.FloatEqualThreshold(cos, -1, AlmostZero*AlmostZero) {
		return math.Pi
	}
	angle := math.Acos(mgl64.Clamp(cos, -1, 1))
	if axis.Cross(v).Dot(up) < 0 {
		return 2*math.Pi - angle
	}
	return angle
}

// TangentBasis returns two unit vectors orthogonal to normal and to each other.
func TangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var tangent1 mgl64.Vec3
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	} else {
		tangent1 = mgl64.Vec3{1, 0, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}

// SquaredDistance is |a - b|².
func SquaredDistance(a, b mgl64.Vec3) float64 {
	return a.Sub(b).LenSqr()
}
