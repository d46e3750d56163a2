package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// PlaneStatus classifies a point against a plane.
type PlaneStatus int

const (
	Below PlaneStatus = iota
	Inside
	Above
)

// Side selects which side of a face a ray may hit.
type Side int

const (
	Front Side = iota
	Back
	Both
)

// Plane is the set of points p with p·Normal = Distance. Normal is a unit vector and
// points towards the "above" half-space.
type Plane struct {
	Normal   mgl64.Vec3
	Distance float64
}

// NewPlane creates the plane with the given normal passing through anchor.
func NewPlane(normal, anchor mgl64.Vec3) Plane {
	return Plane{Normal: normal, Distance: anchor.Dot(normal)}
}

// PlaneFromPoints builds a plane from three points, using the map file convention that the
// points are clockwise when seen from above: normal = normalize((p2-p0) × (p1-p0)).
// Returns false if the points are collinear.
func PlaneFromPoints(p0, p1, p2 mgl64.Vec3) (Plane, bool) {
	normal := p2.Sub(p0).Cross(p1.Sub(p0))
	length := normal.Len()
	if length < ColinearEpsilon {
		return Plane{}, false
	}
	normal = normal.Mul(1 / length)
	return Plane{Normal: normal, Distance: p0.Dot(normal)}, true
}

// PointDistance returns the signed distance of point from the plane.
func (p Plane) PointDistance(point mgl64.Vec3) float64 {
	return point.Dot(p.Normal) - p.Distance
}

// PointStatus classifies point against the plane with the given thickness.
func (p Plane) PointStatus(point mgl64.Vec3, epsilon float64) PlaneStatus {
	distance := p.PointDistance(point)
	if distance > epsilon {
		return Above
	}
	if distance < -epsilon {
		return Below
	}
	return Inside
}

// Anchor returns the point of the plane closest to the origin.
func (p Plane) Anchor() mgl64.Vec3 {
	return p.Normal.Mul(p.Distance)
}

// Flip returns the same plane with the opposite orientation.
func (p Plane) Flip() Plane {
	return Plane{Normal: p.Normal.Mul(-1), Distance: -p.Distance}
}

// Translate moves the plane by delta.
func (p Plane) Translate(delta mgl64.Vec3) Plane {
	return Plane{Normal: p.Normal, Distance: p.Distance + delta.Dot(p.Normal)}
}

// ProjectPoint projects point orthogonally onto the plane.
func (p Plane) ProjectPoint(point mgl64.Vec3) mgl64.Vec3 {
	return point.Sub(p.Normal.Mul(p.PointDistance(point)))
}

// ProjectPointAlong projects point onto the plane along direction. Returns false if the
// direction is parallel to the plane.
func (p Plane) ProjectPointAlong(point, direction mgl64.Vec3) (mgl64.Vec3, bool) {
	cos := direction.Dot(p.Normal)
	if math.Abs(cos) < ColinearEpsilon {
		return mgl64.Vec3{}, false
	}
	t := -p.PointDistance(point) / cos
	return point.Add(direction.Mul(t)), true
}

// ApproxEqual compares normal and distance within epsilon.
func (p Plane) ApproxEqual(other Plane, epsilon float64) bool {
	return VecEqual(p.Normal, other.Normal, epsilon) && math.Abs(p.Distance-other.Distance) <= epsilon
}

// IntersectRay returns the distance along the ray at which it crosses the plane.
func (p Plane) IntersectRay(ray Ray) (float64, bool) {
	cos := ray.Direction.Dot(p.Normal)
	if math.Abs(cos) < ColinearEpsilon {
		return 0, false
	}
	t := -p.PointDistance(ray.Origin) / cos
	if t < 0 {
		return 0, false
	}
	return t, true
}

// IntersectPlane returns the line shared by both planes. Returns false for parallel planes.
func (p Plane) IntersectPlane(other Plane) (Line, bool) {
	direction := p.Normal.Cross(other.Normal)
	if direction.Len() < ColinearEpsilon {
		return Line{}, false
	}

	n11 := p.Normal.Dot(p.Normal)
	n22 := other.Normal.Dot(other.Normal)
	n12 := p.Normal.Dot(other.Normal)
	det := n11*n22 - n12*n12
	c1 := (p.Distance*n22 - other.Distance*n12) / det
	c2 := (other.Distance*n11 - p.Distance*n12) / det

	return Line{
		Point:     p.Normal.Mul(c1).Add(other.Normal.Mul(c2)),
		Direction: direction.Normalize(),
	}, true
}

// Line is an infinite line through Point along the unit vector Direction.
type Line struct {
	Point     mgl64.Vec3
	Direction mgl64.Vec3
}

// ProjectPoint returns the point of the line closest to point.
func (l Line) ProjectPoint(point mgl64.Vec3) mgl64.Vec3 {
	return l.Point.Add(l.Direction.Mul(point.Sub(l.Point).Dot(l.Direction)))
}

// Ray is a half line from Origin along the unit vector Direction.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// PointAt returns the point at distance t along the ray.
func (r Ray) PointAt(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Transform applies m to the plane. The normal goes through the inverse transpose of the
// linear part of m, so the result stays correct under non-uniform scaling. Returns false
// if m is singular.
func (p Plane) Transform(m mgl64.Mat4) (Plane, bool) {
	linear := m.Mat3()
	if math.Abs(linear.Det()) < 1e-12 {
		return Plane{}, false
	}
	normal := linear.Inv().Transpose().Mul3x1(p.Normal)
	if normal.Len() < ColinearEpsilon {
		return Plane{}, false
	}
	return NewPlane(normal.Normalize(), MulPoint(m, p.Anchor())), true
}
