package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Segment is a line segment. NewSegment orders its endpoints lexicographically so that two
// segments over the same points compare equal regardless of direction.
type Segment struct {
	Start mgl64.Vec3
	End   mgl64.Vec3
}

// NewSegment creates a segment with ordered endpoints.
func NewSegment(a, b mgl64.Vec3) Segment {
	if CompareVec3(a, b) > 0 {
		a, b = b, a
	}
	return Segment{Start: a, End: b}
}

// Center returns the midpoint.
func (s Segment) Center() mgl64.Vec3 {
	return s.Start.Add(s.End).Mul(0.5)
}

// Length returns the distance between both endpoints.
func (s Segment) Length() float64 {
	return s.End.Sub(s.Start).Len()
}

// Transform applies m to both endpoints.
func (s Segment) Transform(m mgl64.Mat4) Segment {
	return NewSegment(MulPoint(m, s.Start), MulPoint(m, s.End))
}

// ApproxEqual compares both endpoints within epsilon.
func (s Segment) ApproxEqual(other Segment, epsilon float64) bool {
	return VecEqual(s.Start, other.Start, epsilon) && VecEqual(s.End, other.End, epsilon)
}

// Polygon is a planar loop of vertices. Its orientation is the winding order of Vertices.
type Polygon struct {
	Vertices []mgl64.Vec3
}

// NewPolygon copies the given vertices into a polygon.
func NewPolygon(vertices ...mgl64.Vec3) Polygon {
	return Polygon{Vertices: append([]mgl64.Vec3(nil), vertices...)}
}

// Center returns the average of the vertices.
func (p Polygon) Center() mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, v := range p.Vertices {
		sum = sum.Add(v)
	}
	if len(p.Vertices) == 0 {
		return sum
	}
	return sum.Mul(1 / float64(len(p.Vertices)))
}

// Normal computes the Newell normal of the loop. The vector is normalized unless the
// polygon is degenerate, in which case the zero vector is returned.
func (p Polygon) Normal() mgl64.Vec3 {
	var n mgl64.Vec3
	count := len(p.Vertices)
	for i := 0; i < count; i++ {
		cur := p.Vertices[i]
		next := p.Vertices[(i+1)%count]
		n[0] += (cur.Y() - next.Y()) * (cur.Z() + next.Z())
		n[1] += (cur.Z() - next.Z()) * (cur.X() + next.X())
		n[2] += (cur.X() - next.X()) * (cur.Y() + next.Y())
	}
	length := n.Len()
	if length < ColinearEpsilon {
		return mgl64.Vec3{}
	}
	return n.Mul(1 / length)
}

// Area returns the area enclosed by the loop.
func (p Polygon) Area() float64 {
	var cross mgl64.Vec3
	count := len(p.Vertices)
	for i := 0; i < count; i++ {
		cross = cross.Add(p.Vertices[i].Cross(p.Vertices[(i+1)%count]))
	}
	return math.Abs(cross.Dot(p.Normal())) / 2
}

// Transform applies m to every vertex.
func (p Polygon) Transform(m mgl64.Mat4) Polygon {
	out := make([]mgl64.Vec3, len(p.Vertices))
	for i, v := range p.Vertices {
		out[i] = MulPoint(m, v)
	}
	return Polygon{Vertices: out}
}

// HasVertex reports whether any vertex equals v within epsilon.
func (p Polygon) HasVertex(v mgl64.Vec3, epsilon float64) bool {
	for _, u := range p.Vertices {
		if VecEqual(u, v, epsilon) {
			return true
		}
	}
	return false
}

// ApproxEqual compares two loops up to a cyclic shift. The winding must be the same.
func (p Polygon) ApproxEqual(other Polygon, epsilon float64) bool {
	count := len(p.Vertices)
	if count != len(other.Vertices) {
		return false
	}
	if count == 0 {
		return true
	}
	for shift := 0; shift < count; shift++ {
		if !VecEqual(p.Vertices[0], other.Vertices[shift], epsilon) {
			continue
		}
		match := true
		for i := 1; i < count && match; i++ {
			match = VecEqual(p.Vertices[i], other.Vertices[(i+shift)%count], epsilon)
		}
		if match {
			return true
		}
	}
	return false
}

// ContainsPoint tests whether a point on the polygon's plane lies inside the convex loop,
// with normal giving the loop's orientation.
func (p Polygon) ContainsPoint(point, normal mgl64.Vec3, epsilon float64) bool {
	count := len(p.Vertices)
	if count < 3 {
		return false
	}
	for i := 0; i < count; i++ {
		a := p.Vertices[i]
		b := p.Vertices[(i+1)%count]
		edge := b.Sub(a)
		length := edge.Len()
		if length == 0 {
			continue
		}
		if edge.Cross(point.Sub(a)).Dot(normal)/length < -epsilon {
			return false
		}
	}
	return true
}
