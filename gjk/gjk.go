// Package gjk tests two convex shapes for overlap with the Gilbert-Johnson-Keerthi
// algorithm.
//
// Two shapes overlap when their Minkowski difference contains the origin. The algorithm
// grows a simplex of support points towards the origin and stops as soon as it either
// encloses it or proves that it cannot be reached.
package gjk

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Shape is a convex set that can report its furthest point in a direction.
type Shape interface {
	// Support returns the point of the shape with the largest projection onto direction.
	Support(direction mgl64.Vec3) mgl64.Vec3
	// Center returns any point inside the shape. It seeds the first search direction.
	Center() mgl64.Vec3
}

// PointCloud is the convex hull of a finite set of points.
type PointCloud []mgl64.Vec3

// Support returns the point with the largest dot product with direction.
func (c PointCloud) Support(direction mgl64.Vec3) mgl64.Vec3 {
	if len(c) == 0 {
		return mgl64.Vec3{}
	}
	best := c[0]
	bestDot := best.Dot(direction)
	for _, p := range c[1:] {
		if d := p.Dot(direction); d > bestDot {
			best, bestDot = p, d
		}
	}
	return best
}

// Center returns the average of the points.
func (c PointCloud) Center() mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, p := range c {
		sum = sum.Add(p)
	}
	if len(c) == 0 {
		return sum
	}
	return sum.Mul(1 / float64(len(c)))
}

// Simplex holds between one and four points of the Minkowski difference. The most recent
// point is always last.
type Simplex struct {
	Points [4]mgl64.Vec3
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

var SimplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// MaxIterations bounds the refinement loop.
const MaxIterations = 32

// MinkowskiSupport returns the support point of A - B in direction.
func MinkowskiSupport(a, b Shape, direction mgl64.Vec3) mgl64.Vec3 {
	return a.Support(direction).Sub(b.Support(direction.Mul(-1)))
}

// Intersects reports whether the convex shapes a and b overlap, using a pooled simplex.
func Intersects(a, b Shape) bool {
	simplex := SimplexPool.Get().(*Simplex)
	defer SimplexPool.Put(simplex)
	simplex.Reset()
	return GJK(a, b, simplex)
}

// GJK runs the overlap test, leaving the final simplex in simplex. Shapes that only touch
// may be reported either way.
func GJK(a, b Shape, simplex *Simplex) bool {
	direction := b.Center().Sub(a.Center())
	if direction.LenSqr() < 1e-8 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	simplex.Points[0] = MinkowskiSupport(a, b, direction)
	simplex.Count = 1

	direction = simplex.Points[0].Mul(-1)
	if direction.LenSqr() < 1e-16 {
		return true
	}

	for i := 0; i < MaxIterations; i++ {
		newPoint := MinkowskiSupport(a, b, direction)

		// The new point does not pass the origin: the shapes are separated.
		if newPoint.Dot(direction) <= 0 {
			return false
		}

		simplex.Points[simplex.Count] = newPoint
		simplex.Count++

		if containsOrigin(simplex, &direction) {
			return true
		}
	}

	return false
}

// containsOrigin reduces the simplex to the feature closest to the origin and updates the
// search direction. Only a tetrahedron can contain the origin.
func containsOrigin(simplex *Simplex, direction *mgl64.Vec3) bool {
	switch simplex.Count {
	case 2:
		return line(simplex, direction)
	case 3:
		return triangle(simplex, direction)
	case 4:
		return tetrahedron(simplex, direction)
	}
	return false
}

// line handles the segment AB, A being the newest point.
func line(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[1]
	b := simplex.Points[0]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	if ab.LenSqr() < 1e-8 {
		if ao.LenSqr() < 1e-8 {
			return true
		}
		simplex.Points[0] = a
		simplex.Count = 1
		*direction = ao
		return false
	}

	// Region A.
	if ab.Dot(ao) <= 0 {
		simplex.Points[0] = a
		simplex.Count = 1
		*direction = ao
		return false
	}

	// Region AB. A null perpendicular means the origin lies on the segment.
	abPerp := ab.Cross(ao).Cross(ab)
	if abPerp.LenSqr() < 1e-8 {
		return true
	}

	*direction = abPerp
	return false
}

// triangle handles ABC, A being the newest point. Collinear points fall back to a segment.
func triangle(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[2]
	b := simplex.Points[1]
	c := simplex.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)
	abc := ab.Cross(ac)

	if abc.LenSqr() < 1e-10 {
		simplex.Points[0] = b
		simplex.Points[1] = a
		simplex.Count = 2
		return line(simplex, direction)
	}

	if ab.Cross(abc).Dot(ao) > 0 {
		simplex.Points[0] = b
		simplex.Points[1] = a
		simplex.Count = 2
		*direction = ab.Cross(ao).Cross(ab)
		return false
	}

	if abc.Cross(ac).Dot(ao) > 0 {
		simplex.Points[0] = c
		simplex.Points[1] = a
		simplex.Count = 2
		*direction = ac.Cross(ao).Cross(ac)
		return false
	}

	if abc.Dot(ao) > 0 {
		*direction = abc
	} else {
		// Origin below: flip the winding so the normal faces it.
		simplex.Points[0] = a
		simplex.Points[1] = c
		simplex.Points[2] = b
		simplex.Count = 3
		*direction = abc.Mul(-1)
	}

	return false
}

// tetrahedron handles ABCD, A being the newest point. Each face normal is oriented away
// from the opposite vertex before testing the origin against it.
func tetrahedron(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[3]
	b := simplex.Points[2]
	c := simplex.Points[1]
	d := simplex.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Mul(-1)

	abc := outward(ab.Cross(ac), ad)
	acd := outward(ac.Cross(ad), ab)
	adb := outward(ad.Cross(ab), ac)

	reduce := func(p0, p1, p2 mgl64.Vec3) bool {
		simplex.Points[0] = p0
		simplex.Points[1] = p1
		simplex.Points[2] = p2
		simplex.Count = 3
		return triangle(simplex, direction)
	}

	if abc.LenSqr() < 1e-10 || acd.LenSqr() < 1e-10 || adb.LenSqr() < 1e-10 {
		return reduce(c, b, a)
	}

	switch {
	case abc.Dot(ao) > 0:
		return reduce(c, b, a)
	case acd.Dot(ao) > 0:
		return reduce(d, c, a)
	case adb.Dot(ao) > 0:
		return reduce(b, d, a)
	}

	return true
}

func outward(normal, towardsOpposite mgl64.Vec3) mgl64.Vec3 {
	if normal.Dot(towardsOpposite) > 0 {
		return normal.Mul(-1)
	}
	return normal
}
