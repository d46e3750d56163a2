package builder

import (
	"math"

	"github.com/akmonengine/brushwork/geom"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// CircleShape selects how the cross section of a round primitive is approximated.
// The variants are EdgeAlignedCircle, VertexAlignedCircle and ScalableCircle.
type CircleShape interface {
	circleShape()
}

// EdgeAlignedCircle is a regular polygon whose edges touch the bounds.
type EdgeAlignedCircle struct {
	NumSides int
}

// VertexAlignedCircle is a regular polygon whose vertices touch the bounds.
type VertexAlignedCircle struct {
	NumSides int
}

// ScalableCircle is a polygon with 12·2^Precision vertices, all of them on the eighth
// grid of its bounds, so the shape stays on grid when the bounds are stretched.
type ScalableCircle struct {
	Precision int
}

func (EdgeAlignedCircle) circleShape()   {}
func (VertexAlignedCircle) circleShape() {}
func (ScalableCircle) circleShape()      {}

// Rect is an axis aligned rectangle in the construction plane.
type Rect struct {
	Min mgl64.Vec2
	Max mgl64.Vec2
}

func (r Rect) Size() mgl64.Vec2 { return r.Max.Sub(r.Min) }

func (r Rect) Center() mgl64.Vec2 { return r.Min.Add(r.Max).Mul(0.5) }

// Expand grows the rectangle by delta on every side; a negative delta shrinks it.
func (r Rect) Expand(delta float64) Rect {
	d := mgl64.Vec2{delta, delta}
	return Rect{Min: r.Min.Sub(d), Max: r.Max.Add(d)}
}

func xy(b geom.BBox) Rect {
	return Rect{Min: b.Min.Vec2(), Max: b.Max.Vec2()}
}

func validateShape(shape CircleShape) error {
	switch s := shape.(type) {
	case EdgeAlignedCircle:
		if s.NumSides < 3 {
			return errors.Wrapf(ErrInvalidShape, "edge aligned circle with %d sides", s.NumSides)
		}
	case VertexAlignedCircle:
		if s.NumSides < 3 {
			return errors.Wrapf(ErrInvalidShape, "vertex aligned circle with %d sides", s.NumSides)
		}
	case ScalableCircle:
		if s.Precision < 0 {
			return errors.Wrapf(ErrInvalidShape, "scalable circle with precision %d", s.Precision)
		}
	case nil:
		return errors.Wrap(ErrInvalidShape, "no circle shape")
	default:
		panic(errors.Errorf("unknown circle shape %T", shape))
	}
	return nil
}

// makeCircle returns the vertices of the shape fitted to bounds, counterclockwise.
func makeCircle(shape CircleShape, bounds Rect) []mgl64.Vec2 {
	switch s := shape.(type) {
	case EdgeAlignedCircle:
		return makeEdgeAlignedCircle(s.NumSides, bounds)
	case VertexAlignedCircle:
		return makeVertexAlignedCircle(s.NumSides, bounds)
	case ScalableCircle:
		return makeScalableCircle(s.Precision, bounds)
	default:
		panic(errors.Errorf("unknown circle shape %T", shape))
	}
}

// fitUnitSquare maps [-1, 1]² onto bounds.
func fitUnitSquare(v mgl64.Vec2, bounds Rect) mgl64.Vec2 {
	size := bounds.Size()
	return mgl64.Vec2{
		bounds.Min.X() + size.X()*(v.X()*0.5+0.5),
		bounds.Min.Y() + size.Y()*(v.Y()*0.5+0.5),
	}
}

func makeEdgeAlignedCircle(numSides int, bounds Rect) []mgl64.Vec2 {
	// half angle
	ca := math.Cos(math.Pi / float64(numSides))
	return lo.Times(numSides, func(i int) mgl64.Vec2 {
		angle := (float64(i)+0.5)*2*math.Pi/float64(numSides) - math.Pi/2
		return fitUnitSquare(mgl64.Vec2{math.Cos(angle) / ca, math.Sin(angle) / ca}, bounds)
	})
}

func makeVertexAlignedCircle(numSides int, bounds Rect) []mgl64.Vec2 {
	return lo.Times(numSides, func(i int) mgl64.Vec2 {
		angle := float64(i)*2*math.Pi/float64(numSides) - math.Pi/2
		return fitUnitSquare(mgl64.Vec2{math.Cos(angle), math.Sin(angle)}, bounds)
	})
}

var scalableCircleSeed = []mgl64.Vec2{
	{-0.25, 1}, {-0.75, 0.75}, {-1, 0.25}, {-1, -0.25},
	{-0.75, -0.75}, {-0.25, -1}, {0.25, -1}, {0.75, -0.75},
	{1, -0.25}, {1, 0.25}, {0.75, 0.75}, {0.25, 1},
}

func makeScalableCircle(precision int, bounds Rect) []mgl64.Vec2 {
	vertices := append([]mgl64.Vec2(nil), scalableCircleSeed...)

	// cut every corner, doubling the vertex count
	for range precision {
		previous := vertices
		count := len(previous)
		vertices = make([]mgl64.Vec2, 0, 2*count)
		for j, cur := range previous {
			prev := previous[(j+count-1)%count]
			next := previous[(j+1)%count]
			vertices = append(vertices, prev.Add(cur.Sub(prev).Mul(0.75)), cur.Add(next.Sub(cur).Mul(0.25)))
		}
	}

	size := bounds.Size()
	minSize := math.Min(size.X(), size.Y())
	offset := mgl64.Vec2{math.Max(size.X()-size.Y(), 0), math.Max(size.Y()-size.X(), 0)}

	// Fit a square of the smaller side, then stretch by moving the upper halves.
	return lo.Map(vertices, func(v mgl64.Vec2, _ int) mgl64.Vec2 {
		v = v.Mul(0.5).Add(mgl64.Vec2{0.5, 0.5}).Mul(minSize)
		if v.X() > minSize/2 {
			v[0] += offset.X()
		}
		if v.Y() > minSize/2 {
			v[1] += offset.Y()
		}
		return v.Add(bounds.Min)
	})
}

// wedgeCorners returns the points where the wedges of a hollow shape too thin for an
// inner circle meet. All four coincide for square bounds.
func wedgeCorners(bounds Rect) []mgl64.Vec2 {
	size := bounds.Size()
	offset := math.Min(size.X(), size.Y()) / 2
	return []mgl64.Vec2{
		{bounds.Min.X() + offset, bounds.Min.Y() + offset},
		{bounds.Min.X() + offset, bounds.Max.Y() - offset},
		{bounds.Max.X() - offset, bounds.Min.Y() + offset},
		{bounds.Max.X() - offset, bounds.Max.Y() - offset},
	}
}

func makeWedgeVertices(outer []mgl64.Vec2, bounds Rect) []mgl64.Vec2 {
	corners := wedgeCorners(bounds)
	return lo.Map(outer, func(v mgl64.Vec2, _ int) mgl64.Vec2 {
		return lo.MinBy(corners, func(a, b mgl64.Vec2) bool {
			da, db := a.Sub(v), b.Sub(v)
			return da.Dot(da) < db.Dot(db)
		})
	})
}

// makeInnerCircle returns, for every vertex of outer, the matching vertex of the inner
// wall of a hollow shape with the given wall thickness.
func makeInnerCircle(outer []mgl64.Vec2, thickness float64, shape CircleShape, bounds Rect) ([]mgl64.Vec2, error) {
	size := bounds.Size()
	if size.X() <= 2*thickness || size.Y() <= 2*thickness {
		return makeWedgeVertices(outer, bounds), nil
	}

	switch s := shape.(type) {
	case ScalableCircle:
		return makeScalableCircle(s.Precision, bounds.Expand(-thickness)), nil
	case EdgeAlignedCircle, VertexAlignedCircle:
		return offsetPolygon(outer, thickness)
	default:
		panic(errors.Errorf("unknown circle shape %T", shape))
	}
}

type line2 struct {
	point     mgl64.Vec2
	direction mgl64.Vec2
}

// offsetPolygon moves every edge of a counterclockwise polygon inward by distance and
// intersects consecutive edges again.
func offsetPolygon(polygon []mgl64.Vec2, distance float64) ([]mgl64.Vec2, error) {
	n := len(polygon)
	lines := lo.Times(n, func(i int) line2 {
		direction := polygon[(i+1)%n].Sub(polygon[i]).Normalize()
		inward := mgl64.Vec2{-direction.Y(), direction.X()}
		return line2{point: polygon[i].Add(inward.Mul(distance)), direction: direction}
	})

	inner := make([]mgl64.Vec2, n)
	for i := range lines {
		l1, l2 := lines[(i+n-1)%n], lines[i]
		t, ok := intersectLines(l1, l2)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidShape, "edges %d and %d of the inner wall are parallel", (i+n-1)%n, i)
		}
		inner[i] = l1.point.Add(l1.direction.Mul(t))
	}
	return inner, nil
}

// intersectLines returns the distance along a at which it crosses b.
func intersectLines(a, b line2) (float64, bool) {
	cross := func(u, v mgl64.Vec2) float64 { return u.X()*v.Y() - u.Y()*v.X() }
	denominator := cross(a.direction, b.direction)
	if math.Abs(denominator) < geom.ColinearEpsilon {
		return 0, false
	}
	return cross(b.point.Sub(a.point), b.direction) / denominator, true
}
