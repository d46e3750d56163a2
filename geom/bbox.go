package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BBox represents an axis-aligned bounding box
type BBox struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// NewBBox creates the cube [-halfSize, halfSize]³, the usual shape of world bounds.
func NewBBox(halfSize float64) BBox {
	return BBox{
		Min: mgl64.Vec3{-halfSize, -halfSize, -halfSize},
		Max: mgl64.Vec3{halfSize, halfSize, halfSize},
	}
}

// BBoxFromPoints returns the smallest box containing all points. An empty input yields
// the zero box.
func BBoxFromPoints(points []mgl64.Vec3) BBox {
	if len(points) == 0 {
		return BBox{}
	}
	b := BBox{Min: points[0], Max: points[0]}
	for _, point := range points[1:] {
		b = b.MergePoint(point)
	}
	return b
}

// MergePoint grows the box to include point.
func (b BBox) MergePoint(point mgl64.Vec3) BBox {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], point[i])
		b.Max[i] = math.Max(b.Max[i], point[i])
	}
	return b
}

// Merge returns the smallest box containing both boxes.
func (b BBox) Merge(other BBox) BBox {
	return b.MergePoint(other.Min).MergePoint(other.Max)
}

// ContainsPoint checks if a point is inside the BBox
func (b BBox) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= b.Min.X() && point.X() <= b.Max.X() &&
		point.Y() >= b.Min.Y() && point.Y() <= b.Max.Y() &&
		point.Z() >= b.Min.Z() && point.Z() <= b.Max.Z()
}

// Contains checks if other lies entirely inside the box.
func (b BBox) Contains(other BBox) bool {
	return b.ContainsPoint(other.Min) && b.ContainsPoint(other.Max)
}

// Overlaps checks if two BBoxes overlap
func (b BBox) Overlaps(other BBox) bool {
	// Boxes overlap if they overlap on all three axes
	return b.Max.X() >= other.Min.X() && b.Min.X() <= other.Max.X() &&
		b.Max.Y() >= other.Min.Y() && b.Min.Y() <= other.Max.Y() &&
		b.Max.Z() >= other.Min.Z() && b.Min.Z() <= other.Max.Z()
}

// Size returns the extent of the box on each axis.
func (b BBox) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the middle of the box.
func (b BBox) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Expand grows the box by delta on every side; a negative delta shrinks it.
func (b BBox) Expand(delta float64) BBox {
	d := mgl64.Vec3{delta, delta, delta}
	return BBox{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}

// Translate moves the box by delta.
func (b BBox) Translate(delta mgl64.Vec3) BBox {
	return BBox{Min: b.Min.Add(delta), Max: b.Max.Add(delta)}
}

// Vertices returns the eight corners of the box.
func (b BBox) Vertices() [8]mgl64.Vec3 {
	return [8]mgl64.Vec3{
		{b.Min.X(), b.Min.Y(), b.Min.Z()},
		{b.Max.X(), b.Min.Y(), b.Min.Z()},
		{b.Min.X(), b.Max.Y(), b.Min.Z()},
		{b.Max.X(), b.Max.Y(), b.Min.Z()},
		{b.Min.X(), b.Min.Y(), b.Max.Z()},
		{b.Max.X(), b.Min.Y(), b.Max.Z()},
		{b.Min.X(), b.Max.Y(), b.Max.Z()},
		{b.Max.X(), b.Max.Y(), b.Max.Z()},
	}
}

// Transform returns the bounding box of the eight transformed corners.
func (b BBox) Transform(m mgl64.Mat4) BBox {
	corners := b.Vertices()
	out := BBox{Min: MulPoint(m, corners[0]), Max: MulPoint(m, corners[0])}
	for i := 1; i < 8; i++ {
		out = out.MergePoint(MulPoint(m, corners[i]))
	}
	return out
}

// Planes returns the six outward facing planes of the box.
func (b BBox) Planes() [6]Plane {
	return [6]Plane{
		{Normal: mgl64.Vec3{-1, 0, 0}, Distance: -b.Min.X()},
		{Normal: mgl64.Vec3{1, 0, 0}, Distance: b.Max.X()},
		{Normal: mgl64.Vec3{0, -1, 0}, Distance: -b.Min.Y()},
		{Normal: mgl64.Vec3{0, 1, 0}, Distance: b.Max.Y()},
		{Normal: mgl64.Vec3{0, 0, -1}, Distance: -b.Min.Z()},
		{Normal: mgl64.Vec3{0, 0, 1}, Distance: b.Max.Z()},
	}
}
