// Package builder creates primitive brushes: cuboids, cylinders, cones and spheres, and
// brushes from arbitrary point clouds.
//
// Round primitives are built in the XY plane from a CircleShape and rotated onto the
// requested axis. Every brush face gets the builder's default attributes with the
// requested material.
package builder

import (
	"math"

	"github.com/akmonengine/brushwork/brush"
	"github.com/akmonengine/brushwork/geom"
	"github.com/akmonengine/brushwork/polyhedron"
	"github.com/akmonengine/brushwork/result"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var (
	// ErrEmptyPolyhedron is returned when the points of a brush enclose no volume.
	ErrEmptyPolyhedron = errors.New("cannot create brush from empty polyhedron")

	// ErrInvalidShape is returned for a circle shape or wall thickness that cannot be built.
	ErrInvalidShape = errors.New("invalid shape")
)

// Axis indices for the round primitives.
const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// SideMaterials names the material of every side of a cuboid.
type SideMaterials struct {
	Left   string // -X
	Right  string // +X
	Front  string // -Y
	Back   string // +Y
	Top    string // +Z
	Bottom string // -Z
}

// UniformMaterials uses the same material on every side.
func UniformMaterials(material string) SideMaterials {
	return SideMaterials{material, material, material, material, material, material}
}

// Builder creates brushes for one map format inside fixed world bounds. It holds no other
// state and never changes a brush once returned.
type Builder struct {
	format            brush.MapFormat
	worldBounds       geom.BBox
	defaultAttributes brush.Attributes
}

func New(format brush.MapFormat, worldBounds geom.BBox, defaultAttributes brush.Attributes) *Builder {
	return &Builder{
		format:            format,
		worldBounds:       worldBounds,
		defaultAttributes: defaultAttributes,
	}
}

func (b *Builder) Format() brush.MapFormat { return b.format }

func (b *Builder) WorldBounds() geom.BBox { return b.worldBounds }

func (b *Builder) attributes(material string) brush.Attributes {
	attributes := b.defaultAttributes
	attributes.MaterialName = lo.Ternary(material == "", brush.NoMaterialName, material)
	return attributes
}

// CreateCube returns an axis aligned cube of the given edge length centered on the origin.
func (b *Builder) CreateCube(size float64, material string) (*brush.Brush, error) {
	return b.CreateCuboid(geom.NewBBox(size/2), UniformMaterials(material))
}

type cuboidSide struct {
	p0, p1, p2 mgl64.Vec3
	material   string
}

// CreateCuboid returns the brush filling bounds.
func (b *Builder) CreateCuboid(bounds geom.BBox, materials SideMaterials) (*brush.Brush, error) {
	x, y, z := mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}
	sides := []cuboidSide{
		{bounds.Min, bounds.Min.Add(y), bounds.Min.Add(z), materials.Left},
		{bounds.Max, bounds.Max.Add(z), bounds.Max.Add(y), materials.Right},
		{bounds.Min, bounds.Min.Add(z), bounds.Min.Add(x), materials.Front},
		{bounds.Max, bounds.Max.Add(x), bounds.Max.Add(z), materials.Back},
		{bounds.Max, bounds.Max.Add(y), bounds.Max.Add(x), materials.Top},
		{bounds.Min, bounds.Min.Add(x), bounds.Min.Add(y), materials.Bottom},
	}

	faces, err := result.Fold(lo.Map(sides, func(side cuboidSide, _ int) result.Result[brush.BrushFace] {
		return result.Of(brush.NewBrushFace(side.p0, side.p1, side.p2, b.attributes(side.material), b.format))
	}))
	if err != nil {
		return nil, errors.Wrap(err, "creating cuboid faces")
	}
	return brush.New(b.worldBounds, faces)
}

// CreateCylinder returns a prism over the circle shape fitted to bounds, running along
// axis.
func (b *Builder) CreateCylinder(bounds geom.BBox, shape CircleShape, axis int, material string) (*brush.Brush, error) {
	if err := validateShape(shape); err != nil {
		return nil, err
	}
	if err := validateAxis(axis); err != nil {
		return nil, err
	}
	toXY, fromXY := geom.AxisRotation(axis)
	boundsXY := rotateBounds(bounds, toXY)

	circle := makeCircle(shape, xy(boundsXY))
	vertices := append(atZ(circle, boundsXY.Min.Z()), atZ(circle, boundsXY.Max.Z())...)
	return b.CreateBrushFromPoints(rotatePoints(vertices, fromXY), material)
}

// CreateHollowCylinder returns one brush per side of the circle shape, together forming
// a tube whose wall has the given thickness. Bounds too small for an inner wall yield
// wedges meeting in the middle.
func (b *Builder) CreateHollowCylinder(bounds geom.BBox, thickness float64, shape CircleShape, axis int, material string) ([]*brush.Brush, error) {
	if err := validateShape(shape); err != nil {
		return nil, err
	}
	if thickness <= 0 {
		return nil, errors.Wrapf(ErrInvalidShape, "wall thickness %v", thickness)
	}
	if err := validateAxis(axis); err != nil {
		return nil, err
	}
	toXY, fromXY := geom.AxisRotation(axis)
	boundsXY := rotateBounds(bounds, toXY)

	outer := makeCircle(shape, xy(boundsXY))
	inner, err := makeInnerCircle(outer, thickness, shape, xy(boundsXY))
	if err != nil {
		return nil, err
	}
	if len(inner) != len(outer) {
		panic(errors.Errorf("inner wall has %d vertices, outer wall %d", len(inner), len(outer)))
	}

	n := len(outer)
	fragments := lo.Times(n, func(i int) result.Result[*brush.Brush] {
		ring := []mgl64.Vec2{outer[i], inner[i], outer[(i+1)%n], inner[(i+1)%n]}
		vertices := append(atZ(ring, boundsXY.Min.Z()), atZ(ring, boundsXY.Max.Z())...)
		return result.Of(b.CreateBrushFromPoints(rotatePoints(vertices, fromXY), material))
	})
	brushes, err := result.Fold(fragments)
	if err != nil {
		return nil, errors.Wrap(err, "creating hollow cylinder")
	}
	return brushes, nil
}

// CreateCone returns a cone with its base on the lower side of bounds along axis. A
// stretched scalable cone ends in an edge instead of a tip.
func (b *Builder) CreateCone(bounds geom.BBox, shape CircleShape, axis int, material string) (*brush.Brush, error) {
	if err := validateShape(shape); err != nil {
		return nil, err
	}
	if err := validateAxis(axis); err != nil {
		return nil, err
	}
	toXY, fromXY := geom.AxisRotation(axis)
	boundsXY := rotateBounds(bounds, toXY)

	var vertices []mgl64.Vec3
	switch s := shape.(type) {
	case ScalableCircle:
		vertices = append(
			atZ(makeScalableCircle(s.Precision, xy(boundsXY)), boundsXY.Min.Z()),
			atZ(scalableTip(xy(boundsXY)), boundsXY.Max.Z())...)
	case EdgeAlignedCircle, VertexAlignedCircle:
		vertices = append(
			atZ(makeCircle(shape, xy(boundsXY)), boundsXY.Min.Z()),
			topCenter(boundsXY))
	}
	return b.CreateBrushFromPoints(rotatePoints(vertices, fromXY), material)
}

// CreateUVSphere returns a sphere made of rings of the circle shape stacked along axis.
// Aligned shapes use numRings rings between the poles; a scalable shape derives its
// ring count from its precision so that every vertex stays on grid.
func (b *Builder) CreateUVSphere(bounds geom.BBox, shape CircleShape, numRings int, axis int, material string) (*brush.Brush, error) {
	if err := validateShape(shape); err != nil {
		return nil, err
	}
	if err := validateAxis(axis); err != nil {
		return nil, err
	}
	toXY, fromXY := geom.AxisRotation(axis)
	boundsXY := rotateBounds(bounds, toXY)

	var vertices []mgl64.Vec3
	switch s := shape.(type) {
	case ScalableCircle:
		vertices = makeScalableUVSphere(boundsXY, s.Precision)
	case EdgeAlignedCircle, VertexAlignedCircle:
		if numRings < 1 {
			return nil, errors.Wrapf(ErrInvalidShape, "sphere with %d rings", numRings)
		}
		vertices = makeAlignedUVSphere(boundsXY, shape, numRings)
	}
	return b.CreateBrushFromPoints(rotatePoints(vertices, fromXY), material)
}

// CreateIcoSphere returns a subdivided icosahedron stretched to bounds.
func (b *Builder) CreateIcoSphere(bounds geom.BBox, iterations int, material string) (*brush.Brush, error) {
	if iterations < 0 {
		return nil, errors.Wrapf(ErrInvalidShape, "ico sphere with %d iterations", iterations)
	}
	size := bounds.Size()
	vertices := lo.Map(icoSphereVertices(iterations), func(v mgl64.Vec3, _ int) mgl64.Vec3 {
		return mgl64.Vec3{
			bounds.Min.X() + size.X()*(v.X()+1)/2,
			bounds.Min.Y() + size.Y()*(v.Y()+1)/2,
			bounds.Min.Z() + size.Z()*(v.Z()+1)/2,
		}
	})
	return b.CreateBrushFromPoints(vertices, material)
}

// CreateBrushFromPoints returns the brush of the convex hull of points.
func (b *Builder) CreateBrushFromPoints(points []mgl64.Vec3, material string) (*brush.Brush, error) {
	return b.CreateBrushFromPolyhedron(polyhedron.New(points...), material)
}

// CreateBrushFromPolyhedron returns a brush with one face per face of geometry.
func (b *Builder) CreateBrushFromPolyhedron(geometry *polyhedron.Polyhedron, material string) (*brush.Brush, error) {
	if !geometry.Polyhedron() {
		return nil, errors.Wrapf(ErrEmptyPolyhedron, "polyhedron is a %s", geometry.Dimension())
	}
	return brush.NewFromPolyhedron(b.worldBounds, geometry, b.attributes(material), b.format)
}

func validateAxis(axis int) error {
	if axis < AxisX || axis > AxisZ {
		return errors.Wrapf(ErrInvalidShape, "axis %d", axis)
	}
	return nil
}

func rotateBounds(bounds geom.BBox, m mgl64.Mat4) geom.BBox {
	rotated := bounds.Transform(m)
	return geom.BBox{
		Min: geom.Correct(rotated.Min, 0, geom.CorrectEpsilon),
		Max: geom.Correct(rotated.Max, 0, geom.CorrectEpsilon),
	}
}

func rotatePoints(points []mgl64.Vec3, m mgl64.Mat4) []mgl64.Vec3 {
	if m == mgl64.Ident4() {
		return points
	}
	return lo.Map(geom.MulPoints(m, points), func(p mgl64.Vec3, _ int) mgl64.Vec3 {
		return geom.Correct(p, 0, geom.CorrectEpsilon)
	})
}

func atZ(points []mgl64.Vec2, z float64) []mgl64.Vec3 {
	return lo.Map(points, func(p mgl64.Vec2, _ int) mgl64.Vec3 {
		return p.Vec3(z)
	})
}

func topCenter(bounds geom.BBox) mgl64.Vec3 {
	return xy(bounds).Center().Vec3(bounds.Max.Z())
}

// scalableTip is the apex of a scalable cone: a point for square bounds, an edge otherwise.
func scalableTip(bounds Rect) []mgl64.Vec2 {
	return lo.Uniq(wedgeCorners(bounds))
}

// midpoints inserts the mean of every pair of neighbours.
func midpoints(ratios []float64) []float64 {
	out := make([]float64, 0, 2*len(ratios)-1)
	for i, r := range ratios {
		if i > 0 {
			out = append(out, (ratios[i-1]+r)/2)
		}
		out = append(out, r)
	}
	return out
}

// ringRatios subdivides the upper quarter of a scalable sphere profile and mirrors it to
// the lower half, negating the mirrored values if negate is set.
func ringRatios(seed []float64, precision int, negate bool) []float64 {
	ratios := seed
	for range precision {
		ratios = midpoints(ratios)
	}
	n := len(ratios)
	for i := n - 2; i >= 0; i-- {
		ratios = append(ratios, lo.Ternary(negate, -ratios[i], ratios[i]))
	}
	return ratios
}

func makeScalableUVSphere(bounds geom.BBox, precision int) []mgl64.Vec3 {
	zRatios := ringRatios([]float64{1, 7.0 / 8, 1.0 / 2, 0}, precision, true)
	sizeRatios := ringRatios([]float64{0, 1.0 / 2, 7.0 / 8, 1}, precision, false)

	center := bounds.Center()
	halfHeight := bounds.Size().Z() / 2
	halfSide := math.Min(bounds.Size().X(), bounds.Size().Y()) / 2
	z := func(i int) float64 { return center.Z() + halfHeight*zRatios[i] }

	last := len(zRatios) - 1
	vertices := atZ(scalableTip(xy(bounds)), z(0))
	for i := 1; i < last; i++ {
		ring := makeScalableCircle(precision, xy(bounds).Expand(-halfSide*(1-sizeRatios[i])))
		vertices = append(vertices, atZ(ring, z(i))...)
	}
	return append(vertices, atZ(scalableTip(xy(bounds)), z(last))...)
}

func makeAlignedUVSphere(bounds geom.BBox, shape CircleShape, numRings int) []mgl64.Vec3 {
	angleDelta := math.Pi / float64(numRings+1)
	center := xy(bounds).Center()
	circle := makeCircle(shape, xy(bounds))

	// An even ring count has no ring on the equator; widen it so the sphere still fills
	// the bounds.
	extraScale := 1.0
	if numRings%2 == 0 {
		extraScale = 1 / math.Sin(angleDelta*float64(numRings/2))
	}

	vertices := []mgl64.Vec3{topCenter(bounds)}
	for i := 1; i <= numRings; i++ {
		angle := float64(i) * angleDelta
		r := math.Sin(angle) * extraScale
		z := bounds.Center().Z() + math.Cos(angle)*bounds.Size().Z()/2
		vertices = append(vertices, lo.Map(circle, func(v mgl64.Vec2, _ int) mgl64.Vec3 {
			return center.Add(v.Sub(center).Mul(r)).Vec3(z)
		})...)
	}
	return append(vertices, center.Vec3(bounds.Min.Z()))
}

var (
	icosahedronVertices = func() []mgl64.Vec3 {
		phi := (1 + math.Sqrt(5)) / 2
		return lo.Map([]mgl64.Vec3{
			{-1, phi, 0}, {1, phi, 0}, {-1, -phi, 0}, {1, -phi, 0},
			{0, -1, phi}, {0, 1, phi}, {0, -1, -phi}, {0, 1, -phi},
			{phi, 0, -1}, {phi, 0, 1}, {-phi, 0, -1}, {-phi, 0, 1},
		}, func(v mgl64.Vec3, _ int) mgl64.Vec3 { return v.Normalize() })
	}()

	icosahedronTriangles = [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
)

// icoSphereVertices returns the vertices of the unit icosahedron after splitting every
// triangle into four the given number of times.
func icoSphereVertices(iterations int) []mgl64.Vec3 {
	vertices := append([]mgl64.Vec3(nil), icosahedronVertices...)
	triangles := icosahedronTriangles

	for range iterations {
		cache := make(map[[2]int]int)
		midpoint := func(a, b int) int {
			key := [2]int{min(a, b), max(a, b)}
			if i, ok := cache[key]; ok {
				return i
			}
			vertices = append(vertices, vertices[a].Add(vertices[b]).Normalize())
			cache[key] = len(vertices) - 1
			return len(vertices) - 1
		}

		next := make([][3]int, 0, 4*len(triangles))
		for _, t := range triangles {
			ab, bc, ca := midpoint(t[0], t[1]), midpoint(t[1], t[2]), midpoint(t[2], t[0])
			next = append(next,
				[3]int{t[0], ab, ca},
				[3]int{t[1], bc, ab},
				[3]int{t[2], ca, bc},
				[3]int{ab, bc, ca},
			)
		}
		triangles = next
	}
	return vertices
}
