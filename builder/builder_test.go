package builder

import (
	"math"
	"testing"

	"github.com/akmonengine/brushwork/brush"
	"github.com/akmonengine/brushwork/geom"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

var worldBounds = geom.NewBBox(8192)

func vec3ApproxEqual(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance &&
		math.Abs(a.Z()-b.Z()) < tolerance
}

func bboxApproxEqual(a, b geom.BBox, tolerance float64) bool {
	return vec3ApproxEqual(a.Min, b.Min, tolerance) && vec3ApproxEqual(a.Max, b.Max, tolerance)
}

func newBuilder(format brush.MapFormat) *Builder {
	defaults := brush.NewAttributes("")
	defaults.Scale = mgl64.Vec2{0.5, 0.5}
	return New(format, worldBounds, defaults)
}

func checkBrush(t *testing.T, b *brush.Brush, vertices, faces int) {
	t.Helper()
	if b.VertexCount() != vertices || b.FaceCount() != faces {
		t.Errorf("brush has %d vertices and %d faces, want %d and %d", b.VertexCount(), b.FaceCount(), vertices, faces)
	}
	if !b.FullySpecified() {
		t.Errorf("brush is not fully specified")
	}
	if err := b.Geometry().CheckInvariants(); err != nil {
		t.Errorf("invariants broken: %v", err)
	}
}

func totalVolume(brushes []*brush.Brush) float64 {
	volume := 0.0
	for _, b := range brushes {
		volume += b.Geometry().Volume()
	}
	return volume
}

func TestCreateCube(t *testing.T) {
	for _, format := range []brush.MapFormat{brush.Standard, brush.Valve} {
		t.Run(format.String(), func(t *testing.T) {
			cube, err := newBuilder(format).CreateCube(64, "crate")
			if err != nil {
				t.Fatalf("CreateCube() error = %v", err)
			}
			checkBrush(t, cube, 8, 6)
			if cube.Bounds() != geom.NewBBox(32) {
				t.Errorf("bounds = %v", cube.Bounds())
			}
			for _, face := range cube.Faces() {
				if face.MaterialName() != "crate" {
					t.Errorf("face %v material = %q", face.Normal(), face.MaterialName())
				}
				if face.Attributes().Scale != (mgl64.Vec2{0.5, 0.5}) {
					t.Errorf("face %v scale = %v, want the default", face.Normal(), face.Attributes().Scale)
				}
			}
			if _, parallel := cube.Faces()[0].UVCoordSystem().(*brush.ParallelUVCoordSystem); parallel != format.IsParallel() {
				t.Errorf("face uses %T for %v", cube.Faces()[0].UVCoordSystem(), format)
			}
		})
	}

	t.Run("no material", func(t *testing.T) {
		cube, err := newBuilder(brush.Standard).CreateCube(16, "")
		if err != nil {
			t.Fatalf("CreateCube() error = %v", err)
		}
		if cube.Faces()[0].MaterialName() != brush.NoMaterialName {
			t.Errorf("material = %q", cube.Faces()[0].MaterialName())
		}
	})
}

func TestCreateCuboid(t *testing.T) {
	bounds := geom.BBox{Min: mgl64.Vec3{-8, 0, 16}, Max: mgl64.Vec3{24, 64, 48}}
	materials := SideMaterials{Left: "left", Right: "right", Front: "front", Back: "back", Top: "top", Bottom: "bottom"}

	cuboid, err := newBuilder(brush.Standard).CreateCuboid(bounds, materials)
	if err != nil {
		t.Fatalf("CreateCuboid() error = %v", err)
	}
	checkBrush(t, cuboid, 8, 6)
	if cuboid.Bounds() != bounds {
		t.Errorf("bounds = %v, want %v", cuboid.Bounds(), bounds)
	}

	tests := []struct {
		normal   mgl64.Vec3
		material string
	}{
		{mgl64.Vec3{-1, 0, 0}, "left"},
		{mgl64.Vec3{1, 0, 0}, "right"},
		{mgl64.Vec3{0, -1, 0}, "front"},
		{mgl64.Vec3{0, 1, 0}, "back"},
		{mgl64.Vec3{0, 0, 1}, "top"},
		{mgl64.Vec3{0, 0, -1}, "bottom"},
	}
	for _, tt := range tests {
		i, ok := cuboid.FindFaceByNormal(tt.normal, 1e-9)
		if !ok {
			t.Errorf("no face with normal %v", tt.normal)
			continue
		}
		if got := cuboid.Face(i).MaterialName(); got != tt.material {
			t.Errorf("face %v material = %q, want %q", tt.normal, got, tt.material)
		}
	}

	t.Run("outside the world", func(t *testing.T) {
		b := New(brush.Standard, geom.NewBBox(64), brush.NewAttributes(""))
		if _, err := b.CreateCuboid(geom.BBox{Min: mgl64.Vec3{100, 100, 100}, Max: mgl64.Vec3{116, 116, 116}}, UniformMaterials("x")); err == nil {
			t.Errorf("expected an error for a cuboid outside the world")
		}
	})
}

func TestMakeCircle(t *testing.T) {
	bounds := Rect{Min: mgl64.Vec2{0, 0}, Max: mgl64.Vec2{64, 64}}

	tests := []struct {
		name     string
		shape    CircleShape
		vertices int
		first    mgl64.Vec2
	}{
		{"edge aligned square", EdgeAlignedCircle{NumSides: 4}, 4, mgl64.Vec2{64, 0}},
		{"vertex aligned octagon", VertexAlignedCircle{NumSides: 8}, 8, mgl64.Vec2{32, 0}},
		{"scalable", ScalableCircle{Precision: 0}, 12, mgl64.Vec2{24, 64}},
		{"scalable, once subdivided", ScalableCircle{Precision: 1}, 24, mgl64.Vec2{28, 64}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			circle := makeCircle(tt.shape, bounds)
			if len(circle) != tt.vertices {
				t.Fatalf("got %d vertices, want %d", len(circle), tt.vertices)
			}
			if math.Abs(circle[0].X()-tt.first.X()) > 1e-9 || math.Abs(circle[0].Y()-tt.first.Y()) > 1e-9 {
				t.Errorf("first vertex = %v, want %v", circle[0], tt.first)
			}
			// counterclockwise winding has a positive signed area
			area := 0.0
			for i, v := range circle {
				w := circle[(i+1)%len(circle)]
				area += v.X()*w.Y() - w.X()*v.Y()
			}
			if area <= 0 {
				t.Errorf("circle winds clockwise")
			}
		})
	}
}

func TestMakeScalableCircle_Stretched(t *testing.T) {
	circle := makeScalableCircle(0, Rect{Min: mgl64.Vec2{0, 0}, Max: mgl64.Vec2{64, 32}})
	for _, v := range circle {
		if v.X() < 0 || v.X() > 64 || v.Y() < 0 || v.Y() > 32 {
			t.Errorf("vertex %v is outside the bounds", v)
		}
		if math.Mod(v.X(), 4) != 0 || math.Mod(v.Y(), 4) != 0 {
			t.Errorf("vertex %v is off the grid", v)
		}
	}
}

func TestCreateCylinder(t *testing.T) {
	b := newBuilder(brush.Standard)

	t.Run("square prism", func(t *testing.T) {
		bounds := geom.BBox{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{64, 64, 32}}
		cylinder, err := b.CreateCylinder(bounds, EdgeAlignedCircle{NumSides: 4}, AxisZ, "pipe")
		if err != nil {
			t.Fatalf("CreateCylinder() error = %v", err)
		}
		checkBrush(t, cylinder, 8, 6)
		if !bboxApproxEqual(cylinder.Bounds(), bounds, 1e-6) {
			t.Errorf("bounds = %v", cylinder.Bounds())
		}
	})

	for _, axis := range []int{AxisX, AxisY, AxisZ} {
		t.Run(string(rune('X'+axis)), func(t *testing.T) {
			bounds := geom.BBox{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{32, 32, 32}}
			bounds.Max[axis] = 96

			cylinder, err := b.CreateCylinder(bounds, VertexAlignedCircle{NumSides: 8}, axis, "pipe")
			if err != nil {
				t.Fatalf("CreateCylinder() error = %v", err)
			}
			checkBrush(t, cylinder, 16, 10)
			if !bboxApproxEqual(cylinder.Bounds(), bounds, 1e-6) {
				t.Errorf("bounds = %v, want %v", cylinder.Bounds(), bounds)
			}
			for _, sign := range []float64{1, -1} {
				if _, ok := cylinder.FindFaceByNormal(geom.Axis(axis).Mul(sign), 1e-6); !ok {
					t.Errorf("no cap facing %v", geom.Axis(axis).Mul(sign))
				}
			}
		})
	}

	t.Run("invalid", func(t *testing.T) {
		bounds := geom.NewBBox(32)
		if _, err := b.CreateCylinder(bounds, VertexAlignedCircle{NumSides: 2}, AxisZ, "pipe"); !errors.Is(err, ErrInvalidShape) {
			t.Errorf("two sides: error = %v, want ErrInvalidShape", err)
		}
		if _, err := b.CreateCylinder(bounds, ScalableCircle{}, 3, "pipe"); !errors.Is(err, ErrInvalidShape) {
			t.Errorf("axis 3: error = %v, want ErrInvalidShape", err)
		}
		if _, err := b.CreateCylinder(bounds, nil, AxisZ, "pipe"); !errors.Is(err, ErrInvalidShape) {
			t.Errorf("no shape: error = %v, want ErrInvalidShape", err)
		}
	})
}

func TestCreateHollowCylinder(t *testing.T) {
	b := newBuilder(brush.Standard)

	t.Run("square tube", func(t *testing.T) {
		bounds := geom.BBox{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{64, 64, 32}}
		fragments, err := b.CreateHollowCylinder(bounds, 8, EdgeAlignedCircle{NumSides: 4}, AxisZ, "wall")
		if err != nil {
			t.Fatalf("CreateHollowCylinder() error = %v", err)
		}
		if len(fragments) != 4 {
			t.Fatalf("got %d fragments, want 4", len(fragments))
		}
		for _, fragment := range fragments {
			checkBrush(t, fragment, 8, 6)
		}
		if want := (64.0*64 - 48*48) * 32; math.Abs(totalVolume(fragments)-want) > 1e-6 {
			t.Errorf("volume = %v, want %v", totalVolume(fragments), want)
		}
	})

	t.Run("too thin for an inner wall", func(t *testing.T) {
		bounds := geom.BBox{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{16, 16, 32}}
		fragments, err := b.CreateHollowCylinder(bounds, 8, EdgeAlignedCircle{NumSides: 4}, AxisZ, "wall")
		if err != nil {
			t.Fatalf("CreateHollowCylinder() error = %v", err)
		}
		if len(fragments) != 4 {
			t.Fatalf("got %d wedges, want 4", len(fragments))
		}
		for _, fragment := range fragments {
			checkBrush(t, fragment, 6, 5)
			if !fragment.HasVertex(mgl64.Vec3{8, 8, 32}, 1e-6) {
				t.Errorf("wedge does not reach the middle")
			}
		}
		if want := 16.0 * 16 * 32; math.Abs(totalVolume(fragments)-want) > 1e-6 {
			t.Errorf("volume = %v, want %v", totalVolume(fragments), want)
		}
	})

	t.Run("scalable", func(t *testing.T) {
		bounds := geom.BBox{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{64, 64, 32}}
		fragments, err := b.CreateHollowCylinder(bounds, 8, ScalableCircle{Precision: 0}, AxisY, "wall")
		if err != nil {
			t.Fatalf("CreateHollowCylinder() error = %v", err)
		}
		if len(fragments) != 12 {
			t.Errorf("got %d fragments, want 12", len(fragments))
		}
	})

	t.Run("no thickness", func(t *testing.T) {
		if _, err := b.CreateHollowCylinder(geom.NewBBox(32), 0, EdgeAlignedCircle{NumSides: 4}, AxisZ, "wall"); !errors.Is(err, ErrInvalidShape) {
			t.Errorf("error = %v, want ErrInvalidShape", err)
		}
	})
}

func TestCreateCone(t *testing.T) {
	b := newBuilder(brush.Valve)

	t.Run("octagonal", func(t *testing.T) {
		bounds := geom.BBox{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{64, 64, 64}}
		cone, err := b.CreateCone(bounds, VertexAlignedCircle{NumSides: 8}, AxisZ, "roof")
		if err != nil {
			t.Fatalf("CreateCone() error = %v", err)
		}
		checkBrush(t, cone, 9, 9)
		if !cone.HasVertex(mgl64.Vec3{32, 32, 64}, 1e-6) {
			t.Errorf("tip is missing")
		}
	})

	t.Run("scalable", func(t *testing.T) {
		bounds := geom.BBox{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{64, 64, 64}}
		cone, err := b.CreateCone(bounds, ScalableCircle{Precision: 0}, AxisZ, "roof")
		if err != nil {
			t.Fatalf("CreateCone() error = %v", err)
		}
		checkBrush(t, cone, 13, 13)
	})

	t.Run("stretched scalable", func(t *testing.T) {
		bounds := geom.BBox{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{64, 32, 32}}
		cone, err := b.CreateCone(bounds, ScalableCircle{Precision: 0}, AxisZ, "roof")
		if err != nil {
			t.Fatalf("CreateCone() error = %v", err)
		}
		if cone.VertexCount() != 14 {
			t.Errorf("got %d vertices, want 14", cone.VertexCount())
		}
		for _, tip := range []mgl64.Vec3{{16, 16, 32}, {48, 16, 32}} {
			if !cone.HasVertex(tip, 1e-9) {
				t.Errorf("tip edge misses %v", tip)
			}
		}
	})
}

func TestCreateUVSphere(t *testing.T) {
	b := newBuilder(brush.Standard)
	bounds := geom.NewBBox(32)

	t.Run("odd ring count", func(t *testing.T) {
		sphere, err := b.CreateUVSphere(bounds, VertexAlignedCircle{NumSides: 8}, 3, AxisZ, "ball")
		if err != nil {
			t.Fatalf("CreateUVSphere() error = %v", err)
		}
		checkBrush(t, sphere, 2+3*8, 32)
		if !bboxApproxEqual(sphere.Bounds(), bounds, 1e-6) {
			t.Errorf("bounds = %v", sphere.Bounds())
		}
	})

	t.Run("even ring count fills the bounds", func(t *testing.T) {
		sphere, err := b.CreateUVSphere(bounds, VertexAlignedCircle{NumSides: 8}, 2, AxisX, "ball")
		if err != nil {
			t.Fatalf("CreateUVSphere() error = %v", err)
		}
		checkBrush(t, sphere, 2+2*8, 24)
		if !bboxApproxEqual(sphere.Bounds(), bounds, 1e-6) {
			t.Errorf("bounds = %v", sphere.Bounds())
		}
		if !sphere.HasVertex(mgl64.Vec3{32, 0, 0}, 1e-6) || !sphere.HasVertex(mgl64.Vec3{-32, 0, 0}, 1e-6) {
			t.Errorf("poles are not on the X axis")
		}
	})

	t.Run("scalable", func(t *testing.T) {
		sphere, err := b.CreateUVSphere(bounds, ScalableCircle{Precision: 0}, 0, AxisZ, "ball")
		if err != nil {
			t.Fatalf("CreateUVSphere() error = %v", err)
		}
		if sphere.VertexCount() != 2+5*12 {
			t.Errorf("got %d vertices, want %d", sphere.VertexCount(), 2+5*12)
		}
		for _, v := range sphere.VertexPositions() {
			if v != geom.Snap(v, 1) {
				t.Errorf("vertex %v is off the grid", v)
			}
		}
		if sphere.Bounds() != bounds {
			t.Errorf("bounds = %v", sphere.Bounds())
		}
	})

	t.Run("off centre bounds", func(t *testing.T) {
		offset := geom.BBox{Min: mgl64.Vec3{-37, -53, -20}, Max: mgl64.Vec3{91, 75, 108}}
		sphere, err := b.CreateUVSphere(offset, EdgeAlignedCircle{NumSides: 20}, 11, AxisZ, "ball")
		if err != nil {
			t.Fatalf("CreateUVSphere() error = %v", err)
		}
		if !sphere.Closed() || !sphere.FullySpecified() {
			t.Fatalf("sphere has %d geometry faces for %d brush faces", sphere.Geometry().FaceCount(), sphere.FaceCount())
		}
		if sphere.FaceCount() > 20*(11+1)+2 {
			t.Errorf("sphere has %d faces", sphere.FaceCount())
		}
		if err := sphere.Geometry().CheckInvariants(); err != nil {
			t.Errorf("%v", err)
		}
	})

	t.Run("no rings", func(t *testing.T) {
		if _, err := b.CreateUVSphere(bounds, EdgeAlignedCircle{NumSides: 8}, 0, AxisZ, "ball"); !errors.Is(err, ErrInvalidShape) {
			t.Errorf("error = %v, want ErrInvalidShape", err)
		}
	})
}

func TestRingRatios(t *testing.T) {
	tests := []struct {
		precision int
		length    int
	}{
		{0, 7},
		{1, 13},
		{2, 25},
	}
	for _, tt := range tests {
		z := ringRatios([]float64{1, 7.0 / 8, 1.0 / 2, 0}, tt.precision, true)
		if len(z) != tt.length {
			t.Errorf("precision %d: %d ratios, want %d", tt.precision, len(z), tt.length)
		}
		if z[0] != 1 || z[len(z)-1] != -1 || z[len(z)/2] != 0 {
			t.Errorf("precision %d: ratios %v are not symmetric", tt.precision, z)
		}
	}
}

func TestCreateIcoSphere(t *testing.T) {
	b := newBuilder(brush.Standard)
	bounds := geom.BBox{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{64, 64, 64}}

	tests := []struct {
		iterations int
		vertices   int
		faces      int
	}{
		{0, 12, 20},
		{1, 42, 80},
	}
	for _, tt := range tests {
		sphere, err := b.CreateIcoSphere(bounds, tt.iterations, "ball")
		if err != nil {
			t.Fatalf("CreateIcoSphere(%d) error = %v", tt.iterations, err)
		}
		checkBrush(t, sphere, tt.vertices, tt.faces)
		if !bounds.Contains(sphere.Bounds()) {
			t.Errorf("bounds %v exceed %v", sphere.Bounds(), bounds)
		}
		if center := sphere.Geometry().Center(); !vec3ApproxEqual(center, bounds.Center(), 1e-6) {
			t.Errorf("center = %v", center)
		}
	}

	if _, err := b.CreateIcoSphere(bounds, -1, "ball"); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("error = %v, want ErrInvalidShape", err)
	}
}

func TestCreateBrushFromPoints(t *testing.T) {
	b := newBuilder(brush.Standard)

	tetrahedron, err := b.CreateBrushFromPoints([]mgl64.Vec3{{0, 0, 0}, {32, 0, 0}, {0, 32, 0}, {0, 0, 32}, {4, 4, 4}}, "rock")
	if err != nil {
		t.Fatalf("CreateBrushFromPoints() error = %v", err)
	}
	checkBrush(t, tetrahedron, 4, 4)

	tests := []struct {
		name   string
		points []mgl64.Vec3
	}{
		{"none", nil},
		{"collinear", []mgl64.Vec3{{0, 0, 0}, {8, 0, 0}, {16, 0, 0}}},
		{"coplanar", []mgl64.Vec3{{0, 0, 0}, {8, 0, 0}, {8, 8, 0}, {0, 8, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := b.CreateBrushFromPoints(tt.points, "rock"); !errors.Is(err, ErrEmptyPolyhedron) {
				t.Errorf("error = %v, want ErrEmptyPolyhedron", err)
			}
		})
	}
}
