package polyhedron

import (
	"fmt"
	"math"
	"testing"

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

func cube(half float64) *Polyhedron {
	return NewCuboid(geom.NewBBox(half))
}

func checkValid(t *testing.T, p *Polyhedron) {
	t.Helper()
	if err := p.CheckInvariants(); err != nil {
		t.Fatalf("invariants broken: %v", err)
	}
}

func TestNew_Dimensions(t *testing.T) {
	tests := []struct {
		name      string
		points    []mgl64.Vec3
		dimension Dimension
		vertices  int
		faces     int
	}{
		{"no points", nil, DimensionEmpty, 0, 0},
		{"one point", []mgl64.Vec3{{1, 2, 3}}, DimensionPoint, 1, 0},
		{"duplicate points", []mgl64.Vec3{{1, 2, 3}, {1, 2, 3.00001}}, DimensionPoint, 1, 0},
		{"segment", []mgl64.Vec3{{0, 0, 0}, {8, 0, 0}}, DimensionEdge, 2, 0},
		{"collinear", []mgl64.Vec3{{0, 0, 0}, {4, 0, 0}, {8, 0, 0}}, DimensionEdge, 2, 0},
		{"triangle", []mgl64.Vec3{{0, 0, 0}, {8, 0, 0}, {0, 8, 0}}, DimensionPolygon, 3, 1},
		{"square with center", []mgl64.Vec3{{0, 0, 0}, {8, 0, 0}, {8, 8, 0}, {0, 8, 0}, {4, 4, 0}}, DimensionPolygon, 4, 1},
		{"square with mid-edge point", []mgl64.Vec3{{0, 0, 0}, {4, 0, 0}, {8, 0, 0}, {8, 8, 0}, {0, 8, 0}}, DimensionPolygon, 4, 1},
		{"tetrahedron", []mgl64.Vec3{{0, 0, 0}, {8, 0, 0}, {0, 8, 0}, {0, 0, 8}}, DimensionPolyhedron, 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.points...)
			if p.Dimension() != tt.dimension {
				t.Fatalf("dimension = %v, want %v", p.Dimension(), tt.dimension)
			}
			if p.VertexCount() != tt.vertices {
				t.Errorf("vertex count = %d, want %d", p.VertexCount(), tt.vertices)
			}
			if p.FaceCount() != tt.faces {
				t.Errorf("face count = %d, want %d", p.FaceCount(), tt.faces)
			}
			checkValid(t, p)
		})
	}
}

func TestNew_PolygonOrientation(t *testing.T) {
	p := New(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{8, 0, 0}, mgl64.Vec3{0, 8, 0})
	normal := p.FaceNormal(p.Faces()[0])
	if !vec3ApproxEqual(normal, mgl64.Vec3{0, 0, 1}, 1e-9) {
		t.Errorf("normal = %v, want +Z", normal)
	}

	flipped := New(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 8, 0}, mgl64.Vec3{8, 0, 0})
	normal = flipped.FaceNormal(flipped.Faces()[0])
	if !vec3ApproxEqual(normal, mgl64.Vec3{0, 0, -1}, 1e-9) {
		t.Errorf("normal = %v, want -Z", normal)
	}
}

func TestNew_Cube(t *testing.T) {
	p := cube(32)
	checkValid(t, p)

	if p.VertexCount() != 8 || p.EdgeCount() != 12 || p.FaceCount() != 6 {
		t.Fatalf("counts = %d/%d/%d, want 8/12/6", p.VertexCount(), p.EdgeCount(), p.FaceCount())
	}
	if !p.Closed() {
		t.Errorf("cube is not closed")
	}
	if math.Abs(p.Volume()-64*64*64) > 1e-6 {
		t.Errorf("volume = %v", p.Volume())
	}

	for _, f := range p.Faces() {
		if p.FaceVertexCount(f) != 4 {
			t.Errorf("face %v has %d vertices", p.FaceNormal(f), p.FaceVertexCount(f))
		}
		if math.Abs(p.FaceArea(f)-64*64) > 1e-6 {
			t.Errorf("face %v area = %v", p.FaceNormal(f), p.FaceArea(f))
		}
		if d := p.FacePlane(f).PointDistance(p.Center()); d >= 0 {
			t.Errorf("center is not below face %v", p.FaceNormal(f))
		}
	}

	for _, v := range p.Vertices() {
		if n := len(p.IncidentFaces(v)); n != 3 {
			t.Errorf("vertex %v has %d incident faces", p.Position(v), n)
		}
	}
}

func TestNew_MergesInteriorAndCoplanarPoints(t *testing.T) {
	corners := geom.NewBBox(32).Vertices()
	points := append(corners[:],
		mgl64.Vec3{0, 0, 0},   // interior
		mgl64.Vec3{32, 0, 0},  // face center
		mgl64.Vec3{32, 32, 0}, // edge middle
	)
	p := New(points...)
	checkValid(t, p)
	if p.VertexCount() != 8 || p.FaceCount() != 6 {
		t.Errorf("counts = %d/%d, want 8/6", p.VertexCount(), p.FaceCount())
	}
}

func TestHeal_Idempotent(t *testing.T) {
	shapes := map[string]*Polyhedron{
		"cube":     cube(32),
		"pyramid":  pyramid(),
		"wedge":    New(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{16, 0, 0}, mgl64.Vec3{0, 16, 0}, mgl64.Vec3{0, 0, 16}, mgl64.Vec3{16, 0, 16}, mgl64.Vec3{0, 16, 16}),
		"cut cube": cutCube(),
	}

	for name, p := range shapes {
		t.Run(name, func(t *testing.T) {
			for _, f := range p.Faces() {
				p.SetPayload(f, int(f.index))
			}
			once := p.Heal()
			twice := once.Heal()
			checkValid(t, twice)

			if once.VertexCount() != twice.VertexCount() || once.EdgeCount() != twice.EdgeCount() || once.FaceCount() != twice.FaceCount() {
				t.Fatalf("healing changed counts")
			}
			for _, f := range once.Faces() {
				g, ok := twice.FindFace(once.FacePositions(f), 0)
				if !ok {
					t.Fatalf("face %v lost", once.FaceNormal(f))
				}
				if once.Payload(f) != twice.Payload(g) {
					t.Errorf("payload %d became %d", once.Payload(f), twice.Payload(g))
				}
			}
		})
	}
}

func pyramid() *Polyhedron {
	return New(
		mgl64.Vec3{0, 0, 64},
		mgl64.Vec3{-64, -64, -64},
		mgl64.Vec3{-64, 64, -64},
		mgl64.Vec3{64, 64, -64},
		mgl64.Vec3{64, -64, -64},
	)
}

func cutCube() *Polyhedron {
	corners := geom.NewBBox(32).Vertices()
	return New(corners[:7]...)
}

func TestClip(t *testing.T) {
	tests := []struct {
		name     string
		plane    geom.Plane
		expected ClipResult
		maxX     float64
		faces    int
	}{
		{"through the middle", geom.Plane{Normal: mgl64.Vec3{1, 0, 0}, Distance: 0}, ClipSuccess, 0, 6},
		{"nothing above", geom.Plane{Normal: mgl64.Vec3{1, 0, 0}, Distance: 64}, ClipUnchanged, 32, 6},
		{"on a face", geom.Plane{Normal: mgl64.Vec3{1, 0, 0}, Distance: 32}, ClipUnchanged, 32, 6},
		{"everything above", geom.Plane{Normal: mgl64.Vec3{1, 0, 0}, Distance: -32}, ClipEmpty, 32, 6},
		{"corner", geom.NewPlane(mgl64.Vec3{1, 1, 1}.Normalize(), mgl64.Vec3{16, 16, 16}), ClipSuccess, 32, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := cube(32)
			for _, f := range p.Faces() {
				p.SetPayload(f, 7)
			}

			result := p.Clip(tt.plane)
			if result != tt.expected {
				t.Fatalf("Clip() = %v, want %v", result, tt.expected)
			}
			checkValid(t, p)
			if math.Abs(p.Bounds().Max.X()-tt.maxX) > 1e-9 {
				t.Errorf("max x = %v, want %v", p.Bounds().Max.X(), tt.maxX)
			}
			if p.FaceCount() != tt.faces {
				t.Errorf("face count = %d, want %d", p.FaceCount(), tt.faces)
			}

			if result == ClipSuccess {
				f, ok := p.FindFace(clipPolygon(p, tt.plane), geom.AlmostZero)
				if !ok {
					t.Fatalf("no face on the clip plane")
				}
				if p.Payload(f) != NoPayload {
					t.Errorf("new face payload = %d", p.Payload(f))
				}
			}
		})
	}
}

// clipPolygon returns the loop of the face lying on plane.
func clipPolygon(p *Polyhedron, plane geom.Plane) []mgl64.Vec3 {
	for _, f := range p.Faces() {
		if p.FacePlane(f).ApproxEqual(plane, geom.AlmostZero) {
			return p.FacePositions(f)
		}
	}
	return nil
}

func cubePlanes(min, max float64) []geom.Plane {
	return []geom.Plane{
		{Normal: mgl64.Vec3{1, 0, 0}, Distance: max},
		{Normal: mgl64.Vec3{-1, 0, 0}, Distance: -min},
		{Normal: mgl64.Vec3{0, 1, 0}, Distance: max},
		{Normal: mgl64.Vec3{0, -1, 0}, Distance: -min},
		{Normal: mgl64.Vec3{0, 0, 1}, Distance: max},
		{Normal: mgl64.Vec3{0, 0, -1}, Distance: -min},
	}
}

func TestNewFromPlanes(t *testing.T) {
	t.Run("cube", func(t *testing.T) {
		planes := cubePlanes(0, 16)
		p, err := NewFromPlanes(worldBounds, planes)
		if err != nil {
			t.Fatalf("NewFromPlanes() error = %v", err)
		}
		checkValid(t, p)
		if p.FaceCount() != 6 {
			t.Fatalf("face count = %d", p.FaceCount())
		}
		for _, f := range p.Faces() {
			plane := planes[p.Payload(f)]
			if !vec3ApproxEqual(plane.Normal, p.FaceNormal(f), 1e-9) {
				t.Errorf("face %v linked to plane %v", p.FaceNormal(f), plane.Normal)
			}
		}
	})

	t.Run("redundant plane", func(t *testing.T) {
		planes := append(cubePlanes(0, 16), geom.Plane{Normal: mgl64.Vec3{1, 0, 0}, Distance: 32})
		p, err := NewFromPlanes(worldBounds, planes)
		if err != nil {
			t.Fatalf("NewFromPlanes() error = %v", err)
		}
		for _, f := range p.Faces() {
			if p.Payload(f) == 6 {
				t.Errorf("redundant plane is referenced")
			}
		}
	})

	tests := []struct {
		name   string
		planes []geom.Plane
		target error
	}{
		{"missing plane", cubePlanes(0, 16)[:5], ErrIncomplete},
		{"opposing planes", []geom.Plane{
			{Normal: mgl64.Vec3{1, 0, 0}, Distance: 0},
			{Normal: mgl64.Vec3{-1, 0, 0}, Distance: -10},
		}, ErrEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFromPlanes(worldBounds, tt.planes)
			if !errors.Is(err, tt.target) {
				t.Errorf("error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestMoveBoundary(t *testing.T) {
	p := cube(32)
	for i, f := range p.Faces() {
		p.SetPayload(f, i)
	}
	right := faceWithNormal(t, p, mgl64.Vec3{1, 0, 0})

	t.Run("outward", func(t *testing.T) {
		moved, err := p.MoveBoundary(worldBounds, right, mgl64.Vec3{16, 5, 0}, true)
		if err != nil {
			t.Fatalf("MoveBoundary() error = %v", err)
		}
		checkValid(t, moved)
		if moved.Bounds().Max.X() != 48 {
			t.Errorf("max x = %v, want 48", moved.Bounds().Max.X())
		}
		g := faceWithNormal(t, moved, mgl64.Vec3{1, 0, 0})
		if moved.Payload(g) != p.Payload(right) {
			t.Errorf("payload = %d, want %d", moved.Payload(g), p.Payload(right))
		}
		if p.Bounds().Max.X() != 32 {
			t.Errorf("receiver changed")
		}
	})

	t.Run("collapse", func(t *testing.T) {
		_, err := p.MoveBoundary(worldBounds, right, mgl64.Vec3{-64, 0, 0}, false)
		if !errors.Is(err, ErrEmpty) {
			t.Errorf("error = %v, want ErrEmpty", err)
		}
	})

	t.Run("out of bounds", func(t *testing.T) {
		_, err := p.MoveBoundary(worldBounds, right, mgl64.Vec3{9000, 0, 0}, false)
		if !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("error = %v, want ErrOutOfBounds", err)
		}
	})
}

func faceWithNormal(t *testing.T, p *Polyhedron, normal mgl64.Vec3) FaceID {
	t.Helper()
	for _, f := range p.Faces() {
		if vec3ApproxEqual(p.FaceNormal(f), normal, 1e-6) {
			return f
		}
	}
	t.Fatalf("no face with normal %v", normal)
	return FaceID{}
}

func TestTransformVertices_MergeIntoCenter(t *testing.T) {
	p := cube(32)
	corner := mgl64.Vec3{32, 32, 32}
	transform := mgl64.Translate3D(-32, -32, -32)

	if !p.CanTransformVertices(worldBounds, []mgl64.Vec3{corner}, transform) {
		t.Fatalf("move rejected")
	}
	move, err := p.TransformVertices(worldBounds, []mgl64.Vec3{corner}, transform)
	if err != nil {
		t.Fatalf("TransformVertices() error = %v", err)
	}
	checkValid(t, move.Result)

	if move.Result.VertexCount() != 7 || move.Result.EdgeCount() != 12 || move.Result.FaceCount() != 7 {
		t.Errorf("counts = %d/%d/%d, want 7/12/7",
			move.Result.VertexCount(), move.Result.EdgeCount(), move.Result.FaceCount())
	}
	if _, ok := move.VertexMapping[corner]; ok {
		t.Errorf("deleted vertex is mapped")
	}
	if len(move.VertexMapping) != 7 {
		t.Errorf("mapping has %d entries, want 7", len(move.VertexMapping))
	}
	if p.VertexCount() != 8 {
		t.Errorf("receiver changed")
	}
}

func TestTransformVertices_ThroughOppositeFace(t *testing.T) {
	apex := mgl64.Vec3{0, 0, 64}
	base := []mgl64.Vec3{{-64, -64, -64}, {-64, 64, -64}, {64, 64, -64}, {64, -64, -64}}

	tests := []struct {
		name     string
		delta    mgl64.Vec3
		expected bool
	}{
		{"above base", mgl64.Vec3{0, 0, -127}, true},
		{"onto base", mgl64.Vec3{0, 0, -128}, false},
		{"through base", mgl64.Vec3{0, 0, -129}, true},
		{"sideways above base", mgl64.Vec3{256, 0, -127}, true},
		{"sideways onto base", mgl64.Vec3{256, 0, -128}, false},
		{"sideways through base", mgl64.Vec3{256, 0, -129}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pyramid()
			if _, ok := p.FindFace(base, 0); !ok {
				t.Fatalf("base face missing")
			}

			transform := mgl64.Translate3D(tt.delta.X(), tt.delta.Y(), tt.delta.Z())
			if got := p.CanTransformVertices(worldBounds, []mgl64.Vec3{apex}, transform); got != tt.expected {
				t.Fatalf("CanTransformVertices() = %v, want %v", got, tt.expected)
			}
			if !tt.expected {
				if _, err := p.TransformVertices(worldBounds, []mgl64.Vec3{apex}, transform); !errors.Is(err, ErrInvalid) {
					t.Errorf("error = %v, want ErrInvalid", err)
				}
				return
			}

			move, err := p.TransformVertices(worldBounds, []mgl64.Vec3{apex}, transform)
			if err != nil {
				t.Fatalf("TransformVertices() error = %v", err)
			}
			checkValid(t, move.Result)
			if move.Result.FaceCount() != 5 {
				t.Errorf("face count = %d, want 5", move.Result.FaceCount())
			}
			if move.VertexMapping[apex] != apex.Add(tt.delta) {
				t.Errorf("apex mapped to %v", move.VertexMapping[apex])
			}
		})
	}

	t.Run("base winding flips", func(t *testing.T) {
		p := pyramid()
		move, err := p.TransformVertices(worldBounds, []mgl64.Vec3{apex}, mgl64.Translate3D(0, 0, -129))
		if err != nil {
			t.Fatalf("TransformVertices() error = %v", err)
		}
		if _, ok := move.Result.FindFace(base, 0); ok {
			t.Errorf("base keeps its winding")
		}
		reversed := []mgl64.Vec3{base[3], base[2], base[1], base[0]}
		f, ok := move.Result.FindFace(reversed, 0)
		if !ok {
			t.Fatalf("reversed base missing")
		}
		if !vec3ApproxEqual(move.Result.FaceNormal(f), mgl64.Vec3{0, 0, 1}, 1e-9) {
			t.Errorf("base normal = %v, want +Z", move.Result.FaceNormal(f))
		}
	})
}

func TestTransformVertices_PeakOverCuboid(t *testing.T) {
	peak := mgl64.Vec3{0, 0, 128}
	points := []mgl64.Vec3{
		{-64, -64, 0}, {64, -64, 0}, {64, 64, 0}, {-64, 64, 0},
		{-64, -64, 64}, {64, -64, 64}, {64, 64, 64}, {-64, 64, 64},
		peak,
	}

	tests := []struct {
		name     string
		dz       float64
		expected bool
		vertices int
	}{
		{"into the cuboid", -65, true, 8},
		{"just above the cuboid", -63, true, 9},
		{"through the bottom", -129, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(points...)
			if p.VertexCount() != 9 {
				t.Fatalf("vertex count = %d", p.VertexCount())
			}
			transform := mgl64.Translate3D(0, 0, tt.dz)
			if got := p.CanTransformVertices(worldBounds, []mgl64.Vec3{peak}, transform); got != tt.expected {
				t.Fatalf("CanTransformVertices() = %v, want %v", got, tt.expected)
			}
			if !tt.expected {
				return
			}
			move, err := p.TransformVertices(worldBounds, []mgl64.Vec3{peak}, transform)
			if err != nil {
				t.Fatalf("TransformVertices() error = %v", err)
			}
			checkValid(t, move.Result)
			if move.Result.VertexCount() != tt.vertices {
				t.Errorf("vertex count = %d, want %d", move.Result.VertexCount(), tt.vertices)
			}
		})
	}
}

func TestTransformVertices_WholeSolid(t *testing.T) {
	p := cube(64)
	all := p.VertexPositions()

	if !p.CanTransformVertices(worldBounds, all, mgl64.Translate3D(16, 16, 16)) {
		t.Errorf("translation inside the world rejected")
	}
	if p.CanTransformVertices(worldBounds, all, mgl64.Translate3D(8192, 8192, 8192)) {
		t.Errorf("translation out of the world accepted")
	}
	if p.CanTransformVertices(worldBounds, all, mgl64.Ident4()) {
		t.Errorf("identity accepted")
	}
	if p.CanTransformVertices(worldBounds, nil, mgl64.Translate3D(1, 0, 0)) {
		t.Errorf("empty selection accepted")
	}
}

func TestTransformVertices_RotateBottom(t *testing.T) {
	for _, degrees := range []float64{35, 45, 72, 90, 180, 270} {
		t.Run(fmt.Sprintf("%v degrees", degrees), func(t *testing.T) {
			p := cube(32)
			var bottom []mgl64.Vec3
			for _, position := range p.VertexPositions() {
				if position.Z() < 0 {
					bottom = append(bottom, position)
				}
			}
			transform := mgl64.HomogRotate3DZ(mgl64.DegToRad(degrees))
			if !p.CanTransformVertices(worldBounds, bottom, transform) {
				t.Fatalf("rotation by %v rejected", degrees)
			}
			move, err := p.TransformVertices(worldBounds, bottom, transform)
			if err != nil {
				t.Fatalf("TransformVertices() error = %v", err)
			}
			checkValid(t, move.Result)
		})
	}
}

func TestTransformVertices_RoundTrip(t *testing.T) {
	p := cube(32)
	corner := mgl64.Vec3{32, 32, 32}
	forward := mgl64.Translate3D(8, 8, 8)
	backward := mgl64.Translate3D(-8, -8, -8)

	moved, err := p.TransformVertices(worldBounds, []mgl64.Vec3{corner}, forward)
	if err != nil {
		t.Fatalf("forward error = %v", err)
	}
	restored, err := moved.Result.TransformVertices(worldBounds, []mgl64.Vec3{{40, 40, 40}}, backward)
	if err != nil {
		t.Fatalf("backward error = %v", err)
	}
	if restored.Result.VertexCount() != 8 || restored.Result.FaceCount() != 6 {
		t.Fatalf("counts = %d/%d", restored.Result.VertexCount(), restored.Result.FaceCount())
	}
	for _, position := range p.VertexPositions() {
		if !restored.Result.HasVertex(position, geom.AlmostZero) {
			t.Errorf("vertex %v not restored", position)
		}
	}
}

func TestTransformEdgesAndFaces(t *testing.T) {
	p := cube(32)
	top := faceWithNormal(t, p, mgl64.Vec3{0, 0, 1})
	polygon := p.FacePolygon(top)
	edge := geom.NewSegment(mgl64.Vec3{32, 32, 32}, mgl64.Vec3{-32, 32, 32})

	t.Run("raise top face", func(t *testing.T) {
		move, err := p.TransformFaces(worldBounds, []geom.Polygon{polygon}, mgl64.Translate3D(0, 0, 16))
		if err != nil {
			t.Fatalf("TransformFaces() error = %v", err)
		}
		if move.Result.Bounds().Max.Z() != 48 {
			t.Errorf("max z = %v", move.Result.Bounds().Max.Z())
		}
	})

	t.Run("sink top face into bottom", func(t *testing.T) {
		if p.CanTransformFaces(worldBounds, []geom.Polygon{polygon}, mgl64.Translate3D(0, 0, -64)) {
			t.Errorf("collapsing move accepted")
		}
	})

	t.Run("pull edge out", func(t *testing.T) {
		move, err := p.TransformEdges(worldBounds, []geom.Segment{edge}, mgl64.Translate3D(0, 16, 16))
		if err != nil {
			t.Fatalf("TransformEdges() error = %v", err)
		}
		checkValid(t, move.Result)
		if !move.Result.HasEdge(mgl64.Vec3{32, 48, 48}, mgl64.Vec3{-32, 48, 48}, geom.AlmostZero) {
			t.Errorf("moved edge missing")
		}
	})

	t.Run("push edge into a face", func(t *testing.T) {
		if p.CanTransformEdges(worldBounds, []geom.Segment{edge}, mgl64.Translate3D(0, -32, -32)) {
			t.Errorf("move removing the edge accepted")
		}
	})
}

func TestAddRemoveSnapVertices(t *testing.T) {
	p := cube(32)

	if _, ok := p.AddVertex(mgl64.Vec3{0, 0, 0}); ok {
		t.Errorf("interior vertex added")
	}
	move, ok := p.AddVertex(mgl64.Vec3{0, 0, 64})
	if !ok {
		t.Fatalf("exterior vertex not added")
	}
	if move.Result.VertexCount() != 9 || len(move.VertexMapping) != 8 {
		t.Errorf("counts = %d/%d", move.Result.VertexCount(), len(move.VertexMapping))
	}

	removed := p.RemoveVertices([]mgl64.Vec3{{32, 32, 32}})
	if removed.Result.VertexCount() != 7 || !removed.Result.Polyhedron() {
		t.Errorf("remove result = %d vertices, %v", removed.Result.VertexCount(), removed.Result.Dimension())
	}

	rough := New(
		mgl64.Vec3{0.2, 0, 0}, mgl64.Vec3{16.1, 0, 0}, mgl64.Vec3{0, 15.8, 0}, mgl64.Vec3{0, 0, 16.3},
	)
	snapped := rough.SnapVertices(16)
	checkValid(t, snapped.Result)
	for _, position := range snapped.Result.VertexPositions() {
		if position != geom.Snap(position, 16) {
			t.Errorf("vertex %v is off grid", position)
		}
	}
	if len(snapped.VertexMapping) != 4 {
		t.Errorf("mapping has %d entries", len(snapped.VertexMapping))
	}
}

func TestSubtract(t *testing.T) {
	minuend := cube(32)

	t.Run("disjoint", func(t *testing.T) {
		subtrahend := NewCuboid(geom.BBox{Min: mgl64.Vec3{100, 100, 100}, Max: mgl64.Vec3{132, 132, 132}})
		fragments := minuend.Subtract(subtrahend)
		if len(fragments) != 1 {
			t.Fatalf("got %d fragments, want 1", len(fragments))
		}
		if fragments[0].VertexCount() != 8 || !fragments[0].HasVertices(minuend.VertexPositions(), 0) {
			t.Errorf("fragment differs from the minuend")
		}
	})

	t.Run("touching", func(t *testing.T) {
		subtrahend := NewCuboid(geom.BBox{Min: mgl64.Vec3{32, -32, -32}, Max: mgl64.Vec3{64, 32, 32}})
		if fragments := minuend.Subtract(subtrahend); len(fragments) != 1 {
			t.Errorf("got %d fragments, want 1", len(fragments))
		}
	})

	t.Run("enclosing", func(t *testing.T) {
		if fragments := minuend.Subtract(cube(64)); len(fragments) != 0 {
			t.Errorf("got %d fragments, want 0", len(fragments))
		}
	})

	t.Run("corner", func(t *testing.T) {
		subtrahend := NewCuboid(geom.BBox{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{64, 64, 64}})
		fragments := minuend.Subtract(subtrahend)
		if len(fragments) != 3 {
			t.Fatalf("got %d fragments, want 3", len(fragments))
		}
		volume := 0.0
		for _, fragment := range fragments {
			checkValid(t, fragment)
			volume += fragment.Volume()
			if fragment.ContainsPoint(mgl64.Vec3{16, 16, 16}) {
				t.Errorf("fragment %v overlaps the subtrahend", fragment.Bounds())
			}
		}
		if math.Abs(volume-(64*64*64-32*32*32)) > 1e-3 {
			t.Errorf("volume = %v", volume)
		}
	})

	t.Run("slab", func(t *testing.T) {
		subtrahend := NewCuboid(geom.BBox{Min: mgl64.Vec3{-64, -64, -8}, Max: mgl64.Vec3{64, 64, 8}})
		fragments := minuend.Subtract(subtrahend)
		if len(fragments) != 2 {
			t.Fatalf("got %d fragments, want 2", len(fragments))
		}
		for _, fragment := range fragments {
			if math.Abs(fragment.Volume()-64*64*24) > 1e-3 {
				t.Errorf("fragment volume = %v", fragment.Volume())
			}
		}
	})
}

func TestIntersectAndContains(t *testing.T) {
	a := cube(32)
	b := NewCuboid(geom.BBox{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{64, 64, 64}})
	far := NewCuboid(geom.BBox{Min: mgl64.Vec3{100, 0, 0}, Max: mgl64.Vec3{164, 64, 64}})

	intersection := a.Intersect(b)
	expected := geom.BBox{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{32, 32, 32}}
	if intersection.Bounds() != expected {
		t.Errorf("intersection bounds = %v, want %v", intersection.Bounds(), expected)
	}
	if !a.Intersect(far).Empty() {
		t.Errorf("disjoint intersection is not empty")
	}

	if !a.Intersects(b) || a.Intersects(far) {
		t.Errorf("Intersects() is wrong")
	}
	if !cube(64).Contains(a) || a.Contains(b) {
		t.Errorf("Contains() is wrong")
	}
	if !a.ContainsPoint(mgl64.Vec3{32, 0, 0}) || a.ContainsPoint(mgl64.Vec3{33, 0, 0}) {
		t.Errorf("ContainsPoint() is wrong")
	}
}

func TestFaceIntersectWithRay(t *testing.T) {
	p := cube(32)
	top := faceWithNormal(t, p, mgl64.Vec3{0, 0, 1})
	down := geom.Ray{Origin: mgl64.Vec3{0, 0, 100}, Direction: mgl64.Vec3{0, 0, -1}}
	up := geom.Ray{Origin: mgl64.Vec3{0, 0, 0}, Direction: mgl64.Vec3{0, 0, 1}}

	if d, ok := p.FaceIntersectWithRay(top, down, geom.Front); !ok || math.Abs(d-68) > 1e-9 {
		t.Errorf("front hit = %v, %v", d, ok)
	}
	if _, ok := p.FaceIntersectWithRay(top, down, geom.Back); ok {
		t.Errorf("back hit from the front")
	}
	if _, ok := p.FaceIntersectWithRay(top, up, geom.Back); !ok {
		t.Errorf("back hit missed")
	}
	miss := geom.Ray{Origin: mgl64.Vec3{100, 0, 100}, Direction: mgl64.Vec3{0, 0, -1}}
	if _, ok := p.FaceIntersectWithRay(top, miss, geom.Both); ok {
		t.Errorf("ray outside the face hit")
	}
}

func TestFindClosest(t *testing.T) {
	p := cube(32)

	v, ok := p.FindClosestVertex(mgl64.Vec3{31.995, 32, 32}, CloseVertexEpsilon)
	if !ok || p.Position(v) != (mgl64.Vec3{32, 32, 32}) {
		t.Errorf("FindClosestVertex() = %v, %v", v, ok)
	}
	if _, ok := p.FindClosestVertex(mgl64.Vec3{31, 32, 32}, CloseVertexEpsilon); ok {
		t.Errorf("far vertex found")
	}

	h, ok := p.FindClosestEdge(mgl64.Vec3{-32, 32, 32}, mgl64.Vec3{32, 32, 32.001}, 0.01)
	if !ok || !p.EdgeSegment(h).ApproxEqual(geom.NewSegment(mgl64.Vec3{-32, 32, 32}, mgl64.Vec3{32, 32, 32}), 0.01) {
		t.Errorf("FindClosestEdge() failed")
	}

	top := faceWithNormal(t, p, mgl64.Vec3{0, 0, 1})
	shifted := p.FacePositions(top)
	shifted = append(shifted[1:], shifted[0])
	if f, ok := p.FindClosestFace(shifted, 0.01); !ok || f != top {
		t.Errorf("FindClosestFace() did not find the top face")
	}
}

func TestMatcher(t *testing.T) {
	t.Run("identical", func(t *testing.T) {
		left := cube(32)
		right := left.Clone()
		matched := 0
		NewMatcher(left, right, nil).MatchFaces(func(l, r FaceID) {
			matched++
			if !left.FacePolygon(l).ApproxEqual(right.FacePolygon(r), 0) {
				t.Errorf("face %v matched to %v", right.FaceNormal(r), left.FaceNormal(l))
			}
		})
		if matched != 6 {
			t.Errorf("matched %d faces", matched)
		}
	})

	t.Run("vertex removed", func(t *testing.T) {
		left := cube(32)
		move, err := left.TransformVertices(worldBounds, []mgl64.Vec3{{32, 32, 32}}, mgl64.Translate3D(-32, -32, -32))
		if err != nil {
			t.Fatalf("TransformVertices() error = %v", err)
		}
		matcher := NewMatcher(left, move.Result, move.VertexMapping)
		matcher.MatchFaces(func(l, r FaceID) {
			if left.FaceNormal(l).Dot(move.Result.FaceNormal(r)) <= 0 {
				t.Errorf("face %v matched to %v", move.Result.FaceNormal(r), left.FaceNormal(l))
			}
			pairs := 0
			matcher.VisitMatchingVertexPairs(l, r, func(lv VertexID, rv VertexID) {
				pairs++
				if !matcher.Related(left.Position(lv), move.Result.Position(rv)) {
					t.Errorf("unrelated pair visited")
				}
			})
			if pairs == 0 {
				t.Errorf("face %v has no matching vertices", move.Result.FaceNormal(r))
			}
		})
	})

	t.Run("vertex added", func(t *testing.T) {
		left := cube(32)
		added := mgl64.Vec3{0, 0, 64}
		move, _ := left.AddVertex(added)
		matcher := NewMatcher(left, move.Result, move.VertexMapping)
		if !matcher.Related(mgl64.Vec3{32, 32, 32}, added) {
			t.Errorf("added vertex is not related to its neighbours")
		}
	})
}

func TestCheckInvariants_DetectsBrokenTwin(t *testing.T) {
	p := cube(32)
	p.halfEdges.items[0].twin = HalfEdgeID{}
	if err := p.CheckInvariants(); !errors.Is(err, ErrInvalid) {
		t.Errorf("error = %v, want ErrInvalid", err)
	}
}

func TestStaleHandlePanics(t *testing.T) {
	a, b := cube(32), cube(32)
	defer func() {
		if recover() == nil {
			t.Errorf("foreign handle did not panic")
		}
	}()
	b.Position(a.Vertices()[0])
}
