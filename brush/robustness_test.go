package brush

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func randomIntPoint(rng *rand.Rand, min, max int) mgl64.Vec3 {
	span := max - min + 1
	return mgl64.Vec3{
		float64(min + rng.Intn(span)),
		float64(min + rng.Intn(span)),
		float64(min + rng.Intn(span)),
	}
}

// randomFace returns a face through three integer points of [0, 64]³ facing away from
// inside, or false if the points are collinear or the plane passes within 4 units of
// inside.
func randomFace(t *testing.T, rng *rand.Rand, inside mgl64.Vec3, format MapFormat) (BrushFace, bool) {
	t.Helper()
	p0, p1, p2 := randomIntPoint(rng, 0, 64), randomIntPoint(rng, 0, 64), randomIntPoint(rng, 0, 64)
	face, err := NewBrushFace(p0, p1, p2, NewAttributes("random"), format)
	if err != nil {
		return BrushFace{}, false
	}
	if face.Boundary().PointDistance(inside) > 0 {
		if face, err = NewBrushFace(p0, p2, p1, NewAttributes("random"), format); err != nil {
			return BrushFace{}, false
		}
	}
	return face, face.Boundary().PointDistance(inside) < -4
}

// randomBrush cuts the cube [0, 64]³ with extra random faces.
func randomBrush(t *testing.T, rng *rand.Rand, extra int, format MapFormat) *Brush {
	t.Helper()
	center := mgl64.Vec3{32, 32, 32}
	faces := cuboid(t, box(0, 64), format, "").cloneFaces()
	for added := 0; added < extra; {
		if face, ok := randomFace(t, rng, center, format); ok {
			faces = append(faces, face)
			added++
		}
	}
	b, err := New(worldBounds, faces)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return b
}

func TestNew_RandomFacesFullySpecified(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 300; i++ {
		b := randomBrush(t, rng, 6, Standard)
		if !b.Closed() || !b.FullySpecified() {
			t.Fatalf("case %d: geometry has %d faces for %d brush faces", i, b.Geometry().FaceCount(), b.FaceCount())
		}
		if err := b.Geometry().CheckInvariants(); err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
	}
}

func TestTransformVertices_RandomValve(t *testing.T) {
	rng := rand.New(rand.NewSource(6))

	for i := 0; i < 200; i++ {
		b := randomBrush(t, rng, 3, Valve)
		positions := b.VertexPositions()
		moved := []mgl64.Vec3{positions[rng.Intn(len(positions))]}
		delta := randomIntPoint(rng, -8, 8)
		transform := mgl64.Translate3D(delta.X(), delta.Y(), delta.Z())

		can := b.CanTransformVertices(worldBounds, moved, transform)
		err := b.TransformVertices(worldBounds, moved, transform, true)
		if can != (err == nil) {
			t.Fatalf("case %d: moving %v by %v: can = %v, error = %v", i, moved[0], delta, can, err)
		}
		if err != nil {
			continue
		}
		if !b.Closed() || !b.FullySpecified() {
			t.Fatalf("case %d: moving %v by %v left %d geometry faces for %d brush faces",
				i, moved[0], delta, b.Geometry().FaceCount(), b.FaceCount())
		}
		if err := b.Geometry().CheckInvariants(); err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
	}
}
