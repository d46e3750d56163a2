package brush

import (
	"math"

	"github.com/akmonengine/brushwork/geom"
	"github.com/akmonengine/brushwork/polyhedron"
	"github.com/akmonengine/brushwork/result"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Subtract removes every subtrahend from b and returns the remaining fragments, each
// built or failed on its own. Fragment faces take their texturing from the face of b or
// of a subtrahend lying on the same plane; faces created by the cut get defaultMaterial.
// A subtrahend enclosing b leaves no fragment.
func (b *Brush) Subtract(format MapFormat, worldBounds geom.BBox, defaultMaterial string, subtrahends ...*Brush) []result.Result[*Brush] {
	fragments := []*polyhedron.Polyhedron{b.geometry}
	for _, subtrahend := range subtrahends {
		fragments = lo.FlatMap(fragments, func(fragment *polyhedron.Polyhedron, _ int) []*polyhedron.Polyhedron {
			return fragment.Subtract(subtrahend.geometry)
		})
	}

	return lo.Map(fragments, func(fragment *polyhedron.Polyhedron, _ int) result.Result[*Brush] {
		return result.Of(b.createBrush(format, worldBounds, defaultMaterial, fragment, subtrahends))
	})
}

func (b *Brush) createBrush(format MapFormat, worldBounds geom.BBox, defaultMaterial string, geometry *polyhedron.Polyhedron, subtrahends []*Brush) (*Brush, error) {
	fragment, err := NewFromPolyhedron(worldBounds, geometry, NewAttributes(defaultMaterial), format)
	if err != nil {
		return nil, errors.Wrap(err, "creating fragment")
	}
	fragment.CloneFaceAttributesFrom(b)
	for _, subtrahend := range subtrahends {
		fragment.CloneFaceAttributesFrom(subtrahend)
		fragment.CloneInvertedFaceAttributesFrom(subtrahend)
	}
	return fragment, nil
}

// NewFromPolyhedron builds a brush with one face per face of geometry, all of them
// textured with attributes.
func NewFromPolyhedron(worldBounds geom.BBox, geometry *polyhedron.Polyhedron, attributes Attributes, format MapFormat) (*Brush, error) {
	faces, err := result.Fold(lo.Map(geometry.Faces(), func(f polyhedron.FaceID, _ int) result.Result[BrushFace] {
		first := geometry.Boundary(f)
		second := geometry.Next(first)
		third := geometry.Next(second)
		return result.Of(NewBrushFace(
			geometry.Position(geometry.Origin(second)),
			geometry.Position(geometry.Origin(first)),
			geometry.Position(geometry.Origin(third)),
			attributes,
			format,
		))
	}))
	if err != nil {
		return nil, errors.Wrap(err, "creating faces")
	}
	return New(worldBounds, faces)
}

// CloneFaceAttributesFrom copies the texturing of every face of other onto the face of b
// lying on the same plane. Faces without a counterpart keep theirs.
func (b *Brush) CloneFaceAttributesFrom(other *Brush) {
	for i := range b.faces {
		destination := &b.faces[i]
		if j, ok := other.FindFaceByPlane(destination.boundary, geom.AlmostZero); ok {
			copyTexturing(destination, &other.faces[j], WrapProjection)
		}
	}
}

// CloneInvertedFaceAttributesFrom copies the texturing of every face of other onto the
// face of b lying on the same plane with the opposite orientation, such as the faces a
// subtraction cuts out of b.
func (b *Brush) CloneInvertedFaceAttributesFrom(other *Brush) {
	for i := range b.faces {
		destination := &b.faces[i]
		if j, ok := other.FindFaceByPlane(destination.boundary.Flip(), geom.AlmostZero); ok {
			copyTexturing(destination, &other.faces[j], WrapProjection)
		}
	}
}

// CloneFaceAttributesFromBrushes gives every face the texturing of the best matching face
// among brushes: the largest face lying on the same plane, or failing that the face whose
// center is closest to the plane.
func (b *Brush) CloneFaceAttributesFromBrushes(brushes []*Brush) {
	var candidates []*BrushFace
	for _, brush := range brushes {
		for i := range brush.faces {
			candidates = append(candidates, &brush.faces[i])
		}
	}
	if len(candidates) == 0 {
		return
	}

	for i := range b.faces {
		face := &b.faces[i]
		copyTexturing(face, bestMatchingFace(face, candidates), WrapProjection)
	}
}

func bestMatchingFace(face *BrushFace, candidates []*BrushFace) *BrushFace {
	coplanar := lo.Filter(candidates, func(candidate *BrushFace, _ int) bool {
		return candidate.CoplanarWith(face.boundary)
	})
	if len(coplanar) > 0 {
		return lo.MaxBy(coplanar, func(a, b *BrushFace) bool { return a.Area() > b.Area() })
	}
	return lo.MinBy(candidates, func(a, b *BrushFace) bool {
		return math.Abs(face.boundary.PointDistance(a.Center())) < math.Abs(face.boundary.PointDistance(b.Center()))
	})
}

func copyTexturing(destination, source *BrushFace, style WrapStyle) {
	destination.SetAttributes(source.attributes)
	if snapshot, ok := source.uv.Snapshot(); ok {
		destination.copyUVCoordSystemFrom(snapshot, source.attributes, source.boundary, style)
	}
}
