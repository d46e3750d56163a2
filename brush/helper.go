package brush

import (
	"math"

	"github.com/akmonengine/brushwork/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// RotationSnapTolerance is how close, in degrees, a rotation must come to a snap target
// to be snapped.
var RotationSnapTolerance = 3.0

// TexCoordSystemHelper converts between world space and the texture space of one face.
// Translation and scaling can be switched off or overridden, which texture tools use to
// work in an unscaled or untranslated texture space.
type TexCoordSystemHelper struct {
	face *BrushFace

	translate bool
	scale     bool
	project   bool

	overrideOffset bool
	offset         mgl64.Vec2
	overrideScale  bool
	scaleFactors   mgl64.Vec2
}

// NewTexCoordSystemHelper translates, scales and projects by default.
func NewTexCoordSystemHelper(face *BrushFace) *TexCoordSystemHelper {
	return &TexCoordSystemHelper{face: face, translate: true, scale: true, project: true}
}

func (h *TexCoordSystemHelper) Face() *BrushFace { return h.face }

func (h *TexCoordSystemHelper) SetTranslate(translate bool) { h.translate = translate }

func (h *TexCoordSystemHelper) SetScale(scale bool) { h.scale = scale }

func (h *TexCoordSystemHelper) SetProject(project bool) { h.project = project }

// SetOverrideTranslate uses offset instead of the face offset.
func (h *TexCoordSystemHelper) SetOverrideTranslate(offset mgl64.Vec2) {
	h.overrideOffset = true
	h.offset = offset
}

// SetOverrideScale uses scale instead of the face scale.
func (h *TexCoordSystemHelper) SetOverrideScale(scale mgl64.Vec2) {
	h.overrideScale = true
	h.scaleFactors = scale
}

func (h *TexCoordSystemHelper) ClearOverrides() {
	h.overrideOffset = false
	h.overrideScale = false
}

// Offset is the offset in use: zero without translation.
func (h *TexCoordSystemHelper) Offset() mgl64.Vec2 {
	switch {
	case !h.translate:
		return mgl64.Vec2{}
	case h.overrideOffset:
		return h.offset
	}
	return h.face.Attributes().Offset
}

// Scale is the scale in use: one without scaling.
func (h *TexCoordSystemHelper) Scale() mgl64.Vec2 {
	switch {
	case !h.scale:
		return mgl64.Vec2{1, 1}
	case h.overrideScale:
		return h.scaleFactors
	}
	return h.face.Attributes().Scale
}

func (h *TexCoordSystemHelper) WorldToTexMatrix() mgl64.Mat4 {
	return h.face.ToTexCoordSystemMatrix(h.Offset(), h.Scale(), h.project)
}

func (h *TexCoordSystemHelper) TexToWorldMatrix() mgl64.Mat4 {
	return h.face.FromTexCoordSystemMatrix(h.Offset(), h.Scale(), h.project)
}

// WorldToTex returns the texture space position of a world position. Without projection
// Z is the distance along the texture normal.
func (h *TexCoordSystemHelper) WorldToTex(point mgl64.Vec3) mgl64.Vec3 {
	return geom.MulPoint(h.WorldToTexMatrix(), point)
}

// TexToWorld returns the world position of a texture space point. With projection it
// lies on the face plane.
func (h *TexCoordSystemHelper) TexToWorld(point mgl64.Vec2) mgl64.Vec3 {
	return geom.MulPoint(h.TexToWorldMatrix(), mgl64.Vec3{point[0], point[1], 0})
}

// TexToTex converts a point from this helper's texture space into other's, through world
// space.
func (h *TexCoordSystemHelper) TexToTex(point mgl64.Vec2, other *TexCoordSystemHelper) mgl64.Vec2 {
	return other.WorldToTex(h.TexToWorld(point)).Vec2()
}

// MeasureTextureAngle returns the rotation, in [0, 360) degrees, at which the texture X
// axis points from center to point.
func (h *TexCoordSystemHelper) MeasureTextureAngle(center, point mgl64.Vec2) float64 {
	return geom.NormalizeDegrees(h.face.MeasureUVAngle(center, point))
}

// RotationFromHandle measures the angle of a rotation handle dragged to point and snaps
// it with SnapRotation.
func (h *TexCoordSystemHelper) RotationFromHandle(center, point mgl64.Vec2) float64 {
	return h.SnapRotation(h.MeasureTextureAngle(center, point))
}

// SnapRotation snaps angle to the nearest cardinal rotation, or to a rotation aligning
// the texture with an edge of the face, when one is within RotationSnapTolerance.
// Otherwise angle is returned normalized.
func (h *TexCoordSystemHelper) SnapRotation(angle float64) float64 {
	angle = geom.NormalizeDegrees(angle)
	minDelta, target := math.Inf(1), angle
	// a candidate must beat the best one by more than AlmostZero, so cardinals win over
	// edges that are axis aligned up to rounding
	consider := func(candidate float64) {
		if delta := math.Abs(angleDifference(angle, candidate)); delta < minDelta-geom.AlmostZero {
			minDelta, target = delta, candidate
		}
	}

	for _, cardinal := range []float64{0, 90, 180, 270} {
		consider(cardinal)
	}

	toFace := h.face.ToTexCoordSystemMatrix(mgl64.Vec2{}, mgl64.Vec2{1, 1}, true)
	vertices := h.face.Vertices()
	for i := range vertices {
		start := geom.MulPoint(toFace, vertices[i]).Vec2()
		end := geom.MulPoint(toFace, vertices[(i+1)%len(vertices)]).Vec2()
		edgeAngle := h.face.MeasureUVAngle(start, end)
		for k := 0; k < 4; k++ {
			consider(geom.NormalizeDegrees(edgeAngle + float64(k)*90))
		}
	}

	if minDelta < RotationSnapTolerance {
		return target
	}
	return angle
}

// angleDifference returns a - b in (-180, 180].
func angleDifference(a, b float64) float64 {
	d := geom.NormalizeDegrees(a - b)
	if d > 180 {
		d -= 360
	}
	return d
}
