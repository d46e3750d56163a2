package brush

import (
	"github.com/akmonengine/brushwork/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// ParallelUVCoordSystem stores explicit texture axes, as the Valve 220 format does. The
// axes follow every transform, so texture lock holds for arbitrary transforms.
type ParallelUVCoordSystem struct {
	uAxis mgl64.Vec3
	vAxis mgl64.Vec3
}

// NewParallelUVCoordSystem starts from the axes a paraxial face with the same normal and
// rotation would have, so a new face looks the same in either format.
func NewParallelUVCoordSystem(normal mgl64.Vec3, attributes Attributes) *ParallelUVCoordSystem {
	paraxial := NewParaxialUVCoordSystem(normal, attributes)
	return &ParallelUVCoordSystem{uAxis: paraxial.uAxis, vAxis: paraxial.vAxis}
}

// NewParallelUVCoordSystemWithAxes uses the given axes as they are.
func NewParallelUVCoordSystemWithAxes(uAxis, vAxis mgl64.Vec3) *ParallelUVCoordSystem {
	return &ParallelUVCoordSystem{uAxis: uAxis, vAxis: vAxis}
}

func (s *ParallelUVCoordSystem) Clone() UVCoordSystem {
	clone := *s
	return &clone
}

func (s *ParallelUVCoordSystem) UAxis() mgl64.Vec3 { return s.uAxis }

func (s *ParallelUVCoordSystem) VAxis() mgl64.Vec3 { return s.vAxis }

func (s *ParallelUVCoordSystem) Normal() mgl64.Vec3 {
	return s.uAxis.Cross(s.vAxis).Normalize()
}

func (s *ParallelUVCoordSystem) Snapshot() (UVSnapshot, bool) {
	return UVSnapshot{UAxis: s.uAxis, VAxis: s.vAxis}, true
}

func (s *ParallelUVCoordSystem) Restore(snapshot UVSnapshot) {
	s.uAxis, s.vAxis = snapshot.UAxis, snapshot.VAxis
}

func (s *ParallelUVCoordSystem) UVCoords(point mgl64.Vec3, attributes Attributes, textureSize mgl64.Vec2) mgl64.Vec2 {
	return uvCoords(s, point, attributes, textureSize)
}

// rotationAxis is the axis paraxial systems rotate about, so that both formats turn the
// same way for the same change of rotation.
func (s *ParallelUVCoordSystem) rotationAxis() mgl64.Vec3 {
	return s.vAxis.Cross(s.uAxis).Normalize()
}

func (s *ParallelUVCoordSystem) SetRotation(_ mgl64.Vec3, oldAngle, newAngle float64) {
	delta := newAngle - oldAngle
	if delta == 0 {
		return
	}
	rotation := mgl64.QuatRotate(mgl64.DegToRad(delta), s.rotationAxis())
	s.uAxis = rotation.Rotate(s.uAxis)
	s.vAxis = rotation.Rotate(s.vAxis)
}

// UpdateNormal with WrapRotation turns the axes with the face. WrapProjection keeps them
// while the face still projects from the same axis plane, and falls back to paraxial
// axes otherwise.
func (s *ParallelUVCoordSystem) UpdateNormal(oldNormal, newNormal mgl64.Vec3, attributes Attributes, style WrapStyle) {
	switch style {
	case WrapRotation:
		axis := oldNormal.Cross(newNormal)
		if geom.IsZero(axis, geom.AlmostZero) {
			return
		}
		axis = axis.Normalize()
		angle := geom.MeasureAngle(newNormal, oldNormal, axis)
		rotation := mgl64.QuatRotate(angle, axis)
		s.uAxis = rotation.Rotate(s.uAxis)
		s.vAxis = rotation.Rotate(s.vAxis)
	default:
		if geom.AbsMaxComponent(s.Normal()) == geom.AbsMaxComponent(newNormal) {
			return
		}
		paraxial := NewParaxialUVCoordSystem(newNormal, attributes)
		s.uAxis, s.vAxis = paraxial.uAxis, paraxial.vAxis
	}
}

// Transform with lock solves uv = N · T · p = W · p for the new world-to-texture map N,
// giving N = W · T⁻¹. The axes are the normalized rows of N and the row lengths go into
// the scale; the offset keeps the texture coordinates of oldInvariant.
func (s *ParallelUVCoordSystem) Transform(oldBoundary, newBoundary geom.Plane, m mgl64.Mat4, attributes *Attributes, textureSize mgl64.Vec2, lock bool, oldInvariant mgl64.Vec3) {
	if attributes.Scale[0] == 0 || attributes.Scale[1] == 0 {
		return
	}
	if !lock {
		s.UpdateNormal(oldBoundary.Normal, newBoundary.Normal, *attributes, WrapProjection)
		return
	}
	inverse, ok := geom.Invert(m)
	if !ok {
		return
	}

	angleDelta := s.angleDelta(oldBoundary, m)
	newRotation := geom.CorrectFloat(geom.NormalizeDegrees(attributes.Rotation+angleDelta), 4, geom.CorrectEpsilon)

	oldInvariantUV := computeUVCoords(s, oldInvariant, attributes.Scale).Add(attributes.Offset)

	worldToTex := toMatrix(s, mgl64.Vec2{}, mgl64.Vec2{1, 1}).Mul4(inverse)
	u := worldToTex.Row(0).Vec3()
	v := worldToTex.Row(1).Vec3()
	uLength, vLength := u.Len(), v.Len()
	if uLength < geom.ColinearEpsilon || vLength < geom.ColinearEpsilon {
		return
	}
	s.uAxis = u.Mul(1 / uLength)
	s.vAxis = v.Mul(1 / vLength)

	newScale := geom.Correct2(mgl64.Vec2{
		attributes.Scale[0] / uLength,
		attributes.Scale[1] / vLength,
	}, 4, geom.CorrectEpsilon)

	newInvariantUV := computeUVCoords(s, geom.MulPoint(m, oldInvariant), newScale)

	attributes.Offset = geom.Correct2(ModOffset(oldInvariantUV.Sub(newInvariantUV), textureSize), 4, geom.CorrectEpsilon)
	attributes.Scale = newScale
	attributes.Rotation = newRotation
}

// angleDelta measures how far m turns the U axis about the face normal, beyond the
// rotation that takes the old normal onto the new one.
func (s *ParallelUVCoordSystem) angleDelta(oldBoundary geom.Plane, m mgl64.Mat4) float64 {
	linear := geom.StripTranslation(m)
	oldNormal := oldBoundary.Normal
	newNormal := geom.MulDirection(linear, oldNormal).Normalize()

	alignNormals := mgl64.QuatBetweenVectors(oldNormal, newNormal)
	transformedU := geom.MulDirection(linear, s.uAxis)
	alignedU := alignNormals.Rotate(s.uAxis)
	if transformedU.Len() < geom.ColinearEpsilon || alignedU.Len() < geom.ColinearEpsilon {
		return 0
	}
	return mgl64.RadToDeg(geom.MeasureAngle(alignedU.Normalize(), transformedU.Normalize(), newNormal))
}

func (s *ParallelUVCoordSystem) MeasureAngle(currentAngle float64, center, point mgl64.Vec2) float64 {
	d := point.Sub(center)
	if d.Len() == 0 {
		return currentAngle
	}
	v := mgl64.Vec3{d[0], d[1], 0}.Normalize()
	return currentAngle + mgl64.RadToDeg(geom.MeasureAngle(v, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 1}))
}

func (s *ParallelUVCoordSystem) IsRotationInverted(normal mgl64.Vec3) bool {
	return s.rotationAxis().Dot(normal) > 0
}

// parallelFromParaxial turns a paraxial system into explicit axes that produce the same
// texture coordinates. The attributes carry over unchanged.
func parallelFromParaxial(paraxial UVCoordSystem) *ParallelUVCoordSystem {
	return NewParallelUVCoordSystemWithAxes(paraxial.UAxis(), paraxial.VAxis())
}
