package brush

import (
	"math"

	"github.com/akmonengine/brushwork/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// baseAxes holds, for each of the six axis planes, the plane normal followed by its
// texture U and V axes.
var baseAxes = [18]mgl64.Vec3{
	{0, 0, 1}, {1, 0, 0}, {0, -1, 0},
	{0, 0, -1}, {1, 0, 0}, {0, -1, 0},
	{1, 0, 0}, {0, 1, 0}, {0, 0, -1},
	{-1, 0, 0}, {0, 1, 0}, {0, 0, -1},
	{0, 1, 0}, {1, 0, 0}, {0, 0, -1},
	{0, -1, 0}, {1, 0, 0}, {0, 0, -1},
}

// ParaxialUVCoordSystem projects textures from the axis plane closest to the face, the
// way the original Quake tools do. Its axes are derived from the face normal and the
// rotation attribute alone.
type ParaxialUVCoordSystem struct {
	index int
	uAxis mgl64.Vec3
	vAxis mgl64.Vec3
}

// NewParaxialUVCoordSystem creates the system of a face with the given normal.
func NewParaxialUVCoordSystem(normal mgl64.Vec3, attributes Attributes) *ParaxialUVCoordSystem {
	s := &ParaxialUVCoordSystem{}
	s.SetRotation(normal, 0, attributes.Rotation)
	return s
}

// planeNormalIndex picks the axis plane whose normal is closest to normal.
func planeNormalIndex(normal mgl64.Vec3) int {
	best, bestDot := 0, 0.0
	for i := 0; i < 6; i++ {
		if d := normal.Dot(baseAxes[i*3]); d > bestDot {
			best, bestDot = i, d
		}
	}
	return best
}

// paraxialAxes returns the unrotated U and V axes of an axis plane and the normal of the
// plane the texture is projected onto.
func paraxialAxes(index int) (u, v, normal mgl64.Vec3) {
	return baseAxes[index*3+1], baseAxes[index*3+2], baseAxes[(index/2)*6]
}

func rotateParaxialAxes(u, v mgl64.Vec3, radians float64, index int) (mgl64.Vec3, mgl64.Vec3) {
	axis := baseAxes[index*3+2].Cross(baseAxes[index*3+1])
	rotation := mgl64.QuatRotate(radians, axis)
	return geom.Correct(rotation.Rotate(u), 0, geom.CorrectEpsilon),
		geom.Correct(rotation.Rotate(v), 0, geom.CorrectEpsilon)
}

func (s *ParaxialUVCoordSystem) Clone() UVCoordSystem {
	clone := *s
	return &clone
}

func (s *ParaxialUVCoordSystem) UAxis() mgl64.Vec3 { return s.uAxis }

func (s *ParaxialUVCoordSystem) VAxis() mgl64.Vec3 { return s.vAxis }

func (s *ParaxialUVCoordSystem) Normal() mgl64.Vec3 { return baseAxes[s.index*3] }

func (s *ParaxialUVCoordSystem) Snapshot() (UVSnapshot, bool) { return UVSnapshot{}, false }

func (s *ParaxialUVCoordSystem) Restore(UVSnapshot) {
	panic("brush: paraxial texture systems have no snapshot")
}

func (s *ParaxialUVCoordSystem) UVCoords(point mgl64.Vec3, attributes Attributes, textureSize mgl64.Vec2) mgl64.Vec2 {
	return uvCoords(s, point, attributes, textureSize)
}

// SetRotation recomputes the axes for normal at newAngle; the old angle does not matter.
func (s *ParaxialUVCoordSystem) SetRotation(normal mgl64.Vec3, _, newAngle float64) {
	s.index = planeNormalIndex(normal)
	u, v, _ := paraxialAxes(s.index)
	s.uAxis, s.vAxis = rotateParaxialAxes(u, v, mgl64.DegToRad(newAngle), s.index)
}

// UpdateNormal always projects: paraxial axes cannot be rotated freely.
func (s *ParaxialUVCoordSystem) UpdateNormal(_, newNormal mgl64.Vec3, attributes Attributes, _ WrapStyle) {
	s.SetRotation(newNormal, attributes.Rotation, attributes.Rotation)
}

// Transform keeps the texture coordinates of oldInvariant when locking. Offset, scale and
// rotation are fitted to the transformed axes projected onto the new axis plane, so only
// transforms that keep faces axis aligned are locked exactly.
func (s *ParaxialUVCoordSystem) Transform(oldBoundary, newBoundary geom.Plane, m mgl64.Mat4, attributes *Attributes, textureSize mgl64.Vec2, lock bool, oldInvariant mgl64.Vec3) {
	offset := geom.MulPoint(m, mgl64.Vec3{})
	newNormal := newBoundary.Normal
	if geom.VecEqual(newNormal, oldBoundary.Normal, 0.01) {
		newNormal = oldBoundary.Normal
	}

	if !lock || attributes.Scale[0] == 0 || attributes.Scale[1] == 0 {
		s.SetRotation(newNormal, attributes.Rotation, attributes.Rotation)
		return
	}

	oldInvariantUV := computeUVCoords(s, oldInvariant, attributes.Scale).Add(attributes.Offset)

	// project the texture axes onto the old boundary along the projection normal
	projection := s.Normal()
	boundaryOffset, ok1 := oldBoundary.ProjectPointAlong(mgl64.Vec3{}, projection)
	oldU, ok2 := oldBoundary.ProjectPointAlong(s.uAxis.Mul(attributes.Scale[0]), projection)
	oldV, ok3 := oldBoundary.ProjectPointAlong(s.vAxis.Mul(attributes.Scale[1]), projection)
	if !ok1 || !ok2 || !ok3 {
		return
	}

	transformedU := geom.MulPoint(m, oldU.Sub(boundaryOffset)).Sub(offset)
	transformedV := geom.MulPoint(m, oldV.Sub(boundaryOffset)).Sub(offset)

	preferU := textureSize[0] >= textureSize[1]

	newIndex := planeNormalIndex(newNormal)
	baseU, baseV, uvNormal := paraxialAxes(newIndex)
	uvPlane := geom.Plane{Normal: uvNormal}

	projectedU := uvPlane.ProjectPoint(transformedU)
	projectedV := uvPlane.ProjectPoint(transformedV)
	if projectedU.Len() < geom.AlmostZero || projectedV.Len() < geom.AlmostZero {
		s.SetRotation(newNormal, attributes.Rotation, attributes.Rotation)
		return
	}
	normalizedU := projectedU.Normalize()
	normalizedV := projectedV.Normalize()

	radU := math.Acos(mgl64.Clamp(baseU.Dot(normalizedU), -1, 1))
	if baseU.Cross(normalizedU).Dot(uvNormal) < 0 {
		radU = -radU
	}
	radV := math.Acos(mgl64.Clamp(baseV.Dot(normalizedV), -1, 1))
	if baseV.Cross(normalizedV).Dot(uvNormal) < 0 {
		radV = -radV
	}

	rad := radV
	if preferU {
		rad = radU
	}
	// the Y axis plane rotates clockwise
	if (newIndex/2)*6 == 12 {
		rad = -rad
	}

	newRotation := geom.CorrectFloat(geom.NormalizeDegrees(mgl64.RadToDeg(rad)), 4, geom.CorrectEpsilon)
	s.SetRotation(newNormal, newRotation, newRotation)

	newScale := geom.Correct2(mgl64.Vec2{projectedU.Len(), projectedV.Len()}, 4, geom.CorrectEpsilon)
	if s.uAxis.Dot(normalizedU) < 0 {
		newScale[0] = -newScale[0]
	}
	if s.vAxis.Dot(normalizedV) < 0 {
		newScale[1] = -newScale[1]
	}

	newInvariant := geom.MulPoint(m, oldInvariant)
	newInvariantUV := computeUVCoords(s, newInvariant, newScale)
	newOffset := geom.Correct2(ModOffset(oldInvariantUV.Sub(newInvariantUV), textureSize), 4, geom.CorrectEpsilon)

	attributes.Offset = newOffset
	attributes.Scale = newScale
	attributes.Rotation = newRotation
}

func (s *ParaxialUVCoordSystem) MeasureAngle(currentAngle float64, center, point mgl64.Vec2) float64 {
	rotation := mgl64.QuatRotate(-mgl64.DegToRad(currentAngle), mgl64.Vec3{0, 0, 1})
	d := point.Sub(center)
	v := rotation.Rotate(mgl64.Vec3{d[0], d[1], 0})
	if v.Len() == 0 {
		return currentAngle
	}
	radians := 2*math.Pi - geom.MeasureAngle(v.Normalize(), mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 1})
	return mgl64.RadToDeg(radians)
}

func (s *ParaxialUVCoordSystem) IsRotationInverted(normal mgl64.Vec3) bool {
	return planeNormalIndex(normal)%2 == 0
}

// fromParallel converts explicit texture axes into paraxial attributes that reproduce
// them as closely as the paraxial projection allows. Points are the face's plane points.
func paraxialFromParallel(points [3]mgl64.Vec3, boundary geom.Plane, attributes Attributes, uAxis, vAxis mgl64.Vec3) (*ParaxialUVCoordSystem, Attributes) {
	worldToUV := valveToMatrix(boundary, attributes, uAxis, vAxis)

	converted := attributes
	if offset, scale, rotation, ok := uvMatrixToParaxial(boundary, worldToUV, points); ok {
		converted.Offset = offset
		converted.Scale = scale
		converted.Rotation = rotation
	} else {
		converted.Offset = mgl64.Vec2{}
		converted.Scale = mgl64.Vec2{1, 1}
		converted.Rotation = 0
	}
	return NewParaxialUVCoordSystem(boundary.Normal, converted), converted
}

// valveToMatrix maps a world position to its U/V texture coordinates in texels and its
// distance off the face plane.
func valveToMatrix(boundary geom.Plane, attributes Attributes, uAxis, vAxis mgl64.Vec3) mgl64.Mat4 {
	u := uAxis.Mul(1 / safeScale(attributes.Scale[0]))
	v := vAxis.Mul(1 / safeScale(attributes.Scale[1]))
	n := boundary.Normal
	return mgl64.Mat4FromRows(
		mgl64.Vec4{u[0], u[1], u[2], attributes.Offset[0]},
		mgl64.Vec4{v[0], v[1], v[2], attributes.Offset[1]},
		mgl64.Vec4{n[0], n[1], n[2], -boundary.Distance},
		mgl64.Vec4{0, 0, 0, 1},
	)
}

// stAxes returns the two world axes spanning the axis plane of a snapped normal.
func stAxes(snappedNormal mgl64.Vec3) (int, int) {
	if snappedNormal[0] != 0 {
		return 1, 2
	}
	if snappedNormal[1] != 0 {
		return 0, 2
	}
	return 0, 1
}

func projectToAxisPlane(snappedNormal, point mgl64.Vec3) mgl64.Vec2 {
	s, t := stAxes(snappedNormal)
	return mgl64.Vec2{point[s], point[t]}
}

func uvMatrixToParaxial(boundary geom.Plane, worldToUV mgl64.Mat4, points [3]mgl64.Vec3) (offset, scale mgl64.Vec2, rotation float64, ok bool) {
	_, _, projection := paraxialAxes(planeNormalIndex(boundary.Normal))
	snapped := projection.Mul(-1)

	var uvs, projected [3]mgl64.Vec2
	for i, point := range points {
		uvs[i] = geom.MulPoint(worldToUV, point).Vec2()
		projected[i] = projectToAxisPlane(snapped, point)
	}

	// the linear map taking axis plane vectors to texture vectors
	planeVectors := mgl64.Mat2FromCols(projected[1].Sub(projected[0]), projected[2].Sub(projected[0]))
	uvVectors := mgl64.Mat2FromCols(uvs[1].Sub(uvs[0]), uvs[2].Sub(uvs[0]))
	if math.Abs(planeVectors.Det()) < 1e-12 {
		return offset, scale, 0, false
	}
	planeToUV := uvVectors.Mul2(planeVectors.Inv())

	scale, rotation, ok = extractParaxialAttributes(planeToUV, boundary)
	if !ok {
		return offset, scale, 0, false
	}

	// the offset follows from a single point; points[0] lies on the face
	probe := NewAttributes("")
	probe.Scale = scale
	probe.Rotation = rotation
	actual := NewParaxialUVCoordSystem(boundary.Normal, probe).UVCoords(points[0], probe, mgl64.Vec2{1, 1})
	desired := geom.MulPoint(worldToUV, points[0]).Vec2()
	return desired.Sub(actual), scale, rotation, true
}

func rotation2(degrees float64) mgl64.Mat2 {
	r := mgl64.DegToRad(degrees)
	return mgl64.Mat2FromRows(
		mgl64.Vec2{math.Cos(r), -math.Sin(r)},
		mgl64.Vec2{math.Sin(r), math.Cos(r)},
	)
}

// clockwiseDegreesBetween is negative for a counterclockwise turn from start to end.
func clockwiseDegreesBetween(start, end mgl64.Vec2) float64 {
	start, end = start.Normalize(), end.Normalize()
	degrees := mgl64.RadToDeg(math.Acos(mgl64.Clamp(start.Dot(end), -1, 1)))
	if degrees < 0.000001 {
		return 0
	}
	if start[0]*end[1]-start[1]*end[0] >= 0 {
		return -degrees
	}
	return degrees
}

// extractParaxialAttributes decomposes m = flip · scale · rotation · axisFlips, where
// axisFlips comes from the base axes of the face's axis plane. Shear is removed by
// turning U perpendicular to V.
func extractParaxialAttributes(m mgl64.Mat2, boundary geom.Plane) (scale mgl64.Vec2, rotation float64, ok bool) {
	uVec, vVec := m.Row(0), m.Row(1)
	if math.Abs(uVec.Normalize().Dot(vVec.Normalize())) > 0.001 {
		clockwise := clockwiseDegreesBetween(vVec, uVec) > 0
		turn := 1.0
		if clockwise {
			turn = -1
		}
		// turn 90 degrees from V
		newUDir := mgl64.Vec3{0, 0, turn}.Cross(mgl64.Vec3{vVec[0], vVec[1], 0}).Vec2().Normalize()
		uVec = newUDir.Mul(uVec.Dot(newUDir))
		m = mgl64.Mat2FromRows(uVec, vVec)
	}

	absScale := mgl64.Vec2{uVec.Len(), vVec.Len()}
	applyAbsScale := mgl64.Mat2FromRows(mgl64.Vec2{absScale[0], 0}, mgl64.Vec2{0, absScale[1]})

	index := planeNormalIndex(boundary.Normal)
	baseU, baseV, projection := paraxialAxes(index)
	snapped := projection.Mul(-1)
	u := projectToAxisPlane(snapped, baseU)
	v := projectToAxisPlane(snapped, baseV)
	axisFlips := mgl64.Mat2FromRows(u, v)

	if math.Abs(applyAbsScale.Det()) < 1e-12 || math.Abs(axisFlips.Det()) < 1e-12 {
		return scale, 0, false
	}
	flipRotate := applyAbsScale.Inv().Mul2(m).Mul2(axisFlips.Inv())

	// the signs of the scales are unknown, try all of them
	for _, uSign := range []float64{-1, 1} {
		for _, vSign := range []float64{-1, 1} {
			guessedFlip := mgl64.Mat2FromRows(mgl64.Vec2{uSign, 0}, mgl64.Vec2{0, vSign})
			guessedRotation := guessedFlip.Inv().Mul2(flipRotate)
			column := guessedRotation.Col(0)
			angle := mgl64.RadToDeg(math.Atan2(column[1], column[0]))

			guess := guessedFlip.Mul2(applyAbsScale).Mul2(rotation2(angle)).Mul2(axisFlips)
			if guess.ApproxEqualThreshold(m, 0.001) {
				return mgl64.Vec2{uSign / absScale[0], vSign / absScale[1]}, angle, true
			}
		}
	}
	return scale, 0, false
}
