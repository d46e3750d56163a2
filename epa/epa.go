// Package epa measures how deep two overlapping convex shapes penetrate each other, with
// the Expanding Polytope Algorithm.
//
// EPA starts from the tetrahedron GJK leaves around the origin and expands it towards the
// boundary of the Minkowski difference A - B. The face of that boundary closest to the
// origin gives the minimum translation vector separating the shapes.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"math"

	"github.com/akmonengine/brushwork/gjk"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

const (
	// MaxIterations bounds the polytope expansion.
	MaxIterations = 64

	// ConvergenceTolerance stops the expansion once a new support point improves the
	// closest face distance by less than this.
	ConvergenceTolerance = 0.001

	// MinFaceDistance is the smallest distance a face may have from the origin.
	MinFaceDistance = 0.0001

	// NormalSnapThreshold clamps nearly-zero normal components to exactly zero.
	NormalSnapThreshold = 1e-8

	// DegeneratePenetrationEstimate is the depth reported when GJK stopped on a single point.
	DegeneratePenetrationEstimate = 0.01

	polytopeInitialCapacity = 16
)

// ErrNoConvergence is returned when the polytope is still growing after MaxIterations.
var ErrNoConvergence = errors.New("EPA did not converge")

// Penetration is the minimum translation vector of two overlapping shapes: moving the
// second shape by Normal * Depth leaves it touching the first.
type Penetration struct {
	// Normal points from the first shape towards the second.
	Normal mgl64.Vec3
	Depth  float64
}

// Translation returns Normal * Depth.
func (p Penetration) Translation() mgl64.Vec3 {
	return p.Normal.Mul(p.Depth)
}

// EPA computes the penetration of a and b from the simplex GJK left when it reported them
// overlapping.
func EPA(a, b gjk.Shape, simplex *gjk.Simplex) (Penetration, error) {
	if simplex.Count < 4 {
		completed := *simplex
		if !completeSimplex(a, b, &completed) {
			return handleDegenerateSimplex(a, b, simplex), nil
		}
		simplex = &completed
	}

	builder := polytopeBuilderPool.Get().(*PolytopeBuilder)
	defer polytopeBuilderPool.Put(builder)
	builder.Reset()

	if err := builder.BuildInitialFaces(simplex); err != nil {
		return Penetration{}, err
	}

	for i := 0; i < MaxIterations; i++ {
		if len(builder.faces) == 0 {
			break
		}

		closestIndex := builder.FindClosestFaceIndex()
		closest := builder.faces[closestIndex]

		support := gjk.MinkowskiSupport(a, b, closest.Normal)
		distance := support.Dot(closest.Normal)

		if distance-closest.Distance < ConvergenceTolerance {
			return Penetration{Normal: closest.Normal, Depth: closest.Distance}, nil
		}

		builder.AddPointAndRebuildFaces(support, closestIndex)
	}

	return Penetration{}, errors.Wrapf(ErrNoConvergence, "after %d iterations", MaxIterations)
}

var searchDirections = [...]mgl64.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// completeSimplex grows the simplex GJK stopped on into a tetrahedron of Minkowski
// difference points. GJK stops early when the origin lies on a vertex, an edge or a face
// of the simplex, so the tetrahedron still contains it. It returns false when the
// Minkowski difference is flat.
func completeSimplex(a, b gjk.Shape, simplex *gjk.Simplex) bool {
	add := func(p mgl64.Vec3) {
		simplex.Points[simplex.Count] = p
		simplex.Count++
	}

	if simplex.Count == 2 && simplex.Points[1].Sub(simplex.Points[0]).Len() < completeEpsilon {
		simplex.Count = 1
	}

	if simplex.Count == 1 {
		for _, direction := range searchDirections {
			if p := gjk.MinkowskiSupport(a, b, direction); p.Sub(simplex.Points[0]).Len() > completeEpsilon {
				add(p)
				break
			}
		}
	}

	if simplex.Count == 2 {
		axis := simplex.Points[1].Sub(simplex.Points[0]).Normalize()
		direction := axis.Cross(searchDirections[leastAlignedAxis(axis)*2]).Normalize()
		rotation := mgl64.QuatRotate(math.Pi/3, axis)
		for i := 0; i < 6; i++ {
			p := gjk.MinkowskiSupport(a, b, direction)
			offset := p.Sub(simplex.Points[0])
			if offset.Sub(axis.Mul(offset.Dot(axis))).Len() > completeEpsilon {
				add(p)
				break
			}
			direction = rotation.Rotate(direction)
		}
	}

	if simplex.Count == 3 {
		p0 := simplex.Points[0]
		normal := simplex.Points[1].Sub(p0).Cross(simplex.Points[2].Sub(p0))
		if normal.Len() < completeEpsilon*completeEpsilon {
			return false
		}
		normal = normal.Normalize()
		for _, direction := range [2]mgl64.Vec3{normal, normal.Mul(-1)} {
			if p := gjk.MinkowskiSupport(a, b, direction); math.Abs(p.Sub(p0).Dot(normal)) > completeEpsilon {
				add(p)
				break
			}
		}
	}

	return simplex.Count == 4
}

const completeEpsilon = 1e-6

func leastAlignedAxis(v mgl64.Vec3) int {
	axis := 0
	for i := 1; i < 3; i++ {
		if math.Abs(v[i]) < math.Abs(v[axis]) {
			axis = i
		}
	}
	return axis
}

// handleDegenerateSimplex estimates the penetration of shapes whose Minkowski difference
// is flat, from the simplex GJK stopped on.
func handleDegenerateSimplex(a, b gjk.Shape, simplex *gjk.Simplex) Penetration {
	if simplex.Count >= 2 {
		p0, p1 := simplex.Points[0], simplex.Points[1]
		closest := p0
		if p1.Len() < p0.Len() {
			closest = p1
		}
		if depth := closest.Len(); depth > NormalSnapThreshold {
			return Penetration{Normal: snapNormalToAxis(closest.Mul(1 / depth)), Depth: depth}
		}
	}

	normal := b.Center().Sub(a.Center())
	if length := normal.Len(); length < NormalSnapThreshold {
		normal = mgl64.Vec3{0, 0, 1}
	} else {
		normal = normal.Mul(1 / length)
	}
	return Penetration{Normal: normal, Depth: DegeneratePenetrationEstimate}
}

// snapNormalToAxis clamps nearly-zero components of normal to zero and renormalizes it.
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	var clamped mgl64.Vec3
	for i, c := range normal {
		if math.Abs(c) >= NormalSnapThreshold {
			clamped[i] = c
		}
	}

	length := clamped.Len()
	if length < 1e-8 {
		return mgl64.Vec3{0, 0, 1}
	}
	return clamped.Mul(1 / length)
}
