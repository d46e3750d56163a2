package polyhedron

import (
	"math"

	"github.com/akmonengine/brushwork/geom"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// ClipResult tells what Clip did.
type ClipResult int

const (
	// ClipUnchanged: nothing lies above the plane.
	ClipUnchanged ClipResult = iota
	// ClipEmpty: nothing lies below the plane.
	ClipEmpty
	// ClipSuccess: the part above the plane was cut away.
	ClipSuccess
)

func (r ClipResult) String() string {
	switch r {
	case ClipUnchanged:
		return "unchanged"
	case ClipEmpty:
		return "empty"
	case ClipSuccess:
		return "success"
	}
	return "unknown"
}

// Clip intersects p with the half-space below plane, in place. Faces of p that keep
// their plane keep their payload; the new face has none. Intersection points within
// geom.CorrectEpsilon of an integer are rounded to it, unless rounding would move them
// off the clip plane or off either face of the edge they were cut from.
func (p *Polyhedron) Clip(plane geom.Plane) ClipResult {
	points, result := p.clipPoints(plane)
	if result != ClipSuccess {
		return result
	}

	clipped := New(points...)
	clipped.copyPayloadsFrom(p)
	*p = *clipped
	return ClipSuccess
}

// clipPoints returns the vertices below or on the plane and the points where edges cross
// it.
func (p *Polyhedron) clipPoints(plane geom.Plane) ([]mgl64.Vec3, ClipResult) {
	distances := make([]float64, p.vertices.len())
	above, below := false, false
	for i := range p.vertices.items {
		distances[i] = plane.PointDistance(p.vertices.items[i].position)
		above = above || distances[i] > PlaneEpsilon
		below = below || distances[i] < -PlaneEpsilon
	}
	if !above {
		return nil, ClipUnchanged
	}
	if !below {
		return nil, ClipEmpty
	}

	points := make([]mgl64.Vec3, 0, p.vertices.len())
	for i := range p.vertices.items {
		if distances[i] <= PlaneEpsilon {
			points = append(points, p.vertices.items[i].position)
		}
	}
	for _, h := range p.Edges() {
		a, b := p.Origin(h), p.Destination(h)
		da, db := distances[a.index], distances[b.index]
		if (da > PlaneEpsilon && db < -PlaneEpsilon) || (da < -PlaneEpsilon && db > PlaneEpsilon) {
			pa, pb := p.Position(a), p.Position(b)
			point := pa.Add(pb.Sub(pa).Mul(da / (da - db)))
			points = append(points, snapOnPlanes(point, p.edgePlanes(h, plane)))
		}
	}
	return points, ClipSuccess
}

// edgePlanes returns plane and the planes of the faces on either side of h.
func (p *Polyhedron) edgePlanes(h HalfEdgeID, plane geom.Plane) []geom.Plane {
	planes := []geom.Plane{plane}
	if p.dimension < DimensionPolygon {
		return planes
	}
	if f := p.HalfEdgeFace(h); f.Valid() {
		planes = append(planes, p.FacePlane(f))
	}
	if twin := p.Twin(h); twin.Valid() {
		if f := p.HalfEdgeFace(twin); f.Valid() {
			planes = append(planes, p.FacePlane(f))
		}
	}
	return planes
}

// snapOnPlanes rounds point to the nearest integers if the rounded point stays within
// snapTolerance of every plane. Otherwise point is returned as is.
func snapOnPlanes(point mgl64.Vec3, planes []geom.Plane) mgl64.Vec3 {
	snapped := geom.Correct(point, 0, geom.CorrectEpsilon)
	if snapped == point {
		return point
	}
	tolerance := snapTolerance()
	for _, plane := range planes {
		if math.Abs(plane.PointDistance(snapped)) > tolerance {
			return point
		}
	}
	return snapped
}

// snapTolerance is a fraction of PlaneEpsilon, so that faces built through snapped points
// are still merged by the hull builder.
func snapTolerance() float64 {
	return min(geom.CorrectEpsilon, PlaneEpsilon) / 8
}

// NewFromPlanes intersects the world bounds box with the half-spaces below each plane,
// in order. Each face of the result carries the index of the plane it lies on as payload;
// planes that cut nothing are not referenced by any face.
func NewFromPlanes(worldBounds geom.BBox, planes []geom.Plane) (*Polyhedron, error) {
	p := NewCuboid(worldBounds)
	for i, plane := range planes {
		if p.Clip(plane) == ClipEmpty {
			return nil, errors.Wrapf(ErrEmpty, "plane %d removes everything", i)
		}
	}

	if !p.Polyhedron() {
		return nil, errors.Wrapf(ErrInvalid, "result is a %s", p.Dimension())
	}

	for _, f := range p.Faces() {
		index, ok := matchPlane(p, f, planes)
		if !ok {
			return nil, errors.Wrapf(ErrIncomplete, "face %v lies on no input plane", p.FaceNormal(f))
		}
		p.SetPayload(f, index)
	}
	return p, nil
}

// matchPlane finds the input plane face f lies on. Ties go to the plane with the best
// aligned normal, then to the earliest.
func matchPlane(p *Polyhedron, f FaceID, planes []geom.Plane) (int, bool) {
	normal := p.FaceNormal(f)
	positions := p.FacePositions(f)
	best, bestDot := -1, 0.9
	for i, plane := range planes {
		d := plane.Normal.Dot(normal)
		if d <= bestDot {
			continue
		}
		onPlane := true
		for _, position := range positions {
			if math.Abs(plane.PointDistance(position)) > 0.01 {
				onPlane = false
				break
			}
		}
		if onPlane {
			best, bestDot = i, d
		}
	}
	return best, best >= 0
}
