package polyhedron

import (
	"math"
	"sort"

	"github.com/akmonengine/brushwork/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// Subtract returns convex solids whose union is p minus subtrahend. A subtrahend that
// does not overlap p leaves a single copy of p; one that encloses p leaves nothing.
// Fragments carry no payloads.
func (p *Polyhedron) Subtract(subtrahend *Polyhedron) []*Polyhedron {
	if !p.Polyhedron() {
		return nil
	}
	if !subtrahend.Polyhedron() || !p.bounds.Overlaps(subtrahend.bounds) {
		return []*Polyhedron{p.Clone()}
	}

	intersection := subtrahend.Intersect(p)
	if !intersection.Polyhedron() {
		return []*Polyhedron{p.Clone()}
	}

	// Cut along the planes of the part that is removed: each cut peels the piece outside
	// one plane off what remains.
	var fragments []*Polyhedron
	remaining := p.Clone()
	for _, plane := range sortPlanes(intersection) {
		outside := remaining.Clone()
		if outside.Clip(plane.Flip()) != ClipEmpty && outside.Polyhedron() && outside.Volume() > PlaneEpsilon {
			fragments = append(fragments, stripPayloads(outside))
		}
		if remaining.Clip(plane) == ClipEmpty {
			break
		}
	}

	return mergeFragments(fragments)
}

// sortPlanes returns the face planes of p with axis-aligned planes first, which keeps
// fragments box-shaped where possible.
func sortPlanes(p *Polyhedron) []geom.Plane {
	faces := p.Faces()
	planes := make([]geom.Plane, len(faces))
	for i, f := range faces {
		planes[i] = p.FacePlane(f)
	}
	sort.SliceStable(planes, func(i, j int) bool {
		return axiality(planes[i].Normal) > axiality(planes[j].Normal)
	})
	return planes
}

func axiality(normal mgl64.Vec3) float64 {
	return math.Abs(normal[geom.AbsMaxComponent(normal)])
}

func stripPayloads(p *Polyhedron) *Polyhedron {
	for _, f := range p.Faces() {
		p.SetPayload(f, NoPayload)
	}
	return p
}

// mergeFragments joins pairs of fragments whose union is convex until none is left.
func mergeFragments(fragments []*Polyhedron) []*Polyhedron {
	for merged := true; merged; {
		merged = false
	search:
		for i := 0; i < len(fragments); i++ {
			for j := i + 1; j < len(fragments); j++ {
				if union, ok := convexUnion(fragments[i], fragments[j]); ok {
					fragments[i] = union
					fragments = append(fragments[:j], fragments[j+1:]...)
					merged = true
					break search
				}
			}
		}
	}
	return fragments
}

// unionVolumeEpsilon is the relative volume by which the hull of two fragments may exceed
// their sum and still count as their union.
const unionVolumeEpsilon = 1e-6

// convexUnion returns the hull of a and b if it is exactly their union: the hull adds no
// volume and has no vertex that is not already a vertex of a or b.
func convexUnion(a, b *Polyhedron) (*Polyhedron, bool) {
	if !a.bounds.Expand(PlaneEpsilon).Overlaps(b.bounds) {
		return nil, false
	}
	union := New(append(a.VertexPositions(), b.VertexPositions()...)...)
	sum := a.Volume() + b.Volume()
	if math.Abs(union.Volume()-sum) > unionVolumeEpsilon*math.Max(1, sum) {
		return nil, false
	}
	for _, position := range union.VertexPositions() {
		if !a.HasVertex(position, MergeEpsilon) && !b.HasVertex(position, MergeEpsilon) {
			return nil, false
		}
	}
	return union, true
}
