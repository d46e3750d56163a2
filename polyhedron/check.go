package polyhedron

import (
	"math"

	"github.com/akmonengine/brushwork/geom"
	"github.com/pkg/errors"
)

// CheckInvariants verifies the half-edge graph of a solid: twins are mutual and reversed,
// loops are closed and planar, the solid is convex and satisfies Euler's formula. Other
// dimensions are only checked for their element counts.
func (p *Polyhedron) CheckInvariants() error {
	switch p.dimension {
	case DimensionEmpty:
		if p.VertexCount() != 0 {
			return errors.Wrap(ErrInvalid, "empty polyhedron has vertices")
		}
		return nil
	case DimensionPoint:
		if p.VertexCount() != 1 {
			return errors.Wrapf(ErrInvalid, "point has %d vertices", p.VertexCount())
		}
		return nil
	case DimensionEdge:
		if p.VertexCount() != 2 || p.halfEdges.len() != 2 {
			return errors.Wrap(ErrInvalid, "edge must have two vertices and two half-edges")
		}
		return nil
	case DimensionPolygon:
		if p.FaceCount() != 1 || p.VertexCount() < 3 {
			return errors.Wrap(ErrInvalid, "polygon must have one face of at least three vertices")
		}
		return p.checkLoops()
	}

	if err := p.checkLoops(); err != nil {
		return err
	}

	for i := 0; i < p.halfEdges.len(); i++ {
		id := HalfEdgeID{p.halfEdges.handleAt(i)}
		twin := p.Twin(id)
		if !twin.Valid() {
			return errors.Wrapf(ErrInvalid, "half-edge %d has no twin", i)
		}
		if p.Twin(twin) != id {
			return errors.Wrapf(ErrInvalid, "half-edge %d twin is not mutual", i)
		}
		if p.Origin(twin) != p.Destination(id) || p.Destination(twin) != p.Origin(id) {
			return errors.Wrapf(ErrInvalid, "half-edge %d twin is not reversed", i)
		}
		if p.HalfEdgeFace(twin) == p.HalfEdgeFace(id) {
			return errors.Wrapf(ErrInvalid, "half-edge %d and its twin bound the same face", i)
		}
	}

	for _, f := range p.Faces() {
		plane := p.FacePlane(f)
		for _, position := range p.VertexPositions() {
			if plane.PointDistance(position) > geom.AlmostZero {
				return errors.Wrapf(ErrInvalid, "vertex %v lies above face %v", position, plane.Normal)
			}
		}
	}

	if euler := p.VertexCount() - p.EdgeCount() + p.FaceCount(); euler != 2 {
		return errors.Wrapf(ErrInvalid, "euler characteristic is %d", euler)
	}
	return nil
}

func (p *Polyhedron) checkLoops() error {
	for _, f := range p.Faces() {
		edges := p.FaceHalfEdges(f)
		if len(edges) < 3 {
			return errors.Wrapf(ErrInvalid, "face loop of %d half-edges", len(edges))
		}
		if p.Next(edges[len(edges)-1]) != edges[0] {
			return errors.Wrap(ErrInvalid, "face loop is not closed")
		}
		for _, h := range edges {
			if p.HalfEdgeFace(h) != f {
				return errors.Wrap(ErrInvalid, "half-edge bound to another face")
			}
			if p.Previous(p.Next(h)) != h {
				return errors.Wrap(ErrInvalid, "next and previous disagree")
			}
		}

		plane := p.FacePlane(f)
		for _, position := range p.FacePositions(f) {
			if math.Abs(plane.PointDistance(position)) > geom.AlmostZero {
				return errors.Wrapf(ErrInvalid, "face %v is not planar", plane.Normal)
			}
		}
	}
	return nil
}
