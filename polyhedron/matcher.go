package polyhedron

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Matcher relates the faces of a polyhedron before an edit (left) to the faces after it
// (right), so that per-face data can follow the geometry.
type Matcher struct {
	left, right *Polyhedron
	// related maps a left vertex position to the right vertex positions it corresponds to.
	related map[mgl64.Vec3]map[mgl64.Vec3]bool
}

// NewMatcher relates the vertices of left and right through vertexMapping, from left
// positions to right positions. A nil mapping relates vertices at identical positions.
// Vertices added by the edit are related to whatever their neighbours are related to,
// and so are vertices the edit removed.
func NewMatcher(left, right *Polyhedron, vertexMapping map[mgl64.Vec3]mgl64.Vec3) *Matcher {
	m := &Matcher{left: left, right: right, related: make(map[mgl64.Vec3]map[mgl64.Vec3]bool)}

	if vertexMapping == nil {
		for _, position := range left.VertexPositions() {
			if right.HasVertex(position, 0) {
				m.relate(position, position)
			}
		}
	} else {
		for from, to := range vertexMapping {
			if left.HasVertex(from, 0) && right.HasVertex(to, 0) {
				m.relate(from, to)
			}
		}
	}

	m.expandAdded()
	m.expandRemoved()
	return m
}

func (m *Matcher) relate(left, right mgl64.Vec3) {
	set, ok := m.related[left]
	if !ok {
		set = make(map[mgl64.Vec3]bool)
		m.related[left] = set
	}
	set[right] = true
}

// Related reports whether a left and a right vertex position correspond.
func (m *Matcher) Related(left, right mgl64.Vec3) bool {
	return m.related[left][right]
}

func (m *Matcher) expandAdded() {
	inverse := make(map[mgl64.Vec3][]mgl64.Vec3)
	for left, set := range m.related {
		for right := range set {
			inverse[right] = append(inverse[right], left)
		}
	}

	neighbours := adjacency(m.right)
	for _, position := range m.right.VertexPositions() {
		if len(inverse[position]) > 0 {
			continue
		}
		for _, neighbour := range neighbours[position] {
			for _, left := range inverse[neighbour] {
				m.relate(left, position)
			}
		}
	}
}

func (m *Matcher) expandRemoved() {
	snapshot := make(map[mgl64.Vec3][]mgl64.Vec3, len(m.related))
	for left, set := range m.related {
		for right := range set {
			snapshot[left] = append(snapshot[left], right)
		}
	}

	neighbours := adjacency(m.left)
	for _, position := range m.left.VertexPositions() {
		if len(snapshot[position]) > 0 {
			continue
		}
		for _, neighbour := range neighbours[position] {
			for _, right := range snapshot[neighbour] {
				m.relate(position, right)
			}
		}
	}
}

func adjacency(p *Polyhedron) map[mgl64.Vec3][]mgl64.Vec3 {
	neighbours := make(map[mgl64.Vec3][]mgl64.Vec3, p.VertexCount())
	for _, h := range p.Edges() {
		a, b := p.Position(p.Origin(h)), p.Position(p.Destination(h))
		neighbours[a] = append(neighbours[a], b)
		neighbours[b] = append(neighbours[b], a)
	}
	return neighbours
}

// MatchFaces calls visit for every right face with the left face it matches best. A left
// face with the same loop always wins; otherwise the face sharing the most related
// vertices does, and ties go to the face whose normal is closest.
func (m *Matcher) MatchFaces(visit func(left, right FaceID)) {
	if m.left.FaceCount() == 0 {
		return
	}
	for _, right := range m.right.Faces() {
		visit(m.bestMatch(right), right)
	}
}

func (m *Matcher) bestMatch(right FaceID) FaceID {
	normal := m.right.FaceNormal(right)
	var best FaceID
	bestScore, bestDot := -1, math.Inf(-1)
	for _, left := range m.left.Faces() {
		score := m.score(left, right)
		dot := m.left.FaceNormal(left).Dot(normal)
		if score > bestScore || (score == bestScore && dot > bestDot) {
			best, bestScore, bestDot = left, score, dot
		}
	}
	return best
}

func (m *Matcher) score(left, right FaceID) int {
	if m.left.FacePolygon(left).ApproxEqual(m.right.FacePolygon(right), 0) {
		return math.MaxInt
	}
	score := 0
	rightPositions := m.right.FacePositions(right)
	for _, l := range m.left.FacePositions(left) {
		for _, r := range rightPositions {
			if m.Related(l, r) {
				score++
			}
		}
	}
	return score
}

// VisitMatchingVertexPairs calls visit for each pair of related vertices of a left and a
// right face, in the winding order of the left face.
func (m *Matcher) VisitMatchingVertexPairs(left, right FaceID, visit func(l, r VertexID)) {
	rightVertices := m.right.FaceVertices(right)
	for _, l := range m.left.FaceVertices(left) {
		lp := m.left.Position(l)
		for _, r := range rightVertices {
			if m.Related(lp, m.right.Position(r)) {
				visit(l, r)
			}
		}
	}
}
