package polyhedron

import (
	"math"
	"sort"

	"github.com/akmonengine/brushwork/geom"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

// hull is the output of the hull builder: the surviving input positions and the face
// loops over them.
type hull struct {
	positions []mgl64.Vec3
	loops     [][]int
	dimension Dimension
}

// convexHull computes the convex hull of points. Positions closer than mergeEpsilon are
// merged, the first one winning; planeEpsilon is the thickness used for visibility,
// collinearity and coplanarity. Output positions are input positions, unmodified.
func convexHull(points []mgl64.Vec3, mergeEpsilon, planeEpsilon float64) hull {
	unique := make([]mgl64.Vec3, 0, len(points))
	for _, point := range points {
		if !lo.ContainsBy(unique, func(u mgl64.Vec3) bool { return geom.VecEqual(u, point, mergeEpsilon) }) {
			unique = append(unique, point)
		}
	}

	switch len(unique) {
	case 0:
		return hull{dimension: DimensionEmpty}
	case 1:
		return hull{positions: unique, dimension: DimensionPoint}
	}

	origin := unique[0]
	far := furthest(unique, func(p mgl64.Vec3) float64 { return p.Sub(origin).Len() })
	axis := unique[far].Sub(origin).Normalize()

	third := furthest(unique, func(p mgl64.Vec3) float64 { return p.Sub(origin).Cross(axis).Len() })
	if unique[third].Sub(origin).Cross(axis).Len() <= planeEpsilon {
		return segmentHull(unique, axis)
	}

	normal := unique[far].Sub(origin).Cross(unique[third].Sub(origin)).Normalize()
	fourth := furthest(unique, func(p mgl64.Vec3) float64 { return math.Abs(p.Sub(origin).Dot(normal)) })
	if math.Abs(unique[fourth].Sub(origin).Dot(normal)) <= planeEpsilon {
		return polygonHull(unique, planeEpsilon)
	}

	return solidHull(unique, [4]int{0, far, third, fourth}, planeEpsilon)
}

func furthest(points []mgl64.Vec3, measure func(mgl64.Vec3) float64) int {
	best, bestValue := 0, math.Inf(-1)
	for i, p := range points {
		if v := measure(p); v > bestValue {
			best, bestValue = i, v
		}
	}
	return best
}

func segmentHull(points []mgl64.Vec3, axis mgl64.Vec3) hull {
	first := furthest(points, func(p mgl64.Vec3) float64 { return -p.Dot(axis) })
	last := furthest(points, func(p mgl64.Vec3) float64 { return p.Dot(axis) })
	if first > last {
		first, last = last, first
	}
	return hull{positions: []mgl64.Vec3{points[first], points[last]}, dimension: DimensionEdge}
}

// polygonHull computes the boundary of coplanar points. The loop winds counterclockwise
// about the normal of the first three non-collinear points.
func polygonHull(points []mgl64.Vec3, planeEpsilon float64) hull {
	a, b := points[0], points[1]
	var normal mgl64.Vec3
	for _, c := range points[2:] {
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Len() > planeEpsilon*b.Sub(a).Len() {
			normal = n.Normalize()
			break
		}
	}

	u, v := geom.TangentBasis(normal)
	type planar struct {
		x, y  float64
		index int
	}
	projected := make([]planar, len(points))
	for i, p := range points {
		projected[i] = planar{x: p.Dot(u), y: p.Dot(v), index: i}
	}
	sort.Slice(projected, func(i, j int) bool {
		if projected[i].x != projected[j].x {
			return projected[i].x < projected[j].x
		}
		return projected[i].y < projected[j].y
	})

	// Monotone chain. A point is kept only if it is further than planeEpsilon to the
	// left of the chain, so collinear boundary points are dropped.
	turnsLeft := func(o, p, q planar) bool {
		dx, dy := p.x-o.x, p.y-o.y
		length := math.Hypot(dx, dy)
		if length == 0 {
			return false
		}
		return (dx*(q.y-o.y)-dy*(q.x-o.x))/length > planeEpsilon
	}
	chain := make([]planar, 0, 2*len(projected))
	for _, p := range projected {
		for len(chain) >= 2 && !turnsLeft(chain[len(chain)-2], chain[len(chain)-1], p) {
			chain = chain[:len(chain)-1]
		}
		chain = append(chain, p)
	}
	lower := len(chain) + 1
	for i := len(projected) - 2; i >= 0; i-- {
		p := projected[i]
		for len(chain) >= lower && !turnsLeft(chain[len(chain)-2], chain[len(chain)-1], p) {
			chain = chain[:len(chain)-1]
		}
		chain = append(chain, p)
	}
	chain = chain[:len(chain)-1]

	indices := lo.Map(chain, func(p planar, _ int) int { return p.index })
	return compact(points, [][]int{indices}, DimensionPolygon)
}

type triangle struct {
	v     [3]int
	plane geom.Plane
	alive bool
}

func newTriangle(points []mgl64.Vec3, a, b, c int) triangle {
	normal := points[b].Sub(points[a]).Cross(points[c].Sub(points[a]))
	if length := normal.Len(); length > 0 {
		normal = normal.Mul(1 / length)
	}
	return triangle{v: [3]int{a, b, c}, plane: geom.NewPlane(normal, points[a]), alive: true}
}

// solidHull grows the hull one point at a time from an initial tetrahedron: the
// triangles a new point sees are removed and the horizon around them is fanned to the
// point. Coplanar adjacent triangles are then merged into faces.
func solidHull(points []mgl64.Vec3, seed [4]int, planeEpsilon float64) hull {
	var triangles []triangle
	owner := make(map[[2]int]int)

	add := func(a, b, c int) {
		triangles = append(triangles, newTriangle(points, a, b, c))
		index := len(triangles) - 1
		owner[[2]int{a, b}] = index
		owner[[2]int{b, c}] = index
		owner[[2]int{c, a}] = index
	}
	addOutward := func(a, b, c, opposite int) {
		t := newTriangle(points, a, b, c)
		if t.plane.PointDistance(points[opposite]) > 0 {
			b, c = c, b
		}
		add(a, b, c)
	}

	s := seed
	addOutward(s[0], s[1], s[2], s[3])
	addOutward(s[0], s[1], s[3], s[2])
	addOutward(s[0], s[2], s[3], s[1])
	addOutward(s[1], s[2], s[3], s[0])

	for i, point := range points {
		if i == s[0] || i == s[1] || i == s[2] || i == s[3] {
			continue
		}

		visible := make(map[int]bool)
		for t := range triangles {
			if triangles[t].alive && triangles[t].plane.PointDistance(point) > planeEpsilon {
				visible[t] = true
			}
		}
		if len(visible) == 0 {
			continue
		}

		var horizon [][2]int
		for t := range triangles {
			if !visible[t] {
				continue
			}
			v := triangles[t].v
			for k := 0; k < 3; k++ {
				edge := [2]int{v[k], v[(k+1)%3]}
				if !visible[owner[[2]int{edge[1], edge[0]}]] {
					horizon = append(horizon, edge)
				}
			}
		}

		for t := range visible {
			triangles[t].alive = false
			v := triangles[t].v
			for k := 0; k < 3; k++ {
				edge := [2]int{v[k], v[(k+1)%3]}
				if owner[edge] == t {
					delete(owner, edge)
				}
			}
		}
		for _, edge := range horizon {
			add(edge[0], edge[1], i)
		}
	}

	return mergeTriangles(points, triangles, owner, planeEpsilon)
}

// mergeTriangles groups coplanar adjacent triangles into faces, walks the boundary of
// each group and drops vertices that end up with fewer than three distinct faces.
func mergeTriangles(points []mgl64.Vec3, triangles []triangle, owner map[[2]int]int, planeEpsilon float64) hull {
	parent := make([]int, len(triangles))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for t := range triangles {
		if !triangles[t].alive {
			continue
		}
		v := triangles[t].v
		for k := 0; k < 3; k++ {
			u, ok := owner[[2]int{v[(k+1)%3], v[k]}]
			if !ok || !triangles[u].alive {
				continue
			}
			if coplanar(points, triangles[t], triangles[u], planeEpsilon) {
				parent[find(u)] = find(t)
			}
		}
	}

	// Group boundary edges keyed by their start vertex, in triangle order.
	var groups []int
	boundaries := make(map[int]map[int]int)
	starts := make(map[int]int)
	for t := range triangles {
		if !triangles[t].alive {
			continue
		}
		g := find(t)
		if _, ok := boundaries[g]; !ok {
			boundaries[g] = make(map[int]int)
			groups = append(groups, g)
		}
		v := triangles[t].v
		for k := 0; k < 3; k++ {
			a, b := v[k], v[(k+1)%3]
			if u, ok := owner[[2]int{b, a}]; ok && triangles[u].alive && find(u) == g {
				continue
			}
			if _, ok := starts[g]; !ok {
				starts[g] = a
			}
			boundaries[g][a] = b
		}
	}

	loops := make([][]int, 0, len(groups))
	for _, g := range groups {
		next := boundaries[g]
		start := starts[g]
		loop := []int{start}
		for current := next[start]; current != start && len(loop) <= len(next); current = next[current] {
			loop = append(loop, current)
		}
		loops = append(loops, loop)
	}

	incident := make(map[int]int)
	for _, loop := range loops {
		for _, index := range loop {
			incident[index]++
		}
	}
	for i, loop := range loops {
		loops[i] = lo.Filter(loop, func(index int, _ int) bool { return incident[index] >= 3 })
	}
	loops = lo.Filter(loops, func(loop []int, _ int) bool { return len(loop) >= 3 })

	return compact(points, loops, DimensionPolyhedron)
}

func coplanar(points []mgl64.Vec3, t, u triangle, planeEpsilon float64) bool {
	if t.plane.Normal.Dot(u.plane.Normal) <= 0 {
		return false
	}
	for _, index := range u.v {
		if math.Abs(t.plane.PointDistance(points[index])) > planeEpsilon {
			return false
		}
	}
	for _, index := range t.v {
		if math.Abs(u.plane.PointDistance(points[index])) > planeEpsilon {
			return false
		}
	}
	return true
}

// compact keeps only the positions referenced by loops, in input order, and renumbers
// the loops accordingly.
func compact(points []mgl64.Vec3, loops [][]int, dimension Dimension) hull {
	used := make([]bool, len(points))
	for _, loop := range loops {
		for _, index := range loop {
			used[index] = true
		}
	}
	remap := make([]int, len(points))
	positions := make([]mgl64.Vec3, 0, len(points))
	for i, p := range points {
		if used[i] {
			remap[i] = len(positions)
			positions = append(positions, p)
		}
	}
	for _, loop := range loops {
		for i, index := range loop {
			loop[i] = remap[index]
		}
	}
	return hull{positions: positions, loops: loops, dimension: dimension}
}
