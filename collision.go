package brushwork

import (
	"sort"
	"sync"

	"github.com/akmonengine/brushwork/brush"
	"github.com/akmonengine/brushwork/epa"
	"github.com/akmonengine/brushwork/gjk"
	"github.com/akmonengine/brushwork/polyhedron"
)

// Overlap is two brushes whose interiors intersect.
type Overlap struct {
	IndexA, IndexB int
	BrushA, BrushB *brush.Brush
	// Volume of the common part.
	Volume float64
	// Penetration moves BrushB out of BrushA. It is zero when EPA does not converge.
	Penetration epa.Penetration
}

// CollisionPair is a pair the GJK test found intersecting, touching pairs included.
type CollisionPair struct {
	Pair
	simplex *gjk.Simplex
}

// BroadPhase streams the pairs of brushes with overlapping bounds.
func BroadPhase(spatialGrid *SpatialGrid, brushes []*brush.Brush, workersCount int) <-chan Pair {
	spatialGrid.Rebuild(brushes)
	return spatialGrid.FindPairsParallel(brushes, workersCount)
}

// NarrowPhase keeps the pairs whose solids share some volume, ordered by index.
func NarrowPhase(pairs <-chan Pair, workersCount int) []Overlap {
	overlapsChan := Measure(GJK(pairs, workersCount), workersCount)

	overlaps := make([]Overlap, 0)
	for o := range overlapsChan {
		overlaps = append(overlaps, o)
	}
	sort.Slice(overlaps, func(i, j int) bool {
		if overlaps[i].IndexA != overlaps[j].IndexA {
			return overlaps[i].IndexA < overlaps[j].IndexA
		}
		return overlaps[i].IndexB < overlaps[j].IndexB
	})
	return overlaps
}

// GJK runs the convex intersection test on every pair.
func GJK(pairChan <-chan Pair, workersCount int) <-chan CollisionPair {
	candidates := make(chan CollisionPair, workersCount)

	go func() {
		var wg sync.WaitGroup
		defer close(candidates)

		for range workersCount {
			wg.Add(1)
			go func() {
				defer wg.Done()

				for p := range pairChan {
					simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
					simplex.Reset()

					if gjk.GJK(p.BrushA.Geometry(), p.BrushB.Geometry(), simplex) {
						candidates <- CollisionPair{Pair: p, simplex: simplex}
					} else {
						gjk.SimplexPool.Put(simplex)
					}
				}
			}()
		}
		wg.Wait()
	}()

	return candidates
}

// Measure intersects the solids of every candidate, drops those that only touch and
// runs EPA on the others.
func Measure(candidates <-chan CollisionPair, workersCount int) <-chan Overlap {
	ch := make(chan Overlap, workersCount)

	go func() {
		var wg sync.WaitGroup
		defer close(ch)

		for range workersCount {
			wg.Add(1)
			go func() {
				defer wg.Done()

				for c := range candidates {
					volume := sharedVolume(c.BrushA, c.BrushB)
					if volume <= polyhedron.PlaneEpsilon {
						gjk.SimplexPool.Put(c.simplex)
						continue
					}

					penetration, err := epa.EPA(c.BrushA.Geometry(), c.BrushB.Geometry(), c.simplex)
					gjk.SimplexPool.Put(c.simplex)
					if err != nil {
						penetration = epa.Penetration{}
					}

					ch <- Overlap{
						IndexA:      c.IndexA,
						IndexB:      c.IndexB,
						BrushA:      c.BrushA,
						BrushB:      c.BrushB,
						Volume:      volume,
						Penetration: penetration,
					}
				}
			}()
		}
		wg.Wait()
	}()

	return ch
}

// sharedVolume is the volume of the intersection of a and b, zero when they only touch.
func sharedVolume(a, b *brush.Brush) float64 {
	common := a.Geometry().Intersect(b.Geometry())
	if !common.Polyhedron() {
		return 0
	}
	return common.Volume()
}
