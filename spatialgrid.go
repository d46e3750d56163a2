package brushwork

import (
	"math"
	"sort"
	"sync"

	"github.com/akmonengine/brushwork/brush"
	"github.com/akmonengine/brushwork/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// ============================================================================
// Types
// ============================================================================

// CellKey is the integer coordinate of a grid cell.
type CellKey struct {
	X, Y, Z int
}

// Cell holds the indices of the brushes whose bounds reach into it.
type Cell struct {
	brushIndices []int
}

// Pair is two brushes whose bounds overlap, A coming first in the brush list.
type Pair struct {
	IndexA, IndexB int
	BrushA, BrushB *brush.Brush
}

// SpatialGrid is a uniform hashed grid over brush bounds, used as the broad phase of the
// overlap queries.
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int
}

// ============================================================================
// Constructor
// ============================================================================

// NewSpatialGrid returns a grid of cubic cells; numCells is rounded up to a power of two.
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].brushIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert adds the brush index to every cell its bounds touch.
func (sg *SpatialGrid) Insert(brushIndex int, bounds geom.BBox) {
	sg.forEachCell(bounds, func(cellIdx int) {
		sg.cells[cellIdx].brushIndices = append(sg.cells[cellIdx].brushIndices, brushIndex)
	})
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].brushIndices = sg.cells[i].brushIndices[:0]
	}
}

func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].brushIndices) > 1 {
			sort.Ints(sg.cells[i].brushIndices)
		}
	}
}

// Rebuild clears the grid and inserts every brush under its index.
func (sg *SpatialGrid) Rebuild(brushes []*brush.Brush) {
	sg.Clear()
	for i, b := range brushes {
		sg.Insert(i, b.Bounds())
	}
	sg.SortCells()
}

// Query returns, in increasing order, the indices stored in the cells bounds touches.
// Hash collisions can add indices whose bounds do not overlap.
func (sg *SpatialGrid) Query(bounds geom.BBox) []int {
	seen := make(map[int]struct{})
	sg.forEachCell(bounds, func(cellIdx int) {
		for _, idx := range sg.cells[cellIdx].brushIndices {
			seen[idx] = struct{}{}
		}
	})

	indices := make([]int, 0, len(seen))
	for idx := range seen {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}

// FindPairs returns every pair of brushes with overlapping bounds, sequentially.
func (sg *SpatialGrid) FindPairs(brushes []*brush.Brush) []Pair {
	pairs := make([]Pair, 0, len(brushes)/2)
	seen := make([]bool, len(brushes))
	for brushIdx := range brushes {
		clear(seen)
		pairs = sg.appendPairs(pairs, brushes, brushIdx, seen, func(p Pair) {})
	}
	return pairs
}

// FindPairsParallel splits the brushes between numWorkers goroutines and streams the
// pairs they find. The channel is closed once every worker is done.
func (sg *SpatialGrid) FindPairsParallel(brushes []*brush.Brush, numWorkers int) <-chan Pair {
	var wg sync.WaitGroup
	pairsChan := make(chan Pair, numWorkers*10)

	brushesPerWorker := len(brushes) / numWorkers
	if brushesPerWorker == 0 {
		brushesPerWorker = 1
	}

	for w := 0; w < numWorkers; w++ {
		startIdx := w * brushesPerWorker
		endIdx := startIdx + brushesPerWorker
		if w == numWorkers-1 {
			endIdx = len(brushes)
		}
		if startIdx >= len(brushes) {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()

			seen := make([]bool, len(brushes))
			for brushIdx := start; brushIdx < end; brushIdx++ {
				clear(seen)
				sg.appendPairs(nil, brushes, brushIdx, seen, func(p Pair) {
					pairsChan <- p
				})
			}
		}(startIdx, endIdx)
	}

	go func() {
		wg.Wait()
		close(pairsChan)
	}()

	return pairsChan
}

// appendPairs looks up the partners of one brush. Only partners with a higher index are
// reported, so each pair comes out once. Pairs are appended to pairs and passed to emit.
func (sg *SpatialGrid) appendPairs(pairs []Pair, brushes []*brush.Brush, brushIdx int, seen []bool, emit func(Pair)) []Pair {
	brushA := brushes[brushIdx]
	boundsA := brushA.Bounds()

	sg.forEachCell(boundsA, func(cellIdx int) {
		for _, otherIdx := range sg.cells[cellIdx].brushIndices {
			if otherIdx <= brushIdx || seen[otherIdx] {
				continue
			}
			seen[otherIdx] = true

			brushB := brushes[otherIdx]
			if boundsA.Overlaps(brushB.Bounds()) {
				pair := Pair{IndexA: brushIdx, IndexB: otherIdx, BrushA: brushA, BrushB: brushB}
				pairs = append(pairs, pair)
				emit(pair)
			}
		}
	})
	return pairs
}

func (sg *SpatialGrid) forEachCell(bounds geom.BBox, fn func(cellIdx int)) {
	minCell := sg.worldToCell(bounds.Min)
	maxCell := sg.worldToCell(bounds.Max)

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				fn(sg.hashCell(CellKey{x, y, z}))
			}
		}
	}
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
