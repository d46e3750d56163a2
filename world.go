// Package brushwork keeps a set of brushes inside fixed world bounds and runs batch
// operations over them: creation, overlap queries, subtraction and grid snapping.
// Independent brushes are processed in parallel by a fixed number of workers.
package brushwork

import (
	"log/slog"

	"github.com/akmonengine/brushwork/brush"
	"github.com/akmonengine/brushwork/builder"
	"github.com/akmonengine/brushwork/config"
	"github.com/akmonengine/brushwork/geom"
	"github.com/akmonengine/brushwork/polyhedron"
	"github.com/akmonengine/brushwork/result"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const DEFAULT_WORKERS = 1

const (
	DEFAULT_GRID_CELL_SIZE = 256.0
	DEFAULT_GRID_CELLS     = 4096
)

type World struct {
	// Bounds every brush must stay inside
	Bounds geom.BBox
	// Format of the faces created by the world
	Format brush.MapFormat
	// Material of the faces a subtraction cuts
	DefaultMaterial string
	Brushes         []*brush.Brush
	SpatialGrid     *SpatialGrid
	Workers         int
	Events          Events

	// Logger defaults to slog.Default()
	Logger *slog.Logger
}

// NewWorld returns an empty world set up from cfg.
func NewWorld(cfg config.Config) *World {
	return &World{
		Bounds:          cfg.Bounds(),
		Format:          cfg.MapFormat,
		DefaultMaterial: cfg.DefaultMaterial,
		SpatialGrid:     NewSpatialGrid(cfg.GridCellSize, cfg.GridCells),
		Workers:         cfg.Workers,
		Events:          NewEvents(),
		Logger:          slog.Default(),
	}
}

func (w *World) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.Default()
	}
	return w.Logger
}

func (w *World) workers() int {
	return max(DEFAULT_WORKERS, w.Workers)
}

func (w *World) grid() *SpatialGrid {
	if w.SpatialGrid == nil {
		w.SpatialGrid = NewSpatialGrid(DEFAULT_GRID_CELL_SIZE, DEFAULT_GRID_CELLS)
	}
	return w.SpatialGrid
}

// Builder returns a brush builder for the world's format and bounds.
func (w *World) Builder() *builder.Builder {
	return builder.New(w.Format, w.Bounds, brush.NewAttributes(w.DefaultMaterial))
}

// AddBrush adds a brush to the world
func (w *World) AddBrush(b *brush.Brush) {
	w.Brushes = append(w.Brushes, b)
	w.Events.emitAdded([]*brush.Brush{b})
	w.Events.flush()
}

// RemoveBrush removes a brush from the world
func (w *World) RemoveBrush(b *brush.Brush) {
	k := -1
	for i, other := range w.Brushes {
		if other == b {
			k = i
			break
		}
	}

	if k != -1 {
		w.Brushes = append(w.Brushes[:k], w.Brushes[k+1:]...)
		w.Events.emitRemoved([]*brush.Brush{b})
		w.Events.flush()
	}
}

// CreateBrushes builds one brush per face set in parallel and adds them all, or none if
// any set fails to build.
func (w *World) CreateBrushes(faceSets [][]brush.BrushFace) ([]*brush.Brush, error) {
	results := mapTask(w.workers(), faceSets, func(faces []brush.BrushFace) result.Result[*brush.Brush] {
		return result.Of(brush.New(w.Bounds, faces))
	})

	brushes, err := result.Fold(results)
	if err != nil {
		w.logger().Warn("creating brushes", "count", len(faceSets), "error", err)
		return nil, errors.Wrap(err, "creating brushes")
	}
	w.Brushes = append(w.Brushes, brushes...)
	w.logger().Debug("created brushes", "count", len(brushes), "total", len(w.Brushes))

	w.Events.emitAdded(brushes)
	w.Events.flush()
	return brushes, nil
}

// FindOverlaps returns the pairs of brushes sharing some volume, ordered by index, and
// raises the overlap events against the previous call.
func (w *World) FindOverlaps() []Overlap {
	var overlaps []Overlap
	if len(w.Brushes) >= 2 {
		overlaps = NarrowPhase(BroadPhase(w.grid(), w.Brushes, w.workers()), w.workers())
		w.logger().Debug("found overlaps", "brushes", len(w.Brushes), "overlaps", len(overlaps))
	}

	w.Events.recordOverlaps(overlaps)
	w.Events.flush()
	return overlaps
}

// Subtract carves subtrahend out of every brush it shares some volume with, replacing
// each of them by its fragments in place. If any fragment fails to build the world is
// left unchanged. The subtrahend itself is never carved and is not added.
func (w *World) Subtract(subtrahend *brush.Brush) error {
	grid := w.grid()
	grid.Rebuild(w.Brushes)
	candidates := lo.Filter(grid.Query(subtrahend.Bounds()), func(i int, _ int) bool {
		return w.Brushes[i] != subtrahend && w.Brushes[i].Intersects(subtrahend) &&
			sharedVolume(w.Brushes[i], subtrahend) > polyhedron.PlaneEpsilon
	})
	if len(candidates) == 0 {
		return nil
	}

	results := mapTask(w.workers(), candidates, func(i int) result.Result[[]*brush.Brush] {
		return result.Of(result.Fold(w.Brushes[i].Subtract(w.Format, w.Bounds, w.DefaultMaterial, subtrahend)))
	})

	replacements := make(map[int][]*brush.Brush, len(candidates))
	var failed error
	for k, r := range results {
		fragments, err := r.Get()
		if err != nil {
			w.logger().Warn("subtracting brush", "brush", candidates[k], "error", err)
			failed = lo.Ternary(failed == nil, errors.Wrapf(err, "brush %d", candidates[k]), failed)
			continue
		}
		replacements[candidates[k]] = fragments
	}
	if failed != nil {
		return errors.Wrap(failed, "subtracting")
	}

	updated := make([]*brush.Brush, 0, len(w.Brushes))
	var carved, added []*brush.Brush
	for i, b := range w.Brushes {
		fragments, ok := replacements[i]
		if !ok {
			updated = append(updated, b)
			continue
		}
		updated = append(updated, fragments...)
		carved = append(carved, b)
		added = append(added, fragments...)
	}
	w.Brushes = updated

	w.logger().Debug("subtracted", "carved", len(carved), "fragments", len(added), "total", len(w.Brushes))

	w.Events.emitRemoved(carved)
	w.Events.emitAdded(added)
	w.Events.flush()
	return nil
}

// SnapVertices snaps the vertices of every brush to the grid, in parallel. A brush that
// cannot be snapped is left as it was; the first failure is returned once all brushes
// have been processed.
func (w *World) SnapVertices(grid float64) error {
	results := mapTask(w.workers(), w.Brushes, func(b *brush.Brush) result.Result[*brush.Brush] {
		return result.Of(b, b.SnapVertices(w.Bounds, grid, true))
	})

	for i, r := range results {
		if err := r.Error(); err != nil {
			w.logger().Warn("snapping brush", "brush", i, "grid", grid, "error", err)
		}
	}
	if _, err := result.Fold(results); err != nil {
		return errors.Wrapf(err, "snapping to %v", grid)
	}
	w.logger().Debug("snapped brushes", "count", len(w.Brushes), "grid", grid)
	return nil
}
