package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/akmonengine/brushwork"
	"github.com/akmonengine/brushwork/brush"
	"github.com/akmonengine/brushwork/builder"
	"github.com/akmonengine/brushwork/config"
	"github.com/akmonengine/brushwork/geom"
	"github.com/go-gl/mathgl/mgl64"
)

func box(min, max mgl64.Vec3) geom.BBox {
	return geom.BBox{Min: min, Max: max}
}

// SetupRoom builds a closed room of six slabs with a pillar in the middle.
func SetupRoom(w *brushwork.World) error {
	b := w.Builder()
	walls := builder.SideMaterials{
		Left: "base/wall", Right: "base/wall",
		Front: "base/wall", Back: "base/wall",
		Top: "base/floor", Bottom: "base/floor",
	}

	slabs := []geom.BBox{
		box(mgl64.Vec3{-256, -256, -16}, mgl64.Vec3{256, 256, 0}),   // floor
		box(mgl64.Vec3{-256, -256, 256}, mgl64.Vec3{256, 256, 272}), // ceiling
		box(mgl64.Vec3{-272, -256, -16}, mgl64.Vec3{-256, 256, 272}),
		box(mgl64.Vec3{256, -256, -16}, mgl64.Vec3{272, 256, 272}),
		box(mgl64.Vec3{-256, -272, -16}, mgl64.Vec3{256, -256, 272}),
		box(mgl64.Vec3{-256, 256, -16}, mgl64.Vec3{256, 272, 272}),
	}

	faceSets := make([][]brush.BrushFace, 0, len(slabs))
	for _, slab := range slabs {
		cuboid, err := b.CreateCuboid(slab, walls)
		if err != nil {
			return err
		}
		faceSets = append(faceSets, cuboid.Faces())
	}
	if _, err := w.CreateBrushes(faceSets); err != nil {
		return err
	}

	pillar, err := b.CreateCylinder(box(mgl64.Vec3{-32, -32, -8}, mgl64.Vec3{32, 32, 264}), builder.VertexAlignedCircle{NumSides: 8}, builder.AxisZ, "base/pillar")
	if err != nil {
		return err
	}
	w.AddBrush(pillar)
	return nil
}

func main() {
	cfg := config.Default()
	if len(os.Args) > 1 {
		loaded, err := config.Load(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading %s: %v\n", os.Args[1], err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.Apply()

	w := brushwork.NewWorld(cfg)
	w.Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	w.Events.Subscribe(brushwork.OVERLAP_ENTER, func(event brushwork.Event) {
		o := event.(brushwork.OverlapEnterEvent).Overlap
		fmt.Printf("overlap %d/%d: volume %.1f, push %v\n", o.IndexA, o.IndexB, o.Volume, o.Penetration.Translation())
	})
	w.Events.Subscribe(brushwork.BRUSHES_REMOVED, func(event brushwork.Event) {
		fmt.Printf("carved %d brushes\n", len(event.(brushwork.BrushesRemovedEvent).Brushes))
	})

	if err := SetupRoom(w); err != nil {
		fmt.Fprintf(os.Stderr, "building the room: %v\n", err)
		os.Exit(1)
	}

	// the pillar pokes into the floor and the ceiling
	w.FindOverlaps()

	// cut a doorway through the left wall, then a window through the front one
	b := w.Builder()
	cutters := []geom.BBox{
		box(mgl64.Vec3{-288, -48, 0}, mgl64.Vec3{-240, 48, 128}),
		box(mgl64.Vec3{-64, -288, 96}, mgl64.Vec3{64, -240, 160}),
	}
	for _, bounds := range cutters {
		cutter, err := b.CreateCuboid(bounds, builder.UniformMaterials("base/trim"))
		if err == nil {
			err = w.Subtract(cutter)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "cutting %v: %v\n", bounds, err)
			os.Exit(1)
		}
	}

	if err := w.SnapVertices(1); err != nil {
		fmt.Fprintf(os.Stderr, "snapping: %v\n", err)
	}

	for i, br := range w.Brushes {
		fmt.Printf("brush %2d: %2d faces %2d vertices, bounds %v\n", i, br.FaceCount(), br.VertexCount(), br.Bounds())
	}
}
