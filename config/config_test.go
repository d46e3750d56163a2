package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/akmonengine/brushwork/brush"
	"github.com/akmonengine/brushwork/geom"
	"github.com/akmonengine/brushwork/polyhedron"
	"github.com/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration is invalid: %v", err)
	}
	if cfg.Bounds() != geom.NewBBox(8192) {
		t.Errorf("Bounds() = %v", cfg.Bounds())
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
world_bounds: 4096
map_format: valve
default_material: base/wall
workers: 4
epsilons:
  rotation_snap_degrees: 5
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.WorldBounds != 4096 || cfg.MapFormat != brush.Valve || cfg.DefaultMaterial != "base/wall" || cfg.Workers != 4 {
		t.Errorf("Parse() = %+v", cfg)
	}
	if cfg.Epsilons.RotationSnapDegrees != 5 {
		t.Errorf("rotation snap = %v, want 5", cfg.Epsilons.RotationSnapDegrees)
	}
	// omitted keys keep their default
	defaults := Default()
	if cfg.GridCellSize != defaults.GridCellSize || cfg.Epsilons.PointStatus != defaults.Epsilons.PointStatus {
		t.Errorf("omitted keys lost their defaults: %+v", cfg)
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("Parse(nil) = %+v, want the defaults", cfg)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		invalid bool
	}{
		{"unknown key", "world_size: 10\n", false},
		{"unknown format", "map_format: doom\n", false},
		{"not yaml", "world_bounds: [1\n", false},
		{"negative bounds", "world_bounds: -1\n", true},
		{"no workers", "workers: 0\n", true},
		{"zero cell size", "grid_cell_size: 0\n", true},
		{"no cells", "grid_cells: 0\n", true},
		{"huge epsilon", "epsilons:\n  merge: 2\n", true},
		{"negative epsilon", "epsilons:\n  correct: -0.1\n", true},
		{"loose correct", "epsilons:\n  correct: 0.001\n", true},
		{"wide snap", "epsilons:\n  rotation_snap_degrees: 45\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatalf("Parse(%q) succeeded", tt.data)
			}
			if errors.Is(err, ErrInvalid) != tt.invalid {
				t.Errorf("Parse(%q) error = %v, ErrInvalid expected: %v", tt.data, err, tt.invalid)
			}
		})
	}
}

func TestLoadAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brushwork.yaml")

	cfg := Default()
	cfg.MapFormat = brush.Quake2Valve
	cfg.Workers = 8
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != cfg {
		t.Errorf("Load() = %+v, want %+v", loaded, cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("loading a missing file: error = %v", err)
	}
}

func TestApply(t *testing.T) {
	saved := Default()
	saved.Epsilons = Epsilons{
		PointStatus:         polyhedron.PlaneEpsilon,
		Merge:               polyhedron.MergeEpsilon,
		CloseVertex:         polyhedron.CloseVertexEpsilon,
		Correct:             geom.CorrectEpsilon,
		RotationSnapDegrees: brush.RotationSnapTolerance,
	}
	t.Cleanup(saved.Apply)

	cfg := Default()
	cfg.Epsilons = Epsilons{PointStatus: 0.002, Merge: 0.003, CloseVertex: 0.02, Correct: 0.001, RotationSnapDegrees: 7}
	cfg.Apply()

	if polyhedron.PlaneEpsilon != 0.002 || polyhedron.MergeEpsilon != 0.003 || polyhedron.CloseVertexEpsilon != 0.02 {
		t.Errorf("polyhedron tolerances = %v, %v, %v", polyhedron.PlaneEpsilon, polyhedron.MergeEpsilon, polyhedron.CloseVertexEpsilon)
	}
	if geom.CorrectEpsilon != 0.001 || brush.RotationSnapTolerance != 7 {
		t.Errorf("correct = %v, snap = %v", geom.CorrectEpsilon, brush.RotationSnapTolerance)
	}
}
