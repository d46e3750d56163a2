// Package config loads the YAML settings of a brush world: its bounds, map format,
// default material, batch parallelism and the geometry tolerances.
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/akmonengine/brushwork/brush"
	"github.com/akmonengine/brushwork/geom"
	"github.com/akmonengine/brushwork/polyhedron"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate for settings that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Epsilons are the geometry tolerances installed by Apply.
type Epsilons struct {
	PointStatus         float64 `yaml:"point_status"`
	Merge               float64 `yaml:"merge"`
	CloseVertex         float64 `yaml:"close_vertex"`
	Correct             float64 `yaml:"correct"`
	RotationSnapDegrees float64 `yaml:"rotation_snap_degrees"`
}

type Config struct {
	// WorldBounds is the half size of the cubic world.
	WorldBounds     float64         `yaml:"world_bounds"`
	MapFormat       brush.MapFormat `yaml:"map_format"`
	DefaultMaterial string          `yaml:"default_material"`
	Workers         int             `yaml:"workers"`
	GridCellSize    float64         `yaml:"grid_cell_size"`
	GridCells       int             `yaml:"grid_cells"`
	Epsilons        Epsilons        `yaml:"epsilons"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		WorldBounds:     8192,
		MapFormat:       brush.Standard,
		DefaultMaterial: brush.NoMaterialName,
		Workers:         1,
		GridCellSize:    256,
		GridCells:       4096,
		Epsilons: Epsilons{
			PointStatus:         geom.PointStatusEpsilon,
			Merge:               geom.PointStatusEpsilon,
			CloseVertex:         0.01,
			Correct:             geom.PointStatusEpsilon,
			RotationSnapDegrees: 3,
		},
	}
}

// Load reads and validates the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "reading configuration")
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "loading %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults, so omitted keys keep their default value.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "decoding configuration")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encoding configuration")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "writing configuration")
}

func (c Config) Validate() error {
	switch {
	case c.WorldBounds <= 0:
		return errors.Wrapf(ErrInvalid, "world_bounds must be positive, got %v", c.WorldBounds)
	case c.Workers < 1:
		return errors.Wrapf(ErrInvalid, "workers must be at least 1, got %d", c.Workers)
	case c.GridCellSize <= 0:
		return errors.Wrapf(ErrInvalid, "grid_cell_size must be positive, got %v", c.GridCellSize)
	case c.GridCells < 1:
		return errors.Wrapf(ErrInvalid, "grid_cells must be at least 1, got %d", c.GridCells)
	}

	e := c.Epsilons
	for _, tolerance := range []struct {
		name  string
		value float64
	}{
		{"point_status", e.PointStatus},
		{"merge", e.Merge},
		{"close_vertex", e.CloseVertex},
		{"correct", e.Correct},
	} {
		if tolerance.value <= 0 || tolerance.value >= 1 {
			return errors.Wrapf(ErrInvalid, "epsilons.%s must be in (0, 1), got %v", tolerance.name, tolerance.value)
		}
	}
	if e.Correct > e.PointStatus {
		return errors.Wrapf(ErrInvalid, "epsilons.correct (%v) must not exceed epsilons.point_status (%v)", e.Correct, e.PointStatus)
	}
	if e.RotationSnapDegrees < 0 || e.RotationSnapDegrees >= 45 {
		return errors.Wrapf(ErrInvalid, "epsilons.rotation_snap_degrees must be in [0, 45), got %v", e.RotationSnapDegrees)
	}
	return nil
}

// Bounds returns the world bounds as a box.
func (c Config) Bounds() geom.BBox {
	return geom.NewBBox(c.WorldBounds)
}

// Apply installs the tolerances into the geometry packages. They are process wide; call
// Apply before building or editing brushes concurrently.
func (c Config) Apply() {
	polyhedron.PlaneEpsilon = c.Epsilons.PointStatus
	polyhedron.MergeEpsilon = c.Epsilons.Merge
	polyhedron.CloseVertexEpsilon = c.Epsilons.CloseVertex
	geom.CorrectEpsilon = c.Epsilons.Correct
	brush.RotationSnapTolerance = c.Epsilons.RotationSnapDegrees
}
