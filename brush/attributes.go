package brush

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NoMaterialName is the material of a face that has none.
const NoMaterialName = "__TB_empty"

// Attributes are the per-face texturing parameters stored in a map file.
type Attributes struct {
	MaterialName string
	Offset       mgl64.Vec2
	Scale        mgl64.Vec2
	// Rotation is in degrees.
	Rotation float64

	SurfaceContents int
	SurfaceFlags    int
	SurfaceValue    float64
}

// NewAttributes returns the default attributes for a material: no offset, unit scale and
// no rotation.
func NewAttributes(materialName string) Attributes {
	if materialName == "" {
		materialName = NoMaterialName
	}
	return Attributes{
		MaterialName: materialName,
		Scale:        mgl64.Vec2{1, 1},
	}
}

// ModOffset reduces offset into [0, textureSize) on both axes. A zero texture size leaves
// the component unchanged.
func ModOffset(offset, textureSize mgl64.Vec2) mgl64.Vec2 {
	var result mgl64.Vec2
	for i := 0; i < 2; i++ {
		if textureSize[i] == 0 {
			result[i] = offset[i]
			continue
		}
		result[i] = offset[i] - textureSize[i]*math.Floor(offset[i]/textureSize[i])
	}
	return result
}

// safeScale replaces a zero scale with one so that axes can always be divided by it.
func safeScale(scale float64) float64 {
	if scale == 0 {
		return 1
	}
	return scale
}
