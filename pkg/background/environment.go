package background

import (
	"fmt"
	"math"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// EnvironmentMap is an equirectangular image surrounding the scene
type EnvironmentMap struct {
	Width  int
	Height int
	Pixels []core.Vec3 // Row-major: Pixels[y*Width + x], normalized 0-1
}

// NewEnvironmentMap wraps a decoded pixel grid
func NewEnvironmentMap(width, height int, pixels []core.Vec3) (*EnvironmentMap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("environment map must have positive dimensions, got %dx%d", width, height)
	}
	if len(pixels) != width*height {
		return nil, fmt.Errorf("environment map has %d pixels, expected %d", len(pixels), width*height)
	}
	return &EnvironmentMap{
		Width:  width,
		Height: height,
		Pixels: pixels,
	}, nil
}

// PixelIndex maps a unit direction to integer pixel coordinates:
//
//	x = floor((atan2(dz, dx)/2π + 0.5) * width)
//	y = floor(acos(dy)/π * height)
//
// Both are clamped to the image.
func (e *EnvironmentMap) PixelIndex(direction core.Vec3) (int, int) {
	dx, dy, dz := direction.Elem()

	// Rounding can push |dy| just past 1, where acos is NaN
	dy = max(-1, min(1, dy))

	u := (math.Atan2(dz, dx)/(2*math.Pi) + 0.5) * float64(e.Width)
	v := (math.Acos(dy) / math.Pi) * float64(e.Height)

	x := int(math.Floor(u))
	y := int(math.Floor(v))

	x = max(0, min(e.Width-1, x))
	y = max(0, min(e.Height-1, y))
	return x, y
}

// Sample implements Background using nearest-neighbour lookup
func (e *EnvironmentMap) Sample(direction core.Vec3) core.Vec3 {
	x, y := e.PixelIndex(direction)
	return e.Pixels[y*e.Width+x]
}
