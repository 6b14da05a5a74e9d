package renderer

import (
	"math"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// Camera is a pinhole at the world origin looking down -Z with +Y up
type Camera struct {
	width  int
	height int
	scale  float64 // tan(fov/2)
	aspect float64 // width / height
}

// NewCamera creates a camera for a width x height grid with fov in degrees
func NewCamera(width, height int, fovDegrees float64) *Camera {
	return &Camera{
		width:  width,
		height: height,
		scale:  math.Tan(fovDegrees * math.Pi / 180 / 2),
		aspect: float64(width) / float64(height),
	}
}

// GetRay returns the primary ray through the center of pixel (px, py).
// Row 0 is the top of the image, so y is flipped into view space.
func (c *Camera) GetRay(px, py int) core.Ray {
	x := (2*(float64(px)+0.5)/float64(c.width) - 1) * c.scale * c.aspect
	y := -(2*(float64(py)+0.5)/float64(c.height) - 1) * c.scale
	return core.NewRay(core.Vec3{}, core.NewVec3(x, y, -1))
}
