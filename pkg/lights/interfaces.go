package lights

import "github.com/df07/go-whitted-raytracer/pkg/core"

type LightType string

const (
	LightTypePoint LightType = "point"
)

// Light is a source the shading engine can test for visibility and accumulate
type Light interface {
	Type() LightType

	// Illuminate returns the unit direction FROM point TO the light, the
	// distance to the light, and the intensity arriving at point.
	Illuminate(point core.Vec3) (direction core.Vec3, distance float64, intensity float64)
}
