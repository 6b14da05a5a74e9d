package lights

import (
	"errors"
	"fmt"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// ErrInvalidIntensity is returned for lights with non-positive intensity
var ErrInvalidIntensity = errors.New("light intensity must be positive")

// PointLight is an isotropic light at a position with no distance falloff
type PointLight struct {
	Position  core.Vec3
	Intensity float64
}

// NewPointLight creates a validated point light
func NewPointLight(position core.Vec3, intensity float64) (*PointLight, error) {
	if !(intensity > 0) {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidIntensity, intensity)
	}
	return &PointLight{Position: position, Intensity: intensity}, nil
}

// Type implements Light
func (pl *PointLight) Type() LightType {
	return LightTypePoint
}

// Illuminate implements Light
func (pl *PointLight) Illuminate(point core.Vec3) (core.Vec3, float64, float64) {
	toLight := pl.Position.Sub(point)
	return core.Normalize(toLight), toLight.Len(), pl.Intensity
}
