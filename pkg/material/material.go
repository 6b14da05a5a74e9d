package material

import (
	"errors"
	"fmt"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

var (
	// ErrInvalidAlbedo is returned for albedo vectors that are not 2 or 3 components
	ErrInvalidAlbedo = errors.New("albedo must have 2 or 3 components")
	// ErrInvalidExponent is returned for non-positive specular exponents
	ErrInvalidExponent = errors.New("specular exponent must be positive")
)

// Albedo weights the diffuse, specular and reflective terms of a surface
type Albedo struct {
	Diffuse    float64
	Specular   float64
	Reflective float64 // zero disables reflection rays for the material
}

// NewAlbedo builds an Albedo from a 2- or 3-component weight list
// (diffuse, specular, [reflective]).
func NewAlbedo(weights ...float64) (Albedo, error) {
	switch len(weights) {
	case 2:
		return Albedo{Diffuse: weights[0], Specular: weights[1]}, nil
	case 3:
		return Albedo{Diffuse: weights[0], Specular: weights[1], Reflective: weights[2]}, nil
	default:
		return Albedo{}, fmt.Errorf("%w: got %d", ErrInvalidAlbedo, len(weights))
	}
}

// Material is a Phong surface description shared by any number of spheres
type Material struct {
	Color            core.Vec3 // normalized 0-1 RGB
	Albedo           Albedo
	SpecularExponent float64
}

// New creates a validated material
func New(color core.Vec3, albedo Albedo, specularExponent float64) (Material, error) {
	m := Material{
		Color:            color,
		Albedo:           albedo,
		SpecularExponent: specularExponent,
	}
	if err := m.Validate(); err != nil {
		return Material{}, err
	}
	return m, nil
}

// Validate checks the construction-time invariants of the material
func (m Material) Validate() error {
	if !(m.SpecularExponent > 0) {
		return fmt.Errorf("%w: got %g", ErrInvalidExponent, m.SpecularExponent)
	}
	return nil
}

// IsReflective reports whether the material spawns reflection rays
func (m Material) IsReflective() bool {
	return m.Albedo.Reflective != 0
}
