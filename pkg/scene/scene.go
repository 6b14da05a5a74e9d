package scene

import (
	"fmt"

	"github.com/df07/go-whitted-raytracer/pkg/background"
	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/lights"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// CameraConfig holds the recommended output settings for a scene
type CameraConfig struct {
	Width    int     `json:"width"`    // Image width
	Height   int     `json:"height"`   // Image height
	FOV      float64 `json:"fov"`      // Field of view in degrees
	MaxDepth int     `json:"maxDepth"` // Maximum reflection depth, 0 = no reflections
}

// DefaultCameraConfig returns the settings used when a scene does not specify any
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Width:    1024,
		Height:   768,
		FOV:      90,
		MaxDepth: 4,
	}
}

// Scene contains all the elements needed for rendering. It is built once
// through the Add* methods, which validate their inputs, and is read-only
// while a render is running.
type Scene struct {
	CameraConfig CameraConfig

	canvas      *background.Solid
	environment *background.EnvironmentMap
	materials   *material.Table
	spheres     []geometry.Sphere
	lights      []lights.Light
}

// New creates an empty scene with a flat canvas colour
func New(canvas core.Vec3) *Scene {
	return &Scene{
		CameraConfig: DefaultCameraConfig(),
		canvas:       background.NewSolid(canvas),
		materials:    material.NewTable(),
	}
}

// AddMaterial registers a material and returns the ID spheres use to refer to it
func (s *Scene) AddMaterial(name string, m material.Material) (material.ID, error) {
	return s.materials.Add(name, m)
}

// MaterialID looks up a material registered under name
func (s *Scene) MaterialID(name string) (material.ID, error) {
	return s.materials.Lookup(name)
}

// AddSphere adds a sphere referring to an already registered material
func (s *Scene) AddSphere(center core.Vec3, radius float64, mat material.ID) error {
	if !s.materials.Has(mat) {
		return fmt.Errorf("sphere at %v: %w: id %d", center, material.ErrUnknownMaterial, mat)
	}
	sphere, err := geometry.NewSphere(center, radius, mat)
	if err != nil {
		return fmt.Errorf("sphere at %v: %w", center, err)
	}
	s.spheres = append(s.spheres, sphere)
	return nil
}

// AddPointLight adds a point light
func (s *Scene) AddPointLight(position core.Vec3, intensity float64) error {
	light, err := lights.NewPointLight(position, intensity)
	if err != nil {
		return fmt.Errorf("light at %v: %w", position, err)
	}
	s.lights = append(s.lights, light)
	return nil
}

// SetEnvironmentMap replaces the flat canvas with an environment map. nil restores the canvas.
func (s *Scene) SetEnvironmentMap(env *background.EnvironmentMap) {
	s.environment = env
}

// HasEnvironmentMap reports whether escaping rays sample an environment map
func (s *Scene) HasEnvironmentMap() bool {
	return s.environment != nil
}

// Canvas returns the flat background colour
func (s *Scene) Canvas() core.Vec3 {
	return s.canvas.Color
}

// Background returns the environment map if present, otherwise the canvas colour
func (s *Scene) Background() background.Background {
	if s.environment != nil {
		return s.environment
	}
	return s.canvas
}

// Spheres returns the spheres in insertion order
func (s *Scene) Spheres() []geometry.Sphere {
	return s.spheres
}

// Lights returns the lights in insertion order
func (s *Scene) Lights() []lights.Light {
	return s.lights
}

// Material resolves a material ID held by a sphere or hit
func (s *Scene) Material(id material.ID) material.Material {
	return s.materials.Get(id)
}

// MaterialCount returns the number of registered materials
func (s *Scene) MaterialCount() int {
	return s.materials.Len()
}

// NearestHit returns the closest sphere intersection along ray
func (s *Scene) NearestHit(ray core.Ray) (geometry.Hit, bool) {
	return geometry.NearestHit(s.spheres, ray)
}
