package background

import "github.com/df07/go-whitted-raytracer/pkg/core"

// Background supplies the colour seen by rays that escape the scene
type Background interface {
	Sample(direction core.Vec3) core.Vec3
}

// Solid is a flat canvas colour, independent of direction
type Solid struct {
	Color core.Vec3
}

// NewSolid creates a flat background
func NewSolid(color core.Vec3) *Solid {
	return &Solid{Color: color}
}

// Sample implements Background
func (s *Solid) Sample(direction core.Vec3) core.Vec3 {
	return s.Color
}
