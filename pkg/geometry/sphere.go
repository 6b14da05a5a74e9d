package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// ErrInvalidRadius is returned for spheres whose radius is not strictly positive
var ErrInvalidRadius = errors.New("sphere radius must be positive")

// Sphere represents a sphere shape
type Sphere struct {
	Center   core.Vec3
	Radius   float64
	Material material.ID
}

// NewSphere creates a new sphere, rejecting non-positive or non-finite radii
func NewSphere(center core.Vec3, radius float64, mat material.ID) (Sphere, error) {
	if !(radius > 0) || math.IsInf(radius, 1) {
		return Sphere{}, fmt.Errorf("%w: got %g", ErrInvalidRadius, radius)
	}
	return Sphere{
		Center:   center,
		Radius:   radius,
		Material: mat,
	}, nil
}

// Intersect returns the distance along ray to the nearest non-negative
// intersection. ray.Direction must be unit length.
//
// When the origin is inside the sphere the near root is negative and the far
// root is used instead; a sphere entirely behind the origin is a miss.
func (s Sphere) Intersect(ray core.Ray) (float64, bool) {
	// Vector from ray origin to sphere center and its projection on the ray
	l := s.Center.Sub(ray.Origin)
	tca := l.Dot(ray.Direction)

	// Squared distance between the center and the ray's closest approach
	d2 := l.Dot(l) - tca*tca
	r2 := s.Radius * s.Radius
	if d2 > r2 {
		return 0, false
	}

	thc := math.Sqrt(r2 - d2)
	t0 := tca - thc
	t1 := tca + thc
	if t0 < 0 {
		t0 = t1
	}
	if t0 < 0 {
		return 0, false
	}
	return t0, true
}

// Normal returns the outward unit normal at a point on the surface
func (s Sphere) Normal(point core.Vec3) core.Vec3 {
	return core.Normalize(point.Sub(s.Center))
}
