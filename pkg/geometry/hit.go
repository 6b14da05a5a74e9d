package geometry

import (
	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// Hit describes the nearest ray-sphere intersection
type Hit struct {
	Point    core.Vec3   // Point of intersection
	Normal   core.Vec3   // Outward unit normal (away from the sphere center)
	Material material.ID // Material of the hit sphere
	Distance float64     // Distance from the ray origin, >= 0
	Index    int         // Position of the hit sphere in the scene's list
}

// NearestHit intersects ray with every sphere and returns the closest hit.
// Comparison is strict, so on exact ties the sphere listed first wins.
func NearestHit(spheres []Sphere, ray core.Ray) (Hit, bool) {
	nearest := -1
	nearestDistance := 0.0

	for i := range spheres {
		distance, ok := spheres[i].Intersect(ray)
		if ok && (nearest < 0 || distance < nearestDistance) {
			nearest = i
			nearestDistance = distance
		}
	}

	if nearest < 0 {
		return Hit{}, false
	}

	sphere := spheres[nearest]
	point := ray.At(nearestDistance)
	return Hit{
		Point:    point,
		Normal:   sphere.Normal(point),
		Material: sphere.Material,
		Distance: nearestDistance,
		Index:    nearest,
	}, true
}
