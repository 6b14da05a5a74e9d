package core

// Ray is a half-line with a unit-length direction
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// NewRay creates a new ray with a normalized direction
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: Normalize(direction)}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}
