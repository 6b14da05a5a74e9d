package core

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a position, direction or colour. Arithmetic comes from mgl64.
type Vec3 = mgl64.Vec3

// White is the colour used for specular highlights
var White = Vec3{1, 1, 1}

// NewVec3 creates a new Vec3
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

// Normalize returns a unit vector in the same direction.
// The zero vector stays zero instead of turning into NaNs.
func Normalize(v Vec3) Vec3 {
	length := v.Len()
	if length == 0 {
		return Vec3{}
	}
	return v.Mul(1.0 / length)
}

// IsUnit reports whether v has unit length within tolerance
func IsUnit(v Vec3, tolerance float64) bool {
	return mgl64.FloatEqualThreshold(v.Dot(v), 1.0, tolerance)
}

// Reflect mirrors the incident direction i about the normal n: i - 2n(i·n)
func Reflect(i, n Vec3) Vec3 {
	return i.Sub(n.Mul(2.0 * i.Dot(n)))
}

// OffsetOrigin nudges point along normal by epsilon towards the side that
// direction leaves through, so a secondary ray does not re-hit its own surface.
func OffsetOrigin(point, normal, direction Vec3, epsilon float64) Vec3 {
	if direction.Dot(normal) < 0 {
		return point.Sub(normal.Mul(epsilon))
	}
	return point.Add(normal.Mul(epsilon))
}
