package skin

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents the axis-aligned bounds of a deformed vertex buffer
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// Bounds returns the smallest AABB containing every point.
// An empty buffer yields a zero AABB.
func Bounds(points []mgl64.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}

	aabb := AABB{
		Min: mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)},
		Max: mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}
	for _, p := range points {
		for axis := 0; axis < 3; axis++ {
			aabb.Min[axis] = math.Min(aabb.Min[axis], p[axis])
			aabb.Max[axis] = math.Max(aabb.Max[axis], p[axis])
		}
	}

	return aabb
}

// Center returns the middle of the box
func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on all three axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}
