package math

import "github.com/go-gl/mathgl/mgl32"

// Plane represents a half-space: ax + by + cz + d = 0
// Normal (a, b, c) points into the "inside" of the frustum.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// DistanceTo returns the signed distance from a point to the plane.
// Positive means on the "inside" (same side as Normal).
func (p Plane) DistanceTo(pt mgl32.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// Frustum holds the six clip planes of a view frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumFromVP extracts the six frustum planes from a view-projection matrix.
// The planes are normalized so DistanceTo returns a true distance in world units.
//
// mgl32 matrices are column-major, so row i of the matrix is
// (vp[i], vp[4+i], vp[8+i], vp[12+i]).
func FrustumFromVP(vp mgl32.Mat4) Frustum {
	r0 := vp.Row(0)
	r1 := vp.Row(1)
	r2 := vp.Row(2)
	r3 := vp.Row(3)

	var f Frustum
	f.Planes[0] = normalizePlane(r3.Add(r0)) // left
	f.Planes[1] = normalizePlane(r3.Sub(r0)) // right
	f.Planes[2] = normalizePlane(r3.Add(r1)) // bottom
	f.Planes[3] = normalizePlane(r3.Sub(r1)) // top
	f.Planes[4] = normalizePlane(r3.Add(r2)) // near
	f.Planes[5] = normalizePlane(r3.Sub(r2)) // far
	return f
}

func normalizePlane(v mgl32.Vec4) Plane {
	n := v.Vec3()
	l := n.Len()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Mul(1 / l), D: v[3] / l}
}

// ContainsPoint reports whether pt lies strictly inside all six planes.
func (f *Frustum) ContainsPoint(pt mgl32.Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceTo(pt) <= 0 {
			return false
		}
	}
	return true
}

// ContainsSphere reports whether a sphere touches or lies inside the frustum.
func (f *Frustum) ContainsSphere(center mgl32.Vec3, radius float32) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceTo(center) < -radius {
			return false
		}
	}
	return true
}

// ContainsAABB returns true when any corner of the box is inside, false when
// all eight corners lie outside one single plane, and true otherwise. The
// last case is conservative: a box straddling several planes counts as visible.
func (f *Frustum) ContainsAABB(box AABB) bool {
	corners := box.Corners()
	for _, c := range corners {
		if f.ContainsPoint(c) {
			return true
		}
	}
	for i := range f.Planes {
		outside := 0
		for _, c := range corners {
			if f.Planes[i].DistanceTo(c) < 0 {
				outside++
			}
		}
		if outside == len(corners) {
			return false
		}
	}
	return true
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

// Corners returns the eight corners of the box.
func (box AABB) Corners() [8]mgl32.Vec3 {
	mn, mx := box.Min, box.Max
	return [8]mgl32.Vec3{
		{mn[0], mn[1], mn[2]},
		{mx[0], mn[1], mn[2]},
		{mn[0], mx[1], mn[2]},
		{mx[0], mx[1], mn[2]},
		{mn[0], mn[1], mx[2]},
		{mx[0], mn[1], mx[2]},
		{mn[0], mx[1], mx[2]},
		{mx[0], mx[1], mx[2]},
	}
}

// Center returns the midpoint of the box.
func (box AABB) Center() mgl32.Vec3 {
	return box.Min.Add(box.Max).Mul(0.5)
}

// Transform returns the world-space AABB enclosing the box transformed by m.
func (box AABB) Transform(m mgl32.Mat4) AABB {
	corners := box.Corners()
	first := mgl32.TransformCoordinate(corners[0], m)
	out := AABB{Min: first, Max: first}
	for i := 1; i < len(corners); i++ {
		out = out.Extend(mgl32.TransformCoordinate(corners[i], m))
	}
	return out
}

// Extend grows the box to include pt.
func (box AABB) Extend(pt mgl32.Vec3) AABB {
	for k := 0; k < 3; k++ {
		if pt[k] < box.Min[k] {
			box.Min[k] = pt[k]
		}
		if pt[k] > box.Max[k] {
			box.Max[k] = pt[k]
		}
	}
	return box
}
