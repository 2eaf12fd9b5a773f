package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// ScreenProjection carries the camera state needed to project world-space
// volumes onto the render target.
type ScreenProjection struct {
	CameraPos mgl32.Vec3
	ViewProj  mgl32.Mat4
	Frustum   Frustum
	Width     int
	Height    int
}

// NewScreenProjection builds a projection for a viewport of width x height.
func NewScreenProjection(camPos mgl32.Vec3, viewProj mgl32.Mat4, width, height int) ScreenProjection {
	return ScreenProjection{
		CameraPos: camPos,
		ViewProj:  viewProj,
		Frustum:   FrustumFromVP(viewProj),
		Width:     width,
		Height:    height,
	}
}

// Full returns the rectangle covering the whole viewport.
func (p ScreenProjection) Full() Rect {
	return Rect{Width: float32(p.Width), Height: float32(p.Height)}
}

// SphereRect returns the screen rectangle bounding a sphere.
func (p ScreenProjection) SphereRect(center mgl32.Vec3, radius float32) Rect {
	if !p.Frustum.ContainsSphere(center, radius) {
		return Rect{}
	}
	if p.CameraPos.Sub(center).LenSqr() <= radius*radius {
		return p.Full()
	}
	r := mgl32.Vec3{radius, radius, radius}
	return p.boxRect(AABB{Min: center.Sub(r), Max: center.Add(r)})
}

// ConeRect returns the screen rectangle bounding a cone with its apex at
// apex, opening along dir for height units and ending in a disk of
// baseRadius.
func (p ScreenProjection) ConeRect(apex, dir mgl32.Vec3, height, baseRadius float32) Rect {
	box := ConeAABB(apex, dir, height, baseRadius)
	if !p.Frustum.ContainsAABB(box) {
		return Rect{}
	}
	if pointInCone(p.CameraPos, apex, dir, height, baseRadius) {
		return p.Full()
	}
	return p.boxRect(box)
}

// ConeAABB returns the tight box enclosing a cone.
func ConeAABB(apex, dir mgl32.Vec3, height, baseRadius float32) AABB {
	dir = safeNormalize(dir)
	base := apex.Add(dir.Mul(height))
	var e mgl32.Vec3
	for k := 0; k < 3; k++ {
		e[k] = baseRadius * float32(gomath.Sqrt(float64(Clamp(1-dir[k]*dir[k], 0, 1))))
	}
	box := AABB{Min: apex, Max: apex}
	box = box.Extend(base.Sub(e))
	return box.Extend(base.Add(e))
}

func pointInCone(pt, apex, dir mgl32.Vec3, height, baseRadius float32) bool {
	if height <= 0 {
		return false
	}
	dir = safeNormalize(dir)
	v := pt.Sub(apex)
	t := v.Dot(dir)
	if t < 0 || t > height {
		return false
	}
	rad := baseRadius * t / height
	return v.Sub(dir.Mul(t)).LenSqr() <= rad*rad
}

// boxRect projects the eight corners of box and returns their pixel bounds.
// A corner at or behind the camera plane makes the result the full viewport.
func (p ScreenProjection) boxRect(box AABB) Rect {
	minX, minY := float32(gomath.MaxFloat32), float32(gomath.MaxFloat32)
	maxX, maxY := -minX, -minY
	for _, c := range box.Corners() {
		clip := p.ViewProj.Mul4x1(c.Vec4(1))
		if clip[3] <= 0 {
			return p.Full()
		}
		x, y := clip[0]/clip[3], clip[1]/clip[3]
		minX = min(minX, x)
		minY = min(minY, y)
		maxX = max(maxX, x)
		maxY = max(maxY, y)
	}
	w, h := float32(p.Width), float32(p.Height)
	return Rect{
		X:      (minX*0.5 + 0.5) * w,
		Y:      (minY*0.5 + 0.5) * h,
		Width:  (maxX - minX) * 0.5 * w,
		Height: (maxY - minY) * 0.5 * h,
	}
}

func safeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	if v.LenSqr() == 0 {
		return mgl32.Vec3{0, 0, -1}
	}
	return v.Normalize()
}

// Perspective builds a projection from the near-plane extents:
// top = near*tan(fovy/2), right = top*aspect. fovy is in radians.
func Perspective(fovy, aspect, near, far float32) mgl32.Mat4 {
	top := near * float32(gomath.Tan(float64(fovy)*0.5))
	right := top * aspect
	return mgl32.Frustum(-right, right, -top, top, near, far)
}

// Orthographic builds a projection whose vertical extent is height.
func Orthographic(height, aspect, near, far float32) mgl32.Mat4 {
	top := height * 0.5
	right := top * aspect
	return mgl32.Ortho(-right, right, -top, top, near, far)
}
