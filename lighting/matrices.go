package lighting

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	rmath "r3d/math"
)

// ShadowNear is the near plane of spot and omni shadow projections.
const ShadowNear = 0.05

var (
	cubeDirections = [6]mgl32.Vec3{
		{1, 0, 0}, {-1, 0, 0},
		{0, 1, 0}, {0, -1, 0},
		{0, 0, 1}, {0, 0, -1},
	}
	cubeUps = [6]mgl32.Vec3{
		{0, -1, 0}, {0, -1, 0},
		{0, 0, 1}, {0, 0, -1},
		{0, -1, 0}, {0, -1, 0},
	}
)

// upFor returns an up vector that is not parallel to dir.
func upFor(dir mgl32.Vec3) mgl32.Vec3 {
	up := mgl32.Vec3{0, 1, 0}
	if gomath.Abs(float64(dir.Dot(up))) > 0.999 {
		up = mgl32.Vec3{0, 0, 1}
	}
	return up
}

func safeDirection(dir mgl32.Vec3) mgl32.Vec3 {
	if dir.LenSqr() == 0 {
		return mgl32.Vec3{0, 0, -1}
	}
	return dir.Normalize()
}

// DirectionalViewProj returns the light matrix of a directional light
// looking down dir. The orthographic volume is the light-space box enclosing
// bounds, so every point of bounds lands inside the shadow map.
func DirectionalViewProj(dir mgl32.Vec3, bounds rmath.AABB) mgl32.Mat4 {
	dir = safeDirection(dir)
	center := bounds.Center()
	radius := max(bounds.Max.Sub(center).Len(), ShadowNear)
	view := mgl32.LookAtV(center.Sub(dir.Mul(radius)), center, upFor(dir))

	// Light space looks down -Z: near and far are the negated Z extremes.
	ls := bounds.Transform(view)
	proj := mgl32.Ortho(ls.Min[0], ls.Max[0], ls.Min[1], ls.Max[1], -ls.Max[2], -ls.Min[2])
	return proj.Mul4(view)
}

// SpotFov returns the field of view in degrees covering the outer cone.
func SpotFov(outerCutOff float32) float32 {
	fov := 2 * cosToDegrees(rmath.Clamp(outerCutOff, -1, 1))
	return rmath.Clamp(fov, 1, 179)
}

// SpotViewProj returns the light matrix of a spot light.
func SpotViewProj(l *Light) mgl32.Mat4 {
	dir := safeDirection(l.Direction)
	view := mgl32.LookAtV(l.Position, l.Position.Add(dir), upFor(dir))
	proj := rmath.Perspective(mgl32.DegToRad(SpotFov(l.OuterCutOff)), 1, ShadowNear, shadowFar(l))
	return proj.Mul4(view)
}

// OmniProjection is the 90° projection shared by the six cube faces.
func OmniProjection(l *Light) mgl32.Mat4 {
	return rmath.Perspective(mgl32.DegToRad(90), 1, ShadowNear, shadowFar(l))
}

// OmniView returns the view matrix of one cube face.
func OmniView(position mgl32.Vec3, face int) mgl32.Mat4 {
	return mgl32.LookAtV(position, position.Add(cubeDirections[face]), cubeUps[face])
}

// ShadowFar returns the far plane used by the light's shadow projection.
func (l *Light) ShadowFar() float32 { return shadowFar(l) }

func shadowFar(l *Light) float32 {
	return max(l.Range, ShadowNear+0.01)
}
