package scene

import "github.com/go-gl/mathgl/mgl32"

// ProjectionMode selects how the camera projects the scene.
type ProjectionMode int

const (
	Perspective ProjectionMode = iota
	Orthographic
)

// Camera is a look-at camera. FovY is the vertical field of view in degrees
// for a perspective camera, or the vertical view height in world units for
// an orthographic one.
type Camera struct {
	Position   mgl32.Vec3
	Target     mgl32.Vec3
	Up         mgl32.Vec3
	FovY       float32
	Projection ProjectionMode
}

func NewCamera(position, target mgl32.Vec3, fovY float32) *Camera {
	return &Camera{
		Position:   position,
		Target:     target,
		Up:         mgl32.Vec3{0, 1, 0},
		FovY:       fovY,
		Projection: Perspective,
	}
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	up := c.Up
	if up.LenSqr() == 0 {
		up = mgl32.Vec3{0, 1, 0}
	}
	return mgl32.LookAtV(c.Position, c.Target, up)
}

func (c *Camera) GetForward() mgl32.Vec3 {
	f := c.Target.Sub(c.Position)
	if f.LenSqr() == 0 {
		return mgl32.Vec3{0, 0, -1}
	}
	return f.Normalize()
}

func (c *Camera) GetRight() mgl32.Vec3 {
	r := c.GetForward().Cross(c.Up)
	if r.LenSqr() == 0 {
		return mgl32.Vec3{1, 0, 0}
	}
	return r.Normalize()
}

// Translate moves both position and target.
func (c *Camera) Translate(delta mgl32.Vec3) {
	c.Position = c.Position.Add(delta)
	c.Target = c.Target.Add(delta)
}

// Orbit rotates the position around the target by angle radians about the
// camera up axis.
func (c *Camera) Orbit(angle float32) {
	rot := mgl32.HomogRotate3D(angle, c.Up.Normalize())
	offset := c.Position.Sub(c.Target)
	c.Position = c.Target.Add(mgl32.TransformNormal(offset, rot))
}
