package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	rmath "r3d/math"
	"r3d/scene"
)

// FrameContext is the camera state captured by Begin and read by every
// pass of the frame.
type FrameContext struct {
	View     mgl32.Mat4
	Proj     mgl32.Mat4
	ViewProj mgl32.Mat4
	InvView  mgl32.Mat4
	InvProj  mgl32.Mat4
	Frustum  rmath.Frustum
	Position mgl32.Vec3
	Aspect   float32
	Near     float32
	Far      float32
	// Width and Height are the internal resolution.
	Width  int
	Height int
	// DeltaTime is the frame time reported by the clock at Begin.
	DeltaTime float32
}

// Frame returns the context of the open frame, or of the last one.
func (r *Renderer) Frame() FrameContext { return r.frame }

// Active reports whether a frame is open.
func (r *Renderer) Active() bool { return r.active }

// Begin opens a frame seen through camera and clears the draw queues.
func (r *Renderer) Begin(camera *scene.Camera) error {
	if r.active {
		return fmt.Errorf("begin: %w", ErrFrameActive)
	}
	if camera == nil {
		return errors.New("begin: nil camera")
	}

	r.applyShaderChanges(r.lib.ReloadPending(r.watcher))
	if r.wall != nil {
		r.wall.Tick()
	}

	near, far := r.cfg.Render.Near, r.cfg.Render.Far
	if near <= 0 {
		near = 0.01
	}
	if far <= near {
		far = near + 1000
	}
	aspect := r.aspect()

	var proj mgl32.Mat4
	switch camera.Projection {
	case scene.Orthographic:
		proj = rmath.Orthographic(camera.FovY, aspect, near, far)
	default:
		proj = rmath.Perspective(mgl32.DegToRad(camera.FovY), aspect, near, far)
	}
	view := camera.GetViewMatrix()
	viewProj := proj.Mul4(view)

	r.frame = FrameContext{
		View:      view,
		Proj:      proj,
		ViewProj:  viewProj,
		InvView:   view.Inv(),
		InvProj:   proj.Inv(),
		Frustum:   rmath.FrustumFromVP(viewProj),
		Position:  camera.Position,
		Aspect:    aspect,
		Near:      near,
		Far:       far,
		Width:     r.width,
		Height:    r.height,
		DeltaTime: r.clock.FrameTime(),
	}
	r.queue.Clear()
	r.active = true
	return nil
}

// aspect returns the projection aspect ratio: the internal resolution when
// the blit keeps it, otherwise the blit destination.
func (r *Renderer) aspect() float32 {
	if r.flags&FlagAspectKeep == 0 {
		w, h := r.destinationSize()
		if w > 0 && h > 0 {
			return float32(w) / float32(h)
		}
	}
	return float32(r.width) / float32(r.height)
}

func (r *Renderer) destinationSize() (int, int) {
	if r.target != nil {
		return r.target.Width, r.target.Height
	}
	return r.dev.ScreenSize()
}

// End renders every queued draw and closes the frame.
func (r *Renderer) End() error {
	if !r.active {
		return fmt.Errorf("end: %w", ErrFrameNotActive)
	}
	r.render()
	r.active = false
	return nil
}
