// Package drawqueue buffers the draw calls submitted during one frame.
//
// Calls land in one of four buffers: deferred or forward, scalar or
// instanced. Buffers are cleared at the start of every frame and sorted once
// before the frame is rendered.
package drawqueue

import (
	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/slices"

	"r3d/core"
	"r3d/gpu"
	rmath "r3d/math"
	"r3d/scene"
)

// Geometry tells the raster passes how to interpret a DrawCall.
type Geometry int

const (
	GeometryMesh Geometry = iota
	GeometrySprite
)

// DrawCall is one submitted draw. It lives until the next Clear.
type DrawCall struct {
	Mesh      *scene.Mesh
	Material  *scene.Material
	Transform mgl32.Mat4
	Geometry  Geometry

	// Sprite frame selection, used when Geometry is GeometrySprite.
	UVScale  mgl32.Vec2
	UVOffset mgl32.Vec2

	// Instances is non-empty for instanced calls. Transform is then applied
	// on top of every instance transform.
	Instances gpu.InstanceData

	Blend        BlendMode
	ShadowCast   ShadowCastMode
	Billboard    BillboardMode
	AlphaScissor float32

	dist float32
}

// Instanced reports whether the call carries per-instance data.
func (c *DrawCall) Instanced() bool {
	return c.Instances.Count > 0
}

// Position returns the world translation of the call.
func (c *DrawCall) Position() mgl32.Vec3 {
	return c.Transform.Col(3).Vec3()
}

// Capacities sizes the initial buffers.
type Capacities struct {
	Deferred  int
	Forward   int
	Instanced int
}

// Queue holds the four draw buffers of a frame.
type Queue struct {
	Deferred          []DrawCall
	Forward           []DrawCall
	DeferredInstanced []DrawCall
	ForwardInstanced  []DrawCall

	log *log.Logger
}

// New allocates the buffers. A nil logger selects the process logger.
func New(c Capacities, logger *log.Logger) *Queue {
	if logger == nil {
		logger = core.Logger()
	}
	return &Queue{
		Deferred:          make([]DrawCall, 0, max(c.Deferred, 0)),
		Forward:           make([]DrawCall, 0, max(c.Forward, 0)),
		DeferredInstanced: make([]DrawCall, 0, max(c.Instanced, 0)),
		ForwardInstanced:  make([]DrawCall, 0, max(c.Instanced, 0)),
		log:               logger,
	}
}

// Clear empties every buffer, keeping their storage.
func (q *Queue) Clear() {
	q.Deferred = q.Deferred[:0]
	q.Forward = q.Forward[:0]
	q.DeferredInstanced = q.DeferredInstanced[:0]
	q.ForwardInstanced = q.ForwardInstanced[:0]
}

// Push appends call to the buffer selected by p and by whether the call is
// instanced. Calls without a mesh are dropped.
func (q *Queue) Push(p Pipeline, call DrawCall) bool {
	if call.Mesh == nil {
		return false
	}
	switch {
	case p == PipelineForward && call.Instanced():
		q.ForwardInstanced = q.grow(q.ForwardInstanced, "forward instanced", call)
	case p == PipelineForward:
		q.Forward = q.grow(q.Forward, "forward", call)
	case call.Instanced():
		q.DeferredInstanced = q.grow(q.DeferredInstanced, "deferred instanced", call)
	default:
		q.Deferred = q.grow(q.Deferred, "deferred", call)
	}
	return true
}

// grow appends call, warning when the buffer outgrows its storage. Storage
// is kept across frames, so each new high-water mark is reported once.
func (q *Queue) grow(buf []DrawCall, name string, call DrawCall) []DrawCall {
	if len(buf) == cap(buf) {
		q.log.Warn("draw queue grown", "queue", name, "capacity", cap(buf))
	}
	return append(buf, call)
}

// HasDeferred reports whether any deferred draw was submitted.
func (q *Queue) HasDeferred() bool {
	return len(q.Deferred) > 0 || len(q.DeferredInstanced) > 0
}

// HasForward reports whether any forward draw was submitted.
func (q *Queue) HasForward() bool {
	return len(q.Forward) > 0 || len(q.ForwardInstanced) > 0
}

// Len returns the total number of queued calls.
func (q *Queue) Len() int {
	return len(q.Deferred) + len(q.Forward) + len(q.DeferredInstanced) + len(q.ForwardInstanced)
}

// Sort orders the scalar buffers by squared distance from viewPos: deferred
// front to back, forward back to front. Equal distances keep submission order.
func (q *Queue) Sort(viewPos mgl32.Vec3) {
	for _, buf := range [][]DrawCall{q.Deferred, q.Forward} {
		for i := range buf {
			buf[i].dist = rmath.SquaredDistance(viewPos, buf[i].Transform)
		}
	}
	slices.SortStableFunc(q.Deferred, func(a, b DrawCall) int {
		return compare(a.dist, b.dist)
	})
	slices.SortStableFunc(q.Forward, func(a, b DrawCall) int {
		return compare(b.dist, a.dist)
	})
}

func compare(a, b float32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ShadowCasters calls fn for every call that casts shadows: instanced calls
// of both pipelines first, then scalar calls.
func (q *Queue) ShadowCasters(fn func(call *DrawCall, cull gpu.CullState)) {
	for _, buf := range [][]DrawCall{q.DeferredInstanced, q.ForwardInstanced, q.Deferred, q.Forward} {
		for i := range buf {
			if cull, ok := buf[i].ShadowCast.CullState(); ok {
				fn(&buf[i], cull)
			}
		}
	}
}
