package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"r3d/core"
	"r3d/drawqueue"
	"r3d/gpu"
	rmath "r3d/math"
	"r3d/scene"
)

func (r *Renderer) checkActive(op string) error {
	if !r.active {
		return fmt.Errorf("%s: %w", op, ErrFrameNotActive)
	}
	return nil
}

// newCall stamps the current submission state on a call.
func (r *Renderer) newCall(mesh *scene.Mesh, mat *scene.Material, transform mgl32.Mat4) drawqueue.DrawCall {
	if mat == nil {
		mat = r.defMaterial
	}
	return drawqueue.DrawCall{
		Mesh:         mesh,
		Material:     mat,
		Transform:    transform,
		Geometry:     drawqueue.GeometryMesh,
		UVScale:      mgl32.Vec2{1, 1},
		Blend:        r.state.Blend,
		ShadowCast:   r.state.ShadowCast,
		Billboard:    r.state.Billboard,
		AlphaScissor: r.state.AlphaScissor,
	}
}

// push billboards scalar calls and files the call into its queue.
func (r *Renderer) push(call drawqueue.DrawCall) {
	if !call.Instanced() {
		switch call.Billboard {
		case drawqueue.BillboardFront:
			call.Transform = rmath.BillboardFront(call.Transform, r.frame.InvView)
		case drawqueue.BillboardYAxis:
			call.Transform = rmath.BillboardY(call.Transform, r.frame.InvView)
		}
	}
	r.queue.Push(drawqueue.Classify(r.state.Mode, call.Blend, call.Material), call)
}

// ── Meshes ──────────────────────────────────────────────────────────────────

// DrawMesh queues one mesh. A nil mesh is ignored and a nil material
// selects the default material.
func (r *Renderer) DrawMesh(mesh *scene.Mesh, mat *scene.Material, transform mgl32.Mat4) error {
	if err := r.checkActive("draw mesh"); err != nil {
		return err
	}
	if mesh == nil {
		return nil
	}
	r.push(r.newCall(mesh, mat, transform))
	return nil
}

// DrawMeshInstanced queues count instances of mesh placed by transforms.
func (r *Renderer) DrawMeshInstanced(mesh *scene.Mesh, mat *scene.Material, transforms []mgl32.Mat4, count int) error {
	return r.DrawMeshInstancedEx(mesh, mat, transforms, nil, count)
}

// DrawMeshInstancedEx is DrawMeshInstanced with one color per instance.
// colors may be nil.
func (r *Renderer) DrawMeshInstancedEx(mesh *scene.Mesh, mat *scene.Material, transforms []mgl32.Mat4, colors []core.Color, count int) error {
	return r.DrawMeshInstancedPro(mesh, mat, mgl32.Ident4(), gpu.InstanceData{
		Transforms: flattenMat4(transforms),
		Colors:     flattenColors(colors),
		Count:      count,
	})
}

// DrawMeshInstancedPro queues an instanced draw over strided instance data.
// global is applied on top of every instance transform. A zero count or
// missing transforms make the call a no-op, and the count is clamped to
// the instances the slices can describe.
func (r *Renderer) DrawMeshInstancedPro(mesh *scene.Mesh, mat *scene.Material, global mgl32.Mat4, inst gpu.InstanceData) error {
	if err := r.checkActive("draw mesh instanced"); err != nil {
		return err
	}
	if mesh == nil || inst.Count <= 0 || inst.Transforms == nil {
		return nil
	}
	if inst.Count = inst.Available(); inst.Count <= 0 {
		return nil
	}
	call := r.newCall(mesh, mat, global)
	call.Instances = inst
	r.push(call)
	return nil
}

func flattenMat4(m []mgl32.Mat4) []float32 {
	if len(m) == 0 {
		return nil
	}
	return unsafe.Slice(&m[0][0], len(m)*16)
}

func flattenColors(c []core.Color) []float32 {
	if len(c) == 0 {
		return nil
	}
	return unsafe.Slice(&c[0].R, len(c)*4)
}

// ── Models ──────────────────────────────────────────────────────────────────

// DrawModel queues every mesh of model at position, uniformly scaled.
func (r *Renderer) DrawModel(model *scene.Model, position mgl32.Vec3, scale float32) error {
	return r.DrawModelEx(model, position, mgl32.Vec3{0, 1, 0}, 0, mgl32.Vec3{scale, scale, scale})
}

// DrawModelEx queues every mesh of model translated to position, rotated by
// angle degrees around axis and scaled per axis.
func (r *Renderer) DrawModelEx(model *scene.Model, position, axis mgl32.Vec3, angle float32, scale mgl32.Vec3) error {
	if err := r.checkActive("draw model"); err != nil {
		return err
	}
	if model == nil {
		return nil
	}
	rot := mgl32.Ident4()
	if axis.LenSqr() > 0 && angle != 0 {
		rot = mgl32.HomogRotate3D(mgl32.DegToRad(angle), axis.Normalize())
	}
	transform := mgl32.Translate3D(position[0], position[1], position[2]).
		Mul4(rot).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
	for i, mesh := range model.Meshes {
		if mesh != nil {
			r.push(r.newCall(mesh, model.MaterialFor(i), transform))
		}
	}
	return nil
}

// ── Sprites ─────────────────────────────────────────────────────────────────

// DrawSprite queues the current frame of sprite as a unit quad at position.
func (r *Renderer) DrawSprite(sprite *scene.Sprite, position mgl32.Vec3) error {
	return r.DrawSpriteEx(sprite, position, mgl32.Vec2{1, 1}, 0)
}

// DrawSpriteEx queues sprite scaled by size and rotated by rotation degrees
// around the view axis. Negative size components mirror the frame.
func (r *Renderer) DrawSpriteEx(sprite *scene.Sprite, position mgl32.Vec3, size mgl32.Vec2, rotation float32) error {
	signX, signY := float32(1), float32(1)
	if size[0] < 0 {
		signX, size[0] = -1, -size[0]
	}
	if size[1] < 0 {
		signY, size[1] = -1, -size[1]
	}
	transform := mgl32.Translate3D(position[0], position[1], position[2]).
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(rotation))).
		Mul4(mgl32.Scale3D(size[0], size[1], 1))
	return r.drawSprite(sprite, transform, signX, signY)
}

// DrawSpritePro queues sprite with an arbitrary transform.
func (r *Renderer) DrawSpritePro(sprite *scene.Sprite, transform mgl32.Mat4) error {
	return r.drawSprite(sprite, transform, 1, 1)
}

func (r *Renderer) drawSprite(sprite *scene.Sprite, transform mgl32.Mat4, signX, signY float32) error {
	if err := r.checkActive("draw sprite"); err != nil {
		return err
	}
	if sprite == nil || r.quad == nil {
		return nil
	}
	call := r.newCall(r.quad, sprite.Material, transform)
	call.Geometry = drawqueue.GeometrySprite
	call.UVScale, call.UVOffset = sprite.FrameUV(signX, signY)
	r.push(call)
	return nil
}

// ── Particles ───────────────────────────────────────────────────────────────

// DrawParticleSystem queues every live particle of emitter as one instanced
// draw of mesh.
func (r *Renderer) DrawParticleSystem(emitter *scene.ParticleEmitter, mesh *scene.Mesh, mat *scene.Material) error {
	return r.DrawParticleSystemEx(emitter, mesh, mat, mgl32.Ident4())
}

// DrawParticleSystemEx is DrawParticleSystem with a global transform. The
// packed particle buffer belongs to the emitter and must not be updated
// before End.
func (r *Renderer) DrawParticleSystemEx(emitter *scene.ParticleEmitter, mesh *scene.Mesh, mat *scene.Material, transform mgl32.Mat4) error {
	if err := r.checkActive("draw particle system"); err != nil {
		return err
	}
	if emitter == nil {
		return nil
	}
	return r.DrawMeshInstancedPro(mesh, mat, transform, emitter.Pack())
}
