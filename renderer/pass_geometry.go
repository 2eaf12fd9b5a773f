package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"r3d/drawqueue"
	"r3d/gpu"
	"r3d/scene"
	"r3d/shaders"
)

// Texture slots of the material samplers.
const (
	slotAlbedo = iota
	slotNormal
	slotEmission
	slotOcclusion
	slotRoughness
	slotMetalness
)

// texOr returns the device handle of tex, or fallback when it is missing or
// not resident.
func texOr(tex *scene.Texture, fallback gpu.Texture) gpu.Texture {
	if tex != nil && tex.Handle != 0 {
		return tex.Handle
	}
	return fallback
}

// bindMaterial uploads the material samplers and factors shared by the
// geometry and forward programs.
func (r *Renderer) bindMaterial(p boundProgram, call *drawqueue.DrawCall) {
	m := call.Material
	white := r.defaults.white

	p.Texture("uTexAlbedo", slotAlbedo, gpu.Texture2D, texOr(m.Albedo.Texture, white))
	p.Texture("uTexNormal", slotNormal, gpu.Texture2D, texOr(m.Normal.Texture, r.defaults.normal))
	p.Texture("uTexEmission", slotEmission, gpu.Texture2D, texOr(m.Emission.Texture, white))
	p.Texture("uTexOcclusion", slotOcclusion, gpu.Texture2D, texOr(m.Occlusion.Texture, white))
	p.Texture("uTexRoughness", slotRoughness, gpu.Texture2D, texOr(m.Roughness.Texture, white))
	p.Texture("uTexMetalness", slotMetalness, gpu.Texture2D, texOr(m.Metalness.Texture, white))

	p.Float("uValEmission", m.Emission.Value)
	p.Float("uValOcclusion", m.Occlusion.Value)
	p.Float("uValRoughness", m.Roughness.Value)
	p.Float("uValMetalness", m.Metalness.Value)
	p.Vec4("uColAlbedo", m.Albedo.Color.Vec4())
	p.Vec3("uColEmission", m.Emission.Color.Vec3())
	p.Float("uAlphaScissor", call.AlphaScissor)

	p.Vec2("uTexCoordOffset", call.UVOffset)
	p.Vec2("uTexCoordScale", call.UVScale)
}

// bindTransform uploads the matrices of a scalar or instanced call seen
// through viewProj.
func (r *Renderer) bindTransform(p boundProgram, call *drawqueue.DrawCall, viewProj mgl32.Mat4) {
	if call.Instanced() {
		p.Mat4("uMatModel", call.Transform)
		p.Mat4("uMatVP", viewProj)
		p.Int("uBillboardMode", int32(call.Billboard))
		p.Mat4("uMatInvView", r.frame.InvView)
		return
	}
	p.Mat4("uMatModel", call.Transform)
	p.Mat4("uMatNormal", call.Transform.Inv().Transpose())
	p.Mat4("uMatMVP", viewProj.Mul4(call.Transform))
}

// drawCall issues the draw of one call with the bound program.
func (r *Renderer) drawCall(call *drawqueue.DrawCall) {
	m := call.Mesh
	if m.VAO == 0 {
		return
	}
	if call.Instanced() {
		r.dev.DrawMeshInstanced(m.VAO, m.VertexCount(), m.IndexCount(), call.Instances)
		return
	}
	r.dev.DrawMesh(m.VAO, m.VertexCount(), m.IndexCount())
}

// cullFor returns the face culling of a raster call. Sprites are two-sided.
func cullFor(call *drawqueue.DrawCall) gpu.CullState {
	if call.Geometry == drawqueue.GeometrySprite {
		return gpu.CullState{}
	}
	return gpu.CullState{Enabled: true, Face: gpu.CullBack}
}

// geometryPass rasterizes the deferred queue into the G-buffer and writes
// stencil 1 under every covered pixel.
func (r *Renderer) geometryPass() {
	t := r.targets
	if t.gbuf.fb == 0 {
		return
	}
	r.viewport(t.gbuf.fb, t.width, t.height)
	r.dev.SetBlend(gpu.BlendState{})
	r.dev.SetDepth(gpu.DepthState{Test: true, Write: true, Func: gpu.CompareLessEqual})
	r.dev.SetStencil(gpu.StencilState{
		Enabled:   true,
		Func:      gpu.CompareAlways,
		Ref:       1,
		ReadMask:  0xFF,
		WriteMask: 0xFF,
		Fail:      gpu.StencilKeep,
		DepthFail: gpu.StencilKeep,
		Pass:      gpu.StencilReplace,
	})

	r.rasterGeometry(shaders.GeometryInstanced, r.queue.DeferredInstanced)
	r.rasterGeometry(shaders.Geometry, r.queue.Deferred)

	r.dev.SetStencil(gpu.StencilState{})
}

func (r *Renderer) rasterGeometry(name shaders.Name, calls []drawqueue.DrawCall) {
	if len(calls) == 0 {
		return
	}
	p, ok := r.use(name)
	if !ok {
		return
	}
	for i := range calls {
		call := &calls[i]
		r.dev.SetCull(cullFor(call))
		r.bindTransform(p, call, r.frame.ViewProj)
		r.bindMaterial(p, call)
		r.drawCall(call)
	}
}
