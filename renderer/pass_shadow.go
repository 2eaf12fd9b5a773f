package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"r3d/drawqueue"
	"r3d/gpu"
	"r3d/lighting"
	"r3d/shaders"
)

// shadowsDue reports whether a batched light needs its map rendered.
func (r *Renderer) shadowsDue() bool {
	for i := range r.batch {
		if s := &r.batch[i].light.Shadow; s.Active() && s.Due() {
			return true
		}
	}
	return false
}

// shadowPass renders the map of every due shadowed light of the batch.
func (r *Renderer) shadowPass() {
	r.dev.SetBlend(gpu.BlendState{})
	r.dev.SetStencil(gpu.StencilState{})
	r.dev.SetDepth(gpu.DepthState{Test: true, Write: true, Func: gpu.CompareLess})

	for i := range r.batch {
		l := r.batch[i].light
		if !l.Shadow.Active() || !l.Shadow.Due() {
			continue
		}
		if l.Type == lighting.LightOmni {
			r.renderOmniShadow(l)
		} else {
			r.renderDepthShadow(l)
		}
		l.Shadow.MarkRendered()
		r.stats.ShadowMaps++
	}
	r.dev.SetColorMask(true)
}

func (r *Renderer) renderDepthShadow(l *lighting.Light) {
	sm := &l.Shadow.Map
	r.viewport(sm.Framebuffer, sm.Resolution, sm.Resolution)
	r.dev.SetColorMask(false)
	r.dev.Clear(gpu.ClearState{Mask: gpu.DepthBuffer, Depth: 1})

	if l.Type == lighting.LightDirectional {
		l.Shadow.ViewProj = lighting.DirectionalViewProj(l.Direction, r.sceneBounds)
	} else {
		l.Shadow.ViewProj = lighting.SpotViewProj(l)
	}
	r.rasterDepth(r.queue.ShadowCasters, shaders.Depth, shaders.DepthInstanced, l.Shadow.ViewProj, nil)
}

func (r *Renderer) renderOmniShadow(l *lighting.Light) {
	sm := &l.Shadow.Map
	r.viewport(sm.Framebuffer, sm.Resolution, sm.Resolution)
	r.dev.SetColorMask(true)

	proj := lighting.OmniProjection(l)
	far := l.ShadowFar()
	cube := func(p boundProgram) {
		p.Vec3("uViewPosition", l.Position)
		p.Float("uFar", far)
	}
	for face := gpu.FacePosX; face <= gpu.FaceNegZ; face++ {
		r.dev.AttachTexture(sm.Framebuffer, gpu.AttachColor0, sm.Distance, face)
		r.dev.Clear(gpu.ClearState{Mask: gpu.ColorBuffer | gpu.DepthBuffer, Color: [4]float32{1, 1, 1, 1}, Depth: 1})
		vp := proj.Mul4(lighting.OmniView(l.Position, int(face)))
		r.rasterDepth(r.queue.ShadowCasters, shaders.DepthCube, shaders.DepthCubeInstanced, vp, cube)
	}
}

// rasterDepth draws every call yielded by each with the scalar or instanced
// depth program. extra sets the per-pass uniforms of a freshly bound
// program.
func (r *Renderer) rasterDepth(each func(func(*drawqueue.DrawCall, gpu.CullState)), scalar, instanced shaders.Name, vp mgl32.Mat4, extra func(boundProgram)) {
	var (
		p       boundProgram
		current shaders.Name
		usable  bool
	)
	each(func(call *drawqueue.DrawCall, cull gpu.CullState) {
		name := scalar
		if call.Instanced() {
			name = instanced
		}
		if name != current {
			current = name
			if p, usable = r.use(name); usable && extra != nil {
				extra(p)
			}
		}
		if !usable {
			return
		}
		r.dev.SetCull(cull)
		if call.Instanced() {
			p.Mat4("uMatModel", call.Transform)
			p.Mat4("uMatVP", vp)
			p.Int("uBillboardMode", int32(call.Billboard))
			p.Mat4("uMatInvView", r.frame.InvView)
		} else {
			p.Mat4("uMatModel", call.Transform)
			p.Mat4("uMatMVP", vp.Mul4(call.Transform))
		}
		m := call.Material
		p.Texture("uTexAlbedo", slotAlbedo, gpu.Texture2D, texOr(m.Albedo.Texture, r.defaults.white))
		p.Float("uAlpha", m.Albedo.Color.A)
		p.Float("uAlphaScissor", call.AlphaScissor)
		r.drawCall(call)
	})
}
