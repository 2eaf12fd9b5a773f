package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"r3d/drawqueue"
	"r3d/gpu"
	"r3d/lighting"
	"r3d/shaders"
)

// Forward texture slots after the material samplers: dummies for unused
// shadow samplers, then one unit per shadowed light.
const (
	slotForwardDummy2D   = 6
	slotForwardDummyCube = 7
	slotForwardShadows   = 8
)

// forwardCalls yields the forward queue, instanced calls first.
func (r *Renderer) forwardCalls(fn func(*drawqueue.DrawCall, gpu.CullState)) {
	for _, buf := range [][]drawqueue.DrawCall{r.queue.ForwardInstanced, r.queue.Forward} {
		for i := range buf {
			fn(&buf[i], cullFor(&buf[i]))
		}
	}
}

// forwardPass shades the forward queue over the scene target, optionally
// after laying down its depth.
func (r *Renderer) forwardPass() {
	t := r.targets
	if t.scene.fb == 0 {
		return
	}
	r.viewport(t.scene.fb, t.width, t.height)
	r.dev.SetStencil(gpu.StencilState{})
	r.dev.SetDepth(gpu.DepthState{Test: true, Write: true, Func: gpu.CompareLessEqual})

	shading := gpu.DepthState{Test: true, Write: true, Func: gpu.CompareLessEqual}
	if r.flags&FlagDepthPrepass != 0 {
		r.dev.SetBlend(gpu.BlendState{})
		r.dev.SetColorMask(false)
		r.rasterDepth(r.forwardCalls, shaders.Depth, shaders.DepthInstanced, r.frame.ViewProj, nil)
		r.dev.SetColorMask(true)
		shading = gpu.DepthState{Test: true, Write: false, Func: gpu.CompareEqual}
	}
	r.dev.SetDepth(shading)

	r.shadeForward(shaders.ForwardInstanced, r.queue.ForwardInstanced)
	r.shadeForward(shaders.Forward, r.queue.Forward)

	r.dev.SetBlend(drawqueue.BlendAlpha.BlendState())
}

func (r *Renderer) shadeForward(name shaders.Name, calls []drawqueue.DrawCall) {
	if len(calls) == 0 {
		return
	}
	p, ok := r.use(name)
	if !ok {
		return
	}
	p.Vec3("uColAmbient", r.env.Ambient.Vec3())
	p.Vec3("uViewPosition", r.frame.Position)
	p.Float("uBloomHdrThreshold", r.env.Bloom.HDRThreshold)
	r.dev.BindTexture(slotForwardDummy2D, gpu.Texture2D, r.defaults.white)
	r.dev.BindTexture(slotForwardDummyCube, gpu.TextureCube, r.defaults.cube)

	lights := make([]*lighting.Light, 0, r.maxLights)
	for i := range calls {
		call := &calls[i]
		r.dev.SetBlend(call.Blend.BlendState())
		r.dev.SetCull(cullFor(call))
		r.bindTransform(p, call, r.frame.ViewProj)
		r.bindMaterial(p, call)

		lights = r.forwardLights(lights[:0], call)
		r.bindForwardLights(p, lights)
		r.drawCall(call)
	}
}

// forwardLights packs up to maxLights lights for call. Instanced calls take
// the first batched lights; scalar calls keep directional lights and the
// lights whose range sphere contains the call position.
func (r *Renderer) forwardLights(dst []*lighting.Light, call *drawqueue.DrawCall) []*lighting.Light {
	pos := call.Position()
	for i := range r.batch {
		if len(dst) == r.maxLights {
			break
		}
		l := r.batch[i].light
		if call.Instanced() || lightReaches(l, pos) {
			dst = append(dst, l)
		}
	}
	return dst
}

func lightReaches(l *lighting.Light, pos mgl32.Vec3) bool {
	if l.Type == lighting.LightDirectional {
		return true
	}
	return pos.Sub(l.Position).LenSqr() <= l.Range*l.Range
}

// bindForwardLights fills the light array in order and disables the
// remaining slots.
func (r *Renderer) bindForwardLights(p boundProgram, lights []*lighting.Light) {
	next := slotForwardShadows
	for i, l := range lights {
		slot2D, slotCube := slotForwardDummy2D, slotForwardDummyCube
		if l.Shadow.Active() {
			if l.Type == lighting.LightOmni {
				slotCube = next
			} else {
				slot2D = next
			}
			next++
		}
		r.bindLight(p, &forwardLightNames[i], l, slot2D, slotCube)
	}
	for i := len(lights); i < len(forwardLightNames); i++ {
		u := &forwardLightNames[i]
		p.Bool(u.enabled, false)
		p.Int(u.shadowMap, slotForwardDummy2D)
		p.Int(u.shadowCubemap, slotForwardDummyCube)
	}
}
