package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"r3d/gpu"
	"r3d/lighting"
	"r3d/shaders"
)

// lightUniformNames holds the uniform names of one GLSL Light value.
type lightUniformNames struct {
	matVP, shadowMap, shadowCubemap               string
	color, position, direction                    string
	specular, energy, rng, near, far, attenuation string
	innerCutOff, outerCutOff                      string
	shadowSoftness, shadowMapTxlSz, shadowBias    string
	lightType, enabled, shadow                    string
}

func newLightUniformNames(prefix string) lightUniformNames {
	u := func(field string) string { return shaders.LightUniform(prefix, field) }
	return lightUniformNames{
		matVP: u("matVP"), shadowMap: u("shadowMap"), shadowCubemap: u("shadowCubemap"),
		color: u("color"), position: u("position"), direction: u("direction"),
		specular: u("specular"), energy: u("energy"), rng: u("range"),
		near: u("near"), far: u("far"), attenuation: u("attenuation"),
		innerCutOff: u("innerCutOff"), outerCutOff: u("outerCutOff"),
		shadowSoftness: u("shadowSoftness"), shadowMapTxlSz: u("shadowMapTxlSz"), shadowBias: u("shadowBias"),
		lightType: u("type"), enabled: u("enabled"), shadow: u("shadow"),
	}
}

var (
	lightingLightNames = newLightUniformNames("uLight")
	forwardLightNames  = func() (out [shaders.ForwardMaxLights]lightUniformNames) {
		for i := range out {
			out[i] = newLightUniformNames(fmt.Sprintf("uLights[%d]", i))
		}
		return out
	}()
)

// bindLight uploads l into the Light uniform named by u. Its shadow map is
// bound at slot2D or slotCube; the other sampler gets a dummy texture so
// that no sampler type ever aliases a unit.
func (r *Renderer) bindLight(p boundProgram, u *lightUniformNames, l *lighting.Light, slot2D, slotCube int) {
	shadow := l.Shadow.Active()
	sm := &l.Shadow.Map

	depth, cube := r.defaults.white, r.defaults.cube
	far := l.Shadow.Far
	if shadow {
		if l.Type == lighting.LightOmni {
			cube = sm.Distance
			far = l.ShadowFar()
		} else {
			depth = sm.Depth
		}
	}
	p.Texture(u.shadowMap, slot2D, gpu.Texture2D, depth)
	p.Texture(u.shadowCubemap, slotCube, gpu.TextureCube, cube)

	p.Mat4(u.matVP, l.Shadow.ViewProj)
	p.Vec3(u.color, l.Color)
	p.Vec3(u.position, l.Position)
	p.Vec3(u.direction, l.Direction)
	p.Float(u.specular, l.Specular)
	p.Float(u.energy, l.Energy)
	p.Float(u.rng, l.Range)
	p.Float(u.near, l.Shadow.Near)
	p.Float(u.far, far)
	p.Float(u.attenuation, l.Attenuation)
	p.Float(u.innerCutOff, l.InnerCutOff)
	p.Float(u.outerCutOff, l.OuterCutOff)
	p.Float(u.shadowSoftness, l.Shadow.Softness)
	p.Float(u.shadowMapTxlSz, sm.TexelSize())
	p.Float(u.shadowBias, l.Shadow.Bias)
	p.Int(u.lightType, int32(l.Type))
	p.Bool(u.enabled, true)
	p.Bool(u.shadow, shadow)
}

// bindGBuffer binds the G-buffer samplers at slots 0 to 3.
func (r *Renderer) bindGBuffer(p boundProgram) {
	gb := &r.targets.gbuf
	p.Texture("uTexAlbedo", 0, gpu.Texture2D, gb.albedo)
	p.Texture("uTexNormal", 1, gpu.Texture2D, gb.normal)
	p.Texture("uTexDepth", 2, gpu.Texture2D, gb.depth)
	p.Texture("uTexORM", 3, gpu.Texture2D, gb.orm)
}

// stencilEqual restricts rasterization to pixels whose stencil is ref.
func stencilEqual(ref int32) gpu.StencilState {
	return gpu.StencilState{
		Enabled:   true,
		Func:      gpu.CompareEqual,
		Ref:       ref,
		ReadMask:  0xFF,
		Fail:      gpu.StencilKeep,
		DepthFail: gpu.StencilKeep,
		Pass:      gpu.StencilKeep,
	}
}

// screenStencil applies the geometry stencil test to a screen-space
// lighting pass when the flag asks for it.
func (r *Renderer) screenStencil() {
	if r.flags&FlagStencilTest != 0 {
		r.dev.SetStencil(stencilEqual(1))
	}
}

func (r *Renderer) iblReady() bool {
	sky := r.env.Skybox
	return sky != nil && sky.Irradiance != 0 && sky.Prefilter != 0
}

// ambientPass writes the ambient term into the lit target: flat ambient
// color, or skybox irradiance and prefiltered reflections.
func (r *Renderer) ambientPass() {
	t := r.targets
	if t.lit.fb == 0 {
		return
	}
	name := shaders.Ambient
	if r.iblReady() {
		name = shaders.AmbientIBL
	}
	p, ok := r.use(name)
	if !ok {
		return
	}
	r.screenState()
	r.screenStencil()
	r.viewport(t.lit.fb, t.width, t.height)

	r.bindGBuffer(p)
	p.Texture("uTexSSAO", 4, gpu.Texture2D, r.occlusion())
	p.Vec3("uColAmbient", r.env.Ambient.Vec3())

	if name == shaders.AmbientIBL {
		sky := r.env.Skybox
		brdf := r.defaults.brdf
		if brdf == 0 {
			brdf = r.defaults.white
		}
		p.Texture("uCubeIrradiance", 5, gpu.TextureCube, sky.Irradiance)
		p.Texture("uCubePrefilter", 6, gpu.TextureCube, sky.Prefilter)
		p.Texture("uTexBrdfLut", 7, gpu.Texture2D, brdf)
		p.Mat4("uMatSkyRotation", r.env.SkyRotation)
		p.Mat4("uMatInvProj", r.frame.InvProj)
		p.Mat4("uMatInvView", r.frame.InvView)
		p.Vec3("uViewPosition", r.frame.Position)
		p.Float("uPrefilterMaxLod", float32(max(sky.PrefilterLevels-1, 0)))
	}
	r.dev.DrawScreenQuad()
}

// lightingPass accumulates one additive full-screen pass per batched light,
// scissored to the light's screen rectangle.
func (r *Renderer) lightingPass() {
	t := r.targets
	if t.lit.fb == 0 {
		return
	}
	p, ok := r.use(shaders.Lighting)
	if !ok {
		return
	}
	r.screenState()
	r.screenStencil()
	r.viewport(t.lit.fb, t.width, t.height)
	r.dev.SetBlend(gpu.BlendState{Enabled: true, Src: gpu.BlendOne, Dst: gpu.BlendOne})

	r.bindGBuffer(p)
	p.Mat4("uMatInvProj", r.frame.InvProj)
	p.Mat4("uMatInvView", r.frame.InvView)
	p.Vec3("uViewPosition", r.frame.Position)

	for i := range r.batch {
		e := &r.batch[i]
		r.dev.SetScissor(true, scissorRegion(e.rect))
		r.bindLight(p, &lightingLightNames, e.light, 4, 5)
		r.dev.DrawScreenQuad()
	}
	r.dev.SetScissor(false, gpu.Region{})
	r.dev.SetBlend(gpu.BlendState{})
}

// compositePass combines albedo, emission and the lit buffers into the
// scene target and extracts the bloom brightness.
func (r *Renderer) compositePass() {
	t := r.targets
	if t.scene.fb == 0 {
		return
	}
	p, ok := r.use(shaders.Scene)
	if !ok {
		return
	}
	r.screenState()
	r.dev.SetStencil(stencilEqual(1))
	r.viewport(t.scene.fb, t.width, t.height)

	p.Texture("uTexAlbedo", 0, gpu.Texture2D, t.gbuf.albedo)
	p.Texture("uTexEmission", 1, gpu.Texture2D, t.gbuf.emission)
	p.Texture("uTexDiffuse", 2, gpu.Texture2D, t.lit.tex[0])
	p.Texture("uTexSpecular", 3, gpu.Texture2D, t.lit.tex[1])
	p.Float("uBloomHdrThreshold", r.env.Bloom.HDRThreshold)
	r.dev.DrawScreenQuad()
	r.dev.SetStencil(gpu.StencilState{})
}

// backgroundPass fills the pixels no deferred geometry covered with the
// skybox or the background color.
func (r *Renderer) backgroundPass() {
	t := r.targets
	if t.scene.fb == 0 {
		return
	}
	r.screenState()
	r.dev.SetStencil(stencilEqual(0))
	r.viewport(t.scene.fb, t.width, t.height)
	defer r.dev.SetStencil(gpu.StencilState{})

	if sky := r.env.Skybox; sky != nil && sky.Cubemap != 0 {
		if p, ok := r.use(shaders.Skybox); ok {
			p.Mat4("uMatProj", r.frame.Proj)
			p.Mat4("uMatView", r.frame.View)
			p.Mat4("uMatSkyRotation", r.env.SkyRotation)
			p.Texture("uCubeSky", 0, gpu.TextureCube, sky.Cubemap)
			p.Float("uSkyHdrThreshold", r.env.Bloom.SkyThreshold)
			r.dev.DrawCube()
			return
		}
	}
	if p, ok := r.use(shaders.Color); ok {
		bg := r.env.Background
		p.Vec4("uColor", mgl32.Vec4{bg.R, bg.G, bg.B, 0})
		r.dev.DrawScreenQuad()
	}
}
