package renderer

import (
	"r3d/gpu"
	"r3d/shaders"
)

// postPass copies the scene color into the post ping-pong and runs the
// enabled effects over it. The result is left in r.targets.post.read().
func (r *Renderer) postPass() {
	t := r.targets
	if !t.post.allocated() || t.scene.fb == 0 {
		return
	}
	full := gpu.Region{Width: t.width, Height: t.height}
	r.dev.Blit(gpu.BlitDesc{
		Src:           t.scene.fb,
		SrcAttachment: gpu.AttachColor0,
		Dst:           t.post.write(),
		SrcRect:       full,
		DstRect:       full,
		Mask:          gpu.ColorBuffer,
		Filter:        gpu.FilterNearest,
	})
	t.post.flip()
	r.screenState()

	if r.env.Bloom.Mode != BloomDisabled && t.bloom.allocated() {
		r.blur(&t.bloom, t.scene.tex[1], r.env.Bloom.Iterations)
		r.postStage(shaders.Bloom, func(p boundProgram, src gpu.Texture) {
			p.Texture("uTexColor", 0, gpu.Texture2D, src)
			p.Texture("uTexBloomBlur", 1, gpu.Texture2D, t.bloom.read())
			p.Int("uBloomMode", int32(r.env.Bloom.Mode))
			p.Float("uBloomIntensity", r.env.Bloom.Intensity)
		})
	}

	if fog := r.env.Fog; fog.Mode != FogDisabled {
		r.postStage(shaders.Fog, func(p boundProgram, src gpu.Texture) {
			p.Texture("uTexColor", 0, gpu.Texture2D, src)
			p.Texture("uTexDepth", 1, gpu.Texture2D, t.gbuf.depth)
			p.Float("uNear", r.frame.Near)
			p.Float("uFar", r.frame.Far)
			p.Int("uFogMode", int32(fog.Mode))
			p.Vec3("uFogColor", fog.Color.Vec3())
			p.Float("uFogStart", fog.Start)
			p.Float("uFogEnd", fog.End)
			p.Float("uFogDensity", fog.Density)
		})
	}

	if tm := r.env.Tonemap; tm.Mode != TonemapLinear || tm.Exposure != 1 {
		r.postStage(shaders.Tonemap, func(p boundProgram, src gpu.Texture) {
			p.Texture("uTexColor", 0, gpu.Texture2D, src)
			p.Int("uTonemapMode", int32(tm.Mode))
			p.Float("uTonemapExposure", tm.Exposure)
			p.Float("uTonemapWhite", tm.White)
		})
	}

	r.postStage(shaders.Adjustment, func(p boundProgram, src gpu.Texture) {
		p.Texture("uTexColor", 0, gpu.Texture2D, src)
		p.Float("uBrightness", r.env.Adjust.Brightness)
		p.Float("uContrast", r.env.Adjust.Contrast)
		p.Float("uSaturation", r.env.Adjust.Saturation)
	})

	if r.flags&FlagFXAA != 0 {
		r.postStage(shaders.FXAA, func(p boundProgram, src gpu.Texture) {
			p.Texture("uTexture", 0, gpu.Texture2D, src)
			p.Vec2("uTexelSize", t.post.texelSize())
		})
	}
}

// postStage renders one full-screen effect from post.read() into
// post.write() and flips. A stage whose program is unavailable is skipped
// and the image passes through unchanged.
func (r *Renderer) postStage(name shaders.Name, setup func(p boundProgram, src gpu.Texture)) {
	p, ok := r.use(name)
	if !ok {
		return
	}
	post := &r.targets.post
	r.viewport(post.write(), post.width, post.height)
	setup(p, post.read())
	r.dev.DrawScreenQuad()
	post.flip()
}
