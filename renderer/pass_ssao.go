package renderer

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"r3d/gpu"
	"r3d/shaders"
)

const (
	ssaoKernelSize = 32
	ssaoNoiseSize  = 4
)

// ssaoTextures are the sampling kernel and rotation noise, built once.
type ssaoTextures struct {
	kernel gpu.Texture
	noise  gpu.Texture
}

func (r *Renderer) ensureSSAOTextures() {
	if r.ssaoTex.kernel != 0 && r.ssaoTex.noise != 0 {
		return
	}
	rng := rand.New(rand.NewSource(7))

	kernel := make([]float32, 0, ssaoKernelSize*3)
	for i := 0; i < ssaoKernelSize; i++ {
		s := mgl32.Vec3{rng.Float32()*2 - 1, rng.Float32()*2 - 1, rng.Float32()}
		s = s.Normalize().Mul(rng.Float32())
		// Bias samples toward the origin.
		scale := float32(i) / ssaoKernelSize
		s = s.Mul(0.1 + 0.9*scale*scale)
		kernel = append(kernel, s[0], s[1], s[2])
	}
	noise := make([]float32, 0, ssaoNoiseSize*ssaoNoiseSize*3)
	for i := 0; i < ssaoNoiseSize*ssaoNoiseSize; i++ {
		noise = append(noise, rng.Float32(), rng.Float32(), 0)
	}

	var err error
	if r.ssaoTex.kernel == 0 {
		r.ssaoTex.kernel, err = r.dev.CreateTexture(gpu.TextureDesc{
			Target: gpu.Texture1D,
			Format: gpu.FormatRGB16F,
			Width:  ssaoKernelSize,
			Height: 1,
			Filter: gpu.FilterNearest,
			Wrap:   gpu.WrapClampToEdge,
			Floats: kernel,
		})
		if err != nil {
			r.log.Warn("ssao kernel allocation failed", "err", err)
		}
	}
	if r.ssaoTex.noise == 0 {
		r.ssaoTex.noise, err = r.dev.CreateTexture(gpu.TextureDesc{
			Target: gpu.Texture2D,
			Format: gpu.FormatRGB16F,
			Width:  ssaoNoiseSize,
			Height: ssaoNoiseSize,
			Filter: gpu.FilterNearest,
			Wrap:   gpu.WrapRepeat,
			Floats: noise,
		})
		if err != nil {
			r.log.Warn("ssao noise allocation failed", "err", err)
		}
	}
}

func (r *Renderer) freeSSAOTextures() {
	for _, tex := range []gpu.Texture{r.ssaoTex.kernel, r.ssaoTex.noise} {
		if tex != 0 {
			r.dev.DeleteTexture(tex)
		}
	}
	r.ssaoTex = ssaoTextures{}
}

func (r *Renderer) ssaoWanted() bool {
	return r.env.SSAO.Enabled && r.queue.HasDeferred() && r.targets.ssao.allocated()
}

// screenState prepares the device for a full-screen pass without depth,
// stencil, culling or blending.
func (r *Renderer) screenState() {
	r.dev.SetDepth(gpu.DepthState{})
	r.dev.SetStencil(gpu.StencilState{})
	r.dev.SetCull(gpu.CullState{})
	r.dev.SetBlend(gpu.BlendState{})
}

// ssaoPass renders half-resolution occlusion from the G-buffer and blurs
// it. The result is left in r.targets.ssao.read().
func (r *Renderer) ssaoPass() {
	pp := &r.targets.ssao
	p, ok := r.use(shaders.SSAO)
	if !ok {
		return
	}
	r.screenState()
	r.viewport(pp.write(), pp.width, pp.height)

	gb := &r.targets.gbuf
	p.Texture("uTexDepth", 0, gpu.Texture2D, gb.depth)
	p.Texture("uTexNormal", 1, gpu.Texture2D, gb.normal)
	p.Texture("uTexKernel", 2, gpu.Texture1D, r.ssaoTex.kernel)
	p.Texture("uTexNoise", 3, gpu.Texture2D, r.ssaoTex.noise)
	p.Mat4("uMatInvProj", r.frame.InvProj)
	p.Mat4("uMatProj", r.frame.Proj)
	p.Mat4("uMatView", r.frame.View)
	p.Float("uRadius", r.env.SSAO.Radius)
	p.Float("uBias", r.env.SSAO.Bias)
	r.dev.DrawScreenQuad()
	pp.flip()

	r.blur(pp, pp.read(), r.env.SSAO.Iterations)
	r.ssaoDone = true
}

// blur runs iterations pairs of separable Gaussian passes over pp, the
// first one sampling source.
func (r *Renderer) blur(pp *pingPong, source gpu.Texture, iterations int) {
	p, ok := r.use(shaders.Blur)
	if !ok {
		return
	}
	r.dev.Viewport(0, 0, pp.width, pp.height)
	for i := 0; i < 2*max(iterations, 1); i++ {
		dir := mgl32.Vec2{1, 0}
		if i%2 == 1 {
			dir = mgl32.Vec2{0, 1}
		}
		r.dev.BindFramebuffer(pp.write())
		p.Texture("uTexture", 0, gpu.Texture2D, source)
		p.Vec2("uDirection", dir)
		r.dev.DrawScreenQuad()
		pp.flip()
		source = pp.read()
	}
}

// occlusion returns the blurred SSAO texture of this frame, or white.
func (r *Renderer) occlusion() gpu.Texture {
	if r.ssaoDone {
		return r.targets.ssao.read()
	}
	return r.defaults.white
}
