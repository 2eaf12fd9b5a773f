package renderer

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"r3d/gpu"
)

// TargetInfo describes one internal render target for diagnostics.
type TargetInfo struct {
	Name      string
	Label     string
	Width     int
	Height    int
	Allocated bool
}

// pingPong is a pair of single-texture framebuffers. Each stage samples
// read(), renders into write() and then flips.
type pingPong struct {
	fbs      [2]gpu.Framebuffer
	textures [2]gpu.Texture
	target   int
	width    int
	height   int
}

func (p *pingPong) read() gpu.Texture       { return p.textures[p.target^1] }
func (p *pingPong) readFB() gpu.Framebuffer { return p.fbs[p.target^1] }
func (p *pingPong) write() gpu.Framebuffer  { return p.fbs[p.target] }
func (p *pingPong) flip()                   { p.target ^= 1 }
func (p *pingPong) allocated() bool         { return p.fbs[0] != 0 && p.fbs[1] != 0 }
func (p *pingPong) texelSize() mgl32.Vec2   { return mgl32.Vec2{1 / float32(p.width), 1 / float32(p.height)} }

func newPingPong(dev gpu.Device, w, h int, format gpu.Format) (pingPong, error) {
	p := pingPong{width: w, height: h}
	for i := range p.fbs {
		fb, tex, err := buildTarget(dev, w, h, []gpu.Format{format}, gpu.FilterLinear, 0)
		if err != nil {
			p.destroy(dev)
			return pingPong{}, err
		}
		p.fbs[i], p.textures[i] = fb, tex[0]
	}
	return p, nil
}

func (p *pingPong) destroy(dev gpu.Device) {
	for i := range p.fbs {
		if p.fbs[i] != 0 {
			dev.DeleteFramebuffer(p.fbs[i])
		}
		if p.textures[i] != 0 {
			dev.DeleteTexture(p.textures[i])
		}
	}
	*p = pingPong{}
}

// buildTarget creates a framebuffer with one texture per color format,
// attaching depth as its depth-stencil buffer when non-zero.
func buildTarget(dev gpu.Device, w, h int, colors []gpu.Format, filter gpu.Filter, depth gpu.Texture) (gpu.Framebuffer, []gpu.Texture, error) {
	fb, err := dev.CreateFramebuffer()
	if err != nil {
		return 0, nil, err
	}
	textures := make([]gpu.Texture, 0, len(colors))
	fail := func(err error) (gpu.Framebuffer, []gpu.Texture, error) {
		for _, t := range textures {
			dev.DeleteTexture(t)
		}
		dev.DeleteFramebuffer(fb)
		return 0, nil, err
	}
	for i, f := range colors {
		tex, err := dev.CreateTexture(gpu.TextureDesc{
			Target: gpu.Texture2D,
			Format: f,
			Width:  w,
			Height: h,
			Filter: filter,
			Wrap:   gpu.WrapClampToEdge,
		})
		if err != nil {
			return fail(fmt.Errorf("color attachment %d: %w", i, err))
		}
		textures = append(textures, tex)
		dev.AttachTexture(fb, gpu.ColorAttachment(i), tex, gpu.NoFace)
	}
	if depth != 0 {
		dev.AttachTexture(fb, gpu.AttachDepthStencil, depth, gpu.NoFace)
	}
	dev.DrawBuffers(fb, len(colors))
	if err := dev.CheckFramebuffer(fb); err != nil {
		return fail(err)
	}
	return fb, textures, nil
}

// gbuffer holds the geometry pass outputs. The depth-stencil texture is
// shared by the lit and scene targets.
type gbuffer struct {
	fb       gpu.Framebuffer
	albedo   gpu.Texture
	emission gpu.Texture
	normal   gpu.Texture
	orm      gpu.Texture
	depth    gpu.Texture
}

// mrt is a framebuffer with two color outputs.
type mrt struct {
	fb  gpu.Framebuffer
	tex [2]gpu.Texture
}

func (m *mrt) destroy(dev gpu.Device) {
	if m.fb != 0 {
		dev.DeleteFramebuffer(m.fb)
	}
	for _, t := range m.tex {
		if t != 0 {
			dev.DeleteTexture(t)
		}
	}
	*m = mrt{}
}

// targets owns every resolution-dependent framebuffer.
type targets struct {
	dev    gpu.Device
	log    *log.Logger
	width  int
	height int

	gbuf  gbuffer
	lit   mrt // diffuse, specular
	scene mrt // color, brightness
	post  pingPong
	ssao  pingPong
	bloom pingPong

	wantSSAO  bool
	wantBloom bool
	labels    map[string]string
}

func newTargets(dev gpu.Device, logger *log.Logger, w, h int) *targets {
	t := &targets{dev: dev, log: logger, labels: make(map[string]string)}
	t.alloc(w, h)
	return t
}

func (t *targets) warn(name string, err error) {
	t.log.Warn("render target allocation failed", "target", name, "width", t.width, "height", t.height, "err", err)
}

func (t *targets) labelled(name string) {
	t.labels[name] = uuid.NewString()
	t.log.Debug("render target allocated", "target", name, "label", t.labels[name], "width", t.width, "height", t.height)
}

func halfSize(v int) int { return max(v/2, 1) }

func (t *targets) alloc(w, h int) {
	t.width, t.height = w, h
	t.allocGBuffer()

	var err error
	t.lit.fb, t.lit.tex, err = buildMRT(t.dev, w, h, gpu.FormatRGB16F, gpu.FormatRGB16F, t.gbuf.depth)
	if err != nil {
		t.warn("lit", err)
	} else {
		t.labelled("lit")
	}
	t.scene.fb, t.scene.tex, err = buildMRT(t.dev, w, h, gpu.FormatRGBA16F, gpu.FormatRGB16F, t.gbuf.depth)
	if err != nil {
		t.warn("scene", err)
	} else {
		t.labelled("scene")
	}
	if t.post, err = newPingPong(t.dev, w, h, gpu.FormatRGBA16F); err != nil {
		t.warn("post", err)
	} else {
		t.labelled("post")
	}
	if t.wantSSAO {
		t.allocSSAO()
	}
	if t.wantBloom {
		t.allocBloom()
	}
}

func buildMRT(dev gpu.Device, w, h int, f0, f1 gpu.Format, depth gpu.Texture) (gpu.Framebuffer, [2]gpu.Texture, error) {
	fb, tex, err := buildTarget(dev, w, h, []gpu.Format{f0, f1}, gpu.FilterNearest, depth)
	if err != nil {
		return 0, [2]gpu.Texture{}, err
	}
	return fb, [2]gpu.Texture{tex[0], tex[1]}, nil
}

func (t *targets) allocGBuffer() {
	depth, err := t.dev.CreateTexture(gpu.TextureDesc{
		Target: gpu.Texture2D,
		Format: gpu.FormatDepth24Stencil8,
		Width:  t.width,
		Height: t.height,
		Filter: gpu.FilterNearest,
		Wrap:   gpu.WrapClampToEdge,
	})
	if err != nil {
		t.warn("gbuffer", fmt.Errorf("depth stencil: %w", err))
		return
	}
	fb, tex, err := buildTarget(t.dev, t.width, t.height, []gpu.Format{
		gpu.FormatRGB8,   // albedo
		gpu.FormatRGB16F, // emission
		gpu.FormatRG16F,  // octahedral normal
		gpu.FormatRGB8,   // occlusion, roughness, metalness
	}, gpu.FilterNearest, depth)
	if err != nil {
		t.dev.DeleteTexture(depth)
		t.warn("gbuffer", err)
		return
	}
	t.gbuf = gbuffer{fb: fb, albedo: tex[0], emission: tex[1], normal: tex[2], orm: tex[3], depth: depth}
	t.labelled("gbuffer")
}

func (t *targets) allocSSAO() {
	var err error
	if t.ssao, err = newPingPong(t.dev, halfSize(t.width), halfSize(t.height), gpu.FormatR8); err != nil {
		t.warn("ssao", err)
		return
	}
	t.labelled("ssao")
}

func (t *targets) allocBloom() {
	var err error
	if t.bloom, err = newPingPong(t.dev, halfSize(t.width), halfSize(t.height), gpu.FormatRGB16F); err != nil {
		t.warn("bloom", err)
		return
	}
	t.labelled("bloom")
}

// ensureSSAO allocates the occlusion targets the first time they are needed.
func (t *targets) ensureSSAO() {
	t.wantSSAO = true
	if !t.ssao.allocated() {
		t.allocSSAO()
	}
}

// ensureBloom allocates the bloom targets the first time they are needed.
func (t *targets) ensureBloom() {
	t.wantBloom = true
	if !t.bloom.allocated() {
		t.allocBloom()
	}
}

func (t *targets) free() {
	if t.gbuf.fb != 0 {
		t.dev.DeleteFramebuffer(t.gbuf.fb)
	}
	for _, tex := range []gpu.Texture{t.gbuf.albedo, t.gbuf.emission, t.gbuf.normal, t.gbuf.orm, t.gbuf.depth} {
		if tex != 0 {
			t.dev.DeleteTexture(tex)
		}
	}
	t.gbuf = gbuffer{}
	t.lit.destroy(t.dev)
	t.scene.destroy(t.dev)
	t.post.destroy(t.dev)
	t.ssao.destroy(t.dev)
	t.bloom.destroy(t.dev)
	clear(t.labels)
}

// resize reallocates every target at the new size. Lazily created targets
// come back only if they had been requested.
func (t *targets) resize(w, h int) {
	t.free()
	t.alloc(w, h)
}

func (t *targets) infos() []TargetInfo {
	full := func(name string, ok bool) TargetInfo {
		return TargetInfo{Name: name, Label: t.labels[name], Width: t.width, Height: t.height, Allocated: ok}
	}
	half := func(name string, p *pingPong) TargetInfo {
		return TargetInfo{Name: name, Label: t.labels[name], Width: p.width, Height: p.height, Allocated: p.allocated()}
	}
	return []TargetInfo{
		full("gbuffer", t.gbuf.fb != 0),
		full("lit", t.lit.fb != 0),
		full("scene", t.scene.fb != 0),
		full("post", t.post.allocated()),
		half("ssao", &t.ssao),
		half("bloom", &t.bloom),
	}
}
