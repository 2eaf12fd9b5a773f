// Package renderer drives a frame: Begin opens it, the Draw* calls queue
// work, and End sorts the queues, culls the lights, renders every pass and
// blits the result to the screen or to a caller-supplied target.
package renderer

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"r3d/config"
	"r3d/core"
	"r3d/drawqueue"
	"r3d/gpu"
	"r3d/lighting"
	rmath "r3d/math"
	"r3d/scene"
	"r3d/shaders"
)

// RenderTarget is a framebuffer owned by the caller that receives the final
// blit instead of the screen.
type RenderTarget struct {
	Framebuffer gpu.Framebuffer
	Width       int
	Height      int
}

// Option customises Init.
type Option func(*Renderer)

// WithLogger routes renderer logs to l instead of the process logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) { r.log = l }
}

// WithClock supplies the frame time used by the shadow scheduler. Without
// it the renderer measures wall time at every Begin.
func WithClock(c core.Clock) Option {
	return func(r *Renderer) { r.clock = c }
}

// FrameStats summarises the last completed frame.
type FrameStats struct {
	Passes        []string
	DeferredCalls int
	ForwardCalls  int
	Lights        int
	ShadowMaps    int
}

type defaultTextures struct {
	white  gpu.Texture
	black  gpu.Texture
	normal gpu.Texture
	cube   gpu.Texture
	brdf   gpu.Texture
}

// Renderer owns every device resource it allocates. It must only be used
// from the thread owning the graphics context.
type Renderer struct {
	id    uuid.UUID
	dev   gpu.Device
	log   *log.Logger
	cfg   config.Config
	clock core.Clock
	wall  *core.WallClock

	lib      *shaders.Library
	watcher  *shaders.Watcher
	uniforms map[gpu.Program]map[string]any
	broken   map[shaders.Name]bool

	lights *lighting.Registry
	queue  *drawqueue.Queue
	state  drawqueue.State
	flags  Flags

	width       int
	height      int
	target      *RenderTarget
	sceneBounds rmath.AABB
	maxLights   int

	env      Environment
	targets  *targets
	defaults defaultTextures
	quad     *scene.Mesh
	ssaoTex  ssaoTextures

	// defMaterial is used by draws submitted without a material.
	defMaterial *scene.Material

	active   bool
	frame    FrameContext
	batch    []lightBatchEntry
	ssaoDone bool
	stats    FrameStats
}

// Init creates a renderer drawing at width x height through dev. flags are
// combined with the flags named in cfg.Render.Flags.
func Init(dev gpu.Device, width, height int, flags Flags, cfg config.Config, opts ...Option) (*Renderer, error) {
	if dev == nil {
		return nil, errors.New("renderer: nil device")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("renderer init %dx%d: %w", width, height, ErrInvalidResolution)
	}

	r := &Renderer{
		id:          uuid.New(),
		dev:         dev,
		cfg:         cfg,
		uniforms:    make(map[gpu.Program]map[string]any),
		broken:      make(map[shaders.Name]bool),
		state:       drawqueue.DefaultState(),
		defMaterial: scene.DefaultMaterial(),
		width:       width,
		height:      height,
		sceneBounds: rmath.AABB{Min: cfg.Render.SceneMin, Max: cfg.Render.SceneMax},
		maxLights:   cfg.Render.ForwardMaxLights,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = core.Logger().With("renderer", r.id.String()[:8])
	}
	if r.clock == nil {
		r.wall = core.NewWallClock()
		r.clock = r.wall
	}
	if r.maxLights <= 0 || r.maxLights > shaders.ForwardMaxLights {
		r.maxLights = shaders.ForwardMaxLights
	}
	if !validBounds(r.sceneBounds) {
		d := config.Default().Render
		r.sceneBounds = rmath.AABB{Min: d.SceneMin, Max: d.SceneMax}
	}

	cfgFlags, err := ParseFlags(cfg.Render.Flags)
	if err != nil {
		r.log.Warn("ignoring render flags", "err", err)
	}
	r.flags = flags | cfgFlags

	r.env = environmentFromConfig(cfg, r.log)

	r.lib = shaders.NewLibrary(dev, cfg.Shaders.OverrideDir, r.log)
	if cfg.Shaders.HotReload && cfg.Shaders.OverrideDir != "" {
		if r.watcher, err = shaders.Watch(cfg.Shaders.OverrideDir, r.log); err != nil {
			r.log.Warn("shader hot reload disabled", "dir", cfg.Shaders.OverrideDir, "err", err)
		}
	}

	r.lights = lighting.NewRegistry(dev, cfg.Shadows, cfg.Render.LightCapacity, r.log)
	r.queue = drawqueue.New(drawqueue.Capacities{
		Deferred:  cfg.Render.DeferredCapacity,
		Forward:   cfg.Render.ForwardCapacity,
		Instanced: cfg.Render.InstancedCapacity,
	}, r.log)
	r.batch = make([]lightBatchEntry, 0, max(cfg.Render.LightCapacity, 1))

	r.createDefaults()
	r.preloadPrograms()
	r.targets = newTargets(dev, r.log, width, height)
	if r.env.SSAO.Enabled {
		r.ensureSSAO()
	}
	if r.env.Bloom.Mode != BloomDisabled {
		r.ensureBloom()
	}

	r.log.Info("renderer initialized", "width", width, "height", height, "flags", r.flags)
	return r, nil
}

// ID identifies the renderer instance in logs.
func (r *Renderer) ID() uuid.UUID { return r.id }

// Lights exposes the light registry.
func (r *Renderer) Lights() *lighting.Registry { return r.lights }

// Stats returns a summary of the last frame rendered by End.
func (r *Renderer) Stats() FrameStats { return r.stats }

// Close frees every device resource owned by the renderer. The caller's
// render target and skybox cubemaps are left alone.
func (r *Renderer) Close() error {
	var err error
	if r.watcher != nil {
		err = r.watcher.Close()
		r.watcher = nil
	}
	r.lights.Close()
	r.targets.free()
	r.freeSSAOTextures()
	for _, tex := range []gpu.Texture{r.defaults.white, r.defaults.black, r.defaults.normal, r.defaults.cube, r.defaults.brdf} {
		if tex != 0 {
			r.dev.DeleteTexture(tex)
		}
	}
	r.defaults = defaultTextures{}
	if r.quad != nil {
		r.quad.Unload(r.dev)
		r.quad = nil
	}
	r.lib.Close()
	clear(r.uniforms)
	r.log.Info("renderer closed")
	return err
}

// ── Default resources ───────────────────────────────────────────────────────

func (r *Renderer) solid(name string, format gpu.Format, texel ...byte) gpu.Texture {
	tex, err := r.dev.CreateTexture(gpu.TextureDesc{
		Target: gpu.Texture2D,
		Format: format,
		Width:  1,
		Height: 1,
		Filter: gpu.FilterNearest,
		Wrap:   gpu.WrapRepeat,
		Data:   texel,
	})
	if err != nil {
		r.log.Warn("default texture allocation failed", "texture", name, "err", err)
	}
	return tex
}

func (r *Renderer) createDefaults() {
	r.defaults.white = r.solid("white", gpu.FormatRGBA8, 255, 255, 255, 255)
	r.defaults.black = r.solid("black", gpu.FormatRGB8, 0, 0, 0)
	r.defaults.normal = r.solid("normal", gpu.FormatRGB8, 128, 128, 255)

	cube := make([]byte, 6*3)
	for i := range cube {
		cube[i] = 255
	}
	var err error
	r.defaults.cube, err = r.dev.CreateTexture(gpu.TextureDesc{
		Target: gpu.TextureCube,
		Format: gpu.FormatRGB8,
		Width:  1,
		Height: 1,
		Filter: gpu.FilterNearest,
		Wrap:   gpu.WrapClampToEdge,
		Data:   cube,
	})
	if err != nil {
		r.log.Warn("default texture allocation failed", "texture", "cube", "err", err)
	}

	r.quad = scene.CreateQuad()
	if err := r.quad.Upload(r.dev); err != nil {
		r.log.Warn("sprite quad upload failed", "err", err)
	}
}

// brdfLutSize is the resolution of the split-sum lookup table.
const brdfLutSize = 32

// ensureBRDFLut builds the split-sum BRDF table used by image-based
// lighting. Texels hold the scale and bias applied to F0, from Karis'
// analytic fit, indexed by N·V (u) and roughness (v).
func (r *Renderer) ensureBRDFLut() {
	if r.defaults.brdf != 0 {
		return
	}
	data := make([]float32, 0, brdfLutSize*brdfLutSize*2)
	for y := 0; y < brdfLutSize; y++ {
		rough := (float64(y) + 0.5) / brdfLutSize
		for x := 0; x < brdfLutSize; x++ {
			nv := (float64(x) + 0.5) / brdfLutSize
			rx := rough*-1 + 1
			ry := rough*-0.0275 + 0.0425
			rz := rough*-0.572 + 1.04
			rw := rough*0.022 - 0.04
			a004 := gomath.Min(rx*rx, gomath.Exp2(-9.28*nv))*rx + ry
			data = append(data, float32(-1.04*a004+rz), float32(1.04*a004+rw))
		}
	}
	tex, err := r.dev.CreateTexture(gpu.TextureDesc{
		Target: gpu.Texture2D,
		Format: gpu.FormatRG16F,
		Width:  brdfLutSize,
		Height: brdfLutSize,
		Filter: gpu.FilterLinear,
		Wrap:   gpu.WrapClampToEdge,
		Floats: data,
	})
	if err != nil {
		r.log.Warn("brdf lut allocation failed", "err", err)
		return
	}
	r.defaults.brdf = tex
}

// preloadPrograms compiles the programs every frame needs so that a broken
// shader is reported at start-up rather than on first use.
func (r *Renderer) preloadPrograms() {
	for _, name := range []shaders.Name{
		shaders.Geometry, shaders.Ambient, shaders.Lighting, shaders.Scene,
		shaders.Skybox, shaders.Forward, shaders.Adjustment,
	} {
		if _, err := r.lib.Load(name); err != nil {
			r.broken[name] = true
			r.log.Warn("shader program unavailable, skipping its pass", "program", name, "err", err)
		}
	}
	if r.flags&FlagFXAA != 0 {
		r.loadFXAA()
	}
}

func (r *Renderer) loadFXAA() {
	if _, err := r.lib.Load(shaders.FXAA); err != nil {
		r.broken[shaders.FXAA] = true
		r.log.Warn("fxaa program unavailable", "err", err)
	}
}

func (r *Renderer) ensureSSAO() {
	r.targets.ensureSSAO()
	r.ensureSSAOTextures()
}

func (r *Renderer) ensureBloom() { r.targets.ensureBloom() }

// ── Flags ───────────────────────────────────────────────────────────────────

func (r *Renderer) HasState(f Flags) bool { return r.flags&f == f }

// SetState raises flags. Raising FXAA compiles its program.
func (r *Renderer) SetState(f Flags) {
	if f&FlagFXAA != 0 && r.flags&FlagFXAA == 0 {
		r.loadFXAA()
	}
	r.flags |= f
}

func (r *Renderer) ClearState(f Flags) { r.flags &^= f }

// ── Resolution & targets ────────────────────────────────────────────────────

// UpdateResolution reallocates every internal target at width x height.
// It is rejected while a frame is open and ignores non-positive sizes.
func (r *Renderer) UpdateResolution(width, height int) error {
	if r.active {
		return fmt.Errorf("update resolution: %w", ErrFrameActive)
	}
	if width <= 0 || height <= 0 {
		r.log.Warn("ignoring invalid resolution", "width", width, "height", height)
		return fmt.Errorf("update resolution %dx%d: %w", width, height, ErrInvalidResolution)
	}
	if width == r.width && height == r.height {
		return nil
	}
	r.width, r.height = width, height
	r.targets.resize(width, height)
	r.log.Info("resolution updated", "width", width, "height", height)
	return nil
}

// GetResolution returns the internal rendering resolution.
func (r *Renderer) GetResolution() (width, height int) { return r.width, r.height }

// Targets describes the internal render targets.
func (r *Renderer) Targets() []TargetInfo { return r.targets.infos() }

// SetRenderTarget sends the final blit to t. A nil target restores the
// default framebuffer. The renderer never frees t.
func (r *Renderer) SetRenderTarget(t *RenderTarget) {
	if t != nil && (t.Width <= 0 || t.Height <= 0) {
		r.log.Warn("ignoring render target with invalid size", "width", t.Width, "height", t.Height)
		return
	}
	r.target = t
}

// SetSceneBounds sets the world-space box that directional shadow maps are
// fitted to. Boxes with an empty or inverted axis are ignored.
func (r *Renderer) SetSceneBounds(bounds rmath.AABB) {
	if !validBounds(bounds) {
		r.log.Warn("ignoring invalid scene bounds", "min", bounds.Min, "max", bounds.Max)
		return
	}
	r.sceneBounds = bounds
}

func (r *Renderer) SceneBounds() rmath.AABB { return r.sceneBounds }

func validBounds(b rmath.AABB) bool {
	return b.Max[0] > b.Min[0] && b.Max[1] > b.Min[1] && b.Max[2] > b.Min[2]
}

// ── Submission state ────────────────────────────────────────────────────────

func (r *Renderer) ApplyRenderMode(m drawqueue.RenderMode)         { r.state.Mode = m }
func (r *Renderer) ApplyBlendMode(m drawqueue.BlendMode)           { r.state.Blend = m }
func (r *Renderer) ApplyShadowCastMode(m drawqueue.ShadowCastMode) { r.state.ShadowCast = m }
func (r *Renderer) ApplyBillboardMode(m drawqueue.BillboardMode)   { r.state.Billboard = m }
func (r *Renderer) ApplyAlphaScissorThreshold(t float32)           { r.state.AlphaScissor = t }

// SubmissionState returns the state applied to subsequent draws.
func (r *Renderer) SubmissionState() drawqueue.State { return r.state }
