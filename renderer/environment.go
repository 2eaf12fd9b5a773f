package renderer

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"

	"r3d/config"
	"r3d/core"
	"r3d/gpu"
)

type BloomMode int

const (
	BloomDisabled BloomMode = iota
	BloomAdditive
	BloomSoftLight
)

var bloomModeNames = []string{
	BloomDisabled:  "disabled",
	BloomAdditive:  "additive",
	BloomSoftLight: "soft_light",
}

func (m BloomMode) String() string { return modeName(bloomModeNames, m) }

type FogMode int

const (
	FogDisabled FogMode = iota
	FogLinear
	FogExp2
	FogExp
)

var fogModeNames = []string{
	FogDisabled: "disabled",
	FogLinear:   "linear",
	FogExp2:     "exp2",
	FogExp:      "exp",
}

func (m FogMode) String() string { return modeName(fogModeNames, m) }

type TonemapMode int

const (
	TonemapLinear TonemapMode = iota
	TonemapReinhard
	TonemapFilmic
	TonemapACES
)

var tonemapModeNames = []string{
	TonemapLinear:   "linear",
	TonemapReinhard: "reinhard",
	TonemapFilmic:   "filmic",
	TonemapACES:     "aces",
}

func (m TonemapMode) String() string { return modeName(tonemapModeNames, m) }

func modeName[T ~int](names []string, m T) string {
	if m >= 0 && int(m) < len(names) {
		return names[m]
	}
	return "unknown"
}

func parseMode[T ~int](names []string, s string) (T, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return T(i), true
		}
	}
	return 0, false
}

// Skybox references caller-owned cubemaps: the radiance cubemap drawn as
// background plus its diffuse irradiance and specular prefilter
// convolutions used for image-based ambient lighting.
type Skybox struct {
	Cubemap    gpu.Texture
	Irradiance gpu.Texture
	Prefilter  gpu.Texture
	// PrefilterLevels is the number of roughness mip levels of Prefilter.
	PrefilterLevels int
}

type SSAOSettings struct {
	Enabled    bool
	Radius     float32
	Bias       float32
	Iterations int
}

type BloomSettings struct {
	Mode         BloomMode
	Intensity    float32
	HDRThreshold float32
	SkyThreshold float32
	Iterations   int
}

type FogSettings struct {
	Mode    FogMode
	Color   core.Color
	Start   float32
	End     float32
	Density float32
}

type TonemapSettings struct {
	Mode     TonemapMode
	Exposure float32
	White    float32
}

type AdjustSettings struct {
	Brightness float32
	Contrast   float32
	Saturation float32
}

// Environment groups the scene-wide settings read by the lighting and
// post-processing passes.
type Environment struct {
	Background  core.Color
	Ambient     core.Color
	Skybox      *Skybox
	SkyRotation mgl32.Mat4
	SSAO        SSAOSettings
	Bloom       BloomSettings
	Fog         FogSettings
	Tonemap     TonemapSettings
	Adjust      AdjustSettings
}

// environmentFromConfig builds the initial environment. Unknown mode names
// keep the default mode and are logged.
func environmentFromConfig(cfg config.Config, logger *log.Logger) Environment {
	env := Environment{
		Background:  colorFromArray(cfg.Environment.Background),
		Ambient:     colorFromArray(cfg.Environment.Ambient),
		SkyRotation: mgl32.Ident4(),
		SSAO: SSAOSettings{
			Enabled:    cfg.SSAO.Enabled,
			Radius:     cfg.SSAO.Radius,
			Bias:       cfg.SSAO.Bias,
			Iterations: cfg.SSAO.Iterations,
		},
		Bloom: BloomSettings{
			Intensity:    cfg.Bloom.Intensity,
			HDRThreshold: cfg.Bloom.HDRThreshold,
			SkyThreshold: cfg.Bloom.SkyThreshold,
			Iterations:   cfg.Bloom.Iterations,
		},
		Fog: FogSettings{
			Color:   colorFromArray(cfg.Fog.Color),
			Start:   cfg.Fog.Start,
			End:     cfg.Fog.End,
			Density: cfg.Fog.Density,
		},
		Tonemap: TonemapSettings{
			Exposure: cfg.Tonemap.Exposure,
			White:    cfg.Tonemap.White,
		},
		Adjust: AdjustSettings{
			Brightness: cfg.Tonemap.Brightness,
			Contrast:   cfg.Tonemap.Contrast,
			Saturation: cfg.Tonemap.Saturation,
		},
	}
	var ok bool
	if env.Bloom.Mode, ok = parseMode[BloomMode](bloomModeNames, cfg.Bloom.Mode); !ok && cfg.Bloom.Mode != "" {
		logger.Warn("unknown bloom mode", "mode", cfg.Bloom.Mode)
	}
	if env.Fog.Mode, ok = parseMode[FogMode](fogModeNames, cfg.Fog.Mode); !ok && cfg.Fog.Mode != "" {
		logger.Warn("unknown fog mode", "mode", cfg.Fog.Mode)
	}
	if env.Tonemap.Mode, ok = parseMode[TonemapMode](tonemapModeNames, cfg.Tonemap.Mode); !ok && cfg.Tonemap.Mode != "" {
		logger.Warn("unknown tonemap mode", "mode", cfg.Tonemap.Mode)
	}
	return env
}

func colorFromArray(c [3]float32) core.Color { return core.Color{R: c[0], G: c[1], B: c[2], A: 1} }

// Environment returns a copy of the current environment settings.
func (r *Renderer) Environment() Environment { return r.env }

// ── Background & ambient ────────────────────────────────────────────────────

func (r *Renderer) SetBackgroundColor(c core.Color) { r.env.Background = c }
func (r *Renderer) BackgroundColor() core.Color     { return r.env.Background }
func (r *Renderer) SetAmbientColor(c core.Color)    { r.env.Ambient = c }
func (r *Renderer) AmbientColor() core.Color        { return r.env.Ambient }

// ── Skybox ──────────────────────────────────────────────────────────────────

// EnableSkybox draws sky as background and switches ambient lighting to its
// irradiance and prefilter maps. The renderer never frees the cubemaps.
func (r *Renderer) EnableSkybox(sky Skybox) {
	if sky.Cubemap == 0 {
		r.log.Warn("skybox has no cubemap, ignoring")
		return
	}
	r.env.Skybox = &sky
	r.ensureBRDFLut()
}

func (r *Renderer) DisableSkybox() { r.env.Skybox = nil }

// SetSkyboxRotation rotates the sky by Euler angles in degrees.
func (r *Renderer) SetSkyboxRotation(pitch, yaw, roll float32) {
	r.env.SkyRotation = mgl32.AnglesToQuat(
		mgl32.DegToRad(pitch), mgl32.DegToRad(yaw), mgl32.DegToRad(roll), mgl32.XYZ,
	).Mat4()
}

func (r *Renderer) SkyboxRotation() mgl32.Mat4 { return r.env.SkyRotation }

// ── SSAO ────────────────────────────────────────────────────────────────────

// SetSSAO enables or disables ambient occlusion. Its half-resolution
// targets and sample kernel are created on first use.
func (r *Renderer) SetSSAO(enabled bool) {
	r.env.SSAO.Enabled = enabled
	if enabled {
		r.ensureSSAO()
	}
}

func (r *Renderer) SSAOEnabled() bool       { return r.env.SSAO.Enabled }
func (r *Renderer) SetSSAORadius(v float32) { r.env.SSAO.Radius = v }
func (r *Renderer) SSAORadius() float32     { return r.env.SSAO.Radius }
func (r *Renderer) SetSSAOBias(v float32)   { r.env.SSAO.Bias = v }
func (r *Renderer) SSAOBias() float32       { return r.env.SSAO.Bias }
func (r *Renderer) SetSSAOIterations(n int) { r.env.SSAO.Iterations = max(n, 1) }
func (r *Renderer) SSAOIterations() int     { return r.env.SSAO.Iterations }

// ── Bloom ───────────────────────────────────────────────────────────────────

func (r *Renderer) SetBloomMode(m BloomMode) {
	r.env.Bloom.Mode = m
	if m != BloomDisabled {
		r.ensureBloom()
	}
}

func (r *Renderer) BloomMode() BloomMode            { return r.env.Bloom.Mode }
func (r *Renderer) SetBloomIntensity(v float32)     { r.env.Bloom.Intensity = v }
func (r *Renderer) BloomIntensity() float32         { return r.env.Bloom.Intensity }
func (r *Renderer) SetBloomHdrThreshold(v float32)  { r.env.Bloom.HDRThreshold = v }
func (r *Renderer) BloomHdrThreshold() float32      { return r.env.Bloom.HDRThreshold }
func (r *Renderer) SetSkyboxHdrThreshold(v float32) { r.env.Bloom.SkyThreshold = v }
func (r *Renderer) SkyboxHdrThreshold() float32     { return r.env.Bloom.SkyThreshold }
func (r *Renderer) SetBloomIterations(n int)        { r.env.Bloom.Iterations = max(n, 1) }
func (r *Renderer) BloomIterations() int            { return r.env.Bloom.Iterations }

// ── Fog ─────────────────────────────────────────────────────────────────────

func (r *Renderer) SetFogMode(m FogMode)     { r.env.Fog.Mode = m }
func (r *Renderer) FogMode() FogMode         { return r.env.Fog.Mode }
func (r *Renderer) SetFogColor(c core.Color) { r.env.Fog.Color = c }
func (r *Renderer) FogColor() core.Color     { return r.env.Fog.Color }
func (r *Renderer) SetFogStart(v float32)    { r.env.Fog.Start = v }
func (r *Renderer) FogStart() float32        { return r.env.Fog.Start }
func (r *Renderer) SetFogEnd(v float32)      { r.env.Fog.End = v }
func (r *Renderer) FogEnd() float32          { return r.env.Fog.End }
func (r *Renderer) SetFogDensity(v float32)  { r.env.Fog.Density = v }
func (r *Renderer) FogDensity() float32      { return r.env.Fog.Density }

// ── Tonemap & color adjustment ──────────────────────────────────────────────

func (r *Renderer) SetTonemapMode(m TonemapMode) { r.env.Tonemap.Mode = m }
func (r *Renderer) TonemapMode() TonemapMode     { return r.env.Tonemap.Mode }
func (r *Renderer) SetTonemapExposure(v float32) { r.env.Tonemap.Exposure = v }
func (r *Renderer) TonemapExposure() float32     { return r.env.Tonemap.Exposure }
func (r *Renderer) SetTonemapWhite(v float32)    { r.env.Tonemap.White = v }
func (r *Renderer) TonemapWhite() float32        { return r.env.Tonemap.White }
func (r *Renderer) SetBrightness(v float32)      { r.env.Adjust.Brightness = v }
func (r *Renderer) Brightness() float32          { return r.env.Adjust.Brightness }
func (r *Renderer) SetContrast(v float32)        { r.env.Adjust.Contrast = v }
func (r *Renderer) Contrast() float32            { return r.env.Adjust.Contrast }
func (r *Renderer) SetSaturation(v float32)      { r.env.Adjust.Saturation = max(v, 0) }
func (r *Renderer) Saturation() float32          { return r.env.Adjust.Saturation }
