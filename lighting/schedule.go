package lighting

import (
	"github.com/go-gl/mathgl/mgl32"

	"r3d/config"
)

// Shadow defaults, used when the configuration leaves a value at zero.
const (
	DefaultShadowResolution       = 1024
	DefaultDirectionalShadowBias  = 0.0002
	DefaultOmniShadowBias         = 0.05
	DefaultPCSSSize               = 0.1
	DefaultPCSSNear               = 0.05
	DefaultPCSSFar                = 100
	DefaultShadowUpdateIntervalMs = 16
)

func withShadowDefaults(cfg config.ShadowConfig) config.ShadowConfig {
	if cfg.DefaultResolution <= 0 {
		cfg.DefaultResolution = DefaultShadowResolution
	}
	if cfg.DirBias == 0 {
		cfg.DirBias = DefaultDirectionalShadowBias
	}
	if cfg.OmniBias == 0 {
		cfg.OmniBias = DefaultOmniShadowBias
	}
	if cfg.PCSSSize == 0 {
		cfg.PCSSSize = DefaultPCSSSize
	}
	if cfg.PCSSNear == 0 {
		cfg.PCSSNear = DefaultPCSSNear
	}
	if cfg.PCSSFar == 0 {
		cfg.PCSSFar = DefaultPCSSFar
	}
	if cfg.UpdateIntervalMs == 0 {
		cfg.UpdateIntervalMs = DefaultShadowUpdateIntervalMs
	}
	return cfg
}

// UpdateMode selects when a shadow map is re-rendered.
type UpdateMode int

const (
	// UpdateManual renders only after RequestShadowUpdate.
	UpdateManual UpdateMode = iota
	// UpdateInterval renders once every Frequency seconds.
	UpdateInterval
	// UpdateContinuous renders every frame.
	UpdateContinuous
)

var updateModeNames = [...]string{
	UpdateManual:     "manual",
	UpdateInterval:   "interval",
	UpdateContinuous: "continuous",
}

func (m UpdateMode) String() string {
	if m >= 0 && int(m) < len(updateModeNames) {
		return updateModeNames[m]
	}
	return "unknown"
}

func (m UpdateMode) valid() bool {
	return m >= 0 && int(m) < len(schedules)
}

var schedules = [...]func(s *Shadow, dt float32){
	UpdateManual: func(*Shadow, float32) {},
	UpdateInterval: func(s *Shadow, dt float32) {
		s.timer += dt
		if s.timer >= s.Frequency {
			s.due = true
			s.timer = 0
		}
	},
	UpdateContinuous: func(s *Shadow, _ float32) {
		s.due = true
	},
}

// Shadow is the shadow sub-record of a light.
type Shadow struct {
	Enabled bool
	Map     ShadowMap
	Bias    float32
	// PCSS light size and blocker search range.
	Softness float32
	Near     float32
	Far      float32
	Mode     UpdateMode
	// Frequency is the Interval period in seconds.
	Frequency float32
	// ViewProj is the light matrix cached by the last directional or spot
	// shadow render.
	ViewProj mgl32.Mat4

	timer float32
	due   bool
}

// Advance moves the schedule forward by dt seconds.
func (s *Shadow) Advance(dt float32) {
	if s.Mode.valid() {
		schedules[s.Mode](s, dt)
	}
}

// Due reports whether the shadow map must be rendered this frame.
func (s *Shadow) Due() bool { return s.due }

// Request marks the shadow map for rendering on the next shadow pass.
func (s *Shadow) Request() { s.due = true }

// MarkRendered clears the due flag after the shadow pass.
func (s *Shadow) MarkRendered() { s.due = false }

// Active reports whether shadows are enabled and backed by a map.
func (s *Shadow) Active() bool { return s.Enabled && s.Map.Allocated() }

// ── Registry accessors ────────────────────────────────────────────────────

func (r *Registry) ShadowEnabled(id LightID) bool {
	if l := r.lookup(id, "shadow enabled"); l != nil {
		return l.Shadow.Enabled
	}
	return false
}

func (r *Registry) HasShadowMap(id LightID) bool {
	if l := r.lookup(id, "has shadow map"); l != nil {
		return l.Shadow.Map.Allocated()
	}
	return false
}

func (r *Registry) ShadowUpdateMode(id LightID) UpdateMode {
	if l := r.lookup(id, "shadow update mode"); l != nil {
		return l.Shadow.Mode
	}
	return 0
}

func (r *Registry) SetShadowUpdateMode(id LightID, mode UpdateMode) {
	if !mode.valid() {
		r.log.Warn("unknown shadow update mode", "light", id, "mode", int(mode))
		return
	}
	r.update(id, "set shadow update mode", func(l *Light) { l.Shadow.Mode = mode })
}

// ShadowUpdateFrequency returns the Interval period in milliseconds.
func (r *Registry) ShadowUpdateFrequency(id LightID) int {
	if l := r.lookup(id, "shadow update frequency"); l != nil {
		return int(l.Shadow.Frequency*1000 + 0.5)
	}
	return 0
}

func (r *Registry) SetShadowUpdateFrequency(id LightID, msec int) {
	r.update(id, "set shadow update frequency", func(l *Light) {
		l.Shadow.Frequency = float32(max(msec, 0)) / 1000
	})
}

// RequestShadowUpdate schedules a render of the light's shadow map on the
// next frame, whatever its update mode.
func (r *Registry) RequestShadowUpdate(id LightID) {
	r.update(id, "request shadow update", func(l *Light) { l.Shadow.Request() })
}

func (r *Registry) ShadowBias(id LightID) float32 {
	if l := r.lookup(id, "shadow bias"); l != nil {
		return l.Shadow.Bias
	}
	return 0
}

func (r *Registry) SetShadowBias(id LightID, bias float32) {
	r.update(id, "set shadow bias", func(l *Light) { l.Shadow.Bias = bias })
}

func (r *Registry) ShadowSoftness(id LightID) float32 {
	if l := r.lookup(id, "shadow softness"); l != nil {
		return l.Shadow.Softness
	}
	return 0
}

func (r *Registry) SetShadowSoftness(id LightID, softness float32) {
	r.update(id, "set shadow softness", func(l *Light) { l.Shadow.Softness = max(softness, 0) })
}
