package lighting

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"r3d/config"
	"r3d/core"
)

type LightType int

const (
	LightDirectional LightType = iota
	LightSpot
	LightOmni
)

var lightTypeNames = [...]string{
	LightDirectional: "directional",
	LightSpot:        "spot",
	LightOmni:        "omni",
}

func (t LightType) String() string {
	if t >= 0 && int(t) < len(lightTypeNames) {
		return lightTypeNames[t]
	}
	return "unknown"
}

// Light is one registry entry. Spot cutoffs are stored as cosines.
type Light struct {
	Type        LightType
	Enabled     bool
	Color       mgl32.Vec3
	Position    mgl32.Vec3
	Direction   mgl32.Vec3
	Energy      float32
	Range       float32
	Attenuation float32
	Specular    float32
	InnerCutOff float32
	OuterCutOff float32
	Shadow      Shadow
}

func newLight(t LightType, cfg config.ShadowConfig) Light {
	bias := cfg.DirBias
	if t == LightOmni {
		bias = cfg.OmniBias
	}
	return Light{
		Type:        t,
		Color:       mgl32.Vec3{1, 1, 1},
		Direction:   mgl32.Vec3{0, 0, -1},
		Energy:      1,
		Range:       100,
		Attenuation: 1,
		Specular:    0.5,
		InnerCutOff: -1,
		OuterCutOff: -1,
		Shadow: Shadow{
			Bias:      bias,
			Softness:  cfg.PCSSSize,
			Near:      cfg.PCSSNear,
			Far:       cfg.PCSSFar,
			Mode:      UpdateInterval,
			Frequency: cfg.UpdateIntervalMs / 1000,
			due:       true,
		},
	}
}

// ── Accessors ─────────────────────────────────────────────────────────────
//
// Getters return the zero value for stale IDs and setters ignore them; both
// log the lookup failure.

func (r *Registry) Type(id LightID) LightType {
	if l := r.lookup(id, "type"); l != nil {
		return l.Type
	}
	return 0
}

func (r *Registry) Active(id LightID) bool {
	if l := r.lookup(id, "active"); l != nil {
		return l.Enabled
	}
	return false
}

// SetActive enables or disables a light. Enabling a shadowed light forces a
// shadow refresh since its map may predate the time it was hidden.
func (r *Registry) SetActive(id LightID, active bool) {
	r.update(id, "set active", func(l *Light) {
		if l.Enabled == active {
			return
		}
		if active && l.Shadow.Enabled {
			l.Shadow.Request()
		}
		l.Enabled = active
	})
}

func (r *Registry) Toggle(id LightID) {
	r.update(id, "toggle", func(l *Light) {
		l.Enabled = !l.Enabled
		if l.Enabled && l.Shadow.Enabled {
			l.Shadow.Request()
		}
	})
}

func (r *Registry) Color(id LightID) core.Color {
	if l := r.lookup(id, "color"); l != nil {
		return core.ColorFromVec3(l.Color)
	}
	return core.Color{}
}

func (r *Registry) ColorV(id LightID) mgl32.Vec3 {
	if l := r.lookup(id, "color"); l != nil {
		return l.Color
	}
	return mgl32.Vec3{}
}

// SetColor sets the light color from c, ignoring alpha.
func (r *Registry) SetColor(id LightID, c core.Color) {
	r.update(id, "set color", func(l *Light) { l.Color = c.Vec3() })
}

func (r *Registry) SetColorV(id LightID, c mgl32.Vec3) {
	r.update(id, "set color", func(l *Light) { l.Color = c })
}

func (r *Registry) Position(id LightID) mgl32.Vec3 {
	if l := r.lookup(id, "position"); l != nil {
		return l.Position
	}
	return mgl32.Vec3{}
}

func (r *Registry) SetPosition(id LightID, p mgl32.Vec3) {
	r.update(id, "set position", func(l *Light) { l.Position = p })
}

func (r *Registry) Direction(id LightID) mgl32.Vec3 {
	if l := r.lookup(id, "direction"); l != nil {
		return l.Direction
	}
	return mgl32.Vec3{}
}

// SetDirection stores the normalized direction. A zero vector is ignored.
func (r *Registry) SetDirection(id LightID, d mgl32.Vec3) {
	r.update(id, "set direction", func(l *Light) {
		if d.LenSqr() > 0 {
			l.Direction = d.Normalize()
		}
	})
}

// SetTarget points the light from its position towards target.
func (r *Registry) SetTarget(id LightID, target mgl32.Vec3) {
	r.update(id, "set target", func(l *Light) {
		if d := target.Sub(l.Position); d.LenSqr() > 0 {
			l.Direction = d.Normalize()
		}
	})
}

func (r *Registry) Energy(id LightID) float32 {
	if l := r.lookup(id, "energy"); l != nil {
		return l.Energy
	}
	return 0
}

func (r *Registry) SetEnergy(id LightID, energy float32) {
	r.update(id, "set energy", func(l *Light) { l.Energy = energy })
}

func (r *Registry) Range(id LightID) float32 {
	if l := r.lookup(id, "range"); l != nil {
		return l.Range
	}
	return 0
}

func (r *Registry) SetRange(id LightID, rng float32) {
	r.update(id, "set range", func(l *Light) { l.Range = rng })
}

func (r *Registry) Attenuation(id LightID) float32 {
	if l := r.lookup(id, "attenuation"); l != nil {
		return l.Attenuation
	}
	return 0
}

func (r *Registry) SetAttenuation(id LightID, attenuation float32) {
	r.update(id, "set attenuation", func(l *Light) { l.Attenuation = attenuation })
}

func (r *Registry) Specular(id LightID) float32 {
	if l := r.lookup(id, "specular"); l != nil {
		return l.Specular
	}
	return 0
}

func (r *Registry) SetSpecular(id LightID, specular float32) {
	r.update(id, "set specular", func(l *Light) { l.Specular = specular })
}

// InnerCutOff returns the inner spot angle in degrees.
func (r *Registry) InnerCutOff(id LightID) float32 {
	if l := r.lookup(id, "inner cutoff"); l != nil {
		return cosToDegrees(l.InnerCutOff)
	}
	return 0
}

func (r *Registry) SetInnerCutOff(id LightID, degrees float32) {
	r.update(id, "set inner cutoff", func(l *Light) { l.InnerCutOff = degreesToCos(degrees) })
}

// OuterCutOff returns the outer spot angle in degrees.
func (r *Registry) OuterCutOff(id LightID) float32 {
	if l := r.lookup(id, "outer cutoff"); l != nil {
		return cosToDegrees(l.OuterCutOff)
	}
	return 0
}

func (r *Registry) SetOuterCutOff(id LightID, degrees float32) {
	r.update(id, "set outer cutoff", func(l *Light) { l.OuterCutOff = degreesToCos(degrees) })
}

func degreesToCos(deg float32) float32 {
	return float32(gomath.Cos(float64(mgl32.DegToRad(deg))))
}

func cosToDegrees(c float32) float32 {
	return mgl32.RadToDeg(float32(gomath.Acos(float64(c))))
}
