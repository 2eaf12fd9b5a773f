package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"r3d/core"
	"r3d/lighting"
)

// ── Lights ──────────────────────────────────────────────────────────────────
//
// Thin wrappers over the light registry. Unknown or destroyed IDs are
// logged; getters then return zero values and setters do nothing.

// CreateLight adds a disabled light of type t.
func (r *Renderer) CreateLight(t lighting.LightType) lighting.LightID { return r.lights.Create(t) }

// DestroyLight frees the light and its shadow map. Its ID never validates
// again.
func (r *Renderer) DestroyLight(id lighting.LightID) { r.lights.Destroy(id) }

func (r *Renderer) IsLightExist(id lighting.LightID) bool               { return r.lights.Exists(id) }
func (r *Renderer) GetLightType(id lighting.LightID) lighting.LightType { return r.lights.Type(id) }
func (r *Renderer) IsLightActive(id lighting.LightID) bool              { return r.lights.Active(id) }
func (r *Renderer) ToggleLight(id lighting.LightID)                     { r.lights.Toggle(id) }
func (r *Renderer) SetLightActive(id lighting.LightID, active bool)     { r.lights.SetActive(id, active) }

func (r *Renderer) GetLightColor(id lighting.LightID) core.Color          { return r.lights.Color(id) }
func (r *Renderer) GetLightColorV(id lighting.LightID) mgl32.Vec3         { return r.lights.ColorV(id) }
func (r *Renderer) SetLightColor(id lighting.LightID, c core.Color)       { r.lights.SetColor(id, c) }
func (r *Renderer) SetLightColorV(id lighting.LightID, c mgl32.Vec3)      { r.lights.SetColorV(id, c) }
func (r *Renderer) GetLightPosition(id lighting.LightID) mgl32.Vec3       { return r.lights.Position(id) }
func (r *Renderer) SetLightPosition(id lighting.LightID, p mgl32.Vec3)    { r.lights.SetPosition(id, p) }
func (r *Renderer) GetLightDirection(id lighting.LightID) mgl32.Vec3      { return r.lights.Direction(id) }
func (r *Renderer) SetLightDirection(id lighting.LightID, d mgl32.Vec3)   { r.lights.SetDirection(id, d) }
func (r *Renderer) SetLightTarget(id lighting.LightID, target mgl32.Vec3) { r.lights.SetTarget(id, target) }

func (r *Renderer) GetLightEnergy(id lighting.LightID) float32         { return r.lights.Energy(id) }
func (r *Renderer) SetLightEnergy(id lighting.LightID, e float32)      { r.lights.SetEnergy(id, e) }
func (r *Renderer) GetLightRange(id lighting.LightID) float32          { return r.lights.Range(id) }
func (r *Renderer) SetLightRange(id lighting.LightID, v float32)       { r.lights.SetRange(id, v) }
func (r *Renderer) GetLightAttenuation(id lighting.LightID) float32    { return r.lights.Attenuation(id) }
func (r *Renderer) SetLightAttenuation(id lighting.LightID, a float32) { r.lights.SetAttenuation(id, a) }
func (r *Renderer) GetLightSpecular(id lighting.LightID) float32       { return r.lights.Specular(id) }
func (r *Renderer) SetLightSpecular(id lighting.LightID, s float32)    { r.lights.SetSpecular(id, s) }

// Spot cutoffs are set and read in degrees.
func (r *Renderer) GetLightInnerCutOff(id lighting.LightID) float32      { return r.lights.InnerCutOff(id) }
func (r *Renderer) SetLightInnerCutOff(id lighting.LightID, deg float32) { r.lights.SetInnerCutOff(id, deg) }
func (r *Renderer) GetLightOuterCutOff(id lighting.LightID) float32      { return r.lights.OuterCutOff(id) }
func (r *Renderer) SetLightOuterCutOff(id lighting.LightID, deg float32) { r.lights.SetOuterCutOff(id, deg) }

// ── Shadows ─────────────────────────────────────────────────────────────────

// EnableShadow turns shadows on with a resolution x resolution map. Zero
// selects the configured default resolution.
func (r *Renderer) EnableShadow(id lighting.LightID, resolution int) {
	r.lights.EnableShadow(id, resolution)
}

// DisableShadow turns shadows off, freeing the map when destroyMap is set.
func (r *Renderer) DisableShadow(id lighting.LightID, destroyMap bool) {
	r.lights.DisableShadow(id, destroyMap)
}

func (r *Renderer) IsShadowEnabled(id lighting.LightID) bool { return r.lights.ShadowEnabled(id) }
func (r *Renderer) HasShadowMap(id lighting.LightID) bool    { return r.lights.HasShadowMap(id) }

func (r *Renderer) GetShadowUpdateMode(id lighting.LightID) lighting.UpdateMode { return r.lights.ShadowUpdateMode(id) }
func (r *Renderer) SetShadowUpdateMode(id lighting.LightID, m lighting.UpdateMode) {
	r.lights.SetShadowUpdateMode(id, m)
}

// Shadow update frequencies are in milliseconds.
func (r *Renderer) GetShadowUpdateFrequency(id lighting.LightID) int { return r.lights.ShadowUpdateFrequency(id) }
func (r *Renderer) SetShadowUpdateFrequency(id lighting.LightID, msec int) {
	r.lights.SetShadowUpdateFrequency(id, msec)
}

// UpdateShadowMap renders the light's shadow map on the next frame.
func (r *Renderer) UpdateShadowMap(id lighting.LightID) { r.lights.RequestShadowUpdate(id) }

func (r *Renderer) GetShadowBias(id lighting.LightID) float32        { return r.lights.ShadowBias(id) }
func (r *Renderer) SetShadowBias(id lighting.LightID, bias float32)  { r.lights.SetShadowBias(id, bias) }
func (r *Renderer) GetShadowSoftness(id lighting.LightID) float32    { return r.lights.ShadowSoftness(id) }
func (r *Renderer) SetShadowSoftness(id lighting.LightID, s float32) { r.lights.SetShadowSoftness(id, s) }
