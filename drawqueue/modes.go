package drawqueue

import (
	"r3d/gpu"
	"r3d/scene"
)

// RenderMode forces a draw into one pipeline or lets the queue choose.
type RenderMode int

const (
	RenderAutoDetect RenderMode = iota
	RenderDeferred
	RenderForward
)

// BlendMode selects how forward draws composite over the scene.
type BlendMode int

const (
	BlendOpaque BlendMode = iota
	BlendAlpha
	BlendAdditive
	BlendMultiply
)

// ShadowCastMode selects which faces a draw rasterizes into shadow maps.
type ShadowCastMode int

const (
	ShadowCastFrontFaces ShadowCastMode = iota
	ShadowCastBackFaces
	ShadowCastAllFaces
	ShadowCastDisabled
)

// BillboardMode orients a draw toward the camera at submission.
type BillboardMode int

const (
	BillboardDisabled BillboardMode = iota
	BillboardFront
	BillboardYAxis
)

// Pipeline is the queue a draw lands in.
type Pipeline int

const (
	PipelineDeferred Pipeline = iota
	PipelineForward
)

type autoRule int

const (
	autoDeferred autoRule = iota
	autoForward
	autoByAlpha
)

var autoRules = [...]autoRule{
	BlendOpaque:   autoDeferred,
	BlendAlpha:    autoByAlpha,
	BlendAdditive: autoForward,
	BlendMultiply: autoForward,
}

// Classify picks the pipeline for a draw. An explicit render mode wins;
// otherwise the blend mode decides, and alpha blending only goes forward
// when the albedo actually carries translucency.
func Classify(mode RenderMode, blend BlendMode, mat *scene.Material) Pipeline {
	switch mode {
	case RenderDeferred:
		return PipelineDeferred
	case RenderForward:
		return PipelineForward
	}
	if blend < 0 || int(blend) >= len(autoRules) {
		return PipelineDeferred
	}
	switch autoRules[blend] {
	case autoForward:
		return PipelineForward
	case autoByAlpha:
		if hasTranslucentAlbedo(mat) {
			return PipelineForward
		}
	}
	return PipelineDeferred
}

func hasTranslucentAlbedo(mat *scene.Material) bool {
	if mat == nil {
		return false
	}
	if mat.Albedo.Color.Alpha8() < 255 {
		return true
	}
	tex := mat.Albedo.Texture
	return tex != nil && tex.Format.HasAlpha()
}

var blendStates = [...]gpu.BlendState{
	BlendOpaque:   {Enabled: false},
	BlendAlpha:    {Enabled: true, Src: gpu.BlendSrcAlpha, Dst: gpu.BlendOneMinusSrcAlpha},
	BlendAdditive: {Enabled: true, Src: gpu.BlendSrcAlpha, Dst: gpu.BlendOne},
	BlendMultiply: {Enabled: true, Src: gpu.BlendDstColor, Dst: gpu.BlendZero},
}

// BlendState returns the device blend state for a blend mode.
func (b BlendMode) BlendState() gpu.BlendState {
	if b < 0 || int(b) >= len(blendStates) {
		return blendStates[BlendAlpha]
	}
	return blendStates[b]
}

var castCulls = [...]gpu.CullState{
	ShadowCastFrontFaces: {Enabled: true, Face: gpu.CullBack},
	ShadowCastBackFaces:  {Enabled: true, Face: gpu.CullFront},
	ShadowCastAllFaces:   {Enabled: false},
	ShadowCastDisabled:   {Enabled: false},
}

// CullState returns the face culling used when rasterizing into a shadow
// map. ok is false when the draw must not cast shadows.
func (m ShadowCastMode) CullState() (gpu.CullState, bool) {
	if m < 0 || int(m) >= len(castCulls) || m == ShadowCastDisabled {
		return gpu.CullState{}, false
	}
	return castCulls[m], true
}

// State is the submission state applied to every subsequent draw.
type State struct {
	Mode         RenderMode
	Blend        BlendMode
	ShadowCast   ShadowCastMode
	Billboard    BillboardMode
	AlphaScissor float32
}

// DefaultState returns auto-detect, alpha blending, front-face shadow
// casting, no billboarding and a 0.01 alpha scissor threshold.
func DefaultState() State {
	return State{
		Mode:         RenderAutoDetect,
		Blend:        BlendAlpha,
		ShadowCast:   ShadowCastFrontFaces,
		Billboard:    BillboardDisabled,
		AlphaScissor: 0.01,
	}
}
