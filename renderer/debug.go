package renderer

import "r3d/gpu"

// DebugKind names an internal texture exposed for inspection.
type DebugKind int

const (
	DebugAlbedo DebugKind = iota
	DebugEmission
	DebugNormal
	DebugORM
	DebugDepth
	DebugDiffuse
	DebugSpecular
	DebugBrightness
	DebugSSAO
	DebugBloom
)

var debugKindNames = [...]string{
	DebugAlbedo:     "albedo",
	DebugEmission:   "emission",
	DebugNormal:     "normal",
	DebugORM:        "orm",
	DebugDepth:      "depth",
	DebugDiffuse:    "diffuse",
	DebugSpecular:   "specular",
	DebugBrightness: "brightness",
	DebugSSAO:       "ssao",
	DebugBloom:      "bloom",
}

func (k DebugKind) String() string { return modeName(debugKindNames[:], k) }

// DebugTexture returns the texture of kind as left by the last frame, or
// zero when it is not allocated. SSAO and bloom are the blurred results.
func (r *Renderer) DebugTexture(kind DebugKind) gpu.Texture {
	t := r.targets
	switch kind {
	case DebugAlbedo:
		return t.gbuf.albedo
	case DebugEmission:
		return t.gbuf.emission
	case DebugNormal:
		return t.gbuf.normal
	case DebugORM:
		return t.gbuf.orm
	case DebugDepth:
		return t.gbuf.depth
	case DebugDiffuse:
		return t.lit.tex[0]
	case DebugSpecular:
		return t.lit.tex[1]
	case DebugBrightness:
		return t.scene.tex[1]
	case DebugSSAO:
		if t.ssao.allocated() {
			return t.ssao.read()
		}
	case DebugBloom:
		if t.bloom.allocated() {
			return t.bloom.read()
		}
	}
	return 0
}
