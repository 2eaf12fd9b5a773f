package scene

import "r3d/core"

// MaterialMap is one channel of a material: an optional texture modulated by
// a color and a scalar. Which of Color and Value a channel reads depends on
// the channel.
type MaterialMap struct {
	Texture *Texture
	Color   core.Color
	Value   float32
}

// Material describes surface appearance for the PBR metallic-roughness model.
// A nil Texture selects the renderer's default texture for that channel:
// white, or a flat normal for the normal channel. Emission defaults to a
// black color, so an untextured material only glows once Color is set.
type Material struct {
	Name string

	Albedo    MaterialMap // Color is the tint
	Normal    MaterialMap // Value is the normal strength
	Emission  MaterialMap // Color is the emission color, Value its energy
	Occlusion MaterialMap // Value is the occlusion strength
	Roughness MaterialMap // Value is the roughness factor
	Metalness MaterialMap // Value is the metalness factor
}

// DefaultMaterial returns a white, fully rough, non-metallic material.
func DefaultMaterial() *Material {
	return &Material{
		Name:      "Default",
		Albedo:    MaterialMap{Color: core.ColorWhite},
		Normal:    MaterialMap{Value: 1},
		Emission:  MaterialMap{Color: core.ColorBlack},
		Occlusion: MaterialMap{Value: 1},
		Roughness: MaterialMap{Value: 1},
		Metalness: MaterialMap{Value: 0},
	}
}

// NewMaterial creates a default material with the given albedo tint.
func NewMaterial(name string, albedo core.Color) *Material {
	m := DefaultMaterial()
	m.Name = name
	m.Albedo.Color = albedo
	return m
}

// Textures returns every non-nil texture referenced by the material.
func (m *Material) Textures() []*Texture {
	var out []*Texture
	for _, mm := range []*MaterialMap{&m.Albedo, &m.Normal, &m.Emission, &m.Occlusion, &m.Roughness, &m.Metalness} {
		if mm.Texture != nil {
			out = append(out, mm.Texture)
		}
	}
	return out
}
