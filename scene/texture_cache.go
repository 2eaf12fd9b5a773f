package scene

import (
	"path/filepath"

	"r3d/gpu"
)

// TextureCache loads each texture file once. Materials that reference the
// same path share one Texture, so it is uploaded once as well.
type TextureCache struct {
	textures map[string]*Texture
	fallback *Texture
}

func NewTextureCache() *TextureCache {
	return &TextureCache{textures: make(map[string]*Texture)}
}

// Load returns the cached texture for path, reading it on first use.
// Failed loads are not cached.
func (c *TextureCache) Load(path string) (*Texture, error) {
	key := filepath.Clean(path)
	if tex, ok := c.textures[key]; ok {
		return tex, nil
	}
	tex, err := LoadTexture(key)
	if err != nil {
		return nil, err
	}
	c.textures[key] = tex
	return tex, nil
}

// GetOrDefault returns the texture for path, or a shared white texture if
// it cannot be loaded.
func (c *TextureCache) GetOrDefault(path string) *Texture {
	if tex, err := c.Load(path); err == nil {
		return tex
	}
	if c.fallback == nil {
		c.fallback = NewSolidTexture("white", 255, 255, 255, 255)
	}
	return c.fallback
}

func (c *TextureCache) Len() int { return len(c.textures) }

// Unload releases the device textures of every cached entry.
func (c *TextureCache) Unload(dev gpu.Device) {
	for _, tex := range c.textures {
		tex.Unload(dev)
	}
	if c.fallback != nil {
		c.fallback.Unload(dev)
	}
}
