package lighting

import (
	"fmt"

	"r3d/gpu"
)

// ShadowMap holds the device resources of one light's shadow map.
// Directional and spot lights render depth into Depth. Omni lights render
// linear distance into the six faces of the Distance cubemap, with
// DepthBuffer as the depth attachment.
type ShadowMap struct {
	Framebuffer gpu.Framebuffer
	Depth       gpu.Texture
	DepthBuffer gpu.Renderbuffer
	Distance    gpu.Texture
	Resolution  int
}

// Allocated reports whether the map owns device resources.
func (m ShadowMap) Allocated() bool { return m.Framebuffer != 0 }

// TexelSize is the size of one shadow-map texel in UV units.
func (m ShadowMap) TexelSize() float32 {
	if m.Resolution <= 0 {
		return 0
	}
	return 1 / float32(m.Resolution)
}

func createShadowMap(dev gpu.Device, t LightType, resolution int) (ShadowMap, error) {
	if t == LightOmni {
		return createCubeShadowMap(dev, resolution)
	}
	return createDepthShadowMap(dev, resolution)
}

func createDepthShadowMap(dev gpu.Device, resolution int) (ShadowMap, error) {
	m := ShadowMap{Resolution: resolution}
	var err error

	m.Depth, err = dev.CreateTexture(gpu.TextureDesc{
		Target: gpu.Texture2D,
		Format: gpu.FormatDepth16,
		Width:  resolution,
		Height: resolution,
		Filter: gpu.FilterNearest,
		Wrap:   gpu.WrapClampToEdge,
	})
	if err != nil {
		return ShadowMap{}, fmt.Errorf("shadow depth texture: %w", err)
	}
	if m.Framebuffer, err = dev.CreateFramebuffer(); err != nil {
		m.destroy(dev)
		return ShadowMap{}, fmt.Errorf("shadow framebuffer: %w", err)
	}
	dev.AttachTexture(m.Framebuffer, gpu.AttachDepth, m.Depth, gpu.NoFace)
	dev.DrawBuffers(m.Framebuffer, 0)

	if err := dev.CheckFramebuffer(m.Framebuffer); err != nil {
		m.destroy(dev)
		return ShadowMap{}, fmt.Errorf("shadow %w", err)
	}
	return m, nil
}

func createCubeShadowMap(dev gpu.Device, resolution int) (ShadowMap, error) {
	m := ShadowMap{Resolution: resolution}
	var err error

	if m.DepthBuffer, err = dev.CreateRenderbuffer(gpu.FormatDepth16, resolution, resolution); err != nil {
		return ShadowMap{}, fmt.Errorf("omni shadow depth buffer: %w", err)
	}
	m.Distance, err = dev.CreateTexture(gpu.TextureDesc{
		Target: gpu.TextureCube,
		Format: gpu.FormatR16F,
		Width:  resolution,
		Height: resolution,
		Filter: gpu.FilterNearest,
		Wrap:   gpu.WrapClampToEdge,
	})
	if err != nil {
		m.destroy(dev)
		return ShadowMap{}, fmt.Errorf("omni shadow cubemap: %w", err)
	}
	if m.Framebuffer, err = dev.CreateFramebuffer(); err != nil {
		m.destroy(dev)
		return ShadowMap{}, fmt.Errorf("omni shadow framebuffer: %w", err)
	}
	dev.AttachRenderbuffer(m.Framebuffer, gpu.AttachDepth, m.DepthBuffer)
	dev.AttachTexture(m.Framebuffer, gpu.AttachColor0, m.Distance, gpu.FacePosX)
	dev.DrawBuffers(m.Framebuffer, 1)

	if err := dev.CheckFramebuffer(m.Framebuffer); err != nil {
		m.destroy(dev)
		return ShadowMap{}, fmt.Errorf("omni shadow %w", err)
	}
	return m, nil
}

// destroy frees every resource of m and zeroes it.
func (m *ShadowMap) destroy(dev gpu.Device) {
	if m.Framebuffer != 0 {
		dev.DeleteFramebuffer(m.Framebuffer)
	}
	if m.Depth != 0 {
		dev.DeleteTexture(m.Depth)
	}
	if m.Distance != 0 {
		dev.DeleteTexture(m.Distance)
	}
	if m.DepthBuffer != 0 {
		dev.DeleteRenderbuffer(m.DepthBuffer)
	}
	*m = ShadowMap{}
}

// EnableShadow turns shadows on for a light, allocating a resolution²
// map when it has none. A resolution of zero selects the configured
// default and a negative one is ignored. An existing map is reallocated
// only when a different positive resolution is requested.
func (r *Registry) EnableShadow(id LightID, resolution int) {
	l := r.lookup(id, "enable shadow")
	if l == nil || resolution < 0 {
		return
	}
	sm := &l.Shadow.Map
	switch {
	case !sm.Allocated():
		if resolution <= 0 {
			resolution = r.cfg.DefaultResolution
		}
	case resolution > 0 && resolution != sm.Resolution:
		sm.destroy(r.dev)
	default:
		l.Shadow.Enabled = true
		return
	}

	m, err := createShadowMap(r.dev, l.Type, resolution)
	if err != nil {
		r.log.Warn("shadow map allocation failed", "light", id, "type", l.Type, "resolution", resolution, "err", err)
	}
	*sm = m
	l.Shadow.Enabled = true
	l.Shadow.Request()
}

// DisableShadow turns shadows off, optionally freeing the map.
func (r *Registry) DisableShadow(id LightID, destroyMap bool) {
	r.update(id, "disable shadow", func(l *Light) {
		if destroyMap {
			l.Shadow.Map.destroy(r.dev)
		}
		l.Shadow.Enabled = false
	})
}
