package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"r3d/gpu"
	"r3d/shaders"
)

// boundProgram is the program a pass draws with. Uniform locations come
// from the library cache and uploads of an unchanged value are skipped.
type boundProgram struct {
	dev    gpu.Device
	lib    *shaders.Library
	name   shaders.Name
	handle gpu.Program
	values map[string]any
}

// use loads and binds a program. A program that fails to build is reported
// once, and the caller skips its pass until a hot reload touches its
// sources.
func (r *Renderer) use(name shaders.Name) (boundProgram, bool) {
	if r.broken[name] {
		return boundProgram{}, false
	}
	handle, err := r.lib.Load(name)
	if err != nil {
		if !r.broken[name] {
			r.broken[name] = true
			r.log.Warn("shader program unavailable, skipping its pass", "program", name, "err", err)
		}
		return boundProgram{}, false
	}
	r.dev.UseProgram(handle)
	values, ok := r.uniforms[handle]
	if !ok {
		values = make(map[string]any)
		r.uniforms[handle] = values
	}
	return boundProgram{dev: r.dev, lib: r.lib, name: name, handle: handle, values: values}, true
}

// changed records v for uniform and reports whether it must be uploaded.
func (p boundProgram) changed(uniform string, v any) (int32, bool) {
	loc := p.lib.Location(p.name, uniform)
	if loc < 0 {
		return loc, false
	}
	if old, ok := p.values[uniform]; ok && old == v {
		return loc, false
	}
	p.values[uniform] = v
	return loc, true
}

func (p boundProgram) Int(uniform string, v int32) {
	if loc, ok := p.changed(uniform, v); ok {
		p.dev.SetUniformInt(loc, v)
	}
}

func (p boundProgram) Bool(uniform string, v bool) {
	var i int32
	if v {
		i = 1
	}
	p.Int(uniform, i)
}

func (p boundProgram) Float(uniform string, v float32) {
	if loc, ok := p.changed(uniform, v); ok {
		p.dev.SetUniformFloat(loc, v)
	}
}

func (p boundProgram) Vec2(uniform string, v mgl32.Vec2) {
	if loc, ok := p.changed(uniform, v); ok {
		p.dev.SetUniformVec2(loc, v)
	}
}

func (p boundProgram) Vec3(uniform string, v mgl32.Vec3) {
	if loc, ok := p.changed(uniform, v); ok {
		p.dev.SetUniformVec3(loc, v)
	}
}

func (p boundProgram) Vec4(uniform string, v mgl32.Vec4) {
	if loc, ok := p.changed(uniform, v); ok {
		p.dev.SetUniformVec4(loc, v)
	}
}

func (p boundProgram) Mat4(uniform string, v mgl32.Mat4) {
	if loc, ok := p.changed(uniform, v); ok {
		p.dev.SetUniformMat4(loc, v)
	}
}

// Texture points a sampler uniform at slot and binds tex there. The binding
// itself is always issued since other passes reuse the same slots.
func (p boundProgram) Texture(uniform string, slot int, target gpu.TextureTarget, tex gpu.Texture) {
	p.Int(uniform, int32(slot))
	p.dev.BindTexture(slot, target, tex)
}

// applyShaderChanges takes the result of a hot reload: rebuilt programs get
// fresh uniform handles, and programs that failed to build get another try.
func (r *Renderer) applyShaderChanges(reloaded int, changed []shaders.Name) {
	for _, name := range changed {
		delete(r.broken, name)
	}
	if reloaded > 0 {
		clear(r.uniforms)
	}
}
