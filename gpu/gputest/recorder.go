// Package gputest provides a recording gpu.Device for tests.
package gputest

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"r3d/gpu"
)

// Call is one recorded device command. Framebuffer and Program capture the
// bindings active when the command was issued.
type Call struct {
	Op          string
	Framebuffer gpu.Framebuffer
	Program     gpu.Program
	Uniform     string
	Value       any
	Count       int
}

// Recorder is a fake gpu.Device. Handles are allocated from a single
// increasing counter so that no two objects ever share an id.
type Recorder struct {
	Calls []Call

	// Fail* force the matching creation to return an error.
	FailTextures     bool
	FailFramebuffers bool
	FailPrograms     bool
	// ProgramFailures counts CreateProgram calls rejected by FailPrograms.
	ProgramFailures int
	// IncompleteFramebuffers makes CheckFramebuffer report an error.
	IncompleteFramebuffers bool

	ScreenW, ScreenH int

	next          uint32
	textures      map[gpu.Texture]gpu.TextureDesc
	renderbuffers map[gpu.Renderbuffer]gpu.Region
	framebuffers  map[gpu.Framebuffer]map[gpu.Attachment]uint32
	programs      map[gpu.Program]map[string]int32
	meshes        map[gpu.VertexArray]int
	uniformNames  map[int32]string

	boundFB   gpu.Framebuffer
	boundProg gpu.Program
}

// NewRecorder returns a Recorder reporting an 800x600 screen.
func NewRecorder() *Recorder {
	return &Recorder{
		ScreenW:       800,
		ScreenH:       600,
		textures:      make(map[gpu.Texture]gpu.TextureDesc),
		renderbuffers: make(map[gpu.Renderbuffer]gpu.Region),
		framebuffers:  make(map[gpu.Framebuffer]map[gpu.Attachment]uint32),
		programs:      make(map[gpu.Program]map[string]int32),
		meshes:        make(map[gpu.VertexArray]int),
		uniformNames:  make(map[int32]string),
	}
}

var _ gpu.Device = (*Recorder)(nil)

func (r *Recorder) alloc() uint32 {
	r.next++
	return r.next
}

func (r *Recorder) record(c Call) {
	c.Framebuffer = r.boundFB
	c.Program = r.boundProg
	r.Calls = append(r.Calls, c)
}

// ── Resources ───────────────────────────────────────────────────────────────

func (r *Recorder) CreateTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	if r.FailTextures {
		return 0, errors.New("gputest: texture allocation refused")
	}
	if desc.Width <= 0 || (desc.Target != gpu.Texture1D && desc.Height <= 0) {
		return 0, fmt.Errorf("gputest: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	t := gpu.Texture(r.alloc())
	r.textures[t] = desc
	r.record(Call{Op: "CreateTexture", Value: t})
	return t, nil
}

func (r *Recorder) DeleteTexture(tex gpu.Texture) {
	if tex == 0 {
		return
	}
	delete(r.textures, tex)
	r.record(Call{Op: "DeleteTexture", Value: tex})
}

func (r *Recorder) CreateRenderbuffer(format gpu.Format, width, height int) (gpu.Renderbuffer, error) {
	if r.FailTextures {
		return 0, errors.New("gputest: renderbuffer allocation refused")
	}
	rb := gpu.Renderbuffer(r.alloc())
	r.renderbuffers[rb] = gpu.Region{Width: width, Height: height}
	r.record(Call{Op: "CreateRenderbuffer", Value: rb})
	return rb, nil
}

func (r *Recorder) DeleteRenderbuffer(rb gpu.Renderbuffer) {
	if rb == 0 {
		return
	}
	delete(r.renderbuffers, rb)
	r.record(Call{Op: "DeleteRenderbuffer", Value: rb})
}

func (r *Recorder) CreateFramebuffer() (gpu.Framebuffer, error) {
	if r.FailFramebuffers {
		return 0, errors.New("gputest: framebuffer allocation refused")
	}
	fb := gpu.Framebuffer(r.alloc())
	r.framebuffers[fb] = make(map[gpu.Attachment]uint32)
	r.record(Call{Op: "CreateFramebuffer", Value: fb})
	return fb, nil
}

func (r *Recorder) DeleteFramebuffer(fb gpu.Framebuffer) {
	if fb == 0 {
		return
	}
	delete(r.framebuffers, fb)
	r.record(Call{Op: "DeleteFramebuffer", Value: fb})
}

func (r *Recorder) AttachTexture(fb gpu.Framebuffer, at gpu.Attachment, tex gpu.Texture, face gpu.CubeFace) {
	if atts, ok := r.framebuffers[fb]; ok {
		atts[at] = uint32(tex)
	}
	r.record(Call{Op: "AttachTexture", Value: tex, Count: int(face)})
}

func (r *Recorder) AttachRenderbuffer(fb gpu.Framebuffer, at gpu.Attachment, rb gpu.Renderbuffer) {
	if atts, ok := r.framebuffers[fb]; ok {
		atts[at] = uint32(rb)
	}
	r.record(Call{Op: "AttachRenderbuffer", Value: rb})
}

func (r *Recorder) DrawBuffers(fb gpu.Framebuffer, count int) {
	r.record(Call{Op: "DrawBuffers", Count: count})
}

func (r *Recorder) CheckFramebuffer(fb gpu.Framebuffer) error {
	if r.IncompleteFramebuffers {
		return fmt.Errorf("framebuffer incomplete: status=0x%X", 0x8CD6)
	}
	return nil
}

func (r *Recorder) CreateProgram(vertSrc, fragSrc string) (gpu.Program, error) {
	if r.FailPrograms {
		r.ProgramFailures++
		return 0, errors.New("gputest: program link failed")
	}
	p := gpu.Program(r.alloc())
	r.programs[p] = make(map[string]int32)
	r.record(Call{Op: "CreateProgram", Value: p})
	return p, nil
}

func (r *Recorder) DeleteProgram(p gpu.Program) {
	if p == 0 {
		return
	}
	delete(r.programs, p)
	r.record(Call{Op: "DeleteProgram", Value: p})
}

// UniformLocation hands out a distinct location per (program, name) and
// remembers the name so uniform uploads can be asserted by name.
func (r *Recorder) UniformLocation(p gpu.Program, name string) int32 {
	locs, ok := r.programs[p]
	if !ok {
		return -1
	}
	if loc, ok := locs[name]; ok {
		return loc
	}
	loc := int32(r.alloc())
	locs[name] = loc
	r.uniformNames[loc] = name
	return loc
}

func (r *Recorder) UploadMesh(vertices []float32, indices []uint32) (gpu.VertexArray, error) {
	vao := gpu.VertexArray(r.alloc())
	r.meshes[vao] = len(vertices) / gpu.VertexStride
	return vao, nil
}

func (r *Recorder) DeleteMesh(vao gpu.VertexArray) {
	delete(r.meshes, vao)
}

// ── State ───────────────────────────────────────────────────────────────────

func (r *Recorder) BindFramebuffer(fb gpu.Framebuffer) {
	r.boundFB = fb
	r.record(Call{Op: "BindFramebuffer", Value: fb})
}

func (r *Recorder) Viewport(x, y, width, height int) {
	r.record(Call{Op: "Viewport", Value: gpu.Region{X: x, Y: y, Width: width, Height: height}})
}

func (r *Recorder) Clear(c gpu.ClearState) {
	r.record(Call{Op: "Clear", Value: c})
}

func (r *Recorder) UseProgram(p gpu.Program) {
	r.boundProg = p
	r.record(Call{Op: "UseProgram", Value: p})
}

func (r *Recorder) setUniform(loc int32, v any) {
	r.record(Call{Op: "SetUniform", Uniform: r.uniformNames[loc], Value: v})
}

func (r *Recorder) SetUniformInt(loc int32, v int32)       { r.setUniform(loc, v) }
func (r *Recorder) SetUniformFloat(loc int32, v float32)   { r.setUniform(loc, v) }
func (r *Recorder) SetUniformVec2(loc int32, v mgl32.Vec2) { r.setUniform(loc, v) }
func (r *Recorder) SetUniformVec3(loc int32, v mgl32.Vec3) { r.setUniform(loc, v) }
func (r *Recorder) SetUniformVec4(loc int32, v mgl32.Vec4) { r.setUniform(loc, v) }
func (r *Recorder) SetUniformMat4(loc int32, v mgl32.Mat4) { r.setUniform(loc, v) }

func (r *Recorder) BindTexture(slot int, target gpu.TextureTarget, tex gpu.Texture) {
	r.record(Call{Op: "BindTexture", Value: tex, Count: slot})
}

func (r *Recorder) SetBlend(b gpu.BlendState)     { r.record(Call{Op: "SetBlend", Value: b}) }
func (r *Recorder) SetDepth(d gpu.DepthState)     { r.record(Call{Op: "SetDepth", Value: d}) }
func (r *Recorder) SetStencil(s gpu.StencilState) { r.record(Call{Op: "SetStencil", Value: s}) }
func (r *Recorder) SetCull(c gpu.CullState)       { r.record(Call{Op: "SetCull", Value: c}) }
func (r *Recorder) SetColorMask(enabled bool)     { r.record(Call{Op: "SetColorMask", Value: enabled}) }

func (r *Recorder) SetScissor(enabled bool, rect gpu.Region) {
	if !enabled {
		rect = gpu.Region{}
	}
	r.record(Call{Op: "SetScissor", Value: rect, Count: boolCount(enabled)})
}

func boolCount(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ── Draws ───────────────────────────────────────────────────────────────────

func (r *Recorder) DrawMesh(vao gpu.VertexArray, vertexCount, indexCount int32) {
	r.record(Call{Op: "DrawMesh", Value: vao, Count: 1})
}

func (r *Recorder) DrawMeshInstanced(vao gpu.VertexArray, vertexCount, indexCount int32, inst gpu.InstanceData) {
	r.record(Call{Op: "DrawMeshInstanced", Value: vao, Count: inst.Available()})
}

func (r *Recorder) DrawScreenQuad() { r.record(Call{Op: "DrawScreenQuad"}) }
func (r *Recorder) DrawCube()       { r.record(Call{Op: "DrawCube"}) }

func (r *Recorder) Blit(b gpu.BlitDesc) {
	r.record(Call{Op: "Blit", Value: b})
}

func (r *Recorder) ScreenSize() (int, int) { return r.ScreenW, r.ScreenH }

// ── Inspection ──────────────────────────────────────────────────────────────

// Reset forgets recorded calls but keeps live resources.
func (r *Recorder) Reset() { r.Calls = r.Calls[:0] }

// Count returns how many calls with the given op were recorded.
func (r *Recorder) Count(op string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Filter returns the recorded calls with the given op.
func (r *Recorder) Filter(op string) []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// UniformValues returns every value uploaded to the named uniform, in order.
func (r *Recorder) UniformValues(name string) []any {
	var out []any
	for _, c := range r.Calls {
		if c.Op == "SetUniform" && c.Uniform == name {
			out = append(out, c.Value)
		}
	}
	return out
}

// DrawsInto counts draw commands issued while fb was bound.
func (r *Recorder) DrawsInto(fb gpu.Framebuffer) int {
	n := 0
	for _, c := range r.Calls {
		switch c.Op {
		case "DrawMesh", "DrawMeshInstanced", "DrawScreenQuad", "DrawCube":
			if c.Framebuffer == fb {
				n++
			}
		}
	}
	return n
}

// DrawsWith counts draw commands issued while program p was in use.
func (r *Recorder) DrawsWith(p gpu.Program) int {
	n := 0
	for _, c := range r.Calls {
		switch c.Op {
		case "DrawMesh", "DrawMeshInstanced", "DrawScreenQuad", "DrawCube":
			if c.Program == p {
				n++
			}
		}
	}
	return n
}

func (r *Recorder) LiveTextures() int      { return len(r.textures) }
func (r *Recorder) LiveFramebuffers() int  { return len(r.framebuffers) }
func (r *Recorder) LiveRenderbuffers() int { return len(r.renderbuffers) }
func (r *Recorder) LivePrograms() int      { return len(r.programs) }

// TextureDesc returns the description a live texture was created with.
func (r *Recorder) TextureDesc(tex gpu.Texture) (gpu.TextureDesc, bool) {
	d, ok := r.textures[tex]
	return d, ok
}

// IsLiveTexture reports whether tex was created and not yet deleted.
func (r *Recorder) IsLiveTexture(tex gpu.Texture) bool {
	_, ok := r.textures[tex]
	return ok
}

// IsLiveFramebuffer reports whether fb was created and not yet deleted.
func (r *Recorder) IsLiveFramebuffer(fb gpu.Framebuffer) bool {
	_, ok := r.framebuffers[fb]
	return ok
}

// RenderbufferSize returns the size of a live renderbuffer.
func (r *Recorder) RenderbufferSize(rb gpu.Renderbuffer) (gpu.Region, bool) {
	reg, ok := r.renderbuffers[rb]
	return reg, ok
}

// Attached returns the handle attached to fb at the given point, or zero.
func (r *Recorder) Attached(fb gpu.Framebuffer, at gpu.Attachment) uint32 {
	return r.framebuffers[fb][at]
}
