// Package gpu describes the host graphics API the renderer drives.
//
// The renderer never talks to OpenGL directly: every framebuffer, texture,
// program and draw goes through a Device. internal/opengl provides the go-gl
// implementation; gpu/gputest provides a recording fake for tests.
package gpu

import "github.com/go-gl/mathgl/mgl32"

// Object handles. The zero value of every handle means "no object".
type (
	Texture      uint32
	Framebuffer  uint32
	Renderbuffer uint32
	Program      uint32
	VertexArray  uint32
)

// DefaultFramebuffer is the window-system framebuffer.
const DefaultFramebuffer Framebuffer = 0

// VertexStride is the number of float32 values per vertex expected by
// UploadMesh: position(3) texcoord(2) normal(3) tangent(4) color(4).
const VertexStride = 16

// Vertex attribute locations shared by every raster program.
const (
	AttribPosition = 0
	AttribTexCoord = 1
	AttribNormal   = 2
	AttribTangent  = 3
	AttribColor    = 4
	// AttribInstanceTransform occupies four consecutive locations (one per column).
	AttribInstanceTransform = 5
	AttribInstanceColor     = 9
)

// Device is the capability surface of the host graphics API.
// All methods must be called from the thread owning the graphics context.
type Device interface {
	// ── Resources ───────────────────────────────────────────────────────────

	CreateTexture(desc TextureDesc) (Texture, error)
	DeleteTexture(tex Texture)
	CreateRenderbuffer(format Format, width, height int) (Renderbuffer, error)
	DeleteRenderbuffer(rb Renderbuffer)

	CreateFramebuffer() (Framebuffer, error)
	DeleteFramebuffer(fb Framebuffer)
	// AttachTexture binds tex (or one face of a cubemap when face != NoFace)
	// to the given attachment point of fb.
	AttachTexture(fb Framebuffer, at Attachment, tex Texture, face CubeFace)
	AttachRenderbuffer(fb Framebuffer, at Attachment, rb Renderbuffer)
	// DrawBuffers activates the first count color attachments of fb.
	DrawBuffers(fb Framebuffer, count int)
	CheckFramebuffer(fb Framebuffer) error

	CreateProgram(vertSrc, fragSrc string) (Program, error)
	DeleteProgram(p Program)
	UniformLocation(p Program, name string) int32

	UploadMesh(vertices []float32, indices []uint32) (VertexArray, error)
	DeleteMesh(vao VertexArray)

	// ── State ───────────────────────────────────────────────────────────────

	BindFramebuffer(fb Framebuffer)
	Viewport(x, y, width, height int)
	Clear(c ClearState)
	UseProgram(p Program)
	SetUniformInt(loc int32, v int32)
	SetUniformFloat(loc int32, v float32)
	SetUniformVec2(loc int32, v mgl32.Vec2)
	SetUniformVec3(loc int32, v mgl32.Vec3)
	SetUniformVec4(loc int32, v mgl32.Vec4)
	SetUniformMat4(loc int32, v mgl32.Mat4)
	BindTexture(slot int, target TextureTarget, tex Texture)
	SetBlend(b BlendState)
	SetDepth(d DepthState)
	SetStencil(s StencilState)
	SetCull(c CullState)
	SetColorMask(enabled bool)
	// SetScissor restricts rasterization to r when enabled.
	SetScissor(enabled bool, r Region)

	// ── Draws ───────────────────────────────────────────────────────────────

	// DrawMesh issues a non-instanced draw. indexCount > 0 selects indexed drawing.
	DrawMesh(vao VertexArray, vertexCount, indexCount int32)
	DrawMeshInstanced(vao VertexArray, vertexCount, indexCount int32, inst InstanceData)
	// DrawScreenQuad draws a full-screen triangle covering clip space.
	DrawScreenQuad()
	// DrawCube draws a unit cube centered on the origin (skybox geometry).
	DrawCube()

	Blit(b BlitDesc)

	// ScreenSize reports the size of the default framebuffer in pixels.
	ScreenSize() (width, height int)
}

// InstanceData is a strided view over per-instance transforms and colors.
// Strides are counted in float32 values between consecutive elements; zero
// means tightly packed (16 for a transform, 4 for a color).
type InstanceData struct {
	Transforms      []float32
	TransformStride int
	Colors          []float32
	ColorStride     int
	Count           int
}

// Stride helpers returning the effective element step.
func (d InstanceData) EffectiveTransformStride() int {
	if d.TransformStride <= 0 {
		return 16
	}
	return d.TransformStride
}

func (d InstanceData) EffectiveColorStride() int {
	if d.ColorStride <= 0 {
		return 4
	}
	return d.ColorStride
}

// HasColors reports whether the color stream holds at least one color. A
// shorter stream is ignored and instances draw white.
func (d InstanceData) HasColors() bool { return len(d.Colors) >= 4 }

// Available returns how many complete instances the slices can describe,
// bounded by Count.
func (d InstanceData) Available() int {
	n := d.Count
	if len(d.Transforms) < 16 {
		return 0
	}
	if fit := (len(d.Transforms)-16)/d.EffectiveTransformStride() + 1; fit < n {
		n = fit
	}
	if d.HasColors() {
		if fit := (len(d.Colors)-4)/d.EffectiveColorStride() + 1; fit < n {
			n = fit
		}
	}
	return n
}

// Transform returns the i-th instance transform.
func (d InstanceData) Transform(i int) mgl32.Mat4 {
	var m mgl32.Mat4
	off := i * d.EffectiveTransformStride()
	copy(m[:], d.Transforms[off:off+16])
	return m
}
