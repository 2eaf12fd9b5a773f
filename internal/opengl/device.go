// Package opengl implements gpu.Device on an OpenGL 4.1 core context
// through go-gl.
package opengl

import (
	"fmt"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"r3d/gpu"
)

type meshBuffers struct {
	vbo, ebo    uint32
	instanceVBO uint32
	instanceCap int
}

// Device is the go-gl gpu.Device. Create it after the context is current
// and use it only from the thread owning that context.
type Device struct {
	screenSize func() (int, int)

	screenVAO        uint32
	cubeVAO, cubeVBO uint32
	meshes           map[gpu.VertexArray]*meshBuffers
	instances        []float32

	boundFB     gpu.Framebuffer
	depthWrite  bool
	stencilMask uint32
}

var _ gpu.Device = (*Device)(nil)

// NewDevice loads the GL function pointers and creates the built-in
// geometry. screenSize reports the default framebuffer size in pixels.
func NewDevice(screenSize func() (int, int)) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	d := &Device{
		screenSize:  screenSize,
		meshes:      make(map[gpu.VertexArray]*meshBuffers),
		depthWrite:  true,
		stencilMask: 0xFF,
	}

	// The screen triangle is generated from gl_VertexID; the VAO is empty.
	gl.GenVertexArrays(1, &d.screenVAO)

	verts := cubeVertices()
	gl.GenVertexArrays(1, &d.cubeVAO)
	gl.GenBuffers(1, &d.cubeVBO)
	gl.BindVertexArray(d.cubeVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.cubeVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(gpu.AttribPosition)
	gl.VertexAttribPointer(gpu.AttribPosition, 3, gl.FLOAT, false, 12, gl.PtrOffset(0))
	gl.BindVertexArray(0)

	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	return d, nil
}

// Version returns the GL version string of the current context.
func (d *Device) Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

// Close frees the built-in geometry and any mesh still resident.
func (d *Device) Close() {
	for vao := range d.meshes {
		d.DeleteMesh(vao)
	}
	gl.DeleteVertexArrays(1, &d.screenVAO)
	gl.DeleteVertexArrays(1, &d.cubeVAO)
	gl.DeleteBuffers(1, &d.cubeVBO)
}

// cubeVertices returns the 36 positions of a cube spanning [-1, 1].
func cubeVertices() []float32 {
	corners := [8]mgl32.Vec3{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	}
	faces := [6][4]int{
		{1, 5, 6, 2}, // +X
		{4, 0, 3, 7}, // -X
		{3, 2, 6, 7}, // +Y
		{4, 5, 1, 0}, // -Y
		{5, 4, 7, 6}, // +Z
		{0, 1, 2, 3}, // -Z
	}
	out := make([]float32, 0, 36*3)
	for _, f := range faces {
		for _, i := range [6]int{f[0], f[1], f[2], f[0], f[2], f[3]} {
			out = append(out, corners[i][:]...)
		}
	}
	return out
}

// ── Formats ─────────────────────────────────────────────────────────────────

type glFormat struct {
	internal int32
	format   uint32
	xtype    uint32
}

var formats = [...]glFormat{
	gpu.FormatR8:              {gl.R8, gl.RED, gl.UNSIGNED_BYTE},
	gpu.FormatRG8:             {gl.RG8, gl.RG, gl.UNSIGNED_BYTE},
	gpu.FormatRGB8:            {gl.RGB8, gl.RGB, gl.UNSIGNED_BYTE},
	gpu.FormatRGBA8:           {gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE},
	gpu.FormatR16F:            {gl.R16F, gl.RED, gl.FLOAT},
	gpu.FormatRG16F:           {gl.RG16F, gl.RG, gl.FLOAT},
	gpu.FormatRGB16F:          {gl.RGB16F, gl.RGB, gl.FLOAT},
	gpu.FormatRGBA16F:         {gl.RGBA16F, gl.RGBA, gl.FLOAT},
	gpu.FormatDepth16:         {gl.DEPTH_COMPONENT16, gl.DEPTH_COMPONENT, gl.FLOAT},
	gpu.FormatDepth24Stencil8: {gl.DEPTH24_STENCIL8, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8},
	gpu.FormatDepth32F:        {gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT},
}

func lookupFormat(f gpu.Format) (glFormat, error) {
	if f <= gpu.FormatNone || int(f) >= len(formats) {
		return glFormat{}, fmt.Errorf("unsupported format %s", f)
	}
	return formats[f], nil
}

var compareFuncs = [...]uint32{
	gpu.CompareNever:        gl.NEVER,
	gpu.CompareLess:         gl.LESS,
	gpu.CompareLessEqual:    gl.LEQUAL,
	gpu.CompareEqual:        gl.EQUAL,
	gpu.CompareGreater:      gl.GREATER,
	gpu.CompareNotEqual:     gl.NOTEQUAL,
	gpu.CompareGreaterEqual: gl.GEQUAL,
	gpu.CompareAlways:       gl.ALWAYS,
}

var blendFactors = [...]uint32{
	gpu.BlendZero:             gl.ZERO,
	gpu.BlendOne:              gl.ONE,
	gpu.BlendSrcAlpha:         gl.SRC_ALPHA,
	gpu.BlendOneMinusSrcAlpha: gl.ONE_MINUS_SRC_ALPHA,
	gpu.BlendDstColor:         gl.DST_COLOR,
}

var stencilOps = [...]uint32{
	gpu.StencilKeep:    gl.KEEP,
	gpu.StencilZero:    gl.ZERO,
	gpu.StencilReplace: gl.REPLACE,
}

func attachmentPoint(at gpu.Attachment) uint32 {
	switch at {
	case gpu.AttachDepth:
		return gl.DEPTH_ATTACHMENT
	case gpu.AttachDepthStencil:
		return gl.DEPTH_STENCIL_ATTACHMENT
	}
	return gl.COLOR_ATTACHMENT0 + uint32(at-gpu.AttachColor0)
}

func textureTarget(t gpu.TextureTarget) uint32 {
	switch t {
	case gpu.Texture1D:
		return gl.TEXTURE_1D
	case gpu.TextureCube:
		return gl.TEXTURE_CUBE_MAP
	}
	return gl.TEXTURE_2D
}

func bufferBits(m gpu.BufferMask) uint32 {
	var bits uint32
	if m&gpu.ColorBuffer != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if m&gpu.DepthBuffer != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	if m&gpu.StencilBuffer != 0 {
		bits |= gl.STENCIL_BUFFER_BIT
	}
	return bits
}

// ── Resources ───────────────────────────────────────────────────────────────

func (d *Device) CreateTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	f, err := lookupFormat(desc.Format)
	if err != nil {
		return 0, err
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, fmt.Errorf("invalid texture size %dx%d", desc.Width, desc.Height)
	}

	var pixels unsafe.Pointer
	xtype := f.xtype
	switch {
	case desc.Floats != nil:
		pixels, xtype = gl.Ptr(desc.Floats), gl.FLOAT
	case desc.Data != nil:
		pixels, xtype = gl.Ptr(desc.Data), gl.UNSIGNED_BYTE
	}

	target := textureTarget(desc.Target)
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(target, id)

	w, h := int32(desc.Width), int32(desc.Height)
	switch desc.Target {
	case gpu.Texture1D:
		gl.TexImage1D(target, 0, f.internal, w, 0, f.format, xtype, pixels)
	case gpu.TextureCube:
		faceSize := desc.Width * desc.Height * desc.Format.Channels()
		for face := 0; face < 6; face++ {
			var p unsafe.Pointer
			switch {
			case len(desc.Floats) >= (face+1)*faceSize:
				p = gl.Ptr(desc.Floats[face*faceSize:])
			case len(desc.Data) >= (face+1)*faceSize:
				p = gl.Ptr(desc.Data[face*faceSize:])
			}
			gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), 0, f.internal, w, h, 0, f.format, xtype, p)
		}
	default:
		gl.TexImage2D(target, 0, f.internal, w, h, 0, f.format, xtype, pixels)
	}

	mipmaps := desc.Target == gpu.Texture2D && desc.Wrap == gpu.WrapRepeat &&
		desc.Filter == gpu.FilterLinear && pixels != nil
	minFilter, magFilter := int32(gl.NEAREST), int32(gl.NEAREST)
	if desc.Filter == gpu.FilterLinear {
		minFilter, magFilter = gl.LINEAR, gl.LINEAR
	}
	if mipmaps {
		minFilter = gl.LINEAR_MIPMAP_LINEAR
		gl.GenerateMipmap(target)
	}
	gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, magFilter)

	wrap := int32(gl.CLAMP_TO_EDGE)
	switch desc.Wrap {
	case gpu.WrapRepeat:
		wrap = gl.REPEAT
	case gpu.WrapClampToBorder:
		wrap = gl.CLAMP_TO_BORDER
		border := [4]float32{1, 1, 1, 1}
		gl.TexParameterfv(target, gl.TEXTURE_BORDER_COLOR, &border[0])
	}
	gl.TexParameteri(target, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(target, gl.TEXTURE_WRAP_T, wrap)
	if desc.Target == gpu.TextureCube {
		gl.TexParameteri(target, gl.TEXTURE_WRAP_R, wrap)
	}

	gl.BindTexture(target, 0)
	return gpu.Texture(id), nil
}

func (d *Device) DeleteTexture(tex gpu.Texture) {
	id := uint32(tex)
	gl.DeleteTextures(1, &id)
}

func (d *Device) CreateRenderbuffer(format gpu.Format, width, height int) (gpu.Renderbuffer, error) {
	f, err := lookupFormat(format)
	if err != nil {
		return 0, err
	}
	var id uint32
	gl.GenRenderbuffers(1, &id)
	gl.BindRenderbuffer(gl.RENDERBUFFER, id)
	gl.RenderbufferStorage(gl.RENDERBUFFER, uint32(f.internal), int32(width), int32(height))
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	return gpu.Renderbuffer(id), nil
}

func (d *Device) DeleteRenderbuffer(rb gpu.Renderbuffer) {
	id := uint32(rb)
	gl.DeleteRenderbuffers(1, &id)
}

func (d *Device) CreateFramebuffer() (gpu.Framebuffer, error) {
	var id uint32
	gl.GenFramebuffers(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("glGenFramebuffers returned no name")
	}
	return gpu.Framebuffer(id), nil
}

func (d *Device) DeleteFramebuffer(fb gpu.Framebuffer) {
	if fb == d.boundFB {
		d.BindFramebuffer(gpu.DefaultFramebuffer)
	}
	id := uint32(fb)
	gl.DeleteFramebuffers(1, &id)
}

// withFramebuffer runs fn with fb bound, then restores the tracked binding.
func (d *Device) withFramebuffer(fb gpu.Framebuffer, fn func()) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
	fn()
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(d.boundFB))
}

func (d *Device) AttachTexture(fb gpu.Framebuffer, at gpu.Attachment, tex gpu.Texture, face gpu.CubeFace) {
	d.withFramebuffer(fb, func() {
		target := uint32(gl.TEXTURE_2D)
		if face != gpu.NoFace {
			target = gl.TEXTURE_CUBE_MAP_POSITIVE_X + uint32(face)
		}
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, attachmentPoint(at), target, uint32(tex), 0)
	})
}

func (d *Device) AttachRenderbuffer(fb gpu.Framebuffer, at gpu.Attachment, rb gpu.Renderbuffer) {
	d.withFramebuffer(fb, func() {
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, attachmentPoint(at), gl.RENDERBUFFER, uint32(rb))
	})
}

func (d *Device) DrawBuffers(fb gpu.Framebuffer, count int) {
	d.withFramebuffer(fb, func() {
		if count <= 0 {
			gl.DrawBuffer(gl.NONE)
			gl.ReadBuffer(gl.NONE)
			return
		}
		bufs := make([]uint32, count)
		for i := range bufs {
			bufs[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
		}
		gl.DrawBuffers(int32(count), &bufs[0])
	})
}

func (d *Device) CheckFramebuffer(fb gpu.Framebuffer) error {
	var status uint32
	d.withFramebuffer(fb, func() {
		status = gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	})
	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("framebuffer incomplete: status=0x%X", status)
	}
	return nil
}

// ── Programs ────────────────────────────────────────────────────────────────

func (d *Device) CreateProgram(vertSrc, fragSrc string) (gpu.Program, error) {
	p, err := newProgram(vertSrc, fragSrc)
	if err != nil {
		return 0, err
	}
	return gpu.Program(p), nil
}

func (d *Device) DeleteProgram(p gpu.Program) {
	gl.DeleteProgram(uint32(p))
}

func (d *Device) UniformLocation(p gpu.Program, name string) int32 {
	return gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
}

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link failed: %v", strings.TrimRight(log, "\x00"))
	}
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

// ── Meshes ──────────────────────────────────────────────────────────────────

func (d *Device) UploadMesh(vertices []float32, indices []uint32) (gpu.VertexArray, error) {
	if len(vertices) == 0 || len(vertices)%gpu.VertexStride != 0 {
		return 0, fmt.Errorf("vertex data of %d floats is not a multiple of %d", len(vertices), gpu.VertexStride)
	}
	var vao uint32
	buf := &meshBuffers{}
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)

	gl.GenBuffers(1, &buf.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	const stride = gpu.VertexStride * 4
	for _, a := range []struct {
		loc    uint32
		size   int32
		offset int
	}{
		{gpu.AttribPosition, 3, 0},
		{gpu.AttribTexCoord, 2, 3},
		{gpu.AttribNormal, 3, 5},
		{gpu.AttribTangent, 4, 8},
		{gpu.AttribColor, 4, 12},
	} {
		gl.EnableVertexAttribArray(a.loc)
		gl.VertexAttribPointer(a.loc, a.size, gl.FLOAT, false, stride, gl.PtrOffset(a.offset*4))
	}

	if len(indices) > 0 {
		gl.GenBuffers(1, &buf.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, buf.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
	}
	gl.BindVertexArray(0)

	d.meshes[gpu.VertexArray(vao)] = buf
	return gpu.VertexArray(vao), nil
}

func (d *Device) DeleteMesh(vao gpu.VertexArray) {
	buf, ok := d.meshes[vao]
	if !ok {
		return
	}
	id := uint32(vao)
	gl.DeleteVertexArrays(1, &id)
	for _, b := range []uint32{buf.vbo, buf.ebo, buf.instanceVBO} {
		if b != 0 {
			gl.DeleteBuffers(1, &b)
		}
	}
	delete(d.meshes, vao)
}

// uploadInstances packs inst into [transform(16) color(4)] records and
// streams them into the mesh's instance buffer, wiring the per-instance
// attributes on first use.
func (d *Device) uploadInstances(vao gpu.VertexArray, buf *meshBuffers, inst gpu.InstanceData, count int) {
	const perInstance = 20
	const stride = perInstance * 4

	if buf.instanceVBO == 0 {
		gl.GenBuffers(1, &buf.instanceVBO)
		gl.BindVertexArray(uint32(vao))
		gl.BindBuffer(gl.ARRAY_BUFFER, buf.instanceVBO)
		for i := uint32(0); i < 4; i++ {
			loc := gpu.AttribInstanceTransform + i
			gl.EnableVertexAttribArray(loc)
			gl.VertexAttribPointer(loc, 4, gl.FLOAT, false, stride, gl.PtrOffset(int(i)*16))
			gl.VertexAttribDivisor(loc, 1)
		}
		gl.EnableVertexAttribArray(gpu.AttribInstanceColor)
		gl.VertexAttribPointer(gpu.AttribInstanceColor, 4, gl.FLOAT, false, stride, gl.PtrOffset(64))
		gl.VertexAttribDivisor(gpu.AttribInstanceColor, 1)
	}

	d.instances = d.instances[:0]
	ts, cs := inst.EffectiveTransformStride(), inst.EffectiveColorStride()
	for i := 0; i < count; i++ {
		d.instances = append(d.instances, inst.Transforms[i*ts:i*ts+16]...)
		if inst.HasColors() {
			d.instances = append(d.instances, inst.Colors[i*cs:i*cs+4]...)
		} else {
			d.instances = append(d.instances, 1, 1, 1, 1)
		}
	}

	gl.BindVertexArray(uint32(vao))
	gl.BindBuffer(gl.ARRAY_BUFFER, buf.instanceVBO)
	size := len(d.instances) * 4
	if count > buf.instanceCap {
		gl.BufferData(gl.ARRAY_BUFFER, size, gl.Ptr(d.instances), gl.DYNAMIC_DRAW)
		buf.instanceCap = count
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, gl.Ptr(d.instances))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// ── State ───────────────────────────────────────────────────────────────────

func (d *Device) BindFramebuffer(fb gpu.Framebuffer) {
	d.boundFB = fb
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
}

func (d *Device) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

// Clear clears the bound framebuffer. Depth and stencil writes are enabled
// for the duration of the clear.
func (d *Device) Clear(c gpu.ClearState) {
	if c.Mask&gpu.ColorBuffer != 0 {
		gl.ClearColor(c.Color[0], c.Color[1], c.Color[2], c.Color[3])
	}
	if c.Mask&gpu.DepthBuffer != 0 {
		gl.ClearDepth(float64(c.Depth))
		gl.DepthMask(true)
	}
	if c.Mask&gpu.StencilBuffer != 0 {
		gl.ClearStencil(c.Stencil)
		gl.StencilMask(0xFF)
	}
	gl.Clear(bufferBits(c.Mask))
	gl.DepthMask(d.depthWrite)
	gl.StencilMask(d.stencilMask)
}

func (d *Device) UseProgram(p gpu.Program) { gl.UseProgram(uint32(p)) }

func (d *Device) SetUniformInt(loc int32, v int32)       { gl.Uniform1i(loc, v) }
func (d *Device) SetUniformFloat(loc int32, v float32)   { gl.Uniform1f(loc, v) }
func (d *Device) SetUniformVec2(loc int32, v mgl32.Vec2) { gl.Uniform2f(loc, v[0], v[1]) }
func (d *Device) SetUniformVec3(loc int32, v mgl32.Vec3) { gl.Uniform3f(loc, v[0], v[1], v[2]) }
func (d *Device) SetUniformVec4(loc int32, v mgl32.Vec4) { gl.Uniform4f(loc, v[0], v[1], v[2], v[3]) }
func (d *Device) SetUniformMat4(loc int32, v mgl32.Mat4) { gl.UniformMatrix4fv(loc, 1, false, &v[0]) }

func (d *Device) BindTexture(slot int, target gpu.TextureTarget, tex gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(slot))
	gl.BindTexture(textureTarget(target), uint32(tex))
}

func (d *Device) SetBlend(b gpu.BlendState) {
	if !b.Enabled {
		gl.Disable(gl.BLEND)
		return
	}
	gl.Enable(gl.BLEND)
	gl.BlendFunc(blendFactors[b.Src], blendFactors[b.Dst])
}

func (d *Device) SetDepth(s gpu.DepthState) {
	if s.Test {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(s.Write)
	gl.DepthFunc(compareFuncs[s.Func])
	d.depthWrite = s.Write
}

func (d *Device) SetStencil(s gpu.StencilState) {
	if !s.Enabled {
		gl.Disable(gl.STENCIL_TEST)
		return
	}
	gl.Enable(gl.STENCIL_TEST)
	gl.StencilFunc(compareFuncs[s.Func], s.Ref, s.ReadMask)
	gl.StencilOp(stencilOps[s.Fail], stencilOps[s.DepthFail], stencilOps[s.Pass])
	gl.StencilMask(s.WriteMask)
	d.stencilMask = s.WriteMask
}

func (d *Device) SetCull(c gpu.CullState) {
	if !c.Enabled {
		gl.Disable(gl.CULL_FACE)
		return
	}
	gl.Enable(gl.CULL_FACE)
	if c.Face == gpu.CullFront {
		gl.CullFace(gl.FRONT)
	} else {
		gl.CullFace(gl.BACK)
	}
}

func (d *Device) SetColorMask(enabled bool) {
	gl.ColorMask(enabled, enabled, enabled, enabled)
}

func (d *Device) SetScissor(enabled bool, r gpu.Region) {
	if !enabled {
		gl.Disable(gl.SCISSOR_TEST)
		return
	}
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(int32(r.X), int32(r.Y), int32(r.Width), int32(r.Height))
}

// ── Draws ───────────────────────────────────────────────────────────────────

func (d *Device) DrawMesh(vao gpu.VertexArray, vertexCount, indexCount int32) {
	gl.BindVertexArray(uint32(vao))
	if indexCount > 0 {
		gl.DrawElements(gl.TRIANGLES, indexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, vertexCount)
	}
	gl.BindVertexArray(0)
}

func (d *Device) DrawMeshInstanced(vao gpu.VertexArray, vertexCount, indexCount int32, inst gpu.InstanceData) {
	buf, ok := d.meshes[vao]
	count := inst.Available()
	if !ok || count <= 0 {
		return
	}
	d.uploadInstances(vao, buf, inst, count)
	if indexCount > 0 {
		gl.DrawElementsInstanced(gl.TRIANGLES, indexCount, gl.UNSIGNED_INT, nil, int32(count))
	} else {
		gl.DrawArraysInstanced(gl.TRIANGLES, 0, vertexCount, int32(count))
	}
	gl.BindVertexArray(0)
}

func (d *Device) DrawScreenQuad() {
	gl.BindVertexArray(d.screenVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
}

func (d *Device) DrawCube() {
	gl.BindVertexArray(d.cubeVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 36)
	gl.BindVertexArray(0)
}

func (d *Device) Blit(b gpu.BlitDesc) {
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(b.Src))
	if b.Src != gpu.DefaultFramebuffer && b.Mask&gpu.ColorBuffer != 0 {
		gl.ReadBuffer(attachmentPoint(b.SrcAttachment))
	}
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, uint32(b.Dst))

	filter := uint32(gl.NEAREST)
	if b.Filter == gpu.FilterLinear && b.Mask == gpu.ColorBuffer {
		filter = gl.LINEAR
	}
	s, t := b.SrcRect, b.DstRect
	gl.BlitFramebuffer(
		int32(s.X), int32(s.Y), int32(s.X+s.Width), int32(s.Y+s.Height),
		int32(t.X), int32(t.Y), int32(t.X+t.Width), int32(t.Y+t.Height),
		bufferBits(b.Mask), filter)

	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(d.boundFB))
}

func (d *Device) ScreenSize() (int, int) {
	if d.screenSize == nil {
		var vp [4]int32
		gl.GetIntegerv(gl.VIEWPORT, &vp[0])
		return int(vp[2]), int(vp[3])
	}
	return d.screenSize()
}
