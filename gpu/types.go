package gpu

// TextureTarget selects the texture binding point.
type TextureTarget int

const (
	Texture2D TextureTarget = iota
	Texture1D
	TextureCube
)

// Format is a texture or renderbuffer storage format.
type Format int

const (
	FormatNone Format = iota
	FormatR8
	FormatRG8
	FormatRGB8
	FormatRGBA8
	FormatR16F
	FormatRG16F
	FormatRGB16F
	FormatRGBA16F
	FormatDepth16
	FormatDepth24Stencil8
	FormatDepth32F
)

var formatNames = [...]string{
	FormatNone:            "none",
	FormatR8:              "r8",
	FormatRG8:             "rg8",
	FormatRGB8:            "rgb8",
	FormatRGBA8:           "rgba8",
	FormatR16F:            "r16f",
	FormatRG16F:           "rg16f",
	FormatRGB16F:          "rgb16f",
	FormatRGBA16F:         "rgba16f",
	FormatDepth16:         "depth16",
	FormatDepth24Stencil8: "depth24stencil8",
	FormatDepth32F:        "depth32f",
}

func (f Format) String() string {
	if f >= 0 && int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "unknown"
}

// HasAlpha reports whether the format stores an alpha channel.
func (f Format) HasAlpha() bool {
	return f == FormatRGBA8 || f == FormatRGBA16F || f == FormatRG8
}

// IsDepth reports whether the format is a depth (or depth-stencil) format.
func (f Format) IsDepth() bool {
	return f == FormatDepth16 || f == FormatDepth24Stencil8 || f == FormatDepth32F
}

// Channels returns the number of components per texel.
func (f Format) Channels() int {
	switch f {
	case FormatR8, FormatR16F, FormatDepth16, FormatDepth32F, FormatDepth24Stencil8:
		return 1
	case FormatRG8, FormatRG16F:
		return 2
	case FormatRGB8, FormatRGB16F:
		return 3
	case FormatRGBA8, FormatRGBA16F:
		return 4
	}
	return 0
}

type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
)

type Wrap int

const (
	WrapClampToEdge Wrap = iota
	WrapRepeat
	WrapClampToBorder
)

// TextureDesc describes a texture allocation. Data holds optional 8-bit
// texels and Floats optional float texels; both are tightly packed rows.
type TextureDesc struct {
	Target TextureTarget
	Format Format
	Width  int
	Height int
	Filter Filter
	Wrap   Wrap
	Data   []byte
	Floats []float32
}

// Attachment is a framebuffer attachment point.
type Attachment int

const (
	AttachDepth Attachment = iota - 2
	AttachDepthStencil
	AttachColor0
)

// ColorAttachment returns the i-th color attachment point.
func ColorAttachment(i int) Attachment { return AttachColor0 + Attachment(i) }

// CubeFace selects one face of a cubemap. NoFace attaches a 2D texture.
type CubeFace int

const (
	NoFace CubeFace = iota - 1
	FacePosX
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

type BufferMask uint32

const (
	ColorBuffer BufferMask = 1 << iota
	DepthBuffer
	StencilBuffer
)

// ClearState describes a clear of the bound framebuffer.
type ClearState struct {
	Mask    BufferMask
	Color   [4]float32
	Depth   float32
	Stencil int32
}

type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstColor
)

type BlendState struct {
	Enabled bool
	Src     BlendFactor
	Dst     BlendFactor
}

type CompareFunc int

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareLessEqual
	CompareEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

type DepthState struct {
	Test  bool
	Write bool
	Func  CompareFunc
}

type StencilOp int

const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilReplace
)

type StencilState struct {
	Enabled   bool
	Func      CompareFunc
	Ref       int32
	ReadMask  uint32
	WriteMask uint32
	Fail      StencilOp
	DepthFail StencilOp
	Pass      StencilOp
}

type CullFace int

const (
	CullBack CullFace = iota
	CullFront
)

type CullState struct {
	Enabled bool
	Face    CullFace
}

// Region is an integer pixel rectangle.
type Region struct {
	X, Y, Width, Height int
}

// BlitDesc copies a region of one framebuffer attachment to another.
type BlitDesc struct {
	Src           Framebuffer
	SrcAttachment Attachment
	Dst           Framebuffer
	SrcRect       Region
	DstRect       Region
	Mask          BufferMask
	Filter        Filter
}
