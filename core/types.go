package core

import "github.com/go-gl/mathgl/mgl32"

// Color is a linear RGBA color with components in [0,1].
type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
	ColorGray  = Color{0.2, 0.2, 0.2, 1}
)

// NewColor8 builds a Color from 8-bit channels.
func NewColor8(r, g, b, a uint8) Color {
	return Color{float32(r) / 255, float32(g) / 255, float32(b) / 255, float32(a) / 255}
}

// Vec3 returns the RGB channels.
func (c Color) Vec3() mgl32.Vec3 { return mgl32.Vec3{c.R, c.G, c.B} }

// Vec4 returns the RGBA channels.
func (c Color) Vec4() mgl32.Vec4 { return mgl32.Vec4{c.R, c.G, c.B, c.A} }

// Array returns the channels in clear-color order.
func (c Color) Array() [4]float32 { return [4]float32{c.R, c.G, c.B, c.A} }

// Alpha8 returns the alpha channel quantized to 8 bits.
func (c Color) Alpha8() uint8 {
	a := c.A
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	return uint8(a*255 + 0.5)
}

// ColorFromVec3 builds an opaque Color from an RGB vector.
func ColorFromVec3(v mgl32.Vec3) Color { return Color{v[0], v[1], v[2], 1} }
