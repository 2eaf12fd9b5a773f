package scene

import (
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Sprite is a texture atlas of XFrames x YFrames equally sized frames,
// drawn on a quad. CurrentFrame is fractional so animation speed can be
// expressed in frames per update.
type Sprite struct {
	Material     *Material
	CurrentFrame float32
	FrameSize    mgl32.Vec2 // in pixels
	XFrames      int
	YFrames      int
}

// NewSprite builds a sprite from an atlas texture. Frame counts below one are
// treated as one.
func NewSprite(tex *Texture, xFrames, yFrames int) *Sprite {
	xFrames = max(xFrames, 1)
	yFrames = max(yFrames, 1)
	mat := DefaultMaterial()
	mat.Name = "Sprite"
	mat.Albedo.Texture = tex
	mat.Occlusion.Value = 1

	s := &Sprite{
		Material: mat,
		XFrames:  xFrames,
		YFrames:  yFrames,
	}
	if tex != nil {
		s.FrameSize = mgl32.Vec2{float32(tex.Width / xFrames), float32(tex.Height / yFrames)}
	}
	return s
}

// FrameCount returns the number of frames in the atlas.
func (s *Sprite) FrameCount() int { return s.XFrames * s.YFrames }

// Update advances the animation by speed frames, wrapping over the full atlas.
func (s *Sprite) Update(speed float32) {
	s.UpdateRange(0, s.FrameCount(), speed)
}

// UpdateRange advances the animation by speed frames, wrapping into
// [first, last).
func (s *Sprite) UpdateRange(first, last int, speed float32) {
	s.CurrentFrame = wrap(s.CurrentFrame+speed, float32(first), float32(last))
}

func wrap(v, lo, hi float32) float32 {
	span := hi - lo
	if span <= 0 {
		return lo
	}
	return v - span*float32(stdmath.Floor(float64((v-lo)/span)))
}

// frameIndex returns the column and row of the current frame.
func (s *Sprite) frameIndex() (int, int) {
	n := s.FrameCount()
	if n <= 0 {
		return 0, 0
	}
	idx := int(s.CurrentFrame) % n
	if idx < 0 {
		idx += n
	}
	return idx % s.XFrames, idx / s.XFrames
}

// FrameRect returns the current frame rectangle in atlas pixels.
func (s *Sprite) FrameRect() (x, y, w, h float32) {
	fx, fy := s.frameIndex()
	return float32(fx) * s.FrameSize[0], float32(fy) * s.FrameSize[1], s.FrameSize[0], s.FrameSize[1]
}

// FrameUV returns the texture-coordinate scale and offset selecting the
// current frame. signX and signY (±1) mirror the frame.
func (s *Sprite) FrameUV(signX, signY float32) (scale, offset mgl32.Vec2) {
	scale = mgl32.Vec2{signX / float32(max(s.XFrames, 1)), signY / float32(max(s.YFrames, 1))}
	fx, fy := s.frameIndex()
	offset = mgl32.Vec2{float32(fx) * scale[0], float32(fy) * scale[1]}
	return scale, offset
}
