package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSpriteUpdateWraps(t *testing.T) {
	s := NewSprite(&Texture{Width: 64, Height: 32}, 4, 2)
	if s.FrameSize != (mgl32.Vec2{16, 16}) {
		t.Errorf("FrameSize: expected (16,16), got %v", s.FrameSize)
	}

	s.CurrentFrame = 7.5
	s.Update(1)
	if s.CurrentFrame != 0.5 {
		t.Errorf("Update: expected wrap to 0.5, got %v", s.CurrentFrame)
	}

	s.UpdateRange(2, 4, -1)
	if s.CurrentFrame != 3.5 {
		t.Errorf("UpdateRange: expected 3.5, got %v", s.CurrentFrame)
	}
}

func TestSpriteFrameUV(t *testing.T) {
	s := NewSprite(&Texture{Width: 64, Height: 32}, 4, 2)
	s.CurrentFrame = 6.9 // column 2, row 1

	scale, offset := s.FrameUV(1, 1)
	if scale != (mgl32.Vec2{0.25, 0.5}) {
		t.Errorf("scale: expected (0.25,0.5), got %v", scale)
	}
	if offset != (mgl32.Vec2{0.5, 0.5}) {
		t.Errorf("offset: expected (0.5,0.5), got %v", offset)
	}

	scale, offset = s.FrameUV(-1, 1)
	if scale[0] != -0.25 || offset[0] != -0.5 {
		t.Errorf("mirrored: got scale %v offset %v", scale, offset)
	}

	x, y, w, h := s.FrameRect()
	if x != 32 || y != 16 || w != 16 || h != 16 {
		t.Errorf("FrameRect: got (%v,%v,%v,%v)", x, y, w, h)
	}
}

func TestSpriteZeroFrames(t *testing.T) {
	s := NewSprite(nil, 0, 0)
	if s.FrameCount() != 1 {
		t.Errorf("expected frame counts clamped to 1, got %d", s.FrameCount())
	}
	s.Update(3)
	if s.CurrentFrame != 0 {
		t.Errorf("single-frame sprite should stay on frame 0, got %v", s.CurrentFrame)
	}
}
