package math

import "golang.org/x/exp/constraints"

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// Rect is a screen-space rectangle in pixels, origin at the bottom-left.
type Rect struct {
	X, Y, Width, Height float32
}

// Empty reports whether the rectangle covers no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Overlaps reports whether r and o share a region of non-zero area.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.Width && r.X+r.Width > o.X &&
		r.Y < o.Y+o.Height && r.Y+r.Height > o.Y
}

// ClampTo shrinks r so that it lies inside a width x height viewport anchored
// at the origin. Negative origins are folded into the size first.
func (r Rect) ClampTo(width, height float32) Rect {
	if r.X < 0 {
		r.Width += r.X
		r.X = 0
	}
	if r.Y < 0 {
		r.Height += r.Y
		r.Y = 0
	}
	r.Width = Clamp(r.Width, 0, width-r.X)
	r.Height = Clamp(r.Height, 0, height-r.Y)
	return r
}
