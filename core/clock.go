package core

import "time"

// Clock reports the time elapsed since the previous frame.
type Clock interface {
	// FrameTime returns the last frame duration in seconds.
	FrameTime() float32
}

// WallClock measures frame time with the monotonic clock. Tick must be
// called once per frame.
type WallClock struct {
	last  time.Time
	delta float32
}

func NewWallClock() *WallClock {
	return &WallClock{last: time.Now()}
}

// Tick samples the clock and stores the duration since the previous Tick.
func (c *WallClock) Tick() {
	now := time.Now()
	c.delta = float32(now.Sub(c.last).Seconds())
	c.last = now
}

func (c *WallClock) FrameTime() float32 { return c.delta }

// FixedClock always reports the same frame time.
type FixedClock float32

func (c FixedClock) FrameTime() float32 { return float32(c) }
