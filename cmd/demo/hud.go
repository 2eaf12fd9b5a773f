package main

import (
	"fmt"
	"strings"

	"r3d/renderer"
)

// hudInterval is how often, in seconds, the title bar stats refresh.
const hudInterval = 0.5

// HUD accumulates frame timings and renders a one-line summary of the last
// frame's stats into the window title.
type HUD struct {
	base    string
	lines   []string
	elapsed float32
	frames  int
	dirty   bool
}

func NewHUD(base string) *HUD {
	return &HUD{base: base}
}

func (h *HUD) AddLine(format string, args ...any) {
	h.lines = append(h.lines, fmt.Sprintf(format, args...))
}

func (h *HUD) Clear() { h.lines = h.lines[:0] }

// Update counts one frame and rebuilds the summary every hudInterval.
func (h *HUD) Update(dt float32, stats renderer.FrameStats, dn *DayNight) {
	h.elapsed += dt
	h.frames++
	if h.elapsed < hudInterval {
		return
	}
	fps := float32(h.frames) / h.elapsed
	h.elapsed, h.frames = 0, 0

	h.Clear()
	h.AddLine("%.0f fps", fps)
	h.AddLine("%d deferred / %d forward", stats.DeferredCalls, stats.ForwardCalls)
	h.AddLine("%d lights, %d shadow maps", stats.Lights, stats.ShadowMaps)
	h.AddLine("%d passes", len(stats.Passes))
	h.AddLine("%s", dn.Clock())
	h.dirty = true
}

// Dirty reports whether the summary changed since the last Title call.
func (h *HUD) Dirty() bool { return h.dirty }

func (h *HUD) Title() string {
	h.dirty = false
	if len(h.lines) == 0 {
		return h.base
	}
	return h.base + " | " + strings.Join(h.lines, " | ")
}
