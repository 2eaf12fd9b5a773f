package renderer

import (
	gomath "math"

	"r3d/gpu"
	"r3d/lighting"
	rmath "r3d/math"
)

// lightBatchEntry is a light visible this frame with its screen rectangle,
// clamped to the internal resolution.
type lightBatchEntry struct {
	id    lighting.LightID
	light *lighting.Light
	rect  rmath.Rect
}

// buildLightBatch advances the shadow schedules of every enabled light and
// keeps those whose projected volume overlaps the viewport, in registry
// order.
func (r *Renderer) buildLightBatch() {
	r.batch = r.batch[:0]
	proj := rmath.NewScreenProjection(r.frame.Position, r.frame.ViewProj, r.width, r.height)
	full := proj.Full()
	dt := r.frame.DeltaTime

	r.lights.Each(func(id lighting.LightID, l *lighting.Light) {
		if !l.Enabled {
			return
		}
		if l.Shadow.Enabled {
			l.Shadow.Advance(dt)
		}
		rect := lightRect(proj, l)
		if !rect.Overlaps(full) {
			return
		}
		r.batch = append(r.batch, lightBatchEntry{
			id:    id,
			light: l,
			rect:  rect.ClampTo(full.Width, full.Height),
		})
	})
}

func lightRect(proj rmath.ScreenProjection, l *lighting.Light) rmath.Rect {
	switch l.Type {
	case lighting.LightSpot:
		base := float32(gomath.Abs(float64(l.Range * l.OuterCutOff)))
		return proj.ConeRect(l.Position, l.Direction, l.Range, base)
	case lighting.LightOmni:
		return proj.SphereRect(l.Position, l.Range)
	default:
		return proj.Full()
	}
}

// scissorRegion converts a batch rectangle to whole pixels, rounding
// outward.
func scissorRegion(rect rmath.Rect) gpu.Region {
	x0 := int(gomath.Floor(float64(rect.X)))
	y0 := int(gomath.Floor(float64(rect.Y)))
	x1 := int(gomath.Ceil(float64(rect.X + rect.Width)))
	y1 := int(gomath.Ceil(float64(rect.Y + rect.Height)))
	return gpu.Region{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
