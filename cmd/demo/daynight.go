package main

import (
	"fmt"
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"

	"r3d/core"
	"r3d/lighting"
	"r3d/renderer"
)

// dayPalette holds the sky and light values for one key time of day.
type dayPalette struct {
	t          float32 // normalised time 0..1
	horizon    core.Color
	fogColor   core.Color
	fogDensity float32
	sunColor   core.Color
	sunEnergy  float32
	ambient    core.Color
}

// palettes are ordered by t and wrap (0 == 1).
var palettes = []dayPalette{
	{ // noon
		t:          0.00,
		horizon:    core.Color{R: 0.58, G: 0.75, B: 0.95, A: 1},
		fogColor:   core.Color{R: 0.62, G: 0.78, B: 0.95, A: 1},
		fogDensity: 0.011,
		sunColor:   core.Color{R: 1.00, G: 0.98, B: 0.92, A: 1},
		sunEnergy:  3.0,
		ambient:    core.Color{R: 0.16, G: 0.18, B: 0.26, A: 1},
	},
	{ // golden hour
		t:          0.22,
		horizon:    core.Color{R: 0.90, G: 0.52, B: 0.18, A: 1},
		fogColor:   core.Color{R: 0.85, G: 0.55, B: 0.25, A: 1},
		fogDensity: 0.018,
		sunColor:   core.Color{R: 1.00, G: 0.65, B: 0.25, A: 1},
		sunEnergy:  2.2,
		ambient:    core.Color{R: 0.10, G: 0.12, B: 0.20, A: 1},
	},
	{ // dusk
		t:          0.30,
		horizon:    core.Color{R: 0.50, G: 0.22, B: 0.28, A: 1},
		fogColor:   core.Color{R: 0.35, G: 0.18, B: 0.22, A: 1},
		fogDensity: 0.020,
		sunColor:   core.Color{R: 0.70, G: 0.40, B: 0.55, A: 1},
		sunEnergy:  0.6,
		ambient:    core.Color{R: 0.06, G: 0.07, B: 0.14, A: 1},
	},
	{ // midnight, moonlight
		t:          0.50,
		horizon:    core.Color{R: 0.04, G: 0.04, B: 0.08, A: 1},
		fogColor:   core.Color{R: 0.03, G: 0.03, B: 0.06, A: 1},
		fogDensity: 0.010,
		sunColor:   core.Color{R: 0.40, G: 0.45, B: 0.65, A: 1},
		sunEnergy:  0.3,
		ambient:    core.Color{R: 0.03, G: 0.04, B: 0.09, A: 1},
	},
	{ // pre-dawn
		t:          0.70,
		horizon:    core.Color{R: 0.40, G: 0.18, B: 0.24, A: 1},
		fogColor:   core.Color{R: 0.30, G: 0.15, B: 0.20, A: 1},
		fogDensity: 0.020,
		sunColor:   core.Color{R: 0.75, G: 0.42, B: 0.60, A: 1},
		sunEnergy:  0.5,
		ambient:    core.Color{R: 0.06, G: 0.07, B: 0.14, A: 1},
	},
	{ // sunrise
		t:          0.78,
		horizon:    core.Color{R: 0.88, G: 0.45, B: 0.22, A: 1},
		fogColor:   core.Color{R: 0.75, G: 0.40, B: 0.20, A: 1},
		fogDensity: 0.015,
		sunColor:   core.Color{R: 1.00, G: 0.60, B: 0.28, A: 1},
		sunEnergy:  1.8,
		ambient:    core.Color{R: 0.09, G: 0.10, B: 0.17, A: 1},
	},
}

// DayNight drives the animated day/night cycle.
type DayNight struct {
	Time   float32 // 0..1: 0=noon, 0.25=sunset, 0.5=midnight, 0.75=sunrise
	Period float32 // full-cycle duration in seconds
	Active bool
}

func NewDayNight() *DayNight {
	return &DayNight{Period: 120, Active: true}
}

func (dn *DayNight) Update(dt float32) {
	if !dn.Active || dn.Period <= 0 {
		return
	}
	dn.Time += dt / dn.Period
	dn.Time -= float32(stdmath.Floor(float64(dn.Time)))
}

func lerpColor(a, b core.Color, t float32) core.Color {
	return core.Color{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: 1,
	}
}

// samplePalette interpolates the two keys surrounding t, wrapping from the
// last key back to the first.
func samplePalette(t float32) dayPalette {
	n := len(palettes)
	a, b := palettes[n-1], palettes[0]
	span := b.t + 1 - a.t
	local := t - a.t
	if local < 0 {
		local += 1
	}
	for i := 0; i+1 < n; i++ {
		if t >= palettes[i].t && t < palettes[i+1].t {
			a, b = palettes[i], palettes[i+1]
			span = b.t - a.t
			local = t - a.t
			break
		}
	}
	f := local / span

	return dayPalette{
		t:          t,
		horizon:    lerpColor(a.horizon, b.horizon, f),
		fogColor:   lerpColor(a.fogColor, b.fogColor, f),
		fogDensity: a.fogDensity + (b.fogDensity-a.fogDensity)*f,
		sunColor:   lerpColor(a.sunColor, b.sunColor, f),
		sunEnergy:  a.sunEnergy + (b.sunEnergy-a.sunEnergy)*f,
		ambient:    lerpColor(a.ambient, b.ambient, f),
	}
}

// SunDirection rotates the sun once per cycle in the XY plane, tilted
// along Z. At noon it points straight down.
func (dn *DayNight) SunDirection() mgl32.Vec3 {
	angle := float64(dn.Time) * 2 * stdmath.Pi
	return mgl32.Vec3{
		float32(stdmath.Sin(angle)),
		-float32(stdmath.Cos(angle)),
		0.35,
	}.Normalize()
}

// Apply pushes the current sky and sun state to the renderer.
func (dn *DayNight) Apply(r *renderer.Renderer, sun lighting.LightID) {
	p := samplePalette(dn.Time)

	r.SetLightDirection(sun, dn.SunDirection())
	r.SetLightColor(sun, p.sunColor)
	r.SetLightEnergy(sun, p.sunEnergy)

	r.SetAmbientColor(p.ambient)
	r.SetBackgroundColor(p.horizon)
	r.SetFogColor(p.fogColor)
	r.SetFogDensity(p.fogDensity)
}

// Clock returns the time of day as a 24-hour "hh:mm" label.
func (dn *DayNight) Clock() string {
	minutes := int(dn.Time*24*60+12*60) % (24 * 60)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
