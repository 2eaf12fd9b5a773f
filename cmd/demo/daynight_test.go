package main

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSamplePaletteHitsKeys(t *testing.T) {
	for _, key := range palettes {
		got := samplePalette(key.t)
		if got.horizon != key.horizon || got.sunEnergy != key.sunEnergy {
			t.Errorf("t=%v: expected the key values, got %+v", key.t, got)
		}
	}
}

func TestSamplePaletteWraps(t *testing.T) {
	last, first := palettes[len(palettes)-1], palettes[0]
	mid := last.t + (1-last.t)/2
	got := samplePalette(mid)
	want := last.sunEnergy + (first.sunEnergy-last.sunEnergy)/2
	if d := got.sunEnergy - want; d > 1e-4 || d < -1e-4 {
		t.Errorf("wrap segment: expected energy %v, got %v", want, got.sunEnergy)
	}
}

func TestDayNightClock(t *testing.T) {
	dn := NewDayNight()
	tests := []struct {
		time float32
		want string
	}{
		{0, "12:00"},
		{0.25, "18:00"},
		{0.5, "00:00"},
		{0.75, "06:00"},
	}
	for _, tt := range tests {
		dn.Time = tt.time
		if got := dn.Clock(); got != tt.want {
			t.Errorf("Clock(%v) = %q, want %q", tt.time, got, tt.want)
		}
	}

	dn.Time = 0.9
	dn.Period = 10
	dn.Update(2)
	if dn.Time < 0.099 || dn.Time > 0.101 {
		t.Errorf("Update wrap: expected 0.1, got %v", dn.Time)
	}

	dn.Time = 0
	if d := dn.SunDirection(); d[1] >= 0 || !mgl32.FloatEqual(d.Len(), 1) {
		t.Errorf("noon sun direction %v should point down", d)
	}
}
