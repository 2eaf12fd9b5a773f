package scene

import "testing"

func TestParticleEmitterLifecycle(t *testing.T) {
	e := NewParticleEmitter(16)
	e.Rate = 100
	e.MinLife, e.MaxLife = 0.5, 0.5

	e.Update(0.1) // 10 spawned
	if got := e.Count(); got != 10 {
		t.Fatalf("expected 10 live particles, got %d", got)
	}
	e.Update(0.1) // 6 more until the pool is full
	if got := e.Count(); got != 16 {
		t.Fatalf("expected pool capped at 16, got %d", got)
	}

	e.Active = false
	e.Update(1)
	if got := e.Count(); got != 0 {
		t.Errorf("expected every particle to expire, got %d", got)
	}
}

func TestParticlePack(t *testing.T) {
	e := NewSmokeEmitter(8)
	if inst := e.Pack(); inst.Count != 0 || inst.Available() != 0 {
		t.Errorf("empty emitter should pack to zero instances, got %+v", inst)
	}

	e.Rate = 40
	e.Update(0.1)
	n := e.Count()
	inst := e.Pack()
	if inst.Count != n || inst.Available() != n {
		t.Fatalf("expected %d packed instances, got count=%d available=%d", n, inst.Count, inst.Available())
	}
	if inst.TransformStride != ParticleStride || inst.ColorStride != ParticleStride {
		t.Errorf("unexpected strides %d/%d", inst.TransformStride, inst.ColorStride)
	}
	last := n - 1
	m := inst.Transform(last)
	p := e.Particles[last]
	if m[12] != p.Position[0] || m[13] != p.Position[1] || m[14] != p.Position[2] {
		t.Errorf("transform translation mismatch: %v vs %v", m.Col(3), p.Position)
	}
	if inst.Colors[last*ParticleStride+3] != p.Color.A {
		t.Errorf("packed alpha mismatch")
	}
}
