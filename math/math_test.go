package math

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func testProjection(w, h int) ScreenProjection {
	eye := mgl32.Vec3{0, 0, 5}
	view := mgl32.LookAtV(eye, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	proj := Perspective(mgl32.DegToRad(60), float32(w)/float32(h), 0.1, 100)
	return NewScreenProjection(eye, proj.Mul4(view), w, h)
}

func approx(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-3
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Errorf("Clamp: expected 3, got %v", got)
	}
	if got := Clamp(-1.5, 0, 3); got != 0 {
		t.Errorf("Clamp: expected 0, got %v", got)
	}
	if got := Clamp(float32(1.5), 0, 3); got != 1.5 {
		t.Errorf("Clamp: expected 1.5, got %v", got)
	}
}

func TestFrustumPoint(t *testing.T) {
	p := testProjection(800, 600)
	f := p.Frustum

	if !f.ContainsPoint(mgl32.Vec3{0, 0, 0}) {
		t.Error("ContainsPoint: origin in front of the camera should be inside")
	}
	if f.ContainsPoint(mgl32.Vec3{0, 0, 10}) {
		t.Error("ContainsPoint: point behind the camera should be outside")
	}
	if f.ContainsPoint(mgl32.Vec3{0, 0, -200}) {
		t.Error("ContainsPoint: point past the far plane should be outside")
	}
}

func TestFrustumPlanesNormalized(t *testing.T) {
	f := testProjection(800, 600).Frustum
	for i, pl := range f.Planes {
		if !approx(pl.Normal.Len(), 1) {
			t.Errorf("plane %d: expected unit normal, got length %v", i, pl.Normal.Len())
		}
	}
	// Near plane sits 0.1 in front of the eye at z=5.
	if d := f.Planes[4].DistanceTo(mgl32.Vec3{0, 0, 4.9}); !approx(d, 0) {
		t.Errorf("near plane: expected distance 0 at z=4.9, got %v", d)
	}
}

func TestFrustumSphere(t *testing.T) {
	f := testProjection(800, 600).Frustum

	if !f.ContainsSphere(mgl32.Vec3{0, 0, 0}, 1) {
		t.Error("ContainsSphere: centered sphere should be visible")
	}
	// Just behind the near plane but overlapping it.
	if !f.ContainsSphere(mgl32.Vec3{0, 0, 5.5}, 1) {
		t.Error("ContainsSphere: sphere crossing the near plane should be visible")
	}
	if f.ContainsSphere(mgl32.Vec3{0, 0, 20}, 1) {
		t.Error("ContainsSphere: sphere behind the camera should be culled")
	}
}

func TestFrustumAABB(t *testing.T) {
	f := testProjection(800, 600).Frustum

	inside := AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	if !f.ContainsAABB(inside) {
		t.Error("ContainsAABB: box at the origin should be visible")
	}
	behind := AABB{Min: mgl32.Vec3{-1, -1, 10}, Max: mgl32.Vec3{1, 1, 12}}
	if f.ContainsAABB(behind) {
		t.Error("ContainsAABB: box behind the camera should be culled")
	}
	// Huge box enclosing the whole frustum has no corner inside and no
	// single plane rejecting it.
	huge := AABB{Min: mgl32.Vec3{-1000, -1000, -1000}, Max: mgl32.Vec3{1000, 1000, 1000}}
	if !f.ContainsAABB(huge) {
		t.Error("ContainsAABB: enclosing box should be reported as intersecting")
	}
}

func TestRectOverlapAndClamp(t *testing.T) {
	vp := Rect{Width: 800, Height: 600}

	tests := []struct {
		name    string
		r       Rect
		overlap bool
	}{
		{"inside", Rect{X: 10, Y: 10, Width: 50, Height: 50}, true},
		{"touching edge", Rect{X: 800, Y: 0, Width: 10, Height: 10}, false},
		{"left of viewport", Rect{X: -20, Y: 0, Width: 20, Height: 10}, false},
		{"straddling", Rect{X: -20, Y: -20, Width: 40, Height: 40}, true},
		{"empty", Rect{}, false},
	}
	for _, tc := range tests {
		if got := tc.r.Overlaps(vp); got != tc.overlap {
			t.Errorf("%s: Overlaps expected %v, got %v", tc.name, tc.overlap, got)
		}
	}

	c := Rect{X: -20, Y: -10, Width: 40, Height: 1000}.ClampTo(800, 600)
	if c != (Rect{X: 0, Y: 0, Width: 20, Height: 600}) {
		t.Errorf("ClampTo: got %+v", c)
	}
}

func TestSphereRect(t *testing.T) {
	p := testProjection(800, 600)

	r := p.SphereRect(mgl32.Vec3{0, 0, 0}, 1)
	if r.Empty() {
		t.Fatal("SphereRect: visible sphere produced an empty rect")
	}
	cx, cy := r.X+r.Width/2, r.Y+r.Height/2
	if !approx(cx, 400) || !approx(cy, 300) {
		t.Errorf("SphereRect: expected rect centered on (400,300), got (%v,%v)", cx, cy)
	}
	if r.Width >= 800 || r.Height >= 600 {
		t.Errorf("SphereRect: small sphere should not cover the viewport, got %+v", r)
	}

	if got := p.SphereRect(mgl32.Vec3{0, 0, 30}, 1); !got.Empty() {
		t.Errorf("SphereRect: culled sphere expected empty rect, got %+v", got)
	}
	if got := p.SphereRect(mgl32.Vec3{0, 0, 5}, 2); got != p.Full() {
		t.Errorf("SphereRect: camera inside sphere expected full viewport, got %+v", got)
	}
}

func TestConeRect(t *testing.T) {
	p := testProjection(800, 600)

	visible := p.ConeRect(mgl32.Vec3{0, 2, 0}, mgl32.Vec3{0, -1, 0}, 2, 1)
	if visible.Empty() || !visible.Overlaps(p.Full()) {
		t.Errorf("ConeRect: cone in view should overlap the viewport, got %+v", visible)
	}

	hidden := p.ConeRect(mgl32.Vec3{0, 0, 20}, mgl32.Vec3{0, 0, 1}, 5, 1)
	if !hidden.Empty() {
		t.Errorf("ConeRect: cone behind the camera expected empty rect, got %+v", hidden)
	}

	around := p.ConeRect(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0, 0, -1}, 20, 10)
	if around != p.Full() {
		t.Errorf("ConeRect: camera inside cone expected full viewport, got %+v", around)
	}
}

func TestConeAABB(t *testing.T) {
	box := ConeAABB(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, 10, 2)
	want := AABB{Min: mgl32.Vec3{-2, -2, -10}, Max: mgl32.Vec3{2, 2, 0}}
	for k := 0; k < 3; k++ {
		if !approx(box.Min[k], want.Min[k]) || !approx(box.Max[k], want.Max[k]) {
			t.Fatalf("ConeAABB: expected %+v, got %+v", want, box)
		}
	}
}

func TestBillboardFront(t *testing.T) {
	eye := mgl32.Vec3{3, 2, 5}
	invView := mgl32.LookAtV(eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}).Inv()
	m := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(2, 3, 4))

	b := BillboardFront(m, invView)
	if b.Col(3) != m.Col(3) {
		t.Errorf("BillboardFront: translation changed, got %v", b.Col(3))
	}
	if !approx(b.Col(0).Vec3().Len(), 2) || !approx(b.Col(1).Vec3().Len(), 3) || !approx(b.Col(2).Vec3().Len(), 4) {
		t.Errorf("BillboardFront: scale not preserved")
	}
	camZ := invView.Col(2).Vec3().Normalize()
	if !approx(b.Col(2).Vec3().Normalize().Dot(camZ), 1) {
		t.Errorf("BillboardFront: local Z should match camera Z")
	}
}

func TestBillboardY(t *testing.T) {
	// Camera at (0,5,10) looking at the origin: right is +X, pitched down.
	invView := mgl32.LookAtV(mgl32.Vec3{0, 5, 10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}).Inv()

	// Sprites far off to the side share the camera orientation instead of
	// turning toward the camera position.
	for _, pos := range []mgl32.Vec3{{0, 0, 0}, {-20, 0, 0}, {30, 2, -5}} {
		b := BillboardY(mgl32.Translate3D(pos[0], pos[1], pos[2]), invView)
		if b.Col(1).Vec3() != (mgl32.Vec3{0, 1, 0}) {
			t.Errorf("BillboardY at %v: up axis must stay world Y, got %v", pos, b.Col(1).Vec3())
		}
		if x := b.Col(0).Vec3(); !approx(x[0], 1) || !approx(x[2], 0) {
			t.Errorf("BillboardY at %v: local X should follow camera right, got %v", pos, x)
		}
		if z := b.Col(2).Vec3(); !approx(z[2], 1) || !approx(z[1], 0) {
			t.Errorf("BillboardY at %v: local Z should face the camera on the XZ plane, got %v", pos, z)
		}
		if b.Col(3).Vec3() != pos {
			t.Errorf("BillboardY at %v: translation changed to %v", pos, b.Col(3).Vec3())
		}
	}

	scaled := BillboardY(mgl32.Scale3D(2, 3, 4), invView)
	if !approx(scaled.Col(0).Vec3().Len(), 2) || !approx(scaled.Col(1).Vec3().Len(), 3) || !approx(scaled.Col(2).Vec3().Len(), 4) {
		t.Errorf("BillboardY: scale not preserved")
	}

	var vertical mgl32.Mat4
	vertical.SetCol(0, mgl32.Vec4{0, 1, 0, 0})
	if m := mgl32.Ident4(); BillboardY(m, vertical) != m {
		t.Errorf("BillboardY: a vertical camera right should leave the transform unchanged")
	}
}

func TestPerspectiveExtents(t *testing.T) {
	near := float32(0.5)
	m := Perspective(mgl32.DegToRad(90), 2, near, 10)
	// top = 0.5*tan(45°) = 0.5 and right = 1 on the near plane.
	clip := m.Mul4x1(mgl32.Vec4{0.5, 0.25, -near, 1})
	if !approx(clip[0]/clip[3], 0.5) || !approx(clip[1]/clip[3], 0.5) {
		t.Errorf("Perspective: unexpected NDC %v", clip)
	}
}
