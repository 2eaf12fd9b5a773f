package drawqueue

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"r3d/core"
	"r3d/gpu"
	"r3d/scene"
)

var discard = core.NewLogger(io.Discard, "test", "error")

func TestClassify(t *testing.T) {
	opaque := scene.DefaultMaterial()
	tinted := scene.NewMaterial("tinted", core.Color{R: 1, G: 1, B: 1, A: 128.0 / 255})
	rgbaTex := scene.DefaultMaterial()
	rgbaTex.Albedo.Texture = &scene.Texture{Format: gpu.FormatRGBA8}
	rgbTex := scene.DefaultMaterial()
	rgbTex.Albedo.Texture = &scene.Texture{Format: gpu.FormatRGB8}

	tests := []struct {
		name  string
		mode  RenderMode
		blend BlendMode
		mat   *scene.Material
		want  Pipeline
	}{
		{"opaque blend", RenderAutoDetect, BlendOpaque, tinted, PipelineDeferred},
		{"additive", RenderAutoDetect, BlendAdditive, opaque, PipelineForward},
		{"multiply", RenderAutoDetect, BlendMultiply, opaque, PipelineForward},
		{"alpha with opaque default texture", RenderAutoDetect, BlendAlpha, opaque, PipelineDeferred},
		{"alpha with translucent tint", RenderAutoDetect, BlendAlpha, tinted, PipelineForward},
		{"alpha with rgba texture", RenderAutoDetect, BlendAlpha, rgbaTex, PipelineForward},
		{"alpha with rgb texture", RenderAutoDetect, BlendAlpha, rgbTex, PipelineDeferred},
		{"forced deferred", RenderDeferred, BlendAdditive, tinted, PipelineDeferred},
		{"forced forward", RenderForward, BlendOpaque, opaque, PipelineForward},
		{"nil material", RenderAutoDetect, BlendAlpha, nil, PipelineDeferred},
	}
	for _, tc := range tests {
		if got := Classify(tc.mode, tc.blend, tc.mat); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestBlendTable(t *testing.T) {
	if BlendOpaque.BlendState().Enabled {
		t.Error("opaque must disable blending")
	}
	if b := BlendAlpha.BlendState(); b.Src != gpu.BlendSrcAlpha || b.Dst != gpu.BlendOneMinusSrcAlpha {
		t.Errorf("alpha: got %+v", b)
	}
	if b := BlendAdditive.BlendState(); b.Src != gpu.BlendSrcAlpha || b.Dst != gpu.BlendOne {
		t.Errorf("additive: got %+v", b)
	}
	if b := BlendMultiply.BlendState(); b.Src != gpu.BlendDstColor || b.Dst != gpu.BlendZero {
		t.Errorf("multiply: got %+v", b)
	}
}

func TestShadowCastTable(t *testing.T) {
	if c, ok := ShadowCastFrontFaces.CullState(); !ok || !c.Enabled || c.Face != gpu.CullBack {
		t.Errorf("front faces: got %+v %v", c, ok)
	}
	if c, ok := ShadowCastBackFaces.CullState(); !ok || !c.Enabled || c.Face != gpu.CullFront {
		t.Errorf("back faces: got %+v %v", c, ok)
	}
	if c, ok := ShadowCastAllFaces.CullState(); !ok || c.Enabled {
		t.Errorf("all faces: got %+v %v", c, ok)
	}
	if _, ok := ShadowCastDisabled.CullState(); ok {
		t.Error("disabled must not cast")
	}
}

func callAt(mesh *scene.Mesh, z float32) DrawCall {
	return DrawCall{Mesh: mesh, Transform: mgl32.Translate3D(0, 0, z)}
}

func TestSortOrders(t *testing.T) {
	mesh := scene.CreateQuad()
	q := New(Capacities{Deferred: 4, Forward: 4, Instanced: 1}, discard)

	for _, z := range []float32{-5, -1, -10, -3} {
		q.Push(PipelineDeferred, callAt(mesh, z))
		q.Push(PipelineForward, callAt(mesh, z))
	}
	q.Sort(mgl32.Vec3{})

	for i := 1; i < len(q.Deferred); i++ {
		if q.Deferred[i-1].dist > q.Deferred[i].dist {
			t.Errorf("deferred not ascending at %d: %v > %v", i, q.Deferred[i-1].dist, q.Deferred[i].dist)
		}
	}
	for i := 1; i < len(q.Forward); i++ {
		if q.Forward[i-1].dist < q.Forward[i].dist {
			t.Errorf("forward not descending at %d: %v < %v", i, q.Forward[i-1].dist, q.Forward[i].dist)
		}
	}
	if z := q.Forward[0].Position()[2]; z != -10 {
		t.Errorf("farthest forward call should be first, got z=%v", z)
	}
}

func TestSortIsStable(t *testing.T) {
	mesh := scene.CreateQuad()
	q := New(Capacities{}, discard)
	a := callAt(mesh, -2)
	a.AlphaScissor = 1
	b := callAt(mesh, 2)
	b.AlphaScissor = 2
	q.Push(PipelineDeferred, a)
	q.Push(PipelineDeferred, b)
	q.Push(PipelineForward, a)
	q.Push(PipelineForward, b)

	q.Sort(mgl32.Vec3{})
	if q.Deferred[0].AlphaScissor != 1 || q.Forward[0].AlphaScissor != 1 {
		t.Error("equal distances must keep submission order")
	}
}

func TestPushRouting(t *testing.T) {
	mesh := scene.CreateQuad()
	q := New(Capacities{}, discard)
	inst := DrawCall{Mesh: mesh, Instances: gpu.InstanceData{Transforms: make([]float32, 16), Count: 1}}

	q.Push(PipelineDeferred, callAt(mesh, 0))
	q.Push(PipelineForward, callAt(mesh, 0))
	q.Push(PipelineDeferred, inst)
	q.Push(PipelineForward, inst)
	if ok := q.Push(PipelineDeferred, DrawCall{}); ok {
		t.Error("call without mesh should be dropped")
	}

	if len(q.Deferred) != 1 || len(q.Forward) != 1 || len(q.DeferredInstanced) != 1 || len(q.ForwardInstanced) != 1 {
		t.Errorf("unexpected routing: %d %d %d %d", len(q.Deferred), len(q.Forward), len(q.DeferredInstanced), len(q.ForwardInstanced))
	}
	if !q.HasDeferred() || !q.HasForward() || q.Len() != 4 {
		t.Error("queue should report both pipelines populated")
	}

	q.Clear()
	if q.Len() != 0 || q.HasDeferred() || q.HasForward() {
		t.Error("Clear should empty every buffer")
	}
}

func TestShadowCastersOrder(t *testing.T) {
	mesh := scene.CreateQuad()
	q := New(Capacities{}, discard)
	inst := DrawCall{Mesh: mesh, Instances: gpu.InstanceData{Transforms: make([]float32, 16), Count: 1}}
	scalar := callAt(mesh, 0)
	hidden := callAt(mesh, 0)
	hidden.ShadowCast = ShadowCastDisabled

	q.Push(PipelineDeferred, scalar)
	q.Push(PipelineForward, hidden)
	q.Push(PipelineForward, inst)

	var order []bool
	q.ShadowCasters(func(c *DrawCall, _ gpu.CullState) {
		order = append(order, c.Instanced())
	})
	if len(order) != 2 || !order[0] || order[1] {
		t.Errorf("expected instanced caster then scalar caster, got %v", order)
	}
}

func TestPushWarnsWhenGrowing(t *testing.T) {
	var buf bytes.Buffer
	q := New(Capacities{Deferred: 2}, core.NewLogger(&buf, "test", "warn"))
	mesh := scene.CreateQuad()

	q.Push(PipelineDeferred, callAt(mesh, -1))
	q.Push(PipelineDeferred, callAt(mesh, -2))
	if buf.Len() != 0 {
		t.Fatalf("no warning expected within capacity, got %q", buf.String())
	}
	q.Push(PipelineDeferred, callAt(mesh, -3))
	if out := buf.String(); !strings.Contains(out, "draw queue grown") || !strings.Contains(out, "queue=deferred") {
		t.Errorf("expected a growth warning naming the queue, got %q", out)
	}

	// Storage survives Clear, so refilling to the same size stays quiet.
	buf.Reset()
	q.Clear()
	for _, z := range []float32{-1, -2, -3} {
		q.Push(PipelineDeferred, callAt(mesh, z))
	}
	if buf.Len() != 0 {
		t.Errorf("refill within grown storage should not warn, got %q", buf.String())
	}
}
