package renderer

import (
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"r3d/config"
	"r3d/core"
	"r3d/drawqueue"
	"r3d/gpu"
	"r3d/gpu/gputest"
	"r3d/lighting"
	rmath "r3d/math"
	"r3d/scene"
	"r3d/shaders"
)

func newTestRenderer(t *testing.T, flags Flags) (*Renderer, *gputest.Recorder) {
	t.Helper()
	rec := gputest.NewRecorder()
	r, err := Init(rec, 800, 600, flags, config.Default(),
		WithLogger(core.NewLogger(io.Discard, "test", "debug")),
		WithClock(core.FixedClock(0.016)))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r, rec
}

func testCamera() *scene.Camera {
	return scene.NewCamera(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, 60)
}

func testMesh(t *testing.T, dev gpu.Device) *scene.Mesh {
	t.Helper()
	m := scene.CreateCube(1)
	if err := m.Upload(dev); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	return m
}

func renderFrame(t *testing.T, r *Renderer, draw func()) {
	t.Helper()
	if err := r.Begin(testCamera()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if draw != nil {
		draw()
	}
	if err := r.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
}

func TestInitRejectsBadInput(t *testing.T) {
	if _, err := Init(nil, 800, 600, 0, config.Default()); err == nil {
		t.Error("Init with nil device should fail")
	}
	_, err := Init(gputest.NewRecorder(), 0, 600, 0, config.Default(),
		WithLogger(core.NewLogger(io.Discard, "test", "error")))
	if !errors.Is(err, ErrInvalidResolution) {
		t.Errorf("Init 0x600: got %v, want ErrInvalidResolution", err)
	}
}

func TestLifecycleErrors(t *testing.T) {
	r, rec := newTestRenderer(t, 0)

	if err := r.End(); !errors.Is(err, ErrFrameNotActive) {
		t.Errorf("End while idle: got %v", err)
	}
	if err := r.DrawMesh(testMesh(t, rec), nil, mgl32.Ident4()); !errors.Is(err, ErrFrameNotActive) {
		t.Errorf("DrawMesh while idle: got %v", err)
	}

	if err := r.Begin(testCamera()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := r.Begin(testCamera()); !errors.Is(err, ErrFrameActive) {
		t.Errorf("second Begin: got %v", err)
	}
	if err := r.UpdateResolution(1024, 768); !errors.Is(err, ErrFrameActive) {
		t.Errorf("UpdateResolution while active: got %v", err)
	}
	if w, h := r.GetResolution(); w != 800 || h != 600 {
		t.Errorf("resolution changed mid-frame to %dx%d", w, h)
	}
	if err := r.End(); err != nil {
		t.Errorf("End: %v", err)
	}
	if r.Active() {
		t.Error("renderer still active after End")
	}
}

func TestEmptyFrameOnlyClearsAndBlits(t *testing.T) {
	r, rec := newTestRenderer(t, 0)
	rec.Reset()
	renderFrame(t, r, nil)

	passes := r.Stats().Passes
	for _, skipped := range []string{"shadow", "geometry", "ssao", "ambient", "lighting", "composite", "forward"} {
		if slices.Contains(passes, skipped) {
			t.Errorf("empty frame ran the %s pass", skipped)
		}
	}
	for _, ran := range []string{"clear", "background", "post", "blit"} {
		if !slices.Contains(passes, ran) {
			t.Errorf("empty frame skipped the %s pass", ran)
		}
	}

	colors := rec.UniformValues("uColor")
	if len(colors) != 1 || colors[0] != (mgl32.Vec4{0.2, 0.2, 0.2, 0}) {
		t.Errorf("background color uploads = %v", colors)
	}

	var final *gpu.BlitDesc
	for _, c := range rec.Filter("Blit") {
		b := c.Value.(gpu.BlitDesc)
		if b.Dst == gpu.DefaultFramebuffer && b.Mask == gpu.ColorBuffer {
			final = &b
		}
	}
	if final == nil {
		t.Fatal("no color blit to the default framebuffer")
	}
	if final.DstRect != (gpu.Region{Width: 800, Height: 600}) {
		t.Errorf("final blit dst = %+v", final.DstRect)
	}
}

func TestAutoClassification(t *testing.T) {
	r, rec := newTestRenderer(t, 0)
	mesh := testMesh(t, rec)
	glass := scene.NewMaterial("glass", core.NewColor8(255, 255, 255, 128))

	renderFrame(t, r, func() {
		r.DrawMesh(mesh, nil, mgl32.Ident4())
		r.DrawMesh(mesh, glass, mgl32.Translate3D(1, 0, 0))

		if len(r.queue.Deferred) != 1 || r.queue.Deferred[0].Material == glass {
			t.Errorf("deferred queue = %d calls, want the opaque one", len(r.queue.Deferred))
		}
		if len(r.queue.Forward) != 1 || r.queue.Forward[0].Material != glass {
			t.Errorf("forward queue = %d calls, want the translucent one", len(r.queue.Forward))
		}
	})

	st := r.Stats()
	if st.DeferredCalls != 1 || st.ForwardCalls != 1 {
		t.Errorf("stats = %+v", st)
	}
	if n := rec.DrawsWith(r.lib.Get(shaders.Geometry)); n != 1 {
		t.Errorf("geometry draws = %d, want 1", n)
	}
	if n := rec.DrawsWith(r.lib.Get(shaders.Forward)); n != 1 {
		t.Errorf("forward draws = %d, want 1", n)
	}
}

func TestInstancedDrawClampsCount(t *testing.T) {
	r, rec := newTestRenderer(t, 0)
	mesh := testMesh(t, rec)
	transforms := []mgl32.Mat4{mgl32.Ident4(), mgl32.Translate3D(2, 0, 0)}

	renderFrame(t, r, func() {
		if err := r.DrawMeshInstanced(mesh, nil, transforms, 10); err != nil {
			t.Fatalf("DrawMeshInstanced: %v", err)
		}
		r.DrawMeshInstanced(mesh, nil, nil, 3)
		r.DrawMeshInstanced(mesh, nil, transforms, 0)

		if len(r.queue.DeferredInstanced) != 1 {
			t.Fatalf("instanced calls = %d, want 1", len(r.queue.DeferredInstanced))
		}
		if n := r.queue.DeferredInstanced[0].Instances.Count; n != 2 {
			t.Errorf("instance count = %d, want 2", n)
		}

		// A truncated color stream is dropped, not the draw.
		r.DrawMeshInstancedPro(mesh, nil, mgl32.Ident4(), gpu.InstanceData{
			Transforms: flattenMat4(transforms),
			Colors:     []float32{1, 0},
			Count:      2,
		})
		if len(r.queue.DeferredInstanced) != 2 {
			t.Fatalf("draw with a short color stream was dropped")
		}
		if n := r.queue.DeferredInstanced[1].Instances.Count; n != 2 {
			t.Errorf("instance count with ignored colors = %d, want 2", n)
		}
	})
}

func TestLightBatchSkipsOffscreenLights(t *testing.T) {
	r, rec := newTestRenderer(t, 0)
	mesh := testMesh(t, rec)

	visible := r.CreateLight(lighting.LightSpot)
	r.SetLightPosition(visible, mgl32.Vec3{0, 2, 0})
	r.SetLightDirection(visible, mgl32.Vec3{0, -1, 0})
	r.SetLightRange(visible, 10)
	r.SetLightOuterCutOff(visible, 45)
	r.SetLightActive(visible, true)

	behind := r.CreateLight(lighting.LightSpot)
	r.SetLightPosition(behind, mgl32.Vec3{0, 0, 50})
	r.SetLightDirection(behind, mgl32.Vec3{0, 0, 1})
	r.SetLightRange(behind, 10)
	r.SetLightOuterCutOff(behind, 30)
	r.SetLightActive(behind, true)
	r.EnableShadow(behind, 256)
	r.SetShadowUpdateMode(behind, lighting.UpdateManual)

	draw := func() { r.DrawMesh(mesh, nil, mgl32.Ident4()) }
	renderFrame(t, r, draw)
	if n := r.Stats().Lights; n != 1 {
		t.Fatalf("batch size = %d, want 1", n)
	}
	l, _ := r.Lights().Get(behind)
	if n := r.Stats().ShadowMaps; n != 0 {
		t.Errorf("culled light rendered %d shadow maps", n)
	}
	if n := rec.DrawsInto(l.Shadow.Map.Framebuffer); n != 0 {
		t.Errorf("%d draws went into the culled light's shadow map", n)
	}
	if !l.Shadow.Due() {
		t.Error("the pending shadow update of a culled light should be kept")
	}

	// Once in view, the pending update is served.
	r.SetLightPosition(behind, mgl32.Vec3{0, 2, 0})
	r.SetLightDirection(behind, mgl32.Vec3{0, -1, 0})
	renderFrame(t, r, draw)
	if n := r.Stats().ShadowMaps; n != 1 {
		t.Errorf("light back in view rendered %d shadow maps, want 1", n)
	}
	if rec.DrawsInto(l.Shadow.Map.Framebuffer) == 0 {
		t.Error("no caster drawn into the shadow map once the light is visible")
	}
}

func TestLightingPassPerBatchedLight(t *testing.T) {
	r, rec := newTestRenderer(t, 0)
	mesh := testMesh(t, rec)
	for _, dir := range []mgl32.Vec3{{0, -1, 0}, {1, -1, 0}} {
		id := r.CreateLight(lighting.LightDirectional)
		r.SetLightDirection(id, dir)
		r.SetLightActive(id, true)
	}

	rec.Reset()
	renderFrame(t, r, func() { r.DrawMesh(mesh, nil, mgl32.Ident4()) })

	if n := rec.DrawsWith(r.lib.Get(shaders.Lighting)); n != 2 {
		t.Errorf("lighting draws = %d, want 2", n)
	}
	scissors := 0
	for _, c := range rec.Filter("SetScissor") {
		if c.Count == 1 {
			scissors++
			if c.Value != (gpu.Region{Width: 800, Height: 600}) {
				t.Errorf("directional scissor = %+v, want full viewport", c.Value)
			}
		}
	}
	if scissors != 2 {
		t.Errorf("scissored light passes = %d, want 2", scissors)
	}
}

func TestForwardLightPacking(t *testing.T) {
	r, rec := newTestRenderer(t, 0)
	mesh := testMesh(t, rec)

	far := r.CreateLight(lighting.LightOmni)
	r.SetLightPosition(far, mgl32.Vec3{3, 0, -20})
	r.SetLightRange(far, 2)
	r.SetLightActive(far, true)

	sun := r.CreateLight(lighting.LightDirectional)
	r.SetLightActive(sun, true)

	rec.Reset()
	renderFrame(t, r, func() {
		r.ApplyBlendMode(drawqueue.BlendAdditive)
		r.DrawMesh(mesh, nil, mgl32.Ident4())
	})

	if n := r.Stats().Lights; n != 2 {
		t.Fatalf("batch size = %d, want 2", n)
	}
	types := rec.UniformValues("uLights[0].type")
	if len(types) != 1 || types[0] != int32(lighting.LightDirectional) {
		t.Errorf("uLights[0].type = %v, want the directional light only", types)
	}
	enabled := rec.UniformValues("uLights[1].enabled")
	if len(enabled) != 1 || enabled[0] != int32(0) {
		t.Errorf("uLights[1].enabled = %v, want disabled", enabled)
	}
}

func TestShadowUpdateModes(t *testing.T) {
	r, rec := newTestRenderer(t, 0)
	mesh := testMesh(t, rec)

	id := r.CreateLight(lighting.LightDirectional)
	r.SetLightActive(id, true)
	r.EnableShadow(id, 256)
	r.SetShadowUpdateMode(id, lighting.UpdateManual)
	draw := func() { r.DrawMesh(mesh, nil, mgl32.Ident4()) }

	renderFrame(t, r, draw)
	if n := r.Stats().ShadowMaps; n != 1 {
		t.Errorf("first frame rendered %d shadow maps, want 1", n)
	}
	renderFrame(t, r, draw)
	if n := r.Stats().ShadowMaps; n != 0 {
		t.Errorf("manual mode re-rendered without a request")
	}
	r.UpdateShadowMap(id)
	renderFrame(t, r, draw)
	if n := r.Stats().ShadowMaps; n != 1 {
		t.Errorf("requested update rendered %d maps, want 1", n)
	}

	r.SetShadowUpdateMode(id, lighting.UpdateContinuous)
	for i := 0; i < 3; i++ {
		renderFrame(t, r, draw)
		if n := r.Stats().ShadowMaps; n != 1 {
			t.Errorf("continuous frame %d rendered %d maps", i, n)
		}
	}

	l, _ := r.Lights().Get(id)
	if l.Shadow.ViewProj == (mgl32.Mat4{}) {
		t.Error("directional shadow pass did not cache its matrix")
	}
	if n := rec.DrawsInto(l.Shadow.Map.Framebuffer); n == 0 {
		t.Error("no caster drawn into the shadow map")
	}
}

func TestDirectionalShadowFitsSceneBounds(t *testing.T) {
	r, rec := newTestRenderer(t, 0)
	mesh := testMesh(t, rec)

	r.SetSceneBounds(rmath.AABB{Min: mgl32.Vec3{1, 1, 1}, Max: mgl32.Vec3{1, 5, 5}})
	if b := r.SceneBounds(); b.Max != (mgl32.Vec3{100, 100, 100}) {
		t.Errorf("flat bounds should be ignored, got %v", b)
	}
	far := rmath.AABB{Min: mgl32.Vec3{400, -10, 400}, Max: mgl32.Vec3{600, 10, 600}}
	r.SetSceneBounds(far)

	id := r.CreateLight(lighting.LightDirectional)
	r.SetLightDirection(id, mgl32.Vec3{0.3, -1, 0.2})
	r.SetLightActive(id, true)
	r.EnableShadow(id, 256)
	renderFrame(t, r, func() { r.DrawMesh(mesh, nil, mgl32.Translate3D(500, 0, 500)) })

	l, _ := r.Lights().Get(id)
	c := l.Shadow.ViewProj.Mul4x1(mgl32.Vec4{500, 0, 500, 1})
	for k := 0; k < 3; k++ {
		if c[k] < -1 || c[k] > 1 {
			t.Fatalf("caster inside the scene bounds projects outside the shadow map: %v", c)
		}
	}
}

func TestOmniShadowRendersEveryFace(t *testing.T) {
	r, rec := newTestRenderer(t, 0)
	mesh := testMesh(t, rec)

	id := r.CreateLight(lighting.LightOmni)
	r.SetLightPosition(id, mgl32.Vec3{0, 3, 0})
	r.SetLightRange(id, 20)
	r.SetLightActive(id, true)
	r.EnableShadow(id, 128)
	l, _ := r.Lights().Get(id)

	rec.Reset()
	renderFrame(t, r, func() { r.DrawMesh(mesh, nil, mgl32.Ident4()) })

	var faces []int
	for _, c := range rec.Filter("AttachTexture") {
		if c.Value == l.Shadow.Map.Distance {
			faces = append(faces, c.Count)
		}
	}
	want := []int{0, 1, 2, 3, 4, 5}
	if !slices.Equal(faces, want) {
		t.Errorf("attached faces = %v, want %v", faces, want)
	}
	if far := rec.UniformValues("uFar"); len(far) == 0 || far[0] != float32(20) {
		t.Errorf("uFar = %v, want the light range", far)
	}
}

func TestUniformUploadsAreDiffed(t *testing.T) {
	r, rec := newTestRenderer(t, 0)
	mesh := testMesh(t, rec)

	rec.Reset()
	renderFrame(t, r, func() {
		r.DrawMesh(mesh, nil, mgl32.Translate3D(-1, 0, 0))
		r.DrawMesh(mesh, nil, mgl32.Translate3D(1, 0, 0))
	})

	if n := len(rec.UniformValues("uColAlbedo")); n != 1 {
		t.Errorf("uColAlbedo uploaded %d times for one material, want 1", n)
	}
	if n := len(rec.UniformValues("uMatMVP")); n != 2 {
		t.Errorf("uMatMVP uploaded %d times for two transforms, want 2", n)
	}
}

func TestBrokenProgramIsNotRebuiltEveryFrame(t *testing.T) {
	r, rec := newTestRenderer(t, 0)

	rec.FailPrograms = true
	r.SetState(FlagFXAA)
	if rec.ProgramFailures != 1 {
		t.Fatalf("expected one failed FXAA build, got %d", rec.ProgramFailures)
	}
	// The first frame may try the programs it has not built yet, once each.
	renderFrame(t, r, func() {})
	failures := rec.ProgramFailures
	for i := 0; i < 3; i++ {
		renderFrame(t, r, func() {})
	}
	if rec.ProgramFailures != failures {
		t.Errorf("broken programs were rebuilt %d more times", rec.ProgramFailures-failures)
	}

	// A hot reload touching the program's sources gives it another try.
	rec.FailPrograms = false
	r.applyShaderChanges(0, []shaders.Name{shaders.FXAA})
	renderFrame(t, r, func() {})
	if !r.lib.Loaded(shaders.FXAA) {
		t.Error("FXAA should build once its sources changed")
	}
}

func TestUpdateResolution(t *testing.T) {
	r, rec := newTestRenderer(t, 0)

	if err := r.UpdateResolution(-1, 10); !errors.Is(err, ErrInvalidResolution) {
		t.Errorf("negative resolution: got %v", err)
	}
	if err := r.UpdateResolution(1024, 512); err != nil {
		t.Fatalf("UpdateResolution: %v", err)
	}
	if w, h := r.GetResolution(); w != 1024 || h != 512 {
		t.Errorf("GetResolution = %dx%d", w, h)
	}
	for _, info := range r.Targets() {
		if !info.Allocated {
			continue
		}
		if info.Width != 1024 || info.Height != 512 {
			t.Errorf("target %s is %dx%d", info.Name, info.Width, info.Height)
		}
	}
	desc, ok := rec.TextureDesc(r.targets.gbuf.albedo)
	if !ok || desc.Width != 1024 || desc.Height != 512 {
		t.Errorf("albedo texture = %+v", desc)
	}
}

func TestEffectTargetsAreLazy(t *testing.T) {
	r, _ := newTestRenderer(t, 0)
	info := func(name string) TargetInfo {
		for _, ti := range r.Targets() {
			if ti.Name == name {
				return ti
			}
		}
		t.Fatalf("no target %q", name)
		return TargetInfo{}
	}

	if info("ssao").Allocated || info("bloom").Allocated {
		t.Fatal("effect targets allocated before use")
	}
	r.SetSSAO(true)
	r.SetBloomMode(BloomAdditive)
	if ti := info("ssao"); !ti.Allocated || ti.Width != 400 || ti.Height != 300 {
		t.Errorf("ssao target = %+v", ti)
	}
	if !info("bloom").Allocated {
		t.Error("bloom target not allocated")
	}

	r.UpdateResolution(640, 480)
	if ti := info("bloom"); !ti.Allocated || ti.Width != 320 {
		t.Errorf("bloom after resize = %+v", ti)
	}
}

func TestDegradedTargetsDoNotAbortFrames(t *testing.T) {
	rec := gputest.NewRecorder()
	rec.FailFramebuffers = true
	r, err := Init(rec, 800, 600, 0, config.Default(),
		WithLogger(core.NewLogger(io.Discard, "test", "error")))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer r.Close()

	mesh := testMesh(t, rec)
	renderFrame(t, r, func() { r.DrawMesh(mesh, nil, mgl32.Ident4()) })
	if rec.Count("Blit") != 0 {
		t.Error("blit issued without any render target")
	}
}

func TestLetterbox(t *testing.T) {
	tests := []struct {
		srcW, srcH, dstW, dstH int
		want                   gpu.Region
	}{
		{800, 600, 800, 600, gpu.Region{Width: 800, Height: 600}},
		{800, 600, 1000, 600, gpu.Region{X: 100, Width: 800, Height: 600}},
		{800, 600, 800, 800, gpu.Region{Y: 100, Width: 800, Height: 600}},
	}
	for _, tt := range tests {
		if got := letterbox(tt.srcW, tt.srcH, tt.dstW, tt.dstH); got != tt.want {
			t.Errorf("letterbox(%d,%d,%d,%d) = %+v, want %+v", tt.srcW, tt.srcH, tt.dstW, tt.dstH, got, tt.want)
		}
	}
}

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags([]string{"fxaa", " Stencil_Test "})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if f != FlagFXAA|FlagStencilTest {
		t.Errorf("flags = %v", f)
	}
	if _, err := ParseFlags([]string{"msaa"}); err == nil {
		t.Error("unknown flag accepted")
	}
}
