package shaders

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"r3d/core"
	"r3d/gpu/gputest"
)

func newTestLibrary(t *testing.T, dir string) (*Library, *gputest.Recorder, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	dev := gputest.NewRecorder()
	return NewLibrary(dev, dir, core.NewLogger(&buf, "test", "debug")), dev, &buf
}

func TestEveryProgramAssembles(t *testing.T) {
	lib, _, _ := newTestLibrary(t, "")
	for _, name := range Names() {
		vert, frag, err := lib.Source(name)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		for stage, src := range map[string]string{"vertex": vert, "fragment": frag} {
			if !strings.HasPrefix(src, "#version 410 core\n") {
				t.Errorf("%s %s source does not start with the version line", name, stage)
			}
			if strings.Count(src, "#version") != 1 {
				t.Errorf("%s %s source has %d version lines", name, stage, strings.Count(src, "#version"))
			}
		}
	}
}

func TestDeclaredUniformsAppearInSource(t *testing.T) {
	lib, _, _ := newTestLibrary(t, "")
	for _, name := range Names() {
		vert, frag, err := lib.Source(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		src := vert + frag
		for _, u := range Uniforms(name) {
			base := u
			if i := strings.IndexAny(base, "[."); i >= 0 {
				base = base[:i]
			}
			if !strings.Contains(src, base) {
				t.Errorf("%s declares %s but its source never mentions %s", name, u, base)
			}
		}
	}
}

func TestVariantsCarryDefines(t *testing.T) {
	lib, _, _ := newTestLibrary(t, "")
	tests := []struct {
		name   Name
		define string
		want   bool
	}{
		{GeometryInstanced, "#define INSTANCED", true},
		{Geometry, "#define INSTANCED", false},
		{DepthCubeInstanced, "#define INSTANCED", true},
		{AmbientIBL, "#define IBL", true},
		{Ambient, "#define IBL", false},
	}
	for _, tt := range tests {
		_, frag, err := lib.Source(tt.name)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got := strings.Contains(frag, tt.define); got != tt.want {
			t.Errorf("%s contains %q = %v, want %v", tt.name, tt.define, got, tt.want)
		}
	}
}

func TestUnknownProgram(t *testing.T) {
	lib, _, _ := newTestLibrary(t, "")
	if _, err := lib.Load("nope"); err == nil {
		t.Error("expected an error for an unknown program")
	}
}

func TestLoadCachesProgram(t *testing.T) {
	lib, dev, _ := newTestLibrary(t, "")
	a, err := lib.Load(Blur)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := lib.Load(Blur)
	if a != b || dev.Count("CreateProgram") != 1 {
		t.Errorf("second Load compiled again: %d != %d, %d programs", a, b, dev.Count("CreateProgram"))
	}
	if lib.Get(Blur) != a {
		t.Errorf("Get = %d, want %d", lib.Get(Blur), a)
	}
	if lib.Location(Blur, "uDirection") < 0 {
		t.Error("uDirection location was not resolved")
	}
	if lib.Location(FXAA, "uTexelSize") != -1 {
		t.Error("location of an unloaded program should be -1")
	}
}

func TestReloadKeepsProgramOnFailure(t *testing.T) {
	lib, dev, buf := newTestLibrary(t, "")
	old, err := lib.Load(Tonemap)
	if err != nil {
		t.Fatal(err)
	}
	dev.FailPrograms = true
	if err := lib.Reload(Tonemap); err == nil {
		t.Fatal("expected reload to fail")
	}
	if lib.Get(Tonemap) != old || dev.LivePrograms() != 1 {
		t.Errorf("failed reload replaced the program")
	}
	if !strings.Contains(buf.String(), "keeping previous program") {
		t.Errorf("failed reload was not logged: %s", buf.String())
	}

	dev.FailPrograms = false
	if err := lib.Reload(Tonemap); err != nil {
		t.Fatal(err)
	}
	if lib.Get(Tonemap) == old || dev.LivePrograms() != 1 {
		t.Errorf("reload did not swap programs: handle %d, %d live", lib.Get(Tonemap), dev.LivePrograms())
	}
}

func TestOverrideDirShadowsEmbeddedFile(t *testing.T) {
	dir := t.TempDir()
	custom := "// custom blur\nout vec4 FragColor;\nvoid main() { FragColor = vec4(1.0); }\n"
	if err := os.WriteFile(filepath.Join(dir, "blur.frag"), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}
	lib, _, _ := newTestLibrary(t, dir)
	_, frag, err := lib.Source(Blur)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(frag, "// custom blur") {
		t.Errorf("override not used:\n%s", frag)
	}
	vert, _, _ := lib.Source(Blur)
	if !strings.Contains(vert, "gl_VertexID") {
		t.Error("files missing from the override dir should fall back to the embedded source")
	}
}

func TestUsingFile(t *testing.T) {
	got := UsingFile("pbr.glsl")
	for _, want := range []Name{Forward, ForwardInstanced, Lighting} {
		if !slices.Contains(got, want) {
			t.Errorf("UsingFile(pbr.glsl) = %v, missing %s", got, want)
		}
	}
	if slices.Contains(got, Geometry) {
		t.Errorf("geometry does not include pbr.glsl")
	}
	if len(UsingFile("missing.frag")) != 0 {
		t.Error("unknown files should match nothing")
	}
}

func TestCloseDeletesPrograms(t *testing.T) {
	lib, dev, _ := newTestLibrary(t, "")
	for _, n := range []Name{Blur, Bloom, Scene} {
		if _, err := lib.Load(n); err != nil {
			t.Fatal(err)
		}
	}
	lib.Close()
	if dev.LivePrograms() != 0 {
		t.Errorf("%d programs alive after Close", dev.LivePrograms())
	}
}

func TestWatcherReportsChangedPrograms(t *testing.T) {
	dir := t.TempDir()
	w, err := Watch(dir, core.NewLogger(&bytes.Buffer{}, "test", "debug"))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "fog.frag"), []byte("// fog\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var got []Name
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		got = append(got, w.Drain()...)
		if slices.Contains(got, Fog) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !slices.Contains(got, Fog) {
		t.Fatalf("fog not reported, got %v", got)
	}
	for _, n := range got {
		if n != Fog {
			t.Errorf("unexpected program %s", n)
		}
	}
	if rest := w.Drain(); len(rest) != 0 && !slices.Equal(rest, []Name{Fog}) {
		t.Errorf("Drain did not clear the pending set: %v", rest)
	}
}

func TestReloadPendingOnlyTouchesLoadedPrograms(t *testing.T) {
	lib, dev, _ := newTestLibrary(t, "")
	if _, err := lib.Load(Fog); err != nil {
		t.Fatal(err)
	}
	w := &Watcher{log: lib.log, pending: make(map[Name]struct{})}
	w.touch("screen.vert")

	n, changed := lib.ReloadPending(w)
	if n != 1 {
		t.Errorf("reloaded %d programs, want 1", n)
	}
	if !slices.Contains(changed, Fog) || len(changed) != len(UsingFile("screen.vert")) {
		t.Errorf("expected every program using screen.vert to be reported, got %v", changed)
	}
	if dev.Count("CreateProgram") != 2 {
		t.Errorf("CreateProgram called %d times, want 2", dev.Count("CreateProgram"))
	}
	if n, changed := lib.ReloadPending(nil); n != 0 || changed != nil {
		t.Error("nil watcher should reload nothing")
	}
}
