package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultMatchesInitDefaults(t *testing.T) {
	c := Default()
	if c.Render.Near != 0.01 || c.Render.Far != 1000 {
		t.Errorf("near/far: got %v/%v", c.Render.Near, c.Render.Far)
	}
	if c.Render.ForwardMaxLights != 8 {
		t.Errorf("forward max lights: expected 8, got %d", c.Render.ForwardMaxLights)
	}
	if c.SSAO.Radius != 0.5 || c.SSAO.Bias != 0.025 || c.SSAO.Iterations != 10 {
		t.Errorf("ssao defaults: got %+v", c.SSAO)
	}
	if c.Bloom.Mode != "disabled" || c.Bloom.SkyThreshold != 2 {
		t.Errorf("bloom defaults: got %+v", c.Bloom)
	}
	if c.Fog.End != 50 || c.Fog.Density != 0.05 {
		t.Errorf("fog defaults: got %+v", c.Fog)
	}
	if c.Shadows.DirBias != 0.0002 || c.Shadows.OmniBias != 0.05 {
		t.Errorf("shadow bias defaults: got %+v", c.Shadows)
	}
}

func TestParseOverridesKeepDefaults(t *testing.T) {
	data := []byte(`
log_level = "debug"

[render]
flags = ["fxaa", "aspect_keep"]
far = 500.0

[bloom]
mode = "additive"
intensity = 0.5
`)
	c, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.LogLevel != "debug" {
		t.Errorf("log_level: expected debug, got %q", c.LogLevel)
	}
	if len(c.Render.Flags) != 2 || c.Render.Flags[0] != "fxaa" {
		t.Errorf("flags: got %v", c.Render.Flags)
	}
	if c.Render.Far != 500 || c.Render.Near != 0.01 {
		t.Errorf("near/far: expected 0.01/500, got %v/%v", c.Render.Near, c.Render.Far)
	}
	if c.Bloom.Mode != "additive" || c.Bloom.Intensity != 0.5 || c.Bloom.Iterations != 10 {
		t.Errorf("bloom: got %+v", c.Bloom)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("[render]\nfarplane = 10.0\n"))
	if err == nil {
		t.Fatal("expected an error for an unknown key")
	}
	if !strings.Contains(err.Error(), "farplane") {
		t.Errorf("expected the error to name the key, got %v", err)
	}
}

func TestParseSanitises(t *testing.T) {
	c, err := Parse([]byte(`
[render]
near = -1.0
forward_max_lights = 64
light_capacity = 0

[ssao]
iterations = 0
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Render.Near != 0.01 {
		t.Errorf("near: expected default 0.01, got %v", c.Render.Near)
	}
	if c.Render.ForwardMaxLights != 8 {
		t.Errorf("forward_max_lights: expected clamp to 8, got %d", c.Render.ForwardMaxLights)
	}
	if c.Render.LightCapacity != 1 {
		t.Errorf("light_capacity: expected 1, got %d", c.Render.LightCapacity)
	}
	if c.SSAO.Iterations != 1 {
		t.Errorf("ssao iterations: expected 1, got %d", c.SSAO.Iterations)
	}
}

func TestParseSceneBounds(t *testing.T) {
	c, err := Parse([]byte(`
[render]
scene_min = [400.0, -10.0, 400.0]
scene_max = [600.0, 10.0, 600.0]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Render.SceneMin != [3]float32{400, -10, 400} || c.Render.SceneMax != [3]float32{600, 10, 600} {
		t.Errorf("scene bounds: got %v..%v", c.Render.SceneMin, c.Render.SceneMax)
	}

	c, err = Parse([]byte("[render]\nscene_min = [0.0, 5.0, 0.0]\nscene_max = [1.0, 5.0, 1.0]\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	d := Default().Render
	if c.Render.SceneMin != d.SceneMin || c.Render.SceneMax != d.SceneMax {
		t.Errorf("flat scene bounds should reset to the default, got %v..%v", c.Render.SceneMin, c.Render.SceneMax)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r3d.toml")
	if err := os.WriteFile(path, []byte("[fog]\nmode = \"exp2\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Fog.Mode != "exp2" {
		t.Errorf("fog mode: expected exp2, got %q", c.Fog.Mode)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load: expected an error for a missing file")
	}
}
