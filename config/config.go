// Package config holds the renderer configuration and its TOML loader.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	rmath "r3d/math"
)

type Config struct {
	LogLevel    string            `toml:"log_level"`
	Render      RenderConfig      `toml:"render"`
	Environment EnvironmentConfig `toml:"environment"`
	SSAO        SSAOConfig        `toml:"ssao"`
	Bloom       BloomConfig       `toml:"bloom"`
	Fog         FogConfig         `toml:"fog"`
	Tonemap     TonemapConfig     `toml:"tonemap"`
	Shadows     ShadowConfig      `toml:"shadows"`
	Shaders     ShaderConfig      `toml:"shaders"`
	Window      WindowConfig      `toml:"window"`
}

type RenderConfig struct {
	// Flags: any of "fxaa", "blit_linear", "aspect_keep", "stencil_test", "depth_prepass".
	Flags             []string `toml:"flags"`
	Near              float32  `toml:"near"`
	Far               float32  `toml:"far"`
	ForwardMaxLights  int      `toml:"forward_max_lights"`
	DeferredCapacity  int      `toml:"deferred_capacity"`
	ForwardCapacity   int      `toml:"forward_capacity"`
	InstancedCapacity int      `toml:"instanced_capacity"`
	LightCapacity     int      `toml:"light_capacity"`
	// SceneMin and SceneMax bound the volume covered by directional shadows.
	SceneMin [3]float32 `toml:"scene_min"`
	SceneMax [3]float32 `toml:"scene_max"`
}

type EnvironmentConfig struct {
	Background [3]float32 `toml:"background"`
	Ambient    [3]float32 `toml:"ambient"`
}

type SSAOConfig struct {
	Enabled    bool    `toml:"enabled"`
	Radius     float32 `toml:"radius"`
	Bias       float32 `toml:"bias"`
	Iterations int     `toml:"iterations"`
}

type BloomConfig struct {
	Mode         string  `toml:"mode"` // disabled, additive, soft_light
	Intensity    float32 `toml:"intensity"`
	HDRThreshold float32 `toml:"hdr_threshold"`
	SkyThreshold float32 `toml:"sky_threshold"`
	Iterations   int     `toml:"iterations"`
}

type FogConfig struct {
	Mode    string     `toml:"mode"` // disabled, linear, exp2, exp
	Color   [3]float32 `toml:"color"`
	Start   float32    `toml:"start"`
	End     float32    `toml:"end"`
	Density float32    `toml:"density"`
}

type TonemapConfig struct {
	Mode       string  `toml:"mode"` // linear, reinhard, filmic, aces
	Exposure   float32 `toml:"exposure"`
	White      float32 `toml:"white"`
	Brightness float32 `toml:"brightness"`
	Contrast   float32 `toml:"contrast"`
	Saturation float32 `toml:"saturation"`
}

type ShadowConfig struct {
	DefaultResolution int     `toml:"default_resolution"`
	DirBias           float32 `toml:"dir_bias"`
	OmniBias          float32 `toml:"omni_bias"`
	PCSSSize          float32 `toml:"pcss_size"`
	PCSSNear          float32 `toml:"pcss_near"`
	PCSSFar           float32 `toml:"pcss_far"`
	UpdateIntervalMs  float32 `toml:"update_interval_ms"`
}

type ShaderConfig struct {
	OverrideDir string `toml:"override_dir"`
	HotReload   bool   `toml:"hot_reload"`
}

type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	VSync  bool   `toml:"vsync"`
}

// Default returns the configuration the renderer uses when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Render: RenderConfig{
			Near:              0.01,
			Far:               1000,
			ForwardMaxLights:  8,
			DeferredCapacity:  256,
			ForwardCapacity:   32,
			InstancedCapacity: 8,
			LightCapacity:     8,
			SceneMin:          [3]float32{-100, -100, -100},
			SceneMax:          [3]float32{100, 100, 100},
		},
		Environment: EnvironmentConfig{
			Background: [3]float32{0.2, 0.2, 0.2},
			Ambient:    [3]float32{0.2, 0.2, 0.2},
		},
		SSAO: SSAOConfig{
			Radius:     0.5,
			Bias:       0.025,
			Iterations: 10,
		},
		Bloom: BloomConfig{
			Mode:         "disabled",
			Intensity:    1,
			HDRThreshold: 1,
			SkyThreshold: 2,
			Iterations:   10,
		},
		Fog: FogConfig{
			Mode:    "disabled",
			Color:   [3]float32{1, 1, 1},
			Start:   1,
			End:     50,
			Density: 0.05,
		},
		Tonemap: TonemapConfig{
			Mode:       "linear",
			Exposure:   1,
			White:      1,
			Brightness: 1,
			Contrast:   1,
			Saturation: 1,
		},
		Shadows: ShadowConfig{
			DefaultResolution: 1024,
			DirBias:           0.0002,
			OmniBias:          0.05,
			PCSSSize:          0.1,
			PCSSNear:          0.05,
			PCSSFar:           100,
			UpdateIntervalMs:  16,
		},
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "r3d",
			VSync:  true,
		},
	}
}

// Load reads a TOML file over Default. Keys missing from the file keep
// their default value; unknown keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data over Default and sanitises the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("unknown keys: %s", strict.String())
		}
		return Config{}, fmt.Errorf("failed to decode: %w", err)
	}
	cfg.sanitise()
	return cfg, nil
}

// sanitise forces numeric settings back into their usable ranges.
func (c *Config) sanitise() {
	d := Default()
	if c.Render.Near <= 0 {
		c.Render.Near = d.Render.Near
	}
	if c.Render.Far <= c.Render.Near {
		c.Render.Far = c.Render.Near + d.Render.Far
	}
	c.Render.ForwardMaxLights = rmath.Clamp(c.Render.ForwardMaxLights, 1, 8)
	c.Render.DeferredCapacity = max(c.Render.DeferredCapacity, 1)
	c.Render.ForwardCapacity = max(c.Render.ForwardCapacity, 1)
	c.Render.InstancedCapacity = max(c.Render.InstancedCapacity, 1)
	c.Render.LightCapacity = max(c.Render.LightCapacity, 1)
	for k := 0; k < 3; k++ {
		if c.Render.SceneMax[k] <= c.Render.SceneMin[k] {
			c.Render.SceneMin, c.Render.SceneMax = d.Render.SceneMin, d.Render.SceneMax
			break
		}
	}
	c.SSAO.Iterations = rmath.Clamp(c.SSAO.Iterations, 1, 64)
	c.Bloom.Iterations = rmath.Clamp(c.Bloom.Iterations, 1, 64)
	c.Shadows.DefaultResolution = rmath.Clamp(c.Shadows.DefaultResolution, 16, 16384)
	c.Shadows.UpdateIntervalMs = max(c.Shadows.UpdateIntervalMs, 0)
	c.Tonemap.Saturation = max(c.Tonemap.Saturation, 0)
}
