// Package shaders owns the GLSL programs of the renderer.
//
// Sources are embedded in the binary. A program is assembled from a vertex
// and a fragment file, a list of #define lines and shared include files, so
// one file can back several programs (instanced variants, IBL ambient). An
// optional override directory shadows the embedded files by name and can be
// watched for hot reload.
package shaders

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"r3d/core"
	"r3d/gpu"
)

//go:embed glsl
var embedded embed.FS

const versionLine = "#version 410 core\n"

// Name identifies a program of the catalogue.
type Name string

const (
	Geometry           Name = "geometry"
	GeometryInstanced  Name = "geometry_inst"
	Forward            Name = "forward"
	ForwardInstanced   Name = "forward_inst"
	Depth              Name = "depth"
	DepthInstanced     Name = "depth_inst"
	DepthCube          Name = "depth_cube"
	DepthCubeInstanced Name = "depth_cube_inst"
	Skybox             Name = "skybox"
	Ambient            Name = "ambient"
	AmbientIBL         Name = "ambient_ibl"
	Lighting           Name = "lighting"
	Scene              Name = "scene"
	Color              Name = "color"
	SSAO               Name = "ssao"
	Blur               Name = "blur"
	Bloom              Name = "bloom"
	Fog                Name = "fog"
	Tonemap            Name = "tonemap"
	Adjustment         Name = "adjustment"
	FXAA               Name = "fxaa"
)

// ForwardMaxLights is the size of the light array of the forward programs.
const ForwardMaxLights = 8

// ErrUnknownProgram is returned for names missing from the catalogue.
var ErrUnknownProgram = errors.New("unknown shader program")

type source struct {
	vertex, fragment   string
	defines            []string
	vertIncl, fragIncl []string
	uniforms           []string
}

var (
	materialUniforms = []string{
		"uTexAlbedo", "uTexNormal", "uTexEmission", "uTexOcclusion", "uTexRoughness", "uTexMetalness",
		"uValEmission", "uValOcclusion", "uValRoughness", "uValMetalness",
		"uColAlbedo", "uColEmission", "uAlphaScissor",
		"uTexCoordOffset", "uTexCoordScale",
	}
	scalarTransform    = []string{"uMatNormal", "uMatModel", "uMatMVP"}
	instancedTransform = []string{"uMatModel", "uMatVP", "uBillboardMode", "uMatInvView"}
	gbufferSamplers    = []string{"uTexAlbedo", "uTexNormal", "uTexDepth", "uTexORM"}
)

// lightFields are the members of the GLSL Light struct.
var lightFields = []string{
	"matVP", "shadowMap", "shadowCubemap", "color", "position", "direction",
	"specular", "energy", "range", "near", "far", "attenuation",
	"innerCutOff", "outerCutOff", "shadowSoftness", "shadowMapTxlSz", "shadowBias",
	"type", "enabled", "shadow",
}

// LightUniform returns the uniform name of one field of a Light struct
// uniform, e.g. LightUniform("uLights[2]", "color").
func LightUniform(prefix, field string) string { return prefix + "." + field }

func lightUniforms(prefixes ...string) []string {
	out := make([]string, 0, len(prefixes)*len(lightFields))
	for _, p := range prefixes {
		for _, f := range lightFields {
			out = append(out, LightUniform(p, f))
		}
	}
	return out
}

func forwardLightPrefixes() []string {
	p := make([]string, ForwardMaxLights)
	for i := range p {
		p[i] = fmt.Sprintf("uLights[%d]", i)
	}
	return p
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

var catalogue = map[Name]source{
	Geometry: {
		vertex: "geometry.vert", fragment: "geometry.frag",
		vertIncl: []string{"billboard.glsl"}, fragIncl: []string{"octahedral.glsl"},
		uniforms: concat(scalarTransform, materialUniforms),
	},
	GeometryInstanced: {
		vertex: "geometry.vert", fragment: "geometry.frag", defines: []string{"INSTANCED"},
		vertIncl: []string{"billboard.glsl"}, fragIncl: []string{"octahedral.glsl"},
		uniforms: concat(instancedTransform, materialUniforms),
	},
	Forward: {
		vertex: "forward.vert", fragment: "forward.frag",
		vertIncl: []string{"billboard.glsl"}, fragIncl: []string{"pbr.glsl"},
		uniforms: concat(scalarTransform, materialUniforms,
			[]string{"uColAmbient", "uViewPosition", "uBloomHdrThreshold"},
			lightUniforms(forwardLightPrefixes()...)),
	},
	ForwardInstanced: {
		vertex: "forward.vert", fragment: "forward.frag", defines: []string{"INSTANCED"},
		vertIncl: []string{"billboard.glsl"}, fragIncl: []string{"pbr.glsl"},
		uniforms: concat(instancedTransform, materialUniforms,
			[]string{"uColAmbient", "uViewPosition", "uBloomHdrThreshold"},
			lightUniforms(forwardLightPrefixes()...)),
	},
	Depth: {
		vertex: "depth.vert", fragment: "depth.frag",
		vertIncl: []string{"billboard.glsl"},
		uniforms: []string{"uMatMVP", "uTexAlbedo", "uAlpha", "uAlphaScissor"},
	},
	DepthInstanced: {
		vertex: "depth.vert", fragment: "depth.frag", defines: []string{"INSTANCED"},
		vertIncl: []string{"billboard.glsl"},
		uniforms: concat(instancedTransform, []string{"uTexAlbedo", "uAlpha", "uAlphaScissor"}),
	},
	DepthCube: {
		vertex: "depth_cube.vert", fragment: "depth_cube.frag",
		vertIncl: []string{"billboard.glsl"},
		uniforms: []string{"uMatModel", "uMatMVP", "uTexAlbedo", "uAlpha", "uAlphaScissor", "uViewPosition", "uFar"},
	},
	DepthCubeInstanced: {
		vertex: "depth_cube.vert", fragment: "depth_cube.frag", defines: []string{"INSTANCED"},
		vertIncl: []string{"billboard.glsl"},
		uniforms: concat(instancedTransform, []string{"uTexAlbedo", "uAlpha", "uAlphaScissor", "uViewPosition", "uFar"}),
	},
	Skybox: {
		vertex: "skybox.vert", fragment: "skybox.frag",
		uniforms: []string{"uMatProj", "uMatView", "uMatSkyRotation", "uCubeSky", "uSkyHdrThreshold"},
	},
	Ambient: {
		vertex: "screen.vert", fragment: "ambient.frag",
		fragIncl: []string{"octahedral.glsl"},
		uniforms: concat(gbufferSamplers, []string{"uTexSSAO", "uColAmbient"}),
	},
	AmbientIBL: {
		vertex: "screen.vert", fragment: "ambient.frag", defines: []string{"IBL"},
		fragIncl: []string{"octahedral.glsl"},
		uniforms: concat(gbufferSamplers, []string{
			"uTexSSAO", "uCubeIrradiance", "uCubePrefilter", "uTexBrdfLut", "uMatSkyRotation",
			"uMatInvProj", "uMatInvView", "uViewPosition", "uPrefilterMaxLod",
		}),
	},
	Lighting: {
		vertex: "screen.vert", fragment: "lighting.frag",
		fragIncl: []string{"octahedral.glsl", "pbr.glsl"},
		uniforms: concat(gbufferSamplers, []string{"uMatInvProj", "uMatInvView", "uViewPosition"},
			lightUniforms("uLight")),
	},
	Scene: {
		vertex: "screen.vert", fragment: "scene.frag",
		uniforms: []string{"uTexAlbedo", "uTexEmission", "uTexDiffuse", "uTexSpecular", "uBloomHdrThreshold"},
	},
	Color: {
		vertex: "screen.vert", fragment: "color.frag",
		uniforms: []string{"uColor"},
	},
	SSAO: {
		vertex: "screen.vert", fragment: "ssao.frag",
		fragIncl: []string{"octahedral.glsl"},
		uniforms: []string{"uTexDepth", "uTexNormal", "uTexKernel", "uTexNoise", "uMatInvProj", "uMatProj", "uMatView", "uRadius", "uBias"},
	},
	Blur: {
		vertex: "screen.vert", fragment: "blur.frag",
		uniforms: []string{"uTexture", "uDirection"},
	},
	Bloom: {
		vertex: "screen.vert", fragment: "bloom.frag",
		uniforms: []string{"uTexColor", "uTexBloomBlur", "uBloomMode", "uBloomIntensity"},
	},
	Fog: {
		vertex: "screen.vert", fragment: "fog.frag",
		uniforms: []string{"uTexColor", "uTexDepth", "uNear", "uFar", "uFogMode", "uFogColor", "uFogStart", "uFogEnd", "uFogDensity"},
	},
	Tonemap: {
		vertex: "screen.vert", fragment: "tonemap.frag",
		uniforms: []string{"uTexColor", "uTonemapMode", "uTonemapExposure", "uTonemapWhite"},
	},
	Adjustment: {
		vertex: "screen.vert", fragment: "adjustment.frag",
		uniforms: []string{"uTexColor", "uBrightness", "uContrast", "uSaturation"},
	},
	FXAA: {
		vertex: "screen.vert", fragment: "fxaa.frag",
		uniforms: []string{"uTexture", "uTexelSize"},
	},
}

// Names returns every program of the catalogue in a stable order.
func Names() []Name {
	names := make([]Name, 0, len(catalogue))
	for n := range catalogue {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Uniforms returns the uniform names a program declares.
func Uniforms(name Name) []string {
	return slices.Clone(catalogue[name].uniforms)
}

// UsingFile returns the programs assembled from file, either as a stage
// source or as an include.
func UsingFile(file string) []Name {
	var out []Name
	for _, n := range Names() {
		s := catalogue[n]
		if s.vertex == file || s.fragment == file || slices.Contains(s.vertIncl, file) || slices.Contains(s.fragIncl, file) {
			out = append(out, n)
		}
	}
	return out
}

type program struct {
	handle    gpu.Program
	locations map[string]int32
}

// Library compiles catalogue programs on demand and caches their uniform
// locations.
type Library struct {
	dev         gpu.Device
	log         *log.Logger
	overrideDir string
	programs    map[Name]*program
}

// NewLibrary creates an empty library. overrideDir may be empty.
func NewLibrary(dev gpu.Device, overrideDir string, logger *log.Logger) *Library {
	if logger == nil {
		logger = core.Logger()
	}
	return &Library{
		dev:         dev,
		log:         logger,
		overrideDir: overrideDir,
		programs:    make(map[Name]*program),
	}
}

// OverrideDir returns the directory shadowing the embedded sources.
func (l *Library) OverrideDir() string { return l.overrideDir }

func (l *Library) readFile(file string) (string, error) {
	if l.overrideDir != "" {
		data, err := os.ReadFile(filepath.Join(l.overrideDir, file))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("read override %s: %w", file, err)
		}
	}
	data, err := embedded.ReadFile("glsl/" + file)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file, err)
	}
	return string(data), nil
}

func (l *Library) assemble(file string, defines, includes []string) (string, error) {
	var sb strings.Builder
	sb.WriteString(versionLine)
	for _, d := range defines {
		sb.WriteString("#define " + d + "\n")
	}
	for _, inc := range includes {
		src, err := l.readFile(inc)
		if err != nil {
			return "", err
		}
		sb.WriteString(src)
		sb.WriteByte('\n')
	}
	src, err := l.readFile(file)
	if err != nil {
		return "", err
	}
	sb.WriteString(src)
	return sb.String(), nil
}

// Source returns the assembled vertex and fragment sources of a program.
func (l *Library) Source(name Name) (vert, frag string, err error) {
	s, ok := catalogue[name]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownProgram, name)
	}
	if vert, err = l.assemble(s.vertex, s.defines, s.vertIncl); err != nil {
		return "", "", err
	}
	if frag, err = l.assemble(s.fragment, s.defines, s.fragIncl); err != nil {
		return "", "", err
	}
	return vert, frag, nil
}

func (l *Library) compile(name Name) (*program, error) {
	vert, frag, err := l.Source(name)
	if err != nil {
		return nil, err
	}
	handle, err := l.dev.CreateProgram(vert, frag)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", name, err)
	}
	p := &program{handle: handle, locations: make(map[string]int32)}
	for _, u := range catalogue[name].uniforms {
		p.locations[u] = l.dev.UniformLocation(handle, u)
	}
	return p, nil
}

// Load compiles a program unless it is already loaded and returns its handle.
func (l *Library) Load(name Name) (gpu.Program, error) {
	if p, ok := l.programs[name]; ok {
		return p.handle, nil
	}
	p, err := l.compile(name)
	if err != nil {
		return 0, err
	}
	l.programs[name] = p
	l.log.Debug("shader loaded", "program", name, "handle", p.handle)
	return p.handle, nil
}

// Get returns the handle of a loaded program, or zero.
func (l *Library) Get(name Name) gpu.Program {
	if p, ok := l.programs[name]; ok {
		return p.handle
	}
	return 0
}

// Loaded reports whether name has been compiled.
func (l *Library) Loaded(name Name) bool {
	_, ok := l.programs[name]
	return ok
}

// Reload recompiles a loaded program from the current sources. On failure
// the previous program stays in use.
func (l *Library) Reload(name Name) error {
	old, ok := l.programs[name]
	if !ok {
		return nil
	}
	p, err := l.compile(name)
	if err != nil {
		l.log.Warn("shader reload failed, keeping previous program", "program", name, "err", err)
		return err
	}
	l.dev.DeleteProgram(old.handle)
	l.programs[name] = p
	l.log.Info("shader reloaded", "program", name, "handle", p.handle)
	return nil
}

// Location returns the location of a uniform of a loaded program, or -1.
func (l *Library) Location(name Name, uniform string) int32 {
	p, ok := l.programs[name]
	if !ok {
		return -1
	}
	loc, ok := p.locations[uniform]
	if !ok {
		loc = l.dev.UniformLocation(p.handle, uniform)
		p.locations[uniform] = loc
	}
	return loc
}

// Close deletes every loaded program.
func (l *Library) Close() {
	for name, p := range l.programs {
		l.dev.DeleteProgram(p.handle)
		delete(l.programs, name)
	}
}
