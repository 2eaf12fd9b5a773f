package scene

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	stdmath "math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"r3d/core"
)

// objFace is a triangle of 0-based position, UV and normal indices
// (-1 = absent).
type objFace struct {
	v, vt, vn [3]int
}

type objGroup struct {
	name     string
	material string
	faces    []objFace
}

// LoadOBJ parses a Wavefront .obj file into a Model with one mesh per object
// or group. Materials come from the referenced .mtl libraries; missing ones
// fall back to the default material.
func LoadOBJ(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj %q: %w", path, err)
	}
	defer f.Close()

	dir := filepath.Dir(path)
	cache := NewTextureCache()
	model, err := DecodeOBJ(f, func(name string) (map[string]*Material, error) {
		return loadMTL(filepath.Join(dir, name), cache)
	})
	if err != nil {
		return nil, fmt.Errorf("obj %q: %w", path, err)
	}
	return model, nil
}

// DecodeOBJ parses OBJ text. mtllib resolves "mtllib" directives and may be
// nil. A library that fails to load is logged and skipped.
func DecodeOBJ(r io.Reader, mtllib func(name string) (map[string]*Material, error)) (*Model, error) {
	var (
		positions []mgl32.Vec3
		normals   []mgl32.Vec3
		uvs       []mgl32.Vec2
		groups    []objGroup
	)
	materials := map[string]*Material{}
	cur := objGroup{name: "default"}

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			positions = append(positions, mgl32.Vec3{v[0], v[1], v[2]})
		case "vn":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			normals = append(normals, mgl32.Vec3{v[0], v[1], v[2]})
		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			// OBJ puts v=0 at the bottom of the image.
			uvs = append(uvs, mgl32.Vec2{v[0], 1 - v[1]})
		case "o", "g":
			if len(cur.faces) > 0 {
				groups = append(groups, cur)
			}
			name := "default"
			if len(fields) > 1 {
				name = fields[1]
			}
			cur = objGroup{name: name, material: cur.material}
		case "usemtl":
			if len(fields) < 2 {
				continue
			}
			if len(cur.faces) > 0 && cur.material != fields[1] {
				groups = append(groups, cur)
				cur = objGroup{name: cur.name}
			}
			cur.material = fields[1]
		case "mtllib":
			if mtllib == nil {
				continue
			}
			for _, name := range fields[1:] {
				loaded, err := mtllib(name)
				if err != nil {
					core.Logger().Warn("obj material library skipped", "mtllib", name, "err", err)
					continue
				}
				for k, m := range loaded {
					materials[k] = m
				}
			}
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face with %d vertices", line, len(fields)-1)
			}
			refs := make([][3]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				ref, err := parseFaceVertex(tok, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				refs = append(refs, ref)
			}
			// Fan triangulation: 0-1-2, 0-2-3, ...
			for i := 1; i+1 < len(refs); i++ {
				a, b, c := refs[0], refs[i], refs[i+1]
				cur.faces = append(cur.faces, objFace{
					v:  [3]int{a[0], b[0], c[0]},
					vt: [3]int{a[1], b[1], c[1]},
					vn: [3]int{a[2], b[2], c[2]},
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan obj: %w", err)
	}
	if len(cur.faces) > 0 {
		groups = append(groups, cur)
	}
	if len(groups) == 0 {
		return nil, errors.New("no geometry")
	}

	model := &Model{}
	matIndex := map[string]int{}
	for _, g := range groups {
		model.Meshes = append(model.Meshes, buildOBJMesh(g, positions, normals, uvs))

		mi, ok := matIndex[g.material]
		if !ok {
			mat, found := materials[g.material]
			if !found {
				mat = DefaultMaterial()
			}
			mi = len(model.Materials)
			model.Materials = append(model.Materials, mat)
			matIndex[g.material] = mi
		}
		model.MeshMaterials = append(model.MeshMaterials, mi)
	}
	model.UpdateBounds()
	return model, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d components, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := range out {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// parseFaceVertex parses "v", "v/vt", "v//vn" or "v/vt/vn" into 0-based
// indices. Negative OBJ indices count back from the current pool sizes.
func parseFaceVertex(tok string, nv, nvt, nvn int) ([3]int, error) {
	ref := [3]int{-1, -1, -1}
	pools := [3]int{nv, nvt, nvn}
	for i, part := range strings.SplitN(tok, "/", 3) {
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return ref, fmt.Errorf("face vertex %q: %w", tok, err)
		}
		switch {
		case n > 0:
			ref[i] = n - 1
		case n < 0:
			ref[i] = pools[i] + n
		default:
			return ref, fmt.Errorf("face vertex %q: zero index", tok)
		}
		if ref[i] < 0 || ref[i] >= pools[i] {
			return ref, fmt.Errorf("face vertex %q: index out of range", tok)
		}
	}
	if ref[0] < 0 {
		return ref, fmt.Errorf("face vertex %q: missing position", tok)
	}
	return ref, nil
}

// buildOBJMesh deduplicates the face corners of g into an indexed mesh.
func buildOBJMesh(g objGroup, positions, normals []mgl32.Vec3, uvs []mgl32.Vec2) *Mesh {
	vertMap := map[[3]int]uint32{}
	var vertices []Vertex
	var indices []uint32
	missingNormals := false

	for _, face := range g.faces {
		for c := 0; c < 3; c++ {
			k := [3]int{face.v[c], face.vt[c], face.vn[c]}
			if idx, ok := vertMap[k]; ok {
				indices = append(indices, idx)
				continue
			}
			v := Vertex{Position: positions[k[0]], Color: white}
			if k[1] >= 0 {
				v.TexCoord = uvs[k[1]]
			}
			if k[2] >= 0 {
				v.Normal = normals[k[2]]
			} else {
				missingNormals = true
			}
			idx := uint32(len(vertices))
			vertices = append(vertices, v)
			vertMap[k] = idx
			indices = append(indices, idx)
		}
	}
	if missingNormals {
		generateNormals(vertices, indices)
	}

	mesh := NewMesh(g.name, vertices, indices)
	ComputeTangents(mesh)
	return mesh
}

// generateNormals writes area-weighted vertex normals to vertices without
// one.
func generateNormals(vertices []Vertex, indices []uint32) {
	accum := make([]mgl32.Vec3, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		p0 := vertices[i0].Position
		n := vertices[i1].Position.Sub(p0).Cross(vertices[i2].Position.Sub(p0))
		accum[i0] = accum[i0].Add(n)
		accum[i1] = accum[i1].Add(n)
		accum[i2] = accum[i2].Add(n)
	}
	for i := range vertices {
		if vertices[i].Normal.LenSqr() == 0 && accum[i].LenSqr() > 0 {
			vertices[i].Normal = accum[i].Normalize()
		}
	}
}

// ── MTL loader ───────────────────────────────────────────────────────────────

// LoadMTL reads a material library. Texture paths are resolved against the
// library's directory; a texture that fails to load is logged and skipped.
func LoadMTL(path string) (map[string]*Material, error) {
	return loadMTL(path, NewTextureCache())
}

func loadMTL(path string, cache *TextureCache) (map[string]*Material, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dir := filepath.Dir(path)
	return DecodeMTL(f, func(name string) (*Texture, error) {
		return cache.Load(filepath.Join(dir, name))
	})
}

// DecodeMTL parses MTL text into metallic-roughness materials. Kd and d set
// the albedo, Ke the emission, and Ns is converted to roughness. texture
// loads map_* references and may be nil.
func DecodeMTL(r io.Reader, texture func(name string) (*Texture, error)) (map[string]*Material, error) {
	mats := map[string]*Material{}
	var cur *Material

	setTexture := func(mm *MaterialMap, fields []string) {
		if texture == nil || len(fields) < 2 {
			return
		}
		// Options such as -bm precede the file name.
		name := fields[len(fields)-1]
		tex, err := texture(name)
		if err != nil {
			core.Logger().Warn("mtl texture skipped", "material", cur.Name, "texture", name, "err", err)
			return
		}
		mm.Texture = tex
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if fields[0] == "newmtl" {
			if len(fields) > 1 {
				cur = NewMaterial(fields[1], core.ColorWhite)
				mats[cur.Name] = cur
			}
			continue
		}
		if cur == nil {
			continue
		}

		switch fields[0] {
		case "Kd":
			if v, err := parseFloats(fields[1:], 3); err == nil {
				cur.Albedo.Color = core.Color{R: v[0], G: v[1], B: v[2], A: cur.Albedo.Color.A}
			}
		case "d":
			if v, err := parseFloats(fields[1:], 1); err == nil {
				cur.Albedo.Color.A = v[0]
			}
		case "Tr":
			if v, err := parseFloats(fields[1:], 1); err == nil {
				cur.Albedo.Color.A = 1 - v[0]
			}
		case "Ke":
			if v, err := parseFloats(fields[1:], 3); err == nil {
				cur.Emission.Color = core.Color{R: v[0], G: v[1], B: v[2], A: 1}
				cur.Emission.Value = 1
			}
		case "Ns":
			if v, err := parseFloats(fields[1:], 1); err == nil {
				cur.Roughness.Value = shininessToRoughness(v[0])
			}
		case "Pr":
			if v, err := parseFloats(fields[1:], 1); err == nil {
				cur.Roughness.Value = v[0]
			}
		case "Pm":
			if v, err := parseFloats(fields[1:], 1); err == nil {
				cur.Metalness.Value = v[0]
			}
		case "map_Kd":
			setTexture(&cur.Albedo, fields)
		case "map_Ke":
			setTexture(&cur.Emission, fields)
		case "map_Bump", "map_bump", "bump", "norm":
			setTexture(&cur.Normal, fields)
		case "map_Pr":
			setTexture(&cur.Roughness, fields)
		case "map_Pm":
			setTexture(&cur.Metalness, fields)
		}
	}
	return mats, scanner.Err()
}

// shininessToRoughness maps a Blinn-Phong exponent to a GGX roughness.
func shininessToRoughness(ns float32) float32 {
	return float32(stdmath.Sqrt(2 / (float64(max(ns, 0)) + 2)))
}
