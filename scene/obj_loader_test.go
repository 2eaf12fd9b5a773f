package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const quadOBJ = `# two groups sharing positions
mtllib quad.mtl
v -1 0 -1
v  1 0 -1
v  1 0  1
v -1 0  1
vt 0 0
vt 1 0
vt 1 1
vt 0 1
o floor
usemtl red
f 1/1 2/2 3/3 4/4
o roof
usemtl glass
f -1/-1 -2/-2 -3/-3
`

const quadMTL = `newmtl red
Kd 1 0 0
Ns 0
newmtl glass
Kd 0.5 0.5 1
d 0.25
Ke 0 0 2
Pm 1
`

func TestDecodeOBJGroupsAndMaterials(t *testing.T) {
	model, err := DecodeOBJ(strings.NewReader(quadOBJ), func(name string) (map[string]*Material, error) {
		if name != "quad.mtl" {
			t.Errorf("mtllib: expected quad.mtl, got %q", name)
		}
		return DecodeMTL(strings.NewReader(quadMTL), nil)
	})
	if err != nil {
		t.Fatalf("DecodeOBJ: %v", err)
	}

	if len(model.Meshes) != 2 {
		t.Fatalf("meshes: expected 2, got %d", len(model.Meshes))
	}
	floor, roof := model.Meshes[0], model.Meshes[1]
	if floor.Name != "floor" || len(floor.Indices) != 6 || len(floor.Vertices) != 4 {
		t.Errorf("floor: name %q, %d indices, %d vertices", floor.Name, len(floor.Indices), len(floor.Vertices))
	}
	if len(roof.Indices) != 3 {
		t.Errorf("roof: expected 3 indices, got %d", len(roof.Indices))
	}
	// The faces carry no normals; this winding generates -Y.
	if n := floor.Vertices[0].Normal; n.Sub(mgl32.Vec3{0, -1, 0}).Len() > 1e-5 {
		t.Errorf("generated normal: expected (0,-1,0), got %v", n)
	}
	if uv := floor.Vertices[0].TexCoord; uv != (mgl32.Vec2{0, 1}) {
		t.Errorf("flipped uv: expected (0,1), got %v", uv)
	}

	red := model.MaterialFor(0)
	if red.Name != "red" || red.Albedo.Color.R != 1 || red.Albedo.Color.G != 0 {
		t.Errorf("floor material: got %+v", red.Albedo.Color)
	}
	if red.Roughness.Value != 1 {
		t.Errorf("Ns 0 roughness: expected 1, got %v", red.Roughness.Value)
	}
	glass := model.MaterialFor(1)
	if glass.Albedo.Color.A != 0.25 || glass.Emission.Color.B != 2 || glass.Metalness.Value != 1 {
		t.Errorf("glass material: albedo %+v emission %+v metalness %v", glass.Albedo.Color, glass.Emission.Color, glass.Metalness.Value)
	}
	if model.Bounds.Min != (mgl32.Vec3{-1, 0, -1}) || model.Bounds.Max != (mgl32.Vec3{1, 0, 1}) {
		t.Errorf("bounds: got %+v", model.Bounds)
	}
}

func TestDecodeOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", "# nothing\n"},
		{"bad vertex", "v 1 x 2\n"},
		{"index out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n"},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n"},
		{"degenerate face", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
	}
	for _, tt := range tests {
		if _, err := DecodeOBJ(strings.NewReader(tt.src), nil); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
}

func TestLoadModelOBJ(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "quad.obj"), []byte(quadOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "quad.mtl"), []byte(quadMTL), 0o644); err != nil {
		t.Fatal(err)
	}

	model, err := LoadModel(filepath.Join(dir, "quad.obj"))
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if len(model.Materials) != 2 || model.Materials[1].Name != "glass" {
		t.Errorf("materials: got %d", len(model.Materials))
	}

	if _, err := LoadModel(filepath.Join(dir, "missing.obj")); err == nil {
		t.Error("missing file: expected an error")
	}
	if _, err := LoadModel(filepath.Join(dir, "quad.fbx")); err == nil {
		t.Error("unsupported extension: expected an error")
	}
}
