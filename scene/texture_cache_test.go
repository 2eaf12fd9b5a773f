package scene

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"r3d/gpu"
	"r3d/gpu/gputest"
)

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestTextureCacheSharesLoads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bricks.png")
	writePNG(t, path, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	c := NewTextureCache()
	a, err := c.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b, err := c.Load(filepath.Join(dir, ".", "bricks.png"))
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if a != b || c.Len() != 1 {
		t.Errorf("expected one shared texture, got %p %p (len %d)", a, b, c.Len())
	}
	if a.Format != gpu.FormatRGB8 {
		t.Errorf("opaque texture format: expected RGB8, got %v", a.Format)
	}

	fallback := c.GetOrDefault(filepath.Join(dir, "missing.png"))
	if fallback == nil || fallback.Width != 1 || c.Len() != 1 {
		t.Errorf("GetOrDefault: expected the 1x1 fallback without caching the failure")
	}

	rec := gputest.NewRecorder()
	if err := a.Upload(rec); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	c.Unload(rec)
	if a.Handle != 0 || rec.LiveTextures() != 0 {
		t.Errorf("Unload left %d live textures", rec.LiveTextures())
	}
}

func TestLoadOBJSharesMTLTextures(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "albedo.png"), color.NRGBA{R: 255, G: 255, B: 255, A: 128})
	obj := "mtllib a.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl one\nf 1 2 3\nusemtl two\nf 3 2 1\n"
	mtl := "newmtl one\nmap_Kd albedo.png\nnewmtl two\nmap_Kd albedo.png\n"
	for name, body := range map[string]string{"a.obj": obj, "a.mtl": mtl} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	model, err := LoadOBJ(filepath.Join(dir, "a.obj"))
	if err != nil {
		t.Fatalf("LoadOBJ: %v", err)
	}
	if len(model.Materials) != 2 {
		t.Fatalf("materials: expected 2, got %d", len(model.Materials))
	}
	one, two := model.Materials[0].Albedo.Texture, model.Materials[1].Albedo.Texture
	if one == nil || one != two {
		t.Errorf("map_Kd textures not shared: %p %p", one, two)
	}
	if one != nil && one.Format != gpu.FormatRGBA8 {
		t.Errorf("translucent texture format: expected RGBA8, got %v", one.Format)
	}
}
