package scene

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"r3d/gpu"
)

// Texture holds CPU-side pixel data for a 2D texture and, once uploaded,
// its device handle. Format is RGBA8 when any pixel is translucent and
// RGB8 otherwise.
type Texture struct {
	Name   string
	Width  int
	Height int
	Format gpu.Format
	// Pixels in RGBA8 format (4 bytes per pixel, row-major, top-to-bottom).
	Pixels []byte
	// Handle is set by Upload; zero means not resident.
	Handle gpu.Texture
}

// LoadTexture reads a PNG, JPEG, BMP, TIFF or WebP file from disk.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	defer f.Close()

	tex, err := DecodeTexture(path, f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", path, err)
	}
	return tex, nil
}

// DecodeTexture decodes an image stream into an RGBA8 Texture.
func DecodeTexture(name string, r io.Reader) (*Texture, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return &Texture{
		Name:   name,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: detectFormat(rgba.Pix),
		Pixels: rgba.Pix,
	}, nil
}

func decodeImageBytes(name string, data []byte) (*Texture, error) {
	return DecodeTexture(name, bytes.NewReader(data))
}

func detectFormat(pix []byte) gpu.Format {
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 0xFF {
			return gpu.FormatRGBA8
		}
	}
	return gpu.FormatRGB8
}

// NewSolidTexture creates a 1x1 texture with the given RGBA color values (0–255).
func NewSolidTexture(name string, r, g, b, a uint8) *Texture {
	pix := []byte{r, g, b, a}
	return &Texture{
		Name:   name,
		Width:  1,
		Height: 1,
		Format: detectFormat(pix),
		Pixels: pix,
	}
}

// Upload creates the device texture. Calling it on a resident texture is a
// no-op.
func (t *Texture) Upload(dev gpu.Device) error {
	if t.Handle != 0 {
		return nil
	}
	data := t.Pixels
	if t.Format == gpu.FormatRGB8 {
		data = make([]byte, 0, t.Width*t.Height*3)
		for i := 0; i+3 < len(t.Pixels); i += 4 {
			data = append(data, t.Pixels[i], t.Pixels[i+1], t.Pixels[i+2])
		}
	}
	h, err := dev.CreateTexture(gpu.TextureDesc{
		Target: gpu.Texture2D,
		Format: t.Format,
		Width:  t.Width,
		Height: t.Height,
		Filter: gpu.FilterLinear,
		Wrap:   gpu.WrapRepeat,
		Data:   data,
	})
	if err != nil {
		return fmt.Errorf("upload texture %q: %w", t.Name, err)
	}
	t.Handle = h
	return nil
}

// Unload releases the device texture, keeping the CPU pixels.
func (t *Texture) Unload(dev gpu.Device) {
	if t.Handle != 0 {
		dev.DeleteTexture(t.Handle)
		t.Handle = 0
	}
}
