package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Load reads a frame image. Grayscale sources become single-band images,
// everything else is converted to 3-band RGB.
func Load(path string) (*Image, error) {
	img, err := decode(path)
	if err != nil {
		return nil, err
	}

	switch src := img.(type) {
	case *image.Gray:
		return fromGray(src), nil
	case *image.Paletted:
		// 8-bit BMP round-trips grayscale frames through a gray palette;
		// keep those single-band.
		if lut, ok := grayPalette(src); ok {
			return fromPaletted(src, lut), nil
		}
		return fromColor(img), nil
	default:
		return fromColor(img), nil
	}
}

// grayPalette returns an index-to-luminance table if every palette entry is
// achromatic.
func grayPalette(src *image.Paletted) ([]uint8, bool) {
	lut := make([]uint8, len(src.Palette))
	for i, c := range src.Palette {
		r, g, b, _ := c.RGBA()
		if r != g || g != b {
			return nil, false
		}
		lut[i] = uint8(r >> 8)
	}
	return lut, true
}

func fromPaletted(src *image.Paletted, lut []uint8) *Image {
	b := src.Bounds()
	out := New(b.Dx(), b.Dy(), 1)
	for y := 0; y < out.Height; y++ {
		srcOff := src.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < out.Width; x++ {
			out.Pix[y*out.Width+x] = lut[src.Pix[srcOff+x]]
		}
	}
	return out
}

// LoadLabel reads a label map as a single-band image of class indices.
// Gray sources map directly; paletted sources (8-bit BMP/PNG) use the
// palette index as the class value, which is how the label images encode
// classes 0..N-1. Anything else is an error: silently converting a color
// label map through luminance would corrupt ground truth.
func LoadLabel(path string) (*Image, error) {
	img, err := decode(path)
	if err != nil {
		return nil, err
	}

	switch src := img.(type) {
	case *image.Gray:
		return fromGray(src), nil
	case *image.Paletted:
		b := src.Bounds()
		out := New(b.Dx(), b.Dy(), 1)
		for y := 0; y < out.Height; y++ {
			srcOff := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Width:(y+1)*out.Width], src.Pix[srcOff:srcOff+out.Width])
		}
		return out, nil
	default:
		return nil, fmt.Errorf("label image %s: unsupported pixel format %T (need 8-bit gray or paletted)", path, img)
	}
}

// Save writes an image, choosing the codec from the file extension.
// Supported: .png, .bmp, .jpg/.jpeg, .tif/.tiff.
func Save(m *Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	img := m.ToImage()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(f, img)
	case ".bmp":
		err = bmp.Encode(f, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, nil)
	default:
		err = fmt.Errorf("unsupported image format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// ToImage converts to a stdlib image for encoding: Gray for single-band,
// RGBA otherwise.
func (m *Image) ToImage() image.Image {
	if m.Bands == 1 {
		out := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
		copy(out.Pix, m.Pix)
		return out
	}

	out := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			out.SetRGBA(x, y, color.RGBA{
				R: m.At(x, y, 0),
				G: m.At(x, y, 1),
				B: m.At(x, y, 2),
				A: 255,
			})
		}
	}
	return out
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func fromGray(src *image.Gray) *Image {
	b := src.Bounds()
	out := New(b.Dx(), b.Dy(), 1)
	for y := 0; y < out.Height; y++ {
		srcOff := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(out.Pix[y*out.Width:(y+1)*out.Width], src.Pix[srcOff:srcOff+out.Width])
	}
	return out
}

func fromColor(src image.Image) *Image {
	b := src.Bounds()
	out := New(b.Dx(), b.Dy(), 3)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			r, g, bl, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			off := (y*out.Width + x) * 3
			out.Pix[off] = uint8(r >> 8)
			out.Pix[off+1] = uint8(g >> 8)
			out.Pix[off+2] = uint8(bl >> 8)
		}
	}
	return out
}
