// Package raster provides the 8-bit image buffers the tiling pipeline works
// on: multi-band sensor frames and single-band label maps, with the
// rectangle copy and statistics operations the samplers need.
package raster

import (
	"fmt"

	"wood-tiler/pkg/geometry"
)

// Image is an 8-bit raster with interleaved bands, row-major.
// Bands is 1 for label maps and grayscale frames, 3 for color frames.
type Image struct {
	Width  int
	Height int
	Bands  int
	Pix    []uint8
}

// New allocates a zeroed image.
func New(width, height, bands int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Bands:  bands,
		Pix:    make([]uint8, width*height*bands),
	}
}

// At returns the value of band b at (x, y). No bounds checking.
func (m *Image) At(x, y, b int) uint8 {
	return m.Pix[(y*m.Width+x)*m.Bands+b]
}

// Set stores v into band b at (x, y). No bounds checking.
func (m *Image) Set(x, y, b int, v uint8) {
	m.Pix[(y*m.Width+x)*m.Bands+b] = v
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	out := New(m.Width, m.Height, m.Bands)
	copy(out.Pix, m.Pix)
	return out
}

// SameSize reports whether the other image has identical spatial dimensions.
// Band counts may differ (a color frame against its label map).
func (m *Image) SameSize(other *Image) bool {
	return m.Width == other.Width && m.Height == other.Height
}

// SubImage copies the rectangle r into a new image with the same band count.
// The rectangle must lie fully inside the image.
func (m *Image) SubImage(r geometry.RectInt) (*Image, error) {
	if r.Empty() || !r.In(m.Width, m.Height) {
		return nil, fmt.Errorf("rectangle (%d,%d %dx%d) outside %dx%d image",
			r.X, r.Y, r.Width, r.Height, m.Width, m.Height)
	}

	out := New(r.Width, r.Height, m.Bands)
	rowBytes := r.Width * m.Bands
	for y := 0; y < r.Height; y++ {
		srcOff := ((r.Y+y)*m.Width + r.X) * m.Bands
		copy(out.Pix[y*rowBytes:(y+1)*rowBytes], m.Pix[srcOff:srcOff+rowBytes])
	}
	return out, nil
}

// MaxIn returns the maximum band-0 value inside the rectangle r.
// This is the statistic the retina labeler is built on.
func (m *Image) MaxIn(r geometry.RectInt) (uint8, error) {
	if r.Empty() || !r.In(m.Width, m.Height) {
		return 0, fmt.Errorf("rectangle (%d,%d %dx%d) outside %dx%d image",
			r.X, r.Y, r.Width, r.Height, m.Width, m.Height)
	}

	var max uint8
	for y := r.Y; y < r.Y+r.Height; y++ {
		rowOff := (y*m.Width + r.X) * m.Bands
		for x := 0; x < r.Width; x++ {
			if v := m.Pix[rowOff+x*m.Bands]; v > max {
				max = v
			}
		}
	}
	return max, nil
}

// BilinearAt samples band b at the floating-point position (fx, fy).
// Positions outside the image sample as 0, which leaves affine-warp
// overscan black the same way the extraction buffers start black.
func (m *Image) BilinearAt(fx, fy float64, b int) uint8 {
	x0 := int(fx)
	y0 := int(fy)
	if fx < 0 {
		x0--
	}
	if fy < 0 {
		y0--
	}
	dx := fx - float64(x0)
	dy := fy - float64(y0)

	sample := func(x, y int) float64 {
		if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
			return 0
		}
		return float64(m.At(x, y, b))
	}

	v := sample(x0, y0)*(1-dx)*(1-dy) +
		sample(x0+1, y0)*dx*(1-dy) +
		sample(x0, y0+1)*(1-dx)*dy +
		sample(x0+1, y0+1)*dx*dy

	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
