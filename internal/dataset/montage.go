package dataset

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	montageCell    = 128 // icon cell edge in pixels
	montagePad     = 8
	montageCaption = 18
)

// SaveMontage renders a horizontal strip of the class icons, one cell per
// class with its name captioned underneath, and writes it to path as PNG.
// Classes without an icon get an empty outlined cell. The strip is a quick
// visual check that the class table and the label values line up.
func (d *Dataset) SaveMontage(path string) error {
	n := len(d.Classes)
	if n == 0 {
		return fmt.Errorf("montage: dataset has no classes")
	}

	w := n*montageCell + (n+1)*montagePad
	h := montageCell + montageCaption + 2*montagePad
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for i, c := range d.Classes {
		cell := image.Rect(
			montagePad+i*(montageCell+montagePad),
			montagePad,
			montagePad+i*(montageCell+montagePad)+montageCell,
			montagePad+montageCell,
		)

		if c.IconPath != "" {
			icon, err := decodeIcon(c.IconPath)
			if err != nil {
				return fmt.Errorf("montage class %q: %w", c.Name, err)
			}
			draw.ApproxBiLinear.Scale(canvas, cell, icon, icon.Bounds(), draw.Src, nil)
		}
		outlineRect(canvas, cell, color.Black)

		drawer := font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(color.Black),
			Face: basicfont.Face7x13,
		}
		caption := fmt.Sprintf("%s (%d)", c.Name, c.Value)
		width := drawer.MeasureString(caption)
		drawer.Dot = fixed.Point26_6{
			X: fixed.I(cell.Min.X+montageCell/2) - width/2,
			Y: fixed.I(cell.Max.Y + montageCaption - 4),
		}
		drawer.DrawString(caption)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create montage: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, canvas); err != nil {
		return fmt.Errorf("encode montage: %w", err)
	}
	return nil
}

func decodeIcon(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open icon: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode icon %s: %w", path, err)
	}
	return img, nil
}

func outlineRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		dst.Set(x, r.Min.Y, c)
		dst.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dst.Set(r.Min.X, y, c)
		dst.Set(r.Max.X-1, y, c)
	}
}
