package dataset

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveMontage(t *testing.T) {
	dir := t.TempDir()

	// One class gets an icon, the others render as empty cells.
	iconPath := filepath.Join(dir, "icon.png")
	icon := image.NewGray(image.Rect(0, 0, 40, 40))
	for i := range icon.Pix {
		icon.Pix[i] = 180
	}
	f, err := os.Create(iconPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, icon))
	require.NoError(t, f.Close())

	ds := New([]Class{
		{Name: "NoDefect", Value: 0},
		{Name: "LargeKnots", Value: 1, IconPath: iconPath},
		{Name: "SmallKnots", Value: 2},
	})

	out := filepath.Join(dir, "classes.png")
	require.NoError(t, ds.SaveMontage(out))

	g, err := os.Open(out)
	require.NoError(t, err)
	defer g.Close()

	img, err := png.Decode(g)
	require.NoError(t, err)

	wantW := 3*montageCell + 4*montagePad
	wantH := montageCell + montageCaption + 2*montagePad
	require.Equal(t, wantW, img.Bounds().Dx())
	require.Equal(t, wantH, img.Bounds().Dy())

	// The icon cell carries the icon's gray level at its center.
	centerX := montagePad + (montageCell + montagePad) + montageCell/2
	centerY := montagePad + montageCell/2
	r, _, _, _ := img.At(centerX, centerY).RGBA()
	require.Equal(t, uint32(180), r>>8)
}

func TestSaveMontageNoClasses(t *testing.T) {
	ds := New(nil)
	err := ds.SaveMontage(filepath.Join(t.TempDir(), "classes.png"))
	require.Error(t, err)
}

func TestSaveMontageMissingIcon(t *testing.T) {
	ds := New([]Class{{Name: "NoDefect", Value: 0, IconPath: "/does/not/exist.png"}})
	err := ds.SaveMontage(filepath.Join(t.TempDir(), "classes.png"))
	require.Error(t, err)
}
