package tile

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"wood-tiler/internal/dataset"
	"wood-tiler/internal/raster"
)

func testClasses() []dataset.Class {
	return []dataset.Class{
		{Name: "NoDefect", Value: 0},
		{Name: "LargeKnots", Value: 1},
		{Name: "SmallKnots", Value: 2},
	}
}

func makeOutDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, c := range testClasses() {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, c.Name), 0755))
	}
	return dir
}

func uniformFrame(w, h int) *raster.Image {
	img := raster.New(w, h, 1)
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	return img
}

func TestRandomSamplerCountAndNames(t *testing.T) {
	frame := uniformFrame(300, 300)
	label := raster.New(300, 300, 1)
	outDir := makeOutDir(t)
	ds := dataset.New(testClasses())

	s := NewRandomSampler(RandomParams{
		TilesPerImage: 15,
		TileWidth:     140,
		TileHeight:    140,
		RetinaSize:    16,
	}, 7)

	n, err := s.SampleFrame(frame, label, "board01.png", outDir, ds)
	require.NoError(t, err)
	require.Equal(t, 14, n)
	require.Equal(t, 14, ds.Count())

	for i, e := range ds.Entries {
		require.Equal(t, 0, e.Label)
		require.Equal(t, dataset.MethodRandom, e.Method)
		require.Equal(t, dataset.NoAugmentSource, e.AugmentSource)
		suffix := fmt.Sprintf("_Tile_%02d", i+1)
		require.Equal(t, filepath.Join("NoDefect", SuffixedName("board01.png", suffix)), e.FilePath)

		img, err := raster.Load(filepath.Join(outDir, e.FilePath))
		require.NoError(t, err)
		require.Equal(t, 140, img.Width)
		require.Equal(t, 140, img.Height)
	}
}

func TestRandomSamplerLabelsThroughRetina(t *testing.T) {
	frame := uniformFrame(300, 300)
	label := raster.New(300, 300, 1)
	for i := range label.Pix {
		label.Pix[i] = 1
	}
	outDir := makeOutDir(t)
	ds := dataset.New(testClasses())

	s := NewRandomSampler(RandomParams{TilesPerImage: 3, TileWidth: 140, TileHeight: 140, RetinaSize: 16}, 7)
	_, err := s.SampleFrame(frame, label, "board01.png", outDir, ds)
	require.NoError(t, err)

	for _, e := range ds.Entries {
		require.Equal(t, 1, e.Label)
		require.Equal(t, "LargeKnots", filepath.Dir(e.FilePath))
	}
}

func TestRandomSamplerDeterministic(t *testing.T) {
	frame := uniformFrame(300, 300)
	label := raster.New(300, 300, 1)

	run := func() []dataset.Entry {
		outDir := makeOutDir(t)
		ds := dataset.New(testClasses())
		s := NewRandomSampler(RandomParams{TilesPerImage: 8, TileWidth: 140, TileHeight: 140, RetinaSize: 16}, 99)
		_, err := s.SampleFrame(frame, label, "board01.png", outDir, ds)
		require.NoError(t, err)
		return ds.Entries
	}

	require.Equal(t, run(), run())
}

func TestRandomSamplerRejectsSizeMismatch(t *testing.T) {
	frame := uniformFrame(300, 300)
	label := raster.New(200, 300, 1)
	outDir := makeOutDir(t)
	ds := dataset.New(testClasses())

	s := NewRandomSampler(RandomParams{TilesPerImage: 3, TileWidth: 140, TileHeight: 140, RetinaSize: 16}, 7)
	_, err := s.SampleFrame(frame, label, "board01.png", outDir, ds)
	require.ErrorIs(t, err, ErrSizeMismatch)
}

func TestRandomSamplerRejectsTightFrame(t *testing.T) {
	// The sampler needs strictly more than one pixel of slack per axis.
	frame := uniformFrame(141, 141)
	label := raster.New(141, 141, 1)
	outDir := makeOutDir(t)
	ds := dataset.New(testClasses())

	s := NewRandomSampler(RandomParams{TilesPerImage: 3, TileWidth: 140, TileHeight: 140, RetinaSize: 16}, 7)
	_, err := s.SampleFrame(frame, label, "board01.png", outDir, ds)
	require.ErrorIs(t, err, ErrTileTooLarge)
}
