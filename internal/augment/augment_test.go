package augment

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
	}
}

func TestApplyPreservesShape(t *testing.T) {
	img := raster.New(115, 115, 3)
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 251)
	}

	aug := New(DefaultPolicy(), 42)
	out := aug.Apply(img)
	require.Equal(t, img.Width, out.Width)
	require.Equal(t, img.Height, out.Height)
	require.Equal(t, img.Bands, out.Bands)
}

func TestApplyDoesNotModifySource(t *testing.T) {
	img := raster.New(64, 64, 1)
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	orig := img.Clone()

	aug := New(DefaultPolicy(), 42)
	aug.Apply(img)
	require.Equal(t, orig.Pix, img.Pix)
}

func TestApplyDeterministic(t *testing.T) {
	img := raster.New(64, 64, 1)
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 200)
	}

	a := New(DefaultPolicy(), 7).Apply(img)
	b := New(DefaultPolicy(), 7).Apply(img)
	require.Equal(t, a.Pix, b.Pix)

	c := New(DefaultPolicy(), 8).Apply(img)
	require.NotEqual(t, a.Pix, c.Pix)
}

// seedDataset writes count tiles per class into a fresh tree and returns
// the dataset describing them.
func seedDataset(t *testing.T, dir string, perClass []int) *dataset.Dataset {
	t.Helper()
	ds := dataset.New(testClasses())
	for class, count := range perClass {
		className := ds.Classes[class].Name
		require.NoError(t, os.MkdirAll(filepath.Join(dir, className), 0755))
		for i := 0; i < count; i++ {
			img := raster.New(32, 32, 1)
			for j := range img.Pix {
				img.Pix[j] = uint8((i + j) % 256)
			}
			rel := filepath.Join(className, fmt.Sprintf("t%03d.png", i))
			require.NoError(t, raster.Save(img, filepath.Join(dir, rel)))
			ds.Append(dataset.Entry{FilePath: rel, Label: class,
				Method: dataset.MethodRandom, AugmentSource: dataset.NoAugmentSource})
		}
	}
	return ds
}

func TestBalanceCounts(t *testing.T) {
	dir := t.TempDir()
	ds := seedDataset(t, dir, []int{60, 40})

	aug := New(DefaultPolicy(), 42)
	added, err := Balance(ds, dir, []int{1, 3}, aug, nil)
	require.NoError(t, err)

	// 60 background tiles x1 + 40 defect tiles x3.
	require.Equal(t, 180, added)
	require.Equal(t, 280, ds.Count())

	counts := ds.CountByLabel()
	require.Equal(t, 120, counts[0])
	require.Equal(t, 160, counts[1])

	for _, e := range ds.Entries[100:] {
		require.GreaterOrEqual(t, e.AugmentSource, 0)
		require.Less(t, e.AugmentSource, 100)
	}
}

func TestBalanceProvenance(t *testing.T) {
	dir := t.TempDir()
	ds := seedDataset(t, dir, []int{2, 1})
	sources := ds.Count()

	aug := New(DefaultPolicy(), 42)
	_, err := Balance(ds, dir, []int{1, 2}, aug, nil)
	require.NoError(t, err)

	for pos, e := range ds.Entries {
		if pos < sources {
			require.Equal(t, dataset.NoAugmentSource, e.AugmentSource)
			continue
		}
		require.Equal(t, dataset.MethodAugment, e.Method)
		require.GreaterOrEqual(t, e.AugmentSource, 0)
		require.Less(t, e.AugmentSource, sources)

		src := ds.Entries[e.AugmentSource]
		require.Equal(t, src.Label, e.Label)

		// Replica files exist next to their sources.
		_, err := os.Stat(filepath.Join(dir, e.FilePath))
		require.NoError(t, err)
	}

	// Names carry the _Aug_N suffix before the extension.
	require.Equal(t, filepath.Join("NoDefect", "t000_Aug_0.png"), ds.Entries[sources].FilePath)
}

func TestBalanceDoesNotReaugmentReplicas(t *testing.T) {
	dir := t.TempDir()
	ds := seedDataset(t, dir, []int{1, 1})

	aug := New(DefaultPolicy(), 42)
	added, err := Balance(ds, dir, []int{2, 2}, aug, nil)
	require.NoError(t, err)
	require.Equal(t, 4, added)

	for _, e := range ds.Entries[2:] {
		require.Less(t, e.AugmentSource, 2)
	}
}

func TestBalanceProgress(t *testing.T) {
	dir := t.TempDir()
	ds := seedDataset(t, dir, []int{3, 0})

	var calls int
	aug := New(DefaultPolicy(), 42)
	_, err := Balance(ds, dir, []int{0, 0}, aug, func(done, total int) {
		calls++
		require.Equal(t, 3, total)
		require.Equal(t, calls, done)
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestBalanceRejectsUnknownLabel(t *testing.T) {
	dir := t.TempDir()
	ds := dataset.New(testClasses())
	ds.Append(dataset.Entry{FilePath: "x.png", Label: 5, AugmentSource: dataset.NoAugmentSource})

	aug := New(DefaultPolicy(), 42)
	_, err := Balance(ds, dir, []int{1, 1}, aug, nil)
	require.Error(t, err)
}
