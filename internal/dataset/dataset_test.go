package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testClasses() []Class {
	return []Class{
		{Name: "NoDefect", Value: 0},
		{Name: "LargeKnots", Value: 1},
		{Name: "SmallKnots", Value: 2},
	}
}

func TestAppendPositions(t *testing.T) {
	ds := New(testClasses())
	for i := 0; i < 5; i++ {
		pos := ds.Append(Entry{FilePath: fmt.Sprintf("t%d.png", i), AugmentSource: NoAugmentSource})
		require.Equal(t, i, pos)
	}
	require.Equal(t, 5, ds.Count())
	require.Equal(t, "t3.png", ds.Entries[3].FilePath)
}

func TestAddDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.bmp", "a.bmp", "c.BMP", "skip.png", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub.bmp"), 0755))

	ds := New(testClasses())
	n, err := ds.AddDirectory(dir, ".bmp")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	// Sorted filename order, extension matched case-insensitively.
	require.Equal(t, "a.bmp", ds.Entries[0].FilePath)
	require.Equal(t, "b.bmp", ds.Entries[1].FilePath)
	require.Equal(t, "c.BMP", ds.Entries[2].FilePath)
	for _, e := range ds.Entries {
		require.Equal(t, 0, e.Label)
		require.Equal(t, MethodFrame, e.Method)
	}
}

func TestSplitReproducible(t *testing.T) {
	ds := New(testClasses())
	for i := 0; i < 50; i++ {
		ds.Append(Entry{FilePath: fmt.Sprintf("f%02d.bmp", i), AugmentSource: NoAugmentSource})
	}

	train1, dev1 := ds.Split(80, 17)
	train2, dev2 := ds.Split(80, 17)
	require.Equal(t, train1.Entries, train2.Entries)
	require.Equal(t, dev1.Entries, dev2.Entries)

	require.Equal(t, 40, train1.Count())
	require.Equal(t, 10, dev1.Count())

	// A different seed picks a different membership.
	train3, _ := ds.Split(80, 18)
	require.NotEqual(t, train1.Entries, train3.Entries)
}

func TestSplitPreservesOrder(t *testing.T) {
	ds := New(testClasses())
	for i := 0; i < 20; i++ {
		ds.Append(Entry{FilePath: fmt.Sprintf("f%02d.bmp", i), AugmentSource: NoAugmentSource})
	}

	train, dev := ds.Split(50, 3)
	for _, part := range []*Dataset{train, dev} {
		for i := 1; i < part.Count(); i++ {
			require.Less(t, part.Entries[i-1].FilePath, part.Entries[i].FilePath)
		}
	}
}

func TestSplitExtremes(t *testing.T) {
	ds := New(testClasses())
	for i := 0; i < 10; i++ {
		ds.Append(Entry{FilePath: fmt.Sprintf("f%d.bmp", i), AugmentSource: NoAugmentSource})
	}

	train, dev := ds.Split(100, 1)
	require.Equal(t, 10, train.Count())
	require.Equal(t, 0, dev.Count())

	train, dev = ds.Split(0, 1)
	require.Equal(t, 0, train.Count())
	require.Equal(t, 10, dev.Count())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ds := New(testClasses())
	ds.Append(Entry{FilePath: "LargeKnots/t0.png", Label: 1, Method: MethodCentroid, AugmentSource: NoAugmentSource})
	ds.Append(Entry{FilePath: "LargeKnots/t0_Aug_0.png", Label: 1, Method: MethodAugment, AugmentSource: 0})

	path := filepath.Join(t.TempDir(), "ds.json")
	require.NoError(t, ds.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ds.Classes, got.Classes)
	require.Equal(t, ds.Entries, got.Entries)
}

func TestExportCSV(t *testing.T) {
	ds := New(testClasses())
	ds.Append(Entry{FilePath: "NoDefect/a.png", Label: 0, Method: MethodRandom, AugmentSource: NoAugmentSource})
	ds.Append(Entry{FilePath: "SmallKnots/b.png", Label: 2, Method: MethodCentroid, AugmentSource: NoAugmentSource})

	path := filepath.Join(t.TempDir(), "ds.csv")
	require.NoError(t, ds.ExportCSV(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, []string{"position", "file_path", "label", "class", "method", "augment_source"}, records[0])
	require.Equal(t, []string{"1", "SmallKnots/b.png", "2", "SmallKnots", "centroid", "-1"}, records[2])
}

func TestCountByLabel(t *testing.T) {
	ds := New(testClasses())
	for i := 0; i < 3; i++ {
		ds.Append(Entry{Label: 0, AugmentSource: NoAugmentSource})
	}
	ds.Append(Entry{Label: 2, AugmentSource: NoAugmentSource})

	counts := ds.CountByLabel()
	require.Equal(t, 3, counts[0])
	require.Equal(t, 0, counts[1])
	require.Equal(t, 1, counts[2])
}
