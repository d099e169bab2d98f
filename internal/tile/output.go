package tile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wood-tiler/internal/dataset"
	"wood-tiler/internal/raster"
)

// Progress is called after each frame a sampler finishes.
type Progress func(done, total int)

// SuffixedName inserts suffix between the base name and the extension of a
// filename: ("board01.bmp", "_Tile_03") -> "board01_Tile_03.bmp".
func SuffixedName(name, suffix string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + suffix + ext
}

// writeTile stores a tile under outDir/<className>/<name> and appends the
// matching entry to ds, returning the entry position. Existing files are
// never overwritten; colliding names report ErrTileExists.
func writeTile(img *raster.Image, outDir, name string, labelValue int, method string, ds *dataset.Dataset) (int, error) {
	class, ok := ds.ClassByValue(labelValue)
	if !ok {
		return 0, fmt.Errorf("label value %d has no class", labelValue)
	}

	rel := filepath.Join(class.Name, name)
	path := filepath.Join(outDir, rel)
	if _, err := os.Stat(path); err == nil {
		return 0, fmt.Errorf("%s: %w", path, ErrTileExists)
	}

	if err := raster.Save(img, path); err != nil {
		return 0, err
	}

	pos := ds.Append(dataset.Entry{
		FilePath:      rel,
		Label:         labelValue,
		Method:        method,
		AugmentSource: dataset.NoAugmentSource,
	})
	return pos, nil
}
