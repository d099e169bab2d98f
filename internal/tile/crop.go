package tile

import (
	"fmt"
	"path/filepath"

	"wood-tiler/internal/dataset"
	"wood-tiler/internal/raster"
	"wood-tiler/pkg/geometry"
)

// CropDataset rewrites every tile of ds in place, center-cropped to
// finalSize x finalSize. Extraction tiles are deliberately cut larger than
// the network input so the augmenter has margin to warp into; this is the
// pass that removes the margin. Tiles already at or below finalSize are
// left untouched. Progress, if non-nil, is called after each entry.
func CropDataset(ds *dataset.Dataset, baseDir string, finalSize int, progress Progress) error {
	total := ds.Count()
	for i, e := range ds.Entries {
		path := filepath.Join(baseDir, e.FilePath)
		img, err := raster.Load(path)
		if err != nil {
			return fmt.Errorf("crop entry %d: %w", i, err)
		}

		if img.Width > finalSize || img.Height > finalSize {
			cropped, err := CropCenter(img, finalSize)
			if err != nil {
				return fmt.Errorf("crop entry %d (%s): %w", i, e.FilePath, err)
			}
			if err := raster.Save(cropped, path); err != nil {
				return fmt.Errorf("crop entry %d: %w", i, err)
			}
		}

		if progress != nil {
			progress(i+1, total)
		}
	}
	return nil
}

// CropCenter returns the centered finalSize x finalSize window of img.
func CropCenter(img *raster.Image, finalSize int) (*raster.Image, error) {
	if finalSize > img.Width || finalSize > img.Height {
		return nil, fmt.Errorf("final size %d exceeds tile %dx%d: %w",
			finalSize, img.Width, img.Height, ErrTileTooLarge)
	}
	r := geometry.CenteredRect(img.Width, img.Height, finalSize, finalSize)
	return img.SubImage(r)
}
