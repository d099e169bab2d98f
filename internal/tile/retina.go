// Package tile extracts training tiles from annotated wood frames. Two
// samplers cover the two populations a balanced classifier needs: random
// tiles for the background distribution and blob-centroid tiles aimed at
// the defect bodies. Every extracted tile is labeled through the retina
// rule below.
package tile

import (
	"wood-tiler/internal/raster"
	"wood-tiler/pkg/geometry"
)

// RetinaLabel assigns a class to a label-map tile: the maximum pixel value
// inside a retinaW x retinaH window centered on the tile. The max makes the
// label err toward the defect when the window straddles a boundary, which
// is the conservative direction for an inspection system.
func RetinaLabel(labelTile *raster.Image, retinaW, retinaH int) (int, error) {
	if retinaW > labelTile.Width || retinaH > labelTile.Height {
		return 0, ErrRetinaTooLarge
	}

	retina := geometry.CenteredRect(labelTile.Width, labelTile.Height, retinaW, retinaH)
	max, err := labelTile.MaxIn(retina)
	if err != nil {
		return 0, err
	}
	return int(max), nil
}
