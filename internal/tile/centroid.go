package tile

import (
	"fmt"
	"path/filepath"

	"wood-tiler/internal/blob"
	"wood-tiler/internal/dataset"
	"wood-tiler/internal/raster"
	"wood-tiler/pkg/geometry"
)

// CentroidParams configures the blob-centroid sampler.
type CentroidParams struct {
	// ClassCount is the total number of classes including the background.
	// The sampler extracts tiles for defect classes 1..ClassCount-1.
	ClassCount int

	TileWidth  int
	TileHeight int

	// FinalTileSize is the edge the tiles will later be cropped to. The
	// acceptance retina is sized relative to it, not to the extraction
	// tile, so a tile is only kept if the defect still dominates after
	// the crop.
	FinalTileSize int

	// RetinaFraction scales FinalTileSize to the acceptance retina edge.
	RetinaFraction float64
}

// DefaultRetinaFraction is the acceptance retina scale used in production.
const DefaultRetinaFraction = 0.8

// CentroidSampler places one tile on the center of gravity of every
// connected defect region. Tiles whose acceptance retina disagrees with
// the blob's class (a sliver of defect at the edge of a mostly-clear tile)
// are dropped without error; they would train the wrong label.
type CentroidSampler struct {
	Params   CentroidParams
	Detector blob.Detector
}

// NewCentroidSampler builds a sampler around the given blob detector.
func NewCentroidSampler(p CentroidParams, det blob.Detector) *CentroidSampler {
	if p.RetinaFraction == 0 {
		p.RetinaFraction = DefaultRetinaFraction
	}
	return &CentroidSampler{Params: p, Detector: det}
}

// SampleFrame extracts the centroid tiles of a single frame, writing them
// under outDir/<className>/ with a _CoG_CC_NN suffix (class value, blob
// index) and registering them in ds. Returns the number of tiles written
// and the number dropped by the acceptance retina.
func (s *CentroidSampler) SampleFrame(frame, label *raster.Image, name string, outDir string, ds *dataset.Dataset) (written, dropped int, err error) {
	p := s.Params
	if !frame.SameSize(label) {
		return 0, 0, fmt.Errorf("%s: %w (frame %dx%d, label %dx%d)",
			name, ErrSizeMismatch, frame.Width, frame.Height, label.Width, label.Height)
	}
	if p.TileWidth > frame.Width || p.TileHeight > frame.Height {
		return 0, 0, fmt.Errorf("%s: %w", name, ErrTileTooLarge)
	}

	retina := int(p.RetinaFraction * float64(p.FinalTileSize))

	for class := 1; class < p.ClassCount; class++ {
		blobs, err := s.Detector.Detect(label, uint8(class))
		if err != nil {
			return written, dropped, fmt.Errorf("%s class %d: %w", name, class, err)
		}

		for blobIdx, b := range blobs {
			center := b.Centroid.Round()
			r := geometry.ClampedTileRect(center.X, center.Y,
				p.TileWidth, p.TileHeight, frame.Width, frame.Height)

			labelTile, err := label.SubImage(r)
			if err != nil {
				return written, dropped, fmt.Errorf("%s class %d blob %d: %w", name, class, blobIdx, err)
			}

			got, err := RetinaLabel(labelTile, retina, retina)
			if err != nil {
				return written, dropped, fmt.Errorf("%s class %d blob %d: %w", name, class, blobIdx, err)
			}
			if got != class {
				dropped++
				continue
			}

			frameTile, err := frame.SubImage(r)
			if err != nil {
				return written, dropped, fmt.Errorf("%s class %d blob %d: %w", name, class, blobIdx, err)
			}

			tileName := SuffixedName(filepath.Base(name), fmt.Sprintf("_CoG_%02d_%02d", class, blobIdx))
			if _, err := writeTile(frameTile, outDir, tileName, class, dataset.MethodCentroid, ds); err != nil {
				return written, dropped, err
			}
			written++
		}
	}
	return written, dropped, nil
}
