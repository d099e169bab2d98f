package tile

import (
	"fmt"
	"math/rand"
	"path/filepath"

	"wood-tiler/internal/dataset"
	"wood-tiler/internal/raster"
	"wood-tiler/pkg/geometry"
)

// RandomParams configures the random tile sampler.
type RandomParams struct {
	// TilesPerImage is the nominal tile count per frame. The sampler draws
	// one fewer than this, matching the historical extraction runs; the
	// training sets in production were built with this count and changing
	// it would shift the class balance.
	TilesPerImage int

	TileWidth  int
	TileHeight int

	// RetinaSize is the edge of the square retina window used to label
	// each random tile.
	RetinaSize int
}

// RandomSampler cuts tiles at uniformly random positions from each frame
// and labels them through the retina rule. It produces the background
// population of the dataset: most random tiles land on clear wood.
type RandomSampler struct {
	Params RandomParams
	rng    *rand.Rand
}

// NewRandomSampler returns a sampler with its own deterministic stream.
func NewRandomSampler(p RandomParams, seed int64) *RandomSampler {
	return &RandomSampler{
		Params: p,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// SampleFrame extracts the random tiles of a single frame. The frame and
// its label map must have identical dimensions. Tiles are written under
// outDir/<className>/ with a _Tile_NN suffix and registered in ds. Returns
// the number of tiles extracted.
func (s *RandomSampler) SampleFrame(frame, label *raster.Image, name string, outDir string, ds *dataset.Dataset) (int, error) {
	p := s.Params
	if !frame.SameSize(label) {
		return 0, fmt.Errorf("%s: %w (frame %dx%d, label %dx%d)",
			name, ErrSizeMismatch, frame.Width, frame.Height, label.Width, label.Height)
	}
	if p.TileWidth > frame.Width || p.TileHeight > frame.Height {
		return 0, fmt.Errorf("%s: %w", name, ErrTileTooLarge)
	}

	// The last row and column of valid offsets are left unused. Kept for
	// bit-identical reproduction of the existing training sets.
	maxOffX := frame.Width - p.TileWidth - 1
	maxOffY := frame.Height - p.TileHeight - 1
	if maxOffX <= 0 || maxOffY <= 0 {
		return 0, fmt.Errorf("%s: %w", name, ErrTileTooLarge)
	}

	written := 0
	for tileIdx := 1; tileIdx < p.TilesPerImage; tileIdx++ {
		offX := s.rng.Intn(maxOffX)
		offY := s.rng.Intn(maxOffY)
		r := geometry.RectInt{X: offX, Y: offY, Width: p.TileWidth, Height: p.TileHeight}

		frameTile, err := frame.SubImage(r)
		if err != nil {
			return written, fmt.Errorf("%s tile %d: %w", name, tileIdx, err)
		}
		labelTile, err := label.SubImage(r)
		if err != nil {
			return written, fmt.Errorf("%s tile %d: %w", name, tileIdx, err)
		}

		labelValue, err := RetinaLabel(labelTile, p.RetinaSize, p.RetinaSize)
		if err != nil {
			return written, fmt.Errorf("%s tile %d: %w", name, tileIdx, err)
		}

		tileName := SuffixedName(filepath.Base(name), fmt.Sprintf("_Tile_%02d", tileIdx))
		if _, err := writeTile(frameTile, outDir, tileName, labelValue, dataset.MethodRandom, ds); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
