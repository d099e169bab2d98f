package tile

import "errors"

// Sentinel errors the samplers report. Callers match with errors.Is.
var (
	// ErrTileTooLarge means the requested tile does not fit inside the
	// source frame.
	ErrTileTooLarge = errors.New("tile larger than source image")

	// ErrRetinaTooLarge means the retina window does not fit inside the
	// tile it labels.
	ErrRetinaTooLarge = errors.New("retina larger than tile")

	// ErrSizeMismatch means a frame and its label map have different
	// dimensions.
	ErrSizeMismatch = errors.New("frame and label map sizes differ")

	// ErrTileExists means a tile file with the generated name is already
	// present in the output directory.
	ErrTileExists = errors.New("tile file already exists")
)
