package blob

import (
	"fmt"

	"gocv.io/x/gocv"

	"wood-tiler/internal/raster"
	"wood-tiler/pkg/geometry"
)

// OpenCVDetector runs connected-component analysis through OpenCV. It
// produces the same blobs as FloodFillDetector but is considerably faster
// on full production scans; select it with `blob_detector: opencv` in the
// run configuration.
type OpenCVDetector struct{}

// Detect implements Detector.
func (OpenCVDetector) Detect(label *raster.Image, classValue uint8) ([]Blob, error) {
	if label.Bands != 1 {
		return nil, fmt.Errorf("label map has %d bands, want 1", label.Bands)
	}

	// Binarize: pixel == classValue -> 255.
	mask := make([]byte, len(label.Pix))
	for i, v := range label.Pix {
		if v == classValue {
			mask[i] = 255
		}
	}

	m, err := gocv.NewMatFromBytes(label.Height, label.Width, gocv.MatTypeCV8U, mask)
	if err != nil {
		return nil, fmt.Errorf("build mask mat: %w", err)
	}
	defer m.Close()

	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	n := gocv.ConnectedComponentsWithStats(m, &labels, &stats, &centroids)

	// Component 0 is the background.
	blobs := make([]Blob, 0, n-1)
	for i := 1; i < n; i++ {
		blobs = append(blobs, Blob{
			Centroid: geometry.Point2D{
				X: centroids.GetDoubleAt(i, 0),
				Y: centroids.GetDoubleAt(i, 1),
			},
			Area: int(stats.GetIntAt(i, 4)), // CC_STAT_AREA
		})
	}
	return blobs, nil
}
