// Package blob locates connected regions of a given class value in a label
// map and reports their centers of gravity. The centroid tile sampler uses
// these centers to place tiles over defect bodies.
package blob

import (
	"fmt"

	"wood-tiler/internal/raster"
	"wood-tiler/pkg/geometry"
)

// Blob describes one connected region of label pixels.
type Blob struct {
	Centroid geometry.Point2D
	Area     int
}

// Detector finds the blobs of a single class value in a label map.
type Detector interface {
	Detect(label *raster.Image, classValue uint8) ([]Blob, error)
}

// FloodFillDetector is the built-in pure-Go detector. It labels connected
// regions with an explicit-stack flood fill, 8-connected.
type FloodFillDetector struct{}

// Detect implements Detector.
func (FloodFillDetector) Detect(label *raster.Image, classValue uint8) ([]Blob, error) {
	if label.Bands != 1 {
		return nil, fmt.Errorf("label map has %d bands, want 1", label.Bands)
	}

	w, h := label.Width, label.Height
	visited := make([]byte, w*h)
	var blobs []Blob

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if visited[idx] != 0 || label.Pix[idx] != classValue {
				continue
			}
			blobs = append(blobs, fill(label, visited, x, y, classValue))
		}
	}
	return blobs, nil
}

// fill flood-fills the region containing (startX, startY) and returns its
// centroid and area.
func fill(label *raster.Image, visited []byte, startX, startY int, classValue uint8) Blob {
	w, h := label.Width, label.Height
	var sumX, sumY, area int

	stack := []geometry.PointInt{{X: startX, Y: startY}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= w || p.Y < 0 || p.Y >= h {
			continue
		}
		idx := p.Y*w + p.X
		if visited[idx] != 0 || label.Pix[idx] != classValue {
			continue
		}
		visited[idx] = 1

		sumX += p.X
		sumY += p.Y
		area++

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, geometry.PointInt{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}

	return Blob{
		Centroid: geometry.Point2D{
			X: float64(sumX) / float64(area),
			Y: float64(sumY) / float64(area),
		},
		Area: area,
	}
}
