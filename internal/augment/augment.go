// Package augment generates perturbed replicas of training tiles. Defect
// tiles are far rarer than clear wood, so the dataset is rebalanced by
// appending augmented copies of the minority classes: small geometric
// warps, luminance shifts and sensor-style noise that a classifier should
// be invariant to.
package augment

import (
	"math"
	"math/rand"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"wood-tiler/internal/raster"
	"wood-tiler/pkg/geometry"
)

// Policy bounds the random perturbations one replica may receive.
type Policy struct {
	// MaxTranslate is the maximum jitter in pixels along each axis.
	MaxTranslate int

	// ScaleMin and ScaleMax bound the uniform overall scale factor.
	ScaleMin, ScaleMax float64

	// AspectProb is the chance of an additional aspect-ratio distortion,
	// drawn uniformly from [AspectMin, AspectMax] and applied to X only.
	AspectProb           float64
	AspectMin, AspectMax float64

	// MaxRotateDeg bounds the rotation angle, drawn from ±MaxRotateDeg.
	MaxRotateDeg float64

	// FlipProb is the chance of a mirror flip; when it fires, horizontal
	// or vertical is picked with equal odds.
	FlipProb float64

	// MaxLuminance is the maximum additive brightness shift, drawn from
	// ±MaxLuminance and applied to every band.
	MaxLuminance int

	// NoiseProb is the chance of additive Gaussian noise. Its standard
	// deviation is drawn from [NoiseStdDev, NoiseStdDev+NoiseStdDevDelta],
	// expressed as a fraction of full scale.
	NoiseProb        float64
	NoiseStdDev      float64
	NoiseStdDevDelta float64
}

// DefaultPolicy returns the perturbation bounds the production training
// sets were built with.
func DefaultPolicy() Policy {
	return Policy{
		MaxTranslate:     5,
		ScaleMin:         0.95,
		ScaleMax:         1.05,
		AspectProb:       0.75,
		AspectMin:        0.95,
		AspectMax:        1.05,
		MaxRotateDeg:     5,
		FlipProb:         0.70,
		MaxLuminance:     30,
		NoiseProb:        0.25,
		NoiseStdDev:      0.005,
		NoiseStdDevDelta: 0.005,
	}
}

// Augmenter produces randomized replicas under a Policy. It owns its
// random stream, so a fixed seed reproduces a run replica for replica.
type Augmenter struct {
	Policy Policy
	rng    *rand.Rand
	noise  distuv.Normal
}

// New returns an Augmenter seeded for a reproducible run.
func New(policy Policy, seed int64) *Augmenter {
	return &Augmenter{
		Policy: policy,
		rng:    rand.New(rand.NewSource(seed)),
		noise: distuv.Normal{
			Mu:    0,
			Sigma: 1,
			Src:   xrand.NewSource(uint64(seed)),
		},
	}
}

// Apply returns a freshly perturbed copy of img. The source is never
// modified.
func (a *Augmenter) Apply(img *raster.Image) *raster.Image {
	out := a.warp(img)
	a.shiftLuminance(out)
	if a.rng.Float64() < a.Policy.NoiseProb {
		a.addNoise(out)
	}
	return out
}

// uniform draws from [lo, hi).
func (a *Augmenter) uniform(lo, hi float64) float64 {
	return lo + a.rng.Float64()*(hi-lo)
}

// warp composes the geometric perturbations about the tile center and
// resamples through the inverse mapping, so every output pixel gets a
// bilinear sample instead of forward-splatting holes.
func (a *Augmenter) warp(img *raster.Image) *raster.Image {
	p := a.Policy
	cx := float64(img.Width) / 2
	cy := float64(img.Height) / 2

	scale := a.uniform(p.ScaleMin, p.ScaleMax)
	sx, sy := scale, scale
	if a.rng.Float64() < p.AspectProb {
		sx *= a.uniform(p.AspectMin, p.AspectMax)
	}
	if a.rng.Float64() < p.FlipProb {
		if a.rng.Intn(2) == 0 {
			sx = -sx
		} else {
			sy = -sy
		}
	}

	angle := a.uniform(-p.MaxRotateDeg, p.MaxRotateDeg) * math.Pi / 180
	jitterX := a.uniform(-float64(p.MaxTranslate), float64(p.MaxTranslate))
	jitterY := a.uniform(-float64(p.MaxTranslate), float64(p.MaxTranslate))

	t := geometry.Translation(cx+jitterX, cy+jitterY).
		Compose(geometry.Rotation(angle)).
		Compose(geometry.Scale(sx, sy)).
		Compose(geometry.Translation(-cx, -cy))

	inv, ok := t.Inverse()
	if !ok {
		// Degenerate only if scale collapses to zero, which the policy
		// bounds rule out.
		return img.Clone()
	}

	out := raster.New(img.Width, img.Height, img.Bands)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			src := inv.Apply(geometry.Point2D{X: float64(x), Y: float64(y)})
			for b := 0; b < out.Bands; b++ {
				out.Set(x, y, b, img.BilinearAt(src.X, src.Y, b))
			}
		}
	}
	return out
}

func (a *Augmenter) shiftLuminance(img *raster.Image) {
	shift := a.rng.Intn(2*a.Policy.MaxLuminance+1) - a.Policy.MaxLuminance
	if shift == 0 {
		return
	}
	for i, v := range img.Pix {
		img.Pix[i] = clampByte(int(v) + shift)
	}
}

func (a *Augmenter) addNoise(img *raster.Image) {
	sigma := (a.Policy.NoiseStdDev + a.rng.Float64()*a.Policy.NoiseStdDevDelta) * 255
	for i, v := range img.Pix {
		img.Pix[i] = clampByte(int(float64(v) + a.noise.Rand()*sigma + 0.5))
	}
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
