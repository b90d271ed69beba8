package augment

import (
	"fmt"
	"math/rand/v2"

	"trackaug/tensor"
)

// Default downsample ratio range.
const (
	DownsampleMinRatio = 1.0 / 8
	DownsampleMaxRatio = 1.0 / 4
)

// RandomDownsample is RandomDownsampleRange over [1/8, 1/4).
func RandomDownsample(rng *rand.Rand, batch tensor.Batch, imgSize int, prob float64) (tensor.Batch, error) {
	out, _, err := RandomDownsampleRange(rng, batch, imgSize, prob, DownsampleMinRatio, DownsampleMaxRatio)
	return out, err
}

// RandomDownsampleRange simulates a low-resolution capture with probability
// prob: every image is shrunk bilinearly to int(imgSize*ratio) on each side,
// ratio ~ U[lo, hi), and blown back up to imgSize x imgSize. Otherwise the
// batch comes back as an unchanged copy. The drawn side length is returned,
// or 0 when the gate did not fire.
//
// Images must be square.
func RandomDownsampleRange(rng *rand.Rand, batch tensor.Batch, imgSize int, prob, lo, hi float64) (tensor.Batch, int, error) {
	shape, err := batch.Shape()
	if err != nil {
		return nil, 0, err
	}
	if shape.Height != shape.Width {
		return nil, 0, fmt.Errorf("downsample of %s: %w", shape, ErrNotSquare)
	}
	if imgSize <= 0 {
		return nil, 0, fmt.Errorf("downsample to %d: %w", imgSize, ErrSize)
	}
	if !gate(rng, prob) {
		return batch.Clone(), 0, nil
	}

	rate := uniform(rng, lo, hi)
	small := int(float64(imgSize) * rate)
	if small <= 0 {
		return nil, 0, fmt.Errorf("downsample ratio %.4f of %d rounds to zero: %w", rate, imgSize, ErrSize)
	}

	out := make(tensor.Batch, len(batch))
	for i, img := range batch {
		down, err := tensor.Resize(img, small, small, tensor.Bilinear)
		if err != nil {
			return nil, 0, fmt.Errorf("downsample image %d: %w", i, err)
		}
		up, err := tensor.Resize(down, imgSize, imgSize, tensor.Bilinear)
		if err != nil {
			return nil, 0, fmt.Errorf("upsample image %d: %w", i, err)
		}
		out[i] = up
	}
	return out, small, nil
}
