package augment

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"trackaug/tensor"
)

// Default mixup rate range. Draws above 1 are clipped, so roughly 40% of
// samples come through unmixed.
const (
	MixupMinRate = 0.3
	MixupMaxRate = 1.5
)

// MixupResult is the blended batch and the per-sample weight of the
// original image.
type MixupResult struct {
	Batch        tensor.Batch
	Coefficients []float64
}

// RandomMixup is RandomMixupRange over [0.3, 1.5).
func RandomMixup(rng *rand.Rand, batch tensor.Batch) (MixupResult, error) {
	return RandomMixupRange(rng, batch, MixupMinRate, MixupMaxRate)
}

// RandomMixupRange blends every sample i with sample n-1-i:
//
//	out[i] = c[i]*batch[i] + (1-c[i])*batch[n-1-i],  c[i] = min(U[lo, hi), 1)
//
// lo == hi fixes every coefficient at min(lo, 1).
//
// The batch must have an even number of images so that every sample has a
// distinct partner.
func RandomMixupRange(rng *rand.Rand, batch tensor.Batch, lo, hi float64) (MixupResult, error) {
	if _, err := batch.Shape(); err != nil {
		return MixupResult{}, err
	}
	if len(batch)%2 != 0 {
		return MixupResult{}, fmt.Errorf("batch of %d: %w", len(batch), ErrOddBatch)
	}
	if lo <= 0 || lo > hi {
		return MixupResult{}, fmt.Errorf("mixup rate range [%v, %v] is invalid", lo, hi)
	}

	coef := make([]float64, len(batch))
	for i := range coef {
		coef[i] = min(uniform(rng, lo, hi), 1)
	}

	rev := batch.Reverse()
	out := make(tensor.Batch, len(batch))
	for i, img := range batch {
		mixed := tensor.New(img.Height(), img.Width(), img.Channels())
		floats.ScaleTo(mixed.Pix, coef[i], img.Pix)
		floats.AddScaled(mixed.Pix, 1-coef[i], rev[i].Pix)
		out[i] = mixed
	}
	return MixupResult{Batch: out, Coefficients: coef}, nil
}
