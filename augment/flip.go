package augment

import (
	"fmt"
	"math/rand/v2"

	"trackaug/tensor"
)

// FlipHorizontal mirrors img left to right.
func FlipHorizontal(img *tensor.Image) *tensor.Image {
	out := tensor.New(img.Height(), img.Width(), img.Channels())
	w, ch := img.Width(), img.Channels()
	for y := 0; y < img.Height(); y++ {
		src, dst := img.Row(y), out.Row(y)
		for x := 0; x < w; x++ {
			copy(dst[x*ch:(x+1)*ch], src[(w-1-x)*ch:(w-x)*ch])
		}
	}
	return out
}

// RandomFlip mirrors img with probability prob.
func RandomFlip(rng *rand.Rand, img *tensor.Image, prob float64) (*tensor.Image, error) {
	out, _, err := randomFlip(rng, img, prob)
	return out, err
}

func randomFlip(rng *rand.Rand, img *tensor.Image, prob float64) (*tensor.Image, bool, error) {
	if img == nil {
		return nil, false, fmt.Errorf("nil image: %w", ErrShapeMismatch)
	}
	if !gate(rng, prob) {
		return img, false, nil
	}
	return FlipHorizontal(img), true, nil
}
