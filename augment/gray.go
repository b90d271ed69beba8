package augment

import (
	"math/rand/v2"

	"trackaug/tensor"
)

// ITU-R BT.601 luma weights.
const (
	lumaR = 0.2989
	lumaG = 0.5870
	lumaB = 0.1140
)

// ToGray returns img converted to luma, replicated across three channels so
// the shape is unchanged.
func ToGray(img *tensor.Image) (*tensor.Image, error) {
	if err := requireRGB(img); err != nil {
		return nil, err
	}
	out := tensor.New(img.Height(), img.Width(), 3)
	src, dst := img.Pix, out.Pix
	for i := 0; i < len(src); i += 3 {
		y := lumaR*src[i] + lumaG*src[i+1] + lumaB*src[i+2]
		dst[i], dst[i+1], dst[i+2] = y, y, y
	}
	return out, nil
}

// RandomGray converts the whole batch to 3-channel grayscale with
// probability ratio. One draw decides for every image.
func RandomGray(rng *rand.Rand, batch tensor.Batch, ratio float64) (tensor.Batch, error) {
	out, _, err := randomGray(rng, batch, ratio)
	return out, err
}

func randomGray(rng *rand.Rand, batch tensor.Batch, ratio float64) (tensor.Batch, bool, error) {
	if _, err := requireRGBBatch(batch); err != nil {
		return nil, false, err
	}
	if !gate(rng, ratio) {
		return batch, false, nil
	}
	out := make(tensor.Batch, len(batch))
	for i, img := range batch {
		g, err := ToGray(img)
		if err != nil {
			return nil, false, err
		}
		out[i] = g
	}
	return out, true, nil
}
