package augment

import (
	"fmt"
	"image"
	"math"
	"math/rand/v2"

	"trackaug/tensor"
)

type Interpolation = tensor.Interpolation

const (
	Bilinear = tensor.Bilinear
	Bicubic  = tensor.Bicubic
)

// StretchResult is a stretched image and the factor both axes were scaled
// by.
type StretchResult struct {
	Image *tensor.Image
	Scale float64
}

// MapRect carries a box from input to output coordinates.
func (r StretchResult) MapRect(box image.Rectangle) image.Rectangle {
	scale := func(v int) int { return int(math.RoundToEven(float64(v) * r.Scale)) }
	return image.Rect(scale(box.Min.X), scale(box.Min.Y), scale(box.Max.X), scale(box.Max.Y))
}

// StretchedSize is the output size for a given scale: each side scaled and
// rounded half to even.
func StretchedSize(height, width int, scale float64) Size {
	return Size{
		Height: int(math.RoundToEven(float64(height) * scale)),
		Width:  int(math.RoundToEven(float64(width) * scale)),
	}
}

// RandomStretch rescales img by 1 + U[-maxStretch, maxStretch). Both axes
// share the factor.
func RandomStretch(rng *rand.Rand, img *tensor.Image, maxStretch float64, method Interpolation) (StretchResult, error) {
	if img == nil {
		return StretchResult{}, fmt.Errorf("nil image: %w", ErrShapeMismatch)
	}
	if method != Bilinear && method != Bicubic {
		return StretchResult{}, fmt.Errorf("%v: %w", method, ErrInterpolation)
	}

	scale := 1 + uniform(rng, -maxStretch, maxStretch)
	size := StretchedSize(img.Height(), img.Width(), scale)
	if !size.valid() {
		return StretchResult{}, fmt.Errorf("stretch %s by %.4f gives %dx%d: %w",
			img.Shape(), scale, size.Height, size.Width, ErrSize)
	}

	out, err := tensor.Resize(img, size.Height, size.Width, method)
	if err != nil {
		return StretchResult{}, fmt.Errorf("stretch resize failed: %w", err)
	}
	return StretchResult{Image: out, Scale: scale}, nil
}
