package augment

import (
	"fmt"
	"image"
	"math/rand/v2"

	"trackaug/tensor"
)

// CenterCrop crops or zero-pads img about its centre so that it ends up
// exactly size. Each axis is handled on its own: an axis longer than the
// target is cropped, a shorter one is padded.
func CenterCrop(img *tensor.Image, size Size) (*tensor.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image: %w", ErrShapeMismatch)
	}
	if !size.valid() {
		return nil, fmt.Errorf("center crop to %dx%d: %w", size.Height, size.Width, ErrSize)
	}
	h, w, ch := img.Height(), img.Width(), img.Channels()

	cropY, padY := centerOffsets(h, size.Height)
	cropX, padX := centerOffsets(w, size.Width)
	rows := min(h, size.Height)
	cols := min(w, size.Width)

	out := tensor.New(size.Height, size.Width, ch)
	for y := 0; y < rows; y++ {
		src := img.Row(cropY + y)[cropX*ch : (cropX+cols)*ch]
		dst := out.Row(padY + y)[padX*ch:]
		copy(dst, src)
	}
	return out, nil
}

// centerOffsets returns where to start reading (crop) and writing (pad)
// along one axis.
func centerOffsets(in, target int) (crop, pad int) {
	if in > target {
		return (in - target) / 2, 0
	}
	return 0, (target - in) / 2
}

// CropOptions tunes RandomCropWith.
type CropOptions struct {
	// Margin is the slack, beyond the target, an axis must have before no
	// padding is added.
	Margin int
	// Fill is the value padded pixels take.
	Fill float64
}

// DefaultCropOptions pads with mid-grey whenever an axis has less than 64
// pixels of slack.
var DefaultCropOptions = CropOptions{Margin: 64, Fill: 128}

// CropResult is a random crop together with where it came from.
type CropResult struct {
	Image *tensor.Image
	// Offset is the crop origin (x1, y1) in the padded image.
	Offset image.Point
	// Padding is the amount (pad_x, pad_y) added to each side.
	Padding image.Point
}

// MapRect carries a box from input to output coordinates.
func (r CropResult) MapRect(box image.Rectangle) image.Rectangle {
	return box.Add(r.Padding).Sub(r.Offset)
}

// RandomCrop is RandomCropWith using DefaultCropOptions.
func RandomCrop(rng *rand.Rand, img *tensor.Image, size Size) (CropResult, error) {
	return RandomCropWith(rng, img, size, DefaultCropOptions)
}

// cropPad is min(|min(in - target - margin, 0)|, in): enough padding to
// give margin pixels of slack, never more than the axis itself.
func cropPad(in, target, margin int) int {
	short := min(in-target-margin, 0)
	return min(-short, in)
}

// RandomCropWith pads img on both sides of each short axis with opts.Fill
// and cuts a size window at a uniformly drawn origin. The result is always
// exactly size; the call fails if even the padded image is not larger than
// size.
func RandomCropWith(rng *rand.Rand, img *tensor.Image, size Size, opts CropOptions) (CropResult, error) {
	if img == nil {
		return CropResult{}, fmt.Errorf("nil image: %w", ErrShapeMismatch)
	}
	if !size.valid() {
		return CropResult{}, fmt.Errorf("random crop to %dx%d: %w", size.Height, size.Width, ErrSize)
	}
	h, w, ch := img.Height(), img.Width(), img.Channels()

	padY := cropPad(h, size.Height, opts.Margin)
	padX := cropPad(w, size.Width, opts.Margin)
	spanY := h + 2*padY - size.Height
	spanX := w + 2*padX - size.Width
	if spanY <= 0 || spanX <= 0 {
		return CropResult{}, fmt.Errorf("%s padded by (%d,%d) cannot hold %dx%d: %w",
			img.Shape(), padX, padY, size.Height, size.Width, ErrSize)
	}

	y1 := rng.IntN(spanY)
	x1 := rng.IntN(spanX)

	out := tensor.NewFilled(size.Height, size.Width, ch, opts.Fill)
	// Window in source coordinates, clipped to the source.
	sy0, sx0 := y1-padY, x1-padX
	ys, ye := max(sy0, 0), min(sy0+size.Height, h)
	xs, xe := max(sx0, 0), min(sx0+size.Width, w)
	for sy := ys; sy < ye; sy++ {
		if xs >= xe {
			break
		}
		src := img.Row(sy)[xs*ch : xe*ch]
		dst := out.Row(sy - sy0)[(xs-sx0)*ch:]
		copy(dst, src)
	}

	return CropResult{
		Image:   out,
		Offset:  image.Point{X: x1, Y: y1},
		Padding: image.Point{X: padX, Y: padY},
	}, nil
}
