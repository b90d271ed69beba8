package augment

import (
	"errors"
	"fmt"

	"trackaug/tensor"
)

var (
	ErrChannels      = errors.New("expected a 3-channel image")
	ErrEmptyBatch    = tensor.ErrEmptyBatch
	ErrShapeMismatch = tensor.ErrShapeMismatch
	ErrOddBatch      = errors.New("mixup needs an even batch size")
	ErrNotSquare     = errors.New("image is not square")
	ErrSize          = errors.New("invalid target size")
	ErrInterpolation = tensor.ErrInterpolation
)

func requireRGB(img *tensor.Image) error {
	if img == nil {
		return fmt.Errorf("nil image: %w", ErrShapeMismatch)
	}
	if img.Channels() != 3 {
		return fmt.Errorf("got %d channels: %w", img.Channels(), ErrChannels)
	}
	return nil
}

func requireRGBBatch(batch tensor.Batch) (tensor.Shape, error) {
	shape, err := batch.Shape()
	if err != nil {
		return tensor.Shape{}, err
	}
	if shape.Channels != 3 {
		return tensor.Shape{}, fmt.Errorf("got %d channels: %w", shape.Channels, ErrChannels)
	}
	return shape, nil
}
