// Package tensor holds the dense image and batch types the augmentation
// operators work on.
//
// An Image is a rank-3 array laid out row-major as (height, width, channel),
// the same HWC order a decoded frame has. Samples are float64 on the 0..255
// scale so that operators can chain without re-quantising between steps;
// ToRGBA rounds back to 8 bits when a caller needs a Go image.
package tensor

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBatch    = errors.New("batch is empty")
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Shape is the (height, width, channels) triple of an image.
type Shape struct {
	Height   int
	Width    int
	Channels int
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Height, s.Width, s.Channels)
}

// Len returns the number of samples an image of this shape holds.
func (s Shape) Len() int {
	return s.Height * s.Width * s.Channels
}

// Image is a rank-3 HWC array of float64 samples.
type Image struct {
	Pix []float64

	height   int
	width    int
	channels int
}

// New allocates a zero-filled image. It panics on negative dimensions, the
// way image.NewRGBA does for an inverted rectangle.
func New(height, width, channels int) *Image {
	if height < 0 || width < 0 || channels < 0 {
		panic(fmt.Sprintf("tensor: negative dimensions %dx%dx%d", height, width, channels))
	}
	return &Image{
		Pix:      make([]float64, height*width*channels),
		height:   height,
		width:    width,
		channels: channels,
	}
}

// NewFilled allocates an image with every sample set to value.
func NewFilled(height, width, channels int, value float64) *Image {
	img := New(height, width, channels)
	if value != 0 {
		for i := range img.Pix {
			img.Pix[i] = value
		}
	}
	return img
}

// FromSlice wraps pix without copying.
func FromSlice(height, width, channels int, pix []float64) (*Image, error) {
	if height < 0 || width < 0 || channels < 0 {
		return nil, fmt.Errorf("negative dimensions %dx%dx%d: %w", height, width, channels, ErrShapeMismatch)
	}
	if len(pix) != height*width*channels {
		return nil, fmt.Errorf("%d samples for shape %dx%dx%d: %w",
			len(pix), height, width, channels, ErrShapeMismatch)
	}
	return &Image{Pix: pix, height: height, width: width, channels: channels}, nil
}

func (m *Image) Height() int   { return m.height }
func (m *Image) Width() int    { return m.width }
func (m *Image) Channels() int { return m.channels }

func (m *Image) Shape() Shape {
	return Shape{Height: m.height, Width: m.width, Channels: m.channels}
}

// Stride is the number of samples in one row.
func (m *Image) Stride() int {
	return m.width * m.channels
}

func (m *Image) offset(y, x, c int) int {
	return (y*m.width+x)*m.channels + c
}

func (m *Image) At(y, x, c int) float64 {
	return m.Pix[m.offset(y, x, c)]
}

func (m *Image) Set(y, x, c int, v float64) {
	m.Pix[m.offset(y, x, c)] = v
}

// Pixel returns the channel samples of one pixel as a sub-slice of Pix.
func (m *Image) Pixel(y, x int) []float64 {
	i := m.offset(y, x, 0)
	return m.Pix[i : i+m.channels : i+m.channels]
}

// Row returns row y as a sub-slice of Pix.
func (m *Image) Row(y int) []float64 {
	i := y * m.Stride()
	return m.Pix[i : i+m.Stride() : i+m.Stride()]
}

func (m *Image) Clone() *Image {
	out := &Image{
		Pix:      make([]float64, len(m.Pix)),
		height:   m.height,
		width:    m.width,
		channels: m.channels,
	}
	copy(out.Pix, m.Pix)
	return out
}

// Clamp limits every sample to [lo, hi] in place and returns m.
func (m *Image) Clamp(lo, hi float64) *Image {
	for i, v := range m.Pix {
		m.Pix[i] = min(max(v, lo), hi)
	}
	return m
}

// Batch is a rank-4 array: a stack of same-shaped images.
type Batch []*Image

// Shape returns the common per-image shape, failing when the batch is
// empty or ragged.
func (b Batch) Shape() (Shape, error) {
	if len(b) == 0 {
		return Shape{}, ErrEmptyBatch
	}
	for i, img := range b {
		if img == nil {
			return Shape{}, fmt.Errorf("image %d is nil: %w", i, ErrShapeMismatch)
		}
	}
	first := b[0].Shape()
	for i, img := range b[1:] {
		if s := img.Shape(); s != first {
			return Shape{}, fmt.Errorf("image %d is %s, image 0 is %s: %w", i+1, s, first, ErrShapeMismatch)
		}
	}
	return first, nil
}

func (b Batch) Clone() Batch {
	out := make(Batch, len(b))
	for i, img := range b {
		out[i] = img.Clone()
	}
	return out
}

// Reverse returns the batch in reverse order without copying the images.
func (b Batch) Reverse() Batch {
	out := make(Batch, len(b))
	for i, img := range b {
		out[len(b)-1-i] = img
	}
	return out
}
