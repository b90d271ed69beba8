package augment

import (
	"fmt"
	"math/rand/v2"

	"trackaug/tensor"
)

// BlurShape is the only input shape RandomBlur accepts: the search-region
// crop the tracker is trained on.
var BlurShape = tensor.Shape{Height: 255, Width: 255, Channels: 3}

// ImageFilter is a pluggable image-to-image filter, typically backed by a
// native library.
type ImageFilter interface {
	Apply(img *tensor.Image) (*tensor.Image, error)
}

// FilterFunc adapts a plain function to ImageFilter.
type FilterFunc func(img *tensor.Image) (*tensor.Image, error)

func (f FilterFunc) Apply(img *tensor.Image) (*tensor.Image, error) {
	return f(img)
}

// Blurrer is a Gaussian blur backend. Sigma is derived from the kernel
// size.
type Blurrer interface {
	GaussianBlur(img *tensor.Image, ksize int) (*tensor.Image, error)
}

// RandomGaussian is an ImageFilter that blurs with an odd kernel size drawn
// uniformly from [MinKernel, MaxKernel] on every call.
type RandomGaussian struct {
	MinKernel int
	MaxKernel int

	rng     *rand.Rand
	backend Blurrer
	last    int
}

// NewRandomGaussian draws kernel sizes 3, 5, 7, 9 or 11.
func NewRandomGaussian(rng *rand.Rand, backend Blurrer) *RandomGaussian {
	return &RandomGaussian{MinKernel: 3, MaxKernel: 11, rng: rng, backend: backend}
}

// KernelSize draws the next kernel size.
func (g *RandomGaussian) KernelSize() int {
	n := (g.MaxKernel-g.MinKernel)/2 + 1
	return g.MinKernel + 2*g.rng.IntN(n)
}

// LastKernelSize is the kernel size used by the most recent Apply.
func (g *RandomGaussian) LastKernelSize() int {
	return g.last
}

func (g *RandomGaussian) Apply(img *tensor.Image) (*tensor.Image, error) {
	if g.MinKernel < 1 || g.MinKernel%2 == 0 || g.MaxKernel < g.MinKernel {
		return nil, fmt.Errorf("kernel range [%d, %d] must hold odd sizes: %w", g.MinKernel, g.MaxKernel, ErrSize)
	}
	g.last = g.KernelSize()
	return g.backend.GaussianBlur(img, g.last)
}

// RandomBlur runs filter over img with probability prob. img must be
// BlurShape, and so must whatever the filter returns.
func RandomBlur(rng *rand.Rand, img *tensor.Image, prob float64, filter ImageFilter) (*tensor.Image, error) {
	out, _, err := randomBlur(rng, img, prob, filter)
	return out, err
}

func randomBlur(rng *rand.Rand, img *tensor.Image, prob float64, filter ImageFilter) (*tensor.Image, bool, error) {
	if img == nil {
		return nil, false, fmt.Errorf("nil image: %w", ErrShapeMismatch)
	}
	if s := img.Shape(); s != BlurShape {
		return nil, false, fmt.Errorf("blur input is %s, want %s: %w", s, BlurShape, ErrShapeMismatch)
	}
	if !gate(rng, prob) {
		return img, false, nil
	}
	out, err := filter.Apply(img)
	if err != nil {
		return nil, false, fmt.Errorf("blur filter failed: %w", err)
	}
	if s := out.Shape(); s != BlurShape {
		return nil, false, fmt.Errorf("blur filter returned %s, want %s: %w", s, BlurShape, ErrShapeMismatch)
	}
	return out, true, nil
}
