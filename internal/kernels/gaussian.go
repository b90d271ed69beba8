// Package kernels implements the separable convolution kernels the
// augmenters fall back to when no native filtering backend is wired in.
//
// Kernel construction and border handling match OpenCV's GaussianBlur so
// that the pure-Go path and the gocv path produce the same picture.
package kernels

import (
	"fmt"
	"math"

	"trackaug/tensor"
)

// Fixed binomial tables OpenCV uses for small kernels when sigma is not
// given.
var smallGaussian = map[int][]float64{
	1: {1},
	3: {0.25, 0.5, 0.25},
	5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// SigmaForSize is the sigma OpenCV derives from a kernel size when the
// caller passes sigma <= 0.
func SigmaForSize(ksize int) float64 {
	return 0.3*(float64(ksize-1)*0.5-1) + 0.8
}

// GaussianKernel returns the normalised 1-D kernel of the given odd size.
func GaussianKernel(ksize int, sigma float64) ([]float64, error) {
	if ksize <= 0 || ksize%2 == 0 {
		return nil, fmt.Errorf("gaussian kernel size must be positive and odd, got %d", ksize)
	}
	if sigma <= 0 {
		if tab, ok := smallGaussian[ksize]; ok {
			out := make([]float64, ksize)
			copy(out, tab)
			return out, nil
		}
		sigma = SigmaForSize(ksize)
	}

	k := make([]float64, ksize)
	scale := -0.5 / (sigma * sigma)
	var sum float64
	for i := range k {
		x := float64(i - (ksize-1)/2)
		k[i] = math.Exp(scale * x * x)
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k, nil
}

// reflect101 maps an out-of-range index the way BORDER_REFLECT_101 does:
// gfedcb|abcdefgh|gfedcba.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

// GaussianBlur convolves every channel of src with a ksize x ksize Gaussian.
// A sigma <= 0 is derived from ksize.
func GaussianBlur(src *tensor.Image, ksize int, sigma float64) (*tensor.Image, error) {
	k, err := GaussianKernel(ksize, sigma)
	if err != nil {
		return nil, err
	}
	h, w, ch := src.Height(), src.Width(), src.Channels()
	if h == 0 || w == 0 {
		return src.Clone(), nil
	}
	r := ksize / 2

	tmp := tensor.New(h, w, ch)
	for y := 0; y < h; y++ {
		in := src.Row(y)
		out := tmp.Row(y)
		for x := 0; x < w; x++ {
			for c := 0; c < ch; c++ {
				var acc float64
				for j, kv := range k {
					acc += kv * in[reflect101(x+j-r, w)*ch+c]
				}
				out[x*ch+c] = acc
			}
		}
	}

	dst := tensor.New(h, w, ch)
	stride := dst.Stride()
	for y := 0; y < h; y++ {
		out := dst.Row(y)
		for j, kv := range k {
			in := tmp.Row(reflect101(y+j-r, h))
			for i := 0; i < stride; i++ {
				out[i] += kv * in[i]
			}
		}
	}
	return dst, nil
}

// Gaussian is the pure-Go blur backend. Sigma <= 0 means "derive from the
// kernel size", the only mode the augmenters use.
type Gaussian struct {
	Sigma float64
}

func (g Gaussian) GaussianBlur(img *tensor.Image, ksize int) (*tensor.Image, error) {
	return GaussianBlur(img, ksize, g.Sigma)
}
