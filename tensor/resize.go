package tensor

import (
	"errors"
	"fmt"
	"math"
)

// Interpolation selects the resampling kernel used by Resize.
type Interpolation int

const (
	Bilinear Interpolation = iota
	Bicubic
)

var ErrInterpolation = errors.New("unknown interpolation")

// bicubicA is the Keys kernel coefficient used by the legacy tensor
// framework resizer (OpenCV uses the same value).
const bicubicA = -0.75

func (i Interpolation) String() string {
	switch i {
	case Bilinear:
		return "bilinear"
	case Bicubic:
		return "bicubic"
	default:
		return fmt.Sprintf("Interpolation(%d)", int(i))
	}
}

// ParseInterpolation maps "bilinear" and "bicubic" to their constants.
func ParseInterpolation(name string) (Interpolation, error) {
	switch name {
	case "bilinear", "":
		return Bilinear, nil
	case "bicubic":
		return Bicubic, nil
	default:
		return 0, fmt.Errorf("%q: %w", name, ErrInterpolation)
	}
}

// taps holds, for every output position along one axis, the source indices
// and weights that contribute to it.
type taps struct {
	n   int
	idx []int
	w   []float64
}

// axisTaps maps out output positions onto in source positions using the
// corner-aligned-at-zero convention (src = dst * in/out, no half-pixel
// offset). Neighbours outside the source are clamped to the edge.
func axisTaps(in, out int, method Interpolation) taps {
	scale := float64(in) / float64(out)
	var t taps
	switch method {
	case Bicubic:
		t.n = 4
	default:
		t.n = 2
	}
	t.idx = make([]int, out*t.n)
	t.w = make([]float64, out*t.n)

	for o := 0; o < out; o++ {
		src := float64(o) * scale
		base := int(math.Floor(src))
		frac := src - float64(base)
		k := o * t.n

		if method == Bicubic {
			ws := keysWeights(frac)
			for j := 0; j < 4; j++ {
				t.idx[k+j] = clampIndex(base-1+j, in)
				t.w[k+j] = ws[j]
			}
			continue
		}

		t.idx[k] = clampIndex(base, in)
		t.idx[k+1] = clampIndex(base+1, in)
		t.w[k] = 1 - frac
		t.w[k+1] = frac
	}
	return t
}

func keysWeights(t float64) [4]float64 {
	a := bicubicA
	x0 := t + 1
	x1 := t
	x2 := 1 - t
	x3 := 2 - t
	return [4]float64{
		((a*x0-5*a)*x0+8*a)*x0 - 4*a,
		((a+2)*x1-(a+3))*x1*x1 + 1,
		((a+2)*x2-(a+3))*x2*x2 + 1,
		((a*x3-5*a)*x3+8*a)*x3 - 4*a,
	}
}

func clampIndex(i, n int) int {
	return min(max(i, 0), n-1)
}

// Resize resamples src to height x width. The result is unclamped: bicubic
// overshoot outside 0..255 is left for the caller to handle.
func Resize(src *Image, height, width int, method Interpolation) (*Image, error) {
	if method != Bilinear && method != Bicubic {
		return nil, fmt.Errorf("%v: %w", method, ErrInterpolation)
	}
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("resize to %dx%d: %w", height, width, ErrShapeMismatch)
	}
	if src.height == 0 || src.width == 0 {
		return nil, fmt.Errorf("resize from empty %s: %w", src.Shape(), ErrShapeMismatch)
	}
	if height == src.height && width == src.width {
		return src.Clone(), nil
	}

	ch := src.channels
	xt := axisTaps(src.width, width, method)
	yt := axisTaps(src.height, height, method)

	// Horizontal pass: src.height x width.
	tmp := New(src.height, width, ch)
	for y := 0; y < src.height; y++ {
		in := src.Row(y)
		out := tmp.Row(y)
		for x := 0; x < width; x++ {
			k := x * xt.n
			for c := 0; c < ch; c++ {
				var acc float64
				for j := 0; j < xt.n; j++ {
					acc += xt.w[k+j] * in[xt.idx[k+j]*ch+c]
				}
				out[x*ch+c] = acc
			}
		}
	}

	// Vertical pass: height x width.
	dst := New(height, width, ch)
	stride := dst.Stride()
	for y := 0; y < height; y++ {
		k := y * yt.n
		out := dst.Row(y)
		for j := 0; j < yt.n; j++ {
			w := yt.w[k+j]
			if w == 0 {
				continue
			}
			in := tmp.Row(yt.idx[k+j])
			for i := 0; i < stride; i++ {
				out[i] += w * in[i]
			}
		}
	}
	return dst, nil
}
