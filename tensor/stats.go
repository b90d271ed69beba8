package tensor

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Channel copies channel c out of the interleaved samples.
func (m *Image) Channel(c int) []float64 {
	out := make([]float64, m.height*m.width)
	for i := range out {
		out[i] = m.Pix[i*m.channels+c]
	}
	return out
}

// ChannelMeans returns the mean of every channel.
func (m *Image) ChannelMeans() []float64 {
	means := make([]float64, m.channels)
	for c := range means {
		means[c] = stat.Mean(m.Channel(c), nil)
	}
	return means
}

// Luma collapses the channels to one plane by plain averaging.
func (m *Image) Luma() []float64 {
	out := make([]float64, m.height*m.width)
	if m.channels == 0 {
		return out
	}
	inv := 1 / float64(m.channels)
	for i := range out {
		out[i] = floats.Sum(m.Pix[i*m.channels:(i+1)*m.channels]) * inv
	}
	return out
}

// LaplacianVariance is the variance of the 4-neighbour Laplacian of the
// luma plane. It falls as high-frequency detail is removed, which makes it
// a cheap blur detector. Images smaller than 3x3 report zero.
func LaplacianVariance(m *Image) float64 {
	h, w := m.height, m.width
	if h < 3 || w < 3 {
		return 0
	}
	luma := m.Luma()
	lap := make([]float64, 0, (h-2)*(w-2))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			lap = append(lap, luma[i-w]+luma[i+w]+luma[i-1]+luma[i+1]-4*luma[i])
		}
	}
	return stat.Variance(lap, nil)
}

// MaxAbsDiff is the largest elementwise distance between two same-shaped
// images.
func MaxAbsDiff(a, b *Image) (float64, error) {
	if a.Shape() != b.Shape() {
		return 0, ErrShapeMismatch
	}
	if len(a.Pix) == 0 {
		return 0, nil
	}
	return floats.Distance(a.Pix, b.Pix, math.Inf(1)), nil
}
