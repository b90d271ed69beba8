package augment

import (
	"fmt"
	"math/rand/v2"

	"trackaug/tensor"
)

// ColorParams configures RandomColor. The brightness delta is added to the
// samples as is, so on 0..255 data the default shift is a fraction of a
// level.
type ColorParams struct {
	MaxBrightnessDelta float64
	ContrastLower      float64
	ContrastUpper      float64
	Prob               float64
}

var DefaultColorParams = ColorParams{
	MaxBrightnessDelta: 0.12,
	ContrastLower:      0.5,
	ContrastUpper:      1.5,
	Prob:               0.3,
}

func (p ColorParams) validate() error {
	if p.MaxBrightnessDelta < 0 {
		return fmt.Errorf("brightness delta %v must not be negative", p.MaxBrightnessDelta)
	}
	if p.ContrastLower < 0 || p.ContrastLower > p.ContrastUpper {
		return fmt.Errorf("contrast range [%v, %v] is invalid", p.ContrastLower, p.ContrastUpper)
	}
	return nil
}

// AdjustBrightness adds delta to every sample. Float data is not
// saturated.
func AdjustBrightness(img *tensor.Image, delta float64) *tensor.Image {
	out := img.Clone()
	for i := range out.Pix {
		out.Pix[i] += delta
	}
	return out
}

// AdjustContrast moves every sample away from (factor > 1) or towards
// (factor < 1) its channel mean. Float data is not saturated.
func AdjustContrast(img *tensor.Image, factor float64) *tensor.Image {
	out := img.Clone()
	means := img.ChannelMeans()
	ch := img.Channels()
	for i := range out.Pix {
		m := means[i%ch]
		out.Pix[i] = (out.Pix[i]-m)*factor + m
	}
	return out
}

// ColorJitter is the outcome of one RandomColor draw.
type ColorJitter struct {
	Applied    bool
	Brightness float64
	Contrast   float64
}

// RandomColor jitters brightness and then contrast with probability
// p.Prob. The jitter is only computed when the gate fires.
func RandomColor(rng *rand.Rand, img *tensor.Image, p ColorParams) (*tensor.Image, error) {
	out, _, err := randomColor(rng, img, p)
	return out, err
}

func randomColor(rng *rand.Rand, img *tensor.Image, p ColorParams) (*tensor.Image, ColorJitter, error) {
	if err := requireRGB(img); err != nil {
		return nil, ColorJitter{}, err
	}
	if err := p.validate(); err != nil {
		return nil, ColorJitter{}, err
	}
	if !gate(rng, p.Prob) {
		return img, ColorJitter{}, nil
	}
	j := ColorJitter{
		Applied:    true,
		Brightness: uniform(rng, -p.MaxBrightnessDelta, p.MaxBrightnessDelta),
		Contrast:   uniform(rng, p.ContrastLower, p.ContrastUpper),
	}
	out := AdjustContrast(AdjustBrightness(img, j.Brightness), j.Contrast)
	return out, j, nil
}
