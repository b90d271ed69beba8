package augment

import (
	"image"
	"math/rand/v2"
)

// gate draws u ~ U[0,1) and reports u < p.
func gate(rng *rand.Rand, p float64) bool {
	return rng.Float64() < p
}

// uniform draws from [lo, hi).
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// Size is a target (height, width).
type Size struct {
	Height int
	Width  int
}

// Square is the Size with both sides equal to n.
func Square(n int) Size {
	return Size{Height: n, Width: n}
}

func (s Size) valid() bool {
	return s.Height > 0 && s.Width > 0
}

func (s Size) Point() image.Point {
	return image.Point{X: s.Width, Y: s.Height}
}
