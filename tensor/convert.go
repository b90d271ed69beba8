package tensor

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// FromImage converts any Go image into a 3-channel RGB tensor. The source
// is first drawn onto an RGBA canvas, so alpha ends up premultiplied into
// the colour samples.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	rgba, ok := src.(*image.RGBA)
	if !ok || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)
	}

	h, w := bounds.Dy(), bounds.Dx()
	out := New(h, w, 3)
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		dst := out.Row(y)
		for x := 0; x < w; x++ {
			dst[x*3] = float64(row[x*4])
			dst[x*3+1] = float64(row[x*4+1])
			dst[x*3+2] = float64(row[x*4+2])
		}
	}
	return out
}

// Quantize rounds a sample to the nearest 8-bit value, saturating at the
// ends of the range.
func Quantize(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// ToRGBA quantises a 1- or 3-channel image into an opaque *image.RGBA.
// Single-channel images are replicated across R, G and B.
func (m *Image) ToRGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, m.width, m.height))
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			px := m.Pixel(y, x)
			var c color.RGBA
			switch {
			case len(px) >= 3:
				c = color.RGBA{R: Quantize(px[0]), G: Quantize(px[1]), B: Quantize(px[2]), A: 255}
			case len(px) > 0:
				g := Quantize(px[0])
				c = color.RGBA{R: g, G: g, B: g, A: 255}
			default:
				c = color.RGBA{A: 255}
			}
			out.SetRGBA(x, y, c)
		}
	}
	return out
}
