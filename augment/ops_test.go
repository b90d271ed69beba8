package augment

import (
	"errors"
	"image"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackaug/internal/kernels"
	"trackaug/tensor"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// noisy fills an image with reproducible values in 0..255.
func noisy(seed uint64, h, w int) *tensor.Image {
	rng := newRNG(seed)
	img := tensor.New(h, w, 3)
	for i := range img.Pix {
		img.Pix[i] = float64(rng.IntN(256))
	}
	return img
}

func noisyBatch(n, h, w int) tensor.Batch {
	b := make(tensor.Batch, n)
	for i := range b {
		b[i] = noisy(uint64(i+1), h, w)
	}
	return b
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestToGrayReplicatesLuma(t *testing.T) {
	t.Parallel()

	img, err := tensor.FromSlice(1, 2, 3, []float64{255, 0, 0, 10, 20, 30})
	require.NoError(t, err)

	g, err := ToGray(img)
	require.NoError(t, err)
	assert.Equal(t, img.Shape(), g.Shape())

	y0 := 0.2989 * 255
	y1 := 0.2989*10 + 0.5870*20 + 0.1140*30
	want := []float64{y0, y0, y0, y1, y1, y1}
	if diff := cmp.Diff(want, g.Pix, approx); diff != "" {
		t.Errorf("gray mismatch (-want +got):\n%s", diff)
	}

	_, err = ToGray(tensor.New(2, 2, 1))
	require.ErrorIs(t, err, ErrChannels)
}

func TestRandomGray(t *testing.T) {
	t.Parallel()

	batch := noisyBatch(2, 4, 4)

	same, err := RandomGray(newRNG(1), batch, 0)
	require.NoError(t, err)
	assert.Same(t, batch[0], same[0])

	gray, err := RandomGray(newRNG(1), batch, 1)
	require.NoError(t, err)
	require.Len(t, gray, 2)
	for _, img := range gray {
		for i := 0; i < len(img.Pix); i += 3 {
			assert.Equal(t, img.Pix[i], img.Pix[i+1])
			assert.Equal(t, img.Pix[i], img.Pix[i+2])
		}
	}
	// The input batch is left alone.
	assert.Equal(t, noisy(1, 4, 4).Pix, batch[0].Pix)

	_, err = RandomGray(newRNG(1), tensor.Batch{}, 1)
	require.ErrorIs(t, err, ErrEmptyBatch)
}

func TestRandomStretchScaleMatchesOutput(t *testing.T) {
	t.Parallel()

	for seed := uint64(0); seed < 20; seed++ {
		img := noisy(seed, 37, 53)
		for _, method := range []Interpolation{Bilinear, Bicubic} {
			res, err := RandomStretch(newRNG(seed), img, 0.4, method)
			require.NoError(t, err)

			assert.GreaterOrEqual(t, res.Scale, 0.6)
			assert.Less(t, res.Scale, 1.4)
			assert.Equal(t, int(math.RoundToEven(37*res.Scale)), res.Image.Height())
			assert.Equal(t, int(math.RoundToEven(53*res.Scale)), res.Image.Width())
			assert.Equal(t, 3, res.Image.Channels())
		}
	}
}

func TestRandomStretchZeroRangeIsIdentity(t *testing.T) {
	t.Parallel()

	img := noisy(3, 8, 8)
	res, err := RandomStretch(newRNG(3), img, 0, Bilinear)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Scale)
	assert.Equal(t, img.Pix, res.Image.Pix)
}

func TestRandomStretchRejectsUnknownInterpolation(t *testing.T) {
	t.Parallel()

	_, err := RandomStretch(newRNG(1), noisy(1, 4, 4), 0.4, Interpolation(7))
	require.ErrorIs(t, err, ErrInterpolation)
}

func TestStretchMapRect(t *testing.T) {
	t.Parallel()

	r := StretchResult{Scale: 1.5}.MapRect(image.Rect(10, 20, 30, 40))
	assert.Equal(t, image.Rect(15, 30, 45, 60), r)
}

func TestCenterCrop(t *testing.T) {
	t.Parallel()

	src := noisy(9, 6, 8)

	t.Run("crops larger axes about the centre", func(t *testing.T) {
		t.Parallel()
		out, err := CenterCrop(src, Size{Height: 2, Width: 4})
		require.NoError(t, err)
		require.Equal(t, tensor.Shape{Height: 2, Width: 4, Channels: 3}, out.Shape())
		assert.Equal(t, src.Pixel(2, 2), out.Pixel(0, 0))
		assert.Equal(t, src.Pixel(3, 5), out.Pixel(1, 3))
	})

	t.Run("zero pads smaller axes about the centre", func(t *testing.T) {
		t.Parallel()
		out, err := CenterCrop(src, Size{Height: 10, Width: 8})
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0, 0}, out.Pixel(0, 0))
		assert.Equal(t, []float64{0, 0, 0}, out.Pixel(9, 7))
		assert.Equal(t, src.Pixel(0, 0), out.Pixel(2, 0))
		assert.Equal(t, src.Pixel(5, 7), out.Pixel(7, 7))
	})

	t.Run("scalar size is square", func(t *testing.T) {
		t.Parallel()
		out, err := CenterCrop(src, Square(5))
		require.NoError(t, err)
		assert.Equal(t, tensor.Shape{Height: 5, Width: 5, Channels: 3}, out.Shape())
	})

	t.Run("idempotent once at size", func(t *testing.T) {
		t.Parallel()
		for _, size := range []Size{Square(4), {Height: 9, Width: 3}, {Height: 6, Width: 8}} {
			once, err := CenterCrop(src, size)
			require.NoError(t, err)
			twice, err := CenterCrop(once, size)
			require.NoError(t, err)
			assert.Equal(t, once.Pix, twice.Pix)
		}
	})

	t.Run("rejects empty size", func(t *testing.T) {
		t.Parallel()
		_, err := CenterCrop(src, Size{})
		require.ErrorIs(t, err, ErrSize)
	})
}

func TestRandomCropAlwaysHitsTargetSize(t *testing.T) {
	t.Parallel()

	target := Square(64)
	tests := []struct {
		name string
		h, w int
	}{
		{"smaller", 40, 50},
		{"equal", 64, 64},
		{"slightly larger", 100, 90},
		{"much larger", 300, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			img := noisy(11, tt.h, tt.w)
			for seed := uint64(0); seed < 10; seed++ {
				res, err := RandomCrop(newRNG(seed), img, target)
				require.NoError(t, err)
				assert.Equal(t, tensor.Shape{Height: 64, Width: 64, Channels: 3}, res.Image.Shape())
				assert.Equal(t, cropPad(tt.h, 64, 64), res.Padding.Y)
				assert.Equal(t, cropPad(tt.w, 64, 64), res.Padding.X)
				assert.GreaterOrEqual(t, res.Offset.X, 0)
				assert.GreaterOrEqual(t, res.Offset.Y, 0)
				assert.Less(t, res.Offset.Y, tt.h+2*res.Padding.Y-64)
				assert.Less(t, res.Offset.X, tt.w+2*res.Padding.X-64)
			}
		})
	}
}

func TestRandomCropPixelsComeFromPaddedSource(t *testing.T) {
	t.Parallel()

	img := noisy(5, 20, 30)
	res, err := RandomCrop(newRNG(42), img, Size{Height: 16, Width: 24})
	require.NoError(t, err)

	for y := 0; y < 16; y++ {
		for x := 0; x < 24; x++ {
			sy := y + res.Offset.Y - res.Padding.Y
			sx := x + res.Offset.X - res.Padding.X
			want := []float64{128, 128, 128}
			if sy >= 0 && sy < 20 && sx >= 0 && sx < 30 {
				want = img.Pixel(sy, sx)
			}
			require.Equal(t, want, res.Image.Pixel(y, x), "pixel (%d,%d)", x, y)
		}
	}
}

func TestCropPad(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, cropPad(200, 127, 64))
	assert.Equal(t, 0, cropPad(191, 127, 64))
	assert.Equal(t, 1, cropPad(190, 127, 64))
	assert.Equal(t, 10, cropPad(10, 127, 64), "padding is capped at the axis length")
}

func TestRandomCropTooSmallEvenAfterPadding(t *testing.T) {
	t.Parallel()

	_, err := RandomCrop(newRNG(1), noisy(1, 10, 10), Square(40))
	require.ErrorIs(t, err, ErrSize)
}

func TestCropMapRect(t *testing.T) {
	t.Parallel()

	res := CropResult{Offset: image.Pt(30, 40), Padding: image.Pt(5, 10)}
	assert.Equal(t, image.Rect(-15, -20, 5, 0), res.MapRect(image.Rect(10, 10, 30, 30)))
}

func TestAdjustBrightnessAndContrast(t *testing.T) {
	t.Parallel()

	img, err := tensor.FromSlice(1, 2, 3, []float64{100, 0, 250, 200, 50, 250})
	require.NoError(t, err)

	b := AdjustBrightness(img, 0.12)
	if diff := cmp.Diff([]float64{100.12, 0.12, 250.12, 200.12, 50.12, 250.12}, b.Pix, approx); diff != "" {
		t.Errorf("brightness mismatch (-want +got):\n%s", diff)
	}

	c := AdjustContrast(img, 2)
	// Channel means are 150, 25, 250. Float data is not saturated.
	if diff := cmp.Diff([]float64{50, -25, 250, 250, 75, 250}, c.Pix, approx); diff != "" {
		t.Errorf("contrast mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 100.0, img.Pix[0], "input must not change")
}

func TestRandomColor(t *testing.T) {
	t.Parallel()

	img := noisy(2, 8, 8)

	off := DefaultColorParams
	off.Prob = 0
	same, err := RandomColor(newRNG(1), img, off)
	require.NoError(t, err)
	assert.Same(t, img, same)

	on := DefaultColorParams
	on.Prob = 1
	_, j, err := randomColor(newRNG(1), img, on)
	require.NoError(t, err)
	assert.True(t, j.Applied)
	assert.GreaterOrEqual(t, j.Brightness, -0.12)
	assert.Less(t, j.Brightness, 0.12)
	assert.GreaterOrEqual(t, j.Contrast, 0.5)
	assert.Less(t, j.Contrast, 1.5)

	out, err := RandomColor(newRNG(1), img, on)
	require.NoError(t, err)
	want := AdjustContrast(AdjustBrightness(img, j.Brightness), j.Contrast)
	assert.Equal(t, want.Pix, out.Pix)

	fixed := DefaultColorParams
	fixed.Prob = 1
	fixed.ContrastLower, fixed.ContrastUpper = 1, 1
	_, j, err = randomColor(newRNG(2), img, fixed)
	require.NoError(t, err)
	assert.Equal(t, 1.0, j.Contrast)

	bad := DefaultColorParams
	bad.ContrastLower, bad.ContrastUpper = 2, 1
	_, err = RandomColor(newRNG(1), img, bad)
	require.Error(t, err)
}

func TestRandomGaussianKernelSizes(t *testing.T) {
	t.Parallel()

	g := NewRandomGaussian(newRNG(7), kernels.Gaussian{})
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		k := g.KernelSize()
		require.Equal(t, 1, k%2, "kernel size must be odd")
		require.GreaterOrEqual(t, k, 3)
		require.LessOrEqual(t, k, 11)
		seen[k] = true
	}
	assert.Len(t, seen, 5)
}

func TestRandomBlur(t *testing.T) {
	t.Parallel()

	img := noisy(4, 255, 255)
	calls := 0
	filter := FilterFunc(func(in *tensor.Image) (*tensor.Image, error) {
		calls++
		return kernels.GaussianBlur(in, 5, 0)
	})

	same, err := RandomBlur(newRNG(1), img, 0, filter)
	require.NoError(t, err)
	assert.Same(t, img, same)
	assert.Zero(t, calls, "filter must not run when the gate is closed")

	out, err := RandomBlur(newRNG(1), img, 1, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, BlurShape, out.Shape())
	assert.Less(t, tensor.LaplacianVariance(out), tensor.LaplacianVariance(img))
}

func TestRandomBlurEnforcesShape(t *testing.T) {
	t.Parallel()

	filter := NewRandomGaussian(newRNG(1), kernels.Gaussian{})
	_, err := RandomBlur(newRNG(1), noisy(1, 64, 64), 1, filter)
	require.ErrorIs(t, err, ErrShapeMismatch)

	shrink := FilterFunc(func(*tensor.Image) (*tensor.Image, error) {
		return tensor.New(10, 10, 3), nil
	})
	_, err = RandomBlur(newRNG(1), noisy(1, 255, 255), 1, shrink)
	require.ErrorIs(t, err, ErrShapeMismatch)

	boom := errors.New("native filter crashed")
	failing := FilterFunc(func(*tensor.Image) (*tensor.Image, error) { return nil, boom })
	_, err = RandomBlur(newRNG(1), noisy(1, 255, 255), 1, failing)
	require.ErrorIs(t, err, boom)
}

func TestRandomFlip(t *testing.T) {
	t.Parallel()

	img := noisy(6, 5, 7)
	for seed := uint64(0); seed < 10; seed++ {
		same, err := RandomFlip(newRNG(seed), img, 0)
		require.NoError(t, err)
		assert.Same(t, img, same)

		flipped, err := RandomFlip(newRNG(seed), img, 1)
		require.NoError(t, err)
		for y := 0; y < 5; y++ {
			for x := 0; x < 7; x++ {
				require.Equal(t, img.Pixel(y, 6-x), flipped.Pixel(y, x))
			}
		}
	}
	assert.Equal(t, img.Pix, FlipHorizontal(FlipHorizontal(img)).Pix)
}

func TestNilImagesAreRejected(t *testing.T) {
	t.Parallel()

	_, err := RandomFlip(newRNG(1), nil, 1)
	require.ErrorIs(t, err, ErrShapeMismatch)

	withHole := tensor.Batch{noisy(1, 4, 4), nil}
	_, err = RandomMixup(newRNG(1), withHole)
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = RandomGray(newRNG(1), withHole, 1)
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = RandomDownsample(newRNG(1), withHole, 4, 1)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestRandomMixup(t *testing.T) {
	t.Parallel()

	batch := noisyBatch(4, 6, 6)
	res, err := RandomMixup(newRNG(8), batch)
	require.NoError(t, err)
	require.Len(t, res.Coefficients, 4)
	require.Len(t, res.Batch, 4)

	for i, c := range res.Coefficients {
		assert.Greater(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0)

		partner := batch[len(batch)-1-i]
		for k, v := range res.Batch[i].Pix {
			want := c*batch[i].Pix[k] + (1-c)*partner.Pix[k]
			require.InDelta(t, want, v, 1e-9)
		}
	}
}

func TestRandomMixupClipsAtOne(t *testing.T) {
	t.Parallel()

	batch := noisyBatch(2, 3, 3)
	res, err := RandomMixupRange(newRNG(1), batch, 1.2, 1.5)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, res.Coefficients)
	assert.Equal(t, batch[0].Pix, res.Batch[0].Pix)
}

func TestRandomMixupFixedRate(t *testing.T) {
	t.Parallel()

	res, err := RandomMixupRange(newRNG(1), noisyBatch(2, 3, 3), 0.5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, res.Coefficients)
}

func TestRandomMixupErrors(t *testing.T) {
	t.Parallel()

	_, err := RandomMixup(newRNG(1), noisyBatch(3, 2, 2))
	require.ErrorIs(t, err, ErrOddBatch)

	_, err = RandomMixup(newRNG(1), tensor.Batch{noisy(1, 2, 2), noisy(2, 3, 3)})
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = RandomMixup(newRNG(1), nil)
	require.ErrorIs(t, err, ErrEmptyBatch)
}

func TestRandomDownsample(t *testing.T) {
	t.Parallel()

	batch := noisyBatch(2, 64, 64)

	t.Run("closed gate returns an unchanged copy", func(t *testing.T) {
		t.Parallel()
		out, err := RandomDownsample(newRNG(1), batch, 64, 0)
		require.NoError(t, err)
		require.Len(t, out, 2)
		for i := range out {
			assert.NotSame(t, batch[i], out[i])
			assert.Equal(t, batch[i].Pix, out[i].Pix)
		}
	})

	t.Run("open gate loses detail at the target size", func(t *testing.T) {
		t.Parallel()
		out, small, err := RandomDownsampleRange(newRNG(1), batch, 64, 1, DownsampleMinRatio, DownsampleMaxRatio)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, small, 8)
		assert.LessOrEqual(t, small, 16)
		for i := range out {
			assert.Equal(t, tensor.Shape{Height: 64, Width: 64, Channels: 3}, out[i].Shape())
			assert.Less(t, tensor.LaplacianVariance(out[i]), tensor.LaplacianVariance(batch[i]))
		}
	})

	t.Run("target size may differ from input", func(t *testing.T) {
		t.Parallel()
		out, err := RandomDownsample(newRNG(2), batch, 96, 1)
		require.NoError(t, err)
		assert.Equal(t, tensor.Shape{Height: 96, Width: 96, Channels: 3}, out[0].Shape())
	})

	t.Run("rejects non-square images", func(t *testing.T) {
		t.Parallel()
		_, err := RandomDownsample(newRNG(1), tensor.Batch{noisy(1, 32, 48)}, 32, 1)
		require.ErrorIs(t, err, ErrNotSquare)
	})

	t.Run("rejects sizes that shrink to nothing", func(t *testing.T) {
		t.Parallel()
		_, err := RandomDownsample(newRNG(1), batch, 3, 1)
		require.ErrorIs(t, err, ErrSize)
	})
}
