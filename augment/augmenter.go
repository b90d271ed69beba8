package augment

import (
	"context"
	"fmt"
	"image"
	"math/rand/v2"

	"trackaug/config"
	"trackaug/internal/kernels"
	"trackaug/internal/logger"
	"trackaug/internal/timing"
	"trackaug/tensor"
)

// Augmenter applies the configured operators in the order the tracker
// training recipe uses them.
type Augmenter struct {
	cfg    config.Config
	method Interpolation
	log    logger.Logger
	blur   Blurrer
	timer  *timing.Tracker
}

type Option func(*Augmenter)

func WithLogger(log logger.Logger) Option {
	return func(a *Augmenter) { a.log = log }
}

// WithBlurBackend replaces the pure-Go Gaussian, e.g. with
// opencv.GaussianFilter.
func WithBlurBackend(b Blurrer) Option {
	return func(a *Augmenter) { a.blur = b }
}

func WithTimer(t *timing.Tracker) Option {
	return func(a *Augmenter) { a.timer = t }
}

// New validates cfg and builds an Augmenter. Without WithLogger the logger
// described by cfg.Logging is used.
func New(cfg config.Config, opts ...Option) (*Augmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid augment config: %w", err)
	}
	method, err := tensor.ParseInterpolation(cfg.Stretch.Interpolation)
	if err != nil {
		return nil, err
	}
	crop := Size{Height: cfg.Crop.Height, Width: cfg.Crop.Width}
	if cfg.Blur.Prob > 0 && (crop.Height != BlurShape.Height || crop.Width != BlurShape.Width) {
		return nil, fmt.Errorf("blur needs %s crops, config crops to %dx%d: %w",
			BlurShape, crop.Height, crop.Width, ErrShapeMismatch)
	}

	a := &Augmenter{cfg: cfg, method: method}
	for _, opt := range opts {
		opt(a)
	}

	if a.blur == nil {
		if cfg.Blur.Backend == "opencv" {
			return nil, fmt.Errorf("blur backend %q must be supplied with WithBlurBackend", cfg.Blur.Backend)
		}
		a.blur = kernels.Gaussian{}
	}
	if a.log == nil {
		if a.log, err = cfg.NewLogger(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Augmenter) Config() config.Config {
	return a.cfg
}

// NewRand returns a PCG source seeded from runner.seed. Every call starts
// the same stream, so two runs fed from NewRand augment identically.
func (a *Augmenter) NewRand() *rand.Rand {
	seed := uint64(a.cfg.Runner.Seed)
	return rand.New(rand.NewPCG(seed, seed))
}

func (a *Augmenter) cropSize() Size {
	return Size{Height: a.cfg.Crop.Height, Width: a.cfg.Crop.Width}
}

func (a *Augmenter) colorParams() ColorParams {
	return ColorParams{
		MaxBrightnessDelta: a.cfg.Color.MaxBrightnessDelta,
		ContrastLower:      a.cfg.Color.ContrastLower,
		ContrastUpper:      a.cfg.Color.ContrastUpper,
		Prob:               a.cfg.Color.Prob,
	}
}

// Trace records what Image did to one picture.
type Trace struct {
	Scale      float64
	Offset     image.Point
	Padding    image.Point
	Size       Size
	Color      ColorJitter
	Blurred    bool
	KernelSize int
	Flipped    bool
}

// MapRect carries a box in the original image through stretch, crop and
// flip into output coordinates.
func (t Trace) MapRect(box image.Rectangle) image.Rectangle {
	r := StretchResult{Scale: t.Scale}.MapRect(box)
	r = CropResult{Offset: t.Offset, Padding: t.Padding}.MapRect(r)
	if t.Flipped {
		r = image.Rect(t.Size.Width-r.Max.X, r.Min.Y, t.Size.Width-r.Min.X, r.Max.Y)
	}
	return r
}

// Image runs stretch, random crop, colour jitter, blur and flip on one
// image.
func (a *Augmenter) Image(rng *rand.Rand, img *tensor.Image) (*tensor.Image, Trace, error) {
	trace := Trace{Size: a.cropSize()}

	stop := a.timer.Start("stretch")
	st, err := RandomStretch(rng, img, a.cfg.Stretch.MaxStretch, a.method)
	stop()
	if err != nil {
		return nil, trace, err
	}
	trace.Scale = st.Scale

	stop = a.timer.Start("crop")
	cr, err := RandomCropWith(rng, st.Image, trace.Size, CropOptions{Margin: a.cfg.Crop.Margin, Fill: a.cfg.Crop.Fill})
	stop()
	if err != nil {
		return nil, trace, err
	}
	trace.Offset, trace.Padding = cr.Offset, cr.Padding

	stop = a.timer.Start("color")
	out, jitter, err := randomColor(rng, cr.Image, a.colorParams())
	stop()
	if err != nil {
		return nil, trace, err
	}
	trace.Color = jitter

	if a.cfg.Blur.Prob > 0 {
		filter := NewRandomGaussian(rng, a.blur)
		filter.MinKernel, filter.MaxKernel = a.cfg.Blur.MinKernelSize, a.cfg.Blur.MaxKernelSize
		stop = a.timer.Start("blur")
		out, trace.Blurred, err = randomBlur(rng, out, a.cfg.Blur.Prob, filter)
		stop()
		if err != nil {
			return nil, trace, err
		}
		if trace.Blurred {
			trace.KernelSize = filter.LastKernelSize()
		}
	}

	stop = a.timer.Start("flip")
	out, trace.Flipped, err = randomFlip(rng, out, a.cfg.Flip.Prob)
	stop()
	if err != nil {
		return nil, trace, err
	}

	a.log.Debug("augmenter", "image augmented", map[string]interface{}{
		"scale":       trace.Scale,
		"offset_x":    trace.Offset.X,
		"offset_y":    trace.Offset.Y,
		"pad_x":       trace.Padding.X,
		"pad_y":       trace.Padding.Y,
		"color":       trace.Color.Applied,
		"blurred":     trace.Blurred,
		"kernel_size": trace.KernelSize,
		"flipped":     trace.Flipped,
	})
	return out, trace, nil
}

// Chain returns the per-image operators of Image as a Chain, for callers
// that do not need the trace.
func (a *Augmenter) Chain() *Chain {
	steps := []Step{
		StretchStep(a.cfg.Stretch.MaxStretch, a.method),
		CropStep(a.cropSize(), CropOptions{Margin: a.cfg.Crop.Margin, Fill: a.cfg.Crop.Fill}),
		ColorStep(a.colorParams()),
	}
	if a.cfg.Blur.Prob > 0 {
		steps = append(steps, BlurStep(a.cfg.Blur.Prob, a.cfg.Blur.MinKernelSize, a.cfg.Blur.MaxKernelSize, a.blur))
	}
	steps = append(steps, FlipStep(a.cfg.Flip.Prob))
	return NewChain(steps...).WithLogger(a.log).WithTimer(a.timer)
}

// Images runs Chain over every image of batch on a Runner sized by
// cfg.Runner.Workers.
func (a *Augmenter) Images(ctx context.Context, rng *rand.Rand, batch tensor.Batch) (tensor.Batch, error) {
	return NewRunner(a.Chain(), a.cfg.Runner.Workers).WithLogger(a.log).Run(ctx, rng, batch)
}

// BatchTrace records what Batch did.
type BatchTrace struct {
	Gray           bool
	Coefficients   []float64
	DownsampleSize int
}

// Batch runs grayscale, mixup and downsample over a batch of augmented
// crops.
func (a *Augmenter) Batch(rng *rand.Rand, batch tensor.Batch) (tensor.Batch, BatchTrace, error) {
	var trace BatchTrace

	stop := a.timer.Start("gray")
	out, gray, err := randomGray(rng, batch, a.cfg.Gray.Ratio)
	stop()
	if err != nil {
		return nil, trace, err
	}
	trace.Gray = gray

	if a.cfg.Mixup.Enabled {
		stop = a.timer.Start("mixup")
		mixed, err := RandomMixupRange(rng, out, a.cfg.Mixup.MinRate, a.cfg.Mixup.MaxRate)
		stop()
		if err != nil {
			return nil, trace, err
		}
		out, trace.Coefficients = mixed.Batch, mixed.Coefficients
	}

	stop = a.timer.Start("downsample")
	out, trace.DownsampleSize, err = RandomDownsampleRange(rng, out, a.cfg.Downsample.ImageSize,
		a.cfg.Downsample.Prob, a.cfg.Downsample.MinRatio, a.cfg.Downsample.MaxRatio)
	stop()
	if err != nil {
		return nil, trace, err
	}

	a.log.Debug("augmenter", "batch augmented", map[string]interface{}{
		"batch":           len(out),
		"gray":            trace.Gray,
		"mixup":           len(trace.Coefficients) > 0,
		"downsample_size": trace.DownsampleSize,
	})
	return out, trace, nil
}
