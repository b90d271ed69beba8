package augment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"trackaug/internal/logger"
	"trackaug/internal/timing"
	"trackaug/tensor"
)

// Step is one per-image transform in a Chain.
type Step interface {
	Name() string
	Apply(ctx context.Context, rng *rand.Rand, img *tensor.Image) (*tensor.Image, error)
}

type funcStep struct {
	name string
	fn   func(rng *rand.Rand, img *tensor.Image) (*tensor.Image, error)
}

func (s funcStep) Name() string { return s.name }

func (s funcStep) Apply(ctx context.Context, rng *rand.Rand, img *tensor.Image) (*tensor.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.fn(rng, img)
}

// NewStep wraps fn as a named Step.
func NewStep(name string, fn func(rng *rand.Rand, img *tensor.Image) (*tensor.Image, error)) Step {
	return funcStep{name: name, fn: fn}
}

func StretchStep(maxStretch float64, method Interpolation) Step {
	return NewStep("stretch", func(rng *rand.Rand, img *tensor.Image) (*tensor.Image, error) {
		res, err := RandomStretch(rng, img, maxStretch, method)
		return res.Image, err
	})
}

func CenterCropStep(size Size) Step {
	return NewStep("center_crop", func(_ *rand.Rand, img *tensor.Image) (*tensor.Image, error) {
		return CenterCrop(img, size)
	})
}

func CropStep(size Size, opts CropOptions) Step {
	return NewStep("crop", func(rng *rand.Rand, img *tensor.Image) (*tensor.Image, error) {
		res, err := RandomCropWith(rng, img, size, opts)
		return res.Image, err
	})
}

func ColorStep(p ColorParams) Step {
	return NewStep("color", func(rng *rand.Rand, img *tensor.Image) (*tensor.Image, error) {
		return RandomColor(rng, img, p)
	})
}

// BlurStep draws kernel sizes in [minKernel, maxKernel] from the step's
// random source and hands them to backend.
func BlurStep(prob float64, minKernel, maxKernel int, backend Blurrer) Step {
	return NewStep("blur", func(rng *rand.Rand, img *tensor.Image) (*tensor.Image, error) {
		filter := NewRandomGaussian(rng, backend)
		filter.MinKernel, filter.MaxKernel = minKernel, maxKernel
		return RandomBlur(rng, img, prob, filter)
	})
}

func FlipStep(prob float64) Step {
	return NewStep("flip", func(rng *rand.Rand, img *tensor.Image) (*tensor.Image, error) {
		return RandomFlip(rng, img, prob)
	})
}

// Chain runs its steps in order, feeding each output into the next.
type Chain struct {
	steps []Step
	log   logger.Logger
	timer *timing.Tracker
}

func NewChain(steps ...Step) *Chain {
	return &Chain{
		steps: slices.Clone(steps),
		log:   logger.Nop(),
	}
}

// WithLogger logs every step at debug level.
func (c *Chain) WithLogger(log logger.Logger) *Chain {
	c.log = log
	return c
}

// WithTimer records the duration of every step under its name.
func (c *Chain) WithTimer(t *timing.Tracker) *Chain {
	c.timer = t
	return c
}

func (c *Chain) Execute(ctx context.Context, rng *rand.Rand, input *tensor.Image) (*tensor.Image, error) {
	current := input

	for _, step := range c.steps {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		stop := c.timer.Start(step.Name())
		result, err := step.Apply(ctx, rng, current)
		stop()
		if err != nil {
			c.log.Error("chain", err, map[string]interface{}{"step": step.Name()})
			return nil, fmt.Errorf("step %s failed: %w", step.Name(), err)
		}

		c.log.Debug("chain", "step applied", map[string]interface{}{
			"step":    step.Name(),
			"changed": result != current,
			"shape":   result.Shape().String(),
		})
		current = result
	}

	return current, nil
}

func (c *Chain) AddStep(step Step) {
	c.steps = append(c.steps, step)
}

func (c *Chain) InsertStep(index int, step Step) error {
	if index < 0 || index > len(c.steps) {
		return fmt.Errorf("index out of range: %d", index)
	}

	c.steps = append(c.steps[:index], append([]Step{step}, c.steps[index:]...)...)
	return nil
}

func (c *Chain) RemoveStep(index int) error {
	if index < 0 || index >= len(c.steps) {
		return fmt.Errorf("index out of range: %d", index)
	}

	c.steps = append(c.steps[:index], c.steps[index+1:]...)
	return nil
}

func (c *Chain) StepCount() int {
	return len(c.steps)
}

func (c *Chain) StepNames() []string {
	names := make([]string, len(c.steps))
	for i, step := range c.steps {
		names[i] = step.Name()
	}
	return names
}
