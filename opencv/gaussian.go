// Package opencv is the native filtering backend: the same operations the
// pure-Go kernels provide, run through gocv.
package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"trackaug/augment"
	"trackaug/opencv/conversion"
	"trackaug/opencv/memory"
	"trackaug/opencv/safe"
	"trackaug/tensor"
)

var _ augment.Blurrer = (*GaussianFilter)(nil)

// GaussianFilter blurs through gocv.GaussianBlur. Sigma <= 0 lets OpenCV
// derive it from the kernel size.
type GaussianFilter struct {
	Sigma float64
	pool  *memory.Pool
}

// NewGaussianFilter recycles native buffers through pool; nil disables
// pooling.
func NewGaussianFilter(pool *memory.Pool) *GaussianFilter {
	return &GaussianFilter{pool: pool}
}

func (g *GaussianFilter) Name() string {
	return "gaussian_filter"
}

func (g *GaussianFilter) acquire(img *tensor.Image) (*safe.Mat, error) {
	if g.pool == nil {
		return conversion.TensorToMat(img)
	}
	matType, err := safe.FloatType(img.Channels())
	if err != nil {
		return nil, err
	}
	mat, err := g.pool.Get(img.Height(), img.Width(), matType)
	if err != nil {
		return nil, err
	}
	if err := conversion.FillMat(mat, img); err != nil {
		mat.Close()
		return nil, err
	}
	return mat, nil
}

func (g *GaussianFilter) newMat(rows, cols int, matType gocv.MatType) (*safe.Mat, error) {
	if g.pool == nil {
		return safe.NewMat(rows, cols, matType)
	}
	return g.pool.Get(rows, cols, matType)
}

func (g *GaussianFilter) release(mat *safe.Mat) {
	if g.pool == nil {
		mat.Close()
		return
	}
	g.pool.Put(mat)
}

func (g *GaussianFilter) GaussianBlur(img *tensor.Image, ksize int) (*tensor.Image, error) {
	if err := safe.ValidateKernelSize(ksize, "GaussianBlur"); err != nil {
		return nil, err
	}
	src, err := g.acquire(img)
	if err != nil {
		return nil, fmt.Errorf("failed to create source Mat: %w", err)
	}
	defer g.release(src)

	dst, err := g.newMat(src.Rows(), src.Cols(), src.Type())
	if err != nil {
		return nil, fmt.Errorf("failed to create destination Mat: %w", err)
	}
	defer g.release(dst)

	gocv.GaussianBlur(src.GetMat(), dst.GetMatPtr(), image.Point{X: ksize, Y: ksize}, g.Sigma, g.Sigma, gocv.BorderReflect101)

	return conversion.MatToTensor(dst)
}

// Apply blurs with a fixed 5x5 kernel, for use as a plain augment.ImageFilter.
func (g *GaussianFilter) Apply(img *tensor.Image) (*tensor.Image, error) {
	return g.GaussianBlur(img, 5)
}
