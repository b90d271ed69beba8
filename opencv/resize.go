package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"trackaug/opencv/conversion"
	"trackaug/opencv/safe"
	"trackaug/tensor"
)

var interpolationFlags = map[tensor.Interpolation]gocv.InterpolationFlags{
	tensor.Bilinear: gocv.InterpolationLinear,
	tensor.Bicubic:  gocv.InterpolationCubic,
}

// Resize resamples img with cv::resize. OpenCV samples at pixel centres,
// so results differ slightly from tensor.Resize near the edges.
func Resize(img *tensor.Image, height, width int, method tensor.Interpolation) (*tensor.Image, error) {
	flag, ok := interpolationFlags[method]
	if !ok {
		return nil, fmt.Errorf("%v: %w", method, tensor.ErrInterpolation)
	}
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("resize to %dx%d: %w", height, width, tensor.ErrShapeMismatch)
	}

	src, err := conversion.TensorToMat(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst, err := safe.NewMat(height, width, src.Type())
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	gocv.Resize(src.GetMat(), dst.GetMatPtr(), image.Point{X: width, Y: height}, 0, 0, flag)

	out, err := conversion.MatToTensor(dst)
	if err != nil {
		return nil, fmt.Errorf("resize result conversion failed: %w", err)
	}
	return out, nil
}
