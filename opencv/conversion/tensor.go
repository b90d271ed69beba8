// Package conversion moves pixel data between tensor images and gocv Mats.
//
// Channel order is carried over untouched: an RGB tensor becomes an "RGB"
// Mat, not BGR. The filters used here treat every channel alike, so no swap
// is needed.
package conversion

import (
	"fmt"

	"gocv.io/x/gocv"

	"trackaug/opencv/safe"
	"trackaug/tensor"
)

// TensorToMat copies img into a new CV_32F Mat with the same channel count.
func TensorToMat(img *tensor.Image) (*safe.Mat, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}
	matType, err := safe.FloatType(img.Channels())
	if err != nil {
		return nil, err
	}

	mat, err := safe.NewMat(img.Height(), img.Width(), matType)
	if err != nil {
		return nil, fmt.Errorf("destination Mat creation failed: %w", err)
	}
	if err := FillMat(mat, img); err != nil {
		mat.Close()
		return nil, err
	}
	return mat, nil
}

// FillMat overwrites a CV_32F Mat of matching geometry with img.
func FillMat(mat *safe.Mat, img *tensor.Image) error {
	if err := checkGeometry(mat, img); err != nil {
		return err
	}
	data, err := mat.Float32s()
	if err != nil {
		return fmt.Errorf("Mat data access failed: %w", err)
	}
	if len(data) != len(img.Pix) {
		return fmt.Errorf("Mat holds %d samples, image %d", len(data), len(img.Pix))
	}
	for i, v := range img.Pix {
		data[i] = float32(v)
	}
	return nil
}

func checkGeometry(mat *safe.Mat, img *tensor.Image) error {
	if err := safe.ValidateMatForOperation(mat, "tensor copy"); err != nil {
		return err
	}
	if mat.Rows() != img.Height() || mat.Cols() != img.Width() || mat.Channels() != img.Channels() {
		return fmt.Errorf("Mat is %dx%dx%d, image is %s: %w",
			mat.Rows(), mat.Cols(), mat.Channels(), img.Shape(), tensor.ErrShapeMismatch)
	}
	return nil
}

// MatToTensor copies an 8-bit or 32-bit float Mat into a new tensor image.
func MatToTensor(mat *safe.Mat) (*tensor.Image, error) {
	if err := safe.ValidateMatForOperation(mat, "Mat to tensor conversion"); err != nil {
		return nil, err
	}

	img := tensor.New(mat.Rows(), mat.Cols(), mat.Channels())
	switch mat.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
		data, err := mat.Uint8s()
		if err != nil {
			return nil, fmt.Errorf("Mat data access failed: %w", err)
		}
		if len(data) != len(img.Pix) {
			return nil, fmt.Errorf("Mat holds %d samples, expected %d", len(data), len(img.Pix))
		}
		for i, v := range data {
			img.Pix[i] = float64(v)
		}
	case gocv.MatTypeCV32FC1, gocv.MatTypeCV32FC3, gocv.MatTypeCV32FC4:
		data, err := mat.Float32s()
		if err != nil {
			return nil, fmt.Errorf("Mat data access failed: %w", err)
		}
		if len(data) != len(img.Pix) {
			return nil, fmt.Errorf("Mat holds %d samples, expected %d", len(data), len(img.Pix))
		}
		for i, v := range data {
			img.Pix[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("unsupported MatType %d", int(mat.Type()))
	}
	return img, nil
}
