package conversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"trackaug/opencv/safe"
	"trackaug/tensor"
)

func TestTensorMatRoundTrip(t *testing.T) {
	img := tensor.New(3, 4, 3)
	for i := range img.Pix {
		img.Pix[i] = float64(i) + 0.5
	}

	mat, err := TensorToMat(img)
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, gocv.MatTypeCV32FC3, mat.Type())
	assert.Equal(t, 3, mat.Rows())
	assert.Equal(t, 4, mat.Cols())

	back, err := MatToTensor(mat)
	require.NoError(t, err)
	assert.Equal(t, img.Pix, back.Pix)
}

func TestMatToTensorFromUint8(t *testing.T) {
	mat, err := safe.NewMat(2, 2, gocv.MatTypeCV8UC3)
	require.NoError(t, err)
	defer mat.Close()

	data, err := mat.Uint8s()
	require.NoError(t, err)
	for i := range data {
		data[i] = uint8(i * 10)
	}

	img, err := MatToTensor(mat)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{Height: 2, Width: 2, Channels: 3}, img.Shape())
	assert.Equal(t, 110.0, img.Pix[11])
}

func TestFillMatRejectsGeometryMismatch(t *testing.T) {
	mat, err := safe.NewMat(2, 2, gocv.MatTypeCV32FC3)
	require.NoError(t, err)
	defer mat.Close()

	err = FillMat(mat, tensor.New(3, 2, 3))
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)

	_, err = TensorToMat(tensor.New(2, 2, 2))
	require.Error(t, err)
}
