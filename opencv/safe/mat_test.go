package safe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestMatLifecycle(t *testing.T) {
	m, err := NewMat(3, 5, gocv.MatTypeCV32FC3)
	require.NoError(t, err)

	assert.Equal(t, 3, m.Rows())
	assert.Equal(t, 5, m.Cols())
	assert.Equal(t, 3, m.Channels())

	data, err := m.Float32s()
	require.NoError(t, err)
	assert.Len(t, data, 45)

	clone, err := m.Clone()
	require.NoError(t, err)
	assert.NotEqual(t, m.ID(), clone.ID())
	clone.Close()

	m.AddRef()
	m.Release()
	assert.True(t, m.IsValid())
	m.Release()
	assert.False(t, m.IsValid())
	assert.True(t, m.Empty())
	assert.Zero(t, m.Rows())

	_, err = m.Float32s()
	require.Error(t, err)
}

func TestNewMatRejectsBadDimensions(t *testing.T) {
	_, err := NewMat(0, 5, gocv.MatTypeCV8UC1)
	require.Error(t, err)
	require.Error(t, ValidateMatForOperation(nil, "test"))
	require.Error(t, ValidateKernelSize(2, "test"))
	require.NoError(t, ValidateKernelSize(7, "test"))

	_, err = FloatType(2)
	require.Error(t, err)
}
