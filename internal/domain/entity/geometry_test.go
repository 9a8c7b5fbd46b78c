package entity

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCropGeometryCenter(t *testing.T) {
	g := CropGeometry{Side: 8, OffsetX: 10, OffsetY: 20, SrcWidth: 28, SrcHeight: 28}
	x, y := g.Center()
	require.Equal(t, 14, x)
	require.Equal(t, 24, y)
	require.Equal(t, image.Rect(10, 20, 18, 28), g.Rect())
}

func TestCropGeometryValid(t *testing.T) {
	require.True(t, CropGeometry{Side: 1, SrcWidth: 1, SrcHeight: 1}.Valid())
	require.True(t, CropGeometry{Side: 960, OffsetX: 160, SrcWidth: 1280, SrcHeight: 960}.Valid())

	// выходит за правый край
	require.False(t, CropGeometry{Side: 960, OffsetX: 321, SrcWidth: 1280, SrcHeight: 960}.Valid())
	// не максимальный квадрат
	require.False(t, CropGeometry{Side: 100, SrcWidth: 1280, SrcHeight: 960}.Valid())
	require.False(t, CropGeometry{}.Valid())
}

func TestFrameRGBAView(t *testing.T) {
	f := NewFrame(3, 2)
	img := f.RGBA()
	img.Pix[img.PixOffset(2, 1)] = 200
	require.Equal(t, byte(200), f.Pix[4*(1*3+2)])

	copied := FrameFromRGBA(img.SubImage(image.Rect(1, 1, 3, 2)).(*image.RGBA))
	require.Equal(t, 2, copied.Width)
	require.Equal(t, 1, copied.Height)
	require.Equal(t, byte(200), copied.Pix[4])
}

func TestTensorSize(t *testing.T) {
	require.Equal(t, 0, Tensor{}.Size())
	require.Equal(t, 32, Tensor{Dims: []int{1, 2, 4, 4}}.Size())
}
