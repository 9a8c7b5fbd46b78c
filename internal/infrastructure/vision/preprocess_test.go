package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"artifact-sifter/internal/domain/entity"
)

func uniformFrame(w, h int, c color.RGBA) entity.Frame {
	f := entity.NewFrame(w, h)
	for i := 0; i < w*h; i++ {
		copy(f.Pix[4*i:], []byte{c.R, c.G, c.B, c.A})
	}
	return f
}

func TestSquareCrop_Invariants(t *testing.T) {
	sizes := [][2]int{{1, 1}, {1, 7}, {7, 1}, {2, 3}, {1280, 960}, {960, 1280}, {1919, 1080}, {5, 5}}
	for _, s := range sizes {
		g := SquareCrop(s[0], s[1])
		require.True(t, g.Valid(), "%dx%d: %+v", s[0], s[1], g)
		require.LessOrEqual(t, g.OffsetX+g.Side, g.SrcWidth)
		require.LessOrEqual(t, g.OffsetY+g.Side, g.SrcHeight)
		require.Equal(t, min(s[0], s[1]), g.Side)
	}

	g := SquareCrop(1280, 960)
	require.Equal(t, 160, g.OffsetX)
	require.Equal(t, 0, g.OffsetY)
}

func TestComponent_ExactConversion(t *testing.T) {
	for v := 0; v < 256; v++ {
		require.Equal(t, float32(float64(v)/255), Component(uint8(v), 0, false))
		for c := 0; c < 3; c++ {
			want := float32((float64(v)/255 - imageNetMean[c]) / imageNetStd[c])
			require.Equal(t, want, Component(uint8(v), c, true))
		}
	}
	require.Equal(t, float32(1), Component(255, 2, false))
}

func TestToTensor_PlanarLayout(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	img.Set(1, 0, color.RGBA{R: 0, G: 255, B: 0, A: 10})
	img.Set(0, 1, color.RGBA{R: 0, G: 0, B: 255, A: 255})
	img.Set(1, 1, color.RGBA{R: 51, G: 102, B: 204, A: 0})

	tensor := ToTensor(img, false)
	require.Equal(t, []int{1, 3, 2, 2}, tensor.Dims)
	require.Equal(t, entity.DTypeFloat32, tensor.DType)
	require.Equal(t, []float32{
		1, 0, 0, 0.2, // R
		0, 1, 0, 0.4, // G
		0, 0, 1, 0.8, // B
	}, tensor.Data)
}

func TestToTensorLayout_Interleaved(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	img.Set(1, 0, color.RGBA{R: 51, G: 102, B: 204, A: 255})

	tensor := ToTensorLayout(img, false, LayoutNHWC)
	require.Equal(t, []int{1, 1, 2, 3}, tensor.Dims)
	require.Equal(t, []float32{
		1, 0, 0,       // пиксель (0,0)
		0.2, 0.4, 0.8, // пиксель (1,0)
	}, tensor.Data)
}

func TestPrepareLayout_RedFrameNHWC(t *testing.T) {
	frame := uniformFrame(400, 300, color.RGBA{R: 255, A: 255})

	p := NewPreprocessor(GeometryCenterCrop, false)
	prepared, err := p.PrepareLayout(frame, image.Pt(4, 4), LayoutNHWC)
	require.NoError(t, err)
	require.Equal(t, []int{1, 4, 4, 3}, prepared.Tensor.Dims)
	for i := 0; i < 16; i++ {
		require.Equal(t, []float32{1, 0, 0}, prepared.Tensor.Data[3*i:3*i+3], "pixel %d", i)
	}
}

func TestPrepare_CenterCrop(t *testing.T) {
	frame := entity.NewFrame(6, 4)
	img := frame.RGBA()
	// центральный квадрат 4x4 начинается с x=1; его левый верхний пиксель красный
	img.Set(1, 0, color.RGBA{R: 255, A: 255})
	img.Set(0, 0, color.RGBA{G: 255, A: 255})

	p := NewPreprocessor(GeometryCenterCrop, false)
	prepared, err := p.Prepare(frame, image.Pt(4, 4))
	require.NoError(t, err)
	require.True(t, prepared.Aligned)
	require.Equal(t, entity.CropGeometry{Side: 4, OffsetX: 1, OffsetY: 0, SrcWidth: 6, SrcHeight: 4}, prepared.Geometry)
	require.Equal(t, []int{1, 3, 4, 4}, prepared.Tensor.Dims)
	require.Equal(t, float32(1), prepared.Tensor.Data[0])  // R(0,0)
	require.Equal(t, float32(0), prepared.Tensor.Data[16]) // G(0,0)
}

func TestPrepare_DirectResize(t *testing.T) {
	frame := uniformFrame(40, 30, color.RGBA{R: 255, G: 128, B: 0, A: 255})

	p := NewPreprocessor(GeometryDirect, false)
	prepared, err := p.Prepare(frame, image.Pt(8, 8))
	require.NoError(t, err)
	require.False(t, prepared.Aligned)
	require.Equal(t, entity.CropGeometry{Side: 30, SrcWidth: 40, SrcHeight: 30}, prepared.Geometry)

	plane := 64
	for i := 0; i < plane; i++ {
		require.Equal(t, float32(1), prepared.Tensor.Data[i])
		require.Equal(t, float32(128.0/255), prepared.Tensor.Data[plane+i])
		require.Equal(t, float32(0), prepared.Tensor.Data[2*plane+i])
	}
}

func TestPrepare_Normalized(t *testing.T) {
	frame := uniformFrame(4, 4, color.RGBA{R: 124, G: 116, B: 104, A: 255})

	p := NewPreprocessor(GeometryCenterCrop, true)
	prepared, err := p.Prepare(frame, image.Pt(4, 4))
	require.NoError(t, err)
	require.Equal(t, Component(124, 0, true), prepared.Tensor.Data[0])
	require.InDelta(t, 0.0, prepared.Tensor.Data[0], 0.01)
}

func TestPrepare_InvalidInput(t *testing.T) {
	p := NewPreprocessor(GeometryCenterCrop, true)

	_, err := p.Prepare(entity.NewFrame(4, 4), image.Pt(0, 4))
	require.ErrorIs(t, err, ErrInvalidInputSize)

	_, err = p.Prepare(entity.NewFrame(4, 4), image.Pt(4, -1))
	require.ErrorIs(t, err, ErrInvalidInputSize)

	_, err = p.Prepare(entity.Frame{}, image.Pt(4, 4))
	require.ErrorIs(t, err, ErrEmptyFrame)
}

func TestParseGeometry(t *testing.T) {
	g, err := ParseGeometry("")
	require.NoError(t, err)
	require.Equal(t, GeometryCenterCrop, g)

	g, err = ParseGeometry("direct")
	require.NoError(t, err)
	require.Equal(t, GeometryDirect, g)

	_, err = ParseGeometry("letterbox")
	require.Error(t, err)
}
