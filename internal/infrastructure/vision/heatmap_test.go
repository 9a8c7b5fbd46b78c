package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"

	"artifact-sifter/internal/domain/entity"
)

func uniformMap(w, h int, v float64) entity.ProbabilityMap {
	values := make([]float64, w*h)
	for i := range values {
		values[i] = v
	}
	return entity.ProbabilityMap{Width: w, Height: h, Values: values}
}

func luminance(c color.RGBA) float64 {
	return 0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)
}

func TestRamp_MonotonicLuminance(t *testing.T) {
	require.GreaterOrEqual(t, len(rampStops), 16)
	for i := 1; i < len(rampStops); i++ {
		require.Greater(t, luminance(rampStops[i]), luminance(rampStops[i-1]), "stop %d", i)
	}

	c := NewCompositor(SchemeRamp, false)
	require.Equal(t, rampStops[0], c.Color(0))
	require.Equal(t, rampStops[15], c.Color(1))
	require.Equal(t, rampStops[8], c.Color(0.5))
	require.Equal(t, rampStops[15], c.Color(2))
}

func TestDiverging_Endpoints(t *testing.T) {
	c := NewCompositor(SchemeDiverging, false)
	require.Equal(t, color.RGBA{B: 255, A: 255}, c.Color(0))
	require.Equal(t, color.RGBA{R: 255, B: 255, A: 255}, c.Color(0.5))
	require.Equal(t, color.RGBA{R: 255, A: 255}, c.Color(1))
}

func TestTranslucentAlpha(t *testing.T) {
	c := NewCompositor(SchemeRamp, true)
	require.Equal(t, uint8(180), c.Color(0).A)
	require.Equal(t, uint8(218), c.Color(0.5).A) // 217.5 округляется вверх
	require.Equal(t, uint8(255), c.Color(1).A)
}

func TestComposite_UniformRoundTripExact(t *testing.T) {
	for _, scheme := range []ColorScheme{SchemeRamp, SchemeDiverging} {
		c := NewCompositor(scheme, false)
		v := 0.7
		want := c.Color(v)
		geom := SquareCrop(40, 30)

		out, err := c.Composite(uniformMap(8, 8, v), &geom)
		require.NoError(t, err)
		require.Equal(t, image.Rect(0, 0, 40, 30), out.Bounds())

		inside := geom.Rect()
		for y := 0; y < 30; y++ {
			for x := 0; x < 40; x++ {
				got := out.RGBAAt(x, y)
				if image.Pt(x, y).In(inside) {
					require.Equal(t, want, got, "(%d,%d)", x, y)
				} else {
					require.Equal(t, NeutralFill, got, "(%d,%d)", x, y)
				}
			}
		}
	}
}

func TestComposite_HotSpotAlignment(t *testing.T) {
	const inputSize = 8
	m := uniformMap(inputSize, inputSize, 0)
	hx, hy := 5, 2
	m.Values[hy*inputSize+hx] = 1

	geom := SquareCrop(1280, 960) // side 960, offsetX 160
	c := NewCompositor(SchemeRamp, false)
	out, err := c.Composite(m, &geom)
	require.NoError(t, err)

	hot := c.Color(1)
	bounds := image.Rectangle{}
	for y := 0; y < out.Bounds().Dy(); y++ {
		for x := 0; x < out.Bounds().Dx(); x++ {
			if out.RGBAAt(x, y) == hot {
				bounds = bounds.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}

	wantX := geom.OffsetX + hx*geom.Side/inputSize
	wantY := geom.OffsetY + hy*geom.Side/inputSize
	require.InDelta(t, wantX, bounds.Min.X, 1)
	require.InDelta(t, wantY, bounds.Min.Y, 1)
	require.InDelta(t, geom.Side/inputSize, bounds.Dx(), 1)
	require.InDelta(t, geom.Side/inputSize, bounds.Dy(), 1)
}

func TestComposite_NoGeometryReturnsUnscaled(t *testing.T) {
	c := NewCompositor(SchemeRamp, true)
	out, err := c.Composite(uniformMap(3, 2, 0.2), nil)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 3, 2), out.Bounds())
	require.Equal(t, c.Color(0.2), out.RGBAAt(2, 1))
}

func TestComposite_Errors(t *testing.T) {
	c := NewCompositor(SchemeRamp, false)

	_, err := c.Composite(entity.ProbabilityMap{}, nil)
	require.ErrorIs(t, err, ErrEmptyMap)

	bad := entity.CropGeometry{Side: 10, OffsetX: 5, SrcWidth: 12, SrcHeight: 10}
	_, err = c.Composite(uniformMap(2, 2, 0.5), &bad)
	require.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestCompare_SplitsAtFraction(t *testing.T) {
	frame := uniformFrame(10, 4, color.RGBA{G: 255, A: 255})
	heat := image.NewRGBA(image.Rect(0, 0, 2, 2))
	draw.Draw(heat, heat.Bounds(), image.NewUniform(color.RGBA{R: 255, A: 255}), image.Point{}, draw.Src)

	out := Compare(frame, heat, 0.5)
	require.Equal(t, color.RGBA{R: 255, A: 255}, out.RGBAAt(4, 0))
	require.Equal(t, color.RGBA{G: 255, A: 255}, out.RGBAAt(5, 0))
}

func TestOverlay_OpaqueHeatmapWins(t *testing.T) {
	frame := uniformFrame(4, 4, color.RGBA{G: 255, A: 255})
	c := NewCompositor(SchemeRamp, false)
	heat, err := c.Composite(uniformMap(2, 2, 1), nil)
	require.NoError(t, err)

	out := Overlay(frame, heat)
	require.Equal(t, c.Color(1), out.RGBAAt(3, 3))
}

func TestParseColorScheme(t *testing.T) {
	s, err := ParseColorScheme("")
	require.NoError(t, err)
	require.Equal(t, SchemeRamp, s)

	_, err = ParseColorScheme("rainbow")
	require.Error(t, err)
}
